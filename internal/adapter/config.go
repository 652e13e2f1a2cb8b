// Package adapter contains the filesystem-facing pieces of ratchet: the
// project config file, the counts document and the file walker.
package adapter

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sort"

	toml "github.com/pelletier/go-toml/v2"

	"ratchet.dev/pkg/ratchet/internal/model"
)

// ConfigFileName is the project configuration document at the repo root.
const ConfigFileName = "ratchet.toml"

// RuleSetting is the per-rule entry under [rules]: a plain enable/disable
// flag or a table overriding the rule's severity.
type RuleSetting struct {
	Enabled  bool
	Severity model.Severity // empty when not overridden
}

// Config is the validated content of ratchet.toml.
type Config struct {
	Version   string
	Languages []model.Language
	Include   []string
	Exclude   []string
	Rules     map[model.RuleID]RuleSetting
	Format    string // human | jsonl
	Color     string // auto | always | never
}

type rawConfig struct {
	Ratchet struct {
		Version   string   `toml:"version"`
		Languages []string `toml:"languages"`
		Include   []string `toml:"include"`
		Exclude   []string `toml:"exclude"`
	} `toml:"ratchet"`
	Rules  map[string]any `toml:"rules"`
	Output struct {
		Format string `toml:"format"`
		Color  string `toml:"color"`
	} `toml:"output"`
}

// LoadConfig reads and validates ratchet.toml at path.
func LoadConfig(path model.Path) (*Config, error) {
	data, err := os.ReadFile(path.String())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s not found, run 'ratchet init' to create it", model.ErrConfig, ConfigFileName)
		}
		slog.Error("reading config", "path", path, "error", err)
		return nil, fmt.Errorf("%w: reading %s: %v", model.ErrConfig, path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and validates a ratchet.toml document.
func ParseConfig(data []byte) (*Config, error) {
	var raw rawConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", model.ErrConfig, ConfigFileName, err)
	}

	if raw.Ratchet.Version != "1" {
		return nil, fmt.Errorf("%w: unsupported config version %q (only \"1\" is supported)", model.ErrConfig, raw.Ratchet.Version)
	}
	if len(raw.Ratchet.Languages) == 0 {
		return nil, fmt.Errorf("%w: [ratchet] languages must list at least one language", model.ErrConfig)
	}

	cfg := &Config{
		Version: raw.Ratchet.Version,
		Include: raw.Ratchet.Include,
		Exclude: raw.Ratchet.Exclude,
		Rules:   map[model.RuleID]RuleSetting{},
		Format:  raw.Output.Format,
		Color:   raw.Output.Color,
	}

	seen := map[model.Language]bool{}
	for _, s := range raw.Ratchet.Languages {
		lang, err := model.ParseLanguage(s)
		if err != nil {
			return nil, err
		}
		if seen[lang] {
			return nil, fmt.Errorf("%w: language %q listed twice", model.ErrConfig, lang)
		}
		seen[lang] = true
		cfg.Languages = append(cfg.Languages, lang)
	}

	if len(cfg.Include) == 0 {
		cfg.Include = []string{"**/*"}
	}

	for key, value := range raw.Rules {
		id := model.RuleID(key)
		if err := id.Validate(); err != nil {
			return nil, fmt.Errorf("%w: [rules] key %q is not a valid rule id", model.ErrConfig, key)
		}
		setting, err := parseRuleSetting(key, value)
		if err != nil {
			return nil, err
		}
		cfg.Rules[id] = setting
	}

	switch cfg.Format {
	case "":
		cfg.Format = "human"
	case "human", "jsonl":
	default:
		return nil, fmt.Errorf("%w: [output] format %q (want human or jsonl)", model.ErrConfig, cfg.Format)
	}
	switch cfg.Color {
	case "":
		cfg.Color = "auto"
	case "auto", "always", "never":
	default:
		return nil, fmt.Errorf("%w: [output] color %q (want auto, always or never)", model.ErrConfig, cfg.Color)
	}

	return cfg, nil
}

func parseRuleSetting(key string, value any) (RuleSetting, error) {
	switch v := value.(type) {
	case bool:
		return RuleSetting{Enabled: v}, nil
	case map[string]any:
		setting := RuleSetting{Enabled: true}
		for k, field := range v {
			switch k {
			case "severity":
				s, ok := field.(string)
				if !ok {
					return RuleSetting{}, fmt.Errorf("%w: [rules] %s severity must be a string", model.ErrConfig, key)
				}
				sev, err := model.ParseSeverity(s)
				if err != nil {
					return RuleSetting{}, fmt.Errorf("%w: [rules] %s: invalid severity %q", model.ErrConfig, key, s)
				}
				setting.Severity = sev
			default:
				return RuleSetting{}, fmt.Errorf("%w: [rules] %s has unknown field %q", model.ErrConfig, key, k)
			}
		}
		return setting, nil
	default:
		return RuleSetting{}, fmt.Errorf("%w: [rules] %s must be a boolean or a table", model.ErrConfig, key)
	}
}

// EnabledRuleIDs returns the ids enabled by the [rules] section, sorted.
func (c *Config) EnabledRuleIDs() []model.RuleID {
	ids := make([]model.RuleID, 0, len(c.Rules))
	for id, setting := range c.Rules {
		if setting.Enabled {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
