package domain

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"ratchet.dev/pkg/ratchet/internal/adapter"
	"ratchet.dev/pkg/ratchet/internal/domain/builtin"
	"ratchet.dev/pkg/ratchet/internal/model"
)

const (
	// BuiltinDirName mirrors the embedded rule tree on disk; files there
	// override the embedded copies by id.
	BuiltinDirName = "builtin-ratchets"
	// UserDirName holds project rules under regex/ and ast/ subdirectories.
	UserDirName = "ratchets"
)

// Registry holds the active rule set after override and filtering.
type Registry struct {
	active []*Rule
	byID   map[model.RuleID]*Rule
}

// BuildRegistry loads rules in strict order (embedded, on-disk builtin, user),
// later sources overriding earlier ones by id, then applies the config and
// language filters and compiles the surviving rules.
func BuildRegistry(cfg *adapter.Config, parsers *ParserCache, root model.Path) (*Registry, error) {
	loaded := map[model.RuleID]*Rule{}

	for path, data := range builtin.Files() {
		rule, err := ParseRule(data)
		if err != nil {
			return nil, fmt.Errorf("embedded rule %s: %w", path, err)
		}
		if err := checkKindDir(path, rule); err != nil {
			return nil, err
		}
		if _, dup := loaded[rule.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate embedded rule id %q", model.ErrRule, rule.ID)
		}
		loaded[rule.ID] = rule
	}

	builtinDir := filepath.Join(root.String(), BuiltinDirName)
	if err := loadRuleDir(loaded, builtinDir, false); err != nil {
		return nil, err
	}

	userDir := filepath.Join(root.String(), UserDirName)
	for _, kind := range []string{"regex", "ast"} {
		if err := loadRuleDir(loaded, filepath.Join(userDir, kind), true); err != nil {
			return nil, err
		}
	}

	for id, setting := range cfg.Rules {
		rule, ok := loaded[id]
		if !ok {
			return nil, fmt.Errorf("%w: [rules] references unknown rule %q", model.ErrConfig, id)
		}
		if !setting.Enabled {
			delete(loaded, id)
			continue
		}
		if setting.Severity != "" {
			rule.Severity = setting.Severity
		}
	}

	enabled := map[model.Language]bool{}
	for _, lang := range cfg.Languages {
		enabled[lang] = true
	}
	active := make([]*Rule, 0, len(loaded))
	for _, rule := range loaded {
		required := rule.RequiredLanguages()
		if len(required) > 0 {
			keep := false
			for _, lang := range required {
				if enabled[lang] {
					keep = true
					break
				}
			}
			if !keep {
				continue
			}
		}
		active = append(active, rule)
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	registry := &Registry{active: active, byID: map[model.RuleID]*Rule{}}
	for _, rule := range active {
		if err := registry.compile(rule, parsers); err != nil {
			return nil, err
		}
		registry.byID[rule.ID] = rule
	}
	return registry, nil
}

// compile builds the pattern or query of an active rule. Compilation happens
// after filtering so a disabled or filtered rule never initializes a grammar.
func (r *Registry) compile(rule *Rule, parsers *ParserCache) error {
	switch rule.Kind {
	case KindRegex:
		compiled, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("%w: rule %s: invalid pattern: %v", model.ErrRule, rule.ID, err)
		}
		rule.compiled = compiled
	case KindAst:
		query, err := parsers.CompileQuery(rule.Language, rule.QueryText)
		if err != nil {
			return fmt.Errorf("rule %s: %w", rule.ID, err)
		}
		rule.query = query
	}
	return nil
}

// loadRuleDir reads every .toml under dir into loaded, overriding by id.
// A missing directory is not an error.
func loadRuleDir(loaded map[model.RuleID]*Rule, dir string, warnOnOverride bool) error {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil
	}
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: reading rule directory %s: %v", model.ErrIO, dir, err)
		}
		if !d.IsDir() && strings.HasSuffix(path, ".toml") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(paths)

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: reading rule file %s: %v", model.ErrIO, path, err)
		}
		rule, err := ParseRule(data)
		if err != nil {
			return fmt.Errorf("rule file %s: %w", path, err)
		}
		if err := checkKindDir(filepath.ToSlash(path), rule); err != nil {
			return err
		}
		if _, exists := loaded[rule.ID]; exists && warnOnOverride {
			slog.Warn("rule overrides an earlier definition", "id", rule.ID, "path", path)
			fmt.Fprintf(os.Stderr, "Warning: rule %q in %s overrides a builtin rule\n", rule.ID, path)
		}
		loaded[rule.ID] = rule
	}
	return nil
}

// checkKindDir rejects a pattern rule under an ast/ directory and vice versa.
func checkKindDir(path string, rule *Rule) error {
	var want RuleKind
	switch {
	case strings.Contains(path, "/ast/"):
		want = KindAst
	case strings.Contains(path, "/regex/"):
		want = KindRegex
	default:
		return nil
	}
	if rule.Kind != want {
		return fmt.Errorf("%w: rule %s: %s rule defined under a %s directory", model.ErrRule, rule.ID, rule.Kind, want)
	}
	return nil
}

// Active returns the active rules sorted by id.
func (r *Registry) Active() []*Rule { return r.active }

// Get looks up an active rule by id.
func (r *Registry) Get(id model.RuleID) (*Rule, bool) {
	rule, ok := r.byID[id]
	return rule, ok
}

// Len returns the number of active rules.
func (r *Registry) Len() int { return len(r.active) }
