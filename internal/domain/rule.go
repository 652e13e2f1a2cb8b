// Package domain implements rule loading, evaluation and budget arbitration.
package domain

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	toml "github.com/pelletier/go-toml/v2"
	sitter "github.com/smacker/go-tree-sitter"

	"ratchet.dev/pkg/ratchet/internal/model"
)

// RuleKind distinguishes the two rule flavors.
type RuleKind string

const (
	KindRegex RuleKind = "regex"
	KindAst   RuleKind = "ast"
)

// Rule is one declarative check. Regex rules scan file bytes with a compiled
// pattern; ast rules run an s-expression query against the file's syntax
// tree. Compiled forms are filled by the registry once the active set is
// known (see Registry.compile).
type Rule struct {
	ID          model.RuleID
	Description string
	Severity    model.Severity
	Kind        RuleKind

	// Regex rules.
	Pattern   string
	Languages []model.Language // empty = language-agnostic
	compiled  *regexp.Regexp

	// Ast rules.
	QueryText string
	Language  model.Language
	query     *sitter.Query

	Include []string
	Exclude []string
}

type ruleDoc struct {
	Rule struct {
		ID          string `toml:"id"`
		Description string `toml:"description"`
		Severity    string `toml:"severity"`
	} `toml:"rule"`
	Match struct {
		Pattern   string   `toml:"pattern"`
		Query     string   `toml:"query"`
		Language  string   `toml:"language"`
		Languages []string `toml:"languages"`
		Include   any      `toml:"include"`
		Exclude   any      `toml:"exclude"`
	} `toml:"match"`
}

// ParseRule decodes one rule definition document. The compiled pattern or
// query is not built here; the registry compiles active rules only, so that
// disabled rules never initialize a grammar.
func ParseRule(data []byte) (*Rule, error) {
	var doc ruleDoc
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: parsing rule file: %v", model.ErrRule, err)
	}

	id := model.RuleID(doc.Rule.ID)
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if doc.Rule.Description == "" {
		return nil, fmt.Errorf("%w: rule %s: description is required", model.ErrRule, id)
	}
	severity, err := model.ParseSeverity(doc.Rule.Severity)
	if err != nil {
		return nil, fmt.Errorf("%w: rule %s: %v", model.ErrRule, id, err)
	}

	rule := &Rule{
		ID:          id,
		Description: doc.Rule.Description,
		Severity:    severity,
	}

	if rule.Include, err = globList(id, "include", doc.Match.Include); err != nil {
		return nil, err
	}
	if rule.Exclude, err = globList(id, "exclude", doc.Match.Exclude); err != nil {
		return nil, err
	}

	hasPattern := doc.Match.Pattern != ""
	hasQuery := doc.Match.Query != ""
	switch {
	case hasPattern == hasQuery:
		return nil, fmt.Errorf("%w: rule %s: exactly one of pattern or query is required", model.ErrRule, id)

	case hasPattern:
		rule.Kind = KindRegex
		rule.Pattern = doc.Match.Pattern
		if doc.Match.Language != "" {
			return nil, fmt.Errorf("%w: rule %s: language is only valid for query rules (use languages)", model.ErrRule, id)
		}
		for _, s := range doc.Match.Languages {
			lang, err := model.ParseLanguage(s)
			if err != nil {
				return nil, fmt.Errorf("%w: rule %s: unsupported language %q", model.ErrRule, id, s)
			}
			rule.Languages = append(rule.Languages, lang)
		}
		if len(rule.Languages) == 0 && len(rule.Include) == 0 {
			return nil, fmt.Errorf("%w: rule %s: a pattern rule needs languages or include globs to scope it", model.ErrRule, id)
		}

	default:
		rule.Kind = KindAst
		rule.QueryText = doc.Match.Query
		if len(doc.Match.Languages) > 0 {
			return nil, fmt.Errorf("%w: rule %s: query rules take a single language", model.ErrRule, id)
		}
		if doc.Match.Language == "" {
			return nil, fmt.Errorf("%w: rule %s: query rules require a language", model.ErrRule, id)
		}
		lang, err := model.ParseLanguage(doc.Match.Language)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %s: unsupported language %q", model.ErrRule, id, doc.Match.Language)
		}
		rule.Language = lang
	}

	return rule, nil
}

// globList coerces the include/exclude fields, which accept a single string
// or a list of strings.
func globList(id model.RuleID, field string, value any) ([]string, error) {
	var patterns []string
	switch v := value.(type) {
	case nil:
	case string:
		patterns = []string{v}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: rule %s: %s entries must be strings", model.ErrRule, id, field)
			}
			patterns = append(patterns, s)
		}
	default:
		return nil, fmt.Errorf("%w: rule %s: %s must be a string or list of strings", model.ErrRule, id, field)
	}
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: rule %s: invalid %s glob %q", model.ErrRule, id, field, pattern)
		}
	}
	return patterns, nil
}

// AppliesTo reports whether the rule should run against the file. Pattern
// rules with no language restriction also accept files with no detected
// language; query rules require an exact language match.
func (r *Rule) AppliesTo(file model.FileEntry) bool {
	switch r.Kind {
	case KindAst:
		if !file.HasLanguage || file.Language != r.Language {
			return false
		}
	case KindRegex:
		if len(r.Languages) > 0 {
			if !file.HasLanguage {
				return false
			}
			found := false
			for _, lang := range r.Languages {
				if lang == file.Language {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}

	if len(r.Include) > 0 {
		matched := false
		for _, pattern := range r.Include {
			if ok, _ := doublestar.Match(pattern, string(file.Rel)); ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, pattern := range r.Exclude {
		if ok, _ := doublestar.Match(pattern, string(file.Rel)); ok {
			return false
		}
	}
	return true
}

// RequiredLanguages returns the languages the rule can ever match: the single
// query language, the pattern restriction set, or nil for agnostic rules.
func (r *Rule) RequiredLanguages() []model.Language {
	if r.Kind == KindAst {
		return []model.Language{r.Language}
	}
	return r.Languages
}
