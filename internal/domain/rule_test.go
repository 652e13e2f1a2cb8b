package domain

import (
	"errors"
	"testing"

	"ratchet.dev/pkg/ratchet/internal/model"
)

func TestParseRuleRegex(t *testing.T) {
	doc := `
[rule]
id = "no-console-log"
description = "console.log left in shipped code"
severity = "warning"

[match]
pattern = 'console\.log\s*\('
languages = ["javascript", "typescript"]
exclude = "vendor/**"
`
	rule, err := ParseRule([]byte(doc))
	if err != nil {
		t.Fatalf("ParseRule: %v", err)
	}
	if rule.Kind != KindRegex {
		t.Errorf("kind = %q, want regex", rule.Kind)
	}
	if rule.ID != "no-console-log" || rule.Severity != model.SeverityWarning {
		t.Errorf("unexpected id/severity: %q %q", rule.ID, rule.Severity)
	}
	if len(rule.Languages) != 2 {
		t.Errorf("languages = %v", rule.Languages)
	}
	if len(rule.Exclude) != 1 || rule.Exclude[0] != "vendor/**" {
		t.Errorf("exclude = %v, want single string coerced to list", rule.Exclude)
	}
}

func TestParseRuleAst(t *testing.T) {
	doc := `
[rule]
id = "no-unwrap"
description = "avoid unwrap"
severity = "error"

[match]
language = "rust"
query = '(call_expression) @violation'
include = ["src/**", "lib/**"]
`
	rule, err := ParseRule([]byte(doc))
	if err != nil {
		t.Fatalf("ParseRule: %v", err)
	}
	if rule.Kind != KindAst || rule.Language != model.LangRust {
		t.Errorf("kind/language = %q/%q", rule.Kind, rule.Language)
	}
	if len(rule.Include) != 2 {
		t.Errorf("include = %v", rule.Include)
	}
}

func TestParseRuleRejects(t *testing.T) {
	cases := map[string]string{
		"both pattern and query": "[rule]\nid = \"x\"\ndescription = \"d\"\nseverity = \"info\"\n[match]\npattern = \"a\"\nquery = \"(q)\"\n",
		"neither":                "[rule]\nid = \"x\"\ndescription = \"d\"\nseverity = \"info\"\n[match]\n",
		"query without language": "[rule]\nid = \"x\"\ndescription = \"d\"\nseverity = \"info\"\n[match]\nquery = \"(q)\"\n",
		"query with languages":   "[rule]\nid = \"x\"\ndescription = \"d\"\nseverity = \"info\"\n[match]\nquery = \"(q)\"\nlanguage = \"go\"\nlanguages = [\"go\"]\n",
		"pattern with language":  "[rule]\nid = \"x\"\ndescription = \"d\"\nseverity = \"info\"\n[match]\npattern = \"a\"\nlanguage = \"go\"\n",
		"unscoped pattern":       "[rule]\nid = \"x\"\ndescription = \"d\"\nseverity = \"info\"\n[match]\npattern = \"a\"\n",
		"missing severity":       "[rule]\nid = \"x\"\ndescription = \"d\"\n[match]\npattern = \"a\"\nlanguages = [\"go\"]\n",
		"missing description":    "[rule]\nid = \"x\"\nseverity = \"info\"\n[match]\npattern = \"a\"\nlanguages = [\"go\"]\n",
		"bad id":                 "[rule]\nid = \"Bad_ID\"\ndescription = \"d\"\nseverity = \"info\"\n[match]\npattern = \"a\"\nlanguages = [\"go\"]\n",
		"bad glob":               "[rule]\nid = \"x\"\ndescription = \"d\"\nseverity = \"info\"\n[match]\npattern = \"a\"\ninclude = \"src/[oops\"\n",
		"unknown language":       "[rule]\nid = \"x\"\ndescription = \"d\"\nseverity = \"info\"\n[match]\npattern = \"a\"\nlanguages = [\"cobol\"]\n",
		"unknown field":          "[rule]\nid = \"x\"\ndescription = \"d\"\nseverity = \"info\"\n[match]\npattern = \"a\"\nlanguages = [\"go\"]\nflags = \"i\"\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRule([]byte(doc)); !errors.Is(err, model.ErrRule) {
				t.Errorf("ParseRule = %v, want ErrRule", err)
			}
		})
	}
}

func TestAppliesTo(t *testing.T) {
	rustFile := model.FileEntry{Rel: "src/lib.rs", Language: model.LangRust, HasLanguage: true}
	goFile := model.FileEntry{Rel: "cmd/main.go", Language: model.LangGo, HasLanguage: true}
	plainFile := model.FileEntry{Rel: "Makefile"}

	t.Run("ast requires exact language", func(t *testing.T) {
		rule := &Rule{Kind: KindAst, Language: model.LangRust}
		if !rule.AppliesTo(rustFile) {
			t.Error("rust ast rule should apply to rust file")
		}
		if rule.AppliesTo(goFile) || rule.AppliesTo(plainFile) {
			t.Error("rust ast rule should not apply to go or unrecognized files")
		}
	})

	t.Run("regex without languages is agnostic", func(t *testing.T) {
		rule := &Rule{Kind: KindRegex}
		if !rule.AppliesTo(rustFile) || !rule.AppliesTo(plainFile) {
			t.Error("unrestricted pattern rule should apply to every file")
		}
	})

	t.Run("regex language restriction", func(t *testing.T) {
		rule := &Rule{Kind: KindRegex, Languages: []model.Language{model.LangGo}}
		if !rule.AppliesTo(goFile) {
			t.Error("should apply to go file")
		}
		if rule.AppliesTo(rustFile) || rule.AppliesTo(plainFile) {
			t.Error("should not apply to rust or unrecognized files")
		}
	})

	t.Run("include and exclude globs", func(t *testing.T) {
		rule := &Rule{Kind: KindRegex, Include: []string{"src/**"}, Exclude: []string{"src/gen/**"}}
		if !rule.AppliesTo(model.FileEntry{Rel: "src/a.rs"}) {
			t.Error("src/a.rs should match include")
		}
		if rule.AppliesTo(model.FileEntry{Rel: "cmd/a.rs"}) {
			t.Error("cmd/a.rs should miss include")
		}
		if rule.AppliesTo(model.FileEntry{Rel: "src/gen/a.rs"}) {
			t.Error("src/gen/a.rs should hit exclude")
		}
	})
}
