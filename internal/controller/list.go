package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"ratchet.dev/pkg/ratchet/internal/domain"
)

type ruleRecord struct {
	Type        string   `json:"type"`
	Rule        string   `json:"rule"`
	Kind        string   `json:"kind"`
	Languages   []string `json:"languages"`
	Severity    string   `json:"severity"`
	Description string   `json:"description,omitempty"`
}

// WriteRuleTable renders the active rule set as an aligned table.
func WriteRuleTable(w io.Writer, rules []*domain.Rule) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Rule", "Kind", "Languages", "Severity", "Description"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, rule := range rules {
		table.Append([]string{
			string(rule.ID),
			string(rule.Kind),
			languageColumn(rule),
			string(rule.Severity),
			rule.Description,
		})
	}
	table.Render()

	fmt.Fprint(w, buf.String())
	fmt.Fprintf(w, "\n%d rule(s) active\n", len(rules))
}

// WriteRuleJSONL emits one record per active rule, in registry order.
func WriteRuleJSONL(w io.Writer, rules []*domain.Rule) error {
	enc := json.NewEncoder(w)
	for _, rule := range rules {
		record := ruleRecord{
			Type:        "rule",
			Rule:        string(rule.ID),
			Kind:        string(rule.Kind),
			Languages:   languageList(rule),
			Severity:    string(rule.Severity),
			Description: rule.Description,
		}
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("encoding rule record: %w", err)
		}
	}
	return nil
}

func languageList(rule *domain.Rule) []string {
	languages := rule.RequiredLanguages()
	if len(languages) == 0 {
		return []string{}
	}
	out := make([]string, len(languages))
	for i, lang := range languages {
		out[i] = string(lang)
	}
	return out
}

func languageColumn(rule *domain.Rule) string {
	languages := languageList(rule)
	if len(languages) == 0 {
		return "any"
	}
	return strings.Join(languages, ", ")
}
