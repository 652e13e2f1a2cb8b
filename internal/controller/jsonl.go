// Package controller renders check results and rule listings for output.
package controller

import (
	"encoding/json"
	"fmt"
	"io"

	"ratchet.dev/pkg/ratchet/internal/model"
)

type violationRecord struct {
	Type      string `json:"type"`
	Rule      string `json:"rule"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	EndLine   int    `json:"end_line"`
	EndColumn int    `json:"end_column"`
	Snippet   string `json:"snippet"`
	Region    string `json:"region"`
	Message   string `json:"message"`
	Severity  string `json:"severity,omitempty"`
}

type summaryRecord struct {
	Type       string `json:"type"`
	Rule       string `json:"rule"`
	Region     string `json:"region"`
	Violations int64  `json:"violations"`
	Budget     int64  `json:"budget"`
	Status     string `json:"status"`
}

type statusRecord struct {
	Type            string `json:"type"`
	Passed          bool   `json:"passed"`
	RulesChecked    int    `json:"rules_checked"`
	RulesExceeded   int    `json:"rules_exceeded"`
	TotalViolations int    `json:"total_violations"`
}

// WriteJSONL emits the report as line-delimited JSON: every violation in
// (rule, region, file, line, column) order, then every summary in (rule,
// region) order, then one status record.
func WriteJSONL(w io.Writer, report *model.CheckReport) error {
	enc := json.NewEncoder(w)
	for _, verdict := range report.Verdicts {
		for _, v := range verdict.Violations {
			record := violationRecord{
				Type:      "violation",
				Rule:      v.Rule.String(),
				File:      v.File.String(),
				Line:      v.Line,
				Column:    v.Column,
				EndLine:   v.EndLine,
				EndColumn: v.EndColumn,
				Snippet:   v.Snippet,
				Region:    v.Region.String(),
				Message:   v.Message,
				Severity:  string(v.Severity),
			}
			if err := enc.Encode(record); err != nil {
				return fmt.Errorf("encoding violation record: %w", err)
			}
		}
	}
	for _, verdict := range report.Verdicts {
		record := summaryRecord{
			Type:       "summary",
			Rule:       verdict.Rule.String(),
			Region:     verdict.Region.String(),
			Violations: verdict.Count,
			Budget:     verdict.Budget,
			Status:     string(verdict.Status),
		}
		if err := enc.Encode(record); err != nil {
			return fmt.Errorf("encoding summary record: %w", err)
		}
	}
	status := statusRecord{
		Type:            "status",
		Passed:          !report.Exceeded(),
		RulesChecked:    report.RulesChecked,
		RulesExceeded:   report.RulesExceeded(),
		TotalViolations: report.TotalViolations(),
	}
	if err := enc.Encode(status); err != nil {
		return fmt.Errorf("encoding status record: %w", err)
	}
	return nil
}
