package controller

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"ratchet.dev/pkg/ratchet/internal/model"
)

// HumanRenderer writes the scrollback report: one header per (rule, region)
// with the observed count against its budget, indented violation lines, and
// a one-line run summary.
type HumanRenderer struct {
	pass     lipgloss.Style
	fail     lipgloss.Style
	dim      lipgloss.Style
	location lipgloss.Style
}

// NewHumanRenderer builds a renderer. With color disabled every style is the
// zero style, so output stays plain text.
func NewHumanRenderer(color bool) *HumanRenderer {
	r := &HumanRenderer{}
	if color {
		r.pass = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
		r.fail = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
		r.dim = lipgloss.NewStyle().Faint(true)
		r.location = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	}
	return r
}

// Render writes the report to out. Parse failures are diagnostics and go to
// errOut so jsonl consumers piping stdout are unaffected by the same code
// path in the jsonl renderer's caller.
func (r *HumanRenderer) Render(out, errOut io.Writer, report *model.CheckReport) {
	for _, failure := range report.ParseFailures {
		fmt.Fprintf(errOut, "%s %s: %s\n", r.fail.Render("parse failure:"), failure.File, failure.Message)
	}

	for _, verdict := range report.Verdicts {
		mark := r.pass.Render("✓")
		if verdict.Status == model.StatusExceeded {
			mark = r.fail.Render("✗")
		}
		fmt.Fprintf(out, "%s %s %s  %d/%d\n", mark, verdict.Rule, verdict.Region, verdict.Count, verdict.Budget)
		for _, v := range verdict.Violations {
			location := fmt.Sprintf("%s:%d:%d", v.File, v.Line, v.Column)
			fmt.Fprintf(out, "    %s  %s\n", r.location.Render(location), r.dim.Render(v.Snippet))
		}
	}

	if report.Exceeded() {
		fmt.Fprintf(out, "%s %d rule(s) exceeded, %d violation(s) across %d file(s)\n",
			r.fail.Render("FAIL:"), report.RulesExceeded(), report.TotalViolations(), report.FilesChecked)
		return
	}
	fmt.Fprintf(out, "%s %d rule(s) within budget, %d violation(s) across %d file(s)\n",
		r.pass.Render("OK:"), report.RulesChecked, report.TotalViolations(), report.FilesChecked)
}
