package domain

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"ratchet.dev/pkg/ratchet/internal/model"
)

// RunResult is the raw outcome of evaluating the active rules over a file
// set: violations not yet attributed to regions, plus per-file diagnostics.
type RunResult struct {
	Violations []model.Violation
	Failures   []model.ParseFailure
}

// Engine evaluates the active rule set over discovered files in parallel.
// The unit of parallelism is the file: all applicable rules run within one
// task so a syntax tree is parsed at most once per file.
type Engine struct {
	registry *Registry
	parsers  *ParserCache
	jobs     int
}

// NewEngine builds an engine running at most jobs files concurrently.
func NewEngine(registry *Registry, parsers *ParserCache, jobs int) *Engine {
	if jobs < 1 {
		jobs = 1
	}
	return &Engine{registry: registry, parsers: parsers, jobs: jobs}
}

// Run evaluates every applicable rule against every file. Results land in a
// per-file slot so the merged output is independent of scheduling; files are
// expected in sorted order from the walker and stay that way.
func (e *Engine) Run(ctx context.Context, files []model.FileEntry) (*RunResult, error) {
	slots := make([]RunResult, len(files))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(e.jobs)
	for i, entry := range files {
		group.Go(func() error {
			slots[i] = e.runFile(ctx, entry)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	merged := &RunResult{}
	for _, slot := range slots {
		merged.Violations = append(merged.Violations, slot.Violations...)
		merged.Failures = append(merged.Failures, slot.Failures...)
	}
	return merged, nil
}

func (e *Engine) runFile(ctx context.Context, entry model.FileEntry) RunResult {
	var result RunResult

	rules := e.applicable(entry)
	if len(rules) == 0 {
		return result
	}

	content, err := os.ReadFile(entry.Abs.String())
	if err != nil {
		slog.Warn("unreadable file", "path", entry.Rel, "error", err)
		result.Failures = append(result.Failures, model.ParseFailure{
			File:    entry.Rel,
			Message: err.Error(),
		})
		return result
	}
	file := NewSourceFile(entry, content)

	parseFailed := false
	for _, rule := range rules {
		switch rule.Kind {
		case KindRegex:
			result.Violations = append(result.Violations, EvaluateRegex(rule, file)...)
		case KindAst:
			if parseFailed {
				continue
			}
			violations, err := EvaluateQuery(ctx, rule, file, e.parsers)
			if err != nil {
				if errors.Is(err, model.ErrParse) {
					slog.Debug("parse failure", "path", entry.Rel, "error", err)
					result.Failures = append(result.Failures, model.ParseFailure{
						File:    entry.Rel,
						Message: err.Error(),
					})
					parseFailed = true
					continue
				}
				result.Failures = append(result.Failures, model.ParseFailure{
					File:    entry.Rel,
					Message: err.Error(),
				})
				continue
			}
			result.Violations = append(result.Violations, violations...)
		}
	}
	return result
}

func (e *Engine) applicable(entry model.FileEntry) []*Rule {
	var rules []*Rule
	for _, rule := range e.registry.Active() {
		if rule.AppliesTo(entry) {
			rules = append(rules, rule)
		}
	}
	return rules
}
