package domain

import (
	"sort"

	"ratchet.dev/pkg/ratchet/internal/adapter"
	"ratchet.dev/pkg/ratchet/internal/model"
)

// Aggregate partitions violations by (rule, region), compares each count to
// its budget and produces the complete report: every configured region of
// every active rule gets a verdict, even with zero violations. Ordering is
// total and deterministic regardless of how evaluation was scheduled.
func Aggregate(active []*Rule, result *RunResult, counts *adapter.CountsStore, filesChecked int) *model.CheckReport {
	byRule := map[model.RuleID][]model.Violation{}
	for _, v := range result.Violations {
		byRule[v.Rule] = append(byRule[v.Rule], v)
	}

	report := &model.CheckReport{
		ParseFailures: append([]model.ParseFailure(nil), result.Failures...),
		FilesChecked:  filesChecked,
		RulesChecked:  len(active),
	}
	sort.Slice(report.ParseFailures, func(i, j int) bool {
		return report.ParseFailures[i].File < report.ParseFailures[j].File
	})

	for _, rule := range active {
		resolver := NewRegionResolver(counts.Regions(rule.ID))
		buckets := map[model.RegionPath][]model.Violation{}
		for _, v := range byRule[rule.ID] {
			region := resolver.Resolve(v.File)
			v.Region = region
			buckets[region] = append(buckets[region], v)
		}

		regions := regionOrder(resolver.Regions())
		for _, region := range regions {
			violations := buckets[region]
			sort.Slice(violations, func(i, j int) bool {
				a, b := violations[i], violations[j]
				if a.File != b.File {
					return a.File < b.File
				}
				if a.Line != b.Line {
					return a.Line < b.Line
				}
				if a.Column != b.Column {
					return a.Column < b.Column
				}
				if a.EndLine != b.EndLine {
					return a.EndLine < b.EndLine
				}
				return a.EndColumn < b.EndColumn
			})

			budget, _ := counts.Budget(rule.ID, region)
			count := int64(len(violations))
			report.Verdicts = append(report.Verdicts, model.RegionVerdict{
				Rule:       rule.ID,
				Region:     region,
				Count:      count,
				Budget:     budget,
				Status:     model.CompareToBudget(count, budget),
				Violations: violations,
			})
		}
	}
	return report
}

// regionOrder sorts regions root first, then lexicographically.
func regionOrder(regions []model.RegionPath) []model.RegionPath {
	out := append([]model.RegionPath(nil), regions...)
	sort.Slice(out, func(i, j int) bool {
		if out[i] == model.RootRegion {
			return out[j] != model.RootRegion
		}
		if out[j] == model.RootRegion {
			return false
		}
		return out[i] < out[j]
	})
	return out
}
