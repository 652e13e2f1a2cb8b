package domain

import (
	"fmt"

	"ratchet.dev/pkg/ratchet/internal/adapter"
	"ratchet.dev/pkg/ratchet/internal/model"
)

// BudgetChange records one budget mutation for reporting.
type BudgetChange struct {
	Rule     model.RuleID
	Region   model.RegionPath
	Previous int64
	Budget   int64
}

// Tighten lowers every in-scope budget to its observed count. The empty rule
// id and empty region widen the scope to everything. If any in-scope verdict
// is exceeded the operation aborts before any write, because tightening past
// an overage would hide the failure. Regions are never created: only
// verdicts whose region is explicitly configured (or the root) are touched,
// and the root is only written when lowering an explicit entry.
func Tighten(store *adapter.CountsStore, verdicts []model.RegionVerdict, rule model.RuleID, region model.RegionPath) ([]BudgetChange, error) {
	var scoped []model.RegionVerdict
	for _, v := range verdicts {
		if rule != "" && v.Rule != rule {
			continue
		}
		if region != "" && v.Region != region {
			continue
		}
		scoped = append(scoped, v)
	}
	if rule != "" || region != "" {
		if len(scoped) == 0 {
			return nil, fmt.Errorf("%w: nothing matches rule %q region %q", model.ErrUsage, rule, region)
		}
	}

	for _, v := range scoped {
		if v.Status == model.StatusExceeded {
			return nil, fmt.Errorf("%w: %s %s has %d violations over budget %d; fix them before tightening",
				model.ErrBudgetExceeded, v.Rule, v.Region, v.Count, v.Budget)
		}
	}

	var changes []BudgetChange
	for _, v := range scoped {
		if v.Count >= v.Budget {
			continue
		}
		if v.Region != model.RootRegion && !store.HasRegion(v.Rule, v.Region) {
			continue
		}
		store.Set(v.Rule, v.Region, v.Count)
		changes = append(changes, BudgetChange{
			Rule:     v.Rule,
			Region:   v.Region,
			Previous: v.Budget,
			Budget:   v.Count,
		})
	}
	return changes, nil
}

// Bump raises the budget of one existing (rule, region) pair. count is the
// requested budget; nil means "the observed count". observed is the fresh
// count for the pair from an evaluation that just ran.
func Bump(store *adapter.CountsStore, rule model.RuleID, region model.RegionPath, count *int64, observed int64) (BudgetChange, error) {
	if region != model.RootRegion && !store.HasRegion(rule, region) {
		return BudgetChange{}, fmt.Errorf("%w: rule %s has no region %q; regions are never created by bump", model.ErrCounts, rule, region)
	}
	current, _ := store.Budget(rule, region)

	n := observed
	if count != nil {
		n = *count
	}
	if n < current {
		return BudgetChange{}, fmt.Errorf("%w: %d is below the current budget %d; use 'ratchet tighten' to lower budgets", model.ErrUsage, n, current)
	}
	if n < observed {
		return BudgetChange{}, fmt.Errorf("%w: %d is below the observed count %d", model.ErrUsage, n, observed)
	}

	store.Set(rule, region, n)
	return BudgetChange{Rule: rule, Region: region, Previous: current, Budget: n}, nil
}

// Merge combines two counts documents pointwise: for every (rule, region) in
// either side the result takes the minimum, a missing side counting as
// infinity so the present value survives. The merge is commutative and never
// raises a budget.
func Merge(ours, theirs *adapter.CountsStore) *adapter.CountsStore {
	merged := adapter.NewCountsStore()
	for _, side := range []*adapter.CountsStore{ours, theirs} {
		for _, rule := range side.Rules() {
			for _, region := range side.Regions(rule) {
				n, _ := side.Budget(rule, region)
				if existing, ok := mergedBudget(merged, rule, region); ok && existing <= n {
					continue
				}
				merged.Set(rule, region, n)
			}
		}
	}
	return merged
}

func mergedBudget(store *adapter.CountsStore, rule model.RuleID, region model.RegionPath) (int64, bool) {
	if !store.HasRegion(rule, region) {
		return 0, false
	}
	n, _ := store.Budget(rule, region)
	return n, true
}
