package adapter

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"ratchet.dev/pkg/ratchet/internal/model"
	"ratchet.dev/pkg/ratchet/pkg/safewrite"
)

// CountsFileName is the budget document at the repo root.
const CountsFileName = "ratchet-counts.toml"

var countsHeader = strings.Join([]string{
	"# Ratchet violation budgets",
	"# These counts represent the maximum tolerated violations.",
	"# Counts can only be reduced (tightened) or explicitly bumped with justification.",
	"",
	"",
}, "\n")

// CountsStore holds the violation budgets: one table per rule, one entry per
// region. Serialization is deterministic: parsing a serialized document and
// serializing it again reproduces it byte for byte.
type CountsStore struct {
	budgets map[model.RuleID]map[model.RegionPath]int64
}

// NewCountsStore returns an empty store (strict enforcement: every budget 0).
func NewCountsStore() *CountsStore {
	return &CountsStore{budgets: map[model.RuleID]map[model.RegionPath]int64{}}
}

// LoadCounts reads the counts document at path. A missing file yields an
// empty store, which enforces a zero budget everywhere.
func LoadCounts(path model.Path) (*CountsStore, error) {
	data, err := os.ReadFile(path.String())
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("counts file missing, using strict enforcement", "path", path)
			return NewCountsStore(), nil
		}
		slog.Error("reading counts", "path", path, "error", err)
		return nil, fmt.Errorf("%w: reading %s: %v", model.ErrCounts, path, err)
	}
	return ParseCounts(data)
}

// ParseCounts decodes and validates a counts document.
func ParseCounts(data []byte) (*CountsStore, error) {
	var raw map[string]map[string]int64
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", model.ErrCounts, CountsFileName, err)
	}

	store := NewCountsStore()
	for key, regions := range raw {
		id := model.RuleID(key)
		if err := id.Validate(); err != nil {
			return nil, fmt.Errorf("%w: invalid rule id %q", model.ErrCounts, key)
		}
		table := map[model.RegionPath]int64{}
		for regionKey, count := range regions {
			if count < 0 {
				return nil, fmt.Errorf("%w: %s.%q: count must be non-negative", model.ErrCounts, key, regionKey)
			}
			region := model.NormalizeRegion(regionKey)
			if _, dup := table[region]; dup {
				return nil, fmt.Errorf("%w: %s: region %q appears twice", model.ErrCounts, key, region)
			}
			table[region] = count
		}
		store.budgets[id] = table
	}
	return store, nil
}

// Save writes the document to path atomically.
func (s *CountsStore) Save(path model.Path) error {
	if err := safewrite.Write(path.String(), []byte(s.Serialize()), 0o644); err != nil {
		slog.Error("writing counts", "path", path, "error", err)
		return fmt.Errorf("%w: writing %s: %v", model.ErrCounts, path, err)
	}
	return nil
}

// Serialize renders the document: header comment block, rules sorted by id,
// regions "." first then lexicographic.
func (s *CountsStore) Serialize() string {
	var b strings.Builder
	b.WriteString(countsHeader)

	for _, id := range s.Rules() {
		fmt.Fprintf(&b, "[%s]\n", id)
		for _, region := range s.Regions(id) {
			fmt.Fprintf(&b, "%s = %d\n", strconv.Quote(region.String()), s.budgets[id][region])
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Rules returns every rule id present, sorted.
func (s *CountsStore) Rules() []model.RuleID {
	ids := make([]model.RuleID, 0, len(s.budgets))
	for id := range s.budgets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Regions returns the configured regions for a rule, root first, then
// lexicographic.
func (s *CountsStore) Regions(id model.RuleID) []model.RegionPath {
	table := s.budgets[id]
	regions := make([]model.RegionPath, 0, len(table))
	for region := range table {
		regions = append(regions, region)
	}
	sort.Slice(regions, func(i, j int) bool {
		if regions[i] == model.RootRegion {
			return regions[j] != model.RootRegion
		}
		if regions[j] == model.RootRegion {
			return false
		}
		return regions[i] < regions[j]
	})
	return regions
}

// HasRule reports whether the rule has any budget entries.
func (s *CountsStore) HasRule(id model.RuleID) bool {
	_, ok := s.budgets[id]
	return ok
}

// HasRegion reports whether the (rule, region) budget is explicitly set.
func (s *CountsStore) HasRegion(id model.RuleID, region model.RegionPath) bool {
	_, ok := s.budgets[id][region]
	return ok
}

// Budget returns the explicit budget for (rule, region). The root region
// defaults to 0 when absent; any other absent region reports ok=false.
func (s *CountsStore) Budget(id model.RuleID, region model.RegionPath) (int64, bool) {
	if n, ok := s.budgets[id][region]; ok {
		return n, true
	}
	if region == model.RootRegion {
		return 0, true
	}
	return 0, false
}

// Set stores a budget, creating the rule table if needed.
func (s *CountsStore) Set(id model.RuleID, region model.RegionPath, count int64) {
	table, ok := s.budgets[id]
	if !ok {
		table = map[model.RegionPath]int64{}
		s.budgets[id] = table
	}
	table[region] = count
}
