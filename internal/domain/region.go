package domain

import "ratchet.dev/pkg/ratchet/internal/model"

// RegionResolver attributes files to the deepest configured region that
// contains them. Region sets are per rule, so one resolver is built per rule
// from that rule's configured regions plus the implicit root.
type RegionResolver struct {
	regions []model.RegionPath
}

// NewRegionResolver builds a resolver over the given regions. The root
// region is always part of the set.
func NewRegionResolver(regions []model.RegionPath) *RegionResolver {
	hasRoot := false
	for _, region := range regions {
		if region == model.RootRegion {
			hasRoot = true
			break
		}
	}
	all := make([]model.RegionPath, 0, len(regions)+1)
	if !hasRoot {
		all = append(all, model.RootRegion)
	}
	all = append(all, regions...)
	return &RegionResolver{regions: all}
}

// Resolve returns the deepest region whose path components prefix the file's
// path. The root region is the fallback, so resolution always succeeds.
// Matching is component-wise: "src/lega" never claims "src/legacy/x.rs".
func (r *RegionResolver) Resolve(file model.RelPath) model.RegionPath {
	best := model.RootRegion
	bestDepth := -1
	for _, region := range r.regions {
		if region.Contains(file) && region.Depth() > bestDepth {
			best = region
			bestDepth = region.Depth()
		}
	}
	return best
}

// Regions returns the resolver's region set, root included.
func (r *RegionResolver) Regions() []model.RegionPath {
	return r.regions
}
