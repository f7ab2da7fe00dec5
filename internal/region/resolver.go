// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package region

import (
	"github.com/holomush/blockguard/internal/world"
)

// ApplicableSet is the ordered list of regions covering a point. It is built
// per query and must not be kept across index mutations.
type ApplicableSet struct {
	regions []*Region
	byID    map[string]*Region
}

// Len returns the number of regions in the set.
func (s ApplicableSet) Len() int {
	return len(s.regions)
}

// IDs returns region identifiers in evaluation order.
func (s ApplicableSet) IDs() []string {
	ids := make([]string, len(s.regions))
	for i, r := range s.regions {
		ids[i] = r.ID
	}
	return ids
}

// parent returns r's parent region, or nil.
func (s ApplicableSet) parent(r *Region) *Region {
	if r.Parent == "" {
		return nil
	}
	return s.byID[r.Parent]
}

// Querier returns the applicable set for a point. Index implements it.
type Querier interface {
	Query(p world.Point) ApplicableSet
}

// Compile-time check that Index implements Querier.
var _ Querier = (*Index)(nil)

// CanBuild walks the set in priority order. The first region that restricts
// building decides: owners and members pass, everyone else is denied, unless
// the region sets the build flag to allow. When no region restricts building
// the result is fallback. An empty set always allows.
func CanBuild(set ApplicableSet, playerID string, fallback bool) bool {
	if set.Len() == 0 {
		return true
	}
	for _, r := range set.regions {
		if allowed, decided := buildDecision(r, playerID); decided {
			return allowed
		}
	}
	return fallback
}

// buildDecision reports whether r restricts building and, if so, whether
// playerID may build.
func buildDecision(r *Region, playerID string) (allowed, decided bool) {
	if v, ok := r.Flag(FlagBuild); ok {
		if v == Allow {
			return true, true
		}
		return r.IsMember(playerID), true
	}
	if len(r.Owners) > 0 || len(r.Members) > 0 {
		return r.IsMember(playerID), true
	}
	return false, false
}

// ResolveFlag returns the first definition of name found by walking each
// region and then its parent chain, in priority order. def is returned when
// nothing defines the flag.
func ResolveFlag(set ApplicableSet, name string, def FlagValue) FlagValue {
	for _, r := range set.regions {
		// a chain can be at most as long as the index; this also stops loops
		for cur, hops := r, 0; cur != nil && hops <= len(set.byID); cur, hops = set.parent(cur), hops+1 {
			if v, ok := cur.Flag(name); ok {
				return v
			}
		}
	}
	return def
}

// ResolveBool resolves a boolean flag.
func ResolveBool(set ApplicableSet, name string, def bool) bool {
	return ResolveFlag(set, name, BoolFlag(def)).Bool(def)
}

// Resolver answers build and flag questions for points, using an index and
// the global build policy applied where no region restricts building.
type Resolver struct {
	regions      Querier
	defaultBuild bool
}

// NewResolver creates a Resolver. defaultBuild is the global policy used when
// regions cover a point but none of them restricts building.
func NewResolver(q Querier, defaultBuild bool) *Resolver {
	return &Resolver{regions: q, defaultBuild: defaultBuild}
}

// Applicable returns the applicable set at p.
func (r *Resolver) Applicable(p world.Point) ApplicableSet {
	return r.regions.Query(p)
}

// CanBuild reports whether playerID may build at p.
func (r *Resolver) CanBuild(playerID string, p world.Point) bool {
	return CanBuild(r.regions.Query(p), playerID, r.defaultBuild)
}

// ResolveFlag resolves a flag at p.
func (r *Resolver) ResolveFlag(p world.Point, name string, def FlagValue) FlagValue {
	return ResolveFlag(r.regions.Query(p), name, def)
}
