// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package region

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/blockguard/internal/world"
)

// snapshot is an immutable view of the index. Readers load it atomically and
// never observe a partially applied mutation.
type snapshot struct {
	ordered []*Region          // priority descending, then declaration order
	byID    map[string]*Region // id → region, used for parent lookup
	nextSeq uint64
}

var emptySnapshot = &snapshot{byID: map[string]*Region{}}

// Index is the spatial store of regions. Queries are lock-free; Add, Remove
// and Replace are serialised and publish a fresh snapshot on success.
type Index struct {
	mu   sync.Mutex // serialises writers
	snap atomic.Pointer[snapshot]
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	ix := &Index{}
	ix.snap.Store(emptySnapshot)
	return ix
}

func (ix *Index) load() *snapshot {
	if s := ix.snap.Load(); s != nil {
		return s
	}
	return emptySnapshot
}

// Query returns every region containing p, highest priority first.
func (ix *Index) Query(p world.Point) ApplicableSet {
	start := time.Now()
	snap := ix.load()

	var hits []*Region
	for _, r := range snap.ordered {
		if r.Shape.Contains(p) {
			hits = append(hits, r)
		}
	}

	queryDuration.Observe(time.Since(start).Seconds())
	return ApplicableSet{regions: hits, byID: snap.byID}
}

// Get returns a copy of the region with the given id.
func (ix *Index) Get(id string) (Region, bool) {
	r, ok := ix.load().byID[id]
	if !ok {
		return Region{}, false
	}
	return *r.clone(), true
}

// All returns copies of every region in evaluation order.
func (ix *Index) All() []Region {
	snap := ix.load()
	out := make([]Region, len(snap.ordered))
	for i, r := range snap.ordered {
		out[i] = *r.clone()
	}
	return out
}

// Len returns the number of regions in the index.
func (ix *Index) Len() int {
	return len(ix.load().ordered)
}

// Add inserts a region. Its declaration order is after every region already
// present.
func (ix *Index) Add(r Region) error {
	if err := r.Validate(); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	cur := ix.load()
	if _, exists := cur.byID[r.ID]; exists {
		return oops.In("region").Code("REGION_DUPLICATE").With("id", r.ID).New("region already exists")
	}
	if r.Parent != "" {
		if _, ok := cur.byID[r.Parent]; !ok {
			return oops.In("region").Code("REGION_PARENT_UNKNOWN").
				With("id", r.ID).
				With("parent", r.Parent).
				New("parent region does not exist")
		}
	}

	added := r.clone()
	added.seq = cur.nextSeq

	regions := make([]*Region, 0, len(cur.ordered)+1)
	regions = append(regions, cur.ordered...)
	regions = append(regions, added)
	ix.publish(regions, cur.nextSeq+1)
	return nil
}

// Remove deletes the region with the given id. Regions that are still the
// parent of another region cannot be removed.
func (ix *Index) Remove(id string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	cur := ix.load()
	if _, ok := cur.byID[id]; !ok {
		return oops.In("region").Code("REGION_NOT_FOUND").With("id", id).New("region not found")
	}

	regions := make([]*Region, 0, len(cur.ordered)-1)
	for _, r := range cur.ordered {
		if r.Parent == id {
			return oops.In("region").Code("REGION_HAS_CHILDREN").
				With("id", id).
				With("child", r.ID).
				New("region is the parent of another region")
		}
		if r.ID != id {
			regions = append(regions, r)
		}
	}
	ix.publish(regions, cur.nextSeq)
	return nil
}

// Replace swaps the whole content of the index. Declaration order follows
// the order of rs. On error the index is left untouched.
func (ix *Index) Replace(rs []Region) error {
	byID := make(map[string]*Region, len(rs))
	regions := make([]*Region, 0, len(rs))
	for i := range rs {
		if err := rs[i].Validate(); err != nil {
			return err
		}
		if _, dup := byID[rs[i].ID]; dup {
			return oops.In("region").Code("REGION_DUPLICATE").With("id", rs[i].ID).New("region declared twice")
		}
		r := rs[i].clone()
		r.seq = uint64(i)
		byID[r.ID] = r
		regions = append(regions, r)
	}
	if err := checkParents(byID); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.publish(regions, uint64(len(rs)))
	return nil
}

// publish sorts regions into evaluation order and swaps in a new snapshot.
// Callers hold ix.mu.
func (ix *Index) publish(regions []*Region, nextSeq uint64) {
	sort.SliceStable(regions, func(i, j int) bool {
		if regions[i].Priority != regions[j].Priority {
			return regions[i].Priority > regions[j].Priority
		}
		return regions[i].seq < regions[j].seq
	})

	byID := make(map[string]*Region, len(regions))
	for _, r := range regions {
		byID[r.ID] = r
	}

	ix.snap.Store(&snapshot{ordered: regions, byID: byID, nextSeq: nextSeq})
	indexSize.Set(float64(len(regions)))
}

// checkParents verifies that every parent exists and no parent chain loops.
func checkParents(byID map[string]*Region) error {
	for id, r := range byID {
		seen := map[string]bool{id: true}
		for p := r.Parent; p != ""; {
			parent, ok := byID[p]
			if !ok {
				return oops.In("region").Code("REGION_PARENT_UNKNOWN").
					With("id", id).
					With("parent", p).
					New("parent region does not exist")
			}
			if seen[p] {
				return oops.In("region").Code("REGION_PARENT_CYCLE").With("id", id).New("parent chain forms a cycle")
			}
			seen[p] = true
			p = parent.Parent
		}
	}
	return nil
}
