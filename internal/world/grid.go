// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import "sync"

// Grid is a sparse in-memory world. Unset points read as Air.
// It is safe for concurrent use.
type Grid struct {
	mu     sync.RWMutex
	blocks map[Point]Material
}

// Compile-time check that Grid implements ReadWriter.
var _ ReadWriter = (*Grid)(nil)

// NewGrid creates an empty grid.
func NewGrid() *Grid {
	return &Grid{blocks: make(map[Point]Material)}
}

// MaterialAt implements Reader.
func (g *Grid) MaterialAt(p Point) Material {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.blocks[p]
}

// SetMaterial implements Writer. Setting Air removes the entry.
func (g *Grid) SetMaterial(p Point, m Material) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if m == Air {
		delete(g.blocks, p)
		return
	}
	g.blocks[p] = m
}

// Fill sets every point of the inclusive box spanned by a and b to m.
func (g *Grid) Fill(a, b Point, m Material) {
	minX, maxX := order(a.X, b.X)
	minY, maxY := order(a.Y, b.Y)
	minZ, maxZ := order(a.Z, b.Z)
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				g.SetMaterial(Point{X: x, Y: y, Z: z}, m)
			}
		}
	}
}

// Len returns the number of non-air blocks.
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.blocks)
}

func order(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
