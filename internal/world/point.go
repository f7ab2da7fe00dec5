// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package world defines the block-world vocabulary shared by the policy
// engine: coordinates, material identifiers, and the read/write collaborators
// the host supplies.
package world

import "fmt"

// Point is a block coordinate.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
	Z int `json:"z" yaml:"z"`
}

// Pt is shorthand for constructing a Point.
func Pt(x, y, z int) Point {
	return Point{X: x, Y: y, Z: z}
}

// Add returns p offset by the given deltas.
func (p Point) Add(dx, dy, dz int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

// Below returns the point directly beneath p.
func (p Point) Below() Point {
	return p.Add(0, -1, 0)
}

// Above returns the point directly above p.
func (p Point) Above() Point {
	return p.Add(0, 1, 0)
}

func (p Point) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// Cube calls fn for every point in the inclusive cube of side 2*radius+1
// centred on p, iterating x, then y, then z. Iteration stops early when fn
// returns false. A negative radius visits nothing.
func (p Point) Cube(radius int, fn func(Point) bool) {
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			for dz := -radius; dz <= radius; dz++ {
				if !fn(p.Add(dx, dy, dz)) {
					return
				}
			}
		}
	}
}
