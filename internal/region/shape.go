// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package region

import (
	"github.com/samber/oops"

	"github.com/holomush/blockguard/internal/world"
)

// ShapeKind tags the geometry stored in a Shape.
type ShapeKind string

// Supported shape kinds.
const (
	ShapeCuboid  ShapeKind = "cuboid"
	ShapePolygon ShapeKind = "polygon"
)

// Vertex is a polygon corner on the horizontal (x, z) plane.
type Vertex struct {
	X int `json:"x" yaml:"x"`
	Z int `json:"z" yaml:"z"`
}

// Shape is the volume a region covers. Kind selects which fields apply:
// cuboids use Min and Max (inclusive), polygons use Points extruded from
// MinY to MaxY (inclusive).
type Shape struct {
	Kind   ShapeKind
	Min    world.Point
	Max    world.Point
	Points []Vertex
	MinY   int
	MaxY   int
}

// Cuboid returns the inclusive axis-aligned box spanned by two corners.
func Cuboid(a, b world.Point) Shape {
	return Shape{
		Kind: ShapeCuboid,
		Min:  world.Pt(min(a.X, b.X), min(a.Y, b.Y), min(a.Z, b.Z)),
		Max:  world.Pt(max(a.X, b.X), max(a.Y, b.Y), max(a.Z, b.Z)),
	}
}

// Polygon returns a vertical prism over the given (x, z) outline.
func Polygon(minY, maxY int, points ...Vertex) Shape {
	pts := make([]Vertex, len(points))
	copy(pts, points)
	return Shape{
		Kind:   ShapePolygon,
		Points: pts,
		MinY:   min(minY, maxY),
		MaxY:   max(minY, maxY),
	}
}

// Contains reports whether p lies inside the shape. Boundary blocks are inside.
func (s Shape) Contains(p world.Point) bool {
	switch s.Kind {
	case ShapeCuboid:
		return p.X >= s.Min.X && p.X <= s.Max.X &&
			p.Y >= s.Min.Y && p.Y <= s.Max.Y &&
			p.Z >= s.Min.Z && p.Z <= s.Max.Z
	case ShapePolygon:
		if p.Y < s.MinY || p.Y > s.MaxY {
			return false
		}
		return polygonContains(s.Points, p.X, p.Z)
	default:
		return false
	}
}

// Validate rejects shapes that cannot contain anything meaningful.
func (s Shape) Validate() error {
	switch s.Kind {
	case ShapeCuboid:
		if s.Min.X > s.Max.X || s.Min.Y > s.Max.Y || s.Min.Z > s.Max.Z {
			return oops.In("region").Code("REGION_INVALID_SHAPE").
				With("min", s.Min.String()).
				With("max", s.Max.String()).
				New("cuboid min corner exceeds max corner")
		}
	case ShapePolygon:
		if len(s.Points) < 3 {
			return oops.In("region").Code("REGION_INVALID_SHAPE").
				With("points", len(s.Points)).
				New("polygon needs at least three points")
		}
		if s.MinY > s.MaxY {
			return oops.In("region").Code("REGION_INVALID_SHAPE").
				With("min_y", s.MinY).
				With("max_y", s.MaxY).
				New("polygon min y exceeds max y")
		}
	default:
		return oops.In("region").Code("REGION_INVALID_SHAPE").With("kind", string(s.Kind)).New("unknown shape kind")
	}
	return nil
}

// clone copies the vertex slice so snapshots never share backing arrays with callers.
func (s Shape) clone() Shape {
	if s.Points != nil {
		pts := make([]Vertex, len(s.Points))
		copy(pts, s.Points)
		s.Points = pts
	}
	return s
}

// polygonContains is an even-odd crossing test that treats points on an
// edge or vertex as inside.
func polygonContains(points []Vertex, x, z int) bool {
	if len(points) < 3 {
		return false
	}

	inside := false
	prev := points[len(points)-1]
	tx, tz := int64(x), int64(z)

	for _, cur := range points {
		if cur.X == x && cur.Z == z {
			return true
		}

		x1, z1, x2, z2 := int64(prev.X), int64(prev.Z), int64(cur.X), int64(cur.Z)
		if x1 > x2 {
			x1, z1, x2, z2 = x2, z2, x1, z1
		}

		if x1 <= tx && tx <= x2 {
			cross := (tz-z1)*(x2-x1) - (z2-z1)*(tx-x1)
			if cross == 0 {
				if (z1 <= tz) == (tz <= z2) {
					return true
				}
			} else if cross < 0 && x1 != tx {
				inside = !inside
			}
		}

		prev = cur
	}

	return inside
}
