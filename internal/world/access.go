// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

// Reader reads block materials. Hosts only ever get asked about points near
// the event being decided.
type Reader interface {
	MaterialAt(p Point) Material
}

// Writer replaces the material at a point.
type Writer interface {
	SetMaterial(p Point, m Material)
}

// ReadWriter is the world surface needed by reactive rules that mutate blocks.
type ReadWriter interface {
	Reader
	Writer
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(p Point) Material

// MaterialAt calls f(p).
func (f ReaderFunc) MaterialAt(p Point) Material {
	return f(p)
}

// Item is the stack a player holds while acting.
type Item struct {
	Material Material
	Damage   int
}

// Player identifies the actor behind an event.
type Player struct {
	ID string
	// Bypass grants unconditional passage through region permission checks.
	Bypass bool
}
