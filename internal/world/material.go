// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"sort"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

// Material is a numeric block or item identifier.
type Material int

// Materials the engine reasons about by identity.
const (
	Air             Material = 0
	Stone           Material = 1
	Grass           Material = 2
	Dirt            Material = 3
	Cobblestone     Material = 4
	Wood            Material = 5
	Bedrock         Material = 7
	Water           Material = 8
	StationaryWater Material = 9
	Lava            Material = 10
	StationaryLava  Material = 11
	Sand            Material = 12
	Gravel          Material = 13
	Log             Material = 17
	Leaves          Material = 18
	Sponge          Material = 19
	Glass           Material = 20
	Wool            Material = 35
	TNT             Material = 46
	Obsidian        Material = 49
	Fire            Material = 51
	Chest           Material = 54
	Furnace         Material = 61
	BurningFurnace  Material = 62
	Portal          Material = 90
	FlintAndSteel   Material = 259
	WoodenAxe       Material = 271
)

var materialNames = map[Material]string{
	Air:             "air",
	Stone:           "stone",
	Grass:           "grass",
	Dirt:            "dirt",
	Cobblestone:     "cobblestone",
	Wood:            "wood",
	Bedrock:         "bedrock",
	Water:           "water",
	StationaryWater: "stationary_water",
	Lava:            "lava",
	StationaryLava:  "stationary_lava",
	Sand:            "sand",
	Gravel:          "gravel",
	Log:             "log",
	Leaves:          "leaves",
	Sponge:          "sponge",
	Glass:           "glass",
	Wool:            "wool",
	TNT:             "tnt",
	Obsidian:        "obsidian",
	Fire:            "fire",
	Chest:           "chest",
	Furnace:         "furnace",
	BurningFurnace:  "burning_furnace",
	Portal:          "portal",
	FlintAndSteel:   "flint_and_steel",
	WoodenAxe:       "wooden_axe",
}

var materialsByName = func() map[string]Material {
	m := make(map[string]Material, len(materialNames))
	for id, name := range materialNames {
		m[name] = id
	}
	return m
}()

// String returns the material's name, or its numeric id when unnamed.
func (m Material) String() string {
	if name, ok := materialNames[m]; ok {
		return name
	}
	return strconv.Itoa(int(m))
}

// IsWater reports whether m is flowing or stationary water.
func (m Material) IsWater() bool {
	return m == Water || m == StationaryWater
}

// IsLava reports whether m is flowing or stationary lava.
func (m Material) IsLava() bool {
	return m == Lava || m == StationaryLava
}

// IsContainer reports whether m holds an inventory that players can open.
func (m Material) IsContainer() bool {
	return m == Chest || m == Furnace || m == BurningFurnace
}

// ParseMaterial resolves a material from its name or numeric id.
// Names are case-insensitive; spaces and dashes are treated as underscores.
// Numeric ids are accepted even when unnamed.
func ParseMaterial(s string) (Material, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return 0, oops.In("world").Code("UNKNOWN_MATERIAL").New("material cannot be empty")
	}
	if n, err := strconv.Atoi(key); err == nil {
		if n < 0 {
			return 0, oops.In("world").Code("UNKNOWN_MATERIAL").With("material", s).New("material id must be non-negative")
		}
		return Material(n), nil
	}
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if m, ok := materialsByName[key]; ok {
		return m, nil
	}
	return 0, oops.In("world").Code("UNKNOWN_MATERIAL").With("material", s).New("unknown material")
}

// ParseMaterials resolves every entry of names, failing on the first unknown one.
func ParseMaterials(names []string) (MaterialSet, error) {
	set := make(MaterialSet, len(names))
	for _, name := range names {
		m, err := ParseMaterial(name)
		if err != nil {
			return nil, err
		}
		set[m] = struct{}{}
	}
	return set, nil
}

// MaterialSet is an unordered set of materials. A nil set is empty.
type MaterialSet map[Material]struct{}

// NewMaterialSet builds a set from the given materials.
func NewMaterialSet(ms ...Material) MaterialSet {
	set := make(MaterialSet, len(ms))
	for _, m := range ms {
		set[m] = struct{}{}
	}
	return set
}

// Contains reports whether m is in the set.
func (s MaterialSet) Contains(m Material) bool {
	_, ok := s[m]
	return ok
}

// Len returns the number of materials in the set.
func (s MaterialSet) Len() int {
	return len(s)
}

// Sorted returns the members in ascending id order.
func (s MaterialSet) Sorted() []Material {
	out := make([]Material, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
