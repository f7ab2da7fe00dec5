// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package permission combines the administrative bypass with region build
// resolution.
package permission

import (
	"github.com/holomush/blockguard/internal/capability"
	"github.com/holomush/blockguard/internal/region"
	"github.com/holomush/blockguard/internal/world"
)

// Resolver is the region surface the gate consults. region.Resolver
// implements it.
type Resolver interface {
	CanBuild(playerID string, p world.Point) bool
	ResolveFlag(p world.Point, name string, def region.FlagValue) region.FlagValue
}

// Compile-time check that region.Resolver implements Resolver.
var _ Resolver = (*region.Resolver)(nil)

// Gate answers build questions for players.
type Gate struct {
	regions Resolver
	caps    capability.Checker
}

// NewGate creates a Gate. caps may be nil, in which case only the bypass
// carried on the player counts.
func NewGate(regions Resolver, caps capability.Checker) *Gate {
	return &Gate{regions: regions, caps: caps}
}

// HasBypass reports whether player skips region checks, either through the
// flag on the player or a region.bypass grant.
func (g *Gate) HasBypass(player world.Player) bool {
	if player.Bypass {
		return true
	}
	return g.caps != nil && g.caps.Check(player.ID, capability.RegionBypass)
}

// CheckBuild reports whether player may build at p. Bypass holders pass
// without the region index being queried.
func (g *Gate) CheckBuild(player world.Player, p world.Point) bool {
	if g.HasBypass(player) {
		return true
	}
	return g.regions.CanBuild(player.ID, p)
}

// ResolveFlag resolves a region flag at p.
func (g *Gate) ResolveFlag(p world.Point, name string, def region.FlagValue) region.FlagValue {
	return g.regions.ResolveFlag(p, name, def)
}
