// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package environment holds the reactive world rules: sponges, classic
// water, water damage, lava spread, fire and physics suppression.
//
// Every rule is a pure function of the event, the configured Toggles and the
// world reader, except the two that repair the world (classic water decay and
// the sponge sweep), which write through the supplied world.Writer. A rule
// returning true vetoes the event.
package environment

import (
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/blockguard/internal/world"
)

// Toggles is the simulation configuration. A zero or empty value disables
// the matching rule.
type Toggles struct {
	SimulateSponge bool
	SpongeRadius   int
	ClassicWater   bool

	PreventWaterDamage    world.MaterialSet
	AllowedLavaSpreadOver world.MaterialSet

	PreventLavaFire         bool
	DisableFireSpread       bool
	FireSpreadDisableToggle bool
	BlockLighter            bool
	DisableFireSpreadBlocks world.MaterialSet

	NoPhysicsGravel     bool
	NoPhysicsSand       bool
	AllowPortalAnywhere bool

	// ItemDurability lets tools wear out when breaking blocks.
	ItemDurability bool
}

// DefaultSpongeRadius is the sponge reach used when none is configured.
const DefaultSpongeRadius = 3

// DefaultToggles returns the toggles of an unconfigured server: every rule
// off, tools wear normally.
func DefaultToggles() Toggles {
	return Toggles{SpongeRadius: DefaultSpongeRadius, ItemDurability: true}
}

// IgniteCause is what set a block alight.
type IgniteCause string

// Ignition causes.
const (
	CauseLava          IgniteCause = "lava"
	CauseSpread        IgniteCause = "spread"
	CauseSlowSpread    IgniteCause = "slow_spread"
	CauseFlintAndSteel IgniteCause = "flint_and_steel"
)

// IsSpread reports whether the fire came from a neighbouring fire.
func (c IgniteCause) IsSpread() bool {
	return c == CauseSpread || c == CauseSlowSpread
}

// ParseIgniteCause validates a cause name. Dashes are read as underscores.
func ParseIgniteCause(s string) (IgniteCause, error) {
	c := IgniteCause(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	switch c {
	case CauseLava, CauseSpread, CauseSlowSpread, CauseFlintAndSteel:
		return c, nil
	}
	return "", oops.In("environment").Code("UNKNOWN_IGNITE_CAUSE").With("cause", s).New("unknown ignite cause")
}

// fireNeighbours are the cells checked around a spreading fire. The cell
// above is deliberately absent.
var fireNeighbours = [5][3]int{
	{0, -1, 0},
	{1, 0, 0},
	{-1, 0, 0},
	{0, 0, -1},
	{0, 0, 1},
}

// Rules evaluates the environment rules under a fixed set of toggles.
type Rules struct {
	t Toggles
}

// New creates Rules for t.
func New(t Toggles) *Rules {
	return &Rules{t: t}
}

// Toggles returns the configuration the rules were built with.
func (r *Rules) Toggles() Toggles {
	return r.t
}

// SpongeAbsorbs reports whether water flowing into dest is soaked up by a
// sponge within the configured radius.
func (r *Rules) SpongeAbsorbs(w world.Reader, liquid world.Material, dest world.Point) bool {
	if !r.t.SimulateSponge || !liquid.IsWater() {
		return false
	}
	found := false
	dest.Cube(r.t.SpongeRadius, func(p world.Point) bool {
		found = w.MaterialAt(p) == world.Sponge
		return !found
	})
	return found
}

// SpongeSweep clears water around a freshly placed sponge and returns how
// many blocks were drained. It never vetoes.
func (r *Rules) SpongeSweep(w world.ReadWriter, placed world.Material, at world.Point) int {
	if !r.t.SimulateSponge || placed != world.Sponge {
		return 0
	}
	cleared := 0
	at.Cube(r.t.SpongeRadius, func(p world.Point) bool {
		if w.MaterialAt(p).IsWater() {
			w.SetMaterial(p, world.Air)
			cleared++
		}
		return true
	})
	return cleared
}

// ClassicWaterDecay stops water flowing from an unsupported source. When the
// block below the source is neither air nor water the source is turned into
// stationary water and the flow is vetoed.
func (r *Rules) ClassicWaterDecay(w world.ReadWriter, liquid world.Material, source world.Point) bool {
	if !r.t.ClassicWater || !liquid.IsWater() {
		return false
	}
	below := w.MaterialAt(source.Below())
	if below == world.Air || below.IsWater() {
		return false
	}
	w.SetMaterial(source, world.StationaryWater)
	return true
}

// PreventsWaterDamage reports whether water flowing into dest would wash away
// a protected material.
func (r *Rules) PreventsWaterDamage(w world.Reader, liquid world.Material, dest world.Point) bool {
	if r.t.PreventWaterDamage.Len() == 0 || !liquid.IsWater() {
		return false
	}
	return r.t.PreventWaterDamage.Contains(w.MaterialAt(dest))
}

// RestrictsLavaSpread reports whether lava may not flow into dest because the
// block beneath it is not on the allowlist.
func (r *Rules) RestrictsLavaSpread(w world.Reader, liquid world.Material, dest world.Point) bool {
	if r.t.AllowedLavaSpreadOver.Len() == 0 || !liquid.IsLava() {
		return false
	}
	return !r.t.AllowedLavaSpreadOver.Contains(w.MaterialAt(dest.Below()))
}

// BlocksLavaFire vetoes ignition by lava.
func (r *Rules) BlocksLavaFire(cause IgniteCause) bool {
	return r.t.PreventLavaFire && cause == CauseLava
}

// BlocksFireSpread vetoes spreading fire under disable_fire_spread.
func (r *Rules) BlocksFireSpread(cause IgniteCause) bool {
	return r.t.DisableFireSpread && cause.IsSpread()
}

// BlocksLighter vetoes flint and steel.
func (r *Rules) BlocksLighter(cause IgniteCause) bool {
	return r.t.BlockLighter && cause == CauseFlintAndSteel
}

// BlocksFireSpreadToggle vetoes spreading fire under
// fire_spread_disable_toggle. It is checked separately from BlocksFireSpread.
func (r *Rules) BlocksFireSpreadToggle(cause IgniteCause) bool {
	return r.t.FireSpreadDisableToggle && cause.IsSpread()
}

// FireSpreadNeighbourBlocked vetoes spreading fire at p when the block below
// or any horizontal neighbour is on the disable_fire_spread_blocks list.
func (r *Rules) FireSpreadNeighbourBlocked(w world.Reader, cause IgniteCause, p world.Point) bool {
	if r.t.DisableFireSpreadBlocks.Len() == 0 || !cause.IsSpread() {
		return false
	}
	for _, d := range fireNeighbours {
		if r.t.DisableFireSpreadBlocks.Contains(w.MaterialAt(p.Add(d[0], d[1], d[2]))) {
			return true
		}
	}
	return false
}

// SuppressesGravel vetoes physics on gravel.
func (r *Rules) SuppressesGravel(changed world.Material) bool {
	return r.t.NoPhysicsGravel && changed == world.Gravel
}

// SuppressesSand vetoes physics on sand.
func (r *Rules) SuppressesSand(changed world.Material) bool {
	return r.t.NoPhysicsSand && changed == world.Sand
}

// SuppressesPortal vetoes the portal frame check so portals can stand alone.
func (r *Rules) SuppressesPortal(changed world.Material) bool {
	return r.t.AllowPortalAnywhere && changed == world.Portal
}

// UnwornDamage is the damage written to a held tool when durability is off.
// The wear the host adds for the break brings it back to zero.
const UnwornDamage = -1

// ApplyDurability resets wear on the held item when tools should not wear
// out. It reports whether the item was changed.
func (r *Rules) ApplyDurability(held *world.Item) bool {
	if r.t.ItemDurability || held == nil {
		return false
	}
	held.Damage = UnwornDamage
	return true
}
