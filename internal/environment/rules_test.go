// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package environment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/blockguard/internal/environment"
	"github.com/holomush/blockguard/internal/world"
	"github.com/holomush/blockguard/pkg/errutil"
)

func TestSpongeAbsorbs(t *testing.T) {
	g := world.NewGrid()
	g.SetMaterial(world.Pt(0, 1, 0), world.Sponge)

	r := environment.New(environment.Toggles{SimulateSponge: true, SpongeRadius: 2})

	assert.True(t, r.SpongeAbsorbs(g, world.Water, world.Pt(1, 0, 1)))
	assert.True(t, r.SpongeAbsorbs(g, world.StationaryWater, world.Pt(2, 3, -2)))
	assert.False(t, r.SpongeAbsorbs(g, world.Water, world.Pt(3, 0, 3)))
	assert.False(t, r.SpongeAbsorbs(g, world.Lava, world.Pt(1, 0, 1)), "only water is absorbed")

	off := environment.New(environment.Toggles{SpongeRadius: 2})
	assert.False(t, off.SpongeAbsorbs(g, world.Water, world.Pt(1, 0, 1)))
}

func TestSpongeAbsorbs_ZeroRadiusChecksOnlyDestination(t *testing.T) {
	g := world.NewGrid()
	g.SetMaterial(world.Pt(0, 0, 0), world.Sponge)
	r := environment.New(environment.Toggles{SimulateSponge: true})

	assert.True(t, r.SpongeAbsorbs(g, world.Water, world.Pt(0, 0, 0)))
	assert.False(t, r.SpongeAbsorbs(g, world.Water, world.Pt(1, 0, 0)))
}

func TestSpongeSweep(t *testing.T) {
	g := world.NewGrid()
	g.Fill(world.Pt(-3, -3, -3), world.Pt(3, 3, 3), world.Water)
	g.SetMaterial(world.Pt(1, 1, 1), world.StationaryWater)
	g.SetMaterial(world.Pt(0, 1, 0), world.Stone)
	g.SetMaterial(world.Pt(0, 0, 0), world.Sponge)

	r := environment.New(environment.Toggles{SimulateSponge: true, SpongeRadius: 1})
	cleared := r.SpongeSweep(g, world.Sponge, world.Pt(0, 0, 0))

	// 27 cells minus the sponge and the stone
	assert.Equal(t, 25, cleared)
	assert.Equal(t, world.Air, g.MaterialAt(world.Pt(1, 1, 1)))
	assert.Equal(t, world.Stone, g.MaterialAt(world.Pt(0, 1, 0)))
	assert.Equal(t, world.Water, g.MaterialAt(world.Pt(2, 0, 0)))

	assert.Zero(t, r.SpongeSweep(g, world.Stone, world.Pt(2, 2, 2)))
}

func TestClassicWaterDecay(t *testing.T) {
	tests := []struct {
		name   string
		below  world.Material
		liquid world.Material
		veto   bool
	}{
		{"supported by stone", world.Stone, world.Water, true},
		{"over air", world.Air, world.Water, false},
		{"over water", world.Water, world.Water, false},
		{"over stationary water", world.StationaryWater, world.StationaryWater, false},
		{"lava is ignored", world.Stone, world.Lava, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := world.NewGrid()
			src := world.Pt(0, 5, 0)
			g.SetMaterial(src, tt.liquid)
			g.SetMaterial(src.Below(), tt.below)

			r := environment.New(environment.Toggles{ClassicWater: true})
			assert.Equal(t, tt.veto, r.ClassicWaterDecay(g, tt.liquid, src))
			if tt.veto {
				assert.Equal(t, world.StationaryWater, g.MaterialAt(src))
			} else {
				assert.Equal(t, tt.liquid, g.MaterialAt(src))
			}
		})
	}
}

func TestPreventsWaterDamage(t *testing.T) {
	g := world.NewGrid()
	g.SetMaterial(world.Pt(0, 0, 0), world.Wool)

	r := environment.New(environment.Toggles{PreventWaterDamage: world.NewMaterialSet(world.Wool)})
	assert.True(t, r.PreventsWaterDamage(g, world.Water, world.Pt(0, 0, 0)))
	assert.False(t, r.PreventsWaterDamage(g, world.Water, world.Pt(1, 0, 0)))
	assert.False(t, r.PreventsWaterDamage(g, world.Lava, world.Pt(0, 0, 0)))

	empty := environment.New(environment.Toggles{})
	assert.False(t, empty.PreventsWaterDamage(g, world.Water, world.Pt(0, 0, 0)))
}

func TestRestrictsLavaSpread(t *testing.T) {
	g := world.NewGrid()
	g.SetMaterial(world.Pt(0, 0, 0), world.Obsidian)
	g.SetMaterial(world.Pt(5, 0, 0), world.Wood)

	r := environment.New(environment.Toggles{AllowedLavaSpreadOver: world.NewMaterialSet(world.Obsidian)})
	assert.False(t, r.RestrictsLavaSpread(g, world.Lava, world.Pt(0, 1, 0)))
	assert.True(t, r.RestrictsLavaSpread(g, world.StationaryLava, world.Pt(5, 1, 0)))
	assert.False(t, r.RestrictsLavaSpread(g, world.Water, world.Pt(5, 1, 0)))

	unrestricted := environment.New(environment.Toggles{})
	assert.False(t, unrestricted.RestrictsLavaSpread(g, world.Lava, world.Pt(5, 1, 0)))
}

func TestIgniteGates(t *testing.T) {
	all := environment.New(environment.Toggles{
		PreventLavaFire:         true,
		DisableFireSpread:       true,
		BlockLighter:            true,
		FireSpreadDisableToggle: true,
	})
	none := environment.New(environment.Toggles{})

	assert.True(t, all.BlocksLavaFire(environment.CauseLava))
	assert.False(t, all.BlocksLavaFire(environment.CauseSpread))

	for _, c := range []environment.IgniteCause{environment.CauseSpread, environment.CauseSlowSpread} {
		assert.True(t, all.BlocksFireSpread(c))
		assert.True(t, all.BlocksFireSpreadToggle(c))
		assert.False(t, none.BlocksFireSpread(c))
		assert.False(t, none.BlocksFireSpreadToggle(c))
	}
	assert.False(t, all.BlocksFireSpread(environment.CauseLava))

	assert.True(t, all.BlocksLighter(environment.CauseFlintAndSteel))
	assert.False(t, all.BlocksLighter(environment.CauseLava))
	assert.False(t, none.BlocksLighter(environment.CauseFlintAndSteel))
}

func TestSpreadTogglesAreIndependent(t *testing.T) {
	onlyA := environment.New(environment.Toggles{DisableFireSpread: true})
	onlyB := environment.New(environment.Toggles{FireSpreadDisableToggle: true})

	assert.True(t, onlyA.BlocksFireSpread(environment.CauseSpread))
	assert.False(t, onlyA.BlocksFireSpreadToggle(environment.CauseSpread))
	assert.False(t, onlyB.BlocksFireSpread(environment.CauseSpread))
	assert.True(t, onlyB.BlocksFireSpreadToggle(environment.CauseSpread))
}

func TestFireSpreadNeighbourBlocked(t *testing.T) {
	p := world.Pt(10, 10, 10)
	r := environment.New(environment.Toggles{DisableFireSpreadBlocks: world.NewMaterialSet(world.Stone)})

	tests := []struct {
		name   string
		stone  world.Point
		vetoed bool
	}{
		{"above only", p.Above(), false},
		{"below", p.Below(), true},
		{"+x", p.Add(1, 0, 0), true},
		{"-x", p.Add(-1, 0, 0), true},
		{"-z", p.Add(0, 0, -1), true},
		{"+z", p.Add(0, 0, 1), true},
		{"diagonal", p.Add(1, 0, 1), false},
		{"the block itself", p, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := world.NewGrid()
			g.SetMaterial(tt.stone, world.Stone)
			assert.Equal(t, tt.vetoed, r.FireSpreadNeighbourBlocked(g, environment.CauseSpread, p))
		})
	}

	g := world.NewGrid()
	g.SetMaterial(p.Below(), world.Stone)
	assert.False(t, r.FireSpreadNeighbourBlocked(g, environment.CauseFlintAndSteel, p), "only spread is checked")
}

func TestFireSpreadNeighbourBlocked_ReadsFiveCells(t *testing.T) {
	p := world.Pt(0, 64, 0)
	r := environment.New(environment.Toggles{DisableFireSpreadBlocks: world.NewMaterialSet(world.Wood)})

	var read []world.Point
	w := world.ReaderFunc(func(q world.Point) world.Material {
		read = append(read, q)
		return world.Stone
	})

	assert.False(t, r.FireSpreadNeighbourBlocked(w, environment.CauseSpread, p))
	assert.ElementsMatch(t, []world.Point{
		p.Below(), p.Add(1, 0, 0), p.Add(-1, 0, 0), p.Add(0, 0, -1), p.Add(0, 0, 1),
	}, read)
}

func TestPhysicsSuppression(t *testing.T) {
	r := environment.New(environment.Toggles{NoPhysicsGravel: true, NoPhysicsSand: true, AllowPortalAnywhere: true})
	none := environment.New(environment.Toggles{})

	assert.True(t, r.SuppressesGravel(world.Gravel))
	assert.False(t, r.SuppressesGravel(world.Sand))
	assert.True(t, r.SuppressesSand(world.Sand))
	assert.False(t, r.SuppressesSand(world.Gravel))
	assert.True(t, r.SuppressesPortal(world.Portal))
	assert.False(t, r.SuppressesPortal(world.Obsidian))

	assert.False(t, none.SuppressesGravel(world.Gravel))
	assert.False(t, none.SuppressesSand(world.Sand))
	assert.False(t, none.SuppressesPortal(world.Portal))
}

func TestApplyDurability(t *testing.T) {
	item := &world.Item{Material: world.WoodenAxe, Damage: 7}

	assert.False(t, environment.New(environment.DefaultToggles()).ApplyDurability(item))
	assert.Equal(t, 7, item.Damage)

	noWear := environment.DefaultToggles()
	noWear.ItemDurability = false
	assert.True(t, environment.New(noWear).ApplyDurability(item))
	assert.Equal(t, environment.UnwornDamage, item.Damage)
	assert.False(t, environment.New(noWear).ApplyDurability(nil))
}

func TestParseIgniteCause(t *testing.T) {
	c, err := environment.ParseIgniteCause("Slow-Spread")
	require.NoError(t, err)
	assert.Equal(t, environment.CauseSlowSpread, c)

	_, err = environment.ParseIgniteCause("lightning")
	errutil.AssertErrorCode(t, err, "UNKNOWN_IGNITE_CAUSE")
}

func TestDefaultToggles(t *testing.T) {
	d := environment.DefaultToggles()
	assert.Equal(t, environment.DefaultSpongeRadius, d.SpongeRadius)
	assert.True(t, d.ItemDurability)
	assert.False(t, d.SimulateSponge)
	assert.Equal(t, d, environment.New(d).Toggles())
}
