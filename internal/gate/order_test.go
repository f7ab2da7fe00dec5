// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package gate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/holomush/blockguard/internal/environment"
	"github.com/holomush/blockguard/internal/gate"
	"github.com/holomush/blockguard/internal/world"
)

func TestStepOrder(t *testing.T) {
	g := newGate(new(mockPermissions), nil, nil, environment.DefaultToggles(), nil)
	tests := []struct {
		kind string
		ev   any
		want []string
	}{
		{gate.KindBreak, gate.BreakEvent{Player: alice, Point: here}, []string{
			gate.StepDurability, gate.StepRegionBuild, gate.StepBlacklistBreak, gate.StepBlacklistDestroy,
		}},
		{gate.KindFlow, gate.FlowEvent{Source: here, Dest: here.Add(1, 0, 0)}, []string{
			gate.StepSponge, gate.StepClassicWater, gate.StepWaterDamage, gate.StepLavaSpread,
		}},
		{gate.KindIgnite, gate.IgniteEvent{Point: here, Cause: environment.CauseSpread}, []string{
			gate.StepLavaFire, gate.StepFireSpread, gate.StepLighter, gate.StepFireSpreadToggle,
			gate.StepFireNeighbours, gate.StepRegionBuild, gate.StepAllowLighter,
		}},
		{gate.KindPhysics, gate.PhysicsEvent{Point: here}, []string{
			gate.StepGravel, gate.StepSand, gate.StepPortal,
		}},
		{gate.KindInteract, gate.InteractEvent{Player: alice, Point: here}, []string{
			gate.StepRegionBuild, gate.StepBlacklistInteract,
		}},
		{gate.KindPlace, gate.PlaceEvent{Player: alice, Point: here}, []string{
			gate.StepRegionBuild, gate.StepBlacklistPlace, gate.StepSpongeSweep,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.Equal(t, tt.want, gate.StepNames(g, tt.ev))
		})
	}
}

func TestFlow_SpongeVetoLeavesSourceUntouched(t *testing.T) {
	grid := world.NewGrid()
	src := world.Pt(0, 64, 0)
	dst := world.Pt(1, 64, 0)
	grid.SetMaterial(src, world.Water)
	grid.SetMaterial(src.Below(), world.Stone)
	grid.SetMaterial(world.Pt(3, 64, 0), world.Sponge)

	toggles := environment.DefaultToggles()
	toggles.SimulateSponge = true
	toggles.ClassicWater = true
	g := newGate(new(mockPermissions), nil, nil, toggles, grid)

	v := g.Flow(context.Background(), gate.FlowEvent{Source: src, Dest: dst})
	assert.False(t, v.Allowed)
	assert.Equal(t, gate.StepSponge, v.Step)
	assert.Equal(t, world.Water, grid.MaterialAt(src), "classic water never ran")
}

func TestFlow_ClassicWaterBeforeWaterDamage(t *testing.T) {
	grid := world.NewGrid()
	src := world.Pt(0, 64, 0)
	dst := world.Pt(1, 64, 0)
	grid.SetMaterial(src, world.Water)
	grid.SetMaterial(src.Below(), world.Stone)
	grid.SetMaterial(dst, world.Wool)

	toggles := environment.DefaultToggles()
	toggles.ClassicWater = true
	toggles.PreventWaterDamage = world.NewMaterialSet(world.Wool)
	g := newGate(new(mockPermissions), nil, nil, toggles, grid)

	v := g.Flow(context.Background(), gate.FlowEvent{Source: src, Dest: dst})
	assert.False(t, v.Allowed)
	assert.Equal(t, gate.StepClassicWater, v.Step)
	assert.Equal(t, world.StationaryWater, grid.MaterialAt(src))

	toggles.ClassicWater = false
	grid.SetMaterial(src, world.Water)
	g = newGate(new(mockPermissions), nil, nil, toggles, grid)
	v = g.Flow(context.Background(), gate.FlowEvent{Source: src, Dest: dst})
	assert.Equal(t, gate.StepWaterDamage, v.Step)
}

func TestIgnite_ToggleOrder(t *testing.T) {
	grid := world.NewGrid()
	grid.SetMaterial(here.Below(), world.Wood)

	all := environment.DefaultToggles()
	all.PreventLavaFire = true
	all.DisableFireSpread = true
	all.BlockLighter = true
	all.FireSpreadDisableToggle = true
	all.DisableFireSpreadBlocks = world.NewMaterialSet(world.Wood)

	onlyToggle := all
	onlyToggle.DisableFireSpread = false
	onlyNeighbours := onlyToggle
	onlyNeighbours.FireSpreadDisableToggle = false

	tests := []struct {
		name    string
		toggles environment.Toggles
		cause   environment.IgniteCause
		step    string
	}{
		{"lava", all, environment.CauseLava, gate.StepLavaFire},
		{"spread", all, environment.CauseSpread, gate.StepFireSpread},
		{"slow spread", all, environment.CauseSlowSpread, gate.StepFireSpread},
		{"lighter", all, environment.CauseFlintAndSteel, gate.StepLighter},
		{"spread toggle", onlyToggle, environment.CauseSpread, gate.StepFireSpreadToggle},
		{"neighbours", onlyNeighbours, environment.CauseSlowSpread, gate.StepFireNeighbours},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGate(new(mockPermissions), nil, nil, tt.toggles, grid)
			v := g.Ignite(context.Background(), gate.IgniteEvent{Point: here, Cause: tt.cause})
			assert.False(t, v.Allowed)
			assert.Equal(t, tt.step, v.Step)
		})
	}
}
