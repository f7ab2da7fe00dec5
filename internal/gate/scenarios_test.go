// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package gate_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/blockguard/internal/blacklist"
	"github.com/holomush/blockguard/internal/capability"
	"github.com/holomush/blockguard/internal/environment"
	"github.com/holomush/blockguard/internal/gate"
	"github.com/holomush/blockguard/internal/permission"
	"github.com/holomush/blockguard/internal/region"
	"github.com/holomush/blockguard/internal/world"
)

type inbox struct {
	mu   sync.Mutex
	msgs map[string][]string
}

func (b *inbox) Notify(_ context.Context, playerID, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.msgs == nil {
		b.msgs = map[string][]string{}
	}
	b.msgs[playerID] = append(b.msgs[playerID], text)
}

func (b *inbox) For(playerID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.msgs[playerID]...)
}

var _ = Describe("a protected spawn", func() {
	var (
		ctx     context.Context
		grid    *world.Grid
		caps    *capability.Enforcer
		msgs    *inbox
		toggles environment.Toggles
		g       *gate.Gate

		owner    = world.Player{ID: "owner"}
		stranger = world.Player{ID: "stranger"}
		inSpawn  = world.Pt(5, 64, 5)
		outside  = world.Pt(100, 64, 100)
	)

	build := func() {
		ix := region.NewIndex()
		Expect(ix.Replace([]region.Region{
			{
				ID:     "spawn",
				Shape:  region.Cuboid(world.Pt(0, 0, 0), world.Pt(20, 128, 20)),
				Owners: []string{owner.ID},
				Flags:  map[string]region.FlagValue{region.FlagAllowLighter: region.Deny},
			},
			{
				ID:       "plaza",
				Parent:   "spawn",
				Priority: 10,
				Shape:    region.Cuboid(world.Pt(0, 0, 0), world.Pt(5, 128, 5)),
				Flags:    map[string]region.FlagValue{region.FlagBuild: region.Allow},
			},
		})).To(Succeed())
		resolver := region.NewResolver(ix, true)

		chain := blacklist.NewChain([]*blacklist.Rule{
			blacklist.MustCompile(blacklist.RuleSpec{
				Materials: []string{"tnt"},
				Actions:   []string{"place"},
				Policy:    string(blacklist.Verbose),
			}),
		}, blacklist.WithCapabilities(caps), blacklist.WithNotifier(msgs))

		g = gate.New(gate.Config{RegionsEnabled: true, Wand: world.WoodenAxe}, gate.Deps{
			Permissions: permission.NewGate(resolver, caps),
			Regions:     resolver,
			Blacklist:   chain,
			Rules:       environment.New(toggles),
			World:       grid,
			Notifier:    msgs,
		})
	}

	BeforeEach(func() {
		ctx = context.Background()
		grid = world.NewGrid()
		caps = capability.NewEnforcer()
		msgs = &inbox{}
		toggles = environment.DefaultToggles()
	})

	JustBeforeEach(build)

	Describe("breaking blocks", func() {
		It("lets the owner break and stops strangers with a message", func() {
			Expect(g.Break(ctx, gate.BreakEvent{Player: owner, Point: world.Pt(10, 64, 10), Block: world.Stone}).Allowed).To(BeTrue())

			v := g.Break(ctx, gate.BreakEvent{Player: stranger, Point: world.Pt(10, 64, 10), Block: world.Stone})
			Expect(v.Allowed).To(BeFalse())
			Expect(v.Step).To(Equal(gate.StepRegionBuild))
			Expect(msgs.For(stranger.ID)).To(ConsistOf(gate.MsgNoPermission))
		})

		It("lets anyone build in the higher priority plaza", func() {
			Expect(g.Break(ctx, gate.BreakEvent{Player: stranger, Point: world.Pt(2, 64, 2), Block: world.Stone}).Allowed).To(BeTrue())
		})

		It("leaves the wilderness open", func() {
			Expect(g.Break(ctx, gate.BreakEvent{Player: stranger, Point: outside, Block: world.Stone}).Allowed).To(BeTrue())
		})

		Context("when the stranger holds the bypass capability", func() {
			BeforeEach(func() {
				Expect(caps.Grant(stranger.ID, capability.RegionBypass)).To(Succeed())
			})

			It("allows the break", func() {
				Expect(g.Break(ctx, gate.BreakEvent{Player: stranger, Point: world.Pt(10, 64, 10), Block: world.Stone}).Allowed).To(BeTrue())
			})
		})
	})

	Describe("placing blacklisted blocks", func() {
		It("vetoes everywhere and tells the player", func() {
			v := g.Place(ctx, gate.PlaceEvent{Player: owner, Point: outside, Block: world.TNT})
			Expect(v.Allowed).To(BeFalse())
			Expect(v.Step).To(Equal(gate.StepBlacklistPlace))
			Expect(msgs.For(owner.ID)).To(ConsistOf("You are not allowed to place tnt."))
		})

		It("checks the region before the blacklist", func() {
			v := g.Place(ctx, gate.PlaceEvent{Player: stranger, Point: world.Pt(10, 64, 10), Block: world.TNT})
			Expect(v.Step).To(Equal(gate.StepRegionBuild))
			Expect(msgs.For(stranger.ID)).To(ConsistOf(gate.MsgNoPermission))
		})
	})

	Describe("lighting fires", func() {
		It("uses the inherited allow-lighter flag", func() {
			v := g.Ignite(ctx, gate.IgniteEvent{Point: world.Pt(2, 64, 2), Cause: environment.CauseFlintAndSteel, Player: &owner})
			Expect(v.Allowed).To(BeFalse())
			Expect(v.Step).To(Equal(gate.StepAllowLighter))
			Expect(msgs.For(owner.ID)).To(BeEmpty())
		})

		It("ignores regions for spreading fire", func() {
			Expect(g.Ignite(ctx, gate.IgniteEvent{Point: inSpawn, Cause: environment.CauseSpread}).Allowed).To(BeTrue())
		})

		Context("with fire spread disabled", func() {
			BeforeEach(func() { toggles.DisableFireSpread = true })

			It("stops spread before any region check", func() {
				v := g.Ignite(ctx, gate.IgniteEvent{Point: inSpawn, Cause: environment.CauseSlowSpread})
				Expect(v.Step).To(Equal(gate.StepFireSpread))
			})
		})

		Context("with lighters blocked", func() {
			BeforeEach(func() { toggles.BlockLighter = true })

			It("vetoes the lighter outside regions", func() {
				v := g.Ignite(ctx, gate.IgniteEvent{Point: outside, Cause: environment.CauseFlintAndSteel, Player: &stranger})
				Expect(v.Step).To(Equal(gate.StepLighter))
			})
		})
	})

	Describe("liquids", func() {
		BeforeEach(func() {
			toggles.SimulateSponge = true
			toggles.SpongeRadius = 2
		})

		It("lets a sponge soak up nearby water", func() {
			grid.SetMaterial(world.Pt(50, 64, 50), world.Sponge)
			grid.SetMaterial(world.Pt(48, 64, 50), world.Water)

			v := g.Flow(ctx, gate.FlowEvent{Source: world.Pt(48, 64, 50), Dest: world.Pt(49, 64, 50)})
			Expect(v.Step).To(Equal(gate.StepSponge))

			grid.SetMaterial(world.Pt(40, 64, 50), world.Water)
			Expect(g.Flow(ctx, gate.FlowEvent{Source: world.Pt(40, 64, 50), Dest: world.Pt(41, 64, 50)}).Allowed).To(BeTrue())
		})
	})

	Describe("inspecting with the wand", func() {
		It("lists the applicable regions in priority order", func() {
			rep := g.Inspect(ctx, gate.InspectEvent{Player: stranger, Point: world.Pt(2, 64, 2), Held: world.WoodenAxe})
			Expect(rep.Handled).To(BeTrue())
			Expect(rep.CanBuild).To(BeTrue())
			Expect(rep.Regions).To(Equal([]string{"plaza", "spawn"}))
			Expect(msgs.For(stranger.ID)).To(Equal([]string{"Can you build? Yes", "Applicable regions: plaza, spawn"}))
		})
	})
})
