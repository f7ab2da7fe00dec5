// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package gate decides world events. Each event kind runs a fixed pipeline of
// region, blacklist and environment checks; the first veto cancels the event.
package gate

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/holomush/blockguard/internal/blacklist"
	"github.com/holomush/blockguard/internal/environment"
	"github.com/holomush/blockguard/internal/logging"
	"github.com/holomush/blockguard/internal/region"
	"github.com/holomush/blockguard/internal/world"
)

// Event kinds, used in logs and metrics.
const (
	KindBreak    = "break"
	KindFlow     = "flow"
	KindIgnite   = "ignite"
	KindPhysics  = "physics"
	KindInteract = "interact"
	KindPlace    = "place"
	KindInspect  = "inspect"
)

// Step names.
const (
	StepDurability        = "durability"
	StepRegionBuild       = "region-build"
	StepBlacklistBreak    = "blacklist-break"
	StepBlacklistDestroy  = "blacklist-destroy-with"
	StepBlacklistInteract = "blacklist-interact"
	StepBlacklistPlace    = "blacklist-place"
	StepSpongeSweep       = "sponge-sweep"
	StepSponge            = "sponge"
	StepClassicWater      = "classic-water"
	StepWaterDamage       = "water-damage"
	StepLavaSpread        = "lava-spread"
	StepLavaFire          = "lava-fire"
	StepFireSpread        = "fire-spread"
	StepLighter           = "lighter"
	StepFireSpreadToggle  = "fire-spread-toggle"
	StepFireNeighbours    = "fire-spread-blocks"
	StepAllowLighter      = "allow-lighter"
	StepGravel            = "gravel"
	StepSand              = "sand"
	StepPortal            = "portal"
)

// Player-facing messages.
const (
	MsgNoPermission = "You don't have permission for this area."
	MsgNoRegions    = "No defined regions here!"
)

// BreakEvent is a player breaking a block.
type BreakEvent struct {
	Player world.Player
	Point  world.Point
	Block  world.Material
	// Held is the item in the player's hand, or nil when empty-handed.
	// Durability handling may modify it.
	Held *world.Item
}

// FlowEvent is liquid spreading from Source into Dest. The liquid is read
// from the world at Source.
type FlowEvent struct {
	Source world.Point
	Dest   world.Point
}

// IgniteEvent is a block catching fire. Player is nil when no player caused it.
type IgniteEvent struct {
	Point  world.Point
	Cause  environment.IgniteCause
	Player *world.Player
}

// PhysicsEvent is a physics update for a block whose material changed.
type PhysicsEvent struct {
	Point   world.Point
	Changed world.Material
}

// InteractEvent is a player using a block, such as opening a chest.
type InteractEvent struct {
	Player world.Player
	Point  world.Point
	Block  world.Material
}

// PlaceEvent is a player placing a block.
type PlaceEvent struct {
	Player world.Player
	Point  world.Point
	Block  world.Material
}

// InspectEvent is a player using an item on a block to ask about regions.
type InspectEvent struct {
	Player world.Player
	Point  world.Point
	Held   world.Material
}

// Report answers an inspection.
type Report struct {
	// Handled is false when the held item is not the wand or regions are off.
	Handled  bool
	CanBuild bool
	Regions  []string
	Messages []string
}

// Permissions decides region build access. permission.Gate implements it.
type Permissions interface {
	CheckBuild(player world.Player, p world.Point) bool
	ResolveFlag(p world.Point, name string, def region.FlagValue) region.FlagValue
	HasBypass(player world.Player) bool
}

// Regions is the read-only region view used by inspection. region.Resolver
// implements it.
type Regions interface {
	Applicable(p world.Point) region.ApplicableSet
	CanBuild(playerID string, p world.Point) bool
}

// Blacklist vetoes material interactions. blacklist.Chain implements it.
type Blacklist interface {
	Check(ctx context.Context, ev blacklist.Event, notify, silent bool) bool
}

// Notifier sends messages to players. It must not block.
type Notifier interface {
	Notify(ctx context.Context, playerID, text string)
}

// Config holds the gate's own switches.
type Config struct {
	// RegionsEnabled turns every region check on or off.
	RegionsEnabled bool
	// Wand is the item that triggers inspection.
	Wand world.Material
}

// Deps are the collaborators the gate consults. Blacklist and Notifier may
// be nil.
type Deps struct {
	Permissions Permissions
	Regions     Regions
	Blacklist   Blacklist
	Rules       *environment.Rules
	World       world.ReadWriter
	Notifier    Notifier
	Logger      *slog.Logger
}

// Gate runs the per-event pipelines.
type Gate struct {
	cfg  Config
	deps Deps
}

// New creates a Gate.
func New(cfg Config, deps Deps) *Gate {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Rules == nil {
		deps.Rules = environment.New(environment.DefaultToggles())
	}
	return &Gate{cfg: cfg, deps: deps}
}

// Break decides a block break.
func (g *Gate) Break(ctx context.Context, ev BreakEvent) Verdict {
	ctx = logging.WithEvent(ctx, KindBreak, ev.Player.ID)
	return g.decide(ctx, KindBreak, g.breakPipeline(ev))
}

// Flow decides liquid flow.
func (g *Gate) Flow(ctx context.Context, ev FlowEvent) Verdict {
	ctx = logging.WithEvent(ctx, KindFlow, "")
	return g.decide(ctx, KindFlow, g.flowPipeline(ev))
}

// Ignite decides ignition.
func (g *Gate) Ignite(ctx context.Context, ev IgniteEvent) Verdict {
	playerID := ""
	if ev.Player != nil {
		playerID = ev.Player.ID
	}
	ctx = logging.WithEvent(ctx, KindIgnite, playerID)
	return g.decide(ctx, KindIgnite, g.ignitePipeline(ev))
}

// Physics decides a physics update.
func (g *Gate) Physics(ctx context.Context, ev PhysicsEvent) Verdict {
	ctx = logging.WithEvent(ctx, KindPhysics, "")
	return g.decide(ctx, KindPhysics, g.physicsPipeline(ev))
}

// Interact decides block use.
func (g *Gate) Interact(ctx context.Context, ev InteractEvent) Verdict {
	ctx = logging.WithEvent(ctx, KindInteract, ev.Player.ID)
	return g.decide(ctx, KindInteract, g.interactPipeline(ev))
}

// Place decides block placement.
func (g *Gate) Place(ctx context.Context, ev PlaceEvent) Verdict {
	ctx = logging.WithEvent(ctx, KindPlace, ev.Player.ID)
	return g.decide(ctx, KindPlace, g.placePipeline(ev))
}

// Inspect reports build access and applicable regions at a point. It never
// vetoes anything.
func (g *Gate) Inspect(ctx context.Context, ev InspectEvent) Report {
	if !g.cfg.RegionsEnabled || ev.Held != g.cfg.Wand {
		return Report{}
	}
	ctx = logging.WithEvent(ctx, KindInspect, ev.Player.ID)
	decisions.WithLabelValues(KindInspect, "report").Inc()

	ids := g.deps.Regions.Applicable(ev.Point).IDs()
	rep := Report{Handled: true, Regions: ids}
	if len(ids) == 0 {
		rep.Messages = []string{MsgNoRegions}
	} else {
		rep.CanBuild = g.deps.Regions.CanBuild(ev.Player.ID, ev.Point)
		answer := "No"
		if rep.CanBuild {
			answer = "Yes"
		}
		rep.Messages = []string{
			"Can you build? " + answer,
			"Applicable regions: " + strings.Join(ids, ", "),
		}
	}
	for _, m := range rep.Messages {
		g.notify(ctx, ev.Player.ID, m)
	}
	return rep
}

func (g *Gate) decide(ctx context.Context, kind string, p Pipeline) Verdict {
	start := time.Now()
	v := p.Run(ctx)
	decisionDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if v.Allowed {
		decisions.WithLabelValues(kind, "allow").Inc()
		return v
	}
	decisions.WithLabelValues(kind, "deny").Inc()
	vetoes.WithLabelValues(kind, v.Step).Inc()
	g.deps.Logger.DebugContext(ctx, "event vetoed", "step", v.Step, "reason", v.Reason)
	return v
}

func (g *Gate) notify(ctx context.Context, playerID, text string) {
	if g.deps.Notifier != nil && playerID != "" {
		g.deps.Notifier.Notify(ctx, playerID, text)
	}
}

// regionStep checks build access at p, telling the player when denied.
func (g *Gate) regionStep(player world.Player, p world.Point) Step {
	return Step{Name: StepRegionBuild, Run: func(ctx context.Context) Verdict {
		if !g.cfg.RegionsEnabled || g.deps.Permissions.CheckBuild(player, p) {
			return Pass()
		}
		g.notify(ctx, player.ID, MsgNoPermission)
		return Deny("no build permission in region")
	}}
}

// blacklistStep checks one blacklist action. An absent blacklist passes.
func (g *Gate) blacklistStep(name string, action blacklist.Action, m world.Material, player world.Player, p world.Point) Step {
	return Step{Name: name, Run: func(ctx context.Context) Verdict {
		if g.deps.Blacklist == nil {
			return Pass()
		}
		ev := blacklist.Event{Action: action, Material: m, Player: player, Point: p}
		if g.deps.Blacklist.Check(ctx, ev, true, false) {
			return Pass()
		}
		return Deny("blacklisted " + string(action) + " of " + m.String())
	}}
}

// vetoStep turns an environment rule into a step.
func vetoStep(name, reason string, veto func() bool) Step {
	return Step{Name: name, Run: func(context.Context) Verdict {
		if veto() {
			return Deny(reason)
		}
		return Pass()
	}}
}

func (g *Gate) breakPipeline(ev BreakEvent) Pipeline {
	held := world.Air
	if ev.Held != nil {
		held = ev.Held.Material
	}
	return Pipeline{
		{Name: StepDurability, Run: func(context.Context) Verdict {
			g.deps.Rules.ApplyDurability(ev.Held)
			return Pass()
		}},
		g.regionStep(ev.Player, ev.Point),
		g.blacklistStep(StepBlacklistBreak, blacklist.Break, ev.Block, ev.Player, ev.Point),
		g.blacklistStep(StepBlacklistDestroy, blacklist.DestroyWith, held, ev.Player, ev.Point),
	}
}

func (g *Gate) flowPipeline(ev FlowEvent) Pipeline {
	r, w := g.deps.Rules, g.deps.World
	liquid := w.MaterialAt(ev.Source)
	return Pipeline{
		vetoStep(StepSponge, "sponge nearby", func() bool { return r.SpongeAbsorbs(w, liquid, ev.Dest) }),
		vetoStep(StepClassicWater, "unsupported water source", func() bool { return r.ClassicWaterDecay(w, liquid, ev.Source) }),
		vetoStep(StepWaterDamage, "protected from water", func() bool { return r.PreventsWaterDamage(w, liquid, ev.Dest) }),
		vetoStep(StepLavaSpread, "lava may not spread here", func() bool { return r.RestrictsLavaSpread(w, liquid, ev.Dest) }),
	}
}

func (g *Gate) ignitePipeline(ev IgniteEvent) Pipeline {
	r, w := g.deps.Rules, g.deps.World
	steps := Pipeline{
		vetoStep(StepLavaFire, "lava fire disabled", func() bool { return r.BlocksLavaFire(ev.Cause) }),
		vetoStep(StepFireSpread, "fire spread disabled", func() bool { return r.BlocksFireSpread(ev.Cause) }),
		vetoStep(StepLighter, "lighters disabled", func() bool { return r.BlocksLighter(ev.Cause) }),
		vetoStep(StepFireSpreadToggle, "fire spread disabled", func() bool { return r.BlocksFireSpreadToggle(ev.Cause) }),
		vetoStep(StepFireNeighbours, "fire may not spread next to this block", func() bool {
			return r.FireSpreadNeighbourBlocked(w, ev.Cause, ev.Point)
		}),
	}

	regionChecked := func() bool {
		return g.cfg.RegionsEnabled && ev.Player != nil &&
			ev.Cause == environment.CauseFlintAndSteel &&
			!g.deps.Permissions.HasBypass(*ev.Player)
	}
	return append(steps,
		Step{Name: StepRegionBuild, Run: func(context.Context) Verdict {
			if regionChecked() && !g.deps.Permissions.CheckBuild(*ev.Player, ev.Point) {
				return Deny("no build permission in region")
			}
			return Pass()
		}},
		Step{Name: StepAllowLighter, Run: func(context.Context) Verdict {
			if regionChecked() && !g.deps.Permissions.ResolveFlag(ev.Point, region.FlagAllowLighter, region.Allow).Bool(true) {
				return Deny("lighters not allowed in region")
			}
			return Pass()
		}},
	)
}

func (g *Gate) physicsPipeline(ev PhysicsEvent) Pipeline {
	r := g.deps.Rules
	return Pipeline{
		vetoStep(StepGravel, "gravel physics disabled", func() bool { return r.SuppressesGravel(ev.Changed) }),
		vetoStep(StepSand, "sand physics disabled", func() bool { return r.SuppressesSand(ev.Changed) }),
		vetoStep(StepPortal, "portals allowed anywhere", func() bool { return r.SuppressesPortal(ev.Changed) }),
	}
}

func (g *Gate) interactPipeline(ev InteractEvent) Pipeline {
	build := g.regionStep(ev.Player, ev.Point)
	containerOnly := Step{Name: build.Name, Run: func(ctx context.Context) Verdict {
		if !ev.Block.IsContainer() {
			return Pass()
		}
		return build.Run(ctx)
	}}
	return Pipeline{
		containerOnly,
		g.blacklistStep(StepBlacklistInteract, blacklist.Interact, ev.Block, ev.Player, ev.Point),
	}
}

func (g *Gate) placePipeline(ev PlaceEvent) Pipeline {
	return Pipeline{
		g.regionStep(ev.Player, ev.Point),
		g.blacklistStep(StepBlacklistPlace, blacklist.Place, ev.Block, ev.Player, ev.Point),
		{Name: StepSpongeSweep, Run: func(ctx context.Context) Verdict {
			if n := g.deps.Rules.SpongeSweep(g.deps.World, ev.Block, ev.Point); n > 0 {
				g.deps.Logger.DebugContext(ctx, "sponge drained water", "cleared", n, "point", ev.Point.String())
			}
			return Pass()
		}},
	}
}
