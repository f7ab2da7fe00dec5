// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/holomush/blockguard/internal/environment"
	"github.com/holomush/blockguard/internal/gate"
	"github.com/holomush/blockguard/internal/world"
)

// scenario is a scripted run against an in-memory world:
//
//	world:
//	  - {from: [0, 63, 0], to: [10, 63, 10], material: stone}
//	events:
//	  - {type: place, player: alice, at: [1, 64, 1], block: tnt}
//	  - {type: flow, from: [0, 64, 0], to: [1, 64, 0]}
//	  - {type: ignite, at: [2, 64, 2], cause: flint_and_steel, player: bob}
type scenario struct {
	World  []fill          `yaml:"world"`
	Events []scenarioEvent `yaml:"events"`
}

type fill struct {
	From     [3]int  `yaml:"from"`
	To       *[3]int `yaml:"to"`
	Material string  `yaml:"material"`
}

type scenarioEvent struct {
	Type   string `yaml:"type"`
	Player string `yaml:"player"`
	Bypass bool   `yaml:"bypass"`
	At     [3]int `yaml:"at"`
	From   [3]int `yaml:"from"`
	To     [3]int `yaml:"to"`
	Block  string `yaml:"block"`
	Held   string `yaml:"held"`
	Damage int    `yaml:"damage"`
	Cause  string `yaml:"cause"`
}

func pt(c [3]int) world.Point {
	return world.Pt(c[0], c[1], c[2])
}

func parseScenario(data []byte) (scenario, error) {
	var sc scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil && err != io.EOF {
		return scenario{}, oops.In("simulate").Code("SCENARIO_INVALID").Wrap(err)
	}
	return sc, nil
}

// build applies the world fills to grid.
func (sc scenario) build(grid *world.Grid) error {
	for i, f := range sc.World {
		m, err := world.ParseMaterial(f.Material)
		if err != nil {
			return oops.In("simulate").Code("SCENARIO_INVALID").With("fill", i).Errorf("%v", err)
		}
		to := f.From
		if f.To != nil {
			to = *f.To
		}
		grid.Fill(pt(f.From), pt(to), m)
	}
	return nil
}

// printer collects player messages sent while an event is decided so they
// can be printed under its verdict.
type printer struct {
	mu      sync.Mutex
	out     io.Writer
	pending []string
}

func (p *printer) Notify(_ context.Context, playerID, text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, playerID+": "+text)
}

// line writes s followed by the messages collected since the last line.
func (p *printer) line(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, s)
	for _, m := range p.pending {
		fmt.Fprintf(p.out, "    -> %s\n", m)
	}
	p.pending = p.pending[:0]
}

// NewSimulateCmd creates the simulate subcommand.
func NewSimulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Run a scripted list of events through the gate",
		Long: `Build an in-memory world from the scenario, run each event through the
configured regions, blacklist and environment rules and print the verdicts.`,
		Args: cobra.ExactArgs(1),
		RunE: runSimulate,
	}
}

func runSimulate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return oops.In("simulate").Code("SCENARIO_UNREADABLE").With("path", args[0]).Wrap(err)
	}
	sc, err := parseScenario(data)
	if err != nil {
		return err
	}
	grid := world.NewGrid()
	if err := sc.build(grid); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := &printer{out: cmd.OutOrStdout()}
	e, err := newEngine(cmd.Context(), cfg, grid, out)
	if err != nil {
		return err
	}
	defer e.Close()

	return runScenario(cmd.Context(), e.gate, sc, out)
}

// runScenario decides every event in order, printing one line per event.
func runScenario(ctx context.Context, g *gate.Gate, sc scenario, out *printer) error {
	for i, ev := range sc.Events {
		line, err := decideEvent(ctx, g, ev)
		if err != nil {
			return oops.In("simulate").With("event", i).Wrap(err)
		}
		out.line(fmt.Sprintf("%3d %s", i+1, line))
	}
	return nil
}

func material(name string) (world.Material, error) {
	if name == "" {
		return world.Air, nil
	}
	m, err := world.ParseMaterial(name)
	if err != nil {
		return world.Air, oops.In("simulate").Code("SCENARIO_INVALID").Errorf("%v", err)
	}
	return m, nil
}

func verdictText(v gate.Verdict) string {
	if v.Allowed {
		return "allow"
	}
	return fmt.Sprintf("deny [%s] %s", v.Step, v.Reason)
}

func decideEvent(ctx context.Context, g *gate.Gate, ev scenarioEvent) (string, error) {
	player := world.Player{ID: ev.Player, Bypass: ev.Bypass}
	block, err := material(ev.Block)
	if err != nil {
		return "", err
	}
	held, err := material(ev.Held)
	if err != nil {
		return "", err
	}
	head := fmt.Sprintf("%-8s %-10s %-14s", ev.Type, ev.Player, pt(ev.At))

	switch strings.ToLower(ev.Type) {
	case gate.KindBreak:
		var item *world.Item
		if ev.Held != "" {
			item = &world.Item{Material: held, Damage: ev.Damage}
		}
		v := g.Break(ctx, gate.BreakEvent{Player: player, Point: pt(ev.At), Block: block, Held: item})
		return head + block.String() + ": " + verdictText(v), nil
	case gate.KindPlace:
		v := g.Place(ctx, gate.PlaceEvent{Player: player, Point: pt(ev.At), Block: block})
		return head + block.String() + ": " + verdictText(v), nil
	case gate.KindInteract:
		v := g.Interact(ctx, gate.InteractEvent{Player: player, Point: pt(ev.At), Block: block})
		return head + block.String() + ": " + verdictText(v), nil
	case gate.KindFlow:
		v := g.Flow(ctx, gate.FlowEvent{Source: pt(ev.From), Dest: pt(ev.To)})
		return fmt.Sprintf("%-8s %s -> %s: %s", ev.Type, pt(ev.From), pt(ev.To), verdictText(v)), nil
	case gate.KindIgnite:
		cause, err := environment.ParseIgniteCause(ev.Cause)
		if err != nil {
			return "", err
		}
		var by *world.Player
		if ev.Player != "" {
			by = &player
		}
		v := g.Ignite(ctx, gate.IgniteEvent{Point: pt(ev.At), Cause: cause, Player: by})
		return head + string(cause) + ": " + verdictText(v), nil
	case gate.KindPhysics:
		v := g.Physics(ctx, gate.PhysicsEvent{Point: pt(ev.At), Changed: block})
		return head + block.String() + ": " + verdictText(v), nil
	case gate.KindInspect:
		rep := g.Inspect(ctx, gate.InspectEvent{Player: player, Point: pt(ev.At), Held: held})
		if !rep.Handled {
			return head + "not the wand", nil
		}
		return head + "inspected", nil
	default:
		return "", oops.In("simulate").Code("SCENARIO_INVALID").With("type", ev.Type).Errorf("unknown event type %q", ev.Type)
	}
}
