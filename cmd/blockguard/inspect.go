// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/holomush/blockguard/internal/region"
	"github.com/holomush/blockguard/internal/world"
)

type inspectOptions struct {
	x, y, z int
	player  string
}

// NewInspectCmd creates the inspect subcommand.
func NewInspectCmd() *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the regions and decisions at a point",
		Long: `Load the configured regions and report which apply at a point, whether
a player may build there and the resolved allow-lighter flag.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.x, "x", 0, "x coordinate")
	cmd.Flags().IntVar(&opts.y, "y", 0, "y coordinate")
	cmd.Flags().IntVar(&opts.z, "z", 0, "z coordinate")
	cmd.Flags().StringVar(&opts.player, "player", "", "player id to check build access for")
	return cmd
}

func runInspect(cmd *cobra.Command, opts *inspectOptions) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	e, err := newEngine(cmd.Context(), cfg, world.NewGrid(), nil)
	if err != nil {
		return err
	}
	defer e.Close()

	p := world.Pt(opts.x, opts.y, opts.z)
	set := e.resolver.Applicable(p)
	cmd.Printf("point: %s\n", p)
	if set.Len() == 0 {
		cmd.Println("regions: none")
	} else {
		cmd.Printf("regions: %s\n", strings.Join(set.IDs(), ", "))
	}

	player := world.Player{ID: opts.player}
	if opts.player != "" {
		cmd.Printf("can build (%s): %t", player.ID, e.perms.CheckBuild(player, p))
		if e.perms.HasBypass(player) {
			cmd.Print(" (bypass)")
		}
		cmd.Println()
	}
	lighter := e.resolver.ResolveFlag(p, region.FlagAllowLighter, region.Allow)
	cmd.Printf("%s: %s\n", region.FlagAllowLighter, lighter)
	return nil
}
