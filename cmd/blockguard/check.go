// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/blockguard/internal/config"
	"github.com/holomush/blockguard/internal/world"
)

// NewCheckCmd creates the check subcommand.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate configuration, regions and blacklist",
		Long: `Validate the configuration file against the schema, then load the
configured regions and blacklist rules and print a summary.`,
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	if path := resolveConfigPath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return oops.In("check").Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
		if err := config.ValidateSchema(data); err != nil {
			return err
		}
		cmd.Printf("config: %s (schema ok)\n", path)
	} else {
		cmd.Println("config: built-in defaults")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	e, err := newEngine(cmd.Context(), cfg, world.NewGrid(), nil)
	if err != nil {
		return err
	}
	defer e.Close()

	if cfg.Regions.Enabled {
		cmd.Printf("regions: %d loaded from %s\n", e.index.Len(), cfg.Regions.Source)
	} else {
		cmd.Println("regions: disabled")
	}
	if cfg.Blacklist.File != "" {
		cmd.Printf("blacklist: %d rules from %s\n", e.blacklist.Len(), cfg.Blacklist.File)
	} else {
		cmd.Println("blacklist: none")
	}
	cmd.Printf("capabilities: %d players\n", len(e.caps.Players()))
	return nil
}
