// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/holomush/blockguard/internal/config"
	"github.com/holomush/blockguard/internal/logging"
	"github.com/holomush/blockguard/internal/xdg"
)

// configFile is the global --config flag.
var configFile string

// NewRootCmd creates the root command for the blockguard CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blockguard",
		Short: "blockguard - region protection and world rules for block worlds",
		Long: `blockguard decides whether world events may happen: block breaks and
placements, liquid flow, fire, physics and container use. Decisions combine
protected regions, a material blacklist and environment rules.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/blockguard/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewSchemaCmd())
	cmd.AddCommand(NewInspectCmd())
	cmd.AddCommand(NewSimulateCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewRegionsCmd())

	return cmd
}

// resolveConfigPath returns the --config value, or the XDG default when it
// exists, or "" for built-in defaults.
func resolveConfigPath() string {
	if configFile != "" {
		return configFile
	}
	p, err := xdg.ConfigFile()
	if err != nil {
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// loadConfig loads configuration for cmd and installs the default logger.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(resolveConfigPath(), cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	logging.SetDefault("blockguard", version, cfg.Logging.Format, logging.ParseLevel(cfg.Logging.Level))
	return cfg, nil
}
