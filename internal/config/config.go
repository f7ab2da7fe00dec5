// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads and validates blockguard configuration.
//
// Values come from, in increasing precedence: built-in defaults, a YAML file
// and command-line flags.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/blockguard/internal/blacklist"
	"github.com/holomush/blockguard/internal/capability"
	"github.com/holomush/blockguard/internal/environment"
	"github.com/holomush/blockguard/internal/world"
)

// keyDelim separates nested configuration keys. Map keys such as player ids
// may contain dots, so the delimiter is one they cannot contain.
const keyDelim = "::"

// Region sources.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config is the complete configuration.
type Config struct {
	Regions      RegionsConfig       `koanf:"regions" json:"regions"`
	Blacklist    BlacklistConfig     `koanf:"blacklist" json:"blacklist"`
	Simulation   SimulationConfig    `koanf:"simulation" json:"simulation"`
	Capabilities map[string][]string `koanf:"capabilities" json:"capabilities,omitempty" jsonschema:"description=Capability grant patterns per player id"`
	Logging      LoggingConfig       `koanf:"logging" json:"logging"`
	Metrics      MetricsConfig       `koanf:"metrics" json:"metrics"`
	Notify       NotifyConfig        `koanf:"notify" json:"notify"`
}

// RegionsConfig controls region protection.
type RegionsConfig struct {
	Enabled      bool   `koanf:"enabled" json:"enabled" jsonschema:"default=true"`
	DefaultBuild bool   `koanf:"default_build" json:"default_build" jsonschema:"default=true,description=Build decision where no region restricts building"`
	Wand         string `koanf:"wand" json:"wand" jsonschema:"default=wooden_axe"`
	Source       string `koanf:"source" json:"source" jsonschema:"enum=file,enum=postgres,default=file"`
	File         string `koanf:"file" json:"file,omitempty"`
	DatabaseURL  string `koanf:"database_url" json:"database_url,omitempty"`
}

// BlacklistConfig points at the blacklist rule file.
type BlacklistConfig struct {
	// File is the YAML rule file. Empty disables the blacklist.
	File           string `koanf:"file" json:"file,omitempty"`
	SuppressWindow string `koanf:"suppress_window" json:"suppress_window" jsonschema:"default=3s"`
}

// SimulationConfig holds the environment toggles.
type SimulationConfig struct {
	SimulateSponge          bool     `koanf:"simulate_sponge" json:"simulate_sponge"`
	SpongeRadius            int      `koanf:"sponge_radius" json:"sponge_radius" jsonschema:"minimum=0,default=3"`
	ClassicWater            bool     `koanf:"classic_water" json:"classic_water"`
	PreventWaterDamage      []string `koanf:"prevent_water_damage" json:"prevent_water_damage,omitempty"`
	AllowedLavaSpreadOver   []string `koanf:"allowed_lava_spread_over" json:"allowed_lava_spread_over,omitempty"`
	PreventLavaFire         bool     `koanf:"prevent_lava_fire" json:"prevent_lava_fire"`
	DisableFireSpread       bool     `koanf:"disable_fire_spread" json:"disable_fire_spread"`
	FireSpreadDisableToggle bool     `koanf:"fire_spread_disable_toggle" json:"fire_spread_disable_toggle"`
	BlockLighter            bool     `koanf:"block_lighter" json:"block_lighter"`
	DisableFireSpreadBlocks []string `koanf:"disable_fire_spread_blocks" json:"disable_fire_spread_blocks,omitempty"`
	NoPhysicsGravel         bool     `koanf:"no_physics_gravel" json:"no_physics_gravel"`
	NoPhysicsSand           bool     `koanf:"no_physics_sand" json:"no_physics_sand"`
	AllowPortalAnywhere     bool     `koanf:"allow_portal_anywhere" json:"allow_portal_anywhere"`
	ItemDurability          bool     `koanf:"item_durability" json:"item_durability" jsonschema:"default=true"`
}

// LoggingConfig selects the log format and level.
type LoggingConfig struct {
	Format string `koanf:"format" json:"format" jsonschema:"enum=json,enum=text,default=json"`
	Level  string `koanf:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
}

// MetricsConfig sets the observability listen address. Empty disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty"`
}

// NotifyConfig sizes the player notification queue.
type NotifyConfig struct {
	Buffer int `koanf:"buffer" json:"buffer" jsonschema:"minimum=1,default=256"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Regions: RegionsConfig{
			Enabled:      true,
			DefaultBuild: true,
			Wand:         world.WoodenAxe.String(),
			Source:       SourceFile,
		},
		Blacklist: BlacklistConfig{
			SuppressWindow: blacklist.DefaultSuppressWindow.String(),
		},
		Simulation: SimulationConfig{
			SpongeRadius:   environment.DefaultSpongeRadius,
			ItemDurability: true,
		},
		Logging: LoggingConfig{Format: "json", Level: "info"},
		Notify:  NotifyConfig{Buffer: 256},
	}
}

// Load builds a Config from defaults, the YAML file at path and flags.
// A missing file is not an error when path is empty; flags may be nil.
// The result is validated.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(keyDelim)

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, oops.In("config").Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.In("config").Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}
	if flags != nil {
		// flag names use dots; map them onto the key delimiter
		provider := posflag.ProviderWithFlag(flags, keyDelim, k, func(f *pflag.Flag) (string, interface{}) {
			return strings.ReplaceAll(f.Name, ".", keyDelim), posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.In("config").Code("CONFIG_LOAD_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.In("config").Code("CONFIG_INVALID").With("path", path).Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the schema cannot express.
func (c Config) Validate() error {
	invalid := func(field string, err error) error {
		return oops.In("config").Code("CONFIG_INVALID").With("field", field).Errorf("%s: %v", field, err)
	}

	switch c.Regions.Source {
	case SourceFile:
	case SourcePostgres:
		if c.Regions.DatabaseURL == "" {
			return oops.In("config").Code("CONFIG_INVALID").With("field", "regions.database_url").
				Errorf("postgres region source needs a database url")
		}
	default:
		return oops.In("config").Code("CONFIG_INVALID").With("field", "regions.source").
			Errorf("unknown region source %q", c.Regions.Source)
	}
	if _, err := c.Wand(); err != nil {
		return invalid("regions.wand", err)
	}
	if _, err := c.SuppressWindow(); err != nil {
		return invalid("blacklist.suppress_window", err)
	}
	if c.Simulation.SpongeRadius < 0 {
		return oops.In("config").Code("CONFIG_INVALID").With("field", "simulation.sponge_radius").
			Errorf("sponge radius cannot be negative: %d", c.Simulation.SpongeRadius)
	}
	if _, err := c.Toggles(); err != nil {
		return err
	}
	if _, err := capability.NewEnforcerFromMap(c.Capabilities); err != nil {
		return invalid("capabilities", err)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return oops.In("config").Code("CONFIG_INVALID").With("field", "logging.format").
			Errorf("unknown log format %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return oops.In("config").Code("CONFIG_INVALID").With("field", "logging.level").
			Errorf("unknown log level %q", c.Logging.Level)
	}
	if c.Notify.Buffer < 1 {
		return oops.In("config").Code("CONFIG_INVALID").With("field", "notify.buffer").
			Errorf("notify buffer must be positive: %d", c.Notify.Buffer)
	}
	return nil
}

// Wand returns the inspection item.
func (c Config) Wand() (world.Material, error) {
	m, err := world.ParseMaterial(c.Regions.Wand)
	if err != nil {
		return world.Air, oops.In("config").Wrap(err)
	}
	return m, nil
}

// SuppressWindow returns the blacklist repeat-suppression window.
func (c Config) SuppressWindow() (time.Duration, error) {
	if c.Blacklist.SuppressWindow == "" {
		return blacklist.DefaultSuppressWindow, nil
	}
	d, err := time.ParseDuration(c.Blacklist.SuppressWindow)
	if err != nil {
		return 0, oops.In("config").Wrap(err)
	}
	if d < 0 {
		return 0, oops.In("config").Errorf("suppress window cannot be negative: %s", d)
	}
	return d, nil
}

// Toggles converts the simulation section.
func (c Config) Toggles() (environment.Toggles, error) {
	s := c.Simulation
	sets := map[string][]string{
		"simulation.prevent_water_damage":       s.PreventWaterDamage,
		"simulation.allowed_lava_spread_over":   s.AllowedLavaSpreadOver,
		"simulation.disable_fire_spread_blocks": s.DisableFireSpreadBlocks,
	}
	parsed := make(map[string]world.MaterialSet, len(sets))
	for field, names := range sets {
		set, err := world.ParseMaterials(names)
		if err != nil {
			return environment.Toggles{}, oops.In("config").Code("CONFIG_INVALID").With("field", field).
				Errorf("%s: %v", field, err)
		}
		parsed[field] = set
	}

	return environment.Toggles{
		SimulateSponge:          s.SimulateSponge,
		SpongeRadius:            s.SpongeRadius,
		ClassicWater:            s.ClassicWater,
		PreventWaterDamage:      parsed["simulation.prevent_water_damage"],
		AllowedLavaSpreadOver:   parsed["simulation.allowed_lava_spread_over"],
		PreventLavaFire:         s.PreventLavaFire,
		DisableFireSpread:       s.DisableFireSpread,
		FireSpreadDisableToggle: s.FireSpreadDisableToggle,
		BlockLighter:            s.BlockLighter,
		DisableFireSpreadBlocks: parsed["simulation.disable_fire_spread_blocks"],
		NoPhysicsGravel:         s.NoPhysicsGravel,
		NoPhysicsSand:           s.NoPhysicsSand,
		AllowPortalAnywhere:     s.AllowPortalAnywhere,
		ItemDurability:          s.ItemDurability,
	}, nil
}

// RegisterFlags adds the flags Load understands to fs. Flag names are the
// configuration keys.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Bool("regions.enabled", d.Regions.Enabled, "enable region protection")
	fs.String("regions.source", d.Regions.Source, "region source (file or postgres)")
	fs.String("regions.file", d.Regions.File, "region definition file")
	fs.String("regions.database_url", d.Regions.DatabaseURL, "PostgreSQL connection string for regions")
	fs.String("blacklist.file", d.Blacklist.File, "blacklist rule file")
	fs.String("logging.format", d.Logging.Format, "log format (json or text)")
	fs.String("logging.level", d.Logging.Level, "log level (debug, info, warn, error)")
	fs.String("metrics.addr", d.Metrics.Addr, "observability listen address, empty to disable")
}
