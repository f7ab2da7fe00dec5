// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/blockguard/internal/config"
	"github.com/holomush/blockguard/internal/world"
	"github.com/holomush/blockguard/pkg/errutil"
)

const sampleConfig = `
regions:
  enabled: true
  default_build: false
  wand: wooden_axe
  file: regions.yaml
blacklist:
  file: blacklist.yaml
  suppress_window: 10s
simulation:
  simulate_sponge: true
  sponge_radius: 2
  prevent_water_damage: [wool, "50"]
  allowed_lava_spread_over: [obsidian, stone]
  disable_fire_spread_blocks: [wood]
  no_physics_sand: true
capabilities:
  alice: ["region.bypass", "blacklist.exempt.*"]
logging:
  format: text
  level: debug
metrics:
  addr: "127.0.0.1:9100"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	wand, err := cfg.Wand()
	require.NoError(t, err)
	assert.Equal(t, world.WoodenAxe, wand)

	window, err := cfg.SuppressWindow()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, window)
}

func TestLoad_File(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, sampleConfig), nil)
	require.NoError(t, err)

	assert.True(t, cfg.Regions.Enabled)
	assert.False(t, cfg.Regions.DefaultBuild)
	assert.Equal(t, config.SourceFile, cfg.Regions.Source, "unset keys keep their default")
	assert.Equal(t, "regions.yaml", cfg.Regions.File)
	assert.Equal(t, []string{"region.bypass", "blacklist.exempt.*"}, cfg.Capabilities["alice"])
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 256, cfg.Notify.Buffer)

	window, err := cfg.SuppressWindow()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, window)

	toggles, err := cfg.Toggles()
	require.NoError(t, err)
	assert.True(t, toggles.SimulateSponge)
	assert.Equal(t, 2, toggles.SpongeRadius)
	assert.True(t, toggles.ItemDurability)
	assert.True(t, toggles.NoPhysicsSand)
	assert.True(t, toggles.PreventWaterDamage.Contains(world.Material(50)))
	assert.True(t, toggles.AllowedLavaSpreadOver.Contains(world.Obsidian))
	assert.True(t, toggles.DisableFireSpreadBlocks.Contains(world.Wood))
	assert.False(t, toggles.DisableFireSpreadBlocks.Contains(world.Stone))
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--logging.format=json", "--regions.enabled=false"}))

	cfg, err := config.Load(writeConfig(t, sampleConfig), fs)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Regions.Enabled)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr, "unchanged flags do not override the file")
}

func TestLoad_PlayerIDsWithDots(t *testing.T) {
	body := "capabilities:\n  ops.alice: [\"region.bypass\"]\n  bob: [\"blacklist.exempt.tnt\"]\n"
	cfg, err := config.Load(writeConfig(t, body), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"ops.alice": {"region.bypass"},
		"bob":       {"blacklist.exempt.tnt"},
	}, cfg.Capabilities)
}

func TestLoad_FlagsKeepFileValuesWhenUnchanged(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := config.Load(writeConfig(t, sampleConfig), fs)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "regions.yaml", cfg.Regions.File)
}

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	_, err := config.Load(path, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_LOAD_FAILED")
	errutil.AssertErrorContext(t, err, "path", path)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"unknown source", func(c *config.Config) { c.Regions.Source = "s3" }, "regions.source"},
		{"postgres without url", func(c *config.Config) { c.Regions.Source = config.SourcePostgres }, "regions.database_url"},
		{"unknown wand", func(c *config.Config) { c.Regions.Wand = "magic_stick" }, "regions.wand"},
		{"bad window", func(c *config.Config) { c.Blacklist.SuppressWindow = "soon" }, "blacklist.suppress_window"},
		{"negative window", func(c *config.Config) { c.Blacklist.SuppressWindow = "-1s" }, "blacklist.suppress_window"},
		{"negative radius", func(c *config.Config) { c.Simulation.SpongeRadius = -1 }, "simulation.sponge_radius"},
		{"unknown material", func(c *config.Config) {
			c.Simulation.AllowedLavaSpreadOver = []string{"unobtainium"}
		}, "simulation.allowed_lava_spread_over"},
		{"bad grant", func(c *config.Config) { c.Capabilities = map[string][]string{"bob": {"[unclosed"}} }, "capabilities"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "debgu" }, "logging.level"},
		{"empty log level", func(c *config.Config) { c.Logging.Level = "" }, "logging.level"},
		{"empty buffer", func(c *config.Config) { c.Notify.Buffer = 0 }, "notify.buffer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
			errutil.AssertErrorContext(t, err, "field", tt.field)
		})
	}

	cfg := config.Default()
	cfg.Regions.Source = config.SourcePostgres
	cfg.Regions.DatabaseURL = "postgres://localhost/blockguard"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidValueInFile(t *testing.T) {
	_, err := config.Load(writeConfig(t, "simulation:\n  sponge_radius: -4\n"), nil)
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestGenerateSchema(t *testing.T) {
	data, err := config.GenerateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, config.SchemaID, schema["$id"])
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "regions")
	assert.Contains(t, props, "simulation")
	assert.NotContains(t, schema, "required")
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		valid bool
	}{
		{"sample", sampleConfig, true},
		{"empty", "", true},
		{"unknown top-level key", "weather: rainy\n", false},
		{"unknown nested key", "regions:\n  colour: red\n", false},
		{"wrong type", "simulation:\n  sponge_radius: lots\n", false},
		{"bad enum", "logging:\n  format: xml\n", false},
		{"negative radius", "simulation:\n  sponge_radius: -1\n", false},
		{"not yaml", "regions: [\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := config.ValidateSchema([]byte(tt.doc))
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		})
	}
}
