// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/samber/oops"

	"github.com/holomush/blockguard/internal/blacklist"
	"github.com/holomush/blockguard/internal/capability"
	"github.com/holomush/blockguard/internal/config"
	"github.com/holomush/blockguard/internal/environment"
	"github.com/holomush/blockguard/internal/gate"
	"github.com/holomush/blockguard/internal/permission"
	"github.com/holomush/blockguard/internal/region"
	"github.com/holomush/blockguard/internal/region/postgres"
	"github.com/holomush/blockguard/internal/world"
	"github.com/holomush/blockguard/internal/xdg"
)

// engine is a fully wired policy engine built from configuration.
type engine struct {
	cfg       config.Config
	index     *region.Index
	resolver  *region.Resolver
	caps      *capability.Enforcer
	perms     *permission.Gate
	blacklist *blacklist.Chain
	gate      *gate.Gate

	repo    region.Repository
	closeDB func()
}

// newEngine builds the engine and loads regions and blacklist rules. w is the
// world the environment rules read and modify; n receives player messages.
func newEngine(ctx context.Context, cfg config.Config, w world.ReadWriter, n gate.Notifier) (*engine, error) {
	caps, err := capability.NewEnforcerFromMap(cfg.Capabilities)
	if err != nil {
		return nil, err
	}
	toggles, err := cfg.Toggles()
	if err != nil {
		return nil, err
	}
	wand, err := cfg.Wand()
	if err != nil {
		return nil, err
	}
	window, err := cfg.SuppressWindow()
	if err != nil {
		return nil, err
	}

	e := &engine{
		cfg:   cfg,
		index: region.NewIndex(),
		caps:  caps,
		blacklist: blacklist.NewChain(nil,
			blacklist.WithCapabilities(caps),
			blacklist.WithNotifier(n),
			blacklist.WithSuppressWindow(window),
			blacklist.WithLogger(slog.Default().With("component", "blacklist"))),
		closeDB: func() {},
	}
	e.resolver = region.NewResolver(e.index, cfg.Regions.DefaultBuild)
	e.perms = permission.NewGate(e.resolver, caps)

	if err := e.openRegions(ctx); err != nil {
		return nil, err
	}
	if err := e.reloadRegions(ctx); err != nil {
		e.Close()
		return nil, err
	}
	if err := e.reloadBlacklist(); err != nil {
		e.Close()
		return nil, err
	}

	deps := gate.Deps{
		Permissions: e.perms,
		Regions:     e.resolver,
		Rules:       environment.New(toggles),
		World:       w,
		Notifier:    n,
		Logger:      slog.Default().With("component", "gate"),
	}
	if cfg.Blacklist.File != "" {
		deps.Blacklist = e.blacklist
	}
	e.gate = gate.New(gate.Config{RegionsEnabled: cfg.Regions.Enabled, Wand: wand}, deps)
	return e, nil
}

func (e *engine) openRegions(ctx context.Context) error {
	switch e.cfg.Regions.Source {
	case config.SourcePostgres:
		repo, err := postgres.Open(ctx, e.cfg.Regions.DatabaseURL)
		if err != nil {
			return err
		}
		e.repo = repo
		e.closeDB = repo.Close
	default:
		path := e.cfg.Regions.File
		if path == "" {
			p, err := xdg.RegionsFile()
			if err != nil {
				return err
			}
			if _, err := os.Stat(p); err != nil {
				slog.InfoContext(ctx, "no region file, starting without regions", "path", p)
				return nil
			}
			path = p
		}
		e.repo = region.NewFileRepository(path)
	}
	return nil
}

// reloadRegions replaces the index content from the repository. On failure
// the previous regions stay in effect.
func (e *engine) reloadRegions(ctx context.Context) error {
	if !e.cfg.Regions.Enabled || e.repo == nil {
		return nil
	}
	return region.Load(ctx, e.repo, e.index)
}

// reloadBlacklist re-reads the rule file. On failure the previous rules stay
// in effect.
func (e *engine) reloadBlacklist() error {
	if e.cfg.Blacklist.File == "" {
		return nil
	}
	rules, err := blacklist.LoadFile(e.cfg.Blacklist.File)
	if err != nil {
		return oops.In("engine").With("path", e.cfg.Blacklist.File).Wrap(err)
	}
	e.blacklist.Reload(rules)
	return nil
}

// Close releases the region repository.
func (e *engine) Close() {
	e.closeDB()
}
