// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/holomush/blockguard/internal/notify"
	"github.com/holomush/blockguard/internal/observability"
	"github.com/holomush/blockguard/internal/world"
	"github.com/holomush/blockguard/pkg/errutil"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the policy engine with metrics and health endpoints",
		Long: `Load regions and blacklist rules, serve metrics and health probes and keep
running until SIGINT or SIGTERM. SIGHUP reloads regions and blacklist rules;
a failed reload keeps the previous rules.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dispatcher := notify.NewDispatcher(notify.LogSink{Logger: slog.Default().With("component", "notify")}, cfg.Notify.Buffer)
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer closeCancel()
		if err := dispatcher.Close(closeCtx); err != nil {
			slog.Warn("notification queue not drained", "error", err)
		}
	}()

	var ready atomic.Bool
	var obs *observability.Server
	if cfg.Metrics.Addr != "" {
		obs = observability.NewServer(cfg.Metrics.Addr, ready.Load)
		errCh, err := obs.Start()
		if err != nil {
			return err
		}
		go monitorServerErrors(ctx, cancel, errCh, "observability")
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stopCancel()
			if err := obs.Stop(stopCtx); err != nil {
				slog.Warn("error stopping observability server", "error", err)
			}
		}()
	}

	e, err := newEngine(ctx, cfg, world.NewGrid(), dispatcher)
	if err != nil {
		return err
	}
	defer e.Close()
	ready.Store(true)

	slog.Info("blockguard ready",
		"regions", e.index.Len(),
		"blacklist_rules", e.blacklist.Len(),
		"regions_enabled", cfg.Regions.Enabled)
	cmd.Println("blockguard running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				reload(ctx, e, obs)
				continue
			}
			slog.Info("received shutdown signal", "signal", sig)
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down")
		}
		slog.Info("shutdown complete")
		return nil
	}
}

// reload refreshes regions and blacklist rules, recording the outcome.
func reload(ctx context.Context, e *engine, obs *observability.Server) {
	record := func(source string, err error) {
		if obs != nil {
			obs.Metrics().RecordReload(source, err)
		}
		if err != nil {
			errutil.LogErrorContext(ctx, slog.Default(), "reload failed, keeping previous rules", err)
			return
		}
		slog.InfoContext(ctx, "reloaded", "source", source)
	}
	record("regions", e.reloadRegions(ctx))
	record("blacklist", e.reloadBlacklist())
}

// monitorServerErrors cancels ctx when a server reports an error. It returns
// when the channel closes or ctx is done.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
