// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/blockguard/internal/region"
	"github.com/holomush/blockguard/internal/region/postgres"
)

// regionStore is the database side of the regions commands.
type regionStore interface {
	region.MutableRepository
	Import(ctx context.Context, regions []region.Region) error
	Close()
}

// openRegionStore is replaced in tests.
var openRegionStore = func(ctx context.Context, databaseURL string) (regionStore, error) {
	return postgres.Open(ctx, databaseURL)
}

// NewRegionsCmd creates the regions subcommand.
func NewRegionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "Manage regions stored in PostgreSQL",
	}
	var actor string
	cmd.PersistentFlags().StringVar(&actor, "actor", currentUser(), "name recorded in the region audit log")

	cmd.AddCommand(&cobra.Command{
		Use:   "import <regions.yaml>",
		Short: "Replace all stored regions with a YAML region file",
		Args:  cobra.ExactArgs(1),
		RunE: withRegionStore(func(cmd *cobra.Command, store regionStore, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return oops.In("regions").Code("REGION_FILE_UNREADABLE").With("path", args[0]).Wrap(err)
			}
			regions, err := region.DecodeYAML(data)
			if err != nil {
				return oops.In("regions").With("path", args[0]).Wrap(err)
			}
			if err := store.Import(postgres.WithActor(cmd.Context(), actor), regions); err != nil {
				return err
			}
			cmd.Printf("Imported %d region(s)\n", len(regions))
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Write stored regions as YAML to stdout",
		Args:  cobra.NoArgs,
		RunE: withRegionStore(func(cmd *cobra.Command, store regionStore, _ []string) error {
			regions, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out, err := region.EncodeYAML(regions)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored regions",
		Args:  cobra.NoArgs,
		RunE: withRegionStore(func(cmd *cobra.Command, store regionStore, _ []string) error {
			regions, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			printRegions(cmd.OutOrStdout(), regions)
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored region",
		Args:  cobra.ExactArgs(1),
		RunE: withRegionStore(func(cmd *cobra.Command, store regionStore, args []string) error {
			if err := store.Delete(postgres.WithActor(cmd.Context(), actor), args[0]); err != nil {
				return err
			}
			cmd.Printf("Deleted region %s\n", args[0])
			return nil
		}),
	})
	return cmd
}

func withRegionStore(fn func(*cobra.Command, regionStore, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		url, err := databaseURL(cmd)
		if err != nil {
			return err
		}
		store, err := openRegionStore(cmd.Context(), url)
		if err != nil {
			return err
		}
		defer store.Close()
		return fn(cmd, store, args)
	}
}

func printRegions(w io.Writer, regions []region.Region) {
	if len(regions) == 0 {
		fmt.Fprintln(w, "no regions")
		return
	}
	for _, r := range regions {
		line := fmt.Sprintf("%-20s %-8s priority=%d", r.ID, r.Shape.Kind, r.Priority)
		if r.Parent != "" {
			line += " parent=" + r.Parent
		}
		if len(r.Owners) > 0 {
			line += " owners=" + strings.Join(r.Owners, ",")
		}
		fmt.Fprintln(w, line)
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "cli"
}
