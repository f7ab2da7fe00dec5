// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/blockguard/internal/region"
	"github.com/holomush/blockguard/internal/region/postgres"
	"github.com/holomush/blockguard/internal/world"
)

func TestPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Region Postgres Suite")
}

var _ = Describe("Repository", Ordered, func() {
	var (
		ctx       context.Context
		container *tcpostgres.PostgresContainer
		repo      *postgres.Repository
	)

	BeforeAll(func() {
		ctx = context.Background()

		var err error
		container, err = tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("blockguard_test"),
			tcpostgres.WithUsername("blockguard"),
			tcpostgres.WithPassword("blockguard"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err := postgres.NewMigrator(dsn)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		repo, err = postgres.Open(ctx, dsn)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if repo != nil {
			repo.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	spawn := region.Region{
		ID:       "spawn",
		Priority: 10,
		Shape:    region.Cuboid(world.Pt(-10, 0, -10), world.Pt(10, 64, 10)),
		Owners:   []string{"alice"},
		Flags:    map[string]region.FlagValue{region.FlagAllowLighter: region.Deny},
	}
	market := region.Region{
		ID:     "market",
		Parent: "spawn",
		Shape:  region.Polygon(0, 64, region.Vertex{X: 0, Z: 0}, region.Vertex{X: 5, Z: 0}, region.Vertex{X: 0, Z: 5}),
	}

	It("imports regions with children declared before parents", func() {
		Expect(repo.Import(ctx, []region.Region{market, spawn})).To(Succeed())

		got, err := repo.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(2))
		Expect(got[0].ID).To(Equal("market"))
		Expect(got[1]).To(Equal(spawn))
	})

	It("rejects a duplicate create", func() {
		err := repo.Create(ctx, spawn)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("duplicate"))
	})

	It("refuses to delete a parent", func() {
		Expect(repo.Delete(ctx, "spawn")).NotTo(Succeed())
	})

	It("updates in place without changing declaration order", func() {
		updated := market
		updated.Members = []string{"bob"}
		Expect(repo.Save(postgres.WithActor(ctx, "admin"), updated)).To(Succeed())

		got, err := repo.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(got[0].Members).To(ConsistOf("bob"))
	})

	It("feeds the region index", func() {
		ix := region.NewIndex()
		Expect(region.Load(ctx, repo, ix)).To(Succeed())
		Expect(ix.Query(world.Pt(1, 10, 1)).IDs()).To(Equal([]string{"spawn", "market"}))
	})
})
