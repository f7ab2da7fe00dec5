// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres persists region definitions in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/blockguard/internal/region"
	"github.com/holomush/blockguard/internal/world"
)

// poolIface is the subset of pgxpool.Pool used by the repository. It is
// satisfied by pgxmock in tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// execer is implemented by both pools and transactions.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository implements region.MutableRepository on PostgreSQL. Declaration
// order is the insertion order of each region id.
type Repository struct {
	pool  poolIface
	now   func() time.Time
	close func()
}

// Compile-time check that Repository implements region.MutableRepository.
var _ region.MutableRepository = (*Repository)(nil)

// New creates a repository on an existing pool.
func New(pool poolIface) *Repository {
	return &Repository{pool: pool, now: time.Now, close: func() {}}
}

// Open connects to the database at dsn.
func Open(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.In("region").Code("REGION_STORE_UNAVAILABLE").With("operation", "connect").Wrap(err)
	}
	r := New(pool)
	r.close = pool.Close
	return r, nil
}

// Close releases the connection pool if the repository owns one.
func (r *Repository) Close() {
	r.close()
}

type actorKey struct{}

// WithActor records who is changing regions, for the audit trail.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func actorFrom(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string) //nolint:errcheck // missing actor is recorded as empty
	return actor
}

// shapeDoc is the JSON form of region.Shape stored in the shape column.
type shapeDoc struct {
	Kind   region.ShapeKind `json:"kind"`
	Min    *world.Point     `json:"min,omitempty"`
	Max    *world.Point     `json:"max,omitempty"`
	Points []region.Vertex  `json:"points,omitempty"`
	MinY   int              `json:"min_y,omitempty"`
	MaxY   int              `json:"max_y,omitempty"`
}

func encodeShape(s region.Shape) ([]byte, error) {
	doc := shapeDoc{Kind: s.Kind}
	switch s.Kind {
	case region.ShapeCuboid:
		doc.Min, doc.Max = &s.Min, &s.Max
	case region.ShapePolygon:
		doc.Points, doc.MinY, doc.MaxY = s.Points, s.MinY, s.MaxY
	}
	return json.Marshal(doc)
}

func decodeShape(data []byte) (region.Shape, error) {
	var doc shapeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return region.Shape{}, err
	}
	switch doc.Kind {
	case region.ShapeCuboid:
		if doc.Min == nil || doc.Max == nil {
			return region.Shape{}, oops.In("region").Code("REGION_INVALID_SHAPE").New("cuboid is missing a corner")
		}
		return region.Cuboid(*doc.Min, *doc.Max), nil
	case region.ShapePolygon:
		return region.Polygon(doc.MinY, doc.MaxY, doc.Points...), nil
	default:
		return region.Shape{Kind: doc.Kind}, nil
	}
}

const listRegionsSQL = `SELECT id, priority, parent, owners, members, flags, shape FROM regions ORDER BY position`

// List implements region.Repository.
func (r *Repository) List(ctx context.Context) ([]region.Region, error) {
	rows, err := r.pool.Query(ctx, listRegionsSQL)
	if err != nil {
		return nil, oops.In("region").Code("REGION_STORE_UNAVAILABLE").With("operation", "list regions").Wrap(err)
	}
	defer rows.Close()

	var regions []region.Region
	for rows.Next() {
		var (
			reg       region.Region
			parent    *string
			flagsJSON []byte
			shapeJSON []byte
		)
		if err := rows.Scan(&reg.ID, &reg.Priority, &parent, &reg.Owners, &reg.Members, &flagsJSON, &shapeJSON); err != nil {
			return nil, oops.In("region").With("operation", "scan region row").Wrap(err)
		}
		if parent != nil {
			reg.Parent = *parent
		}
		if len(flagsJSON) > 0 {
			if err := json.Unmarshal(flagsJSON, &reg.Flags); err != nil {
				return nil, oops.In("region").Code("REGION_STORE_CORRUPT").With("id", reg.ID).With("column", "flags").Wrap(err)
			}
			if len(reg.Flags) == 0 {
				reg.Flags = nil
			}
		}
		if reg.Shape, err = decodeShape(shapeJSON); err != nil {
			return nil, oops.In("region").Code("REGION_STORE_CORRUPT").With("id", reg.ID).With("column", "shape").Wrap(err)
		}
		if len(reg.Owners) == 0 {
			reg.Owners = nil
		}
		if len(reg.Members) == 0 {
			reg.Members = nil
		}
		regions = append(regions, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.In("region").With("operation", "iterate regions").Wrap(err)
	}
	return regions, nil
}

const upsertRegionSQL = `INSERT INTO regions (id, priority, parent, owners, members, flags, shape, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		priority = EXCLUDED.priority,
		parent = EXCLUDED.parent,
		owners = EXCLUDED.owners,
		members = EXCLUDED.members,
		flags = EXCLUDED.flags,
		shape = EXCLUDED.shape,
		updated_at = EXCLUDED.updated_at`

const insertRegionSQL = `INSERT INTO regions (id, priority, parent, owners, members, flags, shape, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const insertAuditSQL = `INSERT INTO region_audit (id, region_id, action, actor, created_at) VALUES ($1, $2, $3, $4, $5)`

// Save implements region.MutableRepository. Saving an existing id updates it
// in place and keeps its declaration order.
func (r *Repository) Save(ctx context.Context, reg region.Region) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	return r.inTx(ctx, "save region", func(tx pgx.Tx) error {
		if err := r.writeRegion(ctx, tx, upsertRegionSQL, reg); err != nil {
			return err
		}
		return r.audit(ctx, tx, reg.ID, "save")
	})
}

// Create inserts a new region and fails with REGION_DUPLICATE if the id is
// taken.
func (r *Repository) Create(ctx context.Context, reg region.Region) error {
	if err := reg.Validate(); err != nil {
		return err
	}
	return r.inTx(ctx, "create region", func(tx pgx.Tx) error {
		if err := r.writeRegion(ctx, tx, insertRegionSQL, reg); err != nil {
			return err
		}
		return r.audit(ctx, tx, reg.ID, "save")
	})
}

// Delete implements region.MutableRepository.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.inTx(ctx, "delete region", func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM regions WHERE id = $1`, id)
		if err != nil {
			return mapError(err, id)
		}
		if tag.RowsAffected() == 0 {
			return oops.In("region").Code("REGION_NOT_FOUND").With("id", id).New("region not found")
		}
		return r.audit(ctx, tx, id, "delete")
	})
}

// Import replaces every stored region with regions, in order.
func (r *Repository) Import(ctx context.Context, regions []region.Region) error {
	// validate up front so a bad document never reaches the database
	if err := region.NewIndex().Replace(regions); err != nil {
		return err
	}
	return r.inTx(ctx, "import regions", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM regions`); err != nil {
			return oops.In("region").With("operation", "clear regions").Wrap(err)
		}
		// children may precede their parent in declaration order
		if _, err := tx.Exec(ctx, `SET CONSTRAINTS ALL DEFERRED`); err != nil {
			return oops.In("region").With("operation", "defer constraints").Wrap(err)
		}
		for _, reg := range regions {
			if err := r.writeRegion(ctx, tx, insertRegionSQL, reg); err != nil {
				return err
			}
			if err := r.audit(ctx, tx, reg.ID, "import"); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) writeRegion(ctx context.Context, db execer, query string, reg region.Region) error {
	shape, err := encodeShape(reg.Shape)
	if err != nil {
		return oops.In("region").With("id", reg.ID).Wrap(err)
	}
	flags := reg.Flags
	if flags == nil {
		flags = map[string]region.FlagValue{}
	}
	flagsJSON, err := json.Marshal(flags)
	if err != nil {
		return oops.In("region").With("id", reg.ID).Wrap(err)
	}

	var parent *string
	if reg.Parent != "" {
		parent = &reg.Parent
	}
	owners, members := reg.Owners, reg.Members
	if owners == nil {
		owners = []string{}
	}
	if members == nil {
		members = []string{}
	}

	if _, err := db.Exec(ctx, query,
		reg.ID, reg.Priority, parent, owners, members, flagsJSON, shape, r.now()); err != nil {
		return mapError(err, reg.ID)
	}
	return nil
}

func (r *Repository) audit(ctx context.Context, db execer, id, action string) error {
	at := r.now()
	auditID := ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy())
	if _, err := db.Exec(ctx, insertAuditSQL, auditID.String(), id, action, actorFrom(ctx), at); err != nil {
		return oops.In("region").With("operation", "record audit").With("id", id).Wrap(err)
	}
	return nil
}

func (r *Repository) inTx(ctx context.Context, operation string, fn func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return oops.In("region").Code("REGION_STORE_UNAVAILABLE").With("operation", operation).Wrap(err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx) //nolint:errcheck // the original error takes precedence
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return oops.In("region").With("operation", operation).Wrap(err)
	}
	return nil
}

// mapError converts constraint violations into region error codes.
func mapError(err error, id string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return oops.In("region").Code("REGION_DUPLICATE").With("id", id).Wrap(err)
		case pgerrcode.ForeignKeyViolation:
			// a restricted delete reports the key as still referenced
			if strings.Contains(pgErr.Detail, "is still referenced") {
				return oops.In("region").Code("REGION_HAS_CHILDREN").With("id", id).Wrap(err)
			}
			return oops.In("region").Code("REGION_PARENT_UNKNOWN").With("id", id).Wrap(err)
		case pgerrcode.CheckViolation:
			return oops.In("region").Code("REGION_PARENT_CYCLE").With("id", id).Wrap(err)
		}
	}
	return oops.In("region").With("id", id).Wrap(err)
}
