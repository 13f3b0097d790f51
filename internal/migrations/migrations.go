// Package migrations applies the versioned schema changes of the library database.
package migrations

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is what the migrator needs from a pool or connection.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type migration struct {
	version string
	name    string
	up      func(context.Context, pgx.Tx) error
	down    func(context.Context, pgx.Tx) error
}

// registered is filled by the init funcs of the versioned files.
var registered = map[string]migration{}

func register(mg migration) {
	if _, dup := registered[mg.version]; dup {
		panic("duplicate migration version " + mg.version)
	}
	registered[mg.version] = mg
}

// Status is the state of one migration.
type Status struct {
	Version string
	Name    string
	Done    bool
}

// Migrator runs registered migrations against a database.
type Migrator struct {
	db       DB
	versions []string
	done     map[string]bool
}

// NewMigrator ensures the bookkeeping table exists and loads which versions have run.
func NewMigrator(ctx context.Context, db DB) (*Migrator, error) {
	_, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version VARCHAR(255) PRIMARY KEY)`)
	if err != nil {
		return nil, fmt.Errorf("creating schema_migrations: %w", err)
	}

	rows, err := db.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close()

	done := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning migration version: %w", err)
		}
		done[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	versions := make([]string, 0, len(registered))
	for v := range registered {
		versions = append(versions, v)
	}
	slices.Sort(versions)

	return &Migrator{db: db, versions: versions, done: done}, nil
}

// Status lists every known migration in version order.
func (m *Migrator) Status() []Status {
	out := make([]Status, 0, len(m.versions))
	for _, v := range m.versions {
		out = append(out, Status{Version: v, Name: registered[v].name, Done: m.done[v]})
	}
	return out
}

// Up applies pending migrations in order, at most step of them when step > 0.
// All of them run in one transaction.
func (m *Migrator) Up(ctx context.Context, step int) error {
	var pending []string
	for _, v := range m.versions {
		if !m.done[v] {
			pending = append(pending, v)
		}
	}
	return m.run(ctx, pending, step, true)
}

// Down reverts applied migrations newest first, at most step of them when step > 0.
func (m *Migrator) Down(ctx context.Context, step int) error {
	var applied []string
	for _, v := range slices.Backward(m.versions) {
		if m.done[v] {
			applied = append(applied, v)
		}
	}
	return m.run(ctx, applied, step, false)
}

func (m *Migrator) run(ctx context.Context, versions []string, step int, up bool) error {
	if step > 0 && step < len(versions) {
		versions = versions[:step]
	}
	if len(versions) == 0 {
		slog.Info("no migrations to run")
		return nil
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}
	if err := apply(ctx, tx, versions, up); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			slog.Error("rolling back migrations", slog.Any("error", rbErr))
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing migrations: %w", err)
	}
	for _, v := range versions {
		m.done[v] = up
	}
	return nil
}

func apply(ctx context.Context, tx pgx.Tx, versions []string, up bool) error {
	for _, v := range versions {
		mg := registered[v]
		l := slog.With(slog.String("version", v), slog.String("name", mg.name))

		if up {
			l.Info("running up migration")
			if err := mg.up(ctx, tx); err != nil {
				return fmt.Errorf("migration %s up: %w", v, err)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, v); err != nil {
				return fmt.Errorf("recording migration %s: %w", v, err)
			}
			continue
		}

		l.Info("running down migration")
		if err := mg.down(ctx, tx); err != nil {
			return fmt.Errorf("migration %s down: %w", v, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, v); err != nil {
			return fmt.Errorf("unrecording migration %s: %w", v, err)
		}
	}
	return nil
}

// execAll runs statements in order on tx.
func execAll(ctx context.Context, tx pgx.Tx, statements ...string) error {
	for _, s := range statements {
		if _, err := tx.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
