package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// invalidTextRepresentation is raised by Postgres when a malformed UUID is compared to a uuid column.
const invalidTextRepresentation = "22P02"

// isMalformedID reports whether err came from a malformed identifier argument.
func isMalformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}

// exists runs a SELECT EXISTS query. Malformed ids count as absent.
func (q *Queries) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var ok bool
	err := q.q.QueryRow(ctx, query, args...).Scan(&ok)
	if isMalformedID(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

// lookupID scans a single id column, mapping no rows to a not-found *Error.
func (q *Queries) lookupID(ctx context.Context, entity Entity, key, query string, args ...any) (string, error) {
	var id string
	err := q.q.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return "", notFound(entity, key)
	}
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", entity, err)
	}
	return id, nil
}

// execOne runs a statement that must touch at least one row.
func (q *Queries) execOne(ctx context.Context, entity Entity, key, query string, args ...any) error {
	result, err := q.q.Exec(ctx, query, args...)
	if isMalformedID(err) {
		return notFound(entity, key)
	}
	if err != nil {
		return fmt.Errorf("updating %s: %w", entity, err)
	}
	if result.RowsAffected() == 0 {
		return notFound(entity, key)
	}
	return nil
}

// normalizeEmail lower-cases and trims an address so invites and users compare equal.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
