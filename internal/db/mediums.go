package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MediumID looks up a medium by exact name.
func (q *Queries) MediumID(ctx context.Context, name string) (string, error) {
	return q.lookupID(ctx, EntityMedium, name,
		`SELECT mediumid FROM medium WHERE mediumname = $1`, name)
}

// AddMedium returns the id of the named medium, creating it when absent.
func (q *Queries) AddMedium(ctx context.Context, name string) (string, error) {
	id, err := q.MediumID(ctx, name)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return id, err
	}

	query := `
		INSERT INTO medium (mediumid, mediumname)
		VALUES ($1, $2)
		ON CONFLICT (mediumname) DO NOTHING
		RETURNING mediumid
	`
	err = q.q.QueryRow(ctx, query, uuid.NewString(), name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return q.MediumID(ctx, name)
	}
	if err != nil {
		return "", fmt.Errorf("inserting medium: %w", err)
	}
	return id, nil
}

// VerifyMedium reports whether a medium with id exists.
func (q *Queries) VerifyMedium(ctx context.Context, id string) (bool, error) {
	ok, err := q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM medium WHERE mediumid = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("verifying medium: %w", err)
	}
	return ok, nil
}

// GetMedium retrieves a medium by id.
func (q *Queries) GetMedium(ctx context.Context, id string) (*Medium, error) {
	var m Medium
	err := q.q.QueryRow(ctx, `SELECT mediumid, mediumname FROM medium WHERE mediumid = $1`, id).
		Scan(&m.ID, &m.Name)
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return nil, notFound(EntityMedium, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying medium: %w", err)
	}
	return &m, nil
}

// ListMediums returns every medium ordered by name.
func (q *Queries) ListMediums(ctx context.Context) ([]Medium, error) {
	rows, err := q.q.Query(ctx, `SELECT mediumid, mediumname FROM medium ORDER BY mediumname`)
	if err != nil {
		return nil, fmt.Errorf("querying mediums: %w", err)
	}
	defer rows.Close()

	var mediums []Medium
	for rows.Next() {
		var m Medium
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scanning medium: %w", err)
		}
		mediums = append(mediums, m)
	}
	return mediums, rows.Err()
}

// ModifyMedium renames a medium.
func (q *Queries) ModifyMedium(ctx context.Context, id, name string) (string, error) {
	err := q.execOne(ctx, EntityMedium, id,
		`UPDATE medium SET mediumname = $2 WHERE mediumid = $1`, id, name)
	if err != nil {
		return "", err
	}
	return id, nil
}

// RemoveMedium deletes a medium and every album's holding of it.
func (q *Queries) RemoveMedium(ctx context.Context, id string) error {
	return q.execOne(ctx, EntityMedium, id, `DELETE FROM medium WHERE mediumid = $1`, id)
}
