package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetParameter returns the value stored under key.
func (q *Queries) GetParameter(ctx context.Context, key string) (string, error) {
	var value string
	err := q.q.QueryRow(ctx, `SELECT value FROM parameters WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", notFound(EntityParameter, key)
	}
	if err != nil {
		return "", fmt.Errorf("querying parameter: %w", err)
	}
	return value, nil
}

// SetParameter stores value under key, replacing any previous value.
func (q *Queries) SetParameter(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO parameters (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`
	if _, err := q.q.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("upserting parameter: %w", err)
	}
	return nil
}

// ListParameters returns every parameter ordered by key.
func (q *Queries) ListParameters(ctx context.Context) ([]Parameter, error) {
	rows, err := q.q.Query(ctx, `SELECT key, value FROM parameters ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("querying parameters: %w", err)
	}
	defer rows.Close()

	var params []Parameter
	for rows.Next() {
		var p Parameter
		if err := rows.Scan(&p.Key, &p.Value); err != nil {
			return nil, fmt.Errorf("scanning parameter: %w", err)
		}
		params = append(params, p)
	}
	return params, rows.Err()
}
