package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ArtistID looks up an artist by exact name.
func (q *Queries) ArtistID(ctx context.Context, name string) (string, error) {
	return q.lookupID(ctx, EntityArtist, name,
		`SELECT artistid FROM artist WHERE artistname = $1`, name)
}

// AddArtist returns the id of the named artist, creating it when absent.
func (q *Queries) AddArtist(ctx context.Context, name string) (string, error) {
	id, err := q.ArtistID(ctx, name)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return id, err
	}

	query := `
		INSERT INTO artist (artistid, artistname)
		VALUES ($1, $2)
		ON CONFLICT (artistname) DO NOTHING
		RETURNING artistid
	`
	err = q.q.QueryRow(ctx, query, uuid.NewString(), name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		// Inserted concurrently by another request.
		return q.ArtistID(ctx, name)
	}
	if err != nil {
		return "", fmt.Errorf("inserting artist: %w", err)
	}
	return id, nil
}

// VerifyArtist reports whether an artist with id exists.
func (q *Queries) VerifyArtist(ctx context.Context, id string) (bool, error) {
	ok, err := q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM artist WHERE artistid = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("verifying artist: %w", err)
	}
	return ok, nil
}

// GetArtist retrieves an artist by id.
func (q *Queries) GetArtist(ctx context.Context, id string) (*Artist, error) {
	var a Artist
	err := q.q.QueryRow(ctx, `SELECT artistid, artistname FROM artist WHERE artistid = $1`, id).
		Scan(&a.ID, &a.Name)
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return nil, notFound(EntityArtist, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying artist: %w", err)
	}
	return &a, nil
}

// ModifyArtist renames an artist.
func (q *Queries) ModifyArtist(ctx context.Context, id, name string) (string, error) {
	err := q.execOne(ctx, EntityArtist, id,
		`UPDATE artist SET artistname = $2 WHERE artistid = $1`, id, name)
	if err != nil {
		return "", err
	}
	return id, nil
}

// RemoveArtist deletes an artist and its album/track credits.
func (q *Queries) RemoveArtist(ctx context.Context, id string) error {
	return q.execOne(ctx, EntityArtist, id, `DELETE FROM artist WHERE artistid = $1`, id)
}
