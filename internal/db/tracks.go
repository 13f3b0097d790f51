package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TrackID looks up a track by exact name.
func (q *Queries) TrackID(ctx context.Context, name string) (string, error) {
	return q.lookupID(ctx, EntityTrack, name,
		`SELECT trackid FROM track WHERE trackname = $1 ORDER BY trackid LIMIT 1`, name)
}

// AddTrack returns the id of the named track, creating it when absent.
// An existing track keeps its stored duration and clean flag.
func (q *Queries) AddTrack(ctx context.Context, name string, duration int, clean bool) (string, error) {
	id, err := q.TrackID(ctx, name)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return id, err
	}

	query := `
		INSERT INTO track (trackid, trackname, duration, clean)
		VALUES ($1, $2, $3, $4)
		RETURNING trackid
	`
	if err := q.q.QueryRow(ctx, query, uuid.NewString(), name, duration, clean).Scan(&id); err != nil {
		return "", fmt.Errorf("inserting track: %w", err)
	}
	return id, nil
}

// VerifyTrack reports whether a track with id exists.
func (q *Queries) VerifyTrack(ctx context.Context, id string) (bool, error) {
	ok, err := q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM track WHERE trackid = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("verifying track: %w", err)
	}
	return ok, nil
}

// GetTrack retrieves a track by id.
func (q *Queries) GetTrack(ctx context.Context, id string) (*Track, error) {
	var t Track
	err := q.q.QueryRow(ctx, `SELECT trackid, trackname, duration, clean FROM track WHERE trackid = $1`, id).
		Scan(&t.ID, &t.Name, &t.Duration, &t.Clean)
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return nil, notFound(EntityTrack, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying track: %w", err)
	}
	return &t, nil
}

// GetTrackInfo retrieves a track with its artist credits.
func (q *Queries) GetTrackInfo(ctx context.Context, id string) (*TrackInfo, error) {
	query := `
		SELECT t.trackid, t.trackname, t.duration, t.clean,
			COALESCE(array_agg(a.artistname ORDER BY a.artistname) FILTER (WHERE a.artistid IS NOT NULL), '{}')
		FROM track t
		LEFT JOIN artist_track art ON art.trackid = t.trackid
		LEFT JOIN artist a ON a.artistid = art.artistid
		WHERE t.trackid = $1
		GROUP BY t.trackid
	`
	var info TrackInfo
	err := q.q.QueryRow(ctx, query, id).Scan(
		&info.ID,
		&info.Name,
		&info.Duration,
		&info.Clean,
		&info.Artists,
	)
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return nil, notFound(EntityTrack, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying track info: %w", err)
	}
	return &info, nil
}

// ModifyTrack overwrites a track's name, duration and clean flag.
func (q *Queries) ModifyTrack(ctx context.Context, t Track) (string, error) {
	err := q.execOne(ctx, EntityTrack, t.ID,
		`UPDATE track SET trackname = $2, duration = $3, clean = $4 WHERE trackid = $1`,
		t.ID, t.Name, t.Duration, t.Clean)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

// SetTrackClean flips a track's broadcast-suitability marker.
func (q *Queries) SetTrackClean(ctx context.Context, id string, clean bool) error {
	return q.execOne(ctx, EntityTrack, id,
		`UPDATE track SET clean = $2 WHERE trackid = $1`, id, clean)
}

// RemoveTrack deletes a track and its album/artist links.
func (q *Queries) RemoveTrack(ctx context.Context, id string) error {
	return q.execOne(ctx, EntityTrack, id, `DELETE FROM track WHERE trackid = $1`, id)
}
