package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AddAlbum inserts a new album. Albums have no natural key, so every call creates a row.
func (q *Queries) AddAlbum(ctx context.Context, album Album) (string, error) {
	query := `
		INSERT INTO album (albumid, albumname, albumcode, genre, cover, releasedate)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING albumid
	`
	var id string
	err := q.q.QueryRow(ctx, query,
		uuid.NewString(),
		album.Name,
		album.Code,
		album.Genre,
		album.Cover,
		album.ReleaseDate,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("inserting album: %w", err)
	}
	return id, nil
}

// VerifyAlbum reports whether an album with id exists.
func (q *Queries) VerifyAlbum(ctx context.Context, id string) (bool, error) {
	ok, err := q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM album WHERE albumid = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("verifying album: %w", err)
	}
	return ok, nil
}

// GetAlbum retrieves an album with its artists, mediums and ordered tracks.
func (q *Queries) GetAlbum(ctx context.Context, id string) (*AlbumView, error) {
	query := `
		SELECT albumid, albumname, albumcode, genre, cover, releasedate
		FROM album
		WHERE albumid = $1
	`
	var view AlbumView
	err := q.q.QueryRow(ctx, query, id).Scan(
		&view.ID,
		&view.Name,
		&view.Code,
		&view.Genre,
		&view.Cover,
		&view.ReleaseDate,
	)
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return nil, notFound(EntityAlbum, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying album: %w", err)
	}

	if view.Artists, err = q.albumArtists(ctx, id); err != nil {
		return nil, err
	}
	if view.Mediums, err = q.albumMediums(ctx, id); err != nil {
		return nil, err
	}
	if view.Tracks, err = q.albumTracks(ctx, id); err != nil {
		return nil, err
	}
	return &view, nil
}

func (q *Queries) albumArtists(ctx context.Context, albumID string) ([]string, error) {
	query := `
		SELECT a.artistname
		FROM album_artist aa
		JOIN artist a ON a.artistid = aa.artistid
		WHERE aa.albumid = $1
		ORDER BY a.artistname
	`
	rows, err := q.q.Query(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("querying album artists: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning album artist: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (q *Queries) albumMediums(ctx context.Context, albumID string) ([]AlbumMedium, error) {
	query := `
		SELECT m.mediumid, m.mediumname, am.upc
		FROM album_medium am
		JOIN medium m ON m.mediumid = am.mediumid
		WHERE am.albumid = $1
		ORDER BY m.mediumname
	`
	rows, err := q.q.Query(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("querying album mediums: %w", err)
	}
	defer rows.Close()

	var mediums []AlbumMedium
	for rows.Next() {
		var m AlbumMedium
		if err := rows.Scan(&m.MediumID, &m.Name, &m.UPC); err != nil {
			return nil, fmt.Errorf("scanning album medium: %w", err)
		}
		mediums = append(mediums, m)
	}
	return mediums, rows.Err()
}

func (q *Queries) albumTracks(ctx context.Context, albumID string) ([]AlbumTrack, error) {
	query := `
		SELECT t.trackid, t.trackname, t.duration, t.clean, alt.tracknumber,
			COALESCE(array_agg(a.artistname ORDER BY a.artistname) FILTER (WHERE a.artistid IS NOT NULL), '{}')
		FROM album_track alt
		JOIN track t ON t.trackid = alt.trackid
		LEFT JOIN artist_track art ON art.trackid = t.trackid
		LEFT JOIN artist a ON a.artistid = art.artistid
		WHERE alt.albumid = $1
		GROUP BY t.trackid, alt.tracknumber
		ORDER BY alt.tracknumber, t.trackname
	`
	rows, err := q.q.Query(ctx, query, albumID)
	if err != nil {
		return nil, fmt.Errorf("querying album tracks: %w", err)
	}
	defer rows.Close()

	var tracks []AlbumTrack
	for rows.Next() {
		var t AlbumTrack
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Duration,
			&t.Clean,
			&t.Number,
			&t.Artists,
		); err != nil {
			return nil, fmt.Errorf("scanning album track: %w", err)
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

// ModifyAlbum overwrites an album's name, code, genre and release date. The cover is left as is.
func (q *Queries) ModifyAlbum(ctx context.Context, album Album) (string, error) {
	query := `
		UPDATE album
		SET albumname = $2, albumcode = $3, genre = $4, releasedate = $5
		WHERE albumid = $1
	`
	err := q.execOne(ctx, EntityAlbum, album.ID, query,
		album.ID,
		album.Name,
		album.Code,
		album.Genre,
		album.ReleaseDate,
	)
	if err != nil {
		return "", err
	}
	return album.ID, nil
}

// SetAlbumCover replaces an album's cover image. A nil cover clears it.
func (q *Queries) SetAlbumCover(ctx context.Context, id string, cover []byte) error {
	return q.execOne(ctx, EntityAlbum, id,
		`UPDATE album SET cover = $2 WHERE albumid = $1`, id, cover)
}

// RemoveAlbum deletes an album, its links and the reviews written about it.
func (q *Queries) RemoveAlbum(ctx context.Context, id string) error {
	ok, err := q.VerifyAlbum(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(EntityAlbum, id)
	}

	query := `
		DELETE FROM review
		WHERE reviewid IN (SELECT reviewid FROM review_album WHERE albumid = $1)
	`
	if _, err := q.q.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("deleting album reviews: %w", err)
	}
	return q.execOne(ctx, EntityAlbum, id, `DELETE FROM album WHERE albumid = $1`, id)
}

// AlbumCover returns an album's cover image, nil when it has none.
func (q *Queries) AlbumCover(ctx context.Context, id string) ([]byte, error) {
	var cover []byte
	err := q.q.QueryRow(ctx, `SELECT cover FROM album WHERE albumid = $1`, id).Scan(&cover)
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return nil, notFound(EntityAlbum, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying album cover: %w", err)
	}
	return cover, nil
}
