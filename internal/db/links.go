package db

import (
	"context"
	"fmt"
)

// require fails with a not-found *Error when verify reports id absent.
func (q *Queries) require(ctx context.Context, entity Entity, id string, verify func(context.Context, string) (bool, error)) error {
	ok, err := verify(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(entity, id)
	}
	return nil
}

// AddAlbumArtist credits an artist on an album. Crediting twice is a no-op.
func (q *Queries) AddAlbumArtist(ctx context.Context, albumID, artistID string) error {
	if err := q.require(ctx, EntityAlbum, albumID, q.VerifyAlbum); err != nil {
		return err
	}
	if err := q.require(ctx, EntityArtist, artistID, q.VerifyArtist); err != nil {
		return err
	}

	query := `
		INSERT INTO album_artist (albumid, artistid)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := q.q.Exec(ctx, query, albumID, artistID); err != nil {
		return fmt.Errorf("linking artist to album: %w", err)
	}
	return nil
}

// RemoveAlbumArtist removes an artist credit from an album.
func (q *Queries) RemoveAlbumArtist(ctx context.Context, albumID, artistID string) error {
	return q.execOne(ctx, EntityArtist, artistID,
		`DELETE FROM album_artist WHERE albumid = $1 AND artistid = $2`, albumID, artistID)
}

// AddAlbumMedium records that an album is held on a medium, optionally with that pressing's UPC.
func (q *Queries) AddAlbumMedium(ctx context.Context, albumID, mediumID string, upc *string) error {
	if err := q.require(ctx, EntityAlbum, albumID, q.VerifyAlbum); err != nil {
		return err
	}
	if err := q.require(ctx, EntityMedium, mediumID, q.VerifyMedium); err != nil {
		return err
	}

	query := `
		INSERT INTO album_medium (albumid, mediumid, upc)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	if _, err := q.q.Exec(ctx, query, albumID, mediumID, upc); err != nil {
		return fmt.Errorf("linking medium to album: %w", err)
	}
	return nil
}

// ModifyAlbumMediumUPC changes the UPC stored for one of an album's mediums.
func (q *Queries) ModifyAlbumMediumUPC(ctx context.Context, albumID, mediumID string, upc *string) error {
	return q.execOne(ctx, EntityMedium, mediumID,
		`UPDATE album_medium SET upc = $3 WHERE albumid = $1 AND mediumid = $2`, albumID, mediumID, upc)
}

// RemoveAlbumMedium removes a medium from an album.
func (q *Queries) RemoveAlbumMedium(ctx context.Context, albumID, mediumID string) error {
	return q.execOne(ctx, EntityMedium, mediumID,
		`DELETE FROM album_medium WHERE albumid = $1 AND mediumid = $2`, albumID, mediumID)
}

// AddAlbumTrack places a track on an album at the given 1-based position.
func (q *Queries) AddAlbumTrack(ctx context.Context, albumID, trackID string, number int) error {
	if err := q.require(ctx, EntityAlbum, albumID, q.VerifyAlbum); err != nil {
		return err
	}
	if err := q.require(ctx, EntityTrack, trackID, q.VerifyTrack); err != nil {
		return err
	}

	query := `
		INSERT INTO album_track (albumid, trackid, tracknumber)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`
	if _, err := q.q.Exec(ctx, query, albumID, trackID, number); err != nil {
		return fmt.Errorf("linking track to album: %w", err)
	}
	return nil
}

// RemoveAlbumTrack removes a track from an album.
func (q *Queries) RemoveAlbumTrack(ctx context.Context, albumID, trackID string) error {
	return q.execOne(ctx, EntityTrack, trackID,
		`DELETE FROM album_track WHERE albumid = $1 AND trackid = $2`, albumID, trackID)
}

// AddArtistTrack credits an artist on a track. Crediting twice is a no-op.
func (q *Queries) AddArtistTrack(ctx context.Context, artistID, trackID string) error {
	if err := q.require(ctx, EntityArtist, artistID, q.VerifyArtist); err != nil {
		return err
	}
	if err := q.require(ctx, EntityTrack, trackID, q.VerifyTrack); err != nil {
		return err
	}

	query := `
		INSERT INTO artist_track (artistid, trackid)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	if _, err := q.q.Exec(ctx, query, artistID, trackID); err != nil {
		return fmt.Errorf("linking artist to track: %w", err)
	}
	return nil
}

// RemoveArtistTrack removes an artist credit from a track.
func (q *Queries) RemoveArtistTrack(ctx context.Context, artistID, trackID string) error {
	return q.execOne(ctx, EntityArtist, artistID,
		`DELETE FROM artist_track WHERE artistid = $1 AND trackid = $2`, artistID, trackID)
}

// ClearAlbumLinks drops every artist, medium and track link of an album and
// the artist credits of its tracks, leaving the album and track rows.
func (q *Queries) ClearAlbumLinks(ctx context.Context, albumID string) error {
	if err := q.require(ctx, EntityAlbum, albumID, q.VerifyAlbum); err != nil {
		return err
	}
	for _, query := range []string{
		`DELETE FROM artist_track WHERE trackid IN (SELECT trackid FROM album_track WHERE albumid = $1)`,
		`DELETE FROM album_artist WHERE albumid = $1`,
		`DELETE FROM album_medium WHERE albumid = $1`,
		`DELETE FROM album_track WHERE albumid = $1`,
	} {
		if _, err := q.q.Exec(ctx, query, albumID); err != nil {
			return fmt.Errorf("clearing album links: %w", err)
		}
	}
	return nil
}
