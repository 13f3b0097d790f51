package migrations

import (
	"context"

	"github.com/jackc/pgx/v5"
)

func init() {
	register(migration{
		version: "20240901120000",
		name:    "library_schema",
		up:      mig_20240901120000_library_schema_up,
		down:    mig_20240901120000_library_schema_down,
	})
}

func mig_20240901120000_library_schema_up(ctx context.Context, tx pgx.Tx) error {
	return execAll(ctx, tx,
		`CREATE TABLE users (
			userid    UUID PRIMARY KEY,
			firstname TEXT NOT NULL DEFAULT '',
			lastname  TEXT NOT NULL DEFAULT '',
			email     TEXT NOT NULL UNIQUE,
			role      TEXT NOT NULL DEFAULT 'member'
				CHECK (role IN ('member', 'staff', 'eboard', 'cdnerd'))
		)`,
		`CREATE TABLE invitedusers (
			email TEXT PRIMARY KEY
		)`,
		`CREATE TABLE artist (
			artistid   UUID PRIMARY KEY,
			artistname TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE track (
			trackid   UUID PRIMARY KEY,
			trackname TEXT NOT NULL,
			duration  INTEGER NOT NULL DEFAULT 0,
			clean     BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX track_trackname_idx ON track (trackname)`,
		`CREATE TABLE medium (
			mediumid   UUID PRIMARY KEY,
			mediumname TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE album (
			albumid     UUID PRIMARY KEY,
			albumname   TEXT NOT NULL,
			albumcode   TEXT NOT NULL DEFAULT '',
			genre       TEXT NOT NULL DEFAULT '',
			cover       BYTEA,
			releasedate DATE
		)`,
		`CREATE INDEX album_albumname_idx ON album (albumname)`,
		`CREATE TABLE album_artist (
			albumid  UUID NOT NULL REFERENCES album (albumid) ON DELETE CASCADE,
			artistid UUID NOT NULL REFERENCES artist (artistid) ON DELETE CASCADE,
			PRIMARY KEY (albumid, artistid)
		)`,
		`CREATE TABLE album_medium (
			albumid  UUID NOT NULL REFERENCES album (albumid) ON DELETE CASCADE,
			mediumid UUID NOT NULL REFERENCES medium (mediumid) ON DELETE CASCADE,
			upc      TEXT,
			PRIMARY KEY (albumid, mediumid)
		)`,
		`CREATE TABLE album_track (
			albumid     UUID NOT NULL REFERENCES album (albumid) ON DELETE CASCADE,
			trackid     UUID NOT NULL REFERENCES track (trackid) ON DELETE CASCADE,
			tracknumber INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (albumid, trackid)
		)`,
		`CREATE TABLE artist_track (
			artistid UUID NOT NULL REFERENCES artist (artistid) ON DELETE CASCADE,
			trackid  UUID NOT NULL REFERENCES track (trackid) ON DELETE CASCADE,
			PRIMARY KEY (artistid, trackid)
		)`,
		`CREATE TABLE review (
			reviewid UUID PRIMARY KEY,
			body     TEXT NOT NULL,
			userid   UUID NOT NULL REFERENCES users (userid),
			hidden   BOOLEAN NOT NULL DEFAULT FALSE,
			modified TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX review_userid_idx ON review (userid)`,
		`CREATE TABLE review_album (
			reviewid UUID PRIMARY KEY REFERENCES review (reviewid) ON DELETE CASCADE,
			albumid  UUID NOT NULL REFERENCES album (albumid) ON DELETE CASCADE
		)`,
		`CREATE INDEX review_album_albumid_idx ON review_album (albumid)`,
		`CREATE TABLE parameters (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,
	)
}

func mig_20240901120000_library_schema_down(ctx context.Context, tx pgx.Tx) error {
	return execAll(ctx, tx,
		`DROP TABLE IF EXISTS parameters`,
		`DROP TABLE IF EXISTS review_album`,
		`DROP TABLE IF EXISTS review`,
		`DROP TABLE IF EXISTS artist_track`,
		`DROP TABLE IF EXISTS album_track`,
		`DROP TABLE IF EXISTS album_medium`,
		`DROP TABLE IF EXISTS album_artist`,
		`DROP TABLE IF EXISTS album`,
		`DROP TABLE IF EXISTS medium`,
		`DROP TABLE IF EXISTS track`,
		`DROP TABLE IF EXISTS artist`,
		`DROP TABLE IF EXISTS invitedusers`,
		`DROP TABLE IF EXISTS users`,
	)
}
