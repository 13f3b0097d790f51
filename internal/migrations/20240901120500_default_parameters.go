package migrations

import (
	"context"

	"github.com/jackc/pgx/v5"
)

func init() {
	register(migration{
		version: "20240901120500",
		name:    "default_parameters",
		up:      mig_20240901120500_default_parameters_up,
		down:    mig_20240901120500_default_parameters_down,
	})
}

func mig_20240901120500_default_parameters_up(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO parameters (key, value) VALUES
			('review_guidelines', 'Keep it short. Say what it sounds like and which tracks are worth playing. Flag anything not clean.'),
			('genres', E'Rock\nPop\nHip-Hop\nElectronic\nJazz\nFolk\nCountry\nClassical\nMetal\nWorld\nExperimental')
		ON CONFLICT (key) DO NOTHING
	`)
	return err
}

func mig_20240901120500_default_parameters_down(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `DELETE FROM parameters WHERE key IN ('review_guidelines', 'genres')`)
	return err
}
