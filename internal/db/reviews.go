package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const reviewViewColumns = `
	r.reviewid, r.body, r.userid, ra.albumid, r.hidden, r.modified,
	TRIM(u.firstname || ' ' || u.lastname), al.albumname
`

const reviewViewFrom = `
	FROM review r
	JOIN review_album ra ON ra.reviewid = r.reviewid
	JOIN users u ON u.userid = r.userid
	JOIN album al ON al.albumid = ra.albumid
`

// AddReview stores a review of an album by a user. Submitting the same body
// for the same album twice fails with an already-exists *Error.
func (q *Queries) AddReview(ctx context.Context, userID, albumID, body string) (string, error) {
	if err := q.require(ctx, EntityUser, userID, q.VerifyUser); err != nil {
		return "", err
	}
	if err := q.require(ctx, EntityAlbum, albumID, q.VerifyAlbum); err != nil {
		return "", err
	}

	dup, err := q.exists(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM review r
			JOIN review_album ra ON ra.reviewid = r.reviewid
			WHERE r.userid = $1 AND ra.albumid = $2 AND r.body = $3
		)
	`, userID, albumID, body)
	if err != nil {
		return "", fmt.Errorf("checking duplicate review: %w", err)
	}
	if dup {
		return "", alreadyExists(EntityReview, albumID)
	}

	query := `
		INSERT INTO review (reviewid, body, userid, hidden, modified)
		VALUES ($1, $2, $3, FALSE, NOW())
		RETURNING reviewid
	`
	var id string
	if err := q.q.QueryRow(ctx, query, uuid.NewString(), body, userID).Scan(&id); err != nil {
		return "", fmt.Errorf("inserting review: %w", err)
	}
	if _, err := q.q.Exec(ctx, `INSERT INTO review_album (reviewid, albumid) VALUES ($1, $2)`, id, albumID); err != nil {
		if _, delErr := q.q.Exec(ctx, `DELETE FROM review WHERE reviewid = $1`, id); delErr != nil {
			return "", errors.Join(fmt.Errorf("linking review to album: %w", err), fmt.Errorf("removing unlinked review: %w", delErr))
		}
		return "", fmt.Errorf("linking review to album: %w", err)
	}
	return id, nil
}

// VerifyReview reports whether a review with id exists.
func (q *Queries) VerifyReview(ctx context.Context, id string) (bool, error) {
	ok, err := q.exists(ctx, `SELECT EXISTS (SELECT 1 FROM review WHERE reviewid = $1)`, id)
	if err != nil {
		return false, fmt.Errorf("verifying review: %w", err)
	}
	return ok, nil
}

// GetReview retrieves a review by id.
func (q *Queries) GetReview(ctx context.Context, id string) (*Review, error) {
	query := `
		SELECT r.reviewid, r.body, r.userid, ra.albumid, r.hidden, r.modified
		FROM review r
		JOIN review_album ra ON ra.reviewid = r.reviewid
		WHERE r.reviewid = $1
	`
	var r Review
	err := q.q.QueryRow(ctx, query, id).Scan(
		&r.ID,
		&r.Body,
		&r.UserID,
		&r.AlbumID,
		&r.Hidden,
		&r.Modified,
	)
	if errors.Is(err, pgx.ErrNoRows) || isMalformedID(err) {
		return nil, notFound(EntityReview, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying review: %w", err)
	}
	return &r, nil
}

// ModifyReview replaces a review's body and stamps it as modified now.
func (q *Queries) ModifyReview(ctx context.Context, id, body string) error {
	return q.execOne(ctx, EntityReview, id,
		`UPDATE review SET body = $2, modified = NOW() WHERE reviewid = $1`, id, body)
}

// SetReviewHidden hides or shows a review on its album page.
func (q *Queries) SetReviewHidden(ctx context.Context, id string, hidden bool) error {
	return q.execOne(ctx, EntityReview, id,
		`UPDATE review SET hidden = $2 WHERE reviewid = $1`, id, hidden)
}

// RemoveReview deletes a review.
func (q *Queries) RemoveReview(ctx context.Context, id string) error {
	return q.execOne(ctx, EntityReview, id, `DELETE FROM review WHERE reviewid = $1`, id)
}

// AlbumReviews lists an album's reviews, newest first.
func (q *Queries) AlbumReviews(ctx context.Context, albumID string, includeHidden bool) ([]ReviewView, error) {
	query := `SELECT ` + reviewViewColumns + reviewViewFrom + `
		WHERE ra.albumid = $1 AND ($2 OR NOT r.hidden)
		ORDER BY r.modified DESC, r.reviewid
	`
	return q.reviewViews(ctx, query, albumID, includeHidden)
}

// UserReviews lists every review written by a user, newest first.
func (q *Queries) UserReviews(ctx context.Context, userID string) ([]ReviewView, error) {
	query := `SELECT ` + reviewViewColumns + reviewViewFrom + `
		WHERE r.userid = $1
		ORDER BY r.modified DESC, r.reviewid
	`
	return q.reviewViews(ctx, query, userID)
}

// ListReviews returns one page of all reviews, newest first, and whether another page follows.
func (q *Queries) ListReviews(ctx context.Context, page int) ([]ReviewView, bool, error) {
	query := `SELECT ` + reviewViewColumns + reviewViewFrom + `
		ORDER BY r.modified DESC, r.reviewid
		LIMIT $1 OFFSET $2
	`
	reviews, err := q.reviewViews(ctx, query, PageSize+1, pageOffset(page))
	if err != nil {
		return nil, false, err
	}
	hasNext := len(reviews) > PageSize
	if hasNext {
		reviews = reviews[:PageSize]
	}
	return reviews, hasNext, nil
}

func (q *Queries) reviewViews(ctx context.Context, query string, args ...any) ([]ReviewView, error) {
	rows, err := q.q.Query(ctx, query, args...)
	if isMalformedID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying reviews: %w", err)
	}
	defer rows.Close()

	var reviews []ReviewView
	for rows.Next() {
		var r ReviewView
		if err := rows.Scan(
			&r.ID,
			&r.Body,
			&r.UserID,
			&r.AlbumID,
			&r.Hidden,
			&r.Modified,
			&r.Author,
			&r.AlbumName,
		); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}
