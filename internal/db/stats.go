package db

import (
	"context"
	"fmt"
	"time"
)

// ReviewTotals summarizes the whole review table.
type ReviewTotals struct {
	Reviews   int
	Hidden    int
	Reviewers int
	Albums    int
}

// ReviewerStat is one user's review activity.
type ReviewerStat struct {
	UserID       string
	Name         string
	Reviews      int
	Hidden       int
	MeanLength   float64
	LastModified time.Time
}

// ReviewTotals counts reviews, hidden reviews, distinct reviewers and distinct reviewed albums.
func (q *Queries) ReviewTotals(ctx context.Context) (ReviewTotals, error) {
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE r.hidden),
			COUNT(DISTINCT r.userid),
			COUNT(DISTINCT ra.albumid)
		FROM review r
		JOIN review_album ra ON ra.reviewid = r.reviewid
	`
	var t ReviewTotals
	if err := q.q.QueryRow(ctx, query).Scan(&t.Reviews, &t.Hidden, &t.Reviewers, &t.Albums); err != nil {
		return ReviewTotals{}, fmt.Errorf("querying review totals: %w", err)
	}
	return t, nil
}

// ReviewerActivity returns per-user review counts for every user who wrote
// at least one review, most active first.
func (q *Queries) ReviewerActivity(ctx context.Context) ([]ReviewerStat, error) {
	query := `
		SELECT u.userid,
			TRIM(u.firstname || ' ' || u.lastname),
			COUNT(r.reviewid),
			COUNT(r.reviewid) FILTER (WHERE r.hidden),
			AVG(LENGTH(r.body))::float8,
			MAX(r.modified)
		FROM users u
		JOIN review r ON r.userid = u.userid
		JOIN review_album ra ON ra.reviewid = r.reviewid
		GROUP BY u.userid
		ORDER BY COUNT(r.reviewid) DESC, u.lastname, u.firstname
	`
	rows, err := q.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying reviewer activity: %w", err)
	}
	defer rows.Close()

	var stats []ReviewerStat
	for rows.Next() {
		var s ReviewerStat
		if err := rows.Scan(
			&s.UserID,
			&s.Name,
			&s.Reviews,
			&s.Hidden,
			&s.MeanLength,
			&s.LastModified,
		); err != nil {
			return nil, fmt.Errorf("scanning reviewer activity: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
