package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectReviewParents(mock pgxmock.PgxConnIface) {
	mock.ExpectQuery(sql("SELECT EXISTS (SELECT 1 FROM users WHERE userid = $1)")).
		WithArgs("u1").
		WillReturnRows(existsRows(true))
	mock.ExpectQuery(sql("SELECT EXISTS (SELECT 1 FROM album WHERE albumid = $1)")).
		WithArgs("al1").
		WillReturnRows(existsRows(true))
}

func TestAddReview(t *testing.T) {
	mock, q := newMock(t)
	expectReviewParents(mock)
	mock.ExpectQuery(sql("WHERE r.userid = $1 AND ra.albumid = $2 AND r.body = $3")).
		WithArgs("u1", "al1", "great record").
		WillReturnRows(existsRows(false))
	mock.ExpectQuery(sql("INSERT INTO review (reviewid, body, userid, hidden, modified)")).
		WithArgs(pgxmock.AnyArg(), "great record", "u1").
		WillReturnRows(pgxmock.NewRows([]string{"reviewid"}).AddRow("r1"))
	mock.ExpectExec(sql("INSERT INTO review_album (reviewid, albumid)")).
		WithArgs("r1", "al1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := q.AddReview(context.Background(), "u1", "al1", "great record")
	require.NoError(t, err)
	assert.Equal(t, "r1", id)
}

func TestAddReviewRemovesUnlinkedRow(t *testing.T) {
	mock, q := newMock(t)
	expectReviewParents(mock)
	mock.ExpectQuery(sql("WHERE r.userid = $1 AND ra.albumid = $2 AND r.body = $3")).
		WithArgs("u1", "al1", "great record").
		WillReturnRows(existsRows(false))
	mock.ExpectQuery(sql("INSERT INTO review (reviewid, body, userid, hidden, modified)")).
		WithArgs(pgxmock.AnyArg(), "great record", "u1").
		WillReturnRows(pgxmock.NewRows([]string{"reviewid"}).AddRow("r1"))
	mock.ExpectExec(sql("INSERT INTO review_album (reviewid, albumid)")).
		WithArgs("r1", "al1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectExec(sql("DELETE FROM review WHERE reviewid = $1")).
		WithArgs("r1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	_, err := q.AddReview(context.Background(), "u1", "al1", "great record")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "linking review to album")
}

func TestReviewerActivityCountsLinkedReviewsOnly(t *testing.T) {
	mock, q := newMock(t)
	mock.ExpectQuery(sql("JOIN review_album ra ON ra.reviewid = r.reviewid GROUP BY u.userid")).
		WillReturnRows(pgxmock.NewRows([]string{"userid", "name", "reviews", "hidden", "meanlength", "lastmodified"}).
			AddRow("u1", "Ann Lee", 2, 0, 12.5, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))

	stats, err := q.ReviewerActivity(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Reviews)
}

func TestAddReviewDuplicate(t *testing.T) {
	mock, q := newMock(t)
	expectReviewParents(mock)
	mock.ExpectQuery(sql("WHERE r.userid = $1 AND ra.albumid = $2 AND r.body = $3")).
		WithArgs("u1", "al1", "great record").
		WillReturnRows(existsRows(true))

	_, err := q.AddReview(context.Background(), "u1", "al1", "great record")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestAddReviewUnknownAlbum(t *testing.T) {
	mock, q := newMock(t)
	mock.ExpectQuery(sql("SELECT EXISTS (SELECT 1 FROM users WHERE userid = $1)")).
		WithArgs("u1").
		WillReturnRows(existsRows(true))
	mock.ExpectQuery(sql("SELECT EXISTS (SELECT 1 FROM album WHERE albumid = $1)")).
		WithArgs("al1").
		WillReturnRows(existsRows(false))

	_, err := q.AddReview(context.Background(), "u1", "al1", "great record")
	assert.True(t, IsNotFoundFor(err, EntityAlbum))
}

func reviewRows(n int) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"reviewid", "body", "userid", "albumid", "hidden", "modified", "author", "albumname"})
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := range n {
		rows.AddRow(fmt.Sprintf("r%d", i), "body", "u1", "al1", false, now, "Ann Lee", "Tago Mago")
	}
	return rows
}

func TestListReviewsPagination(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		returned int
		offset   int
		wantLen  int
		wantNext bool
	}{
		{"full page with more", 1, PageSize + 1, 0, PageSize, true},
		{"last page", 2, 3, PageSize, 3, false},
		{"past the end", 9, 0, 8 * PageSize, 0, false},
		{"page zero is the first page", 0, 1, 0, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, q := newMock(t)
			mock.ExpectQuery(sql("LIMIT $1 OFFSET $2")).
				WithArgs(PageSize+1, tt.offset).
				WillReturnRows(reviewRows(tt.returned))

			reviews, hasNext, err := q.ListReviews(context.Background(), tt.page)
			require.NoError(t, err)
			assert.Len(t, reviews, tt.wantLen)
			assert.Equal(t, tt.wantNext, hasNext)
		})
	}
}

func TestAlbumReviewsPassesHiddenFlag(t *testing.T) {
	mock, q := newMock(t)
	mock.ExpectQuery(sql("WHERE ra.albumid = $1 AND ($2 OR NOT r.hidden)")).
		WithArgs("al1", false).
		WillReturnRows(reviewRows(2))

	reviews, err := q.AlbumReviews(context.Background(), "al1", false)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "Ann Lee", reviews[0].Author)
}

func TestModifyReviewNotFound(t *testing.T) {
	mock, q := newMock(t)
	mock.ExpectExec(sql("UPDATE review SET body = $2, modified = NOW() WHERE reviewid = $1")).
		WithArgs("r9", "edited").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := q.ModifyReview(context.Background(), "r9", "edited")
	assert.True(t, IsNotFoundFor(err, EntityReview))
}
