package db

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// PageSize is the number of rows on one page of search results and review listings.
const PageSize = 25

// LibraryFilter narrows a library search. Empty fields are ignored; the rest
// must all match as case-insensitive substrings.
type LibraryFilter struct {
	Album  string
	Artist string
	Genre  string
	Track  string
}

// Empty reports whether no filter field is set.
func (f LibraryFilter) Empty() bool {
	return f.Album == "" && f.Artist == "" && f.Genre == "" && f.Track == ""
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes term match literally inside an ILIKE pattern.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// maxPage keeps the offset of any page within int.
const maxPage = math.MaxInt / PageSize

func pageOffset(page int) int {
	page = min(max(page, 1), maxPage)
	return (page - 1) * PageSize
}

// buildSearchQuery assembles the search statement and its arguments. It
// fetches one row beyond the page so callers can tell whether a next page exists.
func buildSearchQuery(f LibraryFilter, page int) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(predicate, term string) {
		term = strings.TrimSpace(term)
		if term == "" {
			return
		}
		args = append(args, "%"+escapeLike(term)+"%")
		where = append(where, fmt.Sprintf(predicate, len(args)))
	}

	add(`al.albumname ILIKE $%d`, f.Album)
	add(`al.genre ILIKE $%d`, f.Genre)
	add(`EXISTS (
			SELECT 1 FROM album_artist fa
			JOIN artist a2 ON a2.artistid = fa.artistid
			WHERE fa.albumid = al.albumid AND a2.artistname ILIKE $%d
		)`, f.Artist)
	add(`EXISTS (
			SELECT 1 FROM album_track ft
			JOIN track t2 ON t2.trackid = ft.trackid
			WHERE ft.albumid = al.albumid AND t2.trackname ILIKE $%d
		)`, f.Track)

	var b strings.Builder
	b.WriteString(`
		SELECT al.albumid, al.albumname, al.albumcode, al.genre, al.releasedate,
			COALESCE(array_agg(a.artistname ORDER BY a.artistname) FILTER (WHERE a.artistid IS NOT NULL), '{}')
		FROM album al
		LEFT JOIN album_artist aa ON aa.albumid = al.albumid
		LEFT JOIN artist a ON a.artistid = aa.artistid
	`)
	if len(where) > 0 {
		b.WriteString("WHERE " + strings.Join(where, " AND ") + "\n")
	}
	args = append(args, PageSize+1, pageOffset(page))
	fmt.Fprintf(&b, `
		GROUP BY al.albumid
		ORDER BY al.albumname ASC, al.albumid
		LIMIT $%d OFFSET $%d
	`, len(args)-1, len(args))
	return b.String(), args
}

// SearchLibrary returns one page of albums matching f, ordered by name, and
// whether another page follows. Pages are numbered from 1; a page past the
// end is empty.
func (q *Queries) SearchLibrary(ctx context.Context, f LibraryFilter, page int) ([]AlbumSummary, bool, error) {
	query, args := buildSearchQuery(f, page)
	rows, err := q.q.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("searching library: %w", err)
	}
	defer rows.Close()

	var albums []AlbumSummary
	for rows.Next() {
		var a AlbumSummary
		if err := rows.Scan(
			&a.ID,
			&a.Name,
			&a.Code,
			&a.Genre,
			&a.ReleaseDate,
			&a.Artists,
		); err != nil {
			return nil, false, fmt.Errorf("scanning album summary: %w", err)
		}
		albums = append(albums, a)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating search results: %w", err)
	}

	hasNext := len(albums) > PageSize
	if hasNext {
		albums = albums[:PageSize]
	}
	return albums, hasNext, nil
}

// ListAlbums returns one page of the whole library.
func (q *Queries) ListAlbums(ctx context.Context, page int) ([]AlbumSummary, bool, error) {
	return q.SearchLibrary(ctx, LibraryFilter{}, page)
}
