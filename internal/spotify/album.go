package spotify

import (
	"strconv"

	"github.com/zmb3/spotify/v2"

	"github.com/witr/library-manager/internal/catalog"
)

// digital is the only format a streaming catalog can vouch for.
const digital = "Digital"

func artistNames(artists []spotify.SimpleArtist) []string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return names
}

// releaseYear reads the year from a release date of any precision
// ("2006", "2006-03" or "2006-03-14"). Zero when it cannot be parsed.
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// toEntry converts a Spotify album and its tracks to a catalog entry.
// Explicit tracks are not broadcast clean.
func toEntry(album *spotify.FullAlbum, tracks []spotify.SimpleTrack) *catalog.Entry {
	artists := catalog.Credits(artistNames(album.Artists))

	entry := &catalog.Entry{
		UPC:     album.ExternalIDs["upc"],
		Title:   album.Name,
		Artists: artists,
		Year:    releaseYear(album.ReleaseDate),
		Formats: []string{digital},
	}
	if len(album.Genres) > 0 {
		entry.Genre = album.Genres[0]
	}

	for _, t := range tracks {
		entry.Tracks = append(entry.Tracks, catalog.Track{
			Title:    t.Name,
			Duration: int(t.Duration) / 1000,
			Clean:    !t.Explicit,
			Credits:  catalog.Credits(artists, artistNames(t.Artists)),
		})
	}
	return entry
}
