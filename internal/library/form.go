package library

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/witr/library-manager/internal/catalog"
)

// ErrInvalidForm is wrapped by every form parsing failure.
var ErrInvalidForm = errors.New("invalid album form")

// dateLayout is the format of <input type="date"> values.
const dateLayout = "2006-01-02"

// ParseForm reads an album edit form. Artists are one per line; mediums and
// tracks are parallel repeated fields (medium_name/medium_upc and
// track_name/track_duration/track_clean/track_artists). Track artists are
// separated by semicolons.
func ParseForm(form url.Values) (Entry, error) {
	e := Entry{
		Name:    strings.TrimSpace(form.Get("name")),
		Code:    strings.TrimSpace(form.Get("code")),
		Genre:   strings.TrimSpace(form.Get("genre")),
		Artists: splitList(form.Get("artists"), "\n"),
	}
	if e.Name == "" {
		return e, fmt.Errorf("%w: %w", ErrInvalidForm, ErrMissingName)
	}

	if v := strings.TrimSpace(form.Get("release_date")); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return e, fmt.Errorf("%w: release date %q", ErrInvalidForm, v)
		}
		e.ReleaseDate = &d
	}

	names, upcs := form["medium_name"], form["medium_upc"]
	for i, name := range names {
		e.Mediums = append(e.Mediums, Medium{Name: name, UPC: at(upcs, i)})
	}

	titles := form["track_name"]
	durations, cleans, credits := form["track_duration"], form["track_clean"], form["track_artists"]
	for i, title := range titles {
		if strings.TrimSpace(title) == "" {
			continue
		}
		raw := strings.TrimSpace(at(durations, i))
		duration := catalog.ParseDuration(raw)
		if raw != "" && duration == 0 {
			return e, fmt.Errorf("%w: duration %q of track %d", ErrInvalidForm, raw, i+1)
		}
		e.Tracks = append(e.Tracks, Track{
			Name:     strings.TrimSpace(title),
			Duration: duration,
			Clean:    at(cleans, i) == "yes",
			Artists:  splitList(at(credits, i), ";"),
		})
	}

	return e, nil
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func splitList(s, sep string) []string {
	return catalog.Credits(strings.Split(s, sep))
}
