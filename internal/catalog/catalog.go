// Package catalog defines the metadata entry the library imports from
// external release databases, and the contract those databases satisfy.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// ErrNoMatch is returned by a Source when nothing matches the query.
var ErrNoMatch = errors.New("no matching release")

// Track is one entry of a release's tracklist.
type Track struct {
	Title    string
	Duration int // seconds, 0 when unknown
	Clean    bool
	Credits  []string
}

// Entry is a release as an external catalog describes it.
type Entry struct {
	UPC     string
	Title   string
	Artists []string
	Genre   string
	Year    int // 0 when unknown
	Formats []string
	Cover   []byte
	Tracks  []Track
}

// Source looks releases up in an external catalog.
type Source interface {
	ByUPC(ctx context.Context, upc string) (*Entry, error)
	ByRelease(ctx context.Context, id string) (*Entry, error)
}

// Lookup queries a Source and turns every failure into absence.
type Lookup struct {
	src    Source
	logger *slog.Logger
}

// NewLookup wraps src.
func NewLookup(src Source, logger *slog.Logger) *Lookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lookup{src: src, logger: logger}
}

// ByUPC returns the release with the given barcode, or nil.
func (l *Lookup) ByUPC(ctx context.Context, upc string) *Entry {
	upc = strings.TrimSpace(upc)
	if upc == "" {
		return nil
	}
	e, err := l.src.ByUPC(ctx, upc)
	if err != nil {
		l.logger.Warn("metadata lookup failed", slog.String("upc", upc), slog.Any("error", err))
		return nil
	}
	return e
}

// ByRelease returns the release with the given catalog id, or nil.
func (l *Lookup) ByRelease(ctx context.Context, id string) *Entry {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	e, err := l.src.ByRelease(ctx, id)
	if err != nil {
		l.logger.Warn("metadata lookup failed", slog.String("release", id), slog.Any("error", err))
		return nil
	}
	return e
}

// ParseDuration converts "m:ss" or "h:mm:ss" to seconds. Anything else is 0.
func ParseDuration(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	total := 0
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + n
	}
	return total
}

// FormatDuration renders seconds as "m:ss", or "" for 0.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return ""
	}
	return strconv.Itoa(seconds/60) + ":" + leftPad(strconv.Itoa(seconds%60))
}

func leftPad(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// Credits joins name lists in order, dropping blanks and repeats.
func Credits(lists ...[]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, list := range lists {
		for _, name := range list {
			name = strings.TrimSpace(name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
