// Package library writes album entries, imported from a catalog or edited by
// hand, into the data access layer.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/witr/library-manager/internal/catalog"
	"github.com/witr/library-manager/internal/db"
)

// ErrMissingName is returned for entries without an album name.
var ErrMissingName = errors.New("album name is required")

// Store is the subset of *db.Queries an import needs.
type Store interface {
	AddAlbum(ctx context.Context, album db.Album) (string, error)
	ModifyAlbum(ctx context.Context, album db.Album) (string, error)
	SetAlbumCover(ctx context.Context, id string, cover []byte) error
	ClearAlbumLinks(ctx context.Context, albumID string) error

	AddArtist(ctx context.Context, name string) (string, error)
	AddMedium(ctx context.Context, name string) (string, error)
	AddTrack(ctx context.Context, name string, duration int, clean bool) (string, error)
	GetTrack(ctx context.Context, id string) (*db.Track, error)
	ModifyTrack(ctx context.Context, t db.Track) (string, error)

	AddAlbumArtist(ctx context.Context, albumID, artistID string) error
	AddAlbumMedium(ctx context.Context, albumID, mediumID string, upc *string) error
	AddAlbumTrack(ctx context.Context, albumID, trackID string, number int) error
	AddArtistTrack(ctx context.Context, artistID, trackID string) error
}

var _ Store = (*db.Queries)(nil)

// Medium is one format the album is held in, with the barcode of that copy.
type Medium struct {
	Name string
	UPC  string
}

// Track is one tracklist row. Artists are the credits linked to the track.
type Track struct {
	Name     string
	Duration int
	Clean    bool
	Artists  []string
}

// Entry is a complete album as the library stores it.
type Entry struct {
	Name        string
	Code        string
	Genre       string
	ReleaseDate *time.Time
	Cover       []byte
	Artists     []string
	Mediums     []Medium
	Tracks      []Track
}

// FromCatalog converts a catalog lookup result. A known year becomes a
// release date on January 1st of that year; the barcode is attached to
// every format.
func FromCatalog(e *catalog.Entry) Entry {
	entry := Entry{
		Name:    e.Title,
		Genre:   e.Genre,
		Cover:   e.Cover,
		Artists: e.Artists,
	}
	if e.Year > 0 {
		d := time.Date(e.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		entry.ReleaseDate = &d
	}
	for _, f := range e.Formats {
		entry.Mediums = append(entry.Mediums, Medium{Name: f, UPC: e.UPC})
	}
	for _, t := range e.Tracks {
		entry.Tracks = append(entry.Tracks, Track{
			Name:     t.Title,
			Duration: t.Duration,
			Clean:    t.Clean,
			Artists:  t.Credits,
		})
	}
	return entry
}

// FromView converts a stored album back to an entry, for edit forms.
func FromView(v *db.AlbumView) Entry {
	entry := Entry{
		Name:        v.Name,
		Code:        v.Code,
		Genre:       v.Genre,
		ReleaseDate: v.ReleaseDate,
		Artists:     v.Artists,
	}
	for _, m := range v.Mediums {
		medium := Medium{Name: m.Name}
		if m.UPC != nil {
			medium.UPC = *m.UPC
		}
		entry.Mediums = append(entry.Mediums, medium)
	}
	for _, t := range v.Tracks {
		entry.Tracks = append(entry.Tracks, Track{
			Name:     t.Name,
			Duration: t.Duration,
			Clean:    t.Clean,
			Artists:  t.Artists,
		})
	}
	return entry
}

// Service imports entries.
type Service struct {
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger imports report to.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a new import service.
func New(opts ...Option) *Service {
	s := &Service{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddEntry creates the album, every artist, medium and track it names that
// does not exist yet, and links them. Returns the new album's id.
func (s *Service) AddEntry(ctx context.Context, store Store, e Entry) (string, error) {
	if strings.TrimSpace(e.Name) == "" {
		return "", ErrMissingName
	}

	albumID, err := store.AddAlbum(ctx, e.album(""))
	if err != nil {
		return "", fmt.Errorf("adding album: %w", err)
	}
	if err := s.link(ctx, store, albumID, e, false); err != nil {
		return "", err
	}

	s.logger.Info("album added",
		slog.String("album_id", albumID),
		slog.String("name", e.Name),
		slog.Int("tracks", len(e.Tracks)),
	)
	return albumID, nil
}

// ReplaceEntry overwrites an album's fields and replaces all of its links,
// track credits included. Tracks already in the library take the entry's
// duration and clean flag. A nil cover keeps the stored one.
func (s *Service) ReplaceEntry(ctx context.Context, store Store, albumID string, e Entry) error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrMissingName
	}

	if _, err := store.ModifyAlbum(ctx, e.album(albumID)); err != nil {
		return fmt.Errorf("modifying album: %w", err)
	}
	if e.Cover != nil {
		if err := store.SetAlbumCover(ctx, albumID, e.Cover); err != nil {
			return fmt.Errorf("setting cover: %w", err)
		}
	}
	if err := store.ClearAlbumLinks(ctx, albumID); err != nil {
		return fmt.Errorf("clearing album links: %w", err)
	}
	if err := s.link(ctx, store, albumID, e, true); err != nil {
		return err
	}

	s.logger.Info("album replaced", slog.String("album_id", albumID), slog.String("name", e.Name))
	return nil
}

func (e Entry) album(id string) db.Album {
	return db.Album{
		ID:          id,
		Name:        strings.TrimSpace(e.Name),
		Code:        strings.TrimSpace(e.Code),
		Genre:       strings.TrimSpace(e.Genre),
		Cover:       e.Cover,
		ReleaseDate: e.ReleaseDate,
	}
}

// link writes the album's join rows. Names repeated within the entry
// resolve to one id and are linked once. With syncTracks, existing tracks are
// updated to the entry's duration and clean flag.
func (s *Service) link(ctx context.Context, store Store, albumID string, e Entry, syncTracks bool) error {
	artists := map[string]string{}
	artistID := func(name string) (string, error) {
		if id, ok := artists[name]; ok {
			return id, nil
		}
		id, err := store.AddArtist(ctx, name)
		if err != nil {
			return "", fmt.Errorf("adding artist %q: %w", name, err)
		}
		artists[name] = id
		return id, nil
	}

	for _, name := range catalog.Credits(e.Artists) {
		id, err := artistID(name)
		if err != nil {
			return err
		}
		if err := store.AddAlbumArtist(ctx, albumID, id); err != nil {
			return fmt.Errorf("linking artist: %w", err)
		}
	}

	seenMedium := map[string]bool{}
	for _, m := range e.Mediums {
		name := strings.TrimSpace(m.Name)
		if name == "" || seenMedium[name] {
			continue
		}
		seenMedium[name] = true

		mediumID, err := store.AddMedium(ctx, name)
		if err != nil {
			return fmt.Errorf("adding medium %q: %w", name, err)
		}
		var upc *string
		if v := strings.TrimSpace(m.UPC); v != "" {
			upc = &v
		}
		if err := store.AddAlbumMedium(ctx, albumID, mediumID, upc); err != nil {
			return fmt.Errorf("linking medium: %w", err)
		}
	}

	number := 0
	for _, t := range e.Tracks {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		number++

		trackID, err := store.AddTrack(ctx, name, t.Duration, t.Clean)
		if err != nil {
			return fmt.Errorf("adding track %q: %w", name, err)
		}
		if syncTracks {
			if err := syncTrack(ctx, store, trackID, t); err != nil {
				return fmt.Errorf("updating track %q: %w", name, err)
			}
		}
		if err := store.AddAlbumTrack(ctx, albumID, trackID, number); err != nil {
			return fmt.Errorf("linking track: %w", err)
		}
		for _, credit := range catalog.Credits(t.Artists) {
			id, err := artistID(credit)
			if err != nil {
				return err
			}
			if err := store.AddArtistTrack(ctx, id, trackID); err != nil {
				return fmt.Errorf("crediting track: %w", err)
			}
		}
	}

	return nil
}

func syncTrack(ctx context.Context, store Store, trackID string, t Track) error {
	stored, err := store.GetTrack(ctx, trackID)
	if err != nil {
		return err
	}
	if stored.Duration == t.Duration && stored.Clean == t.Clean {
		return nil
	}
	stored.Duration, stored.Clean = t.Duration, t.Clean
	_, err = store.ModifyTrack(ctx, *stored)
	return err
}
