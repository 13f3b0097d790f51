package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/witr/library-manager/internal/catalog"
	"github.com/witr/library-manager/internal/db"
)

// memStore keeps names and links in memory, creating ids by lookup-or-create
// the way the database does.
type memStore struct {
	albums  map[string]db.Album
	tracks  map[string]db.Track
	ids     map[string]string // "kind:name" -> id
	names   map[string]string // id -> name
	links   map[string][]string
	numbers map[string]int
	cleared []string
	updates int
	seq     int
	failOn  string
}

func newMemStore() *memStore {
	return &memStore{
		albums:  map[string]db.Album{},
		tracks:  map[string]db.Track{},
		ids:     map[string]string{},
		names:   map[string]string{},
		links:   map[string][]string{},
		numbers: map[string]int{},
	}
}

func (m *memStore) next(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) lookupOrCreate(kind, name string) (string, error) {
	if m.failOn == kind {
		return "", errors.New("boom")
	}
	key := kind + ":" + name
	if id, ok := m.ids[key]; ok {
		return id, nil
	}
	id := m.next(kind)
	m.ids[key] = id
	m.names[id] = name
	return id, nil
}

func (m *memStore) link(table, a, b string) {
	key := table + ":" + a
	for _, existing := range m.links[key] {
		if existing == b {
			return
		}
	}
	m.links[key] = append(m.links[key], b)
}

func (m *memStore) AddAlbum(_ context.Context, a db.Album) (string, error) {
	a.ID = m.next("album")
	m.albums[a.ID] = a
	return a.ID, nil
}

func (m *memStore) ModifyAlbum(_ context.Context, a db.Album) (string, error) {
	old, ok := m.albums[a.ID]
	if !ok {
		return "", &db.Error{Reason: db.ReasonNotFound, Entity: db.EntityAlbum, Key: a.ID}
	}
	a.Cover = old.Cover
	m.albums[a.ID] = a
	return a.ID, nil
}

func (m *memStore) SetAlbumCover(_ context.Context, id string, cover []byte) error {
	a := m.albums[id]
	a.Cover = cover
	m.albums[id] = a
	return nil
}

func (m *memStore) ClearAlbumLinks(_ context.Context, albumID string) error {
	m.cleared = append(m.cleared, albumID)
	for _, trackID := range m.links["album_track:"+albumID] {
		delete(m.links, "artist_track:"+trackID)
	}
	for _, table := range []string{"album_artist", "album_medium", "album_track"} {
		delete(m.links, table+":"+albumID)
	}
	return nil
}

func (m *memStore) AddArtist(_ context.Context, name string) (string, error) {
	return m.lookupOrCreate("artist", name)
}

func (m *memStore) AddMedium(_ context.Context, name string) (string, error) {
	return m.lookupOrCreate("medium", name)
}

func (m *memStore) AddTrack(_ context.Context, name string, duration int, clean bool) (string, error) {
	id, err := m.lookupOrCreate("track", name)
	if err != nil {
		return "", err
	}
	if _, ok := m.tracks[id]; !ok {
		m.tracks[id] = db.Track{ID: id, Name: name, Duration: duration, Clean: clean}
	}
	return id, nil
}

func (m *memStore) GetTrack(_ context.Context, id string) (*db.Track, error) {
	t, ok := m.tracks[id]
	if !ok {
		return nil, &db.Error{Reason: db.ReasonNotFound, Entity: db.EntityTrack, Key: id}
	}
	return &t, nil
}

func (m *memStore) ModifyTrack(_ context.Context, t db.Track) (string, error) {
	if _, ok := m.tracks[t.ID]; !ok {
		return "", &db.Error{Reason: db.ReasonNotFound, Entity: db.EntityTrack, Key: t.ID}
	}
	m.updates++
	m.tracks[t.ID] = t
	return t.ID, nil
}

func (m *memStore) AddAlbumArtist(_ context.Context, albumID, artistID string) error {
	m.link("album_artist", albumID, artistID)
	return nil
}

func (m *memStore) AddAlbumMedium(_ context.Context, albumID, mediumID string, upc *string) error {
	v := mediumID
	if upc != nil {
		v += "=" + *upc
	}
	m.link("album_medium", albumID, v)
	return nil
}

func (m *memStore) AddAlbumTrack(_ context.Context, albumID, trackID string, number int) error {
	m.link("album_track", albumID, trackID)
	if _, ok := m.numbers[trackID]; !ok {
		m.numbers[trackID] = number
	}
	return nil
}

func (m *memStore) AddArtistTrack(_ context.Context, artistID, trackID string) error {
	m.link("artist_track", trackID, artistID)
	return nil
}

// namesOf resolves the ids linked to key.
func (m *memStore) namesOf(key string) []string {
	var out []string
	for _, id := range m.links[key] {
		out = append(out, m.names[id])
	}
	return out
}

func quietService() *Service {
	return New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestAddEntryLinksEverything(t *testing.T) {
	store := newMemStore()
	entry := Entry{
		Name:    "Remain in Light",
		Genre:   "Rock",
		Artists: []string{"Talking Heads", "Talking Heads"},
		Mediums: []Medium{{Name: "CD", UPC: "075992609522"}, {Name: "Vinyl"}},
		Tracks: []Track{
			{Name: "Born Under Punches", Duration: 346, Artists: []string{"Talking Heads"}},
			{Name: "Crosseyed and Painless", Duration: 287, Artists: []string{"Talking Heads", "Brian Eno"}},
			{Name: "The Great Curve", Duration: 386},
		},
	}

	albumID, err := quietService().AddEntry(context.Background(), store, entry)
	require.NoError(t, err)

	assert.Equal(t, []string{"Talking Heads"}, store.namesOf("album_artist:"+albumID), "album artist linked once")
	wantTracks := []string{"Born Under Punches", "Crosseyed and Painless", "The Great Curve"}
	assert.Equal(t, wantTracks, store.namesOf("album_track:"+albumID))
	for i, name := range wantTracks {
		assert.Equal(t, i+1, store.numbers[store.ids["track:"+name]], "number of %q", name)
	}

	crosseyed := store.ids["track:Crosseyed and Painless"]
	assert.Equal(t, []string{"Talking Heads", "Brian Eno"}, store.namesOf("artist_track:"+crosseyed))

	want := []string{store.ids["medium:CD"] + "=075992609522", store.ids["medium:Vinyl"]}
	assert.Equal(t, want, store.links["album_medium:"+albumID])
}

func TestAddEntryReusesExistingNames(t *testing.T) {
	store := newMemStore()
	svc := quietService()
	entry := Entry{Name: "A", Artists: []string{"X"}, Tracks: []Track{{Name: "Intro"}}}

	first, err := svc.AddEntry(context.Background(), store, entry)
	require.NoError(t, err)
	second, err := svc.AddEntry(context.Background(), store, entry)
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "albums have no natural key")
	assert.Equal(t, store.links["album_artist:"+first][0], store.links["album_artist:"+second][0],
		"both albums link the same artist row")
}

func TestAddEntryKeepsExistingTrackFields(t *testing.T) {
	store := newMemStore()
	svc := quietService()

	_, err := svc.AddEntry(context.Background(), store, Entry{Name: "A", Tracks: []Track{{Name: "Intro", Duration: 60, Clean: true}}})
	require.NoError(t, err)
	_, err = svc.AddEntry(context.Background(), store, Entry{Name: "B", Tracks: []Track{{Name: "Intro", Duration: 90}}})
	require.NoError(t, err)

	intro := store.tracks[store.ids["track:Intro"]]
	assert.Equal(t, 60, intro.Duration)
	assert.True(t, intro.Clean)
	assert.Zero(t, store.updates)
}

func TestAddEntryRequiresName(t *testing.T) {
	store := newMemStore()

	_, err := quietService().AddEntry(context.Background(), store, Entry{Name: "  "})
	assert.ErrorIs(t, err, ErrMissingName)
	assert.Empty(t, store.albums, "no album without a name")
}

func TestAddEntryPropagatesStoreError(t *testing.T) {
	store := newMemStore()
	store.failOn = "track"

	_, err := quietService().AddEntry(context.Background(), store, Entry{Name: "A", Tracks: []Track{{Name: "T"}}})
	assert.Error(t, err)
}

func TestReplaceEntry(t *testing.T) {
	store := newMemStore()
	svc := quietService()

	id, err := svc.AddEntry(context.Background(), store, Entry{
		Name:    "Old",
		Cover:   []byte("old-cover"),
		Artists: []string{"Old Artist"},
		Tracks:  []Track{{Name: "Old Track"}},
	})
	require.NoError(t, err)

	err = svc.ReplaceEntry(context.Background(), store, id, Entry{
		Name:    "New",
		Artists: []string{"New Artist"},
		Tracks:  []Track{{Name: "New Track"}},
	})
	require.NoError(t, err)

	got := store.albums[id]
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, "old-cover", string(got.Cover), "nil cover keeps the stored one")
	assert.Equal(t, []string{"New Artist"}, store.namesOf("album_artist:"+id))
	assert.Equal(t, []string{"New Track"}, store.namesOf("album_track:"+id))
}

func TestReplaceEntryUpdatesTracks(t *testing.T) {
	store := newMemStore()
	svc := quietService()

	id, err := svc.AddEntry(context.Background(), store, Entry{
		Name: "Mezzanine",
		Tracks: []Track{
			{Name: "Angel", Duration: 379, Artists: []string{"Massive Attack", "Horace Andy"}},
			{Name: "Teardrop", Duration: 330, Clean: true, Artists: []string{"Massive Attack"}},
		},
	})
	require.NoError(t, err)

	err = svc.ReplaceEntry(context.Background(), store, id, Entry{
		Name: "Mezzanine",
		Tracks: []Track{
			{Name: "Angel", Duration: 380, Clean: true, Artists: []string{"Massive Attack"}},
			{Name: "Teardrop", Duration: 330, Clean: true, Artists: []string{"Massive Attack"}},
		},
	})
	require.NoError(t, err)

	angelID := store.ids["track:Angel"]
	angel := store.tracks[angelID]
	assert.Equal(t, 380, angel.Duration)
	assert.True(t, angel.Clean)
	assert.Equal(t, []string{"Massive Attack"}, store.namesOf("artist_track:"+angelID), "dropped credit is gone")
	assert.Equal(t, 1, store.updates, "unchanged tracks are not rewritten")
}

func TestReplaceEntryMissingAlbum(t *testing.T) {
	store := newMemStore()

	err := quietService().ReplaceEntry(context.Background(), store, "nope", Entry{Name: "X"})
	assert.True(t, db.IsNotFoundFor(err, db.EntityAlbum), "got %v", err)
	assert.Empty(t, store.cleared, "links stay for a missing album")
}

func TestFromCatalog(t *testing.T) {
	entry := FromCatalog(&catalog.Entry{
		UPC:     "123",
		Title:   "Tago Mago",
		Artists: []string{"Can"},
		Year:    1971,
		Formats: []string{"CD", "Vinyl"},
		Tracks:  []catalog.Track{{Title: "Paperhouse", Duration: 449, Credits: []string{"Can"}}},
	})

	require.NotNil(t, entry.ReleaseDate)
	assert.True(t, entry.ReleaseDate.Equal(time.Date(1971, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, []Medium{{"CD", "123"}, {"Vinyl", "123"}}, entry.Mediums)
	require.Len(t, entry.Tracks, 1)
	assert.Equal(t, 449, entry.Tracks[0].Duration)

	assert.Nil(t, FromCatalog(&catalog.Entry{Title: "Undated"}).ReleaseDate)
}

func TestFromView(t *testing.T) {
	upc := "999"
	view := &db.AlbumView{
		Album:   db.Album{Name: "X", Code: "X01"},
		Artists: []string{"A"},
		Mediums: []db.AlbumMedium{{Name: "CD", UPC: &upc}, {Name: "Cassette"}},
		Tracks:  []db.AlbumTrack{{Track: db.Track{Name: "One", Duration: 60, Clean: true}, Number: 1, Artists: []string{"A"}}},
	}

	entry := FromView(view)

	assert.Equal(t, []Medium{{"CD", "999"}, {"Cassette", ""}}, entry.Mediums)
	require.Len(t, entry.Tracks, 1)
	assert.True(t, entry.Tracks[0].Clean)
	assert.Equal(t, 60, entry.Tracks[0].Duration)
}

func TestParseForm(t *testing.T) {
	form := url.Values{
		"name":           {" Blue Lines "},
		"code":           {"MA01"},
		"genre":          {"Electronic"},
		"release_date":   {"1991-04-08"},
		"artists":        {"Massive Attack\r\n\r\nShara Nelson"},
		"medium_name":    {"CD", "Vinyl"},
		"medium_upc":     {"724386207726"},
		"track_name":     {"Safe from Harm", "", "Unfinished Sympathy"},
		"track_duration": {"5:18", "", "5:08"},
		"track_clean":    {"yes", "no", "no"},
		"track_artists":  {"Massive Attack; Shara Nelson", "", "Massive Attack"},
	}

	e, err := ParseForm(form)
	require.NoError(t, err)

	assert.Equal(t, "Blue Lines", e.Name)
	assert.Equal(t, "MA01", e.Code)
	assert.Equal(t, "Electronic", e.Genre)
	require.NotNil(t, e.ReleaseDate)
	assert.Equal(t, 1991, e.ReleaseDate.Year())
	assert.Equal(t, []string{"Massive Attack", "Shara Nelson"}, e.Artists)
	assert.Equal(t, []Medium{{"CD", "724386207726"}, {"Vinyl", ""}}, e.Mediums)

	want := []Track{
		{Name: "Safe from Harm", Duration: 318, Clean: true, Artists: []string{"Massive Attack", "Shara Nelson"}},
		{Name: "Unfinished Sympathy", Duration: 308, Artists: []string{"Massive Attack"}},
	}
	assert.Equal(t, want, e.Tracks)
}

func TestParseFormErrors(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"missing name", url.Values{"name": {""}}},
		{"bad date", url.Values{"name": {"A"}, "release_date": {"04/08/1991"}}},
		{"bad duration", url.Values{"name": {"A"}, "track_name": {"T"}, "track_duration": {"five"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseForm(tt.form)
			assert.ErrorIs(t, err, ErrInvalidForm)
		})
	}
}
