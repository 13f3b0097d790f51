package web

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/witr/library-manager/internal/catalog"
	"github.com/witr/library-manager/internal/db"
	"github.com/witr/library-manager/internal/library"
)

// maxCoverSize bounds the album form upload.
const maxCoverSize = 10 << 20

// ManageLibrary lists albums with edit and delete actions (GET /manage_library).
func (s *Server) ManageLibrary(w http.ResponseWriter, r *http.Request) {
	filter := filterParams(r)
	page := pageParam(r)

	albums, hasNext, err := queries(r).SearchLibrary(r.Context(), filter, page)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "manage_library", HomePageData{
		PageData: s.pageData(w, r, "Manage library"),
		Filter:   filter,
		Albums:   albums,
		Pager:    pager(r, page, hasNext),
	})
}

// NewAlbum shows an empty album form (GET /library/new). With ?upc= or
// ?release= the form is prefilled from the metadata catalog.
func (s *Server) NewAlbum(w http.ResponseWriter, r *http.Request) {
	data := AlbumFormPageData{
		PageData: s.pageData(w, r, "Add album"),
		Action:   "/library/albums",
		Genres:   s.genres(r),
	}

	upc, release := strings.TrimSpace(r.URL.Query().Get("upc")), strings.TrimSpace(r.URL.Query().Get("release"))
	if upc != "" || release != "" {
		if entry := s.lookupEntry(r, upc, release); entry != nil {
			data.Entry = library.FromCatalog(entry)
		} else {
			data.Missing = true
		}
		data.Lookup = upc + release
	}

	s.render(w, r, http.StatusOK, "album_form", data)
}

// EditAlbum shows the form for an existing album (GET /library/albums/{albumID}/edit).
func (s *Server) EditAlbum(w http.ResponseWriter, r *http.Request) {
	albumID := chi.URLParam(r, "albumID")

	album, err := queries(r).GetAlbum(r.Context(), albumID)
	if errors.Is(err, db.ErrNotFound) {
		redirect(w, r, "/")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "album_form", AlbumFormPageData{
		PageData: s.pageData(w, r, "Edit "+album.Name),
		Action:   "/library/albums/" + albumID,
		Entry:    library.FromView(album),
		Genres:   s.genres(r),
	})
}

// CreateAlbum adds an album from the form (POST /library/albums).
func (s *Server) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	entry, err := parseAlbumForm(r)
	if err != nil {
		s.invalidAlbumForm(w, r, "/library/albums", entry, err)
		return
	}

	albumID, err := s.library.AddEntry(r.Context(), queries(r), entry)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	setFlash(w, "success", "Album added.")
	redirect(w, r, "/albums/"+albumID)
}

// UpdateAlbum replaces an album from the form (POST /library/albums/{albumID}).
func (s *Server) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	albumID := chi.URLParam(r, "albumID")

	entry, err := parseAlbumForm(r)
	if err != nil {
		s.invalidAlbumForm(w, r, "/library/albums/"+albumID, entry, err)
		return
	}

	err = s.library.ReplaceEntry(r.Context(), queries(r), albumID, entry)
	if db.IsNotFoundFor(err, db.EntityAlbum) {
		redirect(w, r, "/")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	setFlash(w, "success", "Album saved.")
	redirect(w, r, "/albums/"+albumID)
}

func (s *Server) invalidAlbumForm(w http.ResponseWriter, r *http.Request, action string, entry library.Entry, err error) {
	if !errors.Is(err, library.ErrInvalidForm) {
		s.serverError(w, r, err)
		return
	}
	data := AlbumFormPageData{
		PageData: s.pageData(w, r, "Album"),
		Action:   action,
		Entry:    entry,
		Genres:   s.genres(r),
	}
	data.Flash = &FlashMessage{Type: "error", Message: err.Error()}
	s.render(w, r, http.StatusBadRequest, "album_form", data)
}

// DeleteAlbum removes an album and its reviews (POST /library/albums/{albumID}/delete).
func (s *Server) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	err := queries(r).RemoveAlbum(r.Context(), chi.URLParam(r, "albumID"))
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		s.serverError(w, r, err)
		return
	}
	setFlash(w, "success", "Album deleted.")
	redirect(w, r, "/manage_library")
}

// lookupResponse is the JSON form of a catalog entry.
type lookupResponse struct {
	UPC     string        `json:"upc"`
	Title   string        `json:"title"`
	Artists []string      `json:"artists"`
	Genre   string        `json:"genre"`
	Year    int           `json:"year,omitempty"`
	Formats []string      `json:"formats"`
	Cover   string        `json:"cover,omitempty"` // base64
	Tracks  []lookupTrack `json:"tracks"`
}

type lookupTrack struct {
	Title    string   `json:"title"`
	Duration string   `json:"duration"`
	Clean    bool     `json:"clean"`
	Credits  []string `json:"credits"`
}

// Lookup queries the metadata catalog (GET /library/lookup?upc= or ?release=).
func (s *Server) Lookup(w http.ResponseWriter, r *http.Request) {
	upc, release := strings.TrimSpace(r.URL.Query().Get("upc")), strings.TrimSpace(r.URL.Query().Get("release"))
	switch {
	case upc == "" && release == "":
		jsonError(w, http.StatusBadRequest, "upc or release is required")
		return
	case upc != "" && release != "":
		jsonError(w, http.StatusBadRequest, "give either upc or release, not both")
		return
	}

	entry := s.lookupEntry(r, upc, release)
	if entry == nil {
		jsonError(w, http.StatusNotFound, "no matching release")
		return
	}

	resp := lookupResponse{
		UPC:     entry.UPC,
		Title:   entry.Title,
		Artists: entry.Artists,
		Genre:   entry.Genre,
		Year:    entry.Year,
		Formats: entry.Formats,
	}
	if len(entry.Cover) > 0 {
		resp.Cover = base64.StdEncoding.EncodeToString(entry.Cover)
	}
	for _, t := range entry.Tracks {
		resp.Tracks = append(resp.Tracks, lookupTrack{
			Title:    t.Title,
			Duration: catalog.FormatDuration(t.Duration),
			Clean:    t.Clean,
			Credits:  t.Credits,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) lookupEntry(r *http.Request, upc, release string) *catalog.Entry {
	if s.lookup == nil {
		return nil
	}
	if upc != "" {
		return s.lookup.ByUPC(r.Context(), upc)
	}
	return s.lookup.ByRelease(r.Context(), release)
}

// genres reads the configured genre list. Failures leave it empty.
func (s *Server) genres(r *http.Request) []string {
	value, err := queries(r).GetParameter(r.Context(), db.ParamGenres)
	if err != nil {
		return nil
	}
	return catalog.Credits(strings.Split(value, "\n"))
}

// parseAlbumForm reads the album form and its cover. An uploaded file wins
// over a cover carried along from a catalog lookup.
func parseAlbumForm(r *http.Request) (library.Entry, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxCoverSize); err != nil {
			return library.Entry{}, fmt.Errorf("%w: %w", library.ErrInvalidForm, err)
		}
	} else if err := r.ParseForm(); err != nil {
		return library.Entry{}, fmt.Errorf("%w: %w", library.ErrInvalidForm, err)
	}

	entry, err := library.ParseForm(r.PostForm)
	if err != nil {
		return entry, err
	}

	if file, _, err := r.FormFile("cover"); err == nil {
		defer file.Close()
		cover, err := io.ReadAll(io.LimitReader(file, maxCoverSize))
		if err != nil {
			return entry, fmt.Errorf("reading cover: %w", err)
		}
		if len(cover) > 0 {
			entry.Cover = cover
		}
	}
	if entry.Cover == nil {
		if encoded := r.PostFormValue("cover_data"); encoded != "" {
			cover, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil {
				return entry, fmt.Errorf("%w: cover data", library.ErrInvalidForm)
			}
			entry.Cover = cover
		}
	}
	return entry, nil
}
