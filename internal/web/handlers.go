package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/witr/library-manager/internal/auth"
	"github.com/witr/library-manager/internal/db"
)

// Home searches the library (GET /, /home). Empty filters list everything.
func (s *Server) Home(w http.ResponseWriter, r *http.Request) {
	filter := filterParams(r)
	page := pageParam(r)

	albums, hasNext, err := queries(r).SearchLibrary(r.Context(), filter, page)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "home", HomePageData{
		PageData: s.pageData(w, r, "Library"),
		Filter:   filter,
		Albums:   albums,
		Pager:    pager(r, page, hasNext),
	})
}

func filterParams(r *http.Request) db.LibraryFilter {
	q := r.URL.Query()
	return db.LibraryFilter{
		Album:  strings.TrimSpace(q.Get("album")),
		Artist: strings.TrimSpace(q.Get("artist")),
		Genre:  strings.TrimSpace(q.Get("genre")),
		Track:  strings.TrimSpace(q.Get("track")),
	}
}

// Album shows one album and its reviews (GET /albums/{albumID}).
// Library admins also see hidden reviews.
func (s *Server) Album(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := queries(r)
	user := currentUser(r)
	albumID := chi.URLParam(r, "albumID")

	album, err := q.GetAlbum(ctx, albumID)
	if errors.Is(err, db.ErrNotFound) {
		redirect(w, r, "/")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	reviews, err := q.AlbumReviews(ctx, albumID, auth.LibraryAdmins.Allows(user.Role))
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	guidelines, err := q.GetParameter(ctx, db.ParamReviewGuidelines)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "album", AlbumPageData{
		PageData:   s.pageData(w, r, album.Name),
		Album:      album,
		Reviews:    reviews,
		Guidelines: guidelines,
	})
}

// AlbumCover serves an album's cover image (GET /albums/{albumID}/cover).
func (s *Server) AlbumCover(w http.ResponseWriter, r *http.Request) {
	cover, err := queries(r).AlbumCover(r.Context(), chi.URLParam(r, "albumID"))
	if errors.Is(err, db.ErrNotFound) || (err == nil && len(cover) == 0) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(cover))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = w.Write(cover)
}

// AddReview posts a review of an album (POST /albums/{albumID}/reviews).
func (s *Server) AddReview(w http.ResponseWriter, r *http.Request) {
	albumID := chi.URLParam(r, "albumID")
	back := "/albums/" + albumID

	body := strings.TrimSpace(r.PostFormValue("body"))
	if body == "" {
		setFlash(w, "error", "A review cannot be empty.")
		redirect(w, r, back)
		return
	}

	_, err := queries(r).AddReview(r.Context(), currentUser(r).ID, albumID, body)
	switch {
	case db.IsNotFoundFor(err, db.EntityAlbum):
		redirect(w, r, "/")
	case errors.Is(err, db.ErrAlreadyExists):
		setFlash(w, "error", "You already submitted this review.")
		redirect(w, r, back)
	case err != nil:
		s.serverError(w, r, err)
	default:
		setFlash(w, "success", "Review posted.")
		redirect(w, r, back)
	}
}

// ReviewManager lists the signed-in user's reviews (GET /review_manager).
func (s *Server) ReviewManager(w http.ResponseWriter, r *http.Request) {
	reviews, err := queries(r).UserReviews(r.Context(), currentUser(r).ID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "review_manager", ReviewManagerPageData{
		PageData: s.pageData(w, r, "My reviews"),
		Reviews:  reviews,
	})
}

// EditReview changes or deletes one of the user's own reviews
// (POST /reviews/{reviewID}). Other users' reviews are left untouched.
func (s *Server) EditReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := queries(r)
	reviewID := chi.URLParam(r, "reviewID")

	review, err := q.GetReview(ctx, reviewID)
	if errors.Is(err, db.ErrNotFound) {
		redirect(w, r, "/review_manager")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if review.UserID != currentUser(r).ID {
		redirect(w, r, "/")
		return
	}

	if r.PostFormValue("action") == "delete" {
		err = q.RemoveReview(ctx, reviewID)
	} else {
		body := strings.TrimSpace(r.PostFormValue("body"))
		if body == "" {
			setFlash(w, "error", "A review cannot be empty.")
			redirect(w, r, "/review_manager")
			return
		}
		err = q.ModifyReview(ctx, reviewID, body)
	}
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		s.serverError(w, r, err)
		return
	}

	setFlash(w, "success", "Review saved.")
	redirect(w, r, "/review_manager")
}
