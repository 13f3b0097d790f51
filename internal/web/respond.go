package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/witr/library-manager/internal/auth"
)

const flashCookieName = "flash"

// pageData fills the fields every page shares.
func (s *Server) pageData(w http.ResponseWriter, r *http.Request, title string) PageData {
	user := currentUser(r)
	data := PageData{
		Title:       title,
		User:        user,
		Flash:       popFlash(w, r),
		CurrentPath: r.URL.Path,
	}
	if user != nil {
		data.CanEdit = auth.LibraryEditors.Allows(user.Role)
		data.CanManage = auth.LibraryAdmins.Allows(user.Role)
		data.IsEboard = auth.Eboard.Allows(user.Role)
	}
	return data
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.Render(w, page, data); err != nil {
		s.logger.Error("rendering template",
			slog.String("page", page),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
	}
}

// serverError logs an unexpected error and answers 500.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("error", err),
	)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// setFlash stores a message for the next rendered page.
func setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(kind + ":" + message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request) *FlashMessage {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1})

	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(value, ":")
	if !ok {
		return nil
	}
	return &FlashMessage{Type: kind, Message: message}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// pageParam reads ?page=, defaulting to 1.
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// pager builds previous and next links that keep the other query parameters.
func pager(r *http.Request, page int, hasNext bool) Pager {
	link := func(p int) string {
		q := r.URL.Query()
		q.Set("page", strconv.Itoa(p))
		return r.URL.Path + "?" + q.Encode()
	}

	p := Pager{Page: page}
	if page > 1 {
		p.PrevURL = link(page - 1)
	}
	if hasNext {
		p.NextURL = link(page + 1)
	}
	return p
}
