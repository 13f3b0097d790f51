package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/witr/library-manager/internal/auth"
	"github.com/witr/library-manager/internal/db"
)

// Acquirer hands out a connection for the lifetime of one request.
// *db.DB satisfies it.
type Acquirer interface {
	Acquire(ctx context.Context) (*db.Queries, func(), error)
}

var _ Acquirer = (*db.DB)(nil)

type contextKey int

const (
	queriesKey contextKey = iota
	userKey
)

// queries returns the request's connection. Only valid behind withConn.
func queries(r *http.Request) *db.Queries {
	return r.Context().Value(queriesKey).(*db.Queries)
}

// currentUser returns the signed-in user, or nil.
func currentUser(r *http.Request) *db.User {
	u, _ := r.Context().Value(userKey).(*db.User)
	return u
}

// withConn acquires a pooled connection and releases it when the request
// finishes, whether the handler returns or panics.
func (s *Server) withConn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q, release, err := s.db.Acquire(r.Context())
		if err != nil {
			s.logger.Error("acquiring connection", slog.Any("error", err))
			http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
			return
		}
		defer release()

		ctx := context.WithValue(r.Context(), queriesKey, q)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loadUser resolves the session to a user row on the request's connection.
// A session naming a user that no longer exists is cleared.
func (s *Server) loadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.sessions.UserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, err := queries(r).GetUser(r.Context(), id)
		if errors.Is(err, db.ErrNotFound) {
			s.sessions.Clear(w)
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole lets through users whose role is in roles. Anonymous requests
// are sent to sign in; other roles are sent home before the handler runs.
func requireRole(roles auth.RoleSet) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := currentUser(r)
			if user == nil {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if !roles.Allows(user.Role) {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
