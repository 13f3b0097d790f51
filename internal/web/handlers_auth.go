package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/witr/library-manager/internal/auth"
)

// Login starts single sign-on (GET /login).
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		redirect(w, r, "/")
		return
	}
	s.idp.StartLogin(w, r)
}

// AssertionConsumer finishes single sign-on (POST /saml/acs). Only invited
// emails get a session; a first login creates the user as a member.
func (s *Server) AssertionConsumer(w http.ResponseWriter, r *http.Request) {
	identity, err := s.idp.Identity(w, r)
	if err != nil {
		s.logger.Warn("rejected SAML response", slog.Any("error", err))
		setFlash(w, "error", "Sign-in failed.")
		redirect(w, r, "/")
		return
	}

	userID, err := auth.Login(r.Context(), queries(r), identity)
	if errors.Is(err, auth.ErrNotInvited) {
		s.logger.Info("uninvited sign-in", slog.String("email", identity.Email))
		setFlash(w, "error", "Your account has not been invited.")
		redirect(w, r, "/")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	if err := s.sessions.Set(w, userID); err != nil {
		s.serverError(w, r, err)
		return
	}
	redirect(w, r, "/")
}

// Logout clears the session (GET /logout, /saml/sls).
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	redirect(w, r, "/")
}
