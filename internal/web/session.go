// Package web provides the HTTP server and pages of the library manager.
package web

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionCookieName = "session"
	sessionTTL        = 24 * time.Hour
)

// SessionManager binds a browser to a user id.
type SessionManager interface {
	Set(w http.ResponseWriter, userID string) error
	UserID(r *http.Request) (string, bool)
	Clear(w http.ResponseWriter)
}

// CookieSessions keeps the user id in an HMAC-signed JWT cookie.
// Nothing else about the user is stored client side.
type CookieSessions struct {
	secret []byte
	secure bool
	now    func() time.Time
}

var _ SessionManager = (*CookieSessions)(nil)

// NewCookieSessions creates a session manager signing with secret.
func NewCookieSessions(secret string, secure bool) *CookieSessions {
	return &CookieSessions{
		secret: []byte(secret),
		secure: secure,
		now:    time.Now,
	}
}

// Set issues a session cookie for userID.
func (s *CookieSessions) Set(w http.ResponseWriter, userID string) error {
	token, err := s.sign(userID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
	return nil
}

// UserID returns the user bound to the request's session cookie.
// Missing, tampered and expired cookies yield false.
func (s *CookieSessions) UserID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", false
	}
	id, err := s.verify(cookie.Value)
	if err != nil {
		return "", false
	}
	return id, true
}

// Clear removes the session cookie.
func (s *CookieSessions) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		MaxAge:   -1,
	})
}

func (s *CookieSessions) sign(userID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session: %w", err)
	}
	return token, nil
}

func (s *CookieSessions) verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("session has no subject")
	}
	return claims.Subject, nil
}
