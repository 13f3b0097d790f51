package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/witr/library-manager/internal/auth"
	"github.com/witr/library-manager/internal/catalog"
	"github.com/witr/library-manager/internal/library"
)

// IdentityProvider is the SAML side of signing in. *auth.ServiceProvider satisfies it.
type IdentityProvider interface {
	ServeMetadata(w http.ResponseWriter, r *http.Request)
	StartLogin(w http.ResponseWriter, r *http.Request)
	Identity(w http.ResponseWriter, r *http.Request) (auth.Identity, error)
}

var _ IdentityProvider = (*auth.ServiceProvider)(nil)

// MetadataLookup finds release metadata. *catalog.Lookup satisfies it.
type MetadataLookup interface {
	ByUPC(ctx context.Context, upc string) *catalog.Entry
	ByRelease(ctx context.Context, id string) *catalog.Entry
}

var _ MetadataLookup = (*catalog.Lookup)(nil)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	DB          Acquirer
	IdP         IdentityProvider
	Sessions    SessionManager
	Lookup      MetadataLookup
	Library     *library.Service
	TemplatesFS fs.FS
	StaticFS    fs.FS
	Logger      *slog.Logger
}

// Server is the HTTP server for the web application.
type Server struct {
	router    chi.Router
	server    *http.Server
	templates *Templates
	db        Acquirer
	idp       IdentityProvider
	sessions  SessionManager
	lookup    MetadataLookup
	library   *library.Service
	logger    *slog.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lib := cfg.Library
	if lib == nil {
		lib = library.New(library.WithLogger(logger))
	}

	s := &Server{
		router:    chi.NewRouter(),
		templates: templates,
		db:        cfg.DB,
		idp:       cfg.IdP,
		sessions:  cfg.Sessions,
		lookup:    cfg.Lookup,
		library:   lib,
		logger:    logger,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// ServeHTTP makes the server usable as a handler in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes(staticFS fs.FS) {
	fileServer := http.FileServer(http.FS(staticFS))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.Get("/saml/metadata", s.idp.ServeMetadata)

	s.router.Group(func(r chi.Router) {
		r.Use(s.withConn, s.loadUser)

		r.Get("/", s.Home)
		r.Get("/home", s.Home)

		r.Get("/login", s.Login)
		r.Post("/saml/acs", s.AssertionConsumer)
		r.Get("/logout", s.Logout)
		r.HandleFunc("/saml/sls", s.Logout)
		r.HandleFunc("/saml/slo", s.Logout)

		r.Group(func(r chi.Router) {
			r.Use(requireRole(auth.Members))
			r.Get("/albums/{albumID}", s.Album)
			r.Get("/albums/{albumID}/cover", s.AlbumCover)
			r.Post("/albums/{albumID}/reviews", s.AddReview)
			r.Get("/review_manager", s.ReviewManager)
			r.Post("/reviews/{reviewID}", s.EditReview)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(auth.LibraryEditors))
			r.Get("/library/new", s.NewAlbum)
			r.Get("/library/albums/{albumID}/edit", s.EditAlbum)
			r.Post("/library/albums", s.CreateAlbum)
			r.Post("/library/albums/{albumID}", s.UpdateAlbum)
			r.Get("/library/lookup", s.Lookup)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(auth.LibraryAdmins))
			r.Get("/manage_library", s.ManageLibrary)
			r.Post("/library/albums/{albumID}/delete", s.DeleteAlbum)
			r.Get("/manage_reviews", s.ManageReviews)
			r.Post("/manage_reviews/{reviewID}/{action}", s.ModerateReview)
			r.Get("/manage_other", s.ManageOther)
			r.Post("/manage_other", s.SetParameter)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireRole(auth.Eboard))
			r.Get("/review_statistics", s.ReviewStatistics)
			r.Get("/manage_users", s.ManageUsers)
			r.Post("/manage_users/invites", s.AddInvite)
			r.Post("/manage_users/invites/delete", s.RemoveInvite)
			r.Post("/manage_users/{userID}/role", s.SetRole)
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
