package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/witr/library-manager/internal/auth"
	"github.com/witr/library-manager/internal/catalog"
	"github.com/witr/library-manager/internal/config"
	"github.com/witr/library-manager/internal/db"
	"github.com/witr/library-manager/internal/discogs"
	"github.com/witr/library-manager/internal/library"
	"github.com/witr/library-manager/internal/spotify"
	"github.com/witr/library-manager/internal/web"
	assets "github.com/witr/library-manager/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := slog.Default()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	idp, err := auth.NewServiceProvider(ctx, auth.SPConfig{
		RootURL:         cfg.BaseURL,
		CertFile:        cfg.SAML.CertFile,
		KeyFile:         cfg.SAML.KeyFile,
		IDPMetadataURL:  cfg.SAML.IDPMetadataURL,
		IDPMetadataFile: cfg.SAML.IDPMetadataFile,
		Attributes: auth.AttributeNames{
			Email:     cfg.SAML.EmailAttr,
			FirstName: cfg.SAML.FirstNameAttr,
			LastName:  cfg.SAML.LastNameAttr,
		},
	})
	if err != nil {
		return fmt.Errorf("setting up SAML: %w", err)
	}

	source := metadataSource(ctx, cfg)
	logger.Info("metadata source ready", slog.String("source", cfg.MetadataSource))

	templates, err := fs.Sub(assets.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}
	static, err := fs.Sub(assets.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:        cfg.Addr,
		DB:          database,
		IdP:         idp,
		Sessions:    web.NewCookieSessions(cfg.SecretKey, cfg.SecureCookies),
		Lookup:      catalog.NewLookup(source, logger),
		Library:     library.New(library.WithLogger(logger)),
		TemplatesFS: templates,
		StaticFS:    static,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

func metadataSource(ctx context.Context, cfg *config.Config) catalog.Source {
	switch cfg.MetadataSource {
	case config.SourceSpotify:
		return spotify.NewClient(ctx, spotify.Config{
			ClientID:     cfg.SpotifyID,
			ClientSecret: cfg.SpotifySecret,
		})
	default:
		return discogs.NewClient(discogs.Config{
			Token:  cfg.DiscogsToken,
			Secret: cfg.DiscogsSecret,
		})
	}
}
