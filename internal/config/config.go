// Package config reads the library manager's settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Sentinel errors for missing or malformed settings.
var (
	ErrMissingDatabaseURL  = errors.New("missing DATABASE_URL environment variable")
	ErrMissingSecret       = errors.New("missing SECRET_KEY environment variable")
	ErrMissingIDPMetadata  = errors.New("missing SAML_IDP_METADATA_URL or SAML_IDP_METADATA_FILE environment variable")
	ErrMissingSAMLKeyPair  = errors.New("missing SAML_CERT_FILE or SAML_KEY_FILE environment variable")
	ErrUnknownSource       = errors.New("METADATA_SOURCE must be discogs or spotify")
	ErrMissingSpotifyCreds = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET environment variable")
	ErrMissingDiscogsToken = errors.New("missing DISCOGS_TOKEN environment variable")
)

// Metadata sources.
const (
	SourceDiscogs = "discogs"
	SourceSpotify = "spotify"
)

// Config holds every setting of the application.
type Config struct {
	Addr          string
	BaseURL       string
	DatabaseURL   string
	SecretKey     string
	SecureCookies bool

	SAML SAMLConfig

	MetadataSource string
	DiscogsToken   string
	DiscogsSecret  string
	SpotifyID      string
	SpotifySecret  string

	LogLevel  slog.Level
	LogFormat string
}

// SAMLConfig holds the service provider settings.
type SAMLConfig struct {
	IDPMetadataURL  string
	IDPMetadataFile string
	CertFile        string
	KeyFile         string
	EmailAttr       string
	FirstNameAttr   string
	LastNameAttr    string
}

// Load reads configuration from the environment. Only DATABASE_URL is
// required here; Validate checks what serving needs.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:          getenv("ADDR", "127.0.0.1:8080"),
		BaseURL:       strings.TrimRight(getenv("BASE_URL", "http://127.0.0.1:8080"), "/"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SecretKey:     os.Getenv("SECRET_KEY"),
		SecureCookies: getbool("SECURE_COOKIES"),
		SAML: SAMLConfig{
			IDPMetadataURL:  os.Getenv("SAML_IDP_METADATA_URL"),
			IDPMetadataFile: os.Getenv("SAML_IDP_METADATA_FILE"),
			CertFile:        os.Getenv("SAML_CERT_FILE"),
			KeyFile:         os.Getenv("SAML_KEY_FILE"),
			EmailAttr:       getenv("SAML_EMAIL_ATTR", "email"),
			FirstNameAttr:   getenv("SAML_FIRST_NAME_ATTR", "first_name"),
			LastNameAttr:    getenv("SAML_LAST_NAME_ATTR", "last_name"),
		},
		MetadataSource: strings.ToLower(getenv("METADATA_SOURCE", SourceDiscogs)),
		DiscogsToken:   os.Getenv("DISCOGS_TOKEN"),
		DiscogsSecret:  os.Getenv("DISCOGS_SECRET"),
		SpotifyID:      os.Getenv("SPOTIFY_ID"),
		SpotifySecret:  os.Getenv("SPOTIFY_SECRET"),
		LogFormat:      strings.ToLower(getenv("LOG_FORMAT", "text")),
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the web server needs on top of Load.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return ErrMissingSecret
	}
	if c.SAML.IDPMetadataURL == "" && c.SAML.IDPMetadataFile == "" {
		return ErrMissingIDPMetadata
	}
	if c.SAML.CertFile == "" || c.SAML.KeyFile == "" {
		return ErrMissingSAMLKeyPair
	}
	switch c.MetadataSource {
	case SourceDiscogs:
		if c.DiscogsToken == "" {
			return ErrMissingDiscogsToken
		}
	case SourceSpotify:
		if c.SpotifyID == "" || c.SpotifySecret == "" {
			return ErrMissingSpotifyCreds
		}
	default:
		return ErrUnknownSource
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getbool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}
