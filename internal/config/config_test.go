package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setServeEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/library")
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("SAML_IDP_METADATA_URL", "https://idp.example.edu/metadata")
	t.Setenv("SAML_CERT_FILE", "sp.crt")
	t.Setenv("SAML_KEY_FILE", "sp.key")
	t.Setenv("DISCOGS_TOKEN", "tok")
	for _, k := range []string{"SAML_IDP_METADATA_FILE", "METADATA_SOURCE", "SPOTIFY_ID", "SPOTIFY_SECRET", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/library")
	t.Setenv("BASE_URL", "https://library.example.edu/")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, "https://library.example.edu", cfg.BaseURL, "trailing slash trimmed")
	assert.Equal(t, "email", cfg.SAML.EmailAttr)
	assert.Equal(t, SourceDiscogs, cfg.MetadataSource)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	assert.ErrorIs(t, err, ErrMissingDatabaseURL)
	assert.Nil(t, cfg)
}

func TestLoadBadLogLevel(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/library")
	t.Setenv("LOG_LEVEL", "chatty")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{
			name: "complete",
		},
		{
			name:    "missing secret",
			env:     map[string]string{"SECRET_KEY": ""},
			wantErr: ErrMissingSecret,
		},
		{
			name:    "missing idp metadata",
			env:     map[string]string{"SAML_IDP_METADATA_URL": ""},
			wantErr: ErrMissingIDPMetadata,
		},
		{
			name: "metadata from file",
			env:  map[string]string{"SAML_IDP_METADATA_URL": "", "SAML_IDP_METADATA_FILE": "idp.xml"},
		},
		{
			name:    "missing key",
			env:     map[string]string{"SAML_KEY_FILE": ""},
			wantErr: ErrMissingSAMLKeyPair,
		},
		{
			name:    "discogs without token",
			env:     map[string]string{"DISCOGS_TOKEN": ""},
			wantErr: ErrMissingDiscogsToken,
		},
		{
			name:    "unknown source",
			env:     map[string]string{"METADATA_SOURCE": "musicbrainz"},
			wantErr: ErrUnknownSource,
		},
		{
			name:    "spotify without credentials",
			env:     map[string]string{"METADATA_SOURCE": "Spotify"},
			wantErr: ErrMissingSpotifyCreds,
		},
		{
			name: "spotify with credentials",
			env:  map[string]string{"METADATA_SOURCE": "spotify", "SPOTIFY_ID": "id", "SPOTIFY_SECRET": "secret"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setServeEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			require.NoError(t, err)

			err = cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
