// Package spotify looks up albums in the Spotify Web API catalog.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/witr/library-manager/internal/catalog"
)

// Config holds the application's client credentials.
type Config struct {
	ClientID     string
	ClientSecret string
}

// Client wraps the Spotify API client. It satisfies catalog.Source.
type Client struct {
	api        *spotify.Client
	httpClient *http.Client
}

var _ catalog.Source = (*Client)(nil)

// NewClient creates a client authenticated with the client credentials flow.
// Tokens are fetched lazily and refreshed by the oauth2 transport.
func NewClient(ctx context.Context, cfg Config) *Client {
	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return New(spotify.New(creds.Client(ctx), spotify.WithRetry(true)))
}

// New wraps an already authenticated Spotify client.
func New(api *spotify.Client) *Client {
	return &Client{
		api:        api,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ByUPC searches for the album carrying barcode upc.
func (c *Client) ByUPC(ctx context.Context, upc string) (*catalog.Entry, error) {
	result, err := c.api.Search(ctx, "upc:"+upc, spotify.SearchTypeAlbum, spotify.Limit(1))
	if err != nil {
		return nil, fmt.Errorf("searching upc: %w", err)
	}
	if result.Albums == nil || len(result.Albums.Albums) == 0 {
		return nil, catalog.ErrNoMatch
	}

	entry, err := c.album(ctx, result.Albums.Albums[0].ID)
	if err != nil {
		return nil, err
	}
	if entry.UPC == "" {
		entry.UPC = upc
	}
	return entry, nil
}

// ByRelease fetches an album by its Spotify id or "spotify:album:" URI.
func (c *Client) ByRelease(ctx context.Context, id string) (*catalog.Entry, error) {
	id = strings.TrimPrefix(strings.TrimSpace(id), "spotify:album:")
	if id == "" {
		return nil, catalog.ErrNoMatch
	}
	return c.album(ctx, spotify.ID(id))
}

func (c *Client) album(ctx context.Context, id spotify.ID) (*catalog.Entry, error) {
	album, err := c.api.GetAlbum(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching album: %w", err)
	}

	tracks, err := c.allTracks(ctx, album)
	if err != nil {
		return nil, err
	}

	entry := toEntry(album, tracks)
	if len(album.Images) > 0 {
		entry.Cover = c.downloadCover(ctx, album.Images[0].URL)
	}
	return entry, nil
}

// allTracks follows the album's track pages past the first one.
func (c *Client) allTracks(ctx context.Context, album *spotify.FullAlbum) ([]spotify.SimpleTrack, error) {
	page := &album.Tracks
	tracks := append([]spotify.SimpleTrack(nil), page.Tracks...)

	for {
		err := c.api.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching next track page: %w", err)
		}
		tracks = append(tracks, page.Tracks...)
	}

	return tracks, nil
}

// downloadCover fetches the album art. Any failure yields no cover.
func (c *Client) downloadCover(ctx context.Context, url string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("downloading cover failed", slog.String("url", url), slog.Any("error", err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("downloading cover failed", slog.String("url", url), slog.Int("status", resp.StatusCode))
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	return body
}
