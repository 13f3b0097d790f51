// Package discogs looks up releases in the Discogs database.
package discogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/witr/library-manager/internal/catalog"
)

const (
	baseURL   = "https://api.discogs.com"
	userAgent = "WITR-LibraryManager/1.0"
)

// Sentinel errors.
var (
	// ErrRateLimited is returned when the API rate limit is exceeded after retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnauthorized is returned when the token is rejected.
	ErrUnauthorized = errors.New("discogs rejected the credentials")

	// ErrInvalidReleaseID is returned for release ids that are neither digits nor "[r123]".
	ErrInvalidReleaseID = errors.New("invalid release id")
)

// Config holds Discogs API credentials.
type Config struct {
	Token  string
	Secret string
}

// Client is a Discogs API client. It satisfies catalog.Source.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	baseURL     string
	retryDelays []time.Duration
}

var _ catalog.Source = (*Client)(nil)

// NewClient creates a new Discogs API client from the provided configuration.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     baseURL,
		retryDelays: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// ByUPC finds the release carrying barcode upc. When the first hit belongs
// to a master, the master's main release is used since it tends to carry the
// most complete data.
func (c *Client) ByUPC(ctx context.Context, upc string) (*catalog.Entry, error) {
	params := url.Values{
		"barcode": {upc},
		"type":    {"release"},
	}
	var search searchResponse
	if err := c.getJSON(ctx, "/database/search?"+params.Encode(), &search); err != nil {
		return nil, fmt.Errorf("searching barcode: %w", err)
	}
	if len(search.Results) == 0 {
		return nil, catalog.ErrNoMatch
	}

	hit := search.Results[0]
	releaseID := hit.ID
	if hit.MasterID != 0 {
		var master masterResponse
		if err := c.getJSON(ctx, "/masters/"+strconv.Itoa(hit.MasterID), &master); err != nil {
			return nil, fmt.Errorf("fetching master: %w", err)
		}
		if master.MainRelease != 0 {
			releaseID = master.MainRelease
		}
	}

	entry, err := c.release(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	entry.UPC = upc
	return entry, nil
}

// ByRelease fetches a release by id. Ids may be plain digits or the "[r123]" form.
func (c *Client) ByRelease(ctx context.Context, id string) (*catalog.Entry, error) {
	n, err := parseReleaseID(id)
	if err != nil {
		return nil, err
	}
	return c.release(ctx, n)
}

func parseReleaseID(id string) (int, error) {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, "[r") && strings.HasSuffix(id, "]") {
		id = id[2 : len(id)-1]
	}
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidReleaseID, id)
	}
	return n, nil
}

func (c *Client) release(ctx context.Context, id int) (*catalog.Entry, error) {
	var rel releaseResponse
	if err := c.getJSON(ctx, "/releases/"+strconv.Itoa(id), &rel); err != nil {
		return nil, fmt.Errorf("fetching release: %w", err)
	}

	entry := toEntry(&rel)
	if len(rel.Images) > 0 {
		entry.Cover = c.downloadCover(ctx, rel.Images[0].URI)
	}
	return entry, nil
}

// disambiguation matches the " (2)" suffix Discogs adds to repeated artist names.
var disambiguation = regexp.MustCompile(`\s+\(\d+\)$`)

func artistNames(artists []artist) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, disambiguation.ReplaceAllString(a.Name, ""))
	}
	return names
}

func toEntry(rel *releaseResponse) *catalog.Entry {
	artists := catalog.Credits(artistNames(rel.Artists))
	entry := &catalog.Entry{
		Title:   rel.Title,
		Artists: artists,
		Year:    rel.Year,
	}
	if len(rel.Genres) > 0 {
		entry.Genre = rel.Genres[0]
	}
	for _, f := range rel.Formats {
		entry.Formats = append(entry.Formats, f.Name)
	}
	for _, ident := range rel.Identifiers {
		if ident.Type == "Barcode" {
			entry.UPC = strings.ReplaceAll(ident.Value, " ", "")
			break
		}
	}
	for _, t := range rel.Tracklist {
		if t.Type != "" && t.Type != "track" {
			continue
		}
		entry.Tracks = append(entry.Tracks, catalog.Track{
			Title:    t.Title,
			Duration: catalog.ParseDuration(t.Duration),
			Credits:  catalog.Credits(artists, artistNames(t.ExtraArtists)),
		})
	}
	return entry
}

// downloadCover fetches an image. Any failure yields no cover.
func (c *Client) downloadCover(ctx context.Context, uri string) []byte {
	if uri == "" {
		return nil
	}
	body, err := c.doSingleRequest(ctx, uri)
	if err != nil {
		slog.Debug("downloading cover failed", slog.String("uri", uri), slog.Any("error", err))
		return nil
	}
	return body
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.doRequest(ctx, c.baseURL+path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// doRequest performs an HTTP GET request with retry on rate limit.
// Retries once per entry of retryDelays.
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelays[attempt-1]):
			}
		}

		body, err := c.doSingleRequest(ctx, reqURL)
		if err == nil {
			return body, nil
		}

		if errors.Is(err, ErrRateLimited) {
			lastErr = err
			continue
		}

		return nil, err
	}

	return nil, lastErr
}

func (c *Client) authorization() string {
	if c.cfg.Secret != "" {
		return fmt.Sprintf("Discogs key=%s, secret=%s", c.cfg.Token, c.cfg.Secret)
	}
	return "Discogs token=" + c.cfg.Token
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", c.authorization())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, catalog.ErrNoMatch
	case resp.StatusCode >= 400:
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("API error %d", resp.StatusCode)
	}

	return body, nil
}
