// Package soundcloud implements a SoundCloud api-v2 client and the
// soundcloud-extractor built on it.
package soundcloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"musicca/internal/extract"
	"musicca/internal/httputil"
	"musicca/internal/logger"
)

const (
	// DefaultBaseURL is the public api-v2 endpoint.
	DefaultBaseURL = "https://api-v2.soundcloud.com"
	// DefaultWebURL is scraped for a client_id when none is configured.
	DefaultWebURL = "https://soundcloud.com"
)

// Client talks to api-v2. It is safe for concurrent use.
type Client struct {
	baseURL    string
	webURL     string
	oauthToken string
	http       *http.Client
	stream     *http.Client

	mu         sync.Mutex
	clientID   string
	discovered bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API host.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithWebURL sets the page scraped for a client_id.
func WithWebURL(u string) Option {
	return func(c *Client) { c.webURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces both the API and the stream HTTP clients.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
		c.stream = hc
	}
}

// NewClient creates a client. An empty clientID is discovered on first use.
func NewClient(clientID, oauthToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		webURL:     DefaultWebURL,
		oauthToken: oauthToken,
		clientID:   clientID,
		http:       httputil.NewClient(),
		stream:     httputil.NewStreamClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientID returns the configured client_id, scraping one from the web
// player if needed. A discovered ID is cached until the API rejects it.
func (c *Client) ClientID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.clientID != "" {
		return c.clientID, nil
	}

	id, err := discoverClientID(ctx, c.http, c.webURL)
	if err != nil {
		return "", fmt.Errorf("discovering client_id: %w", err)
	}
	logger.Debugf("discovered soundcloud client_id")
	c.clientID = id
	c.discovered = true
	return id, nil
}

// forgetClientID drops a discovered client_id so the next call scrapes again.
// Configured IDs are never dropped.
func (c *Client) forgetClientID() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.discovered {
		c.clientID = ""
		c.discovered = false
	}
}

func (c *Client) header() http.Header {
	if c.oauthToken == "" {
		return nil
	}
	return http.Header{"Authorization": {"OAuth " + c.oauthToken}}
}

// getURL requests an absolute api URL with client_id attached.
func (c *Client) getURL(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	id, err := c.ClientID(ctx)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("client_id", id)

	u, err := httputil.WithQuery(rawURL, params)
	if err != nil {
		return nil, err
	}

	body, err := httputil.GetBody(ctx, c.http, u, "application/json", c.header())
	var se *httputil.StatusError
	if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
		c.forgetClientID()
	}
	return body, err
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.getURL(ctx, c.baseURL+path, params)
}

// Resolve looks up what a soundcloud.com URL points to.
func (c *Client) Resolve(ctx context.Context, rawURL string) (*Resource, error) {
	body, err := c.get(ctx, "/resolve", url.Values{"url": {rawURL}})
	if err != nil {
		var se *httputil.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", extract.ErrUnresolvable, rawURL)
		}
		return nil, fmt.Errorf("resolving %s: %w", rawURL, err)
	}

	if b := bytes.TrimSpace(body); len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, fmt.Errorf("%w: %s", extract.ErrUnresolvable, rawURL)
	}

	res, err := decodeResource(body)
	if err != nil {
		var uk *unknownKindError
		if errors.As(err, &uk) {
			return nil, fmt.Errorf("%w: %s: %v", extract.ErrUnresolvable, rawURL, err)
		}
		return nil, err
	}
	return res, nil
}

// Tracks fetches full records for the given track IDs in one request. The
// API may return fewer records than requested, in any order.
func (c *Client) Tracks(ctx context.Context, ids []string) ([]Track, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	for _, id := range ids {
		if err := httputil.ValidateNumericID(id); err != nil {
			return nil, err
		}
	}

	body, err := c.get(ctx, "/tracks", url.Values{"ids": {strings.Join(ids, ",")}})
	if err != nil {
		return nil, fmt.Errorf("fetching tracks: %w", err)
	}
	return decodeTracks(body)
}

// collection is the envelope of search endpoints.
type collection[T any] struct {
	Collection []T    `json:"collection"`
	NextHref   string `json:"next_href"`
}

// SearchTracks runs a track search.
func (c *Client) SearchTracks(ctx context.Context, query string, limit int) ([]Track, error) {
	page, err := search[Track](ctx, c, "/search/tracks", query, limit)
	if err != nil {
		return nil, err
	}
	for _, t := range page {
		if err := t.validate(); err != nil {
			return nil, err
		}
	}
	return page, nil
}

// SearchPlaylists runs a playlist search.
func (c *Client) SearchPlaylists(ctx context.Context, query string, limit int) ([]Playlist, error) {
	page, err := search[Playlist](ctx, c, "/search/playlists", query, limit)
	if err != nil {
		return nil, err
	}
	for _, p := range page {
		if err := p.validate(); err != nil {
			return nil, err
		}
	}
	return page, nil
}

func search[T any](ctx context.Context, c *Client, path, query string, limit int) ([]T, error) {
	body, err := c.get(ctx, path, url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(limit)},
	})
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}
	var out collection[T]
	if err := decodeJSON(body, &out); err != nil {
		return nil, err
	}
	return out.Collection, nil
}

// Stream resolves a track URL and opens its audio.
func (c *Client) Stream(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	res, err := c.Resolve(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if res.Track == nil {
		return nil, fmt.Errorf("%w: %s is a %s, not a track", extract.ErrUnresolvable, rawURL, res.Kind)
	}
	return c.StreamTrack(ctx, res.Track)
}

// StreamTrack opens the best available transcoding of t.
func (c *Client) StreamTrack(ctx context.Context, t *Track) (io.ReadCloser, error) {
	tc, ok := pickTranscoding(t.Media.Transcodings)
	if !ok {
		return nil, fmt.Errorf("track %d has no streamable transcoding", t.ID)
	}
	if tc.Snipped {
		logger.Warnf("track %d only offers a preview", t.ID)
	}

	body, err := c.getURL(ctx, tc.URL, url.Values{"track_authorization": {t.TrackAuthorization}})
	if err != nil {
		return nil, fmt.Errorf("resolving stream for track %d: %w", t.ID, err)
	}
	var loc struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(body, &loc); err != nil {
		return nil, err
	}
	if loc.URL == "" {
		return nil, fmt.Errorf("%w: empty stream url for track %d", ErrDecode, t.ID)
	}

	if tc.Format.Protocol == "hls" {
		return c.openHLS(ctx, loc.URL)
	}
	resp, err := httputil.Get(ctx, c.stream, loc.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	return resp.Body, nil
}

// pickTranscoding prefers full-length progressive mp3, then full-length
// HLS, then previews in the same order.
func pickTranscoding(tcs []Transcoding) (Transcoding, bool) {
	rank := func(tc Transcoding) int {
		r := 0
		switch tc.Format.Protocol {
		case "progressive":
			r = 4
		case "hls":
			r = 2
			if strings.HasPrefix(tc.Format.MimeType, "audio/mpeg") {
				r = 3
			}
		default:
			return 0
		}
		if tc.Snipped {
			r -= 2
			if r < 1 {
				r = 1
			}
		} else {
			r += 10
		}
		return r
	}

	best, bestRank := Transcoding{}, 0
	for _, tc := range tcs {
		if tc.URL == "" {
			continue
		}
		if r := rank(tc); r > bestRank {
			best, bestRank = tc, r
		}
	}
	return best, bestRank > 0
}
