// Package extract defines the contract platform extractors implement and the
// Media envelope wrapping the normalized data they produce.
package extract

import (
	"context"
	"errors"
	"io"

	"musicca/internal/media"
)

var (
	// ErrUnsupportedInput means no extractor accepts the input.
	ErrUnsupportedInput = errors.New("unsupported input")
	// ErrUnresolvable means the remote returned nothing usable for a valid input.
	ErrUnresolvable = errors.New("unresolvable reference")
	// ErrInvalidKind means a caller asked for a media kind the extractor does not handle.
	ErrInvalidKind = errors.New("invalid kind")
	// ErrNotSearchable means the extractor has no search support.
	ErrNotSearchable = errors.New("extractor does not support search")
)

// Extractor resolves platform URLs into media items and streams.
type Extractor interface {
	// Name is the long extractor name, e.g. "soundcloud-extractor".
	Name() string

	// ID is the short registry key, e.g. "sc-ext".
	ID() string

	// Validate reports whether the input looks like something this
	// extractor handles. It never performs network I/O.
	Validate(input string) bool

	// Extract resolves the input into one item (track, video) or many
	// (playlist).
	Extract(ctx context.Context, input string) ([]*Media, error)

	// Fetch opens a byte stream for a media URL previously returned by
	// Extract. The caller closes it.
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

// Searcher is implemented by extractors that support free-text search.
type Searcher interface {
	Search(ctx context.Context, query string, kind media.Kind, limit int) (*SearchPage, error)
}

// Media wraps the data an extractor produced for one playable item.
type Media struct {
	ID   string
	URL  string
	Data media.Data

	extractor Extractor
}

// NewMedia builds a Media owned by ext.
func NewMedia(ext Extractor, url string, data media.Data, id string) *Media {
	return &Media{ID: id, URL: url, Data: data, extractor: ext}
}

// Extractor returns the extractor that produced m.
func (m *Media) Extractor() Extractor { return m.extractor }

// Fetch opens the item's stream through its extractor.
func (m *Media) Fetch(ctx context.Context) (io.ReadCloser, error) {
	if m.extractor == nil {
		return nil, errors.New("media has no extractor")
	}
	return m.extractor.Fetch(ctx, m.URL)
}

// SearchItem is one search hit. Media holds the playable items behind it:
// one for a track or video, every track for a playlist that was resolved,
// none for channels or playlists that were not.
type SearchItem struct {
	Kind      media.Kind
	ID        string
	Title     string
	URL       string
	Thumbnail string
	Media     []*Media
}

// PageFunc loads the page after the current one.
type PageFunc func(ctx context.Context) (*SearchPage, error)

// SearchPage holds one page of results and, optionally, a way to load the
// next one. Nothing is requested until Next is called.
type SearchPage struct {
	Items []SearchItem

	next PageFunc
}

// NewSearchPage builds a page. A nil next marks the last page.
func NewSearchPage(items []SearchItem, next PageFunc) *SearchPage {
	return &SearchPage{Items: items, next: next}
}

// HasNext reports whether another page can be requested.
func (p *SearchPage) HasNext() bool { return p != nil && p.next != nil }

// Next loads the following page. It returns (nil, nil) on the last page.
func (p *SearchPage) Next(ctx context.Context) (*SearchPage, error) {
	if !p.HasNext() {
		return nil, nil
	}
	return p.next(ctx)
}

// Collect walks up to maxPages pages starting at p and returns their items.
func Collect(ctx context.Context, p *SearchPage, maxPages int) ([]SearchItem, error) {
	var items []SearchItem
	for page := 0; p != nil && (maxPages <= 0 || page < maxPages); page++ {
		items = append(items, p.Items...)
		if page+1 == maxPages {
			break
		}
		next, err := p.Next(ctx)
		if err != nil {
			return items, err
		}
		p = next
	}
	return items, nil
}
