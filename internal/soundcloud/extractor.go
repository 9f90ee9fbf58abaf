package soundcloud

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"musicca/internal/batch"
	"musicca/internal/extract"
	"musicca/internal/media"
)

const (
	ExtractorName = "soundcloud-extractor"
	ExtractorID   = "sc-ext"

	defaultSearchLimit = 10
)

var urlPattern = regexp.MustCompile(`^https?://((www|m)\.)?soundcloud\.com/.*$`)

// Extractor resolves soundcloud.com URLs.
type Extractor struct {
	client   *Client
	enricher *batch.Enricher[Track]
}

// New creates the extractor. chunkSize bounds the number of IDs per batch
// lookup when completing playlist stubs; values below 1 use the default.
func New(client *Client, chunkSize int) (*Extractor, error) {
	e := &Extractor{client: client}
	enricher, err := batch.NewEnricher(chunkSize, Track.Partial, Track.Key, client.Tracks)
	if err != nil {
		return nil, err
	}
	e.enricher = enricher
	return e, nil
}

func (e *Extractor) Name() string { return ExtractorName }
func (e *Extractor) ID() string   { return ExtractorID }

func (e *Extractor) Validate(input string) bool { return urlPattern.MatchString(input) }

// Extract resolves a track into one item or a playlist into one item per
// track, in playlist order.
func (e *Extractor) Extract(ctx context.Context, input string) ([]*extract.Media, error) {
	res, err := e.client.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	switch res.Kind {
	case KindPlaylist:
		return e.playlistMedia(ctx, res.Playlist)
	case KindTrack:
		return []*extract.Media{e.trackMedia(*res.Track, nil)}, nil
	default:
		return nil, fmt.Errorf("%w: %s", extract.ErrUnresolvable, input)
	}
}

// Fetch opens the audio of a track URL.
func (e *Extractor) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	return e.client.Stream(ctx, url)
}

// Search returns a single page of tracks or playlists.
func (e *Extractor) Search(ctx context.Context, query string, kind media.Kind, limit int) (*extract.SearchPage, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	switch kind {
	case media.KindTrack:
		tracks, err := e.client.SearchTracks(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		items := make([]extract.SearchItem, 0, len(tracks))
		for _, t := range tracks {
			m := e.trackMedia(t, nil)
			items = append(items, extract.SearchItem{
				Kind:      media.KindTrack,
				ID:        m.ID,
				Title:     m.Data.Title,
				URL:       m.URL,
				Thumbnail: m.Data.Thumbnail,
				Media:     []*extract.Media{m},
			})
		}
		return extract.NewSearchPage(items, nil), nil

	case media.KindPlaylist:
		playlists, err := e.client.SearchPlaylists(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		items := make([]extract.SearchItem, 0, len(playlists))
		for i := range playlists {
			p := &playlists[i]
			ms, err := e.playlistMedia(ctx, p)
			if err != nil {
				return nil, err
			}
			items = append(items, extract.SearchItem{
				Kind:      media.KindPlaylist,
				ID:        strconv.FormatInt(p.ID, 10),
				Title:     p.Title,
				URL:       p.PermalinkURL,
				Thumbnail: p.ArtworkURL,
				Media:     ms,
			})
		}
		return extract.NewSearchPage(items, nil), nil

	default:
		return nil, fmt.Errorf("%w: soundcloud cannot search %s", extract.ErrInvalidKind, kind)
	}
}

func (e *Extractor) playlistMedia(ctx context.Context, p *Playlist) ([]*extract.Media, error) {
	tracks, err := e.enricher.Enrich(ctx, p.Tracks)
	if err != nil {
		return nil, fmt.Errorf("completing playlist %d: %w", p.ID, err)
	}

	ref := &media.PlaylistRef{
		URL:       p.PermalinkURL,
		ID:        strconv.FormatInt(p.ID, 10),
		Title:     p.Title,
		Thumbnail: p.ArtworkURL,
	}
	out := make([]*extract.Media, 0, len(tracks))
	for i, t := range tracks {
		m := e.trackMedia(t, ref)
		m.Data.Position = i + 1
		out = append(out, m)
	}
	return out, nil
}

func (e *Extractor) trackMedia(t Track, playlist *media.PlaylistRef) *extract.Media {
	data := media.Data{
		Title:        t.Title,
		Duration:     t.Seconds(),
		Description:  t.Description,
		Thumbnail:    t.ArtworkURL,
		Genre:        t.Genre,
		FromPlaylist: playlist != nil,
		Playlist:     playlist,
	}
	if t.User != nil {
		data.Source = t.User.PermalinkURL
	}
	return extract.NewMedia(e, t.PermalinkURL, data, t.Key())
}
