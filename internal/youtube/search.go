package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"musicca/internal/extract"
	"musicca/internal/httputil"
	"musicca/internal/media"
)

// DefaultSearchURL is the Data API v3 search endpoint.
const DefaultSearchURL = "https://www.googleapis.com/youtube/v3/search"

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// ErrNoAPIKey is returned by Search when no Data API key is configured.
var ErrNoAPIKey = errors.New("youtube search needs an API key (set youtube.api_key or YOUTUBE_API_KEY)")

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			Kind       string `json:"kind"`
			VideoID    string `json:"videoId"`
			PlaylistID string `json:"playlistId"`
			ChannelID  string `json:"channelId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			Description  string `json:"description"`
			ChannelID    string `json:"channelId"`
			ChannelTitle string `json:"channelTitle"`
			Thumbnails   map[string]struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
			LiveBroadcastContent string `json:"liveBroadcastContent"`
		} `json:"snippet"`
	} `json:"items"`
}

// searchType maps a media kind to the Data API type parameter.
func searchType(kind media.Kind) (string, error) {
	switch kind {
	case media.KindVideo:
		return "video", nil
	case media.KindPlaylist:
		return "playlist", nil
	case media.KindChannel:
		return "channel", nil
	default:
		return "", fmt.Errorf("%w: youtube cannot search %s", extract.ErrInvalidKind, kind)
	}
}

// Search queries the Data API. Further pages are requested only when
// SearchPage.Next is called.
func (e *Extractor) Search(ctx context.Context, query string, kind media.Kind, limit int) (*extract.SearchPage, error) {
	typ, err := searchType(kind)
	if err != nil {
		return nil, err
	}
	if e.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if limit <= 0 {
		limit = e.searchLimit
	}
	limit = min(limit, maxSearchLimit)

	params := url.Values{
		"part":       {"snippet"},
		"type":       {typ},
		"maxResults": {strconv.Itoa(limit)},
		"q":          {query},
		"key":        {e.apiKey},
	}
	return e.searchPage(ctx, kind, params, "")
}

func (e *Extractor) searchPage(ctx context.Context, kind media.Kind, params url.Values, token string) (*extract.SearchPage, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("pageToken", token)

	u, err := httputil.WithQuery(e.searchURL, q)
	if err != nil {
		return nil, err
	}
	var resp searchResponse
	if err := httputil.GetJSON(ctx, e.http, u, nil, &resp); err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	items := make([]extract.SearchItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		thumb := ""
		for _, size := range []string{"maxres", "high", "medium", "default"} {
			if t, ok := it.Snippet.Thumbnails[size]; ok && t.URL != "" {
				thumb = t.URL
				break
			}
		}

		item := extract.SearchItem{Kind: kind, Title: it.Snippet.Title, Thumbnail: thumb}
		switch kind {
		case media.KindVideo:
			item.ID = it.ID.VideoID
			item.URL = watchURL + item.ID
			data := media.Data{
				Title:       it.Snippet.Title,
				Description: it.Snippet.Description,
				Thumbnail:   thumb,
				IsLive:      it.Snippet.LiveBroadcastContent == "live",
			}
			if it.Snippet.ChannelID != "" {
				data.Source = channelURL + it.Snippet.ChannelID
			}
			item.Media = []*extract.Media{extract.NewMedia(e, item.URL, data, item.ID)}
		case media.KindPlaylist:
			item.ID = it.ID.PlaylistID
			item.URL = playlistURL + item.ID
		case media.KindChannel:
			item.ID = it.ID.ChannelID
			item.URL = channelURL + item.ID
		}
		if item.ID == "" {
			continue
		}
		items = append(items, item)
	}

	var next extract.PageFunc
	if resp.NextPageToken != "" {
		token := resp.NextPageToken
		next = func(ctx context.Context) (*extract.SearchPage, error) {
			return e.searchPage(ctx, kind, params, token)
		}
	}
	return extract.NewSearchPage(items, next), nil
}
