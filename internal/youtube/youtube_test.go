package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicca/internal/extract"
	"musicca/internal/media"
)

const (
	videoID1   = "dQw4w9WgXcQ"
	playlistID = "PL01Ds3tdh2SqI7t-FeAMiQZzs5xxzWqeu"
)

type fakeVideos struct {
	videos    map[string]*youtube.Video
	playlist  *youtube.Playlist
	streamed  *youtube.Format
	requested []string
}

func (f *fakeVideos) GetVideoContext(_ context.Context, id string) (*youtube.Video, error) {
	f.requested = append(f.requested, id)
	v, ok := f.videos[id]
	if !ok {
		return nil, errors.New("video unavailable")
	}
	return v, nil
}

func (f *fakeVideos) GetPlaylistContext(_ context.Context, url string) (*youtube.Playlist, error) {
	f.requested = append(f.requested, url)
	if f.playlist == nil {
		return nil, errors.New("playlist unavailable")
	}
	return f.playlist, nil
}

func (f *fakeVideos) GetStreamContext(_ context.Context, _ *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error) {
	f.streamed = format
	return io.NopCloser(strings.NewReader("opus")), 4, nil
}

func newFakeVideos() *fakeVideos {
	return &fakeVideos{
		videos: map[string]*youtube.Video{
			videoID1: {
				ID:          videoID1,
				Title:       "Never Gonna Give You Up",
				Description: "The official video",
				ChannelID:   "UCuAXFkgsw1L7xaCfnd5JJOw",
				Duration:    3*time.Minute + 33*time.Second + 500*time.Millisecond,
				Thumbnails: youtube.Thumbnails{
					{URL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", Width: 480},
					{URL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", Width: 1280},
				},
				Formats: youtube.FormatList{
					{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Bitrate: 500000, AudioChannels: 2},
					{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 130000, AudioChannels: 2},
					{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160000, AudioChannels: 2},
					{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, Bitrate: 4000000},
				},
			},
			"liveliveliv": {
				ID:             "liveliveliv",
				Title:          "Lofi radio",
				HLSManifestURL: "https://manifest.googlevideo.com/x.m3u8",
				Formats: youtube.FormatList{
					{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, Bitrate: 4000000},
				},
			},
		},
		playlist: &youtube.Playlist{
			ID:    playlistID,
			Title: "Rick",
			Videos: []*youtube.PlaylistEntry{
				{ID: videoID1, Title: "Never Gonna Give You Up", Duration: 213 * time.Second,
					Thumbnails: youtube.Thumbnails{{URL: "small", Width: 120}, {URL: "big", Width: 640}}},
				{ID: "mW61VTLhNjQ", Title: "Never Gonna Give You Up (Japanese ver.)", Duration: 200 * time.Second},
			},
		},
	}
}

func TestNewSplitsAPIAndStreamClients(t *testing.T) {
	e := New(Options{})

	require.NotNil(t, e.http)
	assert.NotZero(t, e.http.Timeout, "Data API requests need a bounded client")

	yc, ok := e.videos.(*youtube.Client)
	require.True(t, ok)
	require.NotNil(t, yc.HTTPClient)
	assert.Zero(t, yc.HTTPClient.Timeout, "streams must not be cut off by a timeout")

	custom := &http.Client{Timeout: time.Second}
	e = New(Options{HTTPClient: custom})
	assert.Same(t, custom, e.http)
	assert.Same(t, custom, e.videos.(*youtube.Client).HTTPClient)
}

func TestValidate(t *testing.T) {
	e := newExtractor(newFakeVideos(), Options{})
	tests := []struct {
		input string
		want  bool
	}{
		{"https://www.youtube.com/watch?v=" + videoID1, true},
		{"https://youtu.be/" + videoID1, true},
		{"https://music.youtube.com/watch?list=RDx&v=" + videoID1, true},
		{"https://www.youtube.com/shorts/" + videoID1, true},
		{videoID1, true},
		{playlistID, true},
		{"https://www.youtube.com/playlist?list=" + playlistID, true},
		{"https://soundcloud.com/artist/track", false},
		{"never gonna give you up", false},
		{"https://www.youtube.com/watch?v=short", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.Validate(tt.input), tt.input)
	}
	assert.Equal(t, "youtube-extractor", e.Name())
	assert.Equal(t, "yt-ext", e.ID())
}

func TestExtractVideo(t *testing.T) {
	e := newExtractor(newFakeVideos(), Options{})

	items, err := e.Extract(context.Background(), "https://www.youtube.com/watch?v="+videoID1)
	require.NoError(t, err)
	require.Len(t, items, 1)

	m := items[0]
	assert.Equal(t, videoID1, m.ID)
	assert.Equal(t, "https://www.youtube.com/watch?v="+videoID1, m.URL)
	assert.Equal(t, 213, m.Data.Duration)
	assert.Equal(t, "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", m.Data.Thumbnail)
	assert.Equal(t, "https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw", m.Data.Source)
	assert.False(t, m.Data.IsLive)
	assert.False(t, m.Data.FromPlaylist)
	assert.Nil(t, m.Data.Playlist)
}

func TestExtractLive(t *testing.T) {
	e := newExtractor(newFakeVideos(), Options{})
	items, err := e.Extract(context.Background(), "liveliveliv")
	require.NoError(t, err)
	assert.True(t, items[0].Data.IsLive)
}

func TestExtractPlaylist(t *testing.T) {
	fv := newFakeVideos()
	e := newExtractor(fv, Options{})

	items, err := e.Extract(context.Background(), "https://www.youtube.com/playlist?list="+playlistID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, videoID1, items[0].ID)
	assert.Equal(t, 1, items[0].Data.Position)
	assert.Equal(t, "big", items[0].Data.Thumbnail)
	assert.Equal(t, "mW61VTLhNjQ", items[1].ID)
	assert.Equal(t, "https://www.youtube.com/watch?v=mW61VTLhNjQ", items[1].URL)
	assert.Equal(t, 2, items[1].Data.Position)
	for _, m := range items {
		assert.True(t, m.Data.FromPlaylist)
		require.NotNil(t, m.Data.Playlist)
		assert.Equal(t, playlistID, m.Data.Playlist.ID)
		assert.Equal(t, "https://www.youtube.com/playlist?list="+playlistID, m.Data.Playlist.URL)
	}
}

func TestExtractErrors(t *testing.T) {
	fv := newFakeVideos()
	fv.playlist = nil
	e := newExtractor(fv, Options{})

	_, err := e.Extract(context.Background(), "aaaaaaaaaaa")
	assert.Error(t, err)

	_, err = e.Extract(context.Background(), playlistID)
	assert.Error(t, err)

	_, err = e.Extract(context.Background(), "not youtube")
	assert.ErrorIs(t, err, extract.ErrUnsupportedInput)
}

func TestFetchPicksBestAudio(t *testing.T) {
	fv := newFakeVideos()
	e := newExtractor(fv, Options{})

	rc, err := e.Fetch(context.Background(), "https://youtu.be/"+videoID1)
	require.NoError(t, err)
	defer rc.Close()

	require.NotNil(t, fv.streamed)
	assert.Equal(t, 251, fv.streamed.ItagNo)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "opus", string(data))
}

func TestFetchNoAudio(t *testing.T) {
	e := newExtractor(newFakeVideos(), Options{})
	_, err := e.Fetch(context.Background(), "liveliveliv")
	assert.Error(t, err)

	_, err = e.Fetch(context.Background(), playlistID)
	assert.ErrorIs(t, err, extract.ErrUnsupportedInput)
}

func TestBestAudioFallsBackToMuxed(t *testing.T) {
	f := bestAudio(youtube.FormatList{
		{ItagNo: 137, MimeType: "video/mp4", Bitrate: 4000000},
		{ItagNo: 18, MimeType: "video/mp4", Bitrate: 500000, AudioChannels: 2},
		{ItagNo: 22, MimeType: "video/mp4", Bitrate: 900000, AudioChannels: 2},
	})
	require.NotNil(t, f)
	assert.Equal(t, 22, f.ItagNo)
}

func searchServer(t *testing.T) (*httptest.Server, *[]string) {
	var tokens []string
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("key") != "k" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		tokens = append(tokens, q.Get("pageToken"))

		resp := map[string]any{}
		switch q.Get("pageToken") {
		case "":
			resp["nextPageToken"] = "P2"
			resp["items"] = []map[string]any{{
				"id": map[string]any{"kind": "youtube#" + q.Get("type"), "videoId": videoID1, "playlistId": playlistID, "channelId": "UC1"},
				"snippet": map[string]any{
					"title":      "first " + q.Get("type"),
					"channelId":  "UC1",
					"thumbnails": map[string]any{"default": map[string]string{"url": "d.jpg"}, "high": map[string]string{"url": "h.jpg"}},
				},
			}}
		case "P2":
			resp["items"] = []map[string]any{{
				"id":      map[string]any{"videoId": "mW61VTLhNjQ"},
				"snippet": map[string]any{"title": "second", "liveBroadcastContent": "live"},
			}}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &tokens
}

func newSearchExtractor(t *testing.T, key string) (*Extractor, *[]string) {
	srv, tokens := searchServer(t)
	e := newExtractor(newFakeVideos(), Options{APIKey: key, HTTPClient: srv.Client()})
	e.searchURL = srv.URL + "/youtube/v3/search"
	return e, tokens
}

func TestSearchVideosPaginates(t *testing.T) {
	e, tokens := newSearchExtractor(t, "k")

	page, err := e.Search(context.Background(), "rick", media.KindVideo, 5)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	first := page.Items[0]
	assert.Equal(t, videoID1, first.ID)
	assert.Equal(t, "https://www.youtube.com/watch?v="+videoID1, first.URL)
	assert.Equal(t, "h.jpg", first.Thumbnail)
	require.Len(t, first.Media, 1)
	assert.Equal(t, "https://www.youtube.com/channel/UC1", first.Media[0].Data.Source)
	assert.Equal(t, []string{""}, *tokens)

	require.True(t, page.HasNext())
	second, err := page.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", second.Items[0].Title)
	assert.True(t, second.Items[0].Media[0].Data.IsLive)
	assert.False(t, second.HasNext())
	assert.Equal(t, []string{"", "P2"}, *tokens)

	last, err := second.Next(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, last)
}

func TestSearchPlaylistsAndChannels(t *testing.T) {
	e, _ := newSearchExtractor(t, "k")

	page, err := e.Search(context.Background(), "rick", media.KindPlaylist, 0)
	require.NoError(t, err)
	assert.Equal(t, playlistID, page.Items[0].ID)
	assert.Equal(t, "https://www.youtube.com/playlist?list="+playlistID, page.Items[0].URL)
	assert.Empty(t, page.Items[0].Media)

	page, err = e.Search(context.Background(), "rick", media.KindChannel, 0)
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/channel/UC1", page.Items[0].URL)
}

func TestSearchErrors(t *testing.T) {
	e, _ := newSearchExtractor(t, "")
	_, err := e.Search(context.Background(), "rick", media.KindVideo, 5)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = e.Search(context.Background(), "rick", media.KindTrack, 5)
	assert.ErrorIs(t, err, extract.ErrInvalidKind)

	bad, _ := newSearchExtractor(t, "wrong")
	_, err = bad.Search(context.Background(), "rick", media.KindVideo, 5)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "wrong")
}
