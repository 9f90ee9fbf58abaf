// Package youtube implements the youtube-extractor. Videos, playlists and
// streams come from github.com/kkdai/youtube; search uses the Data API.
package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kkdai/youtube/v2"

	"musicca/internal/extract"
	"musicca/internal/httputil"
	"musicca/internal/logger"
	"musicca/internal/media"
)

const (
	ExtractorName = "youtube-extractor"
	ExtractorID   = "yt-ext"

	watchURL    = "https://www.youtube.com/watch?v="
	playlistURL = "https://www.youtube.com/playlist?list="
	channelURL  = "https://www.youtube.com/channel/"
)

var (
	videoIDPattern    = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)
	videoURLPattern   = regexp.MustCompile(`^https?://(?:(?:www|m|music)\.)?(?:youtube\.com/(?:watch\?(?:.*&)?v=|shorts/|live/|embed/|v/)|youtu\.be/)([0-9A-Za-z_-]{11})(?:[?&#/]|$)`)
	playlistIDPattern = regexp.MustCompile(`^(?:PL|UU|LL|RD|OL|FL)[0-9A-Za-z_-]{10,}$`)
	listURLPattern    = regexp.MustCompile(`^https?://(?:(?:www|m|music)\.)?youtube\.com/.*[?&]list=([0-9A-Za-z_-]+)`)
)

// videoClient is the part of youtube.Client the extractor uses.
type videoClient interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetPlaylistContext(ctx context.Context, url string) (*youtube.Playlist, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// Options configures the extractor.
type Options struct {
	// APIKey enables Search through the YouTube Data API.
	APIKey string
	// SearchLimit is used when Search is called with limit <= 0.
	SearchLimit int
	// HTTPClient is used for Data API requests and by the video client.
	HTTPClient *http.Client
}

// Extractor resolves YouTube videos and playlists.
type Extractor struct {
	videos      videoClient
	http        *http.Client
	apiKey      string
	searchURL   string
	searchLimit int
}

// New creates the extractor backed by a kkdai youtube client.
// Streams go through a client without a timeout; Data API calls use
// opts.HTTPClient or the default bounded client.
func New(opts Options) *Extractor {
	streams := opts.HTTPClient
	if streams == nil {
		streams = httputil.NewStreamClient()
	}
	return newExtractor(&youtube.Client{HTTPClient: streams}, opts)
}

func newExtractor(vc videoClient, opts Options) *Extractor {
	if opts.HTTPClient == nil {
		opts.HTTPClient = httputil.NewClient()
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = defaultSearchLimit
	}
	return &Extractor{
		videos:      vc,
		http:        opts.HTTPClient,
		apiKey:      opts.APIKey,
		searchURL:   DefaultSearchURL,
		searchLimit: opts.SearchLimit,
	}
}

func (e *Extractor) Name() string { return ExtractorName }
func (e *Extractor) ID() string   { return ExtractorID }

// Validate accepts video URLs, bare video IDs, playlist IDs and URLs
// carrying a list parameter.
func (e *Extractor) Validate(input string) bool {
	_, isVideo := videoID(input)
	return isVideo || isPlaylist(input)
}

// videoID returns the video ID of a watch URL or bare ID.
func videoID(input string) (string, bool) {
	if videoIDPattern.MatchString(input) {
		return input, true
	}
	if m := videoURLPattern.FindStringSubmatch(input); m != nil {
		return m[1], true
	}
	return "", false
}

func isPlaylist(input string) bool {
	return playlistIDPattern.MatchString(input) || listURLPattern.MatchString(input)
}

// Extract resolves a video into one item or a playlist into one item per
// entry. URLs naming both a video and a list resolve the video.
func (e *Extractor) Extract(ctx context.Context, input string) ([]*extract.Media, error) {
	if id, ok := videoID(input); ok {
		m, err := e.extractVideo(ctx, id)
		if err != nil {
			return nil, err
		}
		return []*extract.Media{m}, nil
	}
	if isPlaylist(input) {
		return e.extractPlaylist(ctx, input)
	}
	return nil, fmt.Errorf("%w: %q", extract.ErrUnsupportedInput, input)
}

func (e *Extractor) extractVideo(ctx context.Context, id string) (*extract.Media, error) {
	v, err := e.videos.GetVideoContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching video %s: %w", id, err)
	}

	data := media.Data{
		Title:       v.Title,
		Duration:    seconds(v.Duration),
		Description: v.Description,
		Thumbnail:   videoThumbnail(v.Thumbnails),
		IsLive:      v.HLSManifestURL != "",
	}
	if v.ChannelID != "" {
		data.Source = channelURL + v.ChannelID
	}
	return extract.NewMedia(e, watchURL+v.ID, data, v.ID), nil
}

func (e *Extractor) extractPlaylist(ctx context.Context, input string) ([]*extract.Media, error) {
	p, err := e.videos.GetPlaylistContext(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("fetching playlist: %w", err)
	}

	ref := &media.PlaylistRef{
		URL:   playlistURL + p.ID,
		ID:    p.ID,
		Title: p.Title,
	}
	out := make([]*extract.Media, 0, len(p.Videos))
	for i, entry := range p.Videos {
		data := media.Data{
			Title:        entry.Title,
			Duration:     seconds(entry.Duration),
			Thumbnail:    bestThumbnail(entry.Thumbnails),
			FromPlaylist: true,
			Playlist:     ref,
			Position:     i + 1,
		}
		out = append(out, extract.NewMedia(e, watchURL+entry.ID, data, entry.ID))
	}
	if len(out) > 0 && ref.Thumbnail == "" {
		ref.Thumbnail = out[0].Data.Thumbnail
	}
	return out, nil
}

// Fetch opens the best audio stream of a video URL.
func (e *Extractor) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	id, ok := videoID(url)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a video", extract.ErrUnsupportedInput, url)
	}
	v, err := e.videos.GetVideoContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching video %s: %w", id, err)
	}

	f := bestAudio(v.Formats)
	if f == nil {
		return nil, fmt.Errorf("video %s has no audio format", id)
	}
	rc, size, err := e.videos.GetStreamContext(ctx, v, f)
	if err != nil {
		return nil, fmt.Errorf("opening stream for %s: %w", id, err)
	}
	logger.Debugf("youtube %s: itag %d %s, %s", id, f.ItagNo, f.MimeType, humanize.Bytes(uint64(max(size, 0))))
	return rc, nil
}

// bestAudio prefers audio-only formats, then any format with audio, each by
// highest bitrate.
func bestAudio(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	score := func(f *youtube.Format) (bool, int) {
		return strings.HasPrefix(f.MimeType, "audio/"), f.Bitrate
	}
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 && !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if best == nil {
			best = f
			continue
		}
		audioOnly, rate := score(f)
		bestAudioOnly, bestRate := score(best)
		if audioOnly && !bestAudioOnly || audioOnly == bestAudioOnly && rate > bestRate {
			best = f
		}
	}
	return best
}

func videoThumbnail(ts youtube.Thumbnails) string {
	for _, t := range ts {
		if strings.Contains(t.URL, "maxresdefault") {
			return t.URL
		}
	}
	if len(ts) > 0 {
		return ts[0].URL
	}
	return ""
}

func bestThumbnail(ts youtube.Thumbnails) string {
	var url string
	var width uint
	for _, t := range ts {
		if url == "" || t.Width > width {
			url, width = t.URL, t.Width
		}
	}
	return url
}

func seconds(d time.Duration) int { return int(d / time.Second) }
