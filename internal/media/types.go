// Package media defines shared types for the musicca extractors.
package media

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the type of a remote resource.
type Kind int

const (
	KindTrack Kind = iota
	KindPlaylist
	KindVideo
	KindChannel
)

func (k Kind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindPlaylist:
		return "playlist"
	case KindVideo:
		return "video"
	case KindChannel:
		return "channel"
	default:
		return "unknown"
	}
}

// ParseKind maps a kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "track", "tracks":
		return KindTrack, nil
	case "playlist", "playlists", "set", "sets":
		return KindPlaylist, nil
	case "video", "videos":
		return KindVideo, nil
	case "channel", "channels":
		return KindChannel, nil
	default:
		return 0, fmt.Errorf("unknown kind %q (valid: track, playlist, video, channel)", s)
	}
}

// Data is the normalized payload an extractor produces for one playable item.
type Data struct {
	Title        string       `json:"title" yaml:"title"`
	Duration     int          `json:"duration" yaml:"duration"` // seconds
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	Source       string       `json:"source,omitempty" yaml:"source,omitempty"` // uploader/channel URL
	Thumbnail    string       `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Genre        string       `json:"genre,omitempty" yaml:"genre,omitempty"`
	IsLive       bool         `json:"isLive,omitempty" yaml:"isLive,omitempty"`
	FromPlaylist bool         `json:"fromPlaylist" yaml:"fromPlaylist"`
	Playlist     *PlaylistRef `json:"playlist" yaml:"playlist"`
	Position     int          `json:"position,omitempty" yaml:"position,omitempty"` // 1-based
}

// PlaylistRef identifies the playlist an item was extracted from.
type PlaylistRef struct {
	URL       string `json:"url" yaml:"url"`
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Thumbnail string `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
}

// HistoryEntry is one fetched or played item.
type HistoryEntry struct {
	ID        string    `json:"id" yaml:"id"`
	Extractor string    `json:"extractor" yaml:"extractor"` // extractor ID, e.g. "sc-ext"
	MediaID   string    `json:"mediaId" yaml:"mediaId"`
	URL       string    `json:"url" yaml:"url"`
	Title     string    `json:"title" yaml:"title"`
	Duration  int       `json:"duration" yaml:"duration"` // seconds
	Position  float64   `json:"position,omitempty" yaml:"position,omitempty"` // seconds played
	Action    string    `json:"action" yaml:"action"` // "fetch" or "play"
	FetchedAt time.Time `json:"fetchedAt" yaml:"fetchedAt"`
}

// FormatDuration renders seconds as H:MM:SS or M:SS.
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "-"
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
