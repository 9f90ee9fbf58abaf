package soundcloud

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Resource kinds returned by the resolve endpoint.
const (
	KindTrack    = "track"
	KindPlaylist = "playlist"
)

// ErrDecode wraps every failure to turn an API payload into a typed record.
var ErrDecode = errors.New("decoding soundcloud response")

// User is the uploader of a track or playlist.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PermalinkURL string `json:"permalink_url"`
}

// Transcoding is one encoded rendition of a track.
type Transcoding struct {
	URL     string `json:"url"`
	Preset  string `json:"preset"`
	Snipped bool   `json:"snipped"`
	Format  struct {
		Protocol string `json:"protocol"`
		MimeType string `json:"mime_type"`
	} `json:"format"`
}

// Track is a SoundCloud track. Playlist entries past the first few arrive
// as stubs carrying only ID and Kind.
type Track struct {
	Kind               string `json:"kind"`
	ID                 int64  `json:"id"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	Genre              string `json:"genre"`
	Duration           int64  `json:"duration"`      // ms, preview length for snipped tracks
	FullDuration       int64  `json:"full_duration"` // ms
	PermalinkURL       string `json:"permalink_url"`
	ArtworkURL         string `json:"artwork_url"`
	Streamable         bool   `json:"streamable"`
	TrackAuthorization string `json:"track_authorization"`
	User               *User  `json:"user"`
	Media              struct {
		Transcodings []Transcoding `json:"transcodings"`
	} `json:"media"`
}

// Partial reports whether t is a stub without metadata.
func (t Track) Partial() bool { return t.Title == "" }

// Key returns the track ID as used by the batch lookup endpoint.
func (t Track) Key() string { return strconv.FormatInt(t.ID, 10) }

// Seconds returns the full track length in whole seconds.
func (t Track) Seconds() int {
	ms := t.FullDuration
	if ms == 0 {
		ms = t.Duration
	}
	return int(ms / 1000)
}

// validate checks a track that is expected to be complete.
func (t Track) validate() error {
	if t.ID == 0 {
		return fmt.Errorf("%w: track without id", ErrDecode)
	}
	if t.Partial() {
		return nil
	}
	if t.PermalinkURL == "" {
		return fmt.Errorf("%w: track %d has no permalink", ErrDecode, t.ID)
	}
	if t.User == nil {
		return fmt.Errorf("%w: track %d has no user", ErrDecode, t.ID)
	}
	return nil
}

// Playlist is a SoundCloud set.
type Playlist struct {
	Kind         string  `json:"kind"`
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	PermalinkURL string  `json:"permalink_url"`
	ArtworkURL   string  `json:"artwork_url"`
	TrackCount   int     `json:"track_count"`
	Tracks       []Track `json:"tracks"`
}

func (p Playlist) validate() error {
	if p.ID == 0 {
		return fmt.Errorf("%w: playlist without id", ErrDecode)
	}
	if p.PermalinkURL == "" {
		return fmt.Errorf("%w: playlist %d has no permalink", ErrDecode, p.ID)
	}
	for _, t := range p.Tracks {
		if err := t.validate(); err != nil {
			return fmt.Errorf("playlist %d: %w", p.ID, err)
		}
	}
	return nil
}

// Resource is the tagged result of resolving a URL. Exactly one of Track
// and Playlist is set, matching Kind.
type Resource struct {
	Kind     string
	Track    *Track
	Playlist *Playlist
}

// decodeResource turns a resolve payload into a Resource. Kinds other than
// track and playlist yield an unknownKindError.
func decodeResource(data []byte) (*Resource, error) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	switch head.Kind {
	case KindTrack:
		t, err := decodeTrack(data)
		if err != nil {
			return nil, err
		}
		return &Resource{Kind: KindTrack, Track: t}, nil
	case KindPlaylist:
		var p Playlist
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		if err := p.validate(); err != nil {
			return nil, err
		}
		return &Resource{Kind: KindPlaylist, Playlist: &p}, nil
	default:
		return nil, &unknownKindError{kind: head.Kind}
	}
}

func decodeTrack(data []byte) (*Track, error) {
	var t Track
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// decodeTracks decodes a batch lookup payload. Every record must be complete.
func decodeTracks(data []byte) ([]Track, error) {
	var tracks []Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	for _, t := range tracks {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if t.Partial() {
			return nil, fmt.Errorf("%w: lookup returned stub for track %d", ErrDecode, t.ID)
		}
	}
	return tracks, nil
}

type unknownKindError struct {
	kind string
}

func (e *unknownKindError) Error() string {
	if e.kind == "" {
		return "resource has no kind"
	}
	return fmt.Sprintf("unsupported resource kind %q", e.kind)
}

func decodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}
