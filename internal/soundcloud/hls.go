package soundcloud

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"musicca/internal/httputil"
)

// openHLS downloads an HLS media playlist and returns its segments joined
// into one stream. Segments are fetched one at a time as the reader drains.
func (c *Client) openHLS(ctx context.Context, playlistURL string) (io.ReadCloser, error) {
	body, err := httputil.GetBody(ctx, c.http, playlistURL, "application/vnd.apple.mpegurl", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching hls playlist: %w", err)
	}
	segments, err := parseSegments(body, playlistURL)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("hls playlist has no segments")
	}

	ctx, cancel := context.WithCancel(ctx)
	pr, pw := io.Pipe()
	go func() {
		defer cancel()
		for _, seg := range segments {
			if err := c.copySegment(ctx, pw, seg); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.Close()
	}()
	return &hlsReader{PipeReader: pr, cancel: cancel}, nil
}

func (c *Client) copySegment(ctx context.Context, w io.Writer, segURL string) error {
	resp, err := httputil.Get(ctx, c.stream, segURL, nil)
	if err != nil {
		return fmt.Errorf("fetching segment: %w", err)
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("copying segment: %w", err)
	}
	return nil
}

// hlsReader stops segment downloads when closed early.
type hlsReader struct {
	*io.PipeReader
	cancel context.CancelFunc
}

func (r *hlsReader) Close() error {
	r.cancel()
	return r.PipeReader.Close()
}

// parseSegments returns the absolute segment URLs of a media playlist.
func parseSegments(playlist []byte, base string) ([]string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("malformed playlist URL: %w", err)
	}

	sc := bufio.NewScanner(bytes.NewReader(playlist))
	first := true
	var segs []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if first {
			if line != "#EXTM3U" {
				return nil, fmt.Errorf("%w: not an m3u8 playlist", ErrDecode)
			}
			first = false
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ref, err := url.Parse(line)
		if err != nil {
			return nil, fmt.Errorf("%w: bad segment uri %q", ErrDecode, line)
		}
		segs = append(segs, baseURL.ResolveReference(ref).String())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return segs, nil
}
