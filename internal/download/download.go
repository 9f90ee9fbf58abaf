// Package download writes fetched audio streams to disk. Output paths are
// validated against directory traversal and files appear atomically.
package download

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"musicca/internal/httputil"
	"musicca/internal/logger"
)

// Result describes a finished download.
type Result struct {
	Path  string
	Bytes int64
}

// Size returns the file size in human-readable form.
func (r Result) Size() string { return humanize.Bytes(uint64(r.Bytes)) }

// Filename turns a media title into a file name without extension.
func Filename(title string) string {
	title = strings.TrimSpace(strings.ReplaceAll(title, "/", "-"))
	return httputil.SanitizeFilename(title)
}

// Download copies r into dir under the media title. The extension is
// sniffed from the first bytes of the stream.
func Download(ctx context.Context, r io.Reader, title, dir string) (*Result, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	br := bufio.NewReaderSize(r, 64)
	head, err := br.Peek(16)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading stream: %w", err)
	}
	outputPath, err := httputil.SafeDownloadPath(absDir, Filename(title)+sniffExt(head))
	if err != nil {
		return nil, fmt.Errorf("invalid output path: %w", err)
	}

	tmp, err := os.CreateTemp(absDir, ".musicca-*.part")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: br})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("writing %s: %w", filepath.Base(outputPath), err)
	}

	if err := os.Rename(tmp.Name(), outputPath); err != nil {
		return nil, fmt.Errorf("saving download: %w", err)
	}
	logger.Debugf("downloaded %s (%s)", outputPath, humanize.Bytes(uint64(n)))
	return &Result{Path: outputPath, Bytes: n}, nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// sniffExt guesses a file extension from container magic bytes.
func sniffExt(head []byte) string {
	switch {
	case bytes.HasPrefix(head, []byte("ID3")),
		len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0 && head[1]&0x06 != 0:
		return ".mp3"
	case bytes.HasPrefix(head, []byte("OggS")):
		return ".ogg"
	case bytes.HasPrefix(head, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return ".webm"
	case len(head) >= 8 && string(head[4:8]) == "ftyp":
		return ".m4a"
	case bytes.HasPrefix(head, []byte("fLaC")):
		return ".flac"
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xF6 == 0xF0:
		return ".aac"
	case len(head) >= 4 && head[0] == 0x47 && head[3]&0x30 != 0:
		// MPEG-TS sync byte with a valid adaptation field control, as
		// served by HLS transcodings.
		return ".ts"
	default:
		return ".bin"
	}
}

// Convert re-encodes src to the given audio format with ffmpeg and removes
// src on success. It returns the new path.
func Convert(ctx context.Context, src, format string) (string, error) {
	codecs := map[string]string{
		"mp3":  "libmp3lame",
		"ogg":  "libvorbis",
		"opus": "libopus",
		"m4a":  "aac",
		"flac": "flac",
	}
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	codec, ok := codecs[format]
	if !ok {
		return "", fmt.Errorf("unsupported format %q (valid: mp3, ogg, opus, m4a, flac)", format)
	}
	if strings.EqualFold(filepath.Ext(src), "."+format) {
		return src, nil
	}

	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	dst := strings.TrimSuffix(src, filepath.Ext(src)) + "." + format
	args := []string{
		"-y",
		"-loglevel", "error",
		"-i", src,
		"-vn",
		"-c:a", codec,
		dst,
	}
	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Stderr = os.Stderr

	logger.Debugf("converting %s to %s", src, format)
	if err := cmd.Run(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("ffmpeg conversion failed: %w", err)
	}
	if err := os.Remove(src); err != nil {
		logger.Warnf("removing %s: %v", src, err)
	}
	return dst, nil
}
