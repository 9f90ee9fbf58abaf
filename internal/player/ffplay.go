package player

import (
	"context"
	"io"
)

// FFplay implements the Player interface for ffmpeg's ffplay. Position
// tracking is not supported.
type FFplay struct{}

func (f *FFplay) Name() string { return "ffplay" }

func (f *FFplay) Available() bool { return available("ffplay") }

func (f *FFplay) Play(ctx context.Context, r io.Reader, title string) (float64, error) {
	return 0, run(ctx, "ffplay", f.args(title), r, nil)
}

func (f *FFplay) args(title string) []string {
	return []string{
		"-nodisp",
		"-autoexit",
		"-loglevel", "error",
		"-window_title", title,
		"-i", "-",
	}
}
