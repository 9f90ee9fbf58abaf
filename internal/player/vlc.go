package player

import (
	"context"
	"io"
)

// VLC implements the Player interface for VLC media player.
type VLC struct{}

func (v *VLC) Name() string { return "vlc" }

func (v *VLC) Available() bool { return available("vlc") }

// Play launches VLC reading from stdin. VLC doesn't have IPC position
// tracking like mpv, so we return 0 for position.
func (v *VLC) Play(ctx context.Context, r io.Reader, title string) (float64, error) {
	return 0, run(ctx, "vlc", v.args(title), r, nil)
}

func (v *VLC) args(title string) []string {
	return []string{
		"-",
		"--meta-title", title,
		"--play-and-exit",
		"--no-video",
	}
}
