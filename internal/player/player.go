// Package player pipes audio streams into an external media player.
// All player invocations use exec.Command with explicit argument slices.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Player is the interface for media player implementations.
type Player interface {
	// Play feeds r to the player on stdin and blocks until playback ends.
	// It returns the last known playback position in seconds, or 0 when
	// the player cannot report it.
	Play(ctx context.Context, r io.Reader, title string) (float64, error)

	// Name returns the player name.
	Name() string

	// Available checks if the player binary exists in PATH.
	Available() bool
}

// New creates a player by name.
func New(name string) (Player, error) {
	switch strings.ToLower(name) {
	case "mpv", "":
		return &MPV{}, nil
	case "vlc":
		return &VLC{}, nil
	case "ffplay":
		return &FFplay{}, nil
	default:
		return nil, fmt.Errorf("unsupported player %q (valid: mpv, vlc, ffplay)", name)
	}
}

func available(bin string) bool {
	_, err := exec.LookPath(bin)
	return err == nil
}

// run starts bin with r on stdin and waits. A player quitting with a
// non-zero status (user closed it) is not an error.
func run(ctx context.Context, bin string, args []string, r io.Reader, started func()) error {
	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("%s not found in PATH: %w", bin, err)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = r
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", bin, err)
	}
	if started != nil {
		started()
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return fmt.Errorf("running %s: %w", bin, err)
	}
	return nil
}
