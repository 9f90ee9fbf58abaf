package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"musicca/internal/extract"
	"musicca/internal/history"
	"musicca/internal/logger"
	"musicca/internal/player"
)

var flagPlayAll bool

var playCmd = &cobra.Command{
	Use:   "play <url>",
	Short: "Stream a track, video or playlist into the media player",
	Args:  cobra.ExactArgs(1),
	RunE:  playRun,
}

func init() {
	playCmd.Flags().BoolVarP(&flagPlayAll, "all", "a", false, "Play every item of a playlist, not just the first")
}

func playRun(cmd *cobra.Command, args []string) error {
	items, err := registry.Extract(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("extracting %s: %w", args[0], err)
	}
	if len(items) == 0 {
		return fmt.Errorf("nothing to play at %s", args[0])
	}
	if !flagPlayAll {
		items = items[:1]
	}
	return playMedia(cmd.Context(), items)
}

// playMedia plays items in order and records each in history.
func playMedia(ctx context.Context, items []*extract.Media) error {
	p, err := player.New(cfg.Player)
	if err != nil {
		return err
	}
	if !p.Available() {
		return fmt.Errorf("player %q not found in PATH", p.Name())
	}

	for _, m := range items {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		pos, err := playOne(ctx, p, m)
		if err != nil {
			return err
		}
		recordHistory(ctx, m, history.ActionPlay, pos)
	}
	return nil
}

func playOne(ctx context.Context, p player.Player, m *extract.Media) (float64, error) {
	fmt.Fprintf(os.Stderr, "Playing: %s\n", m.Data.Title)

	rc, err := m.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("opening stream for %q: %w", m.Data.Title, err)
	}
	defer rc.Close()

	pos, err := p.Play(ctx, rc, m.Data.Title)
	if err != nil {
		return pos, fmt.Errorf("playback failed: %w", err)
	}
	logger.Debugf("stopped %s at %.0fs", m.ID, pos)
	return pos, nil
}
