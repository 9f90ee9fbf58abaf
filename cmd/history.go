package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"musicca/internal/config"
	"musicca/internal/extract"
	"musicca/internal/history"
	"musicca/internal/logger"
	"musicca/internal/media"
	"musicca/internal/ui"
)

var (
	flagHistoryLimit int
	flagHistoryClear bool
)

// Prompts, swapped out in tests.
var (
	isInteractive = ui.IsInteractive
	confirm       = ui.Confirm
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently fetched and played items",
	Long: `List recently fetched and played items. In a terminal the list is
interactive and the chosen entry is played again.`,
	Args: cobra.NoArgs,
	RunE: historyRun,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of entries to show (0 for all)")
	historyCmd.Flags().BoolVar(&flagHistoryClear, "clear", false, "Delete all history entries")
}

func openHistory() (*history.Store, error) {
	path, err := config.HistoryPath()
	if err != nil {
		return nil, fmt.Errorf("resolving history path: %w", err)
	}
	return history.Open(path)
}

// recordHistory saves m when history is enabled. Failures are logged only.
func recordHistory(ctx context.Context, m *extract.Media, action string, pos float64) {
	if !cfg.History {
		return
	}
	store, err := openHistory()
	if err != nil {
		logger.Warnf("opening history: %v", err)
		return
	}
	defer store.Close()

	entry := media.HistoryEntry{
		MediaID:  m.ID,
		URL:      m.URL,
		Title:    m.Data.Title,
		Duration: m.Data.Duration,
		Position: pos,
		Action:   action,
	}
	if ext := m.Extractor(); ext != nil {
		entry.Extractor = ext.ID()
	}
	if _, err := store.Save(ctx, entry); err != nil {
		logger.Warnf("saving history failed: %v", err)
	}
}

func historyRun(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if flagHistoryClear {
		if isInteractive() {
			ok, err := confirm("Delete all history entries?")
			if err != nil && !errors.Is(err, ui.ErrCancelled) {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "History kept.")
				return nil
			}
		}
		n, err := store.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Removed %d history entries.\n", n)
		return nil
	}

	entries, err := store.List(ctx, flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if cfg.Output != "text" || !isInteractive() {
		return printHistory(cmd.OutOrStdout(), cfg.Output, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history entries found.")
		return nil
	}

	lines := history.FormatForDisplay(entries)
	items := make([]ui.Item, len(entries))
	for i, line := range lines {
		items[i] = ui.Item{Label: entries[i].Title, Detail: line}
	}
	idx, err := ui.Select("History", items)
	if err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		return err
	}

	selected := entries[idx]
	logger.Debugf("replaying: %s (%s)", selected.Title, selected.URL)

	found, err := registry.Extract(ctx, selected.URL)
	if err != nil {
		return fmt.Errorf("re-resolving %s: %w", selected.URL, err)
	}
	for _, m := range found {
		if m.ID == selected.MediaID {
			return playMedia(ctx, []*extract.Media{m})
		}
	}
	if len(found) == 0 {
		return fmt.Errorf("nothing to play at %s", selected.URL)
	}
	return playMedia(ctx, found[:1])
}
