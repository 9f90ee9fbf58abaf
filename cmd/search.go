package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"musicca/internal/extract"
	"musicca/internal/logger"
	"musicca/internal/media"
	"musicca/internal/soundcloud"
	"musicca/internal/ui"
	"musicca/internal/youtube"
)

var (
	flagSource string
	flagKind   string
	flagLimit  int
	flagPages  int
	flagAction string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search SoundCloud or YouTube",
	Long: `Search SoundCloud (tracks, playlists) or YouTube (videos, playlists,
channels). In a terminal the results are interactive and the pick is played
or fetched; otherwise they are printed.`,
	RunE: searchRun,
}

func init() {
	searchCmd.Flags().StringVarP(&flagSource, "source", "s", "soundcloud", "Where to search: soundcloud | youtube")
	searchCmd.Flags().StringVarP(&flagKind, "kind", "k", "", "Result kind: track | playlist | video | channel (default: track on soundcloud, video on youtube)")
	searchCmd.Flags().IntVarP(&flagLimit, "limit", "n", 0, "Results per page")
	searchCmd.Flags().IntVar(&flagPages, "pages", 1, "Number of result pages to load")
	searchCmd.Flags().StringVar(&flagAction, "action", "play", "What to do with the pick: play | fetch")
}

// sourceExtractor maps a --source value to an extractor name and the kind
// searched when --kind is not given.
func sourceExtractor(source string) (string, media.Kind, error) {
	switch strings.ToLower(source) {
	case "soundcloud", "sc", "":
		return soundcloud.ExtractorName, media.KindTrack, nil
	case "youtube", "yt":
		return youtube.ExtractorName, media.KindVideo, nil
	default:
		return "", 0, fmt.Errorf("unknown source %q (valid: soundcloud, youtube)", source)
	}
}

// searchRun is also the default command: musicca <query>
func searchRun(cmd *cobra.Command, args []string) error {
	name, kind, err := sourceExtractor(flagSource)
	if err != nil {
		return err
	}
	if flagKind != "" {
		if kind, err = media.ParseKind(flagKind); err != nil {
			return err
		}
	}
	if flagAction != "play" && flagAction != "fetch" {
		return fmt.Errorf("unknown action %q (valid: play, fetch)", flagAction)
	}

	interactive := cfg.Output == "text" && isInteractive()

	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		if !interactive {
			return fmt.Errorf("no search query provided")
		}
		if query, err = ui.Input("Search", "artist, title or keywords"); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	logger.Debugf("searching %s for %q (%s)", name, query, kind)

	page, err := registry.Search(ctx, name, query, kind, flagLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results, err := extract.Collect(ctx, page, flagPages)
	if err != nil {
		if len(results) == 0 {
			return fmt.Errorf("search failed: %w", err)
		}
		logger.Warnf("loading more results: %v", err)
	}

	if !interactive {
		return printSearch(cmd.OutOrStdout(), cfg.Output, results)
	}
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No results found.")
		return nil
	}

	items := make([]ui.Item, len(results))
	for i, r := range results {
		items[i] = searchItem(r)
	}
	idx, err := ui.Select("Results for "+query, items)
	if err != nil {
		if errors.Is(err, ui.ErrCancelled) {
			return nil
		}
		return err
	}

	selected := results[idx]
	logger.Debugf("selected: %s (ID: %s, kind: %s)", selected.Title, selected.ID, selected.Kind)

	found, err := resolveItem(ctx, selected)
	if err != nil {
		return err
	}
	if flagAction == "fetch" {
		return fetchMedia(ctx, found)
	}
	return playMedia(ctx, found)
}

func searchItem(r extract.SearchItem) ui.Item {
	detail := r.Kind.String()
	switch {
	case len(r.Media) == 1:
		detail += "  " + media.FormatDuration(r.Media[0].Data.Duration)
	case len(r.Media) > 1:
		detail += fmt.Sprintf("  %d tracks", len(r.Media))
	}
	return ui.Item{Label: r.Title, Detail: detail}
}

// resolveItem returns the playable media behind a search hit, extracting
// its URL when the search did not carry them.
func resolveItem(ctx context.Context, r extract.SearchItem) ([]*extract.Media, error) {
	if len(r.Media) > 0 {
		return r.Media, nil
	}
	if r.Kind == media.KindChannel {
		return nil, fmt.Errorf("%q is a channel; pick a video or playlist", r.Title)
	}
	found, err := registry.Extract(ctx, r.URL)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", r.URL, err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("nothing to play at %s", r.URL)
	}
	return found, nil
}
