package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"musicca/internal/download"
	"musicca/internal/extract"
	"musicca/internal/history"
	"musicca/internal/logger"
)

var (
	flagFetchDir    string
	flagFetchFormat string
	flagFetchAll    bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Download the audio stream of a link",
	Long: `Download the audio stream of a track or video into the download directory.
For playlists only the first item is fetched unless --all is given.`,
	Args: cobra.ExactArgs(1),
	RunE: fetchRun,
}

func init() {
	fetchCmd.Flags().StringVarP(&flagFetchDir, "output-dir", "o", "", "Download directory (default: download_dir from config)")
	fetchCmd.Flags().StringVarP(&flagFetchFormat, "format", "f", "", "Convert with ffmpeg: mp3 | ogg | opus | m4a | flac")
	fetchCmd.Flags().BoolVarP(&flagFetchAll, "all", "a", false, "Fetch every item of a playlist")
}

func fetchRun(cmd *cobra.Command, args []string) error {
	items, err := registry.Extract(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("extracting %s: %w", args[0], err)
	}
	if len(items) == 0 {
		return fmt.Errorf("nothing to fetch at %s", args[0])
	}
	if !flagFetchAll {
		items = items[:1]
	}
	return fetchMedia(cmd.Context(), items)
}

func downloadDir() (string, error) {
	if flagFetchDir != "" {
		return flagFetchDir, nil
	}
	dir, err := cfg.ExpandDownloadDir()
	if err != nil {
		return "", fmt.Errorf("resolving download dir: %w", err)
	}
	return dir, nil
}

// fetchMedia downloads items in order and records each in history.
func fetchMedia(ctx context.Context, items []*extract.Media) error {
	dir, err := downloadDir()
	if err != nil {
		return err
	}

	for _, m := range items {
		path, err := fetchOne(ctx, m, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Downloaded: %s\n", path)
		recordHistory(ctx, m, history.ActionFetch, 0)
	}
	return nil
}

func fetchOne(ctx context.Context, m *extract.Media, dir string) (string, error) {
	rc, err := m.Fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("opening stream for %q: %w", m.Data.Title, err)
	}
	defer rc.Close()

	res, err := download.Download(ctx, rc, m.Data.Title, dir)
	if err != nil {
		return "", err
	}
	logger.Debugf("downloaded %s (%s)", res.Path, res.Size())

	if flagFetchFormat == "" {
		return res.Path, nil
	}
	out, err := download.Convert(ctx, res.Path, flagFetchFormat)
	if err != nil {
		return res.Path, err
	}
	return out, nil
}
