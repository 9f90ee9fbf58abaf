// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"musicca/internal/config"
	"musicca/internal/extract"
	"musicca/internal/logger"
	"musicca/internal/soundcloud"
	"musicca/internal/youtube"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagConfig    string
	flagOutput    string
	flagPlayer    string
	flagChunkSize int
	flagDebug     bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

// registry holds the installed extractors, built after config is loaded.
var registry *extract.Registry

var rootCmd = &cobra.Command{
	Use:   "musicca [query]",
	Short: "Resolve, search, download and play SoundCloud and YouTube audio",
	Long: `Musicca resolves SoundCloud and YouTube links into tracks, searches both
platforms, downloads audio streams and pipes them into mpv, vlc or ffplay.

Running musicca with a query searches SoundCloud; with a link it plays it.`,
	Args:              cobra.ArbitraryArgs,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(*cobra.Command, []string) { logger.Sync() },
	RunE:              rootRun,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "musicca %s\n", Version)
	},
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $XDG_CONFIG_HOME/musicca/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "O", "", "Output format: text | json | yaml")
	rootCmd.PersistentFlags().StringVar(&flagPlayer, "player", "", "Media player: mpv | vlc | ffplay")
	rootCmd.PersistentFlags().IntVar(&flagChunkSize, "chunk-size", 0, "Track IDs per SoundCloud lookup when completing playlists")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration, then sets up logging and
// the extractor registry.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagOutput != "" {
		cfg.Output = flagOutput
	}
	if flagPlayer != "" {
		cfg.Player = flagPlayer
	}
	if flagChunkSize > 0 {
		cfg.SoundCloud.ChunkSize = flagChunkSize
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel(), File: cfg.Log.File}); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	registry, err = newRegistry(cfg)
	if err != nil {
		return fmt.Errorf("setting up extractors: %w", err)
	}
	return nil
}

// newRegistry installs every extractor configured by c.
func newRegistry(c *config.Config) (*extract.Registry, error) {
	sc, err := soundcloud.New(
		soundcloud.NewClient(c.SoundCloud.ClientID, c.SoundCloud.OAuthToken),
		c.SoundCloud.ChunkSize,
	)
	if err != nil {
		return nil, err
	}
	yt := youtube.New(youtube.Options{
		APIKey:      c.YouTube.APIKey,
		SearchLimit: c.YouTube.SearchLimit,
	})
	return extract.NewRegistry(sc, yt), nil
}

// rootRun plays a link or searches SoundCloud for free text.
func rootRun(cmd *cobra.Command, args []string) error {
	if playable(args) {
		return playRun(cmd, args)
	}
	return searchRun(cmd, args)
}

// playable reports whether args is a single http(s) link an extractor
// accepts. Bare IDs are searched, so "musicca hello_world" is a query.
func playable(args []string) bool {
	if len(args) != 1 || !isLink(args[0]) {
		return false
	}
	_, err := registry.Find(args[0])
	return err == nil
}

func isLink(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
