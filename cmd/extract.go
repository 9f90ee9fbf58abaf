package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"musicca/internal/logger"
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Resolve a link into its tracks or videos",
	Args:  cobra.ExactArgs(1),
	RunE:  extractRun,
}

func extractRun(cmd *cobra.Command, args []string) error {
	ext, err := registry.Find(args[0])
	if err != nil {
		return err
	}
	logger.Debugf("extracting %s with %s", args[0], ext.Name())

	items, err := ext.Extract(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("extracting %s: %w", args[0], err)
	}
	return printMedia(cmd.OutOrStdout(), cfg.Output, items)
}
