package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/shrink/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the compression cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cacheDir, _ := cmd.Flags().GetString("cache-dir")
			return c.app.Clean(cmd.Context(), app.CleanOptions{CacheDir: cacheDir})
		},
	}
}
