package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/shrink/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [dir]",
		Short: "Optimize every asset in the build output directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := app.RunOptions{}
			if len(args) == 1 {
				opts.Dir = args[0]
			}
			opts.NoCache, _ = cmd.Flags().GetBool("no-cache")
			opts.CacheDir, _ = cmd.Flags().GetString("cache-dir")
			opts.Concurrency, _ = cmd.Flags().GetInt("concurrency")
			opts.Verbose, _ = cmd.Flags().GetBool("verbose")
			opts.JSON, _ = cmd.Flags().GetBool("json")
			return c.app.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolP("no-cache", "n", false, "Bypass the compression cache")
	cmd.Flags().IntP("concurrency", "j", 0, "Number of files processed in parallel (default: number of CPUs)")
	cmd.Flags().BoolP("verbose", "v", false, "Print one line per file")
	cmd.Flags().Bool("json", false, "Emit the report and logs as JSON")
	return cmd
}
