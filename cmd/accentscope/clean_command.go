package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"accentscope/internal/logging"
	"accentscope/internal/workdir"
)

const logFilePattern = "*.log*"

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	var logMaxAge time.Duration
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale temp files and old logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if dryRun {
				artifacts, err := workdir.ListArtifacts(cfg.Paths.WorkDir)
				if err != nil {
					return err
				}
				cutoff := time.Now().Add(-maxAge)
				rows := make([][]string, 0, len(artifacts))
				for _, artifact := range artifacts {
					if maxAge > 0 && artifact.ModTime.After(cutoff) {
						continue
					}
					rows = append(rows, []string{artifact.Name, humanize.Bytes(uint64(artifact.Size)), humanize.Time(artifact.ModTime)})
				}
				if len(rows) == 0 {
					fmt.Fprintln(out, "Nothing to remove")
					return nil
				}
				fmt.Fprintln(out, renderTable([]string{"File", "Size", "Modified"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignLeft}, nil))
				return nil
			}

			result := workdir.CleanStale(cmd.Context(), cfg.Paths.WorkDir, maxAge, logger)
			fmt.Fprintf(out, "Removed %d temp file(s), %s\n", len(result.Removed), humanize.Bytes(uint64(result.Bytes)))
			for _, failure := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed to remove %s: %v\n", failure.Path, failure.Error)
			}

			if logMaxAge > 0 && cfg.Paths.LogDir != "" {
				pruned := logging.PruneOldLogs(logger, cfg.Paths.LogDir, logFilePattern, logMaxAge)
				fmt.Fprintf(out, "Pruned %d log file(s)\n", len(pruned))
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d file(s) could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", time.Hour, "Only remove temp files older than this (0 removes all)")
	cmd.Flags().DurationVar(&logMaxAge, "logs-max-age", 14*24*time.Hour, "Remove rotated logs older than this (0 keeps all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be removed")
	return cmd
}
