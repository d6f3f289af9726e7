package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"accentscope/internal/logging"
	"accentscope/internal/modelcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the model cache",
	}
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func openCache(ctx *commandContext) (*modelcache.Cache, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	return modelcache.Open(cfg.Paths.ModelCacheDir, logger)
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "List cached models and disk usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()

			entries, err := cache.Registry().List(cmd.Context())
			if err != nil {
				return err
			}
			usage, err := cache.Usage()
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, map[string]any{
					"root":    cache.Root(),
					"models":  entries,
					"storage": usage,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache root: %s\n\n", cache.Root())
			if len(entries) == 0 {
				fmt.Fprintln(out, "No models have been used yet")
			} else {
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					rows = append(rows, []string{
						entry.Name,
						entry.Source,
						strconv.Itoa(entry.Uses),
						humanize.Time(entry.LastUsedAt),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Model", "Source", "Uses", "Last used"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
					nil,
				))
			}

			var total int64
			var files int
			rows := make([][]string, 0, len(usage))
			for _, dir := range usage {
				total += dir.Bytes
				files += dir.Files
				rows = append(rows, []string{dir.Name, strconv.Itoa(dir.Files), humanize.Bytes(uint64(dir.Bytes))})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Directory", "Files", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
				[]string{"Total", strconv.Itoa(files), humanize.Bytes(uint64(total))},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer cache.Close()

			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintf(out, "This removes every model under %s. Continue? [y/N] ", cache.Root())
				var answer string
				_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
				if !strings.EqualFold(strings.TrimSpace(answer), "y") {
					fmt.Fprintln(out, "Aborted")
					return nil
				}
			}

			freed, err := cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			if logger, lerr := ctx.ensureLogger(); lerr == nil {
				logger.Info("model cache cleared", logging.Int64("bytes", freed))
			}
			fmt.Fprintf(out, "Freed %s\n", humanize.Bytes(uint64(freed)))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
