package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"accentscope/internal/analysis"
	"accentscope/internal/logging"
)

type analyzeOptions struct {
	jsonOutput bool
	mode       string
	keepTemp   bool
}

func (o *analyzeOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.jsonOutput, "json", false, "Print the report as JSON")
	cmd.Flags().StringVar(&o.mode, "mode", "", "Override models.mode (ml or heuristic)")
	cmd.Flags().BoolVar(&o.keepTemp, "keep-temp", false, "Leave downloaded and extracted files in the work directory")
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Download a video by URL and classify its speaker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, ctx, opts, func(runCtx context.Context, pipeline *analysis.Pipeline) (*analysis.Report, error) {
				return pipeline.Run(runCtx, args[0])
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func newAnalyzeFileCommand(ctx *commandContext) *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze-file <path>",
		Short: "Classify the speaker in a local video or WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("input file: %w", err)
			}
			return runAnalysis(cmd, ctx, opts, func(runCtx context.Context, pipeline *analysis.Pipeline) (*analysis.Report, error) {
				return pipeline.RunFile(runCtx, args[0])
			})
		},
	}
	opts.bind(cmd)
	return cmd
}

func runAnalysis(cmd *cobra.Command, ctx *commandContext, opts analyzeOptions, run func(context.Context, *analysis.Pipeline) (*analysis.Report, error)) error {
	base, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	cfg, err := withMode(base, opts.mode)
	if err != nil {
		return err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	rt, err := buildRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			logger.Warn("close runtime", logging.Error(cerr))
		}
	}()
	rt.pipeline.KeepTemp(opts.keepTemp)

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := run(runCtx, rt.pipeline)
	if err != nil {
		if opts.jsonOutput {
			return writeJSONFailure(cmd, err)
		}
		return err
	}
	if opts.jsonOutput {
		return writeJSON(cmd, report)
	}
	renderReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
	return nil
}
