package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"accentscope/internal/logging"
	"accentscope/internal/preflight"
	"accentscope/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var mode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web form and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cfg, err := withMode(base, mode)
			if err != nil {
				return err
			}
			if strings.TrimSpace(bind) != "" {
				cfg.Server.Bind = strings.TrimSpace(bind)
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

			srv, err := server.New(server.Options{
				Bind:     cfg.Server.Bind,
				APIToken: cfg.Server.APIToken,
				Runner:   rt.pipeline,
				Status: func(statusCtx context.Context) preflight.Report {
					return preflight.Run(statusCtx, cfg)
				},
				Logger: logger,
			})
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s mode on http://%s\n", rt.pipeline.Mode(), cfg.Server.Bind)
			return srv.Serve(runCtx)
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind (host:port)")
	cmd.Flags().StringVar(&mode, "mode", "", "Override models.mode (ml or heuristic)")
	return cmd
}
