package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"accentscope/internal/accent"
	"accentscope/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check configuration, directories and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := preflight.Run(cmd.Context(), cfg)
			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				lines := renderSectionHeader("Configuration", colorize)
				lines = append(lines,
					renderStatusLine("Config", statusInfo, ctx.configPath, colorize),
					renderStatusLine("Mode", statusInfo, report.Mode, colorize),
					renderStatusLine("Transcriber", statusInfo, cfg.Models.Transcriber, colorize),
					renderStatusLine("Accent fallback", statusInfo, cfg.Accent.Fallback, colorize),
					renderStatusLine("API token", statusInfo, yesNo(cfg.Server.APIToken != ""), colorize),
					renderStatusLine("Accents", statusInfo, strings.Join(accent.SupportedNames(), ", "), colorize),
					"",
				)

				lines = append(lines, renderSectionHeader("Checks", colorize)...)
				for _, check := range report.Checks {
					kind := statusOK
					if !check.Passed {
						kind = statusError
					}
					lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
				}
				lines = append(lines, "")

				lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
				for _, dep := range report.Dependencies {
					kind := statusOK
					message := dep.Command
					switch {
					case !dep.Available && dep.Optional:
						kind = statusWarn
						message = dep.Detail
					case !dep.Available:
						kind = statusError
						message = dep.Detail
					}
					lines = append(lines, renderStatusLine(dep.Name, kind, message, colorize))
				}
				fmt.Fprintln(out, strings.Join(lines, "\n"))
			}
			if !report.Ready() {
				return errors.New("one or more required checks failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	return cmd
}
