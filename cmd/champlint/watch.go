package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/champlint/internal/analysis"
	"github.com/codewithboateng/champlint/internal/parser"
	"github.com/codewithboateng/champlint/internal/reporting"
	"github.com/codewithboateng/champlint/internal/watch"
)

func watchCmd(g *globals) *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-lint a suite whenever its files change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(g)
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else if len(e.cfg.Analysis.Sources) > 0 {
				path = e.cfg.Analysis.Sources[0]
			}
			if path == "" {
				return usageErr("watch: a path (or analysis.sources in config) is required")
			}
			opts := analysis.OptionsFromConfig(e.cfg)
			opts.Logger = e.logger
			out := cmd.OutOrStdout()

			relint := func(ctx context.Context, changed []string) {
				if len(changed) > 0 {
					fmt.Fprintf(out, "\n--- %s: %d file(s) changed\n", time.Now().Format("15:04:05"), len(changed))
				}
				run, err := analysis.Analyze(ctx, analysis.Input{Path: path}, opts)
				if err != nil {
					var pe *parser.ParseError
					if errors.As(err, &pe) {
						fmt.Fprintln(out, pe.Error())
						return
					}
					e.logger.Error("analysis failed", "error", err)
					return
				}
				_ = reporting.WriteText(out, analysis.Report(run), reporting.TextOptions{
					Color: e.cfg.Reporting.Color, Summary: true,
				})
			}

			w, err := watch.New(watch.Config{
				Root:     path,
				Debounce: debounce,
				Parser:   opts.Parser,
				Logger:   e.logger,
			})
			if err != nil {
				return usageErr("watch %s: %w", path, err)
			}
			defer w.Close()

			relint(cmd.Context(), nil)
			return w.Run(cmd.Context(), relint)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before re-linting")
	return cmd
}
