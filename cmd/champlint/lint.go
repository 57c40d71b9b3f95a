package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/champlint/internal/analysis"
	"github.com/codewithboateng/champlint/internal/ir"
	"github.com/codewithboateng/champlint/internal/parser"
	"github.com/codewithboateng/champlint/internal/reporting"
)

type lintFlags struct {
	format    string
	outDir    string
	save      bool
	dbPath    string
	threshold string
	enable    []string
	disable   []string
	depth     int
	parallel  bool
	color     bool
	summary   bool
	stdinName string
}

func lintCmd(g *globals) *cobra.Command {
	var f lintFlags
	cmd := &cobra.Command{
		Use:   "lint [path|-]",
		Short: "Check a suite file or directory; '-' reads one file from stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(g)
			if err != nil {
				return err
			}
			if f.format != "text" && f.format != "json" {
				return usageErr("unknown --format %q", f.format)
			}
			opts := analysis.OptionsFromConfig(e.cfg)
			opts.Logger = e.logger
			fl := cmd.Flags()
			if fl.Changed("threshold") {
				if f.threshold != string(ir.SeverityWarning) && f.threshold != string(ir.SeverityViolation) {
					return usageErr("--threshold must be warning or violation")
				}
				opts.Settings.SeverityThreshold = f.threshold
			}
			if fl.Changed("enable") {
				opts.Settings.Enabled = f.enable
			}
			for _, id := range f.disable {
				opts.Settings.Disabled[id] = true
			}
			if fl.Changed("max-depth") {
				opts.Settings.MaxNestingDepth = f.depth
			}
			if fl.Changed("parallel") {
				opts.Settings.Parallel = f.parallel
			}
			color := e.cfg.Reporting.Color
			if fl.Changed("color") {
				color = f.color
			}

			path := ""
			if len(args) == 1 {
				path = args[0]
			} else if len(e.cfg.Analysis.Sources) > 0 {
				path = e.cfg.Analysis.Sources[0]
			}
			if path == "" {
				return usageErr("lint: a path (or analysis.sources in config) is required")
			}
			in := analysis.Input{Path: path}
			if path == "-" {
				src, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return usageErr("read stdin: %w", err)
				}
				in = analysis.Input{Name: f.stdinName, Source: src}
			}

			dbPath := f.dbPath
			if dbPath == "" {
				dbPath = e.cfg.Database.DSN
			}
			if f.save {
				db, err := openDB(dbPath)
				if err != nil {
					return fmt.Errorf("open db: %w", err)
				}
				defer db.Close()
				if ws, err := db.ListWaivers(true); err == nil {
					opts.Waivers = ws
				} else {
					e.logger.Warn("waivers unavailable", "error", err)
				}
				// the report is printed before saving so a db error never hides it
				run, lerr := lint(cmd, in, opts, f, color, e.cfg.Reporting.Formats)
				if lerr != nil && run == nil {
					return lerr
				}
				if err := db.SaveRun(run); err != nil {
					return fmt.Errorf("save run: %w", err)
				}
				e.logger.Info("run saved", "run", run.ID, "db", filepath.Clean(dbPath))
				return lerr
			}
			_, err = lint(cmd, in, opts, f, color, e.cfg.Reporting.Formats)
			return err
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.format, "format", "f", "text", "Output format on stdout (text, json)")
	fl.StringVarP(&f.outDir, "out", "o", "", "Also write report files (reporting.formats) to this directory")
	fl.BoolVar(&f.save, "save", false, "Persist the run to the database")
	fl.StringVar(&f.dbPath, "db", "", "SQLite database path")
	fl.StringVar(&f.threshold, "threshold", "", "Minimum severity to report (warning, violation)")
	fl.StringSliceVar(&f.enable, "enable", nil, "Only run these rule ids")
	fl.StringSliceVar(&f.disable, "disable", nil, "Skip these rule ids")
	fl.IntVar(&f.depth, "max-depth", 0, "Maximum loop/conditional nesting around an assertion")
	fl.BoolVar(&f.parallel, "parallel", false, "Evaluate rules concurrently")
	fl.BoolVar(&f.color, "color", false, "Colour severities in text output")
	fl.BoolVar(&f.summary, "summary", true, "Print a summary line after text output")
	fl.StringVar(&f.stdinName, "stdin-name", "stdin.js", "File name used for locations when reading stdin")
	return cmd
}

// lint runs the pipeline and renders the result. The returned run is non-nil
// whenever analysis succeeded, even if the error signals violations.
func lint(cmd *cobra.Command, in analysis.Input, opts analysis.Options, f lintFlags, color bool, formats []string) (*ir.Run, error) {
	run, err := analysis.Analyze(cmd.Context(), in, opts)
	if err != nil {
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			return nil, &exitError{code: exitUsage, err: pe}
		}
		return nil, &exitError{code: exitUsage, err: err}
	}
	rep := analysis.Report(run)

	out := cmd.OutOrStdout()
	switch f.format {
	case "json":
		err = reporting.EncodeJSON(out, &run)
	default:
		err = reporting.WriteText(out, rep, reporting.TextOptions{Color: color, Summary: f.summary})
	}
	if err != nil {
		return &run, fmt.Errorf("write report: %w", err)
	}

	if f.outDir != "" {
		if err := writeReports(f.outDir, &run, formats); err != nil {
			return &run, err
		}
	}
	if rep.HasViolations() {
		return &run, &exitError{code: exitViolations}
	}
	return &run, nil
}

func writeReports(outDir string, run *ir.Run, formats []string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}
	for _, format := range formats {
		var (
			path string
			err  error
		)
		switch format {
		case "json":
			path, err = reporting.WriteJSON(run.ID, outDir, run)
		case "html":
			path, err = reporting.WriteHTML(run.ID, outDir, run)
		case "text":
			path = filepath.Join(outDir, run.ID+".txt")
			err = writeTextFile(path, run)
		}
		if err != nil {
			return fmt.Errorf("write %s report: %w", format, err)
		}
		slog.Info("report written", "format", format, "path", path)
	}
	return nil
}

func writeTextFile(path string, run *ir.Run) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()
	return reporting.WriteText(fh, analysis.Report(*run), reporting.TextOptions{Summary: true})
}
