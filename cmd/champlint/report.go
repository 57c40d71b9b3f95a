package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/champlint/internal/analysis"
	"github.com/codewithboateng/champlint/internal/ir"
	"github.com/codewithboateng/champlint/internal/reporting"
	"github.com/codewithboateng/champlint/internal/storage"
)

func reportCmd(g *globals) *cobra.Command {
	var runID, outDir, dbPath, format string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Re-render a saved run (use --run latest for the newest)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(g)
			if err != nil {
				return err
			}
			if runID == "" {
				return usageErr("report: --run is required")
			}
			db, err := openDB(orDefault(dbPath, e.cfg.Database.DSN))
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			run, err := loadRun(db, runID)
			if err != nil {
				return err
			}
			switch format {
			case "json":
				if err := reporting.EncodeJSON(cmd.OutOrStdout(), &run); err != nil {
					return err
				}
			case "text":
				if err := reporting.WriteText(cmd.OutOrStdout(), analysis.Report(run), reporting.TextOptions{
					Color: e.cfg.Reporting.Color, Summary: true,
				}); err != nil {
					return err
				}
			case "":
			default:
				return usageErr("unknown --format %q", format)
			}
			if format == "" || outDir != "" {
				out := orDefault(outDir, e.cfg.Reporting.OutDir)
				if err := writeReports(out, &run, e.cfg.Reporting.Formats); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Report OK\n  Run: %s\n  Out: %s\n", run.ID, out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Run ID, or 'latest'")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory for report files")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Print to stdout instead (text, json)")
	return cmd
}

func diffCmd(g *globals) *cobra.Command {
	var base, head, outDir, dbPath string
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the findings of two saved runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(g)
			if err != nil {
				return err
			}
			if base == "" || head == "" {
				return usageErr("diff: --base and --head are required")
			}
			db, err := openDB(orDefault(dbPath, e.cfg.Database.DSN))
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			br, err := loadRun(db, base)
			if err != nil {
				return err
			}
			hr, err := loadRun(db, head)
			if err != nil {
				return err
			}
			if outDir == "" {
				return reporting.EncodeJSON(cmd.OutOrStdout(), reporting.Diff(&br, &hr))
			}
			path, err := reporting.WriteDiffJSON(outDir, &br, &hr)
			if err != nil {
				return fmt.Errorf("write diff: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Diff OK\n  %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "base", "", "Base run ID")
	cmd.Flags().StringVar(&head, "head", "", "Head run ID, or 'latest'")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Write the diff JSON here instead of stdout")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	return cmd
}

func runsCmd(g *globals) *cobra.Command {
	var dbPath string
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List saved runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(g)
			if err != nil {
				return err
			}
			db, err := openDB(orDefault(dbPath, e.cfg.Database.DSN))
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()
			rows, err := db.ListRuns(limit, 0)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTARTED\tFINDINGS\tVIOLATIONS\tSOURCE")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Findings, r.Violations, r.Source)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}

func loadRun(db *storage.DB, id string) (ir.Run, error) {
	if id == "latest" {
		run, err := db.LoadLatestRun()
		if err != nil {
			return ir.Run{}, fmt.Errorf("load latest run: %w", err)
		}
		return run, nil
	}
	run, err := db.LoadRun(id)
	if err != nil {
		return ir.Run{}, fmt.Errorf("load run %s: %w", id, err)
	}
	return run, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
