package reporting

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/codewithboateng/champlint/internal/ir"
	"github.com/codewithboateng/champlint/internal/stats"
)

func WriteHTML(runID, outDir string, run *ir.Run) (string, error) {
	path := filepath.Join(outDir, runID+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := RenderHTML(f, run); err != nil {
		return "", err
	}
	return path, nil
}

func RenderHTML(w io.Writer, run *ir.Run) error {
	f := bufio.NewWriter(w)
	totals := stats.Summarize(&run.Suite)

	// Head + styles
	fmt.Fprintf(f, "<!doctype html><html><head><meta charset='utf-8'><title>%s</title>", html.EscapeString(run.ID))
	fmt.Fprint(f, "<style>body{font-family:system-ui,Arial,sans-serif;padding:20px;line-height:1.4} table{border-collapse:collapse;margin:8px 0} td,th{border:1px solid #ddd;padding:6px} h1,h2{margin:6px 0 4px} .dim{color:#666} .mono{font-family:ui-monospace,Menlo,Consolas,monospace} .violation{color:#b00020;font-weight:600} .warning{color:#a05a00} .skipped{color:#666}</style>")
	fmt.Fprint(f, "</head><body>")

	// Title + summary
	fmt.Fprintf(f, "<h1>champlint report – <span class='mono'>%s</span></h1>", html.EscapeString(run.ID))
	if run.Source != "" {
		fmt.Fprintf(f, "<p class='dim mono'>%s</p>", html.EscapeString(run.Source))
	}
	fmt.Fprintf(f, "<p>Files: %d &nbsp; Tests: %d &nbsp; Extra tests: %d &nbsp; Hooks: %d &nbsp; Assertions: %d &nbsp; Skipped: %d</p>",
		totals.Files, totals.Tests, totals.Extras, totals.Hooks, totals.Assertions, totals.Skipped)
	fmt.Fprintf(f, "<p>Findings: %d &nbsp; Violations: %d &nbsp; Warnings: %d",
		len(run.Findings),
		ir.CountSeverity(run.Findings, ir.SeverityViolation),
		ir.CountSeverity(run.Findings, ir.SeverityWarning))
	if run.Waived > 0 {
		fmt.Fprintf(f, " &nbsp; Waived: %d", run.Waived)
	}
	fmt.Fprint(f, "</p>")

	// Severity/disabled banner
	fmt.Fprintf(f, "<p class='dim'>Severity threshold: %s &nbsp; Max nesting depth: %d",
		html.EscapeString(run.Context.RuleSeverityThreshold), run.Context.MaxNestingDepth)
	if n := len(run.Context.DisabledRules); n > 0 {
		fmt.Fprintf(f, " &nbsp; Disabled rules: %d", n)
	}
	fmt.Fprint(f, "</p>")

	// Findings per rule
	if len(run.Findings) > 0 {
		byRule := map[string]int{}
		for _, fd := range run.Findings {
			byRule[fd.RuleID]++
		}
		ids := make([]string, 0, len(byRule))
		for id := range byRule {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		fmt.Fprint(f, "<h2>By Rule</h2><table><tr><th>Rule</th><th>Findings</th></tr>")
		for _, id := range ids {
			fmt.Fprintf(f, "<tr><td class='mono'>%s</td><td>%d</td></tr>", html.EscapeString(id), byRule[id])
		}
		fmt.Fprint(f, "</table>")
	}

	// All findings
	if len(run.Findings) > 0 {
		fmt.Fprint(f, "<h2>All Findings</h2><table><tr><th>Severity</th><th>Rule</th><th>Location</th><th>Test</th><th>Message</th></tr>")
		for _, fd := range run.Findings {
			fmt.Fprintf(f, "<tr><td class='%s'>%s</td><td class='mono'>%s</td><td class='mono'>%s</td><td>%s</td><td>%s</td></tr>",
				html.EscapeString(string(fd.Severity)),
				html.EscapeString(string(fd.Severity)),
				html.EscapeString(fd.RuleID),
				html.EscapeString(fd.Loc.String()),
				html.EscapeString(fd.Test),
				html.EscapeString(fd.Message),
			)
		}
		fmt.Fprint(f, "</table>")
	} else {
		fmt.Fprint(f, "<h2>All Findings</h2><p class='dim'>No findings at or above the configured threshold.</p>")
	}

	fmt.Fprint(f, "</body></html>")
	return f.Flush()
}
