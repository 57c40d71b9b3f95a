package reporting

import (
	"bufio"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/codewithboateng/champlint/internal/ir"
)

type TextOptions struct {
	Color   bool
	Summary bool
}

var severityStyles = map[ir.Severity]lipgloss.Style{
	ir.SeverityViolation: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	ir.SeverityWarning:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	ir.SeveritySkipped:   lipgloss.NewStyle().Faint(true),
}

// WriteText renders one finding per line:
//
//	<rule-id> <severity> <file>:<line>:<col> <message>
//
// Findings are written in report order, which the engine keeps sorted.
func WriteText(w io.Writer, rep ir.Report, opts TextOptions) error {
	bw := bufio.NewWriter(w)
	for _, f := range rep.Findings {
		sev := string(f.Severity)
		if opts.Color {
			if st, ok := severityStyles[f.Severity]; ok {
				sev = st.Render(sev)
			}
		}
		if _, err := fmt.Fprintf(bw, "%s %s %s %s\n", f.RuleID, sev, f.Loc, f.Message); err != nil {
			return err
		}
	}
	if opts.Summary {
		fmt.Fprintf(bw, "%d violation(s), %d warning(s), %d skipped",
			ir.CountSeverity(rep.Findings, ir.SeverityViolation),
			ir.CountSeverity(rep.Findings, ir.SeverityWarning),
			ir.CountSeverity(rep.Findings, ir.SeveritySkipped),
		)
		if rep.Waived > 0 {
			fmt.Fprintf(bw, ", %d waived", rep.Waived)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
