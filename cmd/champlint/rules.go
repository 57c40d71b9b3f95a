package main

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/codewithboateng/champlint/internal/analysis"
	"github.com/codewithboateng/champlint/internal/ir"
	"github.com/codewithboateng/champlint/internal/rules"
)

func rulesCmd(g *globals) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List registered rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(g)
			if err != nil {
				return err
			}
			enabled := map[string]bool{}
			for _, r := range rules.List(analysis.OptionsFromConfig(e.cfg).Settings) {
				enabled[r.ID] = true
			}
			out := cmd.OutOrStdout()
			if plain {
				for _, r := range rules.All() {
					fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", r.ID, r.Severity, onOff(enabled[r.ID]), r.Summary)
				}
				return nil
			}

			header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
			cell := lipgloss.NewStyle().Padding(0, 1)
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("RULE", "SEVERITY", "STATUS", "SUMMARY").
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return header
					}
					return cell
				})
			for _, r := range rules.All() {
				t.Row(r.ID, severityLabel(r.Severity), onOff(enabled[r.ID]), r.Summary)
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Tab-separated output without styling")
	return cmd
}

func explainCmd(g *globals) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "explain <rule-id>",
		Short: "Show the documentation of a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := setup(g); err != nil {
				return err
			}
			r, ok := rules.Get(args[0])
			if !ok {
				return usageErr("unknown rule %q (see `champlint rules`)", args[0])
			}
			doc := fmt.Sprintf("# %s\n\n*%s* · %s\n\n%s\n", r.ID, r.Severity, r.Summary, r.Docs)
			if plain {
				_, err := fmt.Fprint(cmd.OutOrStdout(), doc)
				return err
			}
			rendered, err := glamour.Render(doc, "dark")
			if err != nil {
				return fmt.Errorf("render docs: %w", err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), rendered)
			return err
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print raw Markdown")
	return cmd
}

func severityLabel(s ir.Severity) string {
	switch s {
	case ir.SeverityViolation:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(string(s))
	case ir.SeverityWarning:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render(string(s))
	}
	return string(s)
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
