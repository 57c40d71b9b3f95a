package rules

import "github.com/codewithboateng/champlint/internal/ir"

func init() {
	Register(Rule{
		ID:       "no-skipped-test",
		Summary:  "Skipped tests award no points; finish or delete them.",
		Severity: ir.SeverityWarning,
		Docs: `# no-skipped-test

A skipped test (` + "`it.skip`, `xit`, `describe.skip`" + `) still shows up in the
marking scheme but can never award its points.`,
		Eval: func(suite *ir.Suite, _ Settings) []ir.Finding {
			return modifierFindings(suite, "skip", "no-skipped-test", ir.SeverityWarning,
				"skipped block never runs")
		},
	})
}
