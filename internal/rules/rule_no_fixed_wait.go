package rules

import "github.com/codewithboateng/champlint/internal/ir"

var fixedWaitCallees = map[string]bool{
	"cy.wait":             true,
	"page.waitForTimeout": true,
	"browser.pause":       true,
	"sleep":               true,
}

func init() {
	Register(Rule{
		ID:       "no-fixed-wait",
		Summary:  "Fixed sleeps make tests slow and flaky; wait on a condition.",
		Severity: ir.SeverityWarning,
		Docs: `# no-fixed-wait

` + "`cy.wait(1000)`" + ` passes on a fast grading machine and fails on a slow one.
Wait for an element, a route alias or a response instead, for example
` + "`cy.wait('@login')`" + ` or ` + "`cy.get('.toast').should('be.visible')`" + `.`,
		Eval: evalNoFixedWait,
	})
}

func evalNoFixedWait(suite *ir.Suite, _ Settings) []ir.Finding {
	var out []ir.Finding
	for _, tc := range suite.Cases {
		for _, c := range tc.Calls {
			if !c.NumericArg || !fixedWaitCallees[c.Callee] {
				continue
			}
			out = append(out, ir.Finding{
				RuleID:   "no-fixed-wait",
				Severity: ir.SeverityWarning,
				Loc:      c.Loc,
				Test:     tc.FullName(),
				Message:  "fixed wait of " + c.FirstArg + "ms; wait on a condition instead",
				Evidence: c.Callee + "(" + c.FirstArg + ")",
			})
		}
	}
	return out
}
