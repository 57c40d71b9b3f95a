package rules

import "github.com/codewithboateng/champlint/internal/ir"

func init() {
	Register(Rule{
		ID:       "no-exclusive-test",
		Summary:  ".only left in the suite silently disables every other test.",
		Severity: ir.SeverityViolation,
		Docs: `# no-exclusive-test

` + "`it.only`, `describe.only`, `fit` and `fdescribe`" + ` restrict the run to one
block. Shipped to graders, they drop every other test from the score.`,
		Eval: func(suite *ir.Suite, _ Settings) []ir.Finding {
			return modifierFindings(suite, "only", "no-exclusive-test", ir.SeverityViolation,
				"exclusive block restricts the run; remove .only")
		},
	})
}

// modifierFindings reports describe blocks and tests carrying mod.
func modifierFindings(suite *ir.Suite, mod, ruleID string, sev ir.Severity, msg string) []ir.Finding {
	var out []ir.Finding
	for _, b := range suite.Blocks {
		if b.Modifier != mod {
			continue
		}
		out = append(out, ir.Finding{
			RuleID:   ruleID,
			Severity: sev,
			Loc:      b.Loc,
			Test:     ir.TestCase{Name: b.Name, Scope: b.Scope}.FullName(),
			Message:  msg,
			Evidence: "describe." + mod,
		})
	}
	for _, tc := range suite.Cases {
		if tc.Modifier != mod {
			continue
		}
		out = append(out, ir.Finding{
			RuleID:   ruleID,
			Severity: sev,
			Loc:      tc.Loc,
			Test:     tc.FullName(),
			Message:  msg,
			Evidence: "it." + mod,
		})
	}
	return out
}
