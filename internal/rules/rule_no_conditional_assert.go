package rules

import "github.com/codewithboateng/champlint/internal/ir"

func init() {
	Register(Rule{
		ID:       "no-conditional-assert",
		Summary:  "Assertions behind a condition may never run.",
		Severity: ir.SeverityWarning,
		Docs: `# no-conditional-assert

Keep tests simple and linear. An assertion inside ` + "`if`, `switch`" + ` or a
ternary only runs on one path, so the test can pass without checking the
behaviour it is named after.`,
		Eval: evalNoConditionalAssert,
	})
}

func evalNoConditionalAssert(suite *ir.Suite, _ Settings) []ir.Finding {
	var out []ir.Finding
	for _, tc := range suite.Cases {
		for _, a := range tc.Assertions {
			if a.CondDepth == 0 {
				continue
			}
			out = append(out, ir.Finding{
				RuleID:   "no-conditional-assert",
				Severity: ir.SeverityWarning,
				Loc:      a.Loc,
				Test:     tc.FullName(),
				Message:  "assertion only runs on one branch of a condition",
				Evidence: a.Text,
			})
		}
	}
	return out
}
