package rules

import "github.com/codewithboateng/champlint/internal/ir"

func init() {
	Register(Rule{
		ID:       "no-empty-test",
		Summary:  "A test without assertions always passes.",
		Severity: ir.SeverityWarning,
		Docs: `# no-empty-test

Every test must check something. A test body without ` + "`assert`, `expect`" + ` or
` + "`.should`" + ` passes as long as nothing throws, which awards points for
nothing.`,
		Eval: evalNoEmptyTest,
	})
}

func evalNoEmptyTest(suite *ir.Suite, _ Settings) []ir.Finding {
	var out []ir.Finding
	for _, tc := range suite.Cases {
		if tc.Kind.IsHook() || tc.Modifier == "skip" || len(tc.Assertions) > 0 {
			continue
		}
		out = append(out, ir.Finding{
			RuleID:   "no-empty-test",
			Severity: ir.SeverityWarning,
			Loc:      tc.Loc,
			Test:     tc.FullName(),
			Message:  "test makes no assertions",
		})
	}
	return out
}
