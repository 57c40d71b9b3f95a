package rules

import (
	"github.com/codewithboateng/champlint/internal/ir"
)

func init() {
	Register(Rule{
		ID:       "no-loop-generated-assert",
		Summary:  "Write repeated literal assertions instead of generating them in a loop.",
		Severity: ir.SeverityWarning,
		Docs: `# no-loop-generated-assert

Assertions produced by a loop hide how many checks a test makes and which
value failed. When the collection is empty the test passes without checking
anything.

Spell the expected values out, one assertion each.`,
		Eval: evalNoLoopGeneratedAssert,
	})
}

func evalNoLoopGeneratedAssert(suite *ir.Suite, _ Settings) []ir.Finding {
	var out []ir.Finding
	for _, tc := range suite.Cases {
		for _, a := range tc.Assertions {
			if a.LoopDepth == 0 {
				continue
			}
			out = append(out, ir.Finding{
				RuleID:   "no-loop-generated-assert",
				Severity: ir.SeverityWarning,
				Loc:      a.Loc,
				Test:     tc.FullName(),
				Message:  "assertion generated inside a " + a.LoopKeyword + " loop",
				Evidence: a.Text,
			})
		}
	}
	return out
}
