package rules

import (
	"fmt"

	"github.com/codewithboateng/champlint/internal/ir"
	"github.com/codewithboateng/champlint/internal/stats"
)

func init() {
	Register(Rule{
		ID:       "test-too-complex",
		Summary:  "Deeply nested assertions make a test hard to read and grade.",
		Severity: ir.SeverityWarning,
		Docs: `# test-too-complex

Tests should read top to bottom. Assertions nested in several loops or
conditions are a sign the test is doing the work of several tests. The limit
is set by ` + "`rules.max_nesting_depth`" + ` (default 2).`,
		Eval: evalTestTooComplex,
	})
}

func evalTestTooComplex(suite *ir.Suite, s Settings) []ir.Finding {
	var out []ir.Finding
	for _, tc := range suite.Cases {
		depth := stats.Annotate(&tc).MaxDepth
		if depth <= s.MaxNestingDepth {
			continue
		}
		out = append(out, ir.Finding{
			RuleID:   "test-too-complex",
			Severity: ir.SeverityWarning,
			Loc:      tc.Loc,
			Test:     tc.FullName(),
			Message:  fmt.Sprintf("assertions nested %d levels deep (max %d)", depth, s.MaxNestingDepth),
		})
	}
	return out
}
