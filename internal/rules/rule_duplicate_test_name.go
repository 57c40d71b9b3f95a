package rules

import (
	"fmt"

	"github.com/codewithboateng/champlint/internal/ir"
)

func init() {
	Register(Rule{
		ID:       "duplicate-test-name",
		Summary:  "Two tests with the same name cannot be scored separately.",
		Severity: ir.SeverityWarning,
		Docs: `# duplicate-test-name

Points are assigned per test name in the marking sheet. Two tests sharing a
name (within the same describe path) make results ambiguous.`,
		Eval: evalDuplicateTestName,
	})
}

func evalDuplicateTestName(suite *ir.Suite, _ Settings) []ir.Finding {
	first := make(map[string]ir.Location)
	var out []ir.Finding
	for _, tc := range suite.Cases {
		if tc.Kind.IsHook() {
			continue
		}
		key := tc.Loc.File + "\x00" + tc.FullName()
		prev, ok := first[key]
		if !ok {
			first[key] = tc.Loc
			continue
		}
		out = append(out, ir.Finding{
			RuleID:   "duplicate-test-name",
			Severity: ir.SeverityWarning,
			Loc:      tc.Loc,
			Test:     tc.FullName(),
			Message:  fmt.Sprintf("test name already used at line %d", prev.Line),
			Evidence: tc.Name,
		})
	}
	return out
}
