package rules

import (
	"strconv"
	"strings"

	"github.com/codewithboateng/champlint/internal/ir"
)

const extraSuffix = "_extra"

func init() {
	Register(Rule{
		ID:       "extra-test-parity",
		Summary:  "Every X_extra test needs a normal test named X.",
		Severity: ir.SeverityViolation,
		Docs: `# extra-test-parity

Extra tests are hidden from competitors and re-check a normal test with
different data, to catch hard-coded solutions. An extra test without its
visible counterpart awards points for behaviour competitors were never told
about.

Name extra tests after the test they mirror: ` + "`login` and `login_extra`" + `.`,
		Eval: evalExtraTestParity,
	})
}

// baseName strips a case-insensitive _extra suffix.
func baseName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), extraSuffix) {
		return name[:len(name)-len(extraSuffix)]
	}
	return name
}

func evalExtraTestParity(suite *ir.Suite, _ Settings) []ir.Finding {
	normal := make(map[string]bool)
	for _, tc := range suite.Cases {
		if tc.Kind == ir.KindTest {
			normal[tc.Name] = true
		}
	}
	var out []ir.Finding
	for _, tc := range suite.Cases {
		if tc.Kind != ir.KindExtra {
			continue
		}
		base := baseName(tc.Name)
		if normal[base] {
			continue
		}
		out = append(out, ir.Finding{
			RuleID:   "extra-test-parity",
			Severity: ir.SeverityViolation,
			Loc:      tc.Loc,
			Test:     tc.FullName(),
			Message:  "extra test has no matching normal test " + strconv.Quote(base),
			Evidence: tc.Name,
		})
	}
	return out
}
