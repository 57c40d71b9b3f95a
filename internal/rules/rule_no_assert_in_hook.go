package rules

import (
	"fmt"

	"github.com/codewithboateng/champlint/internal/ir"
)

func init() {
	Register(Rule{
		ID:       "no-assert-in-hook",
		Summary:  "Assertions belong in tests, not in setup/teardown hooks.",
		Severity: ir.SeverityViolation,
		Docs: `# no-assert-in-hook

Hooks (` + "`before`, `beforeEach`, `after`, `afterEach`" + `) prepare and clean up
state. An assertion that fails inside a hook aborts every test that depends
on it, so competitors lose points for tests that never ran.

Each assertion in a hook is one finding. A ` + "`.should(callback)`" + ` counts once;
the checks inside its callback are part of it.

Move the check into a dedicated test.

` + "```js" + `
// flagged
beforeEach(() => {
  cy.login();
  assert(user.loggedIn);
});

// preferred
it('logs the user in', () => {
  cy.login();
  assert(user.loggedIn);
});
` + "```",
		Eval: evalNoAssertInHook,
	})
}

func evalNoAssertInHook(suite *ir.Suite, _ Settings) []ir.Finding {
	var out []ir.Finding
	for _, tc := range suite.Cases {
		if !tc.Kind.IsHook() {
			continue
		}
		for _, a := range tc.Assertions {
			out = append(out, ir.Finding{
				RuleID:   "no-assert-in-hook",
				Severity: ir.SeverityViolation,
				Loc:      tc.Loc,
				Test:     tc.FullName(),
				Message:  fmt.Sprintf("assertion inside %s hook; move it into a test", tc.Hook),
				Evidence: fmt.Sprintf("%s @ %d:%d", a.Text, a.Loc.Line, a.Loc.Column),
				Metadata: map[string]any{"assertion_line": a.Loc.Line, "assertion_column": a.Loc.Column},
			})
		}
	}
	return out
}
