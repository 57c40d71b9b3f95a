package rulesdsl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/champlint/internal/ir"
	"github.com/codewithboateng/champlint/internal/parser"
	"github.com/codewithboateng/champlint/internal/rules"
)

const pack = `rules:
  - id: no-hardcoded-host
    summary: Use relative URLs so suites run against any grading host.
    severity: warning
    message: hard-coded host in cy.visit
    where:
      kind: any
      callee: '^cy\.visit$'
      text_regex: 'https?://'
  - id: checkout-tests-only-in-checkout
    severity: violation
    message: extra tests are not allowed in the smoke suite
    where:
      kind: extra
      scope_regex: '^smoke > '
`

const suite = `describe('smoke', () => {
  it('home', () => { cy.visit('http://localhost:3000'); cy.get('h1').should('exist') });
  it('home_extra', () => { cy.visit('/'); assert(1) });
});`

func TestRegisterPack_RulesBehaveLikeBuiltins(t *testing.T) {
	n, err := RegisterPack([]byte(pack))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	r, ok := rules.Get("no-hardcoded-host")
	require.True(t, ok)
	assert.Equal(t, ir.SeverityWarning, r.Severity)

	s, err := parser.ParseSource(context.Background(), "smoke.cy.js", []byte(suite), parser.Options{})
	require.NoError(t, err)
	st := rules.DefaultSettings()
	st.Enabled = []string{"no-hardcoded-host", "checkout-tests-only-in-checkout"}
	rep := rules.NewEngine(st).Evaluate(&s)

	require.Len(t, rep.Findings, 2)
	host := rep.Findings[1]
	assert.Equal(t, "no-hardcoded-host", host.RuleID)
	assert.Equal(t, "cy.visit('http://localhost:3000')", host.Evidence)
	assert.Equal(t, 2, host.Loc.Line)

	extra := rep.Findings[0]
	assert.Equal(t, "checkout-tests-only-in-checkout", extra.RuleID)
	assert.Equal(t, ir.SeverityViolation, extra.Severity)
	assert.Equal(t, "smoke > home_extra", extra.Test)
	assert.Equal(t, 3, extra.Loc.Line)
}

func TestRegisterPack_SchemaErrors(t *testing.T) {
	bad := `rules:
  - id: Bad_ID
    severity: fatal
    where: {kind: sometimes}
`
	_, err := RegisterPack([]byte(bad))
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "got %v", err)
	assert.GreaterOrEqual(t, len(verr.Problems), 3)
	assert.Contains(t, err.Error(), "invalid rule pack")

	_, ok := rules.Get("Bad_ID")
	assert.False(t, ok)
}

func TestRegisterPack_BadRegexRegistersNothing(t *testing.T) {
	p := `rules:
  - id: fine-rule
    severity: warning
    message: fine
  - id: broken-rule
    severity: warning
    message: broken
    where: {callee: '([a-z'}
`
	_, err := RegisterPack([]byte(p))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `compile rule "broken-rule"`)

	_, ok := rules.Get("fine-rule")
	assert.False(t, ok)
}

func TestLoadAndRegister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`rules:
  - id: from-file
    severity: warning
    message: loaded from disk
`), 0o644))
	n, err := LoadAndRegister(path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = LoadAndRegister(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadAndRegister_SamplePack(t *testing.T) {
	n, err := LoadAndRegister(filepath.Join("..", "..", "configs", "rules", "championship.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	r, ok := rules.Get("no-absolute-visit-url")
	require.True(t, ok)
	assert.Equal(t, ir.SeverityViolation, r.Severity)
}

func TestRegisterPack_RejectsTakenIDs(t *testing.T) {
	builtin, ok := rules.Get("no-assert-in-hook")
	require.True(t, ok)

	cases := map[string]string{
		"builtin": `rules:
  - id: no-assert-in-hook
    severity: warning
    message: shadowed
`,
		"skip marker": `rules:
  - id: unsupported-construct
    severity: warning
    message: shadowed
`,
		"twice in pack": `rules:
  - id: twice-rule
    severity: warning
    message: one
  - id: twice-rule
    severity: warning
    message: two
`,
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := RegisterPack([]byte(p))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "rule \"")
		})
	}

	after, ok := rules.Get("no-assert-in-hook")
	require.True(t, ok)
	assert.Equal(t, builtin.Summary, after.Summary)
	assert.Equal(t, ir.SeverityViolation, after.Severity)
	_, ok = rules.Get("twice-rule")
	assert.False(t, ok)
}
