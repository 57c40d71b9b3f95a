package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/champlint/internal/ir"
)

const authSuite = `describe('auth', () => {
  beforeEach(() => {
    assert(user.loggedIn);
  });
  it('login', () => {
    assert(true);
  });
  it('login_extra', function () {
    expect(user.name).to.equal('bob');
  });
  afterEach('cleanup', () => {
    cy.clearCookies();
  });
});
`

func parse(t *testing.T, name, src string) ir.Suite {
	t.Helper()
	s, err := ParseSource(context.Background(), name, []byte(src), Options{})
	require.NoError(t, err)
	return s
}

func TestParseSource_Classification(t *testing.T) {
	s := parse(t, "auth.cy.js", authSuite)

	require.Len(t, s.Cases, 4)
	assert.Equal(t, []string{"auth.cy.js"}, s.Files)

	hook := s.Cases[0]
	assert.Equal(t, ir.KindSetup, hook.Kind)
	assert.Equal(t, "beforeEach", hook.Hook)
	assert.Equal(t, ir.Location{File: "auth.cy.js", Line: 2, Column: 3}, hook.Loc)
	require.Len(t, hook.Assertions, 1)
	assert.Equal(t, "assert", hook.Assertions[0].Callee)
	assert.Equal(t, "assert(user.loggedIn)", hook.Assertions[0].Text)
	assert.Equal(t, 3, hook.Assertions[0].Loc.Line)
	assert.Equal(t, 5, hook.Assertions[0].Loc.Column)

	login := s.Cases[1]
	assert.Equal(t, ir.KindTest, login.Kind)
	assert.Equal(t, "login", login.Name)
	assert.Equal(t, []string{"auth"}, login.Scope)
	assert.Equal(t, "auth > login", login.FullName())
	assert.Len(t, login.Assertions, 1)

	extra := s.Cases[2]
	assert.Equal(t, ir.KindExtra, extra.Kind)
	require.Len(t, extra.Assertions, 1, "expect chains count once")
	assert.Equal(t, "expect", extra.Assertions[0].Callee)

	teardown := s.Cases[3]
	assert.Equal(t, ir.KindTeardown, teardown.Kind)
	assert.Equal(t, "afterEach: cleanup", teardown.Name)
	assert.Empty(t, teardown.Assertions)
	require.Len(t, teardown.Calls, 1)
	assert.Equal(t, "cy.clearCookies", teardown.Calls[0].Callee)

	require.Len(t, s.Blocks, 1)
	assert.Equal(t, "auth", s.Blocks[0].Name)
	assert.Empty(t, s.Skips)
}

func TestParseSource_ExtraSuffixIsCaseInsensitive(t *testing.T) {
	s := parse(t, "x.js", `it('Checkout_EXTRA', () => { assert(1) })`)
	require.Len(t, s.Cases, 1)
	assert.Equal(t, ir.KindExtra, s.Cases[0].Kind)
}

func TestParseSource_LoopsAndConditions(t *testing.T) {
	src := `it('rows', () => {
  for (let i = 0; i < 3; i++) {
    assert(rows[i]);
  }
  items.forEach((item) => {
    if (item.visible) {
      expect(item).to.exist;
    }
  });
  while (more()) { cy.get('.row').should('exist'); }
  const ok = flag ? assert(a) : null;
  expect(total).to.equal(3);
});`
	s := parse(t, "rows.js", src)
	require.Len(t, s.Cases, 1)
	as := s.Cases[0].Assertions
	require.Len(t, as, 5)

	assert.Equal(t, 1, as[0].LoopDepth)
	assert.Equal(t, "for", as[0].LoopKeyword)

	assert.Equal(t, 1, as[1].LoopDepth)
	assert.Equal(t, 1, as[1].CondDepth)
	assert.Equal(t, "forEach", as[1].LoopKeyword)

	assert.Equal(t, "should", as[2].Callee)
	assert.Equal(t, "while", as[2].LoopKeyword)

	assert.Equal(t, 0, as[3].LoopDepth)
	assert.Equal(t, 1, as[3].CondDepth)

	assert.Zero(t, as[4].LoopDepth)
	assert.Zero(t, as[4].CondDepth)
}

func TestParseSource_ModifiersAndPlaywright(t *testing.T) {
	src := `describe.only('cart', () => {
  it.skip('empty', () => {});
  xit('legacy', () => {});
  fit('focus', () => { assert(1) });
});
test.describe('pw', () => {
  test.beforeEach(async ({ page }) => { await page.goto('/') });
  test('title', async ({ page }) => { await expect(page).toHaveTitle('x') });
});`
	s := parse(t, "mods.spec.ts", src)

	require.Len(t, s.Blocks, 2)
	assert.Equal(t, "only", s.Blocks[0].Modifier)
	assert.Equal(t, "pw", s.Blocks[1].Name)

	mods := map[string]string{}
	for _, tc := range s.Cases {
		mods[tc.Name] = tc.Modifier
	}
	assert.Equal(t, "skip", mods["empty"])
	assert.Equal(t, "skip", mods["legacy"])
	assert.Equal(t, "only", mods["focus"])

	var pwHook, pwTest *ir.TestCase
	for i := range s.Cases {
		switch s.Cases[i].Name {
		case "beforeEach":
			pwHook = &s.Cases[i]
		case "title":
			pwTest = &s.Cases[i]
		}
	}
	require.NotNil(t, pwHook)
	assert.Equal(t, ir.KindSetup, pwHook.Kind)
	assert.Equal(t, []string{"pw"}, pwHook.Scope)
	require.NotNil(t, pwTest)
	assert.Len(t, pwTest.Assertions, 1)
}

func TestParseSource_UnsupportedConstructsAreSkipped(t *testing.T) {
	src := `describe('table', () => {
  it.each([[1], [2]])('case %i', (n) => { expect(n).toBeTruthy() });
  it(titleFor('dynamic'), () => { assert(1) });
  it('named callback', runCheck);
  beforeEach(setupFixture);
  it('normal', () => { assert(1) });
});`
	s := parse(t, "table.test.js", src)

	require.Len(t, s.Cases, 1)
	assert.Equal(t, "normal", s.Cases[0].Name)

	require.Len(t, s.Skips, 4)
	reasons := []string{}
	for _, sk := range s.Skips {
		reasons = append(reasons, sk.Reason)
	}
	assert.Equal(t, []string{
		"table-driven .each block",
		"non-literal title",
		"callback is not a function literal",
		"hook callback is not a function literal",
	}, reasons)
	assert.Equal(t, "case %i", s.Skips[0].Name)
	assert.Equal(t, 2, s.Skips[0].Loc.Line)
}

func TestParseSource_PendingTestHasNoBody(t *testing.T) {
	s := parse(t, "p.js", `it('todo later');`)
	require.Len(t, s.Cases, 1)
	assert.Empty(t, s.Cases[0].Assertions)
	assert.Empty(t, s.Skips)
}

func TestParseSource_CallsAndConfiguredAssertions(t *testing.T) {
	src := `it('waits', () => {
  cy.wait(500);
  cy.wait('@login');
  verifyToast('saved');
});`
	s, err := ParseSource(context.Background(), "w.js", []byte(src), Options{AssertCallees: []string{"verifyToast"}})
	require.NoError(t, err)
	tc := s.Cases[0]

	require.Len(t, tc.Assertions, 1)
	assert.Equal(t, "verifyToast", tc.Assertions[0].Callee)

	require.Len(t, tc.Calls, 2)
	assert.Equal(t, ir.Call{Callee: "cy.wait", FirstArg: "500", NumericArg: true, Loc: ir.Location{File: "w.js", Line: 2, Column: 3}}, tc.Calls[0])
	assert.False(t, tc.Calls[1].NumericArg)
}

func TestParseSource_NoSuiteStructure(t *testing.T) {
	s := parse(t, "util.js", `export function add(a, b) { return a + b }`)
	assert.Empty(t, s.Cases)
	assert.Empty(t, s.Skips)
}

func TestParseSource_SyntaxErrorIsParseError(t *testing.T) {
	_, err := ParseSource(context.Background(), "broken.js", []byte("describe('x', () => {\n  it('y', () => {\n"), Options{})
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe), "got %T", err)
	assert.Equal(t, "broken.js", pe.Loc.File)
	assert.Positive(t, pe.Loc.Line)
	assert.Contains(t, pe.Error(), "parse error at broken.js:")
}

func TestParseSource_TypeScript(t *testing.T) {
	src := `interface User { name: string }
describe('typed', () => {
  it('casts', (): void => {
    const u = fetchUser() as User;
    expect(u.name).toBe('bob');
  });
});`
	s := parse(t, "typed.spec.ts", src)
	require.Len(t, s.Cases, 1)
	assert.Len(t, s.Cases[0].Assertions, 1)
}

func TestParse_DirectoryRespectsGlobs(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	write("e2e/login.cy.js", `it('login', () => { assert(1) })`)
	write("e2e/cart.cy.ts", `it('cart', () => { expect(1).toBe(1) })`)
	write("node_modules/lib/index.js", `it('vendored', () => {})`)
	write("README.md", "# docs")

	s, diags, err := Parse(context.Background(), dir, Options{})
	require.NoError(t, err)
	assert.Empty(t, diags.Warnings)
	assert.Equal(t, []string{"e2e/cart.cy.ts", "e2e/login.cy.js"}, s.Files)
	require.Len(t, s.Cases, 2)
	assert.Equal(t, "e2e/cart.cy.ts", s.Cases[0].Loc.File)

	only, _, err := Parse(context.Background(), dir, Options{Include: []string{"**/*.cy.js"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"e2e/login.cy.js"}, only.Files)
}

func TestParse_DirectoryAbortsOnParseError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"), []byte(`it('ok', () => { assert(1) })`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.js"), []byte(`it('bad', () => {`), 0o644))

	s, _, err := Parse(context.Background(), dir, Options{})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "b.js", pe.Loc.File)
	assert.Empty(t, s.Cases)
}

func TestParse_EmptyDirectoryWarns(t *testing.T) {
	s, diags, err := Parse(context.Background(), t.TempDir(), Options{})
	require.NoError(t, err)
	assert.Empty(t, s.Cases)
	require.Len(t, diags.Warnings, 1)
	assert.Contains(t, diags.Warnings[0], "no suite files matched")
}

func TestOptions_Selects(t *testing.T) {
	var o Options
	assert.True(t, o.Selects("cypress/e2e/a.cy.js"))
	assert.True(t, o.Selects("a.mts"))
	assert.False(t, o.Selects("node_modules/x/a.js"))
	assert.False(t, o.Selects(".cache/a.js"))
	assert.False(t, o.Selects("notes.txt"))
}

func TestCondense(t *testing.T) {
	assert.Equal(t, "expect(a) .to .equal(b)", condense("expect(a)\n   .to\n\t.equal(b)"))
	long := condense("assert(" + strings.Repeat("x", 200) + ")")
	assert.Len(t, long, maxTextLen)
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestCondense_KeepsRunesWhole(t *testing.T) {
	text := condense("assert('" + strings.Repeat("é", 40) + "' === x)")
	assert.True(t, utf8.ValidString(text), text)
	assert.True(t, strings.HasSuffix(text, "..."))
	assert.LessOrEqual(t, len(text), maxTextLen)

	s := parse(t, "accents.cy.js", "it('accents', () => {\n  assert('"+strings.Repeat("é", 40)+"' === x);\n});\n")
	require.Len(t, s.Cases[0].Assertions, 1)
	assert.True(t, utf8.ValidString(s.Cases[0].Assertions[0].Text))
}

func TestParseSource_PlaywrightDescribeModifiers(t *testing.T) {
	src := `test.describe('outer', () => {
  test.describe.only('inner', () => {
    test('b', async ({ page }) => { await expect(page).toHaveURL('/b') });
  });
  test.describe.skip('parked', () => {
    test('c', async () => {});
  });
  test.describe.serial('ordered', () => {
    test.fixme('d', async () => {});
  });
});`
	s := parse(t, "pw.spec.ts", src)

	require.Len(t, s.Blocks, 4)
	got := map[string]string{}
	for _, b := range s.Blocks {
		got[b.Name] = b.Modifier
	}
	assert.Equal(t, map[string]string{"outer": "", "inner": "only", "parked": "skip", "ordered": ""}, got)
	assert.Equal(t, []string{"outer"}, s.Blocks[1].Scope)

	require.Len(t, s.Cases, 3)
	assert.Equal(t, []string{"outer", "inner"}, s.Cases[0].Scope)
	assert.Equal(t, "b", s.Cases[0].Name)
	assert.Equal(t, []string{"outer", "parked"}, s.Cases[1].Scope)
	assert.Equal(t, "skip", s.Cases[2].Modifier)
	assert.Equal(t, ir.KindTest, s.Cases[2].Kind)
}

func TestParseSource_ShouldCallbackCountsOnce(t *testing.T) {
	src := `beforeEach(() => {
  cy.get('.rows').should(($rows) => {
    expect($rows).to.have.length(3);
    assert($rows.first().text() === 'a');
    cy.wait(100);
  });
});`
	s := parse(t, "hook.cy.js", src)
	require.Len(t, s.Cases, 1)
	as := s.Cases[0].Assertions
	require.Len(t, as, 1)
	assert.Equal(t, "should", as[0].Callee)
	assert.Equal(t, 2, as[0].Loc.Line)

	var waits []string
	for _, c := range s.Cases[0].Calls {
		if c.Callee == "cy.wait" {
			waits = append(waits, c.FirstArg)
		}
	}
	assert.Equal(t, []string{"100"}, waits)
}
