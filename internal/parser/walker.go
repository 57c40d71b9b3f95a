package parser

import (
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/codewithboateng/champlint/internal/ir"
)

type blockKind int

const (
	blockNone blockKind = iota
	blockDescribe
	blockTest
	blockSetup
	blockTeardown
)

// keywords maps a bare callee to its block kind and implied modifier.
var keywords = map[string]struct {
	kind blockKind
	mod  string
}{
	"describe":   {blockDescribe, ""},
	"context":    {blockDescribe, ""},
	"suite":      {blockDescribe, ""},
	"xdescribe":  {blockDescribe, "skip"},
	"xcontext":   {blockDescribe, "skip"},
	"fdescribe":  {blockDescribe, "only"},
	"it":         {blockTest, ""},
	"test":       {blockTest, ""},
	"specify":    {blockTest, ""},
	"xit":        {blockTest, "skip"},
	"xtest":      {blockTest, "skip"},
	"xspecify":   {blockTest, "skip"},
	"fit":        {blockTest, "only"},
	"before":     {blockSetup, ""},
	"beforeAll":  {blockSetup, ""},
	"beforeEach": {blockSetup, ""},
	"after":      {blockTeardown, ""},
	"afterAll":   {blockTeardown, ""},
	"afterEach":  {blockTeardown, ""},
}

var iterationMethods = map[string]bool{
	"forEach": true, "map": true, "each": true, "filter": true,
	"some": true, "every": true, "reduce": true, "flatMap": true,
}

const extraSuffix = "_extra"

type walker struct {
	file    string
	src     []byte
	asserts map[string]bool

	scope    []string
	inShould int // depth of .should callbacks being walked
	blocks   []ir.Block
	cases    []ir.TestCase
	skips    []ir.Skip
}

func newWalker(file string, src []byte, opts Options) *walker {
	asserts := map[string]bool{"assert": true, "expect": true}
	for _, c := range opts.AssertCallees {
		if c = strings.TrimSpace(c); c != "" {
			asserts[c] = true
		}
	}
	return &walker{file: file, src: src, asserts: asserts}
}

// visit looks for describe/test/hook calls at structure level.
func (w *walker) visit(n *sitter.Node) {
	if n == nil {
		return
	}
	if n.Type() == "call_expression" {
		kw, kind, mod, each := w.classify(n)
		if kind != blockNone {
			w.handleBlock(n, kw, kind, mod, each)
			return
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.visit(n.NamedChild(i))
	}
}

// classify inspects the callee of a call. each is set for table-driven forms
// such as it.each(table)(title, fn).
func (w *walker) classify(call *sitter.Node) (kw string, kind blockKind, mod string, each bool) {
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return "", blockNone, "", false
	}
	switch fn.Type() {
	case "identifier":
		name := fn.Content(w.src)
		if k, ok := keywords[name]; ok {
			return name, k.kind, k.mod, false
		}
	case "member_expression":
		obj, prop := fn.ChildByFieldName("object"), fn.ChildByFieldName("property")
		if obj == nil || prop == nil {
			return "", blockNone, "", false
		}
		base, ok := w.blockObject(obj)
		if !ok {
			return "", blockNone, "", false
		}
		k := keywords[base]
		switch p := prop.Content(w.src); p {
		case "only", "skip":
			return base, k.kind, p, false
		case "fixme":
			return base, k.kind, "skip", false
		case "serial", "parallel":
			if k.kind == blockDescribe {
				return base, k.kind, k.mod, false
			}
		default:
			// Playwright style: test.describe, test.beforeEach, ...
			if pk, ok := keywords[p]; ok && obj.Type() == "identifier" && base == "test" && pk.kind != blockTest {
				return p, pk.kind, pk.mod, false
			}
		}
	case "call_expression":
		// it.each(table)("title", fn)
		inner := fn.ChildByFieldName("function")
		if inner != nil && inner.Type() == "member_expression" {
			obj, prop := inner.ChildByFieldName("object"), inner.ChildByFieldName("property")
			if obj != nil && prop != nil && prop.Content(w.src) == "each" {
				root := obj
				if root.Type() == "member_expression" {
					root = root.ChildByFieldName("object")
				}
				if root != nil {
					if k, ok := keywords[root.Content(w.src)]; ok {
						return root.Content(w.src), k.kind, k.mod, true
					}
				}
			}
		}
	}
	return "", blockNone, "", false
}

// blockObject resolves the object of a modifier call: a bare keyword such as
// it or describe, or a Playwright chain such as test.describe.
func (w *walker) blockObject(n *sitter.Node) (string, bool) {
	switch n.Type() {
	case "identifier":
		name := n.Content(w.src)
		_, ok := keywords[name]
		return name, ok
	case "member_expression":
		obj, prop := n.ChildByFieldName("object"), n.ChildByFieldName("property")
		if obj == nil || prop == nil || obj.Type() != "identifier" || obj.Content(w.src) != "test" {
			return "", false
		}
		p := prop.Content(w.src)
		if k, ok := keywords[p]; ok && k.kind != blockTest {
			return p, true
		}
	}
	return "", false
}

func (w *walker) handleBlock(call *sitter.Node, kw string, kind blockKind, mod string, each bool) {
	loc := locOf(call, w.file)
	title, body, uce := w.blockParts(call, kind, each)
	if uce != nil {
		uce.Loc, uce.Name = loc, title
		w.skips = append(w.skips, uce.Skip())
		return
	}

	switch kind {
	case blockDescribe:
		w.blocks = append(w.blocks, ir.Block{Name: title, Scope: w.scopeCopy(), Modifier: mod, Loc: loc})
		w.scope = append(w.scope, title)
		w.visit(body)
		w.scope = w.scope[:len(w.scope)-1]
		return
	case blockTest:
		tc := ir.TestCase{Name: title, Kind: ir.KindTest, Scope: w.scopeCopy(), Modifier: mod, Loc: loc}
		if strings.HasSuffix(strings.ToLower(title), extraSuffix) {
			tc.Kind = ir.KindExtra
		}
		w.collect(body, &tc, 0, 0, "")
		w.cases = append(w.cases, tc)
	case blockSetup, blockTeardown:
		tc := ir.TestCase{Name: kw, Kind: ir.KindSetup, Hook: kw, Scope: w.scopeCopy(), Loc: loc}
		if kind == blockTeardown {
			tc.Kind = ir.KindTeardown
		}
		if title != "" {
			tc.Name = kw + ": " + title
		}
		w.collect(body, &tc, 0, 0, "")
		w.cases = append(w.cases, tc)
	}
}

// blockParts extracts the title and callback body of a block call.
func (w *walker) blockParts(call *sitter.Node, kind blockKind, each bool) (string, *sitter.Node, *UnsupportedConstructError) {
	args := call.ChildByFieldName("arguments")
	var named []*sitter.Node
	if args != nil {
		for i := 0; i < int(args.NamedChildCount()); i++ {
			named = append(named, args.NamedChild(i))
		}
	}

	var title string
	if len(named) > 0 {
		if t, ok := w.literal(named[0]); ok {
			title = t
		}
	}
	if each {
		return title, nil, &UnsupportedConstructError{Construct: "table-driven .each block"}
	}

	if kind == blockSetup || kind == blockTeardown {
		// Hooks may carry an optional description before the callback.
		for _, a := range named {
			if isFunction(a) {
				return title, a.ChildByFieldName("body"), nil
			}
		}
		return title, nil, &UnsupportedConstructError{Construct: "hook callback is not a function literal"}
	}

	if len(named) == 0 {
		return "", nil, &UnsupportedConstructError{Construct: "block without arguments"}
	}
	if _, ok := w.literal(named[0]); !ok {
		return "", nil, &UnsupportedConstructError{Construct: "non-literal title"}
	}
	if len(named) < 2 {
		if kind == blockTest {
			// Pending test: it("title") with no body.
			return title, nil, nil
		}
		return title, nil, &UnsupportedConstructError{Construct: "describe without callback"}
	}
	cb := named[1]
	if !isFunction(cb) {
		return title, nil, &UnsupportedConstructError{Construct: "callback is not a function literal"}
	}
	return title, cb.ChildByFieldName("body"), nil
}

// literal returns the text of a string or substitution-free template literal.
func (w *walker) literal(n *sitter.Node) (string, bool) {
	switch n.Type() {
	case "string":
		s := n.Content(w.src)
		if len(s) >= 2 {
			return s[1 : len(s)-1], true
		}
	case "template_string":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "template_substitution" {
				return "", false
			}
		}
		s := n.Content(w.src)
		if len(s) >= 2 {
			return s[1 : len(s)-1], true
		}
	}
	return "", false
}

func isFunction(n *sitter.Node) bool {
	switch n.Type() {
	case "arrow_function", "function", "function_expression", "generator_function":
		return true
	}
	return false
}

// collect walks a test or hook body, recording assertions and notable calls
// with the loop and conditional depth they occur at.
func (w *walker) collect(n *sitter.Node, tc *ir.TestCase, loop, cond int, loopKw string) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "for_statement", "for_in_statement":
		w.collectChildren(n, tc, loop+1, cond, "for")
		return
	case "while_statement":
		w.collectChildren(n, tc, loop+1, cond, "while")
		return
	case "do_statement":
		w.collectChildren(n, tc, loop+1, cond, "do")
		return
	case "if_statement", "ternary_expression", "switch_statement":
		w.collectChildren(n, tc, loop, cond+1, loopKw)
		return
	case "call_expression":
		w.collectCall(n, tc, loop, cond, loopKw)
		return
	}
	w.collectChildren(n, tc, loop, cond, loopKw)
}

func (w *walker) collectChildren(n *sitter.Node, tc *ir.TestCase, loop, cond int, loopKw string) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		w.collect(n.NamedChild(i), tc, loop, cond, loopKw)
	}
}

func (w *walker) collectCall(call *sitter.Node, tc *ir.TestCase, loop, cond int, loopKw string) {
	fn := call.ChildByFieldName("function")
	args := call.ChildByFieldName("arguments")
	if fn == nil {
		w.collectChildren(call, tc, loop, cond, loopKw)
		return
	}

	callee, isAssert := w.assertionCallee(fn)
	if isAssert {
		if w.inShould == 0 {
			tc.Assertions = append(tc.Assertions, ir.Assertion{
				Callee:      callee,
				Text:        condense(call.Content(w.src)),
				Loc:         locOf(call, w.file),
				LoopDepth:   loop,
				CondDepth:   cond,
				LoopKeyword: loopKw,
			})
		}
	} else if path, ok := w.simplePath(fn); ok {
		c := ir.Call{Callee: path, Loc: locOf(call, w.file)}
		if args != nil && args.NamedChildCount() > 0 {
			first := args.NamedChild(0)
			c.FirstArg = condense(first.Content(w.src))
			c.NumericArg = first.Type() == "number"
		}
		tc.Calls = append(tc.Calls, c)
	}

	// A .should(cb) already counts as one assertion; checks inside cb are
	// part of it.
	if isAssert && callee == "should" {
		w.collect(fn, tc, loop, cond, loopKw)
		if args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				a := args.NamedChild(i)
				if isFunction(a) {
					w.inShould++
					w.collect(a, tc, loop, cond, loopKw)
					w.inShould--
				} else {
					w.collect(a, tc, loop, cond, loopKw)
				}
			}
		}
		return
	}

	// Callbacks of iteration methods run once per element.
	if fn.Type() == "member_expression" {
		prop := fn.ChildByFieldName("property")
		if prop != nil && iterationMethods[prop.Content(w.src)] {
			w.collect(fn.ChildByFieldName("object"), tc, loop, cond, loopKw)
			if args != nil {
				for i := 0; i < int(args.NamedChildCount()); i++ {
					a := args.NamedChild(i)
					if isFunction(a) {
						w.collect(a, tc, loop+1, cond, prop.Content(w.src))
					} else {
						w.collect(a, tc, loop, cond, loopKw)
					}
				}
			}
			return
		}
	}

	w.collect(fn, tc, loop, cond, loopKw)
	w.collect(args, tc, loop, cond, loopKw)
}

// assertionCallee reports whether a callee is an assertion: assert(...),
// assert.x(...), expect(...), x.should(...) or a configured name.
func (w *walker) assertionCallee(fn *sitter.Node) (string, bool) {
	switch fn.Type() {
	case "identifier":
		name := fn.Content(w.src)
		if w.asserts[name] {
			return name, true
		}
	case "member_expression":
		prop := fn.ChildByFieldName("property")
		obj := fn.ChildByFieldName("object")
		if prop == nil || obj == nil {
			return "", false
		}
		p := prop.Content(w.src)
		if p == "should" {
			return "should", true
		}
		if obj.Type() == "identifier" && obj.Content(w.src) == "assert" {
			return "assert." + p, true
		}
		if path, ok := w.simplePath(fn); ok && w.asserts[path] {
			return path, true
		}
		if obj.Type() == "this" && w.asserts[p] {
			return p, true
		}
	}
	return "", false
}

// simplePath renders identifier and a.b.c member chains; anything involving a
// call or computed access is not simple.
func (w *walker) simplePath(n *sitter.Node) (string, bool) {
	switch n.Type() {
	case "identifier", "this":
		return n.Content(w.src), true
	case "member_expression":
		obj, prop := n.ChildByFieldName("object"), n.ChildByFieldName("property")
		if obj == nil || prop == nil {
			return "", false
		}
		head, ok := w.simplePath(obj)
		if !ok {
			return "", false
		}
		return head + "." + prop.Content(w.src), true
	}
	return "", false
}

func (w *walker) scopeCopy() []string {
	if len(w.scope) == 0 {
		return nil
	}
	return append([]string(nil), w.scope...)
}

const maxTextLen = 80

func condense(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxTextLen {
		cut := maxTextLen - 3
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}
