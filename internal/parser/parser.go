package parser

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/codewithboateng/champlint/internal/ir"
)

var (
	DefaultInclude = []string{"**/*.{js,jsx,mjs,cjs,ts,tsx,mts,cts}"}
	DefaultExclude = []string{"**/node_modules/**", "**/dist/**", "**/.*/**"}
)

type Options struct {
	Include []string
	Exclude []string
	// AssertCallees are extra function names treated as assertions,
	// on top of assert, expect and .should.
	AssertCallees []string
}

type Diagnostics struct {
	Warnings []string
}

// Parse reads a suite file or walks a directory of suite files. Any file that
// fails to parse aborts the whole call with a *ParseError.
func Parse(ctx context.Context, path string, opts Options) (ir.Suite, Diagnostics, error) {
	suite := ir.Suite{Source: filepath.ToSlash(filepath.Clean(path))}
	diags := Diagnostics{}

	info, err := os.Stat(path)
	if err != nil {
		return ir.Suite{}, diags, fmt.Errorf("stat suite path: %w", err)
	}

	if !info.IsDir() {
		src, err := os.ReadFile(path)
		if err != nil {
			return ir.Suite{}, diags, fmt.Errorf("read suite file: %w", err)
		}
		if err := parseInto(ctx, &suite, filepath.ToSlash(path), src, opts); err != nil {
			return ir.Suite{}, diags, err
		}
		return suite, diags, nil
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			rel = p
		}
		rel = filepath.ToSlash(rel)
		if !opts.Selects(rel) {
			return nil
		}
		src, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		return parseInto(ctx, &suite, rel, src, opts)
	})
	if err != nil {
		return ir.Suite{}, diags, err
	}

	if len(suite.Files) == 0 {
		diags.Warnings = append(diags.Warnings, "no suite files matched under "+suite.Source)
	} else if len(suite.Cases) == 0 && len(suite.Skips) == 0 {
		diags.Warnings = append(diags.Warnings, "no tests or hooks found")
	}
	return suite, diags, nil
}

// Selects reports whether a slash-separated path relative to the suite root
// passes the include and exclude globs.
func (o Options) Selects(rel string) bool {
	include, exclude := o.Include, o.Exclude
	if len(include) == 0 {
		include = DefaultInclude
	}
	if len(exclude) == 0 {
		exclude = DefaultExclude
	}
	return matchAny(include, rel) && !matchAny(exclude, rel)
}

// ParseSource parses an in-memory suite. name picks the grammar by extension
// and is used as the file of every location.
func ParseSource(ctx context.Context, name string, src []byte, opts Options) (ir.Suite, error) {
	suite := ir.Suite{Source: name}
	if err := parseInto(ctx, &suite, name, src, opts); err != nil {
		return ir.Suite{}, err
	}
	return suite, nil
}

func parseInto(ctx context.Context, suite *ir.Suite, name string, src []byte, opts Options) error {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(languageFor(name))

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return syntaxError(root, name)
	}

	w := newWalker(name, src, opts)
	w.visit(root)

	suite.Files = append(suite.Files, name)
	suite.Blocks = append(suite.Blocks, w.blocks...)
	suite.Cases = append(suite.Cases, w.cases...)
	suite.Skips = append(suite.Skips, w.skips...)
	return nil
}

func languageFor(name string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ts", ".mts", ".cts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// syntaxError locates the first ERROR or MISSING node in document order.
func syntaxError(root *sitter.Node, file string) *ParseError {
	var bad *sitter.Node
	var find func(n *sitter.Node) bool
	find = func(n *sitter.Node) bool {
		if n.Type() == "ERROR" || n.IsMissing() {
			bad = n
			return true
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			c := n.Child(i)
			if c != nil && (c.HasError() || c.IsMissing()) && find(c) {
				return true
			}
		}
		return false
	}
	if !find(root) {
		bad = root
	}
	msg := "unexpected syntax"
	if bad.IsMissing() {
		msg = "missing " + bad.Type()
	}
	return &ParseError{Loc: locOf(bad, file), Msg: msg}
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

func locOf(n *sitter.Node, file string) ir.Location {
	pt := n.StartPoint()
	return ir.Location{File: file, Line: int(pt.Row) + 1, Column: int(pt.Column) + 1}
}
