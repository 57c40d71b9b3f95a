package ir

import (
	"fmt"
	"time"
)

const Version = "1.0"

// Kind classifies a TestCase by the block that encloses it.
type Kind string

const (
	KindSetup    Kind = "setup"
	KindTeardown Kind = "teardown"
	KindTest     Kind = "test"
	KindExtra    Kind = "extra"
)

// IsHook reports whether k is a setup or teardown block.
func (k Kind) IsHook() bool { return k == KindSetup || k == KindTeardown }

type Severity string

const (
	SeverityViolation Severity = "violation"
	SeverityWarning   Severity = "warning"
	SeveritySkipped   Severity = "skipped"
)

type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source,omitempty"`
	IRVersion string    `json:"ir_version,omitempty"`

	Context  Context   `json:"context"`
	Suite    Suite     `json:"suite"`
	Findings []Finding `json:"findings,omitempty"`
	Waived   int       `json:"waived,omitempty"`
}

type Context struct {
	RuleSeverityThreshold string   `json:"rule_severity_threshold,omitempty"`
	EnabledRules          []string `json:"enabled_rules,omitempty"`
	DisabledRules         []string `json:"disabled_rules,omitempty"`
	MaxNestingDepth       int      `json:"max_nesting_depth,omitempty"`
	Parallel              bool     `json:"parallel,omitempty"`
}

type Location struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Less orders locations by file, then line, then column.
func (l Location) Less(o Location) bool {
	if l.File != o.File {
		return l.File < o.File
	}
	if l.Line != o.Line {
		return l.Line < o.Line
	}
	return l.Column < o.Column
}

type Suite struct {
	Source string     `json:"source,omitempty"`
	Files  []string   `json:"files,omitempty"`
	Blocks []Block    `json:"blocks,omitempty"`
	Cases  []TestCase `json:"cases"`
	Skips  []Skip     `json:"skips,omitempty"`
}

// Block is a describe/context group. Only its title, modifier and position
// are kept; its tests are flattened into Suite.Cases.
type Block struct {
	Name     string   `json:"name"`
	Scope    []string `json:"scope,omitempty"`
	Modifier string   `json:"modifier,omitempty"`
	Loc      Location `json:"location"`
}

type TestCase struct {
	Name        string      `json:"name"`
	Kind        Kind        `json:"kind"`
	Hook        string      `json:"hook,omitempty"`     // beforeEach, afterAll, ...
	Scope       []string    `json:"scope,omitempty"`    // enclosing describe titles
	Modifier    string      `json:"modifier,omitempty"` // only|skip
	Loc         Location    `json:"location"`
	Assertions  []Assertion `json:"assertions,omitempty"`
	Calls       []Call      `json:"calls,omitempty"`
	Annotations Anno        `json:"annotations"`
}

type Assertion struct {
	Callee      string   `json:"callee"`
	Text        string   `json:"text"`
	Loc         Location `json:"location"`
	LoopDepth   int      `json:"loop_depth,omitempty"`
	CondDepth   int      `json:"cond_depth,omitempty"`
	LoopKeyword string   `json:"loop,omitempty"` // for, while, forEach, ...
}

// Call is a non-assertion call worth keeping for rules (waits, sleeps).
type Call struct {
	Callee     string   `json:"callee"`
	FirstArg   string   `json:"first_arg,omitempty"`
	NumericArg bool     `json:"numeric_arg,omitempty"`
	Loc        Location `json:"location"`
}

type Anno struct {
	AssertionCount int `json:"assertion_count"`
	LoopAsserts    int `json:"loop_asserts,omitempty"`
	CondAsserts    int `json:"cond_asserts,omitempty"`
	MaxDepth       int `json:"max_depth,omitempty"`
}

// Skip records a TestCase the parser could not classify.
type Skip struct {
	Name   string   `json:"name,omitempty"`
	Reason string   `json:"reason"`
	Loc    Location `json:"location"`
}

type Finding struct {
	ID       string         `json:"id"`
	RuleID   string         `json:"rule_id"`
	Severity Severity       `json:"severity"`
	Loc      Location       `json:"location"`
	Test     string         `json:"test,omitempty"`
	Message  string         `json:"message"`
	Evidence string         `json:"evidence,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FullName joins the describe scope and the test name with " > ".
func (tc TestCase) FullName() string {
	name := tc.Name
	for i := len(tc.Scope) - 1; i >= 0; i-- {
		name = tc.Scope[i] + " > " + name
	}
	return name
}
