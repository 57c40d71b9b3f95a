package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codewithboateng/champlint/internal/ir"
)

func TestAnnotate(t *testing.T) {
	tc := ir.TestCase{Assertions: []ir.Assertion{
		{Callee: "assert"},
		{Callee: "expect", LoopDepth: 1},
		{Callee: "expect", LoopDepth: 2, CondDepth: 1},
		{Callee: "should", CondDepth: 1},
	}}
	assert.Equal(t, ir.Anno{AssertionCount: 4, LoopAsserts: 2, CondAsserts: 2, MaxDepth: 3}, Annotate(&tc))
	assert.Equal(t, ir.Anno{}, Annotate(&ir.TestCase{}))
}

func TestAnnotateSuiteAndSummarize(t *testing.T) {
	s := ir.Suite{
		Files: []string{"a.js", "b.js"},
		Cases: []ir.TestCase{
			{Kind: ir.KindSetup, Assertions: []ir.Assertion{{Callee: "assert"}}},
			{Kind: ir.KindTest, Assertions: []ir.Assertion{{Callee: "assert"}, {Callee: "assert", LoopDepth: 1}}},
			{Kind: ir.KindExtra},
			{Kind: ir.KindTeardown},
		},
		Skips: []ir.Skip{{Reason: "non-literal title"}},
	}
	AnnotateSuite(&s)
	assert.Equal(t, 2, s.Cases[1].Annotations.AssertionCount)
	assert.Equal(t, 1, s.Cases[1].Annotations.LoopAsserts)

	assert.Equal(t, Totals{Files: 2, Tests: 1, Extras: 1, Hooks: 2, Assertions: 3, Skipped: 1}, Summarize(&s))
}
