package stats

import "github.com/codewithboateng/champlint/internal/ir"

// Annotate computes the per-test counters used by rules and reports.
func Annotate(tc *ir.TestCase) ir.Anno {
	var a ir.Anno
	for _, as := range tc.Assertions {
		a.AssertionCount++
		if as.LoopDepth > 0 {
			a.LoopAsserts++
		}
		if as.CondDepth > 0 {
			a.CondAsserts++
		}
		if d := as.LoopDepth + as.CondDepth; d > a.MaxDepth {
			a.MaxDepth = d
		}
	}
	return a
}

// AnnotateSuite fills Annotations on every TestCase in place.
func AnnotateSuite(s *ir.Suite) {
	for i := range s.Cases {
		s.Cases[i].Annotations = Annotate(&s.Cases[i])
	}
}

type Totals struct {
	Files      int `json:"files"`
	Tests      int `json:"tests"`
	Extras     int `json:"extras"`
	Hooks      int `json:"hooks"`
	Assertions int `json:"assertions"`
	Skipped    int `json:"skipped"`
}

func Summarize(s *ir.Suite) Totals {
	t := Totals{Files: len(s.Files), Skipped: len(s.Skips)}
	for _, tc := range s.Cases {
		switch tc.Kind {
		case ir.KindTest:
			t.Tests++
		case ir.KindExtra:
			t.Extras++
		case ir.KindSetup, ir.KindTeardown:
			t.Hooks++
		}
		t.Assertions += len(tc.Assertions)
	}
	return t
}
