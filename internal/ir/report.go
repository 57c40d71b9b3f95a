package ir

import "sort"

// Report is the ordered set of findings for one suite.
type Report struct {
	Findings []Finding `json:"findings"`
	Waived   int       `json:"waived,omitempty"`
}

// SortFindings orders findings by rule id, then location, then message and
// evidence so that equal inputs always render identically.
func SortFindings(fs []Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		if a.Loc != b.Loc {
			return a.Loc.Less(b.Loc)
		}
		if a.Message != b.Message {
			return a.Message < b.Message
		}
		if a.Evidence != b.Evidence {
			return a.Evidence < b.Evidence
		}
		return a.ID < b.ID
	})
}

// HasViolations reports whether any finding has violation severity.
func (r Report) HasViolations() bool {
	return CountSeverity(r.Findings, SeverityViolation) > 0
}

func CountSeverity(fs []Finding, sev Severity) int {
	n := 0
	for _, f := range fs {
		if f.Severity == sev {
			n++
		}
	}
	return n
}
