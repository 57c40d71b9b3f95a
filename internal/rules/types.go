package rules

import "github.com/codewithboateng/champlint/internal/ir"

// Rule represents a single check executed over a parsed suite.
type Rule struct {
	ID       string
	Summary  string
	Severity ir.Severity
	// Docs is Markdown shown by `champlint explain`.
	Docs string
	// Eval inspects the suite and returns findings. It must not modify the
	// suite.
	Eval func(suite *ir.Suite, s Settings) []ir.Finding
}
