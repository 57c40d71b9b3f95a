package parser

import (
	"fmt"

	"github.com/codewithboateng/champlint/internal/ir"
)

// ParseError means a suite file could not be parsed at all. No partial suite
// is returned alongside it.
type ParseError struct {
	Loc ir.Location
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Loc, e.Msg)
}

// UnsupportedConstructError means a single test or hook could not be
// classified. The parser recovers by skipping it.
type UnsupportedConstructError struct {
	Loc       ir.Location
	Name      string
	Construct string
}

func (e *UnsupportedConstructError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unsupported construct at %s (%s): %s", e.Loc, e.Name, e.Construct)
	}
	return fmt.Sprintf("unsupported construct at %s: %s", e.Loc, e.Construct)
}

// Skip converts the error into the suite record the engine reports on.
func (e *UnsupportedConstructError) Skip() ir.Skip {
	return ir.Skip{Name: e.Name, Reason: e.Construct, Loc: e.Loc}
}
