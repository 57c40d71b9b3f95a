package rules

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/codewithboateng/champlint/internal/ir"
)

// UnsupportedConstructID is the rule id carried by findings for tests the
// parser had to skip.
const UnsupportedConstructID = "unsupported-construct"

// Engine evaluates a fixed set of rules. It holds no state between calls.
type Engine struct {
	rules    []Rule
	settings Settings
}

func NewEngine(s Settings) *Engine {
	s = s.withDefaults()
	return &Engine{rules: List(s), settings: s}
}

func (e *Engine) Rules() []Rule { return e.rules }

// Settings returns the effective settings, defaults filled in.
func (e *Engine) Settings() Settings { return e.settings }

// Evaluate runs every rule over the suite in sequence.
func (e *Engine) Evaluate(suite *ir.Suite) ir.Report {
	per := make([][]ir.Finding, len(e.rules))
	for i, r := range e.rules {
		per[i] = r.Eval(suite, e.settings)
	}
	return e.finalize(suite, per)
}

// EvaluateParallel runs each rule in its own goroutine. The merged report is
// identical to Evaluate's.
func (e *Engine) EvaluateParallel(ctx context.Context, suite *ir.Suite) (ir.Report, error) {
	per := make([][]ir.Finding, len(e.rules))
	g, gCtx := errgroup.WithContext(ctx)
	for i, r := range e.rules {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			per[i] = r.Eval(suite, e.settings)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ir.Report{}, fmt.Errorf("evaluate rules: %w", err)
	}
	return e.finalize(suite, per), nil
}

// Run picks sequential or parallel evaluation from the settings.
func (e *Engine) Run(ctx context.Context, suite *ir.Suite) (ir.Report, error) {
	if e.settings.Parallel {
		return e.EvaluateParallel(ctx, suite)
	}
	return e.Evaluate(suite), nil
}

func (e *Engine) finalize(suite *ir.Suite, per [][]ir.Finding) ir.Report {
	var all []ir.Finding
	for i, fs := range per {
		for _, f := range fs {
			if f.RuleID == "" {
				f.RuleID = e.rules[i].ID
			}
			if f.Severity == "" {
				f.Severity = e.rules[i].Severity
			}
			if !e.settings.severityOK(f.Severity) {
				continue
			}
			all = append(all, f)
		}
	}
	for _, sk := range suite.Skips {
		all = append(all, ir.Finding{
			RuleID:   UnsupportedConstructID,
			Severity: ir.SeveritySkipped,
			Loc:      sk.Loc,
			Test:     sk.Name,
			Message:  "test skipped by the checker: " + sk.Reason,
		})
	}

	// Stable order for reproducible outputs
	ir.SortFindings(all)

	seen := make(map[string]int, len(all))
	for k := range all {
		id := makeID(all[k].RuleID, all[k].Loc, all[k].Test, all[k].Evidence)
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = fmt.Sprintf("%s-%d", id, n+1)
		} else {
			seen[id] = 1
		}
		all[k].ID = id
	}
	return ir.Report{Findings: all}
}
