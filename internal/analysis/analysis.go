// Package analysis runs the parse, annotate, evaluate and waive pipeline that
// every entry point (CLI, API, watcher) shares.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/codewithboateng/champlint/internal/ir"
	"github.com/codewithboateng/champlint/internal/parser"
	"github.com/codewithboateng/champlint/internal/rules"
	"github.com/codewithboateng/champlint/internal/shared"
	"github.com/codewithboateng/champlint/internal/stats"
	"github.com/codewithboateng/champlint/internal/storage"
)

// Input names a suite on disk (Path) or in memory (Name + Source).
type Input struct {
	Path   string
	Name   string
	Source []byte
}

type Options struct {
	Parser   parser.Options
	Settings rules.Settings
	Waivers  []storage.Waiver
	Logger   *slog.Logger
	// Now and NewID are overridable for reproducible runs.
	Now   func() time.Time
	NewID func() string
}

// OptionsFromConfig maps the loaded configuration onto pipeline options.
func OptionsFromConfig(cfg shared.Config) Options {
	disabled := map[string]bool{}
	for _, id := range cfg.Rules.Disabled {
		disabled[id] = true
	}
	return Options{
		Parser: parser.Options{
			Include:       cfg.Analysis.Include,
			Exclude:       cfg.Analysis.Exclude,
			AssertCallees: cfg.Analysis.AssertCallees,
		},
		Settings: rules.Settings{
			SeverityThreshold: cfg.Rules.SeverityThreshold,
			Enabled:           cfg.Rules.Enabled,
			Disabled:          disabled,
			MaxNestingDepth:   cfg.Rules.MaxNestingDepth,
			Parallel:          cfg.Analysis.Parallel,
		},
	}
}

// Analyze parses the input and evaluates it. A *parser.ParseError aborts the
// run before any rule is evaluated.
func Analyze(ctx context.Context, in Input, opts Options) (ir.Run, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return "run-" + uuid.NewString() }
	}

	var (
		suite ir.Suite
		err   error
	)
	switch {
	case in.Source != nil:
		name := in.Name
		if name == "" {
			name = "suite.js"
		}
		suite, err = parser.ParseSource(ctx, name, in.Source, opts.Parser)
	case in.Path != "":
		var diags parser.Diagnostics
		suite, diags, err = parser.Parse(ctx, in.Path, opts.Parser)
		if len(diags.Warnings) > 0 {
			logger.Warn("parse warnings", "warnings", diags.Warnings)
		}
	default:
		return ir.Run{}, errors.New("analyze: no suite path or source given")
	}
	if err != nil {
		return ir.Run{}, fmt.Errorf("analyze: %w", err)
	}

	stats.AnnotateSuite(&suite)

	engine := rules.NewEngine(opts.Settings)
	report, err := engine.Run(ctx, &suite)
	if err != nil {
		return ir.Run{}, err
	}
	kept, waived := rules.ApplyWaivers(report.Findings, opts.Waivers)

	run := ir.Run{
		ID:        newID(),
		StartedAt: now().UTC(),
		Source:    suite.Source,
		IRVersion: ir.Version,
		Context:   contextOf(engine),
		Suite:     suite,
		Findings:  kept,
		Waived:    waived,
	}
	logger.Debug("analysis complete",
		"run", run.ID,
		"cases", len(suite.Cases),
		"findings", len(kept),
		"waived", waived,
	)
	return run, nil
}

// Report extracts the findings of a run as a report.
func Report(run ir.Run) ir.Report {
	return ir.Report{Findings: run.Findings, Waived: run.Waived}
}

func contextOf(e *rules.Engine) ir.Context {
	s := e.Settings()
	c := ir.Context{
		RuleSeverityThreshold: s.SeverityThreshold,
		MaxNestingDepth:       s.MaxNestingDepth,
		Parallel:              s.Parallel,
	}
	for _, r := range e.Rules() {
		c.EnabledRules = append(c.EnabledRules, r.ID)
	}
	for id, off := range s.Disabled {
		if off {
			c.DisabledRules = append(c.DisabledRules, id)
		}
	}
	sort.Strings(c.DisabledRules)
	return c
}
