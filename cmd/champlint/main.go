// Command champlint checks championship test suites against the
// test-authoring guidelines.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codewithboateng/champlint/internal/ir"
	"github.com/codewithboateng/champlint/internal/rulesdsl"
	"github.com/codewithboateng/champlint/internal/shared"
	"github.com/codewithboateng/champlint/internal/storage"

	// built-in rules register via init()
	_ "github.com/codewithboateng/champlint/internal/rules"
)

const appName = "champlint"

var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Exit codes: 0 clean, 1 violations found, 2 usage, config or parse error.
const (
	exitViolations = 1
	exitUsage      = 2
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageErr(format string, a ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, a...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitUsage
}

// globals are the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string
	rulePacks  []string
}

type env struct {
	cfg    shared.Config
	logger *slog.Logger
}

func rootCmd() *cobra.Command {
	g := &globals{}
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Lint championship test suites against the test-authoring guidelines",
		Long: `champlint parses Cypress, Mocha, Jest and Playwright style suites and
checks them against the championship test-authoring guidelines: no
assertions in hooks, no loop-generated assertions, every extra test
paired with a normal test, and more.

Exit status is 0 when no violation is found, 1 when at least one is,
and 2 on usage, configuration or parse errors.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Path to YAML config (optional)")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&g.logFormat, "log-format", "", "Log format (json, text)")
	pf.StringSliceVar(&g.rulePacks, "rule-pack", nil, "Additional YAML rule pack (repeatable)")

	cmd.AddCommand(
		lintCmd(g),
		reportCmd(g),
		diffCmd(g),
		runsCmd(g),
		rulesCmd(g),
		explainCmd(g),
		watchCmd(g),
		serveCmd(g),
		userCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (IR %s, build: %s)\n", appName, Version, ir.Version, BuildTime)
			},
		},
	)
	return cmd
}

// setup loads config, installs the logger and registers rule packs.
// Precedence: flags > env > config file > defaults.
func setup(g *globals) (*env, error) {
	cfg, err := shared.LoadConfig(g.configPath)
	if err != nil {
		return nil, &exitError{code: exitUsage, err: err}
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Logging.Format = g.logFormat
	}
	logger := shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	packs := append(append([]string{}, cfg.Analysis.RulePacks...), g.rulePacks...)
	for _, p := range packs {
		n, err := rulesdsl.LoadAndRegister(p)
		if err != nil {
			return nil, usageErr("rule pack %s: %w", p, err)
		}
		logger.Debug("rule pack loaded", "path", p, "rules", n)
	}
	return &env{cfg: cfg, logger: logger}, nil
}

func openDB(path string) (*storage.DB, error) {
	db, err := storage.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}
