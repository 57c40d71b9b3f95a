package shared

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 2, cfg.Rules.MaxNestingDepth)
	assert.Equal(t, "warning", cfg.Rules.SeverityThreshold)
}

func TestLoadConfig_FileEnvAndDotenv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "champlint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
analysis:
  sources: ["cypress/e2e"]
  assert_callees: [verifyToast]
rules:
  disabled: [no-fixed-wait]
  max_nesting_depth: 3
reporting:
  formats: [text, json]
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CHAMPLINT_ADDR=:9999\n"), 0o644))
	// godotenv writes straight into the process environment.
	t.Cleanup(func() { os.Unsetenv("CHAMPLINT_ADDR") })
	t.Setenv("CHAMPLINT_SEVERITY_THRESHOLD", "VIOLATION")
	t.Setenv("CHAMPLINT_PARALLEL", "true")
	t.Setenv("CHAMPLINT_DISABLED_RULES", "no-empty-test, duplicate-test-name")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"cypress/e2e"}, cfg.Analysis.Sources)
	assert.Equal(t, []string{"verifyToast"}, cfg.Analysis.AssertCallees)
	assert.Equal(t, 3, cfg.Rules.MaxNestingDepth)
	assert.Equal(t, []string{"text", "json"}, cfg.Reporting.Formats)
	assert.Equal(t, "violation", cfg.Rules.SeverityThreshold)
	assert.True(t, cfg.Analysis.Parallel)
	assert.Equal(t, []string{"no-empty-test", "duplicate-test-name"}, cfg.Rules.Disabled)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("rules:\n  severity_threshold: fatal\nreporting:\n  formats: [pdf]\n"), 0o644))
	_, err := LoadConfig(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Contains(t, err.Error(), "SeverityThreshold")
	assert.Contains(t, err.Error(), "Formats")

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("rules: [\n"), 0o644))
	_, err = LoadConfig(broken)
	assert.ErrorContains(t, err, "parse config")
}

func TestInitLoggerTo(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := InitLoggerTo(&buf, "json", "warn")
	logger.Info("hidden")
	logger.Warn("shown", "rule", "no-assert-in-hook")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, `"rule":"no-assert-in-hook"`), out)

	buf.Reset()
	InitLoggerTo(&buf, "text", "debug").Debug("dbg")
	assert.Contains(t, buf.String(), "msg=dbg")
}

func TestLoadConfig_SampleFile(t *testing.T) {
	sample, err := filepath.Abs(filepath.Join("..", "..", "configs", "champlint.yaml"))
	require.NoError(t, err)
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(sample)
	require.NoError(t, err)
	assert.True(t, cfg.Analysis.Parallel)
	assert.Equal(t, []string{"verifyToast", "checkScore"}, cfg.Analysis.AssertCallees)
	assert.Equal(t, "text", cfg.Logging.Format)
}
