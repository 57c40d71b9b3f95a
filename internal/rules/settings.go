package rules

import (
	"strings"

	"github.com/codewithboateng/champlint/internal/ir"
)

type Settings struct {
	// SeverityThreshold drops findings below it: "warning" keeps everything,
	// "violation" keeps only violations. Skipped findings are always kept.
	SeverityThreshold string
	// Enabled restricts evaluation to these rule ids; empty means all.
	Enabled  []string
	Disabled map[string]bool
	// MaxNestingDepth is the loop+conditional depth above which
	// test-too-complex fires.
	MaxNestingDepth int
	Parallel        bool
}

func DefaultSettings() Settings {
	return Settings{
		SeverityThreshold: string(ir.SeverityWarning),
		Disabled:          map[string]bool{},
		MaxNestingDepth:   2,
	}
}

// withDefaults fills zero values from DefaultSettings.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.SeverityThreshold == "" {
		s.SeverityThreshold = d.SeverityThreshold
	}
	if s.Disabled == nil {
		s.Disabled = map[string]bool{}
	}
	if s.MaxNestingDepth == 0 {
		s.MaxNestingDepth = d.MaxNestingDepth
	}
	return s
}

func (s Settings) enabled(id string) bool {
	key := normID(id)
	for k, off := range s.Disabled {
		if off && normID(k) == key {
			return false
		}
	}
	if len(s.Enabled) == 0 {
		return true
	}
	for _, e := range s.Enabled {
		if normID(e) == key {
			return true
		}
	}
	return false
}

func severityRank(sev ir.Severity) int {
	switch ir.Severity(strings.ToLower(strings.TrimSpace(string(sev)))) {
	case ir.SeverityViolation:
		return 2
	case ir.SeverityWarning:
		return 1
	default:
		return 0
	}
}

func (s Settings) severityOK(sev ir.Severity) bool {
	if sev == ir.SeveritySkipped {
		return true
	}
	return severityRank(sev) >= severityRank(ir.Severity(s.SeverityThreshold))
}

func normID(id string) string { return strings.ToLower(strings.TrimSpace(id)) }
