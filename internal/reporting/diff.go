package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/codewithboateng/champlint/internal/ir"
)

type DiffPayload struct {
	BaseID  string        `json:"base_id"`
	HeadID  string        `json:"head_id"`
	Summary DiffSummary   `json:"summary"`
	New     []DiffFinding `json:"new"`
	Removed []DiffFinding `json:"removed"`
	Changed []DiffChanged `json:"changed"`
}

type DiffSummary struct {
	NewCount     int `json:"new"`
	RemovedCount int `json:"removed"`
	ChangedCount int `json:"changed"`
}

type DiffFinding struct {
	RuleID   string      `json:"rule_id"`
	Severity ir.Severity `json:"severity,omitempty"`
	Location string      `json:"location"`
	Test     string      `json:"test,omitempty"`
	Message  string      `json:"message,omitempty"`
}

type DiffChanged struct {
	Key     string      `json:"key"`
	Base    DiffFinding `json:"base"`
	Head    DiffFinding `json:"head"`
	Changed []string    `json:"fields_changed"`
}

// Diff compares two runs. Findings are matched on rule, file, test and
// evidence, so a finding that only moved lines counts as changed.
func Diff(base, head *ir.Run) DiffPayload {
	bm := index(base.Findings)
	hm := index(head.Findings)

	var added, removed []DiffFinding
	var changed []DiffChanged

	for k, hf := range hm {
		bf, ok := bm[k]
		if !ok {
			added = append(added, asDiff(hf))
			continue
		}
		var fields []string
		if norm(string(bf.Severity)) != norm(string(hf.Severity)) {
			fields = append(fields, "severity")
		}
		if bf.Loc != hf.Loc {
			fields = append(fields, "location")
		}
		if strings.TrimSpace(bf.Message) != strings.TrimSpace(hf.Message) {
			fields = append(fields, "message")
		}
		if len(fields) > 0 {
			changed = append(changed, DiffChanged{
				Key:     k,
				Base:    asDiff(bf),
				Head:    asDiff(hf),
				Changed: fields,
			})
		}
	}
	for k, bf := range bm {
		if _, ok := hm[k]; !ok {
			removed = append(removed, asDiff(bf))
		}
	}

	sortDiff(added)
	sortDiff(removed)
	sort.Slice(changed, func(i, j int) bool { return changed[i].Key < changed[j].Key })

	return DiffPayload{
		BaseID: base.ID, HeadID: head.ID,
		Summary: DiffSummary{
			NewCount:     len(added),
			RemovedCount: len(removed),
			ChangedCount: len(changed),
		},
		New:     added,
		Removed: removed,
		Changed: changed,
	}
}

func WriteDiffJSON(outDir string, base, head *ir.Run) (string, error) {
	path := filepath.Join(outDir, "diff_"+base.ID+"__"+head.ID+".json")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(Diff(base, head), "", "  ")
	if err != nil {
		return "", err
	}
	return path, os.WriteFile(path, b, 0o644)
}

// index keys findings for matching. Repeated keys get an ordinal so two
// identical assertions in one test stay distinct.
func index(fs []ir.Finding) map[string]ir.Finding {
	m := make(map[string]ir.Finding, len(fs))
	for _, f := range fs {
		k := keyOf(f)
		if _, dup := m[k]; dup {
			n := 2
			for {
				kk := k + "#" + strconv.Itoa(n)
				if _, ok := m[kk]; !ok {
					k = kk
					break
				}
				n++
			}
		}
		m[k] = f
	}
	return m
}

func keyOf(f ir.Finding) string {
	sb := strings.Builder{}
	sb.WriteString(norm(f.RuleID))
	sb.WriteByte('|')
	sb.WriteString(f.Loc.File)
	sb.WriteByte('|')
	sb.WriteString(strings.TrimSpace(f.Test))
	sb.WriteByte('|')
	// evidence drives logical identity for most rules
	sb.WriteString(strings.TrimSpace(f.Evidence))
	return sb.String()
}

func asDiff(f ir.Finding) DiffFinding {
	return DiffFinding{
		RuleID:   f.RuleID,
		Severity: f.Severity,
		Location: f.Loc.String(),
		Test:     f.Test,
		Message:  f.Message,
	}
}

func sortDiff(ds []DiffFinding) {
	sort.Slice(ds, func(i, j int) bool {
		if ds[i].RuleID != ds[j].RuleID {
			return ds[i].RuleID < ds[j].RuleID
		}
		if ds[i].Location != ds[j].Location {
			return ds[i].Location < ds[j].Location
		}
		return ds[i].Message < ds[j].Message
	})
}

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
