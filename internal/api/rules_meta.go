package api

import (
	"net/http"

	"github.com/codewithboateng/champlint/internal/rules"
)

type ruleMeta struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Severity string `json:"severity"`
	Enabled  bool   `json:"enabled"`
	Docs     string `json:"docs,omitempty"`
}

// GET /api/v1/rules (no auth needed for read-only)
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	enabled := map[string]bool{}
	for _, rr := range rules.List(s.Analysis.Settings) {
		enabled[rr.ID] = true
	}
	withDocs := r.URL.Query().Get("docs") == "1"
	out := []ruleMeta{}
	for _, rr := range rules.All() {
		m := ruleMeta{ID: rr.ID, Summary: rr.Summary, Severity: string(rr.Severity), Enabled: enabled[rr.ID]}
		if withDocs {
			m.Docs = rr.Docs
		}
		out = append(out, m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out, "count": len(out)})
}

func (s *Server) handleRule(w http.ResponseWriter, r *http.Request) {
	rr, ok := rules.Get(r.PathValue("id"))
	if !ok {
		s.err(w, http.StatusNotFound, "rule not found")
		return
	}
	on := isEnabled(rr.ID, s.Analysis.Settings)
	writeJSON(w, http.StatusOK, ruleMeta{
		ID: rr.ID, Summary: rr.Summary, Severity: string(rr.Severity), Enabled: on, Docs: rr.Docs,
	})
}

func isEnabled(id string, st rules.Settings) bool {
	for _, rr := range rules.List(st) {
		if rr.ID == id {
			return true
		}
	}
	return false
}
