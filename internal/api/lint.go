package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/codewithboateng/champlint/internal/analysis"
	"github.com/codewithboateng/champlint/internal/ir"
	"github.com/codewithboateng/champlint/internal/parser"
	"github.com/codewithboateng/champlint/internal/reporting"
)

const maxLintBody = 2 << 20

type lintReq struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	// Format "text" adds the rendered text report to the response.
	Format string `json:"format,omitempty"`
}

type lintResp struct {
	RunID         string       `json:"run_id"`
	HasViolations bool         `json:"has_violations"`
	Findings      []ir.Finding `json:"findings"`
	Waived        int          `json:"waived,omitempty"`
	Text          string       `json:"text,omitempty"`
	Saved         bool         `json:"saved"`
}

// POST /api/v1/lint
func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var in lintReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLintBody)).Decode(&in); err != nil {
		s.Metrics.observeLint("bad_request", time.Since(start).Seconds(), nil)
		s.err(w, http.StatusBadRequest, "invalid json")
		return
	}

	opts := s.Analysis
	opts.Logger = s.Logger
	if ws, err := s.DB.ListWaivers(true); err == nil {
		opts.Waivers = ws
	} else {
		s.Logger.Warn("waivers unavailable", "error", err)
	}

	run, err := analysis.Analyze(r.Context(), analysis.Input{Name: in.Name, Source: []byte(in.Source)}, opts)
	if err != nil {
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			s.Metrics.observeLint("parse_error", time.Since(start).Seconds(), nil)
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error": pe.Error(), "location": pe.Loc,
			})
			return
		}
		s.Metrics.observeLint("error", time.Since(start).Seconds(), nil)
		s.err(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := lintResp{
		RunID:         run.ID,
		HasViolations: analysis.Report(run).HasViolations(),
		Findings:      run.Findings,
		Waived:        run.Waived,
	}
	if out.Findings == nil {
		out.Findings = []ir.Finding{}
	}
	if in.Format == "text" {
		var buf bytes.Buffer
		_ = reporting.WriteText(&buf, analysis.Report(run), reporting.TextOptions{})
		out.Text = buf.String()
	}
	if s.PersistLint {
		if err := s.DB.SaveRun(&run); err != nil {
			s.Logger.Error("save lint run", "run", run.ID, "error", err)
		} else {
			out.Saved = true
		}
	}
	s.Metrics.observeLint("ok", time.Since(start).Seconds(), run.Findings)
	s.Logger.Info("lint", "run", run.ID, "findings", len(run.Findings), "violations", out.HasViolations)
	writeJSON(w, http.StatusOK, out)
}
