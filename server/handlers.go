package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spektr-org/iaqdash/engine"
	"github.com/spektr-org/iaqdash/helpers"
)

type errorResponse struct {
	Error     string `json:"error"`
	Hint      string `json:"hint,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type inspectResponse struct {
	Dataset *helpers.DatasetInfo `json:"dataset"`
}

// healthHandler returns server health status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// chartsHandler lists the chart ids a dashboard contains
func (s *Server) chartsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"charts": engine.ChartIDs()})
}

// inspectHandler loads an uploaded CSV and describes it
func (s *Server) inspectHandler(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	_, info, err := helpers.Inspect(up.Data, s.profile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	info.Name = up.Name
	writeJSON(w, http.StatusOK, inspectResponse{Dataset: info})
}

// renderHandler renders a dashboard for an uploaded CSV.
// Query params:
//   - status: ventilation status to keep, repeatable or comma separated;
//     present but empty selects nothing
//   - start, end: inclusive date range (RFC3339, "2006-01-02 15:04" or a
//     bare date, which covers the whole day for end)
//   - bins: histogram bin count
func (s *Server) renderHandler(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filters, err := up.filters(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ds, err := helpers.Load(up.Data, s.profile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ds.Name = up.Name
	s.render(w, r, ds, filters)
}

// fixedDashboardHandler renders the configured data file
func (s *Server) fixedDashboardHandler(w http.ResponseWriter, r *http.Request) {
	if s.cfg.DataPath == "" {
		s.writeError(w, r, &requestError{status: http.StatusNotFound, msg: "no data file configured", hint: "Set IAQ_DATA_PATH or POST a CSV to this endpoint."})
		return
	}
	filters, err := queryFilters(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ds, err := helpers.LoadFile(s.cfg.DataPath, s.profile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, ds, filters)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, ds *engine.Dataset, filters engine.Filters) {
	bins, err := intQuery(r, "bins", s.profile.HistogramBins, engine.MaxHistogramBins)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	log := s.log.With("id", RequestID(r.Context()))
	dash := engine.Render(ds, filters,
		engine.WithLogger(log),
		engine.WithHistogramBins(bins),
		engine.WithUnits(s.profile.Units))
	writeJSON(w, http.StatusOK, dash)
}

// ============================================================================
// RESPONSES
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps load and request errors to 4xx with a hint, anything
// else to 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Error: err.Error(), RequestID: RequestID(r.Context())}
	status := http.StatusInternalServerError

	var loadErr *helpers.LoadError
	var reqErr *requestError
	switch {
	case errors.As(err, &loadErr):
		status = http.StatusBadRequest
		resp.Error = loadErr.Message()
		resp.Hint = loadErr.Hint
	case errors.As(err, &reqErr):
		status = reqErr.status
		resp.Error = reqErr.msg
		resp.Hint = reqErr.hint
	}

	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "id", resp.RequestID, "error", err)
		resp.Error = "internal error"
	} else {
		s.log.Warn("request rejected", "id", resp.RequestID, "status", status, "error", err)
	}
	writeJSON(w, status, resp)
}
