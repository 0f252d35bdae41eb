package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/agrisense/cropscan/api/schemas"
	"github.com/agrisense/cropscan/internal/report"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Date layouts accepted in from_date/to_date query parameters.
var queryTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// reportResponse is the wire envelope for every report endpoint. Errors
// itemizes scans skipped for dangling entity references; the surviving rows
// are still returned alongside them.
type reportResponse struct {
	Reports []schemas.ReportRow `json:"reports"`
	Errors  []string            `json:"errors,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAllReports(w http.ResponseWriter, r *http.Request) {
	s.respondWithReports(w, r, report.Filter{})
}

func (s *Server) handleReportsByUser(w http.ResponseWriter, r *http.Request) {
	s.respondWithReports(w, r, report.Filter{UserID: mux.Vars(r)["user_id"]})
}

func (s *Server) handleReportsByDevice(w http.ResponseWriter, r *http.Request) {
	s.respondWithReports(w, r, report.Filter{DeviceID: mux.Vars(r)["device_id"]})
}

func (s *Server) handleReportsByDateRange(w http.ResponseWriter, r *http.Request) {
	from, err := parseQueryTime(r, "from_date")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}
	to, err := parseQueryTime(r, "to_date")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}
	s.respondWithReports(w, r, report.Filter{From: from, To: to})
}

func (s *Server) handleReportsByUserAndDevice(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.respondWithReports(w, r, report.Filter{
		UserID:   q.Get("user_id"),
		DeviceID: q.Get("device_id"),
	})
}

// respondWithReports runs the engine and shapes the result. Skipped scans are
// reported in the errors array with a 200 status; anything else is a 500.
func (s *Server) respondWithReports(w http.ResponseWriter, r *http.Request, filter report.Filter) {
	rows, err := s.reports.Generate(filter)
	if err != nil {
		faults := missingReferenceMessages(err)
		if faults == nil {
			s.log.Error("Report generation failed", zap.Error(err))
			s.writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "report generation failed"})
			return
		}
		s.log.Warn("Report generation skipped scans",
			zap.Int("skipped", len(faults)),
			zap.String("path", r.URL.Path))
		s.writeJSON(w, http.StatusOK, reportResponse{Reports: rows, Errors: faults})
		return
	}
	s.writeJSON(w, http.StatusOK, reportResponse{Reports: rows})
}

// missingReferenceMessages flattens an error tree into one message per
// missing-reference fault. It returns nil if any leaf is a different kind of
// error, signalling the caller to treat the whole thing as fatal.
func missingReferenceMessages(err error) []string {
	leaves := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		leaves = joined.Unwrap()
	}

	msgs := make([]string, 0, len(leaves))
	for _, leaf := range leaves {
		var missing *report.MissingReferenceError
		if !errors.As(leaf, &missing) {
			return nil
		}
		msgs = append(msgs, missing.Error())
	}
	return msgs
}

func parseQueryTime(r *http.Request, param string) (*time.Time, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range queryTimeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return &ts, nil
		}
	}
	return nil, fmt.Errorf("invalid %s: %q", param, raw)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Failed to encode response", zap.Error(err))
	}
}
