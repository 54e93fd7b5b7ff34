package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gorilla/mux"

	"aerolease/internal/booking"
	"aerolease/internal/calendar"
	"aerolease/internal/report"
)

const (
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultExportMonths = 12
	readinessTimeout    = 2 * time.Second
)

// AircraftResponse is one entry of GET /api/aircraft.
type AircraftResponse struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	MinLease    int          `json:"min_lease"`
	MaxLease    int          `json:"max_lease"`
	BookedDates []civil.Date `json:"booked_dates"`
}

// SelectAircraftRequest is the body of POST /api/sessions/{id}/aircraft.
type SelectAircraftRequest struct {
	AircraftID string `json:"aircraft_id"`
	LeaseType  string `json:"lease_type,omitempty"`
}

// NavigateRequest is the body of POST /api/sessions/{id}/navigate.
type NavigateRequest struct {
	Delta int `json:"delta"`
}

// ClickRequest is the body of POST /api/sessions/{id}/click.
type ClickRequest struct {
	Date string `json:"date"` // YYYY-MM-DD
}

// StepRequest is the body of POST /api/sessions/{id}/step.
type StepRequest struct {
	Step booking.Step `json:"step"`
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleListAircraft returns the catalog.
// GET /api/aircraft
func (s *HTTPServer) handleListAircraft(w http.ResponseWriter, _ *http.Request) {
	list := s.catalog.Catalog().List()
	resp := make([]AircraftResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, AircraftResponse{
			ID:          a.ID,
			Name:        a.Name,
			MinLease:    a.MinLease,
			MaxLease:    a.MaxLease,
			BookedDates: a.BookedDates(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"aircraft": resp})
}

// handleAvailabilityExport streams a workbook of day statuses.
// GET /api/aircraft/{id}/availability.xlsx?from=YYYY-MM&months=N
func (s *HTTPServer) handleAvailabilityExport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	aircraft, ok := s.catalog.Catalog().Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Error: fmt.Sprintf("%s: %s", booking.ErrUnknownAircraft, id),
			Code:  booking.CodeUnknownAircraft,
		})
		return
	}

	from := s.defaultExportMonth()
	if v := r.URL.Query().Get("from"); v != "" {
		m, err := calendar.ParseMonth(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from; expected YYYY-MM")
			return
		}
		from = m
	}

	months := defaultExportMonths
	if v := r.URL.Query().Get("months"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > report.MaxMonths {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("months must be between 1 and %d", report.MaxMonths))
			return
		}
		months = n
	}

	var buf bytes.Buffer
	if err := report.WriteAvailability(&buf, s.rules, aircraft, from, months); err != nil {
		s.logger.Error().Err(err).Str("aircraft", id).Msg("Availability export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%s-%s.xlsx", id, from)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// defaultExportMonth is the month of today, or of the earliest bookable
// date when today is before it.
func (s *HTTPServer) defaultExportMonth() calendar.Month {
	today := calendar.Today(s.now(), s.loc)
	if today.Before(s.rules.Earliest) {
		return calendar.MonthOf(s.rules.Earliest)
	}
	return calendar.MonthOf(today)
}

// handleOpenSession opens the modal.
// POST /api/sessions
func (s *HTTPServer) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Open(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// GET /api/sessions/{id}
func (s *HTTPServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DELETE /api/sessions/{id}
func (s *HTTPServer) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Close(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/sessions/{id}/aircraft
func (s *HTTPServer) handleSelectAircraft(w http.ResponseWriter, r *http.Request) {
	var req SelectAircraftRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.AircraftID == "" {
		writeError(w, http.StatusBadRequest, "aircraft_id is required")
		return
	}

	view, err := s.service.SelectAircraft(r.Context(), mux.Vars(r)["id"], req.AircraftID, req.LeaseType)
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// POST /api/sessions/{id}/navigate
func (s *HTTPServer) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	view, err := s.service.Navigate(r.Context(), mux.Vars(r)["id"], req.Delta)
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleClick applies a day click. A rejected click answers 422 and still
// carries the redrawn view.
// POST /api/sessions/{id}/click
func (s *HTTPServer) handleClick(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	date, err := civil.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	view, err := s.service.Click(r.Context(), mux.Vars(r)["id"], date)
	if err != nil {
		s.writeDomainError(w, r, err, view)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// POST /api/sessions/{id}/step
func (s *HTTPServer) handleStep(w http.ResponseWriter, r *http.Request) {
	var req StepRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !req.Step.Valid() {
		writeError(w, http.StatusBadRequest, "unknown step")
		return
	}

	view, err := s.service.GoToStep(r.Context(), mux.Vars(r)["id"], req.Step)
	if err != nil {
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSubmit sends the booking request. The receipt is returned even when
// the relay failed; Delivered tells the two apart.
// POST /api/sessions/{id}/submit
func (s *HTTPServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var form booking.Form
	if err := decodeBody(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	receipt, err := s.service.Submit(r.Context(), mux.Vars(r)["id"], form)
	if err != nil {
		var stepErr *booking.StepError
		if errors.As(err, &stepErr) {
			s.logger.Debug().Err(err).Str("step", stepErr.Step.String()).Msg("Submission rejected")
		}
		s.writeDomainError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}
