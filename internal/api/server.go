// Package api exposes the booking widget over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"aerolease/internal/booking"
	"aerolease/internal/calendar"
	"aerolease/internal/models"
)

// ReadyCheck reports whether a dependency is usable.
type ReadyCheck func(ctx context.Context) error

// HTTPServer serves the booking API.
type HTTPServer struct {
	server        *http.Server
	service       *booking.Service
	catalog       models.CatalogSource
	rules         calendar.Rules
	allowedOrigin string
	checks        map[string]ReadyCheck
	now           func() time.Time
	loc           *time.Location
	logger        *zerolog.Logger
}

// Option configures an HTTPServer.
type Option func(*HTTPServer)

// WithAllowedOrigin sets the CORS origin. Defaults to "*".
func WithAllowedOrigin(origin string) Option {
	return func(s *HTTPServer) {
		if origin != "" {
			s.allowedOrigin = origin
		}
	}
}

// WithReadyCheck adds a named check to /readyz.
func WithReadyCheck(name string, check ReadyCheck) Option {
	return func(s *HTTPServer) {
		s.checks[name] = check
	}
}

// WithClock overrides the time source used for export defaults.
func WithClock(now func() time.Time) Option {
	return func(s *HTTPServer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the zone used for "today".
func WithLocation(loc *time.Location) Option {
	return func(s *HTTPServer) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewHTTPServer creates the API server listening on port.
func NewHTTPServer(port int, svc *booking.Service, catalog models.CatalogSource, rules calendar.Rules, logger *zerolog.Logger, opts ...Option) *HTTPServer {
	s := &HTTPServer{
		service:       svc,
		catalog:       catalog,
		rules:         rules,
		allowedOrigin: "*",
		checks:        make(map[string]ReadyCheck),
		now:           time.Now,
		loc:           time.Local,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the root handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves in the background.
func (s *HTTPServer) Start() {
	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("HTTP API stopped")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type errorResponse struct {
	Error string        `json:"error"`
	Code  string        `json:"code,omitempty"`
	Step  string        `json:"step,omitempty"`
	View  *booking.View `json:"view,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		transitionErr *booking.TransitionError
		stepErr       *booking.StepError
	)
	switch {
	case errors.Is(err, booking.ErrSessionNotFound), errors.Is(err, booking.ErrUnknownAircraft):
		return http.StatusNotFound
	case errors.As(err, &transitionErr):
		return http.StatusConflict
	case errors.As(err, &stepErr), calendar.Code(err) != "":
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeDomainError writes err with its code. view is attached for rejected
// clicks so the widget can redraw without another round trip.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, r *http.Request, err error, view *booking.View) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, status, "internal error")
		return
	}

	resp := errorResponse{Error: err.Error(), Code: booking.Code(err), View: view}
	if step, ok := booking.StepOf(err); ok {
		resp.Step = step.String()
	}
	writeJSON(w, status, resp)
}

func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
