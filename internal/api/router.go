package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"aerolease/internal/metrics"
)

// NewRouter sets up all HTTP routes.
func (s *HTTPServer) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.Use(s.corsMiddleware)
	r.Use(metricsMiddleware)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/aircraft", s.handleListAircraft).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/aircraft/{id}/availability.xlsx", s.handleAvailabilityExport).Methods(http.MethodGet, http.MethodOptions)

	api.HandleFunc("/sessions", s.handleOpenSession).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/sessions/{id}", s.handleCloseSession).Methods(http.MethodDelete, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/aircraft", s.handleSelectAircraft).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/navigate", s.handleNavigate).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/click", s.handleClick).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/step", s.handleStep).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/submit", s.handleSubmit).Methods(http.MethodPost, http.MethodOptions)

	return r
}

func (s *HTTPServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware counts requests by route template, so session ids do
// not end up in label values.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unknown"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.IncHTTP(route, strconv.Itoa(rec.status))
	})
}
