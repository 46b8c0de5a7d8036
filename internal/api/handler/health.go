// Package handler provides HTTP handlers for the REST API.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/remiblancher/ocspkit/internal/api/dto"
	apierrors "github.com/remiblancher/ocspkit/internal/api/errors"
	"github.com/remiblancher/ocspkit/internal/report"
)

// ReadinessChecker reports whether a dependency can serve requests.
type ReadinessChecker interface {
	Ready() bool
}

// HealthHandler handles health and readiness endpoints.
type HealthHandler struct {
	version string
	started time.Time
	checks  map[string]ReadinessChecker
}

// NewHealthHandler creates a new HealthHandler. checks are reported by name
// on /ready.
func NewHealthHandler(version string, checks map[string]ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		version: version,
		started: time.Now(),
		checks:  checks,
	}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]string, len(h.checks))
	for name := range h.checks {
		services[name] = "ok"
	}

	resp := dto.HealthResponse{
		Status:   "ok",
		Version:  h.version,
		Services: services,
		Uptime:   time.Since(h.started).Round(time.Second).String(),
	}

	respondJSON(w, http.StatusOK, resp)
}

// Ready handles GET /ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]bool{
		"server": true,
	}
	for name, c := range h.checks {
		checks[name] = c.Ready()
	}

	allReady := true
	for _, ready := range checks {
		if !ready {
			allReady = false
			break
		}
	}

	resp := dto.ReadyResponse{
		Ready:  allReady,
		Checks: checks,
	}

	status := http.StatusOK
	if !allReady {
		status = http.StatusServiceUnavailable
	}

	respondJSON(w, status, resp)
}

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// respondReport writes v in the format named by the "format" query
// parameter. JSON is the default.
func respondReport(w http.ResponseWriter, r *http.Request, status int, v any) {
	name := r.URL.Query().Get("format")
	if name == "" {
		respondJSON(w, status, v)
		return
	}
	f, err := report.ParseFormat(name)
	if err != nil {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest(err.Error()))
		return
	}
	if _, ok := v.(report.Texter); f == report.FormatText && !ok {
		respondError(w, http.StatusBadRequest, apierrors.NewBadRequest("text format is not available for this endpoint"))
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.WriteHeader(status)
	_ = report.Encode(w, v, f)
}

// respondError writes an error response.
func respondError(w http.ResponseWriter, status int, apiErr *dto.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiErr)
}

// handleServiceError maps a service error to its HTTP response.
func handleServiceError(w http.ResponseWriter, err error) {
	status, apiErr := apierrors.MapError(err)
	respondError(w, status, apiErr)
}

// decodeJSON decodes the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, &dto.APIError{
			Code:    apierrors.CodeInvalidRequest,
			Message: "Invalid JSON request body",
		})
		return false
	}
	return true
}
