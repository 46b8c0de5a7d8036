package handler

import (
	"net/http"

	"github.com/remiblancher/ocspkit/internal/api/dto"
	"github.com/remiblancher/ocspkit/internal/api/service"
)

// Observer receives per-operation outcomes, typically for metrics.
type Observer interface {
	ObserveVerification(outcome, certStatus string)
	ObserveRequestBuilt()
}

// OCSPHandler handles OCSP-related HTTP requests.
type OCSPHandler struct {
	service  *service.OCSPService
	observer Observer
}

// NewOCSPHandler creates a new OCSPHandler. observer may be nil.
func NewOCSPHandler(ocspService *service.OCSPService, observer Observer) *OCSPHandler {
	return &OCSPHandler{service: ocspService, observer: observer}
}

// Request handles POST /api/v1/ocsp/request
func (h *OCSPHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req dto.OCSPRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Request(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if h.observer != nil {
		h.observer.ObserveRequestBuilt()
	}

	respondJSON(w, http.StatusOK, resp)
}

// Verify handles POST /api/v1/ocsp/verify. A failed verification is a 200
// with valid=false.
func (h *OCSPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req dto.OCSPVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Verify(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if h.observer != nil {
		if resp.Valid {
			h.observer.ObserveVerification("valid", resp.Status.Status)
		} else {
			h.observer.ObserveVerification(resp.ErrorKind, "none")
		}
	}

	respondReport(w, r, http.StatusOK, resp)
}
