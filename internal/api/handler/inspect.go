package handler

import (
	"net/http"

	"github.com/remiblancher/ocspkit/internal/api/dto"
	"github.com/remiblancher/ocspkit/internal/api/service"
)

// InspectHandler handles inspect-related HTTP requests.
type InspectHandler struct {
	service *service.OCSPService
}

// NewInspectHandler creates a new InspectHandler.
func NewInspectHandler(ocspService *service.OCSPService) *InspectHandler {
	return &InspectHandler{service: ocspService}
}

// Inspect handles POST /api/v1/ocsp/inspect
func (h *InspectHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	var req dto.InspectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.Inspect(r.Context(), &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondReport(w, r, http.StatusOK, resp)
}
