package handler

import (
	"net/http"
	"strings"

	"app/internal/model"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// AccessCodeHandler handles access-code read endpoints
type AccessCodeHandler struct {
	accessCodeSvc service.AccessCodeService
	logger        zerolog.Logger
}

// NewAccessCodeHandler creates a new AccessCodeHandler
func NewAccessCodeHandler(accessCodeSvc service.AccessCodeService, logger zerolog.Logger) *AccessCodeHandler {
	return &AccessCodeHandler{accessCodeSvc: accessCodeSvc, logger: logger}
}

// RegisterRoutes mounts access-code routes
func (h *AccessCodeHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/access-codes/", authMw(http.HandlerFunc(h.getAccessCode)))
}

// getAccessCode godoc
// @Summary Get an access code
// @Description Returns the record plus a short-lived URL for its stored receipt. `/access-codes/code/{code}` looks up by the human-readable code instead of the id.
// @Tags access-codes
// @Produce json
// @Param id path string true "Access code ID"
// @Success 200 {object} dto.AccessCodeResponseDTO
// @Failure 404 {string} string "Access code not found"
// @Router /access-codes/{id} [get]
func (h *AccessCodeHandler) getAccessCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/access-codes/")

	var rec *model.AccessCodeRecord
	var err error
	if code := strings.TrimPrefix(rest, "code/"); code != rest {
		if code == "" || strings.Contains(code, "/") {
			http.NotFound(w, r)
			return
		}
		rec, err = h.accessCodeSvc.GetByCode(r.Context(), code)
	} else {
		if rest == "" || strings.Contains(rest, "/") {
			http.NotFound(w, r)
			return
		}
		rec, err = h.accessCodeSvc.GetByID(r.Context(), rest)
	}
	if err != nil {
		http.Error(w, "Failed to load access code: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "Access code not found", http.StatusNotFound)
		return
	}
	receiptURL, err := h.accessCodeSvc.ReceiptURL(r.Context(), rec)
	if err != nil {
		// The record is still useful without the receipt link.
		h.logger.Warn().Err(err).Str("access_code_id", rec.AccessCodeID).Msg("failed to presign receipt")
	}
	writeJSON(w, http.StatusOK, accessCodeResponse(rec, receiptURL))
}
