package handler

import (
	"net/http"

	"app/internal/repository"

	"github.com/rs/zerolog"
)

// CatalogHandler exposes the display-only catalog reads used by list
// screens. Dropdowns inside the draft dialog go through the session
// endpoints instead, so the two read paths never share a cache.
type CatalogHandler struct {
	catalogRepo repository.CatalogRepository
	logger      zerolog.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogRepo repository.CatalogRepository, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{catalogRepo: catalogRepo, logger: logger}
}

// RegisterRoutes mounts catalog routes
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/catalog/specializations", authMw(http.HandlerFunc(h.listSpecializations)))
	mux.Handle("/catalog/levels", authMw(http.HandlerFunc(h.listLevels)))
}

// listSpecializations godoc
// @Summary List specializations
// @Tags catalog
// @Produce json
// @Success 200 {array} model.Specialization
// @Router /catalog/specializations [get]
func (h *CatalogHandler) listSpecializations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	specializations, err := h.catalogRepo.ListSpecializations(r.Context())
	if err != nil {
		http.Error(w, "Failed to list specializations: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, specializations)
}

// listLevels godoc
// @Summary List all levels
// @Description Display-only read path for list-screen filters.
// @Tags catalog
// @Produce json
// @Success 200 {array} model.Level
// @Router /catalog/levels [get]
func (h *CatalogHandler) listLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	levels, err := h.catalogRepo.ListAllLevels(r.Context())
	if err != nil {
		http.Error(w, "Failed to list levels: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, levels)
}
