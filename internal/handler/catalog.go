package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/creperia-pos/api/internal/catalog"
	"github.com/creperia-pos/api/internal/wizard"
	"github.com/go-chi/chi/v5"
)

// CatalogSource provides the current catalog snapshot.
// Satisfied by *catalog.Cache.
type CatalogSource interface {
	Get(ctx context.Context) (*catalog.Snapshot, error)
	Refresh(ctx context.Context) (*catalog.Snapshot, error)
}

// snapshot returns the current catalog. A stale snapshot is served when a
// reload fails; nil means nothing could be loaded and a response was
// written.
func snapshot(w http.ResponseWriter, r *http.Request, src CatalogSource) *catalog.Snapshot {
	snap, err := src.Get(r.Context())
	if err != nil {
		if snap == nil {
			writeInternal(w, "load catalog", err)
			return nil
		}
		log.Printf("WARN: serving stale catalog: %v", err)
	}
	return snap
}

// CatalogHandler serves the menu and the wizard steps built from it.
type CatalogHandler struct {
	src CatalogSource
}

func NewCatalogHandler(src CatalogSource) *CatalogHandler {
	return &CatalogHandler{src: src}
}

// RegisterRoutes mounts under /catalog.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Get("/groups/{id}/steps", h.GroupSteps)
	r.Get("/items/{id}/steps", h.ItemSteps)
}

type catalogResponse struct {
	Groups     []catalog.MenuGroup        `json:"groups"`
	Items      []catalog.MenuItem         `json:"items"`
	Modifiers  []catalog.Modifier         `json:"modifiers"`
	PriceRules []catalog.PriceRule        `json:"price_rules"`
	Categories []catalog.ModifierCategory `json:"categories"`
}

type stepsResponse struct {
	Steps []wizard.Step `json:"steps"`
}

func toCatalogResponse(s *catalog.Snapshot) catalogResponse {
	return catalogResponse{
		Groups:     s.Groups(),
		Items:      s.Items(),
		Modifiers:  s.Modifiers(),
		PriceRules: s.PriceRules(),
		Categories: s.Categories(),
	}
}

// Get handles GET /catalog.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap := snapshot(w, r, h.src)
	if snap == nil {
		return
	}
	writeJSON(w, http.StatusOK, toCatalogResponse(snap))
}

// Refresh handles POST /catalog/refresh after a menu edit.
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.src.Refresh(r.Context())
	if err != nil {
		writeInternal(w, "refresh catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, toCatalogResponse(snap))
}

// GroupSteps handles GET /catalog/groups/{id}/steps.
func (h *CatalogHandler) GroupSteps(w http.ResponseWriter, r *http.Request) {
	snap := snapshot(w, r, h.src)
	if snap == nil {
		return
	}
	wz, err := wizard.NewGroupWizard(snap, chi.URLParam(r, "id"))
	if err != nil {
		writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stepsResponse{Steps: wz.Steps()})
}

// ItemSteps handles GET /catalog/items/{id}/steps. Items without options
// have no steps.
func (h *CatalogHandler) ItemSteps(w http.ResponseWriter, r *http.Request) {
	snap := snapshot(w, r, h.src)
	if snap == nil {
		return
	}
	wz, err := wizard.NewItemWizard(snap, chi.URLParam(r, "id"))
	if errors.Is(err, wizard.ErrNothingToCustomize) {
		writeJSON(w, http.StatusOK, stepsResponse{Steps: []wizard.Step{}})
		return
	}
	if err != nil {
		writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stepsResponse{Steps: wz.Steps()})
}

// writeWizardError maps catalog reference and selection errors to 404/400.
func writeWizardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wizard.ErrGroupNotFound),
		errors.Is(err, wizard.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}
