package handler

import (
	"encoding/json"
	"net/http"

	"github.com/creperia-pos/api/internal/wizard"
	"github.com/go-chi/chi/v5"
)

// QuoteHandler prices lines that are still being configured.
type QuoteHandler struct {
	src CatalogSource
}

func NewQuoteHandler(src CatalogSource) *QuoteHandler {
	return &QuoteHandler{src: src}
}

// RegisterRoutes mounts under /pricing.
func (h *QuoteHandler) RegisterRoutes(r chi.Router) {
	r.Post("/quote", h.Quote)
}

type quoteResponse struct {
	Price       string `json:"price"`
	IsValid     bool   `json:"is_valid"`
	Description string `json:"description"`
}

// Quote handles POST /pricing/quote.
func (h *QuoteHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var line wizard.Line
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snap := snapshot(w, r, h.src)
	if snap == nil {
		return
	}
	res, err := wizard.QuoteLine(snap, line)
	if err != nil {
		writeWizardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quoteResponse{
		Price:       res.Price.StringFixed(2),
		IsValid:     res.IsValid,
		Description: res.Description,
	})
}
