package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// StockAdjuster is satisfied by *service.StockService.
type StockAdjuster interface {
	AdjustStock(ctx context.Context, modifierID string, delta int) (int, error)
}

// StockHandler handles manual stock corrections.
type StockHandler struct {
	svc StockAdjuster
}

func NewStockHandler(svc StockAdjuster) *StockHandler {
	return &StockHandler{svc: svc}
}

// RegisterRoutes mounts under /modifiers.
func (h *StockHandler) RegisterRoutes(r chi.Router) {
	r.Patch("/{id}/stock", h.Adjust)
}

type adjustStockRequest struct {
	Delta *int `json:"delta"`
}

type stockResponse struct {
	ModifierID   string `json:"modifier_id"`
	CurrentStock int    `json:"current_stock"`
}

// Adjust handles PATCH /modifiers/{id}/stock.
func (h *StockHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Delta == nil {
		writeError(w, http.StatusBadRequest, "delta is required")
		return
	}

	id := chi.URLParam(r, "id")
	stock, err := h.svc.AdjustStock(r.Context(), id, *req.Delta)
	if err != nil {
		writeServiceError(w, "adjust stock", err)
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{ModifierID: id, CurrentStock: stock})
}
