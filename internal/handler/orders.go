package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/creperia-pos/api/internal/database"
	"github.com/creperia-pos/api/internal/middleware"
	"github.com/creperia-pos/api/internal/service"
	"github.com/creperia-pos/api/internal/ticket"
	"github.com/creperia-pos/api/internal/wizard"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	SubmitOrder(ctx context.Context, req service.SubmitOrderRequest) (*service.SubmitOrderResult, error)
	SettleOrder(ctx context.Context, orderID uuid.UUID, p service.PaymentDetails) (database.Order, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) (database.Order, error)
}

// OrderStore defines the database reads needed by order handlers.
// Satisfied by *database.Queries.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	src   CatalogSource
}

func NewOrderHandler(svc OrderServicer, store OrderStore, src CatalogSource) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, src: src}
}

// RegisterRoutes mounts under /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/settle", h.Settle)
	r.Delete("/{id}", h.Cancel)
}

// --- Request / Response types ---

type createOrderRequest struct {
	Mode         string          `json:"mode"`
	CustomerName string          `json:"customer_name"`
	Items        []wizard.Line   `json:"items"`
	Payment      *paymentRequest `json:"payment"`
}

type paymentRequest struct {
	Method         string `json:"method"`
	AmountReceived string `json:"amount_received"`
	Reference      string `json:"reference"`
}

type orderResponse struct {
	ID               uuid.UUID           `json:"id"`
	OrderNumber      int64               `json:"order_number"`
	Mode             string              `json:"mode"`
	Status           string              `json:"status"`
	Total            string              `json:"total"`
	CashierName      string              `json:"cashier_name"`
	CustomerName     *string             `json:"customer_name"`
	PaymentMethod    *string             `json:"payment_method"`
	AmountReceived   *string             `json:"amount_received"`
	ChangeAmount     *string             `json:"change_amount"`
	PaymentReference *string             `json:"payment_reference"`
	CreatedBy        uuid.UUID           `json:"created_by"`
	CreatedAt        time.Time           `json:"created_at"`
	PaidAt           *time.Time          `json:"paid_at"`
	Items            []orderItemResponse `json:"items,omitempty"`
}

type orderItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	Position   int32           `json:"position"`
	Kind       string          `json:"kind"`
	Name       string          `json:"name"`
	FinalPrice string          `json:"final_price"`
	FinalCost  *string         `json:"final_cost"`
	Details    json.RawMessage `json:"details"`
}

type createOrderResponse struct {
	orderResponse
	PrintError string `json:"print_error,omitempty"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type stockErrorResponse struct {
	Error      string `json:"error"`
	ModifierID string `json:"modifier_id"`
	Available  int    `json:"available"`
	Requested  int    `json:"requested"`
}

// --- Handlers ---

// Create handles POST /orders. Lines are priced again against the current
// catalog before the ticket is committed.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, service.ErrEmptyTicket.Error())
		return
	}

	var payment *service.PaymentDetails
	if req.Payment != nil {
		p, err := parsePayment(*req.Payment)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		payment = &p
	}

	snap := snapshot(w, r, h.src)
	if snap == nil {
		return
	}
	var t ticket.Ticket
	for i, line := range req.Items {
		it, err := wizard.BuildItem(snap, line)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("item[%d]: %v", i, err))
			return
		}
		t.Add(it)
	}

	result, err := h.svc.SubmitOrder(r.Context(), service.SubmitOrderRequest{
		Items:        t.Items(),
		Mode:         req.Mode,
		CashierID:    claims.UserID,
		CashierName:  claims.Name,
		CustomerName: strings.TrimSpace(req.CustomerName),
		Payment:      payment,
	})
	if err != nil {
		writeServiceError(w, "submit order", err)
		return
	}

	resp := createOrderResponse{orderResponse: toOrderResponse(result.Order, result.Items)}
	if result.PrintErr != nil {
		resp.PrintError = result.PrintErr.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := r.URL.Query().Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	params := database.ListOrdersParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := database.OrderStatus(strings.ToLower(s))
		if !isValidOrderStatus(status) {
			writeError(w, http.StatusBadRequest, "invalid status")
			return
		}
		params.Status = database.NullOrderStatus{OrderStatus: status, Valid: true}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date format, use YYYY-MM-DD")
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date format, use YYYY-MM-DD")
			return
		}
		// inclusive of the whole end day
		params.EndDate = pgtype.Timestamptz{Time: t.AddDate(0, 0, 1), Valid: true}
	}

	orders, err := h.store.ListOrders(r.Context(), params)
	if err != nil {
		writeInternal(w, "list orders", err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o, nil)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp, Limit: limit, Offset: offset})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeInternal(w, "get order", err)
		return
	}

	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		writeInternal(w, "list order items", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order, items))
}

// Settle handles POST /orders/{id}/settle.
func (h *OrderHandler) Settle(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := parsePayment(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.svc.SettleOrder(r.Context(), orderID, p)
	if err != nil {
		writeServiceError(w, "settle order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// Cancel handles DELETE /orders/{id}.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.svc.CancelOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, "cancel order", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order, nil))
}

// --- Helpers ---

func parsePayment(req paymentRequest) (service.PaymentDetails, error) {
	if req.Method == "" {
		return service.PaymentDetails{}, errors.New("payment method is required")
	}
	p := service.PaymentDetails{Method: req.Method, Reference: strings.TrimSpace(req.Reference)}
	if req.AmountReceived != "" {
		amt, err := decimal.NewFromString(req.AmountReceived)
		if err != nil {
			return service.PaymentDetails{}, errors.New("amount_received must be a decimal")
		}
		p.AmountReceived = amt
	}
	return p, nil
}

func isValidOrderStatus(s database.OrderStatus) bool {
	switch s {
	case database.OrderStatusPENDING, database.OrderStatusPAID, database.OrderStatusCANCELLED:
		return true
	}
	return false
}

// writeServiceError maps order and stock service errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var stockErr *service.StockInsufficientError
	switch {
	case errors.As(err, &stockErr):
		writeJSON(w, http.StatusConflict, stockErrorResponse{
			Error:      stockErr.Error(),
			ModifierID: stockErr.ModifierID,
			Available:  stockErr.Available,
			Requested:  stockErr.Requested,
		})
	case errors.Is(err, service.ErrTransactionConflict):
		writeError(w, http.StatusConflict, service.ErrTransactionConflict.Error())
	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrModifierNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrOrderNotPending),
		errors.Is(err, service.ErrOrderCancelled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrEmptyTicket),
		errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, service.ErrMissingCashier),
		errors.Is(err, service.ErrInvalidItem),
		errors.Is(err, service.ErrInvalidPayment),
		errors.Is(err, service.ErrStockNotTracked),
		errors.Is(err, service.ErrInvalidStockDelta):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeInternal(w, op, err)
	}
}

func numericString(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := database.NumericToDecimal(n).StringFixed(2)
	return &s
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func toOrderResponse(o database.Order, items []database.OrderItem) orderResponse {
	resp := orderResponse{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		Mode:             o.Mode,
		Status:           string(o.Status),
		Total:            database.NumericToDecimal(o.Total).StringFixed(2),
		CashierName:      o.CashierName,
		CustomerName:     textPtr(o.CustomerName),
		AmountReceived:   numericString(o.AmountReceived),
		ChangeAmount:     numericString(o.ChangeAmount),
		PaymentReference: textPtr(o.PaymentReference),
		CreatedBy:        o.CreatedBy,
		CreatedAt:        o.CreatedAt,
	}
	if o.PaymentMethod.Valid {
		m := string(o.PaymentMethod.PaymentMethod)
		resp.PaymentMethod = &m
	}
	if o.PaidAt.Valid {
		t := o.PaidAt.Time
		resp.PaidAt = &t
	}
	for _, it := range items {
		details := json.RawMessage(it.Details)
		if len(details) == 0 {
			details = json.RawMessage("{}")
		}
		resp.Items = append(resp.Items, orderItemResponse{
			ID:         it.ID,
			Position:   it.Position,
			Kind:       string(it.Kind),
			Name:       it.Name,
			FinalPrice: database.NumericToDecimal(it.FinalPrice).StringFixed(2),
			FinalCost:  numericString(it.FinalCost),
			Details:    details,
		})
	}
	return resp
}
