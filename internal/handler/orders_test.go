package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/creperia-pos/api/internal/database"
	"github.com/creperia-pos/api/internal/handler"
	"github.com/creperia-pos/api/internal/service"
	"github.com/creperia-pos/api/internal/ticket"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Mock OrderServicer ---

type mockOrderService struct {
	submitFn func(ctx context.Context, req service.SubmitOrderRequest) (*service.SubmitOrderResult, error)
	settleFn func(ctx context.Context, id uuid.UUID, p service.PaymentDetails) (database.Order, error)
	cancelFn func(ctx context.Context, id uuid.UUID) (database.Order, error)
}

func (m *mockOrderService) SubmitOrder(ctx context.Context, req service.SubmitOrderRequest) (*service.SubmitOrderResult, error) {
	return m.submitFn(ctx, req)
}

func (m *mockOrderService) SettleOrder(ctx context.Context, id uuid.UUID, p service.PaymentDetails) (database.Order, error) {
	return m.settleFn(ctx, id, p)
}

func (m *mockOrderService) CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	return m.cancelFn(ctx, id)
}

// --- Mock OrderStore ---

type mockOrderStore struct {
	getOrderFn   func(ctx context.Context, id uuid.UUID) (database.Order, error)
	listOrdersFn func(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
	listItemsFn  func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error)
}

func (m *mockOrderStore) GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, id)
	}
	return database.Order{}, pgx.ErrNoRows
}

func (m *mockOrderStore) ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(ctx, arg)
	}
	return []database.Order{}, nil
}

func (m *mockOrderStore) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
	if m.listItemsFn != nil {
		return m.listItemsFn(ctx, orderID)
	}
	return []database.OrderItem{}, nil
}

// --- Helpers ---

func testNumeric(s string) pgtype.Numeric {
	return database.DecimalToNumeric(decimal.RequireFromString(s))
}

func sampleOrder(status database.OrderStatus) database.Order {
	return database.Order{
		ID:          uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		OrderNumber: 42,
		Mode:        "TABLE 3",
		Status:      status,
		Total:       testNumeric("60"),
		CashierName: "Ana",
		CreatedBy:   uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		CreatedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

// committedResult echoes the request back as a committed order.
func committedResult(req service.SubmitOrderRequest) *service.SubmitOrderResult {
	o := sampleOrder(database.OrderStatusPENDING)
	o.Total = database.DecimalToNumeric(ticket.Total(req.Items))
	res := &service.SubmitOrderResult{Order: o}
	for i, it := range req.Items {
		res.Items = append(res.Items, database.OrderItem{
			ID:         it.ID,
			OrderID:    o.ID,
			Position:   int32(i),
			Kind:       database.ItemKind(it.Kind),
			Name:       it.Name,
			FinalPrice: database.DecimalToNumeric(it.FinalPrice),
			Details:    []byte(`{}`),
		})
	}
	return res
}

func orderRouter(t *testing.T, svc handler.OrderServicer, store handler.OrderStore) http.Handler {
	src := &fakeCatalog{snap: testSnapshot(t)}
	return authed("/orders", handler.NewOrderHandler(svc, store, src).RegisterRoutes)
}

// --- Create ---

func TestOrderHandler_Create(t *testing.T) {
	var got service.SubmitOrderRequest
	svc := &mockOrderService{submitFn: func(ctx context.Context, req service.SubmitOrderRequest) (*service.SubmitOrderResult, error) {
		got = req
		return committedResult(req), nil
	}}
	r := orderRouter(t, svc, &mockOrderStore{})

	body := map[string]any{
		"mode":          "TABLE 3",
		"customer_name": "  Bo ",
		"items": []map[string]any{
			{"group_id": "crepe-sweet", "modifier_ids": []string{"nutella", "banana", "strawberry"}},
			{"item_id": "latte", "variant_id": "latte-l", "modifier_ids": []string{"shot"}},
			{"item_id": "water"},
		},
	}
	rr := doRequest(t, r, "POST", "/orders", tokenFor(t, "CASHIER"), body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", rr.Code, rr.Body)
	}

	if got.CashierName != "Ana" || got.CashierID.String() != "11111111-1111-1111-1111-111111111111" {
		t.Errorf("cashier = %q %s", got.CashierName, got.CashierID)
	}
	if got.CustomerName != "Bo" || got.Mode != "TABLE 3" || got.Payment != nil {
		t.Errorf("request = %+v", got)
	}
	if len(got.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(got.Items))
	}
	// 60 crepe + 50 latte + 10 water, priced from the catalog
	if total := ticket.Total(got.Items); !total.Equal(d(120)) {
		t.Errorf("total = %s, want 120", total)
	}

	var resp struct {
		OrderNumber int64  `json:"order_number"`
		Total       string `json:"total"`
		Items       []struct {
			Name       string `json:"name"`
			FinalPrice string `json:"final_price"`
		} `json:"items"`
		PrintError string `json:"print_error"`
	}
	decode(t, rr, &resp)
	if resp.OrderNumber != 42 || resp.Total != "120.00" || len(resp.Items) != 3 || resp.PrintError != "" {
		t.Errorf("response = %+v", resp)
	}
	if resp.Items[1].Name != "Latte" || resp.Items[1].FinalPrice != "50.00" {
		t.Errorf("latte line = %+v", resp.Items[1])
	}
}

func TestOrderHandler_CreateWithPaymentAndPrintFailure(t *testing.T) {
	var got service.SubmitOrderRequest
	svc := &mockOrderService{submitFn: func(ctx context.Context, req service.SubmitOrderRequest) (*service.SubmitOrderResult, error) {
		got = req
		res := committedResult(req)
		res.PrintErr = fmt.Errorf("%w: paper out", service.ErrPrintFailure)
		return res, nil
	}}
	r := orderRouter(t, svc, &mockOrderStore{})

	body := map[string]any{
		"mode":    "TAKEOUT",
		"items":   []map[string]any{{"item_id": "water"}},
		"payment": map[string]string{"method": "CASH", "amount_received": "20.00"},
	}
	rr := doRequest(t, r, "POST", "/orders", tokenFor(t, "CASHIER"), body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", rr.Code, rr.Body)
	}
	if got.Payment == nil || got.Payment.Method != "CASH" || !got.Payment.AmountReceived.Equal(d(20)) {
		t.Errorf("payment = %+v", got.Payment)
	}

	var resp struct {
		PrintError string `json:"print_error"`
	}
	decode(t, rr, &resp)
	if resp.PrintError == "" {
		t.Error("expected print_error in response")
	}
}

func TestOrderHandler_CreateRejectsBeforeSubmit(t *testing.T) {
	svc := &mockOrderService{submitFn: func(ctx context.Context, req service.SubmitOrderRequest) (*service.SubmitOrderResult, error) {
		t.Fatal("SubmitOrder should not be called")
		return nil, nil
	}}
	r := orderRouter(t, svc, &mockOrderStore{})
	token := tokenFor(t, "CASHIER")

	tests := []struct {
		name     string
		token    string
		body     any
		wantCode int
	}{
		{"unauthenticated", "", map[string]any{"mode": "TAKEOUT"}, http.StatusUnauthorized},
		{"malformed body", token, "{", http.StatusBadRequest},
		{"empty ticket", token, map[string]any{"mode": "TAKEOUT", "items": []any{}}, http.StatusBadRequest},
		{"incomplete line", token, map[string]any{"mode": "TAKEOUT", "items": []map[string]any{{"group_id": "crepe-sweet"}}}, http.StatusBadRequest},
		{"unknown item", token, map[string]any{"mode": "TAKEOUT", "items": []map[string]any{{"item_id": "ghost"}}}, http.StatusBadRequest},
		{"bad amount", token, map[string]any{
			"mode":    "TAKEOUT",
			"items":   []map[string]any{{"item_id": "water"}},
			"payment": map[string]string{"method": "CASH", "amount_received": "lots"},
		}, http.StatusBadRequest},
		{"payment without method", token, map[string]any{
			"mode":    "TAKEOUT",
			"items":   []map[string]any{{"item_id": "water"}},
			"payment": map[string]string{"amount_received": "10"},
		}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, r, "POST", "/orders", tc.token, tc.body)
			if rr.Code != tc.wantCode {
				t.Fatalf("status: got %d, want %d (%s)", rr.Code, tc.wantCode, rr.Body)
			}
		})
	}
}

func TestOrderHandler_CreateServiceErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"stock", &service.StockInsufficientError{ModifierID: "nutella", Name: "Nutella", Available: 1, Requested: 2}, http.StatusConflict},
		{"conflict", fmt.Errorf("%w: %w", service.ErrTransactionConflict, errDB), http.StatusConflict},
		{"mode", service.ErrInvalidMode, http.StatusBadRequest},
		{"payment", fmt.Errorf("%w: short", service.ErrInvalidPayment), http.StatusBadRequest},
		{"stale catalog", fmt.Errorf("%w: nutella", service.ErrModifierNotFound), http.StatusNotFound},
		{"database", errDB, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockOrderService{submitFn: func(ctx context.Context, req service.SubmitOrderRequest) (*service.SubmitOrderResult, error) {
				return nil, tc.err
			}}
			r := orderRouter(t, svc, &mockOrderStore{})
			body := map[string]any{"mode": "TAKEOUT", "items": []map[string]any{{"group_id": "crepe-sweet", "modifier_ids": []string{"nutella"}}}}

			rr := doRequest(t, r, "POST", "/orders", tokenFor(t, "CASHIER"), body)
			if rr.Code != tc.wantCode {
				t.Fatalf("status: got %d, want %d (%s)", rr.Code, tc.wantCode, rr.Body)
			}
		})
	}
}

func TestOrderHandler_CreateStockErrorBody(t *testing.T) {
	svc := &mockOrderService{submitFn: func(ctx context.Context, req service.SubmitOrderRequest) (*service.SubmitOrderResult, error) {
		return nil, &service.StockInsufficientError{ModifierID: "nutella", Name: "Nutella", Available: 1, Requested: 2}
	}}
	r := orderRouter(t, svc, &mockOrderStore{})
	body := map[string]any{"mode": "TAKEOUT", "items": []map[string]any{{"group_id": "crepe-sweet", "modifier_ids": []string{"nutella"}}}}

	rr := doRequest(t, r, "POST", "/orders", tokenFor(t, "CASHIER"), body)
	var resp struct {
		ModifierID string `json:"modifier_id"`
		Available  int    `json:"available"`
		Requested  int    `json:"requested"`
	}
	decode(t, rr, &resp)
	if resp.ModifierID != "nutella" || resp.Available != 1 || resp.Requested != 2 {
		t.Errorf("body = %+v", resp)
	}
}

// --- List / Get ---

func TestOrderHandler_List(t *testing.T) {
	var got database.ListOrdersParams
	store := &mockOrderStore{listOrdersFn: func(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error) {
		got = arg
		return []database.Order{sampleOrder(database.OrderStatusPAID)}, nil
	}}
	r := orderRouter(t, &mockOrderService{}, store)

	rr := doRequest(t, r, "GET", "/orders?limit=500&offset=10&status=PAID&start_date=2026-03-01&end_date=2026-03-01", tokenFor(t, "CASHIER"), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rr.Code, rr.Body)
	}
	if got.Limit != 100 || got.Offset != 10 {
		t.Errorf("paging = %d/%d", got.Limit, got.Offset)
	}
	if !got.Status.Valid || got.Status.OrderStatus != database.OrderStatusPAID {
		t.Errorf("status filter = %+v", got.Status)
	}
	if window := got.EndDate.Time.Sub(got.StartDate.Time); window != 24*time.Hour {
		t.Errorf("date window = %v, want 24h", window)
	}

	var resp struct {
		Orders []struct {
			Status string `json:"status"`
		} `json:"orders"`
		Limit int `json:"limit"`
	}
	decode(t, rr, &resp)
	if len(resp.Orders) != 1 || resp.Orders[0].Status != "paid" || resp.Limit != 100 {
		t.Errorf("response = %+v", resp)
	}
}

func TestOrderHandler_ListRejectsBadFilters(t *testing.T) {
	r := orderRouter(t, &mockOrderService{}, &mockOrderStore{})
	for _, q := range []string{"status=done", "start_date=yesterday", "end_date=03-01-2026"} {
		rr := doRequest(t, r, "GET", "/orders?"+q, tokenFor(t, "CASHIER"), nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", q, rr.Code)
		}
	}
}

func TestOrderHandler_Get(t *testing.T) {
	order := sampleOrder(database.OrderStatusPAID)
	order.PaymentMethod = database.NullPaymentMethod{PaymentMethod: database.PaymentMethodCASH, Valid: true}
	order.AmountReceived = testNumeric("100")
	order.ChangeAmount = testNumeric("40")
	store := &mockOrderStore{
		getOrderFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
			if id != order.ID {
				return database.Order{}, pgx.ErrNoRows
			}
			return order, nil
		},
		listItemsFn: func(ctx context.Context, orderID uuid.UUID) ([]database.OrderItem, error) {
			return []database.OrderItem{{
				ID:         uuid.New(),
				OrderID:    orderID,
				Kind:       database.ItemKindCUSTOM,
				Name:       "Sweet crepe",
				FinalPrice: testNumeric("60"),
				Details:    []byte(`{"rule_id":"rule-sweet"}`),
			}}, nil
		},
	}
	r := orderRouter(t, &mockOrderService{}, store)
	token := tokenFor(t, "CASHIER")

	rr := doRequest(t, r, "GET", "/orders/"+order.ID.String(), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rr.Code, rr.Body)
	}
	var resp struct {
		PaymentMethod *string `json:"payment_method"`
		ChangeAmount  *string `json:"change_amount"`
		Items         []struct {
			Details map[string]string `json:"details"`
		} `json:"items"`
	}
	decode(t, rr, &resp)
	if resp.PaymentMethod == nil || *resp.PaymentMethod != "CASH" || resp.ChangeAmount == nil || *resp.ChangeAmount != "40.00" {
		t.Errorf("payment = %+v", resp)
	}
	if len(resp.Items) != 1 || resp.Items[0].Details["rule_id"] != "rule-sweet" {
		t.Errorf("items = %+v", resp.Items)
	}

	if rr := doRequest(t, r, "GET", "/orders/"+uuid.NewString(), token, nil); rr.Code != http.StatusNotFound {
		t.Errorf("unknown order: status %d, want 404", rr.Code)
	}
	if rr := doRequest(t, r, "GET", "/orders/42", token, nil); rr.Code != http.StatusBadRequest {
		t.Errorf("bad id: status %d, want 400", rr.Code)
	}
}

// --- Settle / Cancel ---

func TestOrderHandler_Settle(t *testing.T) {
	var gotPayment service.PaymentDetails
	svc := &mockOrderService{settleFn: func(ctx context.Context, id uuid.UUID, p service.PaymentDetails) (database.Order, error) {
		gotPayment = p
		switch p.Method {
		case "CARD":
			o := sampleOrder(database.OrderStatusPAID)
			o.PaymentMethod = database.NullPaymentMethod{PaymentMethod: database.PaymentMethodCARD, Valid: true}
			return o, nil
		case "CASH":
			return database.Order{}, service.ErrOrderNotPending
		}
		return database.Order{}, fmt.Errorf("%w: unknown method", service.ErrInvalidPayment)
	}}
	r := orderRouter(t, svc, &mockOrderStore{})
	token := tokenFor(t, "CASHIER")
	path := "/orders/" + uuid.NewString() + "/settle"

	rr := doRequest(t, r, "POST", path, token, map[string]string{"method": "CARD", "reference": " 0042 "})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rr.Code, rr.Body)
	}
	if gotPayment.Reference != "0042" || !gotPayment.AmountReceived.IsZero() {
		t.Errorf("payment = %+v", gotPayment)
	}

	if rr := doRequest(t, r, "POST", path, token, map[string]string{"method": "CASH", "amount_received": "100"}); rr.Code != http.StatusConflict {
		t.Errorf("already paid: status %d, want 409", rr.Code)
	}
	if rr := doRequest(t, r, "POST", path, token, map[string]string{"method": "COUPON"}); rr.Code != http.StatusBadRequest {
		t.Errorf("bad method: status %d, want 400", rr.Code)
	}
}

func TestOrderHandler_Cancel(t *testing.T) {
	cancelled := uuid.New()
	svc := &mockOrderService{cancelFn: func(ctx context.Context, id uuid.UUID) (database.Order, error) {
		switch id {
		case cancelled:
			return database.Order{}, service.ErrOrderCancelled
		default:
			o := sampleOrder(database.OrderStatusCANCELLED)
			o.ID = id
			return o, nil
		}
	}}
	r := orderRouter(t, svc, &mockOrderStore{})
	token := tokenFor(t, "CASHIER")

	rr := doRequest(t, r, "DELETE", "/orders/"+uuid.NewString(), token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rr.Code, rr.Body)
	}
	var resp struct {
		Status      string `json:"status"`
		OrderNumber int64  `json:"order_number"`
	}
	decode(t, rr, &resp)
	if resp.Status != "cancelled" || resp.OrderNumber != 42 {
		t.Errorf("response = %+v", resp)
	}

	if rr := doRequest(t, r, "DELETE", "/orders/"+cancelled.String(), token, nil); rr.Code != http.StatusConflict {
		t.Errorf("already cancelled: status %d, want 409", rr.Code)
	}
}
