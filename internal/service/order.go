package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/creperia-pos/api/internal/database"
	"github.com/creperia-pos/api/internal/enum"
	"github.com/creperia-pos/api/internal/printer"
	"github.com/creperia-pos/api/internal/ticket"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const defaultPrintTimeout = 5 * time.Second

// Errors returned by the order service.
var (
	ErrEmptyTicket         = errors.New("ticket is empty")
	ErrStockInsufficient   = errors.New("insufficient stock")
	ErrTransactionConflict = errors.New("order could not be saved due to concurrent updates, try again")
	ErrPrintFailure        = errors.New("receipt could not be printed")
	ErrInvalidMode         = errors.New("mode is required")
	ErrMissingCashier      = errors.New("cashier name is required")
	ErrInvalidItem         = errors.New("invalid ticket item")
	ErrModifierNotFound    = errors.New("modifier not found")
	ErrInvalidPayment      = errors.New("invalid payment")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotPending     = errors.New("order is not pending")
	ErrOrderCancelled      = errors.New("order is already cancelled")
)

// StockInsufficientError names the ingredient that ran out.
type StockInsufficientError struct {
	ModifierID string
	Name       string
	Available  int
	Requested  int
}

func (e *StockInsufficientError) Error() string {
	return fmt.Sprintf("%s: only %d left, %d requested", e.Name, e.Available, e.Requested)
}

func (e *StockInsufficientError) Unwrap() error { return ErrStockInsufficient }

// StockStore defines the DB methods that read and write modifier stock.
type StockStore interface {
	GetModifierStock(ctx context.Context, id string) (database.GetModifierStockRow, error)
	SetModifierStock(ctx context.Context, arg database.SetModifierStockParams) (int32, error)
	CreateStockMovement(ctx context.Context, arg database.CreateStockMovementParams) (database.StockMovement, error)
}

// OrderStore defines the DB methods needed to commit and settle orders.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	StockStore
	GetOrderCounter(ctx context.Context) (int64, error)
	InsertOrderCounter(ctx context.Context, value int64) (int64, error)
	AdvanceOrderCounter(ctx context.Context, arg database.AdvanceOrderCounterParams) (int64, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	SettleOrder(ctx context.Context, arg database.SettleOrderParams) (database.Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// EventPublisher fans committed changes out to connected displays.
type EventPublisher interface {
	Publish(topic, eventType string, payload any)
}

// Options tunes the order and stock services.
type Options struct {
	// StartingCounter is the counter value assumed when no order was ever
	// committed; the first order gets StartingCounter+1.
	StartingCounter int64
	// StockPolicy is enum.StockPolicyBlock (default) or enum.StockPolicyAllow.
	StockPolicy  string
	MaxRetries   int
	Printer      printer.Printer
	PrintTimeout time.Duration
	Events       EventPublisher
	// OnStockChange runs after a commit that changed stock.
	OnStockChange func()
}

// PaymentDetails settles an order. AmountReceived may be zero for non-cash
// methods, meaning exactly the total.
type PaymentDetails struct {
	Method         string
	AmountReceived decimal.Decimal
	Reference      string
}

// SubmitOrderRequest is the input for committing a ticket.
type SubmitOrderRequest struct {
	Items        []ticket.Item
	Mode         string
	CashierID    uuid.UUID
	CashierName  string
	CustomerName string
	Payment      *PaymentDetails
}

// SubmitOrderResult is the committed order. PrintErr is set, wrapping
// ErrPrintFailure, when the receipt could not be dispatched; the order is
// committed either way.
type SubmitOrderResult struct {
	Order     database.Order
	Items     []database.OrderItem
	Movements []database.StockMovement
	PrintErr  error
}

// OrderService commits tickets as numbered orders.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
	opts     Options
	now      func() time.Time
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore, opts Options) *OrderService {
	if opts.StockPolicy == "" {
		opts.StockPolicy = enum.StockPolicyBlock
	}
	if opts.PrintTimeout <= 0 {
		opts.PrintTimeout = defaultPrintTimeout
	}
	return &OrderService{pool: pool, newStore: newStore, opts: opts, now: time.Now}
}

type payment struct {
	method    database.PaymentMethod
	received  decimal.Decimal
	change    decimal.Decimal
	reference string
}

func resolvePayment(p PaymentDetails, total decimal.Decimal) (payment, error) {
	method := database.PaymentMethod(strings.ToUpper(p.Method))
	switch method {
	case database.PaymentMethodCASH, database.PaymentMethodCARD, database.PaymentMethodTRANSFER:
	default:
		return payment{}, fmt.Errorf("%w: unknown method %q", ErrInvalidPayment, p.Method)
	}
	received := p.AmountReceived
	if received.IsNegative() {
		return payment{}, fmt.Errorf("%w: negative amount", ErrInvalidPayment)
	}
	if received.IsZero() && method != database.PaymentMethodCASH {
		received = total
	}
	if received.LessThan(total) {
		return payment{}, fmt.Errorf("%w: received %s, total %s", ErrInvalidPayment, received.StringFixed(2), total.StringFixed(2))
	}
	if method != database.PaymentMethodCASH && !received.Equal(total) {
		return payment{}, fmt.Errorf("%w: %s amount must equal the total", ErrInvalidPayment, method)
	}
	return payment{
		method:    method,
		received:  received,
		change:    received.Sub(total),
		reference: p.Reference,
	}, nil
}

func validateItems(items []ticket.Item) error {
	for i, it := range items {
		if it.Name == "" || !it.Kind.Valid() {
			return fmt.Errorf("item[%d]: %w", i, ErrInvalidItem)
		}
		if it.FinalPrice.IsNegative() {
			return fmt.Errorf("item[%d]: %w: negative price", i, ErrInvalidItem)
		}
	}
	return nil
}

// SubmitOrder commits a ticket: it allocates the next order number, deducts
// stock for every stock-tracked modifier and stores the order, all in one
// transaction that is retried on contention. The receipt is printed after
// the commit.
func (s *OrderService) SubmitOrder(ctx context.Context, req SubmitOrderRequest) (*SubmitOrderResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyTicket
	}
	if strings.TrimSpace(req.Mode) == "" {
		return nil, ErrInvalidMode
	}
	if strings.TrimSpace(req.CashierName) == "" {
		return nil, ErrMissingCashier
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	total := ticket.Total(req.Items)
	var pay *payment
	if req.Payment != nil {
		p, err := resolvePayment(*req.Payment, total)
		if err != nil {
			return nil, err
		}
		pay = &p
	}

	var result *SubmitOrderResult
	err := runInTx(ctx, s.pool, s.opts.MaxRetries, func(tx pgx.Tx) error {
		res, err := s.submitOrderTx(ctx, s.newStore(tx), req, total, pay)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, result)
	return result, nil
}

type stockWrite struct {
	modifierID string
	delta      int32
	after      int32
}

func (s *OrderService) submitOrderTx(ctx context.Context, store OrderStore, req SubmitOrderRequest, total decimal.Decimal, pay *payment) (*SubmitOrderResult, error) {
	orderNumber, err := allocateOrderNumber(ctx, store, s.opts.StartingCounter)
	if err != nil {
		return nil, err
	}

	// Fixed id order so concurrent orders lock modifier rows the same way.
	deductions := ticket.Deductions(req.Items)
	ids := make([]string, 0, len(deductions))
	for id := range deductions {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var writes []stockWrite
	for _, id := range ids {
		qty := deductions[id]
		w, err := s.deductStock(ctx, store, id, qty)
		if err != nil {
			return nil, err
		}
		if w != nil {
			writes = append(writes, *w)
		}
	}

	params := database.CreateOrderParams{
		ID:          uuid.New(),
		OrderNumber: orderNumber,
		Mode:        strings.TrimSpace(req.Mode),
		Status:      database.OrderStatusPENDING,
		Total:       database.DecimalToNumeric(total),
		CashierName: req.CashierName,
		CreatedBy:   req.CashierID,
	}
	if req.CustomerName != "" {
		params.CustomerName = pgtype.Text{String: req.CustomerName, Valid: true}
	}
	if pay != nil {
		params.Status = database.OrderStatusPAID
		params.PaymentMethod = database.NullPaymentMethod{PaymentMethod: pay.method, Valid: true}
		params.AmountReceived = database.DecimalToNumeric(pay.received)
		params.ChangeAmount = database.DecimalToNumeric(pay.change)
		if pay.reference != "" {
			params.PaymentReference = pgtype.Text{String: pay.reference, Valid: true}
		}
		params.PaidAt = pgtype.Timestamptz{Time: s.now(), Valid: true}
	}

	order, err := store.CreateOrder(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]database.OrderItem, 0, len(req.Items))
	for i, it := range req.Items {
		details, err := json.Marshal(it.Details)
		if err != nil {
			return nil, fmt.Errorf("item[%d]: encode details: %w", i, err)
		}
		row, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			ID:         uuid.New(),
			OrderID:    order.ID,
			Position:   int32(i),
			Kind:       database.ItemKind(it.Kind),
			Name:       it.Name,
			FinalPrice: database.DecimalToNumeric(it.FinalPrice),
			FinalCost:  database.NullDecimalToNumeric(it.FinalCost),
			Details:    details,
		})
		if err != nil {
			return nil, fmt.Errorf("item[%d]: create order item: %w", i, err)
		}
		items = append(items, row)
	}

	movements := make([]database.StockMovement, 0, len(writes))
	for _, w := range writes {
		mv, err := store.CreateStockMovement(ctx, database.CreateStockMovementParams{
			ModifierID: w.modifierID,
			Delta:      w.delta,
			StockAfter: w.after,
			Reason:     enum.StockReasonOrder,
			OrderID:    pgtype.UUID{Bytes: order.ID, Valid: true},
		})
		if err != nil {
			return nil, fmt.Errorf("record stock movement %s: %w", w.modifierID, err)
		}
		movements = append(movements, mv)
	}

	return &SubmitOrderResult{Order: order, Items: items, Movements: movements}, nil
}

// allocateOrderNumber advances the global counter by one with a
// compare-and-swap. A missing counter row starts from start.
func allocateOrderNumber(ctx context.Context, store OrderStore, start int64) (int64, error) {
	current, err := store.GetOrderCounter(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		next := start + 1
		if _, err := store.InsertOrderCounter(ctx, next); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, errWriteConflict
			}
			return 0, fmt.Errorf("create order counter: %w", err)
		}
		return next, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read order counter: %w", err)
	}

	next := current + 1
	if _, err := store.AdvanceOrderCounter(ctx, database.AdvanceOrderCounterParams{Expected: current, Next: next}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errWriteConflict
		}
		return 0, fmt.Errorf("advance order counter: %w", err)
	}
	return next, nil
}

// deductStock removes qty units of a modifier. Untracked modifiers return a
// nil write.
func (s *OrderService) deductStock(ctx context.Context, store StockStore, id string, qty int) (*stockWrite, error) {
	row, err := store.GetModifierStock(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrModifierNotFound, id)
		}
		return nil, fmt.Errorf("read stock %s: %w", id, err)
	}
	if !row.TrackStock {
		return nil, nil
	}

	current := row.CurrentStock.Int32
	next := current - int32(qty)
	if next < 0 {
		if s.opts.StockPolicy != enum.StockPolicyAllow {
			return nil, &StockInsufficientError{
				ModifierID: id,
				Name:       row.Name,
				Available:  int(current),
				Requested:  qty,
			}
		}
		log.Printf("WARN: %s stock goes negative (%d -> %d)", row.Name, current, next)
	}

	if _, err := store.SetModifierStock(ctx, database.SetModifierStockParams{
		ID:       id,
		Expected: current,
		NewStock: next,
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errWriteConflict
		}
		return nil, fmt.Errorf("update stock %s: %w", id, err)
	}
	return &stockWrite{modifierID: id, delta: -int32(qty), after: next}, nil
}

func (s *OrderService) afterCommit(ctx context.Context, res *SubmitOrderResult) {
	if s.opts.Events != nil {
		s.opts.Events.Publish(enum.TopicOrders, enum.EventOrderCreated, newOrderEvent(res.Order, res.Items))
		for _, mv := range res.Movements {
			s.opts.Events.Publish(enum.TopicStock, enum.EventStockAdjusted, newStockEvent(mv))
		}
	}
	if len(res.Movements) > 0 && s.opts.OnStockChange != nil {
		s.opts.OnStockChange()
	}

	if s.opts.Printer == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.PrintTimeout)
	defer cancel()
	if err := s.opts.Printer.PrintReceipt(pctx, NewReceipt(res.Order, res.Items)); err != nil {
		log.Printf("WARN: print receipt for order #%d: %v", res.Order.OrderNumber, err)
		res.PrintErr = fmt.Errorf("%w: %w", ErrPrintFailure, err)
	}
}

// SettleOrder records payment for a pending order.
func (s *OrderService) SettleOrder(ctx context.Context, orderID uuid.UUID, p PaymentDetails) (database.Order, error) {
	var settled database.Order
	err := runInTx(ctx, s.pool, s.opts.MaxRetries, func(tx pgx.Tx) error {
		store := s.newStore(tx)
		order, err := store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}
		if order.Status != database.OrderStatusPENDING {
			return ErrOrderNotPending
		}

		pay, err := resolvePayment(p, database.NumericToDecimal(order.Total))
		if err != nil {
			return err
		}
		params := database.SettleOrderParams{
			ID:             orderID,
			PaymentMethod:  pay.method,
			AmountReceived: database.DecimalToNumeric(pay.received),
			ChangeAmount:   database.DecimalToNumeric(pay.change),
		}
		if pay.reference != "" {
			params.PaymentReference = pgtype.Text{String: pay.reference, Valid: true}
		}
		settled, err = store.SettleOrder(ctx, params)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotPending
			}
			return fmt.Errorf("settle order: %w", err)
		}
		return nil
	})
	if err != nil {
		return database.Order{}, err
	}

	if s.opts.Events != nil {
		s.opts.Events.Publish(enum.TopicOrders, enum.EventOrderPaid, newOrderEvent(settled, nil))
	}
	return settled, nil
}

// CancelOrder voids an order. Its number stays allocated and stock is not
// returned.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uuid.UUID) (database.Order, error) {
	var cancelled database.Order
	err := runInTx(ctx, s.pool, s.opts.MaxRetries, func(tx pgx.Tx) error {
		store := s.newStore(tx)
		order, err := store.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}
		if order.Status == database.OrderStatusCANCELLED {
			return ErrOrderCancelled
		}
		cancelled, err = store.CancelOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOrderCancelled
			}
			return fmt.Errorf("cancel order: %w", err)
		}
		return nil
	})
	if err != nil {
		return database.Order{}, err
	}

	if s.opts.Events != nil {
		s.opts.Events.Publish(enum.TopicOrders, enum.EventOrderCancelled, newOrderEvent(cancelled, nil))
	}
	return cancelled, nil
}
