package service

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/creperia-pos/api/internal/database"
	"github.com/creperia-pos/api/internal/printer"
	"github.com/creperia-pos/api/internal/ticket"
	"github.com/google/uuid"
)

// OrderEvent is the payload of order.* events sent to kitchen displays.
type OrderEvent struct {
	ID           uuid.UUID        `json:"id"`
	OrderNumber  int64            `json:"order_number"`
	Mode         string           `json:"mode"`
	Status       string           `json:"status"`
	Total        string           `json:"total"`
	CashierName  string           `json:"cashier_name"`
	CustomerName string           `json:"customer_name,omitempty"`
	Items        []OrderEventItem `json:"items,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

type OrderEventItem struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Variant   string   `json:"variant,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// StockEvent is the payload of stock.adjusted events.
type StockEvent struct {
	ModifierID string     `json:"modifier_id"`
	Delta      int32      `json:"delta"`
	StockAfter int32      `json:"stock_after"`
	Reason     string     `json:"reason"`
	OrderID    *uuid.UUID `json:"order_id,omitempty"`
}

func decodeDetails(raw []byte) ticket.Details {
	var d ticket.Details
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &d)
	}
	return d
}

func modifierNames(d ticket.Details) []string {
	names := make([]string, len(d.Modifiers))
	for i, m := range d.Modifiers {
		names[i] = m.Name
	}
	return names
}

func newOrderEvent(o database.Order, items []database.OrderItem) OrderEvent {
	ev := OrderEvent{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		Mode:         o.Mode,
		Status:       string(o.Status),
		Total:        database.NumericToDecimal(o.Total).StringFixed(2),
		CashierName:  o.CashierName,
		CustomerName: o.CustomerName.String,
		CreatedAt:    o.CreatedAt,
	}
	for _, it := range items {
		d := decodeDetails(it.Details)
		ev.Items = append(ev.Items, OrderEventItem{
			Name:      it.Name,
			Kind:      string(it.Kind),
			Variant:   d.VariantName,
			Modifiers: modifierNames(d),
		})
	}
	return ev
}

func newStockEvent(mv database.StockMovement) StockEvent {
	ev := StockEvent{
		ModifierID: mv.ModifierID,
		Delta:      mv.Delta,
		StockAfter: mv.StockAfter,
		Reason:     mv.Reason,
	}
	if mv.OrderID.Valid {
		id := uuid.UUID(mv.OrderID.Bytes)
		ev.OrderID = &id
	}
	return ev
}

// NewReceipt builds the printable receipt of a committed order.
func NewReceipt(o database.Order, items []database.OrderItem) printer.Receipt {
	r := printer.Receipt{
		OrderID:      o.ID.String(),
		OrderNumber:  o.OrderNumber,
		Mode:         o.Mode,
		CashierName:  o.CashierName,
		CustomerName: o.CustomerName.String,
		Total:        database.NumericToDecimal(o.Total),
		CreatedAt:    o.CreatedAt,
	}
	if o.PaymentMethod.Valid {
		r.PaymentMethod = string(o.PaymentMethod.PaymentMethod)
		r.AmountReceived = database.NumericToNullDecimal(o.AmountReceived)
		r.Change = database.NumericToNullDecimal(o.ChangeAmount)
	}
	for _, it := range items {
		d := decodeDetails(it.Details)
		var parts []string
		if d.VariantName != "" {
			parts = append(parts, d.VariantName)
		}
		parts = append(parts, modifierNames(d)...)
		r.Lines = append(r.Lines, printer.Line{
			Name:   it.Name,
			Detail: strings.Join(parts, ", "),
			Price:  database.NumericToDecimal(it.FinalPrice),
		})
	}
	return r
}
