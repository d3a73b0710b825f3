// Package printer dispatches receipts for committed orders. Dispatch is
// best effort: callers report failures but never undo the order.
package printer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Printer sends a receipt somewhere a printer or a person can pick it up.
type Printer interface {
	PrintReceipt(ctx context.Context, r Receipt) error
}

type Line struct {
	Name   string          `json:"name"`
	Detail string          `json:"detail,omitempty"`
	Price  decimal.Decimal `json:"price"`
}

type Receipt struct {
	OrderID        string              `json:"order_id"`
	OrderNumber    int64               `json:"order_number"`
	Mode           string              `json:"mode"`
	CashierName    string              `json:"cashier_name"`
	CustomerName   string              `json:"customer_name,omitempty"`
	Lines          []Line              `json:"lines"`
	Total          decimal.Decimal     `json:"total"`
	PaymentMethod  string              `json:"payment_method,omitempty"`
	AmountReceived decimal.NullDecimal `json:"amount_received"`
	Change         decimal.NullDecimal `json:"change"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Text renders the receipt as plain text.
func (r Receipt) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d (%s)\n", r.OrderNumber, r.Mode)
	fmt.Fprintf(&b, "%s\n", r.CreatedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Cashier: %s\n", r.CashierName)
	if r.CustomerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", r.CustomerName)
	}
	b.WriteString("\n")
	for _, l := range r.Lines {
		fmt.Fprintf(&b, "%s  %s\n", l.Name, l.Price.StringFixed(2))
		if l.Detail != "" {
			fmt.Fprintf(&b, "  %s\n", l.Detail)
		}
	}
	fmt.Fprintf(&b, "\nTotal: %s\n", r.Total.StringFixed(2))
	if r.PaymentMethod != "" {
		fmt.Fprintf(&b, "Paid: %s", r.PaymentMethod)
		if r.AmountReceived.Valid {
			fmt.Fprintf(&b, " %s", r.AmountReceived.Decimal.StringFixed(2))
		}
		b.WriteString("\n")
		if r.Change.Valid && r.Change.Decimal.IsPositive() {
			fmt.Fprintf(&b, "Change: %s\n", r.Change.Decimal.StringFixed(2))
		}
	}
	return b.String()
}

// Multi sends the receipt to every printer and joins their errors.
type Multi []Printer

func (m Multi) PrintReceipt(ctx context.Context, r Receipt) error {
	var errs []error
	for _, p := range m {
		if err := p.PrintReceipt(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogPrinter writes receipts to the process log. Used when no printer
// transport is configured.
type LogPrinter struct{}

func (LogPrinter) PrintReceipt(ctx context.Context, r Receipt) error {
	log.Printf("receipt for order #%d: %d lines, total %s", r.OrderNumber, len(r.Lines), r.Total.StringFixed(2))
	return nil
}
