package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, mode, status, total, cashier_name, customer_name,
       payment_method, amount_received, change_amount, payment_reference,
       created_by, created_at, paid_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderNumber,
		&i.Mode,
		&i.Status,
		&i.Total,
		&i.CashierName,
		&i.CustomerName,
		&i.PaymentMethod,
		&i.AmountReceived,
		&i.ChangeAmount,
		&i.PaymentReference,
		&i.CreatedBy,
		&i.CreatedAt,
		&i.PaidAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (id, order_number, mode, status, total, cashier_name, customer_name,
                    payment_method, amount_received, change_amount, payment_reference,
                    created_by, paid_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	ID               uuid.UUID
	OrderNumber      int64
	Mode             string
	Status           OrderStatus
	Total            pgtype.Numeric
	CashierName      string
	CustomerName     pgtype.Text
	PaymentMethod    NullPaymentMethod
	AmountReceived   pgtype.Numeric
	ChangeAmount     pgtype.Numeric
	PaymentReference pgtype.Text
	CreatedBy        uuid.UUID
	PaidAt           pgtype.Timestamptz
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.ID,
		arg.OrderNumber,
		arg.Mode,
		arg.Status,
		arg.Total,
		arg.CashierName,
		arg.CustomerName,
		arg.PaymentMethod,
		arg.AmountReceived,
		arg.ChangeAmount,
		arg.PaymentReference,
		arg.CreatedBy,
		arg.PaidAt,
	)
	return scanOrder(row)
}

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (id, order_id, position, kind, name, final_price, final_cost, details)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, order_id, position, kind, name, final_price, final_cost, details
`

type CreateOrderItemParams struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	Position   int32
	Kind       ItemKind
	Name       string
	FinalPrice pgtype.Numeric
	FinalCost  pgtype.Numeric
	Details    []byte
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.ID,
		arg.OrderID,
		arg.Position,
		arg.Kind,
		arg.Name,
		arg.FinalPrice,
		arg.FinalCost,
		arg.Details,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.Position,
		&i.Kind,
		&i.Name,
		&i.FinalPrice,
		&i.FinalCost,
		&i.Details,
	)
	return i, err
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	return scanOrder(row)
}

const getOrderForUpdate = `-- name: GetOrderForUpdate :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
FOR NO KEY UPDATE
`

func (q *Queries) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrderForUpdate, id)
	return scanOrder(row)
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + `
FROM orders
WHERE ($3::order_status IS NULL OR status = $3)
  AND ($4::timestamptz IS NULL OR created_at >= $4)
  AND ($5::timestamptz IS NULL OR created_at < $5)
ORDER BY order_number DESC
LIMIT $1 OFFSET $2
`

type NullOrderStatus struct {
	OrderStatus OrderStatus
	Valid       bool
}

type ListOrdersParams struct {
	Limit     int32
	Offset    int32
	Status    NullOrderStatus
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	var status interface{}
	if arg.Status.Valid {
		status = string(arg.Status.OrderStatus)
	}
	rows, err := q.db.Query(ctx, listOrders,
		arg.Limit,
		arg.Offset,
		status,
		arg.StartDate,
		arg.EndDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listOrderItemsByOrder = `-- name: ListOrderItemsByOrder :many
SELECT id, order_id, position, kind, name, final_price, final_cost, details
FROM order_items
WHERE order_id = $1
ORDER BY position
`

func (q *Queries) ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByOrder, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderID,
			&i.Position,
			&i.Kind,
			&i.Name,
			&i.FinalPrice,
			&i.FinalCost,
			&i.Details,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const settleOrder = `-- name: SettleOrder :one
UPDATE orders
SET status = 'paid', payment_method = $2, amount_received = $3, change_amount = $4,
    payment_reference = $5, paid_at = now(), updated_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING ` + orderColumns

type SettleOrderParams struct {
	ID               uuid.UUID
	PaymentMethod    PaymentMethod
	AmountReceived   pgtype.Numeric
	ChangeAmount     pgtype.Numeric
	PaymentReference pgtype.Text
}

func (q *Queries) SettleOrder(ctx context.Context, arg SettleOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, settleOrder,
		arg.ID,
		arg.PaymentMethod,
		arg.AmountReceived,
		arg.ChangeAmount,
		arg.PaymentReference,
	)
	return scanOrder(row)
}

const cancelOrder = `-- name: CancelOrder :one
UPDATE orders
SET status = 'cancelled', updated_at = now()
WHERE id = $1 AND status <> 'cancelled'
RETURNING ` + orderColumns

func (q *Queries) CancelOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, cancelOrder, id)
	return scanOrder(row)
}
