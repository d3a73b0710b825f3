package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getModifierStock = `-- name: GetModifierStock :one
SELECT id, name, track_stock, current_stock
FROM modifiers
WHERE id = $1
`

type GetModifierStockRow struct {
	ID           string
	Name         string
	TrackStock   bool
	CurrentStock pgtype.Int4
}

func (q *Queries) GetModifierStock(ctx context.Context, id string) (GetModifierStockRow, error) {
	row := q.db.QueryRow(ctx, getModifierStock, id)
	var i GetModifierStockRow
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.TrackStock,
		&i.CurrentStock,
	)
	return i, err
}

const setModifierStock = `-- name: SetModifierStock :one
UPDATE modifiers
SET current_stock = $3, updated_at = now()
WHERE id = $1 AND track_stock = true AND COALESCE(current_stock, 0) = $2
RETURNING current_stock
`

type SetModifierStockParams struct {
	ID       string
	Expected int32
	NewStock int32
}

// SetModifierStock is a compare-and-swap on current_stock: it returns
// pgx.ErrNoRows when another writer changed the stock since it was read.
func (q *Queries) SetModifierStock(ctx context.Context, arg SetModifierStockParams) (int32, error) {
	row := q.db.QueryRow(ctx, setModifierStock, arg.ID, arg.Expected, arg.NewStock)
	var currentStock int32
	err := row.Scan(&currentStock)
	return currentStock, err
}

const createStockMovement = `-- name: CreateStockMovement :one
INSERT INTO stock_movements (modifier_id, delta, stock_after, reason, order_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, modifier_id, delta, stock_after, reason, order_id, created_at
`

type CreateStockMovementParams struct {
	ModifierID string
	Delta      int32
	StockAfter int32
	Reason     string
	OrderID    pgtype.UUID
}

func (q *Queries) CreateStockMovement(ctx context.Context, arg CreateStockMovementParams) (StockMovement, error) {
	row := q.db.QueryRow(ctx, createStockMovement,
		arg.ModifierID,
		arg.Delta,
		arg.StockAfter,
		arg.Reason,
		arg.OrderID,
	)
	var i StockMovement
	err := row.Scan(
		&i.ID,
		&i.ModifierID,
		&i.Delta,
		&i.StockAfter,
		&i.Reason,
		&i.OrderID,
		&i.CreatedAt,
	)
	return i, err
}
