package database

import "context"

const getOrderCounter = `-- name: GetOrderCounter :one
SELECT value FROM order_counter WHERE id = 1
`

func (q *Queries) GetOrderCounter(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, getOrderCounter)
	var value int64
	err := row.Scan(&value)
	return value, err
}

const insertOrderCounter = `-- name: InsertOrderCounter :one
INSERT INTO order_counter (id, value) VALUES (1, $1)
ON CONFLICT (id) DO NOTHING
RETURNING value
`

// InsertOrderCounter creates the counter row. Returns pgx.ErrNoRows when a
// concurrent transaction created it first.
func (q *Queries) InsertOrderCounter(ctx context.Context, value int64) (int64, error) {
	row := q.db.QueryRow(ctx, insertOrderCounter, value)
	err := row.Scan(&value)
	return value, err
}

const advanceOrderCounter = `-- name: AdvanceOrderCounter :one
UPDATE order_counter SET value = $2
WHERE id = 1 AND value = $1
RETURNING value
`

type AdvanceOrderCounterParams struct {
	Expected int64
	Next     int64
}

// AdvanceOrderCounter is a compare-and-swap: it returns pgx.ErrNoRows when the
// stored value is no longer Expected.
func (q *Queries) AdvanceOrderCounter(ctx context.Context, arg AdvanceOrderCounterParams) (int64, error) {
	row := q.db.QueryRow(ctx, advanceOrderCounter, arg.Expected, arg.Next)
	var value int64
	err := row.Scan(&value)
	return value, err
}
