package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/creperia-pos/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// memDB is an in-memory stand-in for PostgreSQL that keeps the properties
// the services rely on: compare-and-swap updates fail with pgx.ErrNoRows
// when the committed value moved, and a commit whose reads went stale fails
// with a serialization error. Writes stay invisible to other transactions
// until commit.
type memDB struct {
	mu        sync.Mutex
	counter   *int64
	modifiers map[string]*memModifier
	orders    []database.Order
	items     []database.OrderItem
	movements []database.StockMovement

	begins  int
	commits int

	// test hooks
	onAdvance      func(db *memDB) // runs with mu held, before the CAS check
	failCommits    int
	createOrderErr error
}

type memModifier struct {
	name  string
	track bool
	stock int32
}

func newMemDB() *memDB {
	return &memDB{modifiers: make(map[string]*memModifier)}
}

func (db *memDB) withCounter(v int64) *memDB {
	db.counter = &v
	return db
}

func (db *memDB) withModifier(id, name string, track bool, stock int32) *memDB {
	db.modifiers[id] = &memModifier{name: name, track: track, stock: stock}
	return db
}

func (db *memDB) counterValue() (int64, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.counter == nil {
		return 0, false
	}
	return *db.counter, true
}

func (db *memDB) stockOf(id string) int32 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.modifiers[id].stock
}

func (db *memDB) committedOrders() []database.Order {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]database.Order(nil), db.orders...)
}

func (db *memDB) committedMovements() []database.StockMovement {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]database.StockMovement(nil), db.movements...)
}

func (db *memDB) beginCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.begins
}

func (db *memDB) Begin(ctx context.Context) (pgx.Tx, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.begins++
	return &memTx{db: db, stock: make(map[string]stockCAS)}, nil
}

func (db *memDB) newOrderStore(d database.DBTX) OrderStore {
	return &memStore{tx: d.(*memTx)}
}

func (db *memDB) newStockStore(d database.DBTX) StockStore {
	return &memStore{tx: d.(*memTx)}
}

type stockCAS struct {
	expected, next int32
}

type memTx struct {
	db   *memDB
	done bool

	counterSet      bool
	counterInsert   bool
	counterExpected int64
	counterNext     int64

	stock     map[string]stockCAS
	orders    []database.Order
	items     []database.OrderItem
	movements []database.StockMovement
}

func (tx *memTx) Commit(ctx context.Context) error {
	db := tx.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if tx.done {
		return pgx.ErrTxClosed
	}
	tx.done = true

	if db.failCommits > 0 {
		db.failCommits--
		return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	}
	if tx.counterSet {
		stale := db.counter != nil && (tx.counterInsert || *db.counter != tx.counterExpected)
		if stale || (db.counter == nil && !tx.counterInsert) {
			return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
		}
	}
	for id, c := range tx.stock {
		if db.modifiers[id].stock != c.expected {
			return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
		}
	}
	for _, o := range tx.orders {
		for _, existing := range db.orders {
			if existing.OrderNumber == o.OrderNumber {
				return &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key"}
			}
		}
	}

	if tx.counterSet {
		v := tx.counterNext
		db.counter = &v
	}
	for id, c := range tx.stock {
		db.modifiers[id].stock = c.next
	}
	db.orders = append(db.orders, tx.orders...)
	db.items = append(db.items, tx.items...)
	db.movements = append(db.movements, tx.movements...)
	db.commits++
	return nil
}

func (tx *memTx) Rollback(ctx context.Context) error {
	tx.done = true
	return nil
}

func (tx *memTx) Begin(ctx context.Context) (pgx.Tx, error) { panic("not implemented") }
func (tx *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (tx *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (tx *memTx) LargeObjects() pgx.LargeObjects { panic("not implemented") }
func (tx *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (tx *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	panic("not implemented")
}
func (tx *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (tx *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	panic("not implemented")
}
func (tx *memTx) Conn() *pgx.Conn { panic("not implemented") }

// memStore implements OrderStore on top of a memTx.
type memStore struct {
	tx *memTx
}

func (s *memStore) GetOrderCounter(ctx context.Context) (int64, error) {
	db := s.tx.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if s.tx.counterSet {
		return s.tx.counterNext, nil
	}
	if db.counter == nil {
		return 0, pgx.ErrNoRows
	}
	return *db.counter, nil
}

func (s *memStore) InsertOrderCounter(ctx context.Context, value int64) (int64, error) {
	db := s.tx.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.counter != nil {
		return 0, pgx.ErrNoRows
	}
	s.tx.counterSet, s.tx.counterInsert, s.tx.counterNext = true, true, value
	return value, nil
}

func (s *memStore) AdvanceOrderCounter(ctx context.Context, arg database.AdvanceOrderCounterParams) (int64, error) {
	db := s.tx.db
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.onAdvance != nil {
		db.onAdvance(db)
	}
	if db.counter == nil || *db.counter != arg.Expected {
		return 0, pgx.ErrNoRows
	}
	s.tx.counterSet, s.tx.counterExpected, s.tx.counterNext = true, arg.Expected, arg.Next
	return arg.Next, nil
}

func (s *memStore) GetModifierStock(ctx context.Context, id string) (database.GetModifierStockRow, error) {
	db := s.tx.db
	db.mu.Lock()
	defer db.mu.Unlock()
	m, ok := db.modifiers[id]
	if !ok {
		return database.GetModifierStockRow{}, pgx.ErrNoRows
	}
	stock := m.stock
	if c, ok := s.tx.stock[id]; ok {
		stock = c.next
	}
	return database.GetModifierStockRow{
		ID:           id,
		Name:         m.name,
		TrackStock:   m.track,
		CurrentStock: pgtype.Int4{Int32: stock, Valid: m.track},
	}, nil
}

func (s *memStore) SetModifierStock(ctx context.Context, arg database.SetModifierStockParams) (int32, error) {
	db := s.tx.db
	db.mu.Lock()
	defer db.mu.Unlock()
	m, ok := db.modifiers[arg.ID]
	if !ok || !m.track || m.stock != arg.Expected {
		return 0, pgx.ErrNoRows
	}
	s.tx.stock[arg.ID] = stockCAS{expected: arg.Expected, next: arg.NewStock}
	return arg.NewStock, nil
}

func (s *memStore) CreateStockMovement(ctx context.Context, arg database.CreateStockMovementParams) (database.StockMovement, error) {
	mv := database.StockMovement{
		ID:         uuid.New(),
		ModifierID: arg.ModifierID,
		Delta:      arg.Delta,
		StockAfter: arg.StockAfter,
		Reason:     arg.Reason,
		OrderID:    arg.OrderID,
		CreatedAt:  time.Now(),
	}
	s.tx.movements = append(s.tx.movements, mv)
	return mv, nil
}

func (s *memStore) CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if err := s.tx.db.createOrderErr; err != nil {
		return database.Order{}, err
	}
	now := time.Now()
	o := database.Order{
		ID:               arg.ID,
		OrderNumber:      arg.OrderNumber,
		Mode:             arg.Mode,
		Status:           arg.Status,
		Total:            arg.Total,
		CashierName:      arg.CashierName,
		CustomerName:     arg.CustomerName,
		PaymentMethod:    arg.PaymentMethod,
		AmountReceived:   arg.AmountReceived,
		ChangeAmount:     arg.ChangeAmount,
		PaymentReference: arg.PaymentReference,
		CreatedBy:        arg.CreatedBy,
		CreatedAt:        now,
		PaidAt:           arg.PaidAt,
		UpdatedAt:        now,
	}
	s.tx.orders = append(s.tx.orders, o)
	return o, nil
}

func (s *memStore) CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error) {
	it := database.OrderItem{
		ID:         arg.ID,
		OrderID:    arg.OrderID,
		Position:   arg.Position,
		Kind:       arg.Kind,
		Name:       arg.Name,
		FinalPrice: arg.FinalPrice,
		FinalCost:  arg.FinalCost,
		Details:    arg.Details,
	}
	s.tx.items = append(s.tx.items, it)
	return it, nil
}

func (s *memStore) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error) {
	panic(fmt.Sprintf("memStore.GetOrderForUpdate(%s) not implemented", id))
}

func (s *memStore) SettleOrder(ctx context.Context, arg database.SettleOrderParams) (database.Order, error) {
	panic("not implemented")
}

func (s *memStore) CancelOrder(ctx context.Context, id uuid.UUID) (database.Order, error) {
	panic("not implemented")
}
