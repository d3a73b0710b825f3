package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/creperia-pos/api/internal/database"
	"github.com/creperia-pos/api/internal/enum"
	"github.com/jackc/pgx/v5"
)

var (
	ErrStockNotTracked   = errors.New("modifier does not track stock")
	ErrInvalidStockDelta = errors.New("invalid stock delta")
)

// NewStockStore creates a StockStore from a DBTX (pool or tx).
type NewStockStore func(db database.DBTX) StockStore

// StockService applies manual stock corrections.
type StockService struct {
	pool     TxBeginner
	newStore NewStockStore
	opts     Options
}

func NewStockService(pool TxBeginner, newStore NewStockStore, opts Options) *StockService {
	if opts.StockPolicy == "" {
		opts.StockPolicy = enum.StockPolicyBlock
	}
	return &StockService{pool: pool, newStore: newStore, opts: opts}
}

// AdjustStock adds delta (negative to remove) to a stock-tracked modifier
// and returns the new stock. Removing more than is on hand fails with
// ErrStockInsufficient unless the backorder policy is active.
func (s *StockService) AdjustStock(ctx context.Context, modifierID string, delta int) (int, error) {
	if delta == 0 {
		return 0, fmt.Errorf("%w: must not be zero", ErrInvalidStockDelta)
	}
	if delta < math.MinInt32 || delta > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d out of range", ErrInvalidStockDelta, delta)
	}

	var mv database.StockMovement
	err := runInTx(ctx, s.pool, s.opts.MaxRetries, func(tx pgx.Tx) error {
		store := s.newStore(tx)
		row, err := store.GetModifierStock(ctx, modifierID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrModifierNotFound, modifierID)
			}
			return fmt.Errorf("read stock: %w", err)
		}
		if !row.TrackStock {
			return fmt.Errorf("%w: %s", ErrStockNotTracked, modifierID)
		}

		current := row.CurrentStock.Int32
		sum := int64(current) + int64(delta)
		if sum < math.MinInt32 || sum > math.MaxInt32 {
			return fmt.Errorf("%w: %s stock %d%+d out of range", ErrInvalidStockDelta, modifierID, current, delta)
		}
		next := int32(sum)
		if next < 0 && delta < 0 {
			if s.opts.StockPolicy != enum.StockPolicyAllow {
				return &StockInsufficientError{
					ModifierID: modifierID,
					Name:       row.Name,
					Available:  int(current),
					Requested:  -delta,
				}
			}
			log.Printf("WARN: %s stock adjusted below zero (%d -> %d)", row.Name, current, next)
		}

		if _, err := store.SetModifierStock(ctx, database.SetModifierStockParams{
			ID:       modifierID,
			Expected: current,
			NewStock: next,
		}); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errWriteConflict
			}
			return fmt.Errorf("update stock: %w", err)
		}

		mv, err = store.CreateStockMovement(ctx, database.CreateStockMovementParams{
			ModifierID: modifierID,
			Delta:      int32(delta),
			StockAfter: next,
			Reason:     enum.StockReasonAdjustment,
		})
		if err != nil {
			return fmt.Errorf("record stock movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.opts.Events != nil {
		s.opts.Events.Publish(enum.TopicStock, enum.EventStockAdjusted, newStockEvent(mv))
	}
	if s.opts.OnStockChange != nil {
		s.opts.OnStockChange()
	}
	return int(mv.StockAfter), nil
}
