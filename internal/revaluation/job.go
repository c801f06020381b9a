package revaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inwista-wallet-go/internal/events"
	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	hundred     = decimal.NewFromInt(100)
	daysPerYear = decimal.NewFromInt(365)
)

// Job marks every active position to its product's expected return using
// simple interest over whole days held.
type Job struct {
	store     store.LedgerStore
	publisher events.Publisher
	now       func() time.Time
}

func NewJob(ledger store.LedgerStore, publisher events.Publisher) *Job {
	if publisher == nil {
		publisher = &events.EventProducerFallback{}
	}
	return &Job{store: ledger, publisher: publisher, now: time.Now}
}

// Valuation is the marked value of a position.
type Valuation struct {
	CurrentValue     decimal.Decimal
	ReturnAmount     decimal.Decimal
	ReturnPercentage decimal.Decimal
}

// Value computes amount × (1 + annualReturn/100 × days/365).
func Value(amount, annualReturn decimal.Decimal, held time.Duration) Valuation {
	days := decimal.NewFromInt(int64(held / (24 * time.Hour)))
	if days.IsNegative() {
		days = decimal.Zero
	}

	growth := annualReturn.Div(hundred).Mul(days).Div(daysPerYear)
	current := amount.Mul(decimal.NewFromInt(1).Add(growth)).Round(models.ScaleBRL)
	returned := current.Sub(amount)

	percentage := decimal.Zero
	if amount.IsPositive() {
		percentage = returned.Div(amount).Mul(hundred).Round(models.ScalePercent)
	}
	return Valuation{CurrentValue: current, ReturnAmount: returned, ReturnPercentage: percentage}
}

// Run revalues all active positions and returns how many were updated.
// Positions whose product cannot be found are skipped.
func (j *Job) Run(ctx context.Context) (int, error) {
	positions, err := j.store.ListActivePositions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active positions: %w", err)
	}

	now := j.now()
	products := make(map[string]*models.Product)
	updated := 0

	for _, position := range positions {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		product, ok := products[position.ProductId]
		if !ok {
			product, err = j.store.GetProduct(ctx, position.ProductId)
			if errors.Is(err, store.ErrProductNotFound) {
				zap.L().Warn("Skipping position with unknown product",
					zap.String("position_id", position.Id),
					zap.String("product_id", position.ProductId))
				products[position.ProductId] = nil
				continue
			}
			if err != nil {
				return updated, fmt.Errorf("failed to load product %s: %w", position.ProductId, err)
			}
			products[position.ProductId] = product
		}
		if product == nil {
			continue
		}

		v := Value(position.Amount, product.ExpectedReturn, now.Sub(position.CreatedAt))
		if err := j.store.UpdatePosition(ctx, position.Id, v.CurrentValue, v.ReturnAmount, v.ReturnPercentage); err != nil {
			return updated, fmt.Errorf("failed to update position %s: %w", position.Id, err)
		}
		updated++
	}

	zap.L().Info("Positions revalued", zap.Int("updated", updated), zap.Int("active", len(positions)))
	if err := j.publisher.Publish(ctx, events.PositionsRevalued, events.RevaluationEvent{Updated: updated, Timestamp: now}); err != nil {
		zap.L().Warn("Failed to publish revaluation event", zap.Error(err))
	}
	return updated, nil
}
