package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Commit applies a mutation inside one SQL transaction. Each balance change is
// guarded by the account's version column; any mismatch rolls everything back,
// including accounts and payment keys created earlier in the same mutation.
func (s *Service) Commit(ctx context.Context, m store.Mutation) (*store.CommitResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result := &store.CommitResult{}
	for _, params := range m.Accounts {
		a, err := s.insertAccount(ctx, tx, params)
		if err != nil {
			return nil, err
		}
		result.Accounts = append(result.Accounts, a)
	}
	for _, params := range m.PaymentKeys {
		k, err := s.insertPaymentKey(ctx, tx, params)
		if err != nil {
			return nil, err
		}
		result.PaymentKeys = append(result.PaymentKeys, k)
	}

	for _, change := range m.Balances {
		if err := s.applyBalanceChange(ctx, tx, change); err != nil {
			return nil, err
		}
	}

	for _, params := range m.Transfers {
		t, err := s.insertTransfer(ctx, tx, params)
		if err != nil {
			return nil, err
		}
		result.Transfers = append(result.Transfers, t)
	}
	for _, params := range m.Conversions {
		c, err := s.insertConversion(ctx, tx, params)
		if err != nil {
			return nil, err
		}
		result.Conversions = append(result.Conversions, c)
	}
	for _, params := range m.Positions {
		p, err := s.insertPosition(ctx, tx, params)
		if err != nil {
			return nil, err
		}
		result.Positions = append(result.Positions, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

func (s *Service) applyBalanceChange(ctx context.Context, tx *sql.Tx, change store.BalanceChange) error {
	next := change.Next.Rounded()
	brl := next.BRL.StringFixed(models.ScaleBRL)
	stable := next.Stable.StringFixed(models.ScaleStable)
	invested := next.TotalInvested.StringFixed(models.ScaleBRL)

	// Audit row captures the before values, so it must precede the update.
	if _, err := tx.ExecContext(ctx, queryInsertBalanceChange,
		uuid.New().String(), brl, stable, invested, s.now(), change.AccountId); err != nil {
		return fmt.Errorf("failed to record balance change: %w", err)
	}

	result, err := tx.ExecContext(ctx, queryUpdateAccountBalancesVersioned,
		brl, stable, invested, change.AccountId, change.ExpectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update balances: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var version int64
	err = tx.QueryRowContext(ctx, queryGetAccountVersion, change.AccountId).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", store.ErrAccountNotFound, change.AccountId)
	}
	if err != nil {
		return fmt.Errorf("failed to read account version: %w", err)
	}

	zap.L().Debug("Version mismatch on commit",
		zap.String("account_id", change.AccountId),
		zap.Int64("expected", change.ExpectedVersion),
		zap.Int64("actual", version))
	return fmt.Errorf("balance update failed - %w: account %s", store.ErrConcurrentModification, change.AccountId)
}

// balanceChangeCount returns how many committed balance changes an account has.
func (s *Service) balanceChangeCount(ctx context.Context, accountId string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, queryGetBalanceChangeCount, accountId).Scan(&count)
	return count, err
}
