package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/store"

	"github.com/google/uuid"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// --- Payment keys ---

func (s *Service) ListPaymentKeys(ctx context.Context, accountId string) ([]models.PaymentKey, error) {
	rows, err := s.db.QueryContext(ctx, queryGetPaymentKeys, accountId)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment keys: %w", err)
	}
	defer rows.Close()

	var keys []models.PaymentKey
	for rows.Next() {
		var key models.PaymentKey
		if err := rows.Scan(&key.Id, &key.AccountId, &key.KeyType, &key.KeyValue, &key.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *Service) CreatePaymentKey(ctx context.Context, params store.CreatePaymentKeyParams) (*models.PaymentKey, error) {
	key, err := s.insertPaymentKey(ctx, s.db, params)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *Service) insertPaymentKey(ctx context.Context, ex execer, params store.CreatePaymentKeyParams) (models.PaymentKey, error) {
	key := models.PaymentKey{
		Id:        uuid.New().String(),
		AccountId: params.AccountId,
		KeyType:   params.KeyType,
		KeyValue:  params.KeyValue,
		CreatedAt: s.now(),
	}
	_, err := ex.ExecContext(ctx, queryInsertPaymentKey, key.Id, key.AccountId, key.KeyType, key.KeyValue, key.CreatedAt)
	if err != nil {
		return models.PaymentKey{}, fmt.Errorf("failed to create payment key: %w", err)
	}
	return key, nil
}

func (s *Service) FindPaymentKey(ctx context.Context, keyValue string) (*models.PaymentKey, error) {
	var key models.PaymentKey
	err := s.db.QueryRowContext(ctx, queryFindPaymentKey, keyValue).
		Scan(&key.Id, &key.AccountId, &key.KeyType, &key.KeyValue, &key.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrPaymentKeyNotFound, keyValue)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment key: %w", err)
	}
	return &key, nil
}

// --- Transfers ---

func (s *Service) ListTransfers(ctx context.Context, accountId string) ([]models.Transfer, error) {
	rows, err := s.db.QueryContext(ctx, queryGetTransfers, accountId)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfers: %w", err)
	}
	defer rows.Close()

	var transfers []models.Transfer
	for rows.Next() {
		var t models.Transfer
		if err := rows.Scan(&t.Id, &t.AccountId, &t.Direction, &t.Amount, &t.RecipientName, &t.RecipientKey,
			&t.SenderName, &t.SenderKey, &t.Description, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

func (s *Service) CreateTransfer(ctx context.Context, params store.CreateTransferParams) (*models.Transfer, error) {
	transfer, err := s.insertTransfer(ctx, s.db, params)
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (s *Service) insertTransfer(ctx context.Context, ex execer, params store.CreateTransferParams) (models.Transfer, error) {
	t := models.Transfer{
		Id:            uuid.New().String(),
		AccountId:     params.AccountId,
		Direction:     params.Direction,
		Amount:        params.Amount.Round(models.ScaleBRL),
		RecipientName: params.RecipientName,
		RecipientKey:  params.RecipientKey,
		SenderName:    params.SenderName,
		SenderKey:     params.SenderKey,
		Description:   params.Description,
		Status:        models.StatusCompleted,
		CreatedAt:     s.now(),
	}
	_, err := ex.ExecContext(ctx, queryInsertTransfer,
		t.Id, t.AccountId, t.Direction, t.Amount.StringFixed(models.ScaleBRL), t.RecipientName, t.RecipientKey,
		t.SenderName, t.SenderKey, t.Description, t.Status, t.CreatedAt)
	if err != nil {
		return models.Transfer{}, fmt.Errorf("failed to insert transfer: %w", err)
	}
	return t, nil
}

// --- Conversions ---

func (s *Service) ListConversions(ctx context.Context, accountId string) ([]models.Conversion, error) {
	rows, err := s.db.QueryContext(ctx, queryGetConversions, accountId)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}
	defer rows.Close()

	var conversions []models.Conversion
	for rows.Next() {
		var c models.Conversion
		if err := rows.Scan(&c.Id, &c.AccountId, &c.Direction, &c.AmountBRL, &c.AmountStable,
			&c.Rate, &c.Fee, &c.Status, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversion: %w", err)
		}
		conversions = append(conversions, c)
	}
	return conversions, rows.Err()
}

func (s *Service) CreateConversion(ctx context.Context, params store.CreateConversionParams) (*models.Conversion, error) {
	conversion, err := s.insertConversion(ctx, s.db, params)
	if err != nil {
		return nil, err
	}
	return &conversion, nil
}

func (s *Service) insertConversion(ctx context.Context, ex execer, params store.CreateConversionParams) (models.Conversion, error) {
	c := models.Conversion{
		Id:           uuid.New().String(),
		AccountId:    params.AccountId,
		Direction:    params.Direction,
		AmountBRL:    params.AmountBRL.Round(models.ScaleBRL),
		AmountStable: params.AmountStable.Round(models.ScaleStable),
		Rate:         params.Rate.Round(models.ScaleRate),
		Fee:          params.Fee.Round(models.ScaleBRL),
		Status:       models.StatusCompleted,
		CreatedAt:    s.now(),
	}
	_, err := ex.ExecContext(ctx, queryInsertConversion,
		c.Id, c.AccountId, c.Direction,
		c.AmountBRL.StringFixed(models.ScaleBRL),
		c.AmountStable.StringFixed(models.ScaleStable),
		c.Rate.StringFixed(models.ScaleRate),
		c.Fee.StringFixed(models.ScaleBRL),
		c.Status, c.CreatedAt)
	if err != nil {
		return models.Conversion{}, fmt.Errorf("failed to insert conversion: %w", err)
	}
	return c, nil
}
