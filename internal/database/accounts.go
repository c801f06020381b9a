/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(&account.Id, &account.NationalId, &account.PasswordHash, &account.Name,
		&account.Email, &account.Phone, &account.BalanceBRL, &account.BalanceStable,
		&account.TotalInvested, &account.IsActive, &account.Version, &account.CreatedAt)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Service) GetAccount(ctx context.Context, accountId string) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, queryGetAccountById, accountId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (s *Service) GetAccountByNationalId(ctx context.Context, nationalId string) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, queryGetAccountByNationalId, nationalId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: national id %s", store.ErrAccountNotFound, nationalId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by national id: %w", err)
	}
	return account, nil
}

// CreateAccount inserts a new account. The national_id column is UNIQUE, so a
// duplicate surfaces as store.ErrDuplicateNationalId.
func (s *Service) CreateAccount(ctx context.Context, params store.CreateAccountParams) (*models.Account, error) {
	account, err := s.insertAccount(ctx, s.db, params)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Service) insertAccount(ctx context.Context, ex execer, params store.CreateAccountParams) (models.Account, error) {
	accountId := params.Id
	if accountId == "" {
		accountId = uuid.New().String()
	}

	account := models.Account{
		Id:            accountId,
		NationalId:    params.NationalId,
		PasswordHash:  params.PasswordHash,
		Name:          params.Name,
		Email:         params.Email,
		Phone:         params.Phone,
		BalanceBRL:    params.BalanceBRL.Round(models.ScaleBRL),
		BalanceStable: params.BalanceStable.Round(models.ScaleStable),
		TotalInvested: params.TotalInvested.Round(models.ScaleBRL),
		IsActive:      true,
		Version:       1,
		CreatedAt:     s.now(),
	}

	_, err := ex.ExecContext(ctx, queryInsertAccount,
		account.Id, account.NationalId, account.PasswordHash, account.Name, account.Email, account.Phone,
		account.BalanceBRL.StringFixed(models.ScaleBRL),
		account.BalanceStable.StringFixed(models.ScaleStable),
		account.TotalInvested.StringFixed(models.ScaleBRL),
		account.IsActive, account.Version, account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Account{}, fmt.Errorf("%w: %s", store.ErrDuplicateNationalId, params.NationalId)
		}
		return models.Account{}, fmt.Errorf("failed to create account: %w", err)
	}

	zap.L().Info("Account created", zap.String("id", account.Id), zap.String("name", account.Name))
	return account, nil
}

// UpdateAccountBalances overwrites all three balance fields unconditionally.
func (s *Service) UpdateAccountBalances(ctx context.Context, accountId string, balances models.Balances) error {
	b := balances.Rounded()
	result, err := s.db.ExecContext(ctx, queryOverwriteAccountBalances,
		b.BRL.StringFixed(models.ScaleBRL),
		b.Stable.StringFixed(models.ScaleStable),
		b.TotalInvested.StringFixed(models.ScaleBRL),
		accountId)
	if err != nil {
		return fmt.Errorf("failed to update balances: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		zap.L().Warn("Balance update for unknown account ignored", zap.String("account_id", accountId))
	}
	return nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, queryGetActiveAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}
