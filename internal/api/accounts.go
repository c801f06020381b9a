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

package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inwista-wallet-go/internal/events"
	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest holds the fields collected by the onboarding flow
type RegisterRequest struct {
	Name       string
	Email      string
	Phone      string
	NationalId string
	Password   string
}

// HashPassword returns the bcrypt hash stored in place of the password.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Register opens an account with zero balances and a payment key equal to its
// national id. Both are written in one commit.
func (s *LedgerService) Register(ctx context.Context, req RegisterRequest) (*models.Account, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.NationalId = strings.TrimSpace(req.NationalId)

	if err := validateName(req.Name); err != nil {
		return nil, err
	}
	if err := validateNationalId(req.NationalId); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}

	passwordHash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	_, err = s.store.GetAccountByNationalId(ctx, req.NationalId)
	if err == nil {
		return nil, fmt.Errorf("%w: %s", store.ErrDuplicateNationalId, req.NationalId)
	}
	if !errors.Is(err, store.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to check national id: %w", err)
	}

	accountId := uuid.New().String()
	result, err := s.store.Commit(ctx, store.Mutation{
		Accounts: []store.CreateAccountParams{{
			Id:           accountId,
			NationalId:   req.NationalId,
			PasswordHash: passwordHash,
			Name:         req.Name,
			Email:        req.Email,
			Phone:        strings.TrimSpace(req.Phone),
		}},
		PaymentKeys: []store.CreatePaymentKeyParams{{
			AccountId: accountId,
			KeyType:   models.KeyTypeNationalId,
			KeyValue:  req.NationalId,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	account := &result.Accounts[0]

	zap.L().Info("Account registered",
		zap.String("account_id", account.Id),
		zap.String("name", account.Name))

	s.publish(ctx, events.AccountRegistered, events.AccountRegisteredEvent{
		AccountId: account.Id,
		Name:      account.Name,
		Timestamp: account.CreatedAt,
	})
	return account, nil
}

// Login checks the password; a second factor is always required afterwards.
func (s *LedgerService) Login(ctx context.Context, nationalId, password string) (*models.LoginResult, error) {
	account, err := s.store.GetAccountByNationalId(ctx, strings.TrimSpace(nationalId))
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		zap.L().Info("Login rejected", zap.String("account_id", account.Id))
		return nil, ErrInvalidCredentials
	}

	return &models.LoginResult{
		AccountId:     account.Id,
		Name:          account.Name,
		RequiresTwoFA: true,
	}, nil
}

// VerifyTwoFactor accepts any eight digit code and issues a session token.
func (s *LedgerService) VerifyTwoFactor(ctx context.Context, accountId, code string) (*models.SessionResult, error) {
	if err := validateTwoFactorCode(code); err != nil {
		return nil, err
	}

	account, err := s.store.GetAccount(ctx, accountId)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(account.Id)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Session opened", zap.String("account_id", account.Id))
	return &models.SessionResult{
		Success: true,
		User: models.SessionUser{
			Id:         account.Id,
			Name:       account.Name,
			Email:      account.Email,
			NationalId: account.NationalId,
		},
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, accountId string) (*models.Account, error) {
	return s.store.GetAccount(ctx, accountId)
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.store.ListAccounts(ctx)
}

// LookupName returns only the holder's name, for confirming a recipient.
func (s *LedgerService) LookupName(ctx context.Context, nationalId string) (string, error) {
	account, err := s.store.GetAccountByNationalId(ctx, strings.TrimSpace(nationalId))
	if err != nil {
		return "", err
	}
	return account.Name, nil
}

func (s *LedgerService) ListPaymentKeys(ctx context.Context, accountId string) ([]models.PaymentKey, error) {
	return s.store.ListPaymentKeys(ctx, accountId)
}
