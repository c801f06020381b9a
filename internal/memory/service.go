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

package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/store"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

// entry pairs a record with its insertion sequence so listings can break
// CreatedAt ties deterministically.
type entry[T any] struct {
	seq uint64
	rec T
}

// Service is the in-process ledger: six maps keyed by generated id plus
// secondary indexes, all guarded by one lock.
type Service struct {
	mu  sync.RWMutex
	now func() time.Time
	seq uint64

	accounts    map[string]entry[models.Account]
	paymentKeys map[string]entry[models.PaymentKey]
	transfers   map[string]entry[models.Transfer]
	conversions map[string]entry[models.Conversion]
	products    map[string]entry[models.Product]
	positions   map[string]entry[models.Position]

	byNationalId map[string]string // national id -> account id
	byKeyValue   map[string]string // payment key value -> payment key id
}

type Option func(*Service)

// WithClock overrides the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(opts ...Option) *Service {
	s := &Service{
		now:          time.Now,
		accounts:     make(map[string]entry[models.Account]),
		paymentKeys:  make(map[string]entry[models.PaymentKey]),
		transfers:    make(map[string]entry[models.Transfer]),
		conversions:  make(map[string]entry[models.Conversion]),
		products:     make(map[string]entry[models.Product]),
		positions:    make(map[string]entry[models.Position]),
		byNationalId: make(map[string]string),
		byKeyValue:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	zap.L().Info("In-memory ledger initialized")
	return s
}

func (s *Service) Close() {}

// nextSeq must be called with the write lock held.
func (s *Service) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// newestFirst sorts by CreatedAt descending, then by insertion order descending.
func newestFirst[T any](entries []entry[T], createdAt func(T) time.Time) []T {
	slices.SortFunc(entries, func(a, b entry[T]) int {
		if c := createdAt(b.rec).Compare(createdAt(a.rec)); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})
	return lo.Map(entries, func(e entry[T], _ int) T { return e.rec })
}

func ownedBy[T any](m map[string]entry[T], owner func(T) string, accountId string) []entry[T] {
	return lo.Filter(lo.Values(m), func(e entry[T], _ int) bool {
		return owner(e.rec) == accountId
	})
}

// --- Accounts ---

func (s *Service) GetAccount(_ context.Context, accountId string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.accounts[accountId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, accountId)
	}
	account := e.rec
	return &account, nil
}

func (s *Service) GetAccountByNationalId(ctx context.Context, nationalId string) (*models.Account, error) {
	s.mu.RLock()
	accountId, ok := s.byNationalId[nationalId]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: national id %s", store.ErrAccountNotFound, nationalId)
	}
	return s.GetAccount(ctx, accountId)
}

// CreateAccount performs no uniqueness check; callers verify the national id first.
// A later account with the same national id takes over the index entry.
func (s *Service) CreateAccount(_ context.Context, params store.CreateAccountParams) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account := s.insertAccount(params)
	return &account, nil
}

func (s *Service) insertAccount(params store.CreateAccountParams) models.Account {
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
	s.accounts[accountId] = entry[models.Account]{seq: s.nextSeq(), rec: account}
	s.byNationalId[account.NationalId] = accountId

	zap.L().Info("Account created", zap.String("id", accountId), zap.String("name", account.Name))
	return account
}

// UpdateAccountBalances overwrites all three balance fields unconditionally.
func (s *Service) UpdateAccountBalances(_ context.Context, accountId string, balances models.Balances) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[accountId]; !ok {
		zap.L().Warn("Balance update for unknown account ignored", zap.String("account_id", accountId))
		return nil
	}
	s.applyBalances(accountId, balances)
	return nil
}

// applyBalances must be called with the write lock held and a known account id.
func (s *Service) applyBalances(accountId string, balances models.Balances) {
	e := s.accounts[accountId]
	b := balances.Rounded()
	e.rec.BalanceBRL = b.BRL
	e.rec.BalanceStable = b.Stable
	e.rec.TotalInvested = b.TotalInvested
	e.rec.Version++
	s.accounts[accountId] = e
}

func (s *Service) ListAccounts(_ context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := lo.Filter(lo.Values(s.accounts), func(e entry[models.Account], _ int) bool {
		return e.rec.IsActive
	})
	slices.SortFunc(entries, func(a, b entry[models.Account]) int { return cmp.Compare(a.seq, b.seq) })
	return lo.Map(entries, func(e entry[models.Account], _ int) models.Account { return e.rec }), nil
}

// --- Payment keys ---

func (s *Service) ListPaymentKeys(_ context.Context, accountId string) ([]models.PaymentKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := ownedBy(s.paymentKeys, func(k models.PaymentKey) string { return k.AccountId }, accountId)
	slices.SortFunc(entries, func(a, b entry[models.PaymentKey]) int { return cmp.Compare(a.seq, b.seq) })
	return lo.Map(entries, func(e entry[models.PaymentKey], _ int) models.PaymentKey { return e.rec }), nil
}

func (s *Service) CreatePaymentKey(_ context.Context, params store.CreatePaymentKeyParams) (*models.PaymentKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.insertPaymentKey(params)
	return &key, nil
}

func (s *Service) insertPaymentKey(params store.CreatePaymentKeyParams) models.PaymentKey {
	key := models.PaymentKey{
		Id:        uuid.New().String(),
		AccountId: params.AccountId,
		KeyType:   params.KeyType,
		KeyValue:  params.KeyValue,
		CreatedAt: s.now(),
	}
	s.paymentKeys[key.Id] = entry[models.PaymentKey]{seq: s.nextSeq(), rec: key}
	if _, taken := s.byKeyValue[key.KeyValue]; !taken {
		s.byKeyValue[key.KeyValue] = key.Id
	}

	zap.L().Debug("Payment key created",
		zap.String("account_id", key.AccountId),
		zap.String("key_type", key.KeyType))
	return key
}

// FindPaymentKey resolves a key value to the first key registered with it.
func (s *Service) FindPaymentKey(_ context.Context, keyValue string) (*models.PaymentKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keyId, ok := s.byKeyValue[keyValue]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrPaymentKeyNotFound, keyValue)
	}
	key := s.paymentKeys[keyId].rec
	return &key, nil
}

// --- Transfers ---

func (s *Service) ListTransfers(_ context.Context, accountId string) ([]models.Transfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := ownedBy(s.transfers, func(t models.Transfer) string { return t.AccountId }, accountId)
	return newestFirst(entries, func(t models.Transfer) time.Time { return t.CreatedAt }), nil
}

func (s *Service) CreateTransfer(_ context.Context, params store.CreateTransferParams) (*models.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	transfer := s.insertTransfer(params)
	return &transfer, nil
}

func (s *Service) insertTransfer(params store.CreateTransferParams) models.Transfer {
	transfer := models.Transfer{
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
	s.transfers[transfer.Id] = entry[models.Transfer]{seq: s.nextSeq(), rec: transfer}
	return transfer
}

// --- Conversions ---

func (s *Service) ListConversions(_ context.Context, accountId string) ([]models.Conversion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := ownedBy(s.conversions, func(c models.Conversion) string { return c.AccountId }, accountId)
	return newestFirst(entries, func(c models.Conversion) time.Time { return c.CreatedAt }), nil
}

func (s *Service) CreateConversion(_ context.Context, params store.CreateConversionParams) (*models.Conversion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversion := s.insertConversion(params)
	return &conversion, nil
}

func (s *Service) insertConversion(params store.CreateConversionParams) models.Conversion {
	conversion := models.Conversion{
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
	s.conversions[conversion.Id] = entry[models.Conversion]{seq: s.nextSeq(), rec: conversion}
	return conversion
}

// --- Products ---

// ListProducts returns active products in catalog order.
func (s *Service) ListProducts(_ context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := lo.Filter(lo.Values(s.products), func(e entry[models.Product], _ int) bool {
		return e.rec.IsActive
	})
	slices.SortFunc(entries, func(a, b entry[models.Product]) int { return cmp.Compare(a.seq, b.seq) })
	return lo.Map(entries, func(e entry[models.Product], _ int) models.Product { return e.rec }), nil
}

// GetProduct returns the product regardless of its active flag.
func (s *Service) GetProduct(_ context.Context, productId string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.products[productId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrProductNotFound, productId)
	}
	product := e.rec
	return &product, nil
}

// FindProductByName returns the earliest product with the given name, active or not.
func (s *Service) FindProductByName(_ context.Context, name string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := lo.Filter(lo.Values(s.products), func(e entry[models.Product], _ int) bool {
		return e.rec.Name == name
	})
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrProductNotFound, name)
	}
	first := lo.MinBy(matches, func(a, b entry[models.Product]) bool { return a.seq < b.seq })
	product := first.rec
	return &product, nil
}

func (s *Service) CreateProduct(_ context.Context, params store.CreateProductParams) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := models.Product{
		Id:             uuid.New().String(),
		Name:           params.Name,
		Category:       params.Category,
		Risk:           params.Risk,
		MinimumAmount:  params.MinimumAmount.Round(models.ScaleBRL),
		ExpectedReturn: params.ExpectedReturn.Round(models.ScalePercent),
		Liquidity:      params.Liquidity,
		Description:    params.Description,
		IsActive:       params.IsActive,
	}
	s.products[product.Id] = entry[models.Product]{seq: s.nextSeq(), rec: product}
	return &product, nil
}

// --- Positions ---

func (s *Service) ListPositions(_ context.Context, accountId string) ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := ownedBy(s.positions, func(p models.Position) string { return p.AccountId }, accountId)
	return newestFirst(entries, func(p models.Position) time.Time { return p.CreatedAt }), nil
}

func (s *Service) ListActivePositions(_ context.Context) ([]models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := lo.Filter(lo.Values(s.positions), func(e entry[models.Position], _ int) bool {
		return e.rec.Status == models.StatusActive
	})
	slices.SortFunc(entries, func(a, b entry[models.Position]) int { return cmp.Compare(a.seq, b.seq) })
	return lo.Map(entries, func(e entry[models.Position], _ int) models.Position { return e.rec }), nil
}

func (s *Service) CreatePosition(_ context.Context, params store.CreatePositionParams) (*models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	position := s.insertPosition(params)
	return &position, nil
}

func (s *Service) insertPosition(params store.CreatePositionParams) models.Position {
	now := s.now()
	position := models.Position{
		Id:               uuid.New().String(),
		AccountId:        params.AccountId,
		ProductId:        params.ProductId,
		Amount:           params.Amount.Round(models.ScaleBRL),
		CurrentValue:     params.CurrentValue.Round(models.ScaleBRL),
		ReturnAmount:     params.ReturnAmount.Round(models.ScaleBRL),
		ReturnPercentage: params.ReturnPercentage.Round(models.ScalePercent),
		Status:           models.StatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.positions[position.Id] = entry[models.Position]{seq: s.nextSeq(), rec: position}
	return position
}

// UpdatePosition overwrites the valuation fields; unknown ids are a logged no-op.
func (s *Service) UpdatePosition(_ context.Context, positionId string, currentValue, returnAmount, returnPercentage decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.positions[positionId]
	if !ok {
		zap.L().Warn("Position update for unknown position ignored", zap.String("position_id", positionId))
		return nil
	}
	e.rec.CurrentValue = currentValue.Round(models.ScaleBRL)
	e.rec.ReturnAmount = returnAmount.Round(models.ScaleBRL)
	e.rec.ReturnPercentage = returnPercentage.Round(models.ScalePercent)
	e.rec.UpdatedAt = s.now()
	s.positions[positionId] = e
	return nil
}

// --- Atomic commit ---

// Commit verifies every expected version before writing anything, so a
// rejected mutation leaves the ledger untouched.
func (s *Service) Commit(_ context.Context, m store.Mutation) (*store.CommitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make(map[string]struct{}, len(m.Accounts))
	for _, params := range m.Accounts {
		_, registered := s.byNationalId[params.NationalId]
		_, repeated := pending[params.NationalId]
		if registered || repeated {
			return nil, fmt.Errorf("%w: %s", store.ErrDuplicateNationalId, params.NationalId)
		}
		pending[params.NationalId] = struct{}{}
	}

	for _, change := range m.Balances {
		e, ok := s.accounts[change.AccountId]
		if !ok {
			return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, change.AccountId)
		}
		if e.rec.Version != change.ExpectedVersion {
			zap.L().Debug("Version mismatch on commit",
				zap.String("account_id", change.AccountId),
				zap.Int64("expected", change.ExpectedVersion),
				zap.Int64("actual", e.rec.Version))
			return nil, fmt.Errorf("%w: account %s", store.ErrConcurrentModification, change.AccountId)
		}
	}

	result := &store.CommitResult{
		Accounts: lo.Map(m.Accounts, func(p store.CreateAccountParams, _ int) models.Account {
			return s.insertAccount(p)
		}),
		PaymentKeys: lo.Map(m.PaymentKeys, func(p store.CreatePaymentKeyParams, _ int) models.PaymentKey {
			return s.insertPaymentKey(p)
		}),
	}

	for _, change := range m.Balances {
		s.applyBalances(change.AccountId, change.Next)
	}

	result.Transfers = lo.Map(m.Transfers, func(p store.CreateTransferParams, _ int) models.Transfer {
		return s.insertTransfer(p)
	})
	result.Conversions = lo.Map(m.Conversions, func(p store.CreateConversionParams, _ int) models.Conversion {
		return s.insertConversion(p)
	})
	result.Positions = lo.Map(m.Positions, func(p store.CreatePositionParams, _ int) models.Position {
		return s.insertPosition(p)
	})
	return result, nil
}
