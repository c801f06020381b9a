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
	"sync"
	"time"

	"inwista-wallet-go/internal/auth"
	"inwista-wallet-go/internal/events"
	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/stablecoin"
	"inwista-wallet-go/internal/store"

	"go.uber.org/zap"
)

// Domain errors returned by the wallet service, in addition to the store sentinels.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrBelowMinimum       = errors.New("amount below product minimum")
	ErrInvalidCredentials = errors.New("invalid national id or password")
	ErrProductUnavailable = errors.New("product unavailable")
)

// LedgerService validates wallet operations and commits them through the ledger store
type LedgerService struct {
	store       store.LedgerStore
	rate        stablecoin.Rate
	tokens      *auth.TokenIssuer
	publisher   events.Publisher
	bcryptCost  int
	maxAttempts int
	now         func() time.Time

	// registerMu serializes the national id check with account creation.
	registerMu sync.Mutex
}

func NewLedgerService(ledger store.LedgerStore, cfg *models.Config, tokens *auth.TokenIssuer, publisher events.Publisher) *LedgerService {
	if publisher == nil {
		publisher = &events.EventProducerFallback{}
	}
	return &LedgerService{
		store:       ledger,
		rate:        stablecoin.NewRate(cfg.Stablecoin.BaseRate, cfg.Stablecoin.Spread),
		tokens:      tokens,
		publisher:   publisher,
		bcryptCost:  cfg.Auth.BcryptCost,
		maxAttempts: max(cfg.Stablecoin.MaxCommitAttempts, 1),
		now:         time.Now,
	}
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	_, err := s.store.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("ledger health check failed: %w", err)
	}
	return nil
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// commit builds a mutation from freshly read state and commits it, rebuilding
// on version conflicts up to maxAttempts times. Errors from build are returned
// as is and nothing is written.
func (s *LedgerService) commit(ctx context.Context, operation string, build func() (store.Mutation, error)) (*store.CommitResult, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		mutation, err := build()
		if err != nil {
			return nil, err
		}

		result, err := s.store.Commit(ctx, mutation)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, store.ErrConcurrentModification) {
			return nil, fmt.Errorf("%s commit failed: %w", operation, err)
		}

		lastErr = err
		zap.L().Debug("Concurrent modification, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt))
	}

	zap.L().Warn("Giving up after repeated concurrent modifications",
		zap.String("operation", operation),
		zap.Int("attempts", s.maxAttempts))
	return nil, fmt.Errorf("%s commit failed after %d attempts: %w", operation, s.maxAttempts, lastErr)
}

// publish never fails the caller; the ledger is already committed.
func (s *LedgerService) publish(ctx context.Context, routingKey string, body interface{}) {
	if err := s.publisher.Publish(ctx, routingKey, body); err != nil {
		zap.L().Warn("Failed to publish wallet event",
			zap.String("routing_key", routingKey),
			zap.Error(err))
	}
}
