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

	"inwista-wallet-go/internal/events"
	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/store"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Product name shown for positions whose product no longer resolves.
const unknownProductName = "Produto não encontrado"

// Holding is a position together with the name of its product
type Holding struct {
	models.Position
	ProductName string
}

func (s *LedgerService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.store.ListProducts(ctx)
}

// Portfolio lists an account's positions newest first, each labelled with its product name.
func (s *LedgerService) Portfolio(ctx context.Context, accountId string) ([]Holding, error) {
	positions, err := s.store.ListPositions(ctx, accountId)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	for _, productId := range lo.Uniq(lo.Map(positions, func(p models.Position, _ int) string { return p.ProductId })) {
		product, err := s.store.GetProduct(ctx, productId)
		switch {
		case err == nil:
			names[productId] = product.Name
		case errors.Is(err, store.ErrProductNotFound):
			names[productId] = unknownProductName
		default:
			return nil, fmt.Errorf("failed to load product %s: %w", productId, err)
		}
	}

	return lo.Map(positions, func(p models.Position, _ int) Holding {
		return Holding{Position: p, ProductName: names[p.ProductId]}
	}), nil
}

// Invest opens a position worth amount in productId, moving amount from the
// BRL balance into the invested total.
func (s *LedgerService) Invest(ctx context.Context, accountId, productId string, amount decimal.Decimal) (*models.Position, error) {
	if productId == "" {
		return nil, validationError("product id is required")
	}
	amount, err := positiveAmount(amount, models.ScaleBRL)
	if err != nil {
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, productId)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, product.Name)
	}
	if amount.LessThan(product.MinimumAmount) {
		return nil, fmt.Errorf("%w: minimum investment is R$ %s",
			ErrBelowMinimum, product.MinimumAmount.StringFixed(models.ScaleBRL))
	}

	result, err := s.commit(ctx, "investment", func() (store.Mutation, error) {
		account, err := s.store.GetAccount(ctx, accountId)
		if err != nil {
			return store.Mutation{}, err
		}
		if account.BalanceBRL.LessThan(amount) {
			return store.Mutation{}, fmt.Errorf("%w: balance %s, requested %s",
				ErrInsufficientFunds, account.BalanceBRL.StringFixed(models.ScaleBRL), amount.StringFixed(models.ScaleBRL))
		}

		next := account.Balances()
		next.BRL = next.BRL.Sub(amount)
		next.TotalInvested = next.TotalInvested.Add(amount)

		return store.Mutation{
			Balances: []store.BalanceChange{{AccountId: account.Id, ExpectedVersion: account.Version, Next: next}},
			Positions: []store.CreatePositionParams{{
				AccountId:        account.Id,
				ProductId:        product.Id,
				Amount:           amount,
				CurrentValue:     amount,
				ReturnAmount:     decimal.Zero,
				ReturnPercentage: decimal.Zero,
			}},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	position := result.Positions[0]
	zap.L().Info("Investment created",
		zap.String("account_id", position.AccountId),
		zap.String("product", product.Name),
		zap.String("amount", position.Amount.StringFixed(models.ScaleBRL)))

	s.publish(ctx, events.InvestmentCreated, events.InvestmentEvent{
		PositionId: position.Id,
		AccountId:  position.AccountId,
		ProductId:  position.ProductId,
		Amount:     position.Amount.StringFixed(models.ScaleBRL),
		Timestamp:  position.CreatedAt,
	})
	return &position, nil
}
