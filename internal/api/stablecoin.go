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
	"fmt"

	"inwista-wallet-go/internal/events"
	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/stablecoin"
	"inwista-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Rate returns the configured synthetic rate.
func (s *LedgerService) Rate() stablecoin.Rate {
	return s.rate
}

// Quote prices a conversion without touching any account. For a buy the
// amount is in BRL, for a sell it is in stable units.
func (s *LedgerService) Quote(direction string, amount decimal.Decimal) (*stablecoin.Quote, error) {
	direction, err := normalizeDirection(direction)
	if err != nil {
		return nil, err
	}

	if direction == models.DirectionBuy {
		amount, err = positiveAmount(amount, models.ScaleBRL)
		if err != nil {
			return nil, err
		}
		q := s.rate.QuoteBuy(amount)
		return &q, nil
	}

	amount, err = positiveAmount(amount, models.ScaleStable)
	if err != nil {
		return nil, err
	}
	q := s.rate.QuoteSell(amount)
	return &q, nil
}

// Convert buys or sells stable units at the configured rate and records the conversion.
func (s *LedgerService) Convert(ctx context.Context, accountId, direction string, amount decimal.Decimal) (*models.Conversion, error) {
	quote, err := s.Quote(direction, amount)
	if err != nil {
		return nil, err
	}

	result, err := s.commit(ctx, "conversion", func() (store.Mutation, error) {
		account, err := s.store.GetAccount(ctx, accountId)
		if err != nil {
			return store.Mutation{}, err
		}

		next := account.Balances()
		switch quote.Direction {
		case models.DirectionBuy:
			if account.BalanceBRL.LessThan(quote.DebitBRL) {
				return store.Mutation{}, fmt.Errorf("%w: BRL balance %s, required %s",
					ErrInsufficientFunds, account.BalanceBRL.StringFixed(models.ScaleBRL), quote.DebitBRL.StringFixed(models.ScaleBRL))
			}
			next.BRL = next.BRL.Sub(quote.DebitBRL)
			next.Stable = next.Stable.Add(quote.AmountStable)
		default:
			if account.BalanceStable.LessThan(quote.AmountStable) {
				return store.Mutation{}, fmt.Errorf("%w: stable balance %s, required %s",
					ErrInsufficientFunds, account.BalanceStable.StringFixed(models.ScaleStable), quote.AmountStable.StringFixed(models.ScaleStable))
			}
			next.Stable = next.Stable.Sub(quote.AmountStable)
			next.BRL = next.BRL.Add(quote.CreditBRL)
		}

		return store.Mutation{
			Balances: []store.BalanceChange{{AccountId: account.Id, ExpectedVersion: account.Version, Next: next}},
			Conversions: []store.CreateConversionParams{{
				AccountId:    account.Id,
				Direction:    quote.Direction,
				AmountBRL:    quote.AmountBRL,
				AmountStable: quote.AmountStable,
				Rate:         quote.Rate,
				Fee:          quote.Fee,
			}},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	conversion := result.Conversions[0]
	zap.L().Info("Stablecoin conversion completed",
		zap.String("account_id", conversion.AccountId),
		zap.String("type", conversion.Direction),
		zap.String("amount_brl", conversion.AmountBRL.StringFixed(models.ScaleBRL)),
		zap.String("amount_stable", conversion.AmountStable.StringFixed(models.ScaleStable)),
		zap.String("fee", conversion.Fee.StringFixed(models.ScaleBRL)))

	s.publish(ctx, events.StablecoinConverted, events.ConversionEvent{
		ConversionId: conversion.Id,
		AccountId:    conversion.AccountId,
		Type:         conversion.Direction,
		AmountBRL:    conversion.AmountBRL.StringFixed(models.ScaleBRL),
		AmountStable: conversion.AmountStable.StringFixed(models.ScaleStable),
		Rate:         conversion.Rate.StringFixed(models.ScaleRate),
		Fee:          conversion.Fee.StringFixed(models.ScaleBRL),
		Timestamp:    conversion.CreatedAt,
	})
	return &conversion, nil
}

func (s *LedgerService) ListConversions(ctx context.Context, accountId string) ([]models.Conversion, error) {
	return s.store.ListConversions(ctx, accountId)
}
