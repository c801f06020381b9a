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

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Recipient name recorded when the key does not belong to a wallet account.
const externalRecipientName = "Destinatário"

// SendPixRequest describes an instant payment from AccountId to RecipientKey
type SendPixRequest struct {
	AccountId    string
	RecipientKey string
	Amount       decimal.Decimal
	Description  string
}

// SendPix debits the sender and records the payment. When the key belongs to
// another account, that account is credited in the same commit.
func (s *LedgerService) SendPix(ctx context.Context, req SendPixRequest) (*models.Transfer, error) {
	recipientKey := strings.TrimSpace(req.RecipientKey)
	if recipientKey == "" {
		return nil, validationError("recipient key is required")
	}
	amount, err := positiveAmount(req.Amount, models.ScaleBRL)
	if err != nil {
		return nil, err
	}

	var recipientId string
	key, err := s.store.FindPaymentKey(ctx, recipientKey)
	switch {
	case err == nil:
		if key.AccountId == req.AccountId {
			return nil, validationError("cannot send a payment to your own key")
		}
		recipientId = key.AccountId
	case errors.Is(err, store.ErrPaymentKeyNotFound):
	default:
		return nil, fmt.Errorf("failed to resolve recipient key: %w", err)
	}

	result, err := s.commit(ctx, "pix", func() (store.Mutation, error) {
		sender, err := s.store.GetAccount(ctx, req.AccountId)
		if err != nil {
			return store.Mutation{}, err
		}
		if sender.BalanceBRL.LessThan(amount) {
			return store.Mutation{}, fmt.Errorf("%w: balance %s, requested %s",
				ErrInsufficientFunds, sender.BalanceBRL.StringFixed(models.ScaleBRL), amount.StringFixed(models.ScaleBRL))
		}

		senderNext := sender.Balances()
		senderNext.BRL = senderNext.BRL.Sub(amount)

		m := store.Mutation{
			Balances: []store.BalanceChange{{AccountId: sender.Id, ExpectedVersion: sender.Version, Next: senderNext}},
			Transfers: []store.CreateTransferParams{{
				AccountId:     sender.Id,
				Direction:     models.DirectionSent,
				Amount:        amount,
				RecipientName: externalRecipientName,
				RecipientKey:  recipientKey,
				Description:   req.Description,
			}},
		}
		if recipientId == "" {
			return m, nil
		}

		recipient, err := s.store.GetAccount(ctx, recipientId)
		if err != nil {
			return store.Mutation{}, fmt.Errorf("failed to load recipient: %w", err)
		}
		recipientNext := recipient.Balances()
		recipientNext.BRL = recipientNext.BRL.Add(amount)

		m.Transfers[0].RecipientName = recipient.Name
		m.Balances = append(m.Balances, store.BalanceChange{
			AccountId: recipient.Id, ExpectedVersion: recipient.Version, Next: recipientNext,
		})
		m.Transfers = append(m.Transfers, store.CreateTransferParams{
			AccountId:   recipient.Id,
			Direction:   models.DirectionReceived,
			Amount:      amount,
			SenderName:  sender.Name,
			SenderKey:   sender.NationalId,
			Description: req.Description,
		})
		return m, nil
	})
	if err != nil {
		return nil, err
	}

	sent := result.Transfers[0]
	zap.L().Info("PIX sent",
		zap.String("account_id", sent.AccountId),
		zap.String("amount", sent.Amount.StringFixed(models.ScaleBRL)),
		zap.Bool("internal", recipientId != ""))

	s.publish(ctx, events.PixSent, events.PixEvent{
		TransferId:   sent.Id,
		AccountId:    sent.AccountId,
		Amount:       sent.Amount.StringFixed(models.ScaleBRL),
		Counterparty: recipientKey,
		Timestamp:    sent.CreatedAt,
	})
	if len(result.Transfers) > 1 {
		received := result.Transfers[1]
		s.publish(ctx, events.PixReceived, events.PixEvent{
			TransferId:   received.Id,
			AccountId:    received.AccountId,
			Amount:       received.Amount.StringFixed(models.ScaleBRL),
			Counterparty: received.SenderKey,
			Timestamp:    received.CreatedAt,
		})
	}

	return &sent, nil
}

func (s *LedgerService) ListTransfers(ctx context.Context, accountId string) ([]models.Transfer, error) {
	return s.store.ListTransfers(ctx, accountId)
}
