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

package main

import (
	"context"
	"flag"
	"fmt"

	"inwista-wallet-go/internal/api"
	"inwista-wallet-go/internal/common"
	"inwista-wallet-go/internal/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type transferRequest struct {
	nationalId   string
	recipientKey string
	amount       decimal.Decimal
	description  string
}

func parseAndValidateFlags() (*transferRequest, error) {
	cpfFlag := flag.String("cpf", "", "Sender national id (required)")
	keyFlag := flag.String("to", "", "Recipient PIX key (required)")
	amountFlag := flag.String("amount", "", "Amount in BRL (required)")
	descriptionFlag := flag.String("description", "", "Payment description (optional)")
	flag.Parse()

	if *cpfFlag == "" || *keyFlag == "" || *amountFlag == "" {
		return nil, fmt.Errorf("flags --cpf, --to and --amount are required")
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	return &transferRequest{
		nationalId:   *cpfFlag,
		recipientKey: *keyFlag,
		amount:       amount,
		description:  *descriptionFlag,
	}, nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid flags", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	sender, err := services.Store.GetAccountByNationalId(ctx, req.nationalId)
	if err != nil {
		zap.L().Fatal("Sender not found", zap.String("cpf", req.nationalId), zap.Error(err))
	}

	zap.L().Info("Sending PIX",
		zap.String("account_id", sender.Id),
		zap.String("recipient_key", req.recipientKey),
		zap.String("amount", req.amount.String()))

	transfer, err := services.Wallet.SendPix(ctx, api.SendPixRequest{
		AccountId:    sender.Id,
		RecipientKey: req.recipientKey,
		Amount:       req.amount,
		Description:  req.description,
	})
	if err != nil {
		zap.L().Fatal("PIX failed", zap.Error(err))
	}

	updated, err := services.Wallet.GetAccount(ctx, sender.Id)
	if err != nil {
		zap.L().Fatal("Failed to reload sender", zap.Error(err))
	}

	common.PrintHeader("PIX SENT", common.DefaultWidth)
	fmt.Printf("Transfer ID:  %s\n", transfer.Id)
	fmt.Printf("Recipient:    %s (%s)\n", transfer.RecipientName, transfer.RecipientKey)
	fmt.Printf("Amount:       %s\n", common.FormatBRL(transfer.Amount))
	fmt.Printf("New balance:  %s\n", common.FormatBRL(updated.BalanceBRL))
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()
}
