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
	"errors"
	"flag"
	"fmt"

	"inwista-wallet-go/internal/api"
	"inwista-wallet-go/internal/common"
	"inwista-wallet-go/internal/config"
	"inwista-wallet-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	nameFlag := flag.String("name", "", "Account holder's full name (required)")
	cpfFlag := flag.String("cpf", "", "National id formatted as 000.000.000-00 (required)")
	passwordFlag := flag.String("password", "", "Password, at least 6 characters (required)")
	emailFlag := flag.String("email", "", "Email address (optional)")
	phoneFlag := flag.String("phone", "", "Phone number (optional)")
	flag.Parse()

	if *nameFlag == "" || *cpfFlag == "" || *passwordFlag == "" {
		zap.L().Fatal("Flags --name, --cpf and --password are required")
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.Database.Backend == config.BackendMemory {
		zap.L().Warn("Memory backend selected; the account only lives for this process. Set LEDGER_BACKEND=sqlite to persist it")
	}

	zap.L().Info("Initializing services")
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	account, err := services.Wallet.Register(ctx, api.RegisterRequest{
		Name:       *nameFlag,
		Email:      *emailFlag,
		Phone:      *phoneFlag,
		NationalId: *cpfFlag,
		Password:   *passwordFlag,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateNationalId):
			zap.L().Fatal("An account already exists with this national id", zap.String("cpf", *cpfFlag))
		case errors.Is(err, api.ErrValidation):
			zap.L().Fatal("Invalid account details", zap.Error(err))
		default:
			zap.L().Fatal("Failed to create account", zap.Error(err))
		}
	}

	keys, err := services.Wallet.ListPaymentKeys(ctx, account.Id)
	if err != nil {
		zap.L().Fatal("Failed to list payment keys", zap.Error(err))
	}

	common.PrintHeader("ACCOUNT CREATED", common.DefaultWidth)
	fmt.Printf("ID:     %s\n", account.Id)
	fmt.Printf("Name:   %s\n", account.Name)
	fmt.Printf("CPF:    %s\n", account.NationalId)
	if account.Email != "" {
		fmt.Printf("Email:  %s\n", account.Email)
	}
	fmt.Printf("BRL:    %s\n", common.FormatBRL(account.BalanceBRL))
	for _, key := range keys {
		fmt.Printf("PIX:    %s (%s)\n", key.KeyValue, key.KeyType)
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Account created successfully", zap.String("id", account.Id))
}
