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

	"inwista-wallet-go/internal/common"
	"inwista-wallet-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cpfFlag := flag.String("cpf", "", "Only list keys of this national id (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	accounts, err := common.LookupAccounts(ctx, services.Store, *cpfFlag, logger)
	if err != nil {
		logger.Fatal("Failed to look up accounts", zap.Error(err))
	}

	common.PrintHeader("PIX KEYS", common.WideWidth)

	total := 0
	for _, account := range accounts {
		keys, err := services.Wallet.ListPaymentKeys(ctx, account.Id)
		if err != nil {
			logger.Error("Failed to list keys", zap.String("account_id", account.Id), zap.Error(err))
			continue
		}

		fmt.Printf("\n┌─ %s (%s)\n", account.Name, account.Id)
		if len(keys) == 0 {
			fmt.Printf("%s no keys registered\n", common.BoxPrefix(true))
			continue
		}
		for i, key := range keys {
			fmt.Printf("%s %-8s %s\n", common.BoxPrefix(i == len(keys)-1), key.KeyType, key.KeyValue)
		}
		total += len(keys)
	}

	common.PrintFooter(fmt.Sprintf("SUMMARY: %d keys across %d accounts", total, len(accounts)), common.WideWidth)
}
