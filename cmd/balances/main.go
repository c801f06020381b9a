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
	"inwista-wallet-go/internal/models"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalAccounts    int
	totals           models.Balances
	accountsInvested int
	totalPositions   int
}

func printAccountHeader(account models.Account, positionCount int) {
	fmt.Printf("\n┌─ Account: %s (%s)\n", account.Name, account.NationalId)
	fmt.Printf("│  ID: %s\n", account.Id)
	fmt.Printf("│  Version: %d, Positions: %d\n", account.Version, positionCount)
	common.PrintBoxSeparator(78)
}

func printBalances(account models.Account) {
	fmt.Printf("%s %-15s: %24s\n", common.BoxPrefix(false), "BRL", common.FormatBRL(account.BalanceBRL))
	fmt.Printf("%s %-15s: %24s\n", common.BoxPrefix(false), "Stable", common.FormatStable(account.BalanceStable))
	fmt.Printf("%s %-15s: %24s\n", common.BoxPrefix(true), "Invested", common.FormatBRL(account.TotalInvested))
}

func printHoldings(holdings []api.Holding) {
	for i, h := range holdings {
		fmt.Printf("   %s %-24s %14s -> %14s (%s%%)\n",
			common.BoxPrefix(i == len(holdings)-1),
			h.ProductName,
			common.FormatBRL(h.Amount),
			common.FormatBRL(h.CurrentValue),
			h.ReturnPercentage.StringFixed(models.ScalePercent))
	}
}

func processAccountsAndGenerateReport(ctx context.Context, accounts []models.Account, wallet *api.LedgerService, logger *zap.Logger) balanceStats {
	stats := balanceStats{}

	for _, account := range accounts {
		stats.totalAccounts++
		stats.totals.BRL = stats.totals.BRL.Add(account.BalanceBRL)
		stats.totals.Stable = stats.totals.Stable.Add(account.BalanceStable)
		stats.totals.TotalInvested = stats.totals.TotalInvested.Add(account.TotalInvested)

		holdings, err := wallet.Portfolio(ctx, account.Id)
		if err != nil {
			logger.Error("Failed to load portfolio",
				zap.String("account_id", account.Id),
				zap.String("account_name", account.Name),
				zap.Error(err))
			continue
		}

		printAccountHeader(account, len(holdings))
		printBalances(account)
		printHoldings(holdings)

		if len(holdings) > 0 {
			stats.accountsInvested++
			stats.totalPositions += len(holdings)
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	// Parse command line flags
	cpfFlag := flag.String("cpf", "", "Filter by a specific national id (optional)")
	flag.Parse()

	logger.Info("Starting balance query")

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

	common.PrintHeader("ACCOUNT BALANCE REPORT", common.DefaultWidth)

	stats := processAccountsAndGenerateReport(ctx, accounts, services.Wallet, logger)

	summary := fmt.Sprintf("SUMMARY: %d accounts holding %s and %s, %s invested in %d positions across %d accounts",
		stats.totalAccounts,
		common.FormatBRL(stats.totals.BRL),
		common.FormatStable(stats.totals.Stable),
		common.FormatBRL(stats.totals.TotalInvested),
		stats.totalPositions,
		stats.accountsInvested)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("accounts_queried", stats.totalAccounts),
		zap.Int("accounts_invested", stats.accountsInvested),
		zap.Int("total_positions", stats.totalPositions))
}
