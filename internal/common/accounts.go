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

package common

import (
	"context"
	"fmt"

	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/store"

	"go.uber.org/zap"
)

// LookupAccounts retrieves accounts based on an optional national id filter.
// If nationalIdFilter is provided, returns the single matching account.
// If nationalIdFilter is empty, returns all accounts.
func LookupAccounts(ctx context.Context, ledger store.LedgerStore, nationalIdFilter string, logger *zap.Logger) ([]models.Account, error) {
	if nationalIdFilter != "" {
		logger.Info("Looking up account by national id", zap.String("national_id", nationalIdFilter))
		account, err := ledger.GetAccountByNationalId(ctx, nationalIdFilter)
		if err != nil {
			return nil, fmt.Errorf("account not found: %w", err)
		}
		return []models.Account{*account}, nil
	}

	accounts, err := ledger.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}

	logger.Info("Retrieved accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}
