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

package database

const (
	// Account queries
	accountColumns = `id, national_id, password_hash, name, email, phone,
		balance_brl, balance_stable, total_invested, is_active, version, created_at`

	queryInsertAccount = `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetAccountById = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ?`

	queryGetAccountByNationalId = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE national_id = ?`

	queryGetActiveAccounts = `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE is_active = 1
		ORDER BY rowid`

	queryGetAccountVersion = `
		SELECT version FROM accounts WHERE id = ?`

	queryOverwriteAccountBalances = `
		UPDATE accounts
		SET balance_brl = ?, balance_stable = ?, total_invested = ?, version = version + 1
		WHERE id = ?`

	queryUpdateAccountBalancesVersioned = `
		UPDATE accounts
		SET balance_brl = ?, balance_stable = ?, total_invested = ?, version = version + 1
		WHERE id = ? AND version = ?`

	queryInsertBalanceChange = `
		INSERT INTO balance_changes (
			id, account_id, version, brl_before, brl_after, stable_before, stable_after,
			invested_before, invested_after, created_at
		)
		SELECT ?, id, version, balance_brl, ?, balance_stable, ?, total_invested, ?, ?
		FROM accounts
		WHERE id = ?`

	queryGetBalanceChangeCount = `
		SELECT COUNT(*) FROM balance_changes WHERE account_id = ?`

	// Payment key queries
	queryInsertPaymentKey = `
		INSERT INTO payment_keys (id, account_id, key_type, key_value, created_at)
		VALUES (?, ?, ?, ?, ?)`

	queryGetPaymentKeys = `
		SELECT id, account_id, key_type, key_value, created_at
		FROM payment_keys
		WHERE account_id = ?
		ORDER BY rowid`

	queryFindPaymentKey = `
		SELECT id, account_id, key_type, key_value, created_at
		FROM payment_keys
		WHERE key_value = ?
		ORDER BY rowid
		LIMIT 1`

	// Transfer queries
	queryInsertTransfer = `
		INSERT INTO transfers (
			id, account_id, direction, amount, recipient_name, recipient_key,
			sender_name, sender_key, description, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransfers = `
		SELECT id, account_id, direction, amount, recipient_name, recipient_key,
		       sender_name, sender_key, description, status, created_at
		FROM transfers
		WHERE account_id = ?
		ORDER BY created_at DESC, rowid DESC`

	// Conversion queries
	queryInsertConversion = `
		INSERT INTO conversions (
			id, account_id, direction, amount_brl, amount_stable, rate, fee, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetConversions = `
		SELECT id, account_id, direction, amount_brl, amount_stable, rate, fee, status, created_at
		FROM conversions
		WHERE account_id = ?
		ORDER BY created_at DESC, rowid DESC`

	// Product queries
	productColumns = `id, name, category, risk, minimum_amount, expected_return, liquidity, description, is_active`

	queryInsertProduct = `
		INSERT INTO products (` + productColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetActiveProducts = `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active = 1
		ORDER BY rowid`

	queryGetProductById = `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ?`

	queryGetProductByName = `
		SELECT ` + productColumns + `
		FROM products
		WHERE name = ?
		ORDER BY rowid
		LIMIT 1`

	// Position queries
	positionColumns = `id, account_id, product_id, amount, current_value, return_amount,
		return_percentage, status, created_at, updated_at`

	queryInsertPosition = `
		INSERT INTO positions (` + positionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetPositions = `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE account_id = ?
		ORDER BY created_at DESC, rowid DESC`

	queryGetActivePositions = `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE status = 'active'
		ORDER BY rowid`

	queryUpdatePosition = `
		UPDATE positions
		SET current_value = ?, return_amount = ?, return_percentage = ?, updated_at = ?
		WHERE id = ?`
)
