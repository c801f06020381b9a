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

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/store"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.LedgerStore.
var _ store.LedgerStore = (*Service)(nil)

type Service struct {
	db  *sql.DB
	now func() time.Time
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := newService(db)
	if err := service.initSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func newService(db *sql.DB) *Service {
	return &Service{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema(ctx context.Context) error {
	schema := `
	-- Accounts carry the three balances; version backs optimistic locking
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		national_id TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		balance_brl TEXT NOT NULL DEFAULT '0.00',
		balance_stable TEXT NOT NULL DEFAULT '0.00000000',
		total_invested TEXT NOT NULL DEFAULT '0.00',
		is_active BOOLEAN NOT NULL DEFAULT 1,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payment_keys (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		key_type TEXT NOT NULL,
		key_value TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payment_keys_account ON payment_keys(account_id);
	CREATE INDEX IF NOT EXISTS idx_payment_keys_value ON payment_keys(key_value);

	-- Transfers and conversions are append-only
	CREATE TABLE IF NOT EXISTS transfers (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		direction TEXT NOT NULL,
		amount TEXT NOT NULL,
		recipient_name TEXT NOT NULL DEFAULT '',
		recipient_key TEXT NOT NULL DEFAULT '',
		sender_name TEXT NOT NULL DEFAULT '',
		sender_key TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transfers_account_created ON transfers(account_id, created_at);

	CREATE TABLE IF NOT EXISTS conversions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		direction TEXT NOT NULL,
		amount_brl TEXT NOT NULL,
		amount_stable TEXT NOT NULL,
		rate TEXT NOT NULL,
		fee TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_conversions_account_created ON conversions(account_id, created_at);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		risk TEXT NOT NULL DEFAULT '',
		minimum_amount TEXT NOT NULL,
		expected_return TEXT NOT NULL,
		liquidity TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS positions (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		current_value TEXT NOT NULL,
		return_amount TEXT NOT NULL,
		return_percentage TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_positions_account_created ON positions(account_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_positions_status ON positions(status);

	-- Audit trail of every committed balance change
	CREATE TABLE IF NOT EXISTS balance_changes (
		id TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		brl_before TEXT NOT NULL,
		brl_after TEXT NOT NULL,
		stable_before TEXT NOT NULL,
		stable_after TEXT NOT NULL,
		invested_before TEXT NOT NULL,
		invested_after TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_balance_changes_account ON balance_changes(account_id);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
