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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"inwista-wallet-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// DefaultTokenSecret signs session tokens when TOKEN_SECRET is unset. It is
// public, so anyone can mint tokens for a server running with it.
const DefaultTokenSecret = "inwista-demo-secret"

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	requestTimeout, err := getEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	tokenTTL, err := getEnvDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	baseRate, err := getEnvDecimal("STABLECOIN_BASE_RATE", decimal.RequireFromString("5.25"))
	if err != nil {
		return nil, err
	}

	spread, err := getEnvDecimal("STABLECOIN_SPREAD", decimal.RequireFromString("0.005"))
	if err != nil {
		return nil, err
	}
	if spread.IsNegative() || spread.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("invalid spread for STABLECOIN_SPREAD: %s (must be in [0, 1))", spread)
	}
	if !baseRate.IsPositive() {
		return nil, fmt.Errorf("invalid base rate for STABLECOIN_BASE_RATE: %s (must be positive)", baseRate)
	}

	backend := getEnvString("LEDGER_BACKEND", BackendMemory)
	if backend != BackendMemory && backend != BackendSQLite {
		return nil, fmt.Errorf("invalid ledger backend for LEDGER_BACKEND: %q", backend)
	}

	tokenSecret := getEnvString("TOKEN_SECRET", DefaultTokenSecret)
	if tokenSecret == DefaultTokenSecret {
		zap.L().Warn("TOKEN_SECRET is not set, signing session tokens with the public demo secret")
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Backend:         backend,
			Path:            getEnvString("DATABASE_PATH", "wallet.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			SeedDemoData:    getEnvBool("SEED_DEMO_DATA", true),
			SeedFile:        getEnvString("SEED_FILE", ""),
		},
		Server: models.ServerConfig{
			Port:            getEnvString("PORT", "5000"),
			EnableH2C:       getEnvBool("ENABLE_H2C", true),
			ShutdownTimeout: shutdownTimeout,
			RequestTimeout:  requestTimeout,
		},
		Auth: models.AuthConfig{
			TokenSecret: tokenSecret,
			TokenTTL:    tokenTTL,
			BcryptCost:  getEnvInt("BCRYPT_COST", 10),
		},
		Stablecoin: models.StablecoinConfig{
			BaseRate:          baseRate,
			Spread:            spread,
			MaxCommitAttempts: max(getEnvInt("MAX_COMMIT_ATTEMPTS", 3), 1),
		},
		Events: models.EventsConfig{
			RabbitMQURL: getEnvString("RABBITMQ_URL", ""),
			Exchange:    getEnvString("EVENTS_EXCHANGE", "wallet.events"),
		},
		Jobs: models.JobsConfig{
			RevaluationSchedule: getEnvString("REVALUATION_SCHEDULE", "@every 1h"),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
