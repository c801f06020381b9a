package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"inwista-wallet-go/internal/api"
	"inwista-wallet-go/internal/auth"
	"inwista-wallet-go/internal/config"
	"inwista-wallet-go/internal/database"
	"inwista-wallet-go/internal/events"
	"inwista-wallet-go/internal/memory"
	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Store     store.LedgerStore
	Publisher events.Publisher
	Tokens    *auth.TokenIssuer
	Wallet    *api.LedgerService
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeStore opens the configured ledger backend and loads seed data into it.
func InitializeStore(ctx context.Context, cfg *models.Config) (store.LedgerStore, error) {
	var ledger store.LedgerStore
	switch cfg.Database.Backend {
	case config.BackendSQLite:
		dbService, err := database.NewService(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		ledger = dbService
	case config.BackendMemory, "":
		ledger = memory.NewService()
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Database.Backend)
	}
	zap.L().Info("Ledger store ready", zap.String("backend", backendName(cfg.Database.Backend)))

	if err := seedStore(ctx, ledger, cfg); err != nil {
		ledger.Close()
		return nil, err
	}
	return ledger, nil
}

func seedStore(ctx context.Context, ledger store.LedgerStore, cfg *models.Config) error {
	var seed *SeedData
	switch {
	case cfg.Database.SeedFile != "":
		zap.L().Info("Loading seed file", zap.String("file", cfg.Database.SeedFile))
		data, err := LoadSeedData(cfg.Database.SeedFile)
		if err != nil {
			return err
		}
		seed = data
	case cfg.Database.SeedDemoData:
		seed = DefaultSeedData()
	default:
		return nil
	}
	return SeedLedger(ctx, ledger, seed, cfg.Auth.BcryptCost)
}

// InitializeServices builds the store, event publisher, token issuer and wallet service.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	ledger, err := InitializeStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher := events.NewPublisher(cfg.Events)
	tokens := auth.NewTokenIssuer(cfg.Auth)

	return &Services{
		Store:     ledger,
		Publisher: publisher,
		Tokens:    tokens,
		Wallet:    api.NewLedgerService(ledger, cfg, tokens, publisher),
	}, nil
}

func (cs *Services) Close() {
	if cs.Publisher != nil {
		cs.Publisher.Close()
	}
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func backendName(backend string) string {
	if backend == "" {
		return config.BackendMemory
	}
	return backend
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
