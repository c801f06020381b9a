package common

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"inwista-wallet-go/internal/config"
	"inwista-wallet-go/internal/memory"
	"inwista-wallet-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestSeedLedgerDefaults(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewService()

	require.NoError(t, SeedLedger(ctx, ledger, DefaultSeedData(), bcrypt.MinCost))

	ana, err := ledger.GetAccountByNationalId(ctx, "123.456.789-00")
	require.NoError(t, err)
	assert.Equal(t, DemoAccountId, ana.Id)
	assert.Equal(t, "Ana Maria Silva", ana.Name)
	assert.Equal(t, "15420.50", ana.BalanceBRL.StringFixed(2))
	assert.Equal(t, "1250.75", ana.BalanceStable.StringFixed(2))
	assert.Equal(t, "8500.00", ana.TotalInvested.StringFixed(2))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(ana.PasswordHash), []byte("123456")))

	keys, err := ledger.ListPaymentKeys(ctx, ana.Id)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, models.KeyTypeNationalId, keys[0].KeyType)
	assert.Equal(t, models.KeyTypeRandom, keys[1].KeyType)

	products, err := ledger.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 4)
	assert.Equal(t, "CDB Liquidez Diária", products[0].Name)
	assert.Equal(t, "100.00", products[0].MinimumAmount.StringFixed(2))
	assert.Equal(t, "22.50", products[3].ExpectedReturn.StringFixed(2))
}

func TestSeedLedgerIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewService()

	require.NoError(t, SeedLedger(ctx, ledger, DefaultSeedData(), bcrypt.MinCost))
	require.NoError(t, SeedLedger(ctx, ledger, DefaultSeedData(), bcrypt.MinCost))

	accounts, err := ledger.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	keys, err := ledger.ListPaymentKeys(ctx, DemoAccountId)
	require.NoError(t, err)
	assert.Len(t, keys, 2)

	products, err := ledger.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 4)
}

func TestSeedLedgerRejectsBadAmounts(t *testing.T) {
	seed := &SeedData{Accounts: []SeedAccount{{NationalId: "111.111.111-11", Password: "123456", BalanceBRL: "lots"}}}
	err := SeedLedger(context.Background(), memory.NewService(), seed, bcrypt.MinCost)
	assert.ErrorContains(t, err, "balance_brl")
}

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSeedData(t *testing.T) {
	path := writeSeedFile(t, `
accounts:
  - national_id: "222.333.444-55"
    password: "abcdef"
    name: "Carla Dias"
    balance_brl: "300.00"
    keys:
      - type: email
        value: carla@example.com
products:
  - name: "Debênture Incentivada"
    category: "Renda Fixa"
    risk: medium
    minimum_amount: "1000"
    expected_return: "13.4"
    liquidity: "D+90"
    active: false
`)

	seed, err := LoadSeedData(path)
	require.NoError(t, err)
	require.Len(t, seed.Accounts, 1)
	assert.Equal(t, "Carla Dias", seed.Accounts[0].Name)
	require.Len(t, seed.Accounts[0].Keys, 1)
	assert.Equal(t, "carla@example.com", seed.Accounts[0].Keys[0].Value)
	require.Len(t, seed.Products, 1)
	require.NotNil(t, seed.Products[0].Active)
	assert.False(t, *seed.Products[0].Active)

	ctx := context.Background()
	ledger := memory.NewService()
	require.NoError(t, SeedLedger(ctx, ledger, seed, bcrypt.MinCost))

	carla, err := ledger.GetAccountByNationalId(ctx, "222.333.444-55")
	require.NoError(t, err)
	key, err := ledger.FindPaymentKey(ctx, "carla@example.com")
	require.NoError(t, err)
	assert.Equal(t, carla.Id, key.AccountId)

	debenture, err := ledger.FindProductByName(ctx, "Debênture Incentivada")
	require.NoError(t, err)
	assert.False(t, debenture.IsActive)
	assert.Equal(t, "1000.00", debenture.MinimumAmount.StringFixed(2))

	products, err := ledger.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestReseedingKeepsInactiveProductsUnique(t *testing.T) {
	ctx := context.Background()
	seedPath := writeSeedFile(t, `
products:
  - name: "Debênture Incentivada"
    category: "Renda Fixa"
    risk: medium
    minimum_amount: "1000"
    expected_return: "13.4"
    liquidity: "D+90"
    active: false
`)
	dbPath := filepath.Join(t.TempDir(), "wallet.db")
	cfg := &models.Config{
		Database: models.DatabaseConfig{
			Backend:      config.BackendSQLite,
			Path:         dbPath,
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			PingTimeout:  time.Second,
			SeedFile:     seedPath,
		},
		Auth: models.AuthConfig{BcryptCost: bcrypt.MinCost},
	}

	for i := 0; i < 3; i++ {
		ledger, err := InitializeStore(ctx, cfg)
		require.NoError(t, err)
		ledger.Close()
	}

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products WHERE name = ?", "Debênture Incentivada").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestLoadSeedDataErrors(t *testing.T) {
	_, err := LoadSeedData(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadSeedData(writeSeedFile(t, "accounts: [\n"))
	assert.Error(t, err)

	_, err = LoadSeedData(writeSeedFile(t, "accounts:\n  - password: x\n"))
	assert.ErrorContains(t, err, "national_id")

	_, err = LoadSeedData(writeSeedFile(t, "products:\n  - category: Fundos\n"))
	assert.ErrorContains(t, err, "name")
}

func TestInitializeStoreBackends(t *testing.T) {
	ctx := context.Background()

	cfg := &models.Config{
		Database: models.DatabaseConfig{Backend: config.BackendMemory, SeedDemoData: true},
		Auth:     models.AuthConfig{BcryptCost: bcrypt.MinCost},
	}
	ledger, err := InitializeStore(ctx, cfg)
	require.NoError(t, err)
	_, err = ledger.GetAccount(ctx, DemoAccountId)
	assert.NoError(t, err)
	ledger.Close()

	cfg.Database = models.DatabaseConfig{
		Backend:      config.BackendSQLite,
		Path:         filepath.Join(t.TempDir(), "wallet.db"),
		MaxOpenConns: 2,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
		SeedDemoData: true,
	}
	ledger, err = InitializeStore(ctx, cfg)
	require.NoError(t, err)
	products, err := ledger.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 4)
	ledger.Close()

	cfg.Database = models.DatabaseConfig{Backend: "postgres"}
	_, err = InitializeStore(ctx, cfg)
	assert.Error(t, err)
}

func TestLookupAccounts(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewService()
	require.NoError(t, SeedLedger(ctx, ledger, DefaultSeedData(), bcrypt.MinCost))

	all, err := LookupAccounts(ctx, ledger, "", zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	one, err := LookupAccounts(ctx, ledger, "123.456.789-00", zap.NewNop())
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, DemoAccountId, one[0].Id)

	_, err = LookupAccounts(ctx, ledger, "000.000.000-00", zap.NewNop())
	assert.Error(t, err)
}
