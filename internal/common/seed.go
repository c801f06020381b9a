package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"inwista-wallet-go/internal/api"
	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/store"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// DemoAccountId is fixed so clients keep working across restarts.
const DemoAccountId = "97d51a63-be52-462f-96cc-419c00a7c04c"

type SeedKey struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

type SeedAccount struct {
	Id            string    `yaml:"id"`
	NationalId    string    `yaml:"national_id"`
	Password      string    `yaml:"password"`
	Name          string    `yaml:"name"`
	Email         string    `yaml:"email"`
	Phone         string    `yaml:"phone"`
	BalanceBRL    string    `yaml:"balance_brl"`
	BalanceStable string    `yaml:"balance_stable"`
	TotalInvested string    `yaml:"total_invested"`
	Keys          []SeedKey `yaml:"keys"`
}

type SeedProduct struct {
	Name           string `yaml:"name"`
	Category       string `yaml:"category"`
	Risk           string `yaml:"risk"`
	MinimumAmount  string `yaml:"minimum_amount"`
	ExpectedReturn string `yaml:"expected_return"`
	Liquidity      string `yaml:"liquidity"`
	Description    string `yaml:"description"`
	Active         *bool  `yaml:"active"` // defaults to true
}

type SeedData struct {
	Accounts []SeedAccount `yaml:"accounts"`
	Products []SeedProduct `yaml:"products"`
}

// DefaultSeedData is the demo data loaded when no seed file is configured.
func DefaultSeedData() *SeedData {
	return &SeedData{
		Accounts: []SeedAccount{{
			Id:            DemoAccountId,
			NationalId:    "123.456.789-00",
			Password:      "123456",
			Name:          "Ana Maria Silva",
			Email:         "ana@inwista.com",
			Phone:         "(11) 98765-4321",
			BalanceBRL:    "15420.50",
			BalanceStable: "1250.75",
			TotalInvested: "8500.00",
			Keys: []SeedKey{
				{Type: models.KeyTypeNationalId, Value: "123.456.789-00"},
				{Type: models.KeyTypeRandom, Value: "3f8a9b2c-4d1e-5f6a-7b8c-9d0e1f2a3b4c"},
			},
		}},
		Products: []SeedProduct{
			{
				Name:           "CDB Liquidez Diária",
				Category:       "Renda Fixa",
				Risk:           models.RiskLow,
				MinimumAmount:  "100.00",
				ExpectedReturn: "12.50",
				Liquidity:      "Liquidez diária",
				Description:    "Invista com segurança e liquidez imediata",
			},
			{
				Name:           "Fundo Multimercado",
				Category:       "Fundos",
				Risk:           models.RiskMedium,
				MinimumAmount:  "500.00",
				ExpectedReturn: "15.80",
				Liquidity:      "D+30",
				Description:    "Diversificação com gestão profissional",
			},
			{
				Name:           "Tesouro Selic",
				Category:       "Renda Fixa",
				Risk:           models.RiskLow,
				MinimumAmount:  "50.00",
				ExpectedReturn: "11.20",
				Liquidity:      "D+1",
				Description:    "Investimento mais seguro do Brasil",
			},
			{
				Name:           "Ações Tech",
				Category:       "Renda Variável",
				Risk:           models.RiskHigh,
				MinimumAmount:  "1000.00",
				ExpectedReturn: "22.50",
				Liquidity:      "D+2",
				Description:    "Potencial de alta rentabilidade",
			},
		},
	}
}

// LoadSeedData reads a YAML seed file. Relative paths resolve against the working directory.
func LoadSeedData(seedFile string) (*SeedData, error) {
	seedPath := seedFile
	if !filepath.IsAbs(seedFile) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		seedPath = filepath.Join(wd, seedFile)
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", seedFile, err)
	}

	var seed SeedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", seedFile, err)
	}

	for i, account := range seed.Accounts {
		if account.NationalId == "" {
			return nil, fmt.Errorf("account at index %d missing national_id", i)
		}
		if account.Password == "" {
			return nil, fmt.Errorf("account at index %d missing password", i)
		}
	}
	for i, product := range seed.Products {
		if product.Name == "" {
			return nil, fmt.Errorf("product at index %d missing name", i)
		}
	}

	return &seed, nil
}

func parseSeedAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return d, nil
}

// SeedLedger inserts seed accounts and products that are not present yet.
// Accounts match on national id and products on name, so reseeding is a no-op.
func SeedLedger(ctx context.Context, ledger store.LedgerStore, seed *SeedData, bcryptCost int) error {
	for _, account := range seed.Accounts {
		if err := seedAccount(ctx, ledger, account, bcryptCost); err != nil {
			return fmt.Errorf("failed to seed account %s: %w", account.NationalId, err)
		}
	}

	for _, product := range seed.Products {
		_, err := ledger.FindProductByName(ctx, product.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrProductNotFound) {
			return fmt.Errorf("failed to look up product %s: %w", product.Name, err)
		}

		minimum, err := parseSeedAmount("minimum_amount", product.MinimumAmount)
		if err != nil {
			return err
		}
		expected, err := parseSeedAmount("expected_return", product.ExpectedReturn)
		if err != nil {
			return err
		}

		created, err := ledger.CreateProduct(ctx, store.CreateProductParams{
			Name:           product.Name,
			Category:       product.Category,
			Risk:           product.Risk,
			MinimumAmount:  minimum,
			ExpectedReturn: expected,
			Liquidity:      product.Liquidity,
			Description:    product.Description,
			IsActive:       lo.FromPtrOr(product.Active, true),
		})
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", product.Name, err)
		}
		zap.L().Info("Seeded product", zap.String("product_id", created.Id), zap.String("name", created.Name))
	}

	return nil
}

func seedAccount(ctx context.Context, ledger store.LedgerStore, account SeedAccount, bcryptCost int) error {
	_, err := ledger.GetAccountByNationalId(ctx, account.NationalId)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrAccountNotFound) {
		return err
	}

	brl, err := parseSeedAmount("balance_brl", account.BalanceBRL)
	if err != nil {
		return err
	}
	stable, err := parseSeedAmount("balance_stable", account.BalanceStable)
	if err != nil {
		return err
	}
	invested, err := parseSeedAmount("total_invested", account.TotalInvested)
	if err != nil {
		return err
	}
	hash, err := api.HashPassword(account.Password, bcryptCost)
	if err != nil {
		return err
	}

	accountId := account.Id
	if accountId == "" {
		accountId = uuid.New().String()
	}

	result, err := ledger.Commit(ctx, store.Mutation{
		Accounts: []store.CreateAccountParams{{
			Id:            accountId,
			NationalId:    account.NationalId,
			PasswordHash:  hash,
			Name:          account.Name,
			Email:         account.Email,
			Phone:         account.Phone,
			BalanceBRL:    brl,
			BalanceStable: stable,
			TotalInvested: invested,
		}},
		PaymentKeys: lo.Map(account.Keys, func(key SeedKey, _ int) store.CreatePaymentKeyParams {
			return store.CreatePaymentKeyParams{AccountId: accountId, KeyType: key.Type, KeyValue: key.Value}
		}),
	})
	if err != nil {
		return err
	}
	created := result.Accounts[0]

	zap.L().Info("Seeded account",
		zap.String("account_id", created.Id),
		zap.String("name", created.Name),
		zap.Int("keys", len(account.Keys)))
	return nil
}
