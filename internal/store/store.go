package store

import (
	"context"
	"errors"

	"inwista-wallet-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrProductNotFound        = errors.New("product not found")
	ErrPaymentKeyNotFound     = errors.New("payment key not found")
	ErrDuplicateNationalId    = errors.New("national id already registered")
	ErrConcurrentModification = errors.New("concurrent modification detected")
)

// CreateAccountParams contains the registration fields of a new account.
// Zero seed balances mean the account opens empty.
type CreateAccountParams struct {
	Id            string // optional fixed id (seed data); generated when empty
	NationalId    string
	PasswordHash  string
	Name          string
	Email         string
	Phone         string
	BalanceBRL    decimal.Decimal
	BalanceStable decimal.Decimal
	TotalInvested decimal.Decimal
}

// CreatePaymentKeyParams contains the parameters for registering a PIX key.
type CreatePaymentKeyParams struct {
	AccountId string
	KeyType   string
	KeyValue  string
}

// CreateTransferParams captures one side of a PIX payment.
type CreateTransferParams struct {
	AccountId     string
	Direction     string
	Amount        decimal.Decimal
	RecipientName string
	RecipientKey  string
	SenderName    string
	SenderKey     string
	Description   string
}

// CreateConversionParams captures a stablecoin buy or sell.
type CreateConversionParams struct {
	AccountId    string
	Direction    string
	AmountBRL    decimal.Decimal
	AmountStable decimal.Decimal
	Rate         decimal.Decimal
	Fee          decimal.Decimal
}

// CreateProductParams describes a catalog entry.
type CreateProductParams struct {
	Name           string
	Category       string
	Risk           string
	MinimumAmount  decimal.Decimal
	ExpectedReturn decimal.Decimal
	Liquidity      string
	Description    string
	IsActive       bool
}

// CreatePositionParams describes a new investment position.
type CreatePositionParams struct {
	AccountId        string
	ProductId        string
	Amount           decimal.Decimal
	CurrentValue     decimal.Decimal
	ReturnAmount     decimal.Decimal
	ReturnPercentage decimal.Decimal
}

// BalanceChange moves an account from the balances observed at Version to Next.
// The change only applies if the account is still at ExpectedVersion.
type BalanceChange struct {
	AccountId       string
	ExpectedVersion int64
	Next            models.Balances
}

// Mutation is a set of writes committed as one unit: either every balance
// change and every record lands, or nothing does. New accounts are written
// first so payment keys in the same mutation may reference them.
type Mutation struct {
	Accounts    []CreateAccountParams
	PaymentKeys []CreatePaymentKeyParams
	Balances    []BalanceChange
	Transfers   []CreateTransferParams
	Conversions []CreateConversionParams
	Positions   []CreatePositionParams
}

// CommitResult holds the records created by a Mutation, in the order given.
type CommitResult struct {
	Accounts    []models.Account
	PaymentKeys []models.PaymentKey
	Transfers   []models.Transfer
	Conversions []models.Conversion
	Positions   []models.Position
}

// LedgerStore defines the contract that every backend (memory, SQLite) must satisfy.
type LedgerStore interface {
	// --- Accounts ---
	GetAccount(ctx context.Context, accountId string) (*models.Account, error)
	GetAccountByNationalId(ctx context.Context, nationalId string) (*models.Account, error)
	CreateAccount(ctx context.Context, params CreateAccountParams) (*models.Account, error)
	UpdateAccountBalances(ctx context.Context, accountId string, balances models.Balances) error
	ListAccounts(ctx context.Context) ([]models.Account, error)

	// --- Payment keys ---
	ListPaymentKeys(ctx context.Context, accountId string) ([]models.PaymentKey, error)
	CreatePaymentKey(ctx context.Context, params CreatePaymentKeyParams) (*models.PaymentKey, error)
	FindPaymentKey(ctx context.Context, keyValue string) (*models.PaymentKey, error)

	// --- Transfers ---
	ListTransfers(ctx context.Context, accountId string) ([]models.Transfer, error)
	CreateTransfer(ctx context.Context, params CreateTransferParams) (*models.Transfer, error)

	// --- Conversions ---
	ListConversions(ctx context.Context, accountId string) ([]models.Conversion, error)
	CreateConversion(ctx context.Context, params CreateConversionParams) (*models.Conversion, error)

	// --- Products ---
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, productId string) (*models.Product, error)
	// FindProductByName matches active and inactive products alike.
	FindProductByName(ctx context.Context, name string) (*models.Product, error)
	CreateProduct(ctx context.Context, params CreateProductParams) (*models.Product, error)

	// --- Positions ---
	ListPositions(ctx context.Context, accountId string) ([]models.Position, error)
	ListActivePositions(ctx context.Context) ([]models.Position, error)
	CreatePosition(ctx context.Context, params CreatePositionParams) (*models.Position, error)
	UpdatePosition(ctx context.Context, positionId string, currentValue, returnAmount, returnPercentage decimal.Decimal) error

	// --- Atomic commit ---
	Commit(ctx context.Context, m Mutation) (*CommitResult, error)

	// --- Lifecycle ---
	Close()
}
