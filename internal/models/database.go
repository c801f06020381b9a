package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Decimal scales used when amounts are written to the ledger
const (
	ScaleBRL     int32 = 2
	ScaleStable  int32 = 8
	ScaleRate    int32 = 6
	ScalePercent int32 = 2
)

const (
	StatusCompleted = "completed"
	StatusActive    = "active"

	DirectionSent     = "sent"
	DirectionReceived = "received"
	DirectionBuy      = "buy"
	DirectionSell     = "sell"

	KeyTypeNationalId = "cpf"
	KeyTypeRandom     = "random"
	KeyTypeEmail      = "email"
	KeyTypePhone      = "phone"

	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Account represents a wallet holder and its balances
type Account struct {
	Id            string          `db:"id"`
	NationalId    string          `db:"national_id"`
	PasswordHash  string          `db:"password_hash"`
	Name          string          `db:"name"`
	Email         string          `db:"email"`
	Phone         string          `db:"phone"`
	BalanceBRL    decimal.Decimal `db:"balance_brl"`
	BalanceStable decimal.Decimal `db:"balance_stable"`
	TotalInvested decimal.Decimal `db:"total_invested"`
	IsActive      bool            `db:"is_active"`
	Version       int64           `db:"version"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Balances returns the three mutable balance fields of the account
func (a Account) Balances() Balances {
	return Balances{
		BRL:           a.BalanceBRL,
		Stable:        a.BalanceStable,
		TotalInvested: a.TotalInvested,
	}
}

// Balances is the set of balance fields overwritten together
type Balances struct {
	BRL           decimal.Decimal
	Stable        decimal.Decimal
	TotalInvested decimal.Decimal
}

// Rounded applies the ledger scales to every field
func (b Balances) Rounded() Balances {
	return Balances{
		BRL:           b.BRL.Round(ScaleBRL),
		Stable:        b.Stable.Round(ScaleStable),
		TotalInvested: b.TotalInvested.Round(ScaleBRL),
	}
}

// PaymentKey is a PIX key an account can be paid to
type PaymentKey struct {
	Id        string    `db:"id"`
	AccountId string    `db:"account_id"`
	KeyType   string    `db:"key_type"`
	KeyValue  string    `db:"key_value"`
	CreatedAt time.Time `db:"created_at"`
}

// Transfer represents an immutable PIX record (cold data)
type Transfer struct {
	Id            string          `db:"id"`
	AccountId     string          `db:"account_id"`
	Direction     string          `db:"direction"` // "sent", "received"
	Amount        decimal.Decimal `db:"amount"`
	RecipientName string          `db:"recipient_name"`
	RecipientKey  string          `db:"recipient_key"`
	SenderName    string          `db:"sender_name"`
	SenderKey     string          `db:"sender_key"`
	Description   string          `db:"description"`
	Status        string          `db:"status"`
	CreatedAt     time.Time       `db:"created_at"`
}

// Conversion represents an immutable stablecoin buy or sell
type Conversion struct {
	Id           string          `db:"id"`
	AccountId    string          `db:"account_id"`
	Direction    string          `db:"direction"` // "buy", "sell"
	AmountBRL    decimal.Decimal `db:"amount_brl"`
	AmountStable decimal.Decimal `db:"amount_stable"`
	Rate         decimal.Decimal `db:"rate"`
	Fee          decimal.Decimal `db:"fee"`
	Status       string          `db:"status"`
	CreatedAt    time.Time       `db:"created_at"`
}

// Product is an investment catalog entry
type Product struct {
	Id             string          `db:"id"`
	Name           string          `db:"name"`
	Category       string          `db:"category"`
	Risk           string          `db:"risk"`
	MinimumAmount  decimal.Decimal `db:"minimum_amount"`
	ExpectedReturn decimal.Decimal `db:"expected_return"` // percent per year
	Liquidity      string          `db:"liquidity"`
	Description    string          `db:"description"`
	IsActive       bool            `db:"is_active"`
}

// Position is an account's stake in a product
type Position struct {
	Id               string          `db:"id"`
	AccountId        string          `db:"account_id"`
	ProductId        string          `db:"product_id"`
	Amount           decimal.Decimal `db:"amount"`
	CurrentValue     decimal.Decimal `db:"current_value"`
	ReturnAmount     decimal.Decimal `db:"return_amount"`
	ReturnPercentage decimal.Decimal `db:"return_percentage"`
	Status           string          `db:"status"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}
