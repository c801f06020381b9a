package stablecoin

import (
	"time"

	"inwista-wallet-go/internal/models"

	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Rate is the synthetic BRL per stable unit price and the spread applied on
// each side of it.
type Rate struct {
	Base   decimal.Decimal
	Spread decimal.Decimal
}

func NewRate(base, spread decimal.Decimal) Rate {
	return Rate{Base: base, Spread: spread}
}

// Quote is the full breakdown of one conversion.
//
// For a buy, AmountBRL is what the caller asked to spend and DebitBRL is what
// leaves the account (AmountBRL plus Fee). For a sell, AmountBRL is the gross
// proceeds and CreditBRL is what reaches the account (gross minus Fee).
type Quote struct {
	Direction    string
	AmountBRL    decimal.Decimal
	AmountStable decimal.Decimal
	Rate         decimal.Decimal
	Fee          decimal.Decimal
	DebitBRL     decimal.Decimal
	CreditBRL    decimal.Decimal
}

// QuoteBuy prices spending amountBRL on stable units. The spread is charged
// twice: once in the marked-up rate and again as an explicit fee.
func (r Rate) QuoteBuy(amountBRL decimal.Decimal) Quote {
	rate := r.Base.Mul(one.Add(r.Spread))
	fee := amountBRL.Mul(r.Spread).Round(models.ScaleBRL)
	return Quote{
		Direction:    models.DirectionBuy,
		AmountBRL:    amountBRL.Round(models.ScaleBRL),
		AmountStable: amountBRL.DivRound(rate, models.ScaleStable),
		Rate:         rate.Round(models.ScaleRate),
		Fee:          fee,
		DebitBRL:     amountBRL.Add(fee).Round(models.ScaleBRL),
	}
}

// QuoteSell prices selling amountStable units. As with buys the spread shows
// up in both the marked-down rate and the fee on the gross proceeds.
func (r Rate) QuoteSell(amountStable decimal.Decimal) Quote {
	rate := r.Base.Mul(one.Sub(r.Spread))
	gross := amountStable.Mul(rate)
	fee := gross.Mul(r.Spread).Round(models.ScaleBRL)
	return Quote{
		Direction:    models.DirectionSell,
		AmountBRL:    gross.Round(models.ScaleBRL),
		AmountStable: amountStable.Round(models.ScaleStable),
		Rate:         rate.Round(models.ScaleRate),
		Fee:          fee,
		CreditBRL:    gross.Sub(fee).Round(models.ScaleBRL),
	}
}

// View renders the rate the way the public rate endpoint reports it.
func (r Rate) View(now time.Time) models.RateView {
	return models.RateView{
		Rate:      r.Base.String(),
		Spread:    r.Spread.String(),
		Timestamp: now.UTC(),
	}
}
