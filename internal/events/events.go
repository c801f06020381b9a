package events

import "time"

// Routing keys on the wallet exchange.
const (
	AccountRegistered   = "account.registered"
	PixSent             = "pix.sent"
	PixReceived         = "pix.received"
	StablecoinConverted = "stablecoin.converted"
	InvestmentCreated   = "investment.created"
	PositionsRevalued   = "investment.revalued"
)

type AccountRegisteredEvent struct {
	AccountId string    `json:"userId"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

type PixEvent struct {
	TransferId   string    `json:"transactionId"`
	AccountId    string    `json:"userId"`
	Amount       string    `json:"amount"`
	Counterparty string    `json:"counterparty,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

type ConversionEvent struct {
	ConversionId string    `json:"transactionId"`
	AccountId    string    `json:"userId"`
	Type         string    `json:"type"`
	AmountBRL    string    `json:"amountBRL"`
	AmountStable string    `json:"amountStable"`
	Rate         string    `json:"rate"`
	Fee          string    `json:"fee"`
	Timestamp    time.Time `json:"timestamp"`
}

type InvestmentEvent struct {
	PositionId string    `json:"investmentId"`
	AccountId  string    `json:"userId"`
	ProductId  string    `json:"productId"`
	Amount     string    `json:"amount"`
	Timestamp  time.Time `json:"timestamp"`
}

type RevaluationEvent struct {
	Updated   int       `json:"updated"`
	Timestamp time.Time `json:"timestamp"`
}
