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

package models

import (
	"time"
)

// AccountView is the public projection of an account (password never leaves the service)
type AccountView struct {
	Id            string    `json:"id"`
	NationalId    string    `json:"cpf"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	BalanceBRL    string    `json:"balanceBRL"`
	BalanceStable string    `json:"balanceStable"`
	TotalInvested string    `json:"totalInvested"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewAccountView renders balances at their ledger scale
func NewAccountView(a *Account) AccountView {
	return AccountView{
		Id:            a.Id,
		NationalId:    a.NationalId,
		Name:          a.Name,
		Email:         a.Email,
		Phone:         a.Phone,
		BalanceBRL:    a.BalanceBRL.StringFixed(ScaleBRL),
		BalanceStable: a.BalanceStable.StringFixed(ScaleStable),
		TotalInvested: a.TotalInvested.StringFixed(ScaleBRL),
		IsActive:      a.IsActive,
		CreatedAt:     a.CreatedAt,
	}
}

// PaymentKeyView is the wire shape of a payment key
type PaymentKeyView struct {
	Id        string    `json:"id"`
	AccountId string    `json:"userId"`
	KeyType   string    `json:"keyType"`
	KeyValue  string    `json:"keyValue"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewPaymentKeyView(k *PaymentKey) PaymentKeyView {
	return PaymentKeyView{
		Id:        k.Id,
		AccountId: k.AccountId,
		KeyType:   k.KeyType,
		KeyValue:  k.KeyValue,
		CreatedAt: k.CreatedAt,
	}
}

// TransferView is the wire shape of a PIX record
type TransferView struct {
	Id            string    `json:"id"`
	AccountId     string    `json:"userId"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	RecipientName *string   `json:"recipientName"`
	RecipientKey  *string   `json:"recipientKey"`
	SenderName    *string   `json:"senderName"`
	SenderKey     *string   `json:"senderKey"`
	Description   *string   `json:"description"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

func NewTransferView(t *Transfer) TransferView {
	return TransferView{
		Id:            t.Id,
		AccountId:     t.AccountId,
		Type:          t.Direction,
		Amount:        t.Amount.StringFixed(ScaleBRL),
		RecipientName: nullable(t.RecipientName),
		RecipientKey:  nullable(t.RecipientKey),
		SenderName:    nullable(t.SenderName),
		SenderKey:     nullable(t.SenderKey),
		Description:   nullable(t.Description),
		Status:        t.Status,
		CreatedAt:     t.CreatedAt,
	}
}

// ConversionView is the wire shape of a stablecoin record
type ConversionView struct {
	Id           string    `json:"id"`
	AccountId    string    `json:"userId"`
	Type         string    `json:"type"`
	AmountBRL    string    `json:"amountBRL"`
	AmountStable string    `json:"amountStable"`
	Rate         string    `json:"rate"`
	Fee          string    `json:"fee"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewConversionView(c *Conversion) ConversionView {
	return ConversionView{
		Id:           c.Id,
		AccountId:    c.AccountId,
		Type:         c.Direction,
		AmountBRL:    c.AmountBRL.StringFixed(ScaleBRL),
		AmountStable: c.AmountStable.StringFixed(ScaleStable),
		Rate:         c.Rate.StringFixed(ScaleRate),
		Fee:          c.Fee.StringFixed(ScaleBRL),
		Status:       c.Status,
		CreatedAt:    c.CreatedAt,
	}
}

// ProductView is the wire shape of a catalog entry
type ProductView struct {
	Id             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Risk           string `json:"risk"`
	MinimumAmount  string `json:"minimumAmount"`
	ExpectedReturn string `json:"expectedReturn"`
	Liquidity      string `json:"liquidity"`
	Description    string `json:"description,omitempty"`
	IsActive       bool   `json:"isActive"`
}

func NewProductView(p *Product) ProductView {
	return ProductView{
		Id:             p.Id,
		Name:           p.Name,
		Category:       p.Category,
		Risk:           p.Risk,
		MinimumAmount:  p.MinimumAmount.StringFixed(ScaleBRL),
		ExpectedReturn: p.ExpectedReturn.StringFixed(ScalePercent),
		Liquidity:      p.Liquidity,
		Description:    p.Description,
		IsActive:       p.IsActive,
	}
}

// PositionView is the wire shape of an investment position, optionally joined with its product name
type PositionView struct {
	Id               string    `json:"id"`
	AccountId        string    `json:"userId"`
	ProductId        string    `json:"productId"`
	ProductName      string    `json:"productName,omitempty"`
	Amount           string    `json:"amount"`
	CurrentValue     string    `json:"currentValue"`
	ReturnAmount     string    `json:"returnAmount"`
	ReturnPercentage string    `json:"returnPercentage"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func NewPositionView(p *Position, productName string) PositionView {
	return PositionView{
		Id:               p.Id,
		AccountId:        p.AccountId,
		ProductId:        p.ProductId,
		ProductName:      productName,
		Amount:           p.Amount.StringFixed(ScaleBRL),
		CurrentValue:     p.CurrentValue.StringFixed(ScaleBRL),
		ReturnAmount:     p.ReturnAmount.StringFixed(ScaleBRL),
		ReturnPercentage: p.ReturnPercentage.StringFixed(ScalePercent),
		Status:           p.Status,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// RateView is the current synthetic BRL/stable rate
type RateView struct {
	Rate      string    `json:"rate"`
	Spread    string    `json:"spread"`
	Timestamp time.Time `json:"timestamp"`
}

// LoginResult is returned by a successful password check; a second factor is still required
type LoginResult struct {
	AccountId     string `json:"userId"`
	Name          string `json:"name"`
	RequiresTwoFA bool   `json:"requiresTwoFA"`
}

// SessionUser is the account summary handed back after the second factor
type SessionUser struct {
	Id         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	NationalId string `json:"cpf"`
}

// SessionResult carries the session token issued after two-factor verification
type SessionResult struct {
	Success   bool        `json:"success"`
	User      SessionUser `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// RegistrationResult is returned after an account is opened
type RegistrationResult struct {
	Success   bool   `json:"success"`
	AccountId string `json:"userId"`
	Message   string `json:"message"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
