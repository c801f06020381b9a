package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"inwista-wallet-go/internal/api"
	"inwista-wallet-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// Handler adapts the wallet service to HTTP
type Handler struct {
	wallet *api.LedgerService
	now    func() time.Time
}

func NewHandler(wallet *api.LedgerService) *Handler {
	return &Handler{wallet: wallet, now: time.Now}
}

type registerRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

type loginRequest struct {
	CPF      string `json:"cpf"`
	Password string `json:"password"`
}

type verifyRequest struct {
	UserId string `json:"userId"`
	Code   string `json:"code"`
}

type sendPixRequest struct {
	UserId       string          `json:"userId"`
	RecipientKey string          `json:"recipientKey"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
}

type convertRequest struct {
	UserId string          `json:"userId"`
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
}

type investRequest struct {
	UserId    string          `json:"userId"`
	ProductId string          `json:"productId"`
	Amount    decimal.Decimal `json:"amount"`
}

type nameResponse struct {
	Name string `json:"name"`
}

type quoteResponse struct {
	Type         string `json:"type"`
	AmountBRL    string `json:"amountBRL"`
	AmountStable string `json:"amountStable"`
	Rate         string `json:"rate"`
	Fee          string `json:"fee"`
	DebitBRL     string `json:"debitBRL,omitempty"`
	CreditBRL    string `json:"creditBRL,omitempty"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.wallet.HealthCheck(r.Context()); err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	account, err := h.wallet.Register(r.Context(), api.RegisterRequest{
		Name:       req.FullName,
		Email:      req.Email,
		Phone:      req.Phone,
		NationalId: req.CPF,
		Password:   req.Password,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, models.RegistrationResult{
		Success:   true,
		AccountId: account.Id,
		Message:   "Conta criada com sucesso",
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.wallet.Login(r.Context(), req.CPF, req.Password)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) verifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}

	result, err := h.wallet.VerifyTwoFactor(r.Context(), req.UserId, req.Code)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) userByNationalId(w http.ResponseWriter, r *http.Request) {
	name, err := h.wallet.LookupName(r.Context(), chi.URLParam(r, "cpf"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, nameResponse{Name: name})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	accountId, err := ownAccount(r, chi.URLParam(r, "userId"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	account, err := h.wallet.GetAccount(r.Context(), accountId)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewAccountView(account))
}

func (h *Handler) listPaymentKeys(w http.ResponseWriter, r *http.Request) {
	accountId, err := ownAccount(r, chi.URLParam(r, "userId"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	keys, err := h.wallet.ListPaymentKeys(r.Context(), accountId)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lo.Map(keys, func(k models.PaymentKey, _ int) models.PaymentKeyView {
		return models.NewPaymentKeyView(&k)
	}))
}

func (h *Handler) listTransfers(w http.ResponseWriter, r *http.Request) {
	accountId, err := ownAccount(r, chi.URLParam(r, "userId"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	transfers, err := h.wallet.ListTransfers(r.Context(), accountId)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lo.Map(transfers, func(t models.Transfer, _ int) models.TransferView {
		return models.NewTransferView(&t)
	}))
}

func (h *Handler) sendPix(w http.ResponseWriter, r *http.Request) {
	var req sendPixRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	accountId, err := ownAccount(r, req.UserId)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	transfer, err := h.wallet.SendPix(r.Context(), api.SendPixRequest{
		AccountId:    accountId,
		RecipientKey: req.RecipientKey,
		Amount:       req.Amount,
		Description:  req.Description,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewTransferView(transfer))
}

func (h *Handler) rate(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.wallet.Rate().View(h.now()))
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		respondWithError(w, r, fmt.Errorf("%w: invalid amount", errBadRequest))
		return
	}

	q, err := h.wallet.Quote(r.URL.Query().Get("type"), amount)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	resp := quoteResponse{
		Type:         q.Direction,
		AmountBRL:    q.AmountBRL.StringFixed(models.ScaleBRL),
		AmountStable: q.AmountStable.StringFixed(models.ScaleStable),
		Rate:         q.Rate.StringFixed(models.ScaleRate),
		Fee:          q.Fee.StringFixed(models.ScaleBRL),
	}
	if q.Direction == models.DirectionBuy {
		resp.DebitBRL = q.DebitBRL.StringFixed(models.ScaleBRL)
	} else {
		resp.CreditBRL = q.CreditBRL.StringFixed(models.ScaleBRL)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) listConversions(w http.ResponseWriter, r *http.Request) {
	accountId, err := ownAccount(r, chi.URLParam(r, "userId"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	conversions, err := h.wallet.ListConversions(r.Context(), accountId)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lo.Map(conversions, func(c models.Conversion, _ int) models.ConversionView {
		return models.NewConversionView(&c)
	}))
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	accountId, err := ownAccount(r, req.UserId)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	conversion, err := h.wallet.Convert(r.Context(), accountId, req.Type, req.Amount)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewConversionView(conversion))
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.wallet.ListProducts(r.Context())
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lo.Map(products, func(p models.Product, _ int) models.ProductView {
		return models.NewProductView(&p)
	}))
}

func (h *Handler) portfolio(w http.ResponseWriter, r *http.Request) {
	accountId, err := ownAccount(r, chi.URLParam(r, "userId"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	holdings, err := h.wallet.Portfolio(r.Context(), accountId)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, lo.Map(holdings, func(hd api.Holding, _ int) models.PositionView {
		return models.NewPositionView(&hd.Position, hd.ProductName)
	}))
}

func (h *Handler) invest(w http.ResponseWriter, r *http.Request) {
	var req investRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, err)
		return
	}
	accountId, err := ownAccount(r, req.UserId)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	position, err := h.wallet.Invest(r.Context(), accountId, req.ProductId, req.Amount)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.NewPositionView(position, ""))
}
