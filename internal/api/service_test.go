package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inwista-wallet-go/internal/auth"
	"inwista-wallet-go/internal/events"
	"inwista-wallet-go/internal/memory"
	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type published struct {
	routingKey string
	body       interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, body interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{routingKey: routingKey, body: body})
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.routingKey)
	}
	return keys
}

func testConfig() *models.Config {
	return &models.Config{
		Auth: models.AuthConfig{
			TokenSecret: "test-secret",
			TokenTTL:    time.Hour,
			BcryptCost:  bcrypt.MinCost,
		},
		Stablecoin: models.StablecoinConfig{
			BaseRate:          dec("5.25"),
			Spread:            dec("0.005"),
			MaxCommitAttempts: 3,
		},
	}
}

func newTestService(t *testing.T, ledger store.LedgerStore) (*LedgerService, *recordingPublisher) {
	t.Helper()
	if ledger == nil {
		ledger = memory.NewService()
	}
	cfg := testConfig()
	publisher := &recordingPublisher{}
	return NewLedgerService(ledger, cfg, auth.NewTokenIssuer(cfg.Auth), publisher), publisher
}

// fundedAccount creates an account directly in the store with a national id payment key.
func fundedAccount(t *testing.T, s *LedgerService, nationalId, name, brl, stable string) *models.Account {
	t.Helper()
	ctx := context.Background()
	hash, err := HashPassword("123456", bcrypt.MinCost)
	require.NoError(t, err)

	account, err := s.store.CreateAccount(ctx, store.CreateAccountParams{
		NationalId:    nationalId,
		PasswordHash:  hash,
		Name:          name,
		BalanceBRL:    dec(brl),
		BalanceStable: dec(stable),
	})
	require.NoError(t, err)
	_, err = s.store.CreatePaymentKey(ctx, store.CreatePaymentKeyParams{
		AccountId: account.Id, KeyType: models.KeyTypeNationalId, KeyValue: nationalId,
	})
	require.NoError(t, err)
	return account
}

func balanceOf(t *testing.T, s *LedgerService, accountId string) *models.Account {
	t.Helper()
	account, err := s.GetAccount(context.Background(), accountId)
	require.NoError(t, err)
	return account
}

func TestExampleScenario(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, nil)
	ana := fundedAccount(t, s, "123.456.789-00", "Ana Maria Silva", "15420.50", "1250.75")

	_, err := s.SendPix(ctx, SendPixRequest{AccountId: ana.Id, RecipientKey: "someone@example.com", Amount: dec("100.00")})
	require.NoError(t, err)
	assert.Equal(t, "15320.50", balanceOf(t, s, ana.Id).BalanceBRL.StringFixed(2))

	transfers, err := s.ListTransfers(ctx, ana.Id)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, models.DirectionSent, transfers[0].Direction)
	assert.Equal(t, "100.00", transfers[0].Amount.StringFixed(2))

	conversion, err := s.Convert(ctx, ana.Id, "buy", dec("1000.00"))
	require.NoError(t, err)
	assert.Equal(t, "5.276250", conversion.Rate.StringFixed(models.ScaleRate))
	assert.Equal(t, "5.00", conversion.Fee.StringFixed(2))
	assert.Equal(t, "1000.00", conversion.AmountBRL.StringFixed(2))
	assert.Equal(t, "189.529", conversion.AmountStable.StringFixed(3))

	after := balanceOf(t, s, ana.Id)
	assert.Equal(t, "14315.50", after.BalanceBRL.StringFixed(2))
	assert.Equal(t, "1440.27854774", after.BalanceStable.StringFixed(8))
}

func TestSendPixInsufficientFundsWritesNothing(t *testing.T) {
	ctx := context.Background()
	s, publisher := newTestService(t, nil)
	account := fundedAccount(t, s, "111.111.111-11", "Payer", "50.00", "0")

	_, err := s.SendPix(ctx, SendPixRequest{AccountId: account.Id, RecipientKey: "key", Amount: dec("50.01")})
	assert.True(t, errors.Is(err, ErrInsufficientFunds))

	assert.Equal(t, "50.00", balanceOf(t, s, account.Id).BalanceBRL.StringFixed(2))
	transfers, err := s.ListTransfers(ctx, account.Id)
	require.NoError(t, err)
	assert.Empty(t, transfers)
	assert.Empty(t, publisher.keys())
}

func TestSendPixEntireBalance(t *testing.T) {
	s, _ := newTestService(t, nil)
	account := fundedAccount(t, s, "111.111.111-11", "Payer", "50.00", "0")

	_, err := s.SendPix(context.Background(), SendPixRequest{AccountId: account.Id, RecipientKey: "key", Amount: dec("50")})
	require.NoError(t, err)
	assert.True(t, balanceOf(t, s, account.Id).BalanceBRL.IsZero())
}

func TestSendPixValidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, nil)
	account := fundedAccount(t, s, "111.111.111-11", "Payer", "50.00", "0")

	cases := map[string]SendPixRequest{
		"zero amount":     {AccountId: account.Id, RecipientKey: "key", Amount: decimal.Zero},
		"negative amount": {AccountId: account.Id, RecipientKey: "key", Amount: dec("-1")},
		"sub-cent amount": {AccountId: account.Id, RecipientKey: "key", Amount: dec("0.004")},
		"missing key":     {AccountId: account.Id, RecipientKey: "  ", Amount: dec("1")},
		"own national id": {AccountId: account.Id, RecipientKey: "111.111.111-11", Amount: dec("1")},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.SendPix(ctx, req)
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
}

func TestAmountsFinerThanScaleAreRejected(t *testing.T) {
	ctx := context.Background()
	s, publisher := newTestService(t, nil)
	account := fundedAccount(t, s, "111.111.111-11", "Holder", "100.00", "1")
	product := seedProduct(t, s, "CDB Liquidez", "100.00", true)

	_, err := s.SendPix(ctx, SendPixRequest{AccountId: account.Id, RecipientKey: "key", Amount: dec("100.004")})
	assert.True(t, errors.Is(err, ErrValidation), "got %v", err)

	_, err = s.Invest(ctx, account.Id, product.Id, dec("99.995"))
	assert.True(t, errors.Is(err, ErrValidation), "got %v", err)

	_, err = s.Convert(ctx, account.Id, "sell", dec("0.123456789"))
	assert.True(t, errors.Is(err, ErrValidation), "got %v", err)

	_, err = s.Quote("buy", dec("10.001"))
	assert.True(t, errors.Is(err, ErrValidation), "got %v", err)

	after := balanceOf(t, s, account.Id)
	assert.Equal(t, "100.00", after.BalanceBRL.StringFixed(2))
	assert.Equal(t, "1.00000000", after.BalanceStable.StringFixed(8))
	assert.True(t, after.TotalInvested.IsZero())
	assert.Empty(t, publisher.keys())
}

func TestSendPixUnknownAccount(t *testing.T) {
	s, _ := newTestService(t, nil)
	_, err := s.SendPix(context.Background(), SendPixRequest{AccountId: "missing", RecipientKey: "key", Amount: dec("1")})
	assert.True(t, errors.Is(err, store.ErrAccountNotFound))
}

func TestSendPixToWalletAccountCreditsRecipient(t *testing.T) {
	ctx := context.Background()
	s, publisher := newTestService(t, nil)
	payer := fundedAccount(t, s, "111.111.111-11", "Payer", "100.00", "0")
	payee := fundedAccount(t, s, "222.222.222-22", "Payee", "10.00", "0")

	sent, err := s.SendPix(ctx, SendPixRequest{
		AccountId: payer.Id, RecipientKey: "222.222.222-22", Amount: dec("25.50"), Description: "lunch",
	})
	require.NoError(t, err)
	assert.Equal(t, "Payee", sent.RecipientName)

	assert.Equal(t, "74.50", balanceOf(t, s, payer.Id).BalanceBRL.StringFixed(2))
	assert.Equal(t, "35.50", balanceOf(t, s, payee.Id).BalanceBRL.StringFixed(2))

	received, err := s.ListTransfers(ctx, payee.Id)
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, models.DirectionReceived, received[0].Direction)
	assert.Equal(t, "Payer", received[0].SenderName)
	assert.Equal(t, "111.111.111-11", received[0].SenderKey)
	assert.Equal(t, "lunch", received[0].Description)

	assert.Equal(t, []string{events.PixSent, events.PixReceived}, publisher.keys())
}

func TestSendPixToExternalKeyUsesPlaceholderName(t *testing.T) {
	s, _ := newTestService(t, nil)
	payer := fundedAccount(t, s, "111.111.111-11", "Payer", "100.00", "0")

	sent, err := s.SendPix(context.Background(), SendPixRequest{AccountId: payer.Id, RecipientKey: "outside@bank.com", Amount: dec("1")})
	require.NoError(t, err)
	assert.Equal(t, externalRecipientName, sent.RecipientName)
	assert.Equal(t, "outside@bank.com", sent.RecipientKey)
	assert.Equal(t, models.StatusCompleted, sent.Status)
}

func TestConvertSell(t *testing.T) {
	ctx := context.Background()
	s, publisher := newTestService(t, nil)
	account := fundedAccount(t, s, "111.111.111-11", "Holder", "0", "100")

	conversion, err := s.Convert(ctx, account.Id, "sell", dec("100"))
	require.NoError(t, err)
	assert.Equal(t, models.DirectionSell, conversion.Direction)
	assert.Equal(t, "522.38", conversion.AmountBRL.StringFixed(2))
	assert.Equal(t, "2.61", conversion.Fee.StringFixed(2))

	after := balanceOf(t, s, account.Id)
	assert.Equal(t, "519.77", after.BalanceBRL.StringFixed(2))
	assert.True(t, after.BalanceStable.IsZero())
	assert.Equal(t, []string{events.StablecoinConverted}, publisher.keys())
}

func TestConvertInsufficientBalances(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, nil)
	account := fundedAccount(t, s, "111.111.111-11", "Holder", "1000.00", "1")

	// 1000 BRL cannot cover the 5.00 fee on top of a 1000 BRL buy.
	_, err := s.Convert(ctx, account.Id, "buy", dec("1000"))
	assert.True(t, errors.Is(err, ErrInsufficientFunds))

	_, err = s.Convert(ctx, account.Id, "sell", dec("1.00000001"))
	assert.True(t, errors.Is(err, ErrInsufficientFunds))

	after := balanceOf(t, s, account.Id)
	assert.Equal(t, "1000.00", after.BalanceBRL.StringFixed(2))
	conversions, err := s.ListConversions(ctx, account.Id)
	require.NoError(t, err)
	assert.Empty(t, conversions)
}

func TestConvertRejectsUnknownDirection(t *testing.T) {
	s, _ := newTestService(t, nil)
	account := fundedAccount(t, s, "111.111.111-11", "Holder", "100", "0")

	_, err := s.Convert(context.Background(), account.Id, "swap", dec("1"))
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestConvertRoundTripIsLossy(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, nil)
	account := fundedAccount(t, s, "111.111.111-11", "Holder", "2000.00", "0")

	buy, err := s.Convert(ctx, account.Id, "buy", dec("1000"))
	require.NoError(t, err)
	sell, err := s.Convert(ctx, account.Id, "sell", buy.AmountStable)
	require.NoError(t, err)

	// Gross proceeds lose about twice the spread relative to the amount spent.
	loss := dec("1000").Sub(sell.AmountBRL).Div(dec("1000"))
	assert.True(t, loss.Sub(dec("0.01")).Abs().LessThan(dec("0.0005")), "loss %s", loss)

	after := balanceOf(t, s, account.Id)
	assert.True(t, after.BalanceBRL.LessThan(dec("2000")))
	assert.True(t, after.BalanceStable.IsZero())
}

func TestQuoteDoesNotTouchLedger(t *testing.T) {
	s, _ := newTestService(t, nil)

	q, err := s.Quote("BUY", dec("1000"))
	require.NoError(t, err)
	assert.Equal(t, "1005.00", q.DebitBRL.StringFixed(2))

	_, err = s.Quote("sell", dec("0"))
	assert.True(t, errors.Is(err, ErrValidation))
}

func seedProduct(t *testing.T, s *LedgerService, name, minimum string, active bool) *models.Product {
	t.Helper()
	product, err := s.store.CreateProduct(context.Background(), store.CreateProductParams{
		Name:           name,
		Category:       "Renda Fixa",
		Risk:           models.RiskLow,
		MinimumAmount:  dec(minimum),
		ExpectedReturn: dec("12.50"),
		Liquidity:      "Liquidez diária",
		IsActive:       active,
	})
	require.NoError(t, err)
	return product
}

func TestInvestBelowMinimum(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, nil)
	account := fundedAccount(t, s, "111.111.111-11", "Investor", "5000", "0")
	product := seedProduct(t, s, "Fundo Multimercado", "500.00", true)

	_, err := s.Invest(ctx, account.Id, product.Id, dec("499.99"))
	assert.True(t, errors.Is(err, ErrBelowMinimum))
	assert.Contains(t, err.Error(), "R$ 500.00")

	positions, err := s.Portfolio(ctx, account.Id)
	require.NoError(t, err)
	assert.Empty(t, positions)
	assert.Equal(t, "5000.00", balanceOf(t, s, account.Id).BalanceBRL.StringFixed(2))
}

func TestInvestSuccess(t *testing.T) {
	ctx := context.Background()
	s, publisher := newTestService(t, nil)
	account := fundedAccount(t, s, "111.111.111-11", "Investor", "5000", "0")
	product := seedProduct(t, s, "Fundo Multimercado", "500.00", true)

	position, err := s.Invest(ctx, account.Id, product.Id, dec("500"))
	require.NoError(t, err)
	assert.Equal(t, "500.00", position.Amount.StringFixed(2))
	assert.Equal(t, "500.00", position.CurrentValue.StringFixed(2))
	assert.True(t, position.ReturnAmount.IsZero())
	assert.Equal(t, models.StatusActive, position.Status)

	after := balanceOf(t, s, account.Id)
	assert.Equal(t, "4500.00", after.BalanceBRL.StringFixed(2))
	assert.Equal(t, "500.00", after.TotalInvested.StringFixed(2))
	assert.Equal(t, []string{events.InvestmentCreated}, publisher.keys())
}

func TestInvestChecks(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, nil)
	account := fundedAccount(t, s, "111.111.111-11", "Investor", "100", "0")
	closed := seedProduct(t, s, "Closed", "10", false)
	open := seedProduct(t, s, "Open", "10", true)

	_, err := s.Invest(ctx, account.Id, "missing", dec("50"))
	assert.True(t, errors.Is(err, store.ErrProductNotFound))

	_, err = s.Invest(ctx, account.Id, closed.Id, dec("50"))
	assert.True(t, errors.Is(err, ErrProductUnavailable))

	_, err = s.Invest(ctx, account.Id, open.Id, dec("100.01"))
	assert.True(t, errors.Is(err, ErrInsufficientFunds))

	_, err = s.Invest(ctx, account.Id, "", dec("50"))
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestPortfolioLabelsProducts(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewService()
	s, _ := newTestService(t, ledger)
	account := fundedAccount(t, s, "111.111.111-11", "Investor", "1000", "0")
	product := seedProduct(t, s, "Tesouro Selic", "50", true)

	_, err := s.Invest(ctx, account.Id, product.Id, dec("100"))
	require.NoError(t, err)
	_, err = ledger.CreatePosition(ctx, store.CreatePositionParams{
		AccountId: account.Id, ProductId: "retired-product", Amount: dec("10"), CurrentValue: dec("10"),
	})
	require.NoError(t, err)

	holdings, err := s.Portfolio(ctx, account.Id)
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	names := map[string]string{}
	for _, h := range holdings {
		names[h.ProductId] = h.ProductName
	}
	assert.Equal(t, "Tesouro Selic", names[product.Id])
	assert.Equal(t, unknownProductName, names["retired-product"])
}

// conflictingStore fails the first conflicts commits as if another writer got there first.
type conflictingStore struct {
	store.LedgerStore
	mu        sync.Mutex
	conflicts int
	commits   int
}

func (c *conflictingStore) Commit(ctx context.Context, m store.Mutation) (*store.CommitResult, error) {
	c.mu.Lock()
	c.commits++
	if c.conflicts > 0 {
		c.conflicts--
		c.mu.Unlock()
		return nil, store.ErrConcurrentModification
	}
	c.mu.Unlock()
	return c.LedgerStore.Commit(ctx, m)
}

func TestCommitRetriesOnConflict(t *testing.T) {
	ledger := &conflictingStore{LedgerStore: memory.NewService(), conflicts: 2}
	s, _ := newTestService(t, ledger)
	account := fundedAccount(t, s, "111.111.111-11", "Payer", "100", "0")

	_, err := s.SendPix(context.Background(), SendPixRequest{AccountId: account.Id, RecipientKey: "key", Amount: dec("10")})
	require.NoError(t, err)
	assert.Equal(t, 3, ledger.commits)
	assert.Equal(t, "90.00", balanceOf(t, s, account.Id).BalanceBRL.StringFixed(2))
}

func TestCommitGivesUpAfterMaxAttempts(t *testing.T) {
	ledger := &conflictingStore{LedgerStore: memory.NewService(), conflicts: 10}
	s, _ := newTestService(t, ledger)
	account := fundedAccount(t, s, "111.111.111-11", "Payer", "100", "0")

	_, err := s.SendPix(context.Background(), SendPixRequest{AccountId: account.Id, RecipientKey: "key", Amount: dec("10")})
	assert.True(t, errors.Is(err, store.ErrConcurrentModification))
	assert.Equal(t, 3, ledger.commits)
	assert.Equal(t, "100.00", balanceOf(t, s, account.Id).BalanceBRL.StringFixed(2))
}

func TestConcurrentSendsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, nil)
	account := fundedAccount(t, s, "111.111.111-11", "Payer", "100.00", "0")

	const workers = 40
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.SendPix(ctx, SendPixRequest{AccountId: account.Id, RecipientKey: "key", Amount: dec("10")})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, ErrInsufficientFunds) || errors.Is(err, store.ErrConcurrentModification), "unexpected error %v", err)
		}()
	}
	wg.Wait()

	after := balanceOf(t, s, account.Id)
	assert.False(t, after.BalanceBRL.IsNegative())
	assert.LessOrEqual(t, successes, 10)
	assert.Equal(t, dec("100").Sub(dec("10").Mul(decimal.NewFromInt(int64(successes)))).StringFixed(2), after.BalanceBRL.StringFixed(2))

	transfers, err := s.ListTransfers(ctx, account.Id)
	require.NoError(t, err)
	assert.Len(t, transfers, successes)
}
