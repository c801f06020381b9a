package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inwista-wallet-go/internal/models"
	"inwista-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newAccount(t *testing.T, s *Service, nationalId, brl string) *models.Account {
	t.Helper()
	account, err := s.CreateAccount(context.Background(), store.CreateAccountParams{
		NationalId: nationalId,
		Name:       "Holder " + nationalId,
		Email:      nationalId + "@example.com",
		BalanceBRL: dec(brl),
	})
	require.NoError(t, err)
	return account
}

func TestCreateAndGetAccount(t *testing.T) {
	ctx := context.Background()
	s := NewService()

	created := newAccount(t, s, "111.111.111-11", "100.5")
	assert.NotEmpty(t, created.Id)
	assert.Equal(t, int64(1), created.Version)
	assert.True(t, created.IsActive)
	assert.Equal(t, "100.50", created.BalanceBRL.StringFixed(models.ScaleBRL))

	got, err := s.GetAccount(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)

	byNationalId, err := s.GetAccountByNationalId(ctx, "111.111.111-11")
	require.NoError(t, err)
	assert.Equal(t, created.Id, byNationalId.Id)
}

func TestCreateAccountKeepsFixedId(t *testing.T) {
	s := NewService()
	account, err := s.CreateAccount(context.Background(), store.CreateAccountParams{
		Id:         "fixed-id",
		NationalId: "000.000.000-00",
	})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", account.Id)
}

func TestGetAccountUnknown(t *testing.T) {
	s := NewService()

	_, err := s.GetAccount(context.Background(), "missing")
	assert.True(t, errors.Is(err, store.ErrAccountNotFound))

	_, err = s.GetAccountByNationalId(context.Background(), "999.999.999-99")
	assert.True(t, errors.Is(err, store.ErrAccountNotFound))
}

func TestReturnedAccountIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	account := newAccount(t, s, "111.111.111-11", "10")

	account.BalanceBRL = dec("999")

	got, err := s.GetAccount(ctx, account.Id)
	require.NoError(t, err)
	assert.Equal(t, "10.00", got.BalanceBRL.StringFixed(models.ScaleBRL))
}

func TestUpdateAccountBalances(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	account := newAccount(t, s, "111.111.111-11", "10")

	err := s.UpdateAccountBalances(ctx, account.Id, models.Balances{
		BRL:           dec("5.555"),
		Stable:        dec("1.5"),
		TotalInvested: dec("4"),
	})
	require.NoError(t, err)

	got, err := s.GetAccount(ctx, account.Id)
	require.NoError(t, err)
	assert.Equal(t, "5.56", got.BalanceBRL.StringFixed(models.ScaleBRL))
	assert.Equal(t, "1.50000000", got.BalanceStable.StringFixed(models.ScaleStable))
	assert.Equal(t, "4.00", got.TotalInvested.StringFixed(models.ScaleBRL))
	assert.Equal(t, int64(2), got.Version)
}

func TestUpdateAccountBalancesUnknownIsNoop(t *testing.T) {
	s := NewService()
	err := s.UpdateAccountBalances(context.Background(), "missing", models.Balances{BRL: dec("1")})
	assert.NoError(t, err)

	accounts, err := s.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestPaymentKeysInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	account := newAccount(t, s, "111.111.111-11", "0")
	other := newAccount(t, s, "222.222.222-22", "0")

	for _, value := range []string{"111.111.111-11", "random-key"} {
		_, err := s.CreatePaymentKey(ctx, store.CreatePaymentKeyParams{
			AccountId: account.Id, KeyType: models.KeyTypeRandom, KeyValue: value,
		})
		require.NoError(t, err)
	}
	_, err := s.CreatePaymentKey(ctx, store.CreatePaymentKeyParams{
		AccountId: other.Id, KeyType: models.KeyTypeEmail, KeyValue: "other@example.com",
	})
	require.NoError(t, err)

	keys, err := s.ListPaymentKeys(ctx, account.Id)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "111.111.111-11", keys[0].KeyValue)
	assert.Equal(t, "random-key", keys[1].KeyValue)

	found, err := s.FindPaymentKey(ctx, "other@example.com")
	require.NoError(t, err)
	assert.Equal(t, other.Id, found.AccountId)

	_, err = s.FindPaymentKey(ctx, "nobody")
	assert.True(t, errors.Is(err, store.ErrPaymentKeyNotFound))
}

func TestTransfersNewestFirstWithTiedTimestamps(t *testing.T) {
	ctx := context.Background()
	s := NewService(WithClock(fixedClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))))
	account := newAccount(t, s, "111.111.111-11", "0")

	for _, amount := range []string{"1", "2", "3"} {
		_, err := s.CreateTransfer(ctx, store.CreateTransferParams{
			AccountId: account.Id, Direction: models.DirectionSent, Amount: dec(amount),
		})
		require.NoError(t, err)
	}

	transfers, err := s.ListTransfers(ctx, account.Id)
	require.NoError(t, err)
	require.Len(t, transfers, 3)
	assert.Equal(t, "3.00", transfers[0].Amount.StringFixed(2))
	assert.Equal(t, "2.00", transfers[1].Amount.StringFixed(2))
	assert.Equal(t, "1.00", transfers[2].Amount.StringFixed(2))
	assert.Equal(t, models.StatusCompleted, transfers[0].Status)
}

func TestConversionsNewestFirstByTimestamp(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewService(WithClock(func() time.Time { return now }))
	account := newAccount(t, s, "111.111.111-11", "0")

	_, err := s.CreateConversion(ctx, store.CreateConversionParams{
		AccountId: account.Id, Direction: models.DirectionBuy, AmountBRL: dec("10"),
	})
	require.NoError(t, err)
	now = now.Add(-time.Hour)
	_, err = s.CreateConversion(ctx, store.CreateConversionParams{
		AccountId: account.Id, Direction: models.DirectionSell, AmountBRL: dec("20"),
	})
	require.NoError(t, err)

	conversions, err := s.ListConversions(ctx, account.Id)
	require.NoError(t, err)
	require.Len(t, conversions, 2)
	assert.Equal(t, models.DirectionBuy, conversions[0].Direction)
	assert.Equal(t, models.DirectionSell, conversions[1].Direction)
}

func TestListsForUnknownAccountAreEmpty(t *testing.T) {
	ctx := context.Background()
	s := NewService()

	transfers, err := s.ListTransfers(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, transfers)

	positions, err := s.ListPositions(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, positions)

	keys, err := s.ListPaymentKeys(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestProductsHideInactive(t *testing.T) {
	ctx := context.Background()
	s := NewService()

	active, err := s.CreateProduct(ctx, store.CreateProductParams{Name: "Tesouro", MinimumAmount: dec("50"), IsActive: true})
	require.NoError(t, err)
	inactive, err := s.CreateProduct(ctx, store.CreateProductParams{Name: "Closed", IsActive: false})
	require.NoError(t, err)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, active.Id, products[0].Id)

	got, err := s.GetProduct(ctx, inactive.Id)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = s.GetProduct(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrProductNotFound))
}

func TestFindProductByNameIncludesInactive(t *testing.T) {
	ctx := context.Background()
	s := NewService()

	first, err := s.CreateProduct(ctx, store.CreateProductParams{Name: "Closed", IsActive: false})
	require.NoError(t, err)
	_, err = s.CreateProduct(ctx, store.CreateProductParams{Name: "Closed", IsActive: true})
	require.NoError(t, err)

	got, err := s.FindProductByName(ctx, "Closed")
	require.NoError(t, err)
	assert.Equal(t, first.Id, got.Id)
	assert.False(t, got.IsActive)

	_, err = s.FindProductByName(ctx, "Nope")
	assert.True(t, errors.Is(err, store.ErrProductNotFound))
}

func TestPositionLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	account := newAccount(t, s, "111.111.111-11", "0")

	position, err := s.CreatePosition(ctx, store.CreatePositionParams{
		AccountId: account.Id, ProductId: "p1", Amount: dec("100"), CurrentValue: dec("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, position.Status)

	require.NoError(t, s.UpdatePosition(ctx, position.Id, dec("101.234"), dec("1.234"), dec("1.234")))
	require.NoError(t, s.UpdatePosition(ctx, "missing", dec("1"), dec("1"), dec("1")))

	positions, err := s.ListActivePositions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "101.23", positions[0].CurrentValue.StringFixed(2))
	assert.Equal(t, "1.23", positions[0].ReturnAmount.StringFixed(2))
}

func TestCommitAppliesEverything(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	sender := newAccount(t, s, "111.111.111-11", "100")
	recipient := newAccount(t, s, "222.222.222-22", "0")

	result, err := s.Commit(ctx, store.Mutation{
		Balances: []store.BalanceChange{
			{AccountId: sender.Id, ExpectedVersion: sender.Version, Next: models.Balances{BRL: dec("60")}},
			{AccountId: recipient.Id, ExpectedVersion: recipient.Version, Next: models.Balances{BRL: dec("40")}},
		},
		Transfers: []store.CreateTransferParams{
			{AccountId: sender.Id, Direction: models.DirectionSent, Amount: dec("40")},
			{AccountId: recipient.Id, Direction: models.DirectionReceived, Amount: dec("40")},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Transfers, 2)
	assert.Equal(t, models.DirectionSent, result.Transfers[0].Direction)

	got, err := s.GetAccount(ctx, sender.Id)
	require.NoError(t, err)
	assert.Equal(t, "60.00", got.BalanceBRL.StringFixed(2))
	assert.Equal(t, sender.Version+1, got.Version)

	got, err = s.GetAccount(ctx, recipient.Id)
	require.NoError(t, err)
	assert.Equal(t, "40.00", got.BalanceBRL.StringFixed(2))
}

func TestCommitRejectsStaleVersionAndWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	account := newAccount(t, s, "111.111.111-11", "100")

	require.NoError(t, s.UpdateAccountBalances(ctx, account.Id, models.Balances{BRL: dec("90")}))

	_, err := s.Commit(ctx, store.Mutation{
		Balances:  []store.BalanceChange{{AccountId: account.Id, ExpectedVersion: account.Version, Next: models.Balances{BRL: dec("50")}}},
		Transfers: []store.CreateTransferParams{{AccountId: account.Id, Direction: models.DirectionSent, Amount: dec("50")}},
	})
	assert.True(t, errors.Is(err, store.ErrConcurrentModification))

	got, err := s.GetAccount(ctx, account.Id)
	require.NoError(t, err)
	assert.Equal(t, "90.00", got.BalanceBRL.StringFixed(2))

	transfers, err := s.ListTransfers(ctx, account.Id)
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

func TestCommitCreatesAccountWithKey(t *testing.T) {
	ctx := context.Background()
	s := NewService()

	result, err := s.Commit(ctx, store.Mutation{
		Accounts: []store.CreateAccountParams{{Id: "acc-1", NationalId: "111.111.111-11", Name: "Ana"}},
		PaymentKeys: []store.CreatePaymentKeyParams{
			{AccountId: "acc-1", KeyType: models.KeyTypeNationalId, KeyValue: "111.111.111-11"},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Accounts, 1)
	require.Len(t, result.PaymentKeys, 1)

	got, err := s.GetAccountByNationalId(ctx, "111.111.111-11")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got.Id)

	key, err := s.FindPaymentKey(ctx, "111.111.111-11")
	require.NoError(t, err)
	assert.Equal(t, "acc-1", key.AccountId)
}

func TestCommitDuplicateNationalIdWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	existing := newAccount(t, s, "111.111.111-11", "0")

	_, err := s.Commit(ctx, store.Mutation{
		Accounts:    []store.CreateAccountParams{{Id: "acc-2", NationalId: existing.NationalId, Name: "Twin"}},
		PaymentKeys: []store.CreatePaymentKeyParams{{AccountId: "acc-2", KeyValue: "twin-key"}},
	})
	assert.True(t, errors.Is(err, store.ErrDuplicateNationalId))

	_, err = s.GetAccount(ctx, "acc-2")
	assert.True(t, errors.Is(err, store.ErrAccountNotFound))
	_, err = s.FindPaymentKey(ctx, "twin-key")
	assert.True(t, errors.Is(err, store.ErrPaymentKeyNotFound))

	got, err := s.GetAccountByNationalId(ctx, existing.NationalId)
	require.NoError(t, err)
	assert.Equal(t, existing.Id, got.Id)
}

func TestCommitUnknownAccount(t *testing.T) {
	s := NewService()
	_, err := s.Commit(context.Background(), store.Mutation{
		Balances: []store.BalanceChange{{AccountId: "missing", ExpectedVersion: 1}},
	})
	assert.True(t, errors.Is(err, store.ErrAccountNotFound))
}

func TestConcurrentCommitsOnlyOneWinsPerVersion(t *testing.T) {
	ctx := context.Background()
	s := NewService()
	account := newAccount(t, s, "111.111.111-11", "100")

	const workers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		conflict int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Commit(ctx, store.Mutation{
				Balances:  []store.BalanceChange{{AccountId: account.Id, ExpectedVersion: account.Version, Next: models.Balances{BRL: dec("90")}}},
				Transfers: []store.CreateTransferParams{{AccountId: account.Id, Direction: models.DirectionSent, Amount: dec("10")}},
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
			} else if errors.Is(err, store.ErrConcurrentModification) {
				conflict++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, workers-1, conflict)

	transfers, err := s.ListTransfers(ctx, account.Id)
	require.NoError(t, err)
	assert.Len(t, transfers, 1)
}
