package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ecomarket/ecocoins-backend/internal/ledger"
	"github.com/ecomarket/ecocoins-backend/pkg/db/dbtest"
	"github.com/ecomarket/ecocoins-backend/pkg/db/models"
	"github.com/ecomarket/ecocoins-backend/pkg/enums"
	pkgerrors "github.com/ecomarket/ecocoins-backend/pkg/errors"
	"github.com/ecomarket/ecocoins-backend/pkg/metrics"
	"github.com/ecomarket/ecocoins-backend/pkg/outbox"
)

func strPtr(v string) *string { return &v }

type fixture struct {
	svc  Service
	conn *gorm.DB
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	client, conn := dbtest.OpenClient(t, "wallet")
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		DB:          client,
		Repo:        NewRepository(conn),
		Ledger:      ledgerSvc,
		Outbox:      outbox.NewService(outbox.NewRepository(conn), nil),
		Metrics:     metrics.NewEconomyMetrics(prometheus.NewRegistry()),
		RecentLimit: 20,
	})
	require.NoError(t, err)
	return fixture{svc: svc, conn: conn}
}

func (f fixture) ledgerSum(t *testing.T, userID string) int64 {
	t.Helper()
	var sum int64
	require.NoError(t, f.conn.Model(&models.WalletLedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&sum).Error)
	return sum
}

func (f fixture) balance(t *testing.T, userID string) int64 {
	t.Helper()
	var wallet models.Wallet
	require.NoError(t, f.conn.Where("user_id = ?", userID).Take(&wallet).Error)
	return wallet.EcoCoinsBalance
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.GetOrCreate(ctx, "user-1")
	require.NoError(t, err)
	second, err := f.svc.GetOrCreate(ctx, " user-1 ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Zero(t, second.EcoCoinsBalance)

	var count int64
	require.NoError(t, f.conn.Model(&models.Wallet{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEarnIsIdempotentByRef(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	input := MutationInput{UserID: "user-1", Amount: 100, Source: enums.LedgerSourceChallenge, RefID: strPtr("C1")}

	res, err := f.svc.Earn(ctx, input)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.EqualValues(t, 100, res.Balance)
	require.NotNil(t, res.EntryID)

	res, err = f.svc.Earn(ctx, input)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.EqualValues(t, 100, res.Balance)
	assert.Nil(t, res.EntryID)

	assert.EqualValues(t, 100, f.balance(t, "user-1"))
	assert.EqualValues(t, 100, f.ledgerSum(t, "user-1"))

	var events int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventEcoCoinsEarned).Count(&events).Error)
	assert.EqualValues(t, 1, events, "duplicates do not emit events")
}

func TestSpendDebitsAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Earn(ctx, MutationInput{UserID: "user-1", Amount: 100, Source: enums.LedgerSourceChallenge})
	require.NoError(t, err)

	spend := MutationInput{UserID: "user-1", Amount: 70, Source: enums.LedgerSourceOrder, RefID: strPtr("order-1")}
	res, err := f.svc.Spend(ctx, spend)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.EqualValues(t, 30, res.Balance)

	// The replay would overdraw if applied, but the ledger already holds it.
	res, err = f.svc.Spend(ctx, spend)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.EqualValues(t, 30, res.Balance)
	assert.EqualValues(t, 30, f.ledgerSum(t, "user-1"))
}

func TestSpendInsufficientBalanceLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Earn(ctx, MutationInput{UserID: "user-1", Amount: 10, Source: enums.LedgerSourceChallenge})
	require.NoError(t, err)

	_, err = f.svc.Spend(ctx, MutationInput{UserID: "user-1", Amount: 11, Source: enums.LedgerSourceOrder, RefID: strPtr("order-2")})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientBalance))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 10, details["balance"])

	assert.EqualValues(t, 10, f.balance(t, "user-1"))
	var spends int64
	require.NoError(t, f.conn.Model(&models.WalletLedgerEntry{}).Where("entry_type = ?", enums.LedgerEntryTypeSpend).Count(&spends).Error)
	assert.Zero(t, spends, "failed debit must roll back its ledger row")

	// Once funded, the same reference can still be applied.
	_, err = f.svc.Earn(ctx, MutationInput{UserID: "user-1", Amount: 5, Source: enums.LedgerSourceChallenge})
	require.NoError(t, err)
	res, err := f.svc.Spend(ctx, MutationInput{UserID: "user-1", Amount: 11, Source: enums.LedgerSourceOrder, RefID: strPtr("order-2")})
	require.NoError(t, err)
	assert.EqualValues(t, 4, res.Balance)
}

type brokenFindRepo struct {
	Repository
}

func (r brokenFindRepo) WithTx(tx *gorm.DB) Repository {
	return brokenFindRepo{Repository: r.Repository.WithTx(tx)}
}

func (brokenFindRepo) Find(context.Context, string) (*models.Wallet, error) {
	return nil, errors.New("connection reset")
}

func TestSpendShortfallSurfacesBalanceReadFailure(t *testing.T) {
	client, conn := dbtest.OpenClient(t, "wallet-broken-find")
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		DB:      client,
		Repo:    brokenFindRepo{Repository: NewRepository(conn)},
		Ledger:  ledgerSvc,
		Metrics: metrics.NewEconomyMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)

	_, err = svc.Spend(context.Background(), MutationInput{UserID: "user-1", Amount: 5, Source: enums.LedgerSourceOrder})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency), err.Error())
	assert.False(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientBalance))

	var entries int64
	require.NoError(t, conn.Model(&models.WalletLedgerEntry{}).Count(&entries).Error)
	assert.Zero(t, entries)
}

func TestMutationValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []MutationInput{
		{UserID: "user-1", Amount: 0, Source: "X"},
		{UserID: "user-1", Amount: -5, Source: "X"},
		{UserID: "  ", Amount: 5, Source: "X"},
		{UserID: "user-1", Amount: 5},
	}
	for _, input := range cases {
		_, err := f.svc.Earn(ctx, input)
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "%+v", input)
		_, err = f.svc.Spend(ctx, input)
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "%+v", input)
	}

	var wallets int64
	require.NoError(t, f.conn.Model(&models.Wallet{}).Count(&wallets).Error)
	assert.Zero(t, wallets)
}

func TestReadDoesNotCreateWallet(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.Read(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Zero(t, view.EcoCoinsBalance)
	assert.Empty(t, view.RecentLedger)
	assert.NotNil(t, view.RecentLedger)

	var wallets int64
	require.NoError(t, f.conn.Model(&models.Wallet{}).Count(&wallets).Error)
	assert.Zero(t, wallets)
}

func TestReadReturnsRecentLedgerNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := int64(1); i <= 25; i++ {
		_, err := f.svc.Earn(ctx, MutationInput{UserID: "user-1", Amount: i, Source: enums.LedgerSourceChallenge})
		require.NoError(t, err)
	}
	view, err := f.svc.Read(ctx, "user-1")
	require.NoError(t, err)
	assert.EqualValues(t, 325, view.EcoCoinsBalance)
	require.Len(t, view.RecentLedger, 20)
	assert.EqualValues(t, 25, view.RecentLedger[0].Amount)
	assert.EqualValues(t, 6, view.RecentLedger[19].Amount)
}

func TestAdjustIsConditionalOnNonNegativeResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Adjust(ctx, AdjustInput{UserID: "user-1", Delta: 40, Source: enums.LedgerSourceAdmin, RefID: strPtr("ticket-1")})
	require.NoError(t, err)
	assert.EqualValues(t, 40, res.Balance)

	_, err = f.svc.Adjust(ctx, AdjustInput{UserID: "user-1", Delta: -50, Source: enums.LedgerSourceAdmin})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientBalance))

	res, err = f.svc.Adjust(ctx, AdjustInput{UserID: "user-1", Delta: -15, Source: enums.LedgerSourceAdmin})
	require.NoError(t, err)
	assert.EqualValues(t, 25, res.Balance)
	assert.EqualValues(t, 25, f.ledgerSum(t, "user-1"))

	_, err = f.svc.Adjust(ctx, AdjustInput{UserID: "user-1", Delta: 0, Source: enums.LedgerSourceAdmin})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestRefundCreditsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	input := MutationInput{UserID: "user-1", Amount: 50, Source: enums.LedgerSourceOrder, RefID: strPtr("order-9")}

	res, err := f.svc.Refund(ctx, input)
	require.NoError(t, err)
	assert.EqualValues(t, 50, res.Balance)
	res, err = f.svc.Refund(ctx, input)
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.EqualValues(t, 50, res.Balance)
}

func TestConcurrentSpendsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Earn(ctx, MutationInput{UserID: "user-1", Amount: 100, Source: enums.LedgerSourceChallenge})
	require.NoError(t, err)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Spend(ctx, MutationInput{UserID: "user-1", Amount: 15, Source: enums.LedgerSourceOrder})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if pkgerrors.HasCode(err, pkgerrors.CodeInsufficientBalance) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, succeeded)
	assert.Equal(t, 4, rejected)
	assert.EqualValues(t, 10, f.balance(t, "user-1"))
	assert.EqualValues(t, 10, f.ledgerSum(t, "user-1"))
}

func TestLedgerSumMatchesBalanceAcrossSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ops := []struct {
		earn   bool
		amount int64
	}{
		{true, 30}, {false, 10}, {false, 25}, {true, 5}, {false, 20}, {true, 100}, {false, 99},
	}
	for _, op := range ops {
		input := MutationInput{UserID: "user-1", Amount: op.amount, Source: enums.LedgerSourceChallenge}
		var err error
		if op.earn {
			_, err = f.svc.Earn(ctx, input)
		} else {
			_, err = f.svc.Spend(ctx, input)
		}
		if err != nil {
			require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInsufficientBalance))
		}
		balance := f.balance(t, "user-1")
		assert.GreaterOrEqual(t, balance, int64(0))
		assert.Equal(t, balance, f.ledgerSum(t, "user-1"))
	}
	assert.EqualValues(t, 6, f.balance(t, "user-1"))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}
