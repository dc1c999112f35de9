package cron

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/ecomarket/ecocoins-backend/pkg/logger"
	"github.com/ecomarket/ecocoins-backend/pkg/metrics"
)

const defaultMismatchLogSize = 50

type walletBalances interface {
	Balances(ctx context.Context) (map[string]int64, error)
}

type ledgerSums interface {
	SumDeltasByUser(ctx context.Context) (map[string]int64, error)
}

type LedgerReconcileJobParams struct {
	Logger      *logger.Logger
	Wallets     walletBalances
	Ledger      ledgerSums
	Metrics     *metrics.EconomyMetrics
	MaxReported int
}

// NewLedgerReconcileJob checks that every wallet balance equals the sum of
// its ledger deltas. Users with ledger rows but no wallet count as a
// mismatch against a zero balance.
func NewLedgerReconcileJob(params LedgerReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	maxReported := params.MaxReported
	if maxReported <= 0 {
		maxReported = defaultMismatchLogSize
	}
	return &ledgerReconcileJob{
		logg:        params.Logger,
		wallets:     params.Wallets,
		ledger:      params.Ledger,
		metrics:     params.Metrics,
		maxReported: maxReported,
	}, nil
}

type ledgerReconcileJob struct {
	logg        *logger.Logger
	wallets     walletBalances
	ledger      ledgerSums
	metrics     *metrics.EconomyMetrics
	maxReported int
}

func (j *ledgerReconcileJob) Name() string { return "ledger-reconcile" }

// Mismatch is one user whose cached balance disagrees with the ledger.
type Mismatch struct {
	UserID    string
	Balance   int64
	LedgerSum int64
}

func (j *ledgerReconcileJob) Run(ctx context.Context) error {
	balances, err := j.wallets.Balances(ctx)
	if err != nil {
		return fmt.Errorf("load wallet balances: %w", err)
	}
	sums, err := j.ledger.SumDeltasByUser(ctx)
	if err != nil {
		return fmt.Errorf("sum ledger deltas: %w", err)
	}

	mismatches := findMismatches(balances, sums)
	j.metrics.SetReconcileMismatches(len(mismatches))

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"wallets":    len(balances),
		"mismatches": len(mismatches),
	})
	if len(mismatches) == 0 {
		j.logg.Info(logCtx, "ledger reconcile clean")
		return nil
	}

	var errs error
	for i, m := range mismatches {
		if i >= j.maxReported {
			break
		}
		errs = multierr.Append(errs, fmt.Errorf("user %s: balance %d, ledger sum %d", m.UserID, m.Balance, m.LedgerSum))
		j.logg.Warn(j.logg.WithFields(logCtx, map[string]any{
			"user_id":    m.UserID,
			"balance":    m.Balance,
			"ledger_sum": m.LedgerSum,
		}), "wallet balance drifted from ledger")
	}
	if extra := len(mismatches) - j.maxReported; extra > 0 {
		errs = multierr.Append(errs, fmt.Errorf("%d more mismatches not listed", extra))
	}
	return fmt.Errorf("ledger reconcile found %d mismatches: %w", len(mismatches), errs)
}

func findMismatches(balances, sums map[string]int64) []Mismatch {
	var out []Mismatch
	for userID, balance := range balances {
		if sum := sums[userID]; sum != balance {
			out = append(out, Mismatch{UserID: userID, Balance: balance, LedgerSum: sum})
		}
	}
	for userID, sum := range sums {
		if _, ok := balances[userID]; !ok && sum != 0 {
			out = append(out, Mismatch{UserID: userID, LedgerSum: sum})
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].UserID < out[k].UserID })
	return out
}
