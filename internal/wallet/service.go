package wallet

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ecomarket/ecocoins-backend/internal/ledger"
	"github.com/ecomarket/ecocoins-backend/pkg/db"
	"github.com/ecomarket/ecocoins-backend/pkg/db/models"
	"github.com/ecomarket/ecocoins-backend/pkg/enums"
	pkgerrors "github.com/ecomarket/ecocoins-backend/pkg/errors"
	"github.com/ecomarket/ecocoins-backend/pkg/logger"
	"github.com/ecomarket/ecocoins-backend/pkg/metrics"
	"github.com/ecomarket/ecocoins-backend/pkg/outbox"
	"github.com/ecomarket/ecocoins-backend/pkg/outbox/payloads"
)

// Service exposes the wallet operations. The *InTx variants join a caller's
// transaction so checkout and cancellation stay atomic.
type Service interface {
	GetOrCreate(ctx context.Context, userID string) (*models.Wallet, error)
	Read(ctx context.Context, userID string) (*View, error)
	Earn(ctx context.Context, input MutationInput) (*Result, error)
	Spend(ctx context.Context, input MutationInput) (*Result, error)
	Refund(ctx context.Context, input MutationInput) (*Result, error)
	Adjust(ctx context.Context, input AdjustInput) (*Result, error)
	BalanceInTx(ctx context.Context, tx *gorm.DB, userID string) (int64, error)
	SpendInTx(ctx context.Context, tx *gorm.DB, input MutationInput) (*Result, error)
	RefundInTx(ctx context.Context, tx *gorm.DB, input MutationInput) (*Result, error)
}

type ServiceParams struct {
	DB          db.TxRunner
	Repo        Repository
	Ledger      ledger.Service
	Outbox      outbox.Emitter
	Metrics     *metrics.EconomyMetrics
	Logger      *logger.Logger
	RecentLimit int
}

type service struct {
	db          db.TxRunner
	repo        Repository
	ledger      ledger.Service
	outbox      outbox.Emitter
	metrics     *metrics.EconomyMetrics
	logg        *logger.Logger
	recentLimit int
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	limit := params.RecentLimit
	if limit <= 0 {
		limit = ledger.DefaultRecentLimit
	}
	return &service{
		db:          params.DB,
		repo:        params.Repo,
		ledger:      params.Ledger,
		outbox:      params.Outbox,
		metrics:     params.Metrics,
		logg:        params.Logger,
		recentLimit: limit,
	}, nil
}

func (s *service) GetOrCreate(ctx context.Context, userID string) (*models.Wallet, error) {
	userID, err := normalizeUser(userID)
	if err != nil {
		return nil, err
	}
	wallet, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get or create wallet")
	}
	return wallet, nil
}

// Read never creates a wallet; a user without one reads as an empty balance.
func (s *service) Read(ctx context.Context, userID string) (*View, error) {
	userID, err := normalizeUser(userID)
	if err != nil {
		return nil, err
	}
	wallet, err := s.repo.Find(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	view := &View{UserID: userID, RecentLedger: []LedgerEntry{}}
	if wallet == nil {
		return view, nil
	}
	view.EcoCoinsBalance = wallet.EcoCoinsBalance

	entries, err := s.ledger.Recent(ctx, userID, s.recentLimit)
	if err != nil {
		return nil, err
	}
	view.RecentLedger = toLedgerEntries(entries)
	return view, nil
}

func (s *service) Earn(ctx context.Context, input MutationInput) (*Result, error) {
	return s.inTx(ctx, func(tx *gorm.DB) (*Result, error) {
		return s.apply(ctx, tx, mutationFor(enums.LedgerEntryTypeEarn, input))
	})
}

func (s *service) Spend(ctx context.Context, input MutationInput) (*Result, error) {
	return s.inTx(ctx, func(tx *gorm.DB) (*Result, error) {
		return s.SpendInTx(ctx, tx, input)
	})
}

func (s *service) Refund(ctx context.Context, input MutationInput) (*Result, error) {
	return s.inTx(ctx, func(tx *gorm.DB) (*Result, error) {
		return s.RefundInTx(ctx, tx, input)
	})
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*Result, error) {
	if input.Delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}
	amount := input.Delta
	if amount < 0 {
		amount = -amount
	}
	m := mutation{
		entryType: enums.LedgerEntryTypeAdjust,
		userID:    input.UserID,
		amount:    amount,
		delta:     input.Delta,
		source:    input.Source,
		refID:     input.RefID,
		note:      input.Note,
		actor:     input.Actor,
	}
	return s.inTx(ctx, func(tx *gorm.DB) (*Result, error) {
		return s.apply(ctx, tx, m)
	})
}

func (s *service) SpendInTx(ctx context.Context, tx *gorm.DB, input MutationInput) (*Result, error) {
	return s.apply(ctx, tx, mutationFor(enums.LedgerEntryTypeSpend, input))
}

func (s *service) RefundInTx(ctx context.Context, tx *gorm.DB, input MutationInput) (*Result, error) {
	return s.apply(ctx, tx, mutationFor(enums.LedgerEntryTypeRefund, input))
}

// BalanceInTx reads the current balance inside tx, zero when no wallet exists.
func (s *service) BalanceInTx(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	userID, err := normalizeUser(userID)
	if err != nil {
		return 0, err
	}
	wallet, err := s.repo.WithTx(tx).Find(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	if wallet == nil {
		return 0, nil
	}
	return wallet.EcoCoinsBalance, nil
}

func (s *service) inTx(ctx context.Context, fn func(tx *gorm.DB) (*Result, error)) (*Result, error) {
	var result *Result
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		res, err := fn(tx)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "wallet transaction failed")
		}
		return nil, err
	}
	return result, nil
}

type mutation struct {
	entryType enums.LedgerEntryType
	userID    string
	amount    int64
	delta     int64
	source    string
	refID     *string
	note      *string
	actor     *Actor
}

func mutationFor(entryType enums.LedgerEntryType, input MutationInput) mutation {
	return mutation{
		entryType: entryType,
		userID:    input.UserID,
		amount:    input.Amount,
		source:    input.Source,
		refID:     input.RefID,
		note:      input.Note,
		actor:     input.Actor,
	}
}

// apply runs insert-or-detect-duplicate on the ledger first; the wallet row is
// only touched when the entry is new, so a replay returns the current balance.
func (s *service) apply(ctx context.Context, tx *gorm.DB, m mutation) (*Result, error) {
	userID, err := normalizeUser(m.userID)
	if err != nil {
		return nil, err
	}
	if m.amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}

	repo := s.repo.WithTx(tx)
	if _, err := repo.GetOrCreate(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get or create wallet")
	}

	entry, inserted, err := s.ledger.Append(ctx, tx, ledger.AppendInput{
		UserID: userID,
		Type:   m.entryType,
		Amount: m.amount,
		Delta:  m.delta,
		Source: m.source,
		RefID:  m.refID,
		Note:   m.note,
	})
	if err != nil {
		return nil, err
	}

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithFields(ctx, map[string]any{
			"user_id":    userID,
			"entry_type": m.entryType,
			"amount":     m.amount,
			"source":     entry.Source,
		})
	}

	if !inserted {
		s.metrics.IncDuplicate(string(m.entryType))
		if s.logg != nil {
			s.logg.Info(logCtx, "wallet mutation already applied")
		}
		balance, err := s.currentBalance(ctx, repo, userID)
		if err != nil {
			return nil, err
		}
		return &Result{Balance: balance, Applied: false}, nil
	}

	if entry.Delta >= 0 {
		if err := repo.Increment(ctx, userID, entry.Delta); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit wallet")
		}
	} else {
		ok, err := repo.DecrementIfSufficient(ctx, userID, -entry.Delta)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit wallet")
		}
		if !ok {
			s.metrics.IncInsufficientBalance()
			balance, err := s.currentBalance(ctx, repo, userID)
			if err != nil {
				return nil, err
			}
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient ecocoins balance").
				WithDetails(map[string]any{"balance": balance, "requested": -entry.Delta})
		}
	}

	balance, err := s.currentBalance(ctx, repo, userID)
	if err != nil {
		return nil, err
	}

	if err := s.emit(ctx, tx, entry, balance, m.actor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue wallet event")
	}
	s.metrics.AddCoins(string(m.entryType), m.amount)
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(logCtx, "new_balance", balance), "wallet mutation applied")
	}

	id := entry.ID
	return &Result{Balance: balance, Applied: true, EntryID: &id}, nil
}

func (s *service) currentBalance(ctx context.Context, repo Repository, userID string) (int64, error) {
	wallet, err := repo.Find(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	if wallet == nil {
		return 0, nil
	}
	return wallet.EcoCoinsBalance, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, entry *models.WalletLedgerEntry, balance int64, actor *Actor) error {
	if s.outbox == nil {
		return nil
	}
	var ref *outbox.ActorRef
	if actor != nil {
		ref = &outbox.ActorRef{UserID: actor.UserID, Role: actor.Role}
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.LedgerEventFor(entry.Type),
		AggregateType: enums.AggregateWallet,
		AggregateID:   entry.UserID,
		Actor:         ref,
		Data: payloads.WalletEntryEvent{
			UserID:     entry.UserID,
			EntryID:    entry.ID,
			Type:       entry.Type,
			Amount:     entry.Amount,
			Delta:      entry.Delta,
			Source:     entry.Source,
			RefID:      entry.RefID,
			NewBalance: balance,
		},
	})
}

func normalizeUser(userID string) (string, error) {
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return trimmed, nil
}
