package ledger

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ecomarket/ecocoins-backend/pkg/db/models"
	"github.com/ecomarket/ecocoins-backend/pkg/enums"
	pkgerrors "github.com/ecomarket/ecocoins-backend/pkg/errors"
)

// Service records balance changes. Callers own the transaction and must apply
// the wallet mutation only when Append reports a fresh entry.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.WalletLedgerEntry, bool, error)
	Recent(ctx context.Context, userID string, limit int) ([]models.WalletLedgerEntry, error)
	SumDeltas(ctx context.Context, userID string) (int64, error)
	SumDeltasByUser(ctx context.Context) (map[string]int64, error)
}

// AppendInput captures one ledger row. Delta is only read for ADJUST entries;
// every other type derives its sign from the type.
type AppendInput struct {
	UserID string
	Type   enums.LedgerEntryType
	Amount int64
	Delta  int64
	Source string
	RefID  *string
	Note   *string
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.WalletLedgerEntry, bool, error) {
	entry, err := buildEntry(input)
	if err != nil {
		return nil, false, err
	}
	inserted, err := s.repo.WithTx(tx).Insert(ctx, entry)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
	}
	return entry, inserted, nil
}

func (s *service) Recent(ctx context.Context, userID string, limit int) ([]models.WalletLedgerEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	entries, err := s.repo.Recent(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return entries, nil
}

func (s *service) SumDeltas(ctx context.Context, userID string) (int64, error) {
	return s.repo.SumDeltas(ctx, userID)
}

func (s *service) SumDeltasByUser(ctx context.Context) (map[string]int64, error) {
	return s.repo.SumDeltasByUser(ctx)
}

// DefaultRecentLimit is the number of entries returned by wallet reads.
const DefaultRecentLimit = 20

func buildEntry(input AppendInput) (*models.WalletLedgerEntry, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid ledger entry type %q", input.Type))
	}
	source := strings.TrimSpace(input.Source)
	if source == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source is required")
	}
	if input.Amount < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be non-negative")
	}

	var delta int64
	switch input.Type {
	case enums.LedgerEntryTypeEarn, enums.LedgerEntryTypeRefund:
		delta = input.Amount
	case enums.LedgerEntryTypeSpend:
		delta = -input.Amount
	case enums.LedgerEntryTypeAdjust:
		if input.Delta != input.Amount && input.Delta != -input.Amount {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjust delta must match amount")
		}
		delta = input.Delta
	}

	return &models.WalletLedgerEntry{
		UserID: userID,
		Type:   input.Type,
		Source: source,
		RefID:  normalizeRef(input.RefID),
		Amount: input.Amount,
		Delta:  delta,
		Note:   input.Note,
	}, nil
}

func normalizeRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ref)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
