package wallet

import (
	"time"

	"github.com/google/uuid"

	"github.com/ecomarket/ecocoins-backend/pkg/db/models"
	"github.com/ecomarket/ecocoins-backend/pkg/enums"
)

// MutationInput describes one EARN, SPEND or REFUND.
type MutationInput struct {
	UserID string
	Amount int64
	Source string
	RefID  *string
	Note   *string
	Actor  *Actor
}

// AdjustInput describes a signed administrative correction.
type AdjustInput struct {
	UserID string
	Delta  int64
	Source string
	RefID  *string
	Note   *string
	Actor  *Actor
}

// Actor identifies who requested the mutation, for the outbox envelope.
type Actor struct {
	UserID string
	Role   string
}

// Result is the outcome of a mutation. Applied is false when the ledger already
// held the entry and nothing changed.
type Result struct {
	Balance int64
	Applied bool
	EntryID *uuid.UUID
}

// View is the read model returned by GET /wallet/me.
type View struct {
	UserID          string        `json:"userId"`
	EcoCoinsBalance int64         `json:"ecoCoinsBalance"`
	RecentLedger    []LedgerEntry `json:"recentLedger"`
}

// LedgerEntry is the public shape of one ledger row.
type LedgerEntry struct {
	ID        uuid.UUID             `json:"id"`
	Type      enums.LedgerEntryType `json:"type"`
	Amount    int64                 `json:"amount"`
	Delta     int64                 `json:"delta"`
	Source    string                `json:"source"`
	RefID     *string               `json:"refId,omitempty"`
	Note      *string               `json:"note,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
}

func toLedgerEntries(rows []models.WalletLedgerEntry) []LedgerEntry {
	out := make([]LedgerEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, LedgerEntry{
			ID:        row.ID,
			Type:      row.Type,
			Amount:    row.Amount,
			Delta:     row.Delta,
			Source:    row.Source,
			RefID:     row.RefID,
			Note:      row.Note,
			CreatedAt: row.CreatedAt,
		})
	}
	return out
}
