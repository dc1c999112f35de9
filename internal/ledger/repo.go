package ledger

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ecomarket/ecocoins-backend/pkg/db"
	"github.com/ecomarket/ecocoins-backend/pkg/db/models"
)

const idempotencyIndex = "ux_wallet_ledger_idempotency"

// Repository persists wallet ledger entries. Entries are never updated or deleted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, entry *models.WalletLedgerEntry) (bool, error)
	Recent(ctx context.Context, userID string, limit int) ([]models.WalletLedgerEntry, error)
	SumDeltas(ctx context.Context, userID string) (int64, error)
	SumDeltasByUser(ctx context.Context) (map[string]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Insert appends the entry and reports whether a row was written. A row that
// collides with the idempotency index is reported as not inserted.
func (r *repository) Insert(ctx context.Context, entry *models.WalletLedgerEntry) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry)
	if res.Error != nil {
		if db.IsUniqueViolation(res.Error, idempotencyIndex) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) Recent(ctx context.Context, userID string, limit int) ([]models.WalletLedgerEntry, error) {
	var entries []models.WalletLedgerEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) SumDeltas(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.WalletLedgerEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&total).Error
	return total, err
}

type userSum struct {
	UserID string
	Total  int64
}

func (r *repository) SumDeltasByUser(ctx context.Context) (map[string]int64, error) {
	var rows []userSum
	err := r.db.WithContext(ctx).
		Model(&models.WalletLedgerEntry{}).
		Select("user_id, COALESCE(SUM(delta), 0) AS total").
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[string]int64, len(rows))
	for _, row := range rows {
		sums[row.UserID] = row.Total
	}
	return sums, nil
}
