package wallet

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ecomarket/ecocoins-backend/pkg/db/models"
)

// Repository owns the wallets table. Balance changes are single conditional
// statements; nothing reads a balance and writes it back.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetOrCreate(ctx context.Context, userID string) (*models.Wallet, error)
	Find(ctx context.Context, userID string) (*models.Wallet, error)
	Increment(ctx context.Context, userID string, amount int64) error
	DecrementIfSufficient(ctx context.Context, userID string, amount int64) (bool, error)
	Balances(ctx context.Context) (map[string]int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// GetOrCreate inserts an empty wallet unless one exists and returns the stored row.
func (r *repository) GetOrCreate(ctx context.Context, userID string) (*models.Wallet, error) {
	candidate := &models.Wallet{UserID: userID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(candidate).Error; err != nil {
		return nil, err
	}
	var wallet models.Wallet
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Find returns nil when the user has no wallet yet.
func (r *repository) Find(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) Increment(ctx context.Context, userID string, amount int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"eco_coins_balance": gorm.Expr("eco_coins_balance + ?", amount),
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementIfSufficient reports false when the balance is below amount.
func (r *repository) DecrementIfSufficient(ctx context.Context, userID string, amount int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("user_id = ? AND eco_coins_balance >= ?", userID, amount).
		Updates(map[string]any{
			"eco_coins_balance": gorm.Expr("eco_coins_balance - ?", amount),
			"updated_at":        time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Balances(ctx context.Context) (map[string]int64, error) {
	var wallets []models.Wallet
	if err := r.db.WithContext(ctx).
		Select("user_id", "eco_coins_balance").
		Find(&wallets).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(wallets))
	for _, w := range wallets {
		out[w.UserID] = w.EcoCoinsBalance
	}
	return out, nil
}
