package persistence

import (
	"context"
	"errors"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/czachandrew/tru-server/internal/domain/wallet"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormWalletRepository implements wallet.Repository using GORM
type GormWalletRepository struct {
	db *gorm.DB
}

// NewGormWalletRepository creates a new GormWalletRepository
func NewGormWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// FindByID finds a wallet by its ID
func (r *GormWalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	var w wallet.Wallet
	if err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// FindByUser finds a user's wallet
func (r *GormWalletRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	var w wallet.Wallet
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

// Save creates or updates a wallet with optimistic locking. Concurrent
// writers lose with ErrConcurrencyConflict and must reload.
func (r *GormWalletRepository) Save(ctx context.Context, w *wallet.Wallet) error {
	if w.Version <= 1 {
		return r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(w).Error
	}

	result := r.db.WithContext(ctx).
		Model(&wallet.Wallet{}).
		Where("id = ? AND version = ?", w.ID, w.Version-1).
		Updates(map[string]interface{}{
			"available_balance":  w.AvailableBalance,
			"pending_balance":    w.PendingBalance,
			"lifetime_earnings":  w.LifetimeEarnings,
			"revenue_share_rate": w.RevenueShareRate,
			"activity_score":     w.ActivityScore,
			"min_cashout":        w.MinCashout,
			"version":            w.Version,
			"updated_at":         w.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindTopByActivity returns wallets ordered by activity score (leaderboard)
func (r *GormWalletRepository) FindTopByActivity(ctx context.Context, limit int) ([]wallet.Wallet, error) {
	var wallets []wallet.Wallet
	if err := r.db.WithContext(ctx).
		Order("activity_score DESC, lifetime_earnings DESC").
		Limit(limit).
		Find(&wallets).Error; err != nil {
		return nil, err
	}
	return wallets, nil
}

// Ensure GormWalletRepository implements wallet.Repository
var _ wallet.Repository = (*GormWalletRepository)(nil)
