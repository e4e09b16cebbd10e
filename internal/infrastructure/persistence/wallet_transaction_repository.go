package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/czachandrew/tru-server/internal/domain/wallet"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTransactionRepository implements TransactionRepository using GORM
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// FindByID finds a transaction by its ID
func (r *GormTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Transaction, error) {
	var tx wallet.Transaction
	if err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByIDForUser finds a user's transaction by ID
func (r *GormTransactionRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*wallet.Transaction, error) {
	var tx wallet.Transaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tx, nil
}

// FindByUser lists a user's transactions, newest first
func (r *GormTransactionRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]wallet.Transaction, error) {
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&wallet.Transaction{}).Where("user_id = ?", userID),
		filter,
	)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var txs []wallet.Transaction
	if err := query.Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindPendingProjections lists unconfirmed projected earnings older than the
// cutoff (reconciliation sweep)
func (r *GormTransactionRepository) FindPendingProjections(ctx context.Context, cutoff time.Time, limit int) ([]wallet.Transaction, error) {
	var txs []wallet.Transaction
	if err := r.db.WithContext(ctx).
		Where("type = ? AND status = ? AND created_at < ?",
			wallet.TransactionEarningProjected, wallet.TransactionStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// FindByOrderRef finds entries attributed to an order reference
func (r *GormTransactionRepository) FindByOrderRef(ctx context.Context, orderRef string) ([]wallet.Transaction, error) {
	var txs []wallet.Transaction
	if err := r.db.WithContext(ctx).
		Where("order_ref = ?", orderRef).
		Order("created_at ASC").
		Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// Save creates or updates a transaction
func (r *GormTransactionRepository) Save(ctx context.Context, tx *wallet.Transaction) error {
	return r.db.WithContext(ctx).Save(tx).Error
}

// CountByUser counts a user's transactions
func (r *GormTransactionRepository) CountByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&wallet.Transaction{}).Where("user_id = ?", userID),
		filter,
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormTransactionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "source_link_id":
			query = query.Where("source_link_id = ?", value)
		}
	}
	return query
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ wallet.TransactionRepository = (*GormTransactionRepository)(nil)
