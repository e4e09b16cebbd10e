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

// GormPayoutRepository implements PayoutRepository using GORM
type GormPayoutRepository struct {
	db *gorm.DB
}

// NewGormPayoutRepository creates a new GormPayoutRepository
func NewGormPayoutRepository(db *gorm.DB) *GormPayoutRepository {
	return &GormPayoutRepository{db: db}
}

// FindByID finds a payout request by its ID
func (r *GormPayoutRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.PayoutRequest, error) {
	var payout wallet.PayoutRequest
	if err := r.db.WithContext(ctx).First(&payout, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payout, nil
}

// FindByIDForUser finds a user's payout request by ID
func (r *GormPayoutRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*wallet.PayoutRequest, error) {
	var payout wallet.PayoutRequest
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&payout).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payout, nil
}

// FindByUser lists a user's payout requests, newest first
func (r *GormPayoutRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]wallet.PayoutRequest, error) {
	query := r.db.WithContext(ctx).Model(&wallet.PayoutRequest{}).Where("user_id = ?", userID)

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var payouts []wallet.PayoutRequest
	if err := query.Order("created_at DESC").Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

// FindByStatus lists requests in a given status
func (r *GormPayoutRepository) FindByStatus(ctx context.Context, status wallet.PayoutStatus, filter shared.Filter) ([]wallet.PayoutRequest, error) {
	query := r.db.WithContext(ctx).Model(&wallet.PayoutRequest{}).Where("status = ?", status)

	if method, ok := filter.Filters["method"]; ok {
		query = query.Where("method = ?", method)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var payouts []wallet.PayoutRequest
	if err := query.Order("created_at ASC").Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

// FindRetryable lists failed requests whose retry window has elapsed
func (r *GormPayoutRepository) FindRetryable(ctx context.Context, now time.Time, limit int) ([]wallet.PayoutRequest, error) {
	var payouts []wallet.PayoutRequest
	if err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < max_retries AND next_retry_at IS NOT NULL AND next_retry_at <= ?",
			wallet.PayoutStatusFailed, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&payouts).Error; err != nil {
		return nil, err
	}
	return payouts, nil
}

// FindByGatewayReference resolves a gateway webhook back to a request
func (r *GormPayoutRepository) FindByGatewayReference(ctx context.Context, ref string) (*wallet.PayoutRequest, error) {
	var payout wallet.PayoutRequest
	if err := r.db.WithContext(ctx).
		Where("gateway_reference = ?", ref).
		First(&payout).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payout, nil
}

// Save creates or updates a payout request
func (r *GormPayoutRepository) Save(ctx context.Context, payout *wallet.PayoutRequest) error {
	return r.db.WithContext(ctx).Save(payout).Error
}

// Ensure GormPayoutRepository implements PayoutRepository
var _ wallet.PayoutRepository = (*GormPayoutRepository)(nil)
