package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/offer"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOfferRepository implements offer.Repository using GORM
type GormOfferRepository struct {
	db *gorm.DB
}

// NewGormOfferRepository creates a new GormOfferRepository
func NewGormOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// FindByID finds an offer by its ID
func (r *GormOfferRepository) FindByID(ctx context.Context, id uuid.UUID) (*offer.Offer, error) {
	var o offer.Offer
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindByProduct finds active offers for a product, cheapest first
func (r *GormOfferRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]offer.Offer, error) {
	var offers []offer.Offer
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("selling_price ASC").
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// FindByProductAndVendor finds a vendor's offer on a product
func (r *GormOfferRepository) FindByProductAndVendor(ctx context.Context, productID, vendorID uuid.UUID) (*offer.Offer, error) {
	var o offer.Offer
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND vendor_id = ?", productID, vendorID).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindExpiredQuotes finds active quote offers past their expiry
func (r *GormOfferRepository) FindExpiredQuotes(ctx context.Context, now time.Time, limit int) ([]offer.Offer, error) {
	var offers []offer.Offer
	if err := r.db.WithContext(ctx).
		Where("type = ? AND is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?",
			offer.OfferTypeQuote, true, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// FindAll finds all offers matching the filter
func (r *GormOfferRepository) FindAll(ctx context.Context, filter shared.Filter) ([]offer.Offer, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&offer.Offer{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var offers []offer.Offer
	if err := query.Order("created_at DESC").Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

// Save creates or updates an offer
func (r *GormOfferRepository) Save(ctx context.Context, o *offer.Offer) error {
	return r.db.WithContext(ctx).Save(o).Error
}

// Delete deletes an offer
func (r *GormOfferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&offer.Offer{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts offers matching the filter
func (r *GormOfferRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&offer.Offer{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormOfferRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "vendor_id":
			query = query.Where("vendor_id = ?", value)
		case "type":
			query = query.Where("type = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		case "availability":
			query = query.Where("availability = ?", value)
		}
	}
	return query
}

// Ensure GormOfferRepository implements offer.Repository
var _ offer.Repository = (*GormOfferRepository)(nil)
