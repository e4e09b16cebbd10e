package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/czachandrew/tru-server/internal/domain/affiliate"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLinkRepository implements LinkRepository using GORM
type GormLinkRepository struct {
	db *gorm.DB
}

// NewGormLinkRepository creates a new GormLinkRepository
func NewGormLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// FindByID finds a link by its ID
func (r *GormLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*affiliate.AffiliateLink, error) {
	var link affiliate.AffiliateLink
	if err := r.db.WithContext(ctx).First(&link, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// FindByProductAndPlatform finds the unique link for a product on a platform
func (r *GormLinkRepository) FindByProductAndPlatform(ctx context.Context, productID uuid.UUID, platform affiliate.Platform) (*affiliate.AffiliateLink, error) {
	var link affiliate.AffiliateLink
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND platform = ?", productID, platform).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// FindByProduct finds all links for a product
func (r *GormLinkRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]affiliate.AffiliateLink, error) {
	var links []affiliate.AffiliateLink
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("platform ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// FindByPlatformID finds links by marketplace identifier (ASIN)
func (r *GormLinkRepository) FindByPlatformID(ctx context.Context, platform affiliate.Platform, platformID string) ([]affiliate.AffiliateLink, error) {
	var links []affiliate.AffiliateLink
	if err := r.db.WithContext(ctx).
		Where("platform = ? AND platform_id = ?", platform, strings.ToUpper(strings.TrimSpace(platformID))).
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// FindNeedingRegeneration finds active links with empty or failed URLs that
// are not currently processing
func (r *GormLinkRepository) FindNeedingRegeneration(ctx context.Context, limit int) ([]affiliate.AffiliateLink, error) {
	var links []affiliate.AffiliateLink
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_processing = ?", true, false).
		Where("affiliate_url = '' OR affiliate_url LIKE 'ERROR:%'").
		Order("updated_at ASC").
		Limit(limit).
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// FindAll finds all links matching the filter
func (r *GormLinkRepository) FindAll(ctx context.Context, filter shared.Filter) ([]affiliate.AffiliateLink, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&affiliate.AffiliateLink{}), filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var links []affiliate.AffiliateLink
	if err := query.Order("created_at DESC").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// Save creates or updates a link
func (r *GormLinkRepository) Save(ctx context.Context, link *affiliate.AffiliateLink) error {
	return r.db.WithContext(ctx).Save(link).Error
}

// Delete deletes a link
func (r *GormLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&affiliate.AffiliateLink{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts links matching the filter
func (r *GormLinkRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&affiliate.AffiliateLink{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormLinkRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		query = query.Where("platform_id ILIKE ?", "%"+filter.Search+"%")
	}
	for key, value := range filter.Filters {
		switch key {
		case "platform":
			query = query.Where("platform = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		case "is_processing":
			query = query.Where("is_processing = ?", value)
		}
	}
	return query
}

// Ensure GormLinkRepository implements LinkRepository
var _ affiliate.LinkRepository = (*GormLinkRepository)(nil)
