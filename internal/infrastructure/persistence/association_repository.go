package persistence

import (
	"context"
	"errors"

	"github.com/czachandrew/tru-server/internal/domain/affiliate"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAssociationRepository implements AssociationRepository using GORM
type GormAssociationRepository struct {
	db *gorm.DB
}

// NewGormAssociationRepository creates a new GormAssociationRepository
func NewGormAssociationRepository(db *gorm.DB) *GormAssociationRepository {
	return &GormAssociationRepository{db: db}
}

// FindByID finds an association by its ID
func (r *GormAssociationRepository) FindByID(ctx context.Context, id uuid.UUID) (*affiliate.ProductAssociation, error) {
	var assoc affiliate.ProductAssociation
	if err := r.db.WithContext(ctx).First(&assoc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &assoc, nil
}

// FindBySource finds associations from a source product, highest confidence first
func (r *GormAssociationRepository) FindBySource(ctx context.Context, sourceProductID uuid.UUID, limit int) ([]affiliate.ProductAssociation, error) {
	var assocs []affiliate.ProductAssociation
	if err := r.db.WithContext(ctx).
		Where("source_product_id = ?", sourceProductID).
		Order("confidence DESC").
		Limit(limit).
		Find(&assocs).Error; err != nil {
		return nil, err
	}
	return assocs, nil
}

// FindByPair finds the association for an exact (source, target, type) triple
func (r *GormAssociationRepository) FindByPair(ctx context.Context, sourceID, targetID uuid.UUID, assocType affiliate.AssociationType) (*affiliate.ProductAssociation, error) {
	var assoc affiliate.ProductAssociation
	if err := r.db.WithContext(ctx).
		Where("source_product_id = ? AND target_product_id = ? AND type = ?", sourceID, targetID, assocType).
		First(&assoc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &assoc, nil
}

// Save creates or updates an association
func (r *GormAssociationRepository) Save(ctx context.Context, assoc *affiliate.ProductAssociation) error {
	return r.db.WithContext(ctx).Save(assoc).Error
}

// Delete deletes an association
func (r *GormAssociationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&affiliate.ProductAssociation{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormAssociationRepository implements AssociationRepository
var _ affiliate.AssociationRepository = (*GormAssociationRepository)(nil)
