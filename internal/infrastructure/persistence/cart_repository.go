package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/czachandrew/tru-server/internal/domain/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCartRepository implements CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByID finds a cart by its ID, items included
func (r *GormCartRepository) FindByID(ctx context.Context, id uuid.UUID) (*store.Cart, error) {
	var cart store.Cart
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&cart, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cart, nil
}

// FindActiveByUser finds the user's active cart
func (r *GormCartRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*store.Cart, error) {
	var cart store.Cart
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND status = ?", userID, store.CartStatusActive).
		Order("updated_at DESC").
		First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cart, nil
}

// FindActiveBySession finds the active cart for a session token
func (r *GormCartRepository) FindActiveBySession(ctx context.Context, sessionToken string) (*store.Cart, error) {
	var cart store.Cart
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("session_token = ? AND status = ?", sessionToken, store.CartStatusActive).
		Order("updated_at DESC").
		First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &cart, nil
}

// FindStale finds active carts untouched since the cutoff
func (r *GormCartRepository) FindStale(ctx context.Context, cutoff time.Time, limit int) ([]store.Cart, error) {
	var carts []store.Cart
	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", store.CartStatusActive, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&carts).Error; err != nil {
		return nil, err
	}
	return carts, nil
}

// Save creates or updates a cart and its items. Item rows removed from the
// aggregate are deleted so the stored set always mirrors it.
func (r *GormCartRepository) Save(ctx context.Context, cart *store.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(cart).Error; err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(cart.Items))
		for i := range cart.Items {
			if err := tx.Save(&cart.Items[i]).Error; err != nil {
				return err
			}
			keep = append(keep, cart.Items[i].ID)
		}

		query := tx.Where("cart_id = ?", cart.ID)
		if len(keep) > 0 {
			query = query.Where("id NOT IN ?", keep)
		}
		return query.Delete(&store.CartItem{}).Error
	})
}

// Delete deletes a cart and its items
func (r *GormCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", id).Delete(&store.CartItem{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&store.Cart{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Ensure GormCartRepository implements CartRepository
var _ store.CartRepository = (*GormCartRepository)(nil)
