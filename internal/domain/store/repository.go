package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CartRepository defines the interface for cart persistence
type CartRepository interface {
	// FindByID finds a cart by its ID, items included
	FindByID(ctx context.Context, id uuid.UUID) (*Cart, error)

	// FindActiveByUser finds the user's active cart
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// FindActiveBySession finds the active cart for a session token
	FindActiveBySession(ctx context.Context, sessionToken string) (*Cart, error)

	// FindStale finds active carts untouched since the cutoff
	FindStale(ctx context.Context, cutoff time.Time, limit int) ([]Cart, error)

	// Save creates or updates a cart and its items
	Save(ctx context.Context, cart *Cart) error

	// Delete deletes a cart
	Delete(ctx context.Context, id uuid.UUID) error
}
