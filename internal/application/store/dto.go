package store

import (
	"time"

	"github.com/czachandrew/tru-server/internal/domain/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemRequest puts an offer into the cart
type AddItemRequest struct {
	OfferID  uuid.UUID `json:"offer_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest changes a line's quantity; zero removes it
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// CartItemResponse is one cart line in API responses
type CartItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	OfferID    uuid.UUID       `json:"offer_id"`
	Quantity   int             `json:"quantity"`
	PriceAtAdd decimal.Decimal `json:"price_at_add"`
	LineTotal  decimal.Decimal `json:"line_total"`
}

// CartResponse represents a cart in API responses
type CartResponse struct {
	ID           uuid.UUID          `json:"id"`
	UserID       *uuid.UUID         `json:"user_id,omitempty"`
	SessionToken string             `json:"session_token,omitempty"`
	Status       string             `json:"status"`
	Items        []CartItemResponse `json:"items"`
	ItemCount    int                `json:"item_count"`
	Total        decimal.Decimal    `json:"total"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// CleanupResponse summarizes an abandoned-cart sweep
type CleanupResponse struct {
	Abandoned int `json:"abandoned"`
}

// ToCartResponse converts a domain cart to CartResponse
func ToCartResponse(c *store.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(c.Items))
	for i := range c.Items {
		item := &c.Items[i]
		items = append(items, CartItemResponse{
			ID:         item.ID,
			OfferID:    item.OfferID,
			Quantity:   item.Quantity,
			PriceAtAdd: item.PriceAtAdd,
			LineTotal:  item.LineTotal(),
		})
	}

	return CartResponse{
		ID:           c.ID,
		UserID:       c.UserID,
		SessionToken: c.SessionToken,
		Status:       string(c.Status),
		Items:        items,
		ItemCount:    c.ItemCount(),
		Total:        c.Total(),
		UpdatedAt:    c.UpdatedAt,
	}
}
