package store

import (
	"strings"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartStatus tracks the cart lifecycle
type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusConverted CartStatus = "converted"
	CartStatusAbandoned CartStatus = "abandoned"
)

// AbandonedAfter is how long an untouched active cart survives before the
// cleanup sweep abandons it
const AbandonedAfter = 30 * 24 * time.Hour

// CartItem is one offer line inside a cart
type CartItem struct {
	shared.BaseEntity
	CartID   uuid.UUID `gorm:"type:uuid;not null;index"`
	OfferID  uuid.UUID `gorm:"type:uuid;not null"`
	Quantity int       `gorm:"not null;default:1"`
	// PriceAtAdd freezes the offer price at the moment it entered the cart
	PriceAtAdd decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (CartItem) TableName() string {
	return "cart_items"
}

// LineTotal returns quantity times the frozen price
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.PriceAtAdd.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is an anonymous (session) or user-owned shopping cart
type Cart struct {
	shared.BaseAggregateRoot
	UserID       *uuid.UUID `gorm:"type:uuid;index"`
	SessionToken string     `gorm:"type:varchar(64);index"`
	Status       CartStatus `gorm:"type:varchar(20);not null;default:'active'"`
	Items        []CartItem `gorm:"foreignKey:CartID"`
}

// TableName returns the table name for GORM
func (Cart) TableName() string {
	return "carts"
}

// NewUserCart creates a cart owned by a user
func NewUserCart(userID uuid.UUID) (*Cart, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User is required")
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            &userID,
		Status:            CartStatusActive,
	}, nil
}

// NewSessionCart creates an anonymous cart keyed by session token
func NewSessionCart(sessionToken string) (*Cart, error) {
	sessionToken = strings.TrimSpace(sessionToken)
	if sessionToken == "" {
		return nil, shared.NewDomainError("INVALID_SESSION", "Session token is required")
	}
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SessionToken:      sessionToken,
		Status:            CartStatusActive,
	}, nil
}

// AddItem adds an offer to the cart, merging quantities for repeat adds
func (c *Cart) AddItem(offerID uuid.UUID, quantity int, price decimal.Decimal) error {
	if err := c.ensureActive(); err != nil {
		return err
	}
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	for idx := range c.Items {
		if c.Items[idx].OfferID == offerID {
			c.Items[idx].Quantity += quantity
			c.Items[idx].UpdatedAt = time.Now()
			c.touch()
			return nil
		}
	}

	item := CartItem{
		BaseEntity: shared.NewBaseEntity(),
		CartID:     c.ID,
		OfferID:    offerID,
		Quantity:   quantity,
		PriceAtAdd: price,
	}
	c.Items = append(c.Items, item)
	c.touch()

	return nil
}

// UpdateItemQuantity sets an item's quantity; zero removes the item
func (c *Cart) UpdateItemQuantity(itemID uuid.UUID, quantity int) error {
	if err := c.ensureActive(); err != nil {
		return err
	}
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}

	for idx := range c.Items {
		if c.Items[idx].ID == itemID {
			if quantity == 0 {
				c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
			} else {
				c.Items[idx].Quantity = quantity
				c.Items[idx].UpdatedAt = time.Now()
			}
			c.touch()
			return nil
		}
	}

	return shared.ErrNotFound
}

// RemoveItem deletes an item from the cart
func (c *Cart) RemoveItem(itemID uuid.UUID) error {
	return c.UpdateItemQuantity(itemID, 0)
}

// Clear removes all items
func (c *Cart) Clear() error {
	if err := c.ensureActive(); err != nil {
		return err
	}
	c.Items = nil
	c.touch()
	return nil
}

// Total returns the sum of all line totals
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for idx := range c.Items {
		total = total.Add(c.Items[idx].LineTotal())
	}
	return total
}

// ItemCount returns the total quantity across lines
func (c *Cart) ItemCount() int {
	count := 0
	for idx := range c.Items {
		count += c.Items[idx].Quantity
	}
	return count
}

// MergeFrom absorbs another cart's items (used when a session cart meets a
// user cart at login). The source cart should be abandoned afterwards.
func (c *Cart) MergeFrom(other *Cart) error {
	if err := c.ensureActive(); err != nil {
		return err
	}
	for idx := range other.Items {
		item := other.Items[idx]
		if err := c.AddItem(item.OfferID, item.Quantity, item.PriceAtAdd); err != nil {
			return err
		}
	}
	return nil
}

// AttachUser claims a session cart for a logged-in user
func (c *Cart) AttachUser(userID uuid.UUID) error {
	if c.UserID != nil {
		return shared.ErrInvalidState
	}
	if userID == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "User is required")
	}
	c.UserID = &userID
	c.touch()
	return nil
}

// MarkConverted closes the cart after checkout
func (c *Cart) MarkConverted() error {
	if err := c.ensureActive(); err != nil {
		return err
	}
	c.Status = CartStatusConverted
	c.touch()
	return nil
}

// MarkAbandoned closes a stale cart
func (c *Cart) MarkAbandoned() {
	if c.Status != CartStatusActive {
		return
	}
	c.Status = CartStatusAbandoned
	c.touch()
}

func (c *Cart) ensureActive() error {
	if c.Status != CartStatusActive {
		return shared.ErrInvalidState
	}
	return nil
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}
