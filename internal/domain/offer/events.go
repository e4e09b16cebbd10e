package offer

import (
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeOffer = "Offer"

// Event type constants
const (
	EventTypeOfferCreated      = "OfferCreated"
	EventTypeOfferPriceChanged = "OfferPriceChanged"
)

// OfferCreatedEvent is published when a new offer is listed
type OfferCreatedEvent struct {
	shared.BaseDomainEvent
	OfferID      uuid.UUID       `json:"offer_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	VendorID     uuid.UUID       `json:"vendor_id"`
	OfferType    OfferType       `json:"offer_type"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// NewOfferCreatedEvent creates a new OfferCreatedEvent
func NewOfferCreatedEvent(o *Offer) *OfferCreatedEvent {
	return &OfferCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOfferCreated, AggregateTypeOffer, o.ID),
		OfferID:         o.ID,
		ProductID:       o.ProductID,
		VendorID:        o.VendorID,
		OfferType:       o.Type,
		SellingPrice:    o.SellingPrice,
	}
}

// OfferPriceChangedEvent is published when an offer's price moves
type OfferPriceChangedEvent struct {
	shared.BaseDomainEvent
	OfferID   uuid.UUID       `json:"offer_id"`
	ProductID uuid.UUID       `json:"product_id"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
}

// NewOfferPriceChangedEvent creates a new OfferPriceChangedEvent
func NewOfferPriceChangedEvent(o *Offer, oldPrice, newPrice decimal.Decimal) *OfferPriceChangedEvent {
	return &OfferPriceChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOfferPriceChanged, AggregateTypeOffer, o.ID),
		OfferID:         o.ID,
		ProductID:       o.ProductID,
		OldPrice:        oldPrice,
		NewPrice:        newPrice,
	}
}
