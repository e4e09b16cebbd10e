package catalog

import (
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated       = "ProductCreated"
	EventTypeProductUpdated       = "ProductUpdated"
	EventTypeProductStatusChanged = "ProductStatusChanged"
	EventTypeFutureDemandRecorded = "FutureDemandRecorded"
)

// ProductCreatedEvent is published when a new product is created
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	ProductID      uuid.UUID     `json:"product_id"`
	ManufacturerID uuid.UUID     `json:"manufacturer_id"`
	PartNumber     string        `json:"part_number"`
	Name           string        `json:"name"`
	Source         ProductSource `json:"source"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(product *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductCreated, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		ManufacturerID:  product.ManufacturerID,
		PartNumber:      product.PartNumber,
		Name:            product.Name,
		Source:          product.Source,
	}
}

// ProductUpdatedEvent is published when a product is updated
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID  `json:"product_id"`
	PartNumber string     `json:"part_number"`
	Name       string     `json:"name"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
}

// NewProductUpdatedEvent creates a new ProductUpdatedEvent
func NewProductUpdatedEvent(product *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductUpdated, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		PartNumber:      product.PartNumber,
		Name:            product.Name,
		CategoryID:      product.CategoryID,
	}
}

// ProductStatusChangedEvent is published when a product's status changes
type ProductStatusChangedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID     `json:"product_id"`
	PartNumber string        `json:"part_number"`
	OldStatus  ProductStatus `json:"old_status"`
	NewStatus  ProductStatus `json:"new_status"`
}

// NewProductStatusChangedEvent creates a new ProductStatusChangedEvent
func NewProductStatusChangedEvent(product *Product, oldStatus, newStatus ProductStatus) *ProductStatusChangedEvent {
	return &ProductStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductStatusChanged, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		PartNumber:      product.PartNumber,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}

// FutureDemandRecordedEvent is published when a consumer shows interest in a
// product that cannot be monetized yet
type FutureDemandRecordedEvent struct {
	shared.BaseDomainEvent
	ProductID   uuid.UUID `json:"product_id"`
	PartNumber  string    `json:"part_number"`
	DemandCount int       `json:"demand_count"`
}

// NewFutureDemandRecordedEvent creates a new FutureDemandRecordedEvent
func NewFutureDemandRecordedEvent(product *Product) *FutureDemandRecordedEvent {
	return &FutureDemandRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFutureDemandRecorded, AggregateTypeProduct, product.ID),
		ProductID:       product.ID,
		PartNumber:      product.PartNumber,
		DemandCount:     product.FutureDemandCount,
	}
}
