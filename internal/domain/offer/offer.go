package offer

import (
	"encoding/json"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OfferType classifies where an offer's price comes from
type OfferType string

const (
	OfferTypeSupplier  OfferType = "supplier"
	OfferTypeAffiliate OfferType = "affiliate"
	OfferTypeQuote     OfferType = "quote"
)

// Availability mirrors marketplace stock states
type Availability string

const (
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityOutOfStock Availability = "out_of_stock"
	AvailabilityBackorder  Availability = "backorder"
	AvailabilityUnknown    Availability = "unknown"
)

// maxPriceHistoryEntries caps the retained price history per offer
const maxPriceHistoryEntries = 100

// PricePoint is one observed price with its timestamp
type PricePoint struct {
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// Offer represents one vendor's price for a product
type Offer struct {
	shared.BaseAggregateRoot
	ProductID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_offer_product"`
	VendorID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	Type           OfferType        `gorm:"type:varchar(20);not null;default:'supplier'"`
	SellingPrice   decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	CostPrice      *decimal.Decimal `gorm:"type:decimal(18,2)"`
	Currency       string           `gorm:"type:varchar(3);not null;default:'USD'"`
	CommissionRate decimal.Decimal  `gorm:"type:decimal(6,2);not null;default:0"`
	// ExpectedCommission is derived: selling_price * commission_rate / 100
	ExpectedCommission decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	StockQuantity      int             `gorm:"not null;default:0"`
	Availability       Availability    `gorm:"type:varchar(20);not null;default:'unknown'"`
	OfferURL           string          `gorm:"type:varchar(1000)"`
	// PriceHistory is a JSON array of PricePoint, newest last, capped at 100
	PriceHistory string     `gorm:"type:jsonb;default:'[]'"`
	IsActive     bool       `gorm:"not null;default:true"`
	ExpiresAt    *time.Time // quotes expire; supplier/affiliate offers do not
}

// TableName returns the table name for GORM
func (Offer) TableName() string {
	return "offers"
}

// NewOffer creates a new offer and seeds its price history
func NewOffer(productID, vendorID uuid.UUID, offerType OfferType, sellingPrice, commissionRate decimal.Decimal) (*Offer, error) {
	if productID == uuid.Nil || vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Product and vendor are required")
	}
	switch offerType {
	case OfferTypeSupplier, OfferTypeAffiliate, OfferTypeQuote:
	default:
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown offer type")
	}
	if sellingPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}
	if commissionRate.IsNegative() || commissionRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_RATE", "Commission rate must be between 0 and 100")
	}

	offer := &Offer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		VendorID:          vendorID,
		Type:              offerType,
		SellingPrice:      sellingPrice,
		Currency:          "USD",
		CommissionRate:    commissionRate,
		Availability:      AvailabilityUnknown,
		IsActive:          true,
		PriceHistory:      "[]",
	}
	offer.recalcCommission()
	offer.appendPricePoint(sellingPrice)

	offer.AddDomainEvent(NewOfferCreatedEvent(offer))

	return offer, nil
}

// UpdatePrice records a new selling price, appending to the price history
// when the price actually changed
func (o *Offer) UpdatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}
	if o.SellingPrice.Equal(price) {
		return nil
	}

	old := o.SellingPrice
	o.SellingPrice = price
	o.recalcCommission()
	o.appendPricePoint(price)
	o.UpdatedAt = time.Now()
	o.IncrementVersion()

	o.AddDomainEvent(NewOfferPriceChangedEvent(o, old, price))

	return nil
}

// SetCommissionRate updates the commission rate and recomputes the
// projected commission
func (o *Offer) SetCommissionRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_RATE", "Commission rate must be between 0 and 100")
	}
	o.CommissionRate = rate
	o.recalcCommission()
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// SetStock updates stock quantity and availability together
func (o *Offer) SetStock(quantity int, availability Availability) {
	if quantity < 0 {
		quantity = 0
	}
	o.StockQuantity = quantity
	o.Availability = availability
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// SetExpiry sets the expiration for quote offers
func (o *Offer) SetExpiry(expiresAt time.Time) error {
	if o.Type != OfferTypeQuote {
		return shared.NewDomainError("NOT_A_QUOTE", "Only quote offers expire")
	}
	o.ExpiresAt = &expiresAt
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}

// IsExpired reports whether a quote offer has lapsed
func (o *Offer) IsExpired(now time.Time) bool {
	return o.ExpiresAt != nil && now.After(*o.ExpiresAt)
}

// Deactivate hides the offer from listings
func (o *Offer) Deactivate() {
	o.IsActive = false
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// History decodes the stored price history
func (o *Offer) History() ([]PricePoint, error) {
	var points []PricePoint
	if o.PriceHistory == "" {
		return points, nil
	}
	if err := json.Unmarshal([]byte(o.PriceHistory), &points); err != nil {
		return nil, err
	}
	return points, nil
}

func (o *Offer) recalcCommission() {
	o.ExpectedCommission = o.SellingPrice.Mul(o.CommissionRate).Div(decimal.NewFromInt(100)).Round(2)
}

func (o *Offer) appendPricePoint(price decimal.Decimal) {
	points, err := o.History()
	if err != nil {
		points = nil
	}
	points = append(points, PricePoint{Price: price, Timestamp: time.Now()})
	if len(points) > maxPriceHistoryEntries {
		points = points[len(points)-maxPriceHistoryEntries:]
	}
	if data, err := json.Marshal(points); err == nil {
		o.PriceHistory = string(data)
	}
}
