package offer

import (
	"time"

	"github.com/czachandrew/tru-server/internal/domain/offer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateOfferRequest represents a request to list a vendor's price
type CreateOfferRequest struct {
	ProductID    uuid.UUID       `json:"product_id" binding:"required"`
	VendorID     uuid.UUID       `json:"vendor_id" binding:"required"`
	Type         string          `json:"type" binding:"required,oneof=supplier affiliate quote"`
	SellingPrice decimal.Decimal `json:"selling_price" binding:"required"`
	// CommissionRate falls back to the vendor's default when omitted
	CommissionRate *decimal.Decimal `json:"commission_rate"`
	StockQuantity  int              `json:"stock_quantity" binding:"omitempty,min=0"`
	Availability   string           `json:"availability" binding:"omitempty,oneof=in_stock out_of_stock backorder unknown"`
	OfferURL       string           `json:"offer_url" binding:"omitempty,max=1000,url"`
	// ExpiresAt is required for quote offers and rejected for the rest
	ExpiresAt *time.Time `json:"expires_at"`
}

// UpdatePriceRequest carries a fresh price observation
type UpdatePriceRequest struct {
	SellingPrice decimal.Decimal `json:"selling_price" binding:"required"`
}

// UpdateStockRequest carries a stock refresh
type UpdateStockRequest struct {
	StockQuantity int    `json:"stock_quantity" binding:"min=0"`
	Availability  string `json:"availability" binding:"required,oneof=in_stock out_of_stock backorder unknown"`
}

// CreateVendorRequest represents a request to register a vendor
type CreateVendorRequest struct {
	Name                  string           `json:"name" binding:"required,max=200"`
	Type                  string           `json:"type" binding:"required,oneof=supplier affiliate"`
	ContactEmail          string           `json:"contact_email" binding:"omitempty,email"`
	Website               string           `json:"website" binding:"omitempty,max=500,url"`
	DefaultCommissionRate *decimal.Decimal `json:"default_commission_rate"`
}

// OfferResponse represents an offer in API responses
type OfferResponse struct {
	ID                 uuid.UUID        `json:"id"`
	ProductID          uuid.UUID        `json:"product_id"`
	VendorID           uuid.UUID        `json:"vendor_id"`
	Type               string           `json:"type"`
	SellingPrice       decimal.Decimal  `json:"selling_price"`
	CostPrice          *decimal.Decimal `json:"cost_price,omitempty"`
	Currency           string           `json:"currency"`
	CommissionRate     decimal.Decimal  `json:"commission_rate"`
	ExpectedCommission decimal.Decimal  `json:"expected_commission"`
	StockQuantity      int              `json:"stock_quantity"`
	Availability       string           `json:"availability"`
	OfferURL           string           `json:"offer_url,omitempty"`
	IsActive           bool             `json:"is_active"`
	ExpiresAt          *time.Time       `json:"expires_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// PricePointResponse is one price history entry
type PricePointResponse struct {
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// VendorResponse represents a vendor in API responses
type VendorResponse struct {
	ID                    uuid.UUID       `json:"id"`
	Name                  string          `json:"name"`
	Slug                  string          `json:"slug"`
	Type                  string          `json:"type"`
	ContactEmail          string          `json:"contact_email,omitempty"`
	Website               string          `json:"website,omitempty"`
	IsActive              bool            `json:"is_active"`
	DefaultCommissionRate decimal.Decimal `json:"default_commission_rate"`
	CreatedAt             time.Time       `json:"created_at"`
}

// ExpireQuotesResponse summarizes a quote-expiry sweep
type ExpireQuotesResponse struct {
	Expired int `json:"expired"`
}

// ToOfferResponse converts a domain offer to OfferResponse
func ToOfferResponse(o *offer.Offer) OfferResponse {
	return OfferResponse{
		ID:                 o.ID,
		ProductID:          o.ProductID,
		VendorID:           o.VendorID,
		Type:               string(o.Type),
		SellingPrice:       o.SellingPrice,
		CostPrice:          o.CostPrice,
		Currency:           o.Currency,
		CommissionRate:     o.CommissionRate,
		ExpectedCommission: o.ExpectedCommission,
		StockQuantity:      o.StockQuantity,
		Availability:       string(o.Availability),
		OfferURL:           o.OfferURL,
		IsActive:           o.IsActive,
		ExpiresAt:          o.ExpiresAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

// ToVendorResponse converts a domain vendor to VendorResponse
func ToVendorResponse(v *offer.Vendor) VendorResponse {
	return VendorResponse{
		ID:                    v.ID,
		Name:                  v.Name,
		Slug:                  v.Slug,
		Type:                  string(v.Type),
		ContactEmail:          v.ContactEmail,
		Website:               v.Website,
		IsActive:              v.IsActive,
		DefaultCommissionRate: v.DefaultCommissionRate,
		CreatedAt:             v.CreatedAt,
	}
}
