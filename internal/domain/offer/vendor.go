package offer

import (
	"strings"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// VendorType distinguishes wholesale suppliers from affiliate marketplaces
type VendorType string

const (
	VendorTypeSupplier  VendorType = "supplier"
	VendorTypeAffiliate VendorType = "affiliate"
)

// Vendor represents a seller whose offers we list
type Vendor struct {
	shared.BaseAggregateRoot
	Name         string     `gorm:"type:varchar(200);not null;uniqueIndex"`
	Slug         string     `gorm:"type:varchar(220);not null;uniqueIndex"`
	Type         VendorType `gorm:"type:varchar(20);not null;default:'supplier'"`
	ContactEmail string     `gorm:"type:varchar(254)"`
	Website      string     `gorm:"type:varchar(500)"`
	IsActive     bool       `gorm:"not null;default:true"`
	// DefaultCommissionRate is the percentage applied to new offers when
	// none is given (e.g. 4.00 means 4%)
	DefaultCommissionRate decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (Vendor) TableName() string {
	return "vendors"
}

// NewVendor creates a new vendor
func NewVendor(name string, vendorType VendorType) (*Vendor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Vendor name is required")
	}
	if vendorType != VendorTypeSupplier && vendorType != VendorTypeAffiliate {
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown vendor type")
	}

	return &Vendor{
		BaseAggregateRoot:     shared.NewBaseAggregateRoot(),
		Name:                  name,
		Slug:                  slugify(name),
		Type:                  vendorType,
		IsActive:              true,
		DefaultCommissionRate: decimal.Zero,
	}, nil
}

// SetCommissionRate sets the default commission percentage for new offers
func (v *Vendor) SetCommissionRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_RATE", "Commission rate must be between 0 and 100")
	}
	v.DefaultCommissionRate = rate
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
	return nil
}

// Deactivate hides the vendor's offers from listings
func (v *Vendor) Deactivate() {
	v.IsActive = false
	v.UpdatedAt = time.Now()
	v.IncrementVersion()
}

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	lastDash := true
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
