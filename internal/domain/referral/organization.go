package referral

import (
	"strings"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrganizationType categorizes referral organizations
type OrganizationType string

const (
	OrganizationTypeChurch    OrganizationType = "church"
	OrganizationTypeSchool    OrganizationType = "school"
	OrganizationTypeNonprofit OrganizationType = "nonprofit"
	OrganizationTypeOther     OrganizationType = "other"
)

// DefaultOrgMinPayout is the default disbursement accumulation threshold
var DefaultOrgMinPayout = decimal.NewFromInt(25)

// Organization receives referral disbursements through codes it owns.
// Disbursements accumulate until they clear MinPayoutAmount.
type Organization struct {
	shared.BaseAggregateRoot
	Name            string           `gorm:"type:varchar(200);not null"`
	Type            OrganizationType `gorm:"type:varchar(20);not null;default:'other'"`
	PayoutEmail     string           `gorm:"type:varchar(254);not null"`
	MinPayoutAmount decimal.Decimal  `gorm:"type:decimal(8,2);not null;default:25"`
	IsVerified      bool             `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Organization) TableName() string {
	return "organizations"
}

// NewOrganization creates a new referral organization
func NewOrganization(name, payoutEmail string, orgType OrganizationType) (*Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Organization name is required")
	}
	payoutEmail = strings.TrimSpace(strings.ToLower(payoutEmail))
	if payoutEmail == "" || !strings.Contains(payoutEmail, "@") {
		return nil, shared.NewDomainError("INVALID_EMAIL", "A valid payout email is required")
	}
	switch orgType {
	case OrganizationTypeChurch, OrganizationTypeSchool, OrganizationTypeNonprofit, OrganizationTypeOther:
	default:
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown organization type")
	}

	return &Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Type:              orgType,
		PayoutEmail:       payoutEmail,
		MinPayoutAmount:   DefaultOrgMinPayout,
		IsVerified:        false,
	}, nil
}

// Verify marks the organization as vetted for payouts
func (o *Organization) Verify() {
	o.IsVerified = true
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
}

// SetMinPayout adjusts the accumulation threshold
func (o *Organization) SetMinPayout(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Minimum payout must be positive")
	}
	o.MinPayoutAmount = amount
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	return nil
}
