package referral

import (
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Allocation limits. A user keeps at least half of their earnings: the
// combined slice given away through referral codes is capped at 50%, and
// the user's implicit allocation absorbs the remainder so the whole always
// sums to 100%.
var (
	MaxCodesPerUser    = 5
	MaxTotalAllocation = decimal.NewFromInt(50)
	hundred            = decimal.NewFromInt(100)
)

// UserReferralCode attaches a referral code to a user with the percentage
// of earnings routed to the code's owner
type UserReferralCode struct {
	shared.OwnedAggregateRoot
	ReferralCodeID uuid.UUID       `gorm:"type:uuid;not null;index"` // unique (user_id, referral_code_id) enforced in migrations
	Percentage     decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	IsActive       bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (UserReferralCode) TableName() string {
	return "user_referral_codes"
}

// NewUserReferralCodeLink attaches a code to a user at the given percentage
func NewUserReferralCodeLink(userID, codeID uuid.UUID, percentage decimal.Decimal) (*UserReferralCode, error) {
	if userID == uuid.Nil || codeID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "User and code are required")
	}
	if !percentage.IsPositive() || percentage.GreaterThan(MaxTotalAllocation) {
		return nil, shared.NewDomainError("INVALID_PERCENTAGE",
			"Allocation percentage must be between 0 and 50")
	}

	link := &UserReferralCode{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(userID),
		ReferralCodeID:     codeID,
		Percentage:         percentage,
	}
	link.IsActive = true
	return link, nil
}

// Deactivate removes the code from the user's allocation set
func (l *UserReferralCode) Deactivate() {
	l.IsActive = false
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// SetPercentage adjusts the allocation slice
func (l *UserReferralCode) SetPercentage(percentage decimal.Decimal) error {
	if !percentage.IsPositive() || percentage.GreaterThan(MaxTotalAllocation) {
		return shared.NewDomainError("INVALID_PERCENTAGE",
			"Allocation percentage must be between 0 and 50")
	}
	l.Percentage = percentage
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
	return nil
}

// AllocationSet is a user's active code allocations taken together
type AllocationSet []UserReferralCode

// Total returns the combined percentage routed to code owners
func (s AllocationSet) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range s {
		if s[i].IsActive {
			total = total.Add(s[i].Percentage)
		}
	}
	return total
}

// UserShare returns the user's implicit allocation (the remainder to 100%)
func (s AllocationSet) UserShare() decimal.Decimal {
	return hundred.Sub(s.Total())
}

// Validate checks the invariants: at most MaxCodesPerUser active codes and
// a combined giveaway no larger than MaxTotalAllocation
func (s AllocationSet) Validate() error {
	active := 0
	for i := range s {
		if s[i].IsActive {
			active++
		}
	}
	if active > MaxCodesPerUser {
		return shared.NewDomainError("TOO_MANY_CODES", "A user may hold at most 5 referral codes")
	}
	if s.Total().GreaterThan(MaxTotalAllocation) {
		return shared.ErrAllocationInvalid
	}
	return nil
}
