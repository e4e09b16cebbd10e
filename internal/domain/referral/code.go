package referral

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// CodeLength is the length of generated referral codes
const CodeLength = 8

// codeAlphabet omits ambiguous characters (0/O, 1/I/L)
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// ReferralCode is a shareable code whose owner receives a slice of the
// referred user's earnings. Owned by either a user or an organization.
type ReferralCode struct {
	shared.BaseAggregateRoot
	Code           string     `gorm:"type:varchar(16);not null;uniqueIndex"`
	OwnerUserID    *uuid.UUID `gorm:"type:uuid;index"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;index"`
	IsActive       bool       `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ReferralCode) TableName() string {
	return "referral_codes"
}

// NewUserReferralCode creates a code owned by a user
func NewUserReferralCode(ownerID uuid.UUID) (*ReferralCode, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner is required")
	}
	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}
	return &ReferralCode{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		OwnerUserID:       &ownerID,
		IsActive:          true,
	}, nil
}

// NewOrganizationReferralCode creates a code owned by an organization
func NewOrganizationReferralCode(orgID uuid.UUID) (*ReferralCode, error) {
	if orgID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Organization is required")
	}
	code, err := GenerateCode()
	if err != nil {
		return nil, err
	}
	return &ReferralCode{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		OrganizationID:    &orgID,
		IsActive:          true,
	}, nil
}

// Deactivate retires the code; existing allocations stop accruing
func (c *ReferralCode) Deactivate() {
	c.IsActive = false
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// IsOwnedByUser reports whether the given user owns this code
func (c *ReferralCode) IsOwnedByUser(userID uuid.UUID) bool {
	return c.OwnerUserID != nil && *c.OwnerUserID == userID
}

// GenerateCode produces a random referral code from the unambiguous alphabet
func GenerateCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, c := range buf {
		b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return b.String(), nil
}

// NormalizeCode uppercases and trims user-entered codes
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
