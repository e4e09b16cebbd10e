package affiliate

import (
	"strings"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Platform identifies the affiliate marketplace a link points at
type Platform string

const (
	PlatformAmazon  Platform = "amazon"
	PlatformEbay    Platform = "ebay"
	PlatformWalmart Platform = "walmart"
)

// ValidPlatform reports whether the given platform is supported
func ValidPlatform(p Platform) bool {
	switch p {
	case PlatformAmazon, PlatformEbay, PlatformWalmart:
		return true
	}
	return false
}

// errorURLPrefix marks affiliate URLs whose generation failed. The worker
// writes the failure reason behind the prefix so operators can see why.
const errorURLPrefix = "ERROR:"

// AffiliateLink holds the monetized URL for a product on one platform,
// plus its performance counters. One link per (product, platform).
type AffiliateLink struct {
	shared.BaseAggregateRoot
	ProductID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_link_product_platform,priority:1"`
	Platform     Platform  `gorm:"type:varchar(20);not null;uniqueIndex:idx_link_product_platform,priority:2"`
	PlatformID   string    `gorm:"type:varchar(100);not null;index"` // ASIN for amazon, item ID elsewhere
	OriginalURL  string    `gorm:"type:varchar(1000)"`
	AffiliateURL string    `gorm:"type:varchar(2000)"`
	IsActive     bool      `gorm:"not null;default:true"`
	// IsProcessing guards against double-dispatching generation tasks
	IsProcessing bool            `gorm:"not null;default:false"`
	Clicks       int             `gorm:"not null;default:0"`
	Conversions  int             `gorm:"not null;default:0"`
	Revenue      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	LastChecked  *time.Time
}

// TableName returns the table name for GORM
func (AffiliateLink) TableName() string {
	return "affiliate_links"
}

// NewAffiliateLink creates a new link pending generation
func NewAffiliateLink(productID uuid.UUID, platform Platform, platformID, originalURL string) (*AffiliateLink, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product is required")
	}
	if !ValidPlatform(platform) {
		return nil, shared.NewDomainError("INVALID_PLATFORM", "Unsupported affiliate platform")
	}
	platformID = strings.TrimSpace(platformID)
	if platformID == "" {
		return nil, shared.NewDomainError("INVALID_PLATFORM_ID", "Platform identifier is required")
	}

	return &AffiliateLink{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		Platform:          platform,
		PlatformID:        strings.ToUpper(platformID),
		OriginalURL:       originalURL,
		IsActive:          true,
		Revenue:           decimal.Zero,
	}, nil
}

// BeginProcessing marks the link as having a generation task in flight
func (l *AffiliateLink) BeginProcessing() error {
	if l.IsProcessing {
		return shared.ErrLinkProcessing
	}

	l.IsProcessing = true
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	return nil
}

// CompleteGeneration stores the worker's result. A URL carrying the error
// prefix is recorded as a failure, not a usable link.
func (l *AffiliateLink) CompleteGeneration(affiliateURL string) {
	now := time.Now()
	l.AffiliateURL = strings.TrimSpace(affiliateURL)
	l.IsProcessing = false
	l.LastChecked = &now
	l.UpdatedAt = now
	l.IncrementVersion()

	if l.HasError() || l.AffiliateURL == "" {
		l.AddDomainEvent(NewLinkGenerationFailedEvent(l, l.errorReason()))
		return
	}
	l.AddDomainEvent(NewLinkGeneratedEvent(l))
}

// FailGeneration records a generation failure with a reason
func (l *AffiliateLink) FailGeneration(reason string) {
	l.CompleteGeneration(errorURLPrefix + " " + reason)
}

// ClearProcessing resets a stalled in-flight flag without touching the URL
func (l *AffiliateLink) ClearProcessing() {
	l.IsProcessing = false
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// HasError reports whether the stored URL is a failure marker
func (l *AffiliateLink) HasError() bool {
	return strings.HasPrefix(l.AffiliateURL, errorURLPrefix)
}

// IsAvailable reports whether the link can be served to consumers
func (l *AffiliateLink) IsAvailable() bool {
	return l.IsActive && l.AffiliateURL != "" && !l.HasError() && !l.IsProcessing
}

// NeedsRegeneration reports whether the link should be requeued
func (l *AffiliateLink) NeedsRegeneration() bool {
	return l.IsActive && !l.IsProcessing && (l.AffiliateURL == "" || l.HasError())
}

// RecordClick increments the click counter
func (l *AffiliateLink) RecordClick() {
	l.Clicks++
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	l.AddDomainEvent(NewLinkClickedEvent(l))
}

// RecordConversion records a purchase attributed to this link. userID is
// the earning user when one could be resolved.
func (l *AffiliateLink) RecordConversion(revenue decimal.Decimal, orderRef string, userID *uuid.UUID) error {
	if revenue.IsNegative() {
		return shared.NewDomainError("INVALID_REVENUE", "Conversion revenue cannot be negative")
	}

	l.Conversions++
	l.Revenue = l.Revenue.Add(revenue)
	l.UpdatedAt = time.Now()
	l.IncrementVersion()

	l.AddDomainEvent(NewConversionRecordedEvent(l, revenue, orderRef, userID))

	return nil
}

// Deactivate takes the link out of rotation
func (l *AffiliateLink) Deactivate() {
	l.IsActive = false
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

func (l *AffiliateLink) errorReason() string {
	return strings.TrimSpace(strings.TrimPrefix(l.AffiliateURL, errorURLPrefix))
}
