package affiliate

import (
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeAffiliateLink = "AffiliateLink"

// Event type constants
const (
	EventTypeLinkGenerated        = "AffiliateLinkGenerated"
	EventTypeLinkGenerationFailed = "AffiliateLinkGenerationFailed"
	EventTypeLinkClicked          = "AffiliateLinkClicked"
	EventTypeConversionRecorded   = "AffiliateConversionRecorded"
)

// LinkGeneratedEvent is published when a worker delivers a usable URL
type LinkGeneratedEvent struct {
	shared.BaseDomainEvent
	LinkID       uuid.UUID `json:"link_id"`
	ProductID    uuid.UUID `json:"product_id"`
	Platform     Platform  `json:"platform"`
	AffiliateURL string    `json:"affiliate_url"`
}

// NewLinkGeneratedEvent creates a new LinkGeneratedEvent
func NewLinkGeneratedEvent(link *AffiliateLink) *LinkGeneratedEvent {
	return &LinkGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLinkGenerated, AggregateTypeAffiliateLink, link.ID),
		LinkID:          link.ID,
		ProductID:       link.ProductID,
		Platform:        link.Platform,
		AffiliateURL:    link.AffiliateURL,
	}
}

// LinkGenerationFailedEvent is published when generation fails
type LinkGenerationFailedEvent struct {
	shared.BaseDomainEvent
	LinkID    uuid.UUID `json:"link_id"`
	ProductID uuid.UUID `json:"product_id"`
	Platform  Platform  `json:"platform"`
	Reason    string    `json:"reason"`
}

// NewLinkGenerationFailedEvent creates a new LinkGenerationFailedEvent
func NewLinkGenerationFailedEvent(link *AffiliateLink, reason string) *LinkGenerationFailedEvent {
	return &LinkGenerationFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLinkGenerationFailed, AggregateTypeAffiliateLink, link.ID),
		LinkID:          link.ID,
		ProductID:       link.ProductID,
		Platform:        link.Platform,
		Reason:          reason,
	}
}

// LinkClickedEvent is published on every tracked click
type LinkClickedEvent struct {
	shared.BaseDomainEvent
	LinkID    uuid.UUID `json:"link_id"`
	ProductID uuid.UUID `json:"product_id"`
	Platform  Platform  `json:"platform"`
	Clicks    int       `json:"clicks"`
}

// NewLinkClickedEvent creates a new LinkClickedEvent
func NewLinkClickedEvent(link *AffiliateLink) *LinkClickedEvent {
	return &LinkClickedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLinkClicked, AggregateTypeAffiliateLink, link.ID),
		LinkID:          link.ID,
		ProductID:       link.ProductID,
		Platform:        link.Platform,
		Clicks:          link.Clicks,
	}
}

// ConversionRecordedEvent is published when a purchase is attributed to a
// link. Wallet projection listens for this.
type ConversionRecordedEvent struct {
	shared.BaseDomainEvent
	LinkID    uuid.UUID       `json:"link_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Platform  Platform        `json:"platform"`
	Revenue   decimal.Decimal `json:"revenue"`
	OrderRef  string          `json:"order_ref,omitempty"`
	// UserID is the user the purchase is attributed to, when the reporting
	// platform could resolve one. Unattributed conversions still count
	// toward link statistics but project no earning.
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

// NewConversionRecordedEvent creates a new ConversionRecordedEvent
func NewConversionRecordedEvent(link *AffiliateLink, revenue decimal.Decimal, orderRef string, userID *uuid.UUID) *ConversionRecordedEvent {
	return &ConversionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConversionRecorded, AggregateTypeAffiliateLink, link.ID),
		LinkID:          link.ID,
		ProductID:       link.ProductID,
		Platform:        link.Platform,
		Revenue:         revenue,
		OrderRef:        orderRef,
		UserID:          userID,
	}
}
