package event

import (
	"github.com/czachandrew/tru-server/internal/domain/affiliate"
	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/czachandrew/tru-server/internal/domain/identity"
	"github.com/czachandrew/tru-server/internal/domain/offer"
	"github.com/czachandrew/tru-server/internal/domain/referral"
	"github.com/czachandrew/tru-server/internal/domain/wallet"
)

// RegisterAllEvents registers all domain event types with the serializer.
// This is required for the OutboxProcessor to deserialize events from the
// outbox table.
func RegisterAllEvents(serializer *EventSerializer) {
	// Catalog events
	serializer.Register(catalog.EventTypeProductCreated, &catalog.ProductCreatedEvent{})
	serializer.Register(catalog.EventTypeProductUpdated, &catalog.ProductUpdatedEvent{})
	serializer.Register(catalog.EventTypeProductStatusChanged, &catalog.ProductStatusChangedEvent{})
	serializer.Register(catalog.EventTypeFutureDemandRecorded, &catalog.FutureDemandRecordedEvent{})

	// Affiliate events
	serializer.Register(affiliate.EventTypeLinkGenerated, &affiliate.LinkGeneratedEvent{})
	serializer.Register(affiliate.EventTypeLinkGenerationFailed, &affiliate.LinkGenerationFailedEvent{})
	serializer.Register(affiliate.EventTypeLinkClicked, &affiliate.LinkClickedEvent{})
	serializer.Register(affiliate.EventTypeConversionRecorded, &affiliate.ConversionRecordedEvent{})

	// Offer events
	serializer.Register(offer.EventTypeOfferCreated, &offer.OfferCreatedEvent{})
	serializer.Register(offer.EventTypeOfferPriceChanged, &offer.OfferPriceChangedEvent{})

	// Wallet events
	serializer.Register(wallet.EventTypeEarningProjected, &wallet.EarningProjectedEvent{})
	serializer.Register(wallet.EventTypeEarningConfirmed, &wallet.EarningConfirmedEvent{})
	serializer.Register(wallet.EventTypePayoutRequested, &wallet.PayoutRequestedEvent{})
	serializer.Register(wallet.EventTypePayoutCompleted, &wallet.PayoutCompletedEvent{})
	serializer.Register(wallet.EventTypePayoutFailed, &wallet.PayoutFailedEvent{})

	// Referral events
	serializer.Register(referral.EventTypeCodeCreated, &referral.CodeCreatedEvent{})
	serializer.Register(referral.EventTypeCodeAttached, &referral.CodeAttachedEvent{})
	serializer.Register(referral.EventTypeDisbursementAllocated, &referral.DisbursementAllocatedEvent{})

	// Identity events
	serializer.Register(identity.EventTypeUserCreated, &identity.UserCreatedEvent{})
	serializer.Register(identity.EventTypeUserPasswordChanged, &identity.UserPasswordChangedEvent{})
	serializer.Register(identity.EventTypeUserStatusChanged, &identity.UserStatusChangedEvent{})
}
