package wallet

import (
	"context"
	"fmt"

	"github.com/czachandrew/tru-server/internal/domain/affiliate"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"go.uber.org/zap"
)

// ConversionProjectionHandler handles ConversionRecordedEvent and projects
// a pending earning into the attributed user's wallet
type ConversionProjectionHandler struct {
	walletService *WalletService
	logger        *zap.Logger
}

// NewConversionProjectionHandler creates a new handler for conversion events
func NewConversionProjectionHandler(walletService *WalletService, logger *zap.Logger) *ConversionProjectionHandler {
	return &ConversionProjectionHandler{
		walletService: walletService,
		logger:        logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ConversionProjectionHandler) EventTypes() []string {
	return []string{affiliate.EventTypeConversionRecorded}
}

// Handle projects an earning from an attributed conversion. Conversions
// without a resolved user still count toward link statistics but credit
// nobody.
func (h *ConversionProjectionHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	conversion, ok := event.(*affiliate.ConversionRecordedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", affiliate.EventTypeConversionRecorded),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			affiliate.EventTypeConversionRecorded, event.EventType())
	}

	if conversion.UserID == nil {
		h.logger.Debug("conversion has no attributed user, skipping projection",
			zap.String("link_id", conversion.LinkID.String()),
			zap.String("order_ref", conversion.OrderRef),
		)
		return nil
	}

	tx, err := h.walletService.ProjectEarning(ctx, ProjectEarningRequest{
		UserID:   *conversion.UserID,
		Revenue:  conversion.Revenue,
		LinkID:   &conversion.LinkID,
		OrderRef: conversion.OrderRef,
	})
	if err != nil {
		h.logger.Error("failed to project earning from conversion",
			zap.String("user_id", conversion.UserID.String()),
			zap.String("link_id", conversion.LinkID.String()),
			zap.Error(err),
		)
		return err
	}

	h.logger.Info("projected earning from conversion",
		zap.String("user_id", conversion.UserID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("revenue", conversion.Revenue.String()),
		zap.String("amount", tx.Amount.String()),
	)
	return nil
}
