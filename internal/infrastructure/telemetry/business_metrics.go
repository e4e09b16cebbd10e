// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics tracks affiliate link activity and wallet health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	linkGeneratedTotal     *Counter
	linkClickTotal         *Counter
	conversionTotal        *Counter
	conversionRevenueCents *Counter
	payoutTotal            *Counter

	// Gauge metrics (point-in-time values)
	tasksPending            *Gauge
	payoutsAwaitingApproval *Gauge
	walletLiabilityCents    *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data providers for periodic collection
	walletProvider WalletMetricsProvider
	taskProvider   TaskMetricsProvider
}

// WalletMetricsProvider provides wallet data for periodic metrics collection.
// This interface lets the telemetry layer query wallet state without
// depending on the wallet domain directly.
type WalletMetricsProvider interface {
	// PendingPayoutCount returns the number of payout requests awaiting
	// approval or processing
	PendingPayoutCount(ctx context.Context) (int64, error)

	// WalletLiability returns the sum of all available balances (what the
	// platform owes its users)
	WalletLiability(ctx context.Context) (decimal.Decimal, error)
}

// TaskMetricsProvider reports how many affiliate tasks are waiting on the
// worker fleet.
type TaskMetricsProvider interface {
	PendingTaskCount(ctx context.Context) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	WalletProvider  WalletMetricsProvider
	TaskProvider    TaskMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:          cfg.Meter,
		logger:         logger,
		stopChan:       make(chan struct{}),
		walletProvider: cfg.WalletProvider,
		taskProvider:   cfg.TaskProvider,
	}

	var err error

	// Affiliate link metrics
	bm.linkGeneratedTotal, err = NewCounter(
		cfg.Meter,
		"tru_link_generated_total",
		"Total number of affiliate link generation attempts",
		"{links}",
	)
	if err != nil {
		return nil, err
	}

	bm.linkClickTotal, err = NewCounter(
		cfg.Meter,
		"tru_link_click_total",
		"Total number of affiliate link clicks",
		"{clicks}",
	)
	if err != nil {
		return nil, err
	}

	bm.conversionTotal, err = NewCounter(
		cfg.Meter,
		"tru_conversion_total",
		"Total number of attributed purchases",
		"{conversions}",
	)
	if err != nil {
		return nil, err
	}

	bm.conversionRevenueCents, err = NewCounter(
		cfg.Meter,
		"tru_conversion_revenue_total",
		"Total attributed revenue in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	// Payout metrics
	bm.payoutTotal, err = NewCounter(
		cfg.Meter,
		"tru_payout_total",
		"Total number of payout attempts",
		"{payouts}",
	)
	if err != nil {
		return nil, err
	}

	// Gauge metrics
	bm.tasksPending, err = NewGauge(
		cfg.Meter,
		"tru_affiliate_tasks_pending",
		"Affiliate tasks waiting on the worker fleet",
		"{tasks}",
	)
	if err != nil {
		return nil, err
	}

	bm.payoutsAwaitingApproval, err = NewGauge(
		cfg.Meter,
		"tru_payouts_awaiting_approval",
		"Payout requests awaiting approval or processing",
		"{payouts}",
	)
	if err != nil {
		return nil, err
	}

	bm.walletLiabilityCents, err = NewGauge(
		cfg.Meter,
		"tru_wallet_liability_cents",
		"Sum of all available wallet balances in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Affiliate Link Metrics
// =============================================================================

// LinkOutcome labels how a link generation attempt ended.
type LinkOutcome string

const (
	LinkOutcomeSuccess LinkOutcome = "success"
	LinkOutcomeFailed  LinkOutcome = "failed"
)

// RecordLinkGenerated records a finished link generation attempt.
func (bm *BusinessMetrics) RecordLinkGenerated(ctx context.Context, platform string, outcome LinkOutcome) {
	bm.linkGeneratedTotal.Inc(ctx,
		AttrPlatform.String(platform),
		AttrOutcome.String(string(outcome)),
	)
}

// RecordLinkClick records a redirect through an affiliate link.
func (bm *BusinessMetrics) RecordLinkClick(ctx context.Context, platform string) {
	bm.linkClickTotal.Inc(ctx, AttrPlatform.String(platform))
}

// RecordConversion records an attributed purchase and its revenue.
func (bm *BusinessMetrics) RecordConversion(ctx context.Context, platform string, revenue decimal.Decimal) {
	bm.conversionTotal.Inc(ctx, AttrPlatform.String(platform))

	revenueCents := revenue.Mul(decimal.NewFromInt(100)).IntPart()
	bm.conversionRevenueCents.Add(ctx, revenueCents, AttrPlatform.String(platform))
}

// =============================================================================
// Payout Metrics
// =============================================================================

// PayoutOutcome labels how a payout attempt ended.
type PayoutOutcome string

const (
	PayoutOutcomeSuccess PayoutOutcome = "success"
	PayoutOutcomeFailed  PayoutOutcome = "failed"
)

// RecordPayout records a payout gateway attempt.
func (bm *BusinessMetrics) RecordPayout(ctx context.Context, method string, outcome PayoutOutcome) {
	bm.payoutTotal.Inc(ctx,
		AttrPayoutMethod.String(method),
		AttrOutcome.String(string(outcome)),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectGauges(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectGauges(ctx)
		}
	}
}

// collectGauges refreshes the point-in-time gauges.
func (bm *BusinessMetrics) collectGauges(ctx context.Context) {
	if bm.taskProvider != nil {
		count, err := bm.taskProvider.PendingTaskCount(ctx)
		if err != nil {
			bm.logger.Warn("Failed to count pending affiliate tasks", zap.Error(err))
		} else {
			bm.tasksPending.Record(ctx, count)
		}
	}

	if bm.walletProvider == nil {
		return
	}

	pending, err := bm.walletProvider.PendingPayoutCount(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count pending payouts", zap.Error(err))
	} else {
		bm.payoutsAwaitingApproval.Record(ctx, pending)
	}

	liability, err := bm.walletProvider.WalletLiability(ctx)
	if err != nil {
		bm.logger.Warn("Failed to compute wallet liability", zap.Error(err))
	} else {
		bm.walletLiabilityCents.Record(ctx, liability.Mul(decimal.NewFromInt(100)).IntPart())
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// =============================================================================
// Attribute Key Constants
// =============================================================================

// Business metrics attribute keys not already defined in metrics.go
var (
	AttrOutcome = attribute.Key("outcome")
)
