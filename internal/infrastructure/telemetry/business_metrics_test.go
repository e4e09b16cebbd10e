package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/czachandrew/tru-server/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func TestNewBusinessMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})

	require.NoError(t, err)
	require.NotNil(t, bm)
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  nil,
		Logger: zap.NewNop(),
	})

	require.Error(t, err)
	assert.Nil(t, bm)
	assert.Equal(t, "NewBusinessMetrics: meter cannot be nil", err.Error())
}

func TestBusinessMetrics_RecordLinkGenerated(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Should not panic
	bm.RecordLinkGenerated(ctx, "amazon", telemetry.LinkOutcomeSuccess)
	bm.RecordLinkGenerated(ctx, "ebay", telemetry.LinkOutcomeFailed)
}

func TestBusinessMetrics_RecordLinkClick(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Should not panic
	bm.RecordLinkClick(ctx, "amazon")
	bm.RecordLinkClick(ctx, "walmart")
}

func TestBusinessMetrics_RecordConversion(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Should not panic and record both count and revenue
	bm.RecordConversion(ctx, "amazon", decimal.NewFromFloat(199.99))
}

func TestBusinessMetrics_RecordPayout(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Should not panic
	bm.RecordPayout(ctx, "stripe", telemetry.PayoutOutcomeSuccess)
	bm.RecordPayout(ctx, "paypal", telemetry.PayoutOutcomeFailed)
}

// stubWalletProvider returns canned wallet metrics.
type stubWalletProvider struct {
	pending   int64
	liability decimal.Decimal
	calls     int
}

func (s *stubWalletProvider) PendingPayoutCount(ctx context.Context) (int64, error) {
	s.calls++
	return s.pending, nil
}

func (s *stubWalletProvider) WalletLiability(ctx context.Context) (decimal.Decimal, error) {
	return s.liability, nil
}

type stubTaskProvider struct {
	count int64
}

func (s *stubTaskProvider) PendingTaskCount(ctx context.Context) (int64, error) {
	return s.count, nil
}

func TestBusinessMetrics_PeriodicCollection(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	wallet := &stubWalletProvider{pending: 3, liability: decimal.NewFromFloat(1250.50)}
	tasks := &stubTaskProvider{count: 7}

	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:          meter,
		Logger:         zap.NewNop(),
		WalletProvider: wallet,
		TaskProvider:   tasks,
	})
	require.NoError(t, err)

	ctx := context.Background()
	bm.StartPeriodicCollection(ctx, 50*time.Millisecond)

	// The collector samples immediately on start
	assert.Eventually(t, func() bool {
		return wallet.calls >= 1
	}, time.Second, 10*time.Millisecond)

	bm.Stop()
	// Stop is idempotent
	bm.Stop()
}

func TestBusinessMetrics_PeriodicCollection_NoProviders(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	// Collection without providers should be a no-op, not a panic
	bm.StartPeriodicCollection(context.Background(), 50*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	bm.Stop()
}
