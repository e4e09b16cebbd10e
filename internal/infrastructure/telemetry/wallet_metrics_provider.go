// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormWalletMetricsProvider implements WalletMetricsProvider using GORM.
// It queries the payout and wallet tables directly for aggregated metrics.
type GormWalletMetricsProvider struct {
	db *gorm.DB
}

// NewGormWalletMetricsProvider creates a new GormWalletMetricsProvider.
func NewGormWalletMetricsProvider(db *gorm.DB) *GormWalletMetricsProvider {
	return &GormWalletMetricsProvider{db: db}
}

// PendingPayoutCount returns the number of payout requests awaiting approval
// or processing.
func (p *GormWalletMetricsProvider) PendingPayoutCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("payout_requests").
		Where("status IN ?", []string{"pending", "processing"}).
		Count(&count).Error
	return count, err
}

// WalletLiability returns the sum of all available wallet balances.
func (p *GormWalletMetricsProvider) WalletLiability(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := p.db.WithContext(ctx).
		Table("wallets").
		Select("COALESCE(SUM(available_balance), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// Ensure GormWalletMetricsProvider implements WalletMetricsProvider
var _ WalletMetricsProvider = (*GormWalletMetricsProvider)(nil)
