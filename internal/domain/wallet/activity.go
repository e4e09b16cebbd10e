package wallet

import (
	"github.com/shopspring/decimal"
)

// Activity score weights. Each signal contributes points toward a raw
// score that normalizes into the 1.00-5.00 activity band.
var (
	weightAffiliateClicks      = decimal.NewFromFloat(0.10)
	weightConversions          = decimal.NewFromFloat(0.50)
	weightDaysActive           = decimal.NewFromFloat(0.05)
	weightSearchQueries        = decimal.NewFromFloat(0.02)
	weightReferralsMade        = decimal.NewFromFloat(1.00)
	weightConsecutiveDays      = decimal.NewFromFloat(0.20)
	weightHighValueConversions = decimal.NewFromFloat(0.30)
)

// Revenue share parameters: 15% base with up to 5% activity bonus
var (
	baseRevenueShareRate = decimal.NewFromFloat(0.15)
	maxRevenueShareBonus = decimal.NewFromFloat(0.05)
	minActivityScore     = decimal.NewFromInt(1)
	maxActivityScore     = decimal.NewFromInt(5)
)

// ActivityMetrics aggregates a user's engagement over a lookback window
type ActivityMetrics struct {
	AffiliateClicks      int
	Conversions          int
	DaysActive           int
	SearchQueries        int
	ReferralsMade        int
	ConsecutiveDays      int
	HighValueConversions int
}

// RawScore computes the weighted activity score before normalization
func (m ActivityMetrics) RawScore() decimal.Decimal {
	score := decimal.NewFromInt(int64(m.AffiliateClicks)).Mul(weightAffiliateClicks)
	score = score.Add(decimal.NewFromInt(int64(m.Conversions)).Mul(weightConversions))
	score = score.Add(decimal.NewFromInt(int64(m.DaysActive)).Mul(weightDaysActive))
	score = score.Add(decimal.NewFromInt(int64(m.SearchQueries)).Mul(weightSearchQueries))
	score = score.Add(decimal.NewFromInt(int64(m.ReferralsMade)).Mul(weightReferralsMade))
	score = score.Add(decimal.NewFromInt(int64(m.ConsecutiveDays)).Mul(weightConsecutiveDays))
	score = score.Add(decimal.NewFromInt(int64(m.HighValueConversions)).Mul(weightHighValueConversions))
	return score
}

// activity band thresholds: raw score ceiling -> normalized score
var activityBands = []struct {
	ceiling decimal.Decimal
	score   decimal.Decimal
}{
	{decimal.NewFromInt(0), decimal.NewFromInt(1)},
	{decimal.NewFromInt(5), decimal.NewFromInt(2)},
	{decimal.NewFromInt(15), decimal.NewFromInt(3)},
	{decimal.NewFromInt(30), decimal.NewFromInt(4)},
	{decimal.NewFromInt(50), decimal.NewFromInt(5)},
}

// NormalizeScore maps a raw activity score into the 1.00-5.00 band
func NormalizeScore(raw decimal.Decimal) decimal.Decimal {
	for _, band := range activityBands {
		if raw.LessThanOrEqual(band.ceiling) {
			return band.score
		}
	}
	return maxActivityScore
}

// RevenueShareRateFor linearly interpolates the revenue share rate between
// 15% (score 1) and 20% (score 5)
func RevenueShareRateFor(activityScore decimal.Decimal) decimal.Decimal {
	if activityScore.LessThan(minActivityScore) {
		activityScore = minActivityScore
	}
	if activityScore.GreaterThan(maxActivityScore) {
		activityScore = maxActivityScore
	}
	factor := activityScore.Sub(minActivityScore).Div(maxActivityScore.Sub(minActivityScore))
	return baseRevenueShareRate.Add(maxRevenueShareBonus.Mul(factor))
}
