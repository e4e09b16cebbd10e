package wallet

import (
	"testing"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWallet(t *testing.T) *Wallet {
	t.Helper()
	w, err := NewWallet(uuid.New())
	require.NoError(t, err)
	return w
}

func TestProjectAndConfirmEarning(t *testing.T) {
	w := newTestWallet(t)

	require.NoError(t, w.ProjectEarning(decimal.NewFromFloat(12.50)))
	assert.Equal(t, "12.50", w.PendingBalance.StringFixed(2))
	assert.Equal(t, "0.00", w.AvailableBalance.StringFixed(2))

	t.Run("settles at projected amount", func(t *testing.T) {
		adj, err := w.ConfirmEarning(decimal.NewFromFloat(12.50), decimal.NewFromFloat(12.50))
		require.NoError(t, err)
		assert.True(t, adj.IsZero())
		assert.Equal(t, "0.00", w.PendingBalance.StringFixed(2))
		assert.Equal(t, "12.50", w.AvailableBalance.StringFixed(2))
		assert.Equal(t, "12.50", w.LifetimeEarnings.StringFixed(2))
	})
}

func TestConfirmEarningWithAdjustment(t *testing.T) {
	w := newTestWallet(t)
	require.NoError(t, w.ProjectEarning(decimal.NewFromInt(20)))

	// Platform settled lower than projected
	adj, err := w.ConfirmEarning(decimal.NewFromInt(20), decimal.NewFromFloat(17.40))
	require.NoError(t, err)
	assert.Equal(t, "-2.60", adj.StringFixed(2))
	assert.Equal(t, "17.40", w.AvailableBalance.StringFixed(2))

	t.Run("cannot confirm more than pending", func(t *testing.T) {
		_, err := w.ConfirmEarning(decimal.NewFromInt(5), decimal.NewFromInt(5))
		assert.Error(t, err)
	})
}

func TestWalletDebitCredit(t *testing.T) {
	w := newTestWallet(t)
	require.NoError(t, w.Credit(decimal.NewFromInt(100)))

	require.NoError(t, w.Debit(decimal.NewFromInt(60)))
	assert.Equal(t, "40.00", w.AvailableBalance.StringFixed(2))

	assert.ErrorIs(t, w.Debit(decimal.NewFromInt(41)), shared.ErrInsufficientBalance)
	assert.Error(t, w.Debit(decimal.Zero))
}

func TestCanCashOut(t *testing.T) {
	w := newTestWallet(t)
	require.NoError(t, w.Credit(decimal.NewFromInt(30)))

	assert.ErrorIs(t, w.CanCashOut(decimal.NewFromInt(20)), shared.ErrBelowMinimum)
	assert.ErrorIs(t, w.CanCashOut(decimal.NewFromInt(35)), shared.ErrInsufficientBalance)
	assert.NoError(t, w.CanCashOut(decimal.NewFromInt(25)))
}

func TestTransactionLifecycle(t *testing.T) {
	tx, err := NewTransaction(uuid.New(), TransactionEarningProjected, decimal.NewFromFloat(4.20), "projected commission")
	require.NoError(t, err)
	assert.True(t, tx.IsEarning())

	require.NoError(t, tx.Confirm())
	require.NotNil(t, tx.ConfirmedAt)
	assert.ErrorIs(t, tx.Confirm(), shared.ErrInvalidState)
	assert.ErrorIs(t, tx.Cancel(), shared.ErrInvalidState)

	_, err = NewTransaction(uuid.New(), TransactionBonus, decimal.Zero, "")
	assert.Error(t, err)
}

func TestPayoutRequestValidation(t *testing.T) {
	userID := uuid.New()

	t.Run("method minimums enforced", func(t *testing.T) {
		_, err := NewPayoutRequest(userID, PayoutMethodStripe, decimal.NewFromInt(9), "acct_123")
		assert.ErrorIs(t, err, shared.ErrBelowMinimum)

		_, err = NewPayoutRequest(userID, PayoutMethodCheck, decimal.NewFromInt(49), "123 Main St")
		assert.ErrorIs(t, err, shared.ErrBelowMinimum)

		p, err := NewPayoutRequest(userID, PayoutMethodBankTransfer, decimal.NewFromInt(25), "****6789")
		require.NoError(t, err)
		assert.True(t, p.RequiresApproval())
	})

	t.Run("fees per method", func(t *testing.T) {
		p, err := NewPayoutRequest(userID, PayoutMethodPaypal, decimal.NewFromInt(50), "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, "0.30", p.Fee.StringFixed(2))
		assert.Equal(t, "49.70", p.NetAmount().StringFixed(2))
		assert.False(t, p.RequiresApproval())
	})

	t.Run("unknown method rejected", func(t *testing.T) {
		_, err := NewPayoutRequest(userID, "venmo", decimal.NewFromInt(100), "x")
		assert.Error(t, err)
	})
}

func TestPayoutRetrySchedule(t *testing.T) {
	p, err := NewPayoutRequest(uuid.New(), PayoutMethodStripe, decimal.NewFromInt(50), "acct_123")
	require.NoError(t, err)
	require.NoError(t, p.MarkProcessing())

	now := time.Now()
	p.Fail("insufficient platform balance", now)

	assert.Equal(t, PayoutStatusFailed, p.Status)
	assert.Equal(t, 1, p.RetryCount)
	require.NotNil(t, p.NextRetryAt)
	assert.Equal(t, now.Add(time.Hour), *p.NextRetryAt)

	assert.False(t, p.ReadyForRetry(now.Add(30*time.Minute)))
	assert.True(t, p.ReadyForRetry(now.Add(time.Hour)))

	// Exhaust retries: delays double each attempt
	require.NoError(t, p.MarkProcessing())
	p.Fail("gateway timeout", now)
	require.NotNil(t, p.NextRetryAt)
	assert.Equal(t, now.Add(2*time.Hour), *p.NextRetryAt)

	require.NoError(t, p.MarkProcessing())
	p.Fail("gateway timeout", now)
	assert.False(t, p.CanRetry())
	assert.Nil(t, p.NextRetryAt)
	assert.False(t, p.ReadyForRetry(now.Add(100*time.Hour)))
}

func TestPayoutCancelRules(t *testing.T) {
	p, _ := NewPayoutRequest(uuid.New(), PayoutMethodStripe, decimal.NewFromInt(50), "acct_123")

	require.NoError(t, p.Cancel())
	assert.Equal(t, PayoutStatusCancelled, p.Status)

	p2, _ := NewPayoutRequest(uuid.New(), PayoutMethodStripe, decimal.NewFromInt(50), "acct_123")
	require.NoError(t, p2.MarkProcessing())
	assert.ErrorIs(t, p2.Cancel(), shared.ErrInvalidState)

	require.NoError(t, p2.Complete("tr_abc"))
	assert.Equal(t, PayoutStatusCompleted, p2.Status)
	require.NotNil(t, p2.ProcessedAt)
}

func TestActivityScoring(t *testing.T) {
	t.Run("raw score weights", func(t *testing.T) {
		m := ActivityMetrics{
			AffiliateClicks: 10, // 1.00
			Conversions:     4,  // 2.00
			DaysActive:      20, // 1.00
			SearchQueries:   50, // 1.00
			ConsecutiveDays: 5,  // 1.00
		}
		assert.Equal(t, "6.00", m.RawScore().StringFixed(2))
	})

	t.Run("normalization bands", func(t *testing.T) {
		assert.Equal(t, "1", NormalizeScore(decimal.Zero).String())
		assert.Equal(t, "2", NormalizeScore(decimal.NewFromFloat(4.9)).String())
		assert.Equal(t, "3", NormalizeScore(decimal.NewFromInt(15)).String())
		assert.Equal(t, "4", NormalizeScore(decimal.NewFromInt(29)).String())
		assert.Equal(t, "5", NormalizeScore(decimal.NewFromInt(49)).String())
		assert.Equal(t, "5", NormalizeScore(decimal.NewFromInt(500)).String())
	})

	t.Run("revenue share interpolation", func(t *testing.T) {
		assert.Equal(t, "0.1500", RevenueShareRateFor(decimal.NewFromInt(1)).StringFixed(4))
		assert.Equal(t, "0.1750", RevenueShareRateFor(decimal.NewFromInt(3)).StringFixed(4))
		assert.Equal(t, "0.2000", RevenueShareRateFor(decimal.NewFromInt(5)).StringFixed(4))
		// Out-of-band scores clamp
		assert.Equal(t, "0.2000", RevenueShareRateFor(decimal.NewFromInt(9)).StringFixed(4))
	})
}
