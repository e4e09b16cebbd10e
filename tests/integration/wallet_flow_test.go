package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	walletapp "github.com/czachandrew/tru-server/internal/application/wallet"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/czachandrew/tru-server/internal/domain/wallet"
	"github.com/czachandrew/tru-server/internal/infrastructure/persistence"
)

func newWalletService(tdb *TestDB) *walletapp.WalletService {
	walletRepo := persistence.NewGormWalletRepository(tdb.DB)
	txRepo := persistence.NewGormTransactionRepository(tdb.DB)
	return walletapp.NewWalletService(walletRepo, txRepo, nil)
}

func TestWalletEarningLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	svc := newWalletService(tdb)
	ctx := context.Background()

	userID := uuid.New()
	tdb.CreateTestUser(userID, "earner@example.com")

	// First touch creates the wallet with the default revenue share rate
	w, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.True(t, w.AvailableBalance.IsZero())
	assert.True(t, w.PendingBalance.IsZero())
	assert.True(t, w.RevenueShareRate.Equal(decimal.RequireFromString("0.15")))

	// Projecting 100.00 of revenue books 15.00 pending
	projected, err := svc.ProjectEarning(ctx, walletapp.ProjectEarningRequest{
		UserID:   userID,
		Revenue:  decimal.RequireFromString("100.00"),
		OrderRef: "ORDER-1001",
	})
	require.NoError(t, err)
	assert.Equal(t, "EARNING_PROJECTED", projected.Type)
	assert.True(t, projected.Amount.Equal(decimal.RequireFromString("15.00")))

	w, err = svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.True(t, w.PendingBalance.Equal(decimal.RequireFromString("15.00")))
	assert.True(t, w.AvailableBalance.IsZero())

	// Settlement at 12.00 moves funds to available and books a -3.00 adjustment
	confirmed, err := svc.ConfirmEarning(ctx, projected.ID, walletapp.ConfirmEarningRequest{
		SettledAmount: decimal.RequireFromString("12.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", confirmed.Status)

	w, err = svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.True(t, w.PendingBalance.IsZero())
	assert.True(t, w.AvailableBalance.Equal(decimal.RequireFromString("12.00")))
	assert.True(t, w.LifetimeEarnings.Equal(decimal.RequireFromString("12.00")))

	// The ledger holds the projection and the adjustment entry
	txs, err := svc.Transactions(ctx, userID, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, txs.Items, 2)

	// A confirmed earning cannot be confirmed twice
	_, err = svc.ConfirmEarning(ctx, projected.ID, walletapp.ConfirmEarningRequest{
		SettledAmount: decimal.RequireFromString("12.00"),
	})
	assert.Error(t, err)
}

func TestWalletCancelProjection(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	svc := newWalletService(tdb)
	ctx := context.Background()

	userID := uuid.New()
	tdb.CreateTestUser(userID, "cancelled@example.com")

	projected, err := svc.ProjectEarning(ctx, walletapp.ProjectEarningRequest{
		UserID:  userID,
		Revenue: decimal.RequireFromString("40.00"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.CancelProjection(ctx, projected.ID))

	w, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.True(t, w.PendingBalance.IsZero())
	assert.True(t, w.AvailableBalance.IsZero())

	// Cancelling again fails because the projection is no longer pending
	assert.Error(t, svc.CancelProjection(ctx, projected.ID))
}

func TestWalletCreditAndDebit(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	svc := newWalletService(tdb)
	ctx := context.Background()

	userID := uuid.New()
	tdb.CreateTestUser(userID, "ledger@example.com")

	_, err := svc.Credit(ctx, userID, wallet.TransactionBonus,
		decimal.RequireFromString("50.00"), "Signup bonus", "")
	require.NoError(t, err)

	_, err = svc.Debit(ctx, userID, wallet.TransactionWithdrawal,
		decimal.RequireFromString("20.00"), "Manual withdrawal", "")
	require.NoError(t, err)

	w, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.True(t, w.AvailableBalance.Equal(decimal.RequireFromString("30.00")))

	// Debits cannot exceed the available balance
	_, err = svc.Debit(ctx, userID, wallet.TransactionWithdrawal,
		decimal.RequireFromString("100.00"), "Overdraft attempt", "")
	assert.Error(t, err)
}

func TestWalletOptimisticLocking(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	walletRepo := persistence.NewGormWalletRepository(tdb.DB)
	ctx := context.Background()

	userID := uuid.New()
	tdb.CreateTestUser(userID, "locking@example.com")

	w, err := wallet.NewWallet(userID)
	require.NoError(t, err)
	require.NoError(t, walletRepo.Save(ctx, w))

	// Two readers load the same version
	first, err := walletRepo.FindByUser(ctx, userID)
	require.NoError(t, err)
	second, err := walletRepo.FindByUser(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, first.ProjectEarning(decimal.RequireFromString("5.00")))
	require.NoError(t, walletRepo.Save(ctx, first))

	// The stale writer loses
	require.NoError(t, second.ProjectEarning(decimal.RequireFromString("9.00")))
	err = walletRepo.Save(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}
