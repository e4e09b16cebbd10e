package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/czachandrew/tru-server/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// staleProjectionAge is how long a projected earning may wait for
// confirmation before the reconciliation sweep cancels it
const staleProjectionAge = 90 * 24 * time.Hour

// WalletService handles wallet balances and the earnings ledger
type WalletService struct {
	walletRepo wallet.Repository
	txRepo     wallet.TransactionRepository
	eventBus   shared.EventPublisher

	// signup overrides; zero means keep the domain default
	defaultShareRate  decimal.Decimal
	defaultMinCashout decimal.Decimal
}

// NewWalletService creates a new WalletService
func NewWalletService(
	walletRepo wallet.Repository,
	txRepo wallet.TransactionRepository,
	eventBus shared.EventPublisher,
) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		txRepo:     txRepo,
		eventBus:   eventBus,
	}
}

// SetSignupDefaults overrides the revenue share rate and minimum cashout
// applied to wallets created on first touch. Existing wallets keep their
// per-user values.
func (s *WalletService) SetSignupDefaults(shareRate, minCashout decimal.Decimal) {
	s.defaultShareRate = shareRate
	s.defaultMinCashout = minCashout
}

// Get returns a user's wallet, creating it on first touch
func (s *WalletService) Get(ctx context.Context, userID uuid.UUID) (*WalletResponse, error) {
	w, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := ToWalletResponse(w)
	return &response, nil
}

// ProjectEarning books the user's share of affiliate revenue as a pending
// earning. The share is the wallet's current revenue share rate applied to
// the reported revenue.
func (s *WalletService) ProjectEarning(ctx context.Context, req ProjectEarningRequest) (*TransactionResponse, error) {
	if !req.Revenue.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Revenue must be positive")
	}

	w, err := s.getOrCreate(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	share := req.Revenue.Mul(w.RevenueShareRate).Round(2)
	if !share.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Revenue share rounds to zero")
	}

	if err := w.ProjectEarning(share); err != nil {
		return nil, err
	}

	tx, err := wallet.NewTransaction(req.UserID, wallet.TransactionEarningProjected, share,
		fmt.Sprintf("Projected earning (%s of %s revenue)", w.RevenueShareRate.String(), req.Revenue.StringFixed(2)))
	if err != nil {
		return nil, err
	}
	if req.LinkID != nil {
		tx.AttachSource(*req.LinkID, req.OrderRef)
	} else {
		tx.OrderRef = req.OrderRef
	}
	tx.SnapshotBalances(w)

	if err := s.walletRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	if err := s.txRepo.Save(ctx, tx); err != nil {
		return nil, err
	}
	s.publish(ctx, wallet.NewEarningProjectedEvent(w, tx))

	response := ToTransactionResponse(tx)
	return &response, nil
}

// ConfirmEarning settles a projected earning at the platform-reported
// amount. A differing settlement produces an EARNING_ADJUSTED delta entry.
func (s *WalletService) ConfirmEarning(ctx context.Context, transactionID uuid.UUID, req ConfirmEarningRequest) (*TransactionResponse, error) {
	tx, err := s.txRepo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.Type != wallet.TransactionEarningProjected || tx.Status != wallet.TransactionStatusPending {
		return nil, shared.NewDomainError("NOT_PROJECTED", "Only pending projected earnings can be confirmed")
	}

	w, err := s.walletRepo.FindByUser(ctx, tx.UserID)
	if err != nil {
		return nil, err
	}

	adjustment, err := w.ConfirmEarning(tx.Amount, req.SettledAmount)
	if err != nil {
		return nil, err
	}
	if err := tx.Confirm(); err != nil {
		return nil, err
	}
	tx.SnapshotBalances(w)

	if err := s.walletRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	if err := s.txRepo.Save(ctx, tx); err != nil {
		return nil, err
	}

	if !adjustment.IsZero() {
		adj, err := wallet.NewTransaction(tx.UserID, wallet.TransactionEarningAdjusted, adjustment,
			fmt.Sprintf("Settlement adjustment for %s", tx.ID))
		if err != nil {
			return nil, err
		}
		adj.OrderRef = tx.OrderRef
		adj.SnapshotBalances(w)
		if err := adj.Confirm(); err != nil {
			return nil, err
		}
		if err := s.txRepo.Save(ctx, adj); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, wallet.NewEarningConfirmedEvent(w, tx, adjustment))

	response := ToTransactionResponse(tx)
	return &response, nil
}

// CancelProjection voids a projected earning that will never settle
func (s *WalletService) CancelProjection(ctx context.Context, transactionID uuid.UUID) error {
	tx, err := s.txRepo.FindByID(ctx, transactionID)
	if err != nil {
		return err
	}
	if tx.Type != wallet.TransactionEarningProjected {
		return shared.NewDomainError("NOT_PROJECTED", "Only projected earnings can be cancelled")
	}

	w, err := s.walletRepo.FindByUser(ctx, tx.UserID)
	if err != nil {
		return err
	}

	if err := w.CancelProjection(tx.Amount); err != nil {
		return err
	}
	if err := tx.Cancel(); err != nil {
		return err
	}
	tx.SnapshotBalances(w)

	if err := s.walletRepo.Save(ctx, w); err != nil {
		return err
	}
	return s.txRepo.Save(ctx, tx)
}

// Credit adds funds to a user's available balance with a ledger entry
// (referral disbursements, bonuses)
func (s *WalletService) Credit(ctx context.Context, userID uuid.UUID, txType wallet.TransactionType, amount decimal.Decimal, description, orderRef string) (*TransactionResponse, error) {
	w, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := w.Credit(amount); err != nil {
		return nil, err
	}

	tx, err := wallet.NewTransaction(userID, txType, amount, description)
	if err != nil {
		return nil, err
	}
	tx.OrderRef = orderRef
	tx.SnapshotBalances(w)
	if err := tx.Confirm(); err != nil {
		return nil, err
	}

	if err := s.walletRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	if err := s.txRepo.Save(ctx, tx); err != nil {
		return nil, err
	}

	response := ToTransactionResponse(tx)
	return &response, nil
}

// Debit removes funds from a user's available balance with a ledger entry
func (s *WalletService) Debit(ctx context.Context, userID uuid.UUID, txType wallet.TransactionType, amount decimal.Decimal, description, orderRef string) (*TransactionResponse, error) {
	w, err := s.walletRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := w.Debit(amount); err != nil {
		return nil, err
	}

	tx, err := wallet.NewTransaction(userID, txType, amount.Neg(), description)
	if err != nil {
		return nil, err
	}
	tx.OrderRef = orderRef
	tx.SnapshotBalances(w)
	if err := tx.Confirm(); err != nil {
		return nil, err
	}

	if err := s.walletRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	if err := s.txRepo.Save(ctx, tx); err != nil {
		return nil, err
	}

	response := ToTransactionResponse(tx)
	return &response, nil
}

// Transactions lists a user's ledger entries
func (s *WalletService) Transactions(ctx context.Context, userID uuid.UUID, filter shared.Filter) (*shared.Paginated[TransactionResponse], error) {
	txs, err := s.txRepo.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.txRepo.CountByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]TransactionResponse, 0, len(txs))
	for i := range txs {
		responses = append(responses, ToTransactionResponse(&txs[i]))
	}
	paginated := shared.NewPaginated(responses, total, filter.Page, filter.PageSize)
	return &paginated, nil
}

// RefreshActivity recomputes a user's activity score and revenue share rate
func (s *WalletService) RefreshActivity(ctx context.Context, userID uuid.UUID, req ActivityRequest) (*WalletResponse, error) {
	w, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	raw := toMetrics(req).RawScore()
	score := wallet.NormalizeScore(raw)
	rate := wallet.RevenueShareRateFor(score)
	w.UpdateActivity(score, rate)

	if err := s.walletRepo.Save(ctx, w); err != nil {
		return nil, err
	}

	response := ToWalletResponse(w)
	return &response, nil
}

// Leaderboard returns the most active wallets
func (s *WalletService) Leaderboard(ctx context.Context, limit int) ([]WalletResponse, error) {
	if limit <= 0 {
		limit = 10
	}
	wallets, err := s.walletRepo.FindTopByActivity(ctx, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]WalletResponse, 0, len(wallets))
	for i := range wallets {
		responses = append(responses, ToWalletResponse(&wallets[i]))
	}
	return responses, nil
}

// ReconcileStaleProjections cancels projected earnings that never settled.
// Run from the scheduler.
func (s *WalletService) ReconcileStaleProjections(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}

	cutoff := time.Now().Add(-staleProjectionAge)
	stale, err := s.txRepo.FindPendingProjections(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for i := range stale {
		if err := s.CancelProjection(ctx, stale[i].ID); err != nil {
			return cancelled, err
		}
		cancelled++
	}
	return cancelled, nil
}

func (s *WalletService) getOrCreate(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	w, err := s.walletRepo.FindByUser(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	w, err = wallet.NewWallet(userID)
	if err != nil {
		return nil, err
	}
	if s.defaultShareRate.IsPositive() {
		w.RevenueShareRate = s.defaultShareRate
	}
	if s.defaultMinCashout.IsPositive() {
		w.MinCashout = s.defaultMinCashout
	}
	if err := s.walletRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *WalletService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.eventBus == nil {
		return
	}
	_ = s.eventBus.Publish(ctx, event)
}
