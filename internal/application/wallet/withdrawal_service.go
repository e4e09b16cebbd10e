package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/identity"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/czachandrew/tru-server/internal/domain/wallet"
	"github.com/google/uuid"
)

// PayoutGateway moves money out through a payment rail. Implementations
// exist for Stripe transfers and PayPal payouts; bank transfers and checks
// are completed manually by an operator.
type PayoutGateway interface {
	// SendPayout initiates the transfer and returns the gateway's reference
	SendPayout(ctx context.Context, payout *wallet.PayoutRequest) (string, error)
}

// WithdrawalService handles payout requests from wallet balances
type WithdrawalService struct {
	walletService *WalletService
	payoutRepo    wallet.PayoutRepository
	userRepo      identity.UserRepository
	gateway       PayoutGateway
	eventBus      shared.EventPublisher
}

// NewWithdrawalService creates a new WithdrawalService
func NewWithdrawalService(
	walletService *WalletService,
	payoutRepo wallet.PayoutRepository,
	userRepo identity.UserRepository,
	gateway PayoutGateway,
	eventBus shared.EventPublisher,
) *WithdrawalService {
	return &WithdrawalService{
		walletService: walletService,
		payoutRepo:    payoutRepo,
		userRepo:      userRepo,
		gateway:       gateway,
		eventBus:      eventBus,
	}
}

// Withdraw debits the wallet and opens a payout request. Stripe and PayPal
// requests go straight to the gateway; bank transfers and checks wait for
// admin approval.
func (s *WithdrawalService) Withdraw(ctx context.Context, userID uuid.UUID, req WithdrawRequest) (*PayoutResponse, error) {
	method := wallet.PayoutMethod(req.Method)

	destination, err := s.resolveDestination(ctx, userID, method, req.Destination)
	if err != nil {
		return nil, err
	}

	payout, err := wallet.NewPayoutRequest(userID, method, req.Amount, destination)
	if err != nil {
		return nil, err
	}

	w, err := s.walletService.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := w.CanCashOut(req.Amount); err != nil {
		return nil, err
	}

	net := payout.NetAmount()
	if _, err := s.walletService.Debit(ctx, userID, wallet.TransactionWithdrawal, net,
		fmt.Sprintf("Withdrawal via %s", method), payout.ID.String()); err != nil {
		return nil, err
	}
	if _, err := s.walletService.Debit(ctx, userID, wallet.TransactionWithdrawalFee, payout.Fee,
		fmt.Sprintf("%s payout fee", method), payout.ID.String()); err != nil {
		return nil, err
	}

	if err := s.payoutRepo.Save(ctx, payout); err != nil {
		return nil, err
	}
	s.publish(ctx, wallet.NewPayoutRequestedEvent(payout))

	// A gateway failure here is not the caller's problem: the request is
	// accepted and the retry sweep will pick it up
	if !payout.RequiresApproval() {
		_ = s.process(ctx, payout)
	}

	response := ToPayoutResponse(payout)
	return &response, nil
}

// Approve releases an approval-required payout to processing
func (s *WithdrawalService) Approve(ctx context.Context, payoutID uuid.UUID) (*PayoutResponse, error) {
	payout, err := s.payoutRepo.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if !payout.RequiresApproval() {
		return nil, shared.NewDomainError("NO_APPROVAL_NEEDED", "Payout does not require approval")
	}

	if err := s.process(ctx, payout); err != nil {
		return nil, err
	}

	response := ToPayoutResponse(payout)
	return &response, nil
}

// Reject is an admin rejection; the debited funds return to the wallet
func (s *WithdrawalService) Reject(ctx context.Context, payoutID uuid.UUID, reason string) (*PayoutResponse, error) {
	payout, err := s.payoutRepo.FindByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}

	if err := payout.Reject(reason); err != nil {
		return nil, err
	}
	if err := s.refund(ctx, payout, "Rejected payout refund"); err != nil {
		return nil, err
	}
	if err := s.payoutRepo.Save(ctx, payout); err != nil {
		return nil, err
	}

	response := ToPayoutResponse(payout)
	return &response, nil
}

// Cancel lets the requesting user void a still-pending payout
func (s *WithdrawalService) Cancel(ctx context.Context, userID, payoutID uuid.UUID) (*PayoutResponse, error) {
	payout, err := s.payoutRepo.FindByIDForUser(ctx, userID, payoutID)
	if err != nil {
		return nil, err
	}

	if err := payout.Cancel(); err != nil {
		return nil, err
	}
	if err := s.refund(ctx, payout, "Cancelled payout refund"); err != nil {
		return nil, err
	}
	if err := s.payoutRepo.Save(ctx, payout); err != nil {
		return nil, err
	}

	response := ToPayoutResponse(payout)
	return &response, nil
}

// History lists a user's payout requests
func (s *WithdrawalService) History(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]PayoutResponse, error) {
	payouts, err := s.payoutRepo.FindByUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]PayoutResponse, 0, len(payouts))
	for i := range payouts {
		responses = append(responses, ToPayoutResponse(&payouts[i]))
	}
	return responses, nil
}

// PendingApprovals lists bank/check payouts awaiting an admin
func (s *WithdrawalService) PendingApprovals(ctx context.Context, filter shared.Filter) ([]PayoutResponse, error) {
	payouts, err := s.payoutRepo.FindByStatus(ctx, wallet.PayoutStatusPending, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]PayoutResponse, 0, len(payouts))
	for i := range payouts {
		if payouts[i].RequiresApproval() {
			responses = append(responses, ToPayoutResponse(&payouts[i]))
		}
	}
	return responses, nil
}

// ConfirmFromGateway settles a processing payout when the gateway reports
// the transfer paid (webhook path)
func (s *WithdrawalService) ConfirmFromGateway(ctx context.Context, gatewayRef string) error {
	payout, err := s.payoutRepo.FindByGatewayReference(ctx, gatewayRef)
	if err != nil {
		return err
	}

	if err := payout.Complete(gatewayRef); err != nil {
		return err
	}
	if err := s.payoutRepo.Save(ctx, payout); err != nil {
		return err
	}
	s.publish(ctx, wallet.NewPayoutCompletedEvent(payout))

	return nil
}

// FailFromGateway records a gateway failure (webhook path); funds return
// to the wallet once retries are exhausted
func (s *WithdrawalService) FailFromGateway(ctx context.Context, gatewayRef, reason string) error {
	payout, err := s.payoutRepo.FindByGatewayReference(ctx, gatewayRef)
	if err != nil {
		return err
	}
	return s.fail(ctx, payout, reason)
}

// RetryFailed re-runs failed payouts whose backoff has elapsed. Run from
// the scheduler.
func (s *WithdrawalService) RetryFailed(ctx context.Context, limit int) (*RetryResponse, error) {
	if limit <= 0 {
		limit = 50
	}

	payouts, err := s.payoutRepo.FindRetryable(ctx, time.Now(), limit)
	if err != nil {
		return nil, err
	}

	result := &RetryResponse{Scanned: len(payouts)}
	for i := range payouts {
		payout := &payouts[i]
		if err := s.process(ctx, payout); err != nil {
			if payout.Status == wallet.PayoutStatusFailed && !payout.CanRetry() {
				result.Refunded++
			} else {
				result.Failed++
			}
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

// process pushes a payout through the gateway, handling failure bookkeeping
func (s *WithdrawalService) process(ctx context.Context, payout *wallet.PayoutRequest) error {
	if err := payout.MarkProcessing(); err != nil {
		return err
	}
	if err := s.payoutRepo.Save(ctx, payout); err != nil {
		return err
	}

	ref, err := s.gateway.SendPayout(ctx, payout)
	if err != nil {
		if ferr := s.fail(ctx, payout, err.Error()); ferr != nil {
			return ferr
		}
		return err
	}

	payout.GatewayReference = ref
	return s.payoutRepo.Save(ctx, payout)
}

func (s *WithdrawalService) fail(ctx context.Context, payout *wallet.PayoutRequest, reason string) error {
	payout.Fail(reason, time.Now())
	if !payout.CanRetry() {
		if err := s.refund(ctx, payout, "Failed payout refund"); err != nil {
			return err
		}
	}
	if err := s.payoutRepo.Save(ctx, payout); err != nil {
		return err
	}
	s.publish(ctx, wallet.NewPayoutFailedEvent(payout))
	return nil
}

// refund returns the full debited amount (net plus fee) to the wallet
func (s *WithdrawalService) refund(ctx context.Context, payout *wallet.PayoutRequest, description string) error {
	_, err := s.walletService.Credit(ctx, payout.UserID, wallet.TransactionBonus,
		payout.TotalDebit(), description, payout.ID.String())
	return err
}

func (s *WithdrawalService) resolveDestination(ctx context.Context, userID uuid.UUID, method wallet.PayoutMethod, explicit string) (string, error) {
	switch method {
	case wallet.PayoutMethodStripe, wallet.PayoutMethodPaypal:
		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			return "", err
		}
		if method == wallet.PayoutMethodStripe {
			if user.StripeAccountID == "" {
				return "", shared.NewDomainError("NO_PAYOUT_PROFILE", "Connect a Stripe account before withdrawing")
			}
			return user.StripeAccountID, nil
		}
		if user.PayPalEmail == "" {
			return "", shared.NewDomainError("NO_PAYOUT_PROFILE", "Add a PayPal email before withdrawing")
		}
		return user.PayPalEmail, nil
	default:
		return explicit, nil
	}
}

func (s *WithdrawalService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.eventBus == nil {
		return
	}
	_ = s.eventBus.Publish(ctx, event)
}
