package wallet

import (
	"time"

	"github.com/czachandrew/tru-server/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectEarningRequest records a projected affiliate earning for a user
type ProjectEarningRequest struct {
	UserID   uuid.UUID       `json:"user_id" binding:"required"`
	Revenue  decimal.Decimal `json:"revenue" binding:"required"`
	LinkID   *uuid.UUID      `json:"link_id"`
	OrderRef string          `json:"order_ref" binding:"omitempty,max=100"`
}

// ConfirmEarningRequest settles a projected earning at its final amount
type ConfirmEarningRequest struct {
	SettledAmount decimal.Decimal `json:"settled_amount" binding:"required"`
}

// WithdrawRequest asks to move wallet funds out of the platform
type WithdrawRequest struct {
	Method string          `json:"method" binding:"required,oneof=stripe paypal bank_transfer check"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
	// Destination is required for bank transfers and checks; Stripe and
	// PayPal destinations come from the user's payout profile
	Destination string `json:"destination" binding:"omitempty,max=254"`
}

// ActivityRequest carries the engagement metrics behind a score refresh
type ActivityRequest struct {
	AffiliateClicks      int `json:"affiliate_clicks" binding:"min=0"`
	Conversions          int `json:"conversions" binding:"min=0"`
	DaysActive           int `json:"days_active" binding:"min=0"`
	SearchQueries        int `json:"search_queries" binding:"min=0"`
	ReferralsMade        int `json:"referrals_made" binding:"min=0"`
	ConsecutiveDays      int `json:"consecutive_days" binding:"min=0"`
	HighValueConversions int `json:"high_value_conversions" binding:"min=0"`
}

// WalletResponse represents a wallet in API responses
type WalletResponse struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	PendingBalance   decimal.Decimal `json:"pending_balance"`
	LifetimeEarnings decimal.Decimal `json:"lifetime_earnings"`
	RevenueShareRate decimal.Decimal `json:"revenue_share_rate"`
	ActivityScore    decimal.Decimal `json:"activity_score"`
	MinCashout       decimal.Decimal `json:"min_cashout"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TransactionResponse represents a ledger entry in API responses
type TransactionResponse struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	Amount         decimal.Decimal `json:"amount"`
	AvailableAfter decimal.Decimal `json:"available_after"`
	PendingAfter   decimal.Decimal `json:"pending_after"`
	Description    string          `json:"description,omitempty"`
	SourceLinkID   *uuid.UUID      `json:"source_link_id,omitempty"`
	OrderRef       string          `json:"order_ref,omitempty"`
	ConfirmedAt    *time.Time      `json:"confirmed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PayoutResponse represents a payout request in API responses
type PayoutResponse struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"user_id"`
	Amount           decimal.Decimal `json:"amount"`
	Fee              decimal.Decimal `json:"fee"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	Method           string          `json:"method"`
	Status           string          `json:"status"`
	Destination      string          `json:"destination"`
	GatewayReference string          `json:"gateway_reference,omitempty"`
	RetryCount       int             `json:"retry_count"`
	NextRetryAt      *time.Time      `json:"next_retry_at,omitempty"`
	LastError        string          `json:"last_error,omitempty"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// RetryResponse summarizes a payout retry sweep
type RetryResponse struct {
	Scanned   int `json:"scanned"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Refunded  int `json:"refunded"`
}

// ToWalletResponse converts a domain wallet to WalletResponse
func ToWalletResponse(w *wallet.Wallet) WalletResponse {
	return WalletResponse{
		ID:               w.ID,
		UserID:           w.UserID,
		AvailableBalance: w.AvailableBalance,
		PendingBalance:   w.PendingBalance,
		LifetimeEarnings: w.LifetimeEarnings,
		RevenueShareRate: w.RevenueShareRate,
		ActivityScore:    w.ActivityScore,
		MinCashout:       w.MinCashout,
		UpdatedAt:        w.UpdatedAt,
	}
}

// ToTransactionResponse converts a ledger entry to TransactionResponse
func ToTransactionResponse(t *wallet.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             t.ID,
		UserID:         t.UserID,
		Type:           string(t.Type),
		Status:         string(t.Status),
		Amount:         t.Amount,
		AvailableAfter: t.AvailableAfter,
		PendingAfter:   t.PendingAfter,
		Description:    t.Description,
		SourceLinkID:   t.SourceLinkID,
		OrderRef:       t.OrderRef,
		ConfirmedAt:    t.ConfirmedAt,
		CreatedAt:      t.CreatedAt,
	}
}

// ToPayoutResponse converts a payout request to PayoutResponse
func ToPayoutResponse(p *wallet.PayoutRequest) PayoutResponse {
	return PayoutResponse{
		ID:               p.ID,
		UserID:           p.UserID,
		Amount:           p.Amount,
		Fee:              p.Fee,
		NetAmount:        p.NetAmount(),
		Method:           string(p.Method),
		Status:           string(p.Status),
		Destination:      p.Destination,
		GatewayReference: p.GatewayReference,
		RetryCount:       p.RetryCount,
		NextRetryAt:      p.NextRetryAt,
		LastError:        p.LastError,
		ProcessedAt:      p.ProcessedAt,
		CreatedAt:        p.CreatedAt,
	}
}

// toMetrics converts an ActivityRequest into domain metrics
func toMetrics(req ActivityRequest) wallet.ActivityMetrics {
	return wallet.ActivityMetrics{
		AffiliateClicks:      req.AffiliateClicks,
		Conversions:          req.Conversions,
		DaysActive:           req.DaysActive,
		SearchQueries:        req.SearchQueries,
		ReferralsMade:        req.ReferralsMade,
		ConsecutiveDays:      req.ConsecutiveDays,
		HighValueConversions: req.HighValueConversions,
	}
}
