package wallet

import (
	"context"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for wallet persistence
type Repository interface {
	// FindByID finds a wallet by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Wallet, error)

	// FindByUser finds a user's wallet
	FindByUser(ctx context.Context, userID uuid.UUID) (*Wallet, error)

	// Save creates or updates a wallet with optimistic locking
	Save(ctx context.Context, wallet *Wallet) error

	// FindTopByActivity returns wallets ordered by activity score
	// (leaderboard)
	FindTopByActivity(ctx context.Context, limit int) ([]Wallet, error)
}

// TransactionRepository defines the interface for ledger persistence
type TransactionRepository interface {
	// FindByID finds a transaction by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// FindByIDForUser finds a user's transaction by ID
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Transaction, error)

	// FindByUser lists a user's transactions, newest first
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Transaction, error)

	// FindPendingProjections lists unconfirmed projected earnings older
	// than the cutoff (reconciliation sweep)
	FindPendingProjections(ctx context.Context, cutoff time.Time, limit int) ([]Transaction, error)

	// FindByOrderRef finds entries attributed to an order reference
	FindByOrderRef(ctx context.Context, orderRef string) ([]Transaction, error)

	// Save creates or updates a transaction
	Save(ctx context.Context, tx *Transaction) error

	// CountByUser counts a user's transactions
	CountByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error)
}

// PayoutRepository defines the interface for payout request persistence
type PayoutRepository interface {
	// FindByID finds a payout request by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*PayoutRequest, error)

	// FindByIDForUser finds a user's payout request by ID
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*PayoutRequest, error)

	// FindByUser lists a user's payout requests, newest first
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]PayoutRequest, error)

	// FindByStatus lists requests in a given status
	FindByStatus(ctx context.Context, status PayoutStatus, filter shared.Filter) ([]PayoutRequest, error)

	// FindRetryable lists failed requests whose retry window has elapsed
	FindRetryable(ctx context.Context, now time.Time, limit int) ([]PayoutRequest, error)

	// FindByGatewayReference resolves a gateway webhook back to a request
	FindByGatewayReference(ctx context.Context, ref string) (*PayoutRequest, error)

	// Save creates or updates a payout request
	Save(ctx context.Context, payout *PayoutRequest) error
}
