package identity

import (
	"context"

	"github.com/czachandrew/tru-server/internal/domain/identity"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles profile and user administration
type UserService struct {
	userRepo identity.UserRepository
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo identity.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetByID returns a user by ID
func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// UpdateProfile updates the caller's display fields
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" || req.LastName != "" {
		if err := user.SetName(req.FirstName, req.LastName); err != nil {
			return nil, err
		}
	}
	if req.Avatar != "" {
		if err := user.SetAvatar(req.Avatar); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	resp := ToUserResponse(user)
	return &resp, nil
}

// SetPayoutProfile records where withdrawals should be sent
func (s *UserService) SetPayoutProfile(ctx context.Context, userID uuid.UUID, req PayoutProfileRequest) (*UserResponse, error) {
	if req.StripeAccountID == "" && req.PayPalEmail == "" {
		return nil, shared.NewDomainError("INVALID_PAYOUT_PROFILE", "At least one payout destination is required")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.StripeAccountID != "" {
		if err := user.SetStripeAccount(req.StripeAccountID); err != nil {
			return nil, err
		}
	}
	if req.PayPalEmail != "" {
		if err := user.SetPayPalEmail(req.PayPalEmail); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Payout profile updated", zap.String("user_id", userID.String()))

	resp := ToUserResponse(user)
	return &resp, nil
}

// List returns users matching the filter, for staff consoles
func (s *UserService) List(ctx context.Context, req ListUsersRequest) (*shared.Paginated[UserResponse], error) {
	filter := identity.UserFilter{
		Keyword: req.Keyword,
		Offset:  (req.Page - 1) * req.PageSize,
		Limit:   req.PageSize,
	}
	if req.Status != "" {
		status := identity.UserStatus(req.Status)
		filter.Status = &status
	}
	if req.IsStaff != nil {
		filter.IsStaff = req.IsStaff
	}

	users, total, err := s.userRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, ToUserResponse(u))
	}

	result := shared.NewPaginated(items, total, req.Page, req.PageSize)
	return &result, nil
}

// Activate moves a pending or deactivated account to active
func (s *UserService) Activate(ctx context.Context, userID uuid.UUID) error {
	return s.mutate(ctx, userID, func(u *identity.User) error { return u.Activate() })
}

// Deactivate disables an account
func (s *UserService) Deactivate(ctx context.Context, userID uuid.UUID) error {
	return s.mutate(ctx, userID, func(u *identity.User) error { return u.Deactivate() })
}

// Unlock clears a lock placed by failed login attempts
func (s *UserService) Unlock(ctx context.Context, userID uuid.UUID) error {
	return s.mutate(ctx, userID, func(u *identity.User) error { return u.Unlock() })
}

// GrantStaff marks a user as staff
func (s *UserService) GrantStaff(ctx context.Context, userID uuid.UUID) error {
	return s.mutate(ctx, userID, func(u *identity.User) error {
		u.GrantStaff()
		return nil
	})
}

// RevokeStaff removes the staff flag
func (s *UserService) RevokeStaff(ctx context.Context, userID uuid.UUID) error {
	return s.mutate(ctx, userID, func(u *identity.User) error {
		u.RevokeStaff()
		return nil
	})
}

func (s *UserService) mutate(ctx context.Context, userID uuid.UUID, fn func(*identity.User) error) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := fn(user); err != nil {
		return err
	}
	return s.userRepo.Update(ctx, user)
}
