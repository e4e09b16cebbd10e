package identity

import (
	"time"

	"github.com/czachandrew/tru-server/internal/domain/identity"
	"github.com/google/uuid"
)

// RegisterRequest creates a new account
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=200"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
	FirstName string `json:"first_name" binding:"omitempty,max=100"`
	LastName  string `json:"last_name" binding:"omitempty,max=100"`
}

// LoginRequest authenticates by email and password
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	// IP is filled in by the handler, not the client
	IP string `json:"-"`
}

// RefreshRequest exchanges a refresh token for a new token pair
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ChangePasswordRequest changes the caller's password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// UpdateProfileRequest updates display fields
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" binding:"omitempty,max=100"`
	LastName  string `json:"last_name" binding:"omitempty,max=100"`
	Avatar    string `json:"avatar" binding:"omitempty,url,max=500"`
}

// PayoutProfileRequest sets the destinations withdrawals are sent to
type PayoutProfileRequest struct {
	StripeAccountID string `json:"stripe_account_id" binding:"omitempty,max=100"`
	PayPalEmail     string `json:"paypal_email" binding:"omitempty,email,max=200"`
}

// ListUsersRequest filters the staff user listing
type ListUsersRequest struct {
	Keyword  string `form:"keyword" binding:"omitempty,max=200"`
	Status   string `form:"status" binding:"omitempty,oneof=pending active locked deactivated"`
	IsStaff  *bool  `form:"is_staff"`
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	FirstName       string     `json:"first_name,omitempty"`
	LastName        string     `json:"last_name,omitempty"`
	Avatar          string     `json:"avatar,omitempty"`
	Status          string     `json:"status"`
	IsStaff         bool       `json:"is_staff"`
	HasPayoutMethod bool       `json:"has_payout_method"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// AuthResponse carries tokens and the authenticated user
type AuthResponse struct {
	AccessToken           string       `json:"access_token"`
	RefreshToken          string       `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time    `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time    `json:"refresh_token_expires_at"`
	TokenType             string       `json:"token_type"`
	User                  UserResponse `json:"user"`
}

// TokenResponse carries a refreshed token pair
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// ToUserResponse converts a domain user to UserResponse
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Avatar:          u.Avatar,
		Status:          string(u.Status),
		IsStaff:         u.IsStaff,
		HasPayoutMethod: u.HasPayoutMethod(),
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}
