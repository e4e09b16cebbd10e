package store

import (
	"context"
	"errors"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/offer"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/czachandrew/tru-server/internal/domain/store"
	"github.com/google/uuid"
)

// CartService handles cart-related business operations. Carts belong to a
// logged-in user or to an anonymous session token; exactly one of the two
// identifies the caller.
type CartService struct {
	cartRepo  store.CartRepository
	offerRepo offer.Repository
}

// NewCartService creates a new CartService
func NewCartService(cartRepo store.CartRepository, offerRepo offer.Repository) *CartService {
	return &CartService{cartRepo: cartRepo, offerRepo: offerRepo}
}

// Get returns the caller's active cart, creating an empty one on first use
func (s *CartService) Get(ctx context.Context, userID *uuid.UUID, sessionToken string) (*CartResponse, error) {
	cart, err := s.getOrCreate(ctx, userID, sessionToken)
	if err != nil {
		return nil, err
	}
	response := ToCartResponse(cart)
	return &response, nil
}

// AddItem puts an offer into the caller's cart at its current price
func (s *CartService) AddItem(ctx context.Context, userID *uuid.UUID, sessionToken string, req AddItemRequest) (*CartResponse, error) {
	o, err := s.offerRepo.FindByID(ctx, req.OfferID)
	if err != nil {
		return nil, err
	}
	if !o.IsActive || o.IsExpired(time.Now()) {
		return nil, shared.NewDomainError("OFFER_UNAVAILABLE", "Offer is no longer available")
	}

	cart, err := s.getOrCreate(ctx, userID, sessionToken)
	if err != nil {
		return nil, err
	}

	if err := cart.AddItem(o.ID, req.Quantity, o.SellingPrice); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}

	response := ToCartResponse(cart)
	return &response, nil
}

// UpdateItem changes a line's quantity; zero removes the line
func (s *CartService) UpdateItem(ctx context.Context, userID *uuid.UUID, sessionToken string, itemID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	cart, err := s.findCart(ctx, userID, sessionToken)
	if err != nil {
		return nil, err
	}

	if err := cart.UpdateItemQuantity(itemID, req.Quantity); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}

	response := ToCartResponse(cart)
	return &response, nil
}

// Clear empties the caller's cart
func (s *CartService) Clear(ctx context.Context, userID *uuid.UUID, sessionToken string) (*CartResponse, error) {
	cart, err := s.findCart(ctx, userID, sessionToken)
	if err != nil {
		return nil, err
	}

	if err := cart.Clear(); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}

	response := ToCartResponse(cart)
	return &response, nil
}

// MergeOnLogin folds a session cart into the user's cart when they log in.
// Without an existing user cart the session cart is simply claimed.
func (s *CartService) MergeOnLogin(ctx context.Context, userID uuid.UUID, sessionToken string) (*CartResponse, error) {
	sessionCart, err := s.cartRepo.FindActiveBySession(ctx, sessionToken)
	if errors.Is(err, shared.ErrNotFound) {
		return s.Get(ctx, &userID, "")
	}
	if err != nil {
		return nil, err
	}

	userCart, err := s.cartRepo.FindActiveByUser(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		if err := sessionCart.AttachUser(userID); err != nil {
			return nil, err
		}
		if err := s.cartRepo.Save(ctx, sessionCart); err != nil {
			return nil, err
		}
		response := ToCartResponse(sessionCart)
		return &response, nil
	}
	if err != nil {
		return nil, err
	}

	if err := userCart.MergeFrom(sessionCart); err != nil {
		return nil, err
	}
	sessionCart.MarkAbandoned()

	if err := s.cartRepo.Save(ctx, userCart); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, sessionCart); err != nil {
		return nil, err
	}

	response := ToCartResponse(userCart)
	return &response, nil
}

// Convert closes the cart after checkout hand-off
func (s *CartService) Convert(ctx context.Context, userID *uuid.UUID, sessionToken string) (*CartResponse, error) {
	cart, err := s.findCart(ctx, userID, sessionToken)
	if err != nil {
		return nil, err
	}

	if len(cart.Items) == 0 {
		return nil, shared.NewDomainError("EMPTY_CART", "Cannot check out an empty cart")
	}
	if err := cart.MarkConverted(); err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}

	response := ToCartResponse(cart)
	return &response, nil
}

// CleanupStale abandons active carts untouched for AbandonedAfter. Run from
// the scheduler.
func (s *CartService) CleanupStale(ctx context.Context, limit int) (*CleanupResponse, error) {
	if limit <= 0 {
		limit = 200
	}

	cutoff := time.Now().Add(-store.AbandonedAfter)
	carts, err := s.cartRepo.FindStale(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}

	result := &CleanupResponse{}
	for i := range carts {
		carts[i].MarkAbandoned()
		if err := s.cartRepo.Save(ctx, &carts[i]); err != nil {
			return result, err
		}
		result.Abandoned++
	}
	return result, nil
}

func (s *CartService) getOrCreate(ctx context.Context, userID *uuid.UUID, sessionToken string) (*store.Cart, error) {
	cart, err := s.findCart(ctx, userID, sessionToken)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if userID != nil {
		cart, err = store.NewUserCart(*userID)
	} else {
		cart, err = store.NewSessionCart(sessionToken)
	}
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) findCart(ctx context.Context, userID *uuid.UUID, sessionToken string) (*store.Cart, error) {
	if userID != nil {
		return s.cartRepo.FindActiveByUser(ctx, *userID)
	}
	if sessionToken == "" {
		return nil, shared.NewDomainError("NO_CART_IDENTITY", "A user or session token is required")
	}
	return s.cartRepo.FindActiveBySession(ctx, sessionToken)
}
