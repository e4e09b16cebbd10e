package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	storeapp "github.com/czachandrew/tru-server/internal/application/store"
)

// sessionTokenHeader identifies a guest cart when there is no JWT.
const sessionTokenHeader = "X-Session-Token"

// CartHandler handles shopping cart HTTP requests. Carts belong either
// to an authenticated user or to a guest session token; requests must
// carry at least one of the two.
type CartHandler struct {
	BaseHandler
	cartService *storeapp.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *storeapp.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// cartIdentity resolves the cart owner from the request. Either an
// authenticated user ID or a guest session token is acceptable.
func (h *CartHandler) cartIdentity(c *gin.Context) (*uuid.UUID, string, bool) {
	sessionToken := c.GetHeader(sessionTokenHeader)

	if userID, err := getUserID(c); err == nil {
		return &userID, sessionToken, true
	}
	if sessionToken == "" {
		h.BadRequest(c, "Authentication or "+sessionTokenHeader+" header required")
		return nil, "", false
	}
	return nil, sessionToken, true
}

// Get godoc
//
//	@Summary		Get the current cart
//	@Description	Returns the caller's cart, creating an empty one if none exists
//	@Tags			cart
//	@Produce		json
//	@Param			X-Session-Token	header		string	false	"Guest session token"
//	@Success		200				{object}	APIResponse[storeapp.CartResponse]
//	@Failure		400				{object}	ErrorResponse
//	@Router			/cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	userID, sessionToken, ok := h.cartIdentity(c)
	if !ok {
		return
	}

	cart, err := h.cartService.Get(c.Request.Context(), userID, sessionToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// AddItem godoc
//
//	@Summary		Add an offer to the cart
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-Token	header		string					false	"Guest session token"
//	@Param			request			body		storeapp.AddItemRequest	true	"Item to add"
//	@Success		200				{object}	APIResponse[storeapp.CartResponse]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		422				{object}	ErrorResponse
//	@Router			/cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, sessionToken, ok := h.cartIdentity(c)
	if !ok {
		return
	}

	var req storeapp.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), userID, sessionToken, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// UpdateItem godoc
//
//	@Summary		Update a cart item's quantity
//	@Description	Setting quantity to zero removes the item
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			X-Session-Token	header		string						false	"Guest session token"
//	@Param			id				path		string						true	"Cart item ID (UUID)"
//	@Param			request			body		storeapp.UpdateItemRequest	true	"New quantity"
//	@Success		200				{object}	APIResponse[storeapp.CartResponse]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Router			/cart/items/{id} [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, sessionToken, ok := h.cartIdentity(c)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID")
		return
	}

	var req storeapp.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	cart, err := h.cartService.UpdateItem(c.Request.Context(), userID, sessionToken, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// Clear godoc
//
//	@Summary		Empty the cart
//	@Tags			cart
//	@Produce		json
//	@Param			X-Session-Token	header		string	false	"Guest session token"
//	@Success		200				{object}	APIResponse[storeapp.CartResponse]
//	@Failure		400				{object}	ErrorResponse
//	@Router			/cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	userID, sessionToken, ok := h.cartIdentity(c)
	if !ok {
		return
	}

	cart, err := h.cartService.Clear(c.Request.Context(), userID, sessionToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// Merge godoc
//
//	@Summary		Merge a guest cart into the caller's cart
//	@Description	Moves items from the guest session cart into the authenticated user's cart after login
//	@Tags			cart
//	@Produce		json
//	@Param			X-Session-Token	header		string	true	"Guest session token"
//	@Success		200				{object}	APIResponse[storeapp.CartResponse]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/cart/merge [post]
func (h *CartHandler) Merge(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	sessionToken := c.GetHeader(sessionTokenHeader)
	if sessionToken == "" {
		h.BadRequest(c, sessionTokenHeader+" header required")
		return
	}

	cart, err := h.cartService.MergeOnLogin(c.Request.Context(), userID, sessionToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}

// Convert godoc
//
//	@Summary		Convert the cart
//	@Description	Marks the cart converted once its items have been purchased
//	@Tags			cart
//	@Produce		json
//	@Param			X-Session-Token	header		string	false	"Guest session token"
//	@Success		200				{object}	APIResponse[storeapp.CartResponse]
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		422				{object}	ErrorResponse
//	@Router			/cart/convert [post]
func (h *CartHandler) Convert(c *gin.Context) {
	userID, sessionToken, ok := h.cartIdentity(c)
	if !ok {
		return
	}

	cart, err := h.cartService.Convert(c.Request.Context(), userID, sessionToken)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, cart)
}
