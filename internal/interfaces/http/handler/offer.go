package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	offerapp "github.com/czachandrew/tru-server/internal/application/offer"
)

// OfferHandler handles vendor offer HTTP requests
type OfferHandler struct {
	BaseHandler
	offerService *offerapp.OfferService
}

// NewOfferHandler creates a new OfferHandler
func NewOfferHandler(offerService *offerapp.OfferService) *OfferHandler {
	return &OfferHandler{offerService: offerService}
}

// Create godoc
//
//	@Summary		Create a vendor offer
//	@Tags			offers
//	@Accept			json
//	@Produce		json
//	@Param			request	body		offerapp.CreateOfferRequest	true	"Offer details"
//	@Success		201		{object}	APIResponse[offerapp.OfferResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/offers [post]
func (h *OfferHandler) Create(c *gin.Context) {
	var req offerapp.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	offer, err := h.offerService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, offer)
}

// GetByID godoc
//
//	@Summary		Get an offer by ID
//	@Tags			offers
//	@Produce		json
//	@Param			id	path		string	true	"Offer ID (UUID)"
//	@Success		200	{object}	APIResponse[offerapp.OfferResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/offers/{id} [get]
func (h *OfferHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid offer ID")
		return
	}

	offer, err := h.offerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, offer)
}

// GetByProduct godoc
//
//	@Summary		List offers for a product
//	@Tags			offers
//	@Produce		json
//	@Param			id	path		string	true	"Product ID (UUID)"
//	@Success		200	{object}	APIResponse[[]offerapp.OfferResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Router			/products/{id}/offers [get]
func (h *OfferHandler) GetByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	offers, err := h.offerService.GetByProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, offers)
}

// BestOffer godoc
//
//	@Summary		Best offer for a product
//	@Description	Returns the in-stock offer with the lowest selling price
//	@Tags			offers
//	@Produce		json
//	@Param			id	path		string	true	"Product ID (UUID)"
//	@Success		200	{object}	APIResponse[offerapp.OfferResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/products/{id}/best-offer [get]
func (h *OfferHandler) BestOffer(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	offer, err := h.offerService.BestOffer(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, offer)
}

// UpdatePrice godoc
//
//	@Summary		Update an offer's price
//	@Description	Records the old price in the price history before applying the new one
//	@Tags			offers
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Offer ID (UUID)"
//	@Param			request	body		offerapp.UpdatePriceRequest	true	"New price"
//	@Success		200		{object}	APIResponse[offerapp.OfferResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/offers/{id}/price [put]
func (h *OfferHandler) UpdatePrice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid offer ID")
		return
	}

	var req offerapp.UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	offer, err := h.offerService.UpdatePrice(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, offer)
}

// UpdateStock godoc
//
//	@Summary		Update an offer's stock and availability
//	@Tags			offers
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Offer ID (UUID)"
//	@Param			request	body		offerapp.UpdateStockRequest	true	"Stock details"
//	@Success		200		{object}	APIResponse[offerapp.OfferResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/offers/{id}/stock [put]
func (h *OfferHandler) UpdateStock(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid offer ID")
		return
	}

	var req offerapp.UpdateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	offer, err := h.offerService.UpdateStock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, offer)
}

// PriceHistory godoc
//
//	@Summary		Price history for an offer
//	@Tags			offers
//	@Produce		json
//	@Param			id	path		string	true	"Offer ID (UUID)"
//	@Success		200	{object}	APIResponse[[]offerapp.PricePointResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/offers/{id}/price-history [get]
func (h *OfferHandler) PriceHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid offer ID")
		return
	}

	history, err := h.offerService.PriceHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, history)
}

// Deactivate godoc
//
//	@Summary		Deactivate an offer
//	@Tags			offers
//	@Produce		json
//	@Param			id	path	string	true	"Offer ID (UUID)"
//	@Success		204	"Deactivated"
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/offers/{id} [delete]
func (h *OfferHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid offer ID")
		return
	}

	if err := h.offerService.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ExpireQuotes godoc
//
//	@Summary		Expire stale quote offers
//	@Description	Deactivates quote offers past their expiry. Staff only.
//	@Tags			offers
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum quotes to expire (default 100)"
//	@Success		200		{object}	APIResponse[offerapp.ExpireQuotesResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/offers/expire-quotes [post]
func (h *OfferHandler) ExpireQuotes(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			h.BadRequest(c, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	result, err := h.offerService.ExpireQuotes(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// VendorHandler handles vendor HTTP requests
type VendorHandler struct {
	BaseHandler
	vendorService *offerapp.VendorService
}

// NewVendorHandler creates a new VendorHandler
func NewVendorHandler(vendorService *offerapp.VendorService) *VendorHandler {
	return &VendorHandler{vendorService: vendorService}
}

// Create godoc
//
//	@Summary		Create a vendor
//	@Tags			vendors
//	@Accept			json
//	@Produce		json
//	@Param			request	body		offerapp.CreateVendorRequest	true	"Vendor details"
//	@Success		201		{object}	APIResponse[offerapp.VendorResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/vendors [post]
func (h *VendorHandler) Create(c *gin.Context) {
	var req offerapp.CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	vendor, err := h.vendorService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, vendor)
}

// GetByID godoc
//
//	@Summary		Get a vendor by ID
//	@Tags			vendors
//	@Produce		json
//	@Param			id	path		string	true	"Vendor ID (UUID)"
//	@Success		200	{object}	APIResponse[offerapp.VendorResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/vendors/{id} [get]
func (h *VendorHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	vendor, err := h.vendorService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, vendor)
}

// GetBySlug godoc
//
//	@Summary		Get a vendor by slug
//	@Tags			vendors
//	@Produce		json
//	@Param			slug	path		string	true	"Vendor slug"
//	@Success		200		{object}	APIResponse[offerapp.VendorResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Router			/vendors/slug/{slug} [get]
func (h *VendorHandler) GetBySlug(c *gin.Context) {
	vendor, err := h.vendorService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, vendor)
}

// List godoc
//
//	@Summary		List vendors
//	@Tags			vendors
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]offerapp.VendorResponse]
//	@Router			/vendors [get]
func (h *VendorHandler) List(c *gin.Context) {
	vendors, err := h.vendorService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, vendors)
}

// SetCommissionRateRequest updates an affiliate vendor's commission rate
type SetCommissionRateRequest struct {
	CommissionRate decimal.Decimal `json:"commission_rate" binding:"required"`
}

// SetCommissionRate godoc
//
//	@Summary		Set an affiliate vendor's commission rate
//	@Tags			vendors
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Vendor ID (UUID)"
//	@Param			request	body		SetCommissionRateRequest	true	"Commission rate"
//	@Success		200		{object}	APIResponse[offerapp.VendorResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/vendors/{id}/commission-rate [put]
func (h *VendorHandler) SetCommissionRate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	var req SetCommissionRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	vendor, err := h.vendorService.SetCommissionRate(c.Request.Context(), id, req.CommissionRate)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, vendor)
}

// Deactivate godoc
//
//	@Summary		Deactivate a vendor
//	@Tags			vendors
//	@Produce		json
//	@Param			id	path	string	true	"Vendor ID (UUID)"
//	@Success		204	"Deactivated"
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/vendors/{id} [delete]
func (h *VendorHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	if err := h.vendorService.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
