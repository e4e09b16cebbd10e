package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	matchingapp "github.com/czachandrew/tru-server/internal/application/matching"
)

// SearchHandler handles consumer product search requests
type SearchHandler struct {
	BaseHandler
	searchService *matchingapp.SearchService
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(searchService *matchingapp.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// ConsumerSearch godoc
//
//	@Summary		Consumer product search
//	@Description	Matches a query against the catalog, falling back to an Amazon affiliate suggestion when the ASIN is known
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			asin	query		string	false	"Amazon ASIN the shopper is looking at"
//	@Success		200		{object}	APIResponse[matchingapp.ConsumerSearchResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/search [get]
func (h *SearchHandler) ConsumerSearch(c *gin.Context) {
	var req matchingapp.ConsumerSearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.searchService.ConsumerSearch(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Alternatives godoc
//
//	@Summary		Supplier alternatives for a product
//	@Description	Returns catalog products that can substitute for the given one
//	@Tags			search
//	@Produce		json
//	@Param			id		path		string	true	"Product ID (UUID)"
//	@Param			limit	query		int		false	"Maximum alternatives (default 5, max 20)"
//	@Success		200		{object}	APIResponse[[]matchingapp.AlternativeResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/products/{id}/alternatives [get]
func (h *SearchHandler) Alternatives(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	limit := 5
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 20 {
			h.BadRequest(c, "limit must be between 1 and 20")
			return
		}
		limit = parsed
	}

	alternatives, err := h.searchService.Alternatives(c.Request.Context(), productID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, alternatives)
}

// RecordAssociationClick godoc
//
//	@Summary		Record a click on a product association
//	@Tags			search
//	@Produce		json
//	@Param			id	path		string	true	"Association ID (UUID)"
//	@Success		200	{object}	APIResponse[MessageResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/associations/{id}/click [post]
func (h *SearchHandler) RecordAssociationClick(c *gin.Context) {
	associationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid association ID")
		return
	}

	if err := h.searchService.RecordAssociationClick(c.Request.Context(), associationID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: "click recorded"})
}

// RecordAssociationConversion godoc
//
//	@Summary		Record a conversion on a product association
//	@Tags			search
//	@Produce		json
//	@Param			id	path		string	true	"Association ID (UUID)"
//	@Success		200	{object}	APIResponse[MessageResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/associations/{id}/conversion [post]
func (h *SearchHandler) RecordAssociationConversion(c *gin.Context) {
	associationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid association ID")
		return
	}

	if err := h.searchService.RecordAssociationConversion(c.Request.Context(), associationID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: "conversion recorded"})
}
