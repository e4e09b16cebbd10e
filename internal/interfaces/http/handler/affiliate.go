package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	affiliateapp "github.com/czachandrew/tru-server/internal/application/affiliate"
)

// AffiliateHandler handles affiliate link HTTP requests
type AffiliateHandler struct {
	BaseHandler
	linkService *affiliateapp.LinkService
}

// NewAffiliateHandler creates a new AffiliateHandler
func NewAffiliateHandler(linkService *affiliateapp.LinkService) *AffiliateHandler {
	return &AffiliateHandler{linkService: linkService}
}

// Generate godoc
//
//	@Summary		Generate an affiliate link for a product
//	@Description	Returns an existing link when one is usable, otherwise queues asynchronous generation
//	@Tags			affiliate
//	@Accept			json
//	@Produce		json
//	@Param			request	body		affiliateapp.GenerateLinkRequest	true	"Link request"
//	@Success		200		{object}	APIResponse[affiliateapp.LinkResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/affiliate/links [post]
func (h *AffiliateHandler) Generate(c *gin.Context) {
	var req affiliateapp.GenerateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	link, err := h.linkService.Generate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, link)
}

// GenerateStandalone godoc
//
//	@Summary		Generate an affiliate URL for a bare ASIN
//	@Description	Queues asynchronous generation for an ASIN with no catalog product behind it
//	@Tags			affiliate
//	@Accept			json
//	@Produce		json
//	@Param			request	body		affiliateapp.StandaloneRequest	true	"ASIN request"
//	@Success		200		{object}	APIResponse[affiliateapp.TaskStatusResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/affiliate/links/standalone [post]
func (h *AffiliateHandler) GenerateStandalone(c *gin.Context) {
	var req affiliateapp.StandaloneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	task, err := h.linkService.GenerateStandalone(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, task)
}

// TaskStatus godoc
//
//	@Summary		Poll an affiliate generation task
//	@Description	Returns the task state and the suggested wait before the next poll
//	@Tags			affiliate
//	@Produce		json
//	@Param			id			path		string	true	"Task ID (UUID)"
//	@Param			standalone	query		bool	false	"Whether the task is a standalone ASIN lookup"
//	@Success		200			{object}	APIResponse[affiliateapp.TaskStatusResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/affiliate/tasks/{id} [get]
func (h *AffiliateHandler) TaskStatus(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid task ID")
		return
	}

	standalone, _ := strconv.ParseBool(c.DefaultQuery("standalone", "false"))

	status, err := h.linkService.TaskStatus(c.Request.Context(), taskID, standalone)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, status)
}

// Callback godoc
//
//	@Summary		Worker callback for a finished generation task
//	@Description	Accepts the affiliate URL or error produced by the scraping worker
//	@Tags			affiliate
//	@Accept			json
//	@Produce		json
//	@Param			request	body		affiliateapp.CallbackRequest	true	"Task outcome"
//	@Success		200		{object}	APIResponse[MessageResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Router			/affiliate/callback [post]
func (h *AffiliateHandler) Callback(c *gin.Context) {
	var req affiliateapp.CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	if err := h.linkService.Callback(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, MessageResponse{Message: "callback accepted"})
}

// GetByProduct godoc
//
//	@Summary		List affiliate links for a product
//	@Tags			affiliate
//	@Produce		json
//	@Param			id	path		string	true	"Product ID (UUID)"
//	@Success		200	{object}	APIResponse[[]affiliateapp.LinkResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/products/{id}/affiliate-links [get]
func (h *AffiliateHandler) GetByProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	links, err := h.linkService.GetByProduct(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, links)
}

// Click godoc
//
//	@Summary		Follow an affiliate link
//	@Description	Records the click and redirects to the affiliate URL. Pass redirect=false to receive the URL as JSON instead.
//	@Tags			affiliate
//	@Produce		json
//	@Param			id			path		string	true	"Link ID (UUID)"
//	@Param			redirect	query		bool	false	"Set false to receive JSON instead of a 302"
//	@Success		200			{object}	APIResponse[RedirectData]
//	@Success		302			{string}	string	"Redirect to the affiliate URL"
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/affiliate/links/{id}/click [get]
func (h *AffiliateHandler) Click(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid link ID")
		return
	}

	url, err := h.linkService.Click(c.Request.Context(), linkID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if c.Query("redirect") == "false" {
		h.Success(c, RedirectData{URL: url})
		return
	}
	c.Redirect(http.StatusFound, url)
}

// RecordConversion godoc
//
//	@Summary		Record a conversion on an affiliate link
//	@Description	Attributes a purchase to a link and accrues its revenue
//	@Tags			affiliate
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Link ID (UUID)"
//	@Param			request	body		affiliateapp.ConversionRequest	true	"Conversion details"
//	@Success		200		{object}	APIResponse[affiliateapp.LinkResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/affiliate/links/{id}/conversions [post]
func (h *AffiliateHandler) RecordConversion(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid link ID")
		return
	}

	var req affiliateapp.ConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	link, err := h.linkService.RecordConversion(c.Request.Context(), linkID, req.Revenue, req.OrderRef, req.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, link)
}

// RequeueStalled godoc
//
//	@Summary		Requeue stalled generation tasks
//	@Description	Re-dispatches tasks the worker never answered and abandons orphans. Staff only.
//	@Tags			affiliate
//	@Produce		json
//	@Success		200	{object}	APIResponse[affiliateapp.RequeueResponse]
//	@Failure		403	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/affiliate/requeue-stalled [post]
func (h *AffiliateHandler) RequeueStalled(c *gin.Context) {
	result, err := h.linkService.RequeueStalled(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RegenerateFailed godoc
//
//	@Summary		Regenerate failed affiliate links
//	@Description	Queues fresh generation tasks for links whose last attempt failed. Staff only.
//	@Tags			affiliate
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum links to queue (default 50)"
//	@Success		200		{object}	APIResponse[affiliateapp.RequeueResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/affiliate/regenerate-failed [post]
func (h *AffiliateHandler) RegenerateFailed(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			h.BadRequest(c, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	result, err := h.linkService.RegenerateFailed(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
