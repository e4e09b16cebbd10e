package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	referralapp "github.com/czachandrew/tru-server/internal/application/referral"
)

// ReferralHandler handles referral code and allocation HTTP requests
type ReferralHandler struct {
	BaseHandler
	codeService         *referralapp.CodeService
	organizationService *referralapp.OrganizationService
	disbursementService *referralapp.DisbursementService
}

// NewReferralHandler creates a new ReferralHandler
func NewReferralHandler(
	codeService *referralapp.CodeService,
	organizationService *referralapp.OrganizationService,
	disbursementService *referralapp.DisbursementService,
) *ReferralHandler {
	return &ReferralHandler{
		codeService:         codeService,
		organizationService: organizationService,
		disbursementService: disbursementService,
	}
}

// CreateCode godoc
//
//	@Summary		Create a referral code for the caller
//	@Tags			referrals
//	@Produce		json
//	@Success		201	{object}	APIResponse[referralapp.CodeResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/referrals/codes [post]
func (h *ReferralHandler) CreateCode(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	code, err := h.codeService.CreateUserCode(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, code)
}

// MyCodes godoc
//
//	@Summary		List the caller's referral codes
//	@Tags			referrals
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]referralapp.CodeResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/referrals/codes [get]
func (h *ReferralHandler) MyCodes(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	codes, err := h.codeService.OwnedBy(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, codes)
}

// GetByCode godoc
//
//	@Summary		Look up a referral code
//	@Tags			referrals
//	@Produce		json
//	@Param			code	path		string	true	"Referral code"
//	@Success		200		{object}	APIResponse[referralapp.CodeResponse]
//	@Failure		404		{object}	ErrorResponse
//	@Router			/referrals/codes/{code} [get]
func (h *ReferralHandler) GetByCode(c *gin.Context) {
	code, err := h.codeService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, code)
}

// Attach godoc
//
//	@Summary		Attach a referral code to the caller
//	@Description	Dedicates a share of the caller's future earnings to the code's owner
//	@Tags			referrals
//	@Accept			json
//	@Produce		json
//	@Param			request	body		referralapp.AttachCodeRequest	true	"Code and allocation"
//	@Success		200		{object}	APIResponse[referralapp.AllocationSummaryResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/referrals/allocations [post]
func (h *ReferralHandler) Attach(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req referralapp.AttachCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	summary, err := h.codeService.Attach(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// SetAllocation godoc
//
//	@Summary		Change an allocation percentage
//	@Tags			referrals
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string								true	"Code ID (UUID)"
//	@Param			request	body		referralapp.UpdateAllocationRequest	true	"New percentage"
//	@Success		200		{object}	APIResponse[referralapp.AllocationSummaryResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/referrals/allocations/{id} [put]
func (h *ReferralHandler) SetAllocation(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	codeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid code ID")
		return
	}

	var req referralapp.UpdateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	summary, err := h.codeService.SetAllocation(c.Request.Context(), userID, codeID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Detach godoc
//
//	@Summary		Detach a referral code from the caller
//	@Tags			referrals
//	@Produce		json
//	@Param			id	path		string	true	"Code ID (UUID)"
//	@Success		200	{object}	APIResponse[referralapp.AllocationSummaryResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/referrals/allocations/{id} [delete]
func (h *ReferralHandler) Detach(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	codeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid code ID")
		return
	}

	summary, err := h.codeService.Detach(c.Request.Context(), userID, codeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Allocations godoc
//
//	@Summary		List the caller's active allocations
//	@Tags			referrals
//	@Produce		json
//	@Success		200	{object}	APIResponse[referralapp.AllocationSummaryResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/referrals/allocations [get]
func (h *ReferralHandler) Allocations(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	summary, err := h.codeService.Allocations(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Disbursements godoc
//
//	@Summary		List disbursements received by the caller
//	@Tags			referrals
//	@Produce		json
//	@Param			page		query		int	false	"Page number (default: 1)"
//	@Param			page_size	query		int	false	"Page size (default: 20, max: 100)"
//	@Success		200			{object}	APIResponse[[]referralapp.DisbursementResponse]
//	@Failure		401			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/referrals/disbursements [get]
func (h *ReferralHandler) Disbursements(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	disbursements, err := h.disbursementService.ForRecipient(c.Request.Context(), userID, pageFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, disbursements)
}

// CreateOrganization godoc
//
//	@Summary		Create a referral organization
//	@Description	Staff only.
//	@Tags			referrals
//	@Accept			json
//	@Produce		json
//	@Param			request	body		referralapp.CreateOrganizationRequest	true	"Organization details"
//	@Success		201		{object}	APIResponse[referralapp.OrganizationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/organizations [post]
func (h *ReferralHandler) CreateOrganization(c *gin.Context) {
	var req referralapp.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	org, err := h.organizationService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, org)
}

// GetOrganization godoc
//
//	@Summary		Get a referral organization
//	@Tags			referrals
//	@Produce		json
//	@Param			id	path		string	true	"Organization ID (UUID)"
//	@Success		200	{object}	APIResponse[referralapp.OrganizationResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/organizations/{id} [get]
func (h *ReferralHandler) GetOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid organization ID")
		return
	}

	org, err := h.organizationService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, org)
}

// ListOrganizations godoc
//
//	@Summary		List referral organizations
//	@Tags			referrals
//	@Produce		json
//	@Param			page		query		int	false	"Page number (default: 1)"
//	@Param			page_size	query		int	false	"Page size (default: 20, max: 100)"
//	@Success		200			{object}	APIResponse[[]referralapp.OrganizationResponse]
//	@Router			/organizations [get]
func (h *ReferralHandler) ListOrganizations(c *gin.Context) {
	orgs, err := h.organizationService.List(c.Request.Context(), pageFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, orgs)
}

// VerifyOrganization godoc
//
//	@Summary		Verify a referral organization
//	@Description	Verified organizations can receive codes and payouts. Staff only.
//	@Tags			referrals
//	@Produce		json
//	@Param			id	path		string	true	"Organization ID (UUID)"
//	@Success		200	{object}	APIResponse[referralapp.OrganizationResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/organizations/{id}/verify [post]
func (h *ReferralHandler) VerifyOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid organization ID")
		return
	}

	org, err := h.organizationService.Verify(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, org)
}

// SetMinPayoutRequest changes an organization's minimum payout threshold
type SetMinPayoutRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// SetOrganizationMinPayout godoc
//
//	@Summary		Set an organization's minimum payout
//	@Description	Staff only.
//	@Tags			referrals
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Organization ID (UUID)"
//	@Param			request	body		SetMinPayoutRequest	true	"Minimum payout amount"
//	@Success		200		{object}	APIResponse[referralapp.OrganizationResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/organizations/{id}/min-payout [put]
func (h *ReferralHandler) SetOrganizationMinPayout(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid organization ID")
		return
	}

	var req SetMinPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	org, err := h.organizationService.SetMinPayout(c.Request.Context(), id, req.Amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, org)
}

// CreateOrganizationCode godoc
//
//	@Summary		Create a referral code for an organization
//	@Description	Staff only.
//	@Tags			referrals
//	@Produce		json
//	@Param			id	path		string	true	"Organization ID (UUID)"
//	@Success		201	{object}	APIResponse[referralapp.CodeResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/organizations/{id}/codes [post]
func (h *ReferralHandler) CreateOrganizationCode(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid organization ID")
		return
	}

	code, err := h.codeService.CreateOrganizationCode(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, code)
}

// PayOrganization godoc
//
//	@Summary		Pay out an organization's accumulated balance
//	@Description	Settles pending disbursements above the organization's minimum payout. Staff only.
//	@Tags			referrals
//	@Produce		json
//	@Param			id	path		string	true	"Organization ID (UUID)"
//	@Success		200	{object}	APIResponse[referralapp.OrgPayoutResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/organizations/{id}/payouts [post]
func (h *ReferralHandler) PayOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid organization ID")
		return
	}

	payout, err := h.disbursementService.PayOrganization(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payout)
}

// DeactivateCode godoc
//
//	@Summary		Deactivate a referral code
//	@Description	Staff only.
//	@Tags			referrals
//	@Produce		json
//	@Param			id	path	string	true	"Code ID (UUID)"
//	@Success		204	"Deactivated"
//	@Failure		400	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/referrals/codes/{id} [delete]
func (h *ReferralHandler) DeactivateCode(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid code ID")
		return
	}

	if err := h.codeService.DeactivateCode(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
