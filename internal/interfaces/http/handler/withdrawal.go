package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	walletapp "github.com/czachandrew/tru-server/internal/application/wallet"
)

// WithdrawalHandler handles payout HTTP requests
type WithdrawalHandler struct {
	BaseHandler
	withdrawalService *walletapp.WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler
func NewWithdrawalHandler(withdrawalService *walletapp.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService}
}

// Withdraw godoc
//
//	@Summary		Request a withdrawal
//	@Description	Holds the amount from the available balance and queues the payout. Small Stripe and PayPal payouts process immediately; the rest await staff approval.
//	@Tags			withdrawals
//	@Accept			json
//	@Produce		json
//	@Param			request	body		walletapp.WithdrawRequest	true	"Withdrawal details"
//	@Success		201		{object}	APIResponse[walletapp.PayoutResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/wallet/withdrawals [post]
func (h *WithdrawalHandler) Withdraw(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req walletapp.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	payout, err := h.withdrawalService.Withdraw(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, payout)
}

// History godoc
//
//	@Summary		List the caller's withdrawals
//	@Tags			withdrawals
//	@Produce		json
//	@Param			page		query		int	false	"Page number (default: 1)"
//	@Param			page_size	query		int	false	"Page size (default: 20, max: 100)"
//	@Success		200			{object}	APIResponse[[]walletapp.PayoutResponse]
//	@Failure		401			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/wallet/withdrawals [get]
func (h *WithdrawalHandler) History(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	payouts, err := h.withdrawalService.History(c.Request.Context(), userID, pageFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payouts)
}

// Cancel godoc
//
//	@Summary		Cancel a pending withdrawal
//	@Description	Cancels the caller's own withdrawal before it is processed and refunds the held amount
//	@Tags			withdrawals
//	@Produce		json
//	@Param			id	path		string	true	"Payout ID (UUID)"
//	@Success		200	{object}	APIResponse[walletapp.PayoutResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/wallet/withdrawals/{id}/cancel [post]
func (h *WithdrawalHandler) Cancel(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payout ID")
		return
	}

	payout, err := h.withdrawalService.Cancel(c.Request.Context(), userID, payoutID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payout)
}

// PendingApprovals godoc
//
//	@Summary		List withdrawals awaiting approval
//	@Description	Staff only.
//	@Tags			withdrawals
//	@Produce		json
//	@Param			page		query		int	false	"Page number (default: 1)"
//	@Param			page_size	query		int	false	"Page size (default: 20, max: 100)"
//	@Success		200			{object}	APIResponse[[]walletapp.PayoutResponse]
//	@Failure		403			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/withdrawals/pending [get]
func (h *WithdrawalHandler) PendingApprovals(c *gin.Context) {
	payouts, err := h.withdrawalService.PendingApprovals(c.Request.Context(), pageFilter(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payouts)
}

// Approve godoc
//
//	@Summary		Approve a pending withdrawal
//	@Description	Sends the payout to the gateway. Staff only.
//	@Tags			withdrawals
//	@Produce		json
//	@Param			id	path		string	true	"Payout ID (UUID)"
//	@Success		200	{object}	APIResponse[walletapp.PayoutResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/withdrawals/{id}/approve [post]
func (h *WithdrawalHandler) Approve(c *gin.Context) {
	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payout ID")
		return
	}

	payout, err := h.withdrawalService.Approve(c.Request.Context(), payoutID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payout)
}

// RejectWithdrawalRequest carries the reason a withdrawal was rejected
type RejectWithdrawalRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// Reject godoc
//
//	@Summary		Reject a pending withdrawal
//	@Description	Refunds the held amount back to the wallet. Staff only.
//	@Tags			withdrawals
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Payout ID (UUID)"
//	@Param			request	body		RejectWithdrawalRequest	true	"Rejection reason"
//	@Success		200		{object}	APIResponse[walletapp.PayoutResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/withdrawals/{id}/reject [post]
func (h *WithdrawalHandler) Reject(c *gin.Context) {
	payoutID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payout ID")
		return
	}

	var req RejectWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	payout, err := h.withdrawalService.Reject(c.Request.Context(), payoutID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payout)
}

// RetryFailed godoc
//
//	@Summary		Retry failed withdrawals
//	@Description	Re-sends failed payouts that still have retry budget. Staff only.
//	@Tags			withdrawals
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum payouts to retry (default 50)"
//	@Success		200		{object}	APIResponse[walletapp.RetryResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/withdrawals/retry-failed [post]
func (h *WithdrawalHandler) RetryFailed(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			h.BadRequest(c, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	result, err := h.withdrawalService.RetryFailed(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
