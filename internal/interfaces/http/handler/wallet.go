package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	walletapp "github.com/czachandrew/tru-server/internal/application/wallet"
	"github.com/czachandrew/tru-server/internal/domain/shared"
)

// WalletHandler handles wallet HTTP requests
type WalletHandler struct {
	BaseHandler
	walletService *walletapp.WalletService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService *walletapp.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// pageFilter builds a pagination filter from query parameters.
func pageFilter(c *gin.Context) shared.Filter {
	filter := shared.DefaultFilter()
	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		filter.Page = page
	}
	if pageSize, err := strconv.Atoi(c.Query("page_size")); err == nil && pageSize > 0 && pageSize <= 100 {
		filter.PageSize = pageSize
	}
	return filter
}

// Get godoc
//
//	@Summary		Get the caller's wallet
//	@Description	Returns balances, activity score, and revenue share. A wallet is created on first access.
//	@Tags			wallet
//	@Produce		json
//	@Success		200	{object}	APIResponse[walletapp.WalletResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/wallet [get]
func (h *WalletHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	wallet, err := h.walletService.Get(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, wallet)
}

// Transactions godoc
//
//	@Summary		List the caller's wallet transactions
//	@Tags			wallet
//	@Produce		json
//	@Param			page		query		int	false	"Page number (default: 1)"
//	@Param			page_size	query		int	false	"Page size (default: 20, max: 100)"
//	@Success		200			{object}	APIResponse[[]walletapp.TransactionResponse]
//	@Failure		401			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/wallet/transactions [get]
func (h *WalletHandler) Transactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	filter := pageFilter(c)
	result, err := h.walletService.Transactions(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// RefreshActivity godoc
//
//	@Summary		Refresh the caller's activity score
//	@Description	Recomputes the activity score and revenue share from the reported engagement metrics
//	@Tags			wallet
//	@Accept			json
//	@Produce		json
//	@Param			request	body		walletapp.ActivityRequest	true	"Engagement metrics"
//	@Success		200		{object}	APIResponse[walletapp.WalletResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/wallet/activity [post]
func (h *WalletHandler) RefreshActivity(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req walletapp.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	wallet, err := h.walletService.RefreshActivity(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, wallet)
}

// Leaderboard godoc
//
//	@Summary		Top wallets by lifetime earnings
//	@Tags			wallet
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum entries (default 10, max 100)"
//	@Success		200		{object}	APIResponse[[]walletapp.WalletResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Router			/wallet/leaderboard [get]
func (h *WalletHandler) Leaderboard(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			h.BadRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	wallets, err := h.walletService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, wallets)
}

// ProjectEarning godoc
//
//	@Summary		Project an earning for a user
//	@Description	Credits a pending earning computed from revenue and the user's revenue share. Staff only.
//	@Tags			wallet
//	@Accept			json
//	@Produce		json
//	@Param			request	body		walletapp.ProjectEarningRequest	true	"Earning details"
//	@Success		201		{object}	APIResponse[walletapp.TransactionResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/wallet/earnings [post]
func (h *WalletHandler) ProjectEarning(c *gin.Context) {
	var req walletapp.ProjectEarningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	tx, err := h.walletService.ProjectEarning(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, tx)
}

// ConfirmEarning godoc
//
//	@Summary		Confirm a projected earning
//	@Description	Settles a pending earning at its final amount and moves it to the available balance. Staff only.
//	@Tags			wallet
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string							true	"Transaction ID (UUID)"
//	@Param			request	body		walletapp.ConfirmEarningRequest	true	"Settled amount"
//	@Success		200		{object}	APIResponse[walletapp.TransactionResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/wallet/earnings/{id}/confirm [post]
func (h *WalletHandler) ConfirmEarning(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	var req walletapp.ConfirmEarningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	tx, err := h.walletService.ConfirmEarning(c.Request.Context(), transactionID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tx)
}

// CancelProjection godoc
//
//	@Summary		Cancel a projected earning
//	@Description	Voids a pending earning that will never settle. Staff only.
//	@Tags			wallet
//	@Produce		json
//	@Param			id	path	string	true	"Transaction ID (UUID)"
//	@Success		204	"Cancelled"
//	@Failure		400	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/wallet/earnings/{id} [delete]
func (h *WalletHandler) CancelProjection(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid transaction ID")
		return
	}

	if err := h.walletService.CancelProjection(c.Request.Context(), transactionID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ReconcileStaleProjections godoc
//
//	@Summary		Reconcile stale projected earnings
//	@Description	Expires pending earnings past the settlement window. Staff only.
//	@Tags			wallet
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum projections to expire (default 100)"
//	@Success		200		{object}	APIResponse[CountData]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/wallet/reconcile [post]
func (h *WalletHandler) ReconcileStaleProjections(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 1000 {
			h.BadRequest(c, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	count, err := h.walletService.ReconcileStaleProjections(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, CountData{Count: int64(count)})
}
