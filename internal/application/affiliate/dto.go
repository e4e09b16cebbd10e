package affiliate

import (
	"time"

	"github.com/czachandrew/tru-server/internal/domain/affiliate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GenerateLinkRequest asks for an affiliate link for a catalog product
type GenerateLinkRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Platform  string    `json:"platform" binding:"required,oneof=amazon ebay walmart"`
	// PlatformID overrides the marketplace identifier; for Amazon it
	// defaults to the product's part number when that is an ASIN
	PlatformID  string `json:"platform_id" binding:"omitempty,max=100"`
	OriginalURL string `json:"original_url" binding:"omitempty,max=1000,url"`
}

// StandaloneRequest asks for an affiliate URL for a bare ASIN with no
// catalog product behind it
type StandaloneRequest struct {
	ASIN string `json:"asin" binding:"required,len=10"`
}

// CallbackRequest is what the worker posts when a task finishes
type CallbackRequest struct {
	TaskID       uuid.UUID `json:"task_id" binding:"required"`
	AffiliateURL string    `json:"affiliate_url"`
	Error        string    `json:"error"`
	Standalone   bool      `json:"standalone"`
}

// ConversionRequest reports a purchase attributed to a link. UserID is
// set when the reporter could resolve which user's click drove the sale.
type ConversionRequest struct {
	Revenue  decimal.Decimal `json:"revenue" binding:"required"`
	OrderRef string          `json:"order_ref" binding:"required,max=100"`
	UserID   *uuid.UUID      `json:"user_id"`
}

// LinkResponse represents an affiliate link in API responses
type LinkResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	Platform     string          `json:"platform"`
	PlatformID   string          `json:"platform_id"`
	OriginalURL  string          `json:"original_url"`
	AffiliateURL string          `json:"affiliate_url,omitempty"`
	IsActive     bool            `json:"is_active"`
	IsProcessing bool            `json:"is_processing"`
	IsAvailable  bool            `json:"is_available"`
	Clicks       int             `json:"clicks"`
	Conversions  int             `json:"conversions"`
	Revenue      decimal.Decimal `json:"revenue"`
	TaskID       *uuid.UUID      `json:"task_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TaskStatusResponse is the poll answer for an in-flight task
type TaskStatusResponse struct {
	TaskID       uuid.UUID `json:"task_id"`
	Status       string    `json:"status"`
	Attempts     int       `json:"attempts"`
	AffiliateURL string    `json:"affiliate_url,omitempty"`
	Error        string    `json:"error,omitempty"`
	// NextPollSeconds tells the client how long to wait before asking
	// again; zero when polling should stop
	NextPollSeconds int `json:"next_poll_seconds"`
}

// RequeueResponse summarizes a stalled-task sweep
type RequeueResponse struct {
	Scanned   int `json:"scanned"`
	Requeued  int `json:"requeued"`
	Abandoned int `json:"abandoned"`
}

// ToLinkResponse converts a domain link to LinkResponse
func ToLinkResponse(l *affiliate.AffiliateLink, taskID *uuid.UUID) LinkResponse {
	return LinkResponse{
		ID:           l.ID,
		ProductID:    l.ProductID,
		Platform:     string(l.Platform),
		PlatformID:   l.PlatformID,
		OriginalURL:  l.OriginalURL,
		AffiliateURL: l.AffiliateURL,
		IsActive:     l.IsActive,
		IsProcessing: l.IsProcessing,
		IsAvailable:  l.IsAvailable(),
		Clicks:       l.Clicks,
		Conversions:  l.Conversions,
		Revenue:      l.Revenue,
		TaskID:       taskID,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

// ToTaskStatusResponse converts task state to its poll answer
func ToTaskStatusResponse(state *affiliate.TaskState) TaskStatusResponse {
	resp := TaskStatusResponse{
		TaskID:       state.TaskID,
		Status:       string(state.Status),
		Attempts:     state.Attempts,
		AffiliateURL: state.AffiliateURL,
		Error:        state.Error,
	}
	if state.Status == affiliate.TaskStatusPending || state.Status == affiliate.TaskStatusProcessing {
		if state.Attempts < affiliate.MaxStatusAttempts {
			resp.NextPollSeconds = int(affiliate.StatusBackoff(state.Attempts).Seconds())
		}
	}
	return resp
}
