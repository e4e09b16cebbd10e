package dto

import (
	"time"

	"github.com/czachandrew/tru-server/internal/domain/bulk"
	csvimport "github.com/czachandrew/tru-server/internal/infrastructure/import"
)

// ImportRequest represents the request to run a previously validated import
type ImportRequest struct {
	ValidationID string `json:"validation_id" binding:"required,uuid"`
	ConflictMode string `json:"conflict_mode" binding:"required,oneof=skip update fail"`
}

// ImportResponse represents the outcome of a bulk import operation
// @Description Outcome of a CSV bulk import
type ImportResponse struct {
	HistoryID    string               `json:"history_id,omitempty"`
	TotalRows    int                  `json:"total_rows" example:"100"`
	ImportedRows int                  `json:"imported_rows" example:"95"`
	UpdatedRows  int                  `json:"updated_rows" example:"3"`
	SkippedRows  int                  `json:"skipped_rows" example:"2"`
	ErrorRows    int                  `json:"error_rows" example:"0"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty" example:"false"`
	TotalErrors  int                  `json:"total_errors,omitempty" example:"0"`
}

// ImportValidateResponse represents the outcome of CSV validation
// @Description Outcome of CSV validation before import
type ImportValidateResponse struct {
	ValidationID string               `json:"validation_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TotalRows    int                  `json:"total_rows" example:"100"`
	ValidRows    int                  `json:"valid_rows" example:"98"`
	ErrorRows    int                  `json:"error_rows" example:"2"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	Preview      []map[string]any     `json:"preview,omitempty"`
	Warnings     []string             `json:"warnings,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// ImportHistoryListRequest filters the import history listing
type ImportHistoryListRequest struct {
	EntityType  string `form:"entity_type" binding:"omitempty,oneof=products categories manufacturers offers"`
	Status      string `form:"status" binding:"omitempty,oneof=pending processing completed failed cancelled"`
	StartedFrom string `form:"started_from" binding:"omitempty,datetime=2006-01-02"`
	StartedTo   string `form:"started_to" binding:"omitempty,datetime=2006-01-02"`
	Page        int    `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
}

// ImportHistoryResponse represents a single import run
// @Description Record of a CSV bulk import run
type ImportHistoryResponse struct {
	ID           string     `json:"id"`
	EntityType   string     `json:"entity_type" example:"products"`
	FileName     string     `json:"file_name" example:"catalog.csv"`
	FileSize     int64      `json:"file_size" example:"52340"`
	TotalRows    int        `json:"total_rows" example:"100"`
	SuccessRows  int        `json:"success_rows" example:"95"`
	ErrorRows    int        `json:"error_rows" example:"2"`
	SkippedRows  int        `json:"skipped_rows" example:"3"`
	UpdatedRows  int        `json:"updated_rows" example:"0"`
	ConflictMode string     `json:"conflict_mode" example:"skip"`
	Status       string     `json:"status" example:"completed"`
	SuccessRate  float64    `json:"success_rate" example:"95"`
	ImportedBy   string     `json:"imported_by,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// ImportHistoryListResponse is a paginated page of import history records
type ImportHistoryListResponse struct {
	Items      []ImportHistoryResponse `json:"items"`
	TotalCount int64                   `json:"total_count"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
}

// NewImportHistoryResponse converts a domain import history to its response form
func NewImportHistoryResponse(h *bulk.ImportHistory) ImportHistoryResponse {
	resp := ImportHistoryResponse{
		ID:           h.ID.String(),
		EntityType:   string(h.EntityType),
		FileName:     h.FileName,
		FileSize:     h.FileSize,
		TotalRows:    h.TotalRows,
		SuccessRows:  h.SuccessRows,
		ErrorRows:    h.ErrorRows,
		SkippedRows:  h.SkippedRows,
		UpdatedRows:  h.UpdatedRows,
		ConflictMode: string(h.ConflictMode),
		Status:       string(h.Status),
		SuccessRate:  h.SuccessRate(),
		StartedAt:    h.StartedAt,
		CompletedAt:  h.CompletedAt,
		CreatedAt:    h.CreatedAt,
	}
	if h.ImportedBy != nil {
		resp.ImportedBy = h.ImportedBy.String()
	}
	return resp
}

// NewImportHistoryListResponse converts a paginated domain result
func NewImportHistoryListResponse(result *bulk.ImportHistoryListResult) ImportHistoryListResponse {
	items := make([]ImportHistoryResponse, 0, len(result.Items))
	for _, h := range result.Items {
		items = append(items, NewImportHistoryResponse(h))
	}
	return ImportHistoryListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Page:       result.Page,
		PageSize:   result.PageSize,
	}
}
