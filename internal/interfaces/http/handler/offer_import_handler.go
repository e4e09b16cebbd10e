package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	importapp "github.com/czachandrew/tru-server/internal/application/import"
	"github.com/czachandrew/tru-server/internal/domain/bulk"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	csvimport "github.com/czachandrew/tru-server/internal/infrastructure/import"
	"github.com/czachandrew/tru-server/internal/interfaces/http/dto"
)

// maxImportWarnings caps the number of soft warnings returned from a
// validation run.
const maxImportWarnings = 100

// OfferImportHandler handles vendor offer CSV import operations
type OfferImportHandler struct {
	BaseHandler
	importService  *importapp.OfferImportService
	historyService *importapp.ImportHistoryService
	sessionStore   csvimport.SessionStore
	validRows      *validRowCache
}

// NewOfferImportHandler creates a new OfferImportHandler
func NewOfferImportHandler(
	importService *importapp.OfferImportService,
	historyService *importapp.ImportHistoryService,
	sessionStore csvimport.SessionStore,
) *OfferImportHandler {
	return &OfferImportHandler{
		importService:  importService,
		historyService: historyService,
		sessionStore:   sessionStore,
		validRows:      newValidRowCache(sessionStore),
	}
}

// Stop stops the background row-cache sweep
func (h *OfferImportHandler) Stop() {
	h.validRows.Stop()
}

// ValidateOffers godoc
//
//	@Summary		Validate offer CSV file for import
//	@Description	Validates a vendor offer CSV file without importing the data
//	@Tags			import
//	@ID				validateOfferImport
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"CSV file to validate"
//	@Success		200		{object}	APIResponse[dto.ImportValidateResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		413		{object}	ErrorResponse
//	@Failure		415		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/import/offers/validate [post]
func (h *OfferImportHandler) ValidateOffers(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	file, header, ok := openCSVUpload(&h.BaseHandler, c)
	if !ok {
		return
	}
	defer file.Close()

	session := csvimport.NewImportSession(userID, csvimport.EntityOffers, header.Filename, header.Size)
	rules := h.importService.GetValidationRules()

	processor := csvimport.NewImportProcessor(
		csvimport.WithReferenceLookup(func(refType, value string) (bool, error) {
			if refType == "product" {
				return h.importService.LookupProduct(ctx, value)
			}
			return true, nil
		}),
	)

	result, err := processor.Validate(ctx, session, file, rules)
	if err != nil {
		writeValidationError(&h.BaseHandler, c, err)
		return
	}

	// Re-read the file for the import step, collecting soft warnings
	// (suspicious prices, stale availability) along the way.
	var warnings []string
	validRows, err := collectValidRows(file, result, func(row *csvimport.Row) {
		if len(warnings) >= maxImportWarnings {
			return
		}
		for _, w := range h.importService.ValidateWithWarnings(row) {
			if len(warnings) >= maxImportWarnings {
				break
			}
			warnings = append(warnings, w)
		}
	})
	if err != nil {
		h.InternalError(c, "Failed to process file")
		return
	}
	if len(validRows) > 0 {
		h.validRows.put(session.ID, validRows)
	}

	if err := h.sessionStore.Save(session); err != nil {
		h.InternalError(c, "failed to save import session")
		return
	}

	h.Success(c, dto.ImportValidateResponse{
		ValidationID: result.ValidationID,
		TotalRows:    result.TotalRows,
		ValidRows:    result.ValidRows,
		ErrorRows:    result.ErrorRows,
		Errors:       result.Errors,
		Preview:      result.Preview,
		Warnings:     warnings,
		IsTruncated:  result.IsTruncated,
		TotalErrors:  result.TotalErrors,
	})
}

// ImportOffers godoc
//
//	@Summary		Import offers from validated CSV
//	@Description	Imports vendor offers from a previously validated CSV file
//	@Tags			import
//	@ID				importOffers
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.ImportRequest	true	"Import request"
//	@Success		200		{object}	APIResponse[dto.ImportResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/import/offers [post]
func (h *OfferImportHandler) ImportOffers(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	validationID, err := uuid.Parse(req.ValidationID)
	if err != nil {
		h.BadRequest(c, "Invalid validation_id")
		return
	}

	conflictMode := importapp.ConflictMode(req.ConflictMode)
	if !conflictMode.IsValid() {
		h.BadRequest(c, "Invalid conflict_mode, must be one of: skip, update, fail")
		return
	}

	session, err := h.sessionStore.Get(validationID)
	if err != nil {
		h.InternalError(c, "failed to retrieve session")
		return
	}
	if session == nil || session.UserID != userID {
		h.NotFound(c, "Import session not found or expired")
		return
	}

	if session.State != csvimport.StateValidated {
		h.BadRequest(c, "Session must be validated before import. Current state: "+string(session.State))
		return
	}

	validRows := h.validRows.get(validationID)
	if len(validRows) == 0 {
		h.BadRequest(c, "No valid rows found for import. Please re-validate the file.")
		return
	}

	history, err := h.historyService.CreateHistory(
		ctx, bulk.ImportEntityOffers, session.FileName, session.FileSize,
		bulk.ConflictMode(req.ConflictMode), userID,
	)
	if err != nil {
		h.InternalError(c, "failed to record import history")
		return
	}
	if err := h.historyService.StartProcessing(ctx, history.ID, len(validRows)); err != nil {
		h.InternalError(c, "failed to record import history")
		return
	}

	result, err := h.importService.Import(ctx, session, validRows, conflictMode)
	if err != nil {
		_ = h.historyService.FailImport(ctx, history.ID, nil)
		if domainErr, ok := err.(*shared.DomainError); ok {
			h.Error(c, http.StatusUnprocessableEntity, domainErr.Code, domainErr.Message)
			return
		}
		h.InternalError(c, "failed to import offers: "+err.Error())
		return
	}

	if err := h.historyService.CompleteImport(
		ctx, history.ID,
		result.ImportedRows, result.ErrorRows, result.SkippedRows, result.UpdatedRows,
		result.Errors,
	); err != nil {
		h.InternalError(c, "failed to record import history")
		return
	}

	h.validRows.remove(validationID)
	_ = h.sessionStore.Save(session)

	h.Success(c, dto.ImportResponse{
		HistoryID:    history.ID.String(),
		TotalRows:    result.TotalRows,
		ImportedRows: result.ImportedRows,
		UpdatedRows:  result.UpdatedRows,
		SkippedRows:  result.SkippedRows,
		ErrorRows:    result.ErrorRows,
		Errors:       result.Errors,
		IsTruncated:  result.IsTruncated,
		TotalErrors:  result.TotalErrors,
	})
}

// RegisterRoutes registers all offer import routes
func (h *OfferImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/import")
	{
		imports.POST("/offers/validate", h.ValidateOffers)
		imports.POST("/offers", h.ImportOffers)
	}
}
