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

// ProductImportHandler handles product CSV import operations
type ProductImportHandler struct {
	BaseHandler
	importService  *importapp.ProductImportService
	historyService *importapp.ImportHistoryService
	sessionStore   csvimport.SessionStore
	validRows      *validRowCache
}

// NewProductImportHandler creates a new ProductImportHandler
func NewProductImportHandler(
	importService *importapp.ProductImportService,
	historyService *importapp.ImportHistoryService,
	sessionStore csvimport.SessionStore,
) *ProductImportHandler {
	return &ProductImportHandler{
		importService:  importService,
		historyService: historyService,
		sessionStore:   sessionStore,
		validRows:      newValidRowCache(sessionStore),
	}
}

// Stop stops the background row-cache sweep
func (h *ProductImportHandler) Stop() {
	h.validRows.Stop()
}

// ValidateProducts godoc
//
//	@Summary		Validate product CSV file for import
//	@Description	Validates a product CSV file without importing the data
//	@Tags			import
//	@ID				validateProductImport
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
//	@Router			/import/products/validate [post]
func (h *ProductImportHandler) ValidateProducts(c *gin.Context) {
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

	session := csvimport.NewImportSession(userID, csvimport.EntityProducts, header.Filename, header.Size)
	rules := h.importService.GetValidationRules()

	processor := csvimport.NewImportProcessor(
		csvimport.WithReferenceLookup(func(refType, value string) (bool, error) {
			if refType == "category" {
				return h.importService.LookupCategory(ctx, value)
			}
			return true, nil
		}),
	)

	result, err := processor.Validate(ctx, session, file, rules)
	if err != nil {
		writeValidationError(&h.BaseHandler, c, err)
		return
	}

	// The processor consumed the reader, so rewind and collect the rows
	// that passed for the import step.
	validRows, err := collectValidRows(file, result, nil)
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
		IsTruncated:  result.IsTruncated,
		TotalErrors:  result.TotalErrors,
	})
}

// ImportProducts godoc
//
//	@Summary		Import products from validated CSV
//	@Description	Imports products from a previously validated CSV file
//	@Tags			import
//	@ID				importProducts
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
//	@Router			/import/products [post]
func (h *ProductImportHandler) ImportProducts(c *gin.Context) {
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
		ctx, bulk.ImportEntityProducts, session.FileName, session.FileSize,
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

	result, err := h.importService.Import(ctx, userID, session, validRows, conflictMode)
	if err != nil {
		_ = h.historyService.FailImport(ctx, history.ID, nil)
		if domainErr, ok := err.(*shared.DomainError); ok {
			h.Error(c, http.StatusUnprocessableEntity, domainErr.Code, domainErr.Message)
			return
		}
		h.InternalError(c, "failed to import products: "+err.Error())
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

	// Best effort, the import itself already succeeded.
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

// RegisterRoutes registers all product import routes
func (h *ProductImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/import")
	{
		imports.POST("/products/validate", h.ValidateProducts)
		imports.POST("/products", h.ImportProducts)
	}
}
