package importapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	csvimport "github.com/czachandrew/tru-server/internal/infrastructure/import"
	"github.com/google/uuid"
)

// ConflictMode defines how to handle conflicts during import
type ConflictMode string

const (
	// ConflictModeSkip skips rows that conflict with existing data
	ConflictModeSkip ConflictMode = "skip"
	// ConflictModeUpdate updates existing records with new data
	ConflictModeUpdate ConflictMode = "update"
	// ConflictModeFail fails the import if any conflicts are found
	ConflictModeFail ConflictMode = "fail"
)

// IsValid checks if the conflict mode is valid
func (c ConflictMode) IsValid() bool {
	switch c {
	case ConflictModeSkip, ConflictModeUpdate, ConflictModeFail:
		return true
	}
	return false
}

// ProductImportResult represents the result of a product import operation
type ProductImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	UpdatedRows  int                  `json:"updated_rows"`
	SkippedRows  int                  `json:"skipped_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// ProductImportService handles product bulk import operations
type ProductImportService struct {
	productRepo      catalog.ProductRepository
	manufacturerRepo catalog.ManufacturerRepository
	categoryRepo     catalog.CategoryRepository
	eventBus         shared.EventPublisher
}

// NewProductImportService creates a new ProductImportService
func NewProductImportService(
	productRepo catalog.ProductRepository,
	manufacturerRepo catalog.ManufacturerRepository,
	categoryRepo catalog.CategoryRepository,
	eventBus shared.EventPublisher,
) *ProductImportService {
	return &ProductImportService{
		productRepo:      productRepo,
		manufacturerRepo: manufacturerRepo,
		categoryRepo:     categoryRepo,
		eventBus:         eventBus,
	}
}

// GetValidationRules returns the validation rules for product import
func (s *ProductImportService) GetValidationRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("part_number").Required().String().MinLength(1).MaxLength(100).Build(),
		csvimport.Field("manufacturer").Required().String().MinLength(1).MaxLength(200).Build(),
		csvimport.Field("name").Required().String().MinLength(1).MaxLength(300).Build(),
		csvimport.Field("description").String().MaxLength(10000).Build(),
		csvimport.Field("category_slug").String().MaxLength(220).Reference("category").Build(),
		csvimport.Field("main_image").String().MaxLength(500).Build(),
		csvimport.Field("specifications").String().Custom(validateJSONObject).Build(),
		csvimport.Field("status").String().Custom(validateProductStatus).Build(),
		csvimport.Field("is_featured").String().Custom(validateBool).Build(),
	}
}

// validateProductStatus validates the status field
func validateProductStatus(value string) error {
	if value == "" {
		return nil // optional field
	}
	switch catalog.ProductStatus(value) {
	case catalog.ProductStatusActive, catalog.ProductStatusPending, catalog.ProductStatusDiscontinued:
		return nil
	default:
		return fmt.Errorf("status must be 'active', 'pending' or 'discontinued'")
	}
}

// validateJSONObject validates that a value is a valid JSON object
func validateJSONObject(value string) error {
	if value == "" {
		return nil // optional field
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(value), &obj); err != nil {
		return fmt.Errorf("specifications must be a valid JSON object: %v", err)
	}
	return nil
}

// validateBool validates an optional boolean column
func validateBool(value string) error {
	switch strings.ToLower(value) {
	case "", "true", "false", "1", "0", "yes", "no":
		return nil
	default:
		return fmt.Errorf("must be a boolean value")
	}
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// LookupCategory looks up a category by slug
func (s *ProductImportService) LookupCategory(ctx context.Context, slug string) (bool, error) {
	if slug == "" {
		return true, nil // empty is valid
	}
	_, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Import imports products from validated rows
func (s *ProductImportService) Import(
	ctx context.Context,
	userID uuid.UUID,
	session *csvimport.ImportSession,
	validRows []*csvimport.Row,
	conflictMode ConflictMode,
) (*ProductImportResult, error) {
	if session.State != csvimport.StateValidated {
		return nil, shared.NewDomainError("INVALID_STATE", "Import session must be in validated state")
	}

	if !session.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERRORS", "Cannot import session with validation errors")
	}

	session.UpdateState(csvimport.StateImporting)

	result := &ProductImportResult{
		TotalRows: len(validRows),
	}
	importErrors := csvimport.NewErrorCollection(100)

	for _, row := range validRows {
		select {
		case <-ctx.Done():
			session.UpdateState(csvimport.StateCancelled)
			return nil, ctx.Err()
		default:
		}

		if err := s.importRow(ctx, row, conflictMode, result, importErrors); err != nil {
			// Critical error - stop import
			session.UpdateState(csvimport.StateFailed)
			return nil, err
		}
	}

	result.Errors = importErrors.Errors()
	result.IsTruncated = importErrors.IsTruncated()
	result.TotalErrors = importErrors.TotalCount()

	if result.ErrorRows > 0 {
		session.UpdateState(csvimport.StateFailed)
	} else {
		session.UpdateState(csvimport.StateCompleted)
	}

	return result, nil
}

// importRow imports a single product row
func (s *ProductImportService) importRow(
	ctx context.Context,
	row *csvimport.Row,
	conflictMode ConflictMode,
	result *ProductImportResult,
	importErrors *csvimport.ErrorCollection,
) error {
	partNumber := row.Get("part_number")
	manufacturerName := row.Get("manufacturer")
	name := row.Get("name")
	description := row.Get("description")
	categorySlug := row.Get("category_slug")
	mainImage := row.Get("main_image")
	specifications := row.GetOrDefault("specifications", "{}")
	statusStr := row.GetOrDefault("status", string(catalog.ProductStatusActive))
	featured := parseBool(row.Get("is_featured"))

	// Resolve or create the manufacturer
	manufacturer, err := s.resolveManufacturer(ctx, manufacturerName)
	if err != nil {
		importErrors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, "manufacturer", csvimport.ErrCodeImportValidation,
			err.Error(), manufacturerName))
		result.ErrorRows++
		return nil
	}

	// Check for an existing product with the same identity
	existing, err := s.productRepo.FindByPartNumber(ctx, manufacturer.ID, partNumber)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("failed to check existing product: %w", err)
	}

	if existing != nil {
		switch conflictMode {
		case ConflictModeSkip:
			result.SkippedRows++
			return nil
		case ConflictModeFail:
			importErrors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, "part_number", csvimport.ErrCodeImportDuplicateInDB,
				fmt.Sprintf("product '%s / %s' already exists", manufacturerName, partNumber), partNumber))
			result.ErrorRows++
			return nil
		case ConflictModeUpdate:
			return s.updateExistingProduct(ctx, existing, row, name, description, mainImage, specifications, statusStr, featured, result, importErrors)
		}
	}

	// Resolve category
	var categoryID *uuid.UUID
	if categorySlug != "" {
		category, err := s.categoryRepo.FindBySlug(ctx, categorySlug)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				importErrors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, "category_slug", csvimport.ErrCodeImportReferenceNotFound,
					fmt.Sprintf("category '%s' not found", categorySlug), categorySlug))
				result.ErrorRows++
				return nil
			}
			return fmt.Errorf("failed to lookup category: %w", err)
		}
		categoryID = &category.ID
	}

	product, err := catalog.NewProduct(manufacturer.ID, partNumber, name)
	if err != nil {
		importErrors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}
	product.Source = catalog.ProductSourceImport

	if description != "" {
		if err := product.Update(name, description); err != nil {
			importErrors.Add(csvimport.NewRowError(row.LineNumber, "description", csvimport.ErrCodeImportValidation, err.Error()))
			result.ErrorRows++
			return nil
		}
	}

	if categoryID != nil {
		product.SetCategory(categoryID)
	}
	if mainImage != "" {
		product.SetImages(mainImage, product.Images)
	}
	if specifications != "{}" && specifications != "" {
		product.SetSpecifications(specifications)
	}
	if featured {
		product.SetFeatured(true)
	}
	if statusStr != string(catalog.ProductStatusActive) {
		if err := product.ChangeStatus(catalog.ProductStatus(statusStr)); err != nil {
			importErrors.Add(csvimport.NewRowError(row.LineNumber, "status", csvimport.ErrCodeImportValidation, err.Error()))
			result.ErrorRows++
			return nil
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		importErrors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, "failed to save product: "+err.Error()))
		result.ErrorRows++
		return nil
	}

	s.publishEvents(ctx, product)

	result.ImportedRows++
	return nil
}

// updateExistingProduct updates an existing product with import data
func (s *ProductImportService) updateExistingProduct(
	ctx context.Context,
	product *catalog.Product,
	row *csvimport.Row,
	name, description, mainImage, specifications, statusStr string,
	featured bool,
	result *ProductImportResult,
	importErrors *csvimport.ErrorCollection,
) error {
	if err := product.Update(name, description); err != nil {
		importErrors.Add(csvimport.NewRowError(row.LineNumber, "name", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}

	if mainImage != "" {
		product.SetImages(mainImage, product.Images)
	}
	if specifications != "{}" && specifications != "" {
		product.SetSpecifications(specifications)
	}
	product.SetFeatured(featured)

	if statusStr != string(product.Status) {
		if err := product.ChangeStatus(catalog.ProductStatus(statusStr)); err != nil {
			importErrors.Add(csvimport.NewRowError(row.LineNumber, "status", csvimport.ErrCodeImportValidation, err.Error()))
			result.ErrorRows++
			return nil
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		importErrors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, "failed to save product: "+err.Error()))
		result.ErrorRows++
		return nil
	}

	s.publishEvents(ctx, product)

	result.UpdatedRows++
	return nil
}

// resolveManufacturer finds a manufacturer by name, creating it when absent
func (s *ProductImportService) resolveManufacturer(ctx context.Context, name string) (*catalog.Manufacturer, error) {
	manufacturer, err := s.manufacturerRepo.FindByName(ctx, name)
	if err == nil {
		return manufacturer, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	manufacturer, err = catalog.NewManufacturer(name)
	if err != nil {
		return nil, err
	}
	if err := s.manufacturerRepo.Save(ctx, manufacturer); err != nil {
		return nil, err
	}
	return manufacturer, nil
}

func (s *ProductImportService) publishEvents(ctx context.Context, product *catalog.Product) {
	if s.eventBus == nil {
		return
	}
	events := product.GetDomainEvents()
	if len(events) > 0 {
		if err := s.eventBus.Publish(ctx, events...); err != nil {
			log.Printf("WARNING: failed to publish domain events for product %s: %v", product.PartNumber, err)
		}
	}
	product.ClearDomainEvents()
}
