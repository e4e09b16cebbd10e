package importapp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/czachandrew/tru-server/internal/domain/offer"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	csvimport "github.com/czachandrew/tru-server/internal/infrastructure/import"
	"github.com/shopspring/decimal"
)

// OfferImportResult represents the result of an offer import operation
type OfferImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	UpdatedRows  int                  `json:"updated_rows"`
	SkippedRows  int                  `json:"skipped_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// OfferImportService handles vendor price-list bulk imports. Rows reference
// products by part number and vendors by name; unknown vendors are created.
type OfferImportService struct {
	offerRepo   offer.Repository
	vendorRepo  offer.VendorRepository
	productRepo catalog.ProductRepository
	eventBus    shared.EventPublisher
}

// NewOfferImportService creates a new OfferImportService
func NewOfferImportService(
	offerRepo offer.Repository,
	vendorRepo offer.VendorRepository,
	productRepo catalog.ProductRepository,
	eventBus shared.EventPublisher,
) *OfferImportService {
	return &OfferImportService{
		offerRepo:   offerRepo,
		vendorRepo:  vendorRepo,
		productRepo: productRepo,
		eventBus:    eventBus,
	}
}

// GetValidationRules returns the validation rules for offer import
func (s *OfferImportService) GetValidationRules() []csvimport.FieldRule {
	zero := decimal.Zero
	oneHundred := decimal.NewFromInt(100)
	return []csvimport.FieldRule{
		csvimport.Field("part_number").Required().String().MinLength(1).MaxLength(100).Reference("product").Build(),
		csvimport.Field("vendor").Required().String().MinLength(1).MaxLength(200).Build(),
		csvimport.Field("vendor_type").String().Custom(validateVendorType).Build(),
		csvimport.Field("offer_type").String().Custom(validateOfferType).Build(),
		csvimport.Field("selling_price").Required().Decimal().MinValue(zero).Build(),
		csvimport.Field("commission_rate").Decimal().MinValue(zero).MaxValue(oneHundred).Build(),
		csvimport.Field("stock_quantity").Int().MinValue(zero).Build(),
		csvimport.Field("availability").String().Custom(validateAvailability).Build(),
		csvimport.Field("offer_url").String().MaxLength(1000).Build(),
	}
}

// validateVendorType validates the vendor_type field
func validateVendorType(value string) error {
	if value == "" {
		return nil // defaults to supplier
	}
	switch offer.VendorType(strings.ToLower(value)) {
	case offer.VendorTypeSupplier, offer.VendorTypeAffiliate:
		return nil
	default:
		return fmt.Errorf("vendor_type must be 'supplier' or 'affiliate'")
	}
}

// validateOfferType validates the offer_type field
func validateOfferType(value string) error {
	if value == "" {
		return nil // defaults to supplier
	}
	switch offer.OfferType(strings.ToLower(value)) {
	case offer.OfferTypeSupplier, offer.OfferTypeAffiliate, offer.OfferTypeQuote:
		return nil
	default:
		return fmt.Errorf("offer_type must be 'supplier', 'affiliate' or 'quote'")
	}
}

// validateAvailability validates the availability field
func validateAvailability(value string) error {
	if value == "" {
		return nil // defaults to unknown
	}
	switch offer.Availability(strings.ToLower(value)) {
	case offer.AvailabilityInStock, offer.AvailabilityOutOfStock, offer.AvailabilityBackorder, offer.AvailabilityUnknown:
		return nil
	default:
		return fmt.Errorf("availability must be 'in_stock', 'out_of_stock', 'backorder' or 'unknown'")
	}
}

// LookupProduct checks that a part number resolves to a known product.
// Rows may target any manufacturer, so the lookup spans all of them.
func (s *OfferImportService) LookupProduct(ctx context.Context, partNumber string) (bool, error) {
	if partNumber == "" {
		return false, nil
	}
	products, err := s.productRepo.FindByPartNumberAny(ctx, partNumber)
	if err != nil {
		return false, err
	}
	return len(products) > 0, nil
}

// Import imports offers from validated rows
func (s *OfferImportService) Import(
	ctx context.Context,
	session *csvimport.ImportSession,
	validRows []*csvimport.Row,
	conflictMode ConflictMode,
) (*OfferImportResult, error) {
	if session.State != csvimport.StateValidated {
		return nil, shared.NewDomainError("INVALID_STATE", "Import session must be in validated state")
	}

	if !session.IsValid() {
		return nil, shared.NewDomainError("VALIDATION_ERRORS", "Cannot import session with validation errors")
	}

	session.UpdateState(csvimport.StateImporting)

	result := &OfferImportResult{
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

// importRow imports a single offer row
func (s *OfferImportService) importRow(
	ctx context.Context,
	row *csvimport.Row,
	conflictMode ConflictMode,
	result *OfferImportResult,
	importErrors *csvimport.ErrorCollection,
) error {
	partNumber := strings.TrimSpace(row.Get("part_number"))
	vendorName := strings.TrimSpace(row.Get("vendor"))
	vendorType := strings.ToLower(strings.TrimSpace(row.Get("vendor_type")))
	offerType := strings.ToLower(strings.TrimSpace(row.GetOrDefault("offer_type", string(offer.OfferTypeSupplier))))
	priceStr := strings.TrimSpace(row.Get("selling_price"))
	rateStr := strings.TrimSpace(row.Get("commission_rate"))
	stockStr := strings.TrimSpace(row.Get("stock_quantity"))
	availability := strings.ToLower(strings.TrimSpace(row.Get("availability")))
	offerURL := strings.TrimSpace(row.Get("offer_url"))

	sellingPrice, err := decimal.NewFromString(priceStr)
	if err != nil {
		importErrors.Add(csvimport.NewRowError(row.LineNumber, "selling_price", csvimport.ErrCodeImportInvalidType, "invalid decimal value"))
		result.ErrorRows++
		return nil
	}

	commissionRate := decimal.Zero
	if rateStr != "" {
		commissionRate, err = decimal.NewFromString(rateStr)
		if err != nil {
			importErrors.Add(csvimport.NewRowError(row.LineNumber, "commission_rate", csvimport.ErrCodeImportInvalidType, "invalid decimal value"))
			result.ErrorRows++
			return nil
		}
	}

	var stockQuantity int
	if stockStr != "" {
		stockQuantity, err = strconv.Atoi(stockStr)
		if err != nil {
			importErrors.Add(csvimport.NewRowError(row.LineNumber, "stock_quantity", csvimport.ErrCodeImportInvalidType, "invalid integer value"))
			result.ErrorRows++
			return nil
		}
	}

	// Resolve the product. A part number shared across manufacturers is
	// ambiguous and the row is rejected rather than guessing.
	products, err := s.productRepo.FindByPartNumberAny(ctx, partNumber)
	if err != nil {
		return fmt.Errorf("failed to look up product: %w", err)
	}
	switch {
	case len(products) == 0:
		importErrors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, "part_number", csvimport.ErrCodeImportReferenceNotFound,
			fmt.Sprintf("no product with part number '%s'", partNumber), partNumber))
		result.ErrorRows++
		return nil
	case len(products) > 1:
		importErrors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, "part_number", csvimport.ErrCodeImportValidation,
			fmt.Sprintf("part number '%s' matches products from multiple manufacturers", partNumber), partNumber))
		result.ErrorRows++
		return nil
	}
	product := &products[0]

	// Resolve or create the vendor
	vendor, err := s.resolveVendor(ctx, vendorName, vendorType)
	if err != nil {
		importErrors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, "vendor", csvimport.ErrCodeImportValidation,
			err.Error(), vendorName))
		result.ErrorRows++
		return nil
	}

	if rateStr == "" {
		commissionRate = vendor.DefaultCommissionRate
	}

	// Check for an existing offer from this vendor on this product
	existing, err := s.offerRepo.FindByProductAndVendor(ctx, product.ID, vendor.ID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return fmt.Errorf("failed to check existing offer: %w", err)
	}

	if existing != nil {
		switch conflictMode {
		case ConflictModeSkip:
			result.SkippedRows++
			return nil
		case ConflictModeFail:
			importErrors.Add(csvimport.NewRowErrorWithValue(row.LineNumber, "part_number", csvimport.ErrCodeImportDuplicateInDB,
				fmt.Sprintf("vendor '%s' already has an offer on '%s'", vendorName, partNumber), partNumber))
			result.ErrorRows++
			return nil
		case ConflictModeUpdate:
			return s.updateExistingOffer(ctx, existing, row, sellingPrice, commissionRate, stockQuantity, availability, offerURL, rateStr != "", result, importErrors)
		}
	}

	newOffer, err := offer.NewOffer(product.ID, vendor.ID, offer.OfferType(offerType), sellingPrice, commissionRate)
	if err != nil {
		importErrors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}

	if stockStr != "" || availability != "" {
		av := offer.Availability(availability)
		if availability == "" {
			av = offer.AvailabilityUnknown
		}
		newOffer.SetStock(stockQuantity, av)
	}
	if offerURL != "" {
		newOffer.OfferURL = offerURL
	}

	if err := s.offerRepo.Save(ctx, newOffer); err != nil {
		importErrors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, "failed to save offer: "+err.Error()))
		result.ErrorRows++
		return nil
	}

	s.publishOfferEvents(ctx, newOffer, partNumber)

	result.ImportedRows++
	return nil
}

// updateExistingOffer refreshes an existing offer with the imported price
// and stock
func (s *OfferImportService) updateExistingOffer(
	ctx context.Context,
	existing *offer.Offer,
	row *csvimport.Row,
	sellingPrice, commissionRate decimal.Decimal,
	stockQuantity int,
	availability, offerURL string,
	rateProvided bool,
	result *OfferImportResult,
	importErrors *csvimport.ErrorCollection,
) error {
	if err := existing.UpdatePrice(sellingPrice); err != nil {
		importErrors.Add(csvimport.NewRowError(row.LineNumber, "selling_price", csvimport.ErrCodeImportValidation, err.Error()))
		result.ErrorRows++
		return nil
	}
	if rateProvided {
		if err := existing.SetCommissionRate(commissionRate); err != nil {
			importErrors.Add(csvimport.NewRowError(row.LineNumber, "commission_rate", csvimport.ErrCodeImportValidation, err.Error()))
			result.ErrorRows++
			return nil
		}
	}
	if availability != "" {
		existing.SetStock(stockQuantity, offer.Availability(availability))
	}
	if offerURL != "" {
		existing.OfferURL = offerURL
	}

	if err := s.offerRepo.Save(ctx, existing); err != nil {
		importErrors.Add(csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportValidation, "failed to save offer: "+err.Error()))
		result.ErrorRows++
		return nil
	}

	s.publishOfferEvents(ctx, existing, row.Get("part_number"))

	result.UpdatedRows++
	return nil
}

// resolveVendor finds a vendor by name, creating it when absent
func (s *OfferImportService) resolveVendor(ctx context.Context, name, vendorType string) (*offer.Vendor, error) {
	vendor, err := s.vendorRepo.FindByName(ctx, name)
	if err == nil {
		return vendor, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	vt := offer.VendorType(vendorType)
	if vendorType == "" {
		vt = offer.VendorTypeSupplier
	}
	vendor, err = offer.NewVendor(name, vt)
	if err != nil {
		return nil, err
	}
	if err := s.vendorRepo.Save(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *OfferImportService) publishOfferEvents(ctx context.Context, o *offer.Offer, partNumber string) {
	if s.eventBus == nil {
		return
	}
	events := o.GetDomainEvents()
	if len(events) > 0 {
		if err := s.eventBus.Publish(ctx, events...); err != nil {
			log.Printf("WARNING: failed to publish domain events for offer on %s: %v", partNumber, err)
		}
	}
	o.ClearDomainEvents()
}

// ValidateWithWarnings returns validation warnings (non-blocking issues)
func (s *OfferImportService) ValidateWithWarnings(row *csvimport.Row) []string {
	var warnings []string

	priceStr := row.Get("selling_price")
	if priceStr != "" {
		price, err := decimal.NewFromString(priceStr)
		if err == nil && price.GreaterThan(decimal.NewFromInt(100000)) {
			warnings = append(warnings, fmt.Sprintf("row %d: selling price is unusually high (>100,000)", row.LineNumber))
		}
	}

	rateStr := row.Get("commission_rate")
	if rateStr != "" {
		rate, err := decimal.NewFromString(rateStr)
		if err == nil && rate.GreaterThan(decimal.NewFromInt(25)) {
			warnings = append(warnings, fmt.Sprintf("row %d: commission rate is unusually high (>25%%)", row.LineNumber))
		}
	}

	return warnings
}
