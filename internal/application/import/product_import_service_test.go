package importapp

import (
	"context"
	"errors"
	"testing"

	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	csvimport "github.com/czachandrew/tru-server/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByPartNumber(ctx context.Context, manufacturerID uuid.UUID, partNumber string) (*catalog.Product, error) {
	args := m.Called(ctx, manufacturerID, partNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByPartNumberAny(ctx context.Context, partNumber string) ([]catalog.Product, error) {
	args := m.Called(ctx, partNumber)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindFeatured(ctx context.Context, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCategory(ctx context.Context, categoryID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, categoryID, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByStatus(ctx context.Context, status catalog.ProductStatus, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, status, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) SearchByName(ctx context.Context, query string, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, query, limit)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsByPartNumber(ctx context.Context, manufacturerID uuid.UUID, partNumber string) (bool, error) {
	args := m.Called(ctx, manufacturerID, partNumber)
	return args.Bool(0), args.Error(1)
}

// MockManufacturerRepository is a mock implementation of catalog.ManufacturerRepository
type MockManufacturerRepository struct {
	mock.Mock
}

func (m *MockManufacturerRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Manufacturer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Manufacturer), args.Error(1)
}

func (m *MockManufacturerRepository) FindByName(ctx context.Context, name string) (*catalog.Manufacturer, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Manufacturer), args.Error(1)
}

func (m *MockManufacturerRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Manufacturer, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Manufacturer), args.Error(1)
}

func (m *MockManufacturerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Manufacturer, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Manufacturer), args.Error(1)
}

func (m *MockManufacturerRepository) Save(ctx context.Context, manufacturer *catalog.Manufacturer) error {
	args := m.Called(ctx, manufacturer)
	return args.Error(0)
}

func (m *MockManufacturerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockManufacturerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockCategoryRepository is a mock implementation of catalog.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Category, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]catalog.Category, error) {
	args := m.Called(ctx, parentID)
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindRoots(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCategoryRepository) HasProducts(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	args := m.Called(ctx, categoryID)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// Test helpers
func newTestUserID() uuid.UUID {
	return uuid.MustParse("22222222-2222-2222-2222-222222222222")
}

func newTestManufacturer() *catalog.Manufacturer {
	m, _ := catalog.NewManufacturer("Acme")
	m.ID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	return m
}

func newValidatedSession(userID uuid.UUID) *csvimport.ImportSession {
	session := csvimport.NewImportSession(userID, csvimport.EntityProducts, "products.csv", 1024)
	session.UpdateState(csvimport.StateValidating)
	session.TotalRows = 2
	session.ValidRows = 2
	session.ErrorRows = 0
	session.UpdateState(csvimport.StateValidated)
	return session
}

func newTestRow(lineNum int, data map[string]string) *csvimport.Row {
	return &csvimport.Row{
		LineNumber: lineNum,
		Data:       data,
	}
}

// Tests for ConflictMode
func TestConflictMode_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		mode     ConflictMode
		expected bool
	}{
		{"skip is valid", ConflictModeSkip, true},
		{"update is valid", ConflictModeUpdate, true},
		{"fail is valid", ConflictModeFail, true},
		{"empty is invalid", ConflictMode(""), false},
		{"unknown is invalid", ConflictMode("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.mode.IsValid())
		})
	}
}

// Tests for validation rules
func TestProductImportService_GetValidationRules(t *testing.T) {
	service := NewProductImportService(new(MockProductRepository), new(MockManufacturerRepository), new(MockCategoryRepository), nil)

	rules := service.GetValidationRules()

	requiredFields := map[string]bool{
		"part_number":  false,
		"manufacturer": false,
		"name":         false,
	}

	for _, rule := range rules {
		if _, ok := requiredFields[rule.Column]; ok {
			requiredFields[rule.Column] = rule.Required
		}
	}

	for field, required := range requiredFields {
		assert.True(t, required, "field %s should be required", field)
	}

	// category_slug must be declared as a reference so lookups run
	var categoryRule *csvimport.FieldRule
	for i := range rules {
		if rules[i].Column == "category_slug" {
			categoryRule = &rules[i]
		}
	}
	require.NotNil(t, categoryRule)
	assert.Equal(t, "category", categoryRule.Reference)
}

// Tests for validateProductStatus
func TestValidateProductStatus(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"empty is valid", "", false},
		{"active is valid", "active", false},
		{"pending is valid", "pending", false},
		{"discontinued is valid", "discontinued", false},
		{"future_opportunity is rejected", "future_opportunity", true},
		{"unknown is invalid", "unknown", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateProductStatus(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// Tests for validateJSONObject
func TestValidateJSONObject(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"empty is valid", "", false},
		{"valid empty object", "{}", false},
		{"valid object with data", `{"key": "value"}`, false},
		{"missing opening brace", "key: value}", true},
		{"missing closing brace", "{key: value", true},
		{"array not allowed", "[1,2,3]", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateJSONObject(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// Tests for LookupCategory
func TestProductImportService_LookupCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("empty slug returns true", func(t *testing.T) {
		service := NewProductImportService(new(MockProductRepository), new(MockManufacturerRepository), new(MockCategoryRepository), nil)

		exists, err := service.LookupCategory(ctx, "")
		assert.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("existing category returns true", func(t *testing.T) {
		categoryRepo := new(MockCategoryRepository)
		service := NewProductImportService(new(MockProductRepository), new(MockManufacturerRepository), categoryRepo, nil)

		category, _ := catalog.NewCategory("Laptops")
		categoryRepo.On("FindBySlug", ctx, "laptops").Return(category, nil)

		exists, err := service.LookupCategory(ctx, "laptops")
		assert.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("non-existing category returns false", func(t *testing.T) {
		categoryRepo := new(MockCategoryRepository)
		service := NewProductImportService(new(MockProductRepository), new(MockManufacturerRepository), categoryRepo, nil)

		categoryRepo.On("FindBySlug", ctx, "unknown").Return(nil, shared.ErrNotFound)

		exists, err := service.LookupCategory(ctx, "unknown")
		assert.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("database error returns error", func(t *testing.T) {
		categoryRepo := new(MockCategoryRepository)
		service := NewProductImportService(new(MockProductRepository), new(MockManufacturerRepository), categoryRepo, nil)

		dbErr := errors.New("database connection failed")
		categoryRepo.On("FindBySlug", ctx, "laptops").Return(nil, dbErr)

		_, err := service.LookupCategory(ctx, "laptops")
		assert.Error(t, err)
		assert.Equal(t, dbErr, err)
	})
}

// Tests for Import
func TestProductImportService_Import(t *testing.T) {
	ctx := context.Background()
	userID := newTestUserID()

	t.Run("import fails if session not validated", func(t *testing.T) {
		service := NewProductImportService(new(MockProductRepository), new(MockManufacturerRepository), new(MockCategoryRepository), nil)

		session := csvimport.NewImportSession(userID, csvimport.EntityProducts, "test.csv", 1024)
		// Session is in "created" state, not validated

		_, err := service.Import(ctx, userID, session, nil, ConflictModeSkip)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "validated state")
	})

	t.Run("import fails if session has errors", func(t *testing.T) {
		service := NewProductImportService(new(MockProductRepository), new(MockManufacturerRepository), new(MockCategoryRepository), nil)

		session := csvimport.NewImportSession(userID, csvimport.EntityProducts, "test.csv", 1024)
		session.UpdateState(csvimport.StateValidating)
		session.ErrorRows = 1
		session.UpdateState(csvimport.StateValidated)

		_, err := service.Import(ctx, userID, session, nil, ConflictModeSkip)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "validation errors")
	})

	t.Run("successful import of new product", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		manufacturerRepo := new(MockManufacturerRepository)
		eventBus := new(MockEventPublisher)
		service := NewProductImportService(productRepo, manufacturerRepo, new(MockCategoryRepository), eventBus)

		session := newValidatedSession(userID)
		manufacturer := newTestManufacturer()

		row := newTestRow(2, map[string]string{
			"part_number":  "GA-001",
			"manufacturer": "Acme",
			"name":         "Acme Gadget",
			"description":  "A test gadget",
			"status":       "active",
		})

		manufacturerRepo.On("FindByName", ctx, "Acme").Return(manufacturer, nil)
		productRepo.On("FindByPartNumber", ctx, manufacturer.ID, "GA-001").Return(nil, shared.ErrNotFound)
		productRepo.On("Save", ctx, mock.MatchedBy(func(p *catalog.Product) bool {
			return p.PartNumber == "GA-001" && p.Source == catalog.ProductSourceImport
		})).Return(nil)
		eventBus.On("Publish", ctx, mock.Anything).Return(nil)

		result, err := service.Import(ctx, userID, session, []*csvimport.Row{row}, ConflictModeSkip)

		require.NoError(t, err)
		assert.Equal(t, 1, result.TotalRows)
		assert.Equal(t, 1, result.ImportedRows)
		assert.Equal(t, 0, result.UpdatedRows)
		assert.Equal(t, 0, result.SkippedRows)
		assert.Equal(t, 0, result.ErrorRows)
	})

	t.Run("unknown manufacturer is created", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		manufacturerRepo := new(MockManufacturerRepository)
		eventBus := new(MockEventPublisher)
		service := NewProductImportService(productRepo, manufacturerRepo, new(MockCategoryRepository), eventBus)

		session := newValidatedSession(userID)

		row := newTestRow(2, map[string]string{
			"part_number":  "NV-100",
			"manufacturer": "Novus",
			"name":         "Novus Widget",
		})

		manufacturerRepo.On("FindByName", ctx, "Novus").Return(nil, shared.ErrNotFound)
		manufacturerRepo.On("Save", ctx, mock.MatchedBy(func(m *catalog.Manufacturer) bool {
			return m.Name == "Novus" && m.Slug == "novus"
		})).Return(nil)
		productRepo.On("FindByPartNumber", ctx, mock.AnythingOfType("uuid.UUID"), "NV-100").Return(nil, shared.ErrNotFound)
		productRepo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Return(nil)
		eventBus.On("Publish", ctx, mock.Anything).Return(nil)

		result, err := service.Import(ctx, userID, session, []*csvimport.Row{row}, ConflictModeSkip)

		require.NoError(t, err)
		assert.Equal(t, 1, result.ImportedRows)
		manufacturerRepo.AssertExpectations(t)
	})

	t.Run("skip existing product in skip mode", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		manufacturerRepo := new(MockManufacturerRepository)
		service := NewProductImportService(productRepo, manufacturerRepo, new(MockCategoryRepository), nil)

		session := newValidatedSession(userID)
		manufacturer := newTestManufacturer()

		row := newTestRow(2, map[string]string{
			"part_number":  "EX-001",
			"manufacturer": "Acme",
			"name":         "Existing Product",
		})

		existing, _ := catalog.NewProduct(manufacturer.ID, "EX-001", "Existing Product")
		manufacturerRepo.On("FindByName", ctx, "Acme").Return(manufacturer, nil)
		productRepo.On("FindByPartNumber", ctx, manufacturer.ID, "EX-001").Return(existing, nil)

		result, err := service.Import(ctx, userID, session, []*csvimport.Row{row}, ConflictModeSkip)

		require.NoError(t, err)
		assert.Equal(t, 1, result.TotalRows)
		assert.Equal(t, 0, result.ImportedRows)
		assert.Equal(t, 1, result.SkippedRows)
	})

	t.Run("error on existing product in fail mode", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		manufacturerRepo := new(MockManufacturerRepository)
		service := NewProductImportService(productRepo, manufacturerRepo, new(MockCategoryRepository), nil)

		session := newValidatedSession(userID)
		manufacturer := newTestManufacturer()

		row := newTestRow(2, map[string]string{
			"part_number":  "EX-001",
			"manufacturer": "Acme",
			"name":         "Existing Product",
		})

		existing, _ := catalog.NewProduct(manufacturer.ID, "EX-001", "Existing Product")
		manufacturerRepo.On("FindByName", ctx, "Acme").Return(manufacturer, nil)
		productRepo.On("FindByPartNumber", ctx, manufacturer.ID, "EX-001").Return(existing, nil)

		result, err := service.Import(ctx, userID, session, []*csvimport.Row{row}, ConflictModeFail)

		require.NoError(t, err)
		assert.Equal(t, 1, result.TotalRows)
		assert.Equal(t, 0, result.ImportedRows)
		assert.Equal(t, 1, result.ErrorRows)
		assert.Len(t, result.Errors, 1)
		assert.Equal(t, csvimport.ErrCodeImportDuplicateInDB, result.Errors[0].Code)
	})

	t.Run("update existing product in update mode", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		manufacturerRepo := new(MockManufacturerRepository)
		eventBus := new(MockEventPublisher)
		service := NewProductImportService(productRepo, manufacturerRepo, new(MockCategoryRepository), eventBus)

		session := newValidatedSession(userID)
		manufacturer := newTestManufacturer()

		row := newTestRow(2, map[string]string{
			"part_number":  "EX-001",
			"manufacturer": "Acme",
			"name":         "Updated Product",
			"description":  "fresher copy",
			"is_featured":  "true",
		})

		existing, _ := catalog.NewProduct(manufacturer.ID, "EX-001", "Existing Product")
		manufacturerRepo.On("FindByName", ctx, "Acme").Return(manufacturer, nil)
		productRepo.On("FindByPartNumber", ctx, manufacturer.ID, "EX-001").Return(existing, nil)
		productRepo.On("Save", ctx, mock.MatchedBy(func(p *catalog.Product) bool {
			return p.Name == "Updated Product" && p.IsFeatured
		})).Return(nil)
		eventBus.On("Publish", ctx, mock.Anything).Return(nil)

		result, err := service.Import(ctx, userID, session, []*csvimport.Row{row}, ConflictModeUpdate)

		require.NoError(t, err)
		assert.Equal(t, 1, result.TotalRows)
		assert.Equal(t, 0, result.ImportedRows)
		assert.Equal(t, 1, result.UpdatedRows)
	})

	t.Run("import with category", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		manufacturerRepo := new(MockManufacturerRepository)
		categoryRepo := new(MockCategoryRepository)
		eventBus := new(MockEventPublisher)
		service := NewProductImportService(productRepo, manufacturerRepo, categoryRepo, eventBus)

		session := newValidatedSession(userID)
		manufacturer := newTestManufacturer()
		categoryID := uuid.MustParse("33333333-3333-3333-3333-333333333333")

		row := newTestRow(2, map[string]string{
			"part_number":   "CAT-001",
			"manufacturer":  "Acme",
			"name":          "Categorized Product",
			"category_slug": "electronics",
		})

		category, _ := catalog.NewCategory("Electronics")
		category.ID = categoryID

		manufacturerRepo.On("FindByName", ctx, "Acme").Return(manufacturer, nil)
		productRepo.On("FindByPartNumber", ctx, manufacturer.ID, "CAT-001").Return(nil, shared.ErrNotFound)
		categoryRepo.On("FindBySlug", ctx, "electronics").Return(category, nil)
		productRepo.On("Save", ctx, mock.MatchedBy(func(p *catalog.Product) bool {
			return p.CategoryID != nil && *p.CategoryID == categoryID
		})).Return(nil)
		eventBus.On("Publish", ctx, mock.Anything).Return(nil)

		result, err := service.Import(ctx, userID, session, []*csvimport.Row{row}, ConflictModeSkip)

		require.NoError(t, err)
		assert.Equal(t, 1, result.ImportedRows)
	})

	t.Run("missing category records reference error", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		manufacturerRepo := new(MockManufacturerRepository)
		categoryRepo := new(MockCategoryRepository)
		service := NewProductImportService(productRepo, manufacturerRepo, categoryRepo, nil)

		session := newValidatedSession(userID)
		manufacturer := newTestManufacturer()

		row := newTestRow(2, map[string]string{
			"part_number":   "CAT-002",
			"manufacturer":  "Acme",
			"name":          "Orphan Product",
			"category_slug": "ghosts",
		})

		manufacturerRepo.On("FindByName", ctx, "Acme").Return(manufacturer, nil)
		productRepo.On("FindByPartNumber", ctx, manufacturer.ID, "CAT-002").Return(nil, shared.ErrNotFound)
		categoryRepo.On("FindBySlug", ctx, "ghosts").Return(nil, shared.ErrNotFound)

		result, err := service.Import(ctx, userID, session, []*csvimport.Row{row}, ConflictModeSkip)

		require.NoError(t, err)
		assert.Equal(t, 1, result.ErrorRows)
		assert.Len(t, result.Errors, 1)
		assert.Equal(t, csvimport.ErrCodeImportReferenceNotFound, result.Errors[0].Code)
		assert.Equal(t, "category_slug", result.Errors[0].Column)
	})

	t.Run("import with discontinued status", func(t *testing.T) {
		productRepo := new(MockProductRepository)
		manufacturerRepo := new(MockManufacturerRepository)
		eventBus := new(MockEventPublisher)
		service := NewProductImportService(productRepo, manufacturerRepo, new(MockCategoryRepository), eventBus)

		session := newValidatedSession(userID)
		manufacturer := newTestManufacturer()

		row := newTestRow(2, map[string]string{
			"part_number":  "OLD-001",
			"manufacturer": "Acme",
			"name":         "Retired Product",
			"status":       "discontinued",
		})

		manufacturerRepo.On("FindByName", ctx, "Acme").Return(manufacturer, nil)
		productRepo.On("FindByPartNumber", ctx, manufacturer.ID, "OLD-001").Return(nil, shared.ErrNotFound)
		productRepo.On("Save", ctx, mock.MatchedBy(func(p *catalog.Product) bool {
			return p.Status == catalog.ProductStatusDiscontinued
		})).Return(nil)
		eventBus.On("Publish", ctx, mock.Anything).Return(nil)

		result, err := service.Import(ctx, userID, session, []*csvimport.Row{row}, ConflictModeSkip)

		require.NoError(t, err)
		assert.Equal(t, 1, result.ImportedRows)
	})
}

// Tests for context cancellation
func TestProductImportService_Import_ContextCancellation(t *testing.T) {
	userID := newTestUserID()

	service := NewProductImportService(new(MockProductRepository), new(MockManufacturerRepository), new(MockCategoryRepository), nil)

	session := newValidatedSession(userID)

	row := newTestRow(2, map[string]string{
		"part_number":  "GA-001",
		"manufacturer": "Acme",
		"name":         "Acme Gadget",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := service.Import(ctx, userID, session, []*csvimport.Row{row}, ConflictModeSkip)

	assert.Error(t, err)
	assert.Equal(t, context.Canceled, err)
	assert.Equal(t, csvimport.StateCancelled, session.State)
}
