package catalog

import (
	"context"
	"testing"

	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of ProductRepository
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

// MockManufacturerRepository is a mock implementation of ManufacturerRepository
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

// MockCategoryRepository is a mock implementation of CategoryRepository
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

func newProductService(productRepo *MockProductRepository, manufacturerRepo *MockManufacturerRepository, categoryRepo *MockCategoryRepository) *ProductService {
	return NewProductService(productRepo, manufacturerRepo, categoryRepo, nil)
}

func TestProductServiceCreate(t *testing.T) {
	productRepo := new(MockProductRepository)
	manufacturerRepo := new(MockManufacturerRepository)
	categoryRepo := new(MockCategoryRepository)
	service := newProductService(productRepo, manufacturerRepo, categoryRepo)

	manufacturer, err := catalog.NewManufacturer("StarTech")
	require.NoError(t, err)

	manufacturerRepo.On("FindByID", mock.Anything, manufacturer.ID).Return(manufacturer, nil)
	productRepo.On("ExistsByPartNumber", mock.Anything, manufacturer.ID, "HD2VGAE2").Return(false, nil)
	productRepo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

	resp, err := service.Create(context.Background(), CreateProductRequest{
		ManufacturerID: &manufacturer.ID,
		PartNumber:     "HD2VGAE2",
		Name:           "HDMI to VGA Adapter",
		Description:    "Active HDMI to VGA converter",
	})

	require.NoError(t, err)
	assert.Equal(t, "HD2VGAE2", resp.PartNumber)
	assert.Equal(t, "active", resp.Status)
	assert.Equal(t, "manual", resp.Source)
	productRepo.AssertExpectations(t)
}

func TestProductServiceCreateDuplicate(t *testing.T) {
	productRepo := new(MockProductRepository)
	manufacturerRepo := new(MockManufacturerRepository)
	service := newProductService(productRepo, manufacturerRepo, new(MockCategoryRepository))

	manufacturer, err := catalog.NewManufacturer("StarTech")
	require.NoError(t, err)

	manufacturerRepo.On("FindByID", mock.Anything, manufacturer.ID).Return(manufacturer, nil)
	productRepo.On("ExistsByPartNumber", mock.Anything, manufacturer.ID, "HD2VGAE2").Return(true, nil)

	_, err = service.Create(context.Background(), CreateProductRequest{
		ManufacturerID: &manufacturer.ID,
		PartNumber:     "HD2VGAE2",
		Name:           "HDMI to VGA Adapter",
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
}

func TestProductServiceCreateResolvesManufacturerByName(t *testing.T) {
	productRepo := new(MockProductRepository)
	manufacturerRepo := new(MockManufacturerRepository)
	service := newProductService(productRepo, manufacturerRepo, new(MockCategoryRepository))

	manufacturerRepo.On("FindByName", mock.Anything, "Anker").Return(nil, shared.ErrNotFound)
	manufacturerRepo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Manufacturer")).Return(nil)
	productRepo.On("ExistsByPartNumber", mock.Anything, mock.Anything, "A8313").Return(false, nil)
	productRepo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

	resp, err := service.Create(context.Background(), CreateProductRequest{
		ManufacturerName: "Anker",
		PartNumber:       "A8313",
		Name:             "USB-C Hub",
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, resp.ManufacturerID)
	manufacturerRepo.AssertExpectations(t)
}

func TestProductServiceExists(t *testing.T) {
	productRepo := new(MockProductRepository)
	service := newProductService(productRepo, new(MockManufacturerRepository), new(MockCategoryRepository))

	manufacturerID := uuid.New()
	product, err := catalog.NewProduct(manufacturerID, "HD2VGAE2", "HDMI to VGA Adapter")
	require.NoError(t, err)

	productRepo.On("FindByPartNumber", mock.Anything, manufacturerID, "HD2VGAE2").Return(product, nil)
	productRepo.On("FindByPartNumber", mock.Anything, manufacturerID, "MISSING").Return(nil, shared.ErrNotFound)

	resp, err := service.Exists(context.Background(), manufacturerID, "HD2VGAE2")
	require.NoError(t, err)
	assert.True(t, resp.Exists)
	require.NotNil(t, resp.ProductID)
	assert.Equal(t, product.ID, *resp.ProductID)

	resp, err = service.Exists(context.Background(), manufacturerID, "MISSING")
	require.NoError(t, err)
	assert.False(t, resp.Exists)
	assert.Nil(t, resp.ProductID)
}

func TestProductServiceRecordFutureDemand(t *testing.T) {
	productRepo := new(MockProductRepository)
	service := newProductService(productRepo, new(MockManufacturerRepository), new(MockCategoryRepository))

	product, err := catalog.NewPlaceholderProduct(uuid.New(), "B0C1234567", "Rumored Gadget", catalog.ProductSourceAmazon)
	require.NoError(t, err)

	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	productRepo.On("Save", mock.Anything, product).Return(nil)

	resp, err := service.RecordFutureDemand(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.FutureDemandCount)
	assert.Equal(t, string(catalog.ProductStatusFutureOpportunity), resp.Status)
}

func TestProductServiceUpdateStatus(t *testing.T) {
	productRepo := new(MockProductRepository)
	service := newProductService(productRepo, new(MockManufacturerRepository), new(MockCategoryRepository))

	product, err := catalog.NewProduct(uuid.New(), "HD2VGAE2", "HDMI to VGA Adapter")
	require.NoError(t, err)

	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	productRepo.On("Save", mock.Anything, product).Return(nil)

	status := string(catalog.ProductStatusDiscontinued)
	resp, err := service.Update(context.Background(), product.ID, UpdateProductRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "discontinued", resp.Status)
}
