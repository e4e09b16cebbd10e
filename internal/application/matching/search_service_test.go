package matching

import (
	"context"
	"testing"

	"github.com/czachandrew/tru-server/internal/domain/affiliate"
	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/czachandrew/tru-server/internal/domain/matching"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// stubInventory answers consumer searches from fixed product lists
type stubInventory struct {
	names     []catalog.Product
	fragments []catalog.Product
}

func (s *stubInventory) SearchDemo(ctx context.Context, terms []string, limit int) ([]catalog.Product, error) {
	return nil, nil
}

func (s *stubInventory) SearchDescriptionsAny(ctx context.Context, terms []string, limit int) ([]catalog.Product, error) {
	return nil, nil
}

func (s *stubInventory) SearchDescriptionsAll(ctx context.Context, terms []string, limit int) ([]catalog.Product, error) {
	return nil, nil
}

func (s *stubInventory) SearchPartFragments(ctx context.Context, fragments []string, limit int) ([]catalog.Product, error) {
	return s.fragments, nil
}

func (s *stubInventory) SearchNamesAny(ctx context.Context, terms []string, limit int) ([]catalog.Product, error) {
	return s.names, nil
}

// stubCandidates answers supplier matcher lookups from fixed product lists
type stubCandidates struct {
	exact []catalog.Product
}

func (s *stubCandidates) FindByExactPart(ctx context.Context, partNumber string) ([]catalog.Product, error) {
	return s.exact, nil
}

func (s *stubCandidates) FindByManufacturer(ctx context.Context, manufacturerID uuid.UUID) ([]catalog.Product, error) {
	return nil, nil
}

func (s *stubCandidates) FindWithDescriptions(ctx context.Context, limit int) ([]catalog.Product, error) {
	return nil, nil
}

func (s *stubCandidates) FindByNameTerms(ctx context.Context, terms []string, limit int) ([]catalog.Product, error) {
	return nil, nil
}

// MockAssociationRepository is a mock implementation of affiliate.AssociationRepository
type MockAssociationRepository struct {
	mock.Mock
}

func (m *MockAssociationRepository) FindByID(ctx context.Context, id uuid.UUID) (*affiliate.ProductAssociation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*affiliate.ProductAssociation), args.Error(1)
}

func (m *MockAssociationRepository) FindBySource(ctx context.Context, sourceProductID uuid.UUID, limit int) ([]affiliate.ProductAssociation, error) {
	args := m.Called(ctx, sourceProductID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]affiliate.ProductAssociation), args.Error(1)
}

func (m *MockAssociationRepository) FindByPair(ctx context.Context, sourceID, targetID uuid.UUID, assocType affiliate.AssociationType) (*affiliate.ProductAssociation, error) {
	args := m.Called(ctx, sourceID, targetID, assocType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*affiliate.ProductAssociation), args.Error(1)
}

func (m *MockAssociationRepository) Save(ctx context.Context, assoc *affiliate.ProductAssociation) error {
	args := m.Called(ctx, assoc)
	return args.Error(0)
}

func (m *MockAssociationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCatalogRepository is a mock implementation of catalog.ProductRepository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockCatalogRepository) FindByPartNumber(ctx context.Context, manufacturerID uuid.UUID, partNumber string) (*catalog.Product, error) {
	args := m.Called(ctx, manufacturerID, partNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockCatalogRepository) FindByPartNumberAny(ctx context.Context, partNumber string) ([]catalog.Product, error) {
	args := m.Called(ctx, partNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockCatalogRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockCatalogRepository) FindFeatured(ctx context.Context, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockCatalogRepository) FindByCategory(ctx context.Context, categoryID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, categoryID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockCatalogRepository) FindByStatus(ctx context.Context, status catalog.ProductStatus, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockCatalogRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockCatalogRepository) SearchByName(ctx context.Context, query string, limit int) ([]catalog.Product, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockCatalogRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockCatalogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCatalogRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCatalogRepository) ExistsByPartNumber(ctx context.Context, manufacturerID uuid.UUID, partNumber string) (bool, error) {
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
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

func newSearchService(inventory *stubInventory, candidates *stubCandidates) (*SearchService, *MockCatalogRepository, *MockManufacturerRepository, *MockAssociationRepository) {
	productRepo := new(MockCatalogRepository)
	manufacturerRepo := new(MockManufacturerRepository)
	assocRepo := new(MockAssociationRepository)
	service := NewSearchService(
		matching.NewConsumerMatcher(inventory),
		matching.NewMatcher(candidates),
		productRepo,
		manufacturerRepo,
		assocRepo,
		nil,
	)
	return service, productRepo, manufacturerRepo, assocRepo
}

func supplierProduct(t *testing.T, partNumber, name string) catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(uuid.New(), partNumber, name)
	require.NoError(t, err)
	return *product
}

func TestConsumerSearchRecordsFutureDemandWhenNothingToSell(t *testing.T) {
	service, productRepo, manufacturerRepo, _ := newSearchService(&stubInventory{}, &stubCandidates{})
	ctx := context.Background()

	productRepo.On("FindByPartNumberAny", ctx, "B0CX23V2ZK").Return([]catalog.Product{}, nil)
	manufacturerRepo.On("FindByName", ctx, "Amazon").Return(nil, shared.ErrNotFound)
	manufacturerRepo.On("Save", ctx, mock.AnythingOfType("*catalog.Manufacturer")).Return(nil)

	var placeholder *catalog.Product
	productRepo.On("Save", ctx, mock.AnythingOfType("*catalog.Product")).Run(func(args mock.Arguments) {
		placeholder = args.Get(1).(*catalog.Product)
	}).Return(nil)

	resp, err := service.ConsumerSearch(ctx, ConsumerSearchRequest{
		Query: "purple gizmo frame",
		ASIN:  "B0CX23V2ZK",
	})

	require.NoError(t, err)
	assert.Equal(t, "general_supplier_first", resp.SearchStrategy)
	require.Len(t, resp.Results, 1)
	require.NotNil(t, resp.Results[0].Amazon)
	assert.Equal(t, "B0CX23V2ZK", resp.Results[0].Amazon.ASIN)
	assert.InDelta(t, 0.8, resp.OverallConfidence, 0.001)

	require.NotNil(t, placeholder)
	assert.True(t, placeholder.IsPlaceholder)
	assert.Equal(t, catalog.ProductSourceAmazon, placeholder.Source)
	assert.Equal(t, 1, placeholder.FutureDemandCount)
	assert.Equal(t, catalog.ProductStatusFutureOpportunity, placeholder.Status)
	productRepo.AssertNumberOfCalls(t, "Save", 2)
}

func TestConsumerSearchLinksSupplierResultsToSearchedProduct(t *testing.T) {
	hub := supplierProduct(t, "DOCK-4400", "Universal Docking Station")
	inventory := &stubInventory{names: []catalog.Product{hub}}
	service, productRepo, _, assocRepo := newSearchService(inventory, &stubCandidates{})
	ctx := context.Background()

	searched := supplierProduct(t, "B0CX23V2ZK", "Docking Station")
	productRepo.On("FindByPartNumberAny", ctx, "B0CX23V2ZK").
		Return([]catalog.Product{searched}, nil)
	assocRepo.On("FindByPair", ctx, searched.ID, hub.ID, affiliate.AssociationEquivalent).
		Return(nil, shared.ErrNotFound)

	var saved *affiliate.ProductAssociation
	assocRepo.On("Save", ctx, mock.AnythingOfType("*affiliate.ProductAssociation")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*affiliate.ProductAssociation)
	}).Return(nil)

	resp, err := service.ConsumerSearch(ctx, ConsumerSearchRequest{
		Query: "docking station universal",
		ASIN:  "B0CX23V2ZK",
	})

	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	require.NotNil(t, resp.Results[0].Product)
	assert.Equal(t, "DOCK-4400", resp.Results[0].Product.PartNumber)

	require.NotNil(t, saved)
	assert.Equal(t, searched.ID, saved.SourceProductID)
	assert.Equal(t, hub.ID, saved.TargetProductID)
	assert.Equal(t, 1, saved.SearchCount)
	assert.InDelta(t, 0.7, saved.Confidence, 0.001)
	assert.NotEqual(t, "{}", saved.Metadata)
}

func TestConsumerSearchWithoutASINSkipsTracking(t *testing.T) {
	service, productRepo, _, assocRepo := newSearchService(&stubInventory{}, &stubCandidates{})

	resp, err := service.ConsumerSearch(context.Background(), ConsumerSearchRequest{
		Query: "purple gizmo frame",
	})

	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, "purple gizmo frame", resp.AmazonFallback)
	productRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assocRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAlternativesPersistsEquivalentAssociations(t *testing.T) {
	equivalent := supplierProduct(t, "SVR-7400", "Rack Server 7400")
	candidates := &stubCandidates{exact: []catalog.Product{equivalent}}
	service, productRepo, _, assocRepo := newSearchService(&stubInventory{}, candidates)
	ctx := context.Background()

	subject, err := catalog.NewProduct(uuid.New(), "SVR-7400", "Rack Server")
	require.NoError(t, err)
	productRepo.On("FindByID", ctx, subject.ID).Return(subject, nil)
	assocRepo.On("FindByPair", ctx, subject.ID, equivalent.ID, affiliate.AssociationEquivalent).
		Return(nil, shared.ErrNotFound)
	assocRepo.On("Save", ctx, mock.AnythingOfType("*affiliate.ProductAssociation")).Return(nil)

	alternatives, err := service.Alternatives(ctx, subject.ID, 10)

	require.NoError(t, err)
	require.Len(t, alternatives, 1)
	assert.Equal(t, string(matching.MatchExactPart), alternatives[0].MatchType)
	assert.InDelta(t, 1.0, alternatives[0].Confidence, 0.001)
	assocRepo.AssertExpectations(t)
}

func TestAlternativesRaisesConfidenceOnRepeatMatches(t *testing.T) {
	equivalent := supplierProduct(t, "SVR-7400", "Rack Server 7400")
	candidates := &stubCandidates{exact: []catalog.Product{equivalent}}
	service, productRepo, _, assocRepo := newSearchService(&stubInventory{}, candidates)
	ctx := context.Background()

	subject, err := catalog.NewProduct(uuid.New(), "SVR-7400", "Rack Server")
	require.NoError(t, err)

	existing, err := affiliate.NewProductAssociation(subject.ID, equivalent.ID, affiliate.AssociationEquivalent, 0.5)
	require.NoError(t, err)
	existing.RecordSearch()

	productRepo.On("FindByID", ctx, subject.ID).Return(subject, nil)
	assocRepo.On("FindByPair", ctx, subject.ID, equivalent.ID, affiliate.AssociationEquivalent).
		Return(existing, nil)
	assocRepo.On("Save", ctx, existing).Return(nil)

	_, err = service.Alternatives(ctx, subject.ID, 10)

	require.NoError(t, err)
	assert.InDelta(t, 1.0, existing.Confidence, 0.001)
	assert.Equal(t, 2, existing.SearchCount)
}

func TestRecordAssociationClick(t *testing.T) {
	service, _, _, assocRepo := newSearchService(&stubInventory{}, &stubCandidates{})
	ctx := context.Background()

	assoc, err := affiliate.NewProductAssociation(uuid.New(), uuid.New(), affiliate.AssociationAccessory, 0.6)
	require.NoError(t, err)
	assocRepo.On("FindByID", ctx, assoc.ID).Return(assoc, nil)
	assocRepo.On("Save", ctx, assoc).Return(nil)

	require.NoError(t, service.RecordAssociationClick(ctx, assoc.ID))
	assert.Equal(t, 1, assoc.ClickCount)
}
