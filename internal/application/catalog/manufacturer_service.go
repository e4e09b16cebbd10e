package catalog

import (
	"context"
	"errors"

	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// ManufacturerService handles manufacturer-related business operations
type ManufacturerService struct {
	manufacturerRepo catalog.ManufacturerRepository
}

// NewManufacturerService creates a new ManufacturerService
func NewManufacturerService(manufacturerRepo catalog.ManufacturerRepository) *ManufacturerService {
	return &ManufacturerService{manufacturerRepo: manufacturerRepo}
}

// GetOrCreate finds a manufacturer by name, creating it when unknown.
// Scraped products arrive with free-form manufacturer names, so creation
// is the common path.
func (s *ManufacturerService) GetOrCreate(ctx context.Context, name string) (*ManufacturerResponse, error) {
	existing, err := s.manufacturerRepo.FindByName(ctx, name)
	if err == nil {
		response := ToManufacturerResponse(existing)
		return &response, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	manufacturer, err := catalog.NewManufacturer(name)
	if err != nil {
		return nil, err
	}
	if err := s.manufacturerRepo.Save(ctx, manufacturer); err != nil {
		return nil, err
	}

	response := ToManufacturerResponse(manufacturer)
	return &response, nil
}

// GetByID retrieves a manufacturer by ID
func (s *ManufacturerService) GetByID(ctx context.Context, id uuid.UUID) (*ManufacturerResponse, error) {
	manufacturer, err := s.manufacturerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToManufacturerResponse(manufacturer)
	return &response, nil
}

// List retrieves all manufacturers
func (s *ManufacturerService) List(ctx context.Context) ([]ManufacturerResponse, error) {
	manufacturers, err := s.manufacturerRepo.FindAll(ctx, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}

	responses := make([]ManufacturerResponse, 0, len(manufacturers))
	for i := range manufacturers {
		responses = append(responses, ToManufacturerResponse(&manufacturers[i]))
	}
	return responses, nil
}

// Update updates manufacturer details
func (s *ManufacturerService) Update(ctx context.Context, id uuid.UUID, name, logoURL, website string) (*ManufacturerResponse, error) {
	manufacturer, err := s.manufacturerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := manufacturer.Update(name, logoURL, website); err != nil {
		return nil, err
	}
	if err := s.manufacturerRepo.Save(ctx, manufacturer); err != nil {
		return nil, err
	}

	response := ToManufacturerResponse(manufacturer)
	return &response, nil
}
