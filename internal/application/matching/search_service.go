package matching

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/czachandrew/tru-server/internal/domain/affiliate"
	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/czachandrew/tru-server/internal/domain/matching"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// amazonManufacturerName labels placeholder products created from Amazon
// listings before the real manufacturer is known
const amazonManufacturerName = "Amazon"

// SearchService runs consumer product searches and supplier alternative
// lookups, and projects what it learns into product associations
type SearchService struct {
	consumer         *matching.ConsumerMatcher
	matcher          *matching.Matcher
	productRepo      catalog.ProductRepository
	manufacturerRepo catalog.ManufacturerRepository
	assocRepo        affiliate.AssociationRepository
	eventBus         shared.EventPublisher
}

// NewSearchService creates a new SearchService
func NewSearchService(
	consumer *matching.ConsumerMatcher,
	matcher *matching.Matcher,
	productRepo catalog.ProductRepository,
	manufacturerRepo catalog.ManufacturerRepository,
	assocRepo affiliate.AssociationRepository,
	eventBus shared.EventPublisher,
) *SearchService {
	return &SearchService{
		consumer:         consumer,
		matcher:          matcher,
		productRepo:      productRepo,
		manufacturerRepo: manufacturerRepo,
		assocRepo:        assocRepo,
		eventBus:         eventBus,
	}
}

// ConsumerSearch answers a consumer product search. When an ASIN rides
// along, the searched Amazon product is recorded as a placeholder so
// demand for uncarried products accumulates, and supplier results are
// linked to it as associations for future searches.
func (s *SearchService) ConsumerSearch(ctx context.Context, req ConsumerSearchRequest) (*ConsumerSearchResponse, error) {
	result, err := s.consumer.Match(ctx, req.Query, req.ASIN)
	if err != nil {
		return nil, err
	}

	if req.ASIN != "" && catalog.IsASIN(req.ASIN) {
		if err := s.trackSearchedProduct(ctx, req, result); err != nil {
			return nil, err
		}
	}

	response := ToConsumerSearchResponse(result)
	return &response, nil
}

// Alternatives finds supplier alternatives for a catalog product and
// persists them as associations so later lookups can skip the matcher
func (s *SearchService) Alternatives(ctx context.Context, productID uuid.UUID, limit int) ([]AlternativeResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	matches, err := s.matcher.FindMatches(ctx, product, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]AlternativeResponse, 0, len(matches))
	for _, m := range matches {
		if err := s.recordAssociation(ctx, product.ID, m.Product.ID, associationTypeFor(m.Type), m.Confidence, ""); err != nil {
			return nil, err
		}
		responses = append(responses, ToAlternativeResponse(m))
	}
	return responses, nil
}

// RecordAssociationClick counts a click-through on an association
func (s *SearchService) RecordAssociationClick(ctx context.Context, associationID uuid.UUID) error {
	assoc, err := s.assocRepo.FindByID(ctx, associationID)
	if err != nil {
		return err
	}
	assoc.RecordClick()
	return s.assocRepo.Save(ctx, assoc)
}

// RecordAssociationConversion counts a purchase attributed to an association
func (s *SearchService) RecordAssociationConversion(ctx context.Context, associationID uuid.UUID) error {
	assoc, err := s.assocRepo.FindByID(ctx, associationID)
	if err != nil {
		return err
	}
	assoc.RecordConversion()
	return s.assocRepo.Save(ctx, assoc)
}

// trackSearchedProduct upserts a placeholder for the searched ASIN,
// accumulates future demand when we have nothing to sell, and associates
// supplier results with the placeholder
func (s *SearchService) trackSearchedProduct(ctx context.Context, req ConsumerSearchRequest, result *matching.ConsumerResult) error {
	source, err := s.ensurePlaceholder(ctx, req.ASIN, req.Query)
	if err != nil {
		return err
	}

	if !hasSupplierResults(result) {
		source.RecordFutureDemand()
		if err := s.productRepo.Save(ctx, source); err != nil {
			return err
		}
		s.publishEvents(ctx, source)
		return nil
	}

	for _, m := range result.Results {
		if m.Product == nil || m.Product.ID == source.ID {
			continue
		}
		metadata, _ := json.Marshal(m.Relationship)
		assocType := associationTypeForRelationship(m.Relationship.Type)
		if err := s.recordAssociation(ctx, source.ID, m.Product.ID, assocType, m.Confidence, string(metadata)); err != nil {
			return err
		}
	}
	return nil
}

// ensurePlaceholder returns the catalog product for an ASIN, creating a
// placeholder under the Amazon pseudo-manufacturer when unknown
func (s *SearchService) ensurePlaceholder(ctx context.Context, asin, title string) (*catalog.Product, error) {
	existing, err := s.productRepo.FindByPartNumberAny(ctx, asin)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if len(existing) > 0 {
		return &existing[0], nil
	}

	manufacturer, err := s.manufacturerRepo.FindByName(ctx, amazonManufacturerName)
	if errors.Is(err, shared.ErrNotFound) {
		manufacturer, err = catalog.NewManufacturer(amazonManufacturerName)
		if err != nil {
			return nil, err
		}
		if err := s.manufacturerRepo.Save(ctx, manufacturer); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if title == "" {
		title = "Amazon product " + asin
	}
	product, err := catalog.NewPlaceholderProduct(manufacturer.ID, asin, title, catalog.ProductSourceAmazon)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, product)

	return product, nil
}

// recordAssociation upserts a (source, target, type) association, keeping
// the highest confidence seen and counting the search
func (s *SearchService) recordAssociation(ctx context.Context, sourceID, targetID uuid.UUID, assocType affiliate.AssociationType, confidence float64, metadata string) error {
	if confidence > 1 {
		confidence = 1
	}

	assoc, err := s.assocRepo.FindByPair(ctx, sourceID, targetID, assocType)
	switch {
	case err == nil:
		assoc.RaiseConfidence(confidence)
	case errors.Is(err, shared.ErrNotFound):
		assoc, err = affiliate.NewProductAssociation(sourceID, targetID, assocType, confidence)
		if err != nil {
			return err
		}
	default:
		return err
	}

	if metadata != "" {
		assoc.SetMetadata(metadata)
	}
	assoc.RecordSearch()

	return s.assocRepo.Save(ctx, assoc)
}

func (s *SearchService) publishEvents(ctx context.Context, product *catalog.Product) {
	if s.eventBus == nil {
		return
	}
	_ = s.eventBus.Publish(ctx, product.GetDomainEvents()...)
	product.ClearDomainEvents()
}

// hasSupplierResults reports whether any result is sellable inventory
// rather than an Amazon affiliate placeholder
func hasSupplierResults(result *matching.ConsumerResult) bool {
	for _, m := range result.Results {
		if m.Product != nil {
			return true
		}
	}
	return false
}

// associationTypeFor maps a supplier matcher strategy to the stored
// association type
func associationTypeFor(matchType matching.MatchType) affiliate.AssociationType {
	switch matchType {
	case matching.MatchExactPart, matching.MatchSimilarPart:
		return affiliate.AssociationEquivalent
	default:
		return affiliate.AssociationAlternative
	}
}

// associationTypeForRelationship maps a consumer relationship onto the
// stored association type
func associationTypeForRelationship(rel matching.RelationshipType) affiliate.AssociationType {
	switch rel {
	case matching.RelationshipPrimary, matching.RelationshipEquivalent:
		return affiliate.AssociationEquivalent
	case matching.RelationshipAccessory:
		return affiliate.AssociationAccessory
	case matching.RelationshipRelated:
		return affiliate.AssociationCrossSell
	default:
		return affiliate.AssociationAlternative
	}
}
