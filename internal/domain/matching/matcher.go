package matching

import (
	"context"
	"sort"
	"strings"

	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/google/uuid"
)

// MatchType identifies the strategy that produced a match
type MatchType string

const (
	MatchExactPart   MatchType = "exact_part"
	MatchSimilarPart MatchType = "similar_part"
	MatchDescription MatchType = "description"
	MatchName        MatchType = "name"
)

const (
	// DefaultMatchLimit caps how many matches FindMatches returns
	DefaultMatchLimit = 10

	similarPartThreshold  = 0.8
	similarPartFactor     = 0.9
	descriptionThreshold  = 0.4
	nameThreshold         = 0.3
	nameConfidenceCap     = 0.8
	sameManufacturerBoost = 1.2
	specOverlapBonus      = 1.2
	minDescriptionLength  = 50

	descriptionCandidateCap = 1000
	nameCandidateCap        = 100
)

// Match pairs an inventory product with the strategy and confidence that
// surfaced it
type Match struct {
	Type       MatchType
	Confidence float64
	Product    *catalog.Product
}

// CandidateSource supplies inventory products to match against. All lookups
// exclude Amazon-sourced records: matching pairs externally scraped products
// with products we can actually sell.
type CandidateSource interface {
	// FindByExactPart returns products whose part number equals the given
	// one, case-insensitively
	FindByExactPart(ctx context.Context, partNumber string) ([]catalog.Product, error)
	// FindByManufacturer returns products from the given manufacturer
	FindByManufacturer(ctx context.Context, manufacturerID uuid.UUID) ([]catalog.Product, error)
	// FindWithDescriptions returns products carrying a non-empty description
	FindWithDescriptions(ctx context.Context, limit int) ([]catalog.Product, error)
	// FindByNameTerms returns products whose name contains any of the terms
	FindByNameTerms(ctx context.Context, terms []string, limit int) ([]catalog.Product, error)
}

// Matcher finds inventory products that correspond to an externally sourced
// product, trying exact part numbers first and falling back to fuzzier
// part, spec, and name comparisons.
type Matcher struct {
	source CandidateSource
}

// NewMatcher creates a matcher over the given candidate source
func NewMatcher(source CandidateSource) *Matcher {
	return &Matcher{source: source}
}

// FindMatches runs every strategy against the subject, deduplicates by
// product keeping the highest confidence, and returns the top matches
// sorted by confidence
func (m *Matcher) FindMatches(ctx context.Context, subject *catalog.Product, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = DefaultMatchLimit
	}

	var matches []Match

	exact, err := m.exactPartMatches(ctx, subject)
	if err != nil {
		return nil, err
	}
	matches = append(matches, exact...)

	if subject.ManufacturerID != uuid.Nil {
		similar, err := m.similarPartMatches(ctx, subject)
		if err != nil {
			return nil, err
		}
		matches = append(matches, similar...)
	}

	desc, err := m.descriptionMatches(ctx, subject)
	if err != nil {
		return nil, err
	}
	matches = append(matches, desc...)

	name, err := m.nameMatches(ctx, subject)
	if err != nil {
		return nil, err
	}
	matches = append(matches, name...)

	matches = dedupeMatches(matches)
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *Matcher) exactPartMatches(ctx context.Context, subject *catalog.Product) ([]Match, error) {
	// ASINs are Amazon identifiers, not manufacturer part numbers
	if subject.PartNumber == "" || catalog.IsASIN(subject.PartNumber) {
		return nil, nil
	}

	candidates, err := m.source.FindByExactPart(ctx, subject.PartNumber)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(candidates))
	for i := range candidates {
		matches = append(matches, Match{Type: MatchExactPart, Confidence: 1.0, Product: &candidates[i]})
	}
	return matches, nil
}

func (m *Matcher) similarPartMatches(ctx context.Context, subject *catalog.Product) ([]Match, error) {
	if subject.PartNumber == "" || catalog.IsASIN(subject.PartNumber) {
		return nil, nil
	}

	candidates, err := m.source.FindByManufacturer(ctx, subject.ManufacturerID)
	if err != nil {
		return nil, err
	}

	subjectPart := strings.ToUpper(subject.PartNumber)
	var matches []Match
	for i := range candidates {
		if candidates[i].PartNumber == "" {
			continue
		}
		similarity := SimilarityRatio(subjectPart, strings.ToUpper(candidates[i].PartNumber))
		if similarity > similarPartThreshold {
			matches = append(matches, Match{
				Type:       MatchSimilarPart,
				Confidence: similarity * similarPartFactor,
				Product:    &candidates[i],
			})
		}
	}
	return matches, nil
}

func (m *Matcher) descriptionMatches(ctx context.Context, subject *catalog.Product) ([]Match, error) {
	if len(subject.Description) < minDescriptionLength {
		return nil, nil
	}
	subjectSpecs := ExtractSpecs(subject.Description)
	if len(subjectSpecs) == 0 {
		return nil, nil
	}

	candidates, err := m.source.FindWithDescriptions(ctx, descriptionCandidateCap)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for i := range candidates {
		candidateSpecs := ExtractSpecs(candidates[i].Description)
		if len(candidateSpecs) == 0 {
			continue
		}
		confidence := SpecSimilarity(subjectSpecs, candidateSpecs)
		if confidence > descriptionThreshold {
			matches = append(matches, Match{Type: MatchDescription, Confidence: confidence, Product: &candidates[i]})
		}
	}
	return matches, nil
}

func (m *Matcher) nameMatches(ctx context.Context, subject *catalog.Product) ([]Match, error) {
	subjectTerms := KeyTerms(subject.Name)
	if len(subjectTerms) < 2 {
		return nil, nil
	}

	terms := make([]string, 0, len(subjectTerms))
	for t := range subjectTerms {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	candidates, err := m.source.FindByNameTerms(ctx, terms, nameCandidateCap)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for i := range candidates {
		candidateTerms := KeyTerms(candidates[i].Name)
		confidence := termOverlap(subjectTerms, candidateTerms)
		if subject.ManufacturerID != uuid.Nil && candidates[i].ManufacturerID == subject.ManufacturerID {
			confidence *= sameManufacturerBoost
		}
		if confidence > nameThreshold {
			if confidence > nameConfidenceCap {
				confidence = nameConfidenceCap
			}
			matches = append(matches, Match{Type: MatchName, Confidence: confidence, Product: &candidates[i]})
		}
	}
	return matches, nil
}

// dedupeMatches keeps one match per product, preferring the highest confidence
func dedupeMatches(matches []Match) []Match {
	best := make(map[uuid.UUID]Match)
	order := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		existing, seen := best[m.Product.ID]
		if !seen {
			order = append(order, m.Product.ID)
		}
		if !seen || m.Confidence > existing.Confidence {
			best[m.Product.ID] = m
		}
	}
	deduped := make([]Match, 0, len(best))
	for _, id := range order {
		deduped = append(deduped, best[id])
	}
	return deduped
}
