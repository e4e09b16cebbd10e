package matching

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/google/uuid"
)

// Result sources
const (
	sourceSupplier        = "supplier"
	sourceAmazonAffiliate = "amazon_affiliate"
)

// Strategy scores rank supplier search results before deduplication
const (
	scoreDemoProduct  = 10
	scoreExactPart    = 9
	scoreConsumerDesc = 8
	scoreWeightedDesc = 7
	scoreFuzzyName    = 6
)

// Confidence levels per strategy outcome
const (
	confidenceASINProvided    = 0.95
	confidenceSupplierStrong  = 0.9
	confidenceAmazonFallback  = 0.8
	confidenceGeneralSupplier = 0.7
	confidenceNoASINDominant  = 0.6
	confidenceSuggestOnly     = 0.4
	confidenceNoInventory     = 0.3
	confidenceAlternative     = 0.7
	confidenceAccessory       = 0.6
)

const (
	supplierResultCap   = 15
	demoSearchLimit     = 5
	consumerDescLimit   = 8
	weightedDescLimit   = 10
	partSearchLimit     = 5
	fuzzyNameLimit      = 5
	accessorySearchCap  = 6
	demoAlternativesCap = 3
	strongAlternatives  = 7
	generalAlternatives = 5
)

var partNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z]{2,5}[-_]?[0-9]{3,8}[A-Z]{0,3}\b`),
	regexp.MustCompile(`\b[0-9]{3,5}[-_]?[A-Z]{2,5}\b`),
	regexp.MustCompile(`\b[A-Z0-9\-_]{6,15}\b`),
}

// InventorySearcher runs the catalog queries behind consumer matching.
// Implementations search supplier-sourced products only (manual and import
// records); Amazon-sourced rows are never candidates.
type InventorySearcher interface {
	// SearchDemo returns demo products whose name or description contains
	// any of the terms
	SearchDemo(ctx context.Context, terms []string, limit int) ([]catalog.Product, error)
	// SearchDescriptionsAny matches products whose description contains any term
	SearchDescriptionsAny(ctx context.Context, terms []string, limit int) ([]catalog.Product, error)
	// SearchDescriptionsAll matches products whose description contains every term
	SearchDescriptionsAll(ctx context.Context, terms []string, limit int) ([]catalog.Product, error)
	// SearchPartFragments matches part number, name, or description against
	// extracted part number fragments
	SearchPartFragments(ctx context.Context, fragments []string, limit int) ([]catalog.Product, error)
	// SearchNamesAny matches products whose name contains any term
	SearchNamesAny(ctx context.Context, terms []string, limit int) ([]catalog.Product, error)
}

// AmazonPlaceholder stands in for an Amazon product we cannot fetch
// directly; the affiliate worker fills in real details once a link exists
type AmazonPlaceholder struct {
	Title         string `json:"title"`
	ASIN          string `json:"asin"`
	DetailPageURL string `json:"detail_page_url"`
}

// ConsumerMatch is one entry in a consumer search response. Exactly one of
// Product or Amazon is set.
type ConsumerMatch struct {
	Product         *catalog.Product   `json:"product,omitempty"`
	Amazon          *AmazonPlaceholder `json:"amazon,omitempty"`
	MatchType       string             `json:"match_type"`
	Confidence      float64            `json:"match_confidence"`
	IsAmazonProduct bool               `json:"is_amazon_product"`
	IsAlternative   bool               `json:"is_alternative"`
	Relationship    Relationship       `json:"relationship"`
}

// ConsumerResult is the full response for a consumer product search
type ConsumerResult struct {
	Results           []ConsumerMatch `json:"results"`
	SearchStrategy    string          `json:"search_strategy"`
	OverallConfidence float64         `json:"overall_confidence"`
	// AmazonFallback suggests a manual Amazon search when inventory comes
	// up empty and no ASIN was given
	AmazonFallback string `json:"amazon_fallback_suggestion,omitempty"`
}

// ConsumerMatcher turns consumer search terms into ranked product
// recommendations, preferring supplier inventory and falling back to
// Amazon affiliate links only when the caller supplies an ASIN.
type ConsumerMatcher struct {
	searcher InventorySearcher
}

// NewConsumerMatcher creates a consumer matcher over the given searcher
func NewConsumerMatcher(searcher InventorySearcher) *ConsumerMatcher {
	return &ConsumerMatcher{searcher: searcher}
}

// Match routes the search to a category strategy: supplier-focused where
// inventory is strong, accessory cross-sell where Amazon dominates, and a
// general supplier-first pass otherwise
func (m *ConsumerMatcher) Match(ctx context.Context, searchTerm, asin string) (*ConsumerResult, error) {
	if category := categorize(searchTerm, supplierStrongCategories); category != "" {
		return m.supplierFocused(ctx, searchTerm, category)
	}
	if category := categorize(searchTerm, amazonDominantCategories); category != "" {
		return m.amazonDominantWithAccessories(ctx, searchTerm, category, asin)
	}
	return m.generalSupplierFirst(ctx, searchTerm, asin)
}

func categorize(searchTerm string, categories map[string][]string) string {
	search := strings.ToLower(searchTerm)
	for category, keywords := range categories {
		for _, keyword := range keywords {
			if strings.Contains(search, keyword) {
				return category
			}
		}
	}
	return ""
}

func (m *ConsumerMatcher) supplierFocused(ctx context.Context, searchTerm, category string) (*ConsumerResult, error) {
	result := &ConsumerResult{SearchStrategy: "supplier_focused_" + category}

	products, err := m.enhancedSupplierSearch(ctx, searchTerm)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		result.AmazonFallback = searchTerm
		result.OverallConfidence = confidenceNoInventory
		return result, nil
	}

	result.Results = append(result.Results, primaryMatch(&products[0], "direct_supplier_match", confidenceSupplierStrong))
	for i := 1; i < len(products) && i <= strongAlternatives; i++ {
		result.Results = append(result.Results, alternativeMatch(&products[i], "supplier_alternative", searchTerm))
	}
	result.OverallConfidence = confidenceSupplierStrong
	return result, nil
}

func (m *ConsumerMatcher) amazonDominantWithAccessories(ctx context.Context, searchTerm, category, asin string) (*ConsumerResult, error) {
	result := &ConsumerResult{SearchStrategy: "amazon_dominant_with_accessories_" + category}

	if asin != "" {
		result.Results = append(result.Results, amazonMatch(searchTerm, asin, "amazon_affiliate_link", confidenceASINProvided))
		result.OverallConfidence = confidenceASINProvided
	} else {
		result.AmazonFallback = searchTerm
		result.OverallConfidence = confidenceNoASINDominant
	}

	// Demo units are the only true alternatives we hold for device
	// categories; everything else we can offer is an accessory
	if terms, ok := deviceSearchTerms[category]; ok {
		demoProducts, err := m.enhancedSupplierSearch(ctx, terms)
		if err != nil {
			return nil, err
		}
		added := 0
		for i := range demoProducts {
			if added >= demoAlternativesCap {
				break
			}
			p := &demoProducts[i]
			if p.IsDemo && isActualAlternative(p, category) {
				result.Results = append(result.Results, alternativeMatch(p, category+"_demo_alternative", searchTerm))
				added++
			}
		}
	}

	accessories, err := m.findRelevantAccessories(ctx, category)
	if err != nil {
		return nil, err
	}
	for i := range accessories {
		result.Results = append(result.Results, accessoryMatch(&accessories[i], category+"_accessory"))
	}

	return result, nil
}

func (m *ConsumerMatcher) generalSupplierFirst(ctx context.Context, searchTerm, asin string) (*ConsumerResult, error) {
	result := &ConsumerResult{SearchStrategy: "general_supplier_first"}

	products, err := m.enhancedSupplierSearch(ctx, searchTerm)
	if err != nil {
		return nil, err
	}

	switch {
	case len(products) > 0:
		result.Results = append(result.Results, primaryMatch(&products[0], "general_supplier_match", confidenceGeneralSupplier))
		for i := 1; i < len(products) && i <= generalAlternatives; i++ {
			result.Results = append(result.Results, alternativeMatch(&products[i], "supplier_alternative", searchTerm))
		}
		result.OverallConfidence = confidenceGeneralSupplier
	case asin != "":
		result.Results = append(result.Results, amazonMatch(searchTerm, asin, "amazon_fallback", confidenceAmazonFallback))
		result.OverallConfidence = confidenceAmazonFallback
	default:
		result.AmazonFallback = searchTerm
		result.OverallConfidence = confidenceSuggestOnly
	}

	return result, nil
}

// enhancedSupplierSearch runs every supplier strategy, scores the results,
// drops accessories, and returns the best non-accessory products
func (m *ConsumerMatcher) enhancedSupplierSearch(ctx context.Context, searchTerm string) ([]catalog.Product, error) {
	type scored struct {
		product catalog.Product
		score   int
	}
	var all []scored
	seen := make(map[uuid.UUID]bool)

	collect := func(products []catalog.Product, score int) {
		for i := range products {
			if seen[products[i].ID] {
				continue
			}
			seen[products[i].ID] = true
			all = append(all, scored{product: products[i], score: score})
		}
	}

	demo, err := m.demoProductSearch(ctx, searchTerm)
	if err != nil {
		return nil, err
	}
	collect(demo, scoreDemoProduct)

	mined, err := m.consumerDescriptionMining(ctx, searchTerm)
	if err != nil {
		return nil, err
	}
	collect(mined, scoreConsumerDesc)

	parts, err := m.exactPartSearch(ctx, searchTerm)
	if err != nil {
		return nil, err
	}
	collect(parts, scoreExactPart)

	weighted, err := m.weightedDescriptionSearch(ctx, searchTerm)
	if err != nil {
		return nil, err
	}
	collect(weighted, scoreWeightedDesc)

	fuzzy, err := m.fuzzyNameSearch(ctx, searchTerm)
	if err != nil {
		return nil, err
	}
	collect(fuzzy, scoreFuzzyName)

	// Stable insertion order within equal scores
	for i := 1; i < len(all); i++ {
		for j := i; j > 0 && all[j].score > all[j-1].score; j-- {
			all[j], all[j-1] = all[j-1], all[j]
		}
	}

	var filtered []catalog.Product
	for i := range all {
		if isAccessoryProduct(&all[i].product) {
			continue
		}
		filtered = append(filtered, all[i].product)
		if len(filtered) >= supplierResultCap {
			break
		}
	}
	return filtered, nil
}

// demoProductSearch returns demo products only when the search is actually
// for a comparable device class; accessory searches never get demo units
func (m *ConsumerMatcher) demoProductSearch(ctx context.Context, searchTerm string) ([]catalog.Product, error) {
	if searchTerm == "" {
		return nil, nil
	}
	search := strings.ToLower(searchTerm)

	for _, exclusion := range accessoryExclusions {
		if strings.Contains(search, exclusion) {
			return nil, nil
		}
	}

	switch {
	case containsAny(search, laptopContexts):
		return m.searcher.SearchDemo(ctx, laptopDemoTerms, demoSearchLimit)
	case containsAny(search, desktopContexts):
		return m.searcher.SearchDemo(ctx, desktopDemoTerms, demoSearchLimit)
	}
	return nil, nil
}

func (m *ConsumerMatcher) consumerDescriptionMining(ctx context.Context, searchTerm string) ([]catalog.Product, error) {
	words := strings.Fields(strings.ToLower(searchTerm))

	var terms []string
	for _, w := range words {
		if len(w) > 2 {
			terms = append(terms, w)
		}
	}
	for _, indicator := range consumerIndicators {
		for _, w := range words {
			if strings.Contains(w, indicator) {
				terms = append(terms, indicator)
				break
			}
		}
	}
	if len(terms) == 0 {
		return nil, nil
	}
	return m.searcher.SearchDescriptionsAny(ctx, terms, consumerDescLimit)
}

func (m *ConsumerMatcher) weightedDescriptionSearch(ctx context.Context, searchTerm string) ([]catalog.Product, error) {
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(searchTerm)) {
		if !searchStopWords[w] && len(w) > 2 {
			keywords = append(keywords, w)
		}
	}
	if len(keywords) == 0 {
		return nil, nil
	}
	return m.searcher.SearchDescriptionsAll(ctx, keywords, weightedDescLimit)
}

func (m *ConsumerMatcher) exactPartSearch(ctx context.Context, searchTerm string) ([]catalog.Product, error) {
	upper := strings.ToUpper(searchTerm)
	var fragments []string
	for _, pattern := range partNumberPatterns {
		fragments = append(fragments, pattern.FindAllString(upper, -1)...)
	}
	if len(fragments) == 0 {
		return nil, nil
	}
	return m.searcher.SearchPartFragments(ctx, fragments, partSearchLimit)
}

func (m *ConsumerMatcher) fuzzyNameSearch(ctx context.Context, searchTerm string) ([]catalog.Product, error) {
	words := strings.Fields(strings.ToLower(searchTerm))
	if len(words) > 4 {
		words = words[:4]
	}
	var terms []string
	for _, w := range words {
		if len(w) > 2 {
			terms = append(terms, w)
		}
	}
	if len(terms) == 0 {
		return nil, nil
	}
	return m.searcher.SearchNamesAny(ctx, terms, fuzzyNameLimit)
}

func (m *ConsumerMatcher) findRelevantAccessories(ctx context.Context, category string) ([]catalog.Product, error) {
	terms, ok := accessoryMapping[category]
	if !ok {
		terms = defaultAccessoryTerms
	}
	return m.searcher.SearchDescriptionsAny(ctx, terms, accessorySearchCap)
}

// isActualAlternative checks that a product genuinely competes in the
// category instead of being an accessory that happened to match
func isActualAlternative(product *catalog.Product, category string) bool {
	name := strings.ToLower(product.Name)
	desc := strings.ToLower(product.Description)

	for _, term := range accessoryIndicators {
		if strings.Contains(name, term) || strings.Contains(desc, term) {
			return false
		}
	}
	for _, term := range alternativeIndicators[category] {
		if strings.Contains(name, term) || strings.Contains(desc, term) {
			return true
		}
	}
	// Demo units get the benefit of the doubt
	return product.IsDemo
}

func isAccessoryProduct(product *catalog.Product) bool {
	name := strings.ToLower(product.Name)
	desc := strings.ToLower(product.Description)
	for _, keyword := range accessoryKeywords {
		if strings.Contains(name, keyword) || strings.Contains(desc, keyword) {
			return true
		}
	}
	return false
}

func primaryMatch(product *catalog.Product, matchType string, confidence float64) ConsumerMatch {
	return ConsumerMatch{
		Product:      product,
		MatchType:    matchType,
		Confidence:   confidence,
		Relationship: determineRelationship(matchType, sourceSupplier, true),
	}
}

func alternativeMatch(product *catalog.Product, matchType, searchTerm string) ConsumerMatch {
	return ConsumerMatch{
		Product:       product,
		MatchType:     matchType,
		Confidence:    confidenceAlternative,
		IsAlternative: true,
		Relationship:  ClassifyRelationship(product, searchTerm),
	}
}

func accessoryMatch(product *catalog.Product, matchType string) ConsumerMatch {
	return ConsumerMatch{
		Product:    product,
		MatchType:  matchType,
		Confidence: confidenceAccessory,
		Relationship: Relationship{
			Type:     RelationshipAccessory,
			Category: matchType,
			Margin:   MarginHigh,
			Revenue:  RevenueCrossSell,
		},
	}
}

func amazonMatch(searchTerm, asin, matchType string, confidence float64) ConsumerMatch {
	return ConsumerMatch{
		Amazon: &AmazonPlaceholder{
			Title:         "Amazon Product - " + searchTerm,
			ASIN:          asin,
			DetailPageURL: fmt.Sprintf("https://amazon.com/dp/%s", asin),
		},
		MatchType:       matchType,
		Confidence:      confidence,
		IsAmazonProduct: true,
		Relationship:    determineRelationship(matchType, sourceAmazonAffiliate, true),
	}
}
