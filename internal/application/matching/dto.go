package matching

import (
	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/czachandrew/tru-server/internal/domain/matching"
	"github.com/google/uuid"
)

// ConsumerSearchRequest carries a consumer product search
type ConsumerSearchRequest struct {
	Query string `form:"q" binding:"required,max=200"`
	// ASIN lets browser extensions pass the Amazon product the user is
	// looking at, enabling an affiliate fallback
	ASIN string `form:"asin" binding:"omitempty,len=10"`
}

// ProductSummary is the slim product shape embedded in search results
type ProductSummary struct {
	ID          uuid.UUID `json:"id"`
	PartNumber  string    `json:"part_number"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	MainImage   string    `json:"main_image,omitempty"`
	Status      string    `json:"status"`
	IsDemo      bool      `json:"is_demo"`
}

// AmazonSummary describes an Amazon listing we can only monetize through
// an affiliate link
type AmazonSummary struct {
	Title         string `json:"title"`
	ASIN          string `json:"asin"`
	DetailPageURL string `json:"detail_page_url"`
}

// MatchResponse is one entry in a consumer search response
type MatchResponse struct {
	Product              *ProductSummary `json:"product,omitempty"`
	Amazon               *AmazonSummary  `json:"amazon,omitempty"`
	MatchType            string          `json:"match_type"`
	Confidence           float64         `json:"match_confidence"`
	IsAmazonProduct      bool            `json:"is_amazon_product"`
	IsAlternative        bool            `json:"is_alternative"`
	RelationshipType     string          `json:"relationship_type"`
	RelationshipCategory string          `json:"relationship_category"`
	MarginOpportunity    string          `json:"margin_opportunity"`
	RevenueType          string          `json:"revenue_type"`
}

// ConsumerSearchResponse is the full consumer search answer
type ConsumerSearchResponse struct {
	Results           []MatchResponse `json:"results"`
	SearchStrategy    string          `json:"search_strategy"`
	OverallConfidence float64         `json:"overall_confidence"`
	AmazonFallback    string          `json:"amazon_fallback_suggestion,omitempty"`
}

// AlternativeResponse is one supplier alternative for a catalog product
type AlternativeResponse struct {
	Product    ProductSummary `json:"product"`
	MatchType  string         `json:"match_type"`
	Confidence float64        `json:"confidence"`
}

// ToProductSummary converts a domain product to ProductSummary
func ToProductSummary(p *catalog.Product) ProductSummary {
	return ProductSummary{
		ID:          p.ID,
		PartNumber:  p.PartNumber,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		MainImage:   p.MainImage,
		Status:      string(p.Status),
		IsDemo:      p.IsDemo,
	}
}

// ToMatchResponse converts a domain consumer match to MatchResponse
func ToMatchResponse(m matching.ConsumerMatch) MatchResponse {
	resp := MatchResponse{
		MatchType:            m.MatchType,
		Confidence:           m.Confidence,
		IsAmazonProduct:      m.IsAmazonProduct,
		IsAlternative:        m.IsAlternative,
		RelationshipType:     string(m.Relationship.Type),
		RelationshipCategory: m.Relationship.Category,
		MarginOpportunity:    string(m.Relationship.Margin),
		RevenueType:          string(m.Relationship.Revenue),
	}
	if m.Product != nil {
		summary := ToProductSummary(m.Product)
		resp.Product = &summary
	}
	if m.Amazon != nil {
		resp.Amazon = &AmazonSummary{
			Title:         m.Amazon.Title,
			ASIN:          m.Amazon.ASIN,
			DetailPageURL: m.Amazon.DetailPageURL,
		}
	}
	return resp
}

// ToConsumerSearchResponse converts a domain consumer result
func ToConsumerSearchResponse(r *matching.ConsumerResult) ConsumerSearchResponse {
	resp := ConsumerSearchResponse{
		Results:           make([]MatchResponse, 0, len(r.Results)),
		SearchStrategy:    r.SearchStrategy,
		OverallConfidence: r.OverallConfidence,
		AmazonFallback:    r.AmazonFallback,
	}
	for _, m := range r.Results {
		resp.Results = append(resp.Results, ToMatchResponse(m))
	}
	return resp
}

// ToAlternativeResponse converts a matcher hit to AlternativeResponse
func ToAlternativeResponse(m matching.Match) AlternativeResponse {
	return AlternativeResponse{
		Product:    ToProductSummary(m.Product),
		MatchType:  string(m.Type),
		Confidence: m.Confidence,
	}
}
