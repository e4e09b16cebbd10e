package matching

import (
	"strings"

	"github.com/czachandrew/tru-server/internal/domain/catalog"
)

// RelationshipType describes how a result relates to what was searched for
type RelationshipType string

const (
	RelationshipPrimary               RelationshipType = "primary"
	RelationshipEquivalent            RelationshipType = "equivalent"
	RelationshipAccessory             RelationshipType = "accessory"
	RelationshipAlternative           RelationshipType = "alternative"
	RelationshipEnterpriseAlternative RelationshipType = "enterprise_alternative"
	RelationshipRelated               RelationshipType = "related"
)

// MarginOpportunity grades the revenue potential of a result
type MarginOpportunity string

const (
	MarginHigh          MarginOpportunity = "high"
	MarginMedium        MarginOpportunity = "medium"
	MarginLow           MarginOpportunity = "low"
	MarginAffiliateOnly MarginOpportunity = "affiliate_only"
)

// RevenueType names how a result would earn money
type RevenueType string

const (
	RevenueProductSale         RevenueType = "product_sale"
	RevenueAffiliateCommission RevenueType = "affiliate_commission"
	RevenueCrossSell           RevenueType = "cross_sell_opportunity"
)

// Relationship bundles the classification fields attached to each result
type Relationship struct {
	Type     RelationshipType  `json:"relationship_type"`
	Category string            `json:"relationship_category"`
	Margin   MarginOpportunity `json:"margin_opportunity"`
	Revenue  RevenueType       `json:"revenue_type"`
}

// determineRelationship maps a match type and source onto display and
// business classification
func determineRelationship(matchType, source string, isPrimary bool) Relationship {
	if source == sourceAmazonAffiliate {
		rel := Relationship{
			Type:     RelationshipAlternative,
			Category: "amazon_affiliate",
			Margin:   MarginAffiliateOnly,
			Revenue:  RevenueAffiliateCommission,
		}
		if isPrimary {
			rel.Type = RelationshipPrimary
		}
		return rel
	}

	if isPrimary && source == sourceSupplier {
		if strings.Contains(matchType, "direct") || strings.Contains(matchType, "exact") {
			return Relationship{
				Type:     RelationshipPrimary,
				Category: "exact_supplier_match",
				Margin:   MarginHigh,
				Revenue:  RevenueProductSale,
			}
		}
		return Relationship{
			Type:     RelationshipPrimary,
			Category: "supplier_match",
			Margin:   MarginMedium,
			Revenue:  RevenueProductSale,
		}
	}

	if source == sourceSupplier {
		switch {
		case containsAny(matchType, []string{"accessory", "cable", "power", "mount"}):
			return Relationship{
				Type:     RelationshipAccessory,
				Category: matchType,
				Margin:   MarginHigh,
				Revenue:  RevenueCrossSell,
			}
		case strings.Contains(matchType, "alternative"):
			return Relationship{
				Type:     RelationshipEquivalent,
				Category: "supplier_alternative",
				Margin:   MarginMedium,
				Revenue:  RevenueProductSale,
			}
		case strings.Contains(matchType, "enterprise"):
			return Relationship{
				Type:     RelationshipEnterpriseAlternative,
				Category: "enterprise_grade",
				Margin:   MarginHigh,
				Revenue:  RevenueProductSale,
			}
		}
	}

	return Relationship{
		Type:     RelationshipRelated,
		Category: "general_match",
		Margin:   MarginMedium,
		Revenue:  RevenueProductSale,
	}
}

// ClassifyRelationship decides whether a product is an accessory to, an
// equivalent of, or merely related to what the user searched for
func ClassifyRelationship(product *catalog.Product, searchContext string) Relationship {
	name := strings.ToLower(product.Name)
	desc := strings.ToLower(product.Description)
	search := strings.ToLower(searchContext)

	relationshipAccessoryTerms := []string{
		"cable", "cord", "adapter", "charger", "power supply", "mount", "bracket",
		"stand", "case", "cover", "protector", "connector", "extension", "hub",
		"splitter", "switch", "surge protector", "ups", "battery", "keystone",
		"jack", "plug", "socket", "outlet",
	}
	relationshipAlternativeTerms := []string{
		"laptop", "notebook", "desktop", "computer", "monitor", "display",
		"keyboard", "mouse", "tablet", "phone", "printer", "scanner",
		"router", "modem", "server", "workstation",
	}

	isAccessory := containsAny(name, relationshipAccessoryTerms) || containsAny(desc, relationshipAccessoryTerms)
	isAlternative := containsAny(name, relationshipAlternativeTerms) || containsAny(desc, relationshipAlternativeTerms)

	if containsAny(search, []string{"laptop", "macbook", "notebook", "computer"}) {
		if isAccessory {
			return Relationship{
				Type:     RelationshipAccessory,
				Category: "laptop_accessory",
				Margin:   MarginHigh,
				Revenue:  RevenueCrossSell,
			}
		}
		if isAlternative {
			return Relationship{
				Type:     RelationshipEquivalent,
				Category: "laptop_alternative",
				Margin:   MarginMedium,
				Revenue:  RevenueProductSale,
			}
		}
	}

	if isAccessory {
		return Relationship{
			Type:     RelationshipAccessory,
			Category: "general_accessory",
			Margin:   MarginHigh,
			Revenue:  RevenueCrossSell,
		}
	}
	if isAlternative {
		return Relationship{
			Type:     RelationshipEquivalent,
			Category: "product_alternative",
			Margin:   MarginMedium,
			Revenue:  RevenueProductSale,
		}
	}

	return Relationship{
		Type:     RelationshipRelated,
		Category: "unclear_match",
		Margin:   MarginLow,
		Revenue:  RevenueProductSale,
	}
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
