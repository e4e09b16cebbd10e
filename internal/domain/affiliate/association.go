package affiliate

import (
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// AssociationType classifies the relationship between two products
type AssociationType string

const (
	AssociationEquivalent  AssociationType = "equivalent"
	AssociationAlternative AssociationType = "alternative"
	AssociationAccessory   AssociationType = "accessory"
	AssociationCrossSell   AssociationType = "cross_sell"
)

// ValidAssociationType reports whether the given type is supported
func ValidAssociationType(t AssociationType) bool {
	switch t {
	case AssociationEquivalent, AssociationAlternative, AssociationAccessory, AssociationCrossSell:
		return true
	}
	return false
}

// ProductAssociation links a source product to a related target product,
// with a confidence score from the matching engine and engagement counters.
// One row per (source, target, type).
type ProductAssociation struct {
	shared.BaseAggregateRoot
	SourceProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_assoc_src_tgt_type,priority:1"`
	TargetProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_assoc_src_tgt_type,priority:2"`
	Type            AssociationType `gorm:"type:varchar(20);not null;uniqueIndex:idx_assoc_src_tgt_type,priority:3"`
	Confidence      float64         `gorm:"not null;default:0"`
	SearchCount     int             `gorm:"not null;default:0"`
	ClickCount      int             `gorm:"not null;default:0"`
	ConversionCount int             `gorm:"not null;default:0"`
	// Metadata carries matcher output such as relationshipType, category,
	// marginOpportunity and revenueType
	Metadata string `gorm:"type:jsonb;default:'{}'"`
}

// TableName returns the table name for GORM
func (ProductAssociation) TableName() string {
	return "product_associations"
}

// NewProductAssociation creates a new association between two products
func NewProductAssociation(sourceID, targetID uuid.UUID, assocType AssociationType, confidence float64) (*ProductAssociation, error) {
	if sourceID == uuid.Nil || targetID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Both products are required")
	}
	if sourceID == targetID {
		return nil, shared.NewDomainError("SELF_ASSOCIATION", "A product cannot be associated with itself")
	}
	if !ValidAssociationType(assocType) {
		return nil, shared.NewDomainError("INVALID_TYPE", "Unknown association type")
	}
	if confidence < 0 || confidence > 1 {
		return nil, shared.NewDomainError("INVALID_CONFIDENCE", "Confidence must be between 0 and 1")
	}

	return &ProductAssociation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SourceProductID:   sourceID,
		TargetProductID:   targetID,
		Type:              assocType,
		Confidence:        confidence,
		Metadata:          "{}",
	}, nil
}

// RaiseConfidence keeps the highest confidence seen for this pairing
func (a *ProductAssociation) RaiseConfidence(confidence float64) {
	if confidence > a.Confidence && confidence <= 1 {
		a.Confidence = confidence
		a.UpdatedAt = time.Now()
		a.IncrementVersion()
	}
}

// RecordSearch increments the search counter
func (a *ProductAssociation) RecordSearch() {
	a.SearchCount++
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// RecordClick increments the click counter
func (a *ProductAssociation) RecordClick() {
	a.ClickCount++
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// RecordConversion increments the conversion counter
func (a *ProductAssociation) RecordConversion() {
	a.ConversionCount++
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}

// SetMetadata replaces the matcher metadata payload
func (a *ProductAssociation) SetMetadata(metadataJSON string) {
	if metadataJSON == "" {
		metadataJSON = "{}"
	}
	a.Metadata = metadataJSON
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}
