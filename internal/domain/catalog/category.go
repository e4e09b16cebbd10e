package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxCategoryDepth is the maximum depth of the category hierarchy
const MaxCategoryDepth = 5

// Category represents a product category
// It supports tree structure with parent-child relationships
type Category struct {
	shared.BaseAggregateRoot
	Name        string     `gorm:"type:varchar(100);not null"`
	Slug        string     `gorm:"type:varchar(120);not null;uniqueIndex"`
	Description string     `gorm:"type:text"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`
	Path        string     `gorm:"type:varchar(500);not null;index"` // Materialized path for tree queries
	Level       int        `gorm:"not null;default:0"`
	IsVisible   bool       `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Category) TableName() string {
	return "categories"
}

// NewCategory creates a new root category
func NewCategory(name string) (*Category, error) {
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}

	category := &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              Slugify(name),
		IsVisible:         true,
		Level:             0,
	}
	// Root category path is just the ID
	category.Path = category.ID.String()

	return category, nil
}

// NewChildCategory creates a new category under the given parent
func NewChildCategory(name string, parent *Category) (*Category, error) {
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent category is required")
	}
	if parent.Level >= MaxCategoryDepth-1 {
		return nil, shared.NewDomainError("MAX_DEPTH_EXCEEDED",
			fmt.Sprintf("Category depth cannot exceed %d levels", MaxCategoryDepth))
	}

	category := &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              Slugify(name),
		ParentID:          &parent.ID,
		Level:             parent.Level + 1,
		IsVisible:         true,
	}
	category.Path = parent.Path + "/" + category.ID.String()

	return category, nil
}

// Update updates the category's details
func (c *Category) Update(name, description string) error {
	if err := validateCategoryName(name); err != nil {
		return err
	}

	c.Name = name
	c.Slug = Slugify(name)
	c.Description = description
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// SetVisible toggles whether the category appears in storefront listings
func (c *Category) SetVisible(visible bool) {
	c.IsVisible = visible
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// IsDescendantOf returns true if this category sits under the given ancestor
func (c *Category) IsDescendantOf(ancestor *Category) bool {
	return strings.HasPrefix(c.Path, ancestor.Path+"/")
}

func validateCategoryName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name is required")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}
