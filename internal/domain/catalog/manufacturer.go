package catalog

import (
	"regexp"
	"strings"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
)

// Manufacturer represents a product manufacturer/brand
type Manufacturer struct {
	shared.BaseAggregateRoot
	Name    string `gorm:"type:varchar(200);not null;uniqueIndex"`
	Slug    string `gorm:"type:varchar(200);not null;uniqueIndex"`
	LogoURL string `gorm:"type:varchar(500)"`
	Website string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Manufacturer) TableName() string {
	return "manufacturers"
}

// NewManufacturer creates a new manufacturer
func NewManufacturer(name string) (*Manufacturer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Manufacturer name is required")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Manufacturer name cannot exceed 200 characters")
	}

	return &Manufacturer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              Slugify(name),
	}, nil
}

// Update updates the manufacturer's details
func (m *Manufacturer) Update(name, logoURL, website string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Manufacturer name is required")
	}

	m.Name = name
	m.Slug = Slugify(name)
	m.LogoURL = logoURL
	m.Website = website
	m.UpdatedAt = time.Now()
	m.IncrementVersion()

	return nil
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a display name into a URL-safe slug
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugStripRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
