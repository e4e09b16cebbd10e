package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/google/uuid"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	ManufacturerID   *uuid.UUID `json:"manufacturer_id"`
	ManufacturerName string     `json:"manufacturer_name" binding:"omitempty,min=1,max=200"`
	PartNumber       string     `json:"part_number" binding:"required,min=1,max=100"`
	Name             string     `json:"name" binding:"required,min=1,max=300"`
	Description      string     `json:"description" binding:"max=10000"`
	CategoryID       *uuid.UUID `json:"category_id"`
	MainImage        string     `json:"main_image" binding:"max=500"`
	Images           string     `json:"images"`
	Specifications   string     `json:"specifications"`
	Source           string     `json:"source" binding:"omitempty,oneof=manual amazon scraper import"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name           *string    `json:"name" binding:"omitempty,min=1,max=300"`
	Description    *string    `json:"description" binding:"omitempty,max=10000"`
	CategoryID     *uuid.UUID `json:"category_id"`
	MainImage      *string    `json:"main_image" binding:"omitempty,max=500"`
	Images         *string    `json:"images"`
	Specifications *string    `json:"specifications"`
	Status         *string    `json:"status" binding:"omitempty,oneof=active pending discontinued future_opportunity"`
	IsDemo         *bool      `json:"is_demo"`
	IsFeatured     *bool      `json:"is_featured"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                uuid.UUID  `json:"id"`
	ManufacturerID    uuid.UUID  `json:"manufacturer_id"`
	PartNumber        string     `json:"part_number"`
	Name              string     `json:"name"`
	Slug              string     `json:"slug"`
	Description       string     `json:"description"`
	CategoryID        *uuid.UUID `json:"category_id"`
	MainImage         string     `json:"main_image"`
	Images            string     `json:"images"`
	Specifications    string     `json:"specifications"`
	Status            string     `json:"status"`
	Source            string     `json:"source"`
	IsDemo            bool       `json:"is_demo"`
	IsFeatured        bool       `json:"is_featured"`
	IsPlaceholder     bool       `json:"is_placeholder"`
	FutureDemandCount int        `json:"future_demand_count"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Version           int        `json:"version"`
}

// ProductListFilter represents filter options for product list
type ProductListFilter struct {
	Search     string     `form:"search"`
	Status     string     `form:"status" binding:"omitempty,oneof=active pending discontinued future_opportunity"`
	CategoryID *uuid.UUID `form:"category_id"`
	Featured   *bool      `form:"featured"`
	Demo       *bool      `form:"demo"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductExistsResponse reports whether a part number is already known
type ProductExistsResponse struct {
	Exists    bool       `json:"exists"`
	ProductID *uuid.UUID `json:"product_id,omitempty"`
}

// CreateCategoryRequest represents a request to create a category
type CreateCategoryRequest struct {
	Name        string     `json:"name" binding:"required,min=1,max=200"`
	Description string     `json:"description" binding:"max=2000"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
	Path        string     `json:"path"`
	Level       int        `json:"level"`
	IsVisible   bool       `json:"is_visible"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ManufacturerResponse represents a manufacturer in API responses
type ManufacturerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	LogoURL   string    `json:"logo_url"`
	Website   string    `json:"website"`
	CreatedAt time.Time `json:"created_at"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID,
		ManufacturerID:    p.ManufacturerID,
		PartNumber:        p.PartNumber,
		Name:              p.Name,
		Slug:              p.Slug,
		Description:       p.Description,
		CategoryID:        p.CategoryID,
		MainImage:         p.MainImage,
		Images:            p.Images,
		Specifications:    p.Specifications,
		Status:            string(p.Status),
		Source:            string(p.Source),
		IsDemo:            p.IsDemo,
		IsFeatured:        p.IsFeatured,
		IsPlaceholder:     p.IsPlaceholder,
		FutureDemandCount: p.FutureDemandCount,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		Version:           p.Version,
	}
}

// ToCategoryResponse converts a domain Category to CategoryResponse
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ParentID:    c.ParentID,
		Path:        c.Path,
		Level:       c.Level,
		IsVisible:   c.IsVisible,
		CreatedAt:   c.CreatedAt,
	}
}

// ToManufacturerResponse converts a domain Manufacturer to ManufacturerResponse
func ToManufacturerResponse(m *catalog.Manufacturer) ManufacturerResponse {
	return ManufacturerResponse{
		ID:        m.ID,
		Name:      m.Name,
		Slug:      m.Slug,
		LogoURL:   m.LogoURL,
		Website:   m.Website,
		CreatedAt: m.CreatedAt,
	}
}

// ImageUploadRequest asks for a presigned upload URL for a product image
type ImageUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}

// ImageUploadResponse carries the presigned URL and where the image will
// be served from once uploaded
type ImageUploadResponse struct {
	UploadURL  string    `json:"upload_url"`
	StorageKey string    `json:"storage_key"`
	PublicURL  string    `json:"public_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ImageConfirmRequest records a completed upload against the product
type ImageConfirmRequest struct {
	StorageKey string `json:"storage_key" binding:"required,max=500"`
	// Main promotes the image to the product's main image
	Main bool `json:"main"`
}

// appendImageJSON appends a URL to a JSON array of image URLs
func appendImageJSON(imagesJSON, url string) (string, error) {
	var images []string
	if imagesJSON == "" {
		imagesJSON = "[]"
	}
	if err := json.Unmarshal([]byte(imagesJSON), &images); err != nil {
		return "", fmt.Errorf("product images field is not a JSON array: %w", err)
	}
	images = append(images, url)
	out, err := json.Marshal(images)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
