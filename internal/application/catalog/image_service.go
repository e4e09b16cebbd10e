package catalog

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// uploadURLExpiry is how long a presigned upload URL stays valid
const uploadURLExpiry = 15 * time.Minute

// ObjectStorageService abstracts the S3-compatible store holding product
// images
type ObjectStorageService interface {
	// GenerateUploadURL returns a presigned PUT URL for the given key
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	// GenerateDownloadURL returns a presigned GET URL for the given key
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	// PublicURL returns the permanent public URL for a stored object
	PublicURL(storageKey string) string
	// Delete removes an object
	Delete(ctx context.Context, storageKey string) error
}

// allowed image content types and their extensions
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ImageService issues upload URLs for product images and records uploads
// against the product
type ImageService struct {
	productRepo catalog.ProductRepository
	storage     ObjectStorageService
	logger      *zap.Logger
}

// NewImageService creates a new ImageService
func NewImageService(productRepo catalog.ProductRepository, storage ObjectStorageService, logger *zap.Logger) *ImageService {
	return &ImageService{
		productRepo: productRepo,
		storage:     storage,
		logger:      logger,
	}
}

// RequestUpload issues a presigned upload URL for a product image
func (s *ImageService) RequestUpload(ctx context.Context, productID uuid.UUID, req ImageUploadRequest) (*ImageUploadResponse, error) {
	ext, ok := imageExtensions[strings.ToLower(req.ContentType)]
	if !ok {
		return nil, shared.NewDomainError("UNSUPPORTED_CONTENT_TYPE",
			fmt.Sprintf("Content type %s is not an accepted image format", req.ContentType))
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	storageKey := path.Join("products", product.ID.String(), uuid.New().String()+ext)

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, storageKey, req.ContentType, uploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return &ImageUploadResponse{
		UploadURL:  uploadURL,
		StorageKey: storageKey,
		PublicURL:  s.storage.PublicURL(storageKey),
		ExpiresAt:  expiresAt,
	}, nil
}

// ConfirmUpload records an uploaded image on the product. The first
// confirmed image becomes the main image.
func (s *ImageService) ConfirmUpload(ctx context.Context, productID uuid.UUID, req ImageConfirmRequest) (*ProductResponse, error) {
	if !strings.HasPrefix(req.StorageKey, "products/"+productID.String()+"/") {
		return nil, shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key does not belong to this product")
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	publicURL := s.storage.PublicURL(req.StorageKey)
	if req.Main || product.MainImage == "" {
		product.SetImages(publicURL, product.Images)
	} else {
		images, err := appendImageJSON(product.Images, publicURL)
		if err != nil {
			return nil, err
		}
		product.SetImages(product.MainImage, images)
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product image recorded",
		zap.String("product_id", product.ID.String()),
		zap.String("storage_key", req.StorageKey))

	response := ToProductResponse(product)
	return &response, nil
}
