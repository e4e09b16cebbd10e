package persistence

import (
	"context"
	"strings"

	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMatchingRepository runs the catalog queries behind product matching.
// It implements both matching.InventorySearcher and matching.CandidateSource.
// Every query excludes Amazon-sourced rows: matching pairs externally
// sourced products with inventory we can actually sell.
type GormMatchingRepository struct {
	db *gorm.DB
}

// NewGormMatchingRepository creates a new GormMatchingRepository
func NewGormMatchingRepository(db *gorm.DB) *GormMatchingRepository {
	return &GormMatchingRepository{db: db}
}

// inventory returns the base query for sellable inventory rows
func (r *GormMatchingRepository) inventory(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("source <> ?", catalog.ProductSourceAmazon).
		Where("status = ?", catalog.ProductStatusActive)
}

// SearchDemo returns demo products whose name or description contains any of the terms
func (r *GormMatchingRepository) SearchDemo(ctx context.Context, terms []string, limit int) ([]catalog.Product, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	clause, args := anyTermClause([]string{"name", "description"}, terms)
	query := r.inventory(ctx).Where("is_demo = ?", true).Where(clause, args...)
	var products []catalog.Product
	if err := query.Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// SearchDescriptionsAny matches products whose description contains any term
func (r *GormMatchingRepository) SearchDescriptionsAny(ctx context.Context, terms []string, limit int) ([]catalog.Product, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	clause, args := anyTermClause([]string{"description"}, terms)
	query := r.inventory(ctx).Where("description <> ''").Where(clause, args...)
	var products []catalog.Product
	if err := query.Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// SearchDescriptionsAll matches products whose description contains every term
func (r *GormMatchingRepository) SearchDescriptionsAll(ctx context.Context, terms []string, limit int) ([]catalog.Product, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	query := r.inventory(ctx).Where("description <> ''")
	for _, term := range terms {
		query = query.Where("LOWER(description) LIKE ?", likePattern(term))
	}
	var products []catalog.Product
	if err := query.Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// SearchPartFragments matches part number, name, or description against
// extracted part number fragments
func (r *GormMatchingRepository) SearchPartFragments(ctx context.Context, fragments []string, limit int) ([]catalog.Product, error) {
	if len(fragments) == 0 {
		return nil, nil
	}
	query := r.inventory(ctx)
	var clauses []string
	var args []interface{}
	for _, fragment := range fragments {
		pattern := likePattern(fragment)
		clauses = append(clauses, "(LOWER(part_number) LIKE ? OR LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	var products []catalog.Product
	if err := query.Where(strings.Join(clauses, " OR "), args...).Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// SearchNamesAny matches products whose name contains any term
func (r *GormMatchingRepository) SearchNamesAny(ctx context.Context, terms []string, limit int) ([]catalog.Product, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	clause, args := anyTermClause([]string{"name"}, terms)
	var products []catalog.Product
	if err := r.inventory(ctx).Where(clause, args...).Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByExactPart returns products whose part number equals the given one,
// case-insensitively
func (r *GormMatchingRepository) FindByExactPart(ctx context.Context, partNumber string) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := r.inventory(ctx).
		Where("LOWER(part_number) = ?", strings.ToLower(strings.TrimSpace(partNumber))).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByManufacturer returns products from the given manufacturer
func (r *GormMatchingRepository) FindByManufacturer(ctx context.Context, manufacturerID uuid.UUID) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := r.inventory(ctx).
		Where("manufacturer_id = ?", manufacturerID).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindWithDescriptions returns products carrying a non-empty description
func (r *GormMatchingRepository) FindWithDescriptions(ctx context.Context, limit int) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := r.inventory(ctx).
		Where("description <> ''").
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByNameTerms returns products whose name contains any of the terms
func (r *GormMatchingRepository) FindByNameTerms(ctx context.Context, terms []string, limit int) ([]catalog.Product, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	clause, args := anyTermClause([]string{"name"}, terms)
	var products []catalog.Product
	if err := r.inventory(ctx).
		Where(clause, args...).
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// anyTermClause builds an OR clause matching any of the terms against any
// of the columns. Callers must guarantee terms is non-empty.
func anyTermClause(columns, terms []string) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	for _, term := range terms {
		pattern := likePattern(term)
		for _, column := range columns {
			clauses = append(clauses, "LOWER("+column+") LIKE ?")
			args = append(args, pattern)
		}
	}
	return strings.Join(clauses, " OR "), args
}

func likePattern(term string) string {
	escaped := strings.NewReplacer("%", `\%`, "_", `\_`).Replace(strings.ToLower(strings.TrimSpace(term)))
	return "%" + escaped + "%"
}
