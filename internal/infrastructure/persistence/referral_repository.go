package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/czachandrew/tru-server/internal/domain/referral"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCodeRepository implements CodeRepository using GORM
type GormCodeRepository struct {
	db *gorm.DB
}

// NewGormCodeRepository creates a new GormCodeRepository
func NewGormCodeRepository(db *gorm.DB) *GormCodeRepository {
	return &GormCodeRepository{db: db}
}

// FindByID finds a referral code by its ID
func (r *GormCodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*referral.ReferralCode, error) {
	var code referral.ReferralCode
	if err := r.db.WithContext(ctx).First(&code, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &code, nil
}

// FindByCode finds a referral code by its shareable code string
func (r *GormCodeRepository) FindByCode(ctx context.Context, code string) (*referral.ReferralCode, error) {
	var rc referral.ReferralCode
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&rc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rc, nil
}

// FindByOwner finds all codes owned by a user
func (r *GormCodeRepository) FindByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]referral.ReferralCode, error) {
	var codes []referral.ReferralCode
	if err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at ASC").
		Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// FindByOrganization finds all codes owned by an organization
func (r *GormCodeRepository) FindByOrganization(ctx context.Context, orgID uuid.UUID) ([]referral.ReferralCode, error) {
	var codes []referral.ReferralCode
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

// Save creates or updates a referral code
func (r *GormCodeRepository) Save(ctx context.Context, code *referral.ReferralCode) error {
	return r.db.WithContext(ctx).Save(code).Error
}

// ExistsByCode checks whether a code string is already taken
func (r *GormCodeRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&referral.ReferralCode{}).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormCodeRepository implements CodeRepository
var _ referral.CodeRepository = (*GormCodeRepository)(nil)

// GormAllocationRepository implements AllocationRepository using GORM
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// FindByID finds an allocation by its ID
func (r *GormAllocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*referral.UserReferralCode, error) {
	var link referral.UserReferralCode
	if err := r.db.WithContext(ctx).First(&link, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// FindActiveByUser finds a user's active code allocations
func (r *GormAllocationRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (referral.AllocationSet, error) {
	var links []referral.UserReferralCode
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return referral.AllocationSet(links), nil
}

// FindByUserAndCode finds the allocation linking a user to a code
func (r *GormAllocationRepository) FindByUserAndCode(ctx context.Context, userID, codeID uuid.UUID) (*referral.UserReferralCode, error) {
	var link referral.UserReferralCode
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND referral_code_id = ?", userID, codeID).
		First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// Save creates or updates an allocation
func (r *GormAllocationRepository) Save(ctx context.Context, link *referral.UserReferralCode) error {
	return r.db.WithContext(ctx).Save(link).Error
}

// Ensure GormAllocationRepository implements AllocationRepository
var _ referral.AllocationRepository = (*GormAllocationRepository)(nil)

// GormOrganizationRepository implements OrganizationRepository using GORM
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewGormOrganizationRepository creates a new GormOrganizationRepository
func NewGormOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// FindByID finds an organization by its ID
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*referral.Organization, error) {
	var org referral.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}

// FindAll finds all organizations matching the filter
func (r *GormOrganizationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]referral.Organization, error) {
	query := r.db.WithContext(ctx).Model(&referral.Organization{})

	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	for key, value := range filter.Filters {
		switch key {
		case "type":
			query = query.Where("type = ?", value)
		case "is_verified":
			query = query.Where("is_verified = ?", value)
		}
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var orgs []referral.Organization
	if err := query.Order("name ASC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

// Save creates or updates an organization
func (r *GormOrganizationRepository) Save(ctx context.Context, org *referral.Organization) error {
	return r.db.WithContext(ctx).Save(org).Error
}

// Ensure GormOrganizationRepository implements OrganizationRepository
var _ referral.OrganizationRepository = (*GormOrganizationRepository)(nil)

// GormDisbursementRepository implements DisbursementRepository using GORM
type GormDisbursementRepository struct {
	db *gorm.DB
}

// NewGormDisbursementRepository creates a new GormDisbursementRepository
func NewGormDisbursementRepository(db *gorm.DB) *GormDisbursementRepository {
	return &GormDisbursementRepository{db: db}
}

// FindByID finds a disbursement by its ID
func (r *GormDisbursementRepository) FindByID(ctx context.Context, id uuid.UUID) (*referral.Disbursement, error) {
	var d referral.Disbursement
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// FindBySourceTransaction finds disbursements sliced from a ledger entry
func (r *GormDisbursementRepository) FindBySourceTransaction(ctx context.Context, txID uuid.UUID) ([]referral.Disbursement, error) {
	var ds []referral.Disbursement
	if err := r.db.WithContext(ctx).
		Where("source_transaction_id = ?", txID).
		Order("created_at ASC").
		Find(&ds).Error; err != nil {
		return nil, err
	}
	return ds, nil
}

// FindByRecipient lists disbursements routed to a user
func (r *GormDisbursementRepository) FindByRecipient(ctx context.Context, recipientUserID uuid.UUID, filter shared.Filter) ([]referral.Disbursement, error) {
	query := r.db.WithContext(ctx).Model(&referral.Disbursement{}).
		Where("recipient_user_id = ?", recipientUserID)
	query = r.applyFilter(query, filter)

	var ds []referral.Disbursement
	if err := query.Order("created_at DESC").Find(&ds).Error; err != nil {
		return nil, err
	}
	return ds, nil
}

// FindByOrganization lists disbursements routed to an organization
func (r *GormDisbursementRepository) FindByOrganization(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]referral.Disbursement, error) {
	query := r.db.WithContext(ctx).Model(&referral.Disbursement{}).
		Where("organization_id = ?", orgID)
	query = r.applyFilter(query, filter)

	var ds []referral.Disbursement
	if err := query.Order("created_at DESC").Find(&ds).Error; err != nil {
		return nil, err
	}
	return ds, nil
}

// SumAllocatedForOrganization totals allocated-but-unpaid amounts, used
// against the organization's minimum payout threshold
func (r *GormDisbursementRepository) SumAllocatedForOrganization(ctx context.Context, orgID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&referral.Disbursement{}).
		Select("SUM(amount)").
		Where("organization_id = ? AND status = ?", orgID, referral.DisbursementStatusAllocated).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

// Save creates or updates a disbursement
func (r *GormDisbursementRepository) Save(ctx context.Context, d *referral.Disbursement) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *GormDisbursementRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

// Ensure GormDisbursementRepository implements DisbursementRepository
var _ referral.DisbursementRepository = (*GormDisbursementRepository)(nil)
