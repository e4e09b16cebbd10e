package referral

import (
	"context"
	"testing"
	"time"

	appwallet "github.com/czachandrew/tru-server/internal/application/wallet"
	"github.com/czachandrew/tru-server/internal/domain/referral"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/czachandrew/tru-server/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDisbursementRepository is a mock implementation of referral.DisbursementRepository
type MockDisbursementRepository struct {
	mock.Mock
}

func (m *MockDisbursementRepository) FindByID(ctx context.Context, id uuid.UUID) (*referral.Disbursement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*referral.Disbursement), args.Error(1)
}

func (m *MockDisbursementRepository) FindBySourceTransaction(ctx context.Context, txID uuid.UUID) ([]referral.Disbursement, error) {
	args := m.Called(ctx, txID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]referral.Disbursement), args.Error(1)
}

func (m *MockDisbursementRepository) FindByRecipient(ctx context.Context, recipientUserID uuid.UUID, filter shared.Filter) ([]referral.Disbursement, error) {
	args := m.Called(ctx, recipientUserID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]referral.Disbursement), args.Error(1)
}

func (m *MockDisbursementRepository) FindByOrganization(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]referral.Disbursement, error) {
	args := m.Called(ctx, orgID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]referral.Disbursement), args.Error(1)
}

func (m *MockDisbursementRepository) SumAllocatedForOrganization(ctx context.Context, orgID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockDisbursementRepository) Save(ctx context.Context, d *referral.Disbursement) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

// MockWalletRepository is a mock implementation of wallet.Repository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*wallet.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Save(ctx context.Context, w *wallet.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockWalletRepository) FindTopByActivity(ctx context.Context, limit int) ([]wallet.Wallet, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]wallet.Wallet), args.Error(1)
}

// MockTransactionRepository is a mock implementation of wallet.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*wallet.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*wallet.Transaction, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]wallet.Transaction, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]wallet.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindPendingProjections(ctx context.Context, cutoff time.Time, limit int) ([]wallet.Transaction, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]wallet.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByOrderRef(ctx context.Context, orderRef string) ([]wallet.Transaction, error) {
	args := m.Called(ctx, orderRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]wallet.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Save(ctx context.Context, tx *wallet.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) CountByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(int64), args.Error(1)
}

type disbursementFixture struct {
	service    *DisbursementService
	codeRepo   *MockCodeRepository
	allocRepo  *MockAllocationRepository
	orgRepo    *MockOrganizationRepository
	disbRepo   *MockDisbursementRepository
	walletRepo *MockWalletRepository
	txRepo     *MockTransactionRepository
}

func newDisbursementFixture() *disbursementFixture {
	codeRepo := new(MockCodeRepository)
	allocRepo := new(MockAllocationRepository)
	orgRepo := new(MockOrganizationRepository)
	disbRepo := new(MockDisbursementRepository)
	walletRepo := new(MockWalletRepository)
	txRepo := new(MockTransactionRepository)

	walletService := appwallet.NewWalletService(walletRepo, txRepo, nil)
	return &disbursementFixture{
		service:    NewDisbursementService(codeRepo, allocRepo, orgRepo, disbRepo, walletService, nil),
		codeRepo:   codeRepo,
		allocRepo:  allocRepo,
		orgRepo:    orgRepo,
		disbRepo:   disbRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
	}
}

func walletWith(t *testing.T, userID uuid.UUID, available float64) *wallet.Wallet {
	t.Helper()
	w, err := wallet.NewWallet(userID)
	require.NoError(t, err)
	if available > 0 {
		require.NoError(t, w.Credit(decimal.NewFromFloat(available)))
	}
	return w
}

func TestAllocateSplitsEarningAcrossCodes(t *testing.T) {
	f := newDisbursementFixture()
	ctx := context.Background()

	fromUserID := uuid.New()
	friendID := uuid.New()
	orgID := uuid.New()
	sourceTxID := uuid.New()

	friendCode, err := referral.NewUserReferralCode(friendID)
	require.NoError(t, err)
	orgCode, err := referral.NewOrganizationReferralCode(orgID)
	require.NoError(t, err)

	set := referral.AllocationSet{
		attachedLink(t, fromUserID, friendCode.ID, 10),
		attachedLink(t, fromUserID, orgCode.ID, 5),
	}

	earnerWallet := walletWith(t, fromUserID, 100)
	friendWallet := walletWith(t, friendID, 0)

	f.disbRepo.On("FindBySourceTransaction", ctx, sourceTxID).Return([]referral.Disbursement{}, nil)
	f.allocRepo.On("FindActiveByUser", ctx, fromUserID).Return(set, nil)
	f.codeRepo.On("FindByID", ctx, friendCode.ID).Return(friendCode, nil)
	f.codeRepo.On("FindByID", ctx, orgCode.ID).Return(orgCode, nil)
	f.walletRepo.On("FindByUser", ctx, fromUserID).Return(earnerWallet, nil)
	f.walletRepo.On("FindByUser", ctx, friendID).Return(friendWallet, nil)
	f.walletRepo.On("Save", ctx, mock.AnythingOfType("*wallet.Wallet")).Return(nil)
	f.txRepo.On("Save", ctx, mock.AnythingOfType("*wallet.Transaction")).Return(nil)
	f.disbRepo.On("Save", ctx, mock.AnythingOfType("*referral.Disbursement")).Return(nil)

	responses, err := f.service.AllocateFromTransaction(ctx, fromUserID, sourceTxID, decimal.NewFromInt(100))

	require.NoError(t, err)
	require.Len(t, responses, 2)

	// friend slice pays out immediately
	assert.Equal(t, string(referral.DisbursementStatusPaid), responses[0].Status)
	assert.True(t, responses[0].Amount.Equal(decimal.NewFromInt(10)))
	assert.True(t, friendWallet.AvailableBalance.Equal(decimal.NewFromInt(10)))

	// organization slice accumulates until the payout threshold
	assert.Equal(t, string(referral.DisbursementStatusAllocated), responses[1].Status)
	assert.True(t, responses[1].Amount.Equal(decimal.NewFromInt(5)))

	// both slices left the earner's wallet
	assert.True(t, earnerWallet.AvailableBalance.Equal(decimal.NewFromInt(85)))
}

func TestAllocateIsIdempotent(t *testing.T) {
	f := newDisbursementFixture()
	ctx := context.Background()

	fromUserID := uuid.New()
	sourceTxID := uuid.New()

	code, err := referral.NewUserReferralCode(uuid.New())
	require.NoError(t, err)
	existing, err := referral.NewDisbursement(code, fromUserID, sourceTxID, decimal.NewFromInt(10))
	require.NoError(t, err)

	f.disbRepo.On("FindBySourceTransaction", ctx, sourceTxID).
		Return([]referral.Disbursement{*existing}, nil)

	responses, err := f.service.AllocateFromTransaction(ctx, fromUserID, sourceTxID, decimal.NewFromInt(100))

	require.NoError(t, err)
	require.Len(t, responses, 1)
	f.allocRepo.AssertNotCalled(t, "FindActiveByUser", mock.Anything, mock.Anything)
	f.disbRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAllocateSkipsInactiveCodes(t *testing.T) {
	f := newDisbursementFixture()
	ctx := context.Background()

	fromUserID := uuid.New()
	sourceTxID := uuid.New()

	code, err := referral.NewUserReferralCode(uuid.New())
	require.NoError(t, err)
	code.Deactivate()

	set := referral.AllocationSet{attachedLink(t, fromUserID, code.ID, 10)}

	f.disbRepo.On("FindBySourceTransaction", ctx, sourceTxID).Return([]referral.Disbursement{}, nil)
	f.allocRepo.On("FindActiveByUser", ctx, fromUserID).Return(set, nil)
	f.codeRepo.On("FindByID", ctx, code.ID).Return(code, nil)

	responses, err := f.service.AllocateFromTransaction(ctx, fromUserID, sourceTxID, decimal.NewFromInt(100))

	require.NoError(t, err)
	assert.Empty(t, responses)
	f.disbRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCancelForTransactionSkipsPaid(t *testing.T) {
	f := newDisbursementFixture()
	ctx := context.Background()
	sourceTxID := uuid.New()

	code, err := referral.NewUserReferralCode(uuid.New())
	require.NoError(t, err)

	paid, err := referral.NewDisbursement(code, uuid.New(), sourceTxID, decimal.NewFromInt(10))
	require.NoError(t, err)
	require.NoError(t, paid.Allocate(decimal.NewFromInt(10)))
	require.NoError(t, paid.MarkPaid())

	pending, err := referral.NewDisbursement(code, uuid.New(), sourceTxID, decimal.NewFromInt(5))
	require.NoError(t, err)

	f.disbRepo.On("FindBySourceTransaction", ctx, sourceTxID).
		Return([]referral.Disbursement{*paid, *pending}, nil)
	f.disbRepo.On("Save", ctx, mock.MatchedBy(func(d *referral.Disbursement) bool {
		return d.Status == referral.DisbursementStatusCancelled
	})).Return(nil)

	err = f.service.CancelForTransaction(ctx, sourceTxID)

	require.NoError(t, err)
	f.disbRepo.AssertNumberOfCalls(t, "Save", 1)
}

func TestPayOrganizationBelowThreshold(t *testing.T) {
	f := newDisbursementFixture()
	ctx := context.Background()

	org, err := referral.NewOrganization("First Community Church", "giving@church.example", referral.OrganizationTypeChurch)
	require.NoError(t, err)
	org.Verify()

	f.orgRepo.On("FindByID", ctx, org.ID).Return(org, nil)
	f.disbRepo.On("SumAllocatedForOrganization", ctx, org.ID).Return(decimal.NewFromInt(12), nil)

	_, err = f.service.PayOrganization(ctx, org.ID)

	require.ErrorIs(t, err, shared.ErrBelowMinimum)
}

func TestPayOrganizationMarksAccumulatedPaid(t *testing.T) {
	f := newDisbursementFixture()
	ctx := context.Background()

	org, err := referral.NewOrganization("First Community Church", "giving@church.example", referral.OrganizationTypeChurch)
	require.NoError(t, err)
	org.Verify()

	code, err := referral.NewOrganizationReferralCode(org.ID)
	require.NoError(t, err)

	first, err := referral.NewDisbursement(code, uuid.New(), uuid.New(), decimal.NewFromInt(15))
	require.NoError(t, err)
	require.NoError(t, first.Allocate(decimal.NewFromInt(15)))
	second, err := referral.NewDisbursement(code, uuid.New(), uuid.New(), decimal.NewFromInt(12))
	require.NoError(t, err)
	require.NoError(t, second.Allocate(decimal.NewFromInt(12)))

	f.orgRepo.On("FindByID", ctx, org.ID).Return(org, nil)
	f.disbRepo.On("SumAllocatedForOrganization", ctx, org.ID).Return(decimal.NewFromInt(27), nil)
	f.disbRepo.On("FindByOrganization", ctx, org.ID, mock.AnythingOfType("shared.Filter")).
		Return([]referral.Disbursement{*first, *second}, nil)
	f.disbRepo.On("Save", ctx, mock.MatchedBy(func(d *referral.Disbursement) bool {
		return d.Status == referral.DisbursementStatusPaid
	})).Return(nil)

	resp, err := f.service.PayOrganization(ctx, org.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Disbursements)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(27)))
}
