package referral

import (
	"strings"
	"testing"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.Len(t, code, CodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, c), "unexpected character %q", c)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45, "codes should be effectively unique")
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABCD2345", NormalizeCode("  abcd2345 "))
}

func TestNewUserReferralCode(t *testing.T) {
	ownerID := uuid.New()
	code, err := NewUserReferralCode(ownerID)
	require.NoError(t, err)
	assert.True(t, code.IsActive)
	assert.True(t, code.IsOwnedByUser(ownerID))
	assert.Nil(t, code.OrganizationID)

	_, err = NewUserReferralCode(uuid.Nil)
	assert.Error(t, err)
}

func TestNewOrganizationReferralCode(t *testing.T) {
	orgID := uuid.New()
	code, err := NewOrganizationReferralCode(orgID)
	require.NoError(t, err)
	assert.Nil(t, code.OwnerUserID)
	require.NotNil(t, code.OrganizationID)
	assert.Equal(t, orgID, *code.OrganizationID)
	assert.False(t, code.IsOwnedByUser(uuid.New()))
}

func TestReferralCodeDeactivate(t *testing.T) {
	code, err := NewUserReferralCode(uuid.New())
	require.NoError(t, err)
	code.Deactivate()
	assert.False(t, code.IsActive)
}

func TestNewUserReferralCodeLink(t *testing.T) {
	userID := uuid.New()
	codeID := uuid.New()

	link, err := NewUserReferralCodeLink(userID, codeID, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, userID, link.UserID)
	assert.True(t, link.IsActive)

	_, err = NewUserReferralCodeLink(userID, codeID, decimal.Zero)
	assert.Error(t, err)

	_, err = NewUserReferralCodeLink(userID, codeID, decimal.NewFromInt(51))
	assert.Error(t, err)
}

func TestAllocationSetTotals(t *testing.T) {
	userID := uuid.New()
	a, err := NewUserReferralCodeLink(userID, uuid.New(), decimal.NewFromInt(10))
	require.NoError(t, err)
	b, err := NewUserReferralCodeLink(userID, uuid.New(), decimal.NewFromInt(15))
	require.NoError(t, err)

	set := AllocationSet{*a, *b}
	assert.True(t, set.Total().Equal(decimal.NewFromInt(25)))
	assert.True(t, set.UserShare().Equal(decimal.NewFromInt(75)))
	require.NoError(t, set.Validate())

	// Deactivated links do not count toward the total
	b.Deactivate()
	set = AllocationSet{*a, *b}
	assert.True(t, set.Total().Equal(decimal.NewFromInt(10)))
	assert.True(t, set.UserShare().Equal(decimal.NewFromInt(90)))
}

func TestAllocationSetValidate(t *testing.T) {
	userID := uuid.New()

	var set AllocationSet
	for i := 0; i < MaxCodesPerUser; i++ {
		link, err := NewUserReferralCodeLink(userID, uuid.New(), decimal.NewFromInt(10))
		require.NoError(t, err)
		set = append(set, *link)
	}
	require.NoError(t, set.Validate())

	extra, err := NewUserReferralCodeLink(userID, uuid.New(), decimal.NewFromInt(5))
	require.NoError(t, err)
	assert.Error(t, AllocationSet(append(set[:5:5], *extra)).Validate())

	over, err := NewUserReferralCodeLink(userID, uuid.New(), decimal.NewFromInt(45))
	require.NoError(t, err)
	second, err := NewUserReferralCodeLink(userID, uuid.New(), decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.ErrorIs(t, AllocationSet{*over, *second}.Validate(), shared.ErrAllocationInvalid)
}

func TestNewOrganization(t *testing.T) {
	org, err := NewOrganization("First Baptist", "Giving@Example.Org", OrganizationTypeChurch)
	require.NoError(t, err)
	assert.Equal(t, "giving@example.org", org.PayoutEmail)
	assert.False(t, org.IsVerified)
	assert.True(t, org.MinPayoutAmount.Equal(DefaultOrgMinPayout))

	_, err = NewOrganization("", "a@b.c", OrganizationTypeOther)
	assert.Error(t, err)
	_, err = NewOrganization("No Email", "not-an-email", OrganizationTypeOther)
	assert.Error(t, err)
	_, err = NewOrganization("Bad Type", "a@b.c", OrganizationType("club"))
	assert.Error(t, err)
}

func TestDisbursementLifecycle(t *testing.T) {
	code, err := NewUserReferralCode(uuid.New())
	require.NoError(t, err)

	d, err := NewDisbursement(code, uuid.New(), uuid.New(), decimal.NewFromFloat(1.50))
	require.NoError(t, err)
	assert.Equal(t, DisbursementStatusPending, d.Status)
	assert.Equal(t, code.OwnerUserID, d.RecipientUserID)

	// Settled amount overrides the projection
	require.NoError(t, d.Allocate(decimal.NewFromFloat(1.35)))
	assert.Equal(t, DisbursementStatusAllocated, d.Status)
	assert.True(t, d.Amount.Equal(decimal.NewFromFloat(1.35)))
	assert.ErrorIs(t, d.Allocate(decimal.NewFromInt(1)), shared.ErrInvalidState)

	require.NoError(t, d.MarkPaid())
	assert.Equal(t, DisbursementStatusPaid, d.Status)
	require.NotNil(t, d.PaidAt)
	assert.ErrorIs(t, d.Cancel(), shared.ErrInvalidState)
}

func TestDisbursementCancel(t *testing.T) {
	code, err := NewUserReferralCode(uuid.New())
	require.NoError(t, err)

	d, err := NewDisbursement(code, uuid.New(), uuid.New(), decimal.NewFromInt(2))
	require.NoError(t, err)
	require.NoError(t, d.Cancel())
	assert.Equal(t, DisbursementStatusCancelled, d.Status)
	assert.ErrorIs(t, d.MarkPaid(), shared.ErrInvalidState)
}
