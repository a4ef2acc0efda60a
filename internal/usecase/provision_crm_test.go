package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saintvisionai/platform-api/internal/entity"
	"github.com/saintvisionai/platform-api/internal/infra/database/memory"
	"github.com/saintvisionai/platform-api/internal/infra/integration/ghl"
	"github.com/saintvisionai/platform-api/internal/infra/mail"
)

func newProvisioner(t *testing.T, plans *entity.PlanCatalog, locs *fakeLocations) (*ProvisionCRMUseCase, *memory.Store, *MockProfileStore) {
	t.Helper()
	store := memory.NewStore()
	profiles := new(MockProfileStore)
	profiles.On("GetProfile", mock.Anything, "user-1").Return(&entity.AccountProfile{
		UserID:      "user-1",
		FirstName:   "Ada",
		CompanyName: "Acme",
		City:        "Austin",
	}, nil)

	uc := NewProvisionCRMUseCase(store.Workspaces(), profiles, locs, plans, nil, "https://app.example.com", time.Second, 1, zerolog.Nop())
	uc.now = func() time.Time { return fixedNow }
	uc.sleep = noSleep
	return uc, store, profiles
}

func TestProvisionCRM_CreatesQuotaLocations(t *testing.T) {
	cases := []struct {
		tier  entity.Tier
		quota int
	}{
		{entity.TierCRM, 1},
		{entity.TierEnterprise, 5},
		{entity.TierWhiteLabel, 10},
	}

	for _, tc := range cases {
		t.Run(string(tc.tier), func(t *testing.T) {
			locs := &fakeLocations{}
			uc, store, _ := newProvisioner(t, testCatalog(), locs)

			out, err := uc.Execute(context.Background(), ProvisionCRMInput{UserID: "user-1", Tier: tc.tier})
			require.NoError(t, err)

			assert.Len(t, locs.calls, tc.quota)
			assert.Len(t, out.Created, tc.quota)
			assert.Empty(t, out.Failed())

			ws, err := store.Workspaces().FindByUserID(context.Background(), "user-1")
			require.NoError(t, err)
			assert.Equal(t, "loc_1", ws.LocationID)
			assert.Equal(t, tc.quota-1, ws.AdditionalCount())
			assert.Equal(t, tc.quota, ws.AccountLimit)
			assert.Equal(t, "Acme", ws.BusinessName)
			assert.Equal(t, tc.tier, ws.Tier)
		})
	}
}

func TestProvisionCRM_LocationNamesAndDefaults(t *testing.T) {
	locs := &fakeLocations{}
	uc, _, _ := newProvisioner(t, testCatalog(), locs)

	_, err := uc.Execute(context.Background(), ProvisionCRMInput{UserID: "user-1", Tier: entity.TierEnterprise})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Acme",
		"Acme - Account 2",
		"Acme - Account 3",
		"Acme - Account 4",
		"Acme - Account 5",
	}, locs.names())
	for _, c := range locs.calls {
		assert.Equal(t, "US", c.Country)
		assert.Equal(t, "America/Los_Angeles", c.Timezone)
		assert.Equal(t, "Austin", c.City)
	}
}

func TestProvisionCRM_AdditionalFailureIsIsolated(t *testing.T) {
	plans, err := entity.NewPlanCatalog("test", entity.TierUnlimited, nil, map[entity.Tier]int{entity.TierEnterprise: 6})
	require.NoError(t, err)

	// call 1 is the primary, call 4 is the third additional location
	locs := &fakeLocations{failOn: map[int]bool{4: true}}
	uc, store, _ := newProvisioner(t, plans, locs)

	out, err := uc.Execute(context.Background(), ProvisionCRMInput{UserID: "user-1", Tier: entity.TierEnterprise})
	require.NoError(t, err)

	assert.Len(t, locs.calls, 6, "sequence continues after the failure")
	require.Len(t, out.Failed(), 1)
	assert.Equal(t, "Acme - Account 4", out.Failed()[0].Name)

	ws, err := store.Workspaces().FindByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, ws.AdditionalCount())
	assert.True(t, ws.HasPrimary())
}

func TestProvisionCRM_PrimaryFailureLeavesWorkspaceUntouched(t *testing.T) {
	locs := &fakeLocations{failOn: map[int]bool{1: true}}
	uc, store, _ := newProvisioner(t, testCatalog(), locs)

	_, err := uc.Execute(context.Background(), ProvisionCRMInput{UserID: "user-1", Tier: entity.TierEnterprise})
	require.ErrorIs(t, err, ErrPrimaryProvisioningFailed)

	assert.Len(t, locs.calls, 1, "additional locations are not attempted")
	_, err = store.Workspaces().FindByUserID(context.Background(), "user-1")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestProvisionCRM_RerunTopsUpWithoutReplacingPrimary(t *testing.T) {
	locs := &fakeLocations{failOn: map[int]bool{3: true, 5: true}}
	uc, store, _ := newProvisioner(t, testCatalog(), locs)
	ctx := context.Background()

	_, err := uc.Execute(ctx, ProvisionCRMInput{UserID: "user-1", Tier: entity.TierEnterprise})
	require.NoError(t, err)
	ws, _ := store.Workspaces().FindByUserID(ctx, "user-1")
	require.Equal(t, 2, ws.AdditionalCount())

	locs.failOn = nil
	out, err := uc.Execute(ctx, ProvisionCRMInput{UserID: "user-1", Tier: entity.TierEnterprise})
	require.NoError(t, err)
	assert.Len(t, out.Created, 2)
	assert.Equal(t, []string{"Acme - Account 3", "Acme - Account 5"}, locs.names()[5:])

	ws, _ = store.Workspaces().FindByUserID(ctx, "user-1")
	assert.Equal(t, "loc_1", ws.LocationID)
	assert.Equal(t, 4, ws.AdditionalCount())

	// a third run finds nothing to do
	calls := len(locs.calls)
	out, err = uc.Execute(ctx, ProvisionCRMInput{UserID: "user-1", Tier: entity.TierEnterprise})
	require.NoError(t, err)
	assert.Empty(t, out.Created)
	assert.Len(t, locs.calls, calls)
}

func TestProvisionCRM_RejectsIneligibleTier(t *testing.T) {
	locs := &fakeLocations{}
	uc, _, profiles := newProvisioner(t, testCatalog(), locs)

	_, err := uc.Execute(context.Background(), ProvisionCRMInput{UserID: "user-1", Tier: entity.TierUnlimited})
	assert.ErrorIs(t, err, ErrNotCRMEligible)
	assert.Empty(t, locs.calls)
	profiles.AssertNotCalled(t, "GetProfile", mock.Anything, mock.Anything)
}

func TestProvisionCRM_SendsWorkspaceReadyMail(t *testing.T) {
	locs := &fakeLocations{}
	uc, _, profiles := newProvisioner(t, testCatalog(), locs)
	profiles.ExpectedCalls = nil
	profiles.On("GetProfile", mock.Anything, "user-1").Return(&entity.AccountProfile{
		UserID: "user-1", Email: "ada@acme.io", FirstName: "Ada",
	}, nil)

	email := new(MockEmail)
	email.On("SendWorkspaceReady", "ada@acme.io", mock.MatchedBy(func(d mail.WorkspaceReadyData) bool {
		return d.BusinessName == "Ada's Business" && d.AccountCount == 1 && d.PlanName == "crm"
	})).Return(nil)
	uc.Email = email

	_, err := uc.Execute(context.Background(), ProvisionCRMInput{UserID: "user-1", Tier: entity.TierCRM})
	require.NoError(t, err)
	email.AssertExpectations(t)
}

func TestProvisionCRM_RetriesOnlyThrottlingAndServerErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCalls int
	}{
		{"server error", &ghl.APIError{Status: 502, Body: "bad gateway"}, 2},
		{"rate limited", &ghl.APIError{Status: 429, Body: "slow down"}, 2},
		{"rejected", &ghl.APIError{Status: 422, Body: "invalid"}, 1},
		{"transport timeout", context.DeadlineExceeded, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locs := &fakeLocations{failOn: map[int]bool{1: true}, failErr: tt.err}
			uc, _, _ := newProvisioner(t, testCatalog(), locs)
			uc.Attempts = 2

			_, err := uc.Execute(context.Background(), ProvisionCRMInput{UserID: "user-1", Tier: entity.TierCRM})

			assert.Len(t, locs.calls, tt.wantCalls)
			if tt.wantCalls == 1 {
				assert.ErrorIs(t, err, ErrPrimaryProvisioningFailed)
			} else {
				assert.NoError(t, err, "second attempt succeeds")
			}
		})
	}
}
