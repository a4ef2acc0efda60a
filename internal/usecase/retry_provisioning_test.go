package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saintvisionai/platform-api/internal/entity"
	"github.com/saintvisionai/platform-api/internal/infra/database/memory"
	"github.com/saintvisionai/platform-api/internal/infra/queue"
)

func newRetryFixture(t *testing.T, sub *entity.Subscription) (*RetryProvisioningUseCase, *MockQueue, *MockProvisioner) {
	t.Helper()
	store := memory.NewStore()
	if sub != nil {
		require.NoError(t, store.Subscriptions().Upsert(context.Background(), sub))
	}
	q := new(MockQueue)
	p := new(MockProvisioner)
	uc := NewRetryProvisioningUseCase(store.Subscriptions(), testCatalog(), q, p, zerolog.Nop())
	uc.now = func() time.Time { return fixedNow }
	return uc, q, p
}

func activeSub(tier entity.Tier) *entity.Subscription {
	return &entity.Subscription{UserID: "user-1", StripeSubscriptionID: "sub_1", Tier: tier, Status: entity.StatusActive}
}

func TestRetry_QueuesJobForEntitledUser(t *testing.T) {
	uc, q, _ := newRetryFixture(t, activeSub(entity.TierEnterprise))
	q.On("PublishProvisioning", mock.Anything, mock.MatchedBy(func(p queue.ProvisioningPayload) bool {
		return p.UserID == "user-1" && p.Tier == "enterprise" && p.Origin == "retry" && p.JobID != "" &&
			p.RequestedAt.Equal(fixedNow)
	})).Return(nil)

	out, err := uc.Execute(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "queued", out.Status)
	assert.NotEmpty(t, out.JobID)
	q.AssertExpectations(t)
}

func TestRetry_RejectsIneligibleAccounts(t *testing.T) {
	tests := []struct {
		name string
		sub  *entity.Subscription
		want error
	}{
		{"no subscription", nil, ErrSubscriptionInactive},
		{"canceled", &entity.Subscription{UserID: "user-1", Tier: entity.TierCRM, Status: entity.StatusCanceled}, ErrSubscriptionInactive},
		{"no CRM in plan", activeSub(entity.TierUnlimited), ErrNotCRMEligible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, q, _ := newRetryFixture(t, tt.sub)
			_, err := uc.Execute(context.Background(), "user-1")
			assert.ErrorIs(t, err, tt.want)
			q.AssertNotCalled(t, "PublishProvisioning", mock.Anything, mock.Anything)
		})
	}
}

func TestRetry_PublishFailure(t *testing.T) {
	uc, q, _ := newRetryFixture(t, activeSub(entity.TierCRM))
	q.On("PublishProvisioning", mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	_, err := uc.Execute(context.Background(), "user-1")
	assert.True(t, IsTechnicalError(err))
}

func TestRunProvisioning_UsesCurrentTier(t *testing.T) {
	uc, _, p := newRetryFixture(t, activeSub(entity.TierWhiteLabel))
	p.On("Execute", mock.Anything, ProvisionCRMInput{UserID: "user-1", Tier: entity.TierWhiteLabel}).
		Return(&ProvisionCRMOutput{}, nil)

	// the payload tier is stale; the subscription was upgraded after the job was queued
	err := uc.RunProvisioning(context.Background(), queue.ProvisioningPayload{JobID: "job-1", UserID: "user-1", Tier: "crm"})

	require.NoError(t, err)
	p.AssertExpectations(t)
}

func TestRunProvisioning_DropsLapsedJob(t *testing.T) {
	uc, _, p := newRetryFixture(t, nil)

	err := uc.RunProvisioning(context.Background(), queue.ProvisioningPayload{JobID: "job-1", UserID: "user-1"})

	assert.NoError(t, err)
	p.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestRunProvisioning_PropagatesFailure(t *testing.T) {
	uc, _, p := newRetryFixture(t, activeSub(entity.TierCRM))
	p.On("Execute", mock.Anything, mock.Anything).Return(nil, ErrPrimaryProvisioningFailed)

	err := uc.RunProvisioning(context.Background(), queue.ProvisioningPayload{JobID: "job-1", UserID: "user-1"})
	assert.ErrorIs(t, err, ErrPrimaryProvisioningFailed)
}
