package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/entity"
	"github.com/saintvisionai/platform-api/internal/infra/queue"
)

const originRetry = "retry"

// RetryProvisioningUseCase queues a provisioning rerun and executes queued jobs.
// Reruns only top up missing sub-accounts, so a job may safely run more than once.
type RetryProvisioningUseCase struct {
	Subscriptions entity.SubscriptionRepository
	Plans         *entity.PlanCatalog
	Queue         ProvisioningQueue
	Provisioner   CRMProvisioner

	log zerolog.Logger
	now func() time.Time
}

func NewRetryProvisioningUseCase(
	subs entity.SubscriptionRepository,
	plans *entity.PlanCatalog,
	q ProvisioningQueue,
	provisioner CRMProvisioner,
	log zerolog.Logger,
) *RetryProvisioningUseCase {
	return &RetryProvisioningUseCase{
		Subscriptions: subs,
		Plans:         plans,
		Queue:         q,
		Provisioner:   provisioner,
		log:           log.With().Str("usecase", "retry_provisioning").Logger(),
		now:           time.Now,
	}
}

func (uc *RetryProvisioningUseCase) entitledTier(ctx context.Context, userID string) (entity.Tier, error) {
	sub, err := uc.Subscriptions.FindByUserID(ctx, userID)
	if errors.Is(err, entity.ErrNotFound) {
		return "", ErrSubscriptionInactive
	}
	if err != nil {
		return "", &TechnicalError{Code: "subscription_lookup", Message: "failed to load subscription", Err: err}
	}
	if sub.Status != entity.StatusActive {
		return "", ErrSubscriptionInactive
	}
	if !uc.Plans.IsCRMEligible(sub.Tier) {
		return "", ErrNotCRMEligible
	}
	return sub.Tier, nil
}

// Execute checks the caller's entitlement and enqueues a provisioning job.
func (uc *RetryProvisioningUseCase) Execute(ctx context.Context, userID string) (*RetryProvisioningOutput, error) {
	tier, err := uc.entitledTier(ctx, userID)
	if err != nil {
		return nil, err
	}

	payload := queue.ProvisioningPayload{
		JobID:       uuid.NewString(),
		UserID:      userID,
		Tier:        string(tier),
		Origin:      originRetry,
		RequestedAt: uc.now(),
	}
	if err := uc.Queue.PublishProvisioning(ctx, payload); err != nil {
		return nil, &TechnicalError{Code: "queue_publish", Message: "failed to queue provisioning", Err: err}
	}

	uc.log.Info().Str("job_id", payload.JobID).Str("user_id", userID).Str("tier", payload.Tier).Msg("provisioning queued")
	return &RetryProvisioningOutput{JobID: payload.JobID, Status: "queued"}, nil
}

// RunProvisioning executes a queued job against the entitlement current at run time.
// A job whose entitlement lapsed in the meantime is dropped without error.
func (uc *RetryProvisioningUseCase) RunProvisioning(ctx context.Context, payload queue.ProvisioningPayload) error {
	log := uc.log.With().Str("job_id", payload.JobID).Str("user_id", payload.UserID).Logger()

	tier, err := uc.entitledTier(ctx, payload.UserID)
	if errors.Is(err, ErrSubscriptionInactive) || errors.Is(err, ErrNotCRMEligible) {
		log.Info().Err(err).Msg("provisioning job dropped")
		return nil
	}
	if err != nil {
		return err
	}

	out, err := uc.Provisioner.Execute(ctx, ProvisionCRMInput{UserID: payload.UserID, Tier: tier})
	if err != nil {
		return fmt.Errorf("provision %s: %w", payload.UserID, err)
	}
	if failed := out.Failed(); len(failed) > 0 {
		log.Warn().Int("failed", len(failed)).Int("created", len(out.Created)).Msg("provisioning finished with failures")
	}
	return nil
}
