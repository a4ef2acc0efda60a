package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/entity"
	"github.com/saintvisionai/platform-api/internal/infra/integration/ghl"
	"github.com/saintvisionai/platform-api/internal/infra/mail"
	"github.com/saintvisionai/platform-api/internal/infra/metrics"
)

const (
	defaultCountry  = "US"
	defaultTimezone = "America/Los_Angeles"
)

type ProvisionCRMUseCase struct {
	Workspaces   entity.WorkspaceRepository
	Profiles     ProfileStore
	Locations    LocationCreator
	Plans        *entity.PlanCatalog
	Email        EmailService
	DashboardURL string

	Delay    time.Duration
	Attempts int

	log   zerolog.Logger
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewProvisionCRMUseCase(
	workspaces entity.WorkspaceRepository,
	profiles ProfileStore,
	locations LocationCreator,
	plans *entity.PlanCatalog,
	email EmailService,
	dashboardURL string,
	delay time.Duration,
	attempts int,
	log zerolog.Logger,
) *ProvisionCRMUseCase {
	return &ProvisionCRMUseCase{
		Workspaces:   workspaces,
		Profiles:     profiles,
		Locations:    locations,
		Plans:        plans,
		Email:        email,
		DashboardURL: dashboardURL,
		Delay:        delay,
		Attempts:     attempts,
		log:          log.With().Str("usecase", "provision_crm").Logger(),
		now:          time.Now,
	}
}

// Execute creates the primary CRM location (when missing) and the additional
// locations the tier's quota still allows, then records them on the workspace.
func (uc *ProvisionCRMUseCase) Execute(ctx context.Context, input ProvisionCRMInput) (*ProvisionCRMOutput, error) {
	log := uc.log.With().Str("user_id", input.UserID).Str("tier", string(input.Tier)).Logger()

	limit := uc.Plans.AccountLimit(input.Tier)
	if limit == 0 {
		return nil, ErrNotCRMEligible
	}

	profile, err := uc.Profiles.GetProfile(ctx, input.UserID)
	if err != nil {
		return nil, &TechnicalError{Code: "profile_unavailable", Message: "failed to load account profile", Err: err}
	}
	businessName := profile.DisplayBusinessName()

	ws, err := uc.Workspaces.FindByUserID(ctx, input.UserID)
	switch {
	case errors.Is(err, entity.ErrNotFound):
		ws = entity.NewWorkspace(input.UserID, businessName, input.Tier, limit, uc.now())
	case err != nil:
		return nil, &TechnicalError{Code: "workspace_lookup_failed", Message: "failed to load workspace", Err: err}
	default:
		ws.Tier = input.Tier
		// Never shrink the limit below what is already provisioned.
		ws.AccountLimit = max(limit, ws.AdditionalCount())
		if ws.BusinessName == "" {
			ws.BusinessName = businessName
		}
	}

	out := &ProvisionCRMOutput{Workspace: ws}

	seq := NewTaskSequence(uc.Delay, uc.Attempts)
	if uc.sleep != nil {
		seq.Sleep = uc.sleep
	}
	seq.Retryable = retryableLocationError

	var primary *entity.SubAccount
	created := make([]entity.SubAccount, 0, limit)

	needPrimary := !ws.HasPrimary()
	if needPrimary {
		seq.AddCritical("primary", func(ctx context.Context) error {
			acc, err := uc.createLocation(ctx, profile, ws.BusinessName)
			if err != nil {
				return err
			}
			primary = acc
			return nil
		})
	}

	for _, name := range additionalNames(ws, ws.MissingAdditional()) {
		seq.Add(name, func(ctx context.Context) error {
			acc, err := uc.createLocation(ctx, profile, name)
			if err != nil {
				return err
			}
			created = append(created, *acc)
			return nil
		})
	}

	if seq.Len() == 0 {
		log.Info().Int("account_limit", ws.AccountLimit).Msg("workspace already fully provisioned")
		return out, nil
	}

	out.Outcomes = seq.Run(ctx)
	uc.recordOutcomes(out.Outcomes, needPrimary, log)

	if needPrimary {
		if primary == nil {
			log.Error().Err(out.Outcomes[0].Err).Msg("primary location failed, workspace left untouched")
			return out, fmt.Errorf("%w: %v", ErrPrimaryProvisioningFailed, out.Outcomes[0].Err)
		}
		if err := ws.AttachPrimary(*primary); err != nil {
			return out, err
		}
		out.Created = append(out.Created, ws.SubAccounts[len(ws.SubAccounts)-1])
	}

	for _, acc := range created {
		if err := ws.AttachAdditional(acc); err != nil {
			log.Warn().Err(err).Str("location_id", acc.ID).Msg("location over account limit not recorded")
			continue
		}
		out.Created = append(out.Created, ws.SubAccounts[len(ws.SubAccounts)-1])
	}

	if len(out.Created) == 0 {
		log.Warn().Int("failed", len(out.Failed())).Msg("no new locations created")
		return out, nil
	}

	ws.UpdatedAt = uc.now()
	if err := uc.Workspaces.Upsert(ctx, ws); err != nil {
		return out, &TechnicalError{Code: "workspace_save_failed", Message: "failed to save workspace", Err: err}
	}

	log.Info().
		Str("business_name", ws.BusinessName).
		Str("primary_location_id", ws.LocationID).
		Int("created", len(out.Created)).
		Int("failed", len(out.Failed())).
		Msg("CRM workspace provisioned")

	uc.notify(profile, ws, log)
	return out, nil
}

// additionalNames picks the next n unused "<business> - Account <i>" names, i >= 2.
func additionalNames(ws *entity.Workspace, n int) []string {
	taken := make(map[string]bool, len(ws.SubAccounts))
	for _, a := range ws.SubAccounts {
		taken[a.Name] = true
	}
	names := make([]string, 0, n)
	for i := 2; len(names) < n; i++ {
		name := fmt.Sprintf("%s - Account %d", ws.BusinessName, i)
		if !taken[name] {
			names = append(names, name)
		}
	}
	return names
}

func (uc *ProvisionCRMUseCase) createLocation(ctx context.Context, p *entity.AccountProfile, name string) (*entity.SubAccount, error) {
	tz := p.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := uc.Locations.CreateLocation(ctx, ghl.CreateLocationInput{
		Name:     name,
		Address:  p.Address,
		City:     p.City,
		State:    p.State,
		Country:  defaultCountry,
		Website:  p.Website,
		Timezone: tz,
	})
	if err != nil {
		metrics.RecordIntegrationError("ghl")
		return nil, err
	}
	return &entity.SubAccount{ID: loc.ID, Name: name, CreatedAt: uc.now()}, nil
}

// retryableLocationError allows a retry only when the CRM answered with a
// throttling or server error. Location creation is not idempotent, so a
// transport failure may already have created the location upstream.
func retryableLocationError(err error) bool {
	var apiErr *ghl.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= http.StatusInternalServerError
}

func (uc *ProvisionCRMUseCase) recordOutcomes(outcomes []TaskOutcome, withPrimary bool, log zerolog.Logger) {
	for i, oc := range outcomes {
		role := string(entity.LocationAdditional)
		if withPrimary && i == 0 {
			role = string(entity.LocationPrimary)
		}
		result := "success"
		if !oc.OK() {
			result = "failure"
			log.Warn().Err(oc.Err).Str("task", oc.Name).Int("attempts", oc.Attempts).Msg("location creation failed")
		}
		metrics.RecordProvisionedLocation(role, result)
	}
}

func (uc *ProvisionCRMUseCase) notify(p *entity.AccountProfile, ws *entity.Workspace, log zerolog.Logger) {
	if uc.Email == nil || p.Email == "" {
		return
	}

	names := make([]string, 0, len(ws.SubAccounts))
	for _, a := range ws.SubAccounts {
		names = append(names, a.Name)
	}
	data := mail.WorkspaceReadyData{
		FirstName:    p.FirstName,
		BusinessName: ws.BusinessName,
		PlanName:     string(ws.Tier),
		AccountCount: len(ws.SubAccounts),
		Accounts:     names,
		DashboardURL: uc.DashboardURL,
	}
	if err := uc.Email.SendWorkspaceReady(p.Email, data); err != nil {
		metrics.RecordIntegrationError("smtp")
		log.Warn().Err(err).Msg("workspace ready mail not sent")
	}
}
