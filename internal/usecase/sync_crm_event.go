package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/entity"
	"github.com/saintvisionai/platform-api/internal/infra/integration/ghl"
	"github.com/saintvisionai/platform-api/internal/infra/metrics"
)

type SyncCRMEventUseCase struct {
	Events        entity.CRMEventRepository
	Workspaces    entity.WorkspaceRepository
	Contacts      entity.ContactRepository
	Opportunities entity.OpportunityRepository
	Appointments  entity.AppointmentRepository

	// CRM backfills contacts that change before a local mirror exists. Optional.
	CRM ContactFetcher

	log zerolog.Logger
	now func() time.Time
}

func NewSyncCRMEventUseCase(
	events entity.CRMEventRepository,
	workspaces entity.WorkspaceRepository,
	contacts entity.ContactRepository,
	opportunities entity.OpportunityRepository,
	appointments entity.AppointmentRepository,
	crm ContactFetcher,
	log zerolog.Logger,
) *SyncCRMEventUseCase {
	return &SyncCRMEventUseCase{
		Events:        events,
		Workspaces:    workspaces,
		Contacts:      contacts,
		Opportunities: opportunities,
		Appointments:  appointments,
		CRM:           crm,
		log:           log.With().Str("usecase", "sync_crm_event").Logger(),
		now:           time.Now,
	}
}

// Execute records an inbound CRM webhook and mirrors its object into the owning workspace.
func (uc *SyncCRMEventUseCase) Execute(ctx context.Context, input SyncCRMEventInput) (*SyncCRMEventOutput, error) {
	var env ghl.WebhookEnvelope
	if err := json.Unmarshal(input.Body, &env); err != nil {
		uc.auditMalformed(ctx, input)
		metrics.RecordCRMEvent(entity.KindUnknown.String(), "malformed")
		return &SyncCRMEventOutput{Outcome: "malformed"}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	locationID := env.LocationID
	if locationID == "" {
		locationID = input.AccountID
	}
	accountID := input.AccountID
	if accountID == "" {
		accountID = locationID
	}

	kind := entity.ParseCRMEventKind(env.Type)
	out := &SyncCRMEventOutput{EventType: env.Type, LocationID: locationID, Kind: kind}
	log := uc.log.With().Str("event_type", env.Type).Str("location_id", locationID).Logger()

	object := env.Object(input.Body)
	uc.audit(ctx, &entity.CRMEvent{
		ID:         uuid.NewString(),
		EventType:  env.Type,
		LocationID: locationID,
		AccountID:  accountID,
		Data:       object,
		RawPayload: input.Body,
		CreatedAt:  uc.now(),
	}, log)

	if kind == entity.KindUnknown {
		log.Info().Msg("unhandled CRM event type")
		return uc.finish(out, "ignored", nil)
	}

	ws, err := uc.Workspaces.FindByLocationID(ctx, locationID)
	if errors.Is(err, entity.ErrNotFound) {
		log.Warn().Msg("no workspace mapped to CRM location, event dropped")
		return uc.finish(out, "unmapped_location", nil)
	}
	if err != nil {
		return uc.finish(out, "error", fmt.Errorf("resolve workspace: %w", err))
	}
	log = log.With().Str("workspace_id", ws.UserID).Logger()

	var outcome string
	switch kind {
	case entity.KindContactCreated:
		outcome, err = uc.contactCreated(ctx, ws, object)
	case entity.KindContactUpdated:
		outcome, err = uc.contactUpdated(ctx, ws, locationID, object, log)
	case entity.KindOpportunityCreated:
		outcome, err = uc.opportunityCreated(ctx, ws, object)
	case entity.KindAppointmentCreated:
		outcome, err = uc.appointmentCreated(ctx, ws, object)
	}
	if err != nil {
		log.Error().Err(err).Msg("CRM event not mirrored")
		return uc.finish(out, "error", err)
	}

	log.Info().Str("outcome", outcome).Msg("CRM event mirrored")
	return uc.finish(out, outcome, nil)
}

func (uc *SyncCRMEventUseCase) finish(out *SyncCRMEventOutput, outcome string, err error) (*SyncCRMEventOutput, error) {
	out.Outcome = outcome
	metrics.RecordCRMEvent(out.Kind.String(), outcome)
	return out, err
}

func (uc *SyncCRMEventUseCase) audit(ctx context.Context, e *entity.CRMEvent, log zerolog.Logger) {
	if err := uc.Events.Create(ctx, e); err != nil {
		log.Warn().Err(err).Msg("CRM event audit record not written")
	}
}

// auditMalformed keeps a body that is not JSON as a JSON string.
func (uc *SyncCRMEventUseCase) auditMalformed(ctx context.Context, input SyncCRMEventInput) {
	raw, err := json.Marshal(string(input.Body))
	if err != nil {
		return
	}
	uc.audit(ctx, &entity.CRMEvent{
		ID:         uuid.NewString(),
		EventType:  "malformed",
		LocationID: input.AccountID,
		AccountID:  input.AccountID,
		RawPayload: raw,
		CreatedAt:  uc.now(),
	}, uc.log.With().Str("account_id", input.AccountID).Logger())
}

func decodeObject(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return nil
}

func (uc *SyncCRMEventUseCase) contactCreated(ctx context.Context, ws *entity.Workspace, raw json.RawMessage) (string, error) {
	var p ghl.ContactPayload
	if err := decodeObject(raw, &p); err != nil {
		return "", err
	}
	if p.ID == "" {
		return "", fmt.Errorf("%w: contact has no id", ErrMalformedPayload)
	}

	now := uc.now()
	inserted, err := uc.Contacts.Upsert(ctx, &entity.Contact{
		WorkspaceID: ws.UserID,
		ExternalID:  p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		Phone:       p.Phone,
		Source:      entity.SourceGHLWebhook,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return "", fmt.Errorf("upsert contact: %w", err)
	}
	return mirrorOutcome(inserted), nil
}

func (uc *SyncCRMEventUseCase) contactUpdated(ctx context.Context, ws *entity.Workspace, locationID string, raw json.RawMessage, log zerolog.Logger) (string, error) {
	var p ghl.ContactPayload
	if err := decodeObject(raw, &p); err != nil {
		return "", err
	}
	if p.ID == "" {
		return "", fmt.Errorf("%w: contact has no id", ErrMalformedPayload)
	}

	found, err := uc.Contacts.UpdateByExternalID(ctx, &entity.Contact{
		WorkspaceID: ws.UserID,
		ExternalID:  p.ID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Email:       p.Email,
		Phone:       p.Phone,
		UpdatedAt:   uc.now(),
	})
	if err != nil {
		return "", fmt.Errorf("update contact: %w", err)
	}
	if !found {
		return uc.backfillContact(ctx, ws, locationID, p.ID, log)
	}
	return "updated", nil
}

// backfillContact mirrors a contact the CRM reports as updated but that has no local row yet.
func (uc *SyncCRMEventUseCase) backfillContact(ctx context.Context, ws *entity.Workspace, locationID, contactID string, log zerolog.Logger) (string, error) {
	log = log.With().Str("ghl_contact_id", contactID).Logger()
	if uc.CRM == nil {
		log.Info().Msg("update for contact without mirror")
		return "not_mirrored", nil
	}

	c, err := uc.CRM.GetContact(ctx, locationID, contactID)
	if err != nil {
		metrics.RecordIntegrationError("ghl")
		log.Warn().Err(err).Msg("contact without mirror could not be fetched")
		return "not_mirrored", nil
	}

	now := uc.now()
	if _, err := uc.Contacts.Upsert(ctx, &entity.Contact{
		WorkspaceID: ws.UserID,
		ExternalID:  contactID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Phone:       c.Phone,
		Source:      entity.SourceGHLSync,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		return "", fmt.Errorf("upsert contact: %w", err)
	}
	return "created", nil
}

func (uc *SyncCRMEventUseCase) opportunityCreated(ctx context.Context, ws *entity.Workspace, raw json.RawMessage) (string, error) {
	var p ghl.OpportunityPayload
	if err := decodeObject(raw, &p); err != nil {
		return "", err
	}
	if p.ID == "" {
		return "", fmt.Errorf("%w: opportunity has no id", ErrMalformedPayload)
	}

	now := uc.now()
	inserted, err := uc.Opportunities.Upsert(ctx, &entity.Opportunity{
		WorkspaceID: ws.UserID,
		ExternalID:  p.ID,
		Name:        p.Name,
		Value:       p.MonetaryValue,
		Stage:       p.Stage(),
		ContactID:   p.ContactID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return "", fmt.Errorf("upsert opportunity: %w", err)
	}
	return mirrorOutcome(inserted), nil
}

func (uc *SyncCRMEventUseCase) appointmentCreated(ctx context.Context, ws *entity.Workspace, raw json.RawMessage) (string, error) {
	var p ghl.AppointmentPayload
	if err := decodeObject(raw, &p); err != nil {
		return "", err
	}
	if p.ID == "" {
		return "", fmt.Errorf("%w: appointment has no id", ErrMalformedPayload)
	}

	now := uc.now()
	inserted, err := uc.Appointments.Upsert(ctx, &entity.Appointment{
		WorkspaceID: ws.UserID,
		ExternalID:  p.ID,
		Title:       p.Title,
		StartTime:   parseTime(p.StartTime),
		EndTime:     parseTime(p.EndTime),
		ContactID:   p.ContactID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return "", fmt.Errorf("upsert appointment: %w", err)
	}
	return mirrorOutcome(inserted), nil
}

func mirrorOutcome(inserted bool) string {
	if inserted {
		return "created"
	}
	return "updated"
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
