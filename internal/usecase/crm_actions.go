package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/saintvisionai/platform-api/internal/entity"
	"github.com/saintvisionai/platform-api/internal/infra/integration/ghl"
	"github.com/saintvisionai/platform-api/internal/infra/metrics"
)

const (
	ActionScoreLeads        = "score-leads"
	ActionSyncContacts      = "sync-contacts"
	ActionAnalyzePipeline   = "analyze-pipeline"
	ActionGenerateReports   = "generate-reports"
	ActionRefreshPipeline   = "refresh-pipeline"
	ActionCreateOpportunity = "create-opportunity"

	highScoreThreshold      = 70
	topLeadCount            = 5
	reportWindow            = 30 * 24 * time.Hour
	defaultOpportunityName  = "New Opportunity"
	defaultOpportunityStage = "New Lead"
)

// Dashboard actions that only ever returned canned demo data.
var unavailableActions = map[string]bool{
	"new-campaign":       true,
	"optimize-calls":     true,
	"trigger-automation": true,
	"ai-insights":        true,
}

var partnerTechTags = []string{"PartnerTech", "AI-Generated"}

// CRMActionsUseCase serves the dashboard actions against a tenant's CRM location.
type CRMActionsUseCase struct {
	Workspaces    entity.WorkspaceRepository
	Contacts      entity.ContactRepository
	Opportunities entity.OpportunityRepository
	Appointments  entity.AppointmentRepository
	CRM           CRMClient

	log zerolog.Logger
	now func() time.Time
}

func NewCRMActionsUseCase(
	workspaces entity.WorkspaceRepository,
	contacts entity.ContactRepository,
	opportunities entity.OpportunityRepository,
	appointments entity.AppointmentRepository,
	crm CRMClient,
	log zerolog.Logger,
) *CRMActionsUseCase {
	return &CRMActionsUseCase{
		Workspaces:    workspaces,
		Contacts:      contacts,
		Opportunities: opportunities,
		Appointments:  appointments,
		CRM:           crm,
		log:           log.With().Str("usecase", "crm_actions").Logger(),
		now:           time.Now,
	}
}

func (uc *CRMActionsUseCase) resolveWorkspace(ctx context.Context, userID string) (*entity.Workspace, error) {
	ws, err := uc.Workspaces.FindByUserID(ctx, userID)
	if errors.Is(err, entity.ErrNotFound) {
		return nil, ErrLocationNotConfigured
	}
	if err != nil {
		return nil, &TechnicalError{Code: "workspace_lookup", Message: "failed to load workspace", Err: err}
	}
	if !ws.HasPrimary() {
		return nil, ErrLocationNotConfigured
	}
	return ws, nil
}

func upstreamError(err error) error {
	metrics.RecordIntegrationError("ghl")
	return &TechnicalError{Code: "crm_upstream", Message: "CRM request failed", Err: err}
}

// RunAction executes one /ghl-actions action and returns its report.
func (uc *CRMActionsUseCase) RunAction(ctx context.Context, userID, action string) (any, error) {
	if action == "" {
		return nil, ErrActionRequired
	}
	ws, err := uc.resolveWorkspace(ctx, userID)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("action", action).Str("user_id", userID).Str("location_id", ws.LocationID).Msg("running CRM action")

	switch action {
	case ActionScoreLeads:
		return uc.scoreLeads(ctx, ws)
	case ActionSyncContacts:
		return uc.syncContacts(ctx, ws)
	case ActionAnalyzePipeline:
		return uc.analyzePipeline(ctx, ws)
	case ActionGenerateReports:
		return uc.generateReport(ctx, ws)
	}
	if unavailableActions[action] {
		return nil, ErrActionNotAvailable
	}
	return nil, ErrUnknownAction
}

// CreateContact creates the contact in the tenant's primary location and mirrors it.
func (uc *CRMActionsUseCase) CreateContact(ctx context.Context, userID string, input CreateContactInput) (*entity.Contact, error) {
	if err := ValidateCreateContactInput(input); err != nil {
		return nil, err
	}
	ws, err := uc.resolveWorkspace(ctx, userID)
	if err != nil {
		return nil, err
	}

	created, err := uc.CRM.CreateContact(ctx, ws.LocationID, ghl.CreateContactInput{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Source:    entity.SourcePartnerTech,
		Tags:      partnerTechTags,
	})
	if err != nil {
		return nil, upstreamError(err)
	}

	now := uc.now()
	c := &entity.Contact{
		WorkspaceID: ws.UserID,
		ExternalID:  created.ID,
		FirstName:   created.FirstName,
		LastName:    created.LastName,
		Email:       created.Email,
		Phone:       created.Phone,
		Source:      entity.SourcePartnerTech,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := uc.Contacts.Upsert(ctx, c); err != nil {
		return nil, &TechnicalError{Code: "mirror_write", Message: "contact created but not mirrored", Err: err}
	}
	uc.log.Info().Str("user_id", userID).Str("ghl_contact_id", created.ID).Msg("contact created")
	return c, nil
}

// RunPipelineAction executes one /ghl-pipeline action.
func (uc *CRMActionsUseCase) RunPipelineAction(ctx context.Context, userID, action string, data CreateOpportunityInput) (any, error) {
	if action == "" {
		return nil, ErrActionRequired
	}
	if action != ActionRefreshPipeline && action != ActionCreateOpportunity {
		return nil, ErrUnknownAction
	}
	ws, err := uc.resolveWorkspace(ctx, userID)
	if err != nil {
		return nil, err
	}

	if action == ActionRefreshPipeline {
		return uc.refreshPipeline(ctx, ws)
	}
	return uc.createOpportunity(ctx, ws, data)
}

// leadScore weighs how reachable and engaged a mirrored contact is, capped at 100.
func leadScore(c *entity.Contact, deals, meetings int) int {
	score := 20
	if c.Email != "" {
		score += 20
	}
	if c.Phone != "" {
		score += 20
	}
	if c.FirstName != "" && c.LastName != "" {
		score += 10
	}
	score += 15*min(deals, 2) + 10*min(meetings, 1)
	return min(score, 100)
}

func (uc *CRMActionsUseCase) scoreLeads(ctx context.Context, ws *entity.Workspace) (*LeadScoreReport, error) {
	contacts, err := uc.Contacts.ListByWorkspace(ctx, ws.UserID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	opps, err := uc.Opportunities.ListByWorkspace(ctx, ws.UserID)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	appts, err := uc.Appointments.ListByWorkspace(ctx, ws.UserID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	deals := make(map[string]int)
	for _, o := range opps {
		deals[o.ContactID]++
	}
	meetings := make(map[string]int)
	for _, a := range appts {
		meetings[a.ContactID]++
	}

	report := &LeadScoreReport{LeadsAnalyzed: len(contacts), TopLeads: []ScoredLead{}}
	if len(contacts) == 0 {
		return report, nil
	}

	scored := make([]ScoredLead, 0, len(contacts))
	total := 0
	for _, c := range contacts {
		s := leadScore(c, deals[c.ExternalID], meetings[c.ExternalID])
		total += s
		if s >= highScoreThreshold {
			report.HighScoreLeads++
		}
		scored = append(scored, ScoredLead{ContactID: c.ID, ExternalID: c.ExternalID, Name: c.FullName(), Score: s})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	report.AverageScore = round1(float64(total) / float64(len(contacts)))
	report.TopLeads = scored[:min(topLeadCount, len(scored))]
	return report, nil
}

func (uc *CRMActionsUseCase) syncContacts(ctx context.Context, ws *entity.Workspace) (*ContactSyncReport, error) {
	remote, err := uc.CRM.ListContacts(ctx, ws.LocationID)
	if err != nil {
		return nil, upstreamError(err)
	}

	now := uc.now()
	report := &ContactSyncReport{LastSync: now}
	for _, rc := range remote {
		if rc.ID == "" {
			continue
		}
		inserted, err := uc.Contacts.Upsert(ctx, &entity.Contact{
			WorkspaceID: ws.UserID,
			ExternalID:  rc.ID,
			FirstName:   rc.FirstName,
			LastName:    rc.LastName,
			Email:       rc.Email,
			Phone:       rc.Phone,
			Source:      entity.SourceGHLSync,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return nil, fmt.Errorf("mirror contact %s: %w", rc.ID, err)
		}
		report.ContactsSynced++
		if inserted {
			report.NewContacts++
		} else {
			report.UpdatedContacts++
		}
	}
	return report, nil
}

func stageSummaries(opps []*entity.Opportunity) ([]StageSummary, float64) {
	byStage := make(map[string]*StageSummary)
	total := 0.0
	for _, o := range opps {
		stage := o.Stage
		if stage == "" {
			stage = "unassigned"
		}
		s, ok := byStage[stage]
		if !ok {
			s = &StageSummary{Stage: stage}
			byStage[stage] = s
		}
		s.Deals++
		s.Value += o.Value
		total += o.Value
	}

	out := make([]StageSummary, 0, len(byStage))
	for _, s := range byStage {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out, total
}

func (uc *CRMActionsUseCase) analyzePipeline(ctx context.Context, ws *entity.Workspace) (*PipelineReport, error) {
	opps, err := uc.Opportunities.ListByWorkspace(ctx, ws.UserID)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}

	stages, total := stageSummaries(opps)
	report := &PipelineReport{
		DealsAnalyzed: len(opps),
		TotalValue:    total,
		Stages:        stages,
		Bottlenecks:   []string{},
	}

	// A stage holding more deals than the per-stage mean is a bottleneck.
	if len(stages) > 1 {
		mean := float64(len(opps)) / float64(len(stages))
		for _, s := range stages {
			if float64(s.Deals) > mean {
				report.Bottlenecks = append(report.Bottlenecks, s.Stage)
			}
		}
	}
	return report, nil
}

func (uc *CRMActionsUseCase) generateReport(ctx context.Context, ws *entity.Workspace) (*PerformanceReport, error) {
	contacts, err := uc.Contacts.ListByWorkspace(ctx, ws.UserID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	opps, err := uc.Opportunities.ListByWorkspace(ctx, ws.UserID)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	appts, err := uc.Appointments.ListByWorkspace(ctx, ws.UserID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	now := uc.now()
	since := now.Add(-reportWindow)
	report := &PerformanceReport{
		ReportID:    "report_" + uuid.NewString(),
		TimeRange:   "Last 30 days",
		GeneratedAt: now,
	}

	newContacts := make(map[string]bool)
	for _, c := range contacts {
		if !c.CreatedAt.Before(since) {
			report.NewContacts++
			newContacts[c.ExternalID] = true
		}
	}
	converted := make(map[string]bool)
	for _, o := range opps {
		if o.CreatedAt.Before(since) {
			continue
		}
		report.NewOpportunities++
		report.PipelineValue += o.Value
		if newContacts[o.ContactID] {
			converted[o.ContactID] = true
		}
	}
	for _, a := range appts {
		if !a.CreatedAt.Before(since) {
			report.NewAppointments++
		}
	}

	if report.NewOpportunities > 0 {
		report.AvgDealSize = round1(report.PipelineValue / float64(report.NewOpportunities))
	}
	if report.NewContacts > 0 {
		report.ConversionRate = round1(100 * float64(len(converted)) / float64(report.NewContacts))
	}
	return report, nil
}

func (uc *CRMActionsUseCase) refreshPipeline(ctx context.Context, ws *entity.Workspace) (*PipelineRefreshReport, error) {
	remote, err := uc.CRM.SearchOpportunities(ctx, ws.LocationID)
	if err != nil {
		return nil, upstreamError(err)
	}

	now := uc.now()
	report := &PipelineRefreshReport{LastRefresh: now}
	stages := make(map[string]bool)
	for _, ro := range remote {
		if ro.ID == "" {
			continue
		}
		inserted, err := uc.Opportunities.Upsert(ctx, &entity.Opportunity{
			WorkspaceID: ws.UserID,
			ExternalID:  ro.ID,
			Name:        ro.Name,
			Value:       ro.MonetaryValue,
			Stage:       ro.PipelineStageID,
			ContactID:   ro.ContactID,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return nil, fmt.Errorf("mirror opportunity %s: %w", ro.ID, err)
		}
		report.DealsRefreshed++
		if inserted {
			report.NewDeals++
		}
		stages[ro.PipelineStageID] = true
	}
	report.StagesSeen = len(stages)
	return report, nil
}

func (uc *CRMActionsUseCase) createOpportunity(ctx context.Context, ws *entity.Workspace, data CreateOpportunityInput) (*CreatedOpportunity, error) {
	if err := ValidateCreateOpportunityInput(data); err != nil {
		return nil, err
	}
	name := data.Name
	if name == "" {
		name = defaultOpportunityName
	}

	created, err := uc.CRM.CreateOpportunity(ctx, ws.LocationID, ghl.CreateOpportunityInput{
		Name:          name,
		PipelineID:    data.PipelineID,
		StageID:       data.StageID,
		ContactID:     data.ContactID,
		MonetaryValue: data.Value,
	})
	if err != nil {
		return nil, upstreamError(err)
	}

	stage := created.PipelineStageID
	if stage == "" {
		stage = defaultOpportunityStage
	}
	now := uc.now()
	if _, err := uc.Opportunities.Upsert(ctx, &entity.Opportunity{
		WorkspaceID: ws.UserID,
		ExternalID:  created.ID,
		Name:        created.Name,
		Value:       created.MonetaryValue,
		Stage:       stage,
		ContactID:   created.ContactID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		return nil, &TechnicalError{Code: "mirror_write", Message: "opportunity created but not mirrored", Err: err}
	}

	return &CreatedOpportunity{
		OpportunityID: created.ID,
		Name:          created.Name,
		Value:         created.MonetaryValue,
		Stage:         stage,
	}, nil
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
