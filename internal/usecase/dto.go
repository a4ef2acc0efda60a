package usecase

import (
	"time"

	"github.com/saintvisionai/platform-api/internal/entity"
)

type ProvisionCRMInput struct {
	UserID string
	Tier   entity.Tier
}

type ProvisionCRMOutput struct {
	Workspace *entity.Workspace
	Created   []entity.SubAccount
	Outcomes  []TaskOutcome
}

// Failed lists the tasks that did not succeed, skipped ones included.
func (o *ProvisionCRMOutput) Failed() []TaskOutcome {
	var failed []TaskOutcome
	for _, oc := range o.Outcomes {
		if !oc.OK() {
			failed = append(failed, oc)
		}
	}
	return failed
}

type BillingEventResult struct {
	EventID   string
	EventType string
	Duplicate bool
	Outcome   string
}

type SyncCRMEventInput struct {
	Body      []byte
	AccountID string
}

type SyncCRMEventOutput struct {
	EventType  string
	LocationID string
	Kind       entity.CRMEventKind
	Outcome    string
}

type CreateCheckoutInput struct {
	PriceID string `json:"priceId"`
	UserID  string `json:"userId"`
	Email   string `json:"email"`
}

type RetryProvisioningOutput struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

type CreateContactInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type CreateOpportunityInput struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	PipelineID string  `json:"pipelineId"`
	StageID    string  `json:"stageId"`
	ContactID  string  `json:"contactId"`
}

type ScoredLead struct {
	ContactID  string `json:"contactId"`
	ExternalID string `json:"ghlContactId"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
}

type LeadScoreReport struct {
	LeadsAnalyzed  int          `json:"leadsAnalyzed"`
	HighScoreLeads int          `json:"highScoreLeads"`
	AverageScore   float64      `json:"averageScore"`
	TopLeads       []ScoredLead `json:"topLeads"`
}

type ContactSyncReport struct {
	ContactsSynced  int       `json:"contactsSynced"`
	NewContacts     int       `json:"newContacts"`
	UpdatedContacts int       `json:"updatedContacts"`
	LastSync        time.Time `json:"lastSync"`
}

type StageSummary struct {
	Stage string  `json:"stage"`
	Deals int     `json:"deals"`
	Value float64 `json:"value"`
}

type PipelineReport struct {
	DealsAnalyzed int            `json:"dealsAnalyzed"`
	TotalValue    float64        `json:"totalValue"`
	Stages        []StageSummary `json:"stages"`
	Bottlenecks   []string       `json:"bottlenecks"`
}

type PerformanceReport struct {
	ReportID         string    `json:"reportId"`
	TimeRange        string    `json:"timeRange"`
	GeneratedAt      time.Time `json:"generatedAt"`
	NewContacts      int       `json:"newContacts"`
	NewOpportunities int       `json:"newOpportunities"`
	NewAppointments  int       `json:"newAppointments"`
	PipelineValue    float64   `json:"pipelineValue"`
	AvgDealSize      float64   `json:"avgDealSize"`
	ConversionRate   float64   `json:"conversionRate"`
}

type PipelineRefreshReport struct {
	DealsRefreshed int       `json:"dealsRefreshed"`
	NewDeals       int       `json:"newDeals"`
	StagesSeen     int       `json:"stagesSeen"`
	LastRefresh    time.Time `json:"lastRefresh"`
}

type CreatedOpportunity struct {
	OpportunityID string  `json:"opportunityId"`
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	Stage         string  `json:"stage"`
}
