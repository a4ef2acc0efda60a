package ghl

import (
	"encoding/json"
)

type CreateLocationInput struct {
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	Website    string `json:"website"`
	Timezone   string `json:"timezone"`
}

type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CreateContactInput struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Source    string   `json:"source"`
	Tags      []string `json:"tags"`
}

type Contact struct {
	ID        string   `json:"id"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Source    string   `json:"source"`
	Tags      []string `json:"tags,omitempty"`
}

type CreateOpportunityInput struct {
	Name          string  `json:"name"`
	PipelineID    string  `json:"pipelineId"`
	StageID       string  `json:"pipelineStageId"`
	ContactID     string  `json:"contactId"`
	MonetaryValue float64 `json:"monetaryValue"`
}

type Opportunity struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	MonetaryValue   float64 `json:"monetaryValue"`
	PipelineStageID string  `json:"pipelineStageId"`
	Status          string  `json:"status"`
	ContactID       string  `json:"contactId"`
}

// request bodies that carry fields callers never set

type createLocationRequest struct {
	CreateLocationInput
	Settings locationSettings `json:"settings"`
}

type locationSettings struct {
	AllowDuplicateContact     bool `json:"allowDuplicateContact"`
	AllowDuplicateOpportunity bool `json:"allowDuplicateOpportunity"`
	AllowFacebookNameMerge    bool `json:"allowFacebookNameMerge"`
	DisableContactTimezone    bool `json:"disableContactTimezone"`
}

type createContactRequest struct {
	CreateContactInput
	LocationID   string            `json:"locationId"`
	CustomFields map[string]string `json:"customFields,omitempty"`
}

type createOpportunityRequest struct {
	CreateOpportunityInput
	LocationID string `json:"locationId"`
	Status     string `json:"status"`
	Source     string `json:"source"`
}

// WebhookEnvelope is the body of an inbound CRM webhook.
// Some deliveries nest the object under data, others send it at the top level.
type WebhookEnvelope struct {
	Type       string          `json:"type"`
	LocationID string          `json:"locationId"`
	Data       json.RawMessage `json:"data"`
}

// Object returns the event object, falling back to the whole body when data is absent.
func (e *WebhookEnvelope) Object(raw []byte) json.RawMessage {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return raw
	}
	return e.Data
}

type ContactPayload struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type OpportunityPayload struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	MonetaryValue   float64 `json:"monetaryValue"`
	PipelineStage   string  `json:"pipelineStage"`
	PipelineStageID string  `json:"pipelineStageId"`
	ContactID       string  `json:"contactId"`
}

func (p OpportunityPayload) Stage() string {
	if p.PipelineStage != "" {
		return p.PipelineStage
	}
	return p.PipelineStageID
}

type AppointmentPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	ContactID string `json:"contactId"`
}
