package entity

import (
	"context"
	"encoding/json"
	"time"
)

// CRMEventKind is the normalized type of an inbound CRM webhook.
type CRMEventKind int

const (
	KindUnknown CRMEventKind = iota
	KindContactCreated
	KindContactUpdated
	KindOpportunityCreated
	KindAppointmentCreated
)

// The CRM sends the same event in dotted and PascalCase spellings.
var crmEventKinds = map[string]CRMEventKind{
	"contact.created":     KindContactCreated,
	"ContactCreate":       KindContactCreated,
	"contact.updated":     KindContactUpdated,
	"ContactUpdate":       KindContactUpdated,
	"opportunity.created": KindOpportunityCreated,
	"OpportunityCreate":   KindOpportunityCreated,
	"appointment.created": KindAppointmentCreated,
	"AppointmentCreate":   KindAppointmentCreated,
}

func ParseCRMEventKind(raw string) CRMEventKind {
	return crmEventKinds[raw]
}

func (k CRMEventKind) String() string {
	switch k {
	case KindContactCreated:
		return "contact.created"
	case KindContactUpdated:
		return "contact.updated"
	case KindOpportunityCreated:
		return "opportunity.created"
	case KindAppointmentCreated:
		return "appointment.created"
	default:
		return "unknown"
	}
}

// CRMEvent is the raw audit record of one inbound CRM webhook.
type CRMEvent struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	LocationID string          `json:"location_id"`
	AccountID  string          `json:"account_id"`
	Data       json.RawMessage `json:"event_data"`
	RawPayload json.RawMessage `json:"raw_payload"`
	CreatedAt  time.Time       `json:"created_at"`
}

type CRMEventRepository interface {
	Create(ctx context.Context, e *CRMEvent) error
}
