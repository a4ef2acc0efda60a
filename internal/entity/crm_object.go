package entity

import (
	"context"
	"time"
)

// Contact sources.
const (
	SourceGHLWebhook  = "ghl_webhook"
	SourceGHLSync     = "ghl_sync"
	SourcePartnerTech = "saintvisionai_partnertech"
)

// Contact mirrors a CRM contact. Unique per (WorkspaceID, ExternalID).
type Contact struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	ExternalID  string    `json:"ghl_contact_id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Contact) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

type Opportunity struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	ExternalID  string    `json:"ghl_opportunity_id"`
	Name        string    `json:"name"`
	Value       float64   `json:"value"`
	Stage       string    `json:"stage"`
	ContactID   string    `json:"contact_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Appointment struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	ExternalID  string     `json:"ghl_appointment_id"`
	Title       string     `json:"title"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	ContactID   string     `json:"contact_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Upsert methods report whether a new mirror row was inserted.

type ContactRepository interface {
	Upsert(ctx context.Context, c *Contact) (bool, error)
	// UpdateByExternalID overwrites the mirror fields; false when no mirror exists.
	UpdateByExternalID(ctx context.Context, c *Contact) (bool, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*Contact, error)
}

type OpportunityRepository interface {
	Upsert(ctx context.Context, o *Opportunity) (bool, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*Opportunity, error)
}

type AppointmentRepository interface {
	Upsert(ctx context.Context, a *Appointment) (bool, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*Appointment, error)
}
