package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/saintvisionai/platform-api/internal/entity"
)

// Mirror upserts report an insert through xmax, which is zero for a freshly inserted row.

type ContactRepository struct {
	DB *sql.DB
}

func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{DB: db}
}

func (r *ContactRepository) Upsert(ctx context.Context, c *entity.Contact) (bool, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	query := `
		INSERT INTO contacts (
			id, workspace_id, ghl_contact_id, first_name, last_name, email, phone, source, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (workspace_id, ghl_contact_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name,
			email      = EXCLUDED.email,
			phone      = EXCLUDED.phone,
			source     = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0)
	`
	var inserted bool
	err := r.DB.QueryRowContext(ctx, query,
		c.ID, c.WorkspaceID, c.ExternalID, c.FirstName, c.LastName, c.Email, c.Phone, c.Source, c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert contact %s: %w", c.ExternalID, err)
	}
	return inserted, nil
}

func (r *ContactRepository) UpdateByExternalID(ctx context.Context, c *entity.Contact) (bool, error) {
	query := `
		UPDATE contacts SET first_name = $1, last_name = $2, email = $3, phone = $4, updated_at = $5
		WHERE workspace_id = $6 AND ghl_contact_id = $7
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		c.FirstName, c.LastName, c.Email, c.Phone, c.UpdatedAt, c.WorkspaceID, c.ExternalID,
	).Scan(&c.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update contact %s: %w", c.ExternalID, err)
	}
	return true, nil
}

func (r *ContactRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*entity.Contact, error) {
	query := `
		SELECT id, workspace_id, ghl_contact_id, first_name, last_name, email, phone, source, created_at, updated_at
		FROM contacts WHERE workspace_id = $1 ORDER BY ghl_contact_id
	`
	rows, err := r.DB.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []*entity.Contact
	for rows.Next() {
		var c entity.Contact
		if err := rows.Scan(&c.ID, &c.WorkspaceID, &c.ExternalID, &c.FirstName, &c.LastName,
			&c.Email, &c.Phone, &c.Source, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

type OpportunityRepository struct {
	DB *sql.DB
}

func NewOpportunityRepository(db *sql.DB) *OpportunityRepository {
	return &OpportunityRepository{DB: db}
}

func (r *OpportunityRepository) Upsert(ctx context.Context, o *entity.Opportunity) (bool, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	query := `
		INSERT INTO opportunities (
			id, workspace_id, ghl_opportunity_id, name, value, stage, contact_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (workspace_id, ghl_opportunity_id) DO UPDATE SET
			name       = EXCLUDED.name,
			value      = EXCLUDED.value,
			stage      = EXCLUDED.stage,
			contact_id = EXCLUDED.contact_id,
			updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0)
	`
	var inserted bool
	err := r.DB.QueryRowContext(ctx, query,
		o.ID, o.WorkspaceID, o.ExternalID, o.Name, o.Value, o.Stage, o.ContactID, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert opportunity %s: %w", o.ExternalID, err)
	}
	return inserted, nil
}

func (r *OpportunityRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*entity.Opportunity, error) {
	query := `
		SELECT id, workspace_id, ghl_opportunity_id, name, value, stage, contact_id, created_at, updated_at
		FROM opportunities WHERE workspace_id = $1 ORDER BY ghl_opportunity_id
	`
	rows, err := r.DB.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer rows.Close()

	var out []*entity.Opportunity
	for rows.Next() {
		var o entity.Opportunity
		if err := rows.Scan(&o.ID, &o.WorkspaceID, &o.ExternalID, &o.Name, &o.Value,
			&o.Stage, &o.ContactID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

type AppointmentRepository struct {
	DB *sql.DB
}

func NewAppointmentRepository(db *sql.DB) *AppointmentRepository {
	return &AppointmentRepository{DB: db}
}

func (r *AppointmentRepository) Upsert(ctx context.Context, a *entity.Appointment) (bool, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	query := `
		INSERT INTO appointments (
			id, workspace_id, ghl_appointment_id, title, start_time, end_time, contact_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (workspace_id, ghl_appointment_id) DO UPDATE SET
			title      = EXCLUDED.title,
			start_time = EXCLUDED.start_time,
			end_time   = EXCLUDED.end_time,
			contact_id = EXCLUDED.contact_id,
			updated_at = EXCLUDED.updated_at
		RETURNING id, (xmax = 0)
	`
	var inserted bool
	err := r.DB.QueryRowContext(ctx, query,
		a.ID, a.WorkspaceID, a.ExternalID, a.Title, nullTime(a.StartTime), nullTime(a.EndTime),
		a.ContactID, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert appointment %s: %w", a.ExternalID, err)
	}
	return inserted, nil
}

func (r *AppointmentRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*entity.Appointment, error) {
	query := `
		SELECT id, workspace_id, ghl_appointment_id, title, start_time, end_time, contact_id, created_at, updated_at
		FROM appointments WHERE workspace_id = $1 ORDER BY ghl_appointment_id
	`
	rows, err := r.DB.QueryContext(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []*entity.Appointment
	for rows.Next() {
		var (
			a          entity.Appointment
			start, end sql.NullTime
		)
		if err := rows.Scan(&a.ID, &a.WorkspaceID, &a.ExternalID, &a.Title, &start, &end,
			&a.ContactID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		if start.Valid {
			a.StartTime = &start.Time
		}
		if end.Valid {
			a.EndTime = &end.Time
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

type CRMEventRepository struct {
	DB *sql.DB
}

func NewCRMEventRepository(db *sql.DB) *CRMEventRepository {
	return &CRMEventRepository{DB: db}
}

func (r *CRMEventRepository) Create(ctx context.Context, e *entity.CRMEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	query := `
		INSERT INTO crm_events (id, event_type, location_id, account_id, event_data, raw_payload, created_at)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7)
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.EventType, e.LocationID, e.AccountID, nullJSON(e.Data), nullJSON(e.RawPayload), e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert crm event: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
