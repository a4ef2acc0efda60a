package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/saintvisionai/platform-api/internal/entity"
)

type WorkspaceRepository struct {
	DB *sql.DB
}

func NewWorkspaceRepository(db *sql.DB) *WorkspaceRepository {
	return &WorkspaceRepository{DB: db}
}

// Upsert keeps an existing primary location and the original created_at.
func (r *WorkspaceRepository) Upsert(ctx context.Context, ws *entity.Workspace) error {
	subAccounts, err := json.Marshal(ws.SubAccounts)
	if err != nil {
		return fmt.Errorf("marshal sub-accounts: %w", err)
	}

	query := `
		INSERT INTO workspaces (
			user_id, ghl_location_id, ghl_subaccounts, business_name, plan_role, account_limit, created_at, updated_at
		) VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			ghl_location_id = COALESCE(NULLIF(workspaces.ghl_location_id, ''), EXCLUDED.ghl_location_id),
			ghl_subaccounts = EXCLUDED.ghl_subaccounts,
			business_name   = EXCLUDED.business_name,
			plan_role       = EXCLUDED.plan_role,
			account_limit   = EXCLUDED.account_limit,
			updated_at      = EXCLUDED.updated_at
	`

	_, err = r.DB.ExecContext(ctx, query,
		ws.UserID,
		ws.LocationID,
		string(subAccounts),
		ws.BusinessName,
		string(ws.Tier),
		ws.AccountLimit,
		ws.CreatedAt,
		ws.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert workspace %s: %w", ws.UserID, err)
	}
	return nil
}

const selectWorkspace = `
	SELECT user_id, ghl_location_id, ghl_subaccounts, business_name, plan_role, account_limit, created_at, updated_at
	FROM workspaces
`

func (r *WorkspaceRepository) FindByUserID(ctx context.Context, userID string) (*entity.Workspace, error) {
	return r.findOne(ctx, selectWorkspace+` WHERE user_id = $1`, userID)
}

func (r *WorkspaceRepository) FindByLocationID(ctx context.Context, locationID string) (*entity.Workspace, error) {
	if locationID == "" {
		return nil, entity.ErrNotFound
	}
	query := selectWorkspace + `
		WHERE ghl_location_id = $1
		   OR ghl_subaccounts @> jsonb_build_array(jsonb_build_object('id', $1::text))
		LIMIT 1
	`
	return r.findOne(ctx, query, locationID)
}

func (r *WorkspaceRepository) findOne(ctx context.Context, query, arg string) (*entity.Workspace, error) {
	var (
		ws   entity.Workspace
		raw  []byte
		tier string
	)
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&ws.UserID,
		&ws.LocationID,
		&raw,
		&ws.BusinessName,
		&tier,
		&ws.AccountLimit,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find workspace: %w", err)
	}
	if err := json.Unmarshal(raw, &ws.SubAccounts); err != nil {
		return nil, fmt.Errorf("decode sub-accounts of %s: %w", ws.UserID, err)
	}
	ws.Tier = entity.Tier(tier)
	return &ws, nil
}
