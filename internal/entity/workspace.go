package entity

import (
	"context"
	"time"
)

type LocationRole string

const (
	LocationPrimary    LocationRole = "primary"
	LocationAdditional LocationRole = "additional"
)

// SubAccount is one CRM location provisioned for a workspace.
type SubAccount struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      LocationRole `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}

// Workspace is a tenant and its CRM mapping, keyed by the owning user.
type Workspace struct {
	UserID       string       `json:"user_id"`
	LocationID   string       `json:"ghl_location_id"`
	SubAccounts  []SubAccount `json:"ghl_subaccounts"`
	BusinessName string       `json:"business_name"`
	Tier         Tier         `json:"plan_role"`
	AccountLimit int          `json:"account_limit"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func NewWorkspace(userID, businessName string, tier Tier, limit int, now time.Time) *Workspace {
	return &Workspace{
		UserID:       userID,
		BusinessName: businessName,
		Tier:         tier,
		AccountLimit: limit,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (w *Workspace) HasPrimary() bool {
	return w.LocationID != ""
}

func (w *Workspace) AdditionalCount() int {
	n := 0
	for _, a := range w.SubAccounts {
		if a.Type == LocationAdditional {
			n++
		}
	}
	return n
}

// MissingAdditional is how many additional locations are needed to fill the quota.
// The quota counts the primary location.
func (w *Workspace) MissingAdditional() int {
	missing := w.AccountLimit - 1 - w.AdditionalCount()
	if missing < 0 {
		return 0
	}
	return missing
}

// OwnsLocation reports whether the location id is the primary or one of the sub-accounts.
func (w *Workspace) OwnsLocation(locationID string) bool {
	if locationID == "" {
		return false
	}
	if w.LocationID == locationID {
		return true
	}
	for _, a := range w.SubAccounts {
		if a.ID == locationID {
			return true
		}
	}
	return false
}

// AttachPrimary sets the primary location. A primary, once set, is never replaced.
func (w *Workspace) AttachPrimary(acc SubAccount) error {
	if w.HasPrimary() {
		return ErrPrimaryAlreadySet
	}
	acc.Type = LocationPrimary
	w.LocationID = acc.ID
	w.SubAccounts = append(w.SubAccounts, acc)
	return nil
}

func (w *Workspace) AttachAdditional(acc SubAccount) error {
	if w.AdditionalCount()+1 > w.AccountLimit {
		return ErrAccountLimitExceeded
	}
	acc.Type = LocationAdditional
	w.SubAccounts = append(w.SubAccounts, acc)
	return nil
}

func (w *Workspace) Validate() error {
	if w.AdditionalCount() > w.AccountLimit {
		return ErrAccountLimitExceeded
	}
	return nil
}

type WorkspaceRepository interface {
	// Upsert creates the workspace or merges into the existing row. An existing
	// primary location id is kept.
	Upsert(ctx context.Context, ws *Workspace) error
	FindByUserID(ctx context.Context, userID string) (*Workspace, error)
	// FindByLocationID matches the primary location or any recorded sub-account.
	FindByLocationID(ctx context.Context, locationID string) (*Workspace, error)
}
