package usecase

import (
	"context"

	"github.com/saintvisionai/platform-api/internal/entity"
	"github.com/saintvisionai/platform-api/internal/infra/integration/ghl"
	"github.com/saintvisionai/platform-api/internal/infra/integration/stripe"
	"github.com/saintvisionai/platform-api/internal/infra/mail"
	"github.com/saintvisionai/platform-api/internal/infra/queue"
)

// ProfileStore reads and patches account profiles kept by the auth provider.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*entity.AccountProfile, error)
	UpdateMetadata(ctx context.Context, userID string, patch map[string]any) error
}

type LocationCreator interface {
	CreateLocation(ctx context.Context, input ghl.CreateLocationInput) (*ghl.Location, error)
}

type CRMClient interface {
	CreateContact(ctx context.Context, locationID string, input ghl.CreateContactInput) (*ghl.Contact, error)
	ListContacts(ctx context.Context, locationID string) ([]ghl.Contact, error)
	CreateOpportunity(ctx context.Context, locationID string, input ghl.CreateOpportunityInput) (*ghl.Opportunity, error)
	SearchOpportunities(ctx context.Context, locationID string) ([]ghl.Opportunity, error)
}

// ContactFetcher reads a single contact from the CRM.
type ContactFetcher interface {
	GetContact(ctx context.Context, locationID, contactID string) (*ghl.Contact, error)
}

type LineItemResolver interface {
	PriceForSession(ctx context.Context, sessionID string) (string, error)
}

type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, input stripe.CheckoutInput) (*stripe.CheckoutSession, error)
}

type ProvisioningQueue interface {
	PublishProvisioning(ctx context.Context, payload queue.ProvisioningPayload) error
}

type EmailService interface {
	SendWorkspaceReady(to string, data mail.WorkspaceReadyData) error
}

// CRMProvisioner creates the CRM sub-accounts an entitlement tier grants.
type CRMProvisioner interface {
	Execute(ctx context.Context, input ProvisionCRMInput) (*ProvisionCRMOutput, error)
}
