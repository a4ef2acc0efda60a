package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/saintvisionai/platform-api/internal/entity"
	"github.com/saintvisionai/platform-api/internal/infra/integration/ghl"
	"github.com/saintvisionai/platform-api/internal/infra/integration/stripe"
	"github.com/saintvisionai/platform-api/internal/infra/mail"
	"github.com/saintvisionai/platform-api/internal/infra/queue"
)

var fixedNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func testCatalog() *entity.PlanCatalog {
	c, err := entity.NewPlanCatalog("test", entity.TierUnlimited, []entity.Plan{
		{PriceID: "price_1RLChzFZsXxBWnj0VcveVdDf", Tier: entity.TierUnlimited},
		{PriceID: "price_1RINIMFZsXxBWnjQEYxlyUIy", Tier: entity.TierCRM},
		{PriceID: "price_1RpqCvFZsXxBWnj0XZJwP296", Tier: entity.TierEnterprise},
		{PriceID: "price_1Rh5yFZsXxBWnj0w6p9KY0j", Tier: entity.TierWhiteLabel},
	}, map[entity.Tier]int{
		entity.TierCRM:        1,
		entity.TierEnterprise: 5,
		entity.TierWhiteLabel: 10,
	})
	if err != nil {
		panic(err)
	}
	return c
}

type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetProfile(ctx context.Context, userID string) (*entity.AccountProfile, error) {
	args := m.Called(ctx, userID)
	if p := args.Get(0); p != nil {
		return p.(*entity.AccountProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileStore) UpdateMetadata(ctx context.Context, userID string, patch map[string]any) error {
	args := m.Called(ctx, userID, patch)
	return args.Error(0)
}

type MockLineItems struct {
	mock.Mock
}

func (m *MockLineItems) PriceForSession(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

type MockCheckoutGateway struct {
	mock.Mock
}

func (m *MockCheckoutGateway) CreateCheckoutSession(ctx context.Context, input stripe.CheckoutInput) (*stripe.CheckoutSession, error) {
	args := m.Called(ctx, input)
	if s := args.Get(0); s != nil {
		return s.(*stripe.CheckoutSession), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) PublishProvisioning(ctx context.Context, payload queue.ProvisioningPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) Execute(ctx context.Context, input ProvisionCRMInput) (*ProvisionCRMOutput, error) {
	args := m.Called(ctx, input)
	if o := args.Get(0); o != nil {
		return o.(*ProvisionCRMOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockEmail struct {
	mock.Mock
}

func (m *MockEmail) SendWorkspaceReady(to string, data mail.WorkspaceReadyData) error {
	args := m.Called(to, data)
	return args.Error(0)
}

// fakeLocations hands out sequential location ids and fails the calls listed in failOn (1-based).
type fakeLocations struct {
	mu     sync.Mutex
	calls  []ghl.CreateLocationInput
	failOn map[int]bool
	// failErr replaces the default 500 response for failing calls.
	failErr error
}

func (f *fakeLocations) CreateLocation(_ context.Context, in ghl.CreateLocationInput) (*ghl.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, in)
	n := len(f.calls)
	if f.failOn[n] {
		if f.failErr != nil {
			return nil, f.failErr
		}
		return nil, &ghl.APIError{Status: 500, Body: "upstream unavailable"}
	}
	return &ghl.Location{ID: fmt.Sprintf("loc_%d", n), Name: in.Name}, nil
}

func (f *fakeLocations) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Name)
	}
	return out
}

// fakeCRM is an in-memory CRMClient.
type fakeCRM struct {
	contacts      []ghl.Contact
	opportunities []ghl.Opportunity
	err           error

	createdContacts []ghl.CreateContactInput
	createdOpps     []ghl.CreateOpportunityInput
}

func (f *fakeCRM) CreateContact(_ context.Context, _ string, in ghl.CreateContactInput) (*ghl.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.createdContacts = append(f.createdContacts, in)
	return &ghl.Contact{
		ID:        fmt.Sprintf("ghl_c_%d", len(f.createdContacts)),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Source:    in.Source,
		Tags:      in.Tags,
	}, nil
}

func (f *fakeCRM) ListContacts(context.Context, string) ([]ghl.Contact, error) {
	return f.contacts, f.err
}

func (f *fakeCRM) CreateOpportunity(_ context.Context, _ string, in ghl.CreateOpportunityInput) (*ghl.Opportunity, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.createdOpps = append(f.createdOpps, in)
	return &ghl.Opportunity{
		ID:              fmt.Sprintf("ghl_o_%d", len(f.createdOpps)),
		Name:            in.Name,
		MonetaryValue:   in.MonetaryValue,
		PipelineStageID: in.StageID,
		ContactID:       in.ContactID,
	}, nil
}

func (f *fakeCRM) SearchOpportunities(context.Context, string) ([]ghl.Opportunity, error) {
	return f.opportunities, f.err
}

func noSleep(context.Context, time.Duration) error { return nil }
