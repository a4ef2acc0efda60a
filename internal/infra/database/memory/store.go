// Package memory implements the repositories in process memory. It backs local
// development without DATABASE_URL and the usecase tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saintvisionai/platform-api/internal/entity"
)

type mirrorKey struct {
	workspace string
	external  string
}

type claimKey struct {
	provider string
	eventID  string
}

// Store holds every table. Each repository view shares one lock.
type Store struct {
	mu sync.RWMutex

	subscriptions map[string]entity.Subscription
	workspaces    map[string]entity.Workspace
	contacts      map[mirrorKey]entity.Contact
	opportunities map[mirrorKey]entity.Opportunity
	appointments  map[mirrorKey]entity.Appointment
	crmEvents     []entity.CRMEvent
	claims        map[claimKey]time.Time

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		subscriptions: make(map[string]entity.Subscription),
		workspaces:    make(map[string]entity.Workspace),
		contacts:      make(map[mirrorKey]entity.Contact),
		opportunities: make(map[mirrorKey]entity.Opportunity),
		appointments:  make(map[mirrorKey]entity.Appointment),
		claims:        make(map[claimKey]time.Time),
		now:           time.Now,
	}
}

func (s *Store) Subscriptions() *SubscriptionRepository { return &SubscriptionRepository{s} }
func (s *Store) Workspaces() *WorkspaceRepository       { return &WorkspaceRepository{s} }
func (s *Store) Contacts() *ContactRepository           { return &ContactRepository{s} }
func (s *Store) Opportunities() *OpportunityRepository  { return &OpportunityRepository{s} }
func (s *Store) Appointments() *AppointmentRepository   { return &AppointmentRepository{s} }
func (s *Store) CRMEvents() *CRMEventRepository         { return &CRMEventRepository{s} }
func (s *Store) WebhookEvents() *WebhookEventStore      { return &WebhookEventStore{s} }

// CRMEventLog returns a copy of the recorded audit events.
func (s *Store) CRMEventLog() []entity.CRMEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.CRMEvent(nil), s.crmEvents...)
}

type SubscriptionRepository struct{ s *Store }

func (r *SubscriptionRepository) Upsert(_ context.Context, sub *entity.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.subscriptions[sub.UserID] = *sub
	return nil
}

func (r *SubscriptionRepository) UpdateStatus(_ context.Context, subscriptionID, status string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for user, sub := range r.s.subscriptions {
		if sub.StripeSubscriptionID == subscriptionID {
			sub.Status = status
			sub.UpdatedAt = at
			r.s.subscriptions[user] = sub
			return nil
		}
	}
	return entity.ErrNotFound
}

func (r *SubscriptionRepository) FindBySubscriptionID(_ context.Context, subscriptionID string) (*entity.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sub := range r.s.subscriptions {
		if sub.StripeSubscriptionID == subscriptionID {
			out := sub
			return &out, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (r *SubscriptionRepository) FindByUserID(_ context.Context, userID string) (*entity.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.subscriptions[userID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &sub, nil
}

type WorkspaceRepository struct{ s *Store }

func (r *WorkspaceRepository) Upsert(_ context.Context, ws *entity.Workspace) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	next := cloneWorkspace(*ws)
	if prev, ok := r.s.workspaces[ws.UserID]; ok {
		next.CreatedAt = prev.CreatedAt
		if prev.LocationID != "" {
			next.LocationID = prev.LocationID
		}
	}
	r.s.workspaces[ws.UserID] = next
	return nil
}

func (r *WorkspaceRepository) FindByUserID(_ context.Context, userID string) (*entity.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ws, ok := r.s.workspaces[userID]
	if !ok {
		return nil, entity.ErrNotFound
	}
	out := cloneWorkspace(ws)
	return &out, nil
}

func (r *WorkspaceRepository) FindByLocationID(_ context.Context, locationID string) (*entity.Workspace, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, ws := range r.s.workspaces {
		if ws.OwnsLocation(locationID) {
			out := cloneWorkspace(ws)
			return &out, nil
		}
	}
	return nil, entity.ErrNotFound
}

func cloneWorkspace(ws entity.Workspace) entity.Workspace {
	ws.SubAccounts = append([]entity.SubAccount(nil), ws.SubAccounts...)
	return ws
}

type ContactRepository struct{ s *Store }

func (r *ContactRepository) Upsert(_ context.Context, c *entity.Contact) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := mirrorKey{c.WorkspaceID, c.ExternalID}
	next := *c
	prev, exists := r.s.contacts[key]
	if exists {
		next.ID = prev.ID
		next.CreatedAt = prev.CreatedAt
	} else if next.ID == "" {
		next.ID = uuid.NewString()
	}
	r.s.contacts[key] = next
	c.ID = next.ID
	return !exists, nil
}

func (r *ContactRepository) UpdateByExternalID(_ context.Context, c *entity.Contact) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := mirrorKey{c.WorkspaceID, c.ExternalID}
	prev, ok := r.s.contacts[key]
	if !ok {
		return false, nil
	}
	prev.FirstName = c.FirstName
	prev.LastName = c.LastName
	prev.Email = c.Email
	prev.Phone = c.Phone
	prev.UpdatedAt = c.UpdatedAt
	r.s.contacts[key] = prev
	c.ID = prev.ID
	return true, nil
}

func (r *ContactRepository) ListByWorkspace(_ context.Context, workspaceID string) ([]*entity.Contact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Contact
	for k, c := range r.s.contacts {
		if k.workspace == workspaceID {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

type OpportunityRepository struct{ s *Store }

func (r *OpportunityRepository) Upsert(_ context.Context, o *entity.Opportunity) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := mirrorKey{o.WorkspaceID, o.ExternalID}
	next := *o
	prev, exists := r.s.opportunities[key]
	if exists {
		next.ID = prev.ID
		next.CreatedAt = prev.CreatedAt
	} else if next.ID == "" {
		next.ID = uuid.NewString()
	}
	r.s.opportunities[key] = next
	o.ID = next.ID
	return !exists, nil
}

func (r *OpportunityRepository) ListByWorkspace(_ context.Context, workspaceID string) ([]*entity.Opportunity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Opportunity
	for k, o := range r.s.opportunities {
		if k.workspace == workspaceID {
			o := o
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

type AppointmentRepository struct{ s *Store }

func (r *AppointmentRepository) Upsert(_ context.Context, a *entity.Appointment) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := mirrorKey{a.WorkspaceID, a.ExternalID}
	next := *a
	prev, exists := r.s.appointments[key]
	if exists {
		next.ID = prev.ID
		next.CreatedAt = prev.CreatedAt
	} else if next.ID == "" {
		next.ID = uuid.NewString()
	}
	r.s.appointments[key] = next
	a.ID = next.ID
	return !exists, nil
}

func (r *AppointmentRepository) ListByWorkspace(_ context.Context, workspaceID string) ([]*entity.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Appointment
	for k, a := range r.s.appointments {
		if k.workspace == workspaceID {
			a := a
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExternalID < out[j].ExternalID })
	return out, nil
}

type CRMEventRepository struct{ s *Store }

func (r *CRMEventRepository) Create(_ context.Context, e *entity.CRMEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	r.s.crmEvents = append(r.s.crmEvents, *e)
	return nil
}

type WebhookEventStore struct{ s *Store }

func (r *WebhookEventStore) Claim(_ context.Context, provider, eventID, _ string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := claimKey{provider, eventID}
	if _, seen := r.s.claims[key]; seen {
		return false, nil
	}
	r.s.claims[key] = r.s.now()
	return true, nil
}

func (r *WebhookEventStore) Release(_ context.Context, provider, eventID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.claims, claimKey{provider, eventID})
	return nil
}

func (r *WebhookEventStore) Prune(_ context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, at := range r.s.claims {
		if at.Before(before) {
			delete(r.s.claims, k)
			n++
		}
	}
	return n, nil
}

var (
	_ entity.SubscriptionRepository = (*SubscriptionRepository)(nil)
	_ entity.WorkspaceRepository    = (*WorkspaceRepository)(nil)
	_ entity.ContactRepository      = (*ContactRepository)(nil)
	_ entity.OpportunityRepository  = (*OpportunityRepository)(nil)
	_ entity.AppointmentRepository  = (*AppointmentRepository)(nil)
	_ entity.CRMEventRepository     = (*CRMEventRepository)(nil)
	_ entity.WebhookEventStore      = (*WebhookEventStore)(nil)
)
