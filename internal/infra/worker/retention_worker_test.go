package worker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"github.com/saintvisionai/platform-api/internal/entity"
)

type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) Claim(ctx context.Context, provider, eventID, eventType string) (bool, error) {
	args := m.Called(ctx, provider, eventID, eventType)
	return args.Bool(0), args.Error(1)
}

func (m *MockEventStore) Release(ctx context.Context, provider, eventID string) error {
	return m.Called(ctx, provider, eventID).Error(0)
}

func (m *MockEventStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

var _ entity.WebhookEventStore = (*MockEventStore)(nil)

func TestRetentionWorker_PrunesOnStartAndStops(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	store := new(MockEventStore)
	pruned := make(chan struct{})
	store.On("Prune", mock.Anything, now.Add(-72*time.Hour)).Return(int64(3), nil).Once().
		Run(func(mock.Arguments) { close(pruned) })

	w := NewRetentionWorker(store, 72*time.Hour, zerolog.Nop())
	w.now = func() time.Time { return now }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	select {
	case <-pruned:
	case <-time.After(time.Second):
		t.Fatal("worker did not prune on start")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	store.AssertExpectations(t)
}
