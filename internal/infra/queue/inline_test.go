package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runnerFunc func(ctx context.Context, p ProvisioningPayload) error

func (f runnerFunc) RunProvisioning(ctx context.Context, p ProvisioningPayload) error { return f(ctx, p) }

func TestInlineDispatcherRunsJob(t *testing.T) {
	done := make(chan ProvisioningPayload, 1)
	d := NewInlineDispatcher(runnerFunc(func(ctx context.Context, p ProvisioningPayload) error {
		done <- p
		return nil
	}), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.PublishProvisioning(ctx, ProvisioningPayload{JobID: "job-1", UserID: "u-1"}))
	cancel()

	select {
	case p := <-done:
		assert.Equal(t, "job-1", p.JobID)
	case <-time.After(time.Second):
		t.Fatal("job was not run")
	}
}

func TestInlineDispatcherSwallowsRunnerError(t *testing.T) {
	done := make(chan struct{})
	d := NewInlineDispatcher(runnerFunc(func(ctx context.Context, p ProvisioningPayload) error {
		defer close(done)
		return errors.New("crm down")
	}), zerolog.Nop())

	assert.NoError(t, d.PublishProvisioning(context.Background(), ProvisioningPayload{JobID: "job-2"}))
	<-done
}
