package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrTaskSkipped = errors.New("skipped after an earlier critical failure")

// TaskOutcome is the result of one task in a sequence.
type TaskOutcome struct {
	Name     string
	Attempts int
	Err      error
}

func (o TaskOutcome) OK() bool { return o.Err == nil }

type Task struct {
	Name     string
	Critical bool
	Fn       func(context.Context) error
}

// TaskSequence runs tasks one after another with a fixed pause between them.
// Each task is retried with exponential backoff. A failing task never stops the
// sequence unless it is critical.
type TaskSequence struct {
	tasks    []Task
	delay    time.Duration
	attempts int
	backoff  time.Duration

	// Sleep waits for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
	// Retryable reports whether a failed attempt may be repeated. Nil retries every error.
	Retryable func(err error) bool
}

func NewTaskSequence(delay time.Duration, attempts int) *TaskSequence {
	if attempts < 1 {
		attempts = 1
	}
	return &TaskSequence{
		delay:    delay,
		attempts: attempts,
		backoff:  500 * time.Millisecond,
		Sleep:    sleepContext,
	}
}

func (s *TaskSequence) Add(name string, fn func(context.Context) error) {
	s.tasks = append(s.tasks, Task{Name: name, Fn: fn})
}

// AddCritical adds a task whose failure skips every task after it.
func (s *TaskSequence) AddCritical(name string, fn func(context.Context) error) {
	s.tasks = append(s.tasks, Task{Name: name, Critical: true, Fn: fn})
}

func (s *TaskSequence) Len() int { return len(s.tasks) }

// Run executes all tasks and returns one outcome per task, in order.
func (s *TaskSequence) Run(ctx context.Context) []TaskOutcome {
	outcomes := make([]TaskOutcome, 0, len(s.tasks))
	halted := false

	for i, t := range s.tasks {
		if halted {
			outcomes = append(outcomes, TaskOutcome{Name: t.Name, Err: ErrTaskSkipped})
			continue
		}
		if i > 0 && s.delay > 0 {
			if err := s.Sleep(ctx, s.delay); err != nil {
				outcomes = append(outcomes, TaskOutcome{Name: t.Name, Err: err})
				halted = true
				continue
			}
		}

		oc := s.runTask(ctx, t)
		outcomes = append(outcomes, oc)
		if !oc.OK() && (t.Critical || ctx.Err() != nil) {
			halted = true
		}
	}
	return outcomes
}

func (s *TaskSequence) runTask(ctx context.Context, t Task) TaskOutcome {
	oc := TaskOutcome{Name: t.Name}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = s.backoff
	exp.RandomizationFactor = 0
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(s.attempts-1)), ctx)

	op := func() error {
		oc.Attempts++
		err := t.Fn(ctx)
		if err != nil && s.Retryable != nil && !s.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.RetryNotifyWithTimer(op, b, nil, &sleepTimer{ctx: ctx, sleep: s.Sleep}); err != nil {
		oc.Err = fmt.Errorf("%s: %w", t.Name, err)
	}
	return oc
}

// sleepTimer drives backoff waits through TaskSequence.Sleep.
type sleepTimer struct {
	ctx   context.Context
	sleep func(context.Context, time.Duration) error
	c     chan time.Time
}

func (t *sleepTimer) Start(d time.Duration) {
	if t.c == nil {
		t.c = make(chan time.Time, 1)
	}
	if err := t.sleep(t.ctx, d); err != nil && t.ctx.Err() != nil {
		return
	}
	t.c <- time.Now()
}

func (t *sleepTimer) Stop() {}

func (t *sleepTimer) C() <-chan time.Time { return t.c }

func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
