package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gearbox_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishSyncInvokesAllHandlersAndJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var calls int
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, e Event) error {
		calls++
		return nil
	}))
	wantErr := errors.New("handler failure")
	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, e Event) error {
		calls++
		return wantErr
	}))

	err := bus.PublishSync(context.Background(), testEvent{NewBaseEvent(), "test.event"})
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected joined error to contain handler failure, got %v", err)
	}
}

func TestPublishIsAsyncAndScoped(t *testing.T) {
	bus := NewInMemoryBus(logger.New("development"))

	var wg sync.WaitGroup
	wg.Add(1)
	bus.Subscribe("test.async", HandlerFunc(func(ctx context.Context, e Event) error {
		defer wg.Done()
		// Handler context must survive caller cancellation.
		if ctx.Err() != nil {
			t.Error("handler context cancelled with caller")
		}
		return nil
	}))
	bus.Subscribe("test.other", HandlerFunc(func(ctx context.Context, e Event) error {
		t.Error("handler for different event name must not fire")
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, testEvent{NewBaseEvent(), "test.async"})
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("async handler did not run")
	}
}
