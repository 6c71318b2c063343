package notifyrunner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repairhq/fieldservice/internal/domain/model"
	"github.com/repairhq/fieldservice/internal/service"
)

func TestRunnerProcessesQueuedTasks(t *testing.T) {
	runner := NewRunner(RunnerOptions{QueueSize: 8, Workers: 2})

	var mu sync.Mutex
	handled := make(map[string]int)
	done := make(chan struct{}, 3)

	handler := func(_ context.Context, task service.DeliveryTask) model.NotificationEntry {
		mu.Lock()
		handled[task.Recipient]++
		mu.Unlock()
		done <- struct{}{}
		return model.NotificationEntry{Role: task.Role, Channel: task.Channel, Attempted: true, Succeeded: true}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = runner.Run(ctx, handler) }()

	for _, to := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		require.True(t, runner.Enqueue(service.DeliveryTask{Recipient: to, Channel: model.ChannelEmail}))
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for deliveries")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, handled, 3)
}

func TestRunnerEnqueueFullQueue(t *testing.T) {
	runner := NewRunner(RunnerOptions{QueueSize: 1, Workers: 1})

	assert.True(t, runner.Enqueue(service.DeliveryTask{Recipient: "a@x.com"}))
	assert.False(t, runner.Enqueue(service.DeliveryTask{Recipient: "b@x.com"}), "a full queue never blocks the caller")
}

func TestRunnerSurvivesPanickingHandler(t *testing.T) {
	runner := NewRunner(RunnerOptions{QueueSize: 4, Workers: 1})

	done := make(chan struct{}, 2)
	handler := func(_ context.Context, task service.DeliveryTask) model.NotificationEntry {
		defer func() { done <- struct{}{} }()
		if task.Recipient == "boom" {
			panic("template exploded")
		}
		return model.NotificationEntry{Attempted: true, Succeeded: true}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = runner.Run(ctx, handler) }()

	require.True(t, runner.Enqueue(service.DeliveryTask{Recipient: "boom"}))
	require.True(t, runner.Enqueue(service.DeliveryTask{Recipient: "fine"}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker died after panic")
		}
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	runner := NewRunner(RunnerOptions{Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- runner.Run(ctx, func(context.Context, service.DeliveryTask) model.NotificationEntry {
			return model.NotificationEntry{}
		})
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop on cancel")
	}
}
