// Package notifyrunner executes queued notification deliveries in a
// supervised worker pool, keeping third-party network latency off the
// request path.
package notifyrunner

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/repairhq/fieldservice/internal/domain/model"
	"github.com/repairhq/fieldservice/internal/service"
)

const (
	defaultQueueSize = 256
	defaultWorkers   = 4
)

// Handler executes one delivery task and returns the outcome entry.
type Handler func(ctx context.Context, task service.DeliveryTask) model.NotificationEntry

// Runner is a bounded queue with a fixed worker pool. It implements
// service.DeliveryQueue.
type Runner struct {
	queue   chan service.DeliveryTask
	workers int
	logger  *slog.Logger
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	QueueSize int // defaults to 256
	Workers   int // defaults to 4
	Logger    *slog.Logger
}

// NewRunner creates a notification runner.
func NewRunner(opts RunnerOptions) *Runner {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		queue:   make(chan service.DeliveryTask, opts.QueueSize),
		workers: opts.Workers,
		logger:  logger.With("component", "notify_runner"),
	}
}

// Enqueue hands a task to the pool without blocking. It returns false when
// the queue is full; the dispatcher reports that in the delivery entry.
func (r *Runner) Enqueue(task service.DeliveryTask) bool {
	select {
	case r.queue <- task:
		return true
	default:
		return false
	}
}

// Run processes tasks with the worker pool until ctx is cancelled. A failing
// or panicking delivery is logged and never takes the pool down.
func (r *Runner) Run(ctx context.Context, handle Handler) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < r.workers; i++ {
		worker := i
		g.Go(func() error {
			r.logger.DebugContext(ctx, "notification worker started", "worker", worker)
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case task := <-r.queue:
					r.process(ctx, handle, task)
				}
			}
		})
	}
	return g.Wait()
}

func (r *Runner) process(ctx context.Context, handle Handler, task service.DeliveryTask) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(ctx, "notification delivery panicked",
				"event", task.Event.Type, "role", task.Role, "channel", task.Channel, "panic", rec)
		}
	}()

	entry := handle(ctx, task)
	if !entry.Succeeded {
		r.logger.WarnContext(ctx, "background delivery failed",
			"event", task.Event.Type, "role", entry.Role, "channel", entry.Channel, "err", entry.Error)
	}
}
