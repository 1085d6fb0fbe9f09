// Package queue provides the in-process background push queue.
package queue

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ericfisherdev/portalaccess/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PushQueue = (*PushQueue)(nil)

// PushFunc executes one push job. It is the application layer's Push
// operation, injected to keep this package free of service dependencies.
type PushFunc func(ctx context.Context, assignmentID int64, action string) error

type job struct {
	id           string
	assignmentID int64
	action       string
}

// PushQueue fans push jobs out to a fixed pool of workers over a buffered
// channel. Enqueue never blocks: when the buffer is full the job is dropped
// and logged, and the next sync sweep picks the assignment up again.
type PushQueue struct {
	push    PushFunc
	jobs    chan job
	workers int
}

// New creates a queue with the given buffer size and worker count.
func New(push PushFunc, size, workers int) *PushQueue {
	return &PushQueue{
		push:    push,
		jobs:    make(chan job, size),
		workers: workers,
	}
}

// Enqueue submits a push job. Fire-and-forget; the outcome lands on the
// assignment's push result fields.
func (q *PushQueue) Enqueue(assignmentID int64, action string) {
	j := job{
		id:           uuid.NewString(),
		assignmentID: assignmentID,
		action:       action,
	}

	select {
	case q.jobs <- j:
		slog.Debug("push job enqueued", "job", j.id, "assignment", assignmentID, "action", action)
	default:
		slog.Warn("push queue full, dropping job", "assignment", assignmentID, "action", action)
	}
}

// Start launches the worker pool. It blocks until the context is canceled
// and every worker has drained out.
func (q *PushQueue) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			q.run(ctx, worker)
		}(i)
	}
	wg.Wait()
	slog.Info("push queue stopped")
}

func (q *PushQueue) run(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-q.jobs:
			if err := q.push(ctx, j.assignmentID, j.action); err != nil {
				slog.Error("push job failed",
					"job", j.id,
					"worker", worker,
					"assignment", j.assignmentID,
					"action", j.action,
					"error", err,
				)
			}
		}
	}
}
