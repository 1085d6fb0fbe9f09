package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
	"github.com/ericfisherdev/portalaccess/internal/domain/port/driven"
)

// syncRequest represents a manual single-portal sync trigger.
type syncRequest struct {
	portalID int64
	done     chan error
}

// SyncService periodically sweeps for assignments that need a push and
// enqueues them. It is the reconciliation half of the pipeline: direct
// pushes handle the interactive path, the sweep catches everything that
// was edited without one.
type SyncService struct {
	portals     driven.PortalStore
	assignments driven.AssignmentStore
	queue       driven.PushQueue
	interval    time.Duration
	refreshCh   chan syncRequest
}

// NewSyncService creates a SyncService sweeping on the given interval.
func NewSyncService(
	portals driven.PortalStore,
	assignments driven.AssignmentStore,
	queue driven.PushQueue,
	interval time.Duration,
) *SyncService {
	return &SyncService{
		portals:     portals,
		assignments: assignments,
		queue:       queue,
		interval:    interval,
		refreshCh:   make(chan syncRequest),
	}
}

// Start begins the sweep loop. It runs an immediate sweep, then sweeps on
// the configured interval, and also serves manual portal syncs. Start
// blocks until the context is canceled.
func (s *SyncService) Start(ctx context.Context) {
	if err := s.sweep(ctx); err != nil {
		slog.Error("initial sync sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync service stopped")
			return
		case <-ticker.C:
			if err := s.sweep(ctx); err != nil {
				slog.Error("sync sweep failed", "error", err)
			}
		case req := <-s.refreshCh:
			req.done <- s.sweepPortal(ctx, req.portalID)
		}
	}
}

// RefreshPortal triggers an immediate sweep of one portal, bypassing the
// interval. It blocks until the sweep completes or the context is canceled.
func (s *SyncService) RefreshPortal(ctx context.Context, portalID int64) error {
	done := make(chan error, 1)
	req := syncRequest{portalID: portalID, done: done}

	select {
	case s.refreshCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sweep enqueues an upsert for every assignment needing a push and stamps
// the sync time on each portal that had work.
func (s *SyncService) sweep(ctx context.Context) error {
	start := time.Now()

	need, err := s.assignments.ListNeedingPush(ctx)
	if err != nil {
		return err
	}

	touched := make(map[int64]struct{})
	for _, a := range need {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.queue.Enqueue(a.ID, model.ActionUpsert)
		touched[a.PortalID] = struct{}{}
	}

	now := time.Now().UTC()
	for portalID := range touched {
		if err := s.portals.SetLastSync(ctx, portalID, now); err != nil {
			slog.Error("stamp last sync failed", "portal", portalID, "error", err)
		}
	}

	slog.Info("sync sweep complete",
		"enqueued", len(need),
		"portals", len(touched),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return nil
}

// sweepPortal is the manual-sync path for a single portal. The portal is
// stamped even when nothing needed a push: an operator-requested sync did
// happen.
func (s *SyncService) sweepPortal(ctx context.Context, portalID int64) error {
	p, err := s.portals.GetByID(ctx, portalID)
	if err != nil {
		return err
	}
	if p == nil {
		return driven.ErrPortalNotFound
	}

	need, err := s.assignments.ListNeedingPush(ctx)
	if err != nil {
		return err
	}

	var enqueued int
	for _, a := range need {
		if a.PortalID != portalID {
			continue
		}
		s.queue.Enqueue(a.ID, model.ActionUpsert)
		enqueued++
	}

	if err := s.portals.SetLastSync(ctx, portalID, time.Now().UTC()); err != nil {
		return err
	}

	slog.Info("portal synced", "portal", portalID, "enqueued", enqueued)
	return nil
}
