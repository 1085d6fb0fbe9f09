package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
	"github.com/ericfisherdev/portalaccess/internal/domain/port/driven"
)

// ErrNoAdapterConfigured is returned by TestConnection when the portal has
// no usable adapter.
var ErrNoAdapterConfigured = errors.New("no adapter configured on portal")

const (
	// maxPushMessageRunes caps the stored push message length.
	maxPushMessageRunes = 4000

	noAdapterMessage = "No adapter configured on portal."
)

// PushService executes push actions against vendor portals and records
// their outcomes. Every attempt against an existing assignment ends in a
// recorded result; adapter failures and panics are outcomes, not errors.
type PushService struct {
	assignments driven.AssignmentStore
	creds       driven.CredentialStore
	resolver    *AdapterResolver
	locks       *keyedMutex
}

// NewPushService creates a PushService.
func NewPushService(assignments driven.AssignmentStore, creds driven.CredentialStore, resolver *AdapterResolver) *PushService {
	return &PushService{
		assignments: assignments,
		creds:       creds,
		resolver:    resolver,
		locks:       newKeyedMutex(),
	}
}

// Push runs one push action for an assignment and records the outcome.
// Concurrent pushes for the same assignment are serialized so their result
// writes cannot interleave. The returned error covers infrastructure
// problems only (missing assignment, storage failures); a failed push is
// reported through the recorded FAILED result, not the error.
func (s *PushService) Push(ctx context.Context, assignmentID int64, action string) error {
	unlock := s.locks.lock(assignmentID)
	defer unlock()

	a, err := s.assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return fmt.Errorf("load assignment %d: %w", assignmentID, err)
	}
	if a == nil {
		return fmt.Errorf("push assignment %d: %w", assignmentID, driven.ErrAssignmentNotFound)
	}

	adapter, err := s.resolver.Resolve(ctx, *a.Portal)
	if err != nil {
		return s.record(ctx, a, action, driven.PushFailed(fmt.Sprintf("resolve adapter: %v", err)))
	}
	if adapter == nil {
		return s.record(ctx, a, action, driven.PushFailed(noAdapterMessage))
	}

	res := s.dispatch(ctx, adapter, action, *a)
	return s.record(ctx, a, action, res)
}

// TestConnection pings the portal's adapter and records the outcome on the
// portal's credential row. Returns ErrNoAdapterConfigured when the portal
// cannot resolve to an adapter.
func (s *PushService) TestConnection(ctx context.Context, p model.Portal) (model.TestStatus, string, error) {
	adapter, err := s.resolver.Resolve(ctx, p)
	if err != nil {
		return "", "", fmt.Errorf("resolve adapter for portal %d: %w", p.ID, err)
	}
	if adapter == nil {
		return "", "", ErrNoAdapterConfigured
	}

	status, message := model.TestStatusOK, "OK"
	if !s.ping(ctx, adapter, p.ID) {
		status, message = model.TestStatusFailed, "Ping failed"
	}

	if err := s.creds.RecordTestResult(ctx, p.ID, time.Now().UTC(), status, message); err != nil {
		return "", "", fmt.Errorf("record test result for portal %d: %w", p.ID, err)
	}

	slog.Info("connection tested", "portal", p.ID, "status", string(status))
	return status, message, nil
}

// dispatch routes the action to the adapter operation. Unknown actions fall
// through to upsert. A panicking adapter is converted into a FAILED result
// here so one bad integration cannot take the worker down.
func (s *PushService) dispatch(ctx context.Context, adapter driven.VendorAdapter, action string, a model.AccessAssignment) (res driven.PushResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("adapter panic during push", "assignment", a.ID, "action", action, "panic", r)
			res = driven.PushFailed(fmt.Sprintf("panic during push: %v", r))
		}
	}()

	switch action {
	case model.ActionCreate:
		return adapter.CreateAccess(ctx, a)
	case model.ActionUpdate:
		return adapter.UpdateAccess(ctx, a)
	case model.ActionDeactivate:
		return adapter.DeactivateAccess(ctx, a)
	case model.ActionDelete:
		return adapter.DeleteAccess(ctx, a)
	default:
		return adapter.UpsertAccess(ctx, a)
	}
}

func (s *PushService) ping(ctx context.Context, adapter driven.VendorAdapter, portalID int64) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("adapter panic during ping", "portal", portalID, "panic", r)
			ok = false
		}
	}()
	return adapter.Ping(ctx)
}

func (s *PushService) record(ctx context.Context, a *model.AccessAssignment, action string, res driven.PushResult) error {
	rec := pushRecordFor(action, res)
	if err := s.assignments.RecordPushResult(ctx, a.ID, rec); err != nil {
		return fmt.Errorf("record push result for assignment %d: %w", a.ID, err)
	}

	slog.Info("push recorded",
		"assignment", a.ID,
		"subject", a.SubjectName(),
		"action", action,
		"status", string(rec.Status),
	)
	return nil
}

// pushRecordFor maps an adapter result onto the stored push fields.
// Remote id handling depends on the action: a successful delete clears it,
// deactivate never touches it, and everything else stores the id the
// adapter reported (if any).
func pushRecordFor(action string, res driven.PushResult) driven.PushRecord {
	rec := driven.PushRecord{
		PushedAt: time.Now().UTC(),
		Message:  truncateMessage(res.Message),
	}

	if res.OK {
		rec.Status = model.PushStatusSuccess
	} else {
		rec.Status = model.PushStatusFailed
	}

	switch action {
	case model.ActionDelete:
		rec.ClearRemoteID = res.OK
	case model.ActionDeactivate:
		// The remote account still exists; keep its id.
	default:
		if res.RemoteID != "" {
			rid := res.RemoteID
			rec.RemoteID = &rid
		}
	}

	return rec
}

func truncateMessage(s string) string {
	r := []rune(s)
	if len(r) <= maxPushMessageRunes {
		return s
	}
	return string(r[:maxPushMessageRunes])
}

// keyedMutex hands out one mutex per assignment id, dropping entries once
// nobody holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*lockEntry)}
}

// lock blocks until the per-id mutex is held and returns its release func.
func (k *keyedMutex) lock(id int64) func() {
	k.mu.Lock()
	e, ok := k.locks[id]
	if !ok {
		e = &lockEntry{}
		k.locks[id] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
