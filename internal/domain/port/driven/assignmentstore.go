package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
)

// ErrAssignmentNotFound is returned when an operation targets an
// assignment that does not exist.
var ErrAssignmentNotFound = errors.New("access assignment not found")

// AssignmentFilter narrows List results. Nil fields mean "any".
type AssignmentFilter struct {
	PortalID *int64
	Active   *bool
}

// PushRecord is the atomic outcome written at the end of one push attempt.
// The store must apply all fields in a single write so a concurrent reader
// never observes a half-updated result.
type PushRecord struct {
	Status   model.PushStatus
	PushedAt time.Time

	// Message is stored as NULL when empty. Callers truncate before
	// handing it over.
	Message string

	// RemoteID semantics: nil leaves the stored remote id untouched;
	// non-nil replaces it. ClearRemoteID forces it to NULL (successful
	// remote delete) and wins over RemoteID.
	RemoteID      *string
	ClearRemoteID bool
}

// AssignmentStore defines the driven port for access assignment
// persistence.
type AssignmentStore interface {
	Create(ctx context.Context, a model.AccessAssignment) (model.AccessAssignment, error)
	Update(ctx context.Context, a model.AccessAssignment) error
	Delete(ctx context.Context, id int64) error

	// GetByID returns the assignment with its Portal and Role relations
	// populated. Returns nil, nil when the assignment does not exist.
	GetByID(ctx context.Context, id int64) (*model.AccessAssignment, error)

	List(ctx context.Context, f AssignmentFilter) ([]model.AccessAssignment, error)

	// ListNeedingPush returns active assignments whose last modification
	// is newer than their last push attempt (or that were never pushed).
	ListNeedingPush(ctx context.Context) ([]model.AccessAssignment, error)

	// RecordPushResult writes the push outcome fields for one assignment.
	// It must not bump the assignment's updated_at: recording a result is
	// not a user edit, and a successful push of an otherwise-unchanged
	// record must leave it not needing a push.
	RecordPushResult(ctx context.Context, id int64, rec PushRecord) error
}
