package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
)

// ErrPortalNotFound is returned when an operation targets a portal that
// does not exist.
var ErrPortalNotFound = errors.New("portal not found")

// ErrPortalAlreadyExists is returned when creating a portal whose
// (vendor, name) pair is already taken.
var ErrPortalAlreadyExists = errors.New("portal already exists")

// PortalStore defines the driven port for portal persistence.
type PortalStore interface {
	Create(ctx context.Context, p model.Portal) (model.Portal, error)
	Update(ctx context.Context, p model.Portal) error
	Delete(ctx context.Context, id int64) error

	// GetByID returns nil, nil when the portal does not exist.
	GetByID(ctx context.Context, id int64) (*model.Portal, error)
	ListAll(ctx context.Context) ([]model.Portal, error)

	// SetLastSync stamps the portal's last sync-sweep time.
	SetLastSync(ctx context.Context, id int64, at time.Time) error
}
