package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
)

// ErrRoleNotFound is returned when an operation targets a role that does
// not exist.
var ErrRoleNotFound = errors.New("vendor role not found")

// ErrRoleAlreadyExists is returned when creating a role whose
// (portal, name) pair is already taken.
var ErrRoleAlreadyExists = errors.New("vendor role already exists")

// RoleStore defines the driven port for vendor role persistence.
type RoleStore interface {
	Create(ctx context.Context, r model.VendorRole) (model.VendorRole, error)
	Delete(ctx context.Context, id int64) error

	// GetByID returns nil, nil when the role does not exist.
	GetByID(ctx context.Context, id int64) (*model.VendorRole, error)
	ListByPortal(ctx context.Context, portalID int64) ([]model.VendorRole, error)
	ListAll(ctx context.Context) ([]model.VendorRole, error)
}
