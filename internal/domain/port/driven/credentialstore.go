package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
)

// CredentialStore defines the driven port for portal credential
// persistence. The store holds ciphertext only; encryption and decryption
// happen at the secrets codec boundary, never here.
type CredentialStore interface {
	// Upsert stores or replaces the credential row for c.PortalID.
	Upsert(ctx context.Context, c model.PortalCredential) error

	// GetByPortal returns nil, nil when the portal has no credential row.
	GetByPortal(ctx context.Context, portalID int64) (*model.PortalCredential, error)

	// RecordTestResult writes the connection-test outcome. A portal
	// without a credential row is left untouched.
	RecordTestResult(ctx context.Context, portalID int64, at time.Time, status model.TestStatus, message string) error

	Delete(ctx context.Context, portalID int64) error
}
