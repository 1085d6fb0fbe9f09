package driven

import (
	"context"
	"time"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
)

// Fallbacks applied when a portal does not specify its own transport settings.
const (
	DefaultTimeout = 10 * time.Second
	DefaultRetries = 3
)

// PushResult is the structured outcome of a single adapter operation.
// Every operation returns one; adapters never panic past this boundary by
// contract (the orchestrator still guards against it).
type PushResult struct {
	OK      bool
	Message string

	// RemoteID is the vendor-side identifier produced or confirmed by the
	// operation. Empty means the operation has nothing to say about it;
	// the orchestrator decides what happens to the stored value.
	RemoteID string
}

// PushOK builds a success result.
func PushOK(message, remoteID string) PushResult {
	return PushResult{OK: true, Message: message, RemoteID: remoteID}
}

// PushFailed builds a failure result.
func PushFailed(message string) PushResult {
	return PushResult{OK: false, Message: message}
}

// ReadResult is the outcome of a read-back of remote state.
type ReadResult struct {
	OK      bool
	Message string
	State   map[string]any
}

// VendorAdapter is the contract every vendor integration implements.
// Concrete adapters are produced by registry factories with the owning
// portal, their static configuration, and the decrypted credential bundle.
type VendorAdapter interface {
	// Ping is a cheap liveness/credential check. The no-op default is true.
	Ping(ctx context.Context) bool

	CreateAccess(ctx context.Context, a model.AccessAssignment) PushResult
	ReadAccess(ctx context.Context, a model.AccessAssignment) ReadResult
	UpdateAccess(ctx context.Context, a model.AccessAssignment) PushResult

	// DeactivateAccess suspends remote access without deleting it;
	// DeleteAccess removes it permanently. The stored remote id is
	// governed by the orchestrator, not by these results.
	DeactivateAccess(ctx context.Context, a model.AccessAssignment) PushResult
	DeleteAccess(ctx context.Context, a model.AccessAssignment) PushResult

	UpsertAccess(ctx context.Context, a model.AccessAssignment) PushResult
}

// UnimplementedAdapter provides the default stubs: Ping succeeds, every
// other operation returns a fixed "not implemented" failure. Concrete
// adapters embed it and override what their vendor supports.
type UnimplementedAdapter struct{}

func (UnimplementedAdapter) Ping(context.Context) bool { return true }

func (UnimplementedAdapter) CreateAccess(context.Context, model.AccessAssignment) PushResult {
	return PushFailed("create not implemented")
}

func (UnimplementedAdapter) ReadAccess(context.Context, model.AccessAssignment) ReadResult {
	return ReadResult{OK: false, Message: "read not implemented"}
}

func (UnimplementedAdapter) UpdateAccess(context.Context, model.AccessAssignment) PushResult {
	return PushFailed("update not implemented")
}

func (UnimplementedAdapter) DeactivateAccess(context.Context, model.AccessAssignment) PushResult {
	return PushFailed("deactivate not implemented")
}

func (UnimplementedAdapter) DeleteAccess(context.Context, model.AccessAssignment) PushResult {
	return PushFailed("delete not implemented")
}

func (UnimplementedAdapter) UpsertAccess(context.Context, model.AccessAssignment) PushResult {
	return PushFailed("upsert not implemented")
}

// DefaultUpsert implements the standard upsert policy: update when the
// assignment already has a remote id, create otherwise. The two branches
// are exhaustive and mutually exclusive. Concrete adapters typically
// implement UpsertAccess by delegating here; a method on the embedded base
// cannot do it because the base would not see the adapter's overrides.
func DefaultUpsert(ctx context.Context, adapter VendorAdapter, a model.AccessAssignment) PushResult {
	if a.RemoteID != "" {
		res := adapter.UpdateAccess(ctx, a)
		res.RemoteID = a.RemoteID
		return res
	}
	return adapter.CreateAccess(ctx, a)
}

// AdapterSettings are the transport knobs an adapter derives from its
// portal and static configuration at construction time.
type AdapterSettings struct {
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	SSLVerify bool
}

// ResolveSettings derives adapter settings. BaseURL priority: explicit
// "base_url" config override, then the portal's own base URL, then the
// adapter's compiled-in default. Timeout, retries and TLS verification come
// from the portal with fixed fallbacks when unset.
func ResolveSettings(p model.Portal, config map[string]string, defaultBaseURL string) AdapterSettings {
	base := config["base_url"]
	if base == "" {
		base = p.BaseURL
	}
	if base == "" {
		base = defaultBaseURL
	}

	timeout := DefaultTimeout
	if p.RequestTimeoutSeconds > 0 {
		timeout = time.Duration(p.RequestTimeoutSeconds) * time.Second
	}

	retries := DefaultRetries
	if p.RequestRetries > 0 {
		retries = p.RequestRetries
	}

	verify := true
	if p.SSLVerify != nil {
		verify = *p.SSLVerify
	}

	return AdapterSettings{
		BaseURL:   base,
		Timeout:   timeout,
		Retries:   retries,
		SSLVerify: verify,
	}
}
