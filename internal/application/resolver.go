// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
	"github.com/ericfisherdev/portalaccess/internal/domain/port/driven"
	"github.com/ericfisherdev/portalaccess/internal/registry"
	"github.com/ericfisherdev/portalaccess/internal/secrets"
)

// AdapterResolver turns a portal into a ready-to-use vendor adapter: catalog
// lookup, static configuration, and decrypted credentials in one place.
type AdapterResolver struct {
	catalog   *registry.Catalog
	codec     *secrets.Codec
	staticCfg map[string]map[string]string
	credStore driven.CredentialStore
}

// NewAdapterResolver creates a resolver. staticCfg maps adapter slugs to
// their deployment-level configuration and may be nil.
func NewAdapterResolver(
	catalog *registry.Catalog,
	codec *secrets.Codec,
	staticCfg map[string]map[string]string,
	credStore driven.CredentialStore,
) *AdapterResolver {
	return &AdapterResolver{
		catalog:   catalog,
		codec:     codec,
		staticCfg: staticCfg,
		credStore: credStore,
	}
}

// Resolve builds the adapter for a portal. A portal with no adapter slug, or
// with a slug the catalog does not know, resolves to nil, nil: "no adapter
// configured" is an expected state, not an error. Errors are reserved for
// credential loading failures.
func (r *AdapterResolver) Resolve(ctx context.Context, p model.Portal) (driven.VendorAdapter, error) {
	if p.AdapterSlug == "" {
		return nil, nil
	}

	entry, ok := r.catalog.Get(p.AdapterSlug)
	if !ok {
		return nil, nil
	}

	config := r.staticCfg[p.AdapterSlug]
	if config == nil {
		config = map[string]string{}
	}

	creds := map[string]string{}
	cred, err := r.credStore.GetByPortal(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("load credential for portal %d: %w", p.ID, err)
	}
	if cred != nil {
		creds = r.codec.Decrypt(cred.DataEncrypted)
	}

	return entry.Factory(p, config, creds), nil
}

// Choices returns the adapters operators may select, given the static
// configuration this deployment carries.
func (r *AdapterResolver) Choices() []registry.Choice {
	return r.catalog.AvailableChoices(r.staticCfg)
}
