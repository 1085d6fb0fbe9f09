package model

import "time"

// Portal is a vendor-facing access surface, e.g. "Equinix Customer Portal".
// The owning vendor is opaque to the push pipeline; it is tracked as a
// free-form type plus name pair.
type Portal struct {
	ID         int64
	VendorType string // e.g. "provider" or "tenant"
	VendorName string
	Name       string

	// AdapterSlug selects the vendor integration, empty when none is
	// configured. It may reference a slug that is no longer registered;
	// resolution treats that the same as no integration.
	AdapterSlug string

	// BaseURL overrides the adapter's compiled-in default endpoint.
	BaseURL string

	// RequestTimeoutSeconds and RequestRetries tune the adapter's outbound
	// calls; zero means the adapter default applies.
	RequestTimeoutSeconds int
	RequestRetries        int

	// SSLVerify is tri-state: nil means the adapter default (verify).
	SSLVerify *bool

	Notes      string
	LastSyncAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
