// Package registry holds the immutable catalog of vendor adapters.
//
// The catalog is built once in the composition root and passed by
// reference to everything that needs to look adapters up; there is no
// mutable global registration.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
	"github.com/ericfisherdev/portalaccess/internal/domain/port/driven"
)

// Factory produces a ready-to-use adapter for one portal. config is the
// adapter's static configuration and creds the decrypted credential bundle;
// both may be empty, never nil.
type Factory func(portal model.Portal, config, creds map[string]string) driven.VendorAdapter

// Descriptor identifies a vendor integration.
type Descriptor struct {
	Slug           string
	Label          string
	RequiresConfig bool

	// RequiredKeys must all be present in the adapter's static
	// configuration for it to be offered to operators.
	RequiredKeys []string
}

// Entry pairs a descriptor with its factory.
type Entry struct {
	Descriptor Descriptor
	Factory    Factory
}

// Choice is one selectable adapter, for operator-facing pickers.
type Choice struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// Catalog is a read-only slug-to-adapter lookup.
type Catalog struct {
	entries map[string]Entry
}

// New builds a catalog. Duplicate slugs, empty slugs, and nil factories
// fail fast: a misassembled catalog is a programming error, not something
// to paper over at lookup time.
func New(entries ...Entry) (*Catalog, error) {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if e.Descriptor.Slug == "" {
			return nil, fmt.Errorf("adapter %q: empty slug", e.Descriptor.Label)
		}
		if e.Factory == nil {
			return nil, fmt.Errorf("adapter %q: nil factory", e.Descriptor.Slug)
		}
		if _, dup := m[e.Descriptor.Slug]; dup {
			return nil, fmt.Errorf("adapter %q: duplicate slug", e.Descriptor.Slug)
		}
		m[e.Descriptor.Slug] = e
	}
	return &Catalog{entries: m}, nil
}

// Get looks up an adapter entry by slug.
func (c *Catalog) Get(slug string) (Entry, bool) {
	e, ok := c.entries[slug]
	return e, ok
}

// Slugs returns all registered slugs in no particular order.
func (c *Catalog) Slugs() []string {
	out := make([]string, 0, len(c.entries))
	for slug := range c.entries {
		out = append(out, slug)
	}
	return out
}

// AvailableChoices returns the adapters an operator may actually select,
// sorted by label case-insensitively. An adapter with required
// configuration keys is included only when the static configuration for
// its slug contains every one of them; adapters with no required keys are
// always included.
func (c *Catalog) AvailableChoices(staticCfg map[string]map[string]string) []Choice {
	out := make([]Choice, 0, len(c.entries))

	for slug, e := range c.entries {
		if !configSatisfied(e.Descriptor, staticCfg[slug]) {
			continue
		}
		out = append(out, Choice{Slug: slug, Label: e.Descriptor.Label})
	}

	sort.Slice(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].Label), strings.ToLower(out[j].Label)
		if li != lj {
			return li < lj
		}
		return out[i].Slug < out[j].Slug
	})

	return out
}

func configSatisfied(d Descriptor, cfg map[string]string) bool {
	if len(d.RequiredKeys) == 0 {
		return true
	}
	if cfg == nil {
		return false
	}
	for _, key := range d.RequiredKeys {
		if _, ok := cfg[key]; !ok {
			return false
		}
	}
	return true
}
