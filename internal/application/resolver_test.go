package application_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/portalaccess/internal/application"
	"github.com/ericfisherdev/portalaccess/internal/domain/model"
	"github.com/ericfisherdev/portalaccess/internal/domain/port/driven"
	"github.com/ericfisherdev/portalaccess/internal/registry"
	"github.com/ericfisherdev/portalaccess/internal/secrets"
)

// captureEntry builds a catalog entry that records what the factory was
// called with.
func captureEntry(slug string, gotConfig, gotCreds *map[string]string) registry.Entry {
	return registry.Entry{
		Descriptor: registry.Descriptor{Slug: slug, Label: slug},
		Factory: func(_ model.Portal, config, creds map[string]string) driven.VendorAdapter {
			*gotConfig = config
			*gotCreds = creds
			return &stubAdapter{}
		},
	}
}

func TestAdapterResolver_Resolve(t *testing.T) {
	codec, err := secrets.NewCodec("test-passphrase")
	require.NoError(t, err)

	ciphertext, err := codec.Encrypt(map[string]string{"api_key": "s3cr3t"})
	require.NoError(t, err)

	var gotConfig, gotCreds map[string]string
	catalog, err := registry.New(captureEntry("stub", &gotConfig, &gotCreds))
	require.NoError(t, err)

	creds := &mockCredentialStore{cred: &model.PortalCredential{PortalID: 1, DataEncrypted: ciphertext}}
	staticCfg := map[string]map[string]string{"stub": {"base_url": "https://cfg.example"}}

	r := application.NewAdapterResolver(catalog, codec, staticCfg, creds)

	adapter, err := r.Resolve(context.Background(), stubPortal())
	require.NoError(t, err)
	require.NotNil(t, adapter)

	assert.Equal(t, map[string]string{"base_url": "https://cfg.example"}, gotConfig)
	assert.Equal(t, map[string]string{"api_key": "s3cr3t"}, gotCreds)
}

func TestAdapterResolver_EmptySlug(t *testing.T) {
	catalog, err := registry.New()
	require.NoError(t, err)
	codec, err := secrets.NewCodec("test-passphrase")
	require.NoError(t, err)

	r := application.NewAdapterResolver(catalog, codec, nil, &mockCredentialStore{})

	portal := stubPortal()
	portal.AdapterSlug = ""

	adapter, err := r.Resolve(context.Background(), portal)
	require.NoError(t, err)
	assert.Nil(t, adapter)
}

func TestAdapterResolver_UnknownSlug(t *testing.T) {
	catalog, err := registry.New()
	require.NoError(t, err)
	codec, err := secrets.NewCodec("test-passphrase")
	require.NoError(t, err)

	r := application.NewAdapterResolver(catalog, codec, nil, &mockCredentialStore{})

	adapter, err := r.Resolve(context.Background(), stubPortal())
	require.NoError(t, err)
	assert.Nil(t, adapter)
}

func TestAdapterResolver_NoCredentialRow(t *testing.T) {
	codec, err := secrets.NewCodec("test-passphrase")
	require.NoError(t, err)

	var gotConfig, gotCreds map[string]string
	catalog, err := registry.New(captureEntry("stub", &gotConfig, &gotCreds))
	require.NoError(t, err)

	r := application.NewAdapterResolver(catalog, codec, nil, &mockCredentialStore{})

	adapter, err := r.Resolve(context.Background(), stubPortal())
	require.NoError(t, err)
	require.NotNil(t, adapter)

	// Both maps are empty, never nil.
	assert.NotNil(t, gotConfig)
	assert.Empty(t, gotConfig)
	assert.NotNil(t, gotCreds)
	assert.Empty(t, gotCreds)
}

func TestAdapterResolver_TamperedCredentialDegradesToEmpty(t *testing.T) {
	codec, err := secrets.NewCodec("test-passphrase")
	require.NoError(t, err)

	var gotConfig, gotCreds map[string]string
	catalog, err := registry.New(captureEntry("stub", &gotConfig, &gotCreds))
	require.NoError(t, err)

	creds := &mockCredentialStore{cred: &model.PortalCredential{PortalID: 1, DataEncrypted: "not-a-valid-token"}}
	r := application.NewAdapterResolver(catalog, codec, nil, creds)

	adapter, err := r.Resolve(context.Background(), stubPortal())
	require.NoError(t, err)
	require.NotNil(t, adapter)
	assert.Empty(t, gotCreds)
}

func TestAdapterResolver_Choices(t *testing.T) {
	codec, err := secrets.NewCodec("test-passphrase")
	require.NoError(t, err)

	catalog, err := registry.New(
		registry.Entry{
			Descriptor: registry.Descriptor{Slug: "open", Label: "Beta"},
			Factory: func(model.Portal, map[string]string, map[string]string) driven.VendorAdapter {
				return &stubAdapter{}
			},
		},
		registry.Entry{
			Descriptor: registry.Descriptor{Slug: "gated", Label: "Alpha", RequiredKeys: []string{"api_key"}},
			Factory: func(model.Portal, map[string]string, map[string]string) driven.VendorAdapter {
				return &stubAdapter{}
			},
		},
	)
	require.NoError(t, err)

	// Without static config the gated adapter is hidden.
	r := application.NewAdapterResolver(catalog, codec, nil, &mockCredentialStore{})
	choices := r.Choices()
	require.Len(t, choices, 1)
	assert.Equal(t, "open", choices[0].Slug)

	// With its required key present it appears, sorted by label.
	r = application.NewAdapterResolver(catalog, codec, map[string]map[string]string{
		"gated": {"api_key": "k"},
	}, &mockCredentialStore{})
	choices = r.Choices()
	require.Len(t, choices, 2)
	assert.Equal(t, "gated", choices[0].Slug)
	assert.Equal(t, "open", choices[1].Slug)
}
