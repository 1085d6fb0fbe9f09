// Package echo implements the demo vendor adapter. It POSTs each access
// operation to an echo endpoint (httpbingo.org by default) and treats a 200
// response as success, which makes it useful for exercising the full push
// pipeline without a real vendor portal.
package echo

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
	"github.com/ericfisherdev/portalaccess/internal/domain/port/driven"
	"github.com/ericfisherdev/portalaccess/internal/registry"
)

const (
	Slug  = "echo"
	Label = "Demo Echo (httpbingo)"

	defaultBaseURL = "https://httpbingo.org/post"
	retryInterval  = 500 * time.Millisecond
)

// Compile-time interface satisfaction check.
var _ driven.VendorAdapter = (*Adapter)(nil)

// Adapter posts access operations to an echo endpoint.
type Adapter struct {
	driven.UnimplementedAdapter

	portal   model.Portal
	settings driven.AdapterSettings
	client   *http.Client
}

// Entry returns the catalog entry for the echo adapter.
func Entry() registry.Entry {
	return registry.Entry{
		Descriptor: registry.Descriptor{
			Slug:           Slug,
			Label:          Label,
			RequiresConfig: true,
		},
		Factory: func(portal model.Portal, config, _ map[string]string) driven.VendorAdapter {
			return New(portal, config)
		},
	}
}

// New builds an echo adapter for one portal. Credentials are accepted by the
// factory but unused: the echo endpoint is unauthenticated.
func New(portal model.Portal, config map[string]string) *Adapter {
	settings := driven.ResolveSettings(portal, config, defaultBaseURL)

	transport := httpcache.NewMemoryCacheTransport()
	if !settings.SSLVerify {
		transport.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Adapter{
		portal:   portal,
		settings: settings,
		client: &http.Client{
			Transport: transport,
			Timeout:   settings.Timeout,
		},
	}
}

func (e *Adapter) Ping(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.settings.BaseURL, nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

func (e *Adapter) CreateAccess(ctx context.Context, a model.AccessAssignment) driven.PushResult {
	return e.postAction(ctx, model.ActionCreate, a)
}

func (e *Adapter) UpdateAccess(ctx context.Context, a model.AccessAssignment) driven.PushResult {
	return e.postAction(ctx, model.ActionUpdate, a)
}

func (e *Adapter) DeactivateAccess(ctx context.Context, a model.AccessAssignment) driven.PushResult {
	return e.postAction(ctx, model.ActionDeactivate, a)
}

func (e *Adapter) DeleteAccess(ctx context.Context, a model.AccessAssignment) driven.PushResult {
	return e.postAction(ctx, model.ActionDelete, a)
}

func (e *Adapter) UpsertAccess(ctx context.Context, a model.AccessAssignment) driven.PushResult {
	return driven.DefaultUpsert(ctx, e, a)
}

// payload is what gets posted to the echo endpoint for each operation.
type payload struct {
	Action       string `json:"action"`
	AssignmentID int64  `json:"assignment_id"`
	Subject      string `json:"subject"`
	Portal       string `json:"portal"`
	Role         string `json:"role,omitempty"`
	Active       bool   `json:"active"`
}

// postAction sends one operation to the echo endpoint. Transport errors are
// retried with a constant interval; HTTP error statuses are terminal because
// the endpoint did answer.
func (e *Adapter) postAction(ctx context.Context, action string, a model.AccessAssignment) driven.PushResult {
	p := payload{
		Action:       action,
		AssignmentID: a.ID,
		Subject:      a.SubjectName(),
		Portal:       e.portal.Name,
		Active:       a.Active,
	}
	if a.Role != nil {
		p.Role = a.Role.Name
	}

	body, err := json.Marshal(p)
	if err != nil {
		return driven.PushFailed(fmt.Sprintf("Echo failed (%s): %v", action, err))
	}

	var resp *http.Response
	send := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.settings.BaseURL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err = e.client.Do(req)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), uint64(e.settings.Retries)),
		ctx,
	)
	if err := backoff.Retry(send, policy); err != nil {
		return driven.PushFailed(fmt.Sprintf("Echo failed (%s): %v", action, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return driven.PushFailed(fmt.Sprintf("Echo failed (%s): %d", action, resp.StatusCode))
	}

	return driven.PushOK(fmt.Sprintf("Echo OK (%s)", action), remoteIDFor(a))
}

// remoteIDFor derives a stable pseudo remote identifier from the assignment
// identity, so repeated pushes of the same record agree on it.
func remoteIDFor(a model.AccessAssignment) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("echo:%d:%s", a.ID, a.SubjectName())))
	return hex.EncodeToString(sum[:8])
}
