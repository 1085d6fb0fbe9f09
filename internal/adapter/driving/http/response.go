package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
	"github.com/ericfisherdev/portalaccess/internal/secrets"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// PortalRequest carries the editable portal fields.
type PortalRequest struct {
	VendorType            string `json:"vendor_type"`
	VendorName            string `json:"vendor_name"`
	Name                  string `json:"name"`
	AdapterSlug           string `json:"adapter_slug"`
	BaseURL               string `json:"base_url"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	RequestRetries        int    `json:"request_retries"`
	SSLVerify             *bool  `json:"ssl_verify"`
	Notes                 string `json:"notes"`
}

// PortalResponse is the JSON representation of a portal.
type PortalResponse struct {
	ID                    int64   `json:"id"`
	VendorType            string  `json:"vendor_type"`
	VendorName            string  `json:"vendor_name"`
	Name                  string  `json:"name"`
	AdapterSlug           string  `json:"adapter_slug"`
	BaseURL               string  `json:"base_url"`
	RequestTimeoutSeconds int     `json:"request_timeout_seconds"`
	RequestRetries        int     `json:"request_retries"`
	SSLVerify             *bool   `json:"ssl_verify"`
	Notes                 string  `json:"notes"`
	LastSyncAt            *string `json:"last_sync_at"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

func toPortalResponse(p model.Portal) PortalResponse {
	return PortalResponse{
		ID:                    p.ID,
		VendorType:            p.VendorType,
		VendorName:            p.VendorName,
		Name:                  p.Name,
		AdapterSlug:           p.AdapterSlug,
		BaseURL:               p.BaseURL,
		RequestTimeoutSeconds: p.RequestTimeoutSeconds,
		RequestRetries:        p.RequestRetries,
		SSLVerify:             p.SSLVerify,
		Notes:                 p.Notes,
		LastSyncAt:            formatTimePtr(p.LastSyncAt),
		CreatedAt:             p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:             p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// applyPortalRequest copies the editable fields onto a portal.
func applyPortalRequest(p *model.Portal, req PortalRequest) {
	p.VendorType = req.VendorType
	p.VendorName = req.VendorName
	p.Name = req.Name
	p.AdapterSlug = req.AdapterSlug
	p.BaseURL = req.BaseURL
	p.RequestTimeoutSeconds = req.RequestTimeoutSeconds
	p.RequestRetries = req.RequestRetries
	p.SSLVerify = req.SSLVerify
	p.Notes = req.Notes
}

// RoleRequest carries the editable role fields; the portal comes from the path.
type RoleRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// RoleResponse is the JSON representation of a vendor role.
type RoleResponse struct {
	ID          int64  `json:"id"`
	PortalID    int64  `json:"portal_id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func toRoleResponse(r model.VendorRole) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		PortalID:    r.PortalID,
		Name:        r.Name,
		Category:    string(r.Category),
		Description: r.Description,
	}
}

// CredentialRequest is the plaintext credential mapping submitted by an
// operator. Values equal to the mask token mean "keep what is stored".
type CredentialRequest struct {
	Data map[string]string `json:"data"`
}

// CredentialResponse never carries plaintext: every non-empty value is
// replaced with the mask token.
type CredentialResponse struct {
	Data            map[string]string `json:"data"`
	LastTestAt      *string           `json:"last_test_at"`
	LastTestStatus  string            `json:"last_test_status"`
	LastTestMessage string            `json:"last_test_message"`
}

func toCredentialResponse(c *model.PortalCredential, plaintext map[string]string) CredentialResponse {
	masked := make(map[string]string, len(plaintext))
	for k, v := range plaintext {
		masked[k] = secrets.Mask(v)
	}

	resp := CredentialResponse{Data: masked}
	if c != nil {
		resp.LastTestAt = formatTimePtr(c.LastTestAt)
		resp.LastTestStatus = string(c.LastTestStatus)
		resp.LastTestMessage = c.LastTestMessage
	}
	return resp
}

// TestConnectionResponse is the outcome of a credential connection test.
type TestConnectionResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// AssignmentRequest carries the editable assignment fields.
type AssignmentRequest struct {
	UserName          string  `json:"user_name"`
	ContactName       string  `json:"contact_name"`
	PortalID          int64   `json:"portal_id"`
	RoleID            int64   `json:"role_id"`
	AccountIdentifier string  `json:"account_identifier"`
	UsernameOnPortal  string  `json:"username_on_portal"`
	Active            bool    `json:"active"`
	MFAType           string  `json:"mfa_type"`
	SSOProvider       string  `json:"sso_provider"`
	LastVerified      *string `json:"last_verified"`
	ExpiresOn         *string `json:"expires_on"`
	Notes             string  `json:"notes"`
}

// AssignmentResponse is the JSON representation of an access assignment.
// needs_push is derived from the push bookkeeping, never stored.
type AssignmentResponse struct {
	ID                int64   `json:"id"`
	UserName          string  `json:"user_name"`
	ContactName       string  `json:"contact_name"`
	PortalID          int64   `json:"portal_id"`
	RoleID            int64   `json:"role_id"`
	AccountIdentifier string  `json:"account_identifier"`
	UsernameOnPortal  string  `json:"username_on_portal"`
	Active            bool    `json:"active"`
	MFAType           string  `json:"mfa_type"`
	SSOProvider       string  `json:"sso_provider"`
	LastVerified      *string `json:"last_verified"`
	ExpiresOn         *string `json:"expires_on"`
	Notes             string  `json:"notes"`
	RemoteID          string  `json:"remote_id"`
	LastPushStatus    string  `json:"last_push_status"`
	LastPushAt        *string `json:"last_push_at"`
	LastPushMessage   string  `json:"last_push_message"`
	NeedsPush         bool    `json:"needs_push"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`

	// Populated only on single-assignment reads.
	Portal *PortalResponse `json:"portal,omitempty"`
	Role   *RoleResponse   `json:"role,omitempty"`
}

func toAssignmentResponse(a model.AccessAssignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:                a.ID,
		UserName:          a.UserName,
		ContactName:       a.ContactName,
		PortalID:          a.PortalID,
		RoleID:            a.RoleID,
		AccountIdentifier: a.AccountIdentifier,
		UsernameOnPortal:  a.UsernameOnPortal,
		Active:            a.Active,
		MFAType:           a.MFAType,
		SSOProvider:       a.SSOProvider,
		LastVerified:      formatTimePtr(a.LastVerified),
		ExpiresOn:         formatTimePtr(a.ExpiresOn),
		Notes:             a.Notes,
		RemoteID:          a.RemoteID,
		LastPushStatus:    string(a.LastPushStatus),
		LastPushAt:        formatTimePtr(a.LastPushAt),
		LastPushMessage:   a.LastPushMessage,
		NeedsPush:         a.NeedsPush(),
		CreatedAt:         a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         a.UpdatedAt.UTC().Format(time.RFC3339),
	}

	if a.Portal != nil {
		p := toPortalResponse(*a.Portal)
		resp.Portal = &p
	}
	if a.Role != nil {
		r := toRoleResponse(*a.Role)
		resp.Role = &r
	}

	return resp
}

// applyAssignmentRequest copies the editable fields onto an assignment.
// Timestamps are RFC 3339 or bare dates.
func applyAssignmentRequest(a *model.AccessAssignment, req AssignmentRequest) error {
	a.UserName = req.UserName
	a.ContactName = req.ContactName
	a.PortalID = req.PortalID
	a.RoleID = req.RoleID
	a.AccountIdentifier = req.AccountIdentifier
	a.UsernameOnPortal = req.UsernameOnPortal
	a.Active = req.Active
	a.MFAType = req.MFAType
	a.SSOProvider = req.SSOProvider
	a.Notes = req.Notes

	var err error
	if a.LastVerified, err = parseTimePtr(req.LastVerified); err != nil {
		return err
	}
	if a.ExpiresOn, err = parseTimePtr(req.ExpiresOn); err != nil {
		return err
	}
	return nil
}

// SyncResponse acknowledges a completed manual portal sync.
type SyncResponse struct {
	PortalID int64 `json:"portal_id"`
	Synced   bool  `json:"synced"`
}

// PushRequest selects the push action; empty means upsert.
type PushRequest struct {
	Action string `json:"action"`
}

// PushAcceptedResponse acknowledges an enqueued push job.
type PushAcceptedResponse struct {
	AssignmentID int64  `json:"assignment_id"`
	Action       string `json:"action"`
	Queued       bool   `json:"queued"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		if t, err = time.Parse("2006-01-02", *s); err != nil {
			return nil, err
		}
	}
	return &t, nil
}
