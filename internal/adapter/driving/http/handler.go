// Package httphandler is the HTTP driving adapter serving the REST API.
package httphandler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/portalaccess/internal/application"
	"github.com/ericfisherdev/portalaccess/internal/domain/model"
	"github.com/ericfisherdev/portalaccess/internal/domain/port/driven"
	"github.com/ericfisherdev/portalaccess/internal/secrets"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	portals     driven.PortalStore
	roles       driven.RoleStore
	assignments driven.AssignmentStore
	creds       driven.CredentialStore
	codec       *secrets.Codec
	resolver    *application.AdapterResolver
	pushSvc     *application.PushService
	syncSvc     *application.SyncService
	queue       driven.PushQueue
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. syncSvc and
// queue may be nil (e.g. in tests); the endpoints that need them answer 503.
func NewHandler(
	portals driven.PortalStore,
	roles driven.RoleStore,
	assignments driven.AssignmentStore,
	creds driven.CredentialStore,
	codec *secrets.Codec,
	resolver *application.AdapterResolver,
	pushSvc *application.PushService,
	syncSvc *application.SyncService,
	queue driven.PushQueue,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		portals:     portals,
		roles:       roles,
		assignments: assignments,
		creds:       creds,
		codec:       codec,
		resolver:    resolver,
		pushSvc:     pushSvc,
		syncSvc:     syncSvc,
		queue:       queue,
		logger:      logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/adapters", h.ListAdapters)

	mux.HandleFunc("GET /api/v1/portals", h.ListPortals)
	mux.HandleFunc("POST /api/v1/portals", h.CreatePortal)
	mux.HandleFunc("GET /api/v1/portals/{id}", h.GetPortal)
	mux.HandleFunc("PUT /api/v1/portals/{id}", h.UpdatePortal)
	mux.HandleFunc("DELETE /api/v1/portals/{id}", h.DeletePortal)
	mux.HandleFunc("POST /api/v1/portals/{id}/sync", h.SyncPortal)
	mux.HandleFunc("GET /api/v1/portals/{id}/roles", h.ListPortalRoles)
	mux.HandleFunc("POST /api/v1/portals/{id}/roles", h.CreateRole)
	mux.HandleFunc("GET /api/v1/portals/{id}/credentials", h.GetCredentials)
	mux.HandleFunc("PUT /api/v1/portals/{id}/credentials", h.PutCredentials)
	mux.HandleFunc("POST /api/v1/portals/{id}/credentials/test", h.TestCredentials)

	mux.HandleFunc("GET /api/v1/roles", h.ListRoles)
	mux.HandleFunc("GET /api/v1/roles/{id}", h.GetRole)
	mux.HandleFunc("DELETE /api/v1/roles/{id}", h.DeleteRole)

	mux.HandleFunc("GET /api/v1/assignments", h.ListAssignments)
	mux.HandleFunc("POST /api/v1/assignments", h.CreateAssignment)
	mux.HandleFunc("GET /api/v1/assignments/{id}", h.GetAssignment)
	mux.HandleFunc("PUT /api/v1/assignments/{id}", h.UpdateAssignment)
	mux.HandleFunc("DELETE /api/v1/assignments/{id}", h.DeleteAssignment)
	mux.HandleFunc("POST /api/v1/assignments/{id}/push", h.QueuePush)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListAdapters returns the selectable adapter choices for this deployment.
func (h *Handler) ListAdapters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.resolver.Choices())
}

// --- Portals ---

// ListPortals returns all portals ordered by name.
func (h *Handler) ListPortals(w http.ResponseWriter, r *http.Request) {
	portals, err := h.portals.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list portals", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]PortalResponse, 0, len(portals))
	for _, p := range portals {
		resp = append(resp, toPortalResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreatePortal creates a portal.
func (h *Handler) CreatePortal(w http.ResponseWriter, r *http.Request) {
	var req PortalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.VendorType == "" || req.VendorName == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "vendor_type, vendor_name and name are required")
		return
	}

	var p model.Portal
	applyPortalRequest(&p, req)

	created, err := h.portals.Create(r.Context(), p)
	if err != nil {
		if errors.Is(err, driven.ErrPortalAlreadyExists) {
			writeError(w, http.StatusConflict, "portal already exists")
			return
		}
		h.logger.Error("failed to create portal", "name", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toPortalResponse(created))
}

// GetPortal returns a single portal by id.
func (h *Handler) GetPortal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.portals.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get portal", "portal", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "portal not found")
		return
	}

	writeJSON(w, http.StatusOK, toPortalResponse(*p))
}

// UpdatePortal rewrites a portal's editable fields.
func (h *Handler) UpdatePortal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req PortalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.portals.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get portal", "portal", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "portal not found")
		return
	}

	applyPortalRequest(p, req)

	if err := h.portals.Update(r.Context(), *p); err != nil {
		if errors.Is(err, driven.ErrPortalAlreadyExists) {
			writeError(w, http.StatusConflict, "portal already exists")
			return
		}
		h.logger.Error("failed to update portal", "portal", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	updated, err := h.portals.GetByID(r.Context(), id)
	if err != nil || updated == nil {
		h.logger.Error("failed to reload portal", "portal", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toPortalResponse(*updated))
}

// DeletePortal removes a portal; roles, credentials and assignments cascade.
func (h *Handler) DeletePortal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.portals.Delete(r.Context(), id); err != nil {
		if errors.Is(err, driven.ErrPortalNotFound) {
			writeError(w, http.StatusNotFound, "portal not found")
			return
		}
		h.logger.Error("failed to delete portal", "portal", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SyncPortal runs an immediate sync sweep for one portal.
func (h *Handler) SyncPortal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if h.syncSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "sync service unavailable")
		return
	}

	if err := h.syncSvc.RefreshPortal(r.Context(), id); err != nil {
		if errors.Is(err, driven.ErrPortalNotFound) {
			writeError(w, http.StatusNotFound, "portal not found")
			return
		}
		h.logger.Error("portal sync failed", "portal", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{PortalID: id, Synced: true})
}

// --- Credentials ---

// GetCredentials returns the portal's credential keys with masked values and
// the last connection test outcome. Plaintext never leaves the server.
func (h *Handler) GetCredentials(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPortal(w, r)
	if !ok {
		return
	}

	cred, err := h.creds.GetByPortal(r.Context(), p.ID)
	if err != nil {
		h.logger.Error("failed to get credentials", "portal", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	plaintext := map[string]string{}
	if cred != nil {
		plaintext = h.codec.Decrypt(cred.DataEncrypted)
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(cred, plaintext))
}

// PutCredentials replaces the portal's credential mapping. The submitted
// key set is authoritative; a value equal to the mask token keeps whatever
// is already stored for that key, so a round-tripped masked response can be
// resubmitted safely.
func (h *Handler) PutCredentials(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPortal(w, r)
	if !ok {
		return
	}

	var req CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	existing, err := h.creds.GetByPortal(r.Context(), p.ID)
	if err != nil {
		h.logger.Error("failed to get credentials", "portal", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	stored := map[string]string{}
	if existing != nil {
		stored = h.codec.Decrypt(existing.DataEncrypted)
	}

	merged := make(map[string]string, len(req.Data))
	for k, v := range req.Data {
		switch {
		case v == secrets.MaskToken:
			if old, has := stored[k]; has {
				merged[k] = old
			}
		case v == "":
			// Explicitly cleared.
		default:
			merged[k] = v
		}
	}

	ciphertext, err := h.codec.Encrypt(merged)
	if err != nil {
		h.logger.Error("failed to encrypt credentials", "portal", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.creds.Upsert(r.Context(), model.PortalCredential{PortalID: p.ID, DataEncrypted: ciphertext}); err != nil {
		h.logger.Error("failed to store credentials", "portal", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	cred, err := h.creds.GetByPortal(r.Context(), p.ID)
	if err != nil {
		h.logger.Error("failed to reload credentials", "portal", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(cred, merged))
}

// TestCredentials pings the portal's adapter and records the outcome.
func (h *Handler) TestCredentials(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPortal(w, r)
	if !ok {
		return
	}
	if h.pushSvc == nil {
		writeError(w, http.StatusServiceUnavailable, "push service unavailable")
		return
	}

	status, message, err := h.pushSvc.TestConnection(r.Context(), *p)
	if err != nil {
		if errors.Is(err, application.ErrNoAdapterConfigured) {
			writeError(w, http.StatusBadRequest, "No adapter configured on portal.")
			return
		}
		h.logger.Error("connection test failed", "portal", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, TestConnectionResponse{Status: string(status), Message: message})
}

// --- Roles ---

// ListPortalRoles returns the roles defined on one portal.
func (h *Handler) ListPortalRoles(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPortal(w, r)
	if !ok {
		return
	}

	roles, err := h.roles.ListByPortal(r.Context(), p.ID)
	if err != nil {
		h.logger.Error("failed to list roles", "portal", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		resp = append(resp, toRoleResponse(role))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateRole defines a role on a portal.
func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPortal(w, r)
	if !ok {
		return
	}

	var req RoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !model.ValidRoleCategory(model.RoleCategory(req.Category)) {
		writeError(w, http.StatusBadRequest, "invalid role category")
		return
	}

	created, err := h.roles.Create(r.Context(), model.VendorRole{
		PortalID:    p.ID,
		Name:        req.Name,
		Category:    model.RoleCategory(req.Category),
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, driven.ErrRoleAlreadyExists) {
			writeError(w, http.StatusConflict, "role already exists on portal")
			return
		}
		h.logger.Error("failed to create role", "portal", p.ID, "name", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, toRoleResponse(created))
}

// ListRoles returns every role across all portals.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list roles", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RoleResponse, 0, len(roles))
	for _, role := range roles {
		resp = append(resp, toRoleResponse(role))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetRole returns a single role by id.
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	role, err := h.roles.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get role", "role", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if role == nil {
		writeError(w, http.StatusNotFound, "role not found")
		return
	}

	writeJSON(w, http.StatusOK, toRoleResponse(*role))
}

// DeleteRole removes a role by id.
func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.roles.Delete(r.Context(), id); err != nil {
		if errors.Is(err, driven.ErrRoleNotFound) {
			writeError(w, http.StatusNotFound, "role not found")
			return
		}
		h.logger.Error("failed to delete role", "role", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Assignments ---

// ListAssignments returns assignments, optionally filtered by portal_id,
// active, and needs_push query parameters.
func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	var filter driven.AssignmentFilter

	if raw := r.URL.Query().Get("portal_id"); raw != "" {
		portalID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid portal_id")
			return
		}
		filter.PortalID = &portalID
	}
	if raw := r.URL.Query().Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid active")
			return
		}
		filter.Active = &active
	}

	var needsPush *bool
	if raw := r.URL.Query().Get("needs_push"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid needs_push")
			return
		}
		needsPush = &v
	}

	assignments, err := h.assignments.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list assignments", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		if needsPush != nil && a.NeedsPush() != *needsPush {
			continue
		}
		resp = append(resp, toAssignmentResponse(a))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateAssignment records a new access assignment and queues its first push.
func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req AssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var a model.AccessAssignment
	if err := applyAssignmentRequest(&a, req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid timestamp")
		return
	}

	created, err := h.assignments.Create(r.Context(), a)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrNoSubject):
			writeError(w, http.StatusBadRequest, "assignment must reference exactly one of user or contact")
		case strings.Contains(err.Error(), "FOREIGN KEY constraint"):
			writeError(w, http.StatusBadRequest, "unknown portal or role")
		default:
			h.logger.Error("failed to create assignment", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.enqueueUpsert(created.ID)
	writeJSON(w, http.StatusCreated, toAssignmentResponse(created))
}

// GetAssignment returns a single assignment with its portal and role.
func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	a, err := h.assignments.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get assignment", "assignment", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}

	writeJSON(w, http.StatusOK, toAssignmentResponse(*a))
}

// UpdateAssignment rewrites an assignment's editable fields and queues a push.
func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req AssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := h.assignments.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get assignment", "assignment", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}

	if err := applyAssignmentRequest(a, req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid timestamp")
		return
	}

	if err := h.assignments.Update(r.Context(), *a); err != nil {
		switch {
		case errors.Is(err, model.ErrNoSubject):
			writeError(w, http.StatusBadRequest, "assignment must reference exactly one of user or contact")
		case strings.Contains(err.Error(), "FOREIGN KEY constraint"):
			writeError(w, http.StatusBadRequest, "unknown portal or role")
		default:
			h.logger.Error("failed to update assignment", "assignment", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	updated, err := h.assignments.GetByID(r.Context(), id)
	if err != nil || updated == nil {
		h.logger.Error("failed to reload assignment", "assignment", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.enqueueUpsert(id)
	writeJSON(w, http.StatusOK, toAssignmentResponse(*updated))
}

// DeleteAssignment removes an assignment. The remote side is told first,
// best-effort: a failed remote delete is logged but never blocks the local
// one.
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	a, err := h.assignments.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get assignment", "assignment", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}

	if h.pushSvc != nil && a.RemoteID != "" {
		if err := h.pushSvc.Push(r.Context(), id, model.ActionDelete); err != nil {
			h.logger.Error("remote delete failed", "assignment", id, "error", err)
		}
	}

	if err := h.assignments.Delete(r.Context(), id); err != nil {
		if errors.Is(err, driven.ErrAssignmentNotFound) {
			writeError(w, http.StatusNotFound, "assignment not found")
			return
		}
		h.logger.Error("failed to delete assignment", "assignment", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// QueuePush enqueues a push job for an assignment and returns 202. The body
// may name an action; empty or missing means upsert.
func (h *Handler) QueuePush(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if h.queue == nil {
		writeError(w, http.StatusServiceUnavailable, "push queue unavailable")
		return
	}

	var req PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	action := req.Action
	if action == "" {
		action = model.ActionUpsert
	}

	a, err := h.assignments.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get assignment", "assignment", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "assignment not found")
		return
	}

	h.queue.Enqueue(id, action)

	writeJSON(w, http.StatusAccepted, PushAcceptedResponse{
		AssignmentID: id,
		Action:       action,
		Queued:       true,
	})
}

// --- helpers ---

// pathID parses the {id} path segment, answering 400 itself on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// loadPortal fetches the portal named by {id}, answering 404/500 itself.
func (h *Handler) loadPortal(w http.ResponseWriter, r *http.Request) (*model.Portal, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}

	p, err := h.portals.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get portal", "portal", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "portal not found")
		return nil, false
	}
	return p, true
}

// enqueueUpsert schedules a push after a local write when a queue is wired.
func (h *Handler) enqueueUpsert(assignmentID int64) {
	if h.queue == nil {
		return
	}
	h.queue.Enqueue(assignmentID, model.ActionUpsert)
}
