package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
	"github.com/ericfisherdev/portalaccess/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AssignmentStore = (*AssignmentRepo)(nil)

// AssignmentRepo is the SQLite implementation of the AssignmentStore port
// interface.
type AssignmentRepo struct {
	db *DB
}

// NewAssignmentRepo creates a new AssignmentRepo backed by the given DB.
func NewAssignmentRepo(db *DB) *AssignmentRepo {
	return &AssignmentRepo{db: db}
}

const assignmentColumns = `a.id, a.user_name, a.contact_name, a.portal_id, a.role_id,
	a.account_identifier, a.username_on_portal, a.active, a.mfa_type, a.sso_provider,
	a.last_verified, a.expires_on, a.notes, a.remote_id,
	a.last_push_status, a.last_push_at, a.last_push_message, a.created_at, a.updated_at`

// Create inserts a new assignment and returns it with its assigned id.
// The exactly-one-subject invariant is validated here and mirrored by a
// CHECK constraint in the schema.
func (r *AssignmentRepo) Create(ctx context.Context, a model.AccessAssignment) (model.AccessAssignment, error) {
	if err := a.Validate(); err != nil {
		return model.AccessAssignment{}, fmt.Errorf("create assignment: %w", err)
	}

	const query = `
		INSERT INTO access_assignments (
			user_name, contact_name, portal_id, role_id, account_identifier,
			username_on_portal, active, mfa_type, sso_provider, last_verified,
			expires_on, notes, remote_id, last_push_status, last_push_at,
			last_push_message, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	res, err := r.db.Writer.ExecContext(ctx, query,
		a.UserName, a.ContactName, a.PortalID, a.RoleID, a.AccountIdentifier,
		a.UsernameOnPortal, boolToInt(a.Active), a.MFAType, a.SSOProvider, timeArg(a.LastVerified),
		timeArg(a.ExpiresOn), a.Notes, nullIfEmpty(a.RemoteID), string(a.LastPushStatus), timeArg(a.LastPushAt),
		nullIfEmpty(a.LastPushMessage), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return model.AccessAssignment{}, fmt.Errorf("create assignment: %w", err)
	}

	a.ID, err = res.LastInsertId()
	if err != nil {
		return model.AccessAssignment{}, fmt.Errorf("assignment insert id: %w", err)
	}

	return a, nil
}

// Update rewrites an assignment's editable fields and bumps updated_at,
// which is what makes the record need a push again. The push result fields
// are owned by RecordPushResult and left alone here.
func (r *AssignmentRepo) Update(ctx context.Context, a model.AccessAssignment) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("update assignment %d: %w", a.ID, err)
	}

	const query = `
		UPDATE access_assignments SET
			user_name = ?, contact_name = ?, portal_id = ?, role_id = ?,
			account_identifier = ?, username_on_portal = ?, active = ?,
			mfa_type = ?, sso_provider = ?, last_verified = ?, expires_on = ?,
			notes = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		a.UserName, a.ContactName, a.PortalID, a.RoleID,
		a.AccountIdentifier, a.UsernameOnPortal, boolToInt(a.Active),
		a.MFAType, a.SSOProvider, timeArg(a.LastVerified), timeArg(a.ExpiresOn),
		a.Notes, time.Now().UTC(), a.ID,
	)
	if err != nil {
		return fmt.Errorf("update assignment %d: %w", a.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update assignment %d: %w", a.ID, driven.ErrAssignmentNotFound)
	}

	return nil
}

// Delete removes an assignment by id.
func (r *AssignmentRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Writer.ExecContext(ctx, `DELETE FROM access_assignments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete assignment %d: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete assignment %d: %w", id, driven.ErrAssignmentNotFound)
	}

	return nil
}

// GetByID retrieves one assignment with its portal and role eagerly joined.
// Returns nil, nil if the assignment does not exist.
func (r *AssignmentRepo) GetByID(ctx context.Context, id int64) (*model.AccessAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `,
			p.id, p.vendor_type, p.vendor_name, p.name, p.adapter_slug, p.base_url,
			p.request_timeout_seconds, p.request_retries, p.ssl_verify, p.notes, p.last_sync_at,
			p.created_at, p.updated_at,
			r.id, r.portal_id, r.name, r.category, r.description
		FROM access_assignments a
		JOIN portals p ON p.id = a.portal_id
		JOIN vendor_roles r ON r.id = a.role_id
		WHERE a.id = ?
	`

	row := r.db.Reader.QueryRowContext(ctx, query, id)

	a, portal, role, err := scanJoinedAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment %d: %w", id, err)
	}

	a.Portal = portal
	a.Role = role
	return a, nil
}

// List returns assignments matching the filter, ordered by active first,
// then portal and role.
func (r *AssignmentRepo) List(ctx context.Context, f driven.AssignmentFilter) ([]model.AccessAssignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM access_assignments a WHERE 1=1`
	var args []any

	if f.PortalID != nil {
		query += ` AND a.portal_id = ?`
		args = append(args, *f.PortalID)
	}
	if f.Active != nil {
		query += ` AND a.active = ?`
		args = append(args, boolToInt(*f.Active))
	}
	query += ` ORDER BY a.active DESC, a.portal_id, a.role_id, a.id`

	return r.queryAssignments(ctx, query, args...)
}

// ListNeedingPush returns active assignments that were never pushed or were
// modified after their last push attempt. SQL mirror of
// model.AccessAssignment.NeedsPush.
func (r *AssignmentRepo) ListNeedingPush(ctx context.Context) ([]model.AccessAssignment, error) {
	query := `
		SELECT ` + assignmentColumns + `
		FROM access_assignments a
		WHERE a.active = 1
		  AND (a.last_push_at IS NULL OR a.updated_at > a.last_push_at)
		ORDER BY a.id
	`
	return r.queryAssignments(ctx, query)
}

// RecordPushResult writes the push outcome for one assignment in a single
// UPDATE so readers never observe a partial result. updated_at is
// deliberately left alone. An empty message stores NULL.
func (r *AssignmentRepo) RecordPushResult(ctx context.Context, id int64, rec driven.PushRecord) error {
	query := `
		UPDATE access_assignments SET
			last_push_status = ?, last_push_at = ?, last_push_message = ?
	`
	args := []any{string(rec.Status), rec.PushedAt.UTC(), nullIfEmpty(rec.Message)}

	switch {
	case rec.ClearRemoteID:
		query += `, remote_id = NULL`
	case rec.RemoteID != nil:
		query += `, remote_id = ?`
		args = append(args, *rec.RemoteID)
	}

	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := r.db.Writer.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("record push result for assignment %d: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("record push result for assignment %d: %w", id, driven.ErrAssignmentNotFound)
	}

	return nil
}

func (r *AssignmentRepo) queryAssignments(ctx context.Context, query string, args ...any) ([]model.AccessAssignment, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []model.AccessAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}

	return out, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// scanAssignment reads the bare assignment columns.
func scanAssignment(s scanner) (*model.AccessAssignment, error) {
	var a model.AccessAssignment
	var active int
	var lastVerified, expiresOn, lastPushAt, remoteID, lastPushMessage sql.NullString
	var pushStatus, createdAt, updatedAt string

	err := s.Scan(
		&a.ID, &a.UserName, &a.ContactName, &a.PortalID, &a.RoleID,
		&a.AccountIdentifier, &a.UsernameOnPortal, &active, &a.MFAType, &a.SSOProvider,
		&lastVerified, &expiresOn, &a.Notes, &remoteID,
		&pushStatus, &lastPushAt, &lastPushMessage, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Active = active != 0
	a.RemoteID = remoteID.String
	a.LastPushStatus = model.PushStatus(pushStatus)
	a.LastPushMessage = lastPushMessage.String

	if a.LastVerified, err = parseNullTime(lastVerified); err != nil {
		return nil, fmt.Errorf("parse last_verified: %w", err)
	}
	if a.ExpiresOn, err = parseNullTime(expiresOn); err != nil {
		return nil, fmt.Errorf("parse expires_on: %w", err)
	}
	if a.LastPushAt, err = parseNullTime(lastPushAt); err != nil {
		return nil, fmt.Errorf("parse last_push_at: %w", err)
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &a, nil
}

// scanJoinedAssignment reads the assignment plus joined portal and role.
func scanJoinedAssignment(s scanner) (*model.AccessAssignment, *model.Portal, *model.VendorRole, error) {
	var a model.AccessAssignment
	var portal model.Portal
	var role model.VendorRole

	var active int
	var lastVerified, expiresOn, lastPushAt, remoteID, lastPushMessage sql.NullString
	var pushStatus, createdAt, updatedAt string

	var pSSLVerify sql.NullInt64
	var pLastSync sql.NullString
	var pCreatedAt, pUpdatedAt, roleCategory string

	err := s.Scan(
		&a.ID, &a.UserName, &a.ContactName, &a.PortalID, &a.RoleID,
		&a.AccountIdentifier, &a.UsernameOnPortal, &active, &a.MFAType, &a.SSOProvider,
		&lastVerified, &expiresOn, &a.Notes, &remoteID,
		&pushStatus, &lastPushAt, &lastPushMessage, &createdAt, &updatedAt,
		&portal.ID, &portal.VendorType, &portal.VendorName, &portal.Name, &portal.AdapterSlug, &portal.BaseURL,
		&portal.RequestTimeoutSeconds, &portal.RequestRetries, &pSSLVerify, &portal.Notes, &pLastSync,
		&pCreatedAt, &pUpdatedAt,
		&role.ID, &role.PortalID, &role.Name, &roleCategory, &role.Description,
	)
	if err != nil {
		return nil, nil, nil, err
	}

	a.Active = active != 0
	a.RemoteID = remoteID.String
	a.LastPushStatus = model.PushStatus(pushStatus)
	a.LastPushMessage = lastPushMessage.String
	role.Category = model.RoleCategory(roleCategory)

	if pSSLVerify.Valid {
		v := pSSLVerify.Int64 != 0
		portal.SSLVerify = &v
	}

	if a.LastVerified, err = parseNullTime(lastVerified); err != nil {
		return nil, nil, nil, fmt.Errorf("parse last_verified: %w", err)
	}
	if a.ExpiresOn, err = parseNullTime(expiresOn); err != nil {
		return nil, nil, nil, fmt.Errorf("parse expires_on: %w", err)
	}
	if a.LastPushAt, err = parseNullTime(lastPushAt); err != nil {
		return nil, nil, nil, fmt.Errorf("parse last_push_at: %w", err)
	}
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, nil, nil, fmt.Errorf("parse created_at: %w", err)
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, nil, nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if portal.LastSyncAt, err = parseNullTime(pLastSync); err != nil {
		return nil, nil, nil, fmt.Errorf("parse portal last_sync_at: %w", err)
	}
	if portal.CreatedAt, err = parseTime(pCreatedAt); err != nil {
		return nil, nil, nil, fmt.Errorf("parse portal created_at: %w", err)
	}
	if portal.UpdatedAt, err = parseTime(pUpdatedAt); err != nil {
		return nil, nil, nil, fmt.Errorf("parse portal updated_at: %w", err)
	}

	return &a, &portal, &role, nil
}
