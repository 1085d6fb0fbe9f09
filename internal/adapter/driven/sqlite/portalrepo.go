package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
	"github.com/ericfisherdev/portalaccess/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PortalStore = (*PortalRepo)(nil)

// PortalRepo is the SQLite implementation of the PortalStore port interface.
type PortalRepo struct {
	db *DB
}

// NewPortalRepo creates a new PortalRepo backed by the given DB.
func NewPortalRepo(db *DB) *PortalRepo {
	return &PortalRepo{db: db}
}

const portalColumns = `id, vendor_type, vendor_name, name, adapter_slug, base_url,
	request_timeout_seconds, request_retries, ssl_verify, notes, last_sync_at,
	created_at, updated_at`

// Create inserts a new portal and returns it with its assigned id.
func (r *PortalRepo) Create(ctx context.Context, p model.Portal) (model.Portal, error) {
	const query = `
		INSERT INTO portals (
			vendor_type, vendor_name, name, adapter_slug, base_url,
			request_timeout_seconds, request_retries, ssl_verify, notes,
			last_sync_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := r.db.Writer.ExecContext(ctx, query,
		p.VendorType, p.VendorName, p.Name, p.AdapterSlug, p.BaseURL,
		p.RequestTimeoutSeconds, p.RequestRetries, sslVerifyArg(p.SSLVerify), p.Notes,
		timeArg(p.LastSyncAt), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return model.Portal{}, fmt.Errorf("create portal %q: %w", p.Name, driven.ErrPortalAlreadyExists)
		}
		return model.Portal{}, fmt.Errorf("create portal %q: %w", p.Name, err)
	}

	p.ID, err = res.LastInsertId()
	if err != nil {
		return model.Portal{}, fmt.Errorf("portal insert id: %w", err)
	}

	return p, nil
}

// Update rewrites a portal's editable fields and bumps updated_at.
func (r *PortalRepo) Update(ctx context.Context, p model.Portal) error {
	const query = `
		UPDATE portals SET
			vendor_type = ?, vendor_name = ?, name = ?, adapter_slug = ?, base_url = ?,
			request_timeout_seconds = ?, request_retries = ?, ssl_verify = ?, notes = ?,
			updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.Writer.ExecContext(ctx, query,
		p.VendorType, p.VendorName, p.Name, p.AdapterSlug, p.BaseURL,
		p.RequestTimeoutSeconds, p.RequestRetries, sslVerifyArg(p.SSLVerify), p.Notes,
		time.Now().UTC(), p.ID,
	)
	if err != nil {
		return fmt.Errorf("update portal %d: %w", p.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update portal %d: %w", p.ID, driven.ErrPortalNotFound)
	}

	return nil
}

// Delete removes a portal. Roles, credentials, and assignments cascade.
func (r *PortalRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Writer.ExecContext(ctx, `DELETE FROM portals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete portal %d: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete portal %d: %w", id, driven.ErrPortalNotFound)
	}

	return nil
}

// GetByID retrieves a portal by id. Returns nil, nil if it does not exist.
func (r *PortalRepo) GetByID(ctx context.Context, id int64) (*model.Portal, error) {
	query := `SELECT ` + portalColumns + ` FROM portals WHERE id = ?`

	p, err := scanPortal(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get portal %d: %w", id, err)
	}

	return p, nil
}

// ListAll returns all portals ordered by name.
func (r *PortalRepo) ListAll(ctx context.Context) ([]model.Portal, error) {
	query := `SELECT ` + portalColumns + ` FROM portals ORDER BY name`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list portals: %w", err)
	}
	defer rows.Close()

	var portals []model.Portal
	for rows.Next() {
		p, err := scanPortal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan portal: %w", err)
		}
		portals = append(portals, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portals: %w", err)
	}

	return portals, nil
}

// SetLastSync stamps the portal's last sync-sweep time without touching
// updated_at.
func (r *PortalRepo) SetLastSync(ctx context.Context, id int64, at time.Time) error {
	_, err := r.db.Writer.ExecContext(ctx,
		`UPDATE portals SET last_sync_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("set last sync for portal %d: %w", id, err)
	}
	return nil
}

func sslVerifyArg(v *bool) any {
	if v == nil {
		return nil
	}
	return boolToInt(*v)
}

func scanPortal(s scanner) (*model.Portal, error) {
	var p model.Portal
	var sslVerify sql.NullInt64
	var lastSync sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(
		&p.ID, &p.VendorType, &p.VendorName, &p.Name, &p.AdapterSlug, &p.BaseURL,
		&p.RequestTimeoutSeconds, &p.RequestRetries, &sslVerify, &p.Notes, &lastSync,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sslVerify.Valid {
		v := sslVerify.Int64 != 0
		p.SSLVerify = &v
	}

	if p.LastSyncAt, err = parseNullTime(lastSync); err != nil {
		return nil, fmt.Errorf("parse last_sync_at: %w", err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &p, nil
}
