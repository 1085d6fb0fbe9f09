package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
	"github.com/ericfisherdev/portalaccess/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RoleStore = (*RoleRepo)(nil)

// RoleRepo is the SQLite implementation of the RoleStore port interface.
type RoleRepo struct {
	db *DB
}

// NewRoleRepo creates a new RoleRepo backed by the given DB.
func NewRoleRepo(db *DB) *RoleRepo {
	return &RoleRepo{db: db}
}

// Create inserts a new vendor role and returns it with its assigned id.
func (r *RoleRepo) Create(ctx context.Context, role model.VendorRole) (model.VendorRole, error) {
	const query = `INSERT INTO vendor_roles (portal_id, name, category, description) VALUES (?, ?, ?, ?)`

	res, err := r.db.Writer.ExecContext(ctx, query,
		role.PortalID, role.Name, string(role.Category), role.Description)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return model.VendorRole{}, fmt.Errorf("create role %q: %w", role.Name, driven.ErrRoleAlreadyExists)
		}
		return model.VendorRole{}, fmt.Errorf("create role %q: %w", role.Name, err)
	}

	role.ID, err = res.LastInsertId()
	if err != nil {
		return model.VendorRole{}, fmt.Errorf("role insert id: %w", err)
	}

	return role, nil
}

// Delete removes a vendor role by id.
func (r *RoleRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.Writer.ExecContext(ctx, `DELETE FROM vendor_roles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete role %d: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete role %d: %w", id, driven.ErrRoleNotFound)
	}

	return nil
}

// GetByID retrieves a vendor role by id. Returns nil, nil if it does not exist.
func (r *RoleRepo) GetByID(ctx context.Context, id int64) (*model.VendorRole, error) {
	const query = `SELECT id, portal_id, name, category, description FROM vendor_roles WHERE id = ?`

	role, err := scanRole(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get role %d: %w", id, err)
	}

	return role, nil
}

// ListByPortal returns all roles for a portal ordered by name.
func (r *RoleRepo) ListByPortal(ctx context.Context, portalID int64) ([]model.VendorRole, error) {
	const query = `SELECT id, portal_id, name, category, description FROM vendor_roles WHERE portal_id = ? ORDER BY name`
	return r.queryRoles(ctx, query, portalID)
}

// ListAll returns all roles ordered by portal then name.
func (r *RoleRepo) ListAll(ctx context.Context) ([]model.VendorRole, error) {
	const query = `SELECT id, portal_id, name, category, description FROM vendor_roles ORDER BY portal_id, name`
	return r.queryRoles(ctx, query)
}

func (r *RoleRepo) queryRoles(ctx context.Context, query string, args ...any) ([]model.VendorRole, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []model.VendorRole
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, *role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}

	return roles, nil
}

func scanRole(s scanner) (*model.VendorRole, error) {
	var role model.VendorRole
	var category string

	if err := s.Scan(&role.ID, &role.PortalID, &role.Name, &category, &role.Description); err != nil {
		return nil, err
	}
	role.Category = model.RoleCategory(category)

	return &role, nil
}
