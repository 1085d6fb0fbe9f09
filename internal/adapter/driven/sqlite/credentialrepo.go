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
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port
// interface. It stores ciphertext only; the secrets codec owns encryption.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Upsert stores or replaces the credential row for the portal. Test-result
// fields on an existing row are preserved.
func (r *CredentialRepo) Upsert(ctx context.Context, c model.PortalCredential) error {
	const query = `
		INSERT INTO portal_credentials (portal_id, data_encrypted)
		VALUES (?, ?)
		ON CONFLICT(portal_id) DO UPDATE SET data_encrypted = excluded.data_encrypted
	`

	_, err := r.db.Writer.ExecContext(ctx, query, c.PortalID, c.DataEncrypted)
	if err != nil {
		return fmt.Errorf("upsert credential for portal %d: %w", c.PortalID, err)
	}
	return nil
}

// GetByPortal retrieves the credential row for a portal. Returns nil, nil
// when the portal has no stored credential.
func (r *CredentialRepo) GetByPortal(ctx context.Context, portalID int64) (*model.PortalCredential, error) {
	const query = `
		SELECT portal_id, data_encrypted, last_test_at, last_test_status, last_test_message
		FROM portal_credentials WHERE portal_id = ?
	`

	var c model.PortalCredential
	var lastTestAt sql.NullString
	var status string

	err := r.db.Reader.QueryRowContext(ctx, query, portalID).Scan(
		&c.PortalID, &c.DataEncrypted, &lastTestAt, &status, &c.LastTestMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential for portal %d: %w", portalID, err)
	}

	c.LastTestStatus = model.TestStatus(status)
	if c.LastTestAt, err = parseNullTime(lastTestAt); err != nil {
		return nil, fmt.Errorf("parse last_test_at: %w", err)
	}

	return &c, nil
}

// RecordTestResult writes the connection-test outcome. A portal without a
// credential row is left untouched.
func (r *CredentialRepo) RecordTestResult(ctx context.Context, portalID int64, at time.Time, status model.TestStatus, message string) error {
	const query = `
		UPDATE portal_credentials
		SET last_test_at = ?, last_test_status = ?, last_test_message = ?
		WHERE portal_id = ?
	`

	_, err := r.db.Writer.ExecContext(ctx, query, at.UTC(), string(status), message, portalID)
	if err != nil {
		return fmt.Errorf("record test result for portal %d: %w", portalID, err)
	}
	return nil
}

// Delete removes the credential row for a portal. Deleting a missing row
// is not an error.
func (r *CredentialRepo) Delete(ctx context.Context, portalID int64) error {
	_, err := r.db.Writer.ExecContext(ctx, `DELETE FROM portal_credentials WHERE portal_id = ?`, portalID)
	if err != nil {
		return fmt.Errorf("delete credential for portal %d: %w", portalID, err)
	}
	return nil
}
