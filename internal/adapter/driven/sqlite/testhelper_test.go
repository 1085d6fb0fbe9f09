package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
)

// setupTestDB creates a named shared in-memory SQLite database for testing.
// Writer and reader connections share the same in-memory database via
// cache=shared. A unique name derived from t.Name() ensures isolation
// between parallel tests.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	// Percent-encode the test name so it's a safe SQLite URI filename component
	// and cannot be misinterpreted as query parameters in the "file:%s?..." DSN.
	safeName := url.PathEscape(t.Name())
	// WAL mode is not applicable to in-memory databases; omit journal_mode pragma.
	dsn := fmt.Sprintf(
		"file:%s?mode=memory&cache=shared&_time_format=sqlite&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		safeName,
	)

	writer, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("create test db writer: %v", err)
	}
	writer.SetMaxOpenConns(1)
	if err := writer.PingContext(context.Background()); err != nil {
		_ = writer.Close()
		t.Fatalf("ping test db writer: %v", err)
	}

	reader, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = writer.Close()
		t.Fatalf("create test db reader: %v", err)
	}
	reader.SetMaxOpenConns(4)
	if err := reader.PingContext(context.Background()); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		t.Fatalf("ping test db reader: %v", err)
	}

	db := &DB{Writer: writer, Reader: reader, path: dsn}

	if err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}

// seedPortal inserts a portal and returns it.
func seedPortal(t *testing.T, db *DB, name string) model.Portal {
	t.Helper()

	p, err := NewPortalRepo(db).Create(context.Background(), model.Portal{
		VendorType: "provider",
		VendorName: "Acme Networks",
		Name:       name,
	})
	if err != nil {
		t.Fatalf("seed portal: %v", err)
	}
	return p
}

// seedRole inserts a role on the given portal and returns it.
func seedRole(t *testing.T, db *DB, portalID int64, name string) model.VendorRole {
	t.Helper()

	role, err := NewRoleRepo(db).Create(context.Background(), model.VendorRole{
		PortalID: portalID,
		Name:     name,
		Category: model.RoleCategoryTicketing,
	})
	if err != nil {
		t.Fatalf("seed role: %v", err)
	}
	return role
}

// seedAssignment inserts an active user assignment and returns it.
func seedAssignment(t *testing.T, db *DB, portalID, roleID int64, user string) model.AccessAssignment {
	t.Helper()

	a, err := NewAssignmentRepo(db).Create(context.Background(), model.AccessAssignment{
		UserName: user,
		PortalID: portalID,
		RoleID:   roleID,
		Active:   true,
	})
	if err != nil {
		t.Fatalf("seed assignment: %v", err)
	}
	return a
}

// touchAssignment bumps updated_at to a fixed future instant so the record
// needs a push again without sleeping in tests.
func touchAssignment(t *testing.T, db *DB, id int64, at time.Time) {
	t.Helper()

	_, err := db.Writer.ExecContext(context.Background(),
		`UPDATE access_assignments SET updated_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		t.Fatalf("touch assignment: %v", err)
	}
}
