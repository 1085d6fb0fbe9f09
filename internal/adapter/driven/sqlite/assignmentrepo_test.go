package sqlite

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
	"github.com/ericfisherdev/portalaccess/internal/domain/port/driven"
)

func TestAssignmentRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepo(db)
	ctx := context.Background()

	p := seedPortal(t, db, "Portal")
	role := seedRole(t, db, p.ID, "Admin")

	verified := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, model.AccessAssignment{
		UserName:          "jdoe",
		PortalID:          p.ID,
		RoleID:            role.ID,
		AccountIdentifier: "ACCT-100",
		UsernameOnPortal:  "jdoe@example.com",
		Active:            true,
		MFAType:           "totp",
		SSOProvider:       "okta",
		LastVerified:      &verified,
		Notes:             "seeded",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "jdoe", got.UserName)
	assert.Empty(t, got.ContactName)
	assert.Equal(t, "ACCT-100", got.AccountIdentifier)
	assert.True(t, got.Active)
	assert.Equal(t, "totp", got.MFAType)
	require.NotNil(t, got.LastVerified)
	assert.WithinDuration(t, verified, got.LastVerified.UTC(), time.Second)
	assert.Empty(t, got.RemoteID)
	assert.Nil(t, got.LastPushAt)
	assert.True(t, got.NeedsPush())

	// Portal and role ride along on single-record reads.
	require.NotNil(t, got.Portal)
	require.NotNil(t, got.Role)
	assert.Equal(t, p.Name, got.Portal.Name)
	assert.Equal(t, "Admin", got.Role.Name)
}

func TestAssignmentRepo_Create_RejectsBadSubject(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepo(db)
	ctx := context.Background()

	p := seedPortal(t, db, "Portal")
	role := seedRole(t, db, p.ID, "Admin")

	_, err := repo.Create(ctx, model.AccessAssignment{PortalID: p.ID, RoleID: role.ID})
	assert.ErrorIs(t, err, model.ErrNoSubject)

	_, err = repo.Create(ctx, model.AccessAssignment{
		UserName: "jdoe", ContactName: "Jane Doe", PortalID: p.ID, RoleID: role.ID,
	})
	assert.ErrorIs(t, err, model.ErrNoSubject)
}

func TestAssignmentRepo_Create_ContactSubject(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepo(db)
	ctx := context.Background()

	p := seedPortal(t, db, "Portal")
	role := seedRole(t, db, p.ID, "Billing")

	created, err := repo.Create(ctx, model.AccessAssignment{
		ContactName: "Jane Doe", PortalID: p.ID, RoleID: role.ID, Active: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", created.SubjectName())
}

func TestAssignmentRepo_Update_BumpsUpdatedAt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepo(db)
	ctx := context.Background()

	p := seedPortal(t, db, "Portal")
	role := seedRole(t, db, p.ID, "Admin")
	a := seedAssignment(t, db, p.ID, role.ID, "jdoe")

	// Mark as pushed so the edit is what flips it back to needing one.
	require.NoError(t, repo.RecordPushResult(ctx, a.ID, driven.PushRecord{
		Status: model.PushStatusSuccess, PushedAt: time.Now().UTC().Add(time.Hour),
	}))

	before, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, before.NeedsPush())

	a.Notes = "rotated credentials"
	require.NoError(t, repo.Update(ctx, a))

	after, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "rotated credentials", after.Notes)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))

	// An edit after the push stamp flips the record back to needing one.
	touchAssignment(t, db, a.ID, time.Now().UTC().Add(2*time.Hour))
	after, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, after.NeedsPush())
}

func TestAssignmentRepo_Update_NotFound(t *testing.T) {
	db := setupTestDB(t)
	p := seedPortal(t, db, "Portal")
	role := seedRole(t, db, p.ID, "Admin")

	err := NewAssignmentRepo(db).Update(context.Background(), model.AccessAssignment{
		ID: 9999, UserName: "ghost", PortalID: p.ID, RoleID: role.ID,
	})
	assert.ErrorIs(t, err, driven.ErrAssignmentNotFound)
}

func TestAssignmentRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepo(db)
	ctx := context.Background()

	p := seedPortal(t, db, "Portal")
	role := seedRole(t, db, p.ID, "Admin")
	a := seedAssignment(t, db, p.ID, role.ID, "jdoe")

	require.NoError(t, repo.Delete(ctx, a.ID))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, repo.Delete(ctx, a.ID), driven.ErrAssignmentNotFound)
}

func TestAssignmentRepo_List_Filters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepo(db)
	ctx := context.Background()

	p1 := seedPortal(t, db, "Portal One")
	p2 := seedPortal(t, db, "Portal Two")
	r1 := seedRole(t, db, p1.ID, "Admin")
	r2 := seedRole(t, db, p2.ID, "Admin")

	seedAssignment(t, db, p1.ID, r1.ID, "alice")
	seedAssignment(t, db, p2.ID, r2.ID, "bob")
	inactive, err := repo.Create(ctx, model.AccessAssignment{
		UserName: "carol", PortalID: p1.ID, RoleID: r1.ID, Active: false,
	})
	require.NoError(t, err)

	all, err := repo.List(ctx, driven.AssignmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byPortal, err := repo.List(ctx, driven.AssignmentFilter{PortalID: &p1.ID})
	require.NoError(t, err)
	require.Len(t, byPortal, 2)
	for _, a := range byPortal {
		assert.Equal(t, p1.ID, a.PortalID)
	}

	activeOnly := true
	active, err := repo.List(ctx, driven.AssignmentFilter{Active: &activeOnly})
	require.NoError(t, err)
	require.Len(t, active, 2)
	for _, a := range active {
		assert.NotEqual(t, inactive.ID, a.ID)
	}
}

func TestAssignmentRepo_ListNeedingPush(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepo(db)
	ctx := context.Background()

	p := seedPortal(t, db, "Portal")
	role := seedRole(t, db, p.ID, "Admin")

	neverPushed := seedAssignment(t, db, p.ID, role.ID, "alice")
	pushed := seedAssignment(t, db, p.ID, role.ID, "bob")
	editedSince := seedAssignment(t, db, p.ID, role.ID, "carol")
	_, err := repo.Create(ctx, model.AccessAssignment{
		UserName: "dave", PortalID: p.ID, RoleID: role.ID, Active: false,
	})
	require.NoError(t, err)

	pushedAt := time.Now().UTC().Add(time.Hour)
	require.NoError(t, repo.RecordPushResult(ctx, pushed.ID, driven.PushRecord{
		Status: model.PushStatusSuccess, PushedAt: pushedAt,
	}))
	require.NoError(t, repo.RecordPushResult(ctx, editedSince.ID, driven.PushRecord{
		Status: model.PushStatusSuccess, PushedAt: pushedAt,
	}))
	touchAssignment(t, db, editedSince.ID, pushedAt.Add(time.Minute))

	need, err := repo.ListNeedingPush(ctx)
	require.NoError(t, err)
	require.Len(t, need, 2)
	assert.Equal(t, neverPushed.ID, need[0].ID)
	assert.Equal(t, editedSince.ID, need[1].ID)
}

func TestAssignmentRepo_RecordPushResult_RemoteID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepo(db)
	ctx := context.Background()

	p := seedPortal(t, db, "Portal")
	role := seedRole(t, db, p.ID, "Admin")
	a := seedAssignment(t, db, p.ID, role.ID, "jdoe")

	now := time.Now().UTC()
	rid := "remote-42"

	// Setting a remote id.
	require.NoError(t, repo.RecordPushResult(ctx, a.ID, driven.PushRecord{
		Status: model.PushStatusSuccess, PushedAt: now, Message: "Echo OK (create)", RemoteID: &rid,
	}))
	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "remote-42", got.RemoteID)
	assert.Equal(t, model.PushStatusSuccess, got.LastPushStatus)
	assert.Equal(t, "Echo OK (create)", got.LastPushMessage)
	require.NotNil(t, got.LastPushAt)

	// A nil RemoteID keeps the stored value.
	require.NoError(t, repo.RecordPushResult(ctx, a.ID, driven.PushRecord{
		Status: model.PushStatusFailed, PushedAt: now, Message: "Echo failed (update): 503",
	}))
	got, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "remote-42", got.RemoteID)
	assert.Equal(t, model.PushStatusFailed, got.LastPushStatus)

	// ClearRemoteID wipes it.
	require.NoError(t, repo.RecordPushResult(ctx, a.ID, driven.PushRecord{
		Status: model.PushStatusSuccess, PushedAt: now, ClearRemoteID: true,
	}))
	got, err = repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RemoteID)
}

func TestAssignmentRepo_RecordPushResult_DoesNotBumpUpdatedAt(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepo(db)
	ctx := context.Background()

	p := seedPortal(t, db, "Portal")
	role := seedRole(t, db, p.ID, "Admin")
	a := seedAssignment(t, db, p.ID, role.ID, "jdoe")

	require.NoError(t, repo.RecordPushResult(ctx, a.ID, driven.PushRecord{
		Status: model.PushStatusSuccess, PushedAt: time.Now().UTC().Add(time.Hour),
	}))

	got, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.UpdatedAt.Unix(), got.UpdatedAt.Unix())
	// Recording the push outcome settles the record.
	assert.False(t, got.NeedsPush())
}

func TestAssignmentRepo_RecordPushResult_NotFound(t *testing.T) {
	db := setupTestDB(t)

	err := NewAssignmentRepo(db).RecordPushResult(context.Background(), 777, driven.PushRecord{
		Status: model.PushStatusFailed, PushedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, driven.ErrAssignmentNotFound)
}

func TestAssignmentRepo_EmptyPushMessageStoredAsNull(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAssignmentRepo(db)
	ctx := context.Background()

	p := seedPortal(t, db, "Portal")
	role := seedRole(t, db, p.ID, "Admin")
	a := seedAssignment(t, db, p.ID, role.ID, "jdoe")

	require.NoError(t, repo.RecordPushResult(ctx, a.ID, driven.PushRecord{
		Status: model.PushStatusSuccess, PushedAt: time.Now().UTC(),
	}))

	var msg sql.NullString
	err := db.Reader.QueryRowContext(ctx,
		`SELECT last_push_message FROM access_assignments WHERE id = ?`, a.ID).Scan(&msg)
	require.NoError(t, err)
	assert.False(t, msg.Valid)
}
