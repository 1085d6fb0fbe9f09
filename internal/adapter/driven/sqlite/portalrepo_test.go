package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/portalaccess/internal/domain/model"
	"github.com/ericfisherdev/portalaccess/internal/domain/port/driven"
)

func TestPortalRepo_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPortalRepo(db)
	ctx := context.Background()

	verifyOff := false
	created, err := repo.Create(ctx, model.Portal{
		VendorType:            "provider",
		VendorName:            "Acme Networks",
		Name:                  "Acme Customer Portal",
		AdapterSlug:           "echo",
		BaseURL:               "https://portal.acme.example",
		RequestTimeoutSeconds: 30,
		RequestRetries:        5,
		SSLVerify:             &verifyOff,
		Notes:                 "primary portal",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Acme Customer Portal", got.Name)
	assert.Equal(t, "echo", got.AdapterSlug)
	assert.Equal(t, "https://portal.acme.example", got.BaseURL)
	assert.Equal(t, 30, got.RequestTimeoutSeconds)
	assert.Equal(t, 5, got.RequestRetries)
	require.NotNil(t, got.SSLVerify)
	assert.False(t, *got.SSLVerify)
	assert.Nil(t, got.LastSyncAt)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestPortalRepo_Create_DuplicateName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPortalRepo(db)
	ctx := context.Background()

	p := model.Portal{VendorType: "provider", VendorName: "Acme", Name: "Portal"}
	_, err := repo.Create(ctx, p)
	require.NoError(t, err)

	_, err = repo.Create(ctx, p)
	assert.ErrorIs(t, err, driven.ErrPortalAlreadyExists)
}

func TestPortalRepo_Create_SameNameDifferentVendor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPortalRepo(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, model.Portal{VendorType: "provider", VendorName: "Acme", Name: "Portal"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, model.Portal{VendorType: "tenant", VendorName: "Globex", Name: "Portal"})
	assert.NoError(t, err)
}

func TestPortalRepo_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPortalRepo(db)
	ctx := context.Background()

	p := seedPortal(t, db, "Portal")
	p.AdapterSlug = "echo"
	p.BaseURL = "https://changed.example"

	require.NoError(t, repo.Update(ctx, p))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "echo", got.AdapterSlug)
	assert.Equal(t, "https://changed.example", got.BaseURL)
}

func TestPortalRepo_Update_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPortalRepo(db)

	err := repo.Update(context.Background(), model.Portal{ID: 9999, VendorType: "provider", VendorName: "x", Name: "y"})
	assert.ErrorIs(t, err, driven.ErrPortalNotFound)
}

func TestPortalRepo_Delete_CascadesRolesAndCredentials(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPortalRepo(db)
	ctx := context.Background()

	p := seedPortal(t, db, "Portal")
	role := seedRole(t, db, p.ID, "Admin")
	require.NoError(t, NewCredentialRepo(db).Upsert(ctx, model.PortalCredential{PortalID: p.ID, DataEncrypted: "blob"}))

	require.NoError(t, repo.Delete(ctx, p.ID))

	gotRole, err := NewRoleRepo(db).GetByID(ctx, role.ID)
	require.NoError(t, err)
	assert.Nil(t, gotRole)

	gotCred, err := NewCredentialRepo(db).GetByPortal(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, gotCred)
}

func TestPortalRepo_Delete_NotFound(t *testing.T) {
	db := setupTestDB(t)
	err := NewPortalRepo(db).Delete(context.Background(), 424242)
	assert.ErrorIs(t, err, driven.ErrPortalNotFound)
}

func TestPortalRepo_ListAll_OrderedByName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPortalRepo(db)

	seedPortal(t, db, "Zayo Portal")
	seedPortal(t, db, "Acme Portal")
	seedPortal(t, db, "Lumen Portal")

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Acme Portal", all[0].Name)
	assert.Equal(t, "Lumen Portal", all[1].Name)
	assert.Equal(t, "Zayo Portal", all[2].Name)
}

func TestPortalRepo_SetLastSync(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPortalRepo(db)
	ctx := context.Background()

	p := seedPortal(t, db, "Portal")
	at := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, repo.SetLastSync(ctx, p.ID, at))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastSyncAt)
	assert.WithinDuration(t, at, got.LastSyncAt.UTC(), time.Second)
	// Stamping a sync is not an edit.
	assert.Equal(t, p.UpdatedAt.Unix(), got.UpdatedAt.Unix())
}

func TestPortalRepo_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)

	got, err := NewPortalRepo(db).GetByID(context.Background(), 31337)
	require.NoError(t, err)
	assert.Nil(t, got)
}
