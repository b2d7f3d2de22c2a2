package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/adoctl/internal/domain/port/driven"
)

func newCredentialRepo(t *testing.T, db *DB) *CredentialRepo {
	t.Helper()
	repo, err := NewCredentialRepo(db, testKey)
	require.NoError(t, err)
	return repo
}

func TestCredentialRepo_SetAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := newCredentialRepo(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "azdo", "pat-abc123"))

	val, err := repo.Get(ctx, "azdo")
	require.NoError(t, err)
	assert.Equal(t, "pat-abc123", val)
}

func TestCredentialRepo_ValueIsEncryptedAtRest(t *testing.T) {
	db := setupTestDB(t)
	repo := newCredentialRepo(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "azdo", "pat-abc123"))

	var stored string
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT value FROM credentials WHERE service = 'azdo'`).Scan(&stored))
	assert.NotContains(t, stored, "pat-abc123")
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := newCredentialRepo(t, db)

	val, err := repo.Get(context.Background(), "azdo")
	require.NoError(t, err)
	assert.Equal(t, "", val)
}

func TestCredentialRepo_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := newCredentialRepo(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "azdo", "old-value"))
	require.NoError(t, repo.Set(ctx, "azdo", "new-value"))

	val, err := repo.Get(ctx, "azdo")
	require.NoError(t, err)
	assert.Equal(t, "new-value", val)

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, creds, 1)
}

func TestCredentialRepo_List(t *testing.T) {
	db := setupTestDB(t)
	repo := newCredentialRepo(t, db)
	ctx := context.Background()

	creds, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, creds)

	require.NoError(t, repo.Set(ctx, "github", "ghp_abc"))
	require.NoError(t, repo.Set(ctx, "azdo", "pat"))

	creds, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 2)
	assert.Equal(t, "azdo", creds[0].Service)
	assert.Equal(t, "pat", creds[0].Value)
	assert.Equal(t, "github", creds[1].Service)
	assert.False(t, creds[1].UpdatedAt.IsZero())
}

func TestCredentialRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := newCredentialRepo(t, db)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "azdo", "pat"))
	require.NoError(t, repo.Delete(ctx, "azdo"))

	val, err := repo.Get(ctx, "azdo")
	require.NoError(t, err)
	assert.Equal(t, "", val)

	assert.NoError(t, repo.Delete(ctx, "azdo"), "deleting nonexistent credential should not error")
}

func TestCredentialRepo_NoKey(t *testing.T) {
	db := setupTestDB(t)
	repo, err := NewCredentialRepo(db, nil)
	require.NoError(t, err)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Set(ctx, "azdo", "pat"), driven.ErrEncryptionKeyNotSet)
	_, err = repo.Get(ctx, "azdo")
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
	_, err = repo.List(ctx)
	assert.ErrorIs(t, err, driven.ErrEncryptionKeyNotSet)
	assert.NoError(t, repo.Delete(ctx, "azdo"))
}

func TestCredentialRepo_WrongKeyFailsToDecrypt(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	require.NoError(t, newCredentialRepo(t, db).Set(ctx, "azdo", "pat"))

	other := make([]byte, 32)
	repo, err := NewCredentialRepo(db, other)
	require.NoError(t, err)

	_, err = repo.Get(ctx, "azdo")
	assert.Error(t, err)
}

func TestNewCredentialRepo_RejectsShortKey(t *testing.T) {
	db := setupTestDB(t)
	_, err := NewCredentialRepo(db, []byte("short"))
	assert.Error(t, err)
}
