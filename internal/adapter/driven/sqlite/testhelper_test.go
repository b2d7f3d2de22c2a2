package sqlite

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/adoctl/internal/domain/model"
)

// setupTestDB opens a migrated in-memory database named after the test, so
// tests never share state.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewMemoryDB(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RunMigrations(db.Writer))
	return db
}

// testKey is a fixed 32-byte AES-256 key for credential tests.
var testKey = bytes.Repeat([]byte{0x42}, 32)

// createTeam stores a team with the given members and fails the test on error.
func createTeam(t *testing.T, db *DB, name string, members ...model.TeamMember) {
	t.Helper()
	require.NoError(t, NewTeamRepo(db).Create(context.Background(), model.TeamConfig{Name: name, Members: members}))
}
