package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err, "InitDB should not return an error")
	defer teardown()

	tables := []string{
		"clubs",
		"users",
		"club_members",
		"competitions",
		"games",
		"game_versions",
		"proposals",
		"validation_requests",
		"competition_leaderboard_entries",
		"global_leaderboard_entries",
		"tournament_rounds",
	}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestInitDB_IsIdempotentOnFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	_, teardown, err := InitDB(path, "", "")
	require.NoError(t, err)
	teardown()

	db, teardown, err := InitDB(path, "", "")
	require.NoError(t, err, "re-running migrations must be a no-op")
	defer teardown()

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestLocalDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?_foreign_keys=on&_txlock=immediate&_busy_timeout=5000", localDSN(":memory:"))
	assert.Equal(t, "file:club.db?_foreign_keys=on&_txlock=immediate&_busy_timeout=5000", localDSN("club.db"))
}
