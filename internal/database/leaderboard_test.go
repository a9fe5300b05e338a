package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"uocsclub.net/hrlb/internal/types"
)

func newTestDatabase(t *testing.T) *DatabaseInst {
	t.Helper()

	db, err := InitDatabase(filepath.Join(t.TempDir(), "test.sqlite3"), "../../migrations")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestStoreAndGetSnapshot(t *testing.T) {
	db := newTestDatabase(t)

	rows := []types.Row{
		{Rank: 1, User: "alice", SolvedCount: 5, TimeTaken: "00:02:00"},
		{Rank: types.NotAvailable, User: "bob", SolvedCount: types.NotAvailable, TimeTaken: types.NotAvailable},
	}

	stored, err := db.StoreSnapshot("testcontest", rows)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.Id)

	got, err := db.GetLatestSnapshot("testcontest")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, stored.Id, got.Id)
	assert.Equal(t, "testcontest", got.ContestSlug)
	assert.Equal(t, rows, got.Rows)
}

func TestGetLatestSnapshot_Missing(t *testing.T) {
	db := newTestDatabase(t)

	got, err := db.GetLatestSnapshot("nothing-here")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetLatestSnapshot_ReturnsNewest(t *testing.T) {
	db := newTestDatabase(t)

	_, err := db.StoreSnapshot("c", []types.Row{{Rank: 1, User: "old", SolvedCount: 1, TimeTaken: "00:00:01"}})
	require.NoError(t, err)
	newest, err := db.StoreSnapshot("c", []types.Row{{Rank: 1, User: "new", SolvedCount: 2, TimeTaken: "00:00:02"}})
	require.NoError(t, err)

	got, err := db.GetLatestSnapshot("c")
	require.NoError(t, err)
	assert.Equal(t, newest.Id, got.Id)
	assert.Equal(t, "new", got.Rows[0].User)
}

func TestListSnapshots(t *testing.T) {
	db := newTestDatabase(t)

	_, err := db.StoreSnapshot("b-contest", []types.Row{{Rank: 1, User: "x", SolvedCount: 1, TimeTaken: "00:00:01"}})
	require.NoError(t, err)
	_, err = db.StoreSnapshot("a-contest", []types.Row{{Rank: 1, User: "y", SolvedCount: 1, TimeTaken: "00:00:01"}})
	require.NoError(t, err)
	latest, err := db.StoreSnapshot("a-contest", []types.Row{
		{Rank: 1, User: "y", SolvedCount: 1, TimeTaken: "00:00:01"},
		{Rank: 2, User: "z", SolvedCount: 1, TimeTaken: "00:00:02"},
	})
	require.NoError(t, err)

	infos, err := db.ListSnapshots()
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "a-contest", infos[0].ContestSlug)
	assert.Equal(t, latest.Id, infos[0].Id)
	assert.Equal(t, 2, infos[0].RowCount)
	assert.Equal(t, "b-contest", infos[1].ContestSlug)
	assert.Equal(t, 1, infos[1].RowCount)
}
