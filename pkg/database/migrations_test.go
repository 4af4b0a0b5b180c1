package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDSN(t *testing.T) {
	dsn := DSN(Config{Path: "/tmp/x.db"})
	assert.Contains(t, dsn, "file:/tmp/x.db?")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_busy_timeout=5000")
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/010_later.sql":  {Data: []byte("SELECT 1;")},
		"m/002_second.sql": {Data: []byte("SELECT 1;")},
		"m/001_first.sql":  {Data: []byte("SELECT 1;")},
		"m/README.md":      {Data: []byte("ignored")},
	}

	migrations, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "first", migrations[0].Name)
	assert.Equal(t, 10, migrations[2].Version)
}

func TestLoadMigrations_RejectsDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"m/001_a.sql": {Data: []byte("SELECT 1;")},
		"m/001_b.sql": {Data: []byte("SELECT 1;")},
	}

	_, err := LoadMigrations(fsys, "m")
	assert.Error(t, err)
}

func TestLoadMigrations_RejectsBadName(t *testing.T) {
	fsys := fstest.MapFS{"m/initial.sql": {Data: []byte("SELECT 1;")}}

	_, err := LoadMigrations(fsys, "m")
	assert.Error(t, err)
}

func TestMigrator_RunEmbedded(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	applied, err := m.Run()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, applied, 2)

	var items int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM verification_items").Scan(&items))
	assert.Greater(t, items, 0)

	var mandatory int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM pieces_justificatives WHERE obligatoire = 1").Scan(&mandatory))
	assert.Greater(t, mandatory, 0)

	again, err := m.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, again)
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	db := openTestDB(t)
	m := NewMigrator(db, zap.NewNop())

	fsys := fstest.MapFS{
		"m/001_ok.sql":     {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"m/002_broken.sql": {Data: []byte("CREATE TABLE b (id INTEGER); INSERT INTO missing VALUES (1);")},
	}

	applied, err := m.RunMigrations(fsys, "m")
	require.Error(t, err)
	assert.Equal(t, 1, applied)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, 1, n)

	err = db.QueryRow("SELECT COUNT(*) FROM b").Scan(&n)
	assert.Error(t, err, "table from failed migration must not exist")
}
