package migration

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	migrations, err := List()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"000001_create_products",
		"000002_create_sync_logs",
	}, migrations)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	migrations, err := List()
	require.NoError(t, err)

	for _, name := range migrations {
		up, err := fs.ReadFile(sqlFiles, sqlDir+"/"+name+".up.sql")
		require.NoError(t, err)
		assert.NotEmpty(t, strings.TrimSpace(string(up)))

		down, err := fs.ReadFile(sqlFiles, sqlDir+"/"+name+".down.sql")
		require.NoError(t, err, "missing down migration for %s", name)
		assert.Contains(t, string(down), "DROP TABLE")
	}
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/000002_b.up.sql":   {Data: []byte("b")},
		"m/000002_b.down.sql": {Data: []byte("b")},
		"m/000001_a.up.sql":   {Data: []byte("a")},
		"m/000001_a.down.sql": {Data: []byte("a")},
		"m/README.md":         {Data: []byte("notes")},
		"m/nested/x.up.sql":   {Data: []byte("x")},
	}

	migrations, err := listMigrations(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_a", "000002_b"}, migrations)

	_, err = listMigrations(fsys, "missing")
	assert.Error(t, err)
}

func TestSource(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
}
