package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNamesSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.sql":   {Data: []byte("SELECT 2")},
		"m/0001_a.sql":   {Data: []byte("SELECT 1")},
		"m/README.md":    {Data: []byte("docs")},
		"m/nested/x.sql": {Data: []byte("SELECT 3")},
	}

	names, err := migrationNames(fsys, "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_a.sql", "0002_b.sql"}, names)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	names, err := migrationNames(migrationFiles, "migrations")
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_payslips.sql", "0002_audit_events.sql"}, names)
}
