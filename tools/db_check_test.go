package tools

import (
	"bytes"
	"testing"

	"github.com/latoulicious/perso-wars/pkg/database"
	"github.com/latoulicious/perso-wars/pkg/database/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDBCheck_ReportsMissingTables(t *testing.T) {
	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, DBCheck(&out, db))
	assert.Contains(t, out.String(), "Missing tables")
	assert.Contains(t, out.String(), "personalities")
}

func TestDBCheck_MigratedDatabase(t *testing.T) {
	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, migration.RunMigration(db))

	var out bytes.Buffer
	require.NoError(t, DBCheck(&out, db))
	assert.Contains(t, out.String(), "All engine tables exist")
	assert.Contains(t, out.String(), "catalog has 0 personalities")
}
