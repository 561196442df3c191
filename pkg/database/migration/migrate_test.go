package migration

import (
	"testing"

	"github.com/latoulicious/perso-wars/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigration_CreatesEveryTable(t *testing.T) {
	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)

	require.NoError(t, RunMigration(db))
	// a second run only reconciles
	require.NoError(t, RunMigration(db))

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
}

func TestResetDatabase_DropsEveryTable(t *testing.T) {
	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, RunMigration(db))

	require.NoError(t, ResetDatabase(db))
	for _, m := range Models() {
		assert.False(t, db.Migrator().HasTable(m), "table for %T survived", m)
	}

	require.NoError(t, RunMigration(db))
}
