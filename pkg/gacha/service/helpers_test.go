package service

import (
	"context"
	"testing"
	"time"

	"github.com/latoulicious/perso-wars/pkg/common"
	"github.com/latoulicious/perso-wars/pkg/database"
	"github.com/latoulicious/perso-wars/pkg/database/migration"
	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
	"github.com/stretchr/testify/require"
)

const testServer = "server-1"

// testStart is a Saturday at 10:15 UTC
var testStart = time.Date(2025, 3, 1, 10, 15, 0, 0, time.UTC)

// newTestService builds an engine over a private in-memory database
func newTestService(t *testing.T) (*gacha.Service, *shared.ManualClock) {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, migration.RunMigration(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	clock := shared.NewManualClock(testStart)
	s := gacha.NewService(db, common.NewMemoryLocker(), clock, gacha.DefaultSettings(), nil)
	s.Pick = func(int) int { return 0 }
	return s, clock
}

func addPerso(t *testing.T, s *gacha.Service, name, group string, urls ...string) *models.Personality {
	t.Helper()
	perso, err := s.CatalogRepo.CreatePersonality(context.Background(), name, []string{group}, urls)
	require.NoError(t, err)
	return perso
}

func ownerOf(t *testing.T, s *gacha.Service, persoID uint) string {
	t.Helper()
	owner, err := s.DeckRepo.Owner(context.Background(), testServer, persoID)
	require.NoError(t, err)
	if owner == nil {
		return ""
	}
	return *owner
}

// pickID makes rolls land on the personality with the given id
func pickID(t *testing.T, s *gacha.Service, id uint) {
	t.Helper()
	var ids []uint
	require.NoError(t, s.DB.Model(&models.Personality{}).Order("id").Pluck("id", &ids).Error)
	for i, v := range ids {
		if v == id {
			s.Pick = func(int) int { return i }
			return
		}
	}
	t.Fatalf("personality %d not in catalog", id)
}

// giveTo makes member own persoID without going through the claim cooldown
func giveTo(t *testing.T, s *gacha.Service, persoID uint, memberID string) {
	t.Helper()
	won, err := s.DeckRepo.ClaimIfUnowned(context.Background(), testServer, persoID, memberID)
	require.NoError(t, err)
	require.True(t, won)
}
