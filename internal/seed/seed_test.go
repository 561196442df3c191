package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/latoulicious/perso-wars/pkg/common"
	"github.com/latoulicious/perso-wars/pkg/database"
	"github.com/latoulicious/perso-wars/pkg/database/migration"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/service"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
personalities:
  - name: Jisoo
    groups: [BLACKPINK]
    images:
      - https://img.example/jisoo-1.png
      - https://img.example/jisoo-2.png
  - name: Lisa
    groups: [BLACKPINK]
  - name: Jisoo
    groups: [Solo]
`

func TestParse(t *testing.T) {
	c, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, c.Personalities, 3)
	assert.Equal(t, "Jisoo", c.Personalities[0].Name)
	assert.Equal(t, []string{"BLACKPINK"}, c.Personalities[0].Groups)
	assert.Len(t, c.Personalities[0].Images, 2)
}

func TestParse_EmptyDocument(t *testing.T) {
	c, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, c.Personalities)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown key": "personalities:\n  - name: A\n    groups: [G]\n    age: 3\n",
		"no name":     "personalities:\n  - groups: [G]\n",
		"no group":    "personalities:\n  - name: A\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestImport_IsIdempotent(t *testing.T) {
	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, migration.RunMigration(db))

	s := gacha.NewService(db, common.NewMemoryLocker(), shared.SystemClock{}, gacha.DefaultSettings(), nil)
	catalog := service.NewCatalogService(s)

	c, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	ctx := context.Background()
	report, err := Import(ctx, catalog, c)
	require.NoError(t, err)
	assert.Equal(t, Report{Added: 3}, report)

	report, err = Import(ctx, catalog, c)
	require.NoError(t, err)
	assert.Equal(t, Report{Skipped: 3}, report)

	count, err := s.CatalogRepo.CountPersonalities(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	found, err := catalog.Find(ctx, shared.PersoRef{Name: "Jisoo", Group: "BLACKPINK"})
	require.NoError(t, err)
	assert.Len(t, found.Images, 2)
}
