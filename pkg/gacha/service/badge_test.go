package service

import (
	"context"
	"testing"

	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsComplete(t *testing.T) {
	assert.False(t, shared.IsComplete(0, 0), "empty badges are never complete")
	assert.False(t, shared.IsComplete(1, 2))
	assert.True(t, shared.IsComplete(2, 2))
}

func TestBadge_ProgressAndOwner(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	badges := NewBadgeService(s)
	p1 := addPerso(t, s, "Alice", "Alpha")
	p2 := addPerso(t, s, "Bob", "Alpha")

	badge, err := badges.Create(ctx, testServer, "Alpha Fan", "")
	require.NoError(t, err)

	owned, required, err := badges.Progress(ctx, testServer, "u1", badge.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, owned)
	assert.Equal(t, 0, required)

	_, found, err := badges.Owner(ctx, testServer, badge.ID)
	require.NoError(t, err)
	assert.False(t, found, "an empty badge has no owner")

	require.NoError(t, badges.AddPersonality(ctx, testServer, "Alpha Fan", p1.ID))
	require.NoError(t, badges.AddPersonality(ctx, testServer, "Alpha Fan", p2.ID))
	giveTo(t, s, p1.ID, "u1")

	owned, required, err = badges.Progress(ctx, testServer, "u1", badge.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, owned)
	assert.Equal(t, 2, required)
	assert.False(t, shared.IsComplete(owned, required))

	giveTo(t, s, p2.ID, "u1")
	owned, required, err = badges.Progress(ctx, testServer, "u1", badge.ID)
	require.NoError(t, err)
	assert.True(t, shared.IsComplete(owned, required))

	owner, found, err := badges.Owner(ctx, testServer, badge.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "u1", owner)

	_, _, err = badges.Progress(ctx, "server-2", "u1", badge.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound, "badges are per server")
}

func TestBadge_AllProgressSortedByName(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	badges := NewBadgeService(s)
	p1 := addPerso(t, s, "Alice", "Alpha")
	giveTo(t, s, p1.ID, "u1")

	_, err := badges.Create(ctx, testServer, "Zeta", "")
	require.NoError(t, err)
	_, err = badges.Create(ctx, testServer, "Alpha", "")
	require.NoError(t, err)
	require.NoError(t, badges.AddPersonality(ctx, testServer, "Alpha", p1.ID))

	progress, err := badges.AllProgress(ctx, testServer, "u1")
	require.NoError(t, err)
	require.Len(t, progress, 2)
	assert.Equal(t, "Alpha", progress[0].Name)
	assert.True(t, progress[0].Complete)
	assert.Equal(t, "Zeta", progress[1].Name)
	assert.False(t, progress[1].Complete)
}

func TestBadge_Admin(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	badges := NewBadgeService(s)
	p1 := addPerso(t, s, "Alice", "Alpha")

	_, err := badges.Create(ctx, testServer, "Collector", "first")
	require.NoError(t, err)
	_, err = badges.Create(ctx, testServer, "Collector", "again")
	assert.ErrorIs(t, err, shared.ErrDuplicate)
	_, err = badges.Create(ctx, testServer, "  ", "")
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	// Same name on another server is fine
	_, err = badges.Create(ctx, "server-2", "Collector", "")
	require.NoError(t, err)

	_, err = badges.Create(ctx, testServer, "Other", "")
	require.NoError(t, err)
	assert.ErrorIs(t, badges.Rename(ctx, testServer, "Collector", "Other"), shared.ErrDuplicate)
	require.NoError(t, badges.Rename(ctx, testServer, "Collector", "Hoarder"))
	_, err = badges.Get(ctx, testServer, "Collector")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, badges.SetDescription(ctx, testServer, "Hoarder", "own them all"))
	require.NoError(t, badges.AddPersonality(ctx, testServer, "Hoarder", p1.ID))
	assert.ErrorIs(t, badges.AddPersonality(ctx, testServer, "Hoarder", p1.ID), shared.ErrDuplicate)
	assert.ErrorIs(t, badges.AddPersonality(ctx, testServer, "Hoarder", 999), shared.ErrNotFound)

	with, err := badges.BadgesWith(ctx, testServer, p1.ID)
	require.NoError(t, err)
	require.Len(t, with, 1)
	assert.Equal(t, "Hoarder", with[0].Name)
	assert.Equal(t, "own them all", with[0].Description)

	require.NoError(t, badges.RemovePersonality(ctx, testServer, "Hoarder", p1.ID))
	assert.ErrorIs(t, badges.RemovePersonality(ctx, testServer, "Hoarder", p1.ID), shared.ErrNotFound)

	require.NoError(t, badges.Remove(ctx, testServer, "Hoarder"))
	list, err := badges.List(ctx, testServer)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Other", list[0].Name)
}

func TestBadge_AddPersonalitiesByName(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	badges := NewBadgeService(s)
	alice := addPerso(t, s, "Alice", "Alpha")
	addPerso(t, s, "Bob", "Alpha")
	addPerso(t, s, "Bob", "Beta")

	_, err := badges.Create(ctx, testServer, "Mixed", "")
	require.NoError(t, err)
	require.NoError(t, badges.AddPersonality(ctx, testServer, "Mixed", alice.ID))

	result, err := badges.AddPersonalities(ctx, testServer, "Mixed", []shared.PersoRef{
		{Name: "alice"},
		{Name: "Bob", Group: "beta"},
		{Name: "Bob"},
		{Name: "Nobody"},
	})
	require.NoError(t, err)
	require.Len(t, result.Added, 1)
	assert.Equal(t, "Bob", result.Added[0].Name)
	require.Len(t, result.Already, 1)
	assert.Equal(t, alice.ID, result.Already[0].ID)
	assert.Equal(t, []string{"Bob", "Nobody"}, result.NotFound)
}

func TestBadge_Show(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	badges := NewBadgeService(s)
	p1 := addPerso(t, s, "Alice", "Alpha")
	p2 := addPerso(t, s, "Bob", "Alpha")

	_, err := badges.Create(ctx, testServer, "Pair", "")
	require.NoError(t, err)
	require.NoError(t, badges.AddPersonality(ctx, testServer, "Pair", p1.ID))
	require.NoError(t, badges.AddPersonality(ctx, testServer, "Pair", p2.ID))
	giveTo(t, s, p1.ID, "u1")

	details, err := badges.Show(ctx, testServer, "Pair")
	require.NoError(t, err)
	require.Len(t, details.Badge.Personalities, 2)
	assert.Equal(t, map[uint]string{p1.ID: "u1"}, details.Owners)
	assert.Empty(t, details.OwnerID)

	giveTo(t, s, p2.ID, "u1")
	details, err = badges.Show(ctx, testServer, "Pair")
	require.NoError(t, err)
	assert.Equal(t, "u1", details.OwnerID)
}
