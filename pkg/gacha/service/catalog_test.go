package service

import (
	"context"
	"testing"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_AddAndFind(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	catalog := NewCatalogService(s)

	alice, err := catalog.Add(ctx, "Alice", []string{"Alpha", "Omega"}, []string{"https://img/a.png"})
	require.NoError(t, err)
	assert.Equal(t, "Alice (Alpha, Omega)", alice.DisplayName())
	require.Len(t, alice.Images, 1)

	_, err = catalog.Add(ctx, "alice", []string{"ALPHA"}, nil)
	assert.ErrorIs(t, err, shared.ErrDuplicate, "group names are case-insensitive")

	_, err = catalog.Add(ctx, "Alice", []string{"Beta"}, nil)
	require.NoError(t, err)

	_, err = catalog.Add(ctx, "", []string{"Beta"}, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)
	_, err = catalog.Add(ctx, "Nobody", nil, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = catalog.Find(ctx, shared.PersoRef{Name: "Alice"})
	assert.ErrorIs(t, err, shared.ErrAmbiguous)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	found, err := catalog.Find(ctx, shared.PersoRef{Name: "alice", Group: "omega"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	_, err = catalog.Get(ctx, 999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCatalog_Images(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	catalog := NewCatalogService(s)
	perso := addPerso(t, s, "Alice", "Alpha")

	require.NoError(t, catalog.AddImage(ctx, perso.ID, "https://img/b.png"))
	require.NoError(t, catalog.AddImage(ctx, perso.ID, "https://img/a.png"))
	assert.ErrorIs(t, catalog.AddImage(ctx, perso.ID, "https://img/a.png"), shared.ErrDuplicate)
	assert.ErrorIs(t, catalog.AddImage(ctx, 999, "https://img/x.png"), shared.ErrNotFound)

	urls, err := s.CatalogRepo.GetImages(ctx, perso.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img/a.png", "https://img/b.png"}, urls)

	require.NoError(t, catalog.RemoveImage(ctx, perso.ID, "https://img/a.png"))
	assert.ErrorIs(t, catalog.RemoveImage(ctx, perso.ID, "https://img/a.png"), shared.ErrNotFound)
}

func TestCatalog_RemoveCascadesEverywhere(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	catalog := NewCatalogService(s)
	perso := addPerso(t, s, "Alice", "Alpha", "https://img/a.png")
	keep := addPerso(t, s, "Bob", "Alpha")

	giveTo(t, s, perso.ID, "u1")
	_, err := s.DeckRepo.ClaimIfUnowned(ctx, "server-2", perso.ID, "u9")
	require.NoError(t, err)
	_, err = s.WishlistRepo.Add(ctx, testServer, perso.ID, "u2")
	require.NoError(t, err)
	_, err = s.ShoppingRepo.Add(ctx, testServer, perso.ID, "u3")
	require.NoError(t, err)
	badge, err := NewBadgeService(s).Create(ctx, testServer, "Fan", "")
	require.NoError(t, err)
	_, err = s.BadgeRepo.AddPersonality(ctx, badge.ID, perso.ID)
	require.NoError(t, err)
	require.NoError(t, NewProfileService(s).SetProfilePersonality(ctx, testServer, "u1", shared.PersoRef{Name: "Alice"}))

	require.NoError(t, catalog.Remove(ctx, perso.ID))
	assert.ErrorIs(t, catalog.Remove(ctx, perso.ID), shared.ErrNotFound)

	for _, model := range []interface{}{
		&models.Deck{}, &models.Wishlist{}, &models.ShoppingList{},
		&models.BadgePerso{}, &models.PersoGroup{}, &models.Image{},
	} {
		var count int64
		require.NoError(t, s.DB.Model(model).Where("personality_id = ?", perso.ID).Count(&count).Error)
		assert.Zero(t, count, "%T rows left", model)
	}

	member, err := s.MemberRepo.GetOrCreate(ctx, testServer, "u1", 5)
	require.NoError(t, err)
	assert.Nil(t, member.PersoProfileID)

	_, err = catalog.Get(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestCatalog_Groups(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	catalog := NewCatalogService(s)

	groups, err := catalog.ListGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, err = catalog.Add(ctx, "Zoe", []string{"beta"}, nil)
	require.NoError(t, err)
	_, err = catalog.Add(ctx, "Alice", []string{"Beta", "Alpha"}, nil)
	require.NoError(t, err)
	addPerso(t, s, "Carol", "Gamma")

	groups, err = catalog.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"Alpha", "beta", "Gamma"}, []string{groups[0].Name, groups[1].Name, groups[2].Name})

	listing, err := catalog.GroupMembers(ctx, "BETA")
	require.NoError(t, err)
	assert.Equal(t, "beta", listing.Group.Name)
	require.Len(t, listing.Members, 2)
	assert.Equal(t, "Alice", listing.Members[0].Name)
	assert.Equal(t, "Zoe", listing.Members[1].Name)
	assert.Equal(t, []string{"Alpha", "beta"}, listing.Members[0].GroupNames())

	_, err = catalog.GroupMembers(ctx, "Delta")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = catalog.GroupMembers(ctx, "  ")
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestCatalog_ListByName(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	catalog := NewCatalogService(s)

	addPerso(t, s, "Annabelle", "Alpha")
	addPerso(t, s, "Anna", "Beta")
	addPerso(t, s, "Hannah", "Gamma")
	addPerso(t, s, "Bob", "Beta")
	addPerso(t, s, "100% Real", "Delta")

	found, err := catalog.ListByName(ctx, "ANN")
	require.NoError(t, err)
	names := make([]string, 0, len(found))
	for _, p := range found {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"Anna", "Annabelle", "Hannah"}, names)
	require.Len(t, found[0].Groups, 1, "groups are preloaded")

	found, err = catalog.ListByName(ctx, "0%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% Real", found[0].Name)

	_, err = catalog.ListByName(ctx, "_")
	assert.ErrorIs(t, err, shared.ErrNotFound, "wildcards match literally")
	_, err = catalog.ListByName(ctx, "zed")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = catalog.ListByName(ctx, "")
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestCatalog_Info(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	catalog := NewCatalogService(s)
	perso := addPerso(t, s, "Alice", "Alpha", "https://img/a.png", "https://img/b.png")

	info, err := catalog.Info(ctx, testServer, perso.ID)
	require.NoError(t, err)
	assert.Equal(t, testServer, info.ServerID)
	assert.Equal(t, "Alice (Alpha)", info.Personality.DisplayName())
	assert.Nil(t, info.OwnerID)
	assert.Empty(t, info.WishedBy)
	assert.Empty(t, info.Badges)
	assert.Equal(t, shared.ImageView{Index: 0, Count: 2, URL: "https://img/a.png"}, info.Image)

	giveTo(t, s, perso.ID, "u1")
	require.NoError(t, NewListService(s).AddWish(ctx, testServer, "u2", perso.ID))
	badges := NewBadgeService(s)
	_, err = badges.Create(ctx, testServer, "Founders", "")
	require.NoError(t, err)
	require.NoError(t, badges.AddPersonality(ctx, testServer, "Founders", perso.ID))
	_, err = NewImageService(s).NextImage(ctx, testServer, perso.ID)
	require.NoError(t, err)

	info, err = catalog.Info(ctx, testServer, perso.ID)
	require.NoError(t, err)
	require.NotNil(t, info.OwnerID)
	assert.Equal(t, "u1", *info.OwnerID)
	assert.Equal(t, []string{"u2"}, info.WishedBy)
	assert.Equal(t, []string{"Founders"}, info.Badges)
	assert.Equal(t, "https://img/b.png", info.Image.URL)

	// ownership and cursors are per server
	other, err := catalog.Info(ctx, "server-2", perso.ID)
	require.NoError(t, err)
	assert.Nil(t, other.OwnerID)
	assert.Empty(t, other.Badges)
	assert.Equal(t, 0, other.Image.Index)

	_, err = catalog.Info(ctx, testServer, 999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
