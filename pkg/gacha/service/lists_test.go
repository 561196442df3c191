package service

import (
	"context"
	"errors"
	"testing"

	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestWishlist(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	lists := NewListService(s)
	p1 := addPerso(t, s, "Bob", "Alpha")
	p2 := addPerso(t, s, "Alice", "Alpha")
	p3 := addPerso(t, s, "Carol", "Alpha")
	require.NoError(t, NewServerConfigService(s).SetMaxWish(ctx, testServer, "u1", 2))

	require.NoError(t, lists.AddWish(ctx, testServer, "u1", p1.ID))
	assert.ErrorIs(t, lists.AddWish(ctx, testServer, "u1", p1.ID), shared.ErrAlreadyInList)
	require.NoError(t, lists.AddWish(ctx, testServer, "u1", p2.ID))
	assert.ErrorIs(t, lists.AddWish(ctx, testServer, "u1", p3.ID), shared.ErrCapacityExceeded)
	assert.ErrorIs(t, lists.AddWish(ctx, testServer, "u1", 999), shared.ErrNotFound)

	wished, err := lists.Wishlist(ctx, testServer, "u1")
	require.NoError(t, err)
	require.Len(t, wished, 2)
	assert.Equal(t, "Alice", wished[0].Name)
	assert.Equal(t, "Bob", wished[1].Name)

	require.NoError(t, lists.AddWish(ctx, testServer, "u2", p1.ID))
	members, err := lists.WishedBy(ctx, testServer, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, members)

	require.NoError(t, lists.RemoveWish(ctx, testServer, "u1", p1.ID))
	assert.ErrorIs(t, lists.RemoveWish(ctx, testServer, "u1", p1.ID), shared.ErrNotFound)
	require.NoError(t, lists.AddWish(ctx, testServer, "u1", p3.ID))
}

func TestWishlist_ConcurrentAddsRespectCapacity(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	lists := NewListService(s)
	require.NoError(t, NewServerConfigService(s).SetMaxWish(ctx, testServer, "u1", 3))

	names := []string{"A", "B", "C", "D", "E", "F"}
	ids := make([]uint, len(names))
	for i, name := range names {
		ids[i] = addPerso(t, s, name, "Alpha").ID
	}

	errs := make([]error, len(ids))
	var g errgroup.Group
	for i := range ids {
		i := i
		g.Go(func() error {
			errs[i] = lists.AddWish(ctx, testServer, "u1", ids[i])
			return nil
		})
	}
	require.NoError(t, g.Wait())

	added := 0
	for _, err := range errs {
		if err == nil {
			added++
			continue
		}
		assert.True(t, errors.Is(err, shared.ErrCapacityExceeded), "unexpected error %v", err)
	}
	assert.Equal(t, 3, added)

	count, err := s.WishlistRepo.Count(ctx, testServer, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestShoppingList(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	lists := NewListService(s)
	p1 := addPerso(t, s, "Alice", "Alpha")
	p2 := addPerso(t, s, "Bob", "Alpha")
	p3 := addPerso(t, s, "Carol", "Alpha")
	p4 := addPerso(t, s, "Dan", "Alpha")
	giveTo(t, s, p1.ID, "owner-b")
	giveTo(t, s, p2.ID, "owner-a")
	giveTo(t, s, p3.ID, "owner-b")
	giveTo(t, s, p4.ID, "u1")

	assert.ErrorIs(t, lists.AddToShoppingList(ctx, testServer, "u1", p4.ID), shared.ErrAlreadyOwned)
	for _, p := range []uint{p1.ID, p2.ID, p3.ID} {
		require.NoError(t, lists.AddToShoppingList(ctx, testServer, "u1", p))
	}
	assert.ErrorIs(t, lists.AddToShoppingList(ctx, testServer, "u1", p1.ID), shared.ErrAlreadyInList)

	offers, err := lists.ShoppingOffers(ctx, testServer, "u1")
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, "owner-a", offers[0].OwnerID)
	require.Len(t, offers[0].Personalities, 1)
	assert.Equal(t, "Bob", offers[0].Personalities[0].Name)
	assert.Equal(t, "owner-b", offers[1].OwnerID)
	assert.Len(t, offers[1].Personalities, 2)

	// Discarded entries drop out of the offers but stay listed
	require.NoError(t, NewTransferService(s).Discard(ctx, testServer, p2.ID, "owner-a"))
	offers, err = lists.ShoppingOffers(ctx, testServer, "u1")
	require.NoError(t, err)
	require.Len(t, offers, 1)

	listed, err := lists.ShoppingList(ctx, testServer, "u1")
	require.NoError(t, err)
	assert.Len(t, listed, 3)

	assert.ErrorIs(t, lists.AddToShoppingList(ctx, testServer, "u2", p2.ID), shared.ErrNotOwned)
	require.NoError(t, lists.RemoveFromShoppingList(ctx, testServer, "u1", p2.ID))
	assert.ErrorIs(t, lists.RemoveFromShoppingList(ctx, testServer, "u1", p2.ID), shared.ErrNotFound)
}
