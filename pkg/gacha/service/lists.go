package service

import (
	"context"
	"sort"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/database/repository"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
)

// ListService manages wishlists (bounded by the member's max wish) and
// shopping lists (personalities wanted from their current owner)
type ListService struct {
	service *gacha.Service
}

var _ gacha.ListServiceInterface = (*ListService)(nil)

func NewListService(s *gacha.Service) gacha.ListServiceInterface {
	return &ListService{service: s}
}

func addStatusErr(status repository.ListAddStatus) error {
	switch status {
	case repository.ListFull:
		return shared.ErrCapacityExceeded
	case repository.ListDuplicate:
		return shared.ErrAlreadyInList
	default:
		return nil
	}
}

// AddWish puts a personality on the member's wishlist
func (ls *ListService) AddWish(ctx context.Context, serverID, memberID string, persoID uint) error {
	s := ls.service
	if _, err := personality(ctx, s, persoID); err != nil {
		return err
	}
	member, err := memberFor(ctx, s.MemberRepo, s, serverID, memberID)
	if err != nil {
		return err
	}

	status, err := s.WishlistRepo.AddWithCapacity(ctx, serverID, persoID, memberID, member.MaxWish)
	if err != nil {
		return err
	}
	return addStatusErr(status)
}

// RemoveWish takes a personality off the member's wishlist
func (ls *ListService) RemoveWish(ctx context.Context, serverID, memberID string, persoID uint) error {
	removed, err := ls.service.WishlistRepo.Remove(ctx, serverID, persoID, memberID)
	if err != nil {
		return err
	}
	if !removed {
		return shared.NotFoundf("personality %d in wishlist", persoID)
	}
	return nil
}

func (ls *ListService) Wishlist(ctx context.Context, serverID, memberID string) ([]models.Personality, error) {
	return ls.service.WishlistRepo.Personalities(ctx, serverID, memberID)
}

func (ls *ListService) WishedBy(ctx context.Context, serverID string, persoID uint) ([]string, error) {
	return ls.service.WishlistRepo.Members(ctx, serverID, persoID)
}

// AddToShoppingList records interest in a personality owned by someone else
func (ls *ListService) AddToShoppingList(ctx context.Context, serverID, memberID string, persoID uint) error {
	s := ls.service
	if _, err := personality(ctx, s, persoID); err != nil {
		return err
	}

	owner, err := s.DeckRepo.Owner(ctx, serverID, persoID)
	if err != nil {
		return err
	}
	if owner == nil {
		return shared.ErrNotOwned
	}
	if *owner == memberID {
		return shared.ErrAlreadyOwned
	}

	status, err := s.ShoppingRepo.Add(ctx, serverID, persoID, memberID)
	if err != nil {
		return err
	}
	return addStatusErr(status)
}

// RemoveFromShoppingList takes a personality off the member's shopping list
func (ls *ListService) RemoveFromShoppingList(ctx context.Context, serverID, memberID string, persoID uint) error {
	removed, err := ls.service.ShoppingRepo.Remove(ctx, serverID, persoID, memberID)
	if err != nil {
		return err
	}
	if !removed {
		return shared.NotFoundf("personality %d in shopping list", persoID)
	}
	return nil
}

func (ls *ListService) ShoppingList(ctx context.Context, serverID, memberID string) ([]models.Personality, error) {
	return ls.service.ShoppingRepo.Personalities(ctx, serverID, memberID)
}

// ShoppingOffers groups the member's shopping list by current owner.
// Entries whose personality was discarded since are left out.
func (ls *ListService) ShoppingOffers(ctx context.Context, serverID, memberID string) ([]shared.ShoppingOffer, error) {
	s := ls.service
	wanted, err := s.ShoppingRepo.Personalities(ctx, serverID, memberID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(wanted))
	for _, p := range wanted {
		ids = append(ids, p.ID)
	}
	owners, err := s.DeckRepo.OwnersOf(ctx, serverID, ids)
	if err != nil {
		return nil, err
	}

	byOwner := make(map[string][]models.Personality)
	for _, p := range wanted {
		owner, ok := owners[p.ID]
		if !ok || owner == memberID {
			continue
		}
		byOwner[owner] = append(byOwner[owner], p)
	}

	offers := make([]shared.ShoppingOffer, 0, len(byOwner))
	for owner, persos := range byOwner {
		offers = append(offers, shared.ShoppingOffer{OwnerID: owner, Personalities: persos})
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].OwnerID < offers[j].OwnerID })
	return offers, nil
}
