package service

import (
	"context"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
)

// topGroups is the number of groups listed on a profile
const topGroups = 10

type ProfileService struct {
	service   *gacha.Service
	badges    gacha.BadgeServiceInterface
	transfers gacha.TransferServiceInterface
}

var _ gacha.ProfileServiceInterface = (*ProfileService)(nil)

func NewProfileService(s *gacha.Service) gacha.ProfileServiceInterface {
	return &ProfileService{
		service:   s,
		badges:    NewBadgeService(s),
		transfers: NewTransferService(s),
	}
}

// Deck returns the member's personalities sorted by name
func (ps *ProfileService) Deck(ctx context.Context, serverID, memberID string) ([]models.Personality, error) {
	return ps.service.DeckRepo.OwnedBy(ctx, serverID, memberID)
}

// Profile summarises the member's collection
func (ps *ProfileService) Profile(ctx context.Context, serverID, memberID string) (*shared.Profile, error) {
	s := ps.service
	member, err := memberFor(ctx, s.MemberRepo, s, serverID, memberID)
	if err != nil {
		return nil, err
	}

	owned, err := s.DeckRepo.OwnedIDs(ctx, serverID, memberID)
	if err != nil {
		return nil, err
	}
	counts, err := s.DeckRepo.GroupCounts(ctx, serverID, memberID, topGroups)
	if err != nil {
		return nil, err
	}

	profile := &shared.Profile{
		ServerID: serverID,
		MemberID: memberID,
		DeckSize: len(owned),
	}
	for _, c := range counts {
		profile.TopGroups = append(profile.TopGroups, shared.GroupCount{Name: c.Name, Count: c.Count})
	}

	// the showcase is hidden once the personality leaves the deck
	if member.PersoProfileID != nil && containsID(owned, *member.PersoProfileID) {
		showcase, err := personality(ctx, s, *member.PersoProfileID)
		if err != nil {
			return nil, err
		}
		profile.Showcase = showcase
	}

	progress, err := ps.badges.AllProgress(ctx, serverID, memberID)
	if err != nil {
		return nil, err
	}
	for _, p := range progress {
		if p.Complete {
			profile.Badges = append(profile.Badges, p.Name)
		}
	}
	return profile, nil
}

// SetProfilePersonality picks the showcased personality; an empty name clears it
func (ps *ProfileService) SetProfilePersonality(ctx context.Context, serverID, memberID string, ref shared.PersoRef) error {
	s := ps.service
	if _, err := memberFor(ctx, s.MemberRepo, s, serverID, memberID); err != nil {
		return err
	}
	if ref.Name == "" {
		return s.MemberRepo.SetProfilePersonality(ctx, serverID, memberID, nil)
	}

	perso, err := ps.transfers.FindOwned(ctx, serverID, memberID, ref)
	if err != nil {
		return err
	}
	return s.MemberRepo.SetProfilePersonality(ctx, serverID, memberID, &perso.ID)
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
