package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/database/repository"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
	"github.com/latoulicious/perso-wars/pkg/logging"
)

// CatalogService maintains the global catalog shared by every server
type CatalogService struct {
	service *gacha.Service
	images  gacha.ImageServiceInterface
	logger  logging.Logger
}

var _ gacha.CatalogServiceInterface = (*CatalogService)(nil)

func NewCatalogService(s *gacha.Service) gacha.CatalogServiceInterface {
	return &CatalogService{
		service: s,
		images:  NewImageService(s),
		logger:  componentLogger(s, "catalog"),
	}
}

func (cs *CatalogService) Get(ctx context.Context, persoID uint) (*models.Personality, error) {
	return personality(ctx, cs.service, persoID)
}

// Find resolves a name, optionally narrowed by group
func (cs *CatalogService) Find(ctx context.Context, ref shared.PersoRef) (*models.Personality, error) {
	return resolve(ctx, cs.service, ref)
}

// Add creates a personality. A name may repeat only across different groups.
func (cs *CatalogService) Add(ctx context.Context, name string, groups, imageURLs []string) (*models.Personality, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(groups) == 0 {
		return nil, fmt.Errorf("%w: a personality needs a name and a group", shared.ErrInvalidArgument)
	}

	for _, g := range groups {
		if strings.TrimSpace(g) == "" {
			return nil, fmt.Errorf("%w: empty group name", shared.ErrInvalidArgument)
		}
		existing, err := cs.service.CatalogRepo.FindPersonalities(ctx, name, g)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return nil, fmt.Errorf("%s (%s): %w", name, g, shared.ErrDuplicate)
		}
	}

	perso, err := cs.service.CatalogRepo.CreatePersonality(ctx, name, groups, imageURLs)
	if err != nil {
		return nil, fmt.Errorf("create personality: %w", err)
	}

	cs.logger.Info("Personality added", map[string]interface{}{
		"personality_id": perso.ID,
		"name":           perso.DisplayName(),
		"images":         len(perso.Images),
	})
	return perso, nil
}

// Remove deletes a personality from the catalog and from every server
func (cs *CatalogService) Remove(ctx context.Context, persoID uint) error {
	err := cs.service.CatalogRepo.RemovePersonality(ctx, persoID)
	if repository.IsNotFound(err) {
		return shared.NotFoundf("personality %d", persoID)
	}
	if err != nil {
		return err
	}

	cs.logger.Info("Personality removed", map[string]interface{}{"personality_id": persoID})
	return nil
}

func (cs *CatalogService) AddImage(ctx context.Context, persoID uint, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("%w: empty image url", shared.ErrInvalidArgument)
	}
	if _, err := personality(ctx, cs.service, persoID); err != nil {
		return err
	}

	added, err := cs.service.CatalogRepo.AddImage(ctx, persoID, url)
	if err != nil {
		return err
	}
	if !added {
		return fmt.Errorf("image %s: %w", url, shared.ErrDuplicate)
	}
	return nil
}

func (cs *CatalogService) RemoveImage(ctx context.Context, persoID uint, url string) error {
	removed, err := cs.service.CatalogRepo.RemoveImage(ctx, persoID, url)
	if err != nil {
		return err
	}
	if !removed {
		return shared.NotFoundf("image %s", url)
	}
	return nil
}

// ListGroups returns every group sorted by name
func (cs *CatalogService) ListGroups(ctx context.Context) ([]models.Group, error) {
	return cs.service.CatalogRepo.ListGroups(ctx)
}

// GroupMembers returns a group and its personalities
func (cs *CatalogService) GroupMembers(ctx context.Context, group string) (*shared.GroupListing, error) {
	if strings.TrimSpace(group) == "" {
		return nil, fmt.Errorf("%w: empty group name", shared.ErrInvalidArgument)
	}

	found, members, err := cs.service.CatalogRepo.GroupMembers(ctx, group)
	if repository.IsNotFound(err) {
		return nil, shared.NotFoundf("group %s", group)
	}
	if err != nil {
		return nil, err
	}
	return &shared.GroupListing{Group: *found, Members: members}, nil
}

// ListByName returns the personalities whose name contains fragment
func (cs *CatalogService) ListByName(ctx context.Context, fragment string) ([]models.Personality, error) {
	if strings.TrimSpace(fragment) == "" {
		return nil, fmt.Errorf("%w: empty name", shared.ErrInvalidArgument)
	}

	persos, err := cs.service.CatalogRepo.PersonalitiesContaining(ctx, fragment)
	if err != nil {
		return nil, err
	}
	if len(persos) == 0 {
		return nil, shared.NotFoundf("no personality matches %q", fragment)
	}
	return persos, nil
}

// Info describes a personality in a server: its current image, owner,
// wishers and badges
func (cs *CatalogService) Info(ctx context.Context, serverID string, persoID uint) (*shared.PersoInfo, error) {
	perso, err := personality(ctx, cs.service, persoID)
	if err != nil {
		return nil, err
	}
	return describe(ctx, cs.service, cs.images, serverID, perso)
}

func describe(ctx context.Context, s *gacha.Service, images gacha.ImageServiceInterface, serverID string, perso *models.Personality) (*shared.PersoInfo, error) {
	owner, err := s.DeckRepo.Owner(ctx, serverID, perso.ID)
	if err != nil {
		return nil, err
	}
	wishedBy, err := s.WishlistRepo.Members(ctx, serverID, perso.ID)
	if err != nil {
		return nil, err
	}
	badges, err := s.BadgeRepo.WithPersonality(ctx, serverID, perso.ID)
	if err != nil {
		return nil, err
	}
	image, err := images.CurrentImage(ctx, serverID, perso.ID)
	if err != nil {
		return nil, err
	}

	info := &shared.PersoInfo{
		ServerID:    serverID,
		Personality: *perso,
		Image:       *image,
		OwnerID:     owner,
		WishedBy:    wishedBy,
	}
	for _, b := range badges {
		info.Badges = append(info.Badges, b.Name)
	}
	return info, nil
}
