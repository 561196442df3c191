package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/database/repository"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
)

// BadgeService evaluates badge completion and edits badges
type BadgeService struct {
	service *gacha.Service
}

var _ gacha.BadgeServiceInterface = (*BadgeService)(nil)

func NewBadgeService(s *gacha.Service) gacha.BadgeServiceInterface {
	return &BadgeService{service: s}
}

func (bs *BadgeService) byID(ctx context.Context, serverID string, badgeID uint) (*models.Badge, error) {
	badge, err := bs.service.BadgeRepo.GetByID(ctx, serverID, badgeID)
	if repository.IsNotFound(err) {
		return nil, shared.NotFoundf("badge %d", badgeID)
	}
	return badge, err
}

// Get returns a badge by name
func (bs *BadgeService) Get(ctx context.Context, serverID, name string) (*models.Badge, error) {
	badge, err := bs.service.BadgeRepo.GetByName(ctx, serverID, strings.TrimSpace(name))
	if repository.IsNotFound(err) {
		return nil, shared.NotFoundf("badge %q", name)
	}
	return badge, err
}

func (bs *BadgeService) progressOf(ctx context.Context, serverID, memberID string, badge *models.Badge) (shared.BadgeProgress, error) {
	owned, err := bs.service.BadgeRepo.OwnedCount(ctx, serverID, memberID, badge.ID)
	if err != nil {
		return shared.BadgeProgress{}, fmt.Errorf("count owned of badge %d: %w", badge.ID, err)
	}
	required := len(badge.Personalities)
	return shared.BadgeProgress{
		BadgeID:  badge.ID,
		Name:     badge.Name,
		Owned:    owned,
		Required: required,
		Complete: shared.IsComplete(owned, required),
	}, nil
}

// Progress returns how many of the badge's personalities member owns
func (bs *BadgeService) Progress(ctx context.Context, serverID, memberID string, badgeID uint) (int, int, error) {
	badge, err := bs.byID(ctx, serverID, badgeID)
	if err != nil {
		return 0, 0, err
	}
	p, err := bs.progressOf(ctx, serverID, memberID, badge)
	if err != nil {
		return 0, 0, err
	}
	return p.Owned, p.Required, nil
}

// Owner returns the member holding every personality of the badge
func (bs *BadgeService) Owner(ctx context.Context, serverID string, badgeID uint) (string, bool, error) {
	badge, err := bs.byID(ctx, serverID, badgeID)
	if err != nil {
		return "", false, err
	}
	return bs.service.BadgeRepo.FullOwner(ctx, serverID, badge.ID, len(badge.Personalities))
}

// AllProgress returns the member's progress on every badge of the server, by name
func (bs *BadgeService) AllProgress(ctx context.Context, serverID, memberID string) ([]shared.BadgeProgress, error) {
	badges, err := bs.service.BadgeRepo.List(ctx, serverID)
	if err != nil {
		return nil, err
	}

	progress := make([]shared.BadgeProgress, 0, len(badges))
	for i := range badges {
		p, err := bs.progressOf(ctx, serverID, memberID, &badges[i])
		if err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, nil
}

// Evaluate returns the member's progress on every badge requiring persoID
func (bs *BadgeService) Evaluate(ctx context.Context, serverID, memberID string, persoID uint) ([]shared.BadgeProgress, error) {
	badges, err := bs.service.BadgeRepo.WithPersonality(ctx, serverID, persoID)
	if err != nil {
		return nil, err
	}

	var progress []shared.BadgeProgress
	for i := range badges {
		p, err := bs.progressOf(ctx, serverID, memberID, &badges[i])
		if err != nil {
			return nil, err
		}
		progress = append(progress, p)
	}
	return progress, nil
}

// Create adds an empty badge to the server
func (bs *BadgeService) Create(ctx context.Context, serverID, name, description string) (*models.Badge, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: badge name is empty", shared.ErrInvalidArgument)
	}

	badge := &models.Badge{ServerID: serverID, Name: name, Description: description}
	created, err := bs.service.BadgeRepo.Create(ctx, badge)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("badge %q: %w", name, shared.ErrDuplicate)
	}

	serverLogger(bs.service, "badges", serverID).Info("Badge created", map[string]interface{}{"badge": name})
	return badge, nil
}

// Rename gives a badge a name not used by another badge of the server
func (bs *BadgeService) Rename(ctx context.Context, serverID, name, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: badge name is empty", shared.ErrInvalidArgument)
	}

	badge, err := bs.Get(ctx, serverID, name)
	if err != nil {
		return err
	}
	if badge.Name == newName {
		return nil
	}

	taken, err := bs.service.BadgeRepo.IsDuplicateName(ctx, serverID, newName)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("badge %q: %w", newName, shared.ErrDuplicate)
	}
	return bs.service.BadgeRepo.Rename(ctx, badge.ID, newName)
}

// SetDescription replaces the description of a badge
func (bs *BadgeService) SetDescription(ctx context.Context, serverID, name, description string) error {
	badge, err := bs.Get(ctx, serverID, name)
	if err != nil {
		return err
	}
	return bs.service.BadgeRepo.SetDescription(ctx, badge.ID, description)
}

// Remove deletes a badge
func (bs *BadgeService) Remove(ctx context.Context, serverID, name string) error {
	badge, err := bs.Get(ctx, serverID, name)
	if err != nil {
		return err
	}
	if err := bs.service.BadgeRepo.Delete(ctx, badge.ID); err != nil {
		return err
	}

	serverLogger(bs.service, "badges", serverID).Info("Badge removed", map[string]interface{}{"badge": badge.Name})
	return nil
}

// AddPersonality adds one required personality to a badge
func (bs *BadgeService) AddPersonality(ctx context.Context, serverID, name string, persoID uint) error {
	badge, err := bs.Get(ctx, serverID, name)
	if err != nil {
		return err
	}
	if _, err := personality(ctx, bs.service, persoID); err != nil {
		return err
	}

	added, err := bs.service.BadgeRepo.AddPersonality(ctx, badge.ID, persoID)
	if err != nil {
		return err
	}
	if !added {
		return fmt.Errorf("personality %d in badge %q: %w", persoID, badge.Name, shared.ErrDuplicate)
	}
	return nil
}

// AddPersonalities adds personalities by name. Names that do not resolve to
// exactly one personality are reported in NotFound.
func (bs *BadgeService) AddPersonalities(ctx context.Context, serverID, name string, refs []shared.PersoRef) (*shared.BulkAddResult, error) {
	badge, err := bs.Get(ctx, serverID, name)
	if err != nil {
		return nil, err
	}

	result := &shared.BulkAddResult{}
	for _, ref := range refs {
		perso, err := resolve(ctx, bs.service, ref)
		if isAny(err, shared.ErrNotFound, shared.ErrAmbiguous) {
			result.NotFound = append(result.NotFound, refLabel(ref))
			continue
		}
		if err != nil {
			return nil, err
		}

		added, err := bs.service.BadgeRepo.AddPersonality(ctx, badge.ID, perso.ID)
		if err != nil {
			return nil, err
		}
		if added {
			result.Added = append(result.Added, *perso)
		} else {
			result.Already = append(result.Already, *perso)
		}
	}
	return result, nil
}

func refLabel(ref shared.PersoRef) string {
	if ref.Group == "" {
		return ref.Name
	}
	return fmt.Sprintf("%s (%s)", ref.Name, ref.Group)
}

// RemovePersonality drops a requirement from a badge
func (bs *BadgeService) RemovePersonality(ctx context.Context, serverID, name string, persoID uint) error {
	badge, err := bs.Get(ctx, serverID, name)
	if err != nil {
		return err
	}

	removed, err := bs.service.BadgeRepo.RemovePersonality(ctx, badge.ID, persoID)
	if err != nil {
		return err
	}
	if !removed {
		return shared.NotFoundf("personality %d in badge %q", persoID, badge.Name)
	}
	return nil
}

// List returns the badges of the server
func (bs *BadgeService) List(ctx context.Context, serverID string) ([]models.Badge, error) {
	return bs.service.BadgeRepo.List(ctx, serverID)
}

// Show returns a badge with the owner of each personality and of the whole set
func (bs *BadgeService) Show(ctx context.Context, serverID, name string) (*shared.BadgeDetails, error) {
	badge, err := bs.Get(ctx, serverID, name)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(badge.Personalities))
	for _, p := range badge.Personalities {
		ids = append(ids, p.ID)
	}
	owners, err := bs.service.DeckRepo.OwnersOf(ctx, serverID, ids)
	if err != nil {
		return nil, err
	}
	ownerID, _, err := bs.service.BadgeRepo.FullOwner(ctx, serverID, badge.ID, len(ids))
	if err != nil {
		return nil, err
	}

	return &shared.BadgeDetails{Badge: *badge, Owners: owners, OwnerID: ownerID}, nil
}

// BadgesWith returns the badges of the server requiring persoID
func (bs *BadgeService) BadgesWith(ctx context.Context, serverID string, persoID uint) ([]models.Badge, error) {
	return bs.service.BadgeRepo.WithPersonality(ctx, serverID, persoID)
}
