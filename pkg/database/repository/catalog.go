package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CatalogRepository handles personalities, groups and images
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func preloadCatalog(db *gorm.DB) *gorm.DB {
	return db.Preload("Groups", func(db *gorm.DB) *gorm.DB {
		return db.Order("catalog_groups.name")
	}).Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("images.url")
	})
}

// GetPersonalityByID returns a personality with its groups and sorted images
func (r *CatalogRepository) GetPersonalityByID(ctx context.Context, id uint) (*models.Personality, error) {
	var perso models.Personality
	if err := preloadCatalog(r.db.WithContext(ctx)).First(&perso, id).Error; err != nil {
		return nil, err
	}
	return &perso, nil
}

// GetPersonalitiesByIDs returns the requested personalities keyed by id
func (r *CatalogRepository) GetPersonalitiesByIDs(ctx context.Context, ids []uint) (map[uint]models.Personality, error) {
	result := make(map[uint]models.Personality, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var persos []models.Personality
	if err := r.db.WithContext(ctx).Preload("Groups").Where("id IN ?", ids).Find(&persos).Error; err != nil {
		return nil, err
	}
	for _, p := range persos {
		result[p.ID] = p
	}
	return result, nil
}

// FindPersonalities matches a name case-insensitively, optionally restricted to a group
func (r *CatalogRepository) FindPersonalities(ctx context.Context, name, group string) ([]models.Personality, error) {
	query := r.db.WithContext(ctx).Model(&models.Personality{}).
		Where("LOWER(personalities.name) = ?", strings.ToLower(strings.TrimSpace(name)))

	if group != "" {
		query = query.
			Joins("JOIN perso_groups ON perso_groups.personality_id = personalities.id").
			Joins("JOIN catalog_groups ON catalog_groups.id = perso_groups.group_id").
			Where("catalog_groups.name_key = ?", strings.ToLower(strings.TrimSpace(group)))
	}

	var persos []models.Personality
	if err := preloadCatalog(query).Order("personalities.id").Find(&persos).Error; err != nil {
		return nil, err
	}
	return persos, nil
}

// CountPersonalities returns the catalog size
func (r *CatalogRepository) CountPersonalities(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Personality{}).Count(&count).Error
	return count, err
}

// PersonalityAt returns the personality at a stable offset of the catalog
func (r *CatalogRepository) PersonalityAt(ctx context.Context, offset int) (*models.Personality, error) {
	var perso models.Personality
	err := preloadCatalog(r.db.WithContext(ctx)).Order("personalities.id").Offset(offset).Limit(1).Take(&perso).Error
	if err != nil {
		return nil, err
	}
	return &perso, nil
}

// GetImages returns image URLs of a personality sorted by URL
func (r *CatalogRepository) GetImages(ctx context.Context, persoID uint) ([]string, error) {
	var urls []string
	err := r.db.WithContext(ctx).Model(&models.Image{}).
		Where("personality_id = ?", persoID).
		Order("url").
		Pluck("url", &urls).Error
	return urls, err
}

// ListGroups returns every group sorted by name
func (r *CatalogRepository) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.WithContext(ctx).Order("name_key").Find(&groups).Error
	return groups, err
}

// GroupMembers returns a group, matched case-insensitively, and its
// personalities sorted by name
func (r *CatalogRepository) GroupMembers(ctx context.Context, name string) (*models.Group, []models.Personality, error) {
	var group models.Group
	err := r.db.WithContext(ctx).
		Where("name_key = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&group).Error
	if err != nil {
		return nil, nil, err
	}

	var persos []models.Personality
	query := r.db.WithContext(ctx).Model(&models.Personality{}).
		Joins("JOIN perso_groups ON perso_groups.personality_id = personalities.id").
		Where("perso_groups.group_id = ?", group.ID)
	if err := preloadCatalog(query).Order("personalities.name, personalities.id").Find(&persos).Error; err != nil {
		return nil, nil, err
	}
	return &group, persos, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PersonalitiesContaining returns personalities whose name contains fragment,
// ignoring case
func (r *CatalogRepository) PersonalitiesContaining(ctx context.Context, fragment string) ([]models.Personality, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(fragment))) + "%"

	var persos []models.Personality
	query := r.db.WithContext(ctx).Model(&models.Personality{}).
		Where(`LOWER(personalities.name) LIKE ? ESCAPE '\'`, pattern)
	if err := preloadCatalog(query).Order("personalities.name, personalities.id").Find(&persos).Error; err != nil {
		return nil, err
	}
	return persos, nil
}

func getOrCreateGroup(tx *gorm.DB, name string) (*models.Group, error) {
	group := models.Group{Name: strings.TrimSpace(name)}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&group).Error; err != nil {
		return nil, err
	}

	var stored models.Group
	if err := tx.Where("name_key = ?", strings.ToLower(group.Name)).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// CreatePersonality inserts a personality with its groups and images
func (r *CatalogRepository) CreatePersonality(ctx context.Context, name string, groups, urls []string) (*models.Personality, error) {
	var perso models.Personality

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perso = models.Personality{Name: strings.TrimSpace(name)}
		for _, g := range groups {
			group, err := getOrCreateGroup(tx, g)
			if err != nil {
				return err
			}
			perso.Groups = append(perso.Groups, *group)
		}

		if err := tx.Omit("Groups.*").Create(&perso).Error; err != nil {
			return err
		}

		for _, url := range urls {
			image := models.Image{PersonalityID: perso.ID, URL: url}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&image).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return r.GetPersonalityByID(ctx, perso.ID)
}

// AddImage attaches an image URL; false if it was already attached
func (r *CatalogRepository) AddImage(ctx context.Context, persoID uint, url string) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Image{PersonalityID: persoID, URL: url})
	return result.RowsAffected == 1, result.Error
}

// RemoveImage detaches an image URL; false if it was not attached
func (r *CatalogRepository) RemoveImage(ctx context.Context, persoID uint, url string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("personality_id = ? AND url = ?", persoID, url).
		Delete(&models.Image{})
	return result.RowsAffected > 0, result.Error
}

// RemovePersonality deletes a personality and every reference to it in all servers
func (r *CatalogRepository) RemovePersonality(ctx context.Context, persoID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dependents := []interface{}{
			&models.Deck{},
			&models.Wishlist{},
			&models.ShoppingList{},
			&models.BadgePerso{},
			&models.PersoGroup{},
			&models.Image{},
		}
		for _, model := range dependents {
			if err := tx.Where("personality_id = ?", persoID).Delete(model).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&models.MemberInformation{}).
			Where("perso_profile_id = ?", persoID).
			Update("perso_profile_id", nil).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Personality{}, persoID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// IsNotFound reports whether err is a missing-row error
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
