package repository

import (
	"context"
	"errors"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeRepository handles badges and their required personalities
type BadgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

func preloadBadge(db *gorm.DB) *gorm.DB {
	return db.Preload("Personalities", func(db *gorm.DB) *gorm.DB {
		return db.Order("personalities.name, personalities.id")
	}).Preload("Personalities.Groups")
}

// Create inserts a badge; false if the server already has one with that name
func (r *BadgeRepository) Create(ctx context.Context, badge *models.Badge) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Omit("Personalities").Create(badge)
	return result.RowsAffected == 1, result.Error
}

// GetByName returns a badge of the server with its personalities
func (r *BadgeRepository) GetByName(ctx context.Context, serverID, name string) (*models.Badge, error) {
	var badge models.Badge
	err := preloadBadge(r.db.WithContext(ctx)).
		Where("server_id = ? AND name = ?", serverID, name).
		First(&badge).Error
	if err != nil {
		return nil, err
	}
	return &badge, nil
}

// GetByID returns a badge of the server with its personalities
func (r *BadgeRepository) GetByID(ctx context.Context, serverID string, badgeID uint) (*models.Badge, error) {
	var badge models.Badge
	err := preloadBadge(r.db.WithContext(ctx)).
		Where("server_id = ? AND id = ?", serverID, badgeID).
		First(&badge).Error
	if err != nil {
		return nil, err
	}
	return &badge, nil
}

// List returns every badge of the server sorted by name
func (r *BadgeRepository) List(ctx context.Context, serverID string) ([]models.Badge, error) {
	var badges []models.Badge
	err := preloadBadge(r.db.WithContext(ctx)).
		Where("server_id = ?", serverID).
		Order("name").
		Find(&badges).Error
	return badges, err
}

// WithPersonality returns the badges of the server requiring a personality
func (r *BadgeRepository) WithPersonality(ctx context.Context, serverID string, persoID uint) ([]models.Badge, error) {
	var badges []models.Badge
	err := preloadBadge(r.db.WithContext(ctx)).
		Joins("JOIN badge_persos ON badge_persos.badge_id = badges.id").
		Where("badges.server_id = ? AND badge_persos.personality_id = ?", serverID, persoID).
		Order("badges.name").
		Find(&badges).Error
	return badges, err
}

// Rename changes the name of a badge
func (r *BadgeRepository) Rename(ctx context.Context, badgeID uint, name string) error {
	return r.db.WithContext(ctx).Model(&models.Badge{}).Where("id = ?", badgeID).Update("name", name).Error
}

// SetDescription changes the description of a badge
func (r *BadgeRepository) SetDescription(ctx context.Context, badgeID uint, description string) error {
	return r.db.WithContext(ctx).Model(&models.Badge{}).Where("id = ?", badgeID).Update("description", description).Error
}

// Delete removes a badge and its requirement rows
func (r *BadgeRepository) Delete(ctx context.Context, badgeID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("badge_id = ?", badgeID).Delete(&models.BadgePerso{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Badge{}, badgeID).Error
	})
}

// AddPersonality adds a requirement; false if already required
func (r *BadgeRepository) AddPersonality(ctx context.Context, badgeID, persoID uint) (bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.BadgePerso{BadgeID: badgeID, PersonalityID: persoID})
	return result.RowsAffected == 1, result.Error
}

// RemovePersonality drops a requirement; false if it was not required
func (r *BadgeRepository) RemovePersonality(ctx context.Context, badgeID, persoID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("badge_id = ? AND personality_id = ?", badgeID, persoID).
		Delete(&models.BadgePerso{})
	return result.RowsAffected > 0, result.Error
}

// OwnedCount returns how many of the badge's personalities member owns
func (r *BadgeRepository) OwnedCount(ctx context.Context, serverID, memberID string, badgeID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BadgePerso{}).
		Joins("JOIN decks ON decks.personality_id = badge_persos.personality_id").
		Where("badge_persos.badge_id = ? AND decks.server_id = ? AND decks.member_id = ?", badgeID, serverID, memberID).
		Count(&count).Error
	return int(count), err
}

type ownerCount struct {
	MemberID string
	Owned    int
}

// FullOwner returns the first member (by id) owning all required personalities
func (r *BadgeRepository) FullOwner(ctx context.Context, serverID string, badgeID uint, required int) (string, bool, error) {
	if required <= 0 {
		return "", false, nil
	}

	var rows []ownerCount
	err := r.db.WithContext(ctx).Table("decks").
		Select("decks.member_id AS member_id, COUNT(*) AS owned").
		Joins("JOIN badge_persos ON badge_persos.personality_id = decks.personality_id").
		Where("badge_persos.badge_id = ? AND decks.server_id = ? AND decks.member_id IS NOT NULL", badgeID, serverID).
		Group("decks.member_id").
		Having("COUNT(*) = ?", required).
		Order("decks.member_id").
		Scan(&rows).Error
	if err != nil {
		return "", false, err
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].MemberID, true, nil
}

// IsDuplicateName reports whether another badge of the server uses name
func (r *BadgeRepository) IsDuplicateName(ctx context.Context, serverID, name string) (bool, error) {
	var badge models.Badge
	err := r.db.WithContext(ctx).Where("server_id = ? AND name = ?", serverID, name).Take(&badge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}
