package repository

import (
	"context"
	"errors"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListAddStatus is the outcome of adding a personality to a member list
type ListAddStatus int

const (
	ListAdded ListAddStatus = iota
	ListFull
	ListDuplicate
)

var errListFull = errors.New("list full")

// ListRepository handles one per-member personality list table. Wishlists and
// shopping lists share the same shape but live in separate tables.
type ListRepository struct {
	db    *gorm.DB
	table string
	entry func(serverID string, persoID uint, memberID string) interface{}
}

func NewWishlistRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{
		db:    db,
		table: models.Wishlist{}.TableName(),
		entry: func(serverID string, persoID uint, memberID string) interface{} {
			return &models.Wishlist{ServerID: serverID, PersonalityID: persoID, MemberID: memberID}
		},
	}
}

func NewShoppingListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{
		db:    db,
		table: models.ShoppingList{}.TableName(),
		entry: func(serverID string, persoID uint, memberID string) interface{} {
			return &models.ShoppingList{ServerID: serverID, PersonalityID: persoID, MemberID: memberID}
		},
	}
}

// Unbounded disables the capacity check of AddWithCapacity
const Unbounded = -1

// Add inserts an entry with no capacity bound
func (r *ListRepository) Add(ctx context.Context, serverID string, persoID uint, memberID string) (ListAddStatus, error) {
	return r.AddWithCapacity(ctx, serverID, persoID, memberID, Unbounded)
}

// AddWithCapacity inserts an entry unless the member already has capacity
// entries. A bounded add first bumps the member's wish_version, which
// row-locks the member for the rest of the transaction so that concurrent
// adds by the same member are counted one after another.
func (r *ListRepository) AddWithCapacity(ctx context.Context, serverID string, persoID uint, memberID string, capacity int) (ListAddStatus, error) {
	status := ListAdded

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if capacity != Unbounded {
			if err := tx.Model(&models.MemberInformation{}).
				Where("server_id = ? AND member_id = ?", serverID, memberID).
				Update("wish_version", gorm.Expr("wish_version + 1")).Error; err != nil {
				return err
			}

			var count int64
			if err := tx.Table(r.table).
				Where("server_id = ? AND member_id = ?", serverID, memberID).
				Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(capacity) {
				return errListFull
			}
		}

		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(r.entry(serverID, persoID, memberID))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			status = ListDuplicate
		}
		return nil
	})

	if errors.Is(err, errListFull) {
		return ListFull, nil
	}
	if err != nil {
		return ListAdded, err
	}
	return status, nil
}

// Remove deletes an entry; false if it was not present
func (r *ListRepository) Remove(ctx context.Context, serverID string, persoID uint, memberID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("server_id = ? AND personality_id = ? AND member_id = ?", serverID, persoID, memberID).
		Delete(r.entry(serverID, persoID, memberID))
	return result.RowsAffected > 0, result.Error
}

// Count returns the number of entries of a member
func (r *ListRepository) Count(ctx context.Context, serverID, memberID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(r.table).
		Where("server_id = ? AND member_id = ?", serverID, memberID).
		Count(&count).Error
	return count, err
}

// Personalities returns the listed personalities of a member sorted by name
func (r *ListRepository) Personalities(ctx context.Context, serverID, memberID string) ([]models.Personality, error) {
	var persos []models.Personality
	err := r.db.WithContext(ctx).Model(&models.Personality{}).
		Joins("JOIN "+r.table+" l ON l.personality_id = personalities.id").
		Where("l.server_id = ? AND l.member_id = ?", serverID, memberID).
		Preload("Groups").
		Order("personalities.name, personalities.id").
		Find(&persos).Error
	return persos, err
}

// Members returns the members listing a personality
func (r *ListRepository) Members(ctx context.Context, serverID string, persoID uint) ([]string, error) {
	var members []string
	err := r.db.WithContext(ctx).Table(r.table).
		Where("server_id = ? AND personality_id = ?", serverID, persoID).
		Order("member_id").
		Pluck("member_id", &members).Error
	return members, err
}
