package repository

import (
	"context"
	"time"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MemberRepository handles MemberInformation rows
type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// WithTx returns a copy bound to a running transaction
func (r *MemberRepository) WithTx(tx *gorm.DB) *MemberRepository {
	return &MemberRepository{db: tx}
}

func memberScope(serverID, memberID string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("server_id = ? AND member_id = ?", serverID, memberID)
	}
}

// GetOrCreate returns the member row, creating it lazily
func (r *MemberRepository) GetOrCreate(ctx context.Context, serverID, memberID string, maxWish int) (*models.MemberInformation, error) {
	db := r.db.WithContext(ctx)
	row := models.MemberInformation{ServerID: serverID, MemberID: memberID, MaxWish: maxWish}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}

	var member models.MemberInformation
	if err := db.Scopes(memberScope(serverID, memberID)).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// CompareAndSetRolls writes the roll counter only if nobody else touched it
// since version was read. It reports whether the write happened.
func (r *MemberRepository) CompareAndSetRolls(ctx context.Context, serverID, memberID string, version int64, nbRolls int, lastRoll *time.Time) (bool, error) {
	updates := map[string]interface{}{
		"nb_rolls":     nbRolls,
		"roll_version": gorm.Expr("roll_version + 1"),
	}
	if lastRoll != nil {
		updates["last_roll"] = *lastRoll
	}

	result := r.db.WithContext(ctx).Model(&models.MemberInformation{}).
		Scopes(memberScope(serverID, memberID)).
		Where("roll_version = ?", version).
		Updates(updates)
	return result.RowsAffected == 1, result.Error
}

// CompareAndSetLastClaim records a claim only if the cooldown state read at
// version is still current.
func (r *MemberRepository) CompareAndSetLastClaim(ctx context.Context, serverID, memberID string, version int64, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.MemberInformation{}).
		Scopes(memberScope(serverID, memberID)).
		Where("claim_version = ?", version).
		Updates(map[string]interface{}{
			"last_claim":    at,
			"claim_version": gorm.Expr("claim_version + 1"),
		})
	return result.RowsAffected == 1, result.Error
}

// SetMaxWish changes the wishlist capacity of a member
func (r *MemberRepository) SetMaxWish(ctx context.Context, serverID, memberID string, maxWish int) error {
	return r.db.WithContext(ctx).Model(&models.MemberInformation{}).
		Scopes(memberScope(serverID, memberID)).
		Update("max_wish", maxWish).Error
}

// SetProfilePersonality sets or clears (nil) the showcase personality
func (r *MemberRepository) SetProfilePersonality(ctx context.Context, serverID, memberID string, persoID *uint) error {
	return r.db.WithContext(ctx).Model(&models.MemberInformation{}).
		Scopes(memberScope(serverID, memberID)).
		Update("perso_profile_id", persoID).Error
}
