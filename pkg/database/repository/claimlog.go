package repository

import (
	"context"
	"time"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"gorm.io/gorm"
)

// ClaimLogRepository appends and reads successful claims
type ClaimLogRepository struct {
	db *gorm.DB
}

func NewClaimLogRepository(db *gorm.DB) *ClaimLogRepository {
	return &ClaimLogRepository{db: db}
}

// WithTx returns a copy bound to a running transaction
func (r *ClaimLogRepository) WithTx(tx *gorm.DB) *ClaimLogRepository {
	return &ClaimLogRepository{db: tx}
}

// Append records a claim
func (r *ClaimLogRepository) Append(ctx context.Context, entry *models.ClaimLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ClaimsBetween returns the claims of a server in [from, to) in chronological order.
// Bounds are compared in UTC, the zone claims are stored in.
func (r *ClaimLogRepository) ClaimsBetween(ctx context.Context, serverID string, from, to time.Time) ([]models.ClaimLog, error) {
	var entries []models.ClaimLog
	err := r.db.WithContext(ctx).
		Where("server_id = ? AND claimed_at >= ? AND claimed_at < ?", serverID, from.UTC(), to.UTC()).
		Order("claimed_at, id").
		Find(&entries).Error
	return entries, err
}
