package repository

import (
	"context"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ServerRepository handles per-guild configuration rows
type ServerRepository struct {
	db *gorm.DB
}

func NewServerRepository(db *gorm.DB) *ServerRepository {
	return &ServerRepository{db: db}
}

// GetOrCreate returns the server row, inserting defaults on first reference
func (r *ServerRepository) GetOrCreate(ctx context.Context, defaults models.Server) (*models.Server, error) {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error; err != nil {
		return nil, err
	}

	var server models.Server
	if err := db.First(&server, "id = ?", defaults.ID).Error; err != nil {
		return nil, err
	}
	return &server, nil
}

// UpdateColumn sets one configuration column of an existing server
func (r *ServerRepository) UpdateColumn(ctx context.Context, serverID, column string, value interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Server{}).
		Where("id = ?", serverID).
		Update(column, value).Error
}

// ListWithDigestChannels returns servers having both an information and a claims channel
func (r *ServerRepository) ListWithDigestChannels(ctx context.Context) ([]models.Server, error) {
	var servers []models.Server
	err := r.db.WithContext(ctx).
		Where("information_channel IS NOT NULL AND claims_channel IS NOT NULL").
		Order("id").
		Find(&servers).Error
	return servers, err
}
