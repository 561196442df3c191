package database

import (
	"context"
	"time"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"gorm.io/gorm"
)

// DatabaseManager owns the connection and reports store health
type DatabaseManager struct {
	db *gorm.DB
}

// NewDatabaseManager wraps an opened GORM connection
func NewDatabaseManager(gormDB *gorm.DB) *DatabaseManager {
	return &DatabaseManager{
		db: gormDB,
	}
}

// DB returns the underlying connection
func (dm *DatabaseManager) DB() *gorm.DB {
	return dm.db
}

// Close closes the database connection
func (dm *DatabaseManager) Close() error {
	sqlDB, err := dm.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the store answers within the timeout
func (dm *DatabaseManager) Ping(ctx context.Context, timeout time.Duration) error {
	sqlDB, err := dm.db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// GetStats returns row counts used by the status endpoint
func (dm *DatabaseManager) GetStats(ctx context.Context) (map[string]interface{}, error) {
	var personalities, servers, owned, claims24h int64

	db := dm.db.WithContext(ctx)
	if err := db.Model(&models.Personality{}).Count(&personalities).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Server{}).Count(&servers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Deck{}).Where("member_id IS NOT NULL").Count(&owned).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ClaimLog{}).Where("claimed_at > ?", time.Now().Add(-24*time.Hour)).Count(&claims24h).Error; err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"personalities":   personalities,
		"servers":         servers,
		"owned_decks":     owned,
		"claims_last_24h": claims24h,
	}, nil
}
