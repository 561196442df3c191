package repository

import (
	"context"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"gorm.io/gorm"
)

// LogRepository persists structured log lines
type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

// SaveLog stores one log line
func (r *LogRepository) SaveLog(entry *models.EngineLog) error {
	return r.db.Create(entry).Error
}

// GetLogsByComponent returns the latest log lines of a component, newest
// first. An empty serverID matches every server.
func (r *LogRepository) GetLogsByComponent(ctx context.Context, component, serverID string, limit int) ([]models.EngineLog, error) {
	query := r.db.WithContext(ctx).Where("component = ?", component)
	if serverID != "" {
		query = query.Where("server_id = ?", serverID)
	}

	var logs []models.EngineLog
	err := query.Order("timestamp DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
