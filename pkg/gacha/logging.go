package gacha

import (
	"time"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/database/repository"
	"github.com/latoulicious/perso-wars/pkg/logging"
)

// LogRepositoryAdapter adapts repository.LogRepository to implement logging.LogRepository
type LogRepositoryAdapter struct {
	logRepo *repository.LogRepository
}

// NewLogRepositoryAdapter creates a new LogRepositoryAdapter
func NewLogRepositoryAdapter(logRepo *repository.LogRepository) logging.LogRepository {
	return &LogRepositoryAdapter{
		logRepo: logRepo,
	}
}

// SaveLog implements logging.LogRepository interface
func (l *LogRepositoryAdapter) SaveLog(entry logging.LogEntry) error {
	return l.logRepo.SaveLog(&models.EngineLog{
		ServerID:  entry.ServerID,
		Component: entry.Component,
		Level:     entry.Level,
		Message:   entry.Message,
		Error:     entry.Error,
		Fields:    entry.Fields,
		MemberID:  entry.MemberID,
		ChannelID: entry.ChannelID,
		Timestamp: time.Now(),
	})
}
