package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClaimLog records every successful claim; it feeds the daily digest
type ClaimLog struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ServerID      string    `gorm:"index:idx_claim_logs_server_time;not null" json:"server_id"`
	PersonalityID uint      `gorm:"not null" json:"personality_id"`
	MemberID      string    `gorm:"index;not null" json:"member_id"`
	ClaimedAt     time.Time `gorm:"index:idx_claim_logs_server_time;not null" json:"claimed_at"`
}

// BeforeCreate assigns an id when none was set
func (c *ClaimLog) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// EngineLog represents a persisted structured log line
type EngineLog struct {
	ID        uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	ServerID  string                 `gorm:"index" json:"server_id"`
	Component string                 `gorm:"index;not null" json:"component"` // "claims", "trades", "digest", ...
	Level     string                 `gorm:"index;not null" json:"level"`     // INFO, ERROR, WARN, DEBUG
	Message   string                 `gorm:"type:text;not null" json:"message"`
	Error     string                 `gorm:"type:text" json:"error"`
	Fields    map[string]interface{} `gorm:"serializer:json" json:"fields"`
	MemberID  string                 `gorm:"index" json:"member_id"`
	ChannelID string                 `gorm:"index" json:"channel_id"`
	Timestamp time.Time              `gorm:"index;not null" json:"timestamp"`
}

// BeforeCreate assigns an id when none was set
func (e *EngineLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for ClaimLog
func (ClaimLog) TableName() string {
	return "claim_logs"
}

// TableName returns the table name for EngineLog
func (EngineLog) TableName() string {
	return "engine_logs"
}
