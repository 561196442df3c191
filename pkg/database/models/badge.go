package models

import "time"

// Badge is a server achievement unlocked by owning every listed personality
type Badge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ServerID    string    `gorm:"uniqueIndex:idx_badges_server_name;not null" json:"server_id"`
	Name        string    `gorm:"uniqueIndex:idx_badges_server_name;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Personalities []Personality `gorm:"many2many:badge_persos" json:"personalities,omitempty"`
}

// BadgePerso is the join row between badges and their required personalities
type BadgePerso struct {
	BadgeID       uint `gorm:"primaryKey"`
	PersonalityID uint `gorm:"primaryKey"`
}

// TableName returns the table name for Badge
func (Badge) TableName() string {
	return "badges"
}

// TableName returns the table name for BadgePerso
func (BadgePerso) TableName() string {
	return "badge_persos"
}
