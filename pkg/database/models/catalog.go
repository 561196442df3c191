package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Group is an affiliation shared by one or more personalities
type Group struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	NameKey   string    `gorm:"uniqueIndex;not null" json:"-"` // lower(name), enforces case-insensitive uniqueness
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeSave keeps NameKey in sync with Name
func (g *Group) BeforeSave(tx *gorm.DB) error {
	g.NameKey = strings.ToLower(strings.TrimSpace(g.Name))
	return nil
}

// Personality is a collectible catalog entry
type Personality struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"index;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Groups []Group `gorm:"many2many:perso_groups" json:"groups"`
	Images []Image `gorm:"foreignKey:PersonalityID" json:"images,omitempty"`
}

// GroupNames returns the names of the personality's groups
func (p Personality) GroupNames() []string {
	names := make([]string, 0, len(p.Groups))
	for _, g := range p.Groups {
		names = append(names, g.Name)
	}
	return names
}

// DisplayName renders "Name (Group1, Group2)"
func (p Personality) DisplayName() string {
	if len(p.Groups) == 0 {
		return p.Name
	}
	return p.Name + " (" + strings.Join(p.GroupNames(), ", ") + ")"
}

// Image is a picture URL attached to a personality
type Image struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PersonalityID uint      `gorm:"uniqueIndex:idx_images_perso_url;not null" json:"personality_id"`
	URL           string    `gorm:"uniqueIndex:idx_images_perso_url;not null" json:"url"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PersoGroup is the join row between personalities and groups
type PersoGroup struct {
	PersonalityID uint `gorm:"primaryKey"`
	GroupID       uint `gorm:"primaryKey"`
}

// TableName returns the table name for Group
func (Group) TableName() string {
	return "catalog_groups"
}

// TableName returns the table name for Personality
func (Personality) TableName() string {
	return "personalities"
}

// TableName returns the table name for Image
func (Image) TableName() string {
	return "images"
}

// TableName returns the table name for PersoGroup
func (PersoGroup) TableName() string {
	return "perso_groups"
}
