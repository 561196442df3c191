package models

import "time"

// Server holds per-guild game configuration
type Server struct {
	ID                 string    `gorm:"primaryKey" json:"id"`
	ClaimInterval      int       `gorm:"not null" json:"claim_interval"` // minutes between two claims of a member
	TimeToClaim        int       `gorm:"not null" json:"time_to_claim"`  // seconds a rolled personality stays claimable
	RollsPerHour       int       `gorm:"not null" json:"rolls_per_hour"`
	InformationChannel *string   `json:"information_channel"`
	ClaimsChannel      *string   `json:"claims_channel"`
	CreatedAt          time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// MemberInformation is the per (server, member) rate-limit and profile state.
// RollVersion, ClaimVersion and WishVersion are bumped by every conditional
// write on the roll counter, the claim cooldown and the wishlist.
type MemberInformation struct {
	ServerID       string     `gorm:"primaryKey" json:"server_id"`
	MemberID       string     `gorm:"primaryKey" json:"member_id"`
	LastClaim      *time.Time `json:"last_claim"`
	LastRoll       *time.Time `json:"last_roll"`
	NbRolls        int        `gorm:"not null;default:0" json:"nb_rolls"`
	MaxWish        int        `gorm:"not null" json:"max_wish"`
	PersoProfileID *uint      `json:"perso_profile_id"`
	RollVersion    int64      `gorm:"not null;default:0" json:"-"`
	ClaimVersion   int64      `gorm:"not null;default:0" json:"-"`
	WishVersion    int64      `gorm:"not null;default:0" json:"-"`
}

// Deck is the single ownership row of a personality inside a server.
// A nil MemberID means the personality is unowned.
type Deck struct {
	ServerID      string    `gorm:"primaryKey" json:"server_id"`
	PersonalityID uint      `gorm:"primaryKey" json:"personality_id"`
	MemberID      *string   `gorm:"index" json:"member_id"`
	CurrentImage  int       `gorm:"not null;default:0" json:"current_image"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Wishlist entries are personalities a member hopes to roll
type Wishlist struct {
	ServerID      string    `gorm:"primaryKey" json:"server_id"`
	PersonalityID uint      `gorm:"primaryKey" json:"personality_id"`
	MemberID      string    `gorm:"primaryKey" json:"member_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ShoppingList entries are personalities a member wants from their current owner
type ShoppingList struct {
	ServerID      string    `gorm:"primaryKey" json:"server_id"`
	PersonalityID uint      `gorm:"primaryKey" json:"personality_id"`
	MemberID      string    `gorm:"primaryKey" json:"member_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Server
func (Server) TableName() string {
	return "servers"
}

// TableName returns the table name for MemberInformation
func (MemberInformation) TableName() string {
	return "member_information"
}

// TableName returns the table name for Deck
func (Deck) TableName() string {
	return "decks"
}

// TableName returns the table name for Wishlist
func (Wishlist) TableName() string {
	return "wishlists"
}

// TableName returns the table name for ShoppingList
func (ShoppingList) TableName() string {
	return "shopping_lists"
}
