package shared

import (
	"time"

	"github.com/google/uuid"
	"github.com/latoulicious/perso-wars/pkg/database/models"
)

// RollBudget is the state of a member's hourly roll bucket after a roll
type RollBudget struct {
	Used      int
	Remaining int
}

// ImageView is the display cursor of a personality in a server
type ImageView struct {
	Index int
	Count int
	URL   string // empty when the personality has no image
}

// ClaimWindow describes an open claim opportunity
type ClaimWindow struct {
	ID        uuid.UUID
	ExpiresAt time.Time
}

// PersoInfo is a catalog entry as seen from one server
type PersoInfo struct {
	ServerID    string
	Personality models.Personality
	Image       ImageView
	OwnerID     *string // nil when nobody in the server owns it
	WishedBy    []string
	Badges      []string
}

// GroupListing is a group with its personalities sorted by name
type GroupListing struct {
	Group   models.Group
	Members []models.Personality
}

// RollResult is what a roll revealed
type RollResult struct {
	ServerID    string
	RollerID    string
	Personality models.Personality
	Image       ImageView
	OwnerID     *string
	WishedBy    []string
	Badges      []string
	Budget      RollBudget
	Window      *ClaimWindow // nil when the personality is already owned
}

// BadgeProgress is a member's progress towards one badge
type BadgeProgress struct {
	BadgeID  uint
	Name     string
	Owned    int
	Required int
	Complete bool
}

// ClaimResult is the outcome of a successful claim
type ClaimResult struct {
	ServerID    string
	MemberID    string
	Personality models.Personality
	ClaimedAt   time.Time
	Progress    []BadgeProgress // every badge requiring the personality
	Unlocked    []BadgeProgress // badges completed by this claim
}

// TimeStatus summarises a member's cooldowns
type TimeStatus struct {
	MinutesUntilClaim int
	RollsLeft         int
	MinutesUntilReset int
}

// GroupCount is the number of owned personalities of one group
type GroupCount struct {
	Name  string
	Count int
}

// Profile summarises a member's collection
type Profile struct {
	ServerID  string
	MemberID  string
	DeckSize  int
	TopGroups []GroupCount
	Showcase  *models.Personality
	Badges    []string // completed badges
}

// BadgeDetails lists a badge's personalities with their owners
type BadgeDetails struct {
	Badge   models.Badge
	Owners  map[uint]string
	OwnerID string // member owning the whole set, empty if none
}

// BulkAddResult reports a bulk badge edit
type BulkAddResult struct {
	Added    []models.Personality
	Already  []models.Personality
	NotFound []string
}

// PersoRef names a personality, optionally with its group
type PersoRef struct {
	Name  string
	Group string
}

// ShoppingOffer groups the personalities a member wants by their owner
type ShoppingOffer struct {
	OwnerID       string
	Personalities []models.Personality
}

// IsComplete tells whether a badge is complete; empty badges never are
func IsComplete(owned, required int) bool {
	return required > 0 && owned == required
}
