package gacha

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/latoulicious/perso-wars/pkg/common"
	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/database/repository"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
	"github.com/latoulicious/perso-wars/pkg/logging"
	"gorm.io/gorm"
)

// Defaults are applied to servers and members created lazily
type Defaults struct {
	ClaimInterval int // minutes
	TimeToClaim   int // seconds
	RollsPerHour  int
	MaxWish       int
	TradeTimeout  time.Duration
}

// DefaultSettings mirrors the configuration defaults
func DefaultSettings() Defaults {
	return Defaults{
		ClaimInterval: 180,
		TimeToClaim:   60,
		RollsPerHour:  10,
		MaxWish:       5,
		TradeTimeout:  30 * time.Second,
	}
}

// Service represents the main service that holds all dependencies
type Service struct {
	DB           *gorm.DB
	CatalogRepo  *repository.CatalogRepository
	ServerRepo   *repository.ServerRepository
	MemberRepo   *repository.MemberRepository
	DeckRepo     *repository.DeckRepository
	WishlistRepo *repository.ListRepository
	ShoppingRepo *repository.ListRepository
	BadgeRepo    *repository.BadgeRepository
	ClaimLogRepo *repository.ClaimLogRepository
	Locker       common.Locker
	Clock        shared.Clock
	Defaults     Defaults
	Loggers      logging.LoggerFactory
	// Pick returns a uniform index in [0, n); it drives roll selection.
	Pick func(n int) int
}

// NewService creates a new Service instance with all dependencies
func NewService(
	db *gorm.DB,
	locker common.Locker,
	clock shared.Clock,
	defaults Defaults,
	loggers logging.LoggerFactory,
) *Service {
	return &Service{
		DB:           db,
		CatalogRepo:  repository.NewCatalogRepository(db),
		ServerRepo:   repository.NewServerRepository(db),
		MemberRepo:   repository.NewMemberRepository(db),
		DeckRepo:     repository.NewDeckRepository(db),
		WishlistRepo: repository.NewWishlistRepository(db),
		ShoppingRepo: repository.NewShoppingListRepository(db),
		BadgeRepo:    repository.NewBadgeRepository(db),
		ClaimLogRepo: repository.NewClaimLogRepository(db),
		Locker:       locker,
		Clock:        clock,
		Defaults:     defaults,
		Loggers:      loggers,
		Pick:         randomIndex,
	}
}

// Publisher delivers a text message to a chat channel
type Publisher interface {
	Publish(ctx context.Context, channelID, message string) error
}

// RateLimiterInterface computes roll and claim eligibility
type RateLimiterInterface interface {
	MinutesUntilNextRoll(ctx context.Context, serverID, memberID string) (int, error)
	ConsumeRoll(ctx context.Context, serverID, memberID string) (*shared.RollBudget, error)
	MinutesUntilNextClaim(ctx context.Context, serverID, memberID string) (int, error)
	TimeStatus(ctx context.Context, serverID, memberID string) (*shared.TimeStatus, error)
}

// ClaimServiceInterface rolls personalities and arbitrates claims
type ClaimServiceInterface interface {
	Roll(ctx context.Context, serverID, rollerID string) (*shared.RollResult, error)
	Claim(ctx context.Context, windowID uuid.UUID, claimantID string) (*shared.ClaimResult, error)
	ClaimDirect(ctx context.Context, serverID string, persoID uint, claimantID string) (*shared.ClaimResult, error)
	CloseWindow(windowID uuid.UUID) bool
	OpenWindows() int
}

// TransferServiceInterface moves ownership between members
type TransferServiceInterface interface {
	Give(ctx context.Context, serverID string, persoID uint, fromID, toID string) error
	Trade(ctx context.Context, serverID string, persoA, persoB uint, memberA, memberB string) error
	Discard(ctx context.Context, serverID string, persoID uint, ownerID string) error
	DiscardAll(ctx context.Context, serverID, ownerID string) (int, error)
	FindOwned(ctx context.Context, serverID, memberID string, ref shared.PersoRef) (*models.Personality, error)
}

// TradeServiceInterface negotiates trades between two members
type TradeServiceInterface interface {
	ProposeTrade(ctx context.Context, serverID, proposerID, targetID string, persoID uint) (TradeNegotiation, error)
}

// TradeNegotiation is one pending trade between a proposer and a target
type TradeNegotiation interface {
	ID() uuid.UUID
	State() shared.State
	Done() <-chan struct{}
	// Counter is called by the target, Accept by the proposer
	Counter(ctx context.Context, actorID string, persoID uint) error
	Accept(ctx context.Context, actorID string) error
	Reject() bool
}

// BadgeServiceInterface evaluates and administers badges
type BadgeServiceInterface interface {
	Progress(ctx context.Context, serverID, memberID string, badgeID uint) (owned, required int, err error)
	Owner(ctx context.Context, serverID string, badgeID uint) (string, bool, error)
	AllProgress(ctx context.Context, serverID, memberID string) ([]shared.BadgeProgress, error)
	Evaluate(ctx context.Context, serverID, memberID string, persoID uint) ([]shared.BadgeProgress, error)
	Create(ctx context.Context, serverID, name, description string) (*models.Badge, error)
	Get(ctx context.Context, serverID, name string) (*models.Badge, error)
	Rename(ctx context.Context, serverID, name, newName string) error
	SetDescription(ctx context.Context, serverID, name, description string) error
	Remove(ctx context.Context, serverID, name string) error
	AddPersonality(ctx context.Context, serverID, name string, persoID uint) error
	AddPersonalities(ctx context.Context, serverID, name string, refs []shared.PersoRef) (*shared.BulkAddResult, error)
	RemovePersonality(ctx context.Context, serverID, name string, persoID uint) error
	List(ctx context.Context, serverID string) ([]models.Badge, error)
	Show(ctx context.Context, serverID, name string) (*shared.BadgeDetails, error)
	BadgesWith(ctx context.Context, serverID string, persoID uint) ([]models.Badge, error)
}

// ImageServiceInterface moves the per-server image cursor of a personality
type ImageServiceInterface interface {
	CurrentImage(ctx context.Context, serverID string, persoID uint) (*shared.ImageView, error)
	NextImage(ctx context.Context, serverID string, persoID uint) (*shared.ImageView, error)
	PreviousImage(ctx context.Context, serverID string, persoID uint) (*shared.ImageView, error)
}

// ListServiceInterface manages wishlists and shopping lists
type ListServiceInterface interface {
	AddWish(ctx context.Context, serverID, memberID string, persoID uint) error
	RemoveWish(ctx context.Context, serverID, memberID string, persoID uint) error
	Wishlist(ctx context.Context, serverID, memberID string) ([]models.Personality, error)
	WishedBy(ctx context.Context, serverID string, persoID uint) ([]string, error)
	AddToShoppingList(ctx context.Context, serverID, memberID string, persoID uint) error
	RemoveFromShoppingList(ctx context.Context, serverID, memberID string, persoID uint) error
	ShoppingList(ctx context.Context, serverID, memberID string) ([]models.Personality, error)
	ShoppingOffers(ctx context.Context, serverID, memberID string) ([]shared.ShoppingOffer, error)
}

// ProfileServiceInterface reports a member's collection
type ProfileServiceInterface interface {
	Deck(ctx context.Context, serverID, memberID string) ([]models.Personality, error)
	Profile(ctx context.Context, serverID, memberID string) (*shared.Profile, error)
	SetProfilePersonality(ctx context.Context, serverID, memberID string, ref shared.PersoRef) error
}

// ServerConfigServiceInterface edits per-server settings
type ServerConfigServiceInterface interface {
	Config(ctx context.Context, serverID string) (*models.Server, error)
	SetClaimInterval(ctx context.Context, serverID string, minutes int) error
	SetRollsPerHour(ctx context.Context, serverID string, rolls int) error
	SetTimeToClaim(ctx context.Context, serverID string, seconds int) error
	SetInformationChannel(ctx context.Context, serverID string, channelID *string) error
	SetClaimsChannel(ctx context.Context, serverID string, channelID *string) error
	SetMaxWish(ctx context.Context, serverID, memberID string, maxWish int) error
	ServersWithDigestChannels(ctx context.Context) ([]models.Server, error)
}

// CatalogServiceInterface maintains personalities, groups and images
type CatalogServiceInterface interface {
	Get(ctx context.Context, persoID uint) (*models.Personality, error)
	Find(ctx context.Context, ref shared.PersoRef) (*models.Personality, error)
	Add(ctx context.Context, name string, groups, imageURLs []string) (*models.Personality, error)
	Remove(ctx context.Context, persoID uint) error
	AddImage(ctx context.Context, persoID uint, url string) error
	RemoveImage(ctx context.Context, persoID uint, url string) error

	ListGroups(ctx context.Context) ([]models.Group, error)
	GroupMembers(ctx context.Context, group string) (*shared.GroupListing, error)
	ListByName(ctx context.Context, fragment string) ([]models.Personality, error)
	Info(ctx context.Context, serverID string, persoID uint) (*shared.PersoInfo, error)
}

// DigestServiceInterface publishes the periodic claims digest
type DigestServiceInterface interface {
	Digest(ctx context.Context, serverID string, from, to time.Time) (string, error)
	PublishAll(ctx context.Context, window time.Duration) (int, error)
}
