package repository

import (
	"context"
	"errors"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errSwapConflict aborts a swap transaction when an ownership guard fails
var errSwapConflict = errors.New("ownership changed during swap")

// DeckRepository handles ownership rows. Every ownership change is a single
// conditional UPDATE guarded by the expected current owner.
type DeckRepository struct {
	db *gorm.DB
}

func NewDeckRepository(db *gorm.DB) *DeckRepository {
	return &DeckRepository{db: db}
}

// WithTx returns a copy bound to a running transaction
func (r *DeckRepository) WithTx(tx *gorm.DB) *DeckRepository {
	return &DeckRepository{db: tx}
}

// GroupCount is the number of owned personalities belonging to a group
type GroupCount struct {
	Name  string
	Count int
}

func deckScope(serverID string, persoID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("server_id = ? AND personality_id = ?", serverID, persoID)
	}
}

func ensureDeck(db *gorm.DB, serverID string, persoID uint) error {
	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Deck{ServerID: serverID, PersonalityID: persoID}).Error
}

// Get returns the deck row of (server, personality), creating it lazily
func (r *DeckRepository) Get(ctx context.Context, serverID string, persoID uint) (*models.Deck, error) {
	db := r.db.WithContext(ctx)
	if err := ensureDeck(db, serverID, persoID); err != nil {
		return nil, err
	}

	var deck models.Deck
	if err := db.Scopes(deckScope(serverID, persoID)).First(&deck).Error; err != nil {
		return nil, err
	}
	return &deck, nil
}

// Owner returns the current owner, nil when unowned or never seen
func (r *DeckRepository) Owner(ctx context.Context, serverID string, persoID uint) (*string, error) {
	var deck models.Deck
	err := r.db.WithContext(ctx).Scopes(deckScope(serverID, persoID)).Take(&deck).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return deck.MemberID, nil
}

// ClaimIfUnowned sets the owner only if the personality has none.
// It reports whether this call won the personality.
func (r *DeckRepository) ClaimIfUnowned(ctx context.Context, serverID string, persoID uint, memberID string) (bool, error) {
	db := r.db.WithContext(ctx)
	if err := ensureDeck(db, serverID, persoID); err != nil {
		return false, err
	}

	result := db.Model(&models.Deck{}).
		Scopes(deckScope(serverID, persoID)).
		Where("member_id IS NULL").
		Update("member_id", memberID)
	return result.RowsAffected == 1, result.Error
}

// Transfer moves ownership from one member to another (or to nobody when to
// is nil) only if from still owns the personality.
func (r *DeckRepository) Transfer(ctx context.Context, serverID string, persoID uint, from string, to *string) (bool, error) {
	return transfer(r.db.WithContext(ctx), serverID, persoID, from, to)
}

func transfer(db *gorm.DB, serverID string, persoID uint, from string, to *string) (bool, error) {
	result := db.Model(&models.Deck{}).
		Scopes(deckScope(serverID, persoID)).
		Where("member_id = ?", from).
		Update("member_id", to)
	return result.RowsAffected == 1, result.Error
}

// Swap exchanges two personalities between two members in one transaction.
// Nothing is written unless both members still own their side.
func (r *DeckRepository) Swap(ctx context.Context, serverID string, persoA, persoB uint, memberA, memberB string) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := transfer(tx, serverID, persoA, memberA, &memberB)
		if err != nil {
			return err
		}
		if !ok {
			return errSwapConflict
		}

		ok, err = transfer(tx, serverID, persoB, memberB, &memberA)
		if err != nil {
			return err
		}
		if !ok {
			return errSwapConflict
		}
		return nil
	})
	if errors.Is(err, errSwapConflict) {
		return false, nil
	}
	return err == nil, err
}

// ReleaseAll clears the owner of every personality held by member
func (r *DeckRepository) ReleaseAll(ctx context.Context, serverID, memberID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Deck{}).
		Where("server_id = ? AND member_id = ?", serverID, memberID).
		Update("member_id", nil)
	return result.RowsAffected, result.Error
}

// OwnedBy returns the personalities held by member sorted by name
func (r *DeckRepository) OwnedBy(ctx context.Context, serverID, memberID string) ([]models.Personality, error) {
	var persos []models.Personality
	err := r.db.WithContext(ctx).Model(&models.Personality{}).
		Joins("JOIN decks ON decks.personality_id = personalities.id").
		Where("decks.server_id = ? AND decks.member_id = ?", serverID, memberID).
		Preload("Groups").
		Order("personalities.name, personalities.id").
		Find(&persos).Error
	return persos, err
}

// OwnedIDs returns the ids of the personalities held by member
func (r *DeckRepository) OwnedIDs(ctx context.Context, serverID, memberID string) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Deck{}).
		Where("server_id = ? AND member_id = ?", serverID, memberID).
		Order("personality_id").
		Pluck("personality_id", &ids).Error
	return ids, err
}

// OwnersOf maps each owned personality among ids to its owner
func (r *DeckRepository) OwnersOf(ctx context.Context, serverID string, ids []uint) (map[uint]string, error) {
	owners := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return owners, nil
	}

	var decks []models.Deck
	err := r.db.WithContext(ctx).
		Where("server_id = ? AND personality_id IN ? AND member_id IS NOT NULL", serverID, ids).
		Find(&decks).Error
	if err != nil {
		return nil, err
	}
	for _, d := range decks {
		owners[d.PersonalityID] = *d.MemberID
	}
	return owners, nil
}

// GroupCounts returns how many owned personalities fall in each group,
// biggest first, at most limit rows.
func (r *DeckRepository) GroupCounts(ctx context.Context, serverID, memberID string, limit int) ([]GroupCount, error) {
	var counts []GroupCount
	err := r.db.WithContext(ctx).Table("decks").
		Select("catalog_groups.name AS name, COUNT(*) AS count").
		Joins("JOIN perso_groups ON perso_groups.personality_id = decks.personality_id").
		Joins("JOIN catalog_groups ON catalog_groups.id = perso_groups.group_id").
		Where("decks.server_id = ? AND decks.member_id = ?", serverID, memberID).
		Group("catalog_groups.name").
		Order("count DESC, catalog_groups.name").
		Limit(limit).
		Scan(&counts).Error
	return counts, err
}

// CompareAndSetImage moves the display cursor of (server, personality) from
// old to index; false if someone else moved it first.
func (r *DeckRepository) CompareAndSetImage(ctx context.Context, serverID string, persoID uint, old, index int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Deck{}).
		Scopes(deckScope(serverID, persoID)).
		Where("current_image = ?", old).
		Update("current_image", index)
	return result.RowsAffected == 1, result.Error
}
