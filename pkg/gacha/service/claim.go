package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/database/repository"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
	"gorm.io/gorm"
)

// errClaimRace means the claimant's cooldown changed inside the transaction
var errClaimRace = errors.New("claim cooldown changed concurrently")

// claimWindow is an open opportunity to claim one rolled personality
type claimWindow struct {
	serverID string
	persoID  uint
	pending  *shared.Pending
}

// ClaimService rolls personalities and arbitrates who gets them
type ClaimService struct {
	service *gacha.Service
	limiter gacha.RateLimiterInterface
	images  gacha.ImageServiceInterface
	badges  gacha.BadgeServiceInterface

	mu      sync.Mutex
	windows map[uuid.UUID]*claimWindow
}

var _ gacha.ClaimServiceInterface = (*ClaimService)(nil)

func NewClaimService(s *gacha.Service) gacha.ClaimServiceInterface {
	return &ClaimService{
		service: s,
		limiter: NewRateLimiter(s),
		images:  NewImageService(s),
		badges:  NewBadgeService(s),
		windows: make(map[uuid.UUID]*claimWindow),
	}
}

// Roll spends one roll of the member and reveals a random personality.
// An unowned personality opens a claim window for the server's time to claim.
func (cs *ClaimService) Roll(ctx context.Context, serverID, rollerID string) (*shared.RollResult, error) {
	s := cs.service

	count, err := s.CatalogRepo.CountPersonalities(ctx)
	if err != nil {
		return nil, fmt.Errorf("count catalog: %w", err)
	}
	if count == 0 {
		return nil, shared.NotFoundf("the catalog is empty")
	}

	budget, err := cs.limiter.ConsumeRoll(ctx, serverID, rollerID)
	if err != nil {
		return nil, err
	}

	perso, err := s.CatalogRepo.PersonalityAt(ctx, s.Pick(int(count)))
	if repository.IsNotFound(err) {
		// the catalog shrank between the count and the pick
		return nil, shared.NotFoundf("rolled personality")
	}
	if err != nil {
		return nil, fmt.Errorf("pick personality: %w", err)
	}

	info, err := describe(ctx, s, cs.images, serverID, perso)
	if err != nil {
		return nil, err
	}

	result := &shared.RollResult{
		ServerID:    serverID,
		RollerID:    rollerID,
		Personality: info.Personality,
		Image:       info.Image,
		OwnerID:     info.OwnerID,
		WishedBy:    info.WishedBy,
		Badges:      info.Badges,
		Budget:      *budget,
	}

	if info.OwnerID == nil {
		server, err := serverFor(ctx, s, serverID)
		if err != nil {
			return nil, err
		}
		result.Window = cs.open(serverID, perso.ID, time.Duration(server.TimeToClaim)*time.Second)
	}

	serverLogger(s, "claims", serverID).WithMember(rollerID).Info("Personality rolled", map[string]interface{}{
		"personality_id": perso.ID,
		"owned":          info.OwnerID != nil,
		"rolls_left":     budget.Remaining,
	})
	return result, nil
}

func (cs *ClaimService) open(serverID string, persoID uint, ttl time.Duration) *shared.ClaimWindow {
	id := uuid.New()
	deadline := time.Now().Add(ttl)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	pending := shared.NewPending(ttl, func(state shared.State) {
		if state == shared.StateResolved {
			// keep resolved windows until their deadline so late claimants
			// learn the personality was taken
			time.AfterFunc(time.Until(deadline), func() { cs.forget(id) })
		} else {
			cs.forget(id)
		}

		serverLogger(cs.service, "claims", serverID).Debug("Claim window closed", map[string]interface{}{
			"personality_id": persoID,
			"state":          state.String(),
		})
	})
	cs.windows[id] = &claimWindow{serverID: serverID, persoID: persoID, pending: pending}

	return &shared.ClaimWindow{ID: id, ExpiresAt: pending.Deadline()}
}

func (cs *ClaimService) forget(id uuid.UUID) {
	cs.mu.Lock()
	delete(cs.windows, id)
	cs.mu.Unlock()
}

func (cs *ClaimService) window(id uuid.UUID) *claimWindow {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.windows[id]
}

// Claim takes the personality of an open window for claimant. A claimant on
// cooldown gets a RateLimitedError and the window stays open for others.
func (cs *ClaimService) Claim(ctx context.Context, windowID uuid.UUID, claimantID string) (*shared.ClaimResult, error) {
	w := cs.window(windowID)
	if w == nil {
		return nil, shared.ErrTimeout
	}

	var result *shared.ClaimResult
	err := w.pending.Attempt(func() error {
		r, err := cs.claim(ctx, w.serverID, w.persoID, claimantID)
		if err != nil {
			return err
		}
		result = r
		return nil
	})

	switch {
	case errors.Is(err, shared.ErrAlreadyResolved):
		return nil, shared.ErrAlreadyOwned
	case errors.Is(err, shared.ErrAlreadyOwned):
		// claimed outside this window, nobody can win it anymore
		w.pending.Cancel()
		return nil, err
	case err != nil:
		return nil, err
	}
	return result, nil
}

// ClaimDirect claims a personality without a roll
func (cs *ClaimService) ClaimDirect(ctx context.Context, serverID string, persoID uint, claimantID string) (*shared.ClaimResult, error) {
	return cs.claim(ctx, serverID, persoID, claimantID)
}

// CloseWindow cancels an open window; false if it was already closed
func (cs *ClaimService) CloseWindow(windowID uuid.UUID) bool {
	w := cs.window(windowID)
	if w == nil {
		return false
	}
	return w.pending.Cancel()
}

// OpenWindows returns the number of claim windows still open
func (cs *ClaimService) OpenWindows() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	open := 0
	for _, w := range cs.windows {
		if w.pending.State() == shared.StateOpen {
			open++
		}
	}
	return open
}

func (cs *ClaimService) claim(ctx context.Context, serverID string, persoID uint, claimantID string) (*shared.ClaimResult, error) {
	s := cs.service

	perso, err := personality(ctx, s, persoID)
	if err != nil {
		return nil, err
	}
	server, err := serverFor(ctx, s, serverID)
	if err != nil {
		return nil, err
	}
	if _, err := memberFor(ctx, s.MemberRepo, s, serverID, claimantID); err != nil {
		return nil, err
	}

	var claimedAt time.Time
	for attempt := 0; ; attempt++ {
		if attempt == maxAttempts {
			return nil, shared.ErrContended
		}

		now := s.Clock.Now()
		err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			members := s.MemberRepo.WithTx(tx)
			member, err := members.GetOrCreate(ctx, serverID, claimantID, s.Defaults.MaxWish)
			if err != nil {
				return err
			}
			if wait := claimWait(member, server, now); wait > 0 {
				return &shared.RateLimitedError{Action: "claim", Minutes: wait}
			}

			won, err := s.DeckRepo.WithTx(tx).ClaimIfUnowned(ctx, serverID, persoID, claimantID)
			if err != nil {
				return err
			}
			if !won {
				return shared.ErrAlreadyOwned
			}

			ok, err := members.CompareAndSetLastClaim(ctx, serverID, claimantID, member.ClaimVersion, now)
			if err != nil {
				return err
			}
			if !ok {
				return errClaimRace
			}

			return s.ClaimLogRepo.WithTx(tx).Append(ctx, &models.ClaimLog{
				ServerID:      serverID,
				PersonalityID: persoID,
				MemberID:      claimantID,
				ClaimedAt:     now.UTC(),
			})
		})
		if errors.Is(err, errClaimRace) {
			continue
		}
		if err != nil {
			return nil, err
		}
		claimedAt = now
		break
	}

	result := &shared.ClaimResult{
		ServerID:    serverID,
		MemberID:    claimantID,
		Personality: *perso,
		ClaimedAt:   claimedAt,
	}

	logger := serverLogger(cs.service, "claims", serverID).WithMember(claimantID)
	progress, err := cs.badges.Evaluate(ctx, serverID, claimantID, persoID)
	if err != nil {
		// the claim is committed; only the badge report is missing
		logger.Error("Failed to evaluate badges", err, map[string]interface{}{
			"personality_id": persoID,
		})
	}
	result.Progress = progress
	for _, p := range progress {
		if p.Complete {
			result.Unlocked = append(result.Unlocked, p)
		}
	}

	logger.Info("Personality claimed", map[string]interface{}{
		"personality_id": persoID,
		"unlocked":       len(result.Unlocked),
	})
	return result, nil
}
