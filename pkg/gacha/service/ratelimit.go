package service

import (
	"context"
	"time"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
)

type RateLimiter struct {
	service *gacha.Service
}

var _ gacha.RateLimiterInterface = (*RateLimiter)(nil)

func NewRateLimiter(s *gacha.Service) gacha.RateLimiterInterface {
	return &RateLimiter{service: s}
}

// sameHourBucket reports whether last falls in the calendar date and hour of now
func sameHourBucket(last, now time.Time) bool {
	last = last.In(now.Location())
	ly, lm, ld := last.Date()
	ny, nm, nd := now.Date()
	return ly == ny && lm == nm && ld == nd && last.Hour() == now.Hour()
}

// rollsInBucket returns the rolls counted against the current hour
func rollsInBucket(member *models.MemberInformation, now time.Time) int {
	if member.LastRoll == nil || !sameHourBucket(*member.LastRoll, now) {
		return 0
	}
	return member.NbRolls
}

// claimWait returns the whole minutes left before member may claim again
func claimWait(member *models.MemberInformation, server *models.Server, now time.Time) int {
	if member.LastClaim == nil {
		return 0
	}
	elapsed := int(now.Sub(*member.LastClaim) / time.Minute)
	if elapsed >= server.ClaimInterval {
		return 0
	}
	return server.ClaimInterval - elapsed
}

// MinutesUntilNextRoll returns 0 when a roll is allowed. A stale hour bucket
// is reset as a side effect.
func (rl *RateLimiter) MinutesUntilNextRoll(ctx context.Context, serverID, memberID string) (int, error) {
	s := rl.service
	server, err := serverFor(ctx, s, serverID)
	if err != nil {
		return 0, err
	}
	member, err := memberFor(ctx, s.MemberRepo, s, serverID, memberID)
	if err != nil {
		return 0, err
	}

	now := s.Clock.Now()
	if member.LastRoll == nil {
		return 0, nil
	}
	if !sameHourBucket(*member.LastRoll, now) {
		// A concurrent roll winning the race already moved the bucket
		if _, err := s.MemberRepo.CompareAndSetRolls(ctx, serverID, memberID, member.RollVersion, 0, nil); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if member.NbRolls < server.RollsPerHour {
		return 0, nil
	}
	return 60 - now.Minute(), nil
}

// ConsumeRoll checks eligibility and counts one roll in a single conditional write
func (rl *RateLimiter) ConsumeRoll(ctx context.Context, serverID, memberID string) (*shared.RollBudget, error) {
	s := rl.service
	server, err := serverFor(ctx, s, serverID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		member, err := memberFor(ctx, s.MemberRepo, s, serverID, memberID)
		if err != nil {
			return nil, err
		}

		now := s.Clock.Now()
		used := rollsInBucket(member, now)
		if used >= server.RollsPerHour {
			return nil, &shared.RateLimitedError{Action: "roll", Minutes: 60 - now.Minute()}
		}

		ok, err := s.MemberRepo.CompareAndSetRolls(ctx, serverID, memberID, member.RollVersion, used+1, &now)
		if err != nil {
			return nil, err
		}
		if ok {
			return &shared.RollBudget{Used: used + 1, Remaining: server.RollsPerHour - used - 1}, nil
		}
	}

	serverLogger(rl.service, "ratelimit", serverID).WithMember(memberID).Warn("Roll counter contended", nil)
	return nil, shared.ErrContended
}

// MinutesUntilNextClaim returns 0 when the member may claim now
func (rl *RateLimiter) MinutesUntilNextClaim(ctx context.Context, serverID, memberID string) (int, error) {
	s := rl.service
	server, err := serverFor(ctx, s, serverID)
	if err != nil {
		return 0, err
	}
	member, err := memberFor(ctx, s.MemberRepo, s, serverID, memberID)
	if err != nil {
		return 0, err
	}
	return claimWait(member, server, s.Clock.Now()), nil
}

// TimeStatus reports both cooldowns without touching the roll counter
func (rl *RateLimiter) TimeStatus(ctx context.Context, serverID, memberID string) (*shared.TimeStatus, error) {
	s := rl.service
	server, err := serverFor(ctx, s, serverID)
	if err != nil {
		return nil, err
	}
	member, err := memberFor(ctx, s.MemberRepo, s, serverID, memberID)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	left := server.RollsPerHour - rollsInBucket(member, now)
	if left < 0 {
		left = 0
	}
	return &shared.TimeStatus{
		MinutesUntilClaim: claimWait(member, server, now),
		RollsLeft:         left,
		MinutesUntilReset: 60 - now.Minute(),
	}, nil
}
