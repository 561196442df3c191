package service

import (
	"context"
	"fmt"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
)

type ServerConfigService struct {
	service *gacha.Service
}

var _ gacha.ServerConfigServiceInterface = (*ServerConfigService)(nil)

func NewServerConfigService(s *gacha.Service) gacha.ServerConfigServiceInterface {
	return &ServerConfigService{service: s}
}

// Config returns the server settings, creating them with defaults
func (sc *ServerConfigService) Config(ctx context.Context, serverID string) (*models.Server, error) {
	return serverFor(ctx, sc.service, serverID)
}

func (sc *ServerConfigService) set(ctx context.Context, serverID, column string, value interface{}) error {
	if _, err := serverFor(ctx, sc.service, serverID); err != nil {
		return err
	}
	if err := sc.service.ServerRepo.UpdateColumn(ctx, serverID, column, value); err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}

	serverLogger(sc.service, "servers", serverID).Info("Server setting changed", map[string]interface{}{
		"setting": column,
	})
	return nil
}

func positive(name string, value int) error {
	if value <= 0 {
		return fmt.Errorf("%w: %s must be positive", shared.ErrInvalidArgument, name)
	}
	return nil
}

// SetClaimInterval sets the minutes between two claims of a member
func (sc *ServerConfigService) SetClaimInterval(ctx context.Context, serverID string, minutes int) error {
	if err := positive("claim interval", minutes); err != nil {
		return err
	}
	return sc.set(ctx, serverID, "claim_interval", minutes)
}

// SetRollsPerHour sets the hourly roll budget
func (sc *ServerConfigService) SetRollsPerHour(ctx context.Context, serverID string, rolls int) error {
	if err := positive("rolls per hour", rolls); err != nil {
		return err
	}
	return sc.set(ctx, serverID, "rolls_per_hour", rolls)
}

// SetTimeToClaim sets how many seconds a roll stays claimable
func (sc *ServerConfigService) SetTimeToClaim(ctx context.Context, serverID string, seconds int) error {
	if err := positive("time to claim", seconds); err != nil {
		return err
	}
	return sc.set(ctx, serverID, "time_to_claim", seconds)
}

// SetInformationChannel sets the digest channel; nil clears it
func (sc *ServerConfigService) SetInformationChannel(ctx context.Context, serverID string, channelID *string) error {
	return sc.set(ctx, serverID, "information_channel", channelID)
}

// SetClaimsChannel sets the channel rolls happen in; nil clears it
func (sc *ServerConfigService) SetClaimsChannel(ctx context.Context, serverID string, channelID *string) error {
	return sc.set(ctx, serverID, "claims_channel", channelID)
}

// SetMaxWish changes one member's wishlist capacity
func (sc *ServerConfigService) SetMaxWish(ctx context.Context, serverID, memberID string, maxWish int) error {
	s := sc.service
	if maxWish < 0 {
		return fmt.Errorf("%w: max wish cannot be negative", shared.ErrInvalidArgument)
	}
	if _, err := memberFor(ctx, s.MemberRepo, s, serverID, memberID); err != nil {
		return err
	}
	return s.MemberRepo.SetMaxWish(ctx, serverID, memberID, maxWish)
}

// ServersWithDigestChannels returns the servers receiving the daily digest
func (sc *ServerConfigService) ServersWithDigestChannels(ctx context.Context) ([]models.Server, error) {
	return sc.service.ServerRepo.ListWithDigestChannels(ctx)
}
