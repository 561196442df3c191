package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/database/repository"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
	"github.com/latoulicious/perso-wars/pkg/logging"
)

// maxAttempts bounds every optimistic retry loop
const maxAttempts = 8

func componentLogger(s *gacha.Service, component string) logging.Logger {
	if s.Loggers == nil {
		return logging.NewNopLogger()
	}
	return s.Loggers.CreateLogger(component)
}

// serverLogger scopes a component's logger to one server
func serverLogger(s *gacha.Service, component, serverID string) *logging.ServerLogger {
	if s.Loggers == nil {
		return logging.NewServerLogger(logging.NewNopLogger(), serverID)
	}
	return s.Loggers.CreateServerLogger(component, serverID)
}

// serverFor returns the server row, creating it with the engine defaults
func serverFor(ctx context.Context, s *gacha.Service, serverID string) (*models.Server, error) {
	server, err := s.ServerRepo.GetOrCreate(ctx, models.Server{
		ID:            serverID,
		ClaimInterval: s.Defaults.ClaimInterval,
		TimeToClaim:   s.Defaults.TimeToClaim,
		RollsPerHour:  s.Defaults.RollsPerHour,
	})
	if err != nil {
		return nil, fmt.Errorf("load server %s: %w", serverID, err)
	}
	return server, nil
}

// memberFor returns the member row, creating it with the default wish capacity
func memberFor(ctx context.Context, repo *repository.MemberRepository, s *gacha.Service, serverID, memberID string) (*models.MemberInformation, error) {
	member, err := repo.GetOrCreate(ctx, serverID, memberID, s.Defaults.MaxWish)
	if err != nil {
		return nil, fmt.Errorf("load member %s/%s: %w", serverID, memberID, err)
	}
	return member, nil
}

// personality loads a catalog entry, mapping a missing row to ErrNotFound
func personality(ctx context.Context, s *gacha.Service, persoID uint) (*models.Personality, error) {
	perso, err := s.CatalogRepo.GetPersonalityByID(ctx, persoID)
	if repository.IsNotFound(err) {
		return nil, shared.NotFoundf("personality %d", persoID)
	}
	if err != nil {
		return nil, fmt.Errorf("load personality %d: %w", persoID, err)
	}
	return perso, nil
}

// resolve turns a name (and optional group) into exactly one personality
func resolve(ctx context.Context, s *gacha.Service, ref shared.PersoRef) (*models.Personality, error) {
	matches, err := s.CatalogRepo.FindPersonalities(ctx, ref.Name, ref.Group)
	if err != nil {
		return nil, fmt.Errorf("find personality %q: %w", ref.Name, err)
	}

	switch len(matches) {
	case 0:
		if ref.Group != "" {
			return nil, shared.NotFoundf("%s (%s)", ref.Name, ref.Group)
		}
		return nil, shared.NotFoundf("%s", ref.Name)
	case 1:
		return &matches[0], nil
	default:
		return nil, shared.ErrAmbiguous
	}
}

func isAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
