package service

import (
	"context"
	"fmt"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
)

// TransferService changes ownership with conditional writes guarded by the
// expected current owner
type TransferService struct {
	service *gacha.Service
}

var _ gacha.TransferServiceInterface = (*TransferService)(nil)

func NewTransferService(s *gacha.Service) gacha.TransferServiceInterface {
	return &TransferService{service: s}
}

// Give hands a personality from one member to another
func (ts *TransferService) Give(ctx context.Context, serverID string, persoID uint, fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("%w: cannot give to yourself", shared.ErrInvalidArgument)
	}
	if _, err := personality(ctx, ts.service, persoID); err != nil {
		return err
	}

	moved, err := ts.service.DeckRepo.Transfer(ctx, serverID, persoID, fromID, &toID)
	if err != nil {
		return err
	}
	if !moved {
		return shared.ErrNotOwned
	}

	serverLogger(ts.service, "transfers", serverID).WithMember(fromID).Info("Personality given", map[string]interface{}{
		"personality_id": persoID,
		"to":             toID,
	})
	return nil
}

// Trade swaps two personalities; either both change hands or neither does
func (ts *TransferService) Trade(ctx context.Context, serverID string, persoA, persoB uint, memberA, memberB string) error {
	if memberA == memberB || persoA == persoB {
		return fmt.Errorf("%w: a trade needs two members and two personalities", shared.ErrInvalidArgument)
	}

	swapped, err := ts.service.DeckRepo.Swap(ctx, serverID, persoA, persoB, memberA, memberB)
	if err != nil {
		return err
	}
	if !swapped {
		return shared.ErrNotOwned
	}

	serverLogger(ts.service, "transfers", serverID).Info("Personalities traded", map[string]interface{}{
		"member_a": memberA,
		"member_b": memberB,
		"perso_a":  persoA,
		"perso_b":  persoB,
	})
	return nil
}

// Discard returns a personality to the unowned pool
func (ts *TransferService) Discard(ctx context.Context, serverID string, persoID uint, ownerID string) error {
	released, err := ts.service.DeckRepo.Transfer(ctx, serverID, persoID, ownerID, nil)
	if err != nil {
		return err
	}
	if !released {
		return shared.ErrNotOwned
	}

	serverLogger(ts.service, "transfers", serverID).WithMember(ownerID).Info("Personality discarded", map[string]interface{}{
		"personality_id": persoID,
	})
	return nil
}

// DiscardAll releases the whole deck of a member and returns its size
func (ts *TransferService) DiscardAll(ctx context.Context, serverID, ownerID string) (int, error) {
	count, err := ts.service.DeckRepo.ReleaseAll(ctx, serverID, ownerID)
	if err != nil {
		return 0, err
	}

	serverLogger(ts.service, "transfers", serverID).WithMember(ownerID).Info("Deck discarded", map[string]interface{}{
		"count": count,
	})
	return int(count), nil
}

// FindOwned resolves a personality by name and checks memberID owns it
func (ts *TransferService) FindOwned(ctx context.Context, serverID, memberID string, ref shared.PersoRef) (*models.Personality, error) {
	perso, err := resolve(ctx, ts.service, ref)
	if err != nil {
		return nil, err
	}

	owner, err := ts.service.DeckRepo.Owner(ctx, serverID, perso.ID)
	if err != nil {
		return nil, err
	}
	if owner == nil || *owner != memberID {
		return nil, shared.ErrNotOwned
	}
	return perso, nil
}
