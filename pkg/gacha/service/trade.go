package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/latoulicious/perso-wars/pkg/common"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
)

const defaultTradeTimeout = 30 * time.Second

// TradeService opens trade negotiations. At most one negotiation may target
// a member of a server at a time.
type TradeService struct {
	service   *gacha.Service
	transfers gacha.TransferServiceInterface
}

var _ gacha.TradeServiceInterface = (*TradeService)(nil)

func NewTradeService(s *gacha.Service) gacha.TradeServiceInterface {
	return &TradeService{
		service:   s,
		transfers: NewTransferService(s),
	}
}

// ProposeTrade offers persoID from proposer to target and reserves target
// until the negotiation closes
func (ts *TradeService) ProposeTrade(ctx context.Context, serverID, proposerID, targetID string, persoID uint) (gacha.TradeNegotiation, error) {
	s := ts.service
	if proposerID == targetID {
		return nil, fmt.Errorf("%w: cannot trade with yourself", shared.ErrInvalidArgument)
	}
	if err := ts.checkOwner(ctx, serverID, persoID, proposerID); err != nil {
		return nil, err
	}

	timeout := s.Defaults.TradeTimeout
	if timeout <= 0 {
		timeout = defaultTradeTimeout
	}

	key := common.TradeLockKey(serverID, targetID)
	token, ok, err := s.Locker.TryLock(ctx, key, timeout)
	if err != nil {
		return nil, fmt.Errorf("lock trade target: %w", err)
	}
	if !ok {
		return nil, shared.ErrTargetBusy
	}

	proposal := &TradeProposal{
		id:         uuid.New(),
		trades:     ts,
		serverID:   serverID,
		proposerID: proposerID,
		targetID:   targetID,
		offered:    persoID,
	}
	logger := serverLogger(s, "trades", serverID).WithMember(proposerID)
	fields := map[string]interface{}{
		"trade_id": proposal.id.String(),
		"target":   targetID,
	}

	proposal.pending = shared.NewPending(timeout, func(state shared.State) {
		// the lock TTL may already have released the key
		if err := s.Locker.Unlock(context.Background(), key, token); err != nil && !errors.Is(err, common.ErrLockNotHeld) {
			logger.Error("Failed to release trade lock", err, fields)
		}
		logger.Info("Trade closed", mergeFields(fields, map[string]interface{}{"state": state.String()}))
	})

	logger.Info("Trade proposed", mergeFields(fields, map[string]interface{}{"personality_id": persoID}))
	return proposal, nil
}

func (ts *TradeService) checkOwner(ctx context.Context, serverID string, persoID uint, memberID string) error {
	if _, err := personality(ctx, ts.service, persoID); err != nil {
		return err
	}
	owner, err := ts.service.DeckRepo.Owner(ctx, serverID, persoID)
	if err != nil {
		return err
	}
	if owner == nil || *owner != memberID {
		return shared.ErrNotOwned
	}
	return nil
}

func mergeFields(base, extra map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// TradeProposal is one negotiation: the proposer offers a personality, the
// target counters with one of theirs, the proposer accepts or either side
// rejects.
type TradeProposal struct {
	id         uuid.UUID
	trades     *TradeService
	serverID   string
	proposerID string
	targetID   string
	offered    uint
	pending    *shared.Pending

	mu        sync.Mutex
	requested *uint
}

var _ gacha.TradeNegotiation = (*TradeProposal)(nil)

func (p *TradeProposal) ID() uuid.UUID         { return p.id }
func (p *TradeProposal) State() shared.State   { return p.pending.State() }
func (p *TradeProposal) Done() <-chan struct{} { return p.pending.Done() }
func (p *TradeProposal) Offered() uint         { return p.offered }

// Requested returns the target's counter offer, if any
func (p *TradeProposal) Requested() (uint, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.requested == nil {
		return 0, false
	}
	return *p.requested, true
}

// Counter records the personality the target gives in exchange. Only the
// target may counter.
func (p *TradeProposal) Counter(ctx context.Context, actorID string, persoID uint) error {
	if err := p.pending.Err(); err != nil {
		return err
	}
	if actorID != p.targetID {
		return fmt.Errorf("%w: only the trade target can counter", shared.ErrInvalidArgument)
	}
	if err := p.trades.checkOwner(ctx, p.serverID, persoID, p.targetID); err != nil {
		return err
	}

	p.mu.Lock()
	p.requested = &persoID
	p.mu.Unlock()
	return nil
}

// Accept executes the swap on behalf of the proposer. If either side no
// longer owns its personality the negotiation is cancelled and nothing
// changes hands.
func (p *TradeProposal) Accept(ctx context.Context, actorID string) error {
	if actorID != p.proposerID {
		if err := p.pending.Err(); err != nil {
			return err
		}
		return fmt.Errorf("%w: only the proposer can accept", shared.ErrInvalidArgument)
	}
	requested, ok := p.Requested()
	if !ok {
		if err := p.pending.Err(); err != nil {
			return err
		}
		return fmt.Errorf("%w: no counter offer yet", shared.ErrInvalidArgument)
	}

	err := p.pending.Attempt(func() error {
		return p.trades.transfers.Trade(ctx, p.serverID, p.offered, requested, p.proposerID, p.targetID)
	})
	if errors.Is(err, shared.ErrNotOwned) {
		p.pending.Cancel()
	}
	return err
}

// Reject cancels the negotiation; false if it was already closed
func (p *TradeProposal) Reject() bool {
	return p.pending.Cancel()
}
