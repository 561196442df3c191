package service

import (
	"context"
	"testing"
	"time"

	"github.com/latoulicious/perso-wars/pkg/common"
	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTrade(t *testing.T) (*gacha.Service, *models.Personality, *models.Personality) {
	t.Helper()
	s, _ := newTestService(t)
	p1 := addPerso(t, s, "Alice", "Alpha")
	p2 := addPerso(t, s, "Bob", "Beta")
	giveTo(t, s, p1.ID, "u1")
	giveTo(t, s, p2.ID, "u2")
	return s, p1, p2
}

func TestTrade_AcceptSwaps(t *testing.T) {
	s, p1, p2 := setupTrade(t)
	ctx := context.Background()

	trade, err := NewTradeService(s).ProposeTrade(ctx, testServer, "u1", "u2", p1.ID)
	require.NoError(t, err)
	require.NoError(t, trade.Counter(ctx, "u2", p2.ID))
	require.NoError(t, trade.Accept(ctx, "u1"))

	assert.Equal(t, shared.StateResolved, trade.State())
	assert.Equal(t, "u2", ownerOf(t, s, p1.ID))
	assert.Equal(t, "u1", ownerOf(t, s, p2.ID))

	assert.ErrorIs(t, trade.Accept(ctx, "u1"), shared.ErrAlreadyResolved)
	assert.False(t, trade.Reject())
}

func TestTrade_RejectLeavesOwnership(t *testing.T) {
	s, p1, p2 := setupTrade(t)
	ctx := context.Background()
	trades := NewTradeService(s)

	trade, err := trades.ProposeTrade(ctx, testServer, "u1", "u2", p1.ID)
	require.NoError(t, err)
	require.NoError(t, trade.Counter(ctx, "u2", p2.ID))
	assert.True(t, trade.Reject())

	assert.ErrorIs(t, trade.Accept(ctx, "u1"), shared.ErrCancelled)
	assert.Equal(t, "u1", ownerOf(t, s, p1.ID))
	assert.Equal(t, "u2", ownerOf(t, s, p2.ID))

	// The target is free again
	again, err := trades.ProposeTrade(ctx, testServer, "u1", "u2", p1.ID)
	require.NoError(t, err)
	again.Reject()
}

func TestTrade_TimeoutLeavesOwnership(t *testing.T) {
	s, p1, p2 := setupTrade(t)
	ctx := context.Background()
	s.Defaults.TradeTimeout = 20 * time.Millisecond
	trades := NewTradeService(s)

	trade, err := trades.ProposeTrade(ctx, testServer, "u1", "u2", p1.ID)
	require.NoError(t, err)
	require.NoError(t, trade.Counter(ctx, "u2", p2.ID))

	select {
	case <-trade.Done():
	case <-time.After(time.Second):
		t.Fatal("trade did not expire")
	}
	assert.Equal(t, shared.StateExpired, trade.State())
	assert.ErrorIs(t, trade.Accept(ctx, "u1"), shared.ErrTimeout)
	assert.Equal(t, "u1", ownerOf(t, s, p1.ID))
	assert.Equal(t, "u2", ownerOf(t, s, p2.ID))

	locker := s.Locker.(*common.MemoryLocker)
	require.Eventually(t, func() bool {
		return !locker.IsLocked(common.TradeLockKey(testServer, "u2"))
	}, time.Second, 5*time.Millisecond)
}

func TestTrade_TargetBusy(t *testing.T) {
	s, p1, _ := setupTrade(t)
	ctx := context.Background()
	trades := NewTradeService(s)
	p3 := addPerso(t, s, "Carol", "Gamma")
	giveTo(t, s, p3.ID, "u3")

	first, err := trades.ProposeTrade(ctx, testServer, "u1", "u2", p1.ID)
	require.NoError(t, err)
	defer first.Reject()

	_, err = trades.ProposeTrade(ctx, testServer, "u3", "u2", p3.ID)
	assert.ErrorIs(t, err, shared.ErrTargetBusy)

	// The lock is per target; other members can still be approached
	other, err := trades.ProposeTrade(ctx, testServer, "u3", "u1", p3.ID)
	require.NoError(t, err)
	other.Reject()

	// and per server
	won, err := s.DeckRepo.ClaimIfUnowned(ctx, "server-2", p3.ID, "u3")
	require.NoError(t, err)
	require.True(t, won)
	elsewhere, err := trades.ProposeTrade(ctx, "server-2", "u3", "u2", p3.ID)
	require.NoError(t, err)
	elsewhere.Reject()
}

func TestTrade_Validation(t *testing.T) {
	s, p1, p2 := setupTrade(t)
	ctx := context.Background()
	trades := NewTradeService(s)

	_, err := trades.ProposeTrade(ctx, testServer, "u1", "u1", p1.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = trades.ProposeTrade(ctx, testServer, "u1", "u2", p2.ID)
	assert.ErrorIs(t, err, shared.ErrNotOwned)

	trade, err := trades.ProposeTrade(ctx, testServer, "u1", "u2", p1.ID)
	require.NoError(t, err)
	defer trade.Reject()

	assert.ErrorIs(t, trade.Accept(ctx, "u1"), shared.ErrInvalidArgument, "no counter offer")
	assert.ErrorIs(t, trade.Counter(ctx, "u2", p1.ID), shared.ErrNotOwned)
}

func TestTrade_OwnershipChangedBeforeAccept(t *testing.T) {
	s, p1, p2 := setupTrade(t)
	ctx := context.Background()

	trade, err := NewTradeService(s).ProposeTrade(ctx, testServer, "u1", "u2", p1.ID)
	require.NoError(t, err)
	require.NoError(t, trade.Counter(ctx, "u2", p2.ID))

	require.NoError(t, NewTransferService(s).Discard(ctx, testServer, p2.ID, "u2"))

	assert.ErrorIs(t, trade.Accept(ctx, "u1"), shared.ErrNotOwned)
	assert.Equal(t, shared.StateCancelled, trade.State())
	assert.Equal(t, "u1", ownerOf(t, s, p1.ID))
	assert.Equal(t, "", ownerOf(t, s, p2.ID))
}

func TestTrade_OnlyPartiesCanAct(t *testing.T) {
	s, p1, p2 := setupTrade(t)
	ctx := context.Background()

	trade, err := NewTradeService(s).ProposeTrade(ctx, testServer, "u1", "u2", p1.ID)
	require.NoError(t, err)
	defer trade.Reject()

	assert.ErrorIs(t, trade.Counter(ctx, "u1", p2.ID), shared.ErrInvalidArgument, "proposer cannot counter")
	assert.ErrorIs(t, trade.Counter(ctx, "u3", p2.ID), shared.ErrInvalidArgument, "outsider cannot counter")
	_, countered := trade.(*TradeProposal).Requested()
	assert.False(t, countered)

	require.NoError(t, trade.Counter(ctx, "u2", p2.ID))
	assert.ErrorIs(t, trade.Accept(ctx, "u2"), shared.ErrInvalidArgument, "target cannot accept")
	assert.ErrorIs(t, trade.Accept(ctx, "u3"), shared.ErrInvalidArgument, "outsider cannot accept")

	assert.Equal(t, shared.StateOpen, trade.State())
	assert.Equal(t, "u1", ownerOf(t, s, p1.ID))
	assert.Equal(t, "u2", ownerOf(t, s, p2.ID))
}
