package service

import (
	"context"
	"sync"
	"testing"

	"github.com/latoulicious/perso-wars/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedLogs struct {
	mu      sync.Mutex
	entries []logging.LogEntry
}

func (r *recordedLogs) SaveLog(entry logging.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordedLogs) find(message string) (logging.LogEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Message == message {
			return e, true
		}
	}
	return logging.LogEntry{}, false
}

func TestServiceLogs_CarryServerAndMember(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()
	logs := &recordedLogs{}
	s.Loggers = logging.NewDatabaseLoggerFactory("error", logs)

	perso := addPerso(t, s, "Alice", "Alpha")
	giveTo(t, s, perso.ID, "u1")
	require.NoError(t, NewTransferService(s).Give(ctx, testServer, perso.ID, "u1", "u2"))
	require.NoError(t, NewServerConfigService(s).SetRollsPerHour(ctx, testServer, 5))

	for _, component := range []string{"transfers", "servers"} {
		s.Loggers.CreateLogger(component).(*logging.DatabaseLogger).Flush()
	}

	given, ok := logs.find("Personality given")
	require.True(t, ok)
	assert.Equal(t, "transfers", given.Component)
	assert.Equal(t, testServer, given.ServerID)
	assert.Equal(t, "u1", given.MemberID)
	assert.Equal(t, "u2", given.Fields["to"])

	changed, ok := logs.find("Server setting changed")
	require.True(t, ok)
	assert.Equal(t, testServer, changed.ServerID)
	assert.Empty(t, changed.MemberID)
}
