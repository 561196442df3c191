package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/latoulicious/perso-wars/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDigest struct {
	mu      sync.Mutex
	windows []time.Duration
	err     error
}

func (f *fakeDigest) Digest(context.Context, string, time.Time, time.Time) (string, error) {
	return "", nil
}

func (f *fakeDigest) PublishAll(_ context.Context, window time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, window)
	return len(f.windows), f.err
}

func (f *fakeDigest) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.windows)
}

func TestNewDigestJob_Schedule(t *testing.T) {
	job, err := NewDigestJob(&fakeDigest{}, "0 0 9 * * *", 24*time.Hour, time.UTC, logging.NewNopLogger())
	require.NoError(t, err)

	at := time.Date(2025, 3, 1, 8, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), job.Next(at))
	assert.Equal(t, time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC), job.Next(at.Add(time.Hour)))
}

func TestNewDigestJob_InvalidSpec(t *testing.T) {
	_, err := NewDigestJob(&fakeDigest{}, "every morning", time.Hour, time.UTC, logging.NewNopLogger())
	assert.Error(t, err)

	// five-field specs are rejected, the schedule has a seconds field
	_, err = NewDigestJob(&fakeDigest{}, "0 9 * * *", time.Hour, time.UTC, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestDigestJob_Run(t *testing.T) {
	digest := &fakeDigest{}
	job, err := NewDigestJob(digest, "@daily", 12*time.Hour, time.UTC, logging.NewNopLogger())
	require.NoError(t, err)

	job.Run()
	digest.err = errors.New("boom")
	job.Run()

	assert.Equal(t, []time.Duration{12 * time.Hour, 12 * time.Hour}, digest.windows)
}

func TestDigestJob_StartStop(t *testing.T) {
	digest := &fakeDigest{}
	job, err := NewDigestJob(digest, "* * * * * *", time.Hour, time.UTC, logging.NewNopLogger())
	require.NoError(t, err)

	job.Start()
	require.Eventually(t, func() bool { return digest.calls() > 0 }, 3*time.Second, 20*time.Millisecond)
	job.Stop()
}
