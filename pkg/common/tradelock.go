package common

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockNotHeld is returned when releasing a lock whose token no longer matches
var ErrLockNotHeld = errors.New("lock not held")

// Locker is a registry of short-lived exclusive locks keyed by string.
// TryLock never blocks; it returns ok=false when the key is already held.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// TradeLockKey scopes a lock to one target member of one server
func TradeLockKey(serverID, memberID string) string {
	return fmt.Sprintf("trade:%s:%s", serverID, memberID)
}

type lockEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker keeps locks in process memory
type MemoryLocker struct {
	locks    map[string]lockEntry
	mu       sync.Mutex
	now      func() time.Time
	newToken func() string
}

// NewMemoryLocker creates an empty in-process lock registry
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		locks:    make(map[string]lockEntry),
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// TryLock takes key unless a live lock holds it
func (m *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if entry, held := m.locks[key]; held && now.Before(entry.expiresAt) {
		return "", false, nil
	}

	token := m.newToken()
	m.locks[key] = lockEntry{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

// Unlock releases key if token still owns it
func (m *MemoryLocker) Unlock(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, held := m.locks[key]
	if !held || entry.token != token {
		return ErrLockNotHeld
	}
	delete(m.locks, key)
	return nil
}

// IsLocked reports whether key is held by a live lock
func (m *MemoryLocker) IsLocked(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, held := m.locks[key]
	return held && m.now().Before(entry.expiresAt)
}

// Sweep drops expired entries and returns how many were removed
func (m *MemoryLocker) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for key, entry := range m.locks {
		if !now.Before(entry.expiresAt) {
			delete(m.locks, key)
			removed++
		}
	}
	return removed
}

// StartCleanup sweeps expired entries every interval until the returned stop
// function is called.
func (m *MemoryLocker) StartCleanup(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Sweep()
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}

// releaseScript deletes the key only when it still carries our token
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// RedisLocker shares locks between engine processes through Redis
type RedisLocker struct {
	client   redis.UniversalClient
	prefix   string
	newToken func() string
}

// NewRedisLocker creates a Redis-backed lock registry; keys are namespaced by prefix
func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	return &RedisLocker{
		client:   client,
		prefix:   prefix,
		newToken: uuid.NewString,
	}
}

func (r *RedisLocker) key(key string) string {
	return r.prefix + key
}

// TryLock runs SET key token NX PX ttl
func (r *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := r.newToken()
	ok, err := r.client.SetNX(ctx, r.key(key), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Unlock deletes key only if it still holds token
func (r *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	deleted, err := r.client.Eval(ctx, releaseScript, []string{r.key(key)}, token).Int64()
	if err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	if deleted == 0 {
		return ErrLockNotHeld
	}
	return nil
}
