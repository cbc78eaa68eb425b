package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle identifies one successful acquisition. It is never persisted
// beyond the request that holds it.
type Handle struct {
	Key        string
	Holder     string
	AcquiredAt time.Time
	RetryCount int
}

// Manager serializes cache regeneration per cache key. Locks are
// advisory and always bounded by the retry ceiling, so a crashed
// holder can never block a key forever.
type Manager interface {
	Acquire(ctx context.Context, key string) (Handle, error)
	Release(handle Handle)
}

type Config struct {
	// MaxRetries bounds the backoff retries made after the immediate
	// attempt. Zero selects the default; a negative value disables
	// retries entirely so contention fails immediately.
	MaxRetries int
	Backoff    time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.Backoff == 0 {
		c.Backoff = 100 * time.Millisecond
	}
	return c
}

type keyLockManager struct {
	config Config

	mu   sync.Mutex
	held map[string]string
}

var _ Manager = (*keyLockManager)(nil)

func NewManager(config Config) Manager {
	return &keyLockManager{
		config: config.withDefaults(),
		held:   make(map[string]string),
	}
}

// Acquire makes one immediate attempt plus MaxRetries backoff retries.
// Requests for different keys never contend with each other.
func (m *keyLockManager) Acquire(ctx context.Context, key string) (Handle, error) {
	holder := uuid.New().String()

	for attempt := 0; attempt <= m.config.MaxRetries; attempt++ {
		if m.tryAcquire(key, holder) {
			return Handle{
				Key:        key,
				Holder:     holder,
				AcquiredAt: time.Now(),
				RetryCount: attempt,
			}, nil
		}

		if attempt == m.config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return Handle{}, ctx.Err()
		case <-time.After(m.config.Backoff):
		}
	}

	return Handle{}, ErrLockTimeout
}

func (m *keyLockManager) Release(handle Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Only the holder that acquired the key may release it.
	if m.held[handle.Key] == handle.Holder {
		delete(m.held, handle.Key)
	}
}

func (m *keyLockManager) tryAcquire(key, holder string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.held[key]; taken {
		return false
	}

	m.held[key] = holder
	return true
}

var ErrLockTimeout = errors.New("lock retries exhausted")
