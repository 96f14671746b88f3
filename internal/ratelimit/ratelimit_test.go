package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrldev/portal-service/internal/models"
)

// fakeClock steps time manually.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemoryLimiterAllowsUpToMax(t *testing.T) {
	clock := newFakeClock()
	l := NewMemoryLimiter(clock.Now)
	cfg := DefaultConfig()

	for i := 0; i < cfg.MaxAttempts; i++ {
		res := l.Check("login", cfg)
		assert.True(t, res.Allowed, "attempt %d", i+1)
		assert.Equal(t, cfg.MaxAttempts-i-1, res.Remaining)
	}

	res := l.Check("login", cfg)
	assert.False(t, res.Allowed)
	assert.Equal(t, cfg.Block, res.RetryAfter)
	assert.Equal(t, clock.Now().Add(cfg.Block), res.BlockedUntil)
}

func TestMemoryLimiterActiveBlockDoesNotExtend(t *testing.T) {
	clock := newFakeClock()
	l := NewMemoryLimiter(clock.Now)
	cfg := DefaultConfig()

	for i := 0; i < cfg.MaxAttempts; i++ {
		l.Check("login", cfg)
	}
	first := l.Check("login", cfg)
	require.False(t, first.Allowed)

	// Hammering during the block must not push the deadline out.
	clock.Advance(10 * time.Minute)
	second := l.Check("login", cfg)
	assert.False(t, second.Allowed)
	assert.Equal(t, first.BlockedUntil, second.BlockedUntil)
	assert.Equal(t, 20*time.Minute, second.RetryAfter)
}

func TestMemoryLimiterBlockExpiryResetsCounter(t *testing.T) {
	clock := newFakeClock()
	l := NewMemoryLimiter(clock.Now)
	cfg := DefaultConfig()

	for i := 0; i <= cfg.MaxAttempts; i++ {
		l.Check("login", cfg)
	}

	clock.Advance(cfg.Block + time.Second)
	res := l.Check("login", cfg)
	assert.True(t, res.Allowed)
	assert.Equal(t, cfg.MaxAttempts-1, res.Remaining)
}

func TestMemoryLimiterWindowExpiryResetsCounter(t *testing.T) {
	clock := newFakeClock()
	l := NewMemoryLimiter(clock.Now)
	cfg := DefaultConfig()

	for i := 0; i < cfg.MaxAttempts; i++ {
		l.Check("login", cfg)
	}

	// Window gone, counter starts over instead of blocking.
	clock.Advance(cfg.Window + time.Second)
	res := l.Check("login", cfg)
	assert.True(t, res.Allowed)
	assert.Equal(t, cfg.MaxAttempts-1, res.Remaining)
}

func TestMemoryLimiterActionsAreIndependent(t *testing.T) {
	clock := newFakeClock()
	l := NewMemoryLimiter(clock.Now)
	cfg := ContactFormConfig()

	for i := 0; i < cfg.MaxAttempts; i++ {
		l.Check("contact_form", cfg)
	}
	assert.False(t, l.Check("contact_form", cfg).Allowed)
	assert.True(t, l.Check("newsletter", cfg).Allowed)
}

func TestMemoryLimiterReset(t *testing.T) {
	clock := newFakeClock()
	l := NewMemoryLimiter(clock.Now)
	cfg := ContactFormConfig()

	for i := 0; i <= cfg.MaxAttempts; i++ {
		l.Check("contact_form", cfg)
	}
	l.Reset("contact_form")
	assert.True(t, l.Check("contact_form", cfg).Allowed)
}

func TestContactFormConfig(t *testing.T) {
	cfg := ContactFormConfig()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Window)
	assert.Equal(t, 30*time.Minute, cfg.Block)
}

// memStore is an in-memory Store for exercising the persistent limiter.
type memStore struct {
	mu   sync.Mutex
	rows map[string]*models.RateLimitAttempt
	fail bool
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]*models.RateLimitAttempt)}
}

func (s *memStore) Get(_ context.Context, identifier, action string) (*models.RateLimitAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("store down")
	}
	row, ok := s.rows[identifier+"|"+action]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (s *memStore) Save(_ context.Context, attempt *models.RateLimitAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store down")
	}
	copied := *attempt
	s.rows[attempt.Identifier+"|"+attempt.ActionType] = &copied
	return nil
}

func TestLimiterPersistsStateBetweenChecks(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore()
	cfg := ContactFormConfig()
	ctx := context.Background()

	l := NewLimiter(store, clock.Now, logrus.New())
	for i := 0; i < cfg.MaxAttempts; i++ {
		assert.True(t, l.Check(ctx, "10.0.0.1", "contact_form", cfg).Allowed)
	}

	// A new limiter over the same store sees the exhausted window.
	l2 := NewLimiter(store, clock.Now, logrus.New())
	res := l2.Check(ctx, "10.0.0.1", "contact_form", cfg)
	assert.False(t, res.Allowed)
	assert.Equal(t, cfg.Block, res.RetryAfter)

	// Different identifier is unaffected.
	assert.True(t, l2.Check(ctx, "10.0.0.2", "contact_form", cfg).Allowed)
}

func TestLimiterBlockSurvivesRestart(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore()
	cfg := ContactFormConfig()
	ctx := context.Background()

	l := NewLimiter(store, clock.Now, logrus.New())
	for i := 0; i <= cfg.MaxAttempts; i++ {
		l.Check(ctx, "10.0.0.1", "contact_form", cfg)
	}

	clock.Advance(5 * time.Minute)
	res := NewLimiter(store, clock.Now, logrus.New()).Check(ctx, "10.0.0.1", "contact_form", cfg)
	assert.False(t, res.Allowed)
	assert.Equal(t, 25*time.Minute, res.RetryAfter)

	clock.Advance(26 * time.Minute)
	res = NewLimiter(store, clock.Now, logrus.New()).Check(ctx, "10.0.0.1", "contact_form", cfg)
	assert.True(t, res.Allowed)
}

func TestLimiterFailsOpenOnStoreErrors(t *testing.T) {
	clock := newFakeClock()
	store := newMemStore()
	store.fail = true

	l := NewLimiter(store, clock.Now, logrus.New())
	res := l.Check(context.Background(), "10.0.0.1", "contact_form", ContactFormConfig())
	assert.True(t, res.Allowed)
}
