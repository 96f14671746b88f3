package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hrldev/portal-service/internal/models"
)

// Store persists limiter state keyed by (identifier, action). Implementations
// must tolerate concurrent callers; last write wins is acceptable because the
// row is advisory until blocked_until is set.
type Store interface {
	Get(ctx context.Context, identifier, action string) (*models.RateLimitAttempt, error)
	Save(ctx context.Context, attempt *models.RateLimitAttempt) error
}

// Limiter is the authoritative server-side limiter, evaluated before any
// side effect of a protected action. Store failures fail open: an abusive
// client is preferable to locking out everyone when the backend blips.
type Limiter struct {
	store  Store
	clock  Clock
	logger *logrus.Logger
}

// NewLimiter builds a persistent limiter. Pass a nil clock for wall time.
func NewLimiter(store Store, clock Clock, logger *logrus.Logger) *Limiter {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Limiter{store: store, clock: clock, logger: logger}
}

// Check records one attempt for (identifier, action) and reports whether the
// action is allowed under cfg.
func (l *Limiter) Check(ctx context.Context, identifier, action string, cfg Config) Result {
	now := l.clock()

	row, err := l.store.Get(ctx, identifier, action)
	if err != nil {
		l.logger.WithError(err).WithFields(logrus.Fields{
			"identifier": identifier,
			"action":     action,
		}).Warn("Rate limit store read failed, failing open")
		return Result{Allowed: true, Remaining: cfg.MaxAttempts - 1}
	}

	e := entry{}
	if row != nil {
		e.count = row.AttemptCount
		e.firstAttempt = row.FirstAttemptAt
		if row.BlockedUntil != nil {
			e.blockedUntil = *row.BlockedUntil
		}
	}

	res := step(&e, now, cfg)

	updated := &models.RateLimitAttempt{
		Identifier:     identifier,
		ActionType:     action,
		AttemptCount:   e.count,
		FirstAttemptAt: e.firstAttempt,
		LastAttemptAt:  now,
	}
	if row != nil {
		updated.ID = row.ID
	}
	if !e.blockedUntil.IsZero() {
		until := e.blockedUntil
		updated.BlockedUntil = &until
	}
	if err := l.store.Save(ctx, updated); err != nil {
		l.logger.WithError(err).WithFields(logrus.Fields{
			"identifier": identifier,
			"action":     action,
		}).Warn("Rate limit store write failed")
	}

	return res
}

// GormStore keeps one rate_limit_attempts row per (identifier, action).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, identifier, action string) (*models.RateLimitAttempt, error) {
	var row models.RateLimitAttempt
	err := s.db.WithContext(ctx).
		Where("identifier = ? AND action_type = ?", identifier, action).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load rate limit row: %w", err)
	}
	return &row, nil
}

func (s *GormStore) Save(ctx context.Context, attempt *models.RateLimitAttempt) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "identifier"}, {Name: "action_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"attempt_count", "first_attempt_at", "last_attempt_at", "blocked_until",
		}),
	}).Create(attempt).Error
	if err != nil {
		return fmt.Errorf("save rate limit row: %w", err)
	}
	return nil
}

// PurgeStale deletes rows whose window and block both elapsed before cutoff.
// Called from the nightly cleanup job.
func (s *GormStore) PurgeStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("last_attempt_at < ? AND (blocked_until IS NULL OR blocked_until < ?)", cutoff, cutoff).
		Delete(&models.RateLimitAttempt{})
	return res.RowsAffected, res.Error
}

// RedisStore keeps limiter state as JSON values with a TTL, in the same shape
// the database store uses. Useful in front of the database for hot actions.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "portal:ratelimit:"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(identifier, action string) string {
	return s.prefix + action + ":" + identifier
}

func (s *RedisStore) Get(ctx context.Context, identifier, action string) (*models.RateLimitAttempt, error) {
	data, err := s.client.Get(ctx, s.key(identifier, action)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var row models.RateLimitAttempt
	if err := json.Unmarshal([]byte(data), &row); err != nil {
		return nil, fmt.Errorf("decode rate limit state: %w", err)
	}
	return &row, nil
}

func (s *RedisStore) Save(ctx context.Context, attempt *models.RateLimitAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	ttl := s.ttl
	if attempt.BlockedUntil != nil {
		if remaining := time.Until(*attempt.BlockedUntil); remaining > ttl {
			ttl = remaining + time.Minute
		}
	}
	if err := s.client.Set(ctx, s.key(attempt.Identifier, attempt.ActionType), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
