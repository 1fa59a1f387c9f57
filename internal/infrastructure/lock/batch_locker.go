// Package lock provides cross-process locks backed by Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/genlab/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	batchKeyPrefix  = "ledger:batch:"
	defaultLockTTL  = 30 * time.Second
	defaultRetries  = 10
	defaultInterval = 100 * time.Millisecond
)

// RedisBatchLocker holds a redislock on a production batch while it is compensated,
// so two API instances never plan the same batch at once
type RedisBatchLocker struct {
	client   *redislock.Client
	ttl      time.Duration
	retries  int
	interval time.Duration
	logger   *zap.Logger
}

// Option configures a RedisBatchLocker
type Option func(*RedisBatchLocker)

// WithTTL sets how long a lock survives if its holder dies
func WithTTL(ttl time.Duration) Option {
	return func(l *RedisBatchLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithRetry sets how many times and how often Obtain is retried
func WithRetry(retries int, interval time.Duration) Option {
	return func(l *RedisBatchLocker) {
		l.retries = retries
		l.interval = interval
	}
}

// NewRedisBatchLocker creates a locker on a shared Redis client
func NewRedisBatchLocker(client redis.UniversalClient, logger *zap.Logger, opts ...Option) *RedisBatchLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &RedisBatchLocker{
		client:   redislock.New(client),
		ttl:      defaultLockTTL,
		retries:  defaultRetries,
		interval: defaultInterval,
		logger:   logger.Named("lock"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LockBatch obtains the batch lock. A lock held by someone else after all
// retries is reported as CONFLICT.
func (l *RedisBatchLocker) LockBatch(ctx context.Context, batchID uuid.UUID) (func(), error) {
	key := batchKeyPrefix + batchID.String()

	var strategy redislock.RetryStrategy = redislock.NoRetry()
	if l.retries > 0 {
		strategy = redislock.LimitRetry(redislock.LinearBackoff(l.interval), l.retries)
	}

	lk, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{RetryStrategy: strategy})
	if errors.Is(err, redislock.ErrNotObtained) {
		l.logger.Warn("production batch is locked by another process", zap.String("batch_id", batchID.String()))
		return nil, shared.NewDomainError(shared.CodeConflict, "production batch is being modified, try again").
			WithDetail("batch_id", batchID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("obtain batch lock: %w", err)
	}

	return func() {
		// The caller's context may already be cancelled when the batch is done.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := lk.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release batch lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
