package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/zap"
)

const keyReconcileLock = "storefront:reconcile:%s"

// ReconcileLock serializes webhook deliveries for the same invoice across replicas.
// Reconciliation stays correct without it; a failed or busy lock only logs.
type ReconcileLock struct {
	locker *Locker
	ttl    time.Duration
	wait   time.Duration
	log    *zap.Logger
}

func NewReconcileLock(cfg config.Config, client redis.UniversalClient, log *zap.Logger) *ReconcileLock {
	if client == nil {
		return nil
	}
	ttl := cfg.RateLimit.ReconcileLockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ReconcileLock{
		locker: NewLocker(client),
		ttl:    ttl,
		wait:   cfg.RateLimit.ReconcileLockWait,
		log:    log.Named("ratelimit.reconcile"),
	}
}

// Lock returns a release func that is always safe to call.
func (l *ReconcileLock) Lock(ctx context.Context, key string) func() {
	noop := func() {}
	if l == nil || key == "" {
		return noop
	}

	lockKey := fmt.Sprintf(keyReconcileLock, key)
	token, err := l.locker.Acquire(ctx, lockKey, l.ttl, l.wait)
	if err != nil {
		if errors.Is(err, ErrLockBusy) {
			l.log.Warn("reconcile lock busy, continuing unlocked", zap.String("key", key))
		} else {
			l.log.Warn("reconcile lock unavailable", zap.String("key", key), zap.Error(err))
		}
		return noop
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := l.locker.Release(releaseCtx, lockKey, token); err != nil {
			l.log.Warn("reconcile lock release failed", zap.String("key", key), zap.Error(err))
		}
	}
}
