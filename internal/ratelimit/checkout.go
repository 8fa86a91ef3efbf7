package ratelimit

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/zap"
)

const keyCheckoutClient = "storefront:checkout:%s"

// CheckoutLimiter throttles order creation per client address.
type CheckoutLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

func NewCheckoutLimiter(cfg config.Config, client redis.UniversalClient, log *zap.Logger) *CheckoutLimiter {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled || client == nil {
		return nil
	}
	if limitCfg.CheckoutRate <= 0 || limitCfg.CheckoutBurst <= 0 {
		return nil
	}
	return &CheckoutLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.CheckoutRate,
		burst:  limitCfg.CheckoutBurst,
		log:    log.Named("ratelimit.checkout"),
	}
}

// Allow fails open when redis is unavailable.
func (l *CheckoutLimiter) Allow(ctx context.Context, clientKey string) *RateLimitResult {
	if l == nil || clientKey == "" {
		return &RateLimitResult{Allowed: true}
	}
	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyCheckoutClient, clientKey), l.rate, l.burst)
	if err != nil {
		l.log.Warn("checkout rate limit check failed", zap.Error(err))
		return &RateLimitResult{Allowed: true}
	}
	return res
}
