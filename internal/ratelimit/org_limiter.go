package ratelimit

import (
	"context"
	"errors"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/atelier/internal/config"
)

const orgKeyPrefix = "atelier:ratelimit:org:"

// OrgLimiter applies one token bucket per organization to API traffic. A nil
// *OrgLimiter allows everything.
type OrgLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

// NewOrgLimiter returns nil when rate limiting is disabled.
func NewOrgLimiter(cfg config.Config, client *redis.Client) (*OrgLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("rate limiting requires REDIS_ADDR")
	}
	if limitCfg.OrgRate <= 0 || limitCfg.OrgBurst <= 0 {
		return nil, errors.New("rate limit org rate and burst must be positive")
	}

	return &OrgLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.OrgRate,
		burst:  limitCfg.OrgBurst,
	}, nil
}

func (l *OrgLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// AllowOrg consumes one token from the organization's bucket.
func (l *OrgLimiter) AllowOrg(ctx context.Context, orgID string) (Decision, error) {
	if !l.Enabled() {
		return Decision{Allowed: true}, nil
	}
	return l.bucket.Take(ctx, orgKeyPrefix+strings.TrimSpace(orgID), l.rate, l.burst)
}
