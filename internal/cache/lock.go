package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	keyComputeLock = "dashboard:compute:%s"

	lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`
)

// ComputeLock serializes dashboard recomputation for one organization across
// replicas, so a cache miss triggers a single reference load.
type ComputeLock struct {
	client *redis.Client
	script *redis.Script
}

// NewComputeLock returns nil without Redis; a nil lock never blocks.
func NewComputeLock(client *redis.Client) *ComputeLock {
	if client == nil {
		return nil
	}
	return &ComputeLock{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

// TryLock returns the owner token and whether the lock was acquired.
func (l *ComputeLock) TryLock(ctx context.Context, orgID snowflake.ID, ttl time.Duration) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, errors.New("lock client not configured")
	}
	if orgID == 0 {
		return "", false, errors.New("lock organization is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, computeLockKey(orgID), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Release deletes the lock only if token still owns it.
func (l *ComputeLock) Release(ctx context.Context, orgID snowflake.ID, token string) error {
	if l == nil || l.client == nil {
		return nil
	}
	if orgID == 0 || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.client, []string{computeLockKey(orgID)}, token).Err()
}

func computeLockKey(orgID snowflake.ID) string {
	return fmt.Sprintf(keyComputeLock, orgID.String())
}
