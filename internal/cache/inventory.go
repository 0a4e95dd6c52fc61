package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%d"
	ThoughtKeyPrefix = "thought:%d"
)

const (
	UserTTL    = 5 * time.Minute
	ThoughtTTL = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ThoughtKey(thoughtID uint) string {
	return fmt.Sprintf(ThoughtKeyPrefix, thoughtID)
}

// GetBytes fetches a cached payload. A miss, an error, or a nil client all
// report false.
func GetBytes(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetBytes stores a payload with the given TTL. Failures are ignored: the
// cache is an optimization, not a source of truth.
func SetBytes(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if client != nil {
		client.Set(ctx, key, val, ttl)
	}
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateThought(ctx context.Context, thoughtID uint) {
	Invalidate(ctx, ThoughtKey(thoughtID))
}
