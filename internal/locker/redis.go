package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	rediskey "produce-auction/pkg/redis"
	"produce-auction/utils"
)

// ErrLockTimeout is returned when the lock could not be taken before ctx ended
var ErrLockTimeout = errors.New("timed out waiting for auction lock")

// RedisLocker is a Locker shared by every process pointed at the same redis.
// Each hold is a lease: if the holder dies the key expires after ttl.
type RedisLocker struct {
	rdb   rediskey.Scripter
	ttl   time.Duration
	retry time.Duration
}

// NewRedisLocker creates a RedisLocker with the given lease and retry interval
func NewRedisLocker(rdb rediskey.Scripter, ttl, retry time.Duration) *RedisLocker {
	if retry <= 0 {
		retry = 10 * time.Millisecond
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, retry: retry}
}

// Lock polls SET NX until the key is free or ctx is done
func (l *RedisLocker) Lock(ctx context.Context, auctionID string) (func(), error) {
	key := rediskey.AuctionLockKey(auctionID)
	token := utils.GenerateID()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("locker: acquire %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("locker: %w - %s: %v", ErrLockTimeout, auctionID, ctx.Err())
		case <-timer.C:
		}
	}

	return func() {
		// the caller's ctx may already be done; release on a fresh one
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		owned, err := rediskey.ReleaseAuctionLockIfOwner(releaseCtx, l.rdb, auctionID, token)
		if err != nil {
			utils.Warn("locker: failed to release auction lock", map[string]any{"auction_id": auctionID, "error": err.Error()})
			return
		}
		if !owned {
			utils.Warn("locker: auction lock lease expired before release", map[string]any{"auction_id": auctionID})
		}
	}, nil
}
