package redis

import (
	"context"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// luaReleaseIfOwner deletes the lock only while it still holds our token, so
// a holder whose lease expired cannot release the next holder's lock.
const luaReleaseIfOwner = `
local lockKey = KEYS[1]
local token = ARGV[1]
if redis.call('GET', lockKey) == token then
  return redis.call('DEL', lockKey)
end
return 0
`

// Scripter is the subset of the go-redis client the auction lock needs.
type Scripter interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *rd.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *rd.Cmd
}

// ReleaseAuctionLockIfOwner releases the auction lock held under token.
// It reports whether the lock was still ours.
func ReleaseAuctionLockIfOwner(ctx context.Context, rdb Scripter, auctionID, token string) (bool, error) {
	n, err := rdb.Eval(ctx, luaReleaseIfOwner, []string{AuctionLockKey(auctionID)}, token).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
