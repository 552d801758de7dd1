package redis

import "fmt"

// AuctionLockKey is the key guarding bid acceptance for one auction.
func AuctionLockKey(auctionID string) string {
	return fmt.Sprintf("produce_auction:lock:auction:%s", auctionID)
}
