package fixtures

import (
	"math/rand"
	"testing"
	"time"

	"produce-auction/internal/ledger"
	"produce-auction/internal/models"
	"produce-auction/internal/validator"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBidHistory_PassesValidation(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	start := decimal.RequireFromString("1.50")
	inc := decimal.RequireFromString("0.25")

	a := models.Auction{
		AuctionID:    "a1",
		StartPrice:   start,
		CurrentPrice: start,
		StartTime:    now.Add(-24 * time.Hour),
		EndTime:      now.Add(24 * time.Hour),
		Status:       models.StatusActive,
	}
	l, err := ledger.New(a)
	require.NoError(t, err)

	bids := BidHistory(rand.New(rand.NewSource(42)), "a1", start, inc, decimal.RequireFromString("0.40"), 12, now)
	require.Len(t, bids, 12)
	require.Equal(t, now, bids[len(bids)-1].CreatedAt)

	policy := validator.Policy{MinimumIncrement: inc, AllowSelfOutbid: true}
	for _, b := range bids {
		cand := validator.Candidate{BidderID: b.BidderID, Amount: b.Amount}
		require.NoError(t, validator.ValidateBid(cand, validator.SnapshotOf(l.Auction()), policy, b.CreatedAt))
		_, err := l.ApplyBid(b)
		require.NoError(t, err)
	}
	require.Equal(t, 12, l.Auction().BidCount)
}

func TestBidHistory_Deterministic(t *testing.T) {
	now := time.Now().UTC()
	gen := func() []models.Bid {
		return BidHistory(rand.New(rand.NewSource(7)), "a", decimal.NewFromInt(1), decimal.RequireFromString("0.25"), decimal.RequireFromString("0.5"), 5, now)
	}
	require.Equal(t, gen(), gen())
}

func TestProducts(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range Products() {
		require.False(t, seen[p.ProductID])
		seen[p.ProductID] = true
		require.NotEmpty(t, p.Category)
	}
}
