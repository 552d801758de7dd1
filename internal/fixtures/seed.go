package fixtures

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"produce-auction/internal/ledger"
	"produce-auction/internal/models"
	"produce-auction/internal/repository"
	"produce-auction/utils"

	"github.com/shopspring/decimal"
)

// demoAuction describes one seeded auction relative to the seed time
type demoAuction struct {
	productID  string
	startPrice string
	reserve    string
	endsIn     time.Duration // negative means already past its end
	bids       int
}

var demoAuctions = []demoAuction{
	{productID: "prod-tomatoes", startPrice: "1.50", endsIn: 6 * time.Hour, bids: 4},
	{productID: "prod-mangoes", startPrice: "8.00", reserve: "15.00", endsIn: 26 * time.Hour, bids: 3},
	{productID: "prod-saffron", startPrice: "12.00", endsIn: 3 * 24 * time.Hour, bids: 0},
	{productID: "prod-rice", startPrice: "2.00", reserve: "2.50", endsIn: -time.Hour, bids: 5},
}

// Seed writes the demo auctions and their bid histories through the ledger,
// so stored state satisfies the same checks live bids do. Products must
// already be in the catalog. Returns the ids of the created auctions.
func Seed(ctx context.Context, repo repository.AuctionDB, catalog repository.Catalog, rng *rand.Rand, now time.Time) ([]string, error) {
	ids := make([]string, 0, len(demoAuctions))

	for i, d := range demoAuctions {
		product, err := catalog.GetProduct(ctx, d.productID)
		if err != nil {
			return ids, fmt.Errorf("seed: %w", err)
		}

		start := now.Add(-48 * time.Hour)
		auction := models.Auction{
			AuctionID:    utils.GenerateID(),
			ProductID:    product.ProductID,
			Category:     product.Category,
			SellerID:     product.FarmerID,
			StartPrice:   decimal.RequireFromString(d.startPrice),
			CurrentPrice: decimal.RequireFromString(d.startPrice),
			StartTime:    start,
			EndTime:      now.Add(d.endsIn),
			Status:       models.StatusActive,
			CreatedAt:    start.Add(time.Duration(i) * time.Minute),
			UpdatedAt:    start,
		}
		if d.reserve != "" {
			auction.ReservePrice = decimal.NewNullDecimal(decimal.RequireFromString(d.reserve))
		}

		l, err := ledger.New(auction)
		if err != nil {
			return ids, fmt.Errorf("seed: %w", err)
		}
		if err := repo.CreateAuction(ctx, auction); err != nil {
			return ids, fmt.Errorf("seed: %w", err)
		}

		last := now.Add(-10 * time.Minute)
		if auction.EndTime.Before(now) {
			last = auction.EndTime.Add(-10 * time.Minute)
		}
		spread := auction.StartPrice.Div(decimal.NewFromInt(4))
		for _, bid := range BidHistory(rng, auction.AuctionID, auction.StartPrice, decimal.RequireFromString("0.25"), spread, d.bids, last) {
			updated, err := l.ApplyBid(bid)
			if err != nil {
				return ids, fmt.Errorf("seed: %w", err)
			}
			if err := repo.RecordBid(ctx, updated, bid); err != nil {
				return ids, fmt.Errorf("seed: %w", err)
			}
		}

		ids = append(ids, auction.AuctionID)
	}

	return ids, nil
}
