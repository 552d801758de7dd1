// Package fixtures generates demo catalog and bid data. It is only used to
// seed a fresh store and in tests; nothing in the bidding path depends on it.
package fixtures

import (
	"fmt"
	"math/rand"
	"time"

	"produce-auction/internal/models"

	"github.com/shopspring/decimal"
)

// Products is the demo catalog
func Products() []models.Product {
	return []models.Product{
		{ProductID: "prod-tomatoes", Name: "Organic Heirloom Tomatoes", Category: "vegetables", FarmerID: "farmer-ravi", Unit: "kg", Stock: 50},
		{ProductID: "prod-mangoes", Name: "Alphonso Mangoes", Category: "fruits", FarmerID: "farmer-anita", Unit: "dozen", Stock: 30},
		{ProductID: "prod-saffron", Name: "Kashmiri Saffron", Category: "spices", FarmerID: "farmer-imran", Unit: "g", Stock: 100},
		{ProductID: "prod-rice", Name: "Basmati Rice", Category: "grains", FarmerID: "farmer-ravi", Unit: "kg", Stock: 200},
	}
}

// BidHistory generates count increasing bids starting above startPrice.
// Each step adds the increment plus a random amount below spread, rounded to
// cents, so every bid would pass validation against the previous one. Bids
// are spaced one hour apart, the last one at `last`.
func BidHistory(rng *rand.Rand, auctionID string, startPrice, increment, spread decimal.Decimal, count int, last time.Time) []models.Bid {
	bids := make([]models.Bid, 0, count)
	current := startPrice
	cents := spread.Mul(decimal.NewFromInt(100)).IntPart()

	for i := 0; i < count; i++ {
		step := increment
		if cents > 0 {
			step = step.Add(decimal.New(rng.Int63n(cents), -2))
		}
		if !step.IsPositive() {
			step = decimal.New(1, -2)
		}
		current = current.Add(step).Round(2)

		bids = append(bids, models.Bid{
			BidID:     fmt.Sprintf("%s-bid-%03d", auctionID, i),
			AuctionID: auctionID,
			BidderID:  fmt.Sprintf("user%d", rng.Intn(1000)),
			Amount:    current,
			CreatedAt: last.Add(-time.Duration(count-1-i) * time.Hour),
		})
	}
	return bids
}
