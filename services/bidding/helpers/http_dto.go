package helpers

import (
	"time"

	"produce-auction/internal/clock"
	"produce-auction/internal/models"
)

// Request/Response DTOs
type PlaceBidRequest struct {
	AuctionID string  `json:"auction_id" binding:"required"`
	BidderID  string  `json:"bidder_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

type CreateAuctionRequest struct {
	ProductID    string   `json:"product_id" binding:"required"`
	SellerID     string   `json:"seller_id" binding:"required"`
	StartPrice   float64  `json:"start_price" binding:"required,gt=0"`
	ReservePrice *float64 `json:"reserve_price,omitempty" binding:"omitempty,gt=0"`
	MinIncrement *float64 `json:"min_increment,omitempty" binding:"omitempty,gte=0"`
	StartTime    string   `json:"start_time,omitempty"` // RFC3339, defaults to now
	EndTime      string   `json:"end_time" binding:"required"`
}

type CancelAuctionRequest struct {
	SellerID string `json:"seller_id" binding:"required"`
}

type BidResponse struct {
	BidID     string  `json:"bid_id"`
	AuctionID string  `json:"auction_id"`
	BidderID  string  `json:"bidder_id"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"created_at"`
}

type AuctionResponse struct {
	AuctionID       string   `json:"auction_id"`
	ProductID       string   `json:"product_id"`
	Category        string   `json:"category"`
	SellerID        string   `json:"seller_id"`
	StartPrice      float64  `json:"start_price"`
	CurrentPrice    float64  `json:"current_price"`
	ReservePrice    *float64 `json:"reserve_price,omitempty"`
	ReserveMet      *bool    `json:"reserve_met,omitempty"`
	MinIncrement    *float64 `json:"min_increment,omitempty"`
	BidCount        int      `json:"bid_count"`
	HighestBidderID string   `json:"highest_bidder_id,omitempty"`
	Status          string   `json:"status"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	CreatedAt       string   `json:"created_at"`
}

type TimeRemainingResponse struct {
	AuctionID string              `json:"auction_id"`
	Status    string              `json:"status"`
	EndTime   string              `json:"end_time"`
	Remaining clock.TimeRemaining `json:"remaining"`
	Display   string              `json:"display"`
}

// NewBidResponse converts a bid for the wire
func NewBidResponse(bid models.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount.InexactFloat64(),
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewBidResponses converts a bid list, keeping order
func NewBidResponses(bids []models.Bid) []BidResponse {
	out := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewBidResponse(b))
	}
	return out
}

// NewAuctionResponse converts an auction for the wire
func NewAuctionResponse(a models.Auction) AuctionResponse {
	resp := AuctionResponse{
		AuctionID:       a.AuctionID,
		ProductID:       a.ProductID,
		Category:        a.Category,
		SellerID:        a.SellerID,
		StartPrice:      a.StartPrice.InexactFloat64(),
		CurrentPrice:    a.CurrentPrice.InexactFloat64(),
		BidCount:        a.BidCount,
		HighestBidderID: a.HighestBidderID,
		Status:          string(a.Status),
		StartTime:       a.StartTime.UTC().Format(time.RFC3339),
		EndTime:         a.EndTime.UTC().Format(time.RFC3339),
		CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.HasReserve() {
		reserve := a.ReservePrice.Decimal.InexactFloat64()
		met := a.ReserveMet()
		resp.ReservePrice = &reserve
		resp.ReserveMet = &met
	}
	if a.MinIncrement.Valid {
		inc := a.MinIncrement.Decimal.InexactFloat64()
		resp.MinIncrement = &inc
	}
	return resp
}

// NewAuctionResponses converts an auction list, keeping order
func NewAuctionResponses(auctions []models.Auction) []AuctionResponse {
	out := make([]AuctionResponse, 0, len(auctions))
	for _, a := range auctions {
		out = append(out, NewAuctionResponse(a))
	}
	return out
}

// NewTimeRemainingResponse pairs an auction with its countdown
func NewTimeRemainingResponse(a models.Auction, left clock.TimeRemaining) TimeRemainingResponse {
	return TimeRemainingResponse{
		AuctionID: a.AuctionID,
		Status:    string(a.Status),
		EndTime:   a.EndTime.UTC().Format(time.RFC3339),
		Remaining: left,
		Display:   left.String(),
	}
}
