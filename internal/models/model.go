package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an auction
type Status string

const (
	StatusScheduled     Status = "scheduled"
	StatusActive        Status = "active"
	StatusCompleted     Status = "completed"
	StatusReserveNotMet Status = "reserve_not_met"
	StatusUnsold        Status = "unsold"
	StatusCancelled     Status = "cancelled"
)

// IsTerminal reports whether no further transition can leave this status
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusReserveNotMet, StatusUnsold, StatusCancelled:
		return true
	default:
		return false
	}
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusActive, StatusCompleted, StatusReserveNotMet, StatusUnsold, StatusCancelled:
		return true
	default:
		return false
	}
}

// Product represents a catalog listing owned by a farmer
type Product struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	FarmerID  string `json:"farmer_id"`
	Unit      string `json:"unit"`
	Stock     int    `json:"stock"`
}

// Auction represents a time-boxed sale of one product
type Auction struct {
	AuctionID       string              `json:"auction_id"`
	ProductID       string              `json:"product_id"`
	Category        string              `json:"category"`
	SellerID        string              `json:"seller_id"`
	StartPrice      decimal.Decimal     `json:"start_price"`
	CurrentPrice    decimal.Decimal     `json:"current_price"`
	ReservePrice    decimal.NullDecimal `json:"reserve_price"`
	MinIncrement    decimal.NullDecimal `json:"min_increment"`
	StartTime       time.Time           `json:"start_time"`
	EndTime         time.Time           `json:"end_time"`
	BidCount        int                 `json:"bid_count"`
	HighestBidderID string              `json:"highest_bidder_id,omitempty"`
	Status          Status              `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// HasReserve reports whether the seller set a reserve price
func (a Auction) HasReserve() bool {
	return a.ReservePrice.Valid
}

// ReserveMet reports whether the current price satisfies the reserve.
// Auctions without a reserve always meet it.
func (a Auction) ReserveMet() bool {
	if !a.ReservePrice.Valid {
		return true
	}
	return a.CurrentPrice.GreaterThanOrEqual(a.ReservePrice.Decimal)
}

// Bid represents a bidder's accepted offer on an auction
type Bid struct {
	BidID     string          `json:"bid_id"`
	AuctionID string          `json:"auction_id"`
	BidderID  string          `json:"bidder_id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}
