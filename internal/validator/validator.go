package validator

import (
	"fmt"
	"time"

	"produce-auction/internal/biddingerrors"
	"produce-auction/internal/models"

	"github.com/shopspring/decimal"
)

// DefaultMinimumIncrement is used when neither the auction nor its category sets one
var DefaultMinimumIncrement = decimal.RequireFromString("0.25")

// Candidate is a bid that has not yet been accepted
type Candidate struct {
	BidderID string
	Amount   decimal.Decimal
}

// Snapshot is the auction state a candidate is judged against
type Snapshot struct {
	CurrentPrice    decimal.Decimal
	Status          models.Status
	EndTime         time.Time
	HighestBidderID string
}

// SnapshotOf captures the fields of an auction the validator needs
func SnapshotOf(a models.Auction) Snapshot {
	return Snapshot{
		CurrentPrice:    a.CurrentPrice,
		Status:          a.Status,
		EndTime:         a.EndTime,
		HighestBidderID: a.HighestBidderID,
	}
}

// Policy holds the tunable bidding rules for an auction
type Policy struct {
	MinimumIncrement decimal.Decimal
	AllowSelfOutbid  bool
}

// DefaultPolicy returns the marketplace-wide defaults
func DefaultPolicy() Policy {
	return Policy{
		MinimumIncrement: DefaultMinimumIncrement,
		AllowSelfOutbid:  true,
	}
}

// Resolve picks the increment for a: the auction's own override first, then
// its category, then the base policy.
func (p Policy) Resolve(a models.Auction, categoryIncrements map[string]decimal.Decimal) Policy {
	resolved := p
	if a.MinIncrement.Valid {
		resolved.MinimumIncrement = a.MinIncrement.Decimal
		return resolved
	}
	if inc, ok := categoryIncrements[a.Category]; ok {
		resolved.MinimumIncrement = inc
	}
	return resolved
}

// MinAcceptable is the smallest amount the policy accepts over currentPrice
func (p Policy) MinAcceptable(currentPrice decimal.Decimal) decimal.Decimal {
	return currentPrice.Add(p.MinimumIncrement)
}

// ValidateBid decides whether candidate may be accepted against snapshot at now.
// Returns nil on acceptance, a *biddingerrors.RejectionError for rule failures
// and ErrInvalidBid for malformed input.
func ValidateBid(candidate Candidate, snapshot Snapshot, policy Policy, now time.Time) error {
	if candidate.BidderID == "" {
		return fmt.Errorf("validator: %w - missing bidder id", biddingerrors.ErrInvalidBid)
	}
	if !candidate.Amount.IsPositive() {
		return fmt.Errorf("validator: %w - non-positive bid amount", biddingerrors.ErrInvalidBid)
	}
	if policy.MinimumIncrement.IsNegative() {
		return fmt.Errorf("validator: %w - negative minimum increment", biddingerrors.ErrInvalidBid)
	}

	minAcceptable := policy.MinAcceptable(snapshot.CurrentPrice)

	switch {
	case !now.Before(snapshot.EndTime):
		return biddingerrors.NewRejection(biddingerrors.ReasonAuctionEnded, minAcceptable)
	case snapshot.Status != models.StatusActive:
		return biddingerrors.NewRejection(biddingerrors.ReasonAuctionNotActive, minAcceptable)
	case !candidate.Amount.GreaterThan(snapshot.CurrentPrice):
		return biddingerrors.NewRejection(biddingerrors.ReasonBidTooLow, minAcceptable)
	case candidate.Amount.LessThan(minAcceptable):
		return biddingerrors.NewRejection(biddingerrors.ReasonBidBelowIncrement, minAcceptable)
	case !policy.AllowSelfOutbid && candidate.BidderID == snapshot.HighestBidderID:
		return biddingerrors.NewRejection(biddingerrors.ReasonSelfOutbid, minAcceptable)
	}

	return nil
}
