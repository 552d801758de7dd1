// Package ledger holds the authoritative state of a single auction and its
// append-only bid history. A Ledger is not safe for concurrent use; callers
// serialize access per auction id.
package ledger

import (
	"fmt"
	"time"

	"produce-auction/internal/biddingerrors"
	"produce-auction/internal/lifecycle"
	"produce-auction/internal/models"
)

// Ledger owns one auction record and the bids accepted against it
type Ledger struct {
	auction models.Auction
	bids    []models.Bid // oldest first
}

// New starts a ledger for an auction that has no bids yet
func New(a models.Auction) (*Ledger, error) {
	return Restore(a, nil)
}

// Restore rebuilds a ledger from persisted state, checking that the stored
// auction agrees with its bid history.
func Restore(a models.Auction, bids []models.Bid) (*Ledger, error) {
	if a.BidCount != len(bids) {
		return nil, fmt.Errorf("ledger: %w - auction %s bid count %d, history has %d",
			biddingerrors.ErrInvariantViolation, a.AuctionID, a.BidCount, len(bids))
	}
	if a.CurrentPrice.LessThan(a.StartPrice) {
		return nil, fmt.Errorf("ledger: %w - auction %s current price below start price",
			biddingerrors.ErrInvariantViolation, a.AuctionID)
	}

	if len(bids) == 0 {
		if !a.CurrentPrice.Equal(a.StartPrice) {
			return nil, fmt.Errorf("ledger: %w - auction %s has no bids but current price differs from start price",
				biddingerrors.ErrInvariantViolation, a.AuctionID)
		}
	} else {
		last := bids[len(bids)-1]
		if !a.CurrentPrice.Equal(last.Amount) || a.HighestBidderID != last.BidderID {
			return nil, fmt.Errorf("ledger: %w - auction %s does not match its latest bid %s",
				biddingerrors.ErrInvariantViolation, a.AuctionID, last.BidID)
		}
	}

	return &Ledger{
		auction: a,
		bids:    append([]models.Bid(nil), bids...),
	}, nil
}

// Auction returns a copy of the current auction state
func (l *Ledger) Auction() models.Auction {
	return l.auction
}

// ApplyBid records a bid that already passed validation. A bid against a
// non-active auction, for another auction, or not strictly above the current
// price is rejected with ErrInvariantViolation and leaves the ledger untouched.
func (l *Ledger) ApplyBid(bid models.Bid) (models.Auction, error) {
	if bid.AuctionID != l.auction.AuctionID {
		return l.auction, fmt.Errorf("ledger: %w - bid %s targets auction %s, ledger holds %s",
			biddingerrors.ErrInvariantViolation, bid.BidID, bid.AuctionID, l.auction.AuctionID)
	}
	if l.auction.Status != models.StatusActive {
		return l.auction, fmt.Errorf("ledger: %w - apply bid on auction %s in status %s",
			biddingerrors.ErrInvariantViolation, l.auction.AuctionID, l.auction.Status)
	}
	if !bid.Amount.GreaterThan(l.auction.CurrentPrice) {
		return l.auction, fmt.Errorf("ledger: %w - bid %s amount %s does not exceed current price %s",
			biddingerrors.ErrInvariantViolation, bid.BidID, bid.Amount, l.auction.CurrentPrice)
	}

	l.auction.CurrentPrice = bid.Amount
	l.auction.HighestBidderID = bid.BidderID
	l.auction.BidCount++
	l.auction.UpdatedAt = bid.CreatedAt
	l.bids = append(l.bids, bid)

	return l.auction, nil
}

// History returns every accepted bid, newest first
func (l *Ledger) History() []models.Bid {
	out := make([]models.Bid, len(l.bids))
	for i, b := range l.bids {
		out[len(l.bids)-1-i] = b
	}
	return out
}

// Bids returns every accepted bid in acceptance order
func (l *Ledger) Bids() []models.Bid {
	return append([]models.Bid(nil), l.bids...)
}

// BidderIDs lists each distinct bidder once, in order of first bid
func (l *Ledger) BidderIDs() []string {
	seen := make(map[string]struct{}, len(l.bids))
	ids := make([]string, 0, len(l.bids))
	for _, b := range l.bids {
		if _, ok := seen[b.BidderID]; ok {
			continue
		}
		seen[b.BidderID] = struct{}{}
		ids = append(ids, b.BidderID)
	}
	return ids
}

// Tick applies at most one due lifecycle transition
func (l *Ledger) Tick(now time.Time) bool {
	next, changed := lifecycle.Tick(l.auction, now)
	if changed {
		l.auction = next
	}
	return changed
}

// Cancel records the seller's cancellation
func (l *Ledger) Cancel(now time.Time) error {
	next, err := lifecycle.Cancel(l.auction, now)
	if err != nil {
		return err
	}
	l.auction = next
	return nil
}
