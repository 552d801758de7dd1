package lifecycle

import (
	"fmt"
	"time"

	"produce-auction/internal/biddingerrors"
	"produce-auction/internal/models"
)

// legal lists every permitted status change; anything absent is rejected
var legal = map[models.Status][]models.Status{
	models.StatusScheduled: {models.StatusActive, models.StatusReserveNotMet, models.StatusUnsold, models.StatusCancelled},
	models.StatusActive:    {models.StatusCompleted, models.StatusReserveNotMet, models.StatusUnsold, models.StatusCancelled},
}

// CanTransition reports whether from -> to is a legal edge
func CanTransition(from, to models.Status) bool {
	for _, s := range legal[from] {
		if s == to {
			return true
		}
	}
	return false
}

// InitialStatus is the status a new auction starts in
func InitialStatus(startTime, now time.Time) models.Status {
	if now.Before(startTime) {
		return models.StatusScheduled
	}
	return models.StatusActive
}

// Due returns the status a should move to at now, if any. A scheduled
// auction whose end time has already passed closes without activating.
func Due(a models.Auction, now time.Time) (models.Status, bool) {
	switch a.Status {
	case models.StatusScheduled:
		if !now.Before(a.EndTime) {
			return closingStatus(a), true
		}
		if !now.Before(a.StartTime) {
			return models.StatusActive, true
		}
	case models.StatusActive:
		if !now.Before(a.EndTime) {
			return closingStatus(a), true
		}
	}
	return "", false
}

func closingStatus(a models.Auction) models.Status {
	switch {
	case !a.ReserveMet():
		return models.StatusReserveNotMet
	case a.BidCount == 0:
		return models.StatusUnsold
	default:
		return models.StatusCompleted
	}
}

// Tick applies at most one due transition and reports whether one fired.
// A second call with the same now never fires again.
func Tick(a models.Auction, now time.Time) (models.Auction, bool) {
	next, ok := Due(a, now)
	if !ok {
		return a, false
	}
	a.Status = next
	a.UpdatedAt = now
	return a, true
}

// Cancel moves a to cancelled on the seller's request. Only scheduled or
// active auctions that have not reached their end time can be cancelled.
func Cancel(a models.Auction, now time.Time) (models.Auction, error) {
	if !CanTransition(a.Status, models.StatusCancelled) {
		return a, fmt.Errorf("lifecycle: %w - cannot cancel auction in status %s", biddingerrors.ErrIllegalTransition, a.Status)
	}
	if !now.Before(a.EndTime) {
		return a, fmt.Errorf("lifecycle: %w - auction %s already reached its end time", biddingerrors.ErrIllegalTransition, a.AuctionID)
	}
	a.Status = models.StatusCancelled
	a.UpdatedAt = now
	return a, nil
}
