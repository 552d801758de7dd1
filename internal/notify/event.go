package notify

import (
	"fmt"
	"time"
)

//go:generate mockgen -destination=mock_notifier.go -package=notify produce-auction/internal/notify Notifier

// EventType names what happened to an auction
type EventType string

const (
	EventOutbid           EventType = "outbid"
	EventAuctionClosed    EventType = "auction_closed"
	EventAuctionCancelled EventType = "auction_cancelled"
)

// Event is a notice owed to one or more bidders
type Event struct {
	Type       EventType `json:"type"`
	AuctionID  string    `json:"auction_id"`
	ProductID  string    `json:"product_id"`
	Status     string    `json:"status"`
	Recipients []string  `json:"recipients"`
	Amount     string    `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Validate rejects events a consumer could not act on
func (e Event) Validate() error {
	switch e.Type {
	case EventOutbid, EventAuctionClosed, EventAuctionCancelled:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.AuctionID == "" {
		return fmt.Errorf("auction_id is required")
	}
	if e.Type == EventOutbid && len(e.Recipients) == 0 {
		return fmt.Errorf("outbid event needs a recipient")
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("occurred_at is required")
	}
	return nil
}
