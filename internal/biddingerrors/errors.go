package biddingerrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrProductNotFound = errors.New("product not found")
	ErrAuctionExists   = errors.New("auction already exists")
)

// Validation rejections. Expected and recoverable; surfaced to the bidder.
var (
	ErrAuctionNotActive  = errors.New("auction is not active")
	ErrAuctionEnded      = errors.New("auction has ended")
	ErrBidTooLow         = errors.New("bid amount too low")
	ErrBidBelowIncrement = errors.New("bid below minimum increment")
	ErrSelfOutbid        = errors.New("bidder already holds the highest bid")
)

// business logic errors
var (
	ErrInvalidBid     = errors.New("invalid bid")
	ErrInvalidAuction = errors.New("invalid auction")
	ErrNotSeller      = errors.New("only the seller may modify this auction")
	ErrInvalidQuery   = errors.New("invalid auction query")
)

// Programming errors. A caller skipped validation or raced past the per-auction lock.
var (
	ErrInvariantViolation = errors.New("ledger invariant violation")
	ErrIllegalTransition  = errors.New("illegal lifecycle transition")
)

// Reason identifies why a candidate bid was rejected
type Reason string

const (
	ReasonAuctionNotActive  Reason = "AuctionNotActive"
	ReasonAuctionEnded      Reason = "AuctionEnded"
	ReasonBidTooLow         Reason = "BidTooLow"
	ReasonBidBelowIncrement Reason = "BidBelowIncrement"
	ReasonSelfOutbid        Reason = "SelfOutbid"
)

var reasonErrors = map[Reason]error{
	ReasonAuctionNotActive:  ErrAuctionNotActive,
	ReasonAuctionEnded:      ErrAuctionEnded,
	ReasonBidTooLow:         ErrBidTooLow,
	ReasonBidBelowIncrement: ErrBidBelowIncrement,
	ReasonSelfOutbid:        ErrSelfOutbid,
}

// RejectionError is returned for a bid that failed validation. It carries the
// smallest amount that would have been accepted so clients can retry.
type RejectionError struct {
	Reason        Reason
	MinAcceptable decimal.Decimal
}

// NewRejection builds a RejectionError for reason
func NewRejection(reason Reason, minAcceptable decimal.Decimal) *RejectionError {
	return &RejectionError{Reason: reason, MinAcceptable: minAcceptable}
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: minimum acceptable bid is %s", e.Unwrap(), e.MinAcceptable.StringFixed(2))
}

// Unwrap exposes the sentinel for errors.Is matching
func (e *RejectionError) Unwrap() error {
	if err, ok := reasonErrors[e.Reason]; ok {
		return err
	}
	return ErrInvalidBid
}

// IsRejection reports whether err is an expected validation rejection
func IsRejection(err error) bool {
	var rej *RejectionError
	return errors.As(err, &rej)
}
