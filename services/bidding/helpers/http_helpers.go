package helpers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"produce-auction/internal/biddingerrors"
	"produce-auction/internal/locker"
	"produce-auction/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrAuctionNotFound):
		return http.StatusNotFound, "auction not found"
	case errors.Is(err, biddingerrors.ErrProductNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, biddingerrors.ErrBidTooLow):
		return http.StatusConflict, "bid amount too low"
	case errors.Is(err, biddingerrors.ErrBidBelowIncrement):
		return http.StatusConflict, "bid below minimum increment"
	case errors.Is(err, biddingerrors.ErrSelfOutbid):
		return http.StatusConflict, "you already hold the highest bid"
	case errors.Is(err, biddingerrors.ErrAuctionEnded):
		return http.StatusConflict, "auction has ended"
	case errors.Is(err, biddingerrors.ErrAuctionNotActive):
		return http.StatusConflict, "auction is not accepting bids"
	case errors.Is(err, biddingerrors.ErrInvalidBid):
		return http.StatusBadRequest, "invalid bid details"
	case errors.Is(err, biddingerrors.ErrInvalidAuction):
		return http.StatusBadRequest, "invalid auction details"
	case errors.Is(err, biddingerrors.ErrInvalidQuery):
		return http.StatusBadRequest, "invalid query"
	case errors.Is(err, biddingerrors.ErrNotSeller):
		return http.StatusForbidden, "only the seller may do this"
	case errors.Is(err, biddingerrors.ErrIllegalTransition):
		return http.StatusConflict, "auction can no longer be changed"
	case errors.Is(err, biddingerrors.ErrAuctionExists):
		return http.StatusConflict, "auction already exists"
	case errors.Is(err, locker.ErrLockTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "auction is busy, retry shortly"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// RespondError writes err using MapErrorToHTTP. Bid rejections also carry the
// reason and the smallest amount that would be accepted.
func RespondError(c *gin.Context, err error) int {
	status, message := MapErrorToHTTP(err)

	var rej *biddingerrors.RejectionError
	if errors.As(err, &rej) {
		utils.JSONErrorWithDetails(c, status, fmt.Errorf("%s: %w", message, err), message, gin.H{
			"reason":         rej.Reason,
			"min_acceptable": rej.MinAcceptable.InexactFloat64(),
		})
		return status
	}

	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
	return status
}

// ParseTime reads an RFC3339 timestamp; empty yields the zero time
func ParseTime(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w - %s must be RFC3339: %v", biddingerrors.ErrInvalidAuction, field, err)
	}
	return t.UTC(), nil
}

// NullDecimal converts an optional JSON number
func NullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
