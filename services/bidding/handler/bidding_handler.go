package handler

import (
	"context"
	"net/http"

	bidding "produce-auction/internal/biddingService"
	"produce-auction/internal/biddingerrors"
	"produce-auction/internal/clock"
	"produce-auction/internal/models"
	"produce-auction/services/bidding/helpers"
	"produce-auction/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -destination=mock_bidding_service.go -package=handler produce-auction/services/bidding/handler BiddingServiceInterface

type BiddingServiceInterface interface {
	CreateAuction(ctx context.Context, in bidding.CreateAuctionInput) (models.Auction, error)
	PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (models.Bid, error)
	GetAuction(ctx context.Context, auctionID string) (models.Auction, error)
	GetBidHistory(ctx context.Context, auctionID string) ([]models.Bid, error)
	GetTimeRemaining(ctx context.Context, auctionID string) (models.Auction, clock.TimeRemaining, error)
	CancelAuction(ctx context.Context, auctionID, sellerID string) (models.Auction, error)
	ListAuctions(ctx context.Context, filter bidding.ListFilter) ([]models.Auction, error)
	GetAuctionsByBidder(ctx context.Context, bidderID string) ([]models.Auction, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// fail writes err and logs it. Bid rejections are expected and logged at info.
func fail(c *gin.Context, handlerName, message string, err error, fields map[string]any) {
	status := helpers.RespondError(c, err)

	fields["handler"] = handlerName
	fields["status"] = status
	fields["error"] = err.Error()

	switch {
	case biddingerrors.IsRejection(err):
		utils.Info(handlerName+": bid rejected", fields)
	case status >= http.StatusInternalServerError:
		utils.Error(handlerName+": "+message, fields)
	default:
		utils.Warn(handlerName+": "+message, fields)
	}
}

// CreateAuctionHandler handles POST /auctions
func (h *BiddingHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	start, err := helpers.ParseTime("start_time", req.StartTime)
	if err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}
	end, err := helpers.ParseTime("end_time", req.EndTime)
	if err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	auction, err := h.service.CreateAuction(c.Request.Context(), bidding.CreateAuctionInput{
		ProductID:    req.ProductID,
		SellerID:     req.SellerID,
		StartPrice:   decimal.NewFromFloat(req.StartPrice),
		ReservePrice: helpers.NullDecimal(req.ReservePrice),
		MinIncrement: helpers.NullDecimal(req.MinIncrement),
		StartTime:    start,
		EndTime:      end,
	})
	if err != nil {
		fail(c, "CreateAuctionHandler", "failed to create auction", err, map[string]any{
			"product_id": req.ProductID,
			"seller_id":  req.SellerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(auction), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.AuctionID,
		"product_id": auction.ProductID,
		"status":     auction.Status,
	})
}

// ListAuctionsHandler handles GET /auctions?status=&seller_id=&sort=
func (h *BiddingHandler) ListAuctionsHandler(c *gin.Context) {
	filter := bidding.ListFilter{
		Status:   models.Status(c.Query("status")),
		SellerID: c.Query("seller_id"),
		Sort:     c.Query("sort"),
	}

	auctions, err := h.service.ListAuctions(c.Request.Context(), filter)
	if err != nil {
		fail(c, "ListAuctionsHandler", "error listing auctions", err, map[string]any{
			"status_filter": filter.Status,
			"seller_id":     filter.SellerID,
			"sort":          filter.Sort,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponses(auctions), "auctions retrieved successfully")
	helpers.LogSuccess("ListAuctionsHandler", "auctions retrieved successfully", map[string]any{
		"count": len(auctions),
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *BiddingHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		fail(c, "GetAuctionHandler", "error retrieving auction", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(auction), "auction retrieved successfully")
}

// GetTimeRemainingHandler handles GET /auctions/:auction_id/time-left
func (h *BiddingHandler) GetTimeRemainingHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, left, err := h.service.GetTimeRemaining(c.Request.Context(), auctionID)
	if err != nil {
		fail(c, "GetTimeRemainingHandler", "error computing time remaining", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewTimeRemainingResponse(auction, left), "time remaining retrieved successfully")
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *BiddingHandler) CancelAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")

	var req helpers.CancelAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CancelAuctionHandler", err)
		return
	}

	auction, err := h.service.CancelAuction(c.Request.Context(), auctionID, req.SellerID)
	if err != nil {
		fail(c, "CancelAuctionHandler", "failed to cancel auction", err, map[string]any{
			"auction_id": auctionID,
			"seller_id":  req.SellerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(auction), "auction cancelled successfully")
	helpers.LogSuccess("CancelAuctionHandler", "auction cancelled successfully", map[string]any{
		"auction_id": auctionID,
		"bid_count":  auction.BidCount,
	})
}

// RecordBidHandler handles POST /bids
func (h *BiddingHandler) RecordBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RecordBidHandler", err)
		return
	}

	bid, err := h.service.PlaceBid(c.Request.Context(), req.AuctionID, req.BidderID, decimal.NewFromFloat(req.Amount))
	if err != nil {
		fail(c, "RecordBidHandler", "failed to record bid", err, map[string]any{
			"auction_id": req.AuctionID,
			"bidder_id":  req.BidderID,
			"amount":     req.Amount,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewBidResponse(bid), "bid recorded successfully")
	helpers.LogSuccess("RecordBidHandler", "bid recorded successfully", map[string]any{
		"bid_id":     bid.BidID,
		"auction_id": bid.AuctionID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount.String(),
	})
}

// GetBidsByAuctionHandler handles GET /auctions/:auction_id/bids
func (h *BiddingHandler) GetBidsByAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.GetBidHistory(c.Request.Context(), auctionID)
	if err != nil {
		fail(c, "GetBidsByAuctionHandler", "error retrieving bids", err, map[string]any{"auction_id": auctionID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewBidResponses(bids), "bids retrieved successfully")
	helpers.LogSuccess("GetBidsByAuctionHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(bids),
	})
}

// GetAuctionsByUserHandler handles GET /users/:user_id/auctions
func (h *BiddingHandler) GetAuctionsByUserHandler(c *gin.Context) {
	userID := c.Param("user_id")
	auctions, err := h.service.GetAuctionsByBidder(c.Request.Context(), userID)
	if err != nil {
		fail(c, "GetAuctionsByUserHandler", "error retrieving auctions", err, map[string]any{"user_id": userID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponses(auctions), "auctions retrieved successfully")
	helpers.LogSuccess("GetAuctionsByUserHandler", "auctions retrieved successfully", map[string]any{
		"user_id":        userID,
		"auctions_count": len(auctions),
	})
}

// ListProductsHandler handles GET /products
func (h *BiddingHandler) ListProductsHandler(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		fail(c, "ListProductsHandler", "error listing products", err, map[string]any{})
		return
	}
	if products == nil {
		products = []models.Product{}
	}

	utils.JSONResponse(c, http.StatusOK, products, "products retrieved successfully")
}
