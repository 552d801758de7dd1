package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"produce-auction/internal/biddingerrors"
	"produce-auction/internal/models"
)

//go:generate mockgen -destination=mock_repository.go -package=repository produce-auction/internal/repository AuctionDB,Catalog

// AuctionDB defines the auction and bid storage interface
type AuctionDB interface {
	CreateAuction(ctx context.Context, auction models.Auction) error
	GetAuction(ctx context.Context, auctionID string) (models.Auction, error)
	ListAuctions(ctx context.Context) ([]models.Auction, error)
	UpdateAuction(ctx context.Context, auction models.Auction) error
	RecordBid(ctx context.Context, auction models.Auction, bid models.Bid) error
	GetBidsByAuction(ctx context.Context, auctionID string) ([]models.Bid, error)
	GetAuctionsByBidder(ctx context.Context, bidderID string) ([]models.Auction, error)
}

// Catalog is the read side of the product store auctions reference
type Catalog interface {
	GetProduct(ctx context.Context, productID string) (models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB and Catalog
type MemoryRepo struct {
	mu             sync.RWMutex
	auctions       map[string]models.Auction // key: auctionID -> value: auction
	bids           map[string][]models.Bid   // key: auctionID -> value: bids in acceptance order
	bidderAuctions map[string][]string       // key: bidderID -> value: auctionIDs the bidder has bid on
	products       map[string]models.Product // key: productID -> value: product
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions:       make(map[string]models.Auction),
		bids:           make(map[string][]models.Bid),
		bidderAuctions: make(map[string][]string),
		products:       make(map[string]models.Product),
	}
}

// CreateAuction stores a new auction
func (r *MemoryRepo) CreateAuction(_ context.Context, auction models.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[auction.AuctionID]; ok {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, biddingerrors.ErrAuctionExists)
	}
	r.auctions[auction.AuctionID] = auction
	return nil
}

// GetAuction returns a single auction
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (models.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return models.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return a, nil
}

// ListAuctions returns every auction ordered by creation time
func (r *MemoryRepo) ListAuctions(_ context.Context) ([]models.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		out = append(out, a)
	}
	sortByCreation(out)
	return out, nil
}

// UpdateAuction replaces the stored state of an existing auction. The stored
// bid count must equal auction.BidCount.
func (r *MemoryRepo) UpdateAuction(_ context.Context, auction models.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.auctions[auction.AuctionID]
	if !ok {
		return fmt.Errorf("update auction %s: %w", auction.AuctionID, biddingerrors.ErrAuctionNotFound)
	}
	if stored.BidCount != auction.BidCount {
		return fmt.Errorf("update auction %s: %w - stale bid count %d, stored %d",
			auction.AuctionID, biddingerrors.ErrInvariantViolation, auction.BidCount, stored.BidCount)
	}
	r.auctions[auction.AuctionID] = auction
	return nil
}

// RecordBid appends bid to the history and stores the auction state it produced.
// The stored bid count must be exactly one behind auction.BidCount.
func (r *MemoryRepo) RecordBid(_ context.Context, auction models.Auction, bid models.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.auctions[bid.AuctionID]
	if !ok || bid.AuctionID != auction.AuctionID {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
	}
	if stored.BidCount+1 != auction.BidCount {
		return fmt.Errorf("record bid for auction %s: %w - stale bid count %d, stored %d",
			bid.AuctionID, biddingerrors.ErrInvariantViolation, auction.BidCount, stored.BidCount)
	}

	r.auctions[auction.AuctionID] = auction
	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], bid)

	for _, id := range r.bidderAuctions[bid.BidderID] {
		if id == bid.AuctionID {
			return nil
		}
	}
	r.bidderAuctions[bid.BidderID] = append(r.bidderAuctions[bid.BidderID], bid.AuctionID)

	return nil
}

// GetBidsByAuction returns all bids for an auction in acceptance order
func (r *MemoryRepo) GetBidsByAuction(_ context.Context, auctionID string) ([]models.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
	}
	return append([]models.Bid{}, r.bids[auctionID]...), nil
}

// GetAuctionsByBidder returns all auctions a bidder has bid on
func (r *MemoryRepo) GetAuctionsByBidder(_ context.Context, bidderID string) ([]models.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.bidderAuctions[bidderID]
	out := make([]models.Auction, 0, len(ids))
	for _, id := range ids {
		if a, exists := r.auctions[id]; exists {
			out = append(out, a)
		}
	}
	return out, nil
}

// GetProduct returns a catalog product
func (r *MemoryRepo) GetProduct(_ context.Context, productID string) (models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[productID]
	if !ok {
		return models.Product{}, fmt.Errorf("get product %s: %w", productID, biddingerrors.ErrProductNotFound)
	}
	return p, nil
}

// ListProducts returns the catalog ordered by product id
func (r *MemoryRepo) ListProducts(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// AddProduct adds a product to the catalog
func (r *MemoryRepo) AddProduct(product models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ProductID] = product
}

func sortByCreation(auctions []models.Auction) {
	sort.Slice(auctions, func(i, j int) bool {
		if auctions[i].CreatedAt.Equal(auctions[j].CreatedAt) {
			return auctions[i].AuctionID < auctions[j].AuctionID
		}
		return auctions[i].CreatedAt.Before(auctions[j].CreatedAt)
	})
}
