package bidding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"produce-auction/internal/biddingerrors"
	"produce-auction/internal/clock"
	"produce-auction/internal/ledger"
	"produce-auction/internal/lifecycle"
	"produce-auction/internal/locker"
	"produce-auction/internal/models"
	"produce-auction/internal/notify"
	"produce-auction/internal/repository"
	"produce-auction/internal/validator"
	"produce-auction/utils"

	"github.com/shopspring/decimal"
)

// Sort orders accepted by ListAuctions
const (
	SortCreated    = ""
	SortEndingSoon = "ending_soon"
	SortHighestBid = "highest_bid"
	SortMostBids   = "most_bids"
)

// CreateAuctionInput is what a seller supplies to open an auction
type CreateAuctionInput struct {
	ProductID    string
	SellerID     string
	StartPrice   decimal.Decimal
	ReservePrice decimal.NullDecimal
	MinIncrement decimal.NullDecimal
	StartTime    time.Time // zero means now
	EndTime      time.Time
}

// ListFilter narrows and orders ListAuctions results
type ListFilter struct {
	Status   models.Status // empty matches every status
	SellerID string        // empty matches every seller
	Sort     string
}

// AuctionService defines the business logic for produce auctions
type AuctionService struct {
	repo               repository.AuctionDB
	catalog            repository.Catalog
	locker             locker.Locker
	notifier           notify.Notifier
	clock              clock.Clock
	policy             validator.Policy
	categoryIncrements map[string]decimal.Decimal
}

// Option customizes an AuctionService
type Option func(*AuctionService)

// WithLocker sets the per-auction lock; defaults to an in-process KeyedMutex
func WithLocker(l locker.Locker) Option {
	return func(s *AuctionService) { s.locker = l }
}

// WithNotifier sets where bidder notices go; defaults to the log
func WithNotifier(n notify.Notifier) Option {
	return func(s *AuctionService) { s.notifier = n }
}

// WithClock replaces the wall clock
func WithClock(c clock.Clock) Option {
	return func(s *AuctionService) { s.clock = c }
}

// WithPolicy sets the base bidding policy and per-category increments
func WithPolicy(p validator.Policy, categoryIncrements map[string]decimal.Decimal) Option {
	return func(s *AuctionService) {
		s.policy = p
		s.categoryIncrements = categoryIncrements
	}
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB, catalog repository.Catalog, opts ...Option) *AuctionService {
	s := &AuctionService{
		repo:     repo,
		catalog:  catalog,
		locker:   locker.NewKeyedMutex(),
		notifier: notify.LogNotifier{},
		clock:    clock.Real{},
		policy:   validator.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAuction opens an auction for a catalog product
func (s *AuctionService) CreateAuction(ctx context.Context, in CreateAuctionInput) (models.Auction, error) {
	if in.ProductID == "" || in.SellerID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing productID or sellerID", biddingerrors.ErrInvalidAuction)
	}
	if !in.StartPrice.IsPositive() {
		return models.Auction{}, fmt.Errorf("service: %w - start price must be positive", biddingerrors.ErrInvalidAuction)
	}
	if in.ReservePrice.Valid && !in.ReservePrice.Decimal.IsPositive() {
		return models.Auction{}, fmt.Errorf("service: %w - reserve price must be positive", biddingerrors.ErrInvalidAuction)
	}
	if in.MinIncrement.Valid && in.MinIncrement.Decimal.IsNegative() {
		return models.Auction{}, fmt.Errorf("service: %w - negative minimum increment", biddingerrors.ErrInvalidAuction)
	}

	now := s.clock.Now()
	start := in.StartTime
	if start.IsZero() {
		start = now
	}
	if !in.EndTime.After(start) {
		return models.Auction{}, fmt.Errorf("service: %w - end time must be after start time", biddingerrors.ErrInvalidAuction)
	}

	product, err := s.catalog.GetProduct(ctx, in.ProductID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to load product %s: %w", in.ProductID, err)
	}
	if product.FarmerID != "" && product.FarmerID != in.SellerID {
		return models.Auction{}, fmt.Errorf("service: %w - product %s belongs to %s", biddingerrors.ErrNotSeller, product.ProductID, product.FarmerID)
	}

	auction := models.Auction{
		AuctionID:    utils.GenerateID(),
		ProductID:    product.ProductID,
		Category:     product.Category,
		SellerID:     in.SellerID,
		StartPrice:   in.StartPrice,
		CurrentPrice: in.StartPrice,
		ReservePrice: in.ReservePrice,
		MinIncrement: in.MinIncrement,
		StartTime:    start.UTC(),
		EndTime:      in.EndTime.UTC(),
		Status:       lifecycle.InitialStatus(start, now),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction for product %s: %w", product.ProductID, err)
	}

	utils.Info("auction created", map[string]any{
		"auction_id": auction.AuctionID,
		"product_id": auction.ProductID,
		"seller_id":  auction.SellerID,
		"status":     auction.Status,
		"end_time":   auction.EndTime,
	})
	return auction, nil
}

// PlaceBid validates and records a bid. Everything between reading the
// auction and persisting the result runs under the auction's lock.
func (s *AuctionService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount decimal.Decimal) (models.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", biddingerrors.ErrInvalidBid)
	}

	var events []notify.Event
	defer func() { s.publish(ctx, events) }()

	unlock, err := s.locker.Lock(ctx, auctionID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to lock auction %s: %w", auctionID, err)
	}
	defer unlock()

	l, err := s.loadLedger(ctx, auctionID)
	if err != nil {
		return models.Bid{}, err
	}

	now := s.clock.Now()
	if _, err := s.settle(ctx, l, now, &events); err != nil {
		return models.Bid{}, err
	}

	current := l.Auction()
	policy := s.policy.Resolve(current, s.categoryIncrements)
	candidate := validator.Candidate{BidderID: bidderID, Amount: amount}
	if err := validator.ValidateBid(candidate, validator.SnapshotOf(current), policy, now); err != nil {
		return models.Bid{}, fmt.Errorf("service: bid on auction %s rejected: %w", auctionID, err)
	}

	previous := current.HighestBidderID
	bid := models.Bid{
		BidID:     utils.GenerateBidID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: now,
	}

	updated, err := l.ApplyBid(bid)
	if err != nil {
		utils.Error("ledger refused a validated bid", map[string]any{
			"auction_id": auctionID,
			"bid_id":     bid.BidID,
			"error":      err.Error(),
		})
		return models.Bid{}, fmt.Errorf("service: %w", err)
	}

	if err := s.repo.RecordBid(ctx, updated, bid); err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to record bid for auction %s by user %s: %w", auctionID, bidderID, err)
	}
	utils.Debug("bid accepted", map[string]any{
		"auction_id": auctionID,
		"bid_id":     bid.BidID,
		"bid_count":  updated.BidCount,
	})

	if previous != "" && previous != bidderID {
		events = append(events, notify.Event{
			Type:       notify.EventOutbid,
			AuctionID:  updated.AuctionID,
			ProductID:  updated.ProductID,
			Status:     string(updated.Status),
			Recipients: []string{previous},
			Amount:     updated.CurrentPrice.StringFixed(2),
			OccurredAt: now,
		})
	}

	return bid, nil
}

// GetAuction returns an auction after applying any transition that is due
func (s *AuctionService) GetAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}

	var events []notify.Event
	defer func() { s.publish(ctx, events) }()

	unlock, err := s.locker.Lock(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to lock auction %s: %w", auctionID, err)
	}
	defer unlock()

	l, err := s.loadLedger(ctx, auctionID)
	if err != nil {
		return models.Auction{}, err
	}
	if _, err := s.settle(ctx, l, s.clock.Now(), &events); err != nil {
		return models.Auction{}, err
	}
	return l.Auction(), nil
}

// GetBidHistory returns every bid on an auction, newest first
func (s *AuctionService) GetBidHistory(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", biddingerrors.ErrInvalidBid)
	}

	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}

	history := make([]models.Bid, len(bids))
	for i, b := range bids {
		history[len(bids)-1-i] = b
	}
	return history, nil
}

// GetTimeRemaining returns the auction with its countdown
func (s *AuctionService) GetTimeRemaining(ctx context.Context, auctionID string) (models.Auction, clock.TimeRemaining, error) {
	a, err := s.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, clock.TimeRemaining{}, err
	}
	return a, clock.ComputeTimeRemaining(s.clock.Now(), a.EndTime), nil
}

// CancelAuction lets the seller withdraw a scheduled or running auction
func (s *AuctionService) CancelAuction(ctx context.Context, auctionID, sellerID string) (models.Auction, error) {
	if auctionID == "" || sellerID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing auctionID or sellerID", biddingerrors.ErrInvalidAuction)
	}

	var events []notify.Event
	defer func() { s.publish(ctx, events) }()

	unlock, err := s.locker.Lock(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to lock auction %s: %w", auctionID, err)
	}
	defer unlock()

	l, err := s.loadLedger(ctx, auctionID)
	if err != nil {
		return models.Auction{}, err
	}
	if l.Auction().SellerID != sellerID {
		return models.Auction{}, fmt.Errorf("service: %w - auction %s", biddingerrors.ErrNotSeller, auctionID)
	}

	now := s.clock.Now()
	if _, err := s.settle(ctx, l, now, &events); err != nil {
		return models.Auction{}, err
	}
	if err := l.Cancel(now); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to cancel auction %s: %w", auctionID, err)
	}

	cancelled := l.Auction()
	if err := s.repo.UpdateAuction(ctx, cancelled); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to store cancelled auction %s: %w", auctionID, err)
	}

	fields := map[string]any{
		"auction_id": auctionID,
		"seller_id":  sellerID,
		"bid_count":  cancelled.BidCount,
	}
	if cancelled.BidCount > 0 {
		utils.Warn("auction cancelled with bids", fields)
		events = append(events, notify.Event{
			Type:       notify.EventAuctionCancelled,
			AuctionID:  cancelled.AuctionID,
			ProductID:  cancelled.ProductID,
			Status:     string(cancelled.Status),
			Recipients: l.BidderIDs(),
			OccurredAt: now,
		})
	} else {
		utils.Info("auction cancelled", fields)
	}

	return cancelled, nil
}

// ListAuctions returns auctions matching filter. Statuses reflect the current
// time but due transitions are only persisted by GetAuction, PlaceBid and Sweep.
func (s *AuctionService) ListAuctions(ctx context.Context, filter ListFilter) ([]models.Auction, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("service: %w - unknown status %q", biddingerrors.ErrInvalidQuery, filter.Status)
	}
	less, err := sortFunc(filter.Sort)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.ListAuctions(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}

	now := s.clock.Now()
	out := make([]models.Auction, 0, len(all))
	for _, a := range all {
		a = currentView(a, now)
		if filter.SellerID != "" && a.SellerID != filter.SellerID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}

	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out, nil
}

// GetAuctionsByBidder returns all auctions a user has bid on
func (s *AuctionService) GetAuctionsByBidder(ctx context.Context, bidderID string) ([]models.Auction, error) {
	if bidderID == "" {
		return nil, fmt.Errorf("service: %w - empty bidder ID", biddingerrors.ErrInvalidBid)
	}

	auctions, err := s.repo.GetAuctionsByBidder(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get auctions for bidder %s: %w", bidderID, err)
	}

	now := s.clock.Now()
	for i := range auctions {
		auctions[i] = currentView(auctions[i], now)
	}
	return auctions, nil
}

// ListProducts returns the product catalog
func (s *AuctionService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list products: %w", err)
	}
	return products, nil
}

// Sweep persists every due transition and reports how many were applied.
// A failure on one auction does not stop the others.
func (s *AuctionService) Sweep(ctx context.Context) (int, error) {
	all, err := s.repo.ListAuctions(ctx)
	if err != nil {
		return 0, fmt.Errorf("service: failed to list auctions for sweep: %w", err)
	}

	now := s.clock.Now()
	applied := 0
	var errs []error
	for _, a := range all {
		if _, due := lifecycle.Due(a, now); !due {
			continue
		}
		n, err := s.sweepOne(ctx, a.AuctionID, now)
		applied += n
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return applied, errors.Join(errs...)
	}
	return applied, nil
}

func (s *AuctionService) sweepOne(ctx context.Context, auctionID string, now time.Time) (int, error) {
	var events []notify.Event
	defer func() { s.publish(ctx, events) }()

	unlock, err := s.locker.Lock(ctx, auctionID)
	if err != nil {
		return 0, fmt.Errorf("service: failed to lock auction %s: %w", auctionID, err)
	}
	defer unlock()

	l, err := s.loadLedger(ctx, auctionID)
	if err != nil {
		return 0, err
	}
	return s.settle(ctx, l, now, &events)
}

// loadLedger reads an auction and its bids and checks they agree.
// Callers must hold the auction's lock.
func (s *AuctionService) loadLedger(ctx context.Context, auctionID string) (*ledger.Ledger, error) {
	a, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get auction %s: %w", auctionID, err)
	}
	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}

	l, err := ledger.Restore(a, bids)
	if err != nil {
		utils.Error("stored auction disagrees with its bids", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("service: %w", err)
	}
	return l, nil
}

// settle applies and persists due transitions until none remain and returns
// how many fired. Closing events are appended to events for the caller to
// publish once the auction lock is released.
func (s *AuctionService) settle(ctx context.Context, l *ledger.Ledger, now time.Time, events *[]notify.Event) (int, error) {
	fired := 0
	for {
		from := l.Auction().Status
		if !l.Tick(now) {
			return fired, nil
		}

		a := l.Auction()
		if err := s.repo.UpdateAuction(ctx, a); err != nil {
			return fired, fmt.Errorf("service: failed to store transition of auction %s to %s: %w", a.AuctionID, a.Status, err)
		}

		fired++
		utils.Info("auction transitioned", map[string]any{
			"auction_id": a.AuctionID,
			"from":       from,
			"to":         a.Status,
			"bid_count":  a.BidCount,
		})

		if a.Status.IsTerminal() {
			*events = append(*events, closedEvent(a, l.BidderIDs(), now))
		}
	}
}

// publish hands events to the notifier in order. Callers run it after
// releasing the auction lock. Delivery is best effort; the state changes the
// events describe are already stored.
func (s *AuctionService) publish(ctx context.Context, events []notify.Event) {
	for _, evt := range events {
		if err := s.notifier.Publish(ctx, evt); err != nil {
			utils.Warn("failed to publish auction event", map[string]any{
				"type":       evt.Type,
				"auction_id": evt.AuctionID,
				"error":      err.Error(),
			})
		}
	}
}

func closedEvent(a models.Auction, bidders []string, now time.Time) notify.Event {
	recipients := append([]string{a.SellerID}, bidders...)
	evt := notify.Event{
		Type:       notify.EventAuctionClosed,
		AuctionID:  a.AuctionID,
		ProductID:  a.ProductID,
		Status:     string(a.Status),
		Recipients: recipients,
		OccurredAt: now,
	}
	if a.Status == models.StatusCompleted {
		evt.Amount = a.CurrentPrice.StringFixed(2)
	}
	return evt
}

// currentView applies due transitions to a copy without storing them
func currentView(a models.Auction, now time.Time) models.Auction {
	for {
		next, changed := lifecycle.Tick(a, now)
		if !changed {
			return a
		}
		a = next
	}
}

func sortFunc(key string) (func(a, b models.Auction) bool, error) {
	switch key {
	case SortCreated:
		return nil, nil
	case SortEndingSoon:
		return func(a, b models.Auction) bool { return a.EndTime.Before(b.EndTime) }, nil
	case SortHighestBid:
		return func(a, b models.Auction) bool { return a.CurrentPrice.GreaterThan(b.CurrentPrice) }, nil
	case SortMostBids:
		return func(a, b models.Auction) bool { return a.BidCount > b.BidCount }, nil
	default:
		return nil, fmt.Errorf("service: %w - unknown sort %q", biddingerrors.ErrInvalidQuery, key)
	}
}
