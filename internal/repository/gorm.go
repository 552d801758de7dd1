package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"produce-auction/internal/biddingerrors"
	"produce-auction/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// auctionRecord is the persisted form of models.Auction. Money columns are
// stored as text so decimal values round-trip exactly.
type auctionRecord struct {
	AuctionID       string              `gorm:"primaryKey;size:64"`
	ProductID       string              `gorm:"size:64;not null;index"`
	Category        string              `gorm:"size:64"`
	SellerID        string              `gorm:"size:64;index"`
	StartPrice      decimal.Decimal     `gorm:"type:varchar(32);not null"`
	CurrentPrice    decimal.Decimal     `gorm:"type:varchar(32);not null"`
	ReservePrice    decimal.NullDecimal `gorm:"type:varchar(32)"`
	MinIncrement    decimal.NullDecimal `gorm:"type:varchar(32)"`
	StartTime       time.Time           `gorm:"not null"`
	EndTime         time.Time           `gorm:"not null;index"`
	BidCount        int                 `gorm:"not null;default:0"`
	HighestBidderID string              `gorm:"size:64"`
	Status          string              `gorm:"size:32;not null;index"`
	CreatedAt       time.Time           `gorm:"autoCreateTime:false"`
	UpdatedAt       time.Time           `gorm:"autoUpdateTime:false"`
}

func (auctionRecord) TableName() string { return "auctions" }

// bidRecord is the persisted form of models.Bid. Seq is the bid's 1-based
// position in its auction's history; the unique index rejects a second
// writer that raced past the per-auction lock.
type bidRecord struct {
	BidID     string          `gorm:"primaryKey;size:64"`
	AuctionID string          `gorm:"size:64;not null;uniqueIndex:idx_bids_auction_seq"`
	Seq       int             `gorm:"not null;uniqueIndex:idx_bids_auction_seq"`
	BidderID  string          `gorm:"size:64;not null;index"`
	Amount    decimal.Decimal `gorm:"type:varchar(32);not null"`
	CreatedAt time.Time       `gorm:"autoCreateTime:false"`
}

func (bidRecord) TableName() string { return "bids" }

type productRecord struct {
	ProductID string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:128;not null"`
	Category  string `gorm:"size:64;index"`
	FarmerID  string `gorm:"size:64;index"`
	Unit      string `gorm:"size:32"`
	Stock     int    `gorm:"not null;default:0"`
}

func (productRecord) TableName() string { return "products" }

// GormRepo is a durable AuctionDB and Catalog backed by gorm
type GormRepo struct {
	db *gorm.DB
}

// NewGormRepo migrates the schema and returns a repository on db
func NewGormRepo(db *gorm.DB) (*GormRepo, error) {
	if err := db.AutoMigrate(&auctionRecord{}, &bidRecord{}, &productRecord{}); err != nil {
		return nil, fmt.Errorf("migrate auction schema: %w", err)
	}
	return &GormRepo{db: db}, nil
}

// CreateAuction stores a new auction
func (r *GormRepo) CreateAuction(ctx context.Context, auction models.Auction) error {
	rec := toAuctionRecord(auction)
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("create auction %s: %w", auction.AuctionID, biddingerrors.ErrAuctionExists)
	}
	return nil
}

// GetAuction returns a single auction
func (r *GormRepo) GetAuction(ctx context.Context, auctionID string) (models.Auction, error) {
	var rec auctionRecord
	if err := r.db.WithContext(ctx).Where("auction_id = ?", auctionID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, biddingerrors.ErrAuctionNotFound)
		}
		return models.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return rec.toModel(), nil
}

// ListAuctions returns every auction ordered by creation time
func (r *GormRepo) ListAuctions(ctx context.Context) ([]models.Auction, error) {
	var recs []auctionRecord
	if err := r.db.WithContext(ctx).Order("created_at, auction_id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	return toAuctionModels(recs), nil
}

// UpdateAuction replaces the stored state of an existing auction. The update
// only applies when the stored bid count equals auction.BidCount.
func (r *GormRepo) UpdateAuction(ctx context.Context, auction models.Auction) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := toAuctionRecord(auction)
		res := tx.Model(&auctionRecord{}).
			Where("auction_id = ? AND bid_count = ?", auction.AuctionID, auction.BidCount).
			Select("*").
			Updates(&rec)
		if res.Error != nil {
			return fmt.Errorf("update auction %s: %w", auction.AuctionID, res.Error)
		}
		if res.RowsAffected == 0 {
			return missOrStale(tx, "update auction", auction)
		}
		return nil
	})
}

// missOrStale explains a guarded write that matched no row
func missOrStale(tx *gorm.DB, op string, auction models.Auction) error {
	var count int64
	if err := tx.Model(&auctionRecord{}).Where("auction_id = ?", auction.AuctionID).Count(&count).Error; err != nil {
		return fmt.Errorf("%s %s: %w", op, auction.AuctionID, err)
	}
	if count == 0 {
		return fmt.Errorf("%s %s: %w", op, auction.AuctionID, biddingerrors.ErrAuctionNotFound)
	}
	return fmt.Errorf("%s %s: %w - stale bid count %d",
		op, auction.AuctionID, biddingerrors.ErrInvariantViolation, auction.BidCount)
}

// RecordBid inserts bid and updates the auction in one transaction. The update
// only applies when the stored bid count is exactly one behind auction.BidCount.
func (r *GormRepo) RecordBid(ctx context.Context, auction models.Auction, bid models.Bid) error {
	if bid.AuctionID != auction.AuctionID {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, biddingerrors.ErrAuctionNotFound)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := toAuctionRecord(auction)
		res := tx.Model(&auctionRecord{}).
			Where("auction_id = ? AND bid_count = ?", auction.AuctionID, auction.BidCount-1).
			Select("*").
			Updates(&rec)
		if res.Error != nil {
			return fmt.Errorf("record bid for auction %s: %w", auction.AuctionID, res.Error)
		}
		if res.RowsAffected == 0 {
			return missOrStale(tx, "record bid for auction", auction)
		}

		bidRec := bidRecord{
			BidID:     bid.BidID,
			AuctionID: bid.AuctionID,
			Seq:       auction.BidCount,
			BidderID:  bid.BidderID,
			Amount:    bid.Amount,
			CreatedAt: bid.CreatedAt,
		}
		if err := tx.Create(&bidRec).Error; err != nil {
			return fmt.Errorf("record bid %s: %w", bid.BidID, err)
		}
		return nil
	})
}

// GetBidsByAuction returns all bids for an auction in acceptance order
func (r *GormRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if _, err := r.GetAuction(ctx, auctionID); err != nil {
		return nil, fmt.Errorf("get bids: %w", err)
	}

	var recs []bidRecord
	if err := r.db.WithContext(ctx).Where("auction_id = ?", auctionID).Order("seq").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}

	bids := make([]models.Bid, 0, len(recs))
	for _, rec := range recs {
		bids = append(bids, models.Bid{
			BidID:     rec.BidID,
			AuctionID: rec.AuctionID,
			BidderID:  rec.BidderID,
			Amount:    rec.Amount,
			CreatedAt: rec.CreatedAt.UTC(),
		})
	}
	return bids, nil
}

// GetAuctionsByBidder returns all auctions a bidder has bid on
func (r *GormRepo) GetAuctionsByBidder(ctx context.Context, bidderID string) ([]models.Auction, error) {
	var recs []auctionRecord
	sub := r.db.Model(&bidRecord{}).Select("auction_id").Where("bidder_id = ?", bidderID)
	if err := r.db.WithContext(ctx).Where("auction_id IN (?)", sub).Order("created_at, auction_id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("get auctions for bidder %s: %w", bidderID, err)
	}
	return toAuctionModels(recs), nil
}

// GetProduct returns a catalog product
func (r *GormRepo) GetProduct(ctx context.Context, productID string) (models.Product, error) {
	var rec productRecord
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Product{}, fmt.Errorf("get product %s: %w", productID, biddingerrors.ErrProductNotFound)
		}
		return models.Product{}, fmt.Errorf("get product %s: %w", productID, err)
	}
	return rec.toModel(), nil
}

// ListProducts returns the catalog ordered by product id
func (r *GormRepo) ListProducts(ctx context.Context) ([]models.Product, error) {
	var recs []productRecord
	if err := r.db.WithContext(ctx).Order("product_id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out := make([]models.Product, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toModel())
	}
	return out, nil
}

// AddProduct upserts a catalog product
func (r *GormRepo) AddProduct(ctx context.Context, product models.Product) error {
	rec := productRecord{
		ProductID: product.ProductID,
		Name:      product.Name,
		Category:  product.Category,
		FarmerID:  product.FarmerID,
		Unit:      product.Unit,
		Stock:     product.Stock,
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rec).Error; err != nil {
		return fmt.Errorf("add product %s: %w", product.ProductID, err)
	}
	return nil
}

func toAuctionRecord(a models.Auction) auctionRecord {
	return auctionRecord{
		AuctionID:       a.AuctionID,
		ProductID:       a.ProductID,
		Category:        a.Category,
		SellerID:        a.SellerID,
		StartPrice:      a.StartPrice,
		CurrentPrice:    a.CurrentPrice,
		ReservePrice:    a.ReservePrice,
		MinIncrement:    a.MinIncrement,
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		BidCount:        a.BidCount,
		HighestBidderID: a.HighestBidderID,
		Status:          string(a.Status),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

func (rec auctionRecord) toModel() models.Auction {
	return models.Auction{
		AuctionID:       rec.AuctionID,
		ProductID:       rec.ProductID,
		Category:        rec.Category,
		SellerID:        rec.SellerID,
		StartPrice:      rec.StartPrice,
		CurrentPrice:    rec.CurrentPrice,
		ReservePrice:    rec.ReservePrice,
		MinIncrement:    rec.MinIncrement,
		StartTime:       rec.StartTime.UTC(),
		EndTime:         rec.EndTime.UTC(),
		BidCount:        rec.BidCount,
		HighestBidderID: rec.HighestBidderID,
		Status:          models.Status(rec.Status),
		CreatedAt:       rec.CreatedAt.UTC(),
		UpdatedAt:       rec.UpdatedAt.UTC(),
	}
}

func toAuctionModels(recs []auctionRecord) []models.Auction {
	out := make([]models.Auction, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toModel())
	}
	return out
}

func (rec productRecord) toModel() models.Product {
	return models.Product{
		ProductID: rec.ProductID,
		Name:      rec.Name,
		Category:  rec.Category,
		FarmerID:  rec.FarmerID,
		Unit:      rec.Unit,
		Stock:     rec.Stock,
	}
}
