package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	bidding "produce-auction/internal/biddingService"
	"produce-auction/internal/config"
	"produce-auction/internal/fixtures"
	"produce-auction/internal/locker"
	"produce-auction/internal/models"
	"produce-auction/internal/notify"
	"produce-auction/internal/repository"
	"produce-auction/internal/server"
	"produce-auction/internal/sweeper"
	"produce-auction/internal/validator"
	"produce-auction/utils"

	rd "github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// store is the combined auction and catalog persistence
type store interface {
	repository.AuctionDB
	repository.Catalog
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Fatal("failed to load config", map[string]any{"error": err.Error()})
	}
	if err := utils.SetLevel(cfg.LogLevel); err != nil {
		utils.Warn("unknown log level, keeping info", map[string]any{"level": cfg.LogLevel})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, addProduct, closeStore, err := openStore(cfg)
	if err != nil {
		utils.Fatal("failed to open store", map[string]any{"store": cfg.Store, "error": err.Error()})
	}
	defer closeStore()

	lock, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		utils.Fatal("failed to set up auction locker", map[string]any{"locker": cfg.Locker, "error": err.Error()})
	}
	defer closeLocker()

	notifier := newNotifier(cfg)
	defer func() {
		if err := notifier.Close(); err != nil {
			utils.Warn("failed to close notifier", map[string]any{"error": err.Error()})
		}
	}()

	if cfg.SeedFixtures {
		if err := seed(ctx, repo, addProduct); err != nil {
			utils.Fatal("failed to seed demo data", map[string]any{"error": err.Error()})
		}
	}

	policy := validator.DefaultPolicy()
	policy.MinimumIncrement = cfg.MinBidIncrement
	policy.AllowSelfOutbid = cfg.AllowSelfOutbid

	auctionSvc := bidding.NewAuctionService(repo, repo,
		bidding.WithLocker(lock),
		bidding.WithNotifier(notifier),
		bidding.WithPolicy(policy, cfg.CategoryIncrements),
	)

	go sweeper.NewRunner(auctionSvc, cfg.SweepInterval).Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.SetupRouter(auctionSvc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		utils.Info("starting auction server", map[string]any{
			"addr":     cfg.HTTPAddr,
			"store":    cfg.Store,
			"locker":   cfg.Locker,
			"notifier": cfg.Notifier,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Error("server stopped unexpectedly", map[string]any{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Error("graceful shutdown failed", map[string]any{"error": err.Error()})
	}
	utils.Info("auction server stopped", nil)
}

// openStore returns the configured store, a way to add catalog products and a closer
func openStore(cfg config.AppConfig) (store, func(context.Context, models.Product) error, func(), error) {
	if cfg.Store == "memory" {
		repo := repository.NewMemoryRepo()
		add := func(_ context.Context, p models.Product) error {
			repo.AddProduct(p)
			return nil
		}
		return repo, add, func() {}, nil
	}

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, nil, err
	}
	// sqlite serializes writers; one connection avoids "database is locked"
	sqlDB.SetMaxOpenConns(1)

	repo, err := repository.NewGormRepo(db)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, nil, err
	}
	closer := func() {
		if err := sqlDB.Close(); err != nil {
			utils.Warn("failed to close database", map[string]any{"error": err.Error()})
		}
	}
	return repo, repo.AddProduct, closer, nil
}

func newLocker(ctx context.Context, cfg config.AppConfig) (locker.Locker, func(), error) {
	if cfg.Locker == "memory" {
		return locker.NewKeyedMutex(), func() {}, nil
	}

	rdb := rd.NewClient(&rd.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}

	closer := func() {
		if err := rdb.Close(); err != nil {
			utils.Warn("failed to close redis client", map[string]any{"error": err.Error()})
		}
	}
	return locker.NewRedisLocker(rdb, cfg.LockTTL, 10*time.Millisecond), closer, nil
}

func newNotifier(cfg config.AppConfig) notify.Notifier {
	if cfg.Notifier == "kafka" {
		return notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	return notify.LogNotifier{}
}

// seed loads the demo catalog and, on an empty store, the demo auctions
func seed(ctx context.Context, repo store, addProduct func(context.Context, models.Product) error) error {
	for _, p := range fixtures.Products() {
		if err := addProduct(ctx, p); err != nil {
			return err
		}
	}

	existing, err := repo.ListAuctions(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	ids, err := fixtures.Seed(ctx, repo, repo, rand.New(rand.NewSource(time.Now().UnixNano())), time.Now().UTC())
	if err != nil {
		return err
	}
	utils.Info("seeded demo auctions", map[string]any{"auction_ids": ids})
	return nil
}
