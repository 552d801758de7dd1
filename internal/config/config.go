package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// AppConfig holds runtime settings, injected through the environment
type AppConfig struct {
	HTTPAddr string
	LogLevel string

	// Store selects the persistence backend: "memory" or "sqlite"
	Store  string
	DBPath string

	// Locker selects per-auction serialization: "memory" or "redis"
	Locker    string
	RedisAddr string
	RedisDB   int
	LockTTL   time.Duration

	// Notifier selects where bidder notices go: "log" or "kafka"
	Notifier     string
	KafkaBrokers []string
	KafkaTopic   string

	// Bidding policy
	MinBidIncrement    decimal.Decimal
	CategoryIncrements map[string]decimal.Decimal
	AllowSelfOutbid    bool

	SweepInterval time.Duration
	SeedFixtures  bool
}

// Load reads a .env file when present, then the environment, applying
// defaults and validating the result.
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return AppConfig{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the current environment only
func FromEnv() (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Store:        getEnv("STORE", "memory"),
		DBPath:       getEnv("DB_PATH", "produce_auction.db"),
		Locker:       getEnv("LOCKER", "memory"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		Notifier:     getEnv("NOTIFIER", "log"),
		KafkaBrokers: splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "produce-auction-events"),
	}

	if p := os.Getenv("PORT"); p != "" {
		cfg.HTTPAddr = fmt.Sprintf(":%s", p)
	}

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return AppConfig{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	lockTTLMs, err := getEnvInt("LOCK_TTL_MS", 5000)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid LOCK_TTL_MS: %w", err)
	}
	if lockTTLMs <= 0 {
		return AppConfig{}, fmt.Errorf("LOCK_TTL_MS must be > 0")
	}
	cfg.LockTTL = time.Duration(lockTTLMs) * time.Millisecond

	sweepSec, err := getEnvInt("SWEEP_INTERVAL_SEC", 1)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid SWEEP_INTERVAL_SEC: %w", err)
	}
	if sweepSec <= 0 {
		return AppConfig{}, fmt.Errorf("SWEEP_INTERVAL_SEC must be > 0")
	}
	cfg.SweepInterval = time.Duration(sweepSec) * time.Second

	if cfg.MinBidIncrement, err = decimal.NewFromString(getEnv("MIN_BID_INCREMENT", "0.25")); err != nil {
		return AppConfig{}, fmt.Errorf("invalid MIN_BID_INCREMENT: %w", err)
	}
	if cfg.MinBidIncrement.IsNegative() {
		return AppConfig{}, fmt.Errorf("MIN_BID_INCREMENT must be >= 0")
	}

	if cfg.CategoryIncrements, err = parseIncrements(os.Getenv("CATEGORY_INCREMENTS")); err != nil {
		return AppConfig{}, fmt.Errorf("invalid CATEGORY_INCREMENTS: %w", err)
	}

	if cfg.AllowSelfOutbid, err = getEnvBool("ALLOW_SELF_OUTBID", true); err != nil {
		return AppConfig{}, fmt.Errorf("invalid ALLOW_SELF_OUTBID: %w", err)
	}
	if cfg.SeedFixtures, err = getEnvBool("SEED_FIXTURES", true); err != nil {
		return AppConfig{}, fmt.Errorf("invalid SEED_FIXTURES: %w", err)
	}

	switch cfg.Store {
	case "memory":
	case "sqlite":
		if cfg.DBPath == "" {
			return AppConfig{}, fmt.Errorf("DB_PATH must not be empty")
		}
	default:
		return AppConfig{}, fmt.Errorf("STORE must be memory or sqlite, got %q", cfg.Store)
	}

	switch cfg.Locker {
	case "memory", "redis":
	default:
		return AppConfig{}, fmt.Errorf("LOCKER must be memory or redis, got %q", cfg.Locker)
	}

	switch cfg.Notifier {
	case "log":
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return AppConfig{}, fmt.Errorf("KAFKA_BROKERS must not be empty")
		}
		if cfg.KafkaTopic == "" {
			return AppConfig{}, fmt.Errorf("KAFKA_TOPIC must not be empty")
		}
	default:
		return AppConfig{}, fmt.Errorf("NOTIFIER must be log or kafka, got %q", cfg.Notifier)
	}

	return cfg, nil
}

// getEnv reads a string variable, falling back when unset or blank
func getEnv(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

// getEnvInt reads an integer variable, falling back when unset
func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

// splitCSV parses a comma separated list, dropping empty entries
func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseIncrements reads "fruits=0.50,vegetables=0.25"
func parseIncrements(value string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for _, pair := range splitCSV(value) {
		category, amount, ok := strings.Cut(pair, "=")
		category = strings.TrimSpace(category)
		if !ok || category == "" {
			return nil, fmt.Errorf("expected category=amount, got %q", pair)
		}
		inc, err := decimal.NewFromString(strings.TrimSpace(amount))
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}
		if inc.IsNegative() {
			return nil, fmt.Errorf("category %s: increment must be >= 0", category)
		}
		out[category] = inc
	}
	return out, nil
}
