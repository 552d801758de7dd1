package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "PORT", "STORE", "LOCKER", "NOTIFIER", "MIN_BID_INCREMENT", "CATEGORY_INCREMENTS", "ALLOW_SELF_OUTBID", "SWEEP_INTERVAL_SEC", "LOCK_TTL_MS"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "memory", cfg.Store)
	require.Equal(t, "memory", cfg.Locker)
	require.Equal(t, "log", cfg.Notifier)
	require.True(t, decimal.RequireFromString("0.25").Equal(cfg.MinBidIncrement))
	require.Empty(t, cfg.CategoryIncrements)
	require.True(t, cfg.AllowSelfOutbid)
	require.Equal(t, time.Second, cfg.SweepInterval)
	require.Equal(t, 5*time.Second, cfg.LockTTL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE", "sqlite")
	t.Setenv("DB_PATH", "/tmp/auction.db")
	t.Setenv("LOCKER", "redis")
	t.Setenv("NOTIFIER", "kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("MIN_BID_INCREMENT", "0.10")
	t.Setenv("CATEGORY_INCREMENTS", "fruits=0.50, grains = 1")
	t.Setenv("ALLOW_SELF_OUTBID", "false")
	t.Setenv("SWEEP_INTERVAL_SEC", "5")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, "sqlite", cfg.Store)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.True(t, decimal.RequireFromString("0.10").Equal(cfg.MinBidIncrement))
	require.True(t, decimal.RequireFromString("0.50").Equal(cfg.CategoryIncrements["fruits"]))
	require.True(t, decimal.NewFromInt(1).Equal(cfg.CategoryIncrements["grains"]))
	require.False(t, cfg.AllowSelfOutbid)
	require.Equal(t, 5*time.Second, cfg.SweepInterval)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"STORE", "postgres"},
		{"LOCKER", "etcd"},
		{"NOTIFIER", "email"},
		{"MIN_BID_INCREMENT", "abc"},
		{"MIN_BID_INCREMENT", "-0.25"},
		{"CATEGORY_INCREMENTS", "fruits"},
		{"CATEGORY_INCREMENTS", "fruits=-1"},
		{"ALLOW_SELF_OUTBID", "maybe"},
		{"SWEEP_INTERVAL_SEC", "0"},
		{"LOCK_TTL_MS", "-5"},
		{"REDIS_DB", "x"},
	}

	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := FromEnv()
			require.Error(t, err)
		})
	}
}
