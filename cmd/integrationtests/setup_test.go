package integrationtests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	bidding "produce-auction/internal/biddingService"
	"produce-auction/internal/fixtures"
	"produce-auction/internal/repository"
	"produce-auction/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testStart = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

// manualClock lets a test move time past an auction's end
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testEnv is a running router over a seeded catalog
type testEnv struct {
	router  *gin.Engine
	service *bidding.AuctionService
	clock   *manualClock
}

// SetupTestRouter initializes the router with an in-memory repository for integration testing.
func SetupTestRouter(t *testing.T) *testEnv {
	t.Helper()

	repo := repository.NewMemoryRepo()
	for _, p := range fixtures.Products() {
		repo.AddProduct(p)
	}
	return newEnv(repo, repo)
}

// SetupSQLiteRouter initializes the router over a private in-memory sqlite database.
func SetupSQLiteRouter(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo, err := repository.NewGormRepo(db)
	require.NoError(t, err)
	for _, p := range fixtures.Products() {
		require.NoError(t, repo.AddProduct(context.Background(), p))
	}
	return newEnv(repo, repo)
}

func newEnv(repo repository.AuctionDB, catalog repository.Catalog) *testEnv {
	gin.SetMode(gin.TestMode)
	clk := &manualClock{now: testStart}
	service := bidding.NewAuctionService(repo, catalog, bidding.WithClock(clk))
	return &testEnv{
		router:  server.SetupRouter(service),
		service: service,
		clock:   clk,
	}
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}

// dataOf returns the envelope's data object
func dataOf(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", resp)
	return data
}
