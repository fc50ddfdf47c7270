package router

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/polkiloo/catalogsync/internal/config"
	domainErrors "github.com/polkiloo/catalogsync/internal/domain/errors"
	"github.com/polkiloo/catalogsync/internal/domain/model"
	"github.com/polkiloo/catalogsync/internal/metrics"
	pkgAuth "github.com/polkiloo/catalogsync/internal/pkg/auth"
	"github.com/polkiloo/catalogsync/internal/server/http/handlers"
	"github.com/polkiloo/catalogsync/internal/server/http/middleware"
	testhelpers "github.com/polkiloo/catalogsync/internal/test"
)

type facadeStub struct {
	testhelpers.OrderFacadeStub
	testhelpers.ProductFacadeStub
	*testhelpers.SyncFacadeStub
}

var _ handlers.CatalogFacade = facadeStub{}

func testConfig() *config.Config {
	return &config.Config{
		RateLimitWindow:      time.Minute,
		RateLimitMaxRequests: 100,
		CORSOrigins:          []string{"http://localhost:3000"},
		Environment:          "test",
	}
}

func newEngine(t *testing.T, cfg *config.Config, verifier pkgAuth.KeyVerifier, sync *testhelpers.SyncFacadeStub) *gin.Engine {
	t.Helper()
	if sync == nil {
		sync = &testhelpers.SyncFacadeStub{}
	}
	if verifier == nil {
		verifier = pkgAuth.NewAdminKey("", pkgAuth.NewBcryptHasher(bcrypt.MinCost))
	}
	engine := Setup(Params{
		Facade:   facadeStub{SyncFacadeStub: sync},
		Verifier: verifier,
		Metrics:  metrics.NewRegistry(),
		Config:   cfg,
		Logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	gin.SetMode(gin.TestMode)
	return engine
}

func do(engine *gin.Engine, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	engine.ServeHTTP(resp, req)
	return resp
}

func TestSetupRoutes(t *testing.T) {
	engine := newEngine(t, testConfig(), nil, nil)

	cases := []struct {
		method string
		target string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/v1/health", http.StatusOK},
		{http.MethodGet, "/api/v1/orders", http.StatusOK},
		{http.MethodGet, "/api/v1/orders/5", http.StatusOK},
		{http.MethodGet, "/api/v1/orders/product/5", http.StatusOK},
		{http.MethodGet, "/api/v1/products", http.StatusOK},
		{http.MethodGet, "/api/v1/products/5", http.StatusOK},
		{http.MethodDelete, "/api/v1/products/5", http.StatusOK},
		{http.MethodPost, "/api/v1/products/backfill", http.StatusOK},
		{http.MethodGet, "/api/v1/sync/status", http.StatusOK},
		{http.MethodPost, "/api/v1/sync/trigger", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/orders?limit=500", http.StatusBadRequest},
	}
	for _, tc := range cases {
		if resp := do(engine, tc.method, tc.target, nil); resp.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d (%s)", tc.method, tc.target, tc.status, resp.Code, resp.Body.String())
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	engine := newEngine(t, testConfig(), nil, nil)
	resp := do(engine, http.MethodGet, "/api/v2/orders", nil)
	if resp.Code != http.StatusNotFound || !strings.Contains(resp.Body.String(), `"message":"Route not found"`) {
		t.Fatalf("unexpected response %d: %s", resp.Code, resp.Body.String())
	}
}

func TestSyncTriggerConflict(t *testing.T) {
	sync := &testhelpers.SyncFacadeStub{RunSyncFn: func(context.Context) (*model.SyncResult, error) {
		return nil, domainErrors.ErrSyncInProgress
	}}
	engine := newEngine(t, testConfig(), nil, sync)
	if resp := do(engine, http.MethodPost, "/api/v1/sync/trigger", nil); resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}

func TestAdminGuardedRoutes(t *testing.T) {
	hasher := pkgAuth.NewBcryptHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("admin-secret-key")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	sync := &testhelpers.SyncFacadeStub{}
	engine := newEngine(t, testConfig(), pkgAuth.NewAdminKey(hash, hasher), sync)

	for _, target := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/sync/trigger"},
		{http.MethodPost, "/api/v1/products/backfill"},
		{http.MethodDelete, "/api/v1/products/1"},
	} {
		if resp := do(engine, target.method, target.path, nil); resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", target.method, target.path, resp.Code)
		}
	}
	if sync.Calls.Load() != 0 {
		t.Fatal("guarded handler must not run without key")
	}

	resp := do(engine, http.MethodPost, "/api/v1/sync/trigger", map[string]string{middleware.AdminKeyHeader: "admin-secret-key"})
	if resp.Code != http.StatusOK || sync.Calls.Load() != 1 {
		t.Fatalf("expected authorised trigger, got %d", resp.Code)
	}

	if resp := do(engine, http.MethodGet, "/api/v1/sync/status", nil); resp.Code != http.StatusOK {
		t.Fatalf("read endpoints must stay open, got %d", resp.Code)
	}
}

func TestAPIRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitMaxRequests = 2
	engine := newEngine(t, cfg, nil, nil)

	for i := 0; i < 2; i++ {
		if resp := do(engine, http.MethodGet, "/api/v1/health", nil); resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.Code)
		}
	}
	if resp := do(engine, http.MethodGet, "/api/v1/health", nil); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp := do(engine, http.MethodGet, "/health", nil); resp.Code != http.StatusOK {
		t.Fatalf("root health must not be rate limited, got %d", resp.Code)
	}
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	engine := newEngine(t, testConfig(), nil, nil)

	resp := do(engine, http.MethodGet, "/api/v1/health", map[string]string{"Origin": "http://localhost:3000"})
	if resp.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatalf("expected allowed origin, got %v", resp.Header())
	}
	if resp.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("expected security headers, got %v", resp.Header())
	}

	resp = do(engine, http.MethodGet, "/api/v1/health", map[string]string{"Origin": "http://evil.example"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected disallowed origin to be rejected, got %d", resp.Code)
	}
}

func TestCORSConfigWildcard(t *testing.T) {
	cfg := corsConfig([]string{"*"})
	if !cfg.AllowAllOrigins || cfg.AllowCredentials || len(cfg.AllowOrigins) != 0 {
		t.Fatalf("unexpected wildcard config: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("wildcard config must be valid: %v", err)
	}
}

func TestGzipResponses(t *testing.T) {
	engine := newEngine(t, testConfig(), nil, nil)
	resp := do(engine, http.MethodGet, "/api/v1/orders", map[string]string{"Accept-Encoding": "gzip"})
	if resp.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoded response, got %v", resp.Header())
	}
}
