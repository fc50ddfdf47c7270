package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	pkgAuth "github.com/polkiloo/catalogsync/internal/pkg/auth"
	testhelpers "github.com/polkiloo/catalogsync/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestAdminRequired(t *testing.T) {
	hasher := pkgAuth.NewBcryptHasher(bcrypt.MinCost)
	key := testhelpers.RandomASCIIString(16, 24)
	hash, err := hasher.Hash(key)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	cases := []struct {
		name   string
		hash   string
		header string
		status int
	}{
		{name: "guard disabled", hash: "", header: "", status: http.StatusNoContent},
		{name: "valid key", hash: hash, header: key, status: http.StatusNoContent},
		{name: "missing key", hash: hash, header: "", status: http.StatusUnauthorized},
		{name: "wrong key", hash: hash, header: "nope", status: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.Use(AdminRequired(pkgAuth.NewAdminKey(tc.hash, hasher)))
			router.POST("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.header != "" {
				req.Header.Set(AdminKeyHeader, tc.header)
			}
			if resp := serve(router, req); resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
		})
	}
}

func TestIPRateLimiterAllow(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(time.Minute, 2)
	limiter.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := limiter.Allow("10.0.0.1"); !ok {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	ok, wait := limiter.Allow("10.0.0.1")
	if ok || wait <= 0 || wait > 30*time.Second {
		t.Fatalf("expected rejection with wait up to 30s, got ok=%v wait=%v", ok, wait)
	}
	if ok, _ := limiter.Allow("10.0.0.2"); !ok {
		t.Fatal("other clients must have their own bucket")
	}

	now = now.Add(30 * time.Second)
	if ok, _ := limiter.Allow("10.0.0.1"); !ok {
		t.Fatal("expected a refilled token after half the window")
	}

	now = now.Add(2 * time.Minute)
	limiter.Allow("10.0.0.3")
	limiter.mu.Lock()
	_, stale := limiter.visitors["10.0.0.2"]
	limiter.mu.Unlock()
	if stale {
		t.Fatal("expected idle buckets to be evicted")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RateLimit(NewIPRateLimiter(time.Hour, 1)))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	if resp := serve(router, httptest.NewRequest(http.MethodGet, "/", nil)); resp.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", resp.Code)
	}

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" || resp.Header().Get("RateLimit-Limit") != "1" {
		t.Fatalf("unexpected headers: %v", resp.Header())
	}
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil || body.Success || body.Message == "" {
		t.Fatalf("unexpected body %s err=%v", resp.Body.String(), err)
	}
}

func TestSecureHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecureHeaders())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	for k, v := range securityHeaders {
		if got := resp.Header().Get(k); got != v {
			t.Fatalf("header %s: expected %q, got %q", k, v, got)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(RequestLogger(logger))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(http.ErrHandlerTimeout)
		c.Status(http.StatusInternalServerError)
	})

	serve(router, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if !strings.Contains(buf.String(), `"path":"/ok"`) || !strings.Contains(buf.String(), `"level":"INFO"`) {
		t.Fatalf("unexpected log output: %s", buf.String())
	}

	buf.Reset()
	serve(router, httptest.NewRequest(http.MethodGet, "/fail", nil))
	if !strings.Contains(buf.String(), `"level":"ERROR"`) || !strings.Contains(buf.String(), http.ErrHandlerTimeout.Error()) {
		t.Fatalf("expected error log, got %s", buf.String())
	}
}
