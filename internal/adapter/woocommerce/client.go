package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	domainErrors "github.com/polkiloo/catalogsync/internal/domain/errors"
)

const (
	apiPath   = "/wp-json/wc/v3"
	userAgent = "catalogsync/1.0"

	defaultTimeout    = 30 * time.Second
	defaultRetryAfter = 5 * time.Second
	maxErrorBody      = 4 << 10
)

// TooManyRequestsError represents rate limiting signal from the catalog.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

// OrderFilter selects a page of the remote order feed.
type OrderFilter struct {
	Page    int
	PerPage int
	After   time.Time
	OrderBy string
	Order   string
}

// ProductFilter selects a page of remote products.
type ProductFilter struct {
	Page    int
	PerPage int
	Include []int64
}

// Client exposes read operations of the remote catalog. Payloads are returned
// undecoded so callers can validate them.
type Client interface {
	FetchOrders(ctx context.Context, filter OrderFilter) ([]json.RawMessage, error)
	FetchProducts(ctx context.Context, filter ProductFilter) ([]json.RawMessage, error)
	FetchProduct(ctx context.Context, id int64) (json.RawMessage, error)
}

// Options tunes transport behaviour of HTTPClient.
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Retries           int
}

// HTTPClient implements Client over the WooCommerce REST API.
type HTTPClient struct {
	baseURL    *url.URL
	key        string
	secret     string
	httpClient *http.Client
	limiter    *rate.Limiter
	retries    int
	newBackOff func() backoff.BackOff
	logger     *slog.Logger
}

// NewHTTPClient creates catalog client authenticated with consumer credentials.
func NewHTTPClient(baseURL, key, secret string, opts Options, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("catalog url must be absolute")
	}
	if key == "" || secret == "" {
		return nil, fmt.Errorf("catalog credentials must be provided")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &HTTPClient{
		baseURL: parsed,
		key:     key,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:    limiter,
		retries:    retries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		logger:     logger,
	}, nil
}

// FetchOrders returns one page of orders matching filter.
func (c *HTTPClient) FetchOrders(ctx context.Context, filter OrderFilter) ([]json.RawMessage, error) {
	q := url.Values{}
	setPaging(q, filter.Page, filter.PerPage)
	if !filter.After.IsZero() {
		q.Set("after", filter.After.UTC().Format(time.RFC3339))
	}
	if filter.OrderBy != "" {
		q.Set("orderby", filter.OrderBy)
	}
	if filter.Order != "" {
		q.Set("order", filter.Order)
	}
	return c.fetchList(ctx, "fetch orders", "orders", q)
}

// FetchProducts returns one page of products matching filter.
func (c *HTTPClient) FetchProducts(ctx context.Context, filter ProductFilter) ([]json.RawMessage, error) {
	q := url.Values{}
	setPaging(q, filter.Page, filter.PerPage)
	if len(filter.Include) > 0 {
		ids := make([]string, len(filter.Include))
		for i, id := range filter.Include {
			ids[i] = strconv.FormatInt(id, 10)
		}
		q.Set("include", strings.Join(ids, ","))
	}
	return c.fetchList(ctx, "fetch products", "products", q)
}

// FetchProduct returns a single product by id.
func (c *HTTPClient) FetchProduct(ctx context.Context, id int64) (json.RawMessage, error) {
	op := "fetch product " + strconv.FormatInt(id, 10)
	body, err := c.get(ctx, op, path.Join("products", strconv.FormatInt(id, 10)), nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &domainErrors.FetchError{Op: op, Err: errors.New("malformed JSON response")}
	}
	return json.RawMessage(body), nil
}

func (c *HTTPClient) fetchList(ctx context.Context, op, resource string, q url.Values) ([]json.RawMessage, error) {
	body, err := c.get(ctx, op, resource, q)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &domainErrors.FetchError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, nil
}

// throttled carries the server provided delay to the retry loop.
type throttled struct {
	*domainErrors.FetchError
}

func (t throttled) Unwrap() []error {
	return []error{t.FetchError, &backoff.RetryAfterError{Duration: t.RetryAfter}}
}

func (c *HTTPClient) get(ctx context.Context, op, resource string, q url.Values) ([]byte, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, apiPath, resource)
	if q != nil {
		endpoint.RawQuery = q.Encode()
	}

	attempt := func() ([]byte, error) {
		body, err := c.do(ctx, op, endpoint.String())
		if err == nil {
			return body, nil
		}
		var fe *domainErrors.FetchError
		if !errors.As(err, &fe) || !fe.Transient {
			return nil, backoff.Permanent(err)
		}
		if fe.RetryAfter > 0 {
			return nil, throttled{fe}
		}
		return nil, err
	}

	body, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.retries)+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("retrying catalog request",
				slog.String("op", op),
				slog.String("error", err.Error()),
				slog.Duration("backoff", next),
			)
		}),
	)
	if err != nil {
		var fe *domainErrors.FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, &domainErrors.FetchError{Op: op, Err: err}
	}
	return body, nil
}

func (c *HTTPClient) do(ctx context.Context, op, endpoint string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &domainErrors.FetchError{Op: op, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domainErrors.FetchError{Op: op, Err: err}
	}
	req.SetBasicAuth(c.key, c.secret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// network failures are transient unless the caller gave up
		return nil, &domainErrors.FetchError{Op: op, Err: err, Transient: ctx.Err() == nil}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &domainErrors.FetchError{Op: op, Err: fmt.Errorf("read body: %w", err), Transient: ctx.Err() == nil}
		}
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &domainErrors.FetchError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Transient:  true,
			RetryAfter: retryAfter,
			Err:        TooManyRequestsError{RetryAfter: retryAfter},
		}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("catalog request failed",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, &domainErrors.FetchError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Transient:  isRetryable(resp.StatusCode),
		}
	}
}

func isRetryable(code int) bool {
	switch code {
	case http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func setPaging(q url.Values, page, perPage int) {
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	if seconds, err := strconv.Atoi(header); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}
	return defaultRetryAfter
}
