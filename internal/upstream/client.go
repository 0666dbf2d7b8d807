package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/toko-storefront/internal/category"
	"github.com/noah-isme/toko-storefront/internal/collection"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/resilience"
)

// ErrNotFound indicates the upstream resource does not exist.
var ErrNotFound = errors.New("upstream: resource not found")

// ErrUnavailable indicates the upstream API could not be reached.
var ErrUnavailable = errors.New("upstream: service unavailable")

// Client talks to the marketplace backend API. All responses are treated
// as untrusted input and decoded into the raw record types the
// normalizers accept.
type Client struct {
	baseURL string
	http    resilience.HTTPClient
	logger  zerolog.Logger
}

// ClientConfig groups Client dependencies.
type ClientConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	Breaker     *resilience.Breaker
	Logger      zerolog.Logger
	Transport   http.RoundTripper
}

// NewClient constructs a Client with retrying, traced HTTP transport.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("upstream: base url is required")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("upstream: invalid base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = resilience.NewBreaker(10, 0.5, 30*time.Second).WithTarget("marketplace-api")
	}
	return &Client{
		baseURL: base,
		http: resilience.HTTPClient{
			Client:      &http.Client{Transport: otelhttp.NewTransport(transport)},
			Breaker:     breaker,
			MaxAttempts: attempts,
			BaseBackoff: 100 * time.Millisecond,
			Jitter:      0.2,
			Timeout:     timeout,
		},
		logger: cfg.Logger,
	}, nil
}

// ProductQuery captures the list filters forwarded to the backend.
type ProductQuery struct {
	Query    string
	Category string
	Page     int
	Limit    int
}

// ProductPage is one page of raw product records plus the reported total.
type ProductPage struct {
	Products []collection.Product
	Total    int64
}

// ListProducts fetches a page of products.
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (ProductPage, error) {
	values := url.Values{}
	if q.Query != "" {
		values.Set("q", q.Query)
	}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	endpoint := "/api/v1/products"
	if encoded := values.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var payload struct {
		Data []collection.Product `json:"data"`
	}
	header, err := c.getJSON(ctx, "products", endpoint, "", &payload)
	if err != nil {
		return ProductPage{}, err
	}
	page := ProductPage{Products: payload.Data, Total: int64(len(payload.Data))}
	if total := header.Get("X-Total-Count"); total != "" {
		if parsed, err := strconv.ParseInt(total, 10, 64); err == nil {
			page.Total = parsed
		}
	}
	return page, nil
}

// GetProduct fetches a single product by identifier or slug.
func (c *Client) GetProduct(ctx context.Context, id string) (collection.Product, error) {
	var payload struct {
		Data collection.Product `json:"data"`
	}
	_, err := c.getJSON(ctx, "product", "/api/v1/products/"+url.PathEscape(id), "", &payload)
	if err != nil {
		return collection.Product{}, err
	}
	return payload.Data, nil
}

// ListCategories fetches the category tree with parent links expanded.
func (c *Client) ListCategories(ctx context.Context) ([]category.Node, error) {
	var payload struct {
		Data []category.Node `json:"data"`
	}
	_, err := c.getJSON(ctx, "categories", "/api/v1/categories", "", &payload)
	if err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// GetCart fetches the caller's cart lines. The caller's bearer token is
// forwarded; the storefront holds no session of its own.
func (c *Client) GetCart(ctx context.Context, token string) ([]collection.Entry, error) {
	var payload struct {
		Data struct {
			Items []collection.Entry `json:"items"`
		} `json:"data"`
	}
	_, err := c.getJSON(ctx, "cart", "/api/v1/cart", token, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Data.Items, nil
}

// GetWishlist fetches the caller's wishlist entries.
func (c *Client) GetWishlist(ctx context.Context, token string) ([]collection.Entry, error) {
	var payload struct {
		Data []collection.Entry `json:"data"`
	}
	_, err := c.getJSON(ctx, "wishlist", "/api/v1/wishlist", token, &payload)
	if err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// Banner is a promotional banner record.
type Banner struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Image    string `json:"image"`
	Link     string `json:"link,omitempty"`
	Position int    `json:"position,omitempty"`
	Active   bool   `json:"isActive,omitempty"`
}

// ListBanners fetches the active promotional banners.
func (c *Client) ListBanners(ctx context.Context) ([]Banner, error) {
	var payload struct {
		Data []Banner `json:"data"`
	}
	_, err := c.getJSON(ctx, "banners", "/api/v1/banners", "", &payload)
	if err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// Coupon is a public coupon record. The discount value carries the same
// unit ambiguity as product discounts and goes through the normalizer
// before display.
type Coupon struct {
	ID       string  `json:"_id"`
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	MinSpend float64 `json:"minSpend,omitempty"`
	ExpireAt string  `json:"expireAt,omitempty"`
}

// ListCoupons fetches the publicly visible coupons.
func (c *Client) ListCoupons(ctx context.Context) ([]Coupon, error) {
	var payload struct {
		Data []Coupon `json:"data"`
	}
	_, err := c.getJSON(ctx, "coupons", "/api/v1/coupons", "", &payload)
	if err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// Ping probes the upstream health endpoint.
func (c *Client) Ping(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health/live", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, resource, endpoint, token string, dst any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID(ctx))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(ctx, req)
	c.observe(resource, start, resp, err)
	if err != nil {
		c.logger.Error().Err(err).Str("resource", resource).Str("endpoint", endpoint).Msg("upstream_request_failed")
		if errors.Is(err, resilience.ErrOpenCircuit) {
			return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn().Int("status", resp.StatusCode).Str("resource", resource).Bytes("body", body).Msg("upstream_error_response")
		return nil, fmt.Errorf("upstream: %s returned status %d", resource, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return nil, fmt.Errorf("upstream: decode %s response: %w", resource, err)
	}
	return resp.Header, nil
}

// requestID propagates the inbound request id to the backend so a page
// render can be correlated across both services. Calls made outside a
// request scope get a fresh id.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func (c *Client) observe(resource string, start time.Time, resp *http.Response, err error) {
	if obs.UpstreamLatency != nil {
		obs.UpstreamLatency.WithLabelValues(resource).Observe(obs.DurationMillis(time.Since(start)))
	}
	if obs.UpstreamRequestsTotal == nil {
		return
	}
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case resp.StatusCode >= 500:
		result = "5xx"
	case resp.StatusCode >= 400:
		result = "4xx"
	}
	obs.UpstreamRequestsTotal.WithLabelValues(resource, result).Inc()
}
