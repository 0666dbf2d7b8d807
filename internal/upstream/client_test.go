package upstream_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/upstream"
)

func newTestClient(t *testing.T, handler http.Handler) *upstream.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := upstream.NewClient(upstream.ClientConfig{
		BaseURL:     srv.URL,
		Timeout:     2 * time.Second,
		MaxAttempts: 1,
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := upstream.NewClient(upstream.ClientConfig{})
	require.Error(t, err)
}

func TestListProductsReadsTotalHeader(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/products", r.URL.Path)
		require.Equal(t, "sepatu", r.URL.Query().Get("q"))
		require.Equal(t, "2", r.URL.Query().Get("page"))
		w.Header().Set("X-Total-Count", "57")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"_id":"p1","name":"Sepatu Lari","price":250000,"status":"active"}]}`))
	}))

	page, err := client.ListProducts(context.Background(), upstream.ProductQuery{Query: "sepatu", Page: 2, Limit: 20})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	require.Equal(t, int64(57), page.Total)
	require.Equal(t, "p1", page.Products[0].ID)
}

func TestListProductsTotalFallsBackToPageSize(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"_id":"a"},{"_id":"b"}]}`))
	}))

	page, err := client.ListProducts(context.Background(), upstream.ProductQuery{})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.Total)
}

func TestGetProductNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetProduct(context.Background(), "missing")
	require.ErrorIs(t, err, upstream.ErrNotFound)
}

func TestGetCartForwardsBearerToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{"data":{"items":[{"_id":"line1","status":"active","quantity":2,"product":"ref-1"}]}}`))
	}))

	items, err := client.GetCart(context.Background(), "token-123")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 2, items[0].Quantity)
	require.Equal(t, "ref-1", items[0].Product.ID())
}

func TestServerErrorIsReported(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.ListCategories(context.Background())
	require.ErrorIs(t, err, upstream.ErrUnavailable)
}

func TestPing(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health/live" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	require.NoError(t, client.Ping(context.Background(), time.Second))
}
