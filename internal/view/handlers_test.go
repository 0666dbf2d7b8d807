package view

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/collection"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/upstream"
)

func newTestRouter(t *testing.T, stub *stubUpstream) *chi.Mux {
	t.Helper()
	svc := newTestService(t, stub, false)
	h := NewHandler(HandlerConfig{Service: svc})

	r := chi.NewRouter()
	r.Get("/api/v1/products", h.Products)
	r.Get("/api/v1/products/{id}", h.ProductDetail)
	r.Get("/api/v1/categories", h.Categories)
	r.Get("/api/v1/banners", h.Banners)
	r.Get("/api/v1/coupons", h.Coupons)
	r.Get("/api/v1/cart", h.Cart)
	r.Get("/api/v1/wishlist", h.Wishlist)
	r.Post("/api/v1/pricing/preview", h.PricingPreview)
	return r
}

func TestProductsEndpointSetsTotalHeader(t *testing.T) {
	stub := &stubUpstream{
		products: []collection.Product{{ID: "p1", Name: "Tas", Price: 75000, Status: "active"}},
		total:    41,
	}
	router := newTestRouter(t, stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?page=2&limit=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "41", rec.Header().Get("X-Total-Count"))

	var body struct {
		Data       []ProductView     `json:"data"`
		Pagination common.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, 2, body.Pagination.Page)
	require.Equal(t, 10, body.Pagination.PerPage)
}

func TestProductDetailNotFound(t *testing.T) {
	stub := &stubUpstream{productErr: upstream.ErrNotFound}
	router := newTestRouter(t, stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestCartRequiresSession(t *testing.T) {
	router := newTestRouter(t, &stubUpstream{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartWithSession(t *testing.T) {
	stub := &stubUpstream{cart: []collection.Entry{
		{
			ID:       "line1",
			Status:   "active",
			Quantity: 1,
			Product:  collection.Populated(collection.Product{ID: "p1", Name: "Jaket", Price: 300000, Status: "active"}),
			Seller:   collection.Populated(collection.Seller{ID: "s1", Name: "Budi"}),
		},
	}}
	router := newTestRouter(t, stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req = req.WithContext(common.WithSession(req.Context(), common.Session{UserID: "u1", Token: "tok"}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data CollectionView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Data.TotalItems)
	require.Equal(t, "Budi", body.Data.Items[0].SellerName)
	require.Equal(t, float64(300000), body.Data.Subtotal)
}

func TestPricingPreview(t *testing.T) {
	router := newTestRouter(t, &stubUpstream{})

	payload := `{"price":90,"discount":10,"mode":"reconstructOriginal"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/pricing/preview", strings.NewReader(payload)))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			OriginalPrice      float64 `json:"originalPrice"`
			SalePrice          float64 `json:"salePrice"`
			DiscountPercentage int     `json:"discountPercentage"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(100), body.Data.OriginalPrice)
	require.Equal(t, float64(90), body.Data.SalePrice)
	require.Equal(t, 10, body.Data.DiscountPercentage)
}

func TestPricingPreviewRejectsUnknownMode(t *testing.T) {
	router := newTestRouter(t, &stubUpstream{})

	payload := `{"price":90,"discount":10,"mode":"guess"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/pricing/preview", strings.NewReader(payload)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION")
}

func TestPricingPreviewRejectsMalformedJSON(t *testing.T) {
	router := newTestRouter(t, &stubUpstream{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/pricing/preview", strings.NewReader("{")))

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
