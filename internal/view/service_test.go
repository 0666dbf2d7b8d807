package view

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/category"
	"github.com/noah-isme/toko-storefront/internal/collection"
	"github.com/noah-isme/toko-storefront/internal/upstream"
)

type stubUpstream struct {
	products   []collection.Product
	total      int64
	product    collection.Product
	productErr error
	categories []category.Node
	cart       []collection.Entry
	wishlist   []collection.Entry
	banners    []upstream.Banner
	coupons    []upstream.Coupon

	listCalls int
}

func (s *stubUpstream) ListProducts(context.Context, upstream.ProductQuery) (upstream.ProductPage, error) {
	s.listCalls++
	return upstream.ProductPage{Products: s.products, Total: s.total}, nil
}

func (s *stubUpstream) GetProduct(context.Context, string) (collection.Product, error) {
	return s.product, s.productErr
}

func (s *stubUpstream) ListCategories(context.Context) ([]category.Node, error) {
	return s.categories, nil
}

func (s *stubUpstream) GetCart(context.Context, string) ([]collection.Entry, error) {
	return s.cart, nil
}

func (s *stubUpstream) GetWishlist(context.Context, string) ([]collection.Entry, error) {
	return s.wishlist, nil
}

func (s *stubUpstream) ListBanners(context.Context) ([]upstream.Banner, error) {
	return s.banners, nil
}

func (s *stubUpstream) ListCoupons(context.Context) ([]upstream.Coupon, error) {
	return s.coupons, nil
}

func newTestService(t *testing.T, stub *stubUpstream, withCache bool) *Service {
	t.Helper()
	var cache *Cache
	if withCache {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		cache = NewCache(client, time.Minute)
	}
	svc, err := NewService(ServiceConfig{Upstream: stub, Cache: cache})
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresUpstream(t *testing.T) {
	_, err := NewService(ServiceConfig{})
	require.Error(t, err)
}

func TestListProductsNormalizesPricing(t *testing.T) {
	stock := 3
	stub := &stubUpstream{
		products: []collection.Product{
			{
				ID:            "p1",
				Name:          "Kemeja Flanel",
				Price:         200000,
				Discount:      25,
				Status:        "active",
				StockQuantity: &stock,
				Images:        []string{"flanel-front.jpg", "flanel-back.jpg"},
				Category: &category.Node{Name: "Kemeja", Parent: &category.Node{
					Name: "Pakaian Pria", Parent: &category.Node{Name: "Fashion"},
				}},
			},
			{ID: "p2", Name: "Celana Chino", Price: 150000, Discount: 50000, Status: "active"},
		},
		total: 2,
	}
	svc := newTestService(t, stub, false)

	result, err := svc.ListProducts(context.Background(), ListParams{})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)

	flanel := result.Items[0]
	require.Equal(t, float64(200000), flanel.Pricing.OriginalPrice)
	require.Equal(t, float64(150000), flanel.Pricing.SalePrice)
	require.Equal(t, 25, flanel.Pricing.DiscountPercentage)
	require.Equal(t, "flanel-front.jpg", flanel.Image)
	require.Equal(t, "Fashion > Pakaian Pria > Kemeja", flanel.Category)
	require.True(t, flanel.InStock)

	chino := result.Items[1]
	require.Equal(t, float64(100000), chino.Pricing.SalePrice)
	require.Equal(t, float64(50000), chino.Pricing.SaveAmount)
}

func TestListProductsServesFromCache(t *testing.T) {
	stub := &stubUpstream{
		products: []collection.Product{{ID: "p1", Name: "Topi", Price: 40000, Status: "active"}},
		total:    1,
	}
	svc := newTestService(t, stub, true)

	first, err := svc.ListProducts(context.Background(), ListParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	second, err := svc.ListProducts(context.Background(), ListParams{Page: 1, Limit: 20})
	require.NoError(t, err)

	require.Equal(t, 1, stub.listCalls)
	require.Equal(t, first, second)
}

func TestGetProductPropagatesNotFound(t *testing.T) {
	stub := &stubUpstream{productErr: upstream.ErrNotFound}
	svc := newTestService(t, stub, false)

	_, err := svc.GetProduct(context.Background(), "missing")
	require.ErrorIs(t, err, upstream.ErrNotFound)
}

func TestGetProductRejectsEmptyID(t *testing.T) {
	svc := newTestService(t, &stubUpstream{}, false)

	_, err := svc.GetProduct(context.Background(), "  ")
	require.Error(t, err)
}

func TestListCategoriesFlattensAndSorts(t *testing.T) {
	electronics := category.Node{ID: "c1", Name: "Electronics"}
	stub := &stubUpstream{categories: []category.Node{
		{ID: "c2", Name: "Phones", Parent: &electronics},
		electronics,
	}}
	svc := newTestService(t, stub, false)

	views, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, "Electronics", views[0].Path)
	require.Equal(t, "Electronics > Phones", views[1].Path)
}

func TestListBannersFiltersAndOrders(t *testing.T) {
	stub := &stubUpstream{banners: []upstream.Banner{
		{ID: "b2", Title: "Flash Sale", Position: 2, Active: true},
		{ID: "b3", Title: "Hidden", Position: 0, Active: false},
		{ID: "b1", Title: "New Arrivals", Position: 1, Active: true},
	}}
	svc := newTestService(t, stub, false)

	banners, err := svc.ListBanners(context.Background())
	require.NoError(t, err)
	require.Len(t, banners, 2)
	require.Equal(t, "b1", banners[0].ID)
	require.Equal(t, "b2", banners[1].ID)
}

func TestListCouponsResolvesDiscountUnit(t *testing.T) {
	stub := &stubUpstream{coupons: []upstream.Coupon{
		{ID: "k1", Code: "HEMAT10", Discount: 10},
		{ID: "k2", Code: "POTONGAN20K", Discount: 20000},
	}}
	svc := newTestService(t, stub, false)

	coupons, err := svc.ListCoupons(context.Background())
	require.NoError(t, err)
	require.Equal(t, "percent", coupons[0].DiscountUnit)
	require.Equal(t, "absolute", coupons[1].DiscountUnit)
}

func TestCartDropsInactiveAndComputesSubtotal(t *testing.T) {
	stock := 0
	stub := &stubUpstream{cart: []collection.Entry{
		{
			ID:       "line1",
			Status:   "active",
			Quantity: 2,
			Product: collection.Populated(collection.Product{
				ID: "p1", Name: "Sepatu", Price: 100000, Discount: 10, Status: "active",
			}),
			Seller: collection.Populated(collection.Seller{ID: "s1", ShopName: "Toko Sepatu"}),
		},
		{
			ID:       "line2",
			Status:   "removed",
			Quantity: 1,
			Product:  collection.Reference[collection.Product]("p2"),
		},
		{
			ID:       "line3",
			Status:   "active",
			Quantity: 1,
			Product: collection.Populated(collection.Product{
				ID: "p3", Name: "Kaos", Price: 50000, Status: "active", StockQuantity: &stock,
			}),
			Seller: collection.Reference[collection.Seller]("s2"),
		},
	}}
	svc := newTestService(t, stub, false)

	cart, err := svc.Cart(context.Background(), "token")
	require.NoError(t, err)
	require.Equal(t, 2, cart.TotalItems)

	require.Equal(t, "Toko Sepatu", cart.Items[0].SellerName)
	require.Equal(t, float64(90000), cart.Items[0].Pricing.SalePrice)

	// Out-of-stock lines stay visible but do not contribute to the subtotal.
	require.False(t, cart.Items[1].InStock)
	require.Equal(t, "Store", cart.Items[1].SellerName)
	require.Equal(t, float64(180000), cart.Subtotal)
}

func TestWishlistKeepsUnpopulatedReferences(t *testing.T) {
	stub := &stubUpstream{wishlist: []collection.Entry{
		{ID: "w1", Status: "active", Product: collection.Reference[collection.Product]("p9")},
	}}
	svc := newTestService(t, stub, false)

	wl, err := svc.Wishlist(context.Background(), "token")
	require.NoError(t, err)
	require.Len(t, wl.Items, 1)
	require.Equal(t, "p9", wl.Items[0].ID)
	require.False(t, wl.Items[0].InStock)
}
