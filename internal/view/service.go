package view

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/noah-isme/toko-storefront/internal/category"
	"github.com/noah-isme/toko-storefront/internal/collection"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/pricing"
	"github.com/noah-isme/toko-storefront/internal/upstream"
)

type upstreamAPI interface {
	ListProducts(ctx context.Context, q upstream.ProductQuery) (upstream.ProductPage, error)
	GetProduct(ctx context.Context, id string) (collection.Product, error)
	ListCategories(ctx context.Context) ([]category.Node, error)
	GetCart(ctx context.Context, token string) ([]collection.Entry, error)
	GetWishlist(ctx context.Context, token string) ([]collection.Entry, error)
	ListBanners(ctx context.Context) ([]upstream.Banner, error)
	ListCoupons(ctx context.Context) ([]upstream.Coupon, error)
}

// Service assembles normalized storefront views from raw upstream
// records. It owns the read path only: every mutation goes straight to
// the backend, never through here.
type Service struct {
	api          upstreamAPI
	cache        *Cache
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Upstream     upstreamAPI
	Cache        *Cache
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Upstream == nil {
		return nil, errors.New("view: upstream client is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage <= 0 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &Service{
		api:          cfg.Upstream,
		cache:        cfg.Cache,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ListParams captures the product listing filters.
type ListParams struct {
	Query    string
	Category string
	Page     int
	Limit    int
}

// ProductView is a product card with the price ambiguity resolved.
type ProductView struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Pricing  pricing.Normalized `json:"pricing"`
	Image    string             `json:"image,omitempty"`
	Images   []string           `json:"images,omitempty"`
	Category string             `json:"category"`
	InStock  bool               `json:"inStock"`
}

// ProductList is one page of product views.
type ProductList struct {
	Items []ProductView `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int64         `json:"total"`
}

// ListProducts returns a normalized page of products.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ProductList, error) {
	params = s.normalizeParams(params)
	key := listCacheKey(params)

	var cached ProductList
	if hit, err := s.cache.GetJSON(ctx, "products", key, &cached); err == nil && hit {
		return cached, nil
	}

	page, err := s.api.ListProducts(ctx, upstream.ProductQuery{
		Query:    params.Query,
		Category: params.Category,
		Page:     params.Page,
		Limit:    params.Limit,
	})
	if err != nil {
		return ProductList{}, err
	}

	result := ProductList{
		Items: make([]ProductView, 0, len(page.Products)),
		Page:  params.Page,
		Limit: params.Limit,
		Total: page.Total,
	}
	for _, p := range page.Products {
		result.Items = append(result.Items, s.productView(p))
	}

	_ = s.cache.SetJSON(ctx, key, result)
	return result, nil
}

// GetProduct returns a single normalized product view.
func (s *Service) GetProduct(ctx context.Context, id string) (ProductView, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ProductView{}, common.NewAppError("VALIDATION", "product id is required", http.StatusBadRequest, nil)
	}
	key := "view:product:" + id

	var cached ProductView
	if hit, err := s.cache.GetJSON(ctx, "product", key, &cached); err == nil && hit {
		return cached, nil
	}

	product, err := s.api.GetProduct(ctx, id)
	if err != nil {
		return ProductView{}, err
	}
	view := s.productView(product)
	_ = s.cache.SetJSON(ctx, key, view)
	return view, nil
}

// productView resolves the pricing and category ambiguities for a raw
// product record. List and detail prices arrive as the original price,
// so the sale price is derived from it.
func (s *Service) productView(p collection.Product) ProductView {
	view := ProductView{
		ID:       p.ID,
		Name:     p.Name,
		Pricing:  normalize(p.Price, p.Discount, pricing.ModeComputeSale),
		Images:   p.Images,
		Category: category.FlattenPath(p.Category),
		InStock:  collection.InStock(p),
	}
	if len(p.Images) > 0 {
		view.Image = p.Images[0]
	}
	return view
}

// CategoryView is a category with its flattened ancestor path.
type CategoryView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
	Path string `json:"path"`
}

// ListCategories returns every category with its breadcrumb path,
// ordered by path for stable rendering.
func (s *Service) ListCategories(ctx context.Context) ([]CategoryView, error) {
	const key = "view:categories"

	var cached []CategoryView
	if hit, err := s.cache.GetJSON(ctx, "categories", key, &cached); err == nil && hit {
		return cached, nil
	}

	nodes, err := s.api.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]CategoryView, 0, len(nodes))
	for i := range nodes {
		node := nodes[i]
		views = append(views, CategoryView{
			ID:   node.ID,
			Name: node.Name,
			Slug: node.Slug,
			Path: category.FlattenPath(&node),
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Path < views[j].Path })

	_ = s.cache.SetJSON(ctx, key, views)
	return views, nil
}

// ListBanners returns the active banners in display order.
func (s *Service) ListBanners(ctx context.Context) ([]upstream.Banner, error) {
	const key = "view:banners"

	var cached []upstream.Banner
	if hit, err := s.cache.GetJSON(ctx, "banners", key, &cached); err == nil && hit {
		return cached, nil
	}

	banners, err := s.api.ListBanners(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]upstream.Banner, 0, len(banners))
	for _, b := range banners {
		if b.Active {
			active = append(active, b)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Position < active[j].Position })

	_ = s.cache.SetJSON(ctx, key, active)
	return active, nil
}

// CouponView is a coupon with its discount unit resolved by the same
// heuristic products use.
type CouponView struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Discount     float64 `json:"discount"`
	DiscountUnit string  `json:"discountUnit"`
	MinSpend     float64 `json:"minSpend,omitempty"`
	ExpireAt     string  `json:"expireAt,omitempty"`
}

// ListCoupons returns the publicly visible coupons.
func (s *Service) ListCoupons(ctx context.Context) ([]CouponView, error) {
	const key = "view:coupons"

	var cached []CouponView
	if hit, err := s.cache.GetJSON(ctx, "coupons", key, &cached); err == nil && hit {
		return cached, nil
	}

	coupons, err := s.api.ListCoupons(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]CouponView, 0, len(coupons))
	for _, c := range coupons {
		views = append(views, CouponView{
			ID:           c.ID,
			Code:         c.Code,
			Discount:     c.Discount,
			DiscountUnit: pricing.BranchFor(c.Discount),
			MinSpend:     c.MinSpend,
			ExpireAt:     c.ExpireAt,
		})
	}

	_ = s.cache.SetJSON(ctx, key, views)
	return views, nil
}

// CollectionItem pairs a reconciled entry with its resolved pricing.
type CollectionItem struct {
	collection.Item
	Pricing pricing.Normalized `json:"pricing"`
}

// CollectionView is a rendered cart or wishlist.
type CollectionView struct {
	Items      []CollectionItem `json:"items"`
	TotalItems int              `json:"totalItems"`
	Subtotal   float64          `json:"subtotal"`
}

// Cart fetches and reconciles the caller's cart. User-scoped views are
// never cached; the caller's token is forwarded as-is.
func (s *Service) Cart(ctx context.Context, token string) (CollectionView, error) {
	entries, err := s.api.GetCart(ctx, token)
	if err != nil {
		return CollectionView{}, err
	}
	return s.reconcile("cart", entries), nil
}

// Wishlist fetches and reconciles the caller's wishlist.
func (s *Service) Wishlist(ctx context.Context, token string) (CollectionView, error) {
	entries, err := s.api.GetWishlist(ctx, token)
	if err != nil {
		return CollectionView{}, err
	}
	return s.reconcile("wishlist", entries), nil
}

func (s *Service) reconcile(name string, entries []collection.Entry) CollectionView {
	out := CollectionView{Items: make([]CollectionItem, 0, len(entries))}
	for _, e := range entries {
		if e.Status != collection.StatusActive {
			countReconcile(name, "dropped")
			continue
		}
		countReconcile(name, "kept")

		item := CollectionItem{Item: collection.ReconcileEntry(e)}
		if product, ok := e.Product.Value(); ok {
			item.Pricing = normalize(product.Price, product.Discount, pricing.ModeComputeSale)
		} else {
			item.Pricing = normalize(item.Price, 0, pricing.ModeComputeSale)
		}
		out.Items = append(out.Items, item)

		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		if item.InStock {
			out.Subtotal += item.Pricing.SalePrice * float64(qty)
		}
	}
	out.TotalItems = len(out.Items)
	return out
}

// Preview resolves one (price, discount, mode) triple. Backs the
// pricing preview endpoint used by the frontend and by support tooling.
func (s *Service) Preview(price, discount float64, mode pricing.Mode) pricing.Normalized {
	return normalize(price, discount, mode)
}

func (s *Service) normalizeParams(params ListParams) ListParams {
	if params.Page <= 0 {
		params.Page = s.defaultPage
	}
	if params.Limit <= 0 {
		params.Limit = s.defaultLimit
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}
	params.Query = strings.TrimSpace(params.Query)
	params.Category = strings.TrimSpace(params.Category)
	return params
}

func listCacheKey(params ListParams) string {
	return fmt.Sprintf("view:products:q=%s:c=%s:p=%d:l=%d", params.Query, params.Category, params.Page, params.Limit)
}

func normalize(price, discount float64, mode pricing.Mode) pricing.Normalized {
	if obs.PriceNormalizationsTotal != nil {
		obs.PriceNormalizationsTotal.WithLabelValues(mode.String(), pricing.BranchFor(discount)).Inc()
	}
	return pricing.Normalize(price, discount, mode)
}

func countReconcile(name, outcome string) {
	if obs.ReconcileEntriesTotal == nil {
		return
	}
	obs.ReconcileEntriesTotal.WithLabelValues(name, outcome).Inc()
}
