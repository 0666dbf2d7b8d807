package view

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/pricing"
	"github.com/noah-isme/toko-storefront/internal/upstream"
)

// Handler exposes the storefront view endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		service:  cfg.Service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "view service not configured", nil)
		return
	}
	page, limit := common.ParsePagination(r, h.service.defaultLimit, h.service.maxLimit)
	result, err := h.service.ListProducts(r.Context(), ListParams{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(result.Total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       result.Items,
		"pagination": common.Pagination{Page: result.Page, PerPage: result.Limit, TotalItems: int(result.Total)},
	})
}

// ProductDetail handles GET /api/v1/products/{id}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "view service not configured", nil)
		return
	}
	view, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "view service not configured", nil)
		return
	}
	views, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": views})
}

// Banners handles GET /api/v1/banners.
func (h *Handler) Banners(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "view service not configured", nil)
		return
	}
	banners, err := h.service.ListBanners(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": banners})
}

// Coupons handles GET /api/v1/coupons.
func (h *Handler) Coupons(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "view service not configured", nil)
		return
	}
	coupons, err := h.service.ListCoupons(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": coupons})
}

// Cart handles GET /api/v1/cart. Requires an authenticated session.
func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	h.collection(w, r, (*Service).Cart)
}

// Wishlist handles GET /api/v1/wishlist. Requires an authenticated session.
func (h *Handler) Wishlist(w http.ResponseWriter, r *http.Request) {
	h.collection(w, r, (*Service).Wishlist)
}

func (h *Handler) collection(w http.ResponseWriter, r *http.Request, fetch func(*Service, context.Context, string) (CollectionView, error)) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "view service not configured", nil)
		return
	}
	session, ok := common.SessionFromContext(r.Context())
	if !ok || session.Token == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	view, err := fetch(h.service, r.Context(), session.Token)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// previewRequest is the payload for POST /api/v1/pricing/preview.
type previewRequest struct {
	Price    float64 `json:"price" validate:"min=0"`
	Discount float64 `json:"discount"`
	Mode     string  `json:"mode" validate:"omitempty,oneof=computeSale reconstructOriginal"`
}

// PricingPreview handles POST /api/v1/pricing/preview.
func (h *Handler) PricingPreview(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "view service not configured", nil)
		return
	}
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON payload", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid preview request", err.Error())
		return
	}
	mode := pricing.ModeComputeSale
	if req.Mode == "reconstructOriginal" {
		mode = pricing.ModeReconstructOriginal
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.service.Preview(req.Price, req.Discount, mode)})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, upstream.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
	case errors.Is(err, upstream.ErrUnavailable):
		common.JSONError(w, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "marketplace API unavailable", nil)
	default:
		common.WriteAppError(w, err)
	}
}
