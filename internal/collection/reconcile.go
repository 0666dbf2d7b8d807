package collection

import (
	"strings"

	"github.com/noah-isme/toko-storefront/internal/category"
)

// StatusActive is the only entry lifecycle state the storefront renders.
const StatusActive = "active"

// Product is the raw product payload nested inside cart and wishlist
// entries. Fields are optional because the upstream populates them
// inconsistently across endpoints.
type Product struct {
	ID            string         `json:"_id"`
	Name          string         `json:"name"`
	Price         float64        `json:"price"`
	Discount      float64        `json:"discount,omitempty"`
	Status        string         `json:"status,omitempty"`
	StockQuantity *int           `json:"stockQuantity,omitempty"`
	Images        []string       `json:"images,omitempty"`
	Category      *category.Node `json:"category,omitempty"`
}

// Seller is the raw seller payload. Marketplace sellers use shopName,
// first-party listings only carry name.
type Seller struct {
	ID       string `json:"_id"`
	ShopName string `json:"shopName,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Entry is one raw cart line or wishlist entry as returned upstream.
type Entry struct {
	ID       string       `json:"_id"`
	Status   string       `json:"status,omitempty"`
	Quantity int          `json:"quantity,omitempty"`
	Product  Ref[Product] `json:"product"`
	Seller   Ref[Seller]  `json:"seller"`
}

// Item is the flat view model a reconciled entry collapses to. Every
// fallback has been applied; rendering code reads it verbatim.
type Item struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity,omitempty"`
	Image      string  `json:"image,omitempty"`
	Category   string  `json:"category"`
	InStock    bool    `json:"inStock"`
	SellerName string  `json:"sellerName"`
	SellerID   string  `json:"sellerId,omitempty"`
}

// Reconcile filters entries to the active lifecycle state and flattens
// each into an Item. Entries in other states are dropped silently; this
// is a display filter, the upstream record is untouched.
func Reconcile(entries []Entry) []Item {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		if e.Status != StatusActive {
			continue
		}
		items = append(items, ReconcileEntry(e))
	}
	return items
}

// ReconcileEntry flattens a single entry without the status filter.
// Callers that need to pair the item with its raw product record use
// this directly.
func ReconcileEntry(e Entry) Item {
	item := Item{
		Quantity:   e.Quantity,
		Category:   category.Uncategorized,
		SellerName: resolveSellerName(e.Seller),
	}
	if seller, ok := e.Seller.Value(); ok {
		item.SellerID = seller.ID
	} else {
		item.SellerID = e.Seller.ID()
	}

	product, ok := e.Product.Value()
	if !ok {
		// Relation not expanded: the raw reference is all we have.
		item.ID = e.Product.ID()
		return item
	}

	item.ID = product.ID
	if item.ID == "" {
		item.ID = e.Product.ID()
	}
	item.Name = product.Name
	item.Price = product.Price
	if len(product.Images) > 0 {
		item.Image = product.Images[0]
	}
	item.Category = category.FlattenPath(product.Category)
	item.InStock = InStock(product)
	return item
}

// InStock applies the conservative stock rule: the product must be
// explicitly active, and any reported stock quantity must be positive.
// A product without a status field counts as out of stock.
func InStock(p Product) bool {
	if p.Status != StatusActive {
		return false
	}
	return p.StockQuantity == nil || *p.StockQuantity > 0
}

func resolveSellerName(ref Ref[Seller]) string {
	if seller, ok := ref.Value(); ok {
		if name := strings.TrimSpace(seller.ShopName); name != "" {
			return name
		}
		if name := strings.TrimSpace(seller.Name); name != "" {
			return name
		}
		return "Unknown Seller"
	}
	if ref.ID() != "" {
		return "Store"
	}
	return "Unknown Seller"
}
