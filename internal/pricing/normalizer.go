package pricing

import "math"

// Mode selects how a percentage discount relates to the supplied price.
// Upstream records carry both shapes and give no hint which one applies,
// so the caller must state it explicitly.
type Mode int

const (
	// ModeComputeSale treats the supplied price as the original price and
	// derives the sale price from it.
	ModeComputeSale Mode = iota
	// ModeReconstructOriginal treats the supplied price as already
	// discounted and reconstructs the original price.
	ModeReconstructOriginal
)

func (m Mode) String() string {
	switch m {
	case ModeReconstructOriginal:
		return "reconstruct_original"
	case ModeComputeSale:
		return "compute_sale"
	default:
		return "unknown"
	}
}

// Normalized is the canonical price tuple derived from an ambiguous
// (price, discount) pair. Invariants: 0 <= SalePrice <= OriginalPrice,
// 0 <= DiscountPercentage <= 100, SaveAmount == OriginalPrice - SalePrice.
type Normalized struct {
	OriginalPrice      float64 `json:"originalPrice"`
	SalePrice          float64 `json:"salePrice"`
	DiscountPercentage int     `json:"discountPercentage"`
	SaveAmount         float64 `json:"saveAmount"`
}

// Normalize resolves the discount unit ambiguity in upstream product
// records and returns a consistent price tuple.
//
// The interpretation policy mirrors what the marketplace backend emits:
// a discount in (0, 100] is a percentage, anything above 100 is an
// absolute currency amount off the given price. Values of 100 or less
// that were meant as currency amounts cannot be told apart from
// percentages here; the backend would need an explicit discountType
// field to remove the heuristic.
//
// Normalize never panics and never returns non-finite numbers; malformed
// input degrades to the undiscounted tuple.
func Normalize(price, discount float64, mode Mode) Normalized {
	price = sanitize(price)
	discount = sanitize(discount)

	if discount <= 0 {
		return Normalized{OriginalPrice: price, SalePrice: price}
	}

	var n Normalized
	switch {
	case discount <= 100:
		frac := discount / 100
		if mode == ModeReconstructOriginal {
			n.SalePrice = price
			if frac < 1 {
				n.OriginalPrice = price / (1 - frac)
			} else {
				// A 100% discount leaves no original to reconstruct.
				n.OriginalPrice = price
			}
		} else {
			n.OriginalPrice = price
			n.SalePrice = price - price*frac
		}
	default:
		// Absolute amount off the original price.
		n.OriginalPrice = price
		n.SalePrice = price - discount
		if n.SalePrice < 0 {
			n.SalePrice = 0
		}
		if discount > price {
			n.SaveAmount = n.OriginalPrice
			n.DiscountPercentage = 100
			return clampFinite(n)
		}
	}

	return clampFinite(n)
}

// BranchFor names the heuristic branch a discount value falls into:
// "none", "percent" or "absolute". Used for metric labels and for
// presenting coupon discounts with their resolved unit.
func BranchFor(discount float64) string {
	discount = sanitize(discount)
	switch {
	case discount <= 0:
		return "none"
	case discount <= 100:
		return "percent"
	default:
		return "absolute"
	}
}

// clampFinite enforces the output invariants and recomputes the derived
// fields. It is the single exit path for every discounted branch.
func clampFinite(n Normalized) Normalized {
	n.OriginalPrice = sanitize(n.OriginalPrice)
	n.SalePrice = sanitize(n.SalePrice)
	if n.SalePrice > n.OriginalPrice {
		n.SalePrice = n.OriginalPrice
	}
	n.SaveAmount = n.OriginalPrice - n.SalePrice
	if n.DiscountPercentage == 0 && n.OriginalPrice > 0 {
		n.DiscountPercentage = int(math.Round(n.SaveAmount / n.OriginalPrice * 100))
	}
	if n.DiscountPercentage < 0 {
		n.DiscountPercentage = 0
	}
	if n.DiscountPercentage > 100 {
		n.DiscountPercentage = 100
	}
	return n
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
