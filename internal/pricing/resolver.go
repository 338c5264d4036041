// Package pricing resolves the unit price a customer pays for a variant.
//
// Resolution never fails: missing or malformed pricing data falls back to
// the default price so a checkout is never blocked by pricing.
package pricing

import (
	"math"

	"unimerch_back_end/internal/models"
)

// Result is the outcome of a price resolution.
type Result struct {
	Price           float64             `json:"price"`
	AppliedRole     models.CustomerRole `json:"applied_role"`
	OriginalPrice   float64             `json:"original_price"`
	DiscountPercent int                 `json:"discount_percent,omitempty"`
}

// Resolve picks the price of variant for a customer. The role-specific price
// applies only when the customer's college owns the product and is not
// NOT_APPLICABLE.
func Resolve(variant *models.ProductVariant, role models.CustomerRole, customerCollege, productCollege models.College) Result {
	if variant == nil {
		return Result{AppliedRole: models.RoleOthers}
	}

	defaultPrice, ok := variant.RolePricing.Default()
	if !ok {
		return fallback(variant.BasePrice)
	}

	result := fallback(defaultPrice)
	if role == "" || customerCollege == "" {
		return result
	}
	if customerCollege != productCollege || customerCollege == models.CollegeNotApplicable {
		return result
	}

	rolePrice, ok := variant.RolePricing.Lookup(role)
	if !ok {
		return result
	}

	result.Price = rolePrice
	result.AppliedRole = role
	result.DiscountPercent = discountPercent(defaultPrice, rolePrice)
	return result
}

func fallback(price float64) Result {
	return Result{Price: price, AppliedRole: models.RoleOthers, OriginalPrice: price}
}

func discountPercent(original, price float64) int {
	if original <= 0 {
		return 0
	}
	pct := int(math.Round((original - price) / original * 100))
	if pct <= 0 {
		return 0
	}
	return pct
}
