package pricing

import (
	"fmt"
	"math"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
)

// ValidateVariantPricing checks a price table before it is stored.
func ValidateVariantPricing(basePrice float64, table models.RolePricing) error {
	fields := map[string]string{}

	if math.IsNaN(basePrice) || math.IsInf(basePrice, 0) || basePrice < 0 {
		fields["base_price"] = "must be a non-negative amount"
	}
	if _, ok := table[models.RoleOthers]; !ok {
		fields["role_pricing.OTHERS"] = "default price is required"
	}
	for role, price := range table {
		key := fmt.Sprintf("role_pricing.%s", role)
		if !role.Valid() {
			fields[key] = "unknown role"
			continue
		}
		if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
			fields[key] = "must be a non-negative amount"
		}
	}

	if len(fields) > 0 {
		return apperr.Validation("invalid variant pricing", fields)
	}
	return nil
}
