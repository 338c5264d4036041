package orders

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/google/uuid"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/pricing"
)

// MaxLineQuantity caps the quantity of one checkout line.
const MaxLineQuantity = 50

// CheckoutLine is one requested variant.
type CheckoutLine struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required"`
}

// Checkout creates a PENDING order for customerID. Unit prices are resolved
// from the customer's role and college and frozen on the items.
func (s *Service) Checkout(ctx context.Context, customerID string, lines []CheckoutLine) (*models.Order, error) {
	if customerID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	lines, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.Profile(ctx, customerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:            uuid.New(),
		CustomerID:    customerID,
		Status:        models.OrderPending,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var total float64
	for i, line := range lines {
		variant, product, err := s.catalog.GetVariantWithProduct(ctx, line.VariantID)
		if err != nil {
			return nil, err
		}
		if variant.IsDeleted || product.IsDeleted {
			return nil, apperr.NotFound("variant " + line.VariantID.String())
		}
		if variant.Stock < line.Quantity {
			field := fmt.Sprintf("items[%d].quantity", i)
			return nil, apperr.Field(field, fmt.Sprintf("only %d left for %s", variant.Stock, product.Name))
		}

		price := pricing.Resolve(variant, customer.Role, customer.College, product.College)
		item := models.OrderItem{
			ID:            uuid.New(),
			OrderID:       order.ID,
			VariantID:     variant.ID,
			ProductName:   productLabel(product, variant),
			Quantity:      line.Quantity,
			UnitPrice:     price.Price,
			OriginalPrice: price.OriginalPrice,
			AppliedRole:   price.AppliedRole,
		}
		order.Items = append(order.Items, item)
		total += item.Subtotal()
	}
	order.TotalPrice = roundCents(total)

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}
	log.Printf("🛒 Order %s created for %s (%d items, %.2f)", order.ID, customerID, len(order.Items), order.TotalPrice)

	s.afterChange(ctx, order, models.EventOrderCreated, "", false)
	return order, nil
}

// mergeLines validates quantities and folds repeated variants into one line.
func mergeLines(lines []CheckoutLine) ([]CheckoutLine, error) {
	if len(lines) == 0 {
		return nil, apperr.Field("items", "at least one item is required")
	}

	index := make(map[uuid.UUID]int, len(lines))
	merged := make([]CheckoutLine, 0, len(lines))
	for i, line := range lines {
		if line.VariantID == uuid.Nil {
			return nil, apperr.Field(fmt.Sprintf("items[%d].variant_id", i), "required")
		}
		field := fmt.Sprintf("items[%d].quantity", i)
		if line.Quantity < 1 {
			return nil, apperr.Field(field, "must be at least 1")
		}
		if line.Quantity > MaxLineQuantity {
			return nil, apperr.Field(field, fmt.Sprintf("at most %d per variant", MaxLineQuantity))
		}
		at, ok := index[line.VariantID]
		if !ok {
			index[line.VariantID] = len(merged)
			merged = append(merged, line)
			continue
		}
		// both sides are bounded by MaxLineQuantity, so the sum cannot overflow
		merged[at].Quantity += line.Quantity
		if merged[at].Quantity > MaxLineQuantity {
			return nil, apperr.Field(field, fmt.Sprintf("at most %d per variant", MaxLineQuantity))
		}
	}
	return merged, nil
}

func productLabel(p *models.Product, v *models.ProductVariant) string {
	if v.Name == "" {
		return p.Name
	}
	return p.Name + " - " + v.Name
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
