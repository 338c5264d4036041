package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID        `json:"id" db:"product_id"`
	Name        string           `json:"name" db:"name"`
	Description string           `json:"description" db:"description"`
	College     College          `json:"college" db:"college"`
	ImageURLs   []string         `json:"image_urls" db:"image_urls"`
	Tags        []string         `json:"tags" db:"tags"`
	IsDeleted   bool             `json:"-" db:"is_deleted"`
	Variants    []ProductVariant `json:"variants,omitempty"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

type ProductVariant struct {
	ID          uuid.UUID   `json:"id" db:"variant_id"`
	ProductID   uuid.UUID   `json:"product_id" db:"product_id"`
	SKU         string      `json:"sku" db:"sku"`
	Name        string      `json:"name" db:"name"`
	BasePrice   float64     `json:"base_price" db:"base_price"`
	RolePricing RolePricing `json:"role_pricing" db:"role_pricing"`
	Stock       int         `json:"stock" db:"stock"`
	IsDeleted   bool        `json:"-" db:"is_deleted"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// RolePricing is the role-keyed price table of a variant. The OTHERS entry is
// the default price.
type RolePricing map[CustomerRole]float64

// Lookup returns the price for role when it is a usable amount.
func (p RolePricing) Lookup(role CustomerRole) (float64, bool) {
	if p == nil {
		return 0, false
	}
	price, ok := p[role]
	if !ok || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0, false
	}
	return price, true
}

// Default returns the OTHERS price.
func (p RolePricing) Default() (float64, bool) {
	return p.Lookup(RoleOthers)
}

// UnmarshalJSON keeps only entries holding finite numbers. Anything else is
// dropped so a malformed table degrades instead of failing the read.
func (p *RolePricing) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*p = nil
		return nil
	}
	out := make(RolePricing, len(raw))
	for key, value := range raw {
		price, ok := value.(float64)
		if !ok || math.IsNaN(price) || math.IsInf(price, 0) {
			continue
		}
		out[CustomerRole(key)] = price
	}
	*p = out
	return nil
}

// Scan reads a jsonb column.
func (p *RolePricing) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		return p.UnmarshalJSON(v)
	case string:
		return p.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("role pricing: unsupported column type %T", src)
	}
}

// Value writes a jsonb column.
func (p RolePricing) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	raw := make(map[string]float64, len(p))
	for role, price := range p {
		raw[string(role)] = price
	}
	return json.Marshal(raw)
}
