package inventory

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/permissions"
	"unimerch_back_end/internal/pricing"
)

type ProductInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	College     models.College `json:"college"`
	Tags        []string       `json:"tags"`
}

type VariantInput struct {
	SKU         string             `json:"sku"`
	Name        string             `json:"name"`
	BasePrice   float64            `json:"base_price"`
	RolePricing models.RolePricing `json:"role_pricing"`
	Stock       int                `json:"stock"`
}

func (in ProductInput) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "required"
	}
	if models.NormalizeCollege(in.College) == "" {
		fields["college"] = "required, use NOT_APPLICABLE for products without a college"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid product", fields)
	}
	return nil
}

func (in VariantInput) validate(requireSKU bool) error {
	if err := pricing.ValidateVariantPricing(in.BasePrice, in.RolePricing); err != nil {
		return err
	}
	fields := map[string]string{}
	if requireSKU && strings.TrimSpace(in.SKU) == "" {
		fields["sku"] = "required"
	}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "required"
	}
	if in.Stock < 0 {
		fields["stock"] = "must not be negative"
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid variant", fields)
	}
	return nil
}

// CreateProduct adds a product without variants. Needs inventory.canCreate.
func (s *Service) CreateProduct(ctx context.Context, actor permissions.Actor, in ProductInput) (*models.Product, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionProductCreate, "", permissions.InventoryCreate); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := s.now()
	p := &models.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		College:     models.NormalizeCollege(in.College),
		Tags:        in.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("✅ Product created: %s (%s)", p.Name, p.ID)
	s.reindex(ctx, p.ID)
	return p, nil
}

// CreateVariant adds a variant to a live product.
func (s *Service) CreateVariant(ctx context.Context, actor permissions.Actor, productID uuid.UUID, in VariantInput) (*models.ProductVariant, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionVariantCreate, productID.String(), permissions.InventoryCreate); err != nil {
		return nil, err
	}
	if err := in.validate(true); err != nil {
		return nil, err
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	now := s.now()
	v := &models.ProductVariant{
		ID:          uuid.New(),
		ProductID:   productID,
		SKU:         strings.TrimSpace(in.SKU),
		Name:        strings.TrimSpace(in.Name),
		BasePrice:   in.BasePrice,
		RolePricing: in.RolePricing,
		Stock:       in.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.CreateVariant(ctx, v); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Field("sku", "already used by another variant")
		}
		return nil, err
	}
	s.reindex(ctx, productID)
	return v, nil
}

// UpdateVariant replaces the name, prices and stock of a live variant. The
// SKU never changes.
func (s *Service) UpdateVariant(ctx context.Context, actor permissions.Actor, variantID uuid.UUID, in VariantInput) (*models.ProductVariant, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionVariantUpdate, variantID.String(), permissions.InventoryUpdate); err != nil {
		return nil, err
	}
	if err := in.validate(false); err != nil {
		return nil, err
	}
	v, p, err := s.products.GetVariantWithProduct(ctx, variantID)
	if err != nil {
		return nil, err
	}
	if v.IsDeleted || p.IsDeleted {
		return nil, apperr.NotFound("variant")
	}
	v.Name = strings.TrimSpace(in.Name)
	v.BasePrice = in.BasePrice
	v.RolePricing = in.RolePricing
	v.Stock = in.Stock
	v.UpdatedAt = s.now()
	if err := s.products.UpdateVariant(ctx, v); err != nil {
		return nil, err
	}
	s.reindex(ctx, p.ID)
	return v, nil
}

// DeleteVariant tombstones a variant. Orders already placed keep their items.
func (s *Service) DeleteVariant(ctx context.Context, actor permissions.Actor, variantID uuid.UUID) error {
	if err := s.gate.Authorize(ctx, actor, models.ActionVariantDelete, variantID.String(), permissions.InventoryDelete); err != nil {
		return err
	}
	_, p, err := s.products.GetVariantWithProduct(ctx, variantID)
	if err != nil {
		return err
	}
	if err := s.products.DeleteVariant(ctx, variantID, s.now()); err != nil {
		return err
	}
	s.reindex(ctx, p.ID)
	return nil
}

// UploadImage stores a picture and appends its key to the product.
func (s *Service) UploadImage(ctx context.Context, actor permissions.Actor, productID uuid.UUID, r io.Reader, size int64, contentType string) (string, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionProductImage, productID.String(), permissions.InventoryUpdate); err != nil {
		return "", err
	}
	if s.images == nil {
		return "", apperr.Validation("image storage is not configured", nil)
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return "", err
	}
	key, err := s.images.Upload(ctx, productID, r, size, contentType)
	if err != nil {
		return "", err
	}
	if err := s.products.AddProductImage(ctx, productID, key, s.now()); err != nil {
		return "", err
	}
	u, err := s.images.SignedURL(ctx, key, imageURLTTL)
	if err != nil {
		log.Printf("⚠️ Signing image %s failed: %v", key, err)
		return key, nil
	}
	return u, nil
}

// reindex pushes the current product to the search index in the background.
func (s *Service) reindex(ctx context.Context, productID uuid.UUID) {
	if s.index == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	s.async(func() {
		p, err := s.products.GetProduct(bg, productID)
		if err != nil {
			log.Printf("⚠️ Reindex of product %s skipped: %v", productID, err)
			return
		}
		if err := s.index.Index(bg, p); err != nil {
			log.Printf("❌ Reindex of product %s failed: %v", productID, err)
		}
	})
}
