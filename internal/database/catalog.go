package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"unimerch_back_end/internal/models"
)

const productColumns = `product_id, name, description, college, image_urls, tags, is_deleted, created_at, updated_at`

const variantColumns = `variant_id, product_id, sku, name, base_price, role_pricing, stock, is_deleted, created_at, updated_at`

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.College, pq.Array(&p.ImageURLs), pq.Array(&p.Tags), &p.IsDeleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanVariant(row rowScanner) (*models.ProductVariant, error) {
	var v models.ProductVariant
	err := row.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Name, &v.BasePrice, &v.RolePricing, &v.Stock, &v.IsDeleted, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVariantWithProduct loads a variant and its product, deleted or not.
func (s *Store) GetVariantWithProduct(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, *models.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE variant_id = $1`, variantID)
	variant, err := scanVariant(row)
	if err != nil {
		return nil, nil, notFound("get variant", "variant", err)
	}
	row = s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE product_id = $1`, variant.ProductID)
	product, err := scanProduct(row)
	if err != nil {
		return nil, nil, notFound("get product", "product", err)
	}
	return variant, product, nil
}

// ListProducts returns live products, newest first, without variants.
func (s *Store) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_deleted = FALSE ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, wrap("list products", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, wrap("scan product", err)
		}
		products = append(products, *p)
	}
	return products, wrap("list products", rows.Err())
}

// GetProduct returns a live product with its live variants.
func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE product_id = $1 AND is_deleted = FALSE`, id)
	product, err := scanProduct(row)
	if err != nil {
		return nil, notFound("get product", "product", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+variantColumns+` FROM product_variants WHERE product_id = $1 AND is_deleted = FALSE ORDER BY name`, id)
	if err != nil {
		return nil, wrap("get variants", err)
	}
	defer rows.Close()
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, wrap("scan variant", err)
		}
		product.Variants = append(product.Variants, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("get variants", err)
	}
	return product, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8)`,
		p.ID, p.Name, p.Description, p.College, pq.Array(emptyIfNil(p.ImageURLs)), pq.Array(emptyIfNil(p.Tags)), p.CreatedAt, p.UpdatedAt)
	return wrap("create product", err)
}

func (s *Store) CreateVariant(ctx context.Context, v *models.ProductVariant) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO product_variants (`+variantColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, $9)`,
		v.ID, v.ProductID, v.SKU, v.Name, v.BasePrice, v.RolePricing, v.Stock, v.CreatedAt, v.UpdatedAt)
	return wrap("create variant", err)
}

// UpdateVariant rewrites the mutable fields of a live variant.
func (s *Store) UpdateVariant(ctx context.Context, v *models.ProductVariant) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE product_variants SET name = $1, base_price = $2, role_pricing = $3, stock = $4, updated_at = $5
		 WHERE variant_id = $6 AND is_deleted = FALSE`,
		v.Name, v.BasePrice, v.RolePricing, v.Stock, v.UpdatedAt, v.ID)
	if err != nil {
		return wrap("update variant", err)
	}
	return requireRow(res, "update variant", "variant")
}

// DeleteVariant tombstones a variant. Existing order items keep pointing at it.
func (s *Store) DeleteVariant(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE product_variants SET is_deleted = TRUE, updated_at = $1 WHERE variant_id = $2 AND is_deleted = FALSE`,
		at, id)
	if err != nil {
		return wrap("delete variant", err)
	}
	return requireRow(res, "delete variant", "variant")
}

func (s *Store) AddProductImage(ctx context.Context, productID uuid.UUID, url string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET image_urls = array_append(image_urls, $1), updated_at = $2
		 WHERE product_id = $3 AND is_deleted = FALSE`,
		url, at, productID)
	if err != nil {
		return wrap("add product image", err)
	}
	return requireRow(res, "add product image", "product")
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
