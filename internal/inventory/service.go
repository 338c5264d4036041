// Package inventory serves the storefront catalog and the back-office
// product maintenance operations.
package inventory

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/permissions"
	"unimerch_back_end/internal/pricing"
	"unimerch_back_end/internal/services"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	imageURLTTL     = time.Hour
)

var errSearchDisabled = errors.New("search is not configured")

type Repository interface {
	ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetVariantWithProduct(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, *models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	CreateVariant(ctx context.Context, v *models.ProductVariant) error
	UpdateVariant(ctx context.Context, v *models.ProductVariant) error
	DeleteVariant(ctx context.Context, id uuid.UUID, at time.Time) error
	AddProductImage(ctx context.Context, productID uuid.UUID, key string, at time.Time) error
}

type Customers interface {
	Profile(ctx context.Context, userID string) (*models.Customer, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, actor permissions.Actor, action, resourceID string, required ...permissions.Capability) error
}

// Index keeps the search index in sync and answers storefront searches.
type Index interface {
	Index(ctx context.Context, p *models.Product) error
	Search(ctx context.Context, query string, limit int) ([]services.ProductDocument, error)
}

// Images stores product pictures.
type Images interface {
	Upload(ctx context.Context, productID uuid.UUID, r io.Reader, size int64, contentType string) (string, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Service struct {
	products  Repository
	customers Customers
	gate      Authorizer
	index     Index
	images    Images
	now       func() time.Time
	async     func(func())
}

type Option func(*Service)

func WithIndex(x Index) Option   { return func(s *Service) { s.index = x } }
func WithImages(i Images) Option { return func(s *Service) { s.images = i } }

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSyncSideEffects reindexes inline.
func WithSyncSideEffects() Option {
	return func(s *Service) { s.async = func(f func()) { f() } }
}

func NewService(products Repository, customers Customers, gate Authorizer, opts ...Option) *Service {
	s := &Service{
		products:  products,
		customers: customers,
		gate:      gate,
		now:       time.Now,
		async:     func(f func()) { go f() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VariantView is a variant as the storefront shows it to one caller.
type VariantView struct {
	ID    uuid.UUID      `json:"id"`
	SKU   string         `json:"sku"`
	Name  string         `json:"name"`
	Stock int            `json:"stock"`
	Price pricing.Result `json:"price"`
}

type ProductView struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	College     models.College `json:"college"`
	ImageURLs   []string       `json:"image_urls"`
	Tags        []string       `json:"tags"`
	Variants    []VariantView  `json:"variants,omitempty"`
}

// ListProducts returns a page of live products priced for callerID, who may
// be anonymous.
func (s *Service) ListProducts(ctx context.Context, callerID string, limit, offset int) ([]ProductView, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	products, err := s.products.ListProducts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	caller := s.caller(ctx, callerID)
	out := make([]ProductView, 0, len(products))
	for i := range products {
		out = append(out, s.view(ctx, &products[i], caller))
	}
	return out, nil
}

// GetProduct returns one live product with its live variants.
func (s *Service) GetProduct(ctx context.Context, callerID string, id uuid.UUID) (*ProductView, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	v := s.view(ctx, p, s.caller(ctx, callerID))
	return &v, nil
}

func (s *Service) Search(ctx context.Context, query string, limit int) ([]services.ProductDocument, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Field("q", "search query is required")
	}
	if s.index == nil {
		return nil, apperr.Database("search products", errSearchDisabled)
	}
	hits, err := s.index.Search(ctx, query, limit)
	if err != nil {
		return nil, apperr.Database("search products", err)
	}
	return hits, nil
}

// caller loads the pricing profile of a signed-in user. Lookup failures
// price the page as for an anonymous visitor.
func (s *Service) caller(ctx context.Context, userID string) *models.Customer {
	if userID == "" || s.customers == nil {
		return nil
	}
	c, err := s.customers.Profile(ctx, userID)
	if err != nil {
		log.Printf("⚠️ Pricing profile of %s unavailable: %v", userID, err)
		return nil
	}
	return c
}

func (s *Service) view(ctx context.Context, p *models.Product, caller *models.Customer) ProductView {
	v := ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		College:     p.College,
		ImageURLs:   s.signImages(ctx, p.ImageURLs),
		Tags:        p.Tags,
	}
	var role models.CustomerRole
	var college models.College
	if caller != nil {
		role, college = caller.Role, caller.College
	}
	for i := range p.Variants {
		variant := &p.Variants[i]
		if variant.IsDeleted {
			continue
		}
		v.Variants = append(v.Variants, VariantView{
			ID:    variant.ID,
			SKU:   variant.SKU,
			Name:  variant.Name,
			Stock: variant.Stock,
			Price: pricing.Resolve(variant, role, college, p.College),
		})
	}
	return v
}

func (s *Service) signImages(ctx context.Context, keys []string) []string {
	if s.images == nil || len(keys) == 0 {
		return keys
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		u, err := s.images.SignedURL(ctx, key, imageURLTTL)
		if err != nil {
			log.Printf("⚠️ Signing image %s failed: %v", key, err)
			continue
		}
		out = append(out, u)
	}
	return out
}
