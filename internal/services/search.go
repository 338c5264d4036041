package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"unimerch_back_end/internal/models"
)

const ProductIndexName = "products"

// ProductDocument is what the search index holds for a product.
type ProductDocument struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	College     models.College `json:"college"`
	Tags        []string       `json:"tags"`
	MinPrice    float64        `json:"min_price"`
}

// ProductIndex keeps the storefront search index.
type ProductIndex struct {
	es    *elasticsearch.Client
	index string
}

// NewElastic builds a client and checks the cluster answers.
func NewElastic(url, user, password string) (*elasticsearch.Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}
	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("reach elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}
	log.Println("✅ Connected to Elasticsearch")
	return es, nil
}

func NewProductIndex(es *elasticsearch.Client) *ProductIndex {
	return &ProductIndex{es: es, index: ProductIndexName}
}

// DocumentFor builds the indexed form of a product from its live variants.
func DocumentFor(p *models.Product) ProductDocument {
	doc := ProductDocument{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		College:     p.College,
		Tags:        p.Tags,
	}
	first := true
	for _, v := range p.Variants {
		if v.IsDeleted {
			continue
		}
		price, ok := v.RolePricing.Default()
		if !ok {
			price = v.BasePrice
		}
		if first || price < doc.MinPrice {
			doc.MinPrice = price
			first = false
		}
	}
	return doc
}

// Index upserts a product document.
func (x *ProductIndex) Index(ctx context.Context, p *models.Product) error {
	data, err := json.Marshal(DocumentFor(p))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: p.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, x.es)
	if err != nil {
		return fmt.Errorf("index product %s: %w", p.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index product %s: %s", p.ID, res.String())
	}
	log.Printf("✅ Product indexed: %s", p.Name)
	return nil
}

// Search runs a multi-match query over name, description and tags.
func (x *ProductIndex) Search(ctx context.Context, query string, limit int) ([]ProductDocument, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty search query")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	var buf bytes.Buffer
	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^3", "description", "tags^2"},
				"fuzziness": "AUTO",
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode search query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{x.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, x.es)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source ProductDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]ProductDocument, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
