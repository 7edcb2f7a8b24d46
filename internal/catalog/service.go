package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/boulangerie-api/internal/common"
	"github.com/noah-isme/boulangerie-api/internal/pricing"
)

var (
	// ErrNotFound is returned when no product matches the identifier.
	ErrNotFound = errors.New("product not found")
	// ErrUnavailable is returned for products that are listed but cannot be ordered today.
	ErrUnavailable = errors.New("product unavailable")
)

// Product is a bakery item offered for sale.
type Product struct {
	ID          string        `json:"id" validate:"required,max=64"`
	Name        string        `json:"name" validate:"required"`
	Category    string        `json:"category" validate:"required"`
	Price       pricing.Money `json:"price" validate:"gte=0"`
	Description string        `json:"description,omitempty"`
	Available   bool          `json:"available"`
	Tags        []string      `json:"tags,omitempty"`
}

// PricingProduct returns the subset of fields the pricing engine needs.
func (p Product) PricingProduct() pricing.Product {
	return pricing.Product{ID: p.ID, Price: p.Price}
}

// Category groups products on the storefront.
type Category struct {
	Slug string `json:"slug" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Filter captures listing filters.
type Filter struct {
	Query    string
	Category string
	Page     int
	Limit    int
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Product
	Total int
	Page  int
	Limit int
}

// Service serves the read-only bakery catalogue.
type Service struct {
	products     []Product
	byID         map[string]Product
	categories   []Category
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Products     []Product
	Categories   []Category
	DefaultLimit int
	MaxLimit     int
}

// NewService validates the catalogue and constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}

	slugs := make(map[string]struct{}, len(cfg.Categories))
	for i, c := range cfg.Categories {
		if err := common.Validator().Struct(c); err != nil {
			return nil, fmt.Errorf("catalog: category %d: %w", i, err)
		}
		if _, dup := slugs[c.Slug]; dup {
			return nil, fmt.Errorf("catalog: duplicate category %q", c.Slug)
		}
		slugs[c.Slug] = struct{}{}
	}

	byID := make(map[string]Product, len(cfg.Products))
	products := make([]Product, 0, len(cfg.Products))
	for _, p := range cfg.Products {
		if err := common.Validator().Struct(p); err != nil {
			return nil, fmt.Errorf("catalog: product %q: %w", p.ID, err)
		}
		if _, ok := slugs[p.Category]; !ok {
			return nil, fmt.Errorf("catalog: product %q references unknown category %q", p.ID, p.Category)
		}
		if _, dup := byID[p.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate product %q", p.ID)
		}
		byID[p.ID] = p
		products = append(products, p)
	}
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Category != products[j].Category {
			return products[i].Category < products[j].Category
		}
		return products[i].Name < products[j].Name
	})

	return &Service{
		products:     products,
		byID:         byID,
		categories:   append([]Category(nil), cfg.Categories...),
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseFilter normalises raw query values into a Filter.
func (s *Service) ParseFilter(values url.Values) (Filter, error) {
	f := Filter{Page: 1, Limit: s.defaultLimit}
	f.Query = strings.TrimSpace(values.Get("q"))
	f.Category = strings.TrimSpace(values.Get("category"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return f, badRequest("page", "page must be a positive integer", err)
		}
		f.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return f, badRequest("limit", "limit must be a positive integer", err)
		}
		f.Limit = l
	}
	if f.Limit > s.maxLimit {
		f.Limit = s.maxLimit
	}
	return f, nil
}

// List returns products matching f with pagination metadata.
func (s *Service) List(_ context.Context, f Filter) (ListResult, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = s.defaultLimit
	}
	if f.Limit > s.maxLimit {
		f.Limit = s.maxLimit
	}
	q := strings.ToLower(f.Query)
	matched := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if q != "" && !matches(p, q) {
			continue
		}
		matched = append(matched, p)
	}
	start, end := common.Window(f.Page, f.Limit, len(matched))
	return ListResult{Items: matched[start:end], Total: len(matched), Page: f.Page, Limit: f.Limit}, nil
}

// Product returns the product identified by id.
func (s *Service) Product(_ context.Context, id string) (Product, error) {
	p, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return p, nil
}

// Categories returns the storefront categories in display order.
func (s *Service) Categories(_ context.Context) ([]Category, error) {
	return append([]Category(nil), s.categories...), nil
}

func matches(p Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Description), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}
