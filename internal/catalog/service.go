// Package catalog serves catalog reads through the query cache and runs
// product mutations, including optimistic edits with rollback.
package catalog

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/catalog-admin/internal/domain/category"
	"github.com/xenking/catalog-admin/internal/domain/product"
	"github.com/xenking/catalog-admin/internal/querycache"
)

// Cache keys.
const (
	ProductListKey  = "productList"
	CategoryListKey = "categoryList"
)

// ProductKey returns the cache key of a single product.
func ProductKey(id int) string {
	return "product:" + strconv.Itoa(id)
}

// UpdateMode selects how confirmed edits reach the catalog service.
type UpdateMode string

const (
	// UpdateRemote sends PUT /products/{id} after the optimistic write.
	UpdateRemote UpdateMode = "remote"
	// UpdateLocal keeps edits in the cache only. Used when the service's
	// update endpoint cannot be relied on.
	UpdateLocal UpdateMode = "local"
)

// ParseUpdateMode parses a configured update mode.
func ParseUpdateMode(s string) (UpdateMode, error) {
	switch m := UpdateMode(s); m {
	case UpdateRemote, UpdateLocal:
		return m, nil
	case "":
		return UpdateRemote, nil
	default:
		return "", errors.Errorf("unknown update mode %q", s)
	}
}

// Options configures a Service.
type Options struct {
	UpdateMode     UpdateMode
	TracerProvider trace.TracerProvider
	Clock          func() time.Time
}

// Service is the catalog admin core.
type Service struct {
	products   product.Repository
	categories category.Repository
	cache      *querycache.Cache
	validator  *product.Validator

	mode   UpdateMode
	now    func() time.Time
	tracer trace.Tracer

	// optimistic serializes optimistic writes to the shared list entry.
	optimistic sync.Mutex
}

// NewService creates a Service.
func NewService(
	products product.Repository,
	categories category.Repository,
	cache *querycache.Cache,
	opts Options,
) *Service {
	if opts.UpdateMode == "" {
		opts.UpdateMode = UpdateRemote
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = noop.NewTracerProvider()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		products:   products,
		categories: categories,
		cache:      cache,
		validator:  product.NewValidator(),
		mode:       opts.UpdateMode,
		now:        opts.Clock,
		tracer:     opts.TracerProvider.Tracer("github.com/xenking/catalog-admin/internal/catalog"),
	}
}

// Validator returns the form validator used by mutations.
func (s *Service) Validator() *product.Validator {
	return s.validator
}

// Products returns the product list.
func (s *Service) Products(ctx context.Context) ([]product.Product, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Products")
	defer span.End()

	list, err := querycache.Get(ctx, s.cache, ProductListKey, s.fetchProducts)
	if err != nil {
		return nil, s.fail(ctx, span, "list products", err)
	}
	return list, nil
}

// RefreshProducts invalidates and rereads the product list.
func (s *Service) RefreshProducts(ctx context.Context) ([]product.Product, error) {
	s.cache.Invalidate(ProductListKey)
	return s.Products(ctx)
}

// fetchProducts reads the list from the service. Products with a pending
// optimistic edit keep their edited value so the list and detail views agree.
func (s *Service) fetchProducts(ctx context.Context) ([]product.Product, error) {
	list, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	for i, p := range list {
		key := ProductKey(p.ID)
		if state, ok := s.cache.State(key); !ok || state != querycache.StateOptimisticPending {
			continue
		}
		if pinned, ok := querycache.Peek[product.Product](s.cache, key); ok {
			list[i] = pinned
		}
	}
	return list, nil
}

// Product returns a single product.
func (s *Service) Product(ctx context.Context, id int) (product.Product, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Product",
		trace.WithAttributes(attribute.Int("product.id", id)),
	)
	defer span.End()

	p, err := querycache.Get(ctx, s.cache, ProductKey(id), func(ctx context.Context) (product.Product, error) {
		p, err := s.products.GetByID(ctx, id)
		if err != nil {
			return product.Product{}, err
		}
		return *p, nil
	})
	if err != nil {
		return product.Product{}, s.fail(ctx, span, "get product", err)
	}
	return p, nil
}

// RefreshProduct invalidates and rereads a product. A product with a pending
// optimistic edit is still served from the cache.
func (s *Service) RefreshProduct(ctx context.Context, id int) (product.Product, error) {
	s.cache.Invalidate(ProductKey(id))
	return s.Product(ctx, id)
}

// Categories returns the category list.
func (s *Service) Categories(ctx context.Context) ([]category.Category, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Categories")
	defer span.End()

	cs, err := querycache.Get(ctx, s.cache, CategoryListKey, s.categories.List)
	if err != nil {
		return nil, s.fail(ctx, span, "list categories", err)
	}
	return cs, nil
}

// RefreshCategories invalidates and rereads the category list.
func (s *Service) RefreshCategories(ctx context.Context) ([]category.Category, error) {
	s.cache.Invalidate(CategoryListKey)
	return s.Categories(ctx)
}

// fail records err on the span and wraps it. The cause stays reachable with
// errors.As for classification.
func (s *Service) fail(ctx context.Context, span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op)

	if !isValidation(err) {
		zctx.From(ctx).Warn("Catalog operation failed", zap.String("op", op), zap.Error(err))
	}
	return errors.Wrap(err, op)
}
