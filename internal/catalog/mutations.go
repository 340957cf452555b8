package catalog

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/catalog-admin/internal/domain/product"
	"github.com/xenking/catalog-admin/internal/querycache"
)

// CreateProduct validates req and submits it. Nothing is sent when req is
// invalid. On success the product list is invalidated.
func (s *Service) CreateProduct(ctx context.Context, req product.CreateRequest, n Notifier) (product.Product, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.CreateProduct")
	defer span.End()

	if err := s.validator.Create(req); err != nil {
		return product.Product{}, s.fail(ctx, span, "create product", err)
	}

	created, err := s.products.Create(ctx, req)
	if err != nil {
		notify(ctx, n, LevelError, msgCreateFailed)
		return product.Product{}, s.fail(ctx, span, "create product", err)
	}

	s.cache.Write(ProductKey(created.ID), *created)
	s.cache.Invalidate(ProductListKey)

	span.SetAttributes(attribute.Int("product.id", created.ID))
	zctx.From(ctx).Info("Product created", zap.Int("id", created.ID))
	notify(ctx, n, LevelSuccess, msgCreated)
	return *created, nil
}

// DeleteProduct removes a product. On success the product is dropped from the
// cached list, its own entry is evicted and the list is invalidated.
func (s *Service) DeleteProduct(ctx context.Context, id int, n Notifier) error {
	ctx, span := s.tracer.Start(ctx, "catalog.DeleteProduct",
		trace.WithAttributes(attribute.Int("product.id", id)),
	)
	defer span.End()

	if err := s.products.Delete(ctx, id); err != nil {
		notify(ctx, n, LevelError, msgDeleteFailed)
		return s.fail(ctx, span, "delete product", err)
	}

	if list, ok := querycache.Peek[[]product.Product](s.cache, ProductListKey); ok {
		s.cache.Write(ProductListKey, product.RemoveFromList(list, id))
	}
	s.cache.Evict(ProductKey(id))
	s.cache.Invalidate(ProductListKey)

	zctx.From(ctx).Info("Product deleted", zap.Int("id", id))
	notify(ctx, n, LevelSuccess, msgDeleted)
	return nil
}

// Pending is the rollback material of an optimistic edit.
type Pending struct {
	ID int
	// Applied is the product as written to the cache.
	Applied product.Product

	// previous is the product before the edit.
	previous product.Product
	product  querycache.Snapshot
	list     querycache.Snapshot
	// listVersion identifies the list written by BeginUpdate; zero when the
	// list was left alone.
	listVersion uint64
}

// BeginUpdate applies e to the cached product and product list before the
// change is confirmed, and pins the product entry so network reads cannot
// overwrite it. The product is loaded first when it is not cached.
//
// The returned Pending must be passed to Rollback if the change fails.
func (s *Service) BeginUpdate(ctx context.Context, id int, e product.Edit) (*Pending, error) {
	if err := s.validator.Edit(e); err != nil {
		return nil, err
	}
	current, err := s.Product(ctx, id)
	if err != nil {
		return nil, err
	}

	s.optimistic.Lock()
	defer s.optimistic.Unlock()

	key := ProductKey(id)
	s.cache.Cancel(key)
	s.cache.Cancel(ProductListKey)

	p := &Pending{
		ID:      id,
		product: s.cache.Snapshot(key),
		list:    s.cache.Snapshot(ProductListKey),
	}

	base := current
	if cached, ok := p.product.Value.(product.Product); ok && p.product.Present {
		base = cached
	}
	at := s.now()
	p.previous = base
	p.Applied = base.Apply(e, at)

	if list, ok := p.list.Value.([]product.Product); ok && p.list.Present {
		if updated, found := product.ApplyToList(list, id, e, at); found {
			s.cache.Write(ProductListKey, updated)
			p.listVersion, _ = s.cache.Version(ProductListKey)
		}
	}
	s.cache.Pin(key, p.Applied)

	return p, nil
}

// Rollback restores the product entry captured by BeginUpdate. The list entry
// is restored verbatim while it still holds the list BeginUpdate wrote.
// Otherwise someone changed it since, so only the row of this product is
// reverted and the other rows, including other pending edits, are kept.
func (s *Service) Rollback(p *Pending) {
	s.optimistic.Lock()
	defer s.optimistic.Unlock()

	s.cache.Restore(p.product)
	if p.listVersion != 0 && s.cache.RestoreIf(p.list, p.listVersion) {
		return
	}

	previous := p.previous
	if list, ok := p.list.Value.([]product.Product); ok && p.list.Present {
		if i := slices.IndexFunc(list, func(v product.Product) bool { return v.ID == p.ID }); i >= 0 {
			previous = list[i]
		}
	}
	s.cache.Update(ProductListKey, func(v any) (any, bool) {
		list, ok := v.([]product.Product)
		if !ok {
			return v, false
		}
		return product.ReplaceInList(list, previous)
	})
}

// UpdateProduct runs an optimistic edit. In remote mode the edit is then sent
// to the service and rolled back if that fails. The returned product is the
// optimistic value, which stays pinned until SyncProduct.
func (s *Service) UpdateProduct(ctx context.Context, id int, e product.Edit, n Notifier) (product.Product, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.UpdateProduct",
		trace.WithAttributes(
			attribute.Int("product.id", id),
			attribute.String("catalog.update_mode", string(s.mode)),
		),
	)
	defer span.End()

	pending, err := s.BeginUpdate(ctx, id, e)
	if err != nil {
		if !isValidation(err) {
			notify(ctx, n, LevelError, msgUpdateFailed)
		}
		return product.Product{}, s.fail(ctx, span, "update product", err)
	}

	if s.mode == UpdateRemote {
		if _, err := s.products.Update(ctx, id, e); err != nil {
			s.Rollback(pending)
			zctx.From(ctx).Info("Optimistic update rolled back", zap.Int("id", id))
			notify(ctx, n, LevelError, msgUpdateFailed)
			return product.Product{}, s.fail(ctx, span, "update product", err)
		}
	}

	notify(ctx, n, LevelSuccess, msgUpdated)
	return pending.Applied, nil
}

// SyncProduct clears the pending optimistic edit of a product and rereads it
// from the service. The product list is invalidated too.
func (s *Service) SyncProduct(ctx context.Context, id int) (product.Product, error) {
	key := ProductKey(id)
	s.cache.Release(key)
	s.cache.Invalidate(ProductListKey)
	return s.Product(ctx, id)
}

func isValidation(err error) bool {
	var vErr *product.ValidationError
	return errors.As(err, &vErr) || errors.Is(err, product.ErrEmptyEdit)
}
