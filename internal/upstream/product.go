package upstream

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/catalog-admin/internal/domain/category"
	"github.com/xenking/catalog-admin/internal/domain/product"
	"github.com/xenking/catalog-admin/internal/wire"
)

// List returns every product.
func (c *Client) List(ctx context.Context) ([]product.Product, error) {
	var out []product.Product
	err := c.do(ctx, http.MethodGet, "products", nil, func(d *jx.Decoder) (err error) {
		out, err = wire.DecodeProducts(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns a single product.
func (c *Client) GetByID(ctx context.Context, id int) (*product.Product, error) {
	var p product.Product
	err := c.do(ctx, http.MethodGet, productPath(id), nil, func(d *jx.Decoder) (err error) {
		p, err = wire.DecodeProduct(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create submits a new product. The response carries the creation timestamps.
func (c *Client) Create(ctx context.Context, req product.CreateRequest) (*product.Product, error) {
	var p product.Product
	err := c.do(ctx, http.MethodPost, "products",
		func(e *jx.Encoder) { wire.EncodeCreateRequest(e, req) },
		func(d *jx.Decoder) (err error) {
			p, err = wire.DecodeProduct(d)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Update sends the set fields of the edit.
func (c *Client) Update(ctx context.Context, id int, e product.Edit) (*product.Product, error) {
	var p product.Product
	err := c.do(ctx, http.MethodPut, productPath(id),
		func(enc *jx.Encoder) { wire.EncodeEdit(enc, e) },
		func(d *jx.Decoder) (err error) {
			p, err = wire.DecodeProduct(d)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a product. The response body is ignored.
func (c *Client) Delete(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, productPath(id), nil, nil)
}

// Categories implements category.Repository over the same connection.
type Categories struct {
	c *Client
}

// List returns every category.
func (r *Categories) List(ctx context.Context) ([]category.Category, error) {
	var out []category.Category
	err := r.c.do(ctx, http.MethodGet, "categories", nil, func(d *jx.Decoder) (err error) {
		out, err = wire.DecodeCategories(d)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func productPath(id int) string {
	return "products/" + strconv.Itoa(id)
}
