package product

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/catalog-admin/internal/domain/category"
)

// ErrEmptyEdit is returned when an edit sets none of the editable fields.
var ErrEmptyEdit = errors.New("edit changes no fields")

// Product represents a catalog item owned by the remote catalog service.
type Product struct {
	ID          int
	Title       string
	Slug        string
	Price       decimal.Decimal
	Description string
	Category    category.Category
	Images      []string
	CreatedAt   time.Time
	// UpdatedAt is zero when the service did not report it.
	UpdatedAt time.Time
}

// CreateRequest holds the fields submitted when creating a product.
type CreateRequest struct {
	Title       string   `form:"title" validate:"notblank,max=50"`
	Price       int      `form:"price" validate:"min=1,max=1000"`
	Description string   `form:"description" validate:"notblank"`
	CategoryID  int      `form:"categoryId" validate:"gt=0"`
	Images      []string `form:"images" validate:"min=1,max=3,dive,required,url"`
}

// Edit holds the editable subset of a product. Nil fields are left unchanged.
type Edit struct {
	Title *string `form:"title" validate:"omitnil,notblank,max=50"`
	Price *int    `form:"price" validate:"omitnil,min=1,max=1000"`
}

// IsEmpty reports whether the edit changes nothing.
func (e Edit) IsEmpty() bool {
	return e.Title == nil && e.Price == nil
}

// Apply returns a copy of p with the edit merged in and UpdatedAt set to at.
// The list and detail views use this same merge so they never disagree.
func (p Product) Apply(e Edit, at time.Time) Product {
	if e.Title != nil {
		p.Title = *e.Title
	}
	if e.Price != nil {
		p.Price = decimal.NewFromInt(int64(*e.Price))
	}
	p.UpdatedAt = at
	return p
}

// ApplyToList returns a new slice where the entry with the given id has the edit
// merged in. Other entries are copied untouched. The second result reports
// whether a matching entry was found.
func ApplyToList(list []Product, id int, e Edit, at time.Time) ([]Product, bool) {
	out := make([]Product, len(list))
	found := false
	for i, p := range list {
		if p.ID == id {
			p = p.Apply(e, at)
			found = true
		}
		out[i] = p
	}
	return out, found
}

// ReplaceInList returns a new slice where the entry with the id of p is
// replaced by p. The second result reports whether a matching entry was found.
func ReplaceInList(list []Product, p Product) ([]Product, bool) {
	out := slices.Clone(list)
	for i := range out {
		if out[i].ID == p.ID {
			out[i] = p
			return out, true
		}
	}
	return out, false
}

// RemoveFromList returns a new slice without the entry with the given id.
func RemoveFromList(list []Product, id int) []Product {
	out := make([]Product, 0, len(list))
	for _, p := range list {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// Repository defines the CRUD operations offered by the catalog service.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int) (*Product, error)
	Create(ctx context.Context, req CreateRequest) (*Product, error)
	Update(ctx context.Context, id int, e Edit) (*Product, error)
	Delete(ctx context.Context, id int) error
}
