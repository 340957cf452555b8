package category

import "context"

// Category is read-only reference data used to group products.
type Category struct {
	ID    int
	Name  string
	Image string
	Slug  string
}

// Repository defines read operations for product categories.
type Repository interface {
	List(ctx context.Context) ([]Category, error)
}
