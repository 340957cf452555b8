// Package handler exposes the catalog admin operations as a JSON API.
//
// Every response carries a "status" of ok, empty, invalid or error so the
// admin UI can pick the loading, empty, error or form-error variant without
// inspecting HTTP codes.
package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/catalog-admin/internal/apierror"
	"github.com/xenking/catalog-admin/internal/catalog"
	"github.com/xenking/catalog-admin/internal/domain/category"
	"github.com/xenking/catalog-admin/internal/domain/product"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// Catalog is the subset of catalog.Service used by the handlers.
type Catalog interface {
	Products(ctx context.Context) ([]product.Product, error)
	RefreshProducts(ctx context.Context) ([]product.Product, error)
	Product(ctx context.Context, id int) (product.Product, error)
	RefreshProduct(ctx context.Context, id int) (product.Product, error)
	Categories(ctx context.Context) ([]category.Category, error)
	RefreshCategories(ctx context.Context) ([]category.Category, error)

	CreateProduct(ctx context.Context, req product.CreateRequest, n catalog.Notifier) (product.Product, error)
	UpdateProduct(ctx context.Context, id int, e product.Edit, n catalog.Notifier) (product.Product, error)
	DeleteProduct(ctx context.Context, id int, n catalog.Notifier) error
	SyncProduct(ctx context.Context, id int) (product.Product, error)
}

var _ Catalog = (*catalog.Service)(nil)

// Handler serves the admin API.
type Handler struct {
	catalog Catalog
	// imageURL names the stored location of an uploaded image.
	imageURL func(product.ImageFile) string
}

// New creates a Handler.
func New(c Catalog) *Handler {
	return &Handler{
		catalog:  c,
		imageURL: func(product.ImageFile) string { return product.PlaceholderImageURL() },
	}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("POST /api/products", h.createProduct)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("PUT /api/products/{id}", h.updateProduct)
	mux.HandleFunc("DELETE /api/products/{id}", h.deleteProduct)
	mux.HandleFunc("POST /api/products/{id}/sync", h.syncProduct)
	mux.HandleFunc("GET /api/categories", h.listCategories)
	mux.HandleFunc("POST /api/images", h.uploadImages)
}

func refresh(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	return v
}

// productID parses the {id} path value.
func productID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid product id %q", r.PathValue("id"))
	}
	return id, nil
}

// readJSON reads a bounded request body and decodes it with fn.
func readJSON[T any](w http.ResponseWriter, r *http.Request, fn func(*jx.Decoder) (T, error)) (T, error) {
	var zero T
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return zero, errors.Wrap(err, "read body")
	}
	v, err := fn(jx.DecodeBytes(raw))
	if err != nil {
		return zero, err
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, body func(e *jx.Encoder)) {
	var e jx.Encoder
	body(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeBadRequest answers requests that could not be parsed.
func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str("error") })
			e.Field("code", func(e *jx.Encoder) { e.Int(http.StatusBadRequest) })
			e.Field("message", func(e *jx.Encoder) { e.Str(err.Error()) })
		})
	})
}

// writeError renders a failed operation. Validation failures become 422 with
// the rejected fields; everything else is classified.
func writeError(w http.ResponseWriter, r *http.Request, err error, notes []catalog.Notification) {
	var vErr *product.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("status", func(e *jx.Encoder) { e.Str("invalid") })
				e.Field("fields", func(e *jx.Encoder) { encodeFields(e, vErr.Fields) })
				e.Field("notifications", func(e *jx.Encoder) { encodeNotifications(e, notes) })
			})
		})
		return
	case errors.Is(err, product.ErrEmptyEdit):
		writeJSON(w, http.StatusUnprocessableEntity, func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("status", func(e *jx.Encoder) { e.Str("invalid") })
				e.Field("fields", func(e *jx.Encoder) { encodeFields(e, nil) })
				e.Field("message", func(e *jx.Encoder) { e.Str("Change the title or the price.") })
				e.Field("notifications", func(e *jx.Encoder) { encodeNotifications(e, notes) })
			})
		})
		return
	}

	c := apierror.Classify(err)
	status := statusFor(c.Kind, err)
	zctx.From(r.Context()).Debug("Request failed",
		zap.String("kind", string(c.Kind)),
		zap.Int("status", status),
		zap.Error(err),
	)

	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str("error") })
			e.Field("error", func(e *jx.Encoder) { encodeClassification(e, c) })
			e.Field("notifications", func(e *jx.Encoder) { encodeNotifications(e, notes) })
		})
	})
}

// statusFor maps a classification to the gateway response code.
func statusFor(kind apierror.Kind, err error) int {
	switch kind {
	case apierror.KindNotFound:
		return http.StatusNotFound
	case apierror.KindClient:
		var sErr *apierror.StatusError
		if errors.As(err, &sErr) {
			return sErr.Status
		}
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
