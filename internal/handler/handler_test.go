package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/catalog-admin/internal/apierror"
	"github.com/xenking/catalog-admin/internal/catalog"
	"github.com/xenking/catalog-admin/internal/domain/category"
	"github.com/xenking/catalog-admin/internal/domain/product"
	"github.com/xenking/catalog-admin/internal/querycache"
)

// --- Fakes ---

type stubRepo struct {
	mu       sync.Mutex
	products []product.Product
	err      error
	calls    int
}

func (s *stubRepo) call() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

func (s *stubRepo) List(context.Context) ([]product.Product, error) {
	if err := s.call(); err != nil {
		return nil, err
	}
	return append([]product.Product(nil), s.products...), nil
}

func (s *stubRepo) GetByID(_ context.Context, id int) (*product.Product, error) {
	if err := s.call(); err != nil {
		return nil, err
	}
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, &apierror.StatusError{Status: http.StatusNotFound, Body: []byte(`{"message":"not found"}`)}
}

func (s *stubRepo) Create(_ context.Context, req product.CreateRequest) (*product.Product, error) {
	if err := s.call(); err != nil {
		return nil, err
	}
	return &product.Product{
		ID:       42,
		Title:    req.Title,
		Price:    decimal.NewFromInt(int64(req.Price)),
		Category: category.Category{ID: req.CategoryID},
		Images:   req.Images,
	}, nil
}

func (s *stubRepo) Update(_ context.Context, id int, e product.Edit) (*product.Product, error) {
	if err := s.call(); err != nil {
		return nil, err
	}
	p := product.Product{ID: id}.Apply(e, time.Now())
	return &p, nil
}

func (s *stubRepo) Delete(context.Context, int) error {
	return s.call()
}

type stubCategories []category.Category

func (s stubCategories) List(context.Context) ([]category.Category, error) {
	return s, nil
}

// --- Helpers ---

func hat() product.Product {
	return product.Product{
		ID:          7,
		Title:       "Hat",
		Slug:        "hat",
		Price:       decimal.NewFromInt(15),
		Description: "A hat",
		Category:    category.Category{ID: 1, Name: "Clothes", Image: "c.png", Slug: "clothes"},
		Images:      []string{"https://img/1.png"},
	}
}

func newServer(t *testing.T, repo *stubRepo, mode catalog.UpdateMode) http.Handler {
	t.Helper()
	cache, err := querycache.New(querycache.Options{})
	require.NoError(t, err)

	svc := catalog.NewService(repo, stubCategories{{ID: 1, Name: "Clothes", Slug: "clothes"}}, cache,
		catalog.Options{UpdateMode: mode},
	)
	h := New(svc)
	h.imageURL = func(f product.ImageFile) string { return "https://cdn/" + f.Name }

	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// --- Tests ---

func TestListProducts(t *testing.T) {
	srv := newServer(t, &stubRepo{products: []product.Product{hat()}}, catalog.UpdateRemote)

	w := do(srv, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","products":[{"id":7,"title":"Hat","slug":"hat","price":15,"description":"A hat",`+
		`"category":{"id":1,"name":"Clothes","image":"c.png","slug":"clothes"},"images":["https://img/1.png"]}]}`,
		w.Body.String())
}

func TestListProducts_Empty(t *testing.T) {
	srv := newServer(t, &stubRepo{}, catalog.UpdateRemote)

	w := do(srv, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"empty","products":[]}`, w.Body.String())
}

func TestListProducts_Refresh(t *testing.T) {
	repo := &stubRepo{products: []product.Product{hat()}}
	srv := newServer(t, repo, catalog.UpdateRemote)

	do(srv, http.MethodGet, "/api/products", "")
	do(srv, http.MethodGet, "/api/products", "")
	assert.Equal(t, 1, repo.calls)

	do(srv, http.MethodGet, "/api/products?refresh=true", "")
	assert.Equal(t, 2, repo.calls)
}

func TestGetProduct_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		target     string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "not found",
			target:     "/api/products/999",
			wantStatus: http.StatusNotFound,
			wantBody: `{"status":"error","error":{"kind":"NOT_FOUND",` +
				`"message":"The requested information could not be found.","action":"go_back"},"notifications":[]}`,
		},
		{
			name:       "server error",
			err:        &apierror.StatusError{Status: http.StatusServiceUnavailable},
			target:     "/api/products/7",
			wantStatus: http.StatusBadGateway,
			wantBody: `{"status":"error","error":{"kind":"SERVER_ERROR",` +
				`"message":"Server is temporarily unavailable. Please try again later.","action":"retry"},"notifications":[]}`,
		},
		{
			name:       "network error",
			err:        errors.New("dial tcp 127.0.0.1:1: connect: connection refused"),
			target:     "/api/products/7",
			wantStatus: http.StatusBadGateway,
			wantBody: `{"status":"error","error":{"kind":"NETWORK_ERROR",` +
				`"message":"Network connection failed. Please try again later.","action":"retry"},"notifications":[]}`,
		},
		{
			name:       "client error keeps upstream status",
			err:        &apierror.StatusError{Status: http.StatusUnprocessableEntity},
			target:     "/api/products/7",
			wantStatus: http.StatusUnprocessableEntity,
			wantBody: `{"status":"error","error":{"kind":"CLIENT_ERROR",` +
				`"message":"Invalid request. Please check your input.","action":"go_back"},"notifications":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, &stubRepo{products: []product.Product{hat()}, err: tt.err}, catalog.UpdateRemote)

			w := do(srv, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestGetProduct_BadID(t *testing.T) {
	repo := &stubRepo{}
	srv := newServer(t, repo, catalog.UpdateRemote)

	for _, id := range []string{"abc", "0", "-1"} {
		w := do(srv, http.MethodGet, "/api/products/"+id, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, id)
	}
	assert.Zero(t, repo.calls)
}

func TestCreateProduct(t *testing.T) {
	srv := newServer(t, &stubRepo{}, catalog.UpdateRemote)

	w := do(srv, http.MethodPost, "/api/products",
		`{"title":"Widget","price":"25","description":"A widget","categoryId":1,"images":["https://img/w.png"]}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":42`)
	assert.Contains(t, w.Body.String(), `"notifications":[{"level":"success","message":"Product created successfully."}]`)
}

func TestCreateProduct_Invalid(t *testing.T) {
	repo := &stubRepo{}
	srv := newServer(t, repo, catalog.UpdateRemote)

	w := do(srv, http.MethodPost, "/api/products",
		`{"title":"","price":25,"description":"A widget","categoryId":0,"images":[]}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"status":"invalid","fields":{`+
		`"categoryId":"Category must be selected",`+
		`"images":"Product must have at least one image",`+
		`"title":"Product title is required"},"notifications":[]}`, w.Body.String())
	assert.Zero(t, repo.calls)
}

func TestCreateProduct_MalformedJSON(t *testing.T) {
	repo := &stubRepo{}
	srv := newServer(t, repo, catalog.UpdateRemote)

	w := do(srv, http.MethodPost, "/api/products", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"error"`)
	assert.Zero(t, repo.calls)
}

func TestUpdateProduct(t *testing.T) {
	srv := newServer(t, &stubRepo{products: []product.Product{hat()}}, catalog.UpdateLocal)

	w := do(srv, http.MethodPut, "/api/products/7", `{"title":"Cap","price":"5000"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Cap"`)
	assert.Contains(t, w.Body.String(), `"price":1000`)
	assert.Contains(t, w.Body.String(), `"updatedAt":`)

	w = do(srv, http.MethodGet, "/api/products/7", "")
	assert.Contains(t, w.Body.String(), `"title":"Cap"`)

	w = do(srv, http.MethodGet, "/api/products", "")
	assert.Contains(t, w.Body.String(), `"title":"Cap"`)
}

func TestUpdateProduct_NumericPriceClamped(t *testing.T) {
	srv := newServer(t, &stubRepo{products: []product.Product{hat()}}, catalog.UpdateLocal)

	w := do(srv, http.MethodPut, "/api/products/7", `{"price":2000}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"price":1000`)
}

func TestUpdateProduct_RolledBack(t *testing.T) {
	repo := &stubRepo{products: []product.Product{hat()}}
	srv := newServer(t, repo, catalog.UpdateRemote)

	require.Equal(t, http.StatusOK, do(srv, http.MethodGet, "/api/products/7", "").Code)

	repo.mu.Lock()
	repo.err = &apierror.StatusError{Status: http.StatusInternalServerError}
	repo.mu.Unlock()

	w := do(srv, http.MethodPut, "/api/products/7", `{"title":"Cap"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"notifications":[{"level":"error","message":"Failed to update product."}]`)

	w = do(srv, http.MethodGet, "/api/products/7", "")
	assert.Contains(t, w.Body.String(), `"title":"Hat"`)
}

func TestUpdateProduct_EmptyEdit(t *testing.T) {
	srv := newServer(t, &stubRepo{products: []product.Product{hat()}}, catalog.UpdateLocal)

	w := do(srv, http.MethodPut, "/api/products/7", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"invalid"`)
}

func TestSyncProduct(t *testing.T) {
	srv := newServer(t, &stubRepo{products: []product.Product{hat()}}, catalog.UpdateLocal)

	do(srv, http.MethodPut, "/api/products/7", `{"title":"Cap"}`)

	w := do(srv, http.MethodPost, "/api/products/7/sync", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Hat"`)
}

func TestDeleteProduct(t *testing.T) {
	srv := newServer(t, &stubRepo{products: []product.Product{hat()}}, catalog.UpdateRemote)

	w := do(srv, http.MethodDelete, "/api/products/7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"status":"ok","notifications":[{"level":"success","message":"Product deleted successfully."}]}`,
		w.Body.String())
}

func TestListCategories(t *testing.T) {
	srv := newServer(t, &stubRepo{}, catalog.UpdateRemote)

	w := do(srv, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","categories":[{"id":1,"name":"Clothes","image":"","slug":"clothes"}]}`, w.Body.String())
}

func TestUploadImages(t *testing.T) {
	srv := newServer(t, &stubRepo{}, catalog.UpdateRemote)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("images", "https://img/existing.png"))

	png, err := mw.CreateFormFile("files", "photo.png")
	require.NoError(t, err)
	_, err = png.Write([]byte("\x89PNG\r\n\x1a\n0000"))
	require.NoError(t, err)

	txt, err := mw.CreateFormFile("files", "notes.txt")
	require.NoError(t, err)
	_, err = txt.Write([]byte("plain text"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok",`+
		`"images":["https://img/existing.png","https://cdn/photo.png"],`+
		`"rejected":[{"file":"notes.txt","message":"Only PNG and JPG files are allowed."}]}`,
		w.Body.String())
}
