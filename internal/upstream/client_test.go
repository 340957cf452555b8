package upstream

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/catalog-admin/internal/apierror"
	"github.com/xenking/catalog-admin/internal/domain/product"
	"github.com/xenking/catalog-admin/pkg/httpmiddleware"
)

const productJSON = `{"id":7,"title":"Hat","slug":"hat","price":15,"description":"A hat",` +
	`"category":{"id":1,"name":"Clothes","image":"c.png","slug":"clothes"},"images":["https://img/1.png"]}`

// recorded captures the last request seen by the fake service.
type recorded struct {
	method    string
	path      string
	body      string
	requestID string
}

func newTestServer(t *testing.T, status int, response string) (*Client, *recorded) {
	t.Helper()

	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.body = string(body)
		rec.requestID = r.Header.Get("X-Request-ID")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/api/v1", srv.Client())
	require.NoError(t, err)
	return c, rec
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := New("/api/v1", nil)
	require.Error(t, err)
}

func TestList(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, "["+productJSON+"]")

	ps, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "Hat", ps[0].Title)
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/api/v1/products", rec.path)
}

func TestGetByID(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, productJSON)

	ctx := httpmiddleware.WithRequestID(context.Background(), "req-1")
	p, err := c.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, p.ID)
	assert.Equal(t, "/api/v1/products/7", rec.path)
	assert.Equal(t, "req-1", rec.requestID)
}

func TestGetByID_NotFound(t *testing.T) {
	c, _ := newTestServer(t, http.StatusNotFound, `{"message":"Could not find any entity"}`)

	_, err := c.GetByID(context.Background(), 999)

	var statusErr *apierror.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Contains(t, string(statusErr.Body), "Could not find")
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
}

func TestGetByID_UndecodableBody(t *testing.T) {
	c, _ := newTestServer(t, http.StatusOK, `{"id":"seven"}`)

	_, err := c.GetByID(context.Background(), 7)

	var statusErr *apierror.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Error(t, statusErr.Err)
	assert.Equal(t, apierror.KindUnknown, apierror.KindOf(err))
}

func TestCreate(t *testing.T) {
	c, rec := newTestServer(t, http.StatusCreated,
		`{"id":50,"title":"Widget","slug":"widget","price":25,"description":"A widget",`+
			`"category":{"id":2,"name":"Electronics","image":"e.png","slug":"electronics"},`+
			`"images":["https://img/w.png"],"creationAt":"2025-06-01T10:00:00.000Z","updatedAt":"2025-06-01T10:00:00.000Z"}`)

	p, err := c.Create(context.Background(), product.CreateRequest{
		Title:       "Widget",
		Price:       25,
		Description: "A widget",
		CategoryID:  2,
		Images:      []string{"https://img/w.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/v1/products", rec.path)
	assert.JSONEq(t,
		`{"title":"Widget","price":25,"description":"A widget","categoryId":2,"images":["https://img/w.png"]}`,
		rec.body,
	)
}

func TestUpdate(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, productJSON)

	title := "Cap"
	_, err := c.Update(context.Background(), 7, product.Edit{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/v1/products/7", rec.path)
	assert.JSONEq(t, `{"title":"Cap"}`, rec.body)
}

func TestUpdate_ServerError(t *testing.T) {
	c, _ := newTestServer(t, http.StatusInternalServerError, `{"statusCode":500}`)

	title := "Cap"
	_, err := c.Update(context.Background(), 7, product.Edit{Title: &title})
	assert.Equal(t, apierror.KindServer, apierror.KindOf(err))
}

func TestDelete(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, `true`)

	require.NoError(t, c.Delete(context.Background(), 3))
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/api/v1/products/3", rec.path)
	assert.Empty(t, rec.body)
}

func TestCategories(t *testing.T) {
	c, rec := newTestServer(t, http.StatusOK, `[{"id":1,"name":"Clothes","image":"c.png","slug":"clothes"}]`)

	cs, err := c.Categories().List(context.Background())
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "clothes", cs[0].Slug)
	assert.Equal(t, "/api/v1/categories", rec.path)
}

func TestConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(base, nil)
	require.NoError(t, err)

	_, err = c.List(context.Background())
	require.Error(t, err)

	var statusErr *apierror.StatusError
	assert.False(t, errors.As(err, &statusErr))
	assert.Equal(t, apierror.KindNetwork, apierror.KindOf(err))
	assert.Equal(t, apierror.ActionRetry, apierror.Classify(err).Action)
}
