package wire

import (
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/catalog-admin/internal/domain/product"
)

const productFixture = `{
  "id": 4,
  "title": "Classic Grey Hooded Sweatshirt",
  "slug": "classic-grey-hooded-sweatshirt",
  "price": 90,
  "description": "Elevate your casual wear.",
  "category": {
    "id": 1,
    "name": "Clothes",
    "image": "https://i.imgur.com/QkIa5tT.jpeg",
    "slug": "clothes",
    "creationAt": "2025-06-01T10:00:00.000Z",
    "updatedAt": "2025-06-01T10:00:00.000Z"
  },
  "images": ["https://i.imgur.com/R2PN9Wq.jpeg", "https://i.imgur.com/IvxMPFr.jpeg"],
  "creationAt": "2025-06-01T10:00:00.000Z",
  "updatedAt": null
}`

func TestDecodeProduct(t *testing.T) {
	p, err := DecodeProduct(jx.DecodeStr(productFixture))
	require.NoError(t, err)

	assert.Equal(t, 4, p.ID)
	assert.Equal(t, "Classic Grey Hooded Sweatshirt", p.Title)
	assert.Equal(t, "classic-grey-hooded-sweatshirt", p.Slug)
	assert.True(t, decimal.NewFromInt(90).Equal(p.Price))
	assert.Equal(t, "Clothes", p.Category.Name)
	assert.Equal(t, "clothes", p.Category.Slug)
	assert.Len(t, p.Images, 2)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), p.CreatedAt)
	assert.True(t, p.UpdatedAt.IsZero())
}

func TestProductRoundTrip(t *testing.T) {
	p, err := DecodeProduct(jx.DecodeStr(productFixture))
	require.NoError(t, err)
	p.Price = decimal.RequireFromString("12.50")
	p.UpdatedAt = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	var e jx.Encoder
	EncodeProducts(&e, []product.Product{p})

	got, err := DecodeProducts(jx.DecodeBytes(e.Bytes()))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, p.Price.Equal(got[0].Price))
	assert.Equal(t, p.UpdatedAt, got[0].UpdatedAt)
	assert.Equal(t, p.Images, got[0].Images)
}

func TestDecodeProducts_Invalid(t *testing.T) {
	_, err := DecodeProducts(jx.DecodeStr(`[{"id":"x"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "id"`)
}

func TestEncodeEdit_OnlySetFields(t *testing.T) {
	title := "X"

	var e jx.Encoder
	EncodeEdit(&e, product.Edit{Title: &title})
	assert.JSONEq(t, `{"title":"X"}`, e.String())

	price := 15
	e.Reset()
	EncodeEdit(&e, product.Edit{Price: &price})
	assert.JSONEq(t, `{"price":15}`, e.String())
}

func TestDecodeEdit(t *testing.T) {
	edit, err := DecodeEdit(jx.DecodeStr(`{"title":"New","price":null,"extra":1}`))
	require.NoError(t, err)
	require.NotNil(t, edit.Title)
	assert.Equal(t, "New", *edit.Title)
	assert.Nil(t, edit.Price)

	edit, err = DecodeEdit(jx.DecodeStr(`{"price":"0070"}`))
	require.NoError(t, err)
	require.NotNil(t, edit.Price)
	assert.Equal(t, 70, *edit.Price)

	edit, err = DecodeEdit(jx.DecodeStr(`{"price":"5000"}`))
	require.NoError(t, err)
	assert.Equal(t, product.MaxPrice, *edit.Price)

	_, err = DecodeEdit(jx.DecodeStr(`{"price":12.5}`))
	require.Error(t, err)
}

func TestDecodePrice_NumbersClamp(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want int
	}{
		{`{"price":2000}`, product.MaxPrice},
		{`{"price":1000}`, product.MaxPrice},
		{`{"price":0}`, product.MinPrice},
		{`{"price":-5}`, product.MinPrice},
		{`{"price":250}`, 250},
	} {
		t.Run(tt.in, func(t *testing.T) {
			edit, err := DecodeEdit(jx.DecodeStr(tt.in))
			require.NoError(t, err)
			require.NotNil(t, edit.Price)
			assert.Equal(t, tt.want, *edit.Price)

			req, err := DecodeCreateRequest(jx.DecodeStr(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Price)
		})
	}

	_, err := DecodeCreateRequest(jx.DecodeStr(`{"price":1e3}`))
	require.Error(t, err)
}

func TestCreateRequestRoundTrip(t *testing.T) {
	req := product.CreateRequest{
		Title:       "Widget",
		Price:       25,
		Description: "A widget",
		CategoryID:  3,
		Images:      []string{"https://example.com/1.png"},
	}

	var e jx.Encoder
	EncodeCreateRequest(&e, req)
	assert.JSONEq(t,
		`{"title":"Widget","price":25,"description":"A widget","categoryId":3,"images":["https://example.com/1.png"]}`,
		e.String(),
	)

	got, err := DecodeCreateRequest(jx.DecodeBytes(e.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, req, got)
}

func TestDecodeCategories(t *testing.T) {
	cs, err := DecodeCategories(jx.DecodeStr(`[{"id":1,"name":"Clothes","image":"i","slug":"clothes"},{"id":2,"name":"Shoes","image":"j","slug":"shoes"}]`))
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "Shoes", cs[1].Name)

	var e jx.Encoder
	EncodeCategories(&e, cs)
	assert.JSONEq(t, `[{"id":1,"name":"Clothes","image":"i","slug":"clothes"},{"id":2,"name":"Shoes","image":"j","slug":"shoes"}]`, e.String())
}
