// Package wire holds the JSON codec for products and categories, shared by the
// catalog service client and the admin gateway.
package wire

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/catalog-admin/internal/domain/category"
	"github.com/xenking/catalog-admin/internal/domain/product"
)

// EncodeCategory writes c as a JSON object.
func EncodeCategory(e *jx.Encoder, c category.Category) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("image")
	e.Str(c.Image)
	e.FieldStart("slug")
	e.Str(c.Slug)
	e.ObjEnd()
}

// EncodeCategories writes cs as a JSON array.
func EncodeCategories(e *jx.Encoder, cs []category.Category) {
	e.ArrStart()
	for _, c := range cs {
		EncodeCategory(e, c)
	}
	e.ArrEnd()
}

// DecodeCategory reads a category object. Unknown fields are skipped.
func DecodeCategory(d *jx.Decoder) (category.Category, error) {
	var c category.Category
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			c.ID, err = d.Int()
		case "name":
			c.Name, err = decodeOptStr(d)
		case "image":
			c.Image, err = decodeOptStr(d)
		case "slug":
			c.Slug, err = decodeOptStr(d)
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "field %q", key)
	})
	if err != nil {
		return category.Category{}, errors.Wrap(err, "decode category")
	}
	return c, nil
}

// DecodeCategories reads an array of categories.
func DecodeCategories(d *jx.Decoder) ([]category.Category, error) {
	out := make([]category.Category, 0)
	err := d.Arr(func(d *jx.Decoder) error {
		c, err := DecodeCategory(d)
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeProduct writes p as a JSON object. Zero timestamps are omitted.
func EncodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int(p.ID)
	e.FieldStart("title")
	e.Str(p.Title)
	if p.Slug != "" {
		e.FieldStart("slug")
		e.Str(p.Slug)
	}
	e.FieldStart("price")
	e.Num(jx.Num(p.Price.String()))
	e.FieldStart("description")
	e.Str(p.Description)
	e.FieldStart("category")
	EncodeCategory(e, p.Category)
	e.FieldStart("images")
	encodeStrings(e, p.Images)
	if !p.CreatedAt.IsZero() {
		e.FieldStart("creationAt")
		e.Str(p.CreatedAt.Format(time.RFC3339Nano))
	}
	if !p.UpdatedAt.IsZero() {
		e.FieldStart("updatedAt")
		e.Str(p.UpdatedAt.Format(time.RFC3339Nano))
	}
	e.ObjEnd()
}

// EncodeProducts writes ps as a JSON array.
func EncodeProducts(e *jx.Encoder, ps []product.Product) {
	e.ArrStart()
	for _, p := range ps {
		EncodeProduct(e, p)
	}
	e.ArrEnd()
}

// DecodeProduct reads a product object. Unknown fields are skipped.
func DecodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int()
		case "title":
			p.Title, err = decodeOptStr(d)
		case "slug":
			p.Slug, err = decodeOptStr(d)
		case "price":
			p.Price, err = decodeDecimal(d)
		case "description":
			p.Description, err = decodeOptStr(d)
		case "category":
			p.Category, err = DecodeCategory(d)
		case "images":
			p.Images, err = decodeStrings(d)
		case "creationAt":
			p.CreatedAt, err = decodeTime(d)
		case "updatedAt":
			p.UpdatedAt, err = decodeTime(d)
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "field %q", key)
	})
	if err != nil {
		return product.Product{}, errors.Wrap(err, "decode product")
	}
	return p, nil
}

// DecodeProducts reads an array of products.
func DecodeProducts(d *jx.Decoder) ([]product.Product, error) {
	out := make([]product.Product, 0)
	err := d.Arr(func(d *jx.Decoder) error {
		p, err := DecodeProduct(d)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeCreateRequest writes the POST /products body.
func EncodeCreateRequest(e *jx.Encoder, req product.CreateRequest) {
	e.ObjStart()
	e.FieldStart("title")
	e.Str(req.Title)
	e.FieldStart("price")
	e.Int(req.Price)
	e.FieldStart("description")
	e.Str(req.Description)
	e.FieldStart("categoryId")
	e.Int(req.CategoryID)
	e.FieldStart("images")
	encodeStrings(e, req.Images)
	e.ObjEnd()
}

// DecodeCreateRequest reads a creation form submission. The price is clamped
// into the allowed range with product.ClampPrice, whether it arrives as a
// string or as an integer.
func DecodeCreateRequest(d *jx.Decoder) (product.CreateRequest, error) {
	var req product.CreateRequest
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "title":
			req.Title, err = decodeOptStr(d)
		case "price":
			req.Price, err = decodePriceInput(d)
		case "description":
			req.Description, err = decodeOptStr(d)
		case "categoryId":
			req.CategoryID, err = decodeOptInt(d)
		case "images":
			req.Images, err = decodeStrings(d)
		default:
			err = d.Skip()
		}
		return errors.Wrapf(err, "field %q", key)
	})
	if err != nil {
		return product.CreateRequest{}, errors.Wrap(err, "decode create request")
	}
	return req, nil
}

// EncodeEdit writes the PUT /products/{id} body with only the set fields.
func EncodeEdit(e *jx.Encoder, edit product.Edit) {
	e.ObjStart()
	if edit.Title != nil {
		e.FieldStart("title")
		e.Str(*edit.Title)
	}
	if edit.Price != nil {
		e.FieldStart("price")
		e.Int(*edit.Price)
	}
	e.ObjEnd()
}

// DecodeEdit reads an edit form submission. Absent or null fields stay unset.
func DecodeEdit(d *jx.Decoder) (product.Edit, error) {
	var edit product.Edit
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		switch key {
		case "title":
			s, err := d.Str()
			if err != nil {
				return errors.Wrap(err, `field "title"`)
			}
			edit.Title = &s
		case "price":
			n, err := decodePriceInput(d)
			if err != nil {
				return errors.Wrap(err, `field "price"`)
			}
			edit.Price = &n
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return product.Edit{}, errors.Wrap(err, "decode edit")
	}
	return edit, nil
}

func encodeStrings(e *jx.Encoder, ss []string) {
	e.ArrStart()
	for _, s := range ss {
		e.Str(s)
	}
	e.ArrEnd()
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	out := make([]string, 0)
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func decodeOptStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

func decodeOptInt(d *jx.Decoder) (int, error) {
	if d.Next() == jx.Null {
		return 0, d.Null()
	}
	return d.Int()
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	case jx.Null:
		return decimal.Zero, d.Null()
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(string(n))
	}
}

func decodePriceInput(d *jx.Decoder) (int, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		n, ok := product.ClampPrice(s)
		if !ok {
			return 0, errors.Errorf("price %q is not a number", s)
		}
		return n, nil
	case jx.Null:
		return 0, d.Null()
	default:
		n, err := d.Num()
		if err != nil {
			return 0, err
		}
		if strings.ContainsAny(string(n), ".eE") {
			return 0, errors.Errorf("price %s is not an integer", string(n))
		}
		v, ok := product.ClampPrice(string(n))
		if !ok {
			return 0, errors.Errorf("price %s is not an integer", string(n))
		}
		return v, nil
	}
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	if d.Next() == jx.Null {
		return time.Time{}, d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}
