package product

import (
	"reflect"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
)

// Bounds enforced by the create and edit forms.
const (
	MaxTitleLength = 50
	MinPrice       = 1
	MaxPrice       = 1000
	MaxImageCount  = 3
)

// ValidationError lists the rejected fields with a user-facing reason each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("invalid product: ")
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(e.Fields[name])
	}
	return b.String()
}

// Validator checks create and edit requests before anything is sent upstream.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator with the product form rules registered.
// It panics if a rule cannot be registered.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" {
			return name
		}
		return f.Name
	})
	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		panic(errors.Wrap(err, "register notblank"))
	}
	return &Validator{v: v}
}

// notBlank rejects strings that are empty after trimming whitespace.
func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Create validates a creation request.
func (v *Validator) Create(req CreateRequest) error {
	return v.check(req)
}

// Edit validates an edit request. An edit must change at least one field.
func (v *Validator) Edit(e Edit) error {
	if e.IsEmpty() {
		return ErrEmptyEdit
	}
	return v.check(e)
}

func (v *Validator) check(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "validate")
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		if _, seen := out.Fields[fe.Field()]; seen {
			continue
		}
		out.Fields[fe.Field()] = reason(fe)
	}
	return out
}

// reason maps a failed rule to the message shown next to the form field.
func reason(fe validator.FieldError) string {
	field := fe.StructField()
	if strings.HasPrefix(fe.Field(), "images[") {
		return "Image must be a valid URL"
	}

	switch field {
	case "Title":
		if fe.Tag() == "max" {
			return "Product title must be at most 50 characters"
		}
		return "Product title is required"
	case "Price":
		return "Price must be between 1 and 1000"
	case "Description":
		return "Description is required"
	case "CategoryID":
		return "Category must be selected"
	case "Images":
		if fe.Tag() == "max" {
			return "You can upload up to 3 images"
		}
		return "Product must have at least one image"
	}
	return "Invalid value (" + fe.Tag() + ")"
}
