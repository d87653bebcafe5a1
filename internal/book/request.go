package book

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

// Bounds of the books table: price is NUMERIC(10,2), counts are INTEGER.
var (
	minPrice = decimal.New(1, -2)
	maxPrice = decimal.New(1, 8)
)

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = validate.RegisterValidation("notblank", validators.NotBlank)
	_ = validate.RegisterValidation("price", validPrice)
}

// validPrice reports whether the amount survives rounding to cents and fits
// in eight integer digits.
func validPrice(fl validator.FieldLevel) bool {
	d := decimal.NewFromFloat(fl.Field().Float()).Round(2)
	return d.GreaterThanOrEqual(minPrice) && d.LessThan(maxPrice)
}

// BookRequest is the body accepted by create and update. Identity and
// timestamps are not part of it, so clients cannot set them.
type BookRequest struct {
	Title           string           `json:"title" validate:"notblank,max=255"`
	Author          string           `json:"author" validate:"notblank,max=255"`
	Price           *decimal.Decimal `json:"price" validate:"required,gt=0,price"`
	ISBN            *string          `json:"isbn" validate:"omitempty,max=20"`
	Description     *string          `json:"description"`
	Category        *string          `json:"category" validate:"omitempty,max=100"`
	Publisher       *string          `json:"publisher" validate:"omitempty,max=255"`
	PublicationDate *Date            `json:"publicationDate"`
	Pages           *int             `json:"pages" validate:"omitempty,min=1,max=2147483647"`
	StockQuantity   *int             `json:"stockQuantity" validate:"omitempty,min=0,max=2147483647"`
	ImageURL        *string          `json:"imageUrl" validate:"omitempty,max=500"`
}

var fieldMessages = map[string]string{
	"title.notblank":    "Title is required",
	"title.max":         "Title cannot exceed 255 characters",
	"author.notblank":   "Author is required",
	"author.max":        "Author cannot exceed 255 characters",
	"price.required":    "Price is required",
	"price.gt":          "Price must be greater than 0",
	"price.price":       "Price must be between 0.01 and 99999999.99",
	"isbn.max":          "ISBN cannot exceed 20 characters",
	"category.max":      "Category cannot exceed 100 characters",
	"publisher.max":     "Publisher cannot exceed 255 characters",
	"pages.min":         "Pages must be at least 1",
	"pages.max":         "Pages cannot exceed 2147483647",
	"stockQuantity.min": "Stock quantity cannot be negative",
	"stockQuantity.max": "Stock quantity cannot exceed 2147483647",
	"imageUrl.max":      "Image URL cannot exceed 500 characters",
}

// DecodeBookRequest reads a JSON body. Unknown fields are ignored.
func DecodeBookRequest(r io.Reader) (BookRequest, error) {
	var req BookRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return BookRequest{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	return req, nil
}

// Validate returns a *ValidationError listing every violated constraint, or nil.
func (req BookRequest) Validate() error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = fmt.Sprintf("%s is invalid", fe.Field())
		}
		fields = append(fields, FieldError{Field: fe.Field(), Message: msg})
	}
	return NewValidationError(fields...)
}

// ToBook maps the request onto a Book. Blank optional strings become nil and a
// missing stock quantity becomes 0.
func (req BookRequest) ToBook() Book {
	b := Book{
		Title:           req.Title,
		Author:          req.Author,
		ISBN:            blankToNil(req.ISBN),
		Description:     blankToNil(req.Description),
		Category:        blankToNil(req.Category),
		Publisher:       blankToNil(req.Publisher),
		PublicationDate: req.PublicationDate,
		Pages:           req.Pages,
		ImageURL:        blankToNil(req.ImageURL),
	}
	if req.Price != nil {
		b.Price = *req.Price
	}
	if req.StockQuantity != nil {
		b.StockQuantity = *req.StockQuantity
	}
	return b
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
