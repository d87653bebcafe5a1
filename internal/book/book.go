package book

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Book represents a catalogue record.
type Book struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	Price           decimal.Decimal `json:"price"`
	ISBN            *string         `json:"isbn"`
	Description     *string         `json:"description"`
	Category        *string         `json:"category"`
	Publisher       *string         `json:"publisher"`
	PublicationDate *Date           `json:"publicationDate"`
	Pages           *int            `json:"pages"`
	StockQuantity   int             `json:"stockQuantity"`
	ImageURL        *string         `json:"imageUrl"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// replaceFields overwrites every mutable field with the values from src.
// Identity and timestamps are left untouched.
func (b *Book) replaceFields(src Book) {
	b.Title = src.Title
	b.Author = src.Author
	b.Price = src.Price
	b.ISBN = src.ISBN
	b.Description = src.Description
	b.Category = src.Category
	b.Publisher = src.Publisher
	b.PublicationDate = src.PublicationDate
	b.Pages = src.Pages
	b.StockQuantity = src.StockQuantity
	b.ImageURL = src.ImageURL
}

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day, encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate returns the date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string in %s format", dateLayout)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("date must be in %s format", dateLayout)
	}
	*d = parsed
	return nil
}

// Direction is the ordering applied to a sort field.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sort orders a listing by one field.
type Sort struct {
	Field     string
	Direction Direction
}

// DefaultSort orders listings by title, ascending.
var DefaultSort = Sort{Field: "title", Direction: Asc}

// sortColumns maps the public sort property to its column.
var sortColumns = map[string]string{
	"id":              "id",
	"title":           "title",
	"author":          "author",
	"price":           "price",
	"isbn":            "isbn",
	"category":        "category",
	"publisher":       "publisher",
	"publicationDate": "publication_date",
	"pages":           "pages",
	"stockQuantity":   "stock_quantity",
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
}

// ParseSort reads "field" or "field,asc|desc". An empty value yields DefaultSort.
func ParseSort(raw string) (Sort, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSort, nil
	}
	field, dir, _ := strings.Cut(raw, ",")
	field = strings.TrimSpace(field)
	if _, ok := sortColumns[field]; !ok {
		return Sort{}, NewValidationError(FieldError{
			Field:   "sort",
			Message: fmt.Sprintf("Unsupported sort property '%s'", field),
		})
	}
	s := Sort{Field: field, Direction: Asc}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		s.Direction = Desc
	default:
		return Sort{}, NewValidationError(FieldError{
			Field:   "sort",
			Message: fmt.Sprintf("Unsupported sort direction '%s'", strings.TrimSpace(dir)),
		})
	}
	return s, nil
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageRequest selects a zero-based window of an ordered result set.
type PageRequest struct {
	Page int
	Size int
	Sort Sort
}

// NewPageRequest clamps page and size into their accepted ranges.
func NewPageRequest(page, size int, sort Sort) PageRequest {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	// Keep the offset representable; such a page lies past any real result set.
	if page > math.MaxInt/size {
		page = math.MaxInt / size
	}
	if sort.Field == "" {
		sort = DefaultSort
	}
	return PageRequest{Page: page, Size: size, Sort: sort}
}

// Offset is the number of records preceding the window.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one window of a result set plus total-count metadata.
type Page struct {
	Content       []Book
	TotalElements int64
	Number        int
	Size          int
}

// NewPage builds a Page for the given request.
func NewPage(content []Book, req PageRequest, total int64) Page {
	if content == nil {
		content = []Book{}
	}
	return Page{Content: content, TotalElements: total, Number: req.Page, Size: req.Size}
}

// TotalPages is the number of pages needed to hold TotalElements.
func (p Page) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

func (p Page) MarshalJSON() ([]byte, error) {
	totalPages := p.TotalPages()
	return json.Marshal(struct {
		Content          []Book `json:"content"`
		TotalElements    int64  `json:"totalElements"`
		TotalPages       int    `json:"totalPages"`
		Number           int    `json:"number"`
		Size             int    `json:"size"`
		NumberOfElements int    `json:"numberOfElements"`
		First            bool   `json:"first"`
		Last             bool   `json:"last"`
		Empty            bool   `json:"empty"`
	}{
		Content:          p.Content,
		TotalElements:    p.TotalElements,
		TotalPages:       totalPages,
		Number:           p.Number,
		Size:             p.Size,
		NumberOfElements: len(p.Content),
		First:            p.Number == 0,
		Last:             p.Number >= totalPages-1,
		Empty:            len(p.Content) == 0,
	})
}

// SearchQuery carries the optional filters of a search call. A nil field is absent.
type SearchQuery struct {
	Title    *string
	Author   *string
	Category *string
	Keyword  *string
}

// Stats summarises the stock situation of the catalogue.
type Stats struct {
	TotalBooks      int64
	BooksInStock    int64
	BooksOutOfStock int64
	Category        string
	CategoryCount   *int64
}
