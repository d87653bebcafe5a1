package book

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// memoryRepo is an in-process Repository with the same matching and ordering
// rules as PostgresRepo. It backs the service and handler tests.
type memoryRepo struct {
	mu     sync.Mutex
	books  map[int64]Book
	nextID int64
	now    func() time.Time
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		books:  map[int64]Book{},
		nextID: 1,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func compareOptional[T cmp.Ordered](a, b *T) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, false
	case a == nil:
		return 1, true
	case b == nil:
		return -1, true
	}
	return cmp.Compare(*a, *b), false
}

// compareBooks orders by s with nulls last in either direction, then by id.
func compareBooks(a, b Book, s Sort) int {
	var (
		c         int
		nullOrder bool
	)
	switch s.Field {
	case "id":
		c = cmp.Compare(a.ID, b.ID)
	case "author":
		c = strings.Compare(a.Author, b.Author)
	case "price":
		c = a.Price.Cmp(b.Price)
	case "isbn":
		c, nullOrder = compareOptional(a.ISBN, b.ISBN)
	case "category":
		c, nullOrder = compareOptional(a.Category, b.Category)
	case "publisher":
		c, nullOrder = compareOptional(a.Publisher, b.Publisher)
	case "publicationDate":
		switch {
		case a.PublicationDate == nil && b.PublicationDate == nil:
		case a.PublicationDate == nil:
			c, nullOrder = 1, true
		case b.PublicationDate == nil:
			c, nullOrder = -1, true
		default:
			c = a.PublicationDate.Compare(b.PublicationDate.Time)
		}
	case "pages":
		c, nullOrder = compareOptional(a.Pages, b.Pages)
	case "stockQuantity":
		c = cmp.Compare(a.StockQuantity, b.StockQuantity)
	case "createdAt":
		c = a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		c = strings.Compare(a.Title, b.Title)
	}
	if nullOrder {
		return c
	}
	if c == 0 {
		c = cmp.Compare(a.ID, b.ID)
	}
	if s.Direction == Desc {
		return -c
	}
	return c
}

func (r *memoryRepo) filter(keep func(Book) bool) []Book {
	out := []Book{}
	for _, b := range r.books {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func (r *memoryRepo) page(keep func(Book) bool, req PageRequest) Page {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := r.filter(keep)
	slices.SortFunc(matched, func(a, b Book) int { return compareBooks(a, b, req.Sort) })

	start := min(req.Offset(), len(matched))
	end := min(start+req.Size, len(matched))
	return NewPage(slices.Clone(matched[start:end]), req, int64(len(matched)))
}

func (r *memoryRepo) FindByID(_ context.Context, id int64) (Book, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	return b, ok, nil
}

func (r *memoryRepo) FindByISBN(_ context.Context, isbn string) (Book, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.books {
		if b.ISBN != nil && *b.ISBN == isbn {
			return b, true, nil
		}
	}
	return Book{}, false, nil
}

func (r *memoryRepo) FindAll(_ context.Context, req PageRequest) (Page, error) {
	return r.page(func(Book) bool { return true }, req), nil
}

func (r *memoryRepo) SearchByTitle(_ context.Context, title string, req PageRequest) (Page, error) {
	return r.page(func(b Book) bool { return containsFold(b.Title, title) }, req), nil
}

func (r *memoryRepo) SearchByAuthor(_ context.Context, author string, req PageRequest) (Page, error) {
	return r.page(func(b Book) bool { return containsFold(b.Author, author) }, req), nil
}

func (r *memoryRepo) SearchByCategory(_ context.Context, category string, req PageRequest) (Page, error) {
	return r.page(func(b Book) bool {
		return b.Category != nil && containsFold(*b.Category, category)
	}, req), nil
}

func (r *memoryRepo) SearchByTitleAndAuthor(_ context.Context, title, author *string, req PageRequest) (Page, error) {
	return r.page(func(b Book) bool {
		return (title == nil || containsFold(b.Title, *title)) &&
			(author == nil || containsFold(b.Author, *author))
	}, req), nil
}

func (r *memoryRepo) matchesKeyword(keyword string) func(Book) bool {
	return func(b Book) bool {
		return containsFold(b.Title, keyword) || containsFold(b.Author, keyword)
	}
}

func (r *memoryRepo) SearchByTitleOrAuthor(_ context.Context, keyword string) ([]Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.filter(r.matchesKeyword(keyword))
	slices.SortFunc(out, func(a, b Book) int { return compareBooks(a, b, DefaultSort) })
	return out, nil
}

func (r *memoryRepo) SearchByTitleOrAuthorPage(_ context.Context, keyword string, req PageRequest) (Page, error) {
	return r.page(r.matchesKeyword(keyword), req), nil
}

func (r *memoryRepo) FindInStock(_ context.Context, req PageRequest) (Page, error) {
	return r.page(func(b Book) bool { return b.StockQuantity > 0 }, req), nil
}

func (r *memoryRepo) count(keep func(Book) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.filter(keep)))
}

func (r *memoryRepo) CountInStock(context.Context) (int64, error) {
	return r.count(func(b Book) bool { return b.StockQuantity > 0 }), nil
}

func (r *memoryRepo) CountByCategory(_ context.Context, category string) (int64, error) {
	return r.count(func(b Book) bool {
		return b.Category != nil && strings.EqualFold(*b.Category, category)
	}), nil
}

func (r *memoryRepo) Count(context.Context) (int64, error) {
	return r.count(func(Book) bool { return true }), nil
}

func (r *memoryRepo) ExistsByID(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.books[id]
	return ok, nil
}

func (r *memoryRepo) ExistsByTitleAuthor(_ context.Context, title, author string) (bool, error) {
	return r.count(func(b Book) bool {
		return strings.EqualFold(b.Title, title) && strings.EqualFold(b.Author, author)
	}) > 0, nil
}

func (r *memoryRepo) ExistsByTitleAuthorExcludingID(_ context.Context, title, author string, excludeID int64) (bool, error) {
	return r.count(func(b Book) bool {
		return b.ID != excludeID && strings.EqualFold(b.Title, title) && strings.EqualFold(b.Author, author)
	}) > 0, nil
}

func (r *memoryRepo) Save(_ context.Context, b Book) (Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b.ISBN != nil {
		for _, other := range r.books {
			if other.ID != b.ID && other.ISBN != nil && *other.ISBN == *b.ISBN {
				return Book{}, &DuplicateISBNError{ISBN: *b.ISBN}
			}
		}
	}

	now := r.now()
	if b.ID == 0 {
		b.ID = r.nextID
		r.nextID++
		b.CreatedAt = now
		b.UpdatedAt = now
		r.books[b.ID] = b
		return b, nil
	}

	existing, ok := r.books[b.ID]
	if !ok {
		return Book{}, NotFoundByID(b.ID)
	}
	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = now
	if b.UpdatedAt.Before(existing.UpdatedAt) {
		b.UpdatedAt = existing.UpdatedAt
	}
	r.books[b.ID] = b
	return b, nil
}

func (r *memoryRepo) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.books[id]; !ok {
		return NotFoundByID(id)
	}
	delete(r.books, id)
	return nil
}
