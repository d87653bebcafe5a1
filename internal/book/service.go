package book

import (
	"context"

	"github.com/rs/zerolog/log"
)

const (
	DefaultSuggestLimit = 10
	MaxSuggestLimit     = 50
)

// Service provides book-related business logic.
// It is the only path through which books are created, changed or removed.
type Service struct {
	repo Repository
}

// NewService creates a new book service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetAll returns one page of the whole catalogue.
func (s *Service) GetAll(ctx context.Context, req PageRequest) (Page, error) {
	log.Debug().Int("page", req.Page).Int("size", req.Size).Msg("list books")
	return s.repo.FindAll(ctx, req)
}

// GetByID returns the book with the given id. The boolean is false on a miss.
func (s *Service) GetByID(ctx context.Context, id int64) (Book, bool, error) {
	log.Debug().Int64("id", id).Msg("get book")
	return s.repo.FindByID(ctx, id)
}

// GetByISBN returns the book holding isbn. The boolean is false on a miss.
func (s *Service) GetByISBN(ctx context.Context, isbn string) (Book, bool, error) {
	log.Debug().Str("isbn", isbn).Msg("get book by isbn")
	return s.repo.FindByISBN(ctx, isbn)
}

// GetInStock returns books with a positive stock quantity.
func (s *Service) GetInStock(ctx context.Context, req PageRequest) (Page, error) {
	return s.repo.FindInStock(ctx, req)
}

// Create stores a new book. A non-nil ISBN must not be held by any other book.
func (s *Service) Create(ctx context.Context, b Book) (Book, error) {
	if b.ISBN != nil {
		if _, found, err := s.repo.FindByISBN(ctx, *b.ISBN); err != nil {
			return Book{}, err
		} else if found {
			return Book{}, &DuplicateISBNError{ISBN: *b.ISBN}
		}
	}

	if dup, err := s.repo.ExistsByTitleAuthor(ctx, b.Title, b.Author); err != nil {
		log.Warn().Err(err).Msg("title/author duplicate check failed")
	} else if dup {
		log.Warn().Str("title", b.Title).Str("author", b.Author).Msg("book with same title and author already exists")
	}

	b.ID = 0
	saved, err := s.repo.Save(ctx, b)
	if err != nil {
		return Book{}, err
	}
	log.Info().Int64("id", saved.ID).Str("title", saved.Title).Msg("book created")
	return saved, nil
}

// Update replaces every mutable field of book id with the values in b.
func (s *Service) Update(ctx context.Context, id int64, b Book) (Book, error) {
	existing, found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if !found {
		return Book{}, NotFoundByID(id)
	}

	if b.ISBN != nil && (existing.ISBN == nil || *existing.ISBN != *b.ISBN) {
		other, taken, err := s.repo.FindByISBN(ctx, *b.ISBN)
		if err != nil {
			return Book{}, err
		}
		if taken && other.ID != id {
			return Book{}, &DuplicateISBNError{ISBN: *b.ISBN}
		}
	}

	if dup, err := s.repo.ExistsByTitleAuthorExcludingID(ctx, b.Title, b.Author, id); err != nil {
		log.Warn().Err(err).Msg("title/author duplicate check failed")
	} else if dup {
		log.Warn().Int64("id", id).Str("title", b.Title).Str("author", b.Author).
			Msg("another book with same title and author exists")
	}

	existing.replaceFields(b)
	saved, err := s.repo.Save(ctx, existing)
	if err != nil {
		return Book{}, err
	}
	log.Info().Int64("id", saved.ID).Msg("book updated")
	return saved, nil
}

// Delete removes book id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ok, err := s.repo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return NotFoundByID(id)
	}
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}
	log.Info().Int64("id", id).Msg("book deleted")
	return nil
}

// Search honours one filter set per call, in the order
// title+author, title, author, category, keyword. With no filter it lists everything.
func (s *Service) Search(ctx context.Context, q SearchQuery, req PageRequest) (Page, error) {
	switch {
	case q.Title != nil && q.Author != nil:
		return s.repo.SearchByTitleAndAuthor(ctx, q.Title, q.Author, req)
	case q.Title != nil:
		return s.repo.SearchByTitle(ctx, *q.Title, req)
	case q.Author != nil:
		return s.repo.SearchByAuthor(ctx, *q.Author, req)
	case q.Category != nil:
		return s.repo.SearchByCategory(ctx, *q.Category, req)
	case q.Keyword != nil:
		return s.repo.SearchByTitleOrAuthorPage(ctx, *q.Keyword, req)
	default:
		return s.repo.FindAll(ctx, req)
	}
}

// Suggest returns up to limit books whose title or author contains keyword.
func (s *Service) Suggest(ctx context.Context, keyword string, limit int) ([]Book, error) {
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	if limit > MaxSuggestLimit {
		limit = MaxSuggestLimit
	}
	books, err := s.repo.SearchByTitleOrAuthor(ctx, keyword)
	if err != nil {
		return nil, err
	}
	if len(books) > limit {
		books = books[:limit]
	}
	return books, nil
}

// CountBooks returns the number of stored books.
func (s *Service) CountBooks(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// Stats summarises stock levels, plus the size of category when one is given.
func (s *Service) Stats(ctx context.Context, category string) (Stats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	inStock, err := s.repo.CountInStock(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		TotalBooks:      total,
		BooksInStock:    inStock,
		BooksOutOfStock: total - inStock,
	}
	if category != "" {
		n, err := s.repo.CountByCategory(ctx, category)
		if err != nil {
			return Stats{}, err
		}
		st.Category = category
		st.CategoryCount = &n
	}
	return st, nil
}
