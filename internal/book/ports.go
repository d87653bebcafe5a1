package book

import (
	"context"
	"time"
)

//go:generate mockgen -destination=mock_repository_test.go -package=book bookcatalog/internal/book Repository

// Repository defines the contract for book data storage.
//
// Find* lookups report a miss through the boolean, never through an error.
// Substring searches are case-insensitive.
type Repository interface {
	FindByID(ctx context.Context, id int64) (Book, bool, error)
	FindByISBN(ctx context.Context, isbn string) (Book, bool, error)
	FindAll(ctx context.Context, req PageRequest) (Page, error)

	SearchByTitle(ctx context.Context, title string, req PageRequest) (Page, error)
	SearchByAuthor(ctx context.Context, author string, req PageRequest) (Page, error)
	SearchByCategory(ctx context.Context, category string, req PageRequest) (Page, error)
	// SearchByTitleAndAuthor treats a nil filter as match-all for that field.
	SearchByTitleAndAuthor(ctx context.Context, title, author *string, req PageRequest) (Page, error)
	SearchByTitleOrAuthor(ctx context.Context, keyword string) ([]Book, error)
	SearchByTitleOrAuthorPage(ctx context.Context, keyword string, req PageRequest) (Page, error)

	FindInStock(ctx context.Context, req PageRequest) (Page, error)
	CountInStock(ctx context.Context) (int64, error)
	CountByCategory(ctx context.Context, category string) (int64, error)

	ExistsByTitleAuthor(ctx context.Context, title, author string) (bool, error)
	ExistsByTitleAuthorExcludingID(ctx context.Context, title, author string, excludeID int64) (bool, error)

	// Save inserts when ID is zero and replaces the stored row otherwise.
	// Updating a missing row returns ErrNotFound.
	Save(ctx context.Context, b Book) (Book, error)
	// DeleteByID returns ErrNotFound when no row was removed.
	DeleteByID(ctx context.Context, id int64) error
	ExistsByID(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// Cache is a key/value store for single-record reads.
type Cache interface {
	// Get reports false on a miss and leaves dest untouched.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
