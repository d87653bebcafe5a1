package book

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// CachedRepository is a cache-aside decorator for single-record lookups.
// Cache failures are logged and the call falls through to the wrapped repository.
type CachedRepository struct {
	Repository
	cache Cache
	ttl   time.Duration
}

func NewCachedRepository(inner Repository, cache Cache, ttl time.Duration) *CachedRepository {
	return &CachedRepository{Repository: inner, cache: cache, ttl: ttl}
}

func idKey(id int64) string {
	return "book:id:" + strconv.FormatInt(id, 10)
}

func isbnKey(isbn string) string {
	return "book:isbn:" + isbn
}

func (r *CachedRepository) FindByID(ctx context.Context, id int64) (Book, bool, error) {
	var cached Book
	hit, err := r.cache.Get(ctx, idKey(id), &cached)
	if err != nil {
		log.Warn().Err(err).Int64("id", id).Msg("book cache read failed")
	} else if hit {
		return cached, true, nil
	}

	b, found, err := r.Repository.FindByID(ctx, id)
	if err != nil || !found {
		return b, found, err
	}
	r.store(ctx, b)
	return b, true, nil
}

// FindByISBN resolves isbn to an id through the cache, then verifies the cached
// record still carries that isbn before trusting it.
func (r *CachedRepository) FindByISBN(ctx context.Context, isbn string) (Book, bool, error) {
	var id int64
	hit, err := r.cache.Get(ctx, isbnKey(isbn), &id)
	if err != nil {
		log.Warn().Err(err).Str("isbn", isbn).Msg("book cache read failed")
	} else if hit {
		var cached Book
		if ok, err := r.cache.Get(ctx, idKey(id), &cached); err == nil && ok &&
			cached.ISBN != nil && *cached.ISBN == isbn {
			return cached, true, nil
		}
	}

	b, found, err := r.Repository.FindByISBN(ctx, isbn)
	if err != nil || !found {
		return b, found, err
	}
	r.store(ctx, b)
	return b, true, nil
}

func (r *CachedRepository) Save(ctx context.Context, b Book) (Book, error) {
	saved, err := r.Repository.Save(ctx, b)
	if err != nil {
		return saved, err
	}
	r.evict(ctx, saved)
	return saved, nil
}

func (r *CachedRepository) DeleteByID(ctx context.Context, id int64) error {
	if err := r.Repository.DeleteByID(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, Book{ID: id})
	return nil
}

func (r *CachedRepository) store(ctx context.Context, b Book) {
	if err := r.cache.Set(ctx, idKey(b.ID), b, r.ttl); err != nil {
		log.Warn().Err(err).Int64("id", b.ID).Msg("book cache write failed")
		return
	}
	if b.ISBN != nil {
		if err := r.cache.Set(ctx, isbnKey(*b.ISBN), b.ID, r.ttl); err != nil {
			log.Warn().Err(err).Int64("id", b.ID).Msg("book cache write failed")
		}
	}
}

func (r *CachedRepository) evict(ctx context.Context, b Book) {
	keys := []string{idKey(b.ID)}
	if b.ISBN != nil {
		keys = append(keys, isbnKey(*b.ISBN))
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Int64("id", b.ID).Msg("book cache eviction failed")
	}
}
