package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"

	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/platform/logging"
	"bookcatalog/internal/platform/postgres"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type sample struct {
	title, author, isbn, category, publisher string
	price                                    string
	published                                string
	pages, stock                             int
}

var catalogue = []sample{
	{"The Great Gatsby", "F. Scott Fitzgerald", "978-0-7432-7356-5", "Fiction", "Scribner", "12.99", "1925-04-10", 180, 10},
	{"To Kill a Mockingbird", "Harper Lee", "978-0-06-112008-4", "Fiction", "J. B. Lippincott", "14.99", "1960-07-11", 281, 7},
	{"1984", "George Orwell", "978-0-452-28423-4", "Dystopian", "Secker & Warburg", "13.50", "1949-06-08", 328, 12},
	{"Pride and Prejudice", "Jane Austen", "978-0-14-143951-8", "Classics", "T. Egerton", "9.99", "1813-01-28", 432, 4},
	{"Dune", "Frank Herbert", "978-0-441-01359-3", "Science Fiction", "Chilton Books", "18.99", "1965-08-01", 412, 0},
	{"The Hobbit", "J.R.R. Tolkien", "978-0-547-92822-7", "Fantasy", "George Allen & Unwin", "15.25", "1937-09-21", 310, 9},
	{"Foundation", "Isaac Asimov", "978-0-553-29335-7", "Science Fiction", "Gnome Press", "11.49", "1951-06-01", 255, 3},
	{"Great Expectations", "Charles Dickens", "978-0-14-143956-3", "Classics", "Chapman & Hall", "10.75", "1861-08-01", 544, 0},
	{"The Go Programming Language", "Alan A. A. Donovan", "978-0-13-419044-0", "Technology", "Addison-Wesley", "39.99", "2015-10-26", 380, 6},
	{"Designing Data-Intensive Applications", "Martin Kleppmann", "978-1-4493-7332-0", "Technology", "O'Reilly Media", "44.99", "2017-03-16", 616, 15},
}

var (
	genres     = []string{"Fiction", "Science Fiction", "History", "Science", "Technology", "Romance", "Mystery", "Biography"}
	publishers = []string{"Penguin", "HarperCollins", "Oxford", "Cambridge", "MIT Press", "Springer", "Wiley"}
	words      = []string{"Silent", "River", "Empire", "Garden", "Shadow", "Letters", "Winter", "Machine", "Harbor", "Atlas"}
)

func (s sample) toBook() (book.Book, error) {
	price, err := decimal.NewFromString(s.price)
	if err != nil {
		return book.Book{}, err
	}
	b := book.Book{
		Title:         s.title,
		Author:        s.author,
		Price:         price,
		StockQuantity: s.stock,
	}
	if s.isbn != "" {
		b.ISBN = &s.isbn
	}
	if s.category != "" {
		b.Category = &s.category
	}
	if s.publisher != "" {
		b.Publisher = &s.publisher
	}
	if s.pages > 0 {
		b.Pages = &s.pages
	}
	if s.published != "" {
		d, err := book.ParseDate(s.published)
		if err != nil {
			return book.Book{}, err
		}
		b.PublicationDate = &d
	}
	return b, nil
}

// generated returns n filler books with deterministic titles and random attributes.
func generated(n int, rng *rand.Rand) []sample {
	out := make([]sample, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, sample{
			title:     fmt.Sprintf("%s %s, Volume %d", words[rng.Intn(len(words))], words[rng.Intn(len(words))], i+1),
			author:    fmt.Sprintf("Author %d", rng.Intn(200)+1),
			category:  genres[rng.Intn(len(genres))],
			publisher: publishers[rng.Intn(len(publishers))],
			price:     fmt.Sprintf("%d.%02d", 5+rng.Intn(45), rng.Intn(100)),
			published: fmt.Sprintf("%d-%02d-%02d", 1950+rng.Intn(75), 1+rng.Intn(12), 1+rng.Intn(28)),
			pages:     100 + rng.Intn(800),
			stock:     rng.Intn(20),
		})
	}
	return out
}

func main() {
	extra := flag.Int("generate", 0, "Number of additional random books to insert")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logging.Init(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	pool, err := postgres.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	repo := book.NewPostgresRepo(pool, cfg.DBQueryTimeout)
	svc := book.NewService(repo)

	samples := append(catalogue, generated(*extra, rand.New(rand.NewSource(42)))...)
	inserted, skipped := 0, 0
	for _, s := range samples {
		exists, err := repo.ExistsByTitleAuthor(ctx, s.title, s.author)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to check existing books")
		}
		if exists {
			skipped++
			continue
		}

		b, err := s.toBook()
		if err != nil {
			log.Fatal().Err(err).Str("title", s.title).Msg("Invalid sample book")
		}
		if _, err := svc.Create(ctx, b); err != nil {
			log.Warn().Err(err).Str("title", s.title).Msg("Skipping book")
			skipped++
			continue
		}
		inserted++
	}

	total, err := svc.CountBooks(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to count books")
	}
	log.Info().Int("inserted", inserted).Int("skipped", skipped).Int64("total", total).Msg("Seeding complete")
}
