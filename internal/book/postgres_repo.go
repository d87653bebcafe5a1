package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	bookColumns = `id, title, author, price, isbn, description, category, publisher,
		publication_date, pages, stock_quantity, image_url, created_at, updated_at`

	isbnUniqueConstraint = "books_isbn_key"
	uniqueViolation      = "23505"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanBook(row pgx.Row) (Book, error) {
	var (
		b       Book
		pubDate *time.Time
	)
	if err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Price, &b.ISBN, &b.Description, &b.Category, &b.Publisher,
		&pubDate, &b.Pages, &b.StockQuantity, &b.ImageURL, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return Book{}, err
	}
	if pubDate != nil {
		b.PublicationDate = &Date{pubDate.UTC()}
	}
	return b, nil
}

func dateArg(d *Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// likePattern wraps s for a substring ILIKE match, escaping wildcards.
func likePattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(s) + "%"
}

func orderBy(s Sort) string {
	col, ok := sortColumns[s.Field]
	if !ok {
		col = sortColumns[DefaultSort.Field]
	}
	dir := "ASC"
	if s.Direction == Desc {
		dir = "DESC"
	}
	// id keeps the order total so windows never overlap.
	return fmt.Sprintf("%s %s NULLS LAST, id %s", col, dir, dir)
}

func (r *PostgresRepo) findOne(ctx context.Context, where string, arg any) (Book, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := "SELECT " + bookColumns + " FROM books WHERE " + where + " LIMIT 1"
	b, err := scanBook(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, false, nil
		}
		return Book{}, false, fmt.Errorf("find book: %w", err)
	}
	return b, true, nil
}

func (r *PostgresRepo) FindByID(ctx context.Context, id int64) (Book, bool, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *PostgresRepo) FindByISBN(ctx context.Context, isbn string) (Book, bool, error) {
	return r.findOne(ctx, "isbn = $1", isbn)
}

// page runs the count and window queries for the given filter clauses.
func (r *PostgresRepo) page(ctx context.Context, clauses []string, args []any, req PageRequest) (Page, error) {
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	countCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var total int64
	if err := r.db.QueryRow(countCtx, "SELECT COUNT(*) FROM books "+where, args...).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count books: %w", err)
	}

	argn := len(args) + 1
	dataSQL := fmt.Sprintf("SELECT %s FROM books %s ORDER BY %s LIMIT $%d OFFSET $%d",
		bookColumns, where, orderBy(req.Sort), argn, argn+1)
	argsWithPage := append(append([]any{}, args...), req.Size, req.Offset())

	dataCtx, cancel2 := r.withTimeout(ctx)
	defer cancel2()
	rows, err := r.db.Query(dataCtx, dataSQL, argsWithPage...)
	if err != nil {
		return Page{}, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return Page{}, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("list books: %w", err)
	}
	return NewPage(out, req, total), nil
}

func (r *PostgresRepo) FindAll(ctx context.Context, req PageRequest) (Page, error) {
	return r.page(ctx, nil, nil, req)
}

func (r *PostgresRepo) SearchByTitle(ctx context.Context, title string, req PageRequest) (Page, error) {
	return r.page(ctx, []string{"title ILIKE $1"}, []any{likePattern(title)}, req)
}

func (r *PostgresRepo) SearchByAuthor(ctx context.Context, author string, req PageRequest) (Page, error) {
	return r.page(ctx, []string{"author ILIKE $1"}, []any{likePattern(author)}, req)
}

func (r *PostgresRepo) SearchByCategory(ctx context.Context, category string, req PageRequest) (Page, error) {
	return r.page(ctx, []string{"category ILIKE $1"}, []any{likePattern(category)}, req)
}

func (r *PostgresRepo) SearchByTitleAndAuthor(ctx context.Context, title, author *string, req PageRequest) (Page, error) {
	clauses := []string{}
	args := []any{}
	argn := 1

	if title != nil {
		clauses = append(clauses, fmt.Sprintf("title ILIKE $%d", argn))
		args = append(args, likePattern(*title))
		argn++
	}
	if author != nil {
		clauses = append(clauses, fmt.Sprintf("author ILIKE $%d", argn))
		args = append(args, likePattern(*author))
	}
	return r.page(ctx, clauses, args, req)
}

func (r *PostgresRepo) SearchByTitleOrAuthor(ctx context.Context, keyword string) ([]Book, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := "SELECT " + bookColumns + " FROM books WHERE (title ILIKE $1 OR author ILIKE $1) ORDER BY " + orderBy(DefaultSort)
	rows, err := r.db.Query(ctx, query, likePattern(keyword))
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) SearchByTitleOrAuthorPage(ctx context.Context, keyword string, req PageRequest) (Page, error) {
	return r.page(ctx, []string{"(title ILIKE $1 OR author ILIKE $1)"}, []any{likePattern(keyword)}, req)
}

func (r *PostgresRepo) FindInStock(ctx context.Context, req PageRequest) (Page, error) {
	return r.page(ctx, []string{"stock_quantity > 0"}, nil, req)
}

func (r *PostgresRepo) scalar(ctx context.Context, query string, dest any, args ...any) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.db.QueryRow(ctx, query, args...).Scan(dest)
}

func (r *PostgresRepo) CountInStock(ctx context.Context) (int64, error) {
	var n int64
	if err := r.scalar(ctx, "SELECT COUNT(*) FROM books WHERE stock_quantity > 0", &n); err != nil {
		return 0, fmt.Errorf("count in stock: %w", err)
	}
	return n, nil
}

func (r *PostgresRepo) CountByCategory(ctx context.Context, category string) (int64, error) {
	var n int64
	if err := r.scalar(ctx, "SELECT COUNT(*) FROM books WHERE lower(category) = lower($1)", &n, category); err != nil {
		return 0, fmt.Errorf("count by category: %w", err)
	}
	return n, nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.scalar(ctx, "SELECT COUNT(*) FROM books", &n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

func (r *PostgresRepo) ExistsByID(ctx context.Context, id int64) (bool, error) {
	var ok bool
	if err := r.scalar(ctx, "SELECT EXISTS(SELECT 1 FROM books WHERE id = $1)", &ok, id); err != nil {
		return false, fmt.Errorf("exists by id: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepo) ExistsByTitleAuthor(ctx context.Context, title, author string) (bool, error) {
	const query = `SELECT EXISTS(
		SELECT 1 FROM books WHERE lower(title) = lower($1) AND lower(author) = lower($2))`
	var ok bool
	if err := r.scalar(ctx, query, &ok, title, author); err != nil {
		return false, fmt.Errorf("exists by title and author: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepo) ExistsByTitleAuthorExcludingID(ctx context.Context, title, author string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS(
		SELECT 1 FROM books WHERE lower(title) = lower($1) AND lower(author) = lower($2) AND id <> $3)`
	var ok bool
	if err := r.scalar(ctx, query, &ok, title, author, excludeID); err != nil {
		return false, fmt.Errorf("exists by title and author: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepo) Save(ctx context.Context, b Book) (Book, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	args := []any{
		b.Title, b.Author, b.Price, b.ISBN, b.Description, b.Category, b.Publisher,
		dateArg(b.PublicationDate), b.Pages, b.StockQuantity, b.ImageURL,
	}

	if b.ID == 0 {
		const insertSQL = `
			INSERT INTO books (title, author, price, isbn, description, category, publisher,
			                   publication_date, pages, stock_quantity, image_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING ` + bookColumns
		saved, err := scanBook(r.db.QueryRow(ctx, insertSQL, args...))
		if err != nil {
			return Book{}, mapWriteError(err, b)
		}
		return saved, nil
	}

	const updateSQL = `
		UPDATE books SET
			title = $1, author = $2, price = $3, isbn = $4, description = $5, category = $6,
			publisher = $7, publication_date = $8, pages = $9, stock_quantity = $10, image_url = $11,
			updated_at = GREATEST(now(), updated_at)
		WHERE id = $12
		RETURNING ` + bookColumns
	saved, err := scanBook(r.db.QueryRow(ctx, updateSQL, append(args, b.ID)...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, NotFoundByID(b.ID)
		}
		return Book{}, mapWriteError(err, b)
	}
	return saved, nil
}

// mapWriteError turns the isbn unique violation into a domain error.
func mapWriteError(err error, b Book) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == isbnUniqueConstraint {
		isbn := ""
		if b.ISBN != nil {
			isbn = *b.ISBN
		}
		return &DuplicateISBNError{ISBN: isbn}
	}
	return fmt.Errorf("save book: %w", err)
}

func (r *PostgresRepo) DeleteByID(ctx context.Context, id int64) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, "DELETE FROM books WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundByID(id)
	}
	return nil
}
