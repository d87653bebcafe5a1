package book

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bookcatalog/internal/httpx"

	"github.com/rs/zerolog/log"
)

const basePath = "/api/v1/books"

type HTTPHandler struct {
	service *Service
	metrics Metrics
}

func NewHTTPHandler(service *Service, metrics Metrics) *HTTPHandler {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &HTTPHandler{service: service, metrics: metrics}
}

// Register mounts the book routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+basePath, h.List)
	mux.HandleFunc("POST "+basePath, h.Create)
	mux.HandleFunc("GET "+basePath+"/search", h.Search)
	mux.HandleFunc("GET "+basePath+"/suggest", h.Suggest)
	mux.HandleFunc("GET "+basePath+"/in-stock", h.InStock)
	mux.HandleFunc("GET "+basePath+"/isbn/{isbn}", h.GetByISBN)
	mux.HandleFunc("GET "+basePath+"/{id}", h.Get)
	mux.HandleFunc("PUT "+basePath+"/{id}", h.Update)
	mux.HandleFunc("DELETE "+basePath+"/{id}", h.Delete)
}

// List handles GET /api/v1/books
// @Summary List books
// @Description Page through the catalogue in the requested order
// @Tags books
// @Produce json
// @Param page query int false "Zero-based page number" default(0)
// @Param size query int false "Items per page" default(10)
// @Param sort query string false "Sort field and direction, e.g. title,desc"
// @Success 200 {object} book.Page
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /api/v1/books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	done := h.metrics.StartOperation(OpListed)
	defer done()

	req, err := pageRequestFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.service.GetAll(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.Count(OpListed)
	writePage(w, page)
}

// Get handles GET /api/v1/books/{id}
// @Summary Get book by id
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} book.Book
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/v1/books/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	done := h.metrics.StartOperation(OpViewed)
	defer done()

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !found {
		h.writeError(w, r, NotFoundByID(id))
		return
	}
	h.metrics.Count(OpViewed)
	httpx.JSONSuccess(w, http.StatusOK, b)
}

// GetByISBN handles GET /api/v1/books/isbn/{isbn}
// @Summary Get book by ISBN
// @Tags books
// @Produce json
// @Param isbn path string true "ISBN"
// @Success 200 {object} book.Book
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/v1/books/isbn/{isbn} [get]
func (h *HTTPHandler) GetByISBN(w http.ResponseWriter, r *http.Request) {
	done := h.metrics.StartOperation(OpViewed)
	defer done()

	isbn := r.PathValue("isbn")
	b, found, err := h.service.GetByISBN(r.Context(), isbn)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !found {
		h.writeError(w, r, NotFoundByISBN(isbn))
		return
	}
	h.metrics.Count(OpViewed)
	httpx.JSONSuccess(w, http.StatusOK, b)
}

// Create handles POST /api/v1/books
// @Summary Create a book
// @Description Add a book to the catalogue. The ISBN must be unique when present.
// @Tags books
// @Accept json
// @Produce json
// @Param request body book.BookRequest true "Book data"
// @Success 201 {object} book.Book
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 413 {object} httpx.ErrorResponse
// @Router /api/v1/books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	done := h.metrics.StartOperation(OpCreated)
	defer done()

	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	b, err := h.service.Create(r.Context(), in.ToBook())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.Count(OpCreated)
	h.refreshTotal(r)

	w.Header().Set("Location", basePath+"/"+strconv.FormatInt(b.ID, 10))
	httpx.JSONSuccess(w, http.StatusCreated, b)
}

// Update handles PUT /api/v1/books/{id}
// @Summary Replace a book
// @Description Overwrite every mutable field of an existing book
// @Tags books
// @Accept json
// @Produce json
// @Param id path int true "Book ID"
// @Param request body book.BookRequest true "Book data"
// @Success 200 {object} book.Book
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/v1/books/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	done := h.metrics.StartOperation(OpUpdated)
	defer done()

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	b, err := h.service.Update(r.Context(), id, in.ToBook())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.Count(OpUpdated)
	httpx.JSONSuccess(w, http.StatusOK, b)
}

// Delete handles DELETE /api/v1/books/{id}
// @Summary Delete a book
// @Tags books
// @Param id path int true "Book ID"
// @Success 204
// @Failure 404 {object} httpx.ErrorResponse
// @Router /api/v1/books/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	done := h.metrics.StartOperation(OpDeleted)
	defer done()

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.Count(OpDeleted)
	h.refreshTotal(r)
	httpx.JSONSuccessNoContent(w)
}

// Search handles GET /api/v1/books/search
// @Summary Search books
// @Description Keyword wins over title and author, which win over category
// @Tags books
// @Produce json
// @Param q query string false "Keyword matched against title or author"
// @Param title query string false "Title fragment"
// @Param author query string false "Author fragment"
// @Param category query string false "Category fragment"
// @Param page query int false "Zero-based page number" default(0)
// @Param size query int false "Items per page" default(10)
// @Param sort query string false "Sort field and direction"
// @Success 200 {object} book.Page
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/v1/books/search [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	done := h.metrics.StartOperation(OpSearched)
	defer done()

	req, err := pageRequestFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	query := r.URL.Query()
	q := SearchQuery{
		Title:    optionalParam(query.Get("title")),
		Author:   optionalParam(query.Get("author")),
		Category: optionalParam(query.Get("category")),
		Keyword:  optionalParam(query.Get("q")),
	}
	page, err := h.service.Search(r.Context(), q, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.Count(OpSearched)
	writePage(w, page)
}

// Suggest handles GET /api/v1/books/suggest
// @Summary Suggest books
// @Tags books
// @Produce json
// @Param q query string true "Keyword"
// @Param limit query int false "Maximum suggestions" default(10)
// @Success 200 {array} book.Book
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/v1/books/suggest [get]
func (h *HTTPHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	done := h.metrics.StartOperation(OpSearched)
	defer done()

	query := r.URL.Query()
	keyword := strings.TrimSpace(query.Get("q"))
	if keyword == "" {
		h.writeError(w, r, NewValidationError(FieldError{Field: "q", Message: "Search keyword is required"}))
		return
	}
	limit, _ := strconv.Atoi(query.Get("limit"))

	books, err := h.service.Suggest(r.Context(), keyword, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.Count(OpSearched)
	httpx.JSONSuccess(w, http.StatusOK, books)
}

// InStock handles GET /api/v1/books/in-stock
// @Summary List books in stock
// @Tags books
// @Produce json
// @Param page query int false "Zero-based page number" default(0)
// @Param size query int false "Items per page" default(10)
// @Param sort query string false "Sort field and direction"
// @Success 200 {object} book.Page
// @Router /api/v1/books/in-stock [get]
func (h *HTTPHandler) InStock(w http.ResponseWriter, r *http.Request) {
	done := h.metrics.StartOperation(OpListed)
	defer done()

	req, err := pageRequestFrom(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.service.GetInStock(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.metrics.Count(OpListed)
	writePage(w, page)
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request) (BookRequest, bool) {
	in, err := DecodeBookRequest(r.Body)
	if err != nil {
		h.writeError(w, r, err)
		return BookRequest{}, false
	}
	if err := in.Validate(); err != nil {
		h.writeError(w, r, err)
		return BookRequest{}, false
	}
	return in, true
}

func (h *HTTPHandler) refreshTotal(r *http.Request) {
	n, err := h.service.CountBooks(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("refresh total books gauge")
		return
	}
	h.metrics.SetTotalBooks(n)
}

// writeError maps an error onto its status code and ErrorResponse.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr     *ValidationError
		maxBytes *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		httpx.JSONValidationError(w, r, verr.Messages())
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicateISBN):
		httpx.JSONError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &maxBytes):
		httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
	case errors.Is(err, ErrMalformedRequest):
		httpx.JSONError(w, r, http.StatusBadRequest, httpx.MessageMalformedJSON)
	default:
		log.Error().Err(err).
			Str("request_id", httpx.RequestIDFrom(r)).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("unexpected error")
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.MessageUnexpected)
	}
}

func writePage(w http.ResponseWriter, page Page) {
	w.Header().Set("X-Total-Count", strconv.FormatInt(page.TotalElements, 10))
	w.Header().Set("X-Page-Count", strconv.Itoa(page.TotalPages()))
	httpx.JSONSuccess(w, http.StatusOK, page)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "Invalid parameter type: id")
		return 0, false
	}
	return id, true
}

// pageRequestFrom reads page, size and sort. Unparseable page or size fall back
// to their defaults; an unknown sort is a validation error.
func pageRequestFrom(r *http.Request) (PageRequest, error) {
	query := r.URL.Query()
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil {
		page = 0
	}
	size, err := strconv.Atoi(query.Get("size"))
	if err != nil {
		size = DefaultPageSize
	}
	sort, err := ParseSort(query.Get("sort"))
	if err != nil {
		return PageRequest{}, err
	}
	return NewPageRequest(page, size, sort), nil
}

func optionalParam(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
