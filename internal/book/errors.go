package book

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when a book is not found.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateISBN is returned when another book already holds the ISBN.
	ErrDuplicateISBN = errors.New("duplicate isbn")
	// ErrMalformedRequest is returned when a request body cannot be decoded.
	ErrMalformedRequest = errors.New("malformed request")
)

// NotFoundError names the lookup that missed.
type NotFoundError struct {
	Field string
	Value string
}

func NotFoundByID(id int64) *NotFoundError {
	return &NotFoundError{Field: "ID", Value: strconv.FormatInt(id, 10)}
}

func NotFoundByISBN(isbn string) *NotFoundError {
	return &NotFoundError{Field: "ISBN", Value: isbn}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Book not found with %s: %s", e.Field, e.Value)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DuplicateISBNError reports an ISBN uniqueness conflict.
type DuplicateISBNError struct {
	ISBN string
}

func (e *DuplicateISBNError) Error() string {
	return fmt.Sprintf("Book with ISBN %s already exists", e.ISBN)
}

func (e *DuplicateISBNError) Is(target error) bool {
	return target == ErrDuplicateISBN
}

// FieldError is one failed constraint on one input field.
type FieldError struct {
	Field   string
	Message string
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// ValidationError carries every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages renders each field error as "<field>: <message>".
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.String())
	}
	return out
}
