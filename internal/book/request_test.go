package book

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeString(t *testing.T, body string) BookRequest {
	t.Helper()
	req, err := DecodeBookRequest(strings.NewReader(body))
	require.NoError(t, err)
	return req
}

func TestBookRequest_Validate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "valid",
			body: `{"title":"Dune","author":"Frank Herbert","price":9.99,"pages":412,"stockQuantity":0}`,
		},
		{
			name: "missing price",
			body: `{"title":"Dune","author":"Frank Herbert"}`,
			want: []string{"price: Price is required"},
		},
		{
			name: "negative price",
			body: `{"title":"Dune","author":"Frank Herbert","price":-1}`,
			want: []string{"price: Price must be greater than 0"},
		},
		{
			name: "blank title",
			body: `{"title":" ","author":"Frank Herbert","price":1}`,
			want: []string{"title: Title is required"},
		},
		{
			name: "too long",
			body: `{"title":"` + strings.Repeat("t", 256) + `","author":"A","price":1,"isbn":"` + strings.Repeat("9", 21) + `"}`,
			want: []string{"title: Title cannot exceed 255 characters", "isbn: ISBN cannot exceed 20 characters"},
		},
		{
			name: "numeric bounds",
			body: `{"title":"T","author":"A","price":1,"pages":0,"stockQuantity":-2}`,
			want: []string{"pages: Pages must be at least 1", "stockQuantity: Stock quantity cannot be negative"},
		},
		{
			name: "price rounds to zero",
			body: `{"title":"T","author":"A","price":0.001}`,
			want: []string{"price: Price must be between 0.01 and 99999999.99"},
		},
		{
			name: "price exceeds column",
			body: `{"title":"T","author":"A","price":123456789012}`,
			want: []string{"price: Price must be between 0.01 and 99999999.99"},
		},
		{
			name: "largest price",
			body: `{"title":"T","author":"A","price":99999999.99}`,
		},
		{
			name: "counts exceed integer column",
			body: `{"title":"T","author":"A","price":1,"pages":2147483648,"stockQuantity":3000000000}`,
			want: []string{"pages: Pages cannot exceed 2147483647", "stockQuantity: Stock quantity cannot exceed 2147483647"},
		},
		{
			name: "category and image url",
			body: `{"title":"T","author":"A","price":1,"category":"` + strings.Repeat("c", 101) + `","imageUrl":"` + strings.Repeat("u", 501) + `"}`,
			want: []string{"category: Category cannot exceed 100 characters", "imageUrl: Image URL cannot exceed 500 characters"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeString(t, tt.body).Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.ElementsMatch(t, tt.want, verr.Messages())
		})
	}
}

func TestDecodeBookRequest_Malformed(t *testing.T) {
	for _, body := range []string{`{`, `{"title": 5}`, `{"price":"abc"}`, `{"publicationDate":"1925-13-01"}`} {
		_, err := DecodeBookRequest(strings.NewReader(body))
		assert.True(t, errors.Is(err, ErrMalformedRequest), body)
	}
}

func TestDecodeBookRequest_IgnoresUnknownFields(t *testing.T) {
	req := decodeString(t, `{"title":"Dune","author":"Frank Herbert","price":1,"id":9,"rating":5}`)
	assert.NoError(t, req.Validate())
}

func TestBookRequest_ToBook(t *testing.T) {
	req := decodeString(t, `{
		"title":"Dune","author":"Frank Herbert","price":"9.99",
		"isbn":"  ","publisher":"","category":"Science Fiction",
		"publicationDate":"1965-08-01","pages":412
	}`)
	b := req.ToBook()

	assert.Equal(t, "9.99", b.Price.StringFixed(2))
	assert.Nil(t, b.ISBN)
	assert.Nil(t, b.Publisher)
	require.NotNil(t, b.Category)
	assert.Equal(t, "Science Fiction", *b.Category)
	require.NotNil(t, b.PublicationDate)
	assert.Equal(t, "1965-08-01", b.PublicationDate.String())
	assert.Equal(t, 0, b.StockQuantity)
	assert.Zero(t, b.ID)
}
