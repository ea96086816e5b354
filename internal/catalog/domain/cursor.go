package domain

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// ErrInvalidCursor is returned when a cursor cannot be decoded. It is a
// client input error, not a server failure.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor marks a page boundary as a (sort value, identifier) pair. Carrying
// the sort value alongside the id lets a page resume correctly when sorting
// by a non-identifier field: an id-only inequality cannot order rows by
// price or name.
type Cursor struct {
	Value string `json:"v"`
	ID    string `json:"id"`
}

// CursorFor builds the boundary cursor for a row under the given sort field.
func CursorFor(p Product, sortBy SortField) Cursor {
	return Cursor{Value: sortValue(p, sortBy), ID: p.ID}
}

// EncodeCursor renders the cursor as an opaque URL-safe token.
func EncodeCursor(c Cursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	if c.ID == "" {
		return Cursor{}, ErrInvalidCursor
	}
	return c, nil
}

// sortValue renders the sort key of a product as the string carried in a
// cursor. The format must sort-compare consistently with the typed value,
// which DecodeSortValue restores.
func sortValue(p Product, sortBy SortField) string {
	switch sortBy {
	case SortByPrice:
		return strconv.FormatFloat(p.Price, 'f', -1, 64)
	case SortByName:
		return p.Name
	default:
		return p.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
}

// PriceValue parses the cursor sort value as a price.
func (c Cursor) PriceValue() (float64, error) {
	v, err := strconv.ParseFloat(c.Value, 64)
	if err != nil {
		return 0, ErrInvalidCursor
	}
	return v, nil
}

// TimeValue parses the cursor sort value as a timestamp.
func (c Cursor) TimeValue() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, c.Value)
	if err != nil {
		return time.Time{}, ErrInvalidCursor
	}
	return t, nil
}
