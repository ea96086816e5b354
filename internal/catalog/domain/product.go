package domain

import "time"

// Product is an entry in the catalog collection.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SortField enumerates the sortable product attributes.
type SortField string

const (
	SortByPrice     SortField = "price"
	SortByCreatedAt SortField = "createdAt"
	SortByName      SortField = "name"
)

// SortOrder is the page traversal direction.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Filters narrows a catalog listing. All fields are optional; zero values
// mean "no constraint".
type Filters struct {
	Category string
	MinPrice *float64
	MaxPrice *float64
	Search   string
}

// PageQuery describes one page request over the catalog. It is immutable
// once constructed; Normalize returns an adjusted copy.
type PageQuery struct {
	Cursor    string
	Limit     int
	SortBy    SortField
	SortOrder SortOrder
	Filters   Filters
}

// Normalize applies defaults and clamps the limit. SortBy defaults to
// createdAt descending, matching the newest-first listing.
func (q PageQuery) Normalize(defaultLimit, maxLimit int) PageQuery {
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.SortBy == "" {
		q.SortBy = SortByCreatedAt
	}
	if q.SortOrder == "" {
		q.SortOrder = Descending
	}
	return q
}

// Page is one result page. NextCursor is present exactly when HasMore is
// true and points at the last returned product.
type Page struct {
	Data       []Product `json:"data"`
	NextCursor *string   `json:"nextCursor"`
	HasMore    bool      `json:"hasMore"`
}

// BuildPage assembles a Page from rows fetched with a limit+1 probe. When
// more than limit rows came back the page is trimmed and the cursor encodes
// the boundary of the last retained row.
func BuildPage(rows []Product, limit int, sortBy SortField) Page {
	page := Page{Data: rows}
	if len(rows) > limit {
		page.Data = rows[:limit]
		page.HasMore = true
		last := page.Data[len(page.Data)-1]
		cursor := EncodeCursor(CursorFor(last, sortBy))
		page.NextCursor = &cursor
	}
	if page.Data == nil {
		page.Data = []Product{}
	}
	return page
}
