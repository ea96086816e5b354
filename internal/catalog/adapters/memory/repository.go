package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dejobratic/catalog/internal/catalog/domain"
	"github.com/dejobratic/catalog/internal/catalog/ports"
)

// Repository provides an in-memory store useful for local development and tests.
type Repository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// NewRepository constructs a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{products: make(map[string]domain.Product)}
}

// Put stores or replaces a product.
func (r *Repository) Put(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = product
	return nil
}

// GetByID fetches a single product by identifier.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	copy := product
	return &copy, nil
}

// ListPage returns one keyset page. Rows are filtered, ordered by the
// requested sort field with id as tiebreaker, resumed from the cursor
// boundary, and probed at limit+1 just like the SQL adapter.
func (r *Repository) ListPage(_ context.Context, q domain.PageQuery) (domain.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Product
	for _, product := range r.products {
		if matches(product, q.Filters) {
			result = append(result, product)
		}
	}

	less, err := lessFunc(q.SortBy)
	if err != nil {
		return domain.Page{}, err
	}
	asc := q.SortOrder != domain.Descending
	sort.Slice(result, func(i, j int) bool {
		if asc {
			return less(result[i], result[j])
		}
		return less(result[j], result[i])
	})

	if q.Cursor != "" {
		cursor, err := domain.DecodeCursor(q.Cursor)
		if err != nil {
			return domain.Page{}, err
		}
		result, err = afterBoundary(result, cursor, q.SortBy, asc)
		if err != nil {
			return domain.Page{}, err
		}
	}

	if len(result) > q.Limit+1 {
		result = result[:q.Limit+1]
	}
	rows := make([]domain.Product, len(result))
	copy(rows, result)

	return domain.BuildPage(rows, q.Limit, q.SortBy), nil
}

func matches(p domain.Product, f domain.Filters) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Description), needle) {
			return false
		}
	}
	return true
}

// lessFunc orders by (sort field, id) ascending.
func lessFunc(sortBy domain.SortField) (func(a, b domain.Product) bool, error) {
	switch sortBy {
	case domain.SortByPrice:
		return func(a, b domain.Product) bool {
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			return a.ID < b.ID
		}, nil
	case domain.SortByName:
		return func(a, b domain.Product) bool {
			if a.Name != b.Name {
				return a.Name < b.Name
			}
			return a.ID < b.ID
		}, nil
	case domain.SortByCreatedAt:
		return func(a, b domain.Product) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		}, nil
	default:
		return nil, domain.ErrInvalidCursor
	}
}

// afterBoundary drops rows up to and including the cursor boundary.
func afterBoundary(sorted []domain.Product, c domain.Cursor, sortBy domain.SortField, asc bool) ([]domain.Product, error) {
	after, err := boundaryCmp(c, sortBy)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range sorted {
		cmp := after(p)
		if (asc && cmp > 0) || (!asc && cmp < 0) {
			out = append(out, p)
		}
	}
	return out, nil
}

// boundaryCmp compares a product against the cursor boundary under the sort
// field's natural ordering, with id breaking ties.
func boundaryCmp(c domain.Cursor, sortBy domain.SortField) (func(domain.Product) int, error) {
	switch sortBy {
	case domain.SortByPrice:
		boundary, err := c.PriceValue()
		if err != nil {
			return nil, err
		}
		return func(p domain.Product) int {
			if p.Price != boundary {
				if p.Price < boundary {
					return -1
				}
				return 1
			}
			return strings.Compare(p.ID, c.ID)
		}, nil
	case domain.SortByCreatedAt:
		boundary, err := c.TimeValue()
		if err != nil {
			return nil, err
		}
		return func(p domain.Product) int {
			if !p.CreatedAt.Equal(boundary) {
				if p.CreatedAt.Before(boundary) {
					return -1
				}
				return 1
			}
			return strings.Compare(p.ID, c.ID)
		}, nil
	default:
		return func(p domain.Product) int {
			if p.Name != c.Value {
				return strings.Compare(p.Name, c.Value)
			}
			return strings.Compare(p.ID, c.ID)
		}, nil
	}
}
