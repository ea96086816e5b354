package ports

import (
	"context"
	"errors"

	"github.com/dejobratic/catalog/internal/catalog/domain"
)

// ProductRepository exposes the source-of-truth reads required by the
// catalog read path. ListPage receives a normalized query and fetches
// limit+1 rows to probe for a following page.
//
// Pages are not stable under concurrent writes: successive calls may show
// duplicates or gaps when the collection changes in between. That weak
// consistency is accepted.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	ListPage(ctx context.Context, query domain.PageQuery) (domain.Page, error)
}

// ErrNotFound is returned when the requested product does not exist.
var ErrNotFound = errors.New("product not found")
