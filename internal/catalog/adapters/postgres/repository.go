package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dejobratic/catalog/internal/catalog/domain"
	"github.com/dejobratic/catalog/internal/catalog/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `
		SELECT id, name, description, price, category, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product domain.Product
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Category,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}

	return &product, nil
}

// ListPage runs a keyset query: filters plus an optional composite cursor
// predicate, ordered by (sort column, id) and fetching limit+1 rows so the
// caller can detect a following page.
func (r *Repository) ListPage(ctx context.Context, q domain.PageQuery) (domain.Page, error) {
	sql, args, err := buildListQuery(q)
	if err != nil {
		return domain.Page{}, err
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return domain.Page{}, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			&product.Price,
			&product.Category,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return domain.Page{}, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return domain.Page{}, fmt.Errorf("iterate products: %w", err)
	}

	return domain.BuildPage(products, q.Limit, q.SortBy), nil
}

func buildListQuery(q domain.PageQuery) (string, []any, error) {
	column, err := sortColumn(q.SortBy)
	if err != nil {
		return "", nil, err
	}

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Filters.Category != "" {
		where = append(where, "category = "+arg(q.Filters.Category))
	}
	if q.Filters.MinPrice != nil {
		where = append(where, "price >= "+arg(*q.Filters.MinPrice))
	}
	if q.Filters.MaxPrice != nil {
		where = append(where, "price <= "+arg(*q.Filters.MaxPrice))
	}
	if q.Filters.Search != "" {
		pattern := "%" + q.Filters.Search + "%"
		where = append(where, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s)", arg(pattern), arg(pattern)))
	}

	cmp := ">"
	dir := "ASC"
	if q.SortOrder == domain.Descending {
		cmp = "<"
		dir = "DESC"
	}

	if q.Cursor != "" {
		cursor, err := domain.DecodeCursor(q.Cursor)
		if err != nil {
			return "", nil, err
		}
		boundary, err := cursorBoundary(cursor, q.SortBy)
		if err != nil {
			return "", nil, err
		}
		// Row-value comparison resumes after the boundary row, with id
		// breaking ties between equal sort values.
		where = append(where, fmt.Sprintf("(%s, id) %s (%s, %s)", column, cmp, arg(boundary), arg(cursor.ID)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, name, description, price, category, created_at, updated_at FROM products`)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	fmt.Fprintf(&sb, " ORDER BY %s %s, id %s LIMIT %s", column, dir, dir, arg(q.Limit+1))

	return sb.String(), args, nil
}

func sortColumn(sortBy domain.SortField) (string, error) {
	switch sortBy {
	case domain.SortByPrice:
		return "price", nil
	case domain.SortByCreatedAt:
		return "created_at", nil
	case domain.SortByName:
		return "name", nil
	default:
		return "", fmt.Errorf("unsupported sort field %q", sortBy)
	}
}

// cursorBoundary converts the cursor's stringly sort value back to the
// column's native type so the comparison uses the column ordering, not a
// textual one.
func cursorBoundary(c domain.Cursor, sortBy domain.SortField) (any, error) {
	switch sortBy {
	case domain.SortByPrice:
		return c.PriceValue()
	case domain.SortByCreatedAt:
		return c.TimeValue()
	default:
		return c.Value, nil
	}
}
