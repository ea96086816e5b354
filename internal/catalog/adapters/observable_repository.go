package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/catalog/internal/catalog/domain"
	"github.com/dejobratic/catalog/internal/catalog/ports"
	"github.com/dejobratic/catalog/internal/database"
	"github.com/dejobratic/catalog/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableRepository wraps a product repository with tracing and query
// duration metrics.
type ObservableRepository struct {
	repo    ports.ProductRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.ProductRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "ProductRepository.GetByID")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("product.id", id),
		attribute.String("operation", "get_by_id"),
	)

	start := time.Now()
	product, err := r.repo.GetByID(ctx, id)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, "get_product_by_id", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return product, nil
}

func (r *ObservableRepository) ListPage(ctx context.Context, query domain.PageQuery) (domain.Page, error) {
	ctx, span := telemetry.StartSpan(ctx, "ProductRepository.ListPage")
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("operation", "list_page"),
		attribute.Int("limit", query.Limit),
		attribute.String("sort_by", string(query.SortBy)),
		attribute.String("sort_order", string(query.SortOrder)),
		attribute.Bool("has_cursor", query.Cursor != ""),
	}
	if query.Filters.Category != "" {
		attrs = append(attrs, attribute.String("filter.category", query.Filters.Category))
	}
	if query.Filters.Search != "" {
		attrs = append(attrs, attribute.Bool("filter.search", true))
	}
	telemetry.AddSpanAttributes(span, attrs...)

	start := time.Now()
	page, err := r.repo.ListPage(ctx, query)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, "list_products_page", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return domain.Page{}, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.Int("result.count", len(page.Data)),
		attribute.Bool("result.has_more", page.HasMore),
	)
	telemetry.SetSpanSuccess(span)
	return page, nil
}
