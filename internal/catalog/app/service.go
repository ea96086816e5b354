package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dejobratic/catalog/internal/cache"
	"github.com/dejobratic/catalog/internal/catalog/domain"
	"github.com/dejobratic/catalog/internal/catalog/ports"
	"github.com/dejobratic/catalog/internal/feed"
	"github.com/dejobratic/catalog/internal/metrics"
)

// FeedFetcher pulls products from the external provider feed.
type FeedFetcher interface {
	FetchProducts(ctx context.Context) ([]feed.Product, error)
}

// Config tunes the cache-aside read path.
type Config struct {
	ListTTL      time.Duration
	DetailTTL    time.Duration
	DefaultLimit int
	MaxLimit     int
}

// Service bundles the catalog read use cases. Listings and detail lookups
// go through the cache first and fall back to the repository on a miss;
// a cache outage degrades to direct repository reads.
type Service struct {
	repo     ports.ProductRepository
	cache    cache.Store
	feed     FeedFetcher
	registry *metrics.Registry
	logger   *slog.Logger
	cfg      Config
}

// NewService wires required dependencies.
func NewService(
	repo ports.ProductRepository,
	store cache.Store,
	fetcher FeedFetcher,
	registry *metrics.Registry,
	logger *slog.Logger,
	cfg Config,
) *Service {
	return &Service{
		repo:     repo,
		cache:    store,
		feed:     fetcher,
		registry: registry,
		logger:   logger,
		cfg:      cfg,
	}
}

// ListProducts returns one catalog page. Identical queries inside the list
// TTL are served from cache and yield the same page bytes.
func (s *Service) ListProducts(ctx context.Context, query domain.PageQuery) (domain.Page, error) {
	query = query.Normalize(s.cfg.DefaultLimit, s.cfg.MaxLimit)
	key := listCacheKey(query)

	if cached, ok := s.cacheGet(ctx, key); ok {
		var page domain.Page
		if err := json.Unmarshal(cached, &page); err == nil {
			s.registry.RecordQuery(true)
			return page, nil
		}
		s.logger.Warn("discarding undecodable cache entry", "key", key)
	}

	page, err := s.repo.ListPage(ctx, query)
	if err != nil {
		return domain.Page{}, err
	}
	s.registry.RecordQuery(false)

	s.cacheSet(ctx, key, page, s.cfg.ListTTL)
	return page, nil
}

// GetProduct returns a single product by id. Missing products are not
// cached so a later insert becomes visible immediately.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	key := detailCacheKey(id)

	if cached, ok := s.cacheGet(ctx, key); ok {
		var product domain.Product
		if err := json.Unmarshal(cached, &product); err == nil {
			s.registry.RecordQuery(true)
			return &product, nil
		}
		s.logger.Warn("discarding undecodable cache entry", "key", key)
	}

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.registry.RecordQuery(false)

	s.cacheSet(ctx, key, product, s.cfg.DetailTTL)
	return product, nil
}

// FetchExternal pulls the current product feed from the upstream provider.
func (s *Service) FetchExternal(ctx context.Context) ([]feed.Product, error) {
	return s.feed.FetchProducts(ctx)
}

// InvalidateCache drops cached entries matching the pattern. An empty
// pattern clears every catalog entry.
func (s *Service) InvalidateCache(ctx context.Context, pattern string) error {
	if pattern == "" {
		pattern = "products:*"
	}
	if err := s.cache.Invalidate(ctx, pattern); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	return nil
}

func (s *Service) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	val, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache read failed, falling through to repository", "key", key, "error", err)
		return nil, false
	}
	return val, found
}

func (s *Service) cacheSet(ctx context.Context, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// listCacheKey renders every normalized query field so distinct queries
// never collide and identical queries always share an entry.
func listCacheKey(q domain.PageQuery) string {
	parts := []string{
		"products:list",
		q.Cursor,
		strconv.Itoa(q.Limit),
		string(q.SortBy),
		string(q.SortOrder),
		q.Filters.Category,
		formatPricePtr(q.Filters.MinPrice),
		formatPricePtr(q.Filters.MaxPrice),
		q.Filters.Search,
	}
	return strings.Join(parts, ":")
}

func detailCacheKey(id string) string {
	return "products:id:" + id
}

func formatPricePtr(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
