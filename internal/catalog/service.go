package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/calebmoura/lumiere-gateway/pkg/config"
	"github.com/calebmoura/lumiere-gateway/pkg/logger"
	"github.com/calebmoura/lumiere-gateway/pkg/upstream"
)

const versionCounter = "catalog_version"

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	CacheKey(parts ...string) string
	CounterKey(name string) string
}

type productAPI interface {
	ListProducts(ctx context.Context, query upstream.ProductQuery) (*upstream.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*upstream.Product, error)
	CreateProduct(ctx context.Context, token string, input upstream.ProductInput) (*upstream.Product, error)
	UpdateProduct(ctx context.Context, token, id string, input upstream.ProductInput) (*upstream.Product, error)
	DeleteProduct(ctx context.Context, token, id string) error
}

// Service serves the browsing surface from the upstream catalog with a
// short-TTL cache in front. Admin mutations pass through and bump the cache
// version so no stale product is served after a write.
type Service interface {
	List(ctx context.Context, query upstream.ProductQuery) (*upstream.ProductPage, error)
	Get(ctx context.Context, id string) (*upstream.Product, error)
	Create(ctx context.Context, token string, input upstream.ProductInput) (*upstream.Product, error)
	Update(ctx context.Context, token, id string, input upstream.ProductInput) (*upstream.Product, error)
	Delete(ctx context.Context, token, id string) error
}

type service struct {
	api      productAPI
	cache    cacheStore
	cacheTTL time.Duration
	logg     *logger.Logger
}

// NewService builds the catalog service.
func NewService(api productAPI, cache cacheStore, cfg config.CatalogConfig, logg *logger.Logger) (Service, error) {
	if api == nil {
		return nil, fmt.Errorf("upstream client required")
	}
	return &service{
		api:      api,
		cache:    cache,
		cacheTTL: cfg.CacheTTL,
		logg:     logg,
	}, nil
}

func (s *service) List(ctx context.Context, query upstream.ProductQuery) (*upstream.ProductPage, error) {
	key := s.listKey(ctx, query)

	if key != "" {
		if cached, ok := cacheLookup[upstream.ProductPage](ctx, s, key); ok {
			return cached, nil
		}
	}

	page, err := s.api.ListProducts(ctx, query)
	if err != nil {
		return nil, err
	}

	s.cacheStoreValue(ctx, key, page)
	return page, nil
}

func (s *service) Get(ctx context.Context, id string) (*upstream.Product, error) {
	key := s.detailKey(ctx, id)

	if key != "" {
		if cached, ok := cacheLookup[upstream.Product](ctx, s, key); ok {
			return cached, nil
		}
	}

	product, err := s.api.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheStoreValue(ctx, key, product)
	return product, nil
}

func (s *service) Create(ctx context.Context, token string, input upstream.ProductInput) (*upstream.Product, error) {
	product, err := s.api.CreateProduct(ctx, token, input)
	if err != nil {
		return nil, err
	}
	s.bumpVersion(ctx)
	return product, nil
}

func (s *service) Update(ctx context.Context, token, id string, input upstream.ProductInput) (*upstream.Product, error) {
	product, err := s.api.UpdateProduct(ctx, token, id, input)
	if err != nil {
		return nil, err
	}
	s.bumpVersion(ctx)
	return product, nil
}

func (s *service) Delete(ctx context.Context, token, id string) error {
	if err := s.api.DeleteProduct(ctx, token, id); err != nil {
		return err
	}
	s.bumpVersion(ctx)
	return nil
}

// cacheLookup decodes a cached JSON payload; a miss or decode failure falls
// through to the upstream.
func cacheLookup[T any](ctx context.Context, s *service, key string) (*T, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		return nil, false
	}
	var decoded T
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, false
	}
	return &decoded, true
}

func (s *service) cacheStoreValue(ctx context.Context, key string, value any) {
	if s.cache == nil || key == "" || s.cacheTTL <= 0 {
		return
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(encoded), s.cacheTTL); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "catalog.cache_write_failed")
	}
}

func (s *service) listKey(ctx context.Context, query upstream.ProductQuery) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.CacheKey("catalog", s.version(ctx), "list", query.Values().Encode())
}

func (s *service) detailKey(ctx context.Context, id string) string {
	if s.cache == nil {
		return ""
	}
	return s.cache.CacheKey("catalog", s.version(ctx), "product", id)
}

// version reads the invalidation counter; cache errors degrade to a fixed
// version rather than failing the read path.
func (s *service) version(ctx context.Context) string {
	raw, err := s.cache.Get(ctx, s.cache.CounterKey(versionCounter))
	if err != nil || raw == "" {
		return "v0"
	}
	if _, convErr := strconv.ParseInt(raw, 10, 64); convErr != nil {
		return "v0"
	}
	return "v" + raw
}

func (s *service) bumpVersion(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, s.cache.CounterKey(versionCounter)); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "catalog.cache_invalidate_failed")
	}
}
