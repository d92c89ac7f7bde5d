package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-integrations/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const connectionCacheKeyPrefix = "go-integrations::connection::v1"

// CachedConnectionStore serves connection reads through a cache. Writes go
// to the base store and invalidate the cached entry.
type CachedConnectionStore struct {
	base  core.ConnectionStore
	cache repositorycache.CacheService
}

func NewCachedConnectionStore(
	base core.ConnectionStore,
	cacheService repositorycache.CacheService,
) (*CachedConnectionStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base connection store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: connection cache service is required")
	}
	return &CachedConnectionStore{base: base, cache: cacheService}, nil
}

// ConnectionCacheKey returns the deterministic cache key for connection
// reads: go-integrations::connection::v1::<connection_id> with the id
// URL-path escaped.
func ConnectionCacheKey(connectionID string) (string, error) {
	connectionID = strings.TrimSpace(connectionID)
	if connectionID == "" {
		return "", fmt.Errorf("sqlstore: connection id is required")
	}
	return connectionCacheKeyPrefix + "::" + url.PathEscape(connectionID), nil
}

func (s *CachedConnectionStore) Create(ctx context.Context, in core.CreateConnectionInput) (core.Connection, error) {
	if s == nil || s.base == nil {
		return core.Connection{}, fmt.Errorf("sqlstore: cached connection store is not configured")
	}
	return s.base.Create(ctx, in)
}

func (s *CachedConnectionStore) Get(ctx context.Context, id string) (core.Connection, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Connection{}, fmt.Errorf("sqlstore: cached connection store is not configured")
	}
	cacheKey, err := ConnectionCacheKey(id)
	if err != nil {
		return core.Connection{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Connection, error) {
		return s.base.Get(ctx, id)
	})
}

func (s *CachedConnectionStore) Update(ctx context.Context, connection core.Connection) (core.Connection, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Connection{}, fmt.Errorf("sqlstore: cached connection store is not configured")
	}
	updated, err := s.base.Update(ctx, connection)
	if err != nil {
		return core.Connection{}, err
	}
	cacheKey, err := ConnectionCacheKey(updated.ID)
	if err != nil {
		return core.Connection{}, err
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		return core.Connection{}, err
	}
	return updated, nil
}

func (s *CachedConnectionStore) ListByUser(ctx context.Context, userID string) ([]core.Connection, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached connection store is not configured")
	}
	return s.base.ListByUser(ctx, userID)
}

func (s *CachedConnectionStore) ListByIntegration(ctx context.Context, integrationID string) ([]core.Connection, error) {
	if s == nil || s.base == nil {
		return nil, fmt.Errorf("sqlstore: cached connection store is not configured")
	}
	return s.base.ListByIntegration(ctx, integrationID)
}

var _ core.ConnectionStore = (*CachedConnectionStore)(nil)
