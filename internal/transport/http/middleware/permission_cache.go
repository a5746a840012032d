package middleware

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedPermissionStore memoizes role permission lookups so hot paths do
// not hit the database on every request. Entries expire after the TTL, so
// role changes take effect within one cache window.
type CachedPermissionStore struct {
	inner PermissionStore
	cache *gocache.Cache
}

func NewCachedPermissionStore(inner PermissionStore, ttl time.Duration) *CachedPermissionStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedPermissionStore{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (s *CachedPermissionStore) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	key := roleID + ":" + permission
	if cached, ok := s.cache.Get(key); ok {
		return cached.(bool), nil
	}
	allowed, err := s.inner.HasPermission(ctx, roleID, permission)
	if err != nil {
		return false, err
	}
	s.cache.SetDefault(key, allowed)
	return allowed, nil
}
