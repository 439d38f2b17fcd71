package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"vatpac/internal/metrics"
)

// MemoryService is the in-process fallback cache, mirrored from the
// teacher's common.CacheService, used when Redis is unavailable (e.g.
// in tests or single-process deployments).
type MemoryService struct {
	cache      *gocache.Cache
	metricsReg *metrics.MetricsRegistry
}

var _ Interface = (*MemoryService)(nil)

// NewMemoryService builds an in-memory cache with the given default
// TTL and cleanup interval (seconds).
func NewMemoryService(defaultExpirationSeconds, cleanupIntervalSeconds int, metricsReg *metrics.MetricsRegistry) *MemoryService {
	defaultExpiration := time.Duration(defaultExpirationSeconds) * time.Second
	cleanupInterval := time.Duration(cleanupIntervalSeconds) * time.Second
	return &MemoryService{
		cache:      gocache.New(defaultExpiration, cleanupInterval),
		metricsReg: metricsReg,
	}
}

// extractCacheKeyPattern extracts the first ":"-delimited segment of
// a cache key for low-cardinality metric labels.
func extractCacheKeyPattern(key string) string {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) > 0 {
		return parts[0]
	}
	return "unknown"
}

// Set stores a value with a TTL.
func (m *MemoryService) Set(key string, value interface{}, duration time.Duration) {
	m.cache.Set(key, value, duration)
}

// Get retrieves a value, recording a hit/miss metric by key pattern.
func (m *MemoryService) Get(key string) (interface{}, bool) {
	val, found := m.cache.Get(key)
	if m.metricsReg != nil {
		pattern := extractCacheKeyPattern(key)
		if found {
			m.metricsReg.CacheHitsTotal.WithLabelValues(pattern).Inc()
		} else {
			m.metricsReg.CacheMissesTotal.WithLabelValues(pattern).Inc()
		}
	}
	return val, found
}

// Delete removes a key.
func (m *MemoryService) Delete(key string) {
	m.cache.Delete(key)
}

// GetOrSet retrieves a value or populates it via loader on miss.
func (m *MemoryService) GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	if val, found := m.Get(key); found {
		return val, nil
	}
	val, err := loader()
	if err != nil {
		return nil, err
	}
	m.Set(key, val, duration)
	return val, nil
}

// Close is a no-op for the in-memory cache.
func (m *MemoryService) Close() error {
	return nil
}
