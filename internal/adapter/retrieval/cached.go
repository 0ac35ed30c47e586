package retrieval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"exam-agent/internal/adapter"
	"exam-agent/internal/cache"
	"exam-agent/internal/domain"
	"exam-agent/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultRetrievalTTL = 10 * time.Minute

// CachedRetriever memoises another Retriever in the shared cache. Identical
// concurrent queries collapse into one upstream call. Cache failures never
// fail a retrieval.
type CachedRetriever struct {
	next    domain.Retriever
	cache   domain.Cache
	ttl     time.Duration
	sfGroup singleflight.Group
}

func NewCachedRetriever(next domain.Retriever, c domain.Cache, ttl time.Duration) *CachedRetriever {
	if ttl <= 0 {
		ttl = defaultRetrievalTTL
	}
	return &CachedRetriever{next: next, cache: c, ttl: ttl}
}

func (r *CachedRetriever) Retrieve(ctx context.Context, query string) ([]domain.Snippet, error) {
	log := logger.Get()
	cacheKey := cache.GenerateCacheKey("retrieval", "snippets", cache.HashText(query))

	if r.cache != nil {
		var cached []domain.Snippet
		err := adapter.GetJSON(ctx, r.cache, cacheKey, &cached)
		switch {
		case err == nil:
			log.Debug("Retrieval cache hit", zap.String("cacheKey", cacheKey), zap.Int("snippets", len(cached)))
			return cached, nil
		case errors.Is(err, domain.ErrCacheMiss):
			log.Debug("Retrieval cache miss", zap.String("cacheKey", cacheKey))
		default:
			log.Warn("Failed to read retrieval cache", zap.String("cacheKey", cacheKey), zap.Error(err))
		}
	}

	res, err, _ := r.sfGroup.Do(cacheKey, func() (interface{}, error) {
		snippets, fetchErr := r.next.Retrieve(ctx, query)
		if fetchErr != nil {
			return nil, fetchErr
		}
		if snippets == nil {
			snippets = []domain.Snippet{}
		}
		if r.cache != nil {
			if setErr := adapter.SetJSON(ctx, r.cache, cacheKey, snippets, r.ttl); setErr != nil {
				log.Warn("Failed to cache retrieval result", zap.String("cacheKey", cacheKey), zap.Error(setErr))
			}
		}
		return snippets, nil
	})
	if err != nil {
		return nil, err
	}

	if snippets, ok := res.([]domain.Snippet); ok {
		return snippets, nil
	}
	return nil, fmt.Errorf("unexpected type from singleflight.Do for retrieval: %T", res)
}

var _ domain.Retriever = (*CachedRetriever)(nil)
