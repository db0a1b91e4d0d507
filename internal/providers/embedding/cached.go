package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/careerguide/internal/cache"
)

const DefaultCacheTTL = 24 * time.Hour

// CachedEmbedder serves repeated texts from a cache and sends only misses
// upstream, in one call. Cache failures degrade to a miss. model scopes the
// cache keys, so embedders with different task types need different values.
type CachedEmbedder struct {
	next  Embedder
	cache cache.Cache
	model string
	ttl   time.Duration
	log   *logrus.Logger
}

func NewCachedEmbedder(next Embedder, c cache.Cache, model string, ttl time.Duration, log *logrus.Logger) *CachedEmbedder {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CachedEmbedder{next: next, cache: c, model: model, ttl: ttl, log: log}
}

func (e *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = cache.EmbeddingKey(e.model, t)
	}
	cached := make([][]float32, len(texts))
	hits, err := e.cache.GetManyJSON(ctx, keys, func(i int) any { return &cached[i] })
	if err != nil {
		e.log.WithError(err).Warn("embedding cache get failed")
		hits = nil
	}

	var (
		missIdx   []int
		missTexts []string
	)
	for i, t := range texts {
		if i < len(hits) && hits[i] && len(cached[i]) > 0 {
			out[i] = cached[i]
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := e.next.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedding: expected %d vectors, got %d", len(missTexts), len(vecs))
	}

	fresh := make(map[string]any, len(missIdx))
	for j, i := range missIdx {
		out[i] = vecs[j]
		fresh[keys[i]] = vecs[j]
	}
	if err := e.cache.SetManyJSON(ctx, fresh, e.ttl); err != nil {
		e.log.WithError(err).Warn("embedding cache set failed")
	}
	return out, nil
}
