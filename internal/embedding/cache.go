package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/muaazl/product-matcher/internal/metrics"
)

// DefaultCacheSize is the number of vectors kept when no size is configured.
const DefaultCacheSize = 10000

// Cached keeps the most recently used vectors in memory keyed by sha256(model|text).
// Справочник между HTTP-запросами обычно один и тот же, поэтому повторная загрузка почти бесплатна.
// Размер ограничен: старые записи вытесняются LRU.
type Cached struct {
	inner   Embedder
	modelID string
	lru     *lru.Cache[string, []float32]
}

// NewCached wraps inner with an LRU of at most size vectors; size <= 0 means DefaultCacheSize.
func NewCached(inner Embedder, modelID string, size int) *Cached {
	if size <= 0 {
		size = DefaultCacheSize
	}
	// lru.New fails only for size <= 0
	l, _ := lru.New[string, []float32](size)
	return &Cached{inner: inner, modelID: modelID, lru: l}
}

func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if vec, ok := c.get(key); ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
		return vec, nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	c.put(key, vec)
	return cloneVector(vec), nil
}

// EmbedBatch sends only the cache misses to the inner embedder.
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		keys[i] = c.key(t)
		if vec, ok := c.get(keys[i]); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("hit").Add(float64(len(texts) - len(missIdx)))
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Add(float64(len(missIdx)))
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := EmbedAll(ctx, c.inner, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		c.put(keys[i], vecs[j])
		out[i] = cloneVector(vecs[j])
	}
	return out, nil
}

// HealthCheck delegates to the wrapped backend; локальные эмбеддеры всегда здоровы.
func (c *Cached) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *Cached) Len() int { return c.lru.Len() }

func (c *Cached) key(text string) string {
	h := sha256.Sum256([]byte(c.modelID + "|" + text))
	return hex.EncodeToString(h[:])
}

func (c *Cached) get(key string) ([]float32, bool) {
	v, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return cloneVector(v), true
}

func (c *Cached) put(key string, v []float32) {
	c.lru.Add(key, cloneVector(v))
}
