package similarity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

const defaultCacheSize = 10_000

// EmbeddingProvider computes cosine similarity over vectors from an
// Embedder. Vectors are cached per text and concurrent requests for the
// same text share one embedding call.
type EmbeddingProvider struct {
	embedder Embedder
	cache    *ristretto.Cache[string, []float32]
	group    singleflight.Group
	log      logger.Logger
}

// EmbeddingOption configures an EmbeddingProvider.
type EmbeddingOption func(*embeddingSettings)

type embeddingSettings struct {
	cacheSize int64
	log       logger.Logger
}

// WithCacheSize bounds the number of cached vectors.
func WithCacheSize(n int) EmbeddingOption {
	return func(s *embeddingSettings) {
		if n > 0 {
			s.cacheSize = int64(n)
		}
	}
}

// WithLogger sets the logger used for per-call embedding failures.
func WithLogger(l logger.Logger) EmbeddingOption {
	return func(s *embeddingSettings) {
		if l != nil {
			s.log = l
		}
	}
}

// NewEmbeddingProvider wraps an Embedder with caching and call collapsing.
func NewEmbeddingProvider(e Embedder, opts ...EmbeddingOption) (*EmbeddingProvider, error) {
	s := embeddingSettings{cacheSize: defaultCacheSize, log: logger.Nop()}
	for _, opt := range opts {
		opt(&s)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, []float32]{
		NumCounters:        s.cacheSize * 10,
		MaxCost:            s.cacheSize,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}

	return &EmbeddingProvider{
		embedder: e,
		cache:    cache,
		log:      s.log.Named("similarity"),
	}, nil
}

// Similarity implements Provider. Embedding failures are logged and yield 0.
func (p *EmbeddingProvider) Similarity(ctx context.Context, a, b string) float64 {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		metrics.RecordSimilarityCall("empty")
		return 0
	}

	va, err := p.vector(ctx, a)
	if err != nil {
		p.fail(ctx, err)
		return 0
	}
	vb, err := p.vector(ctx, b)
	if err != nil {
		p.fail(ctx, err)
		return 0
	}

	metrics.RecordSimilarityCall("ok")
	return Cosine(va, vb)
}

// Degraded implements Provider.
func (p *EmbeddingProvider) Degraded() bool { return false }

// Close releases the vector cache.
func (p *EmbeddingProvider) Close() {
	p.cache.Close()
}

func (p *EmbeddingProvider) fail(ctx context.Context, err error) {
	metrics.RecordSimilarityCall("error")
	p.log.Warn(ctx, "embedding failed, similarity treated as zero",
		logger.String("embedder", p.embedder.Name()),
		logger.Error(err),
	)
}

func (p *EmbeddingProvider) vector(ctx context.Context, text string) ([]float32, error) {
	if v, ok := p.cache.Get(text); ok {
		metrics.RecordEmbeddingCache(true)
		return v, nil
	}
	metrics.RecordEmbeddingCache(false)

	res, err, _ := p.group.Do(text, func() (interface{}, error) {
		start := time.Now()
		vecs, err := p.embedder.Embed(ctx, []string{text})
		metrics.RecordEmbeddingLatency(float64(time.Since(start).Milliseconds()))
		if err != nil {
			return nil, err
		}
		if len(vecs) != 1 || len(vecs[0]) == 0 {
			return nil, ErrEmptyEmbedding
		}
		p.cache.Set(text, vecs[0], 1)
		return vecs[0], nil
	})
	if err != nil {
		return nil, err
	}
	v, _ := res.([]float32)
	return v, nil
}
