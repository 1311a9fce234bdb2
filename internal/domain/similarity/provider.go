package similarity

import (
	"context"
	"strings"
	"time"

	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

// Provider names accepted by New.
const (
	ProviderNone    = "none"
	ProviderLexical = "lexical"
	ProviderGemini  = "gemini"
)

// Settings selects and tunes the similarity capability.
type Settings struct {
	Provider       string
	Model          string
	APIKey         string
	CacheSize      int
	Dimensions     int
	RequestTimeout time.Duration
	BreakerTimeout time.Duration
}

// New probes the configured capability once and returns a ready Provider.
// Any setup failure degrades to Noop with a warning; it is never an error.
func New(ctx context.Context, s Settings, log logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("similarity")

	var embedder Embedder
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case "", ProviderNone:
		log.Info(ctx, "semantic similarity disabled")
		return degraded()
	case ProviderLexical:
		embedder = NewLexicalEmbedder(s.Dimensions)
	case ProviderGemini:
		g, err := NewGeminiEmbedder(ctx, s.APIKey,
			WithModel(s.Model),
			WithRequestTimeout(s.RequestTimeout),
			WithBreakerTimeout(s.BreakerTimeout),
			WithGeminiLogger(log),
		)
		if err != nil {
			log.Warn(ctx, "embedding capability unavailable, falling back to rule-based portfolio scoring",
				logger.String("provider", s.Provider),
				logger.Error(err),
			)
			return degraded()
		}
		embedder = g
	default:
		log.Warn(ctx, "embedding capability unavailable, falling back to rule-based portfolio scoring",
			logger.String("provider", s.Provider),
			logger.Error(ErrUnknownProvider),
		)
		return degraded()
	}

	p, err := NewEmbeddingProvider(embedder, WithCacheSize(s.CacheSize), WithLogger(log))
	if err != nil {
		log.Warn(ctx, "embedding cache unavailable, falling back to rule-based portfolio scoring", logger.Error(err))
		return degraded()
	}

	metrics.SetSimilarityDegraded(false)
	log.Info(ctx, "semantic similarity enabled", logger.String("embedder", embedder.Name()))
	return p
}

func degraded() Provider {
	metrics.SetSimilarityDegraded(true)
	return Noop{}
}
