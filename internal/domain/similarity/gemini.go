package similarity

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"google.golang.org/genai"

	"github.com/okian/gigmatch/pkg/logger"
	"github.com/okian/gigmatch/pkg/metrics"
)

const (
	defaultGeminiModel    = "text-embedding-004"
	defaultRequestTimeout = 5 * time.Second
	defaultBreakerTimeout = time.Minute
	breakerName           = "gemini-embeddings"
	breakerMinRequests    = 5
	breakerFailureRatio   = 0.6
)

// embedContentAPI is the subset of *genai.Models used for embeddings.
type embedContentAPI interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// GeminiEmbedder embeds passages with the Gemini embedding API behind a
// circuit breaker.
type GeminiEmbedder struct {
	api            embedContentAPI
	model          string
	timeout        time.Duration
	breakerTimeout time.Duration
	cb             *gobreaker.CircuitBreaker[[][]float32]
	log            logger.Logger
}

// GeminiOption configures a GeminiEmbedder.
type GeminiOption func(*GeminiEmbedder)

// WithModel sets the embedding model name.
func WithModel(model string) GeminiOption {
	return func(g *GeminiEmbedder) {
		if model != "" {
			g.model = model
		}
	}
}

// WithRequestTimeout bounds each remote call.
func WithRequestTimeout(d time.Duration) GeminiOption {
	return func(g *GeminiEmbedder) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithBreakerTimeout sets how long the circuit stays open.
func WithBreakerTimeout(d time.Duration) GeminiOption {
	return func(g *GeminiEmbedder) {
		if d > 0 {
			g.breakerTimeout = d
		}
	}
}

// WithGeminiLogger sets the logger for breaker transitions.
func WithGeminiLogger(l logger.Logger) GeminiOption {
	return func(g *GeminiEmbedder) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGeminiEmbedder creates a client for the Gemini API.
func NewGeminiEmbedder(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiEmbedder(client.Models, opts...), nil
}

func newGeminiEmbedder(api embedContentAPI, opts ...GeminiOption) *GeminiEmbedder {
	g := &GeminiEmbedder{
		api:            api,
		model:          defaultGeminiModel,
		timeout:        defaultRequestTimeout,
		breakerTimeout: defaultBreakerTimeout,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.cb = newBreaker(g.breakerTimeout, g.log)
	metrics.UpdateBreakerState(breakerName, stateToFloat(gobreaker.StateClosed))
	return g
}

func newBreaker(timeout time.Duration, log logger.Logger) *gobreaker.CircuitBreaker[[][]float32] {
	return gobreaker.NewCircuitBreaker[[][]float32](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= breakerFailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn(context.Background(), "embedding circuit state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			metrics.UpdateBreakerState(name, stateToFloat(to))
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	})
}

// Name implements Embedder.
func (g *GeminiEmbedder) Name() string { return "gemini:" + g.model }

// Embed implements Embedder.
func (g *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := g.cb.Execute(func() ([][]float32, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		contents := make([]*genai.Content, 0, len(texts))
		for _, t := range texts {
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: t}},
			})
		}

		resp, err := g.api.EmbedContent(callCtx, g.model, contents, nil)
		if err != nil {
			return nil, fmt.Errorf("embed content: %w", err)
		}
		if resp == nil || len(resp.Embeddings) == 0 {
			return nil, ErrEmptyEmbedding
		}
		if len(resp.Embeddings) != len(texts) {
			return nil, fmt.Errorf("%w: got %d want %d", ErrEmbeddingCount, len(resp.Embeddings), len(texts))
		}

		out := make([][]float32, len(resp.Embeddings))
		for i, e := range resp.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return nil, ErrEmptyEmbedding
			}
			out[i] = e.Values
		}
		return out, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	return vecs, err
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
