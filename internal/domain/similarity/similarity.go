// Package similarity estimates semantic closeness between free-text passages.
//
// A Provider is chosen once at construction by New. When the embedding
// capability cannot be set up the result is a Noop that reports itself as
// degraded; callers only ever see the Provider interface.
package similarity

import (
	"context"
	"math"
)

// Provider estimates semantic closeness of two passages in [0,1].
type Provider interface {
	// Similarity never fails; an unavailable capability yields 0.
	Similarity(ctx context.Context, a, b string) float64
	// Degraded reports that the capability is unavailable.
	Degraded() bool
}

// Embedder turns passages into dense vectors, one per input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Name() string
}

// Noop is the null Provider used when no embedding capability exists.
type Noop struct{}

// Similarity always returns 0.
func (Noop) Similarity(context.Context, string, string) float64 { return 0 }

// Degraded always reports true.
func (Noop) Degraded() bool { return true }

// Cosine returns the cosine similarity of a and b clamped to [0,1].
// Mismatched lengths or zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	c := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(c, 1))
}
