package similarity

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const defaultDimensions = 256

// LexicalEmbedder is an offline bag-of-words embedder using feature hashing.
// It is deterministic and does no I/O.
type LexicalEmbedder struct {
	dims int
}

// NewLexicalEmbedder creates an embedder producing vectors of the given size.
func NewLexicalEmbedder(dims int) *LexicalEmbedder {
	if dims <= 0 {
		dims = defaultDimensions
	}
	return &LexicalEmbedder{dims: dims}
}

// Name implements Embedder.
func (e *LexicalEmbedder) Name() string { return "lexical" }

// Embed implements Embedder.
func (e *LexicalEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, e.embed(t))
	}
	return out, nil
}

func (e *LexicalEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dims))
		// high bit picks the sign so collisions tend to cancel
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
