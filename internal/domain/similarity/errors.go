package similarity

import "errors"

// Sentinel errors for embedding backends.
var (
	ErrEmptyEmbedding  = errors.New("embedding response is empty")
	ErrEmbeddingCount  = errors.New("embedding count does not match input count")
	ErrMissingAPIKey   = errors.New("embedding api key is not configured")
	ErrUnknownProvider = errors.New("unknown similarity provider")
	ErrCircuitOpen     = errors.New("embedding circuit is open")
)
