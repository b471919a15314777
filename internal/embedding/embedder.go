// Package embedding turns text into dense vectors for semantic comparison.
package embedding

import (
	"context"
)

// Embedder encodes a text into a fixed-length vector.
// Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

// HealthChecker is implemented by embedders backed by a remote model.
type HealthChecker interface {
	ModelInfo(ctx context.Context) *ModelInfo
}

// StatsProvider is implemented by embedders that expose runtime statistics.
type StatsProvider interface {
	Stats() map[string]any
}

// ModelInfo represents information about the embedding model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
