// Package embedding provides text vectorization backends for the matcher.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrProvider wraps every failure reported by a remote embedding backend.
var ErrProvider = errors.New("embedding provider error")

// Embedder turns one text into a fixed-length vector. Identical input gives identical output.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder vectorizes many texts per call; used for the one-off dictionary build.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// HealthChecker is implemented by backends that can probe a remote service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbedAll uses the native batch call when available, otherwise embeds one by one.
func EmbedAll(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if be, ok := e.(BatchEmbedder); ok {
		out, err := be.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("batch embed: %w", err)
		}
		if len(out) != len(texts) {
			return nil, fmt.Errorf("batch embed returned %d vectors for %d texts: %w", len(out), len(texts), ErrProvider)
		}
		return out, nil
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
