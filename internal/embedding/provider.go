package embedding

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
)

const (
	ProviderHash   = "hash"
	ProviderOpenAI = "openai"
)

// ProviderConfig selects and configures the embedding backend.
type ProviderConfig struct {
	Provider  string
	OpenAI    OpenAIConfig
	HashDim   int
	Cache     bool
	CacheSize int
}

// NewProvider builds the configured embedder, wrapped in the in-memory cache when enabled.
func NewProvider(pc ProviderConfig, logger zerolog.Logger) (Embedder, error) {
	var (
		e       Embedder
		modelID string
	)
	switch pc.Provider {
	case "", ProviderHash:
		h := NewHashing(pc.HashDim)
		e, modelID = h, "hash-"+strconv.Itoa(h.Dim())
	case ProviderOpenAI:
		if pc.OpenAI.APIKey == "" && pc.OpenAI.BaseURL == "" {
			return nil, fmt.Errorf("openai provider needs an API key or a base URL")
		}
		o := NewOpenAI(pc.OpenAI, logger)
		e, modelID = o, string(o.model)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", pc.Provider)
	}
	logger.Info().Str("provider", pc.Provider).Str("model", modelID).Bool("cache", pc.Cache).Int("cache_size", pc.CacheSize).Msg("embedder ready")
	if pc.Cache {
		return NewCached(e, modelID, pc.CacheSize), nil
	}
	return e, nil
}
