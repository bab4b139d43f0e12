package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// fakeEmbeddingsServer отвечает как /embeddings, вектор = [len(text), index], data в обратном порядке.
func fakeEmbeddingsServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []any{}})
			return
		}
		if r.URL.Path != "/embeddings" {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i])), float32(i)},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestOpenAI_EmbedBatchChunksAndOrders(t *testing.T) {
	var calls atomic.Int32
	srv := fakeEmbeddingsServer(t, &calls)
	defer srv.Close()

	e := NewOpenAI(OpenAIConfig{APIKey: "test", BaseURL: srv.URL, BatchSize: 2}, zerolog.Nop())
	out, err := e.EmbedBatch(context.Background(), []string{"a", "bbb", "cc"})
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, [][]float32{{1, 0}, {3, 1}, {2, 0}}, out)
}

func TestOpenAI_Embed(t *testing.T) {
	var calls atomic.Int32
	srv := fakeEmbeddingsServer(t, &calls)
	defer srv.Close()

	e := NewOpenAI(OpenAIConfig{APIKey: "test", BaseURL: srv.URL}, zerolog.Nop())
	v, err := e.Embed(context.Background(), "tea")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 0}, v)
	assert.NoError(t, e.HealthCheck(context.Background()))
}

func TestOpenAI_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	e := NewOpenAI(OpenAIConfig{APIKey: "nope", BaseURL: srv.URL}, zerolog.Nop())
	_, err := e.Embed(context.Background(), "tea")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProvider)
	assert.Contains(t, err.Error(), "bad key")
}

func TestOpenAI_ContextCanceled(t *testing.T) {
	var calls atomic.Int32
	srv := fakeEmbeddingsServer(t, &calls)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewOpenAI(OpenAIConfig{APIKey: "test", BaseURL: srv.URL}, zerolog.Nop())
	_, err := e.Embed(ctx, "tea")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrProvider)
}

func TestExtractDetail(t *testing.T) {
	assert.Equal(t, "model not found", extractDetail([]byte(`{"detail":"model not found"}`)))
	assert.Empty(t, extractDetail([]byte(`not json`)))
}

func TestNewProvider(t *testing.T) {
	t.Run("hash with cache", func(t *testing.T) {
		e, err := NewProvider(ProviderConfig{Provider: ProviderHash, Cache: true, CacheSize: 2}, zerolog.Nop())
		require.NoError(t, err)
		require.IsType(t, &Cached{}, e)
		for _, w := range []string{"rice", "tea", "milk"} {
			_, err := e.Embed(context.Background(), w)
			require.NoError(t, err)
		}
		assert.Equal(t, 2, e.(*Cached).Len())
	})

	t.Run("default is hash", func(t *testing.T) {
		e, err := NewProvider(ProviderConfig{}, zerolog.Nop())
		require.NoError(t, err)
		assert.IsType(t, &Hashing{}, e)
	})

	t.Run("openai needs credentials", func(t *testing.T) {
		_, err := NewProvider(ProviderConfig{Provider: ProviderOpenAI}, zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewProvider(ProviderConfig{Provider: "word2vec"}, zerolog.Nop())
		assert.Error(t, err)
	})
}
