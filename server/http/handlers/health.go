package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/muaazl/product-matcher/internal/embedding"
)

const healthTimeout = 3 * time.Second

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health returns "ok", or "degraded" when the embedding backend does not answer.
// Хендлер всегда отвечает 200: сервис может работать, пока провайдер недоступен.
func Health(emb embedding.Embedder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		if hc, ok := emb.(embedding.HealthChecker); ok {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			resp.Checks = map[string]string{"embedding": "ok"}
			if err := hc.HealthCheck(ctx); err != nil {
				resp.Checks["embedding"] = "error"
				resp.Status = "degraded"
			}
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
