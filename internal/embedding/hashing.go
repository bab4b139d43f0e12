package embedding

import (
	"context"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const (
	DefaultHashingDim = 256

	wordWeight    = 1.0
	trigramWeight = 0.5
)

// Hashing is an offline embedder: words and character trigrams are hashed into a fixed
// number of buckets with signed feature hashing, then the vector is L2-normalized.
// Не требует сети и модели; годится для тестов и закрытых контуров.
type Hashing struct {
	dim int
}

func NewHashing(dim int) *Hashing {
	if dim <= 0 {
		dim = DefaultHashingDim
	}
	return &Hashing{dim: dim}
}

func (h *Hashing) Dim() int { return h.dim }

func (h *Hashing) Embed(_ context.Context, text string) ([]float32, error) {
	return h.vector(text), nil
}

func (h *Hashing) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *Hashing) vector(text string) []float32 {
	acc := make([]float64, h.dim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h.add(acc, "w:"+w, wordWeight)
		for g := range trigramSet(w) {
			h.add(acc, "g:"+g, trigramWeight)
		}
	}

	var n float64
	for _, v := range acc {
		n += v * v
	}
	out := make([]float32, h.dim)
	if n == 0 {
		return out
	}
	n = math.Sqrt(n)
	for i, v := range acc {
		out[i] = float32(v / n)
	}
	return out
}

func (h *Hashing) add(acc []float64, feature string, weight float64) {
	sum := xxhash.Sum64String(feature)
	i := int(sum % uint64(h.dim))
	if sum>>63 == 1 {
		weight = -weight
	}
	acc[i] += weight
}

// trigramSet returns the character trigrams of " s " (с граничными пробелами).
func trigramSet(s string) map[string]struct{} {
	m := make(map[string]struct{})
	if s == "" {
		return m
	}
	r := []rune(" " + s + " ")
	if len(r) < 3 {
		m[string(r)] = struct{}{}
		return m
	}
	for i := 0; i <= len(r)-3; i++ {
		m[string(r[i:i+3])] = struct{}{}
	}
	return m
}
