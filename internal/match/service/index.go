package service

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Hit: результат поиска по индексу: позиция в справочнике и косинус.
type Hit struct {
	Index      int
	Similarity float64
}

// Index: brute-force индекс косинусной близости по векторам справочника.
// Строится один раз и дальше только читается, поэтому безопасен без блокировок.
type Index struct {
	vectors [][]float32
	norms   []float64
	dim     int
}

func buildIndex(vectors [][]float32) (*Index, error) {
	idx := &Index{
		vectors: make([][]float32, len(vectors)),
		norms:   make([]float64, len(vectors)),
	}
	for i, v := range vectors {
		if i == 0 {
			idx.dim = len(v)
		} else if len(v) != idx.dim {
			return nil, fmt.Errorf("entry %d has %d dims, want %d: %w", i, len(v), idx.dim, ErrDimensionMismatch)
		}
		cp := make([]float32, len(v))
		copy(cp, v)
		idx.vectors[i] = cp
		idx.norms[i] = norm(cp)
	}
	return idx, nil
}

func (idx *Index) Size() int { return len(idx.vectors) }
func (idx *Index) Dim() int  { return idx.dim }

// Search returns the top-k entries by cosine similarity, best first.
// При равенстве выигрывает меньший индекс; если записей меньше k, возвращаются все.
func (idx *Index) Search(vec []float32, k int) ([]Hit, error) {
	if len(idx.vectors) == 0 || k <= 0 {
		return nil, nil
	}
	if len(vec) != idx.dim {
		return nil, fmt.Errorf("query has %d dims, index %d: %w", len(vec), idx.dim, ErrDimensionMismatch)
	}
	qn := norm(vec)
	hits := make([]Hit, len(idx.vectors))
	for i, v := range idx.vectors {
		hits[i] = Hit{Index: i, Similarity: cosine(vec, qn, v, idx.norms[i])}
	}
	// hits уже упорядочены по индексу, стабильная сортировка сохраняет этот порядок при равенстве
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func cosine(a []float32, na float64, b []float32, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}
