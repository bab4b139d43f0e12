package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexSearch(t *testing.T) {
	idx, err := buildIndex([][]float32{
		{1, 0},
		{1, 0},
		{0, 1},
		{0.6, 0.8},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Size())
	assert.Equal(t, 2, idx.Dim())

	t.Run("top-k descending, ties by ascending index", func(t *testing.T) {
		hits, err := idx.Search([]float32{1, 0}, 3)
		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, []int{0, 1, 3}, []int{hits[0].Index, hits[1].Index, hits[2].Index})
		assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
		assert.InDelta(t, 0.6, hits[2].Similarity, 1e-6)
	})

	t.Run("k larger than index returns everything", func(t *testing.T) {
		hits, err := idx.Search([]float32{0, 2}, 10)
		require.NoError(t, err)
		require.Len(t, hits, 4)
		assert.Equal(t, 2, hits[0].Index)
	})

	t.Run("zero query vector", func(t *testing.T) {
		hits, err := idx.Search([]float32{0, 0}, 2)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1}, []int{hits[0].Index, hits[1].Index})
		assert.Zero(t, hits[0].Similarity)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := idx.Search([]float32{1, 0, 0}, 3)
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestBuildIndex_DimensionMismatch(t *testing.T) {
	_, err := buildIndex([][]float32{{1, 0}, {1}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestBuildIndex_CopiesVectors(t *testing.T) {
	v := []float32{1, 0}
	idx, err := buildIndex([][]float32{v})
	require.NoError(t, err)
	v[0], v[1] = 0, 1

	hits, err := idx.Search([]float32{1, 0}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-6)
}
