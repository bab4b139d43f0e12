package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muaazl/product-matcher/internal/match/model"
)

func TestDecide(t *testing.T) {
	s := model.DefaultSettings()

	t.Run("near tie goes to larger keyword overlap", func(t *testing.T) {
		cands := []model.Candidate{
			{Index: 0, Hybrid: 80, Intersection: 1},
			{Index: 1, Hybrid: 78, Intersection: 3},
		}
		d, err := Decide(cands, s)
		require.NoError(t, err)
		assert.Equal(t, 1, d.Best.Index)
		assert.True(t, d.TieBroken)
		assert.True(t, d.Accepted)
		assert.Equal(t, "Final Score: 78%", d.Reasoning)
	})

	t.Run("gap of exactly the margin does not override", func(t *testing.T) {
		cands := []model.Candidate{
			{Index: 0, Hybrid: 80, Intersection: 1},
			{Index: 1, Hybrid: 77.5, Intersection: 3},
		}
		d, err := Decide(cands, s)
		require.NoError(t, err)
		assert.Equal(t, 0, d.Best.Index)
		assert.False(t, d.TieBroken)
	})

	t.Run("equal overlap keeps the top candidate", func(t *testing.T) {
		cands := []model.Candidate{
			{Index: 0, Hybrid: 80, Intersection: 2},
			{Index: 1, Hybrid: 79, Intersection: 2},
		}
		d, err := Decide(cands, s)
		require.NoError(t, err)
		assert.Equal(t, 0, d.Best.Index)
	})

	t.Run("sorts unordered input and keeps it intact", func(t *testing.T) {
		cands := []model.Candidate{
			{Index: 4, Hybrid: 60},
			{Index: 9, Hybrid: 90},
			{Index: 2, Hybrid: 70},
		}
		d, err := Decide(cands, s)
		require.NoError(t, err)
		assert.Equal(t, 9, d.Best.Index)
		assert.Equal(t, 4, cands[0].Index)
	})

	t.Run("equal scores keep retrieval order", func(t *testing.T) {
		cands := []model.Candidate{
			{Index: 3, Hybrid: 85},
			{Index: 1, Hybrid: 85},
		}
		d, err := Decide(cands, s)
		require.NoError(t, err)
		assert.Equal(t, 3, d.Best.Index)
	})

	t.Run("below threshold is rejected", func(t *testing.T) {
		st := s
		st.Threshold = 60
		d, err := Decide([]model.Candidate{{Index: 0, Hybrid: 55}}, st)
		require.NoError(t, err)
		assert.False(t, d.Accepted)
		assert.Equal(t, "REJECTED: Best score (55%) below threshold (60%).", d.Reasoning)
	})

	t.Run("score equal to threshold is accepted", func(t *testing.T) {
		d, err := Decide([]model.Candidate{{Index: 0, Hybrid: 75}}, s)
		require.NoError(t, err)
		assert.True(t, d.Accepted)
		assert.Equal(t, "Final Score: 75%", d.Reasoning)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Decide(nil, s)
		assert.ErrorIs(t, err, ErrNoCandidates)
	})
}
