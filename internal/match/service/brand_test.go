package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/muaazl/product-matcher/internal/match/model"
)

func TestBrandVocabulary(t *testing.T) {
	n := NewNormalizer(model.DefaultSettings())
	v := NewBrandVocabulary([]string{"Coca-Cola", "India Gate", "coca cola", "", "(Premium)"}, n)

	// дубли и пустые после нормализации отброшены
	assert.Equal(t, 2, v.Len())

	var nilVocab *BrandVocabulary
	assert.Equal(t, 0, nilVocab.Len())
}

func TestExtractBrands(t *testing.T) {
	n := NewNormalizer(model.DefaultSettings())
	v := NewBrandVocabulary([]string{"Coca-Cola", "India Gate", "Lays"}, n)

	t.Run("multi-word brand is a token subset", func(t *testing.T) {
		got := ExtractBrands(Tokens(n.Normalize("Coca-Cola Classic 500ml")), v)
		assert.Equal(t, []string{"coca cola"}, got.Sorted())
	})

	t.Run("word order does not matter", func(t *testing.T) {
		got := ExtractBrands(Tokens("cola coca zero"), v)
		assert.Equal(t, []string{"coca cola"}, got.Sorted())
	})

	t.Run("partial brand is not a match", func(t *testing.T) {
		assert.Empty(t, ExtractBrands(Tokens("coca zero"), v))
	})

	t.Run("substring is not a match", func(t *testing.T) {
		assert.Empty(t, ExtractBrands(Tokens("layson chips"), v))
	})

	t.Run("several brands", func(t *testing.T) {
		got := ExtractBrands(Tokens("india gate rice coca cola"), v)
		assert.Equal(t, []string{"coca cola", "india gate"}, got.Sorted())
	})

	t.Run("nil vocabulary", func(t *testing.T) {
		assert.Empty(t, ExtractBrands(Tokens("coca cola"), nil))
	})
}
