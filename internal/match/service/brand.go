package service

import (
	"sort"
	"strings"

	"github.com/muaazl/product-matcher/internal/match/model"
)

type brand struct {
	name   string
	tokens []string
}

// BrandVocabulary is the normalized reference list of brands. Read-only after construction.
type BrandVocabulary struct {
	brands []brand
}

// NewBrandVocabulary normalizes raw brand names with the same pipeline as product names.
// Пустые после нормализации и дубли отбрасываются.
func NewBrandVocabulary(raw []string, n *Normalizer) *BrandVocabulary {
	seen := make(map[string]struct{}, len(raw))
	v := &BrandVocabulary{brands: make([]brand, 0, len(raw))}
	for _, r := range raw {
		name := n.Normalize(r)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		v.brands = append(v.brands, brand{name: name, tokens: strings.Fields(name)})
	}
	sort.Slice(v.brands, func(i, j int) bool { return v.brands[i].name < v.brands[j].name })
	return v
}

func (v *BrandVocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.brands)
}

// ExtractBrands returns every brand whose tokens are all present in the text's tokens.
// Порядок слов не важен: "coca cola classic" содержит бренд "coca cola".
func ExtractBrands(tokens model.TokenSet, v *BrandVocabulary) model.TokenSet {
	found := model.TokenSet{}
	if v == nil || len(tokens) == 0 {
		return found
	}
	for _, b := range v.brands {
		if containsAll(tokens, b.tokens) {
			found[b.name] = struct{}{}
		}
	}
	return found
}

func containsAll(set model.TokenSet, want []string) bool {
	for _, t := range want {
		if !set.Has(t) {
			return false
		}
	}
	return true
}
