package service

import (
	"math"

	"github.com/muaazl/product-matcher/internal/match/model"
)

const (
	brandFull    = 100.0
	brandPartial = 50.0
	brandNone    = 0.0
)

// SemanticScore scales cosine similarity to percent. Отрицательный косинус (знаковый хешинг) даёт 0.
func SemanticScore(similarity float64) float64 {
	return clampPercent(similarity * 100)
}

// BrandScore: 100 если бренды согласуются, 0 если противоречат, 50 если бренд известен только с одной стороны.
// Generic-запрос (bulk/loose/local) не должен совпадать с брендированной записью.
func BrandScore(queryBrands, dictBrands model.TokenSet, generic bool) float64 {
	if generic {
		if len(dictBrands) == 0 {
			return brandFull
		}
		return brandNone
	}
	switch {
	case len(queryBrands) > 0 && len(dictBrands) > 0:
		if queryBrands.Intersects(dictBrands) {
			return brandFull
		}
		return brandNone
	case len(queryBrands) == 0 && len(dictBrands) == 0:
		return brandFull
	default:
		return brandPartial
	}
}

// KeywordScore is the Jaccard index of the two token sets in percent, multiplied by a penalty
// for query tokens the entry does not explain. coef=0.75 keeps a 0.25 multiplier at full mismatch.
func KeywordScore(query, dict model.TokenSet, coef float64) float64 {
	if len(query) == 0 || len(dict) == 0 {
		return 0
	}
	inter := query.IntersectCount(dict)
	mismatched := len(query) - inter

	penalty := 1.0
	if mismatched > 0 {
		penalty = 1.0 - (float64(mismatched)/float64(len(query)))*coef
		if penalty < 0 {
			penalty = 0
		}
	}

	union := len(query) + len(dict) - inter
	jaccard := float64(inter) / float64(union) * 100
	return jaccard * penalty
}

// HybridScore combines the three sub-scores with the configured weights, result in [0, 100].
func HybridScore(semantic, keyword, brand float64, s model.Settings) float64 {
	return clampPercent(semantic*s.SemanticWeight + keyword*s.KeywordWeight + brand*s.BrandWeight)
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// ScoreCandidate computes all sub-scores of one retrieved entry for the query.
func ScoreCandidate(q *model.QueryItem, e *model.DictionaryEntry, hit Hit, s model.Settings) model.Candidate {
	c := model.Candidate{
		Index:        hit.Index,
		Similarity:   hit.Similarity,
		Semantic:     SemanticScore(hit.Similarity),
		Keyword:      KeywordScore(q.Tokens, e.Tokens, s.MismatchPenalty),
		Brand:        BrandScore(q.Brands, e.Brands, q.Generic),
		Intersection: q.Tokens.IntersectCount(e.Tokens),
	}
	c.Hybrid = HybridScore(c.Semantic, c.Keyword, c.Brand, s)
	return c
}
