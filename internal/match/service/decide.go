package service

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/muaazl/product-matcher/internal/match/model"
	"github.com/muaazl/product-matcher/internal/utils"
)

// ErrNoCandidates means retrieval returned nothing for a non-empty dictionary.
var ErrNoCandidates = errors.New("no candidates to decide on")

// Decide ranks the candidates, applies the near-tie override and the acceptance threshold.
// Входной срез не меняется.
func Decide(cands []model.Candidate, s model.Settings) (model.Decision, error) {
	if len(cands) == 0 {
		return model.Decision{}, ErrNoCandidates
	}
	ranked := make([]model.Candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Hybrid > ranked[j].Hybrid })

	d := model.Decision{Best: ranked[0]}

	// близкие баллы решаем в пользу большего пересечения слов
	if len(ranked) > 1 {
		second := ranked[1]
		if math.Abs(d.Best.Hybrid-second.Hybrid) < s.TieBreakerMargin &&
			second.Intersection > d.Best.Intersection {
			d.Best = second
			d.TieBroken = true
		}
	}

	if d.Best.Hybrid < s.Threshold {
		d.Reasoning = fmt.Sprintf("REJECTED: Best score (%s) below threshold (%s).",
			utils.FormatPercent(d.Best.Hybrid), utils.FormatPercent(s.Threshold))
		return d, nil
	}
	d.Accepted = true
	// формат строки читают выгрузки; факт тай-брейка виден только в TieBroken
	d.Reasoning = fmt.Sprintf("Final Score: %s", utils.FormatPercent(d.Best.Hybrid))
	return d, nil
}
