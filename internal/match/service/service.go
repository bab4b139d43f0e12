package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/muaazl/product-matcher/internal/embedding"
	"github.com/muaazl/product-matcher/internal/match/model"
	"github.com/muaazl/product-matcher/internal/metrics"
)

// Matcher resolves queries against one prebuilt dictionary.
// Общего изменяемого состояния нет, поэтому MatchOne можно звать из нескольких горутин.
type Matcher struct {
	settings model.Settings
	norm     *Normalizer
	generic  model.TokenSet
	dict     *Dictionary
	emb      embedding.Embedder
	logger   zerolog.Logger
}

// NewMatcher builds the dictionary (normalize → brands → batch embed → index) and returns a ready matcher.
func NewMatcher(ctx context.Context, s model.Settings, emb embedding.Embedder, rows []DictionaryRow, brandNames []string, logger zerolog.Logger) (*Matcher, error) {
	n := NewNormalizer(s)
	vocab := NewBrandVocabulary(brandNames, n)

	start := time.Now()
	dict, err := BuildDictionary(ctx, rows, vocab, emb, n)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Int("entries", dict.Len()).
		Int("skipped", dict.Skipped()).
		Int("brands", vocab.Len()).
		Int("dim", dict.index.Dim()).
		Dur("elapsed", time.Since(start)).
		Msg("dictionary ready")

	generic := make(model.TokenSet, len(s.GenericIdentifiers))
	for _, g := range s.GenericIdentifiers {
		for t := range Tokens(n.Normalize(g)) {
			generic[t] = struct{}{}
		}
	}

	return &Matcher{
		settings: s,
		norm:     n,
		generic:  generic,
		dict:     dict,
		emb:      emb,
		logger:   logger,
	}, nil
}

func (m *Matcher) Settings() model.Settings { return m.settings }
func (m *Matcher) Dictionary() *Dictionary { return m.dict }
func (m *Matcher) Normalizer() *Normalizer { return m.norm }

// WithThreshold returns a matcher sharing the same dictionary but a different acceptance threshold.
func (m *Matcher) WithThreshold(t float64) *Matcher {
	cp := *m
	cp.settings.Threshold = t
	return &cp
}

// Prepare normalizes, brand-tags and embeds one query. ok=false: пустой после нормализации, пропустить.
func (m *Matcher) Prepare(ctx context.Context, raw string) (q *model.QueryItem, ok bool, err error) {
	norm := m.norm.Normalize(raw)
	if norm == "" {
		return nil, false, nil
	}
	tokens := Tokens(norm)
	q = &model.QueryItem{
		Name:       raw,
		Normalized: norm,
		Tokens:     tokens,
		Brands:     ExtractBrands(tokens, m.dict.brands),
		Generic:    IsGeneric(tokens, m.generic),
	}
	if q.Embedding, err = m.emb.Embed(ctx, norm); err != nil {
		return nil, false, fmt.Errorf("embed query %q: %w", raw, err)
	}
	return q, true, nil
}

// MatchOne runs retrieve → score → decide for a single raw name.
// ok=false означает, что строка пропущена (пустая после нормализации).
func (m *Matcher) MatchOne(ctx context.Context, raw string) (model.MatchResult, bool, error) {
	q, ok, err := m.Prepare(ctx, raw)
	if err != nil {
		return model.MatchResult{}, false, err
	}
	if !ok {
		metrics.MatchSkippedTotal.Inc()
		return model.MatchResult{}, false, nil
	}

	hits, err := m.dict.Search(q.Embedding, m.settings.TopK)
	if err != nil {
		return model.MatchResult{}, false, fmt.Errorf("search %q: %w", raw, err)
	}
	cands := make([]model.Candidate, len(hits))
	for i, h := range hits {
		cands[i] = ScoreCandidate(q, m.dict.Entry(h.Index), h, m.settings)
	}

	d, err := Decide(cands, m.settings)
	if err != nil {
		return model.MatchResult{}, false, fmt.Errorf("decide %q: %w", raw, err)
	}

	res := model.MatchResult{
		Query:           raw,
		Score:           d.Best.Hybrid,
		Reasoning:       d.Reasoning,
		Semantic:        d.Best.Semantic,
		Keyword:         d.Best.Keyword,
		Brand:           d.Best.Brand,
		TieBroken:       d.TieBroken,
		Level:           model.LevelRejected,
		DictionaryIndex: -1,
	}
	if d.Accepted {
		e := m.dict.Entry(d.Best.Index)
		res.Level = model.LevelHigh
		res.Matched = e.Name
		res.DictionaryIndex = d.Best.Index
		res.Attributes = e.Attributes
	}
	metrics.MatchDecisionsTotal.WithLabelValues(string(res.Level)).Inc()
	return res, true, nil
}

// MatchAll matches every name and keeps input order in the report.
// При Workers > 1 запросы обрабатываются параллельно; первая ошибка отменяет остальные.
func (m *Matcher) MatchAll(ctx context.Context, names []string) (model.Report, error) {
	slots := make([]*model.MatchResult, len(names))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, m.settings.Workers))
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			res, ok, err := m.MatchOne(gctx, name)
			if err != nil {
				return err
			}
			if ok {
				slots[i] = &res
			}
			if n := done.Add(1); m.settings.ProgressEvery > 0 && n%int64(m.settings.ProgressEvery) == 0 {
				m.logger.Info().Int64("processed", n).Int("total", len(names)).Msg("matching progress")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Report{}, err
	}

	rep := model.Report{Results: make([]model.MatchResult, 0, len(names)), Total: len(names)}
	for _, r := range slots {
		if r == nil {
			rep.Skipped++
			continue
		}
		if r.Accepted() {
			rep.Accepted++
		} else {
			rep.Rejected++
		}
		rep.Results = append(rep.Results, *r)
	}
	return rep, nil
}
