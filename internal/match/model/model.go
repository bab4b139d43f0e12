package model

import "sort"

// TokenSet: множество токенов нормализованного имени.
type TokenSet map[string]struct{}

// NewTokenSet builds a set from the given tokens.
func NewTokenSet(tokens ...string) TokenSet {
	s := make(TokenSet, len(tokens))
	for _, t := range tokens {
		if t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

func (s TokenSet) Has(t string) bool {
	_, ok := s[t]
	return ok
}

// IntersectCount returns |s ∩ o|.
func (s TokenSet) IntersectCount(o TokenSet) int {
	small, big := s, o
	if len(big) < len(small) {
		small, big = big, small
	}
	n := 0
	for t := range small {
		if big.Has(t) {
			n++
		}
	}
	return n
}

func (s TokenSet) Intersects(o TokenSet) bool { return s.IntersectCount(o) > 0 }

// Sorted returns the tokens in lexical order (for logs and stable output).
func (s TokenSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

type DictionaryEntry struct {
	Name       string            // исходное наименование из справочника
	Normalized string            // результат нормализации
	Tokens     TokenSet          // токены нормализованного имени
	Brands     TokenSet          // найденные бренды
	Embedding  []float32         // вектор, считается один раз при загрузке
	Attributes map[string]string // остальные колонки строки справочника
}

type QueryItem struct {
	Name       string
	Normalized string
	Tokens     TokenSet
	Brands     TokenSet
	Embedding  []float32
	Generic    bool // содержит generic-идентификатор (bulk, loose, local)
}

// Candidate is one scored dictionary entry within a single query's pass.
type Candidate struct {
	Index        int     // позиция в справочнике
	Similarity   float64 // косинус, как вернул поиск
	Semantic     float64 // 0..100
	Keyword      float64 // 0..100
	Brand        float64 // 0 | 50 | 100
	Hybrid       float64
	Intersection int // |query ∩ entry|
}

type MatchLevel string

const (
	LevelHigh     MatchLevel = "High Confidence"
	LevelRejected MatchLevel = "Low (Rejected)"
)

// Decision is what the decider picked, before it is joined with dictionary data.
type Decision struct {
	Best      Candidate
	Accepted  bool
	TieBroken bool
	Reasoning string
}

type MatchResult struct {
	Query           string            `json:"query"`
	Matched         string            `json:"matched"`
	Score           float64           `json:"score"`
	Level           MatchLevel        `json:"level"`
	Reasoning       string            `json:"reasoning"`
	Semantic        float64           `json:"semantic"`
	Keyword         float64           `json:"keyword"`
	Brand           float64           `json:"brand"`
	TieBroken       bool              `json:"tieBroken,omitempty"`
	DictionaryIndex int               `json:"dictionaryIndex"` // -1 при отказе
	Attributes      map[string]string `json:"attributes,omitempty"`
}

func (r MatchResult) Accepted() bool { return r.Level == LevelHigh }

// Report: итог прогона по одному набору запросов.
type Report struct {
	Results  []MatchResult `json:"results"`
	Total    int           `json:"total"`
	Accepted int           `json:"accepted"`
	Rejected int           `json:"rejected"`
	Skipped  int           `json:"skipped"`
}
