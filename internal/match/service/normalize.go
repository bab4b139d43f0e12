package service

import (
	"regexp"
	"sort"
	"strings"

	"github.com/muaazl/product-matcher/internal/match/model"
)

var (
	reSkuCode  = regexp.MustCompile(`sku\s*\d+`)
	reNonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)
)

// Normalizer канонизирует сырые наименования: регистр, дефисы, количества, SKU-коды, стоп-слова.
type Normalizer struct {
	quantity  *regexp.Regexp
	stopWords map[string]struct{}
}

// NewNormalizer compiles the unit pattern and stop-word set from settings.
func NewNormalizer(s model.Settings) *Normalizer {
	units := make([]string, 0, len(s.Units))
	for _, u := range s.Units {
		if u = strings.ToLower(strings.TrimSpace(u)); u != "" {
			units = append(units, regexp.QuoteMeta(u))
		}
	}
	// длинные единицы первыми: "gm" раньше "g"
	sort.SliceStable(units, func(i, j int) bool { return len(units[i]) > len(units[j]) })

	n := &Normalizer{stopWords: make(map[string]struct{}, len(s.StopWords))}
	if len(units) > 0 {
		// число с любыми точками: "1.5kg", ".5kg", "1.5.5kg", "500.g"
		n.quantity = regexp.MustCompile(`[\d.]+(?:` + strings.Join(units, "|") + `)\b`)
	}
	for _, w := range s.StopWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			n.stopWords[w] = struct{}{}
		}
	}
	return n
}

// Normalize: главный конвейер. Повторяется, пока результат не перестанет меняться,
// поэтому Normalize(Normalize(x)) == Normalize(x).
func (n *Normalizer) Normalize(raw string) string {
	out := n.pass(raw)
	// после первого прохода строка уже в [a-z0-9 ], дальше проходы только укорачивают её
	for {
		next := n.pass(out)
		if next == out {
			return out
		}
		out = next
	}
}

func (n *Normalizer) pass(s string) string {
	if s == "" {
		return ""
	}
	// 1) регистр
	out := strings.ToLower(s)
	// 2) дефисы → пробел
	out = strings.ReplaceAll(out, "-", " ")
	// 3) "500g", "1.5l" и т.п. вырезаем целиком
	if n.quantity != nil {
		out = n.quantity.ReplaceAllString(out, "")
	}
	// 4) скобки раскрываем, содержимое остаётся
	out = strings.NewReplacer("(", " ", ")", " ").Replace(out)
	// 5) внутренние SKU-коды
	out = reSkuCode.ReplaceAllString(out, "")
	// 6) всё кроме латиницы, цифр и пробелов
	out = reNonAlnum.ReplaceAllString(out, "")
	// 7) стоп-слова; 8) схлопывание пробелов
	words := strings.Fields(out)
	kept := words[:0]
	for _, w := range words {
		if _, stop := n.stopWords[w]; !stop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// Tokens splits normalized text into its token set.
func Tokens(normalized string) model.TokenSet {
	return model.NewTokenSet(strings.Fields(normalized)...)
}

// IsGeneric reports whether tokens name an unbranded commodity.
func IsGeneric(tokens model.TokenSet, generic model.TokenSet) bool {
	return tokens.Intersects(generic)
}
