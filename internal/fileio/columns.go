package fileio

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrColumnNotFound = errors.New("column not found")

var reHeaderNoise = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Cell: непустое значение колонки вместе с исходной строкой.
type Cell struct {
	Value  string
	Record map[string]string
}

// normHeaderKey: нижний регистр, служебные символы и NBSP → пробел, схлопывание пробелов.
func normHeaderKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("\u00A0", " ", "\u202F", " ", "_", " ").Replace(s)
	s = reHeaderNoise.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// ResolveKey ищет реальный ключ записи по желаемому имени колонки.
// Поддерживает альтернативы через "|" ("Name|SKU Name"), сравнение после нормализации
// и частичное вхождение для составных заголовков ("Product Name (EN)").
func ResolveKey(rec map[string]string, want string) string {
	want = strings.TrimSpace(want)
	if want == "" {
		return ""
	}
	alts := strings.Split(want, "|")
	for i := range alts {
		alts[i] = strings.TrimSpace(alts[i])
	}

	// 1) точное совпадение
	for _, a := range alts {
		if _, ok := rec[a]; ok {
			return a
		}
	}

	nWant := make([]string, 0, len(alts))
	for _, a := range alts {
		if n := normHeaderKey(a); n != "" {
			nWant = append(nWant, n)
		}
	}

	// 2) нормализованное совпадение, затем самое длинное частичное
	bestKey, bestScore := "", 0
	for k := range rec {
		nk := normHeaderKey(k)
		if nk == "" {
			continue
		}
		for rank, n := range nWant {
			if nk == n {
				return k
			}
			if strings.Contains(nk, n) || strings.Contains(n, nk) {
				// более ранние альтернативы важнее
				score := min(len(n), len(nk))*10 + (len(nWant) - rank)
				if score > bestScore || (score == bestScore && k < bestKey) {
					bestScore, bestKey = score, k
				}
			}
		}
	}
	return bestKey
}

// Column returns the non-blank values of the wanted column in file order.
// Строки, повторяющие заголовок (склейка нескольких выгрузок), пропускаются.
func Column(records []map[string]string, want string) ([]Cell, error) {
	if len(records) == 0 {
		return nil, nil
	}
	key := ResolveKey(records[0], want)
	if key == "" {
		return nil, fmt.Errorf("%q: %w", want, ErrColumnNotFound)
	}
	out := make([]Cell, 0, len(records))
	for _, rec := range records {
		v := strings.TrimSpace(rec[key])
		if v == "" || looksLikeHeader(rec) {
			continue
		}
		out = append(out, Cell{Value: v, Record: rec})
	}
	return out, nil
}

// Values is Column without the source records.
func Values(records []map[string]string, want string) ([]string, error) {
	cells, err := Column(records, want)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Value
	}
	return out, nil
}

// looksLikeHeader: большинство непустых ячеек совпадают с именами своих колонок.
func looksLikeHeader(rec map[string]string) bool {
	same, filled := 0, 0
	for k, v := range rec {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		filled++
		if normHeaderKey(v) == normHeaderKey(k) {
			same++
		}
	}
	return filled > 0 && same*2 > filled
}
