package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/muaazl/product-matcher/internal/embedding"
	"github.com/muaazl/product-matcher/internal/match/model"
)

var ErrEmptyDictionary = errors.New("dictionary has no usable entries")

// DictionaryRow: строка справочника, как её отдал загрузчик.
type DictionaryRow struct {
	Name       string
	Attributes map[string]string
}

// Dictionary holds the normalized, brand-tagged and embedded reference entries
// together with their vector index. Read-only once built.
type Dictionary struct {
	entries []model.DictionaryEntry
	index   *Index
	brands  *BrandVocabulary
	skipped int
}

// BuildDictionary normalizes, brand-tags and embeds (batched) every row.
// Строки, пустые после нормализации, пропускаются.
func BuildDictionary(ctx context.Context, rows []DictionaryRow, brands *BrandVocabulary, emb embedding.Embedder, n *Normalizer) (*Dictionary, error) {
	d := &Dictionary{
		entries: make([]model.DictionaryEntry, 0, len(rows)),
		brands:  brands,
	}
	texts := make([]string, 0, len(rows))
	for _, r := range rows {
		norm := n.Normalize(r.Name)
		if norm == "" {
			d.skipped++
			continue
		}
		tokens := Tokens(norm)
		d.entries = append(d.entries, model.DictionaryEntry{
			Name:       r.Name,
			Normalized: norm,
			Tokens:     tokens,
			Brands:     ExtractBrands(tokens, brands),
			Attributes: r.Attributes,
		})
		texts = append(texts, norm)
	}
	if len(d.entries) == 0 {
		return nil, ErrEmptyDictionary
	}

	vecs, err := embedding.EmbedAll(ctx, emb, texts)
	if err != nil {
		return nil, fmt.Errorf("embed dictionary: %w", err)
	}
	for i := range d.entries {
		d.entries[i].Embedding = vecs[i]
	}
	if d.index, err = buildIndex(vecs); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return d, nil
}

func (d *Dictionary) Len() int { return len(d.entries) }
func (d *Dictionary) Skipped() int { return d.skipped }
func (d *Dictionary) Brands() *BrandVocabulary { return d.brands }

// Entry returns the i-th entry. Callers must not modify it.
func (d *Dictionary) Entry(i int) *model.DictionaryEntry { return &d.entries[i] }

// Search delegates to the vector index.
func (d *Dictionary) Search(vec []float32, k int) ([]Hit, error) { return d.index.Search(vec, k) }
