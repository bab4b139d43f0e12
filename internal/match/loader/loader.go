// Package loader turns spreadsheet sources into dictionary rows, query names and brand vocabularies.
package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/muaazl/product-matcher/internal/fileio"
	"github.com/muaazl/product-matcher/internal/match/service"
)

// SheetSpec: где искать данные: лист, колонка (альтернативы через "|"), строка заголовков.
type SheetSpec struct {
	Sheet     string
	Column    string
	HeaderRow int
}

var (
	DefaultDictionary = SheetSpec{Sheet: "Dictionary", Column: "Product Name|Product|SKU Name|Name", HeaderRow: 1}
	DefaultQueries    = SheetSpec{Sheet: "TaggingSheet", Column: "Name|SKU|Product Name|Product", HeaderRow: 1}
	DefaultBrands     = SheetSpec{Sheet: "Brands", Column: "Brand Name|Brand|Brands", HeaderRow: 1}
)

// Merge fills empty fields of s from def.
func (s SheetSpec) Merge(def SheetSpec) SheetSpec {
	if s.Sheet == "" {
		s.Sheet = def.Sheet
	}
	if s.Column == "" {
		s.Column = def.Column
	}
	if s.HeaderRow <= 0 {
		s.HeaderRow = def.HeaderRow
	}
	return s
}

// Source is a whole file held in memory so that several sheets can be read from it.
type Source struct {
	Name string
	Data []byte
}

func ReadSource(path string) (Source, error) {
	b, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Source{}, err
	}
	return Source{Name: filepath.Base(path), Data: b}, nil
}

func ReadSourceFrom(r io.Reader, name string) (Source, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Source{}, err
	}
	return Source{Name: name, Data: b}, nil
}

func (s Source) records(spec SheetSpec, fallback bool) ([]map[string]string, error) {
	return fileio.ReadMaps(bytes.NewReader(s.Data), s.Name, fileio.ReadOptions{
		Sheet:     spec.Sheet,
		Fallback:  fallback,
		HeaderRow: spec.HeaderRow,
	})
}

// DictionaryRows reads the dictionary sheet (первый лист, если нужного нет).
// Остальные колонки строки сохраняются как атрибуты записи.
func (s Source) DictionaryRows(spec SheetSpec) ([]service.DictionaryRow, error) {
	recs, err := s.records(spec, true)
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", s.Name, err)
	}
	cells, err := fileio.Column(recs, spec.Column)
	if err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", s.Name, err)
	}
	rows := make([]service.DictionaryRow, len(cells))
	for i, c := range cells {
		rows[i] = service.DictionaryRow{Name: c.Value, Attributes: c.Record}
	}
	return rows, nil
}

// Queries returns non-blank names in file order.
func (s Source) Queries(spec SheetSpec) ([]string, error) {
	recs, err := s.records(spec, true)
	if err != nil {
		return nil, fmt.Errorf("queries %s: %w", s.Name, err)
	}
	names, err := fileio.Values(recs, spec.Column)
	if err != nil {
		return nil, fmt.Errorf("queries %s: %w", s.Name, err)
	}
	return names, nil
}

// Brands reads the brand list. fallback=false: лист обязан существовать (режим "лист Brands в книге справочника").
func (s Source) Brands(spec SheetSpec, fallback bool) ([]string, error) {
	if !fallback && !fileio.IsWorkbook(s.Name) {
		return nil, fmt.Errorf("brands %s: %q: %w", s.Name, spec.Sheet, fileio.ErrSheetNotFound)
	}
	recs, err := s.records(spec, fallback)
	if err != nil {
		return nil, fmt.Errorf("brands %s: %w", s.Name, err)
	}
	names, err := fileio.Values(recs, spec.Column)
	if err != nil {
		return nil, fmt.Errorf("brands %s: %w", s.Name, err)
	}
	return names, nil
}

// BrandsOrEmpty reads brands from the dedicated file if given, otherwise from the dictionary
// workbook. Любая ошибка не фатальна: логируем и работаем с пустым словарём брендов.
func BrandsOrEmpty(brands *Source, dictionary Source, spec SheetSpec, logger zerolog.Logger) []string {
	var (
		names []string
		err   error
	)
	if brands != nil {
		names, err = brands.Brands(spec, true)
	} else {
		names, err = dictionary.Brands(spec, false)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("could not load brands, brand logic will be limited")
		return nil
	}
	logger.Info().Int("brands", len(names)).Msg("brands loaded")
	return names
}
