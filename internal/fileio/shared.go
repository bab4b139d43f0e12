package fileio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrUnsupported   = errors.New("unsupported file type")
)

// ReadOptions выбирает лист и строку заголовков.
type ReadOptions struct {
	Sheet     string // имя листа (xlsx/xls); пусто: первый лист
	Fallback  bool   // нет листа Sheet: читать первый вместо ErrSheetNotFound
	HeaderRow int    // строка заголовков, 1-based
}

// Supported reports whether the file extension has a reader.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls", ".csv":
		return true
	}
	return false
}

// IsWorkbook reports whether the file can hold several sheets.
func IsWorkbook(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return true
	}
	return false
}

// ReadMaps выберет парсер по расширению и вернёт строки как срез map[header]value.
func ReadMaps(r io.Reader, filename string, opt ReadOptions) ([]map[string]string, error) {
	if opt.HeaderRow <= 0 {
		opt.HeaderRow = 1
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return readXLSX(r, opt)
	case ".xls":
		return readXLS(r, opt)
	case ".csv":
		return readCSV(r, opt.HeaderRow)
	default:
		return nil, fmt.Errorf("%s: %w", filename, ErrUnsupported)
	}
}

// ReadFile opens path and reads it with ReadMaps.
func ReadFile(path string, opt ReadOptions) ([]map[string]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := ReadMaps(f, path, opt)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

// selectSheet returns the position of the wanted sheet among names.
func selectSheet(names []string, opt ReadOptions) (int, error) {
	if len(names) == 0 {
		return -1, ErrSheetNotFound
	}
	if opt.Sheet == "" {
		return 0, nil
	}
	for i, n := range names {
		if strings.EqualFold(strings.TrimSpace(n), strings.TrimSpace(opt.Sheet)) {
			return i, nil
		}
	}
	if opt.Fallback {
		return 0, nil
	}
	return -1, fmt.Errorf("%q: %w", opt.Sheet, ErrSheetNotFound)
}

// pickHeader: берёт строку заголовков и подставляет Column N для пустых.
func pickHeader(rows [][]string, headerRow int) []string {
	idx := headerRow - 1
	if idx < 0 || idx >= len(rows) {
		idx = 0
	}
	h := rows[idx]
	out := make([]string, len(h))
	for i, v := range h {
		v = strings.TrimSpace(v)
		if v == "" {
			v = fmt.Sprintf("Column %d", i+1)
		}
		out[i] = v
	}
	return out
}

// rowsToMaps: конвертирует AoA в []map по заголовкам, пропуская полностью пустые строки.
func rowsToMaps(rows [][]string, headers []string, headerRow int) []map[string]string {
	var out []map[string]string
	for r := headerRow; r < len(rows); r++ {
		rec := rows[r]
		m := make(map[string]string, len(headers))
		empty := true
		for c, h := range headers {
			var v string
			if c < len(rec) {
				v = rec[c]
			}
			m[h] = v
			if strings.TrimSpace(v) != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, m)
		}
	}
	return out
}
