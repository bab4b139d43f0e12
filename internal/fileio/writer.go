package fileio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	excelize "github.com/xuri/excelize/v2"

	"github.com/muaazl/product-matcher/internal/match/model"
	"github.com/muaazl/product-matcher/internal/utils"
)

// DefaultResultSheet: лист с результатами в режиме записи в исходную книгу.
const DefaultResultSheet = "TaggingSheet Result"

var resultColumns = []string{"SKU_to_Tag", "Matched_Dictionary_SKU", "Final_Score", "Match_Level", "Debug_Reasoning"}

// ResultHeader returns the output columns followed by passthrough dictionary columns.
func ResultHeader(extra []string) []string {
	h := make([]string, 0, len(resultColumns)+len(extra))
	h = append(h, resultColumns...)
	return append(h, extra...)
}

func resultRow(r model.MatchResult, extra []string) []string {
	row := []string{r.Query, r.Matched, utils.FormatPercent(r.Score), string(r.Level), r.Reasoning}
	for _, col := range extra {
		v := ""
		if r.Accepted() && r.Attributes != nil {
			if k := ResolveKey(r.Attributes, col); k != "" {
				v = r.Attributes[k]
			}
		}
		row = append(row, v)
	}
	return row
}

// WriteResultsCSV writes UTF-8 CSV with a header row.
func WriteResultsCSV(w io.Writer, results []model.MatchResult, extra []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultHeader(extra)); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(resultRow(r, extra)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteResultsXLSX writes a new workbook with a single result sheet.
func WriteResultsXLSX(w io.Writer, sheet string, results []model.MatchResult, extra []string) error {
	if sheet == "" {
		sheet = DefaultResultSheet
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	if err := fillSheet(f, sheet, results, extra); err != nil {
		return err
	}
	_, err := f.WriteTo(w)
	return err
}

// AppendResultSheet (re)creates the result sheet inside an existing xlsx workbook.
// Существующий лист с тем же именем заменяется, остальные листы не трогаются.
func AppendResultSheet(path, sheet string, results []model.MatchResult, extra []string) error {
	if sheet == "" {
		sheet = DefaultResultSheet
	}
	f, err := excelize.OpenFile(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(sheet); idx >= 0 {
		if err := f.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("drop old %q: %w", sheet, err)
		}
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := fillSheet(f, sheet, results, extra); err != nil {
		return err
	}
	return f.Save()
}

// WriteResultsFile writes .xlsx or .csv depending on the extension of path.
func WriteResultsFile(path string, results []model.MatchResult, extra []string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".csv" {
		return fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	if ext == ".xlsx" {
		err = WriteResultsXLSX(out, DefaultResultSheet, results, extra)
	} else {
		err = WriteResultsCSV(out, results, extra)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// недописанный файл не оставляем
		_ = os.Remove(path)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func fillSheet(f *excelize.File, sheet string, results []model.MatchResult, extra []string) error {
	if err := setRow(f, sheet, 1, ResultHeader(extra)); err != nil {
		return err
	}
	for i, r := range results {
		if err := setRow(f, sheet, i+2, resultRow(r, extra)); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return f.SetSheetRow(sheet, cell, &vals)
}
