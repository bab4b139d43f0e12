package fileio

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	excelize "github.com/xuri/excelize/v2"

	"github.com/muaazl/product-matcher/internal/match/model"
)

func TestReadMaps_CSV(t *testing.T) {
	t.Run("semicolon delimiter, blank and repeated header rows", func(t *testing.T) {
		data := "Name;Category\nApple Juice;Drinks\n;\nName;Category\nMilk;Dairy\n"
		recs, err := ReadMaps(strings.NewReader(data), "list.csv", ReadOptions{})
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, "Drinks", recs[0]["Category"])

		names, err := Values(recs, "Name")
		require.NoError(t, err)
		assert.Equal(t, []string{"Apple Juice", "Milk"}, names)
	})

	t.Run("bom is stripped", func(t *testing.T) {
		data := "\xEF\xBB\xBFName,Qty\nTea,1\n"
		recs, err := ReadMaps(strings.NewReader(data), "list.csv", ReadOptions{})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "Tea", recs[0]["Name"])
	})

	t.Run("header on second row", func(t *testing.T) {
		data := "Weekly export\nName,Qty\nTea,1\nRice,2\n"
		recs, err := ReadMaps(strings.NewReader(data), "list.csv", ReadOptions{HeaderRow: 2})
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "Rice", recs[1]["Name"])
	})

	t.Run("tab delimiter and blank header cell", func(t *testing.T) {
		data := "Name\t\nTea\tx\n"
		recs, err := ReadMaps(strings.NewReader(data), "list.csv", ReadOptions{})
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "x", recs[0]["Column 2"])
	})
}

func TestReadMaps_Unsupported(t *testing.T) {
	_, err := ReadMaps(strings.NewReader(""), "list.txt", ReadOptions{})
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, Supported("a.ods"))
	assert.True(t, Supported("A.XLSX"))
	assert.True(t, IsWorkbook("b.xls"))
	assert.False(t, IsWorkbook("b.csv"))
}

func TestSelectSheet(t *testing.T) {
	names := []string{"TaggingSheet", "Dictionary", "Brands"}

	i, err := selectSheet(names, ReadOptions{Sheet: " dictionary "})
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	i, err = selectSheet(names, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	_, err = selectSheet(names, ReadOptions{Sheet: "Missing"})
	assert.ErrorIs(t, err, ErrSheetNotFound)

	i, err = selectSheet(names, ReadOptions{Sheet: "Missing", Fallback: true})
	require.NoError(t, err)
	assert.Equal(t, 0, i)
}

func sampleResults() []model.MatchResult {
	return []model.MatchResult{
		{
			Query:      "Coca Cola 500ml",
			Matched:    "Coca-Cola Classic 1L",
			Score:      91.6,
			Level:      model.LevelHigh,
			Reasoning:  "Final Score: 92%",
			Attributes: map[string]string{"Category": "Drinks"},
		},
		{
			Query:           "Motor Oil",
			Score:           12,
			Level:           model.LevelRejected,
			Reasoning:       "REJECTED: Best score (12%) below threshold (75%).",
			DictionaryIndex: -1,
		},
	}
}

func TestWriteResultsXLSX_ReadBack(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResultsXLSX(&buf, "", sampleResults(), []string{"category"}))

	recs, err := ReadMaps(&buf, "out.xlsx", ReadOptions{Sheet: DefaultResultSheet})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Coca Cola 500ml", recs[0]["SKU_to_Tag"])
	assert.Equal(t, "Coca-Cola Classic 1L", recs[0]["Matched_Dictionary_SKU"])
	assert.Equal(t, "92%", recs[0]["Final_Score"])
	assert.Equal(t, "High Confidence", recs[0]["Match_Level"])
	assert.Equal(t, "Drinks", recs[0]["category"])

	assert.Equal(t, "", recs[1]["Matched_Dictionary_SKU"])
	assert.Equal(t, "Low (Rejected)", recs[1]["Match_Level"])
	assert.Equal(t, "", recs[1]["category"])
}

func TestWriteResultsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResultsCSV(&buf, sampleResults(), nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "SKU_to_Tag,Matched_Dictionary_SKU,Final_Score,Match_Level,Debug_Reasoning", lines[0])
	assert.Equal(t, "Coca Cola 500ml,Coca-Cola Classic 1L,92%,High Confidence,Final Score: 92%", lines[1])
}

func TestAppendResultSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "TaggingSheet"))
	require.NoError(t, f.SetSheetRow("TaggingSheet", "A1", &[]interface{}{"Name"}))
	require.NoError(t, f.SetSheetRow("TaggingSheet", "A2", &[]interface{}{"Coca Cola 500ml"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	// дважды: второй вызов заменяет лист, а не падает
	require.NoError(t, AppendResultSheet(path, "", sampleResults(), nil))
	require.NoError(t, AppendResultSheet(path, "", sampleResults()[:1], nil))

	recs, err := ReadFile(path, ReadOptions{Sheet: DefaultResultSheet})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Coca Cola 500ml", recs[0]["SKU_to_Tag"])

	src, err := ReadFile(path, ReadOptions{Sheet: "TaggingSheet"})
	require.NoError(t, err)
	require.Len(t, src, 1)
	assert.Equal(t, "Coca Cola 500ml", src[0]["Name"])
}

func TestWriteResultsFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "nested", "out.csv")
	require.NoError(t, WriteResultsFile(csvPath, sampleResults(), nil))
	recs, err := ReadFile(csvPath, ReadOptions{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	err = WriteResultsFile(filepath.Join(dir, "out.xls"), sampleResults(), nil)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.NoFileExists(t, filepath.Join(dir, "out.xls"))
}

func TestWriteResultsFile_RemovesPartialOutput(t *testing.T) {
	// шапка шире, чем допускает лист xlsx
	extra := make([]string, excelize.MaxColumns)
	for i := range extra {
		extra[i] = fmt.Sprintf("Attr %d", i)
	}
	path := filepath.Join(t.TempDir(), "wide.xlsx")

	err := WriteResultsFile(path, sampleResults(), extra)
	require.Error(t, err)
	assert.NoFileExists(t, path)
}
