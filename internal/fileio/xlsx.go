package fileio

import (
	"bytes"
	"io"

	excelize "github.com/xuri/excelize/v2"
)

func readXLSX(r io.Reader, opt ReadOptions) ([]map[string]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	i, err := selectSheet(sheets, opt)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheets[i])
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	h := pickHeader(rows, opt.HeaderRow)
	return rowsToMaps(rows, h, opt.HeaderRow), nil
}
