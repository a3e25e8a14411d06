package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// readFunc decodes a whole source file into a Table.
type readFunc func(data []byte) (*Table, error)

var readers = map[string]readFunc{
	".csv":  readCSV,
	".xlsx": readXLSX,
	".xls":  readXLS,
}

// Supported reports whether path has an extension with a reader.
func Supported(path string) bool {
	_, ok := readers[strings.ToLower(filepath.Ext(path))]
	return ok
}

func readerFor(path string) (readFunc, error) {
	ext := strings.ToLower(filepath.Ext(path))
	rf, ok := readers[ext]
	if !ok {
		return nil, fmt.Errorf("%s: %w: %q", path, ErrUnsupportedFormat, ext)
	}
	return rf, nil
}

func readCSV(data []byte) (*Table, error) {
	// A UTF-8 BOM would otherwise stick to the first header name.
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return tableFromRecords(records), nil
}

func readXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyTable
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return tableFromRecords(rows), nil
}

func readXLS(data []byte) (*Table, error) {
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyTable
	}
	var records [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheetRow(sheet, i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := range cells {
			cells[j] = row.Col(j)
		}
		records = append(records, cells)
	}
	return tableFromRecords(records), nil
}

// sheetRow returns row i, or nil when the sheet stores nothing for it.
// WorkSheet.Row dereferences the missing entry instead of returning nil.
func sheetRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}

// tableFromRecords takes the first non-blank record as the header and drops
// blank records, matching how dataframe readers skip empty lines.
func tableFromRecords(records [][]string) *Table {
	t := &Table{}
	for _, rec := range records {
		if blank(rec) {
			continue
		}
		if t.Header == nil {
			t.Header = rec
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
