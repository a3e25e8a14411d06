package ingest

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Table is a raw header plus string cells, as read from a source file.
type Table struct {
	Header []string
	Rows   [][]string
}

// Frame is a typed columnar table holding exactly the schema columns.
type Frame struct {
	n      int
	ints   map[string][]int64
	floats map[string][]float64
	texts  map[string][]string
}

func newFrame(n int) *Frame {
	f := &Frame{
		n:      n,
		ints:   make(map[string][]int64),
		floats: make(map[string][]float64),
		texts:  make(map[string][]string),
	}
	for _, c := range Schema {
		switch c.Kind {
		case KindInt:
			f.ints[c.Name] = make([]int64, n)
		case KindFloat:
			f.floats[c.Name] = make([]float64, n)
		case KindText:
			f.texts[c.Name] = make([]string, n)
		}
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.n }

// Columns returns the column names in schema order.
func (f *Frame) Columns() []string { return SchemaNames() }

// Int returns an integer cell. Unknown columns yield 0.
func (f *Frame) Int(col string, row int) int64 { return f.ints[col][row] }

// Float returns a float cell.
func (f *Frame) Float(col string, row int) float64 { return f.floats[col][row] }

// Text returns a text cell.
func (f *Frame) Text(col string, row int) string { return f.texts[col][row] }

// value returns a cell as an untyped value for snapshot writes.
func (f *Frame) value(c Column, row int) any {
	switch c.Kind {
	case KindInt:
		return f.ints[c.Name][row]
	case KindFloat:
		return f.floats[c.Name][row]
	}
	return f.texts[c.Name][row]
}

// FrameFromTable normalises the header of t, checks for required columns and
// converts every cell. Columns outside the schema are dropped. When a header
// normalises to a name already seen, the first occurrence wins.
func FrameFromTable(path string, t *Table) (*Frame, error) {
	if t == nil || len(t.Header) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyTable)
	}

	index := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		name := NormalizeColumn(strings.TrimSpace(h))
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}
	for alias, target := range columnAliases {
		if _, ok := index[target]; ok {
			continue
		}
		if i, ok := index[alias]; ok {
			index[target] = i
		}
	}

	var missing []string
	for _, c := range Schema {
		if _, ok := index[c.Name]; !ok {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Path: path, Columns: missing}
	}

	f := newFrame(len(t.Rows))
	for r, row := range t.Rows {
		for _, c := range Schema {
			var cell string
			if i := index[c.Name]; i < len(row) {
				cell = strings.TrimSpace(row[i])
			}
			if err := f.set(c, r, cell); err != nil {
				return nil, fmt.Errorf("%s: %w", path, &ValueError{Row: r + 1, Column: c.Name, Value: cell, Err: err})
			}
		}
	}
	return f, nil
}

var errEmptyCell = errors.New("empty cell")

func (f *Frame) set(c Column, row int, cell string) error {
	switch c.Kind {
	case KindInt:
		v, err := parseInt(cell)
		if err != nil {
			return err
		}
		f.ints[c.Name][row] = v
	case KindFloat:
		if cell == "" {
			return errEmptyCell
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return err
		}
		f.floats[c.Name][row] = v
	case KindText:
		f.texts[c.Name][row] = cell
	}
	return nil
}

// parseInt accepts plain integers and integral floats such as "12.0", which
// spreadsheet readers produce for numeric cells.
func parseInt(cell string) (int64, error) {
	if cell == "" {
		return 0, errEmptyCell
	}
	if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return v, nil
	}
	fv, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, err
	}
	if fv != math.Trunc(fv) || math.IsInf(fv, 0) {
		return 0, fmt.Errorf("%q is not an integer", cell)
	}
	return int64(fv), nil
}
