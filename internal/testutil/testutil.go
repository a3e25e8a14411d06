// Package testutil provides shared test helpers and inspection-export
// fixtures.
package testutil

import (
	"bytes"
	"encoding/csv"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// ExportHeader is the column header written by the inspection machine, before
// normalisation.
var ExportHeader = []string{
	"PadID", "ComponentID", "SizeMin", "SizeMax", "Volume", "RealVol",
	"Area", "RealArea", "PosX", "PosY", "IDNO", "ProductGroup", "LineID", "PanelID",
}

// Row is one fixture record.
type Row struct {
	PadID       int64
	ComponentID string
	SizeMin     float64
	SizeMax     float64
	PosX        float64
	PosY        float64
	LineID      string
	PanelID     string
}

// Fixture describes a whole export.
type Fixture struct {
	Idno        int64
	ProductName string
	Header      []string // nil means ExportHeader
	Rows        []Row
}

// Records returns the header and every row as strings.
func (f Fixture) Records() [][]string {
	header := f.Header
	if header == nil {
		header = ExportHeader
	}
	out := [][]string{header}
	for _, r := range f.Rows {
		out = append(out, []string{
			strconv.FormatInt(r.PadID, 10),
			r.ComponentID,
			strconv.FormatFloat(r.SizeMin, 'f', -1, 64),
			strconv.FormatFloat(r.SizeMax, 'f', -1, 64),
			"1.25", "12", "0.5", "3",
			strconv.FormatFloat(r.PosX, 'f', -1, 64),
			strconv.FormatFloat(r.PosY, 'f', -1, 64),
			strconv.FormatInt(f.Idno, 10),
			f.ProductName,
			r.LineID,
			r.PanelID,
		})
	}
	return out
}

// CSV encodes the fixture as a csv export.
func (f Fixture) CSV() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll(f.Records())
	return buf.Bytes()
}

// WriteCSV writes the fixture to dir/name and returns the path.
func WriteCSV(t *testing.T, dir, name string, f Fixture) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, f.CSV(), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// SampleFixture is a small two-line, two-panel board.
func SampleFixture() Fixture {
	return Fixture{
		Idno:        4711,
		ProductName: "MB-01",
		Rows: []Row{
			{1, "R1", 0.5, 1.0, 0, 0, "L1", "P1"},
			{2, "R2", 0.5, 1.0, 10, 20, "L1", "P1"},
			{3, "R10", 1.0, 2.0, 20, 40, "L1", "P2"},
			{4, "C1", 0.5, 1.0, 30, 60, "L2", "P1"},
			{5, "U3", 2.0, 2.0, 100, 100, "L2", "P2"},
		},
	}
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// Do serves one request against h and returns the recorder.
func Do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		if strings.HasPrefix(strings.TrimSpace(body), "{") {
			req.Header.Set("Content-Type", "application/json")
		} else {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
