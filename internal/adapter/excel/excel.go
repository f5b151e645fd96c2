// Package excel wraps excelize with header-addressed row access and the
// permissive cell coercion budget spreadsheets need.
package excel

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook is an opened spreadsheet.
type Workbook struct {
	f *excelize.File
}

// Open reads a workbook from memory.
func Open(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &Workbook{f: f}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// SheetNames returns the workbook's sheet names in order.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// Sheet returns the first sheet whose name matches one of the
// candidates, in candidate order.
func (w *Workbook) Sheet(candidates ...string) (*Sheet, bool) {
	names := w.f.GetSheetList()
	for _, want := range candidates {
		for _, name := range names {
			if name != want {
				continue
			}
			s, err := w.loadSheet(name)
			if err != nil {
				return nil, false
			}
			return s, true
		}
	}
	return nil, false
}

func (w *Workbook) loadSheet(name string) (*Sheet, error) {
	rows, err := w.f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	s := &Sheet{name: name, header: map[string]int{}}
	if len(rows) == 0 {
		return s, nil
	}
	for i, h := range rows[0] {
		key := strings.TrimSpace(h)
		if _, dup := s.header[key]; key != "" && !dup {
			s.header[key] = i
		}
	}
	s.rows = rows[1:]
	return s, nil
}

// Sheet is one worksheet with its header row indexed by column name.
// Header names are trimmed before indexing.
type Sheet struct {
	name   string
	header map[string]int
	rows   [][]string
}

// Name returns the worksheet name.
func (s *Sheet) Name() string { return s.name }

// HasColumn reports whether the header row contains the named column.
func (s *Sheet) HasColumn(name string) bool {
	_, ok := s.header[name]
	return ok
}

// Rows returns the data rows (everything after the header).
func (s *Sheet) Rows() []Row {
	out := make([]Row, len(s.rows))
	for i, cells := range s.rows {
		out[i] = Row{sheet: s, cells: cells}
	}
	return out
}

// Row is one data row addressed by header name.
type Row struct {
	sheet *Sheet
	cells []string
}

// String returns the trimmed cell under the named column, empty when
// the column is missing or the row is short.
func (r Row) String(col string) string {
	idx, ok := r.sheet.header[col]
	if !ok || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

// First returns the first non-empty value among the named columns.
func (r Row) First(cols ...string) string {
	for _, col := range cols {
		if v := r.String(col); v != "" {
			return v
		}
	}
	return ""
}

// Float parses the cell as a number, tolerating currency formatting.
// Unparseable or missing cells yield 0.
func (r Row) Float(col string) float64 {
	f, _ := parseNumber(r.String(col))
	return f
}

// FloatPtr is Float but distinguishes absent/unparseable cells as nil.
func (r Row) FloatPtr(col string) *float64 {
	f, ok := parseNumber(r.String(col))
	if !ok {
		return nil
	}
	return &f
}

// Int parses the cell as an integer, truncating fractional values.
func (r Row) Int(col string) int {
	f, _ := parseNumber(r.String(col))
	return int(f)
}

// IntPtr is Int but distinguishes absent/unparseable cells as nil.
func (r Row) IntPtr(col string) *int {
	f, ok := parseNumber(r.String(col))
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

// parseNumber strips currency symbols, thousands separators, percent
// signs and surrounding parentheses (accounting negatives) before
// parsing.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}
