// Package table holds the in-memory string grid shared by every pipeline stage.
//
// Cells keep their source text; numeric interpretation happens at the point of
// use so that a table written to disk and read back is byte-for-byte the same.
package table

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmpty is returned when a file has no header row.
var ErrEmpty = errors.New("no columns to parse")

// Table is a named header plus rows of raw cell text.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// New returns an empty table with a copy of header.
func New(name string, header []string) *Table {
	h := make([]string, len(header))
	copy(h, header)
	return &Table{Name: name, Header: h}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns the position of col in the header, or -1.
func (t *Table) Index(col string) int {
	for i, h := range t.Header {
		if h == col {
			return i
		}
	}
	return -1
}

// Has reports whether col is present.
func (t *Table) Has(col string) bool { return t.Index(col) >= 0 }

// Column returns the cells of col in row order.
func (t *Table) Column(col string) ([]string, error) {
	idx := t.Index(col)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found in %s", col, t.Name)
	}
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[idx]
	}
	return out, nil
}

// Append adds a row, padding or truncating it to the header width.
func (t *Table) Append(row []string) {
	r := make([]string, len(t.Header))
	copy(r, row)
	t.Rows = append(t.Rows, r)
}

// Rename applies mapping (old name -> new name) to the header. Columns absent
// from mapping keep their name. It returns the "old -> new" pairs that changed.
func (t *Table) Rename(mapping map[string]string) []string {
	var changed []string
	for i, h := range t.Header {
		nn, ok := mapping[h]
		if !ok || nn == h {
			continue
		}
		t.Header[i] = nn
		changed = append(changed, h+" -> "+nn)
	}
	return changed
}

// Filter returns a new table holding copies of the rows for which keep is true.
func (t *Table) Filter(keep func(row []string) bool) *Table {
	out := New(t.Name, t.Header)
	for _, r := range t.Rows {
		if keep(r) {
			out.Append(r)
		}
	}
	return out
}

// Apply rewrites every cell of col with fn.
func (t *Table) Apply(col string, fn func(string) string) error {
	idx := t.Index(col)
	if idx < 0 {
		return fmt.Errorf("column %q not found in %s", col, t.Name)
	}
	for _, r := range t.Rows {
		r[idx] = fn(r[idx])
	}
	return nil
}

// ApplyAll rewrites every cell of the table with fn.
func (t *Table) ApplyAll(fn func(string) string) {
	for _, r := range t.Rows {
		for j := range r {
			r[j] = fn(r[j])
		}
	}
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := New(t.Name, t.Header)
	out.Rows = make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out.Append(r)
	}
	return out
}

// MissingCounts returns the number of missing cells per column, in header order.
func (t *Table) MissingCounts() []int {
	counts := make([]int, len(t.Header))
	for _, r := range t.Rows {
		for j, v := range r {
			if IsMissing(v) {
				counts[j]++
			}
		}
	}
	return counts
}

// RowKey joins a row into a single comparable key; missing markers collapse to "".
func RowKey(row []string) string {
	parts := make([]string, len(row))
	for i, v := range row {
		if !IsMissing(v) {
			parts[i] = strings.TrimSpace(v)
		}
	}
	return strings.Join(parts, "\x1f")
}
