// Package merge joins the cleaned datasets and reports on join coverage.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/happipe-cli/internal/table"
)

// Suffixes appended to non-key columns present on both sides.
const (
	LeftSuffix  = "_x"
	RightSuffix = "_y"
)

// InnerJoin keeps left rows whose key matches at least one right row. Left
// order is preserved and every matching right row is emitted in right order,
// so duplicate keys fan out. Rows with a missing key never match.
func InnerJoin(left, right *table.Table, key string) (*table.Table, error) {
	li, ri := left.Index(key), right.Index(key)
	if li < 0 {
		return nil, fmt.Errorf("join key %q not found in %s", key, left.Name)
	}
	if ri < 0 {
		return nil, fmt.Errorf("join key %q not found in %s", key, right.Name)
	}

	rightCols := make([]int, 0, len(right.Header))
	for j := range right.Header {
		if j != ri {
			rightCols = append(rightCols, j)
		}
	}
	header := joinHeader(left.Header, right.Header, li, rightCols)

	byKey := make(map[string][]int, right.Len())
	for i, r := range right.Rows {
		k := keyOf(r[ri])
		if k == "" {
			continue
		}
		byKey[k] = append(byKey[k], i)
	}

	out := table.New(left.Name+"+"+right.Name, header)
	for _, lr := range left.Rows {
		k := keyOf(lr[li])
		if k == "" {
			continue
		}
		for _, i := range byKey[k] {
			row := make([]string, 0, len(header))
			row = append(row, lr...)
			for _, j := range rightCols {
				row = append(row, right.Rows[i][j])
			}
			out.Append(row)
		}
	}
	return out, nil
}

func joinHeader(left, right []string, leftKey int, rightCols []int) []string {
	inLeft := make(map[string]bool, len(left))
	for i, h := range left {
		if i != leftKey {
			inLeft[h] = true
		}
	}
	inRight := make(map[string]bool, len(rightCols))
	for _, j := range rightCols {
		inRight[right[j]] = true
	}
	header := make([]string, 0, len(left)+len(rightCols))
	for i, h := range left {
		if i != leftKey && inRight[h] {
			h += LeftSuffix
		}
		header = append(header, h)
	}
	for _, j := range rightCols {
		h := right[j]
		if inLeft[h] {
			h += RightSuffix
		}
		header = append(header, h)
	}
	return header
}

func keyOf(cell string) string {
	if table.IsMissing(cell) {
		return ""
	}
	return strings.TrimSpace(cell)
}

// Keys returns the distinct non-missing values of col.
func Keys(t *table.Table, col string) (map[string]int, error) {
	cells, err := t.Column(col)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(cells))
	for _, c := range cells {
		if k := keyOf(c); k != "" {
			counts[k]++
		}
	}
	return counts, nil
}

// Difference returns the sorted keys of a that are absent from b.
func Difference(a, b map[string]int) []string {
	out := []string{}
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Duplicates returns the sorted keys occurring more than once.
func Duplicates(counts map[string]int) []string {
	out := []string{}
	for k, n := range counts {
		if n > 1 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
