package profile

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/happipe-cli/internal/table"
)

// CorrMatrix holds a symmetric Pearson correlation matrix.
type CorrMatrix struct {
	Columns []string `json:"columns"`
	Values  [][]Stat `json:"values"` // row-major, Values[i][j]
}

// PairCorr is a single off-diagonal entry.
type PairCorr struct {
	A, B string
	R    float64
}

// At returns the coefficient for columns a and b, or NaN if either is absent.
func (m *CorrMatrix) At(a, b string) float64 {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return math.NaN()
	}
	return float64(m.Values[i][j])
}

// TopPairs returns up to n off-diagonal pairs ordered by |r|; undefined pairs are skipped.
func (m *CorrMatrix) TopPairs(n int) []PairCorr {
	var pairs []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			if r := m.Values[i][j]; r.Valid() {
				pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: float64(r)})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// Pearson computes the correlation matrix of the named columns of t. Each pair
// uses only the rows where both values are present; pairs with fewer than two
// such rows or with zero variance are NaN.
func Pearson(t *table.Table, columns []string, f table.NumberFormat) (*CorrMatrix, error) {
	cols := make([]*column, 0, len(columns))
	all := parseColumns(t, f)
	for _, name := range columns {
		idx := t.Index(name)
		if idx < 0 {
			return nil, fmt.Errorf("column %q not found in %s", name, t.Name)
		}
		c := all[idx]
		if !c.numeric() {
			return nil, fmt.Errorf("column %q in %s is not numeric", name, t.Name)
		}
		cols = append(cols, c)
	}
	return correlate(cols), nil
}

// correlate builds the matrix over the numeric members of cols.
func correlate(cols []*column) *CorrMatrix {
	var num []*column
	for _, c := range cols {
		if c.numeric() {
			num = append(num, c)
		}
	}
	m := &CorrMatrix{Columns: make([]string, len(num)), Values: make([][]Stat, len(num))}
	for i, c := range num {
		m.Columns[i] = c.name
		m.Values[i] = make([]Stat, len(num))
	}
	for i := range num {
		for j := i; j < len(num); j++ {
			r := pairwise(num[i].nums, num[j].nums)
			m.Values[i][j] = Stat(r)
			m.Values[j][i] = Stat(r)
		}
	}
	return m
}

func pairwise(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 || stat.StdDev(xs, nil) == 0 || stat.StdDev(ys, nil) == 0 {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	return math.Max(-1, math.Min(1, r))
}
