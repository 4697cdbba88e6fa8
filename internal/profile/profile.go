// Package profile computes descriptive statistics and data-quality checks for
// cleaned tables.
package profile

import (
	"math"
	"sort"

	"github.com/KaramelBytes/happipe-cli/internal/table"
)

// Declared column types, named after the dtypes a dataframe reader would infer.
const (
	TypeInt    = "int64"
	TypeFloat  = "float64"
	TypeObject = "object"
)

// Options controls profiling behavior.
type Options struct {
	// TopValues is the number of most frequent values kept per categorical column.
	TopValues int
	// IQRMultiplier is k in the Q1-k*IQR / Q3+k*IQR outlier fences.
	IQRMultiplier float64
	// Correlations adds a Pearson matrix across numeric columns.
	Correlations bool
	// Format controls how numeric cells are parsed.
	Format table.NumberFormat
}

// DefaultOptions returns the settings used by the pipeline.
func DefaultOptions() Options {
	return Options{TopValues: 5, IQRMultiplier: 1.5, Format: table.DefaultNumberFormat}
}

// Dataset is the profile of one table.
type Dataset struct {
	Name                string         `json:"name"`
	Source              string         `json:"source,omitempty"`
	Rows                int            `json:"rows"`
	Columns             int            `json:"columns"`
	DescriptiveStats    []Describe     `json:"descriptive_stats"`
	MissingValues       []Missing      `json:"missing_values"`
	DataTypes           []ColumnType   `json:"data_types"`
	Distributions       []Distribution `json:"distributions"`
	QualityChecks       Quality        `json:"quality_checks"`
	CategoricalAnalysis []Categorical  `json:"categorical_analysis"`
	Correlations        *CorrMatrix    `json:"correlations,omitempty"`
}

// Describe holds count, mean, std, min, quartiles and max of a numeric column.
type Describe struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Mean   Stat   `json:"mean"`
	Std    Stat   `json:"std"`
	Min    Stat   `json:"min"`
	Q1     Stat   `json:"25%"`
	Median Stat   `json:"50%"`
	Q3     Stat   `json:"75%"`
	Max    Stat   `json:"max"`
}

// Missing is the missing-cell count of a column that has at least one gap.
type Missing struct {
	Column     string  `json:"column"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ColumnType is the per-column type and uniqueness summary.
type ColumnType struct {
	Column   string `json:"column"`
	DataType string `json:"data_type"`
	NonNull  int    `json:"non_null_count"`
	Unique   int    `json:"unique_values"`
}

// Distribution holds the moments of a numeric column over non-missing values.
type Distribution struct {
	Column   string `json:"column"`
	Count    int    `json:"count"`
	Mean     Stat   `json:"mean"`
	Median   Stat   `json:"median"`
	Std      Stat   `json:"std"`
	Min      Stat   `json:"min"`
	Max      Stat   `json:"max"`
	Skewness Stat   `json:"skewness"`
	Kurtosis Stat   `json:"kurtosis"`
}

// Quality collects duplicate, negative and outlier checks.
type Quality struct {
	DuplicateRows  int            `json:"duplicate_rows"`
	NegativeValues map[string]int `json:"negative_values"`
	Outliers       []Outlier      `json:"potential_outliers"`
}

// Outlier is the IQR rule result for one numeric column.
type Outlier struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Q1     Stat   `json:"q1"`
	Q3     Stat   `json:"q3"`
	IQR    Stat   `json:"iqr"`
	Lower  Stat   `json:"lower_fence"`
	Upper  Stat   `json:"upper_fence"`
}

// Categorical holds the value frequencies of an object column.
type Categorical struct {
	Column    string          `json:"column"`
	Unique    int             `json:"unique_values"`
	TopValues []CategoryCount `json:"top_values"`
}

// CategoryCount is a value and how many rows carry it.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// column is the parsed view of one table column.
type column struct {
	name     string
	dtype    string
	cells    []string
	nums     []float64 // one per row, NaN when missing
	values   []float64 // non-missing numbers only
	nonNull  int
	distinct int
}

func (c *column) numeric() bool { return c.dtype != TypeObject }

// DeclaredType infers the column type the way a dataframe reader would:
// integers without gaps are int64, any other all-numeric column is float64
// (an all-missing column included), everything else is object.
func DeclaredType(cells []string, f table.NumberFormat) string {
	allInt := true
	missing := false
	for _, v := range cells {
		if table.IsMissing(v) {
			missing = true
			continue
		}
		if _, ok := f.Parse(v); !ok {
			return TypeObject
		}
		if !table.IsInteger(v) {
			allInt = false
		}
	}
	if allInt && !missing && len(cells) > 0 {
		return TypeInt
	}
	return TypeFloat
}

func parseColumns(t *table.Table, f table.NumberFormat) []*column {
	cols := make([]*column, len(t.Header))
	for j, name := range t.Header {
		c := &column{name: name, cells: make([]string, len(t.Rows))}
		seen := map[string]struct{}{}
		for i, r := range t.Rows {
			c.cells[i] = r[j]
		}
		c.dtype = DeclaredType(c.cells, f)
		if c.numeric() {
			c.nums = make([]float64, len(c.cells))
		}
		for i, v := range c.cells {
			if table.IsMissing(v) {
				if c.numeric() {
					c.nums[i] = math.NaN()
				}
				continue
			}
			c.nonNull++
			key := v
			if c.numeric() {
				x, _ := f.Parse(v)
				c.nums[i] = x
				c.values = append(c.values, x)
				key = table.FormatFloat(x)
			}
			seen[key] = struct{}{}
		}
		c.distinct = len(seen)
		cols[j] = c
	}
	return cols
}

// Analyze profiles a single table.
func Analyze(t *table.Table, opt Options) *Dataset {
	if opt.TopValues <= 0 {
		opt.TopValues = 5
	}
	if opt.IQRMultiplier <= 0 {
		opt.IQRMultiplier = 1.5
	}
	cols := parseColumns(t, opt.Format)
	d := &Dataset{
		Name:                t.Name,
		Rows:                t.Len(),
		Columns:             len(t.Header),
		DescriptiveStats:    []Describe{},
		MissingValues:       []Missing{},
		DataTypes:           make([]ColumnType, 0, len(cols)),
		Distributions:       []Distribution{},
		CategoricalAnalysis: []Categorical{},
	}
	d.QualityChecks = Quality{
		DuplicateRows:  DuplicateRows(t),
		NegativeValues: map[string]int{},
		Outliers:       []Outlier{},
	}

	for _, c := range cols {
		d.DataTypes = append(d.DataTypes, ColumnType{Column: c.name, DataType: c.dtype, NonNull: c.nonNull, Unique: c.distinct})
		if miss := len(c.cells) - c.nonNull; miss > 0 {
			d.MissingValues = append(d.MissingValues, Missing{
				Column:     c.name,
				Count:      miss,
				Percentage: round2(float64(miss) * 100 / float64(len(c.cells))),
			})
		}
		if !c.numeric() {
			d.CategoricalAnalysis = append(d.CategoricalAnalysis, categorical(c, opt.TopValues))
			continue
		}

		m := computeMoments(c.values)
		d.DescriptiveStats = append(d.DescriptiveStats, Describe{
			Column: c.name, Count: m.n,
			Mean: Stat(m.mean), Std: Stat(m.std), Min: Stat(m.min),
			Q1: Stat(m.q1), Median: Stat(m.median), Q3: Stat(m.q3), Max: Stat(m.max),
		})
		if m.n == 0 {
			continue
		}
		d.Distributions = append(d.Distributions, Distribution{
			Column: c.name, Count: m.n,
			Mean: Stat(m.mean), Median: Stat(m.median), Std: Stat(m.std),
			Min: Stat(m.min), Max: Stat(m.max),
			Skewness: Stat(m.skewness), Kurtosis: Stat(m.kurtosis),
		})
		if neg := countNegative(c.values); neg > 0 {
			d.QualityChecks.NegativeValues[c.name] = neg
		}
		if o := outliers(c.name, m.sorted, opt.IQRMultiplier); o.Count > 0 {
			d.QualityChecks.Outliers = append(d.QualityChecks.Outliers, o)
		}
	}

	sort.SliceStable(d.MissingValues, func(i, j int) bool {
		if d.MissingValues[i].Count == d.MissingValues[j].Count {
			return d.MissingValues[i].Column < d.MissingValues[j].Column
		}
		return d.MissingValues[i].Count > d.MissingValues[j].Count
	})
	if opt.Correlations {
		d.Correlations = correlate(cols)
	}
	return d
}

// DuplicateRows counts rows equal to an earlier row.
func DuplicateRows(t *table.Table) int {
	seen := make(map[string]struct{}, t.Len())
	dups := 0
	for _, r := range t.Rows {
		k := table.RowKey(r)
		if _, ok := seen[k]; ok {
			dups++
			continue
		}
		seen[k] = struct{}{}
	}
	return dups
}

func countNegative(vals []float64) int {
	n := 0
	for _, v := range vals {
		if v < 0 {
			n++
		}
	}
	return n
}

// OutlierCount applies the IQR rule with multiplier k to vals.
func OutlierCount(vals []float64, k float64) int {
	if len(vals) == 0 {
		return 0
	}
	s := make([]float64, len(vals))
	copy(s, vals)
	sort.Float64s(s)
	return outliers("", s, k).Count
}

func outliers(name string, sorted []float64, k float64) Outlier {
	q1, q3, lo, hi := fences(sorted, k)
	o := Outlier{Column: name, Q1: Stat(q1), Q3: Stat(q3), IQR: Stat(q3 - q1), Lower: Stat(lo), Upper: Stat(hi)}
	for _, v := range sorted {
		if v < lo || v > hi {
			o.Count++
		}
	}
	return o
}

func categorical(c *column, top int) Categorical {
	counts := map[string]int{}
	for _, v := range c.cells {
		if table.IsMissing(v) {
			continue
		}
		counts[v]++
	}
	tops := make([]CategoryCount, 0, len(counts))
	for k, v := range counts {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > top {
		tops = tops[:top]
	}
	return Categorical{Column: c.name, Unique: len(counts), TopValues: tops}
}
