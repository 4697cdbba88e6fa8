package profile

import (
	"encoding/json"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Stat is a float that encodes NaN and infinities as JSON null.
type Stat float64

// NaN is the undefined statistic.
func NaN() Stat { return Stat(math.NaN()) }

// Valid reports whether the statistic is a finite number.
func (s Stat) Valid() bool {
	f := float64(s)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(s))
}

func (s *Stat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = NaN()
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*s = Stat(f)
	return nil
}

// moments summarizes one numeric column over its non-missing values.
type moments struct {
	n                  int
	mean, std          float64
	min, max           float64
	q1, median, q3     float64
	skewness, kurtosis float64
	sorted             []float64
}

func computeMoments(vals []float64) moments {
	m := moments{n: len(vals)}
	nan := math.NaN()
	if m.n == 0 {
		m.mean, m.std, m.min, m.max = nan, nan, nan, nan
		m.q1, m.median, m.q3 = nan, nan, nan
		m.skewness, m.kurtosis = nan, nan
		return m
	}
	m.sorted = make([]float64, len(vals))
	copy(m.sorted, vals)
	sort.Float64s(m.sorted)

	m.min = m.sorted[0]
	m.max = m.sorted[len(m.sorted)-1]
	m.q1 = quantile(m.sorted, 0.25)
	m.median = quantile(m.sorted, 0.5)
	m.q3 = quantile(m.sorted, 0.75)
	// Sorted input keeps the floating point sums independent of row order.
	m.mean = stat.Mean(m.sorted, nil)

	m.std = nan
	if m.n >= 2 {
		m.std = stat.StdDev(m.sorted, nil)
	}
	m.skewness = nan
	if m.n >= 3 {
		m.skewness = 0
		if m.std > 0 {
			m.skewness = stat.Skew(m.sorted, nil)
		}
	}
	m.kurtosis = nan
	if m.n >= 4 {
		m.kurtosis = 0
		if m.std > 0 {
			m.kurtosis = stat.ExKurtosis(m.sorted, nil)
		}
	}
	return m
}

// fences returns the IQR outlier bounds for sorted values.
func fences(sorted []float64, k float64) (q1, q3, lower, upper float64) {
	q1 = quantile(sorted, 0.25)
	q3 = quantile(sorted, 0.75)
	iqr := q3 - q1
	return q1, q3, q1 - k*iqr, q3 + k*iqr
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
