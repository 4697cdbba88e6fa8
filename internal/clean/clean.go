// Package clean renames, standardizes and filters the two raw datasets.
package clean

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KaramelBytes/happipe-cli/internal/countries"
	"github.com/KaramelBytes/happipe-cli/internal/table"
)

// Canonical column names shared with later stages.
const (
	ColCountry   = "country"
	ColScore     = "happiness_score"
	ColYear      = "year"
	ColContinent = "continent"
)

// HappinessColumns maps happiness survey headers to canonical names.
var HappinessColumns = map[string]string{
	"Overall rank":                 "happiness_rank",
	"Country or region":            ColCountry,
	"Score":                        ColScore,
	"GDP per capita":               "happiness_gdp_contribution",
	"Social support":               "social_support",
	"Healthy life expectancy":      "happiness_life_exp_contribution",
	"Freedom to make life choices": "freedom",
	"Generosity":                   "generosity",
	"Perceptions of corruption":    "corruption_perception",
}

// IndicatorColumns maps development indicator headers to canonical names.
var IndicatorColumns = map[string]string{
	"country":     ColCountry,
	"continent":   ColContinent,
	"year":        ColYear,
	"life_exp":    "life_expectancy",
	"hdi_index":   "hdi",
	"co2_consump": "co2_per_capita",
	"gdp":         "gdp_per_capita",
	"services":    "service_workers_pct",
}

// ErrMissingColumn is returned when a column a stage cannot work without is absent.
var ErrMissingColumn = errors.New("required column missing")

// Options configures a cleaning pass.
type Options struct {
	TargetYear int
	Countries  *countries.Table
	Format     table.NumberFormat
}

// Result is a cleaned table plus what happened to it.
type Result struct {
	Table         *table.Table
	RowsIn        int
	RowsOut       int
	Renamed       []string
	MissingBefore []int
	MissingAfter  []int
	// Absent lists expected canonical columns that were not produced by the rename.
	Absent []string
}

// CleanHappiness renames survey columns, standardizes country names and drops
// rows without a happiness score.
func CleanHappiness(raw *table.Table, opt Options) (*Result, error) {
	t := raw.Clone()
	res := &Result{RowsIn: t.Len()}
	res.Renamed = t.Rename(HappinessColumns)
	res.Absent = absent(t, HappinessColumns)
	if err := requireColumns(t, ColCountry, ColScore); err != nil {
		return nil, err
	}
	if err := standardize(t, opt.Countries); err != nil {
		return nil, err
	}
	normalizeMissing(t)
	res.MissingBefore = t.MissingCounts()

	score := t.Index(ColScore)
	t = t.Filter(func(r []string) bool { return !table.IsMissing(r[score]) })

	res.MissingAfter = t.MissingCounts()
	res.Table = t
	res.RowsOut = t.Len()
	return res, nil
}

// CleanIndicators keeps rows for the target year, renames columns and
// standardizes country names.
func CleanIndicators(raw *table.Table, opt Options) (*Result, error) {
	t := raw.Clone()
	res := &Result{RowsIn: t.Len()}
	res.Renamed = t.Rename(IndicatorColumns)
	res.Absent = absent(t, IndicatorColumns)
	if err := requireColumns(t, ColCountry, ColYear); err != nil {
		return nil, err
	}

	year := t.Index(ColYear)
	target := float64(opt.TargetYear)
	t = t.Filter(func(r []string) bool {
		y, ok := opt.Format.Parse(r[year])
		return ok && y == target
	})

	if err := standardize(t, opt.Countries); err != nil {
		return nil, err
	}
	normalizeMissing(t)
	res.MissingBefore = t.MissingCounts()
	res.MissingAfter = res.MissingBefore
	res.Table = t
	res.RowsOut = t.Len()
	return res, nil
}

func requireColumns(t *table.Table, cols ...string) error {
	for _, c := range cols {
		if !t.Has(c) {
			return fmt.Errorf("%s: %w: %q (have %v)", t.Name, ErrMissingColumn, c, t.Header)
		}
	}
	return nil
}

func absent(t *table.Table, mapping map[string]string) []string {
	var out []string
	for _, c := range sortedValues(mapping) {
		if !t.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func sortedValues(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func standardize(t *table.Table, ct *countries.Table) error {
	if ct == nil {
		var err error
		if ct, err = countries.Default(); err != nil {
			return err
		}
	}
	return t.Apply(ColCountry, ct.Standardize)
}

// normalizeMissing writes every missing marker as an empty cell.
func normalizeMissing(t *table.Table) {
	t.ApplyAll(func(s string) string {
		if table.IsMissing(s) {
			return ""
		}
		return s
	})
}
