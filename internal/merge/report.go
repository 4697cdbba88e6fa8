package merge

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/happipe-cli/internal/profile"
	"github.com/KaramelBytes/happipe-cli/internal/table"
	"github.com/KaramelBytes/happipe-cli/internal/utils"
)

// Report is the merge-quality document.
type Report struct {
	RunID      string     `json:"run_id"`
	Timestamp  time.Time  `json:"timestamp"`
	Statistics Statistics `json:"merge_statistics"`
	Summary    Summary    `json:"summary"`
}

// Statistics describes join coverage. Unmatched lists are null when longer
// than the configured limit; the counts are always present.
type Statistics struct {
	HappinessRows       int            `json:"happiness_rows"`
	IndicatorRows       int            `json:"indicator_rows"`
	MergedCountryCount  int            `json:"merged_country_count"`
	HappinessOnlyCount  int            `json:"happiness_only_count"`
	HappinessOnly       []string       `json:"happiness_only"`
	IndicatorsOnlyCount int            `json:"indicators_only_count"`
	IndicatorsOnly      []string       `json:"indicators_only"`
	MatchRate           float64        `json:"match_rate"`
	MatchRatePct        float64        `json:"match_rate_pct"`
	MissingValues       map[string]int `json:"missing_values"`
	DuplicateKeys       DuplicateKeys  `json:"duplicate_keys"`
}

// DuplicateKeys lists join keys that occur more than once on a side.
type DuplicateKeys struct {
	Happiness  []string `json:"happiness"`
	Indicators []string `json:"indicators"`
}

// Any reports whether either side has a duplicated key.
func (d DuplicateKeys) Any() bool { return len(d.Happiness) > 0 || len(d.Indicators) > 0 }

// Summary describes the merged table.
type Summary struct {
	Countries  int              `json:"countries"`
	Variables  int              `json:"variables"`
	Continents []ContinentCount `json:"continents"`
	Means      []Mean           `json:"means"`
}

// ContinentCount is the number of merged rows in a continent.
type ContinentCount struct {
	Continent string `json:"continent"`
	Count     int    `json:"count"`
}

// Mean is the average of a merged column over non-missing values.
type Mean struct {
	Column string       `json:"column"`
	Value  profile.Stat `json:"value"`
}

// SummaryColumns are averaged in the summary when present.
var SummaryColumns = []string{"happiness_score", "gdp_per_capita", "life_expectancy", "hdi"}

// MatchRate is merged rows over happiness rows, 0 when there are none.
func MatchRate(merged, happiness int) float64 {
	if happiness == 0 {
		return 0
	}
	return float64(merged) / float64(happiness)
}

// Quality computes coverage diagnostics for a join of happiness and indicators.
func Quality(happiness, indicators, merged *table.Table, key string, listLimit int) (Statistics, error) {
	hk, err := Keys(happiness, key)
	if err != nil {
		return Statistics{}, err
	}
	gk, err := Keys(indicators, key)
	if err != nil {
		return Statistics{}, err
	}
	hOnly := Difference(hk, gk)
	gOnly := Difference(gk, hk)
	s := Statistics{
		HappinessRows:       happiness.Len(),
		IndicatorRows:       indicators.Len(),
		MergedCountryCount:  merged.Len(),
		HappinessOnlyCount:  len(hOnly),
		IndicatorsOnlyCount: len(gOnly),
		MatchRate:           MatchRate(merged.Len(), happiness.Len()),
		MissingValues:       map[string]int{},
		DuplicateKeys:       DuplicateKeys{Happiness: Duplicates(hk), Indicators: Duplicates(gk)},
	}
	s.MatchRatePct = math.Round(s.MatchRate*1000) / 10
	if len(hOnly) <= listLimit {
		s.HappinessOnly = hOnly
	}
	if len(gOnly) <= listLimit {
		s.IndicatorsOnly = gOnly
	}
	for i, n := range merged.MissingCounts() {
		if n > 0 {
			s.MissingValues[merged.Header[i]] = n
		}
	}
	return s, nil
}

// Summarize counts continents and averages SummaryColumns of the merged table.
func Summarize(merged *table.Table, f table.NumberFormat) Summary {
	s := Summary{Countries: merged.Len(), Variables: len(merged.Header), Continents: []ContinentCount{}, Means: []Mean{}}
	if cells, err := merged.Column("continent"); err == nil {
		counts := map[string]int{}
		for _, c := range cells {
			if !table.IsMissing(c) {
				counts[c]++
			}
		}
		for k, n := range counts {
			s.Continents = append(s.Continents, ContinentCount{Continent: k, Count: n})
		}
		sort.Slice(s.Continents, func(i, j int) bool {
			if s.Continents[i].Count == s.Continents[j].Count {
				return s.Continents[i].Continent < s.Continents[j].Continent
			}
			return s.Continents[i].Count > s.Continents[j].Count
		})
	}
	for _, col := range SummaryColumns {
		cells, err := merged.Column(col)
		if err != nil {
			continue
		}
		var vals []float64
		for _, c := range cells {
			if x, ok := f.Parse(c); ok {
				vals = append(vals, x)
			}
		}
		m := profile.NaN()
		if len(vals) > 0 {
			m = profile.Stat(stat.Mean(vals, nil))
		}
		s.Means = append(s.Means, Mean{Column: col, Value: m})
	}
	return s
}

// Write stores the report as indented JSON.
func (r *Report) Write(path string) error {
	return utils.WriteJSON(path, r)
}

// LoadReport reads a report written by Write.
func LoadReport(path string) (*Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read merge report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse merge report %s: %w", path, err)
	}
	return &r, nil
}
