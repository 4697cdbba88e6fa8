package merge

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/happipe-cli/internal/console"
	"github.com/KaramelBytes/happipe-cli/internal/table"
)

// Key is the canonical join column.
const Key = "country"

// Job names the inputs and outputs of one merge run.
type Job struct {
	HappinessPath  string
	IndicatorsPath string
	MergedOut      string
	ReportOut      string
	// ListLimit caps the unmatched-country lists printed and stored.
	ListLimit int
	RunID     string
	Now       time.Time
	Format    table.NumberFormat
}

// Run joins the cleaned files, writes the merged table and the merge report,
// and prints the diagnostics to w.
func Run(job Job, w io.Writer, log *zap.Logger) (*Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fmt.Fprintln(w, "Loading cleaned datasets...")
	h, err := table.Read(job.HappinessPath)
	if err != nil {
		return nil, fmt.Errorf("load cleaned happiness data: %w", err)
	}
	g, err := table.Read(job.IndicatorsPath)
	if err != nil {
		return nil, fmt.Errorf("load cleaned indicator data: %w", err)
	}
	fmt.Fprintf(w, "Happiness dataset: %d countries\nIndicator dataset: %d countries\n", h.Len(), g.Len())

	console.Section(w, fmt.Sprintf("Merging datasets on '%s' column...", Key))
	merged, err := InnerJoin(h, g, Key)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(w, "Merged dataset: %d countries successfully matched\n", merged.Len())

	stats, err := Quality(h, g, merged, Key, job.ListLimit)
	if err != nil {
		return nil, err
	}
	if stats.DuplicateKeys.Any() {
		log.Warn("duplicate join keys fan out the merge",
			zap.Strings("happiness", stats.DuplicateKeys.Happiness),
			zap.Strings("indicators", stats.DuplicateKeys.Indicators),
		)
	}
	printQuality(w, stats)

	if err := merged.WriteCSV(job.MergedOut); err != nil {
		return nil, fmt.Errorf("write merged data: %w", err)
	}
	console.OK(w, "Merged dataset saved to: %s", job.MergedOut)

	now := job.Now
	if now.IsZero() {
		now = time.Now()
	}
	rep := &Report{RunID: job.RunID, Timestamp: now.UTC(), Statistics: stats, Summary: Summarize(merged, job.Format)}
	if err := rep.Write(job.ReportOut); err != nil {
		return nil, fmt.Errorf("write merge report: %w", err)
	}
	console.OK(w, "Merge report saved to: %s", job.ReportOut)
	log.Info("merge complete",
		zap.Int("merged_rows", stats.MergedCountryCount),
		zap.Float64("match_rate", stats.MatchRate),
	)

	printSummary(w, rep.Summary)
	return rep, nil
}

func printQuality(w io.Writer, s Statistics) {
	fmt.Fprintln(w)
	console.Banner(w, "MERGE QUALITY ANALYSIS")
	printUnmatched(w, "Happiness", s.HappinessOnlyCount, s.HappinessOnly)
	printUnmatched(w, "Indicator", s.IndicatorsOnlyCount, s.IndicatorsOnly)
	fmt.Fprintf(w, "\nMerge success rate: %.1f%%\n", s.MatchRate*100)
	if s.DuplicateKeys.Any() {
		console.Warn(w, "Duplicate join keys: happiness %v, indicators %v", s.DuplicateKeys.Happiness, s.DuplicateKeys.Indicators)
	}

	fmt.Fprintln(w, "\nMissing values in merged dataset:")
	if len(s.MissingValues) == 0 {
		fmt.Fprintln(w, "  No missing values!")
		return
	}
	cols := make([]string, 0, len(s.MissingValues))
	for c := range s.MissingValues {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	rows := make([][]string, 0, len(cols))
	for _, c := range cols {
		rows = append(rows, []string{c, strconv.Itoa(s.MissingValues[c])})
	}
	console.Table(w, []string{"column", "missing"}, rows)
}

func printUnmatched(w io.Writer, side string, n int, names []string) {
	fmt.Fprintf(w, "\nCountries in %s dataset only: %d\n", side, n)
	if n > 0 && names != nil {
		fmt.Fprintf(w, "  %s\n", strings.Join(names, ", "))
	}
}

func printSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w)
	console.Banner(w, "MERGED DATASET SUMMARY")
	console.KeyValues(w, [][2]string{
		{"Total countries", strconv.Itoa(s.Countries)},
		{"Total variables", strconv.Itoa(s.Variables)},
	})
	if len(s.Continents) > 0 {
		fmt.Fprintln(w, "\nContinents represented:")
		rows := make([][]string, 0, len(s.Continents))
		for _, c := range s.Continents {
			rows = append(rows, []string{c.Continent, strconv.Itoa(c.Count)})
		}
		console.Table(w, []string{"continent", "countries"}, rows)
	}
	if len(s.Means) > 0 {
		fmt.Fprintln(w, "\nKey statistics:")
		pairs := make([][2]string, 0, len(s.Means))
		for _, m := range s.Means {
			v := "n/a"
			if m.Value.Valid() {
				v = fmt.Sprintf("%.3f", float64(m.Value))
			}
			pairs = append(pairs, [2]string{"Average " + m.Column, v})
		}
		console.KeyValues(w, pairs)
	}
	fmt.Fprintln(w)
	console.OK(w, "All files have been successfully merged!")
}
