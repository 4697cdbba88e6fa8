package clean

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/happipe-cli/internal/console"
	"github.com/KaramelBytes/happipe-cli/internal/countries"
	"github.com/KaramelBytes/happipe-cli/internal/table"
)

// Job names the inputs and outputs of one cleaning run.
type Job struct {
	HappinessPath  string
	IndicatorsPath string
	HappinessURL   string
	IndicatorsURL  string

	HappinessOut  string
	IndicatorsOut string
	ProvenanceOut string

	// CountryTablePath is the override file the table came from; empty for the embedded default.
	CountryTablePath string

	RunID   string
	Now     time.Time
	Version string

	Options
}

// Run cleans both datasets, writes them and the provenance document, and
// prints a summary to w.
func Run(job Job, w io.Writer, log *zap.Logger) (*Provenance, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if job.Countries == nil {
		ct, err := countries.Default()
		if err != nil {
			return nil, err
		}
		job.Countries = ct
	}

	console.Section(w, "Loading World Happiness Report data...")
	hRaw, err := table.Read(job.HappinessPath)
	if err != nil {
		return nil, fmt.Errorf("load happiness data: %w", err)
	}
	fmt.Fprintf(w, "Shape: (%d, %d)\nColumns: %v\n", hRaw.Len(), len(hRaw.Header), hRaw.Header)

	console.Section(w, "Loading development indicator data...")
	gRaw, err := table.Read(job.IndicatorsPath)
	if err != nil {
		return nil, fmt.Errorf("load indicator data: %w", err)
	}
	fmt.Fprintf(w, "Original shape: (%d, %d)\n", gRaw.Len(), len(gRaw.Header))

	h, err := CleanHappiness(hRaw, job.Options)
	if err != nil {
		return nil, fmt.Errorf("clean happiness data: %w", err)
	}
	g, err := CleanIndicators(gRaw, job.Options)
	if err != nil {
		return nil, fmt.Errorf("clean indicator data: %w", err)
	}
	for _, c := range h.Absent {
		log.Warn("expected column absent after rename", zap.String("dataset", "happiness"), zap.String("column", c))
	}
	for _, c := range g.Absent {
		log.Warn("expected column absent after rename", zap.String("dataset", "indicators"), zap.String("column", c))
	}
	log.Debug("cleaned",
		zap.Int("happiness_rows_in", h.RowsIn), zap.Int("happiness_rows_out", h.RowsOut),
		zap.Int("indicator_rows_in", g.RowsIn), zap.Int("indicator_rows_out", g.RowsOut),
	)

	console.Section(w, "Cleaning happiness data...")
	printMissing(w, h, true)
	console.Section(w, fmt.Sprintf("Cleaning indicator data (year %d)...", job.TargetYear))
	printMissing(w, g, false)

	if err := h.Table.WriteCSV(job.HappinessOut); err != nil {
		return nil, fmt.Errorf("write cleaned happiness data: %w", err)
	}
	console.OK(w, "Cleaned happiness data saved to: %s", job.HappinessOut)
	if err := g.Table.WriteCSV(job.IndicatorsOut); err != nil {
		return nil, fmt.Errorf("write cleaned indicator data: %w", err)
	}
	console.OK(w, "Cleaned indicator data saved to: %s", job.IndicatorsOut)

	prov, err := job.provenance(h, g)
	if err != nil {
		return nil, err
	}
	if err := prov.Write(job.ProvenanceOut); err != nil {
		return nil, fmt.Errorf("write provenance: %w", err)
	}
	console.OK(w, "Provenance information saved to: %s", job.ProvenanceOut)
	log.Info("cleaning complete",
		zap.String("run_id", prov.RunID),
		zap.String("happiness_hash", prov.Datasets.Happiness.FileHash),
		zap.String("indicators_hash", prov.Datasets.Indicators.FileHash),
	)

	printSummary(w, h.Table, g.Table, job.Format)
	return prov, nil
}

func (job Job) provenance(h, g *Result) (*Provenance, error) {
	hi, err := NewDatasetInfo(job.HappinessPath, job.HappinessURL, "World Happiness Report")
	if err != nil {
		return nil, err
	}
	hi.RowsIn, hi.RowsOut, hi.OutputPath = h.RowsIn, h.RowsOut, job.HappinessOut

	gi, err := NewDatasetInfo(job.IndicatorsPath, job.IndicatorsURL,
		fmt.Sprintf("Global development indicators (filtered to %d)", job.TargetYear))
	if err != nil {
		return nil, err
	}
	gi.RowsIn, gi.RowsOut, gi.OutputPath = g.RowsIn, g.RowsOut, job.IndicatorsOut

	src := job.CountryTablePath
	if src == "" {
		src = "embedded"
	}
	now := job.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Provenance{
		RunID:         job.RunID,
		Timestamp:     now.UTC(),
		Datasets:      ProvenanceInputs{Happiness: hi, Indicators: gi},
		Tool:          NewToolInfo(job.Version),
		CountryTable:  CountryTableInfo{Version: job.Countries.Version, Source: src, Entries: job.Countries.Len()},
		TargetYear:    job.TargetYear,
		CleaningSteps: Steps(job.TargetYear, job.Countries.Version),
	}, nil
}

func printMissing(w io.Writer, r *Result, withAfter bool) {
	header := []string{"column", "missing"}
	if withAfter {
		header = []string{"column", "missing before", "missing after"}
	}
	rows := make([][]string, 0, len(r.Table.Header))
	n := r.Table.Len()
	for i, c := range r.Table.Header {
		row := []string{c, strconv.Itoa(r.MissingBefore[i])}
		if withAfter {
			row = append(row, strconv.Itoa(r.MissingAfter[i]))
		} else if n > 0 {
			row[1] = fmt.Sprintf("%d (%.2f%%)", r.MissingBefore[i], float64(r.MissingBefore[i])*100/float64(n))
		}
		rows = append(rows, row)
	}
	console.Table(w, header, rows)
	fmt.Fprintf(w, "Final cleaned shape: (%d, %d)\n", r.RowsOut, len(r.Table.Header))
}

func printSummary(w io.Writer, h, g *table.Table, f table.NumberFormat) {
	console.Banner(w, "CLEANING SUMMARY")

	fmt.Fprintln(w, "\nHappiness Dataset:")
	pairs := [][2]string{
		{"Countries", strconv.Itoa(h.Len())},
		{"Variables", strconv.Itoa(len(h.Header))},
	}
	if scores := numbers(h, ColScore, f); len(scores) > 0 {
		pairs = append(pairs, [2]string{"Average happiness score", fmt.Sprintf("%.2f", stat.Mean(scores, nil))})
	}
	console.KeyValues(w, pairs)

	fmt.Fprintln(w, "\nIndicator Dataset:")
	pairs = [][2]string{
		{"Countries", strconv.Itoa(g.Len())},
		{"Variables", strconv.Itoa(len(g.Header))},
	}
	if g.Has(ColContinent) {
		pairs = append(pairs, [2]string{"Continents represented", strconv.Itoa(distinct(g, ColContinent))})
	}
	console.KeyValues(w, pairs)
	fmt.Fprintln(w)
	console.OK(w, "Data cleaning complete!")
}

func numbers(t *table.Table, col string, f table.NumberFormat) []float64 {
	cells, err := t.Column(col)
	if err != nil {
		return nil
	}
	var out []float64
	for _, c := range cells {
		if x, ok := f.Parse(c); ok {
			out = append(out, x)
		}
	}
	return out
}

func distinct(t *table.Table, col string) int {
	cells, _ := t.Column(col)
	seen := map[string]struct{}{}
	for _, c := range cells {
		if !table.IsMissing(c) {
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}
