package visualize

import (
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/happipe-cli/internal/console"
	"github.com/KaramelBytes/happipe-cli/internal/profile"
	"github.com/KaramelBytes/happipe-cli/internal/table"
	"github.com/KaramelBytes/happipe-cli/internal/utils"
)

// Job names the merged input and where charts go.
type Job struct {
	MergedPath string
	OutDir     string
	// Scatter size in inches; the heatmap is drawn at 10x8.
	WidthIn  float64
	HeightIn float64
	Format   table.NumberFormat
}

// Scatters are the continent-colored charts drawn from the merged table.
var Scatters = []struct {
	File string
	Spec ScatterSpec
}{
	{GDPScatterFile, ScatterSpec{
		X: ColGDP, Y: ColScore,
		XLabel: "GDP per Capita (USD)", YLabel: "Happiness Score",
		Title: "GDP per Capita vs Happiness Score by Continent",
	}},
	{LifeExpScatterFile, ScatterSpec{
		X: ColLifeExp, Y: ColScore,
		XLabel: "Life Expectancy (years)", YLabel: "Happiness Score",
		Title: "Life Expectancy vs Happiness Score by Continent",
	}},
}

// Files lists every chart Run writes, in order.
func Files() []string {
	return []string{GDPScatterFile, LifeExpScatterFile, HeatmapFile}
}

// Run renders all charts and returns the written paths.
func Run(job Job, w io.Writer, log *zap.Logger) ([]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if job.WidthIn <= 0 || job.HeightIn <= 0 {
		job.WidthIn, job.HeightIn = 12, 8
	}
	fmt.Fprintln(w, "Loading merged dataset...")
	t, err := table.Read(job.MergedPath)
	if err != nil {
		return nil, fmt.Errorf("load merged data: %w", err)
	}
	fmt.Fprintf(w, "Loaded %d countries\n", t.Len())
	if err := utils.EnsureDir(job.OutDir); err != nil {
		return nil, err
	}

	var written []string
	for _, s := range Scatters {
		console.Section(w, fmt.Sprintf("Creating %s vs %s scatterplot...", s.Spec.X, s.Spec.Y))
		p, err := Scatter(t, s.Spec, job.Format)
		if err != nil {
			return written, fmt.Errorf("%s: %w", s.File, err)
		}
		path := filepath.Join(job.OutDir, s.File)
		if err := save(p, job.WidthIn, job.HeightIn, path); err != nil {
			return written, err
		}
		console.OK(w, "Saved to: %s", path)
		written = append(written, path)
	}

	console.Section(w, "Creating correlation heatmap...")
	m, err := profile.Pearson(t, HeatmapColumns, job.Format)
	if err != nil {
		return written, fmt.Errorf("%s: %w", HeatmapFile, err)
	}
	for _, pc := range m.TopPairs(3) {
		log.Debug("correlation", zap.String("a", pc.A), zap.String("b", pc.B), zap.Float64("r", pc.R))
	}
	p, err := Heatmap(m, "Correlation Matrix: Happiness and Economic Indicators")
	if err != nil {
		return written, err
	}
	path := filepath.Join(job.OutDir, HeatmapFile)
	if err := save(p, 10, 8, path); err != nil {
		return written, err
	}
	console.OK(w, "Saved to: %s", path)
	written = append(written, path)

	fmt.Fprintln(w)
	console.Banner(w, "VISUALIZATION COMPLETE")
	fmt.Fprintf(w, "\nAll visualizations saved to: %s/\nFiles created:\n", job.OutDir)
	for _, f := range Files() {
		fmt.Fprintf(w, "  - %s\n", f)
	}
	log.Info("charts written", zap.Strings("files", written))
	return written, nil
}

func save(p *plot.Plot, wIn, hIn float64, path string) error {
	if err := p.Save(vg.Length(wIn)*vg.Inch, vg.Length(hIn)*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", filepath.Base(path), err)
	}
	return nil
}
