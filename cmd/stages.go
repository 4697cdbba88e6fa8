package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/happipe-cli/internal/clean"
	cfgpkg "github.com/KaramelBytes/happipe-cli/internal/config"
	"github.com/KaramelBytes/happipe-cli/internal/console"
	"github.com/KaramelBytes/happipe-cli/internal/countries"
	"github.com/KaramelBytes/happipe-cli/internal/logging"
	"github.com/KaramelBytes/happipe-cli/internal/merge"
	"github.com/KaramelBytes/happipe-cli/internal/pipeline"
	"github.com/KaramelBytes/happipe-cli/internal/profile"
	"github.com/KaramelBytes/happipe-cli/internal/table"
	"github.com/KaramelBytes/happipe-cli/internal/utils"
	"github.com/KaramelBytes/happipe-cli/internal/visualize"
)

// runContext carries what every stage of one invocation shares.
type runContext struct {
	cfg   *cfgpkg.Global
	runID string
	now   func() time.Time
}

func newRunContext(c *cfgpkg.Global) *runContext {
	return &runContext{cfg: c, runID: uuid.NewString(), now: time.Now}
}

func (rc *runContext) clean(_ context.Context, w io.Writer) error {
	c := rc.cfg
	ct, err := countries.Load(c.CountryTable)
	if err != nil {
		return err
	}
	_, err = clean.Run(clean.Job{
		HappinessPath:    c.HappinessRawPath(),
		IndicatorsPath:   c.IndicatorsRawPath(),
		HappinessURL:     c.HappinessSourceURL,
		IndicatorsURL:    c.IndicatorsSourceURL,
		HappinessOut:     c.HappinessCleanedPath(),
		IndicatorsOut:    c.IndicatorsCleanedPath(),
		ProvenanceOut:    c.ProvenancePath(),
		CountryTablePath: c.CountryTable,
		RunID:            rc.runID,
		Now:              rc.now(),
		Version:          version,
		Options: clean.Options{
			TargetYear: c.TargetYear,
			Countries:  ct,
			Format:     table.DefaultNumberFormat,
		},
	}, w, logging.Tee(logger.Named("clean"), w))
	return err
}

func (rc *runContext) profile(_ context.Context, w io.Writer) error {
	c := rc.cfg
	h, err := table.Read(c.HappinessCleanedPath())
	if err != nil {
		return fmt.Errorf("load cleaned happiness data: %w", err)
	}
	g, err := table.Read(c.IndicatorsCleanedPath())
	if err != nil {
		return fmt.Errorf("load cleaned indicator data: %w", err)
	}
	opt := profile.DefaultOptions()
	opt.TopValues = c.TopValues
	opt.IQRMultiplier = c.IQRMultiplier
	rep := profile.Build(rc.runID, rc.now(), h, g, opt)
	fmt.Fprintln(w, rep.Markdown())
	if err := rep.Write(c.ProfilePath()); err != nil {
		return err
	}
	console.OK(w, "Profile report saved to: %s", c.ProfilePath())
	logging.Tee(logger.Named("profile"), w).Info("profile written",
		zap.String("path", c.ProfilePath()),
		zap.Int("happiness_rows", rep.Happiness.Rows),
		zap.Int("indicator_rows", rep.Indicators.Rows))
	return nil
}

func (rc *runContext) merge(_ context.Context, w io.Writer) error {
	c := rc.cfg
	_, err := merge.Run(merge.Job{
		HappinessPath:  c.HappinessCleanedPath(),
		IndicatorsPath: c.IndicatorsCleanedPath(),
		MergedOut:      c.MergedPath(),
		ReportOut:      c.MergeReportPath(),
		ListLimit:      c.UnmatchedListLimit,
		RunID:          rc.runID,
		Now:            rc.now(),
		Format:         table.DefaultNumberFormat,
	}, w, logging.Tee(logger.Named("merge"), w))
	return err
}

func (rc *runContext) visualize(_ context.Context, w io.Writer) error {
	c := rc.cfg
	_, err := visualize.Run(visualize.Job{
		MergedPath: c.MergedPath(),
		OutDir:     c.ResultsDir,
		WidthIn:    c.PlotWidthIn,
		HeightIn:   c.PlotHeightIn,
		Format:     table.DefaultNumberFormat,
	}, w, logging.Tee(logger.Named("visualize"), w))
	return err
}

// workflow assembles the full pipeline from the configuration.
func (rc *runContext) workflow(w io.Writer) *pipeline.Pipeline {
	c := rc.cfg
	charts := make([]string, 0, len(visualize.Files()))
	for _, f := range visualize.Files() {
		charts = append(charts, c.ChartPath(f))
	}
	return &pipeline.Pipeline{
		Title: "HAPPINESS & DEVELOPMENT ANALYSIS PIPELINE",
		Requirements: []pipeline.Requirement{
			{Name: "country table", Check: func() error {
				ct, err := countries.Load(c.CountryTable)
				if err != nil {
					return err
				}
				return ct.Validate()
			}},
			{Name: "chart renderer", Check: visualize.Check},
			{Name: "processed directory", Check: func() error { return writable(c.ProcessedDir) }},
			{Name: "results directory", Check: func() error { return writable(c.ResultsDir) }},
		},
		Inputs: []string{c.HappinessRawPath(), c.IndicatorsRawPath()},
		Stages: []pipeline.Stage{
			{Name: "Data Cleaning", Run: rc.clean},
			{Name: "Data Profiling", Run: rc.profile},
			{Name: "Data Merging", Run: rc.merge},
			{Name: "Visualization", Run: rc.visualize},
		},
		Outputs: []pipeline.OutputGroup{
			{Name: "Processed Data", Paths: []string{
				c.HappinessCleanedPath(),
				c.IndicatorsCleanedPath(),
				c.MergedPath(),
				c.ProvenancePath(),
				c.ProfilePath(),
				c.MergeReportPath(),
			}},
			{Name: "Visualizations", Paths: charts},
		},
		Out: w,
		Log: logger.Named("pipeline"),
		Now: rc.now,
	}
}

// writable creates dir if needed and confirms a file can be created in it.
func writable(dir string) error {
	if err := utils.EnsureDir(dir); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".happipe-check-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
