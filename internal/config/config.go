package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Directory layout
	RawDir       string `mapstructure:"raw_dir" yaml:"raw_dir"`
	ProcessedDir string `mapstructure:"processed_dir" yaml:"processed_dir"`
	ResultsDir   string `mapstructure:"results_dir" yaml:"results_dir"`

	// Inputs
	HappinessFile       string `mapstructure:"happiness_file" yaml:"happiness_file"`
	IndicatorsFile      string `mapstructure:"indicators_file" yaml:"indicators_file"`
	HappinessSourceURL  string `mapstructure:"happiness_source_url" yaml:"happiness_source_url"`
	IndicatorsSourceURL string `mapstructure:"indicators_source_url" yaml:"indicators_source_url"`

	// Outputs (file names under ProcessedDir)
	HappinessCleaned  string `mapstructure:"happiness_cleaned" yaml:"happiness_cleaned"`
	IndicatorsCleaned string `mapstructure:"indicators_cleaned" yaml:"indicators_cleaned"`
	MergedFile        string `mapstructure:"merged_file" yaml:"merged_file"`
	ProvenanceFile    string `mapstructure:"provenance_file" yaml:"provenance_file"`
	ProfileFile       string `mapstructure:"profile_file" yaml:"profile_file"`
	MergeReportFile   string `mapstructure:"merge_report_file" yaml:"merge_report_file"`

	// Cleaning
	TargetYear   int    `mapstructure:"target_year" yaml:"target_year"`
	CountryTable string `mapstructure:"country_table" yaml:"country_table"`

	// Profiling / merging
	TopValues          int     `mapstructure:"top_values" yaml:"top_values"`
	IQRMultiplier      float64 `mapstructure:"iqr_multiplier" yaml:"iqr_multiplier"`
	UnmatchedListLimit int     `mapstructure:"unmatched_list_limit" yaml:"unmatched_list_limit"`

	// Charts, in inches
	PlotWidthIn  float64 `mapstructure:"plot_width_in" yaml:"plot_width_in"`
	PlotHeightIn float64 `mapstructure:"plot_height_in" yaml:"plot_height_in"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// HappinessRawPath is the raw happiness survey location.
func (c *Global) HappinessRawPath() string { return filepath.Join(c.RawDir, c.HappinessFile) }

// IndicatorsRawPath is the raw development indicators location.
func (c *Global) IndicatorsRawPath() string { return filepath.Join(c.RawDir, c.IndicatorsFile) }

func (c *Global) HappinessCleanedPath() string {
	return filepath.Join(c.ProcessedDir, c.HappinessCleaned)
}

func (c *Global) IndicatorsCleanedPath() string {
	return filepath.Join(c.ProcessedDir, c.IndicatorsCleaned)
}

func (c *Global) MergedPath() string { return filepath.Join(c.ProcessedDir, c.MergedFile) }

func (c *Global) ProvenancePath() string { return filepath.Join(c.ProcessedDir, c.ProvenanceFile) }

func (c *Global) ProfilePath() string { return filepath.Join(c.ProcessedDir, c.ProfileFile) }

func (c *Global) MergeReportPath() string { return filepath.Join(c.ProcessedDir, c.MergeReportFile) }

// ChartPath resolves a chart file name under ResultsDir.
func (c *Global) ChartPath(name string) string { return filepath.Join(c.ResultsDir, name) }

// Validate checks values that would otherwise fail deep inside a stage.
func (c *Global) Validate() error {
	switch {
	case c.HappinessFile == "" || c.IndicatorsFile == "":
		return errors.New("happiness_file and indicators_file must be set")
	case c.TargetYear <= 0:
		return fmt.Errorf("invalid target_year: %d", c.TargetYear)
	case c.TopValues <= 0:
		return fmt.Errorf("invalid top_values: %d", c.TopValues)
	case c.IQRMultiplier <= 0:
		return fmt.Errorf("invalid iqr_multiplier: %v", c.IQRMultiplier)
	case c.UnmatchedListLimit < 0:
		return fmt.Errorf("invalid unmatched_list_limit: %d", c.UnmatchedListLimit)
	case c.PlotWidthIn <= 0 || c.PlotHeightIn <= 0:
		return fmt.Errorf("invalid plot size: %vx%v", c.PlotWidthIn, c.PlotHeightIn)
	}
	return nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.happipe/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".happipe")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
// A .env file in the working directory is applied to the environment first.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("HAPPIPE")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile == "" {
		cfgFile = defaultConfigFile()
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// defaultConfigFile returns ./happipe.yaml or ~/.happipe/config.yaml,
// whichever exists first, or "" when neither does.
func defaultConfigFile() string {
	candidates := []string{"happipe.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".happipe", "config.yaml"))
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("raw_dir", "data/raw")
	v.SetDefault("processed_dir", "data/processed")
	v.SetDefault("results_dir", "results")

	v.SetDefault("happiness_file", "2018.csv")
	v.SetDefault("indicators_file", "gapminder_data_graphs.csv")
	v.SetDefault("happiness_source_url", "https://www.kaggle.com/datasets/unsdsn/world-happiness")
	v.SetDefault("indicators_source_url", "https://www.kaggle.com/datasets/albertovidalrod/gapminder-dataset")

	v.SetDefault("happiness_cleaned", "happiness_2018_cleaned.csv")
	v.SetDefault("indicators_cleaned", "gapminder_2018_cleaned.csv")
	v.SetDefault("merged_file", "happiness_economy_2018.csv")
	v.SetDefault("provenance_file", "cleaning_provenance.json")
	v.SetDefault("profile_file", "data_profile_report.json")
	v.SetDefault("merge_report_file", "merge_report.json")

	v.SetDefault("target_year", 2018)
	v.SetDefault("country_table", "")

	v.SetDefault("top_values", 5)
	v.SetDefault("iqr_multiplier", 1.5)
	v.SetDefault("unmatched_list_limit", 10)

	v.SetDefault("plot_width_in", 12.0)
	v.SetDefault("plot_height_in", 8.0)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}
