package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/happipe-cli/internal/config"
	"github.com/KaramelBytes/happipe-cli/internal/console"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set happipe configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(out, "No config loaded")
			return nil
		}
		console.KeyValues(out, [][2]string{
			{"raw_dir", cfg.RawDir},
			{"processed_dir", cfg.ProcessedDir},
			{"results_dir", cfg.ResultsDir},
			{"happiness_file", cfg.HappinessFile},
			{"indicators_file", cfg.IndicatorsFile},
			{"happiness_source_url", cfg.HappinessSourceURL},
			{"indicators_source_url", cfg.IndicatorsSourceURL},
			{"happiness_cleaned", cfg.HappinessCleaned},
			{"indicators_cleaned", cfg.IndicatorsCleaned},
			{"merged_file", cfg.MergedFile},
			{"provenance_file", cfg.ProvenanceFile},
			{"profile_file", cfg.ProfileFile},
			{"merge_report_file", cfg.MergeReportFile},
			{"target_year", strconv.Itoa(cfg.TargetYear)},
			{"country_table", orDefault(cfg.CountryTable, "(embedded)")},
			{"top_values", strconv.Itoa(cfg.TopValues)},
			{"iqr_multiplier", strconv.FormatFloat(cfg.IQRMultiplier, 'g', -1, 64)},
			{"unmatched_list_limit", strconv.Itoa(cfg.UnmatchedListLimit)},
			{"plot_width_in", strconv.FormatFloat(cfg.PlotWidthIn, 'g', -1, 64)},
			{"plot_height_in", strconv.FormatFloat(cfg.PlotHeightIn, 'g', -1, 64)},
			{"log_level", cfg.LogLevel},
			{"log_format", cfg.LogFormat},
		})
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := requireConfig()
		if err != nil {
			return err
		}
		next := *c
		if err := setKey(&next, key, val); err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(&next, cfgFile); err != nil {
			return err
		}
		cfg = &next
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	strs := map[string]*string{
		"raw_dir":               &c.RawDir,
		"processed_dir":         &c.ProcessedDir,
		"results_dir":           &c.ResultsDir,
		"happiness_file":        &c.HappinessFile,
		"indicators_file":       &c.IndicatorsFile,
		"happiness_source_url":  &c.HappinessSourceURL,
		"indicators_source_url": &c.IndicatorsSourceURL,
		"happiness_cleaned":     &c.HappinessCleaned,
		"indicators_cleaned":    &c.IndicatorsCleaned,
		"merged_file":           &c.MergedFile,
		"provenance_file":       &c.ProvenanceFile,
		"profile_file":          &c.ProfileFile,
		"merge_report_file":     &c.MergeReportFile,
		"country_table":         &c.CountryTable,
	}
	if p, ok := strs[key]; ok {
		*p = val
		return nil
	}
	switch key {
	case "target_year", "top_values", "unmatched_list_limit":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		switch key {
		case "target_year":
			c.TargetYear = i
		case "top_values":
			c.TopValues = i
		default:
			c.UnmatchedListLimit = i
		}
	case "iqr_multiplier", "plot_width_in", "plot_height_in":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %v", key, val)
		}
		switch key {
		case "iqr_multiplier":
			c.IQRMultiplier = f
		case "plot_width_in":
			c.PlotWidthIn = f
		default:
			c.PlotHeightIn = f
		}
	case "log_level":
		switch val {
		case "debug", "info", "warn", "error":
			c.LogLevel = val
		default:
			return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", val)
		}
	case "log_format":
		switch val {
		case "console", "json":
			c.LogFormat = val
		default:
			return fmt.Errorf("invalid log_format: %s (use console|json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
