package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/happipe-cli/internal/config"
	"github.com/KaramelBytes/happipe-cli/internal/logging"
)

// version is stamped into provenance; overridden at build time with -ldflags.
var version = "dev"

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration and logger
	cfg    *cfgpkg.Global
	logger = logging.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "happipe",
	Short: "happipe: clean, profile, merge and chart happiness and development data",
	Long: `happipe cleans the World Happiness Report and a development indicator dataset,
profiles both, joins them by country and renders charts of the merged table.

Run without a subcommand to execute the whole workflow.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkflow(cmd)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./happipe.yaml or ~/.happipe/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal here: commands that need config fail through requireConfig
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		return
	}
	cfg = c
	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	l, err := logging.New(os.Stderr, level, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
		return
	}
	logger = l
}

// requireConfig returns the loaded configuration or the load error.
func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}
