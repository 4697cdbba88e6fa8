package cmd

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/happipe-cli/internal/clean"
	"github.com/KaramelBytes/happipe-cli/internal/logging"
	"github.com/KaramelBytes/happipe-cli/internal/merge"
	"github.com/KaramelBytes/happipe-cli/internal/pipeline"
	"github.com/KaramelBytes/happipe-cli/internal/profile"
	"github.com/KaramelBytes/happipe-cli/internal/table"
)

const rawHappiness = `Overall rank,Country or region,Score,GDP per capita,Social support,Healthy life expectancy,Freedom to make life choices,Generosity,Perceptions of corruption
1,Finland,7.632,1.305,1.592,0.874,0.681,0.202,0.393
2,Congo (Brazzaville),4.559,0.682,0.811,0.343,0.514,0.091,0.077
3,Atlantis,,0.808,0.896,0.402,0.478,0.112,0.092
`

const rawIndicators = `country,continent,year,life_exp,hdi_index,co2_consump,gdp,services
Finland,Europe,2017,81.6,0.938,8.1,45000,73.6
Finland,Europe,2018,81.7,0.940,7.9,46000,73.9
"Congo, Rep.",Africa,2018,64.3,0.608,0.6,3400,47.1
`

// workspace isolates HOME and the working directory and seeds the raw inputs
// at the default locations.
func workspace(t *testing.T, seed bool) string {
	t.Helper()
	color.NoColor = true
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg = nil
	cfgFile = ""
	if seed {
		raw := filepath.Join(dir, "data", "raw")
		require.NoError(t, os.MkdirAll(raw, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(raw, "2018.csv"), []byte(rawHappiness), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(raw, "gapminder_data_graphs.csv"), []byte(rawIndicators), 0o644))
	}
	return dir
}

// execCmd executes the root command with args and returns its output.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func sha256File(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func TestCLI_RunEndToEnd(t *testing.T) {
	dir := workspace(t, true)

	out, err := execCmd(t, "run")
	require.NoError(t, err, out)
	assert.Contains(t, out, "All dependencies are available")
	assert.Contains(t, out, "✓ Data Cleaning completed successfully")
	assert.Contains(t, out, "✓ Visualization completed successfully")
	assert.Contains(t, out, "All expected output files were created")
	assert.Contains(t, out, "Total runtime:")

	processed := filepath.Join(dir, "data", "processed")
	h, err := table.Read(filepath.Join(processed, "happiness_2018_cleaned.csv"))
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())
	countries, err := h.Column("country")
	require.NoError(t, err)
	assert.Equal(t, []string{"Finland", "Congo, Rep."}, countries)
	assert.NotContains(t, countries, "Atlantis")

	merged, err := table.Read(filepath.Join(processed, "happiness_economy_2018.csv"))
	require.NoError(t, err)
	assert.Equal(t, 2, merged.Len())
	mergedCountries, err := merged.Column("country")
	require.NoError(t, err)
	// the two files spell the republic differently; the country table joins them
	assert.Equal(t, []string{"Finland", "Congo, Rep."}, mergedCountries)

	rep, err := merge.LoadReport(filepath.Join(processed, "merge_report.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Statistics.MergedCountryCount)
	assert.Equal(t, 0, rep.Statistics.HappinessOnlyCount)
	assert.Equal(t, 0, rep.Statistics.IndicatorsOnlyCount)
	assert.Empty(t, rep.Statistics.HappinessOnly)
	assert.Empty(t, rep.Statistics.IndicatorsOnly)
	assert.Equal(t, 1.0, rep.Statistics.MatchRate)

	prov, err := clean.LoadProvenance(filepath.Join(processed, "cleaning_provenance.json"))
	require.NoError(t, err)
	assert.Equal(t, sha256File(t, filepath.Join("data", "raw", "2018.csv")), prov.Datasets.Happiness.FileHash)
	assert.Equal(t, sha256File(t, filepath.Join("data", "raw", "gapminder_data_graphs.csv")), prov.Datasets.Indicators.FileHash)

	// one run id across every document of a run
	prof, err := profile.Load(filepath.Join(processed, "data_profile_report.json"))
	require.NoError(t, err)
	assert.Equal(t, prov.RunID, rep.RunID)
	assert.Equal(t, prov.RunID, prof.RunID)
	assert.Equal(t, 2, prof.Happiness.Rows)

	for _, f := range []string{"gdp_happiness_scatter.png", "life_exp_happiness_scatter.png", "correlation_heatmap.png"} {
		_, err := os.Stat(filepath.Join(dir, "results", f))
		assert.NoError(t, err, f)
	}
}

func TestCLI_RunMissingInput(t *testing.T) {
	workspace(t, false)
	out, err := execCmd(t, "run")
	require.Error(t, err)
	var ie *pipeline.InputError
	require.ErrorAs(t, err, &ie)
	assert.Len(t, ie.Missing, 2)
	assert.Contains(t, out, "NOT FOUND")
	assert.NoFileExists(t, filepath.Join("data", "processed", "happiness_2018_cleaned.csv"))
}

func TestCLI_RunBrokenCountryTable(t *testing.T) {
	dir := workspace(t, true)
	t.Setenv("HAPPIPE_COUNTRY_TABLE", filepath.Join(dir, "missing.yaml"))
	out, err := execCmd(t, "run")
	require.Error(t, err)
	var de *pipeline.DependencyError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []string{"country table"}, de.Failed)
	assert.Contains(t, out, "happipe config show")
	assert.NoFileExists(t, filepath.Join(dir, "data", "processed", "happiness_2018_cleaned.csv"))
}

func TestCLI_StageWarningsReachOutput(t *testing.T) {
	dir := workspace(t, true)
	dup := rawIndicators + "Finland,Europe,2018,81.9,0.941,7.8,46500,74.0\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "raw", "gapminder_data_graphs.csv"), []byte(dup), 0o644))
	l, err := logging.New(io.Discard, "info", "console")
	require.NoError(t, err)
	prev := logger
	logger = l
	t.Cleanup(func() { logger = prev })

	out, err := execCmd(t, "run")
	require.NoError(t, err, out)
	assert.Contains(t, out, "duplicate join keys")
	assert.Contains(t, out, "Finland")
}

func TestCLI_StagesIndividually(t *testing.T) {
	workspace(t, true)
	for _, stage := range []string{"clean", "profile", "merge", "visualize"} {
		out, err := execCmd(t, stage)
		require.NoError(t, err, "%s: %s", stage, out)
	}
	assert.FileExists(t, filepath.Join("results", "correlation_heatmap.png"))
}

func TestCLI_MergeWithoutCleanFails(t *testing.T) {
	workspace(t, true)
	_, err := execCmd(t, "merge")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCLI_Describe(t *testing.T) {
	dir := workspace(t, true)
	path := filepath.Join(dir, "data", "raw", "gapminder_data_graphs.csv")
	out, err := execCmd(t, "describe", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[DATASET SUMMARY]")
	assert.Contains(t, out, "Rows: 3")

	js := filepath.Join(dir, "profile.json")
	_, err = execCmd(t, "describe", path, "--json", js, "--correlations")
	require.NoError(t, err)
	assert.FileExists(t, js)
	descJSONPath, descCorr = "", false

	_, err = execCmd(t, "describe", path, "--decimal", ".", "--thousands", ".")
	assert.Error(t, err)
	descDecimal, descThousands = "", ""
}

func TestCLI_Countries(t *testing.T) {
	workspace(t, false)
	out, err := execCmd(t, "countries", "Congo (Brazzaville)", "Finland")
	require.NoError(t, err)
	assert.Contains(t, out, "Congo, Rep.")
	assert.Contains(t, out, "Finland")

	out, err = execCmd(t, "countries")
	require.NoError(t, err)
	assert.Contains(t, out, "embedded")
}

func TestCLI_ConfigSetAndShow(t *testing.T) {
	workspace(t, false)
	_, err := execCmd(t, "config", "set", "target_year", "2019")
	require.NoError(t, err)
	home := os.Getenv("HOME")
	assert.FileExists(t, filepath.Join(home, ".happipe", "config.yaml"))

	cfg = nil
	out, err := execCmd(t, "config", "set", "log_format", "xml")
	require.Error(t, err, out)

	_, err = execCmd(t, "config", "set", "top_values", "0")
	require.Error(t, err)

	_, err = execCmd(t, "config", "set", "no_such_key", "1")
	require.Error(t, err)

	cfg = nil
	_, err = requireConfig()
	require.NoError(t, err)
	assert.Equal(t, 2019, cfg.TargetYear)
	out, err = execCmd(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "target_year:")
	assert.Contains(t, out, "2019")
}
