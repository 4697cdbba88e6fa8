package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at temp dirs so no real
// config or .env leaks into the test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	work := t.TempDir()
	require.NoError(t, os.Chdir(work))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return work
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2018, c.TargetYear)
	assert.Equal(t, filepath.Join("data", "raw", "2018.csv"), c.HappinessRawPath())
	assert.Equal(t, filepath.Join("data", "processed", "happiness_economy_2018.csv"), c.MergedPath())
	assert.Equal(t, filepath.Join("results", "a.png"), c.ChartPath("a.png"))
	assert.Equal(t, 5, c.TopValues)
	assert.Equal(t, 1.5, c.IQRMultiplier)
	assert.Equal(t, 10, c.UnmatchedListLimit)
	assert.Equal(t, *Defaults(), *c)
}

func TestLoadPrecedence(t *testing.T) {
	work := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(work, "happipe.yaml"), []byte("target_year: 2017\nresults_dir: out\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(work, ".env"), []byte("HAPPIPE_RESULTS_DIR=from-dotenv\n"), 0o644))
	t.Setenv("HAPPIPE_TOP_VALUES", "3")
	t.Cleanup(func() { _ = os.Unsetenv("HAPPIPE_RESULTS_DIR") })

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2017, c.TargetYear)
	assert.Equal(t, 3, c.TopValues)
	assert.Equal(t, "from-dotenv", c.ResultsDir)
}

func TestLoadExplicitFileAndValidation(t *testing.T) {
	work := isolate(t)
	p := filepath.Join(work, "custom.yaml")
	require.NoError(t, os.WriteFile(p, []byte("target_year: 0\n"), 0o644))
	_, err := Load(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_year")

	_, err = Load(filepath.Join(work, "missing.yaml"))
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	work := isolate(t)
	c := Defaults()
	c.TargetYear = 2019
	c.CountryTable = "countries.yaml"
	p := filepath.Join(work, "saved.yaml")
	require.NoError(t, Save(c, p))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 2019, got.TargetYear)
	assert.Equal(t, "countries.yaml", got.CountryTable)
}

func TestLoadHomeConfigWrittenBySave(t *testing.T) {
	isolate(t)
	c := Defaults()
	c.UnmatchedListLimit = 25
	require.NoError(t, Save(c, ""))

	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 25, got.UnmatchedListLimit)

	// a local happipe.yaml wins over the home file
	require.NoError(t, os.WriteFile("happipe.yaml", []byte("unmatched_list_limit: 4\n"), 0o644))
	got, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 4, got.UnmatchedListLimit)
}
