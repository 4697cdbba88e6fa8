package clean

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/happipe-cli/internal/countries"
	"github.com/KaramelBytes/happipe-cli/internal/table"
)

const happinessCSV = `Overall rank,Country or region,Score,GDP per capita,Social support,Healthy life expectancy,Freedom to make life choices,Generosity,Perceptions of corruption
1,Finland,7.632,1.305,1.592,0.874,0.681,0.202,0.393
2,Palestinian Territories,4.743,0.642,1.217,0.602,0.266,0.086,0.076
3,Congo (Brazzaville),,0.808,0.896,0.402,0.478,0.112,0.092
`

const indicatorsCSV = `country,continent,year,life_exp,hdi_index,co2_consump,gdp,services
Finland,Europe,2017,81.6,0.938,8.1,45000,73.6
Finland,Europe,2018,81.7,0.940,7.9,46000,73.9
Palestinian Territories,Asia,2018.0,73.9,0.708,0.7,3200,63.2
Congo (Brazzaville),Africa,2018,64.3,0.57,0.6,3400,NA
`

func defaultOptions(t *testing.T) Options {
	t.Helper()
	ct, err := countries.Default()
	require.NoError(t, err)
	return Options{TargetYear: 2018, Countries: ct, Format: table.DefaultNumberFormat}
}

func parse(t *testing.T, name, src string) *table.Table {
	t.Helper()
	tb, err := table.ParseCSV(strings.NewReader(src), name, ',')
	require.NoError(t, err)
	return tb
}

func TestCleanHappiness(t *testing.T) {
	raw := parse(t, "2018.csv", happinessCSV)
	res, err := CleanHappiness(raw, defaultOptions(t))
	require.NoError(t, err)

	assert.Equal(t, 3, res.RowsIn)
	assert.Equal(t, 2, res.RowsOut)
	assert.Empty(t, res.Absent)
	assert.Contains(t, res.Renamed, "Score -> happiness_score")
	assert.Equal(t, []string{
		"happiness_rank", "country", "happiness_score", "happiness_gdp_contribution", "social_support",
		"happiness_life_exp_contribution", "freedom", "generosity", "corruption_perception",
	}, res.Table.Header)

	countriesCol, err := res.Table.Column(ColCountry)
	require.NoError(t, err)
	assert.Equal(t, []string{"Finland", "Palestine"}, countriesCol)

	scores, err := res.Table.Column(ColScore)
	require.NoError(t, err)
	for _, s := range scores {
		assert.False(t, table.IsMissing(s))
	}
	assert.Equal(t, 1, res.MissingBefore[2])
	assert.Equal(t, 0, res.MissingAfter[2])

	// the raw table is left untouched
	assert.Equal(t, "Country or region", raw.Header[1])
	assert.Equal(t, 3, raw.Len())
}

func TestCleanIndicatorsFiltersTargetYear(t *testing.T) {
	res, err := CleanIndicators(parse(t, "gapminder.csv", indicatorsCSV), defaultOptions(t))
	require.NoError(t, err)
	assert.Equal(t, 4, res.RowsIn)
	assert.Equal(t, 3, res.RowsOut)
	assert.Equal(t, []string{
		"country", "continent", "year", "life_expectancy", "hdi", "co2_per_capita", "gdp_per_capita", "service_workers_pct",
	}, res.Table.Header)

	names, _ := res.Table.Column(ColCountry)
	assert.Equal(t, []string{"Finland", "Palestine", "Congo, Rep."}, names)
	services, _ := res.Table.Column("service_workers_pct")
	assert.Equal(t, "", services[2])
	assert.Equal(t, 1, res.MissingBefore[7])
}

func TestCleanRequiresKeyColumns(t *testing.T) {
	raw := parse(t, "bad.csv", "Country,Score\nFinland,7.6\n")
	_, err := CleanHappiness(raw, defaultOptions(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)

	raw = parse(t, "bad.csv", "country,continent\nFinland,Europe\n")
	_, err = CleanIndicators(raw, defaultOptions(t))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestCleanReportsAbsentColumns(t *testing.T) {
	raw := parse(t, "thin.csv", "Country or region,Score,Extra\nFinland,7.6,x\n")
	res, err := CleanHappiness(raw, defaultOptions(t))
	require.NoError(t, err)
	assert.Contains(t, res.Absent, "generosity")
	assert.NotContains(t, res.Absent, ColScore)
	assert.True(t, res.Table.Has("Extra"))
}

func writeInputs(t *testing.T) (dir, hPath, gPath string) {
	t.Helper()
	dir = t.TempDir()
	hPath = filepath.Join(dir, "raw", "2018.csv")
	gPath = filepath.Join(dir, "raw", "gapminder.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(hPath), 0o755))
	require.NoError(t, os.WriteFile(hPath, []byte(happinessCSV), 0o644))
	require.NoError(t, os.WriteFile(gPath, []byte(indicatorsCSV), 0o644))
	return dir, hPath, gPath
}

func sha(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func TestRunWritesOutputsAndProvenance(t *testing.T) {
	dir, hPath, gPath := writeInputs(t)
	job := Job{
		HappinessPath:  hPath,
		IndicatorsPath: gPath,
		HappinessURL:   "https://example.org/happiness",
		HappinessOut:   filepath.Join(dir, "processed", "happiness_cleaned.csv"),
		IndicatorsOut:  filepath.Join(dir, "processed", "indicators_cleaned.csv"),
		ProvenanceOut:  filepath.Join(dir, "processed", "cleaning_provenance.json"),
		RunID:          "run-42",
		Now:            time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)),
		Version:        "test",
		Options:        defaultOptions(t),
	}
	var out bytes.Buffer
	prov, err := Run(job, &out, nil)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "CLEANING SUMMARY")
	assert.Contains(t, out.String(), "Average happiness score: 6.19")
	assert.Contains(t, out.String(), "Continents represented: 3")

	back, err := LoadProvenance(job.ProvenanceOut)
	require.NoError(t, err)
	assert.Equal(t, prov.RunID, back.RunID)
	assert.Equal(t, sha(t, hPath), back.Datasets.Happiness.FileHash)
	assert.Equal(t, sha(t, gPath), back.Datasets.Indicators.FileHash)
	assert.Equal(t, int64(len(happinessCSV)), back.Datasets.Happiness.SizeBytes)
	assert.Equal(t, 2, back.Datasets.Happiness.RowsOut)
	assert.Equal(t, 3, back.Datasets.Indicators.RowsOut)
	assert.Equal(t, "https://example.org/happiness", back.Datasets.Happiness.SourceURL)
	assert.Equal(t, time.UTC, back.Timestamp.Location())
	assert.Equal(t, 11, back.Timestamp.Hour())
	assert.Equal(t, "embedded", back.CountryTable.Source)
	assert.Equal(t, 2018, back.TargetYear)
	assert.Equal(t, Steps(2018, back.CountryTable.Version), back.CleaningSteps)

	// round trip: the written file reads back as the cleaned table
	cleaned, err := table.ReadCSV(job.HappinessOut, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, cleaned.Len())
	scores, _ := cleaned.Column(ColScore)
	assert.Equal(t, []string{"7.632", "4.743"}, scores)
}

func TestRunMissingInputIsFatal(t *testing.T) {
	dir := t.TempDir()
	job := Job{
		HappinessPath:  filepath.Join(dir, "nope.csv"),
		IndicatorsPath: filepath.Join(dir, "nope2.csv"),
		Options:        defaultOptions(t),
	}
	_, err := Run(job, &bytes.Buffer{}, nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
