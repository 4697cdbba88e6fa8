package visualize

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/happipe-cli/internal/profile"
	"github.com/KaramelBytes/happipe-cli/internal/table"
)

const mergedCSV = `country,happiness_score,social_support,freedom,generosity,continent,year,life_expectancy,hdi,gdp_per_capita
Finland,7.632,1.592,0.681,0.202,Europe,2018,81.7,0.940,46000
Norway,7.594,1.582,0.686,0.286,Europe,2018,82.3,0.954,75000
Chile,6.476,1.258,0.477,0.181,Americas,2018,80.0,0.847,
Ghana,4.657,0.943,0.435,0.230,Africa,2018,63.8,0.596,2200
Japan,5.915,1.419,0.565,0.116,Asia,2018,84.5,0.915,39000
Fiji,5.800,1.200,0.500,0.300,,2018,67.3,0.743,5800
`

func mergedTable(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.ParseCSV(strings.NewReader(mergedCSV), "merged.csv", ',')
	require.NoError(t, err)
	return tb
}

func TestContinentColor(t *testing.T) {
	assert.Equal(t, uint8(255), ContinentColor("Africa").R)
	assert.Equal(t, uint8(255), ContinentColor("Americas").B)
	assert.Equal(t, fallbackColor, ContinentColor("Antarctica"))
	assert.Equal(t, fallbackColor, ContinentColor(""))
	for _, c := range []string{"Africa", "Americas", "Asia", "Europe", "Oceania", "Atlantis"} {
		assert.Equal(t, uint8(alpha), ContinentColor(c).A)
	}
}

func TestGroupPointsSkipsMissing(t *testing.T) {
	groups, err := groupPoints(mergedTable(t), Scatters[0].Spec, table.DefaultNumberFormat)
	require.NoError(t, err)
	names := []string{}
	total := 0
	for _, g := range groups {
		names = append(names, g.name)
		total += len(g.xys)
	}
	// Chile has no GDP value
	assert.Equal(t, []string{"Europe", "Africa", "Asia", "Unknown"}, names)
	assert.Equal(t, 5, total)

	_, err = groupPoints(mergedTable(t), ScatterSpec{X: "nope", Y: ColScore}, table.DefaultNumberFormat)
	assert.Error(t, err)
}

func TestHeatmapFromCorrelations(t *testing.T) {
	m, err := profile.Pearson(mergedTable(t), HeatmapColumns, table.DefaultNumberFormat)
	require.NoError(t, err)
	assert.Equal(t, HeatmapColumns, m.Columns)
	assert.InDelta(t, 1.0, m.At(ColScore, ColScore), 1e-12)
	assert.Greater(t, m.At(ColScore, ColGDP), 0.5)

	g := corrGrid{m: m}
	c, r := g.Dims()
	assert.Equal(t, len(HeatmapColumns), c)
	assert.Equal(t, len(HeatmapColumns), r)
	// the top row of the grid is the first matrix row
	assert.Equal(t, float64(m.Values[0][3]), g.Z(3, r-1))

	p, err := Heatmap(m, "test")
	require.NoError(t, err)
	assert.Equal(t, "test", p.Title.Text)

	_, err = Heatmap(&profile.CorrMatrix{}, "empty")
	assert.Error(t, err)
}

func TestRunWritesCharts(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "merged.csv")
	require.NoError(t, os.WriteFile(in, []byte(mergedCSV), 0o644))

	var out bytes.Buffer
	files, err := Run(Job{MergedPath: in, OutDir: filepath.Join(dir, "results"), WidthIn: 4, HeightIn: 3}, &out, nil)
	require.NoError(t, err)
	require.Len(t, files, 3)
	for i, f := range files {
		assert.Equal(t, Files()[i], filepath.Base(f))
		b, err := os.ReadFile(f)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG\r\n\x1a\n")), "%s is not a PNG", f)
	}
	assert.Contains(t, out.String(), "VISUALIZATION COMPLETE")
}

func TestRunFailsOnMissingHeatmapColumn(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "merged.csv")
	src := strings.ReplaceAll(mergedCSV, "generosity", "charity")
	require.NoError(t, os.WriteFile(in, []byte(src), 0o644))

	files, err := Run(Job{MergedPath: in, OutDir: dir}, &bytes.Buffer{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generosity")
	assert.Len(t, files, 2)
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check())
}
