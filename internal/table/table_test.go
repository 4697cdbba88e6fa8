package table

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestReadCSVPadsShortRowsAndStripsBOM(t *testing.T) {
	p := writeFile(t, "raw.csv", "\ufeffcountry, score ,note\nFinland,7.6\n\"Congo (Kinshasa)\",4.2,\"a, b\"\n")
	tb, err := ReadCSV(p, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"country", "score", "note"}, tb.Header)
	require.Equal(t, 2, tb.Len())
	assert.Equal(t, []string{"Finland", "7.6", ""}, tb.Rows[0])
	assert.Equal(t, "a, b", tb.Rows[1][2])
}

func TestReadCSVMalformed(t *testing.T) {
	_, err := ReadCSV(writeFile(t, "bad.csv", "a,b\n1,\"2\n"), 0)
	require.Error(t, err)

	_, err = ReadCSV(writeFile(t, "wide.csv", "a,b\n1,2,3\n"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 fields")

	_, err = ReadCSV(writeFile(t, "empty.csv", ""), 0)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ReadCSV(filepath.Join(t.TempDir(), "missing.csv"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadTSVByExtension(t *testing.T) {
	tb, err := Read(writeFile(t, "raw.tsv", "a\tb\n1\t2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, tb.Rows[0])
}

func TestWriteCSVRoundTrip(t *testing.T) {
	src := New("happiness.csv", []string{"country", "happiness_score", "note"})
	src.Append([]string{"Cote d'Ivoire", "5.001", "quoted, with comma"})
	src.Append([]string{"Finland", "7.632", ""})
	src.Append([]string{"Line\nBreak", "1e-3", "\"q\""})

	p := filepath.Join(t.TempDir(), "out", "clean.csv")
	require.NoError(t, src.WriteCSV(p))
	got, err := ReadCSV(p, 0)
	require.NoError(t, err)
	assert.Equal(t, src.Header, got.Header)
	assert.Equal(t, src.Rows, got.Rows)
}

func TestRenameFilterApply(t *testing.T) {
	tb := New("t", []string{"Score", "Country or region", "extra"})
	tb.Append([]string{"7.6", " Finland ", "x"})
	tb.Append([]string{"", "Chad", "y"})

	changed := tb.Rename(map[string]string{"Score": "happiness_score", "Country or region": "country", "extra": "extra"})
	assert.Equal(t, []string{"Score -> happiness_score", "Country or region -> country"}, changed)
	assert.Equal(t, []string{"happiness_score", "country", "extra"}, tb.Header)

	require.NoError(t, tb.Apply("country", strings.TrimSpace))
	assert.Equal(t, "Finland", tb.Rows[0][1])
	require.Error(t, tb.Apply("nope", strings.TrimSpace))

	kept := tb.Filter(func(r []string) bool { return !IsMissing(r[0]) })
	assert.Equal(t, 1, kept.Len())
	kept.Rows[0][2] = "changed"
	assert.Equal(t, "x", tb.Rows[0][2], "filter must copy rows")

	col, err := tb.Column("extra")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, col)
	assert.Equal(t, []int{1, 0, 0}, tb.MissingCounts())
}

func TestValues(t *testing.T) {
	for _, s := range []string{"", " ", "NA", "N/A", "NaN", "null", "None"} {
		assert.True(t, IsMissing(s), "%q", s)
	}
	assert.False(t, IsMissing("0"))

	x, ok := ParseFloat(" 2018.0 ")
	assert.True(t, ok)
	assert.Equal(t, 2018.0, x)
	_, ok = ParseFloat("NaN")
	assert.False(t, ok)
	_, ok = ParseFloat("Inf")
	assert.False(t, ok)
	_, ok = ParseFloat("Finland")
	assert.False(t, ok)

	eu := NumberFormat{Decimal: ',', Thousands: '.'}
	x, ok = eu.Parse("1.234,5")
	assert.True(t, ok)
	assert.Equal(t, 1234.5, x)

	assert.True(t, IsInteger("156"))
	assert.False(t, IsInteger("1.5"))
	assert.Equal(t, "0.1", FormatFloat(0.1))
	assert.Equal(t, RowKey([]string{"a", "NA"}), RowKey([]string{" a", ""}))
}
