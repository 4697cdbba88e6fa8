package console

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestOutputMarkers(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	Banner(&buf, "CLEANING SUMMARY")
	OK(&buf, "wrote %s", "a.csv")
	Warn(&buf, "missing %d", 2)
	Fail(&buf, "stage %q failed", "merge")
	out := buf.String()
	assert.Contains(t, out, "CLEANING SUMMARY")
	assert.Contains(t, out, "✓ wrote a.csv\n")
	assert.Contains(t, out, "⚠ missing 2\n")
	assert.Contains(t, out, "✗ stage \"merge\" failed\n")
}

func TestTableAndKeyValues(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []string{"column", "missing"}, [][]string{{"happiness_score", "1"}})
	assert.Contains(t, buf.String(), "happiness_score")
	assert.Contains(t, buf.String(), "column")

	buf.Reset()
	KeyValues(&buf, [][2]string{{"Countries", "2"}, {"Variables", "9"}})
	assert.Equal(t, "  - Countries: 2\n  - Variables: 9\n", buf.String())
}
