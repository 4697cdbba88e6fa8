// Package console holds the shared console rendering used by every stage.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
	headColor = color.New(color.FgCyan, color.Bold)
)

// Banner prints a title between two rules.
func Banner(w io.Writer, title string) {
	rule := strings.Repeat("=", 60)
	headColor.Fprintln(w, rule)
	headColor.Fprintln(w, title)
	headColor.Fprintln(w, rule)
}

// Section prints a sub-heading.
func Section(w io.Writer, title string) {
	warnColor.Fprintf(w, "\n%s\n", title)
}

// OK prints a success line.
func OK(w io.Writer, format string, args ...any) {
	okColor.Fprintf(w, "✓ "+format+"\n", args...)
}

// Warn prints a warning line.
func Warn(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, "⚠ "+format+"\n", args...)
}

// Fail prints a failure line.
func Fail(w io.Writer, format string, args ...any) {
	failColor.Fprintf(w, "✗ "+format+"\n", args...)
}

// Table renders rows under header as a bordered text table.
func Table(w io.Writer, header []string, rows [][]string) {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.AppendBulk(rows)
	t.Render()
}

// KeyValues renders label/value pairs as an indented list.
func KeyValues(w io.Writer, pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	for _, p := range pairs {
		fmt.Fprintf(w, "  - %-*s %s\n", width+1, p[0]+":", p[1])
	}
}
