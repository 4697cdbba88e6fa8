package profile

import (
	"fmt"
	"sort"
	"strings"
)

// Markdown renders a compact profile suitable for the console or standalone docs.
func (d *Dataset) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if d.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", d.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", d.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", d.Columns))

	stats := map[string]Describe{}
	for _, s := range d.DescriptiveStats {
		stats[s.Column] = s
	}
	cats := map[string]Categorical{}
	for _, c := range d.CategoricalAnalysis {
		cats[c.Column] = c
	}
	outl := map[string]Outlier{}
	for _, o := range d.QualityChecks.Outliers {
		outl[o.Column] = o
	}

	b.WriteString("[SCHEMA]\n")
	for _, ct := range d.DataTypes {
		missPct := 0.0
		if d.Rows > 0 {
			missPct = float64(d.Rows-ct.NonNull) * 100.0 / float64(d.Rows)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, unique %d, missing %.1f%%)", safeName(ct.Column), ct.DataType, ct.NonNull, ct.Unique, missPct))
		if s, ok := stats[ct.Column]; ok && s.Count > 0 {
			b.WriteString(fmt.Sprintf(": min %s, median %s, max %s, mean %s, std %s",
				fmtStat(s.Min), fmtStat(s.Median), fmtStat(s.Max), fmtStat(s.Mean), fmtStat(s.Std)))
			if o, ok := outl[ct.Column]; ok {
				b.WriteString(fmt.Sprintf("; outliers: %d outside [%s, %s]", o.Count, fmtStat(o.Lower), fmtStat(o.Upper)))
			}
		}
		if c, ok := cats[ct.Column]; ok && len(c.TopValues) > 0 {
			b.WriteString(": top ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
		b.WriteString("\n")
	}

	if len(d.Distributions) > 0 {
		b.WriteString("\n[DISTRIBUTIONS]\n")
		for _, x := range d.Distributions {
			b.WriteString(fmt.Sprintf("- %s: skew %s, kurtosis %s\n", x.Column, fmtStat(x.Skewness), fmtStat(x.Kurtosis)))
		}
	}

	b.WriteString("\n[QUALITY]\n")
	b.WriteString(fmt.Sprintf("- duplicate rows: %d\n", d.QualityChecks.DuplicateRows))
	if len(d.MissingValues) == 0 {
		b.WriteString("- no missing values\n")
	}
	for _, m := range d.MissingValues {
		b.WriteString(fmt.Sprintf("- missing %s: %d (%.2f%%)\n", m.Column, m.Count, m.Percentage))
	}
	neg := make([]string, 0, len(d.QualityChecks.NegativeValues))
	for k := range d.QualityChecks.NegativeValues {
		neg = append(neg, k)
	}
	sort.Strings(neg)
	for _, k := range neg {
		b.WriteString(fmt.Sprintf("- negative %s: %d\n", k, d.QualityChecks.NegativeValues[k]))
	}

	if d.Correlations != nil && len(d.Correlations.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range d.Correlations.TopPairs(10) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	return b.String()
}

func fmtStat(s Stat) string {
	if !s.Valid() {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", float64(s))
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
