package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/happipe-cli/internal/profile"
	"github.com/KaramelBytes/happipe-cli/internal/table"
	"github.com/KaramelBytes/happipe-cli/internal/utils"
)

var (
	descOutputPath string
	descJSONPath   string
	descDelimiter  string
	descDecimal    string
	descThousands  string
	descTop        int
	descIQR        float64
	descCorr       bool
	descSheetName  string
	descSheetIndex int
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Profile any CSV/TSV/XLSX file and print a Markdown summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		opt := profile.DefaultOptions()
		if descTop > 0 {
			opt.TopValues = descTop
		}
		if descIQR > 0 {
			opt.IQRMultiplier = descIQR
		}
		opt.Correlations = descCorr
		f, err := numberFormat(descDecimal, descThousands)
		if err != nil {
			return err
		}
		opt.Format = f

		t, err := readForDescribe(path)
		if err != nil {
			return err
		}
		ds := profile.Analyze(t, opt)
		md := ds.Markdown()

		out := cmd.OutOrStdout()
		written := false
		if descOutputPath != "" {
			if err := utils.SafeWriteFile(descOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote profile to %s\n", descOutputPath)
			written = true
		}
		if descJSONPath != "" {
			if err := utils.WriteJSON(descJSONPath, ds); err != nil {
				return fmt.Errorf("write json: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote JSON profile to %s\n", descJSONPath)
			written = true
		}
		if !written {
			fmt.Fprintln(out, md)
		}
		return nil
	},
}

func readForDescribe(path string) (*table.Table, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") && (descSheetName != "" || descSheetIndex > 1) {
		return table.ReadXLSX(path, descSheetName, descSheetIndex)
	}
	if descDelimiter == "" {
		return table.Read(path)
	}
	var d rune
	switch descDelimiter {
	case ",":
		d = ','
	case "\t", "tab":
		d = '\t'
	case ";":
		d = ';'
	default:
		return nil, fmt.Errorf("unsupported --delimiter: %s", descDelimiter)
	}
	return table.ReadCSV(path, d)
}

// numberFormat maps the locale flags onto a table.NumberFormat.
func numberFormat(decimal, thousands string) (table.NumberFormat, error) {
	f := table.DefaultNumberFormat
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case ",", "comma":
		f.Decimal = ','
	case ".", "dot", "":
	default:
		return f, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", decimal)
	}
	switch strings.ToLower(strings.TrimSpace(thousands)) {
	case ",":
		f.Thousands = ','
	case ".":
		f.Thousands = '.'
	case "space", " ":
		f.Thousands = ' '
	case "":
	default:
		return f, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", thousands)
	}
	if f.Decimal != 0 && f.Decimal == f.Thousands {
		return f, fmt.Errorf("decimal and thousands separators must differ")
	}
	return f, nil
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	describeCmd.Flags().StringVar(&descJSONPath, "json", "", "optional path to write the profile as JSON")
	describeCmd.Flags().StringVar(&descDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (sniffed if omitted)")
	describeCmd.Flags().StringVar(&descDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	describeCmd.Flags().StringVar(&descThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	describeCmd.Flags().IntVar(&descTop, "top", 5, "most frequent values listed per text column")
	describeCmd.Flags().Float64Var(&descIQR, "iqr", 1.5, "IQR multiplier for outlier fences")
	describeCmd.Flags().BoolVar(&descCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().StringVar(&descSheetName, "sheet-name", "", "XLSX: sheet name to profile")
	describeCmd.Flags().IntVar(&descSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}
