package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/happipe-cli/internal/console"
	"github.com/KaramelBytes/happipe-cli/internal/countries"
)

var countriesCmd = &cobra.Command{
	Use:   "countries [name...]",
	Short: "List the country name table or resolve names against it",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if c, err := requireConfig(); err == nil {
			path = c.CountryTable
		}
		ct, err := countries.Load(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(args) > 0 {
			rows := make([][]string, 0, len(args))
			for _, a := range args {
				rows = append(rows, []string{a, ct.Standardize(a)})
			}
			console.Table(out, []string{"input", "canonical"}, rows)
			return nil
		}
		src := "embedded"
		if path != "" {
			src = path
		}
		fmt.Fprintf(out, "Country table %s (%s, %d mappings)\n", ct.Version, src, ct.Len())
		rows := make([][]string, 0, ct.Len())
		for _, e := range ct.Entries() {
			rows = append(rows, []string{e.Raw, e.Canonical})
		}
		console.Table(out, []string{"raw", "canonical"}, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
}
