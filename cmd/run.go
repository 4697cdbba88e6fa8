package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/happipe-cli/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full workflow: clean, profile, merge, visualize",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorkflow(cmd)
	},
}

// stageCmd wraps a single stage as a subcommand.
func stageCmd(use, short string, fn func(rc *runContext, ctx context.Context, w io.Writer) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := requireConfig()
			if err != nil {
				return err
			}
			return fn(newRunContext(c), cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runWorkflow(cmd *cobra.Command) error {
	c, err := requireConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	_, err = newRunContext(c).workflow(out).Run(ctx)
	if pipeline.IsDependency(err) {
		fmt.Fprintln(out, "Check the directories and country_table with: happipe config show")
	}
	return err
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(stageCmd("clean", "Clean the raw datasets and write provenance", (*runContext).clean))
	rootCmd.AddCommand(stageCmd("profile", "Profile the cleaned datasets", (*runContext).profile))
	rootCmd.AddCommand(stageCmd("merge", "Join the cleaned datasets by country", (*runContext).merge))
	rootCmd.AddCommand(stageCmd("visualize", "Render charts of the merged dataset", (*runContext).visualize))
}
