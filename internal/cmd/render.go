package cmd

import (
	"github.com/atikulmunna/logpage/internal/excerpt"
	"github.com/atikulmunna/logpage/internal/output"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render [path]",
	Short: "Render a log page excerpt to stdout",
	Long: `Render the recent-changes list of a log page once and print it.

The default raw format prints the fragment exactly as it should be included
in the page. A missing or unreadable source is an error.

Examples:
  logpage render
  logpage render site/cvs/index.html
  logpage render --output text`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	source := cfg.Source
	if len(args) == 1 {
		source = args[0]
	}

	renderer, err := output.New(cfg.Output, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ex, err := excerpt.NewRenderer(cfg.Attribution).Excerpt(source)
	if err != nil {
		return err
	}
	return renderer.Render(ex)
}
