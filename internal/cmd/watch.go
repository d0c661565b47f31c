package cmd

import (
	"fmt"

	"github.com/atikulmunna/logpage/internal/excerpt"
	"github.com/atikulmunna/logpage/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var watchCmd = &cobra.Command{
	Use:   "watch [patterns...]",
	Short: "Republish excerpts whenever log pages change",
	Long: `Watch one or more log pages (or glob patterns) and write each rendered
excerpt into the publish directory whenever its source changes. Unchanged
output is not rewritten. Each published excerpt is also printed in the
selected output format.

Examples:
  logpage watch
  logpage watch site/cvs/index.html --publish-dir public/includes
  logpage watch "site/**/index.html" --output json`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("publish-dir", "", "directory receiving rendered fragments (default: public)")
	cobra.CheckErr(viper.BindPFlag("publish.dir", watchCmd.Flags().Lookup("publish-dir")))
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	patterns := args
	if len(patterns) == 0 {
		patterns = []string{cfg.Source}
	}

	renderer, err := output.New(cfg.Output, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	p, err := newPipeline(patterns, excerpt.NewRenderer(cfg.Attribution))
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "logpage watching %d file(s), publishing to %s:\n", len(p.watcher.Paths()), cfg.Publish.Dir)
	for _, path := range p.watcher.Paths() {
		fmt.Fprintf(errOut, "   • %s\n", path)
	}

	ctx, cancel := signalContext()
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// Subscribe before the hub starts so the initial publish is not missed.
	_, updates := p.hub.Subscribe()
	p.run(ctx, g)

	g.Go(func() error {
		for ex := range updates {
			if err := renderer.Render(ex); err != nil {
				logger.Warn("output failed", zap.Error(err))
			}
		}
		return nil
	})

	return g.Wait()
}
