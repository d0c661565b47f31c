package cmd

import (
	"github.com/atikulmunna/logpage/internal/excerpt"
	"github.com/atikulmunna/logpage/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the development page with a live excerpt",
	Long: `Serve a minimal page that includes the excerpt, plus the bare fragment
and JSON endpoints. The source is read fresh on every request; when it is
unreadable the page is still served without the excerpt.

The source is also watched: changes are published like "logpage watch" and
pushed to open pages over a websocket.

Endpoints:
  /              host page
  /excerpt       bare HTML fragment
  /api/excerpt   fragment plus parsed entries (JSON)
  /api/stats     render metrics
  /healthz       liveness
  /ws            live updates`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.String("addr", "", "listen address (default: :8080)")
	flags.Bool("pprof", false, "expose /debug/pprof endpoints")
	cobra.CheckErr(viper.BindPFlag("server.addr", flags.Lookup("addr")))
	cobra.CheckErr(viper.BindPFlag("server.pprof", flags.Lookup("pprof")))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	renderer := excerpt.NewRenderer(cfg.Attribution)

	p, err := newPipeline([]string{cfg.Source}, renderer)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Addr:       cfg.Server.Addr,
		Source:     cfg.Source,
		Renderer:   renderer,
		Hub:        p.hub,
		Aggregator: p.agg,
		Pprof:      cfg.Server.Pprof,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	p.run(ctx, g)
	g.Go(func() error {
		return srv.Start(ctx)
	})

	return g.Wait()
}
