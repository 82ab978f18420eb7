package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/boardviz/internal/app"
	"github.com/matzehuels/boardviz/pkg/board"
	"github.com/matzehuels/boardviz/pkg/source"
)

// defaultServeAddr is used when neither --addr nor display.http_addr is set.
const defaultServeAddr = ":8080"

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	sourceFlags
	addr string
}

// serveCommand creates the serve command: headless loop plus web display.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live board over HTTP",
		Long: `Run the connection source without a terminal display and serve the board
to browsers. The page updates over server-sent events as connections arrive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, else "+defaultServeAddr+")")
	cmd.Flags().StringVar(&opts.kind, "source", "", "connection source: random, tail, redis")
	cmd.Flags().StringVar(&opts.interval, "interval", "", "random source interval (e.g. 500ms)")
	cmd.Flags().StringVar(&opts.path, "path", "", "file followed by the tail source")
	registerSourceCompletion(cmd)

	return cmd
}

func (c *CLI) serve(ctx context.Context, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if err := opts.apply(cfg); err != nil {
		return err
	}
	addr := opts.addr
	if addr == "" {
		addr = cfg.Display.HTTPAddr
	}
	if addr == "" {
		addr = defaultServeAddr
	}

	rc, err := openRenderCache(cfg, logger)
	if err != nil {
		return err
	}
	defer rc.Close()

	reg := newMetrics()
	g, err := newGraph(cfg, logger, board.WithRenderer(cachedRenderer(rc, cfg)))
	if err != nil {
		return err
	}
	src, err := newSource(cfg, logger)
	if err != nil {
		return err
	}

	server, publish := newWebDisplay(cfg, reg, logger)
	session, err := app.NewSession(ctx, g,
		app.WithHistory(cfg.Display.History), app.WithLogger(logger), publish)
	if err != nil {
		return err
	}
	loop := app.NewLoop(session, source.NewMailbox(source.DefaultMailboxSize, logger), logger)

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error { return server.Run(egctx, addr) })
	eg.Go(func() error {
		// Source failures are logged by the worker; the board stays up.
		_ = loop.Serve(egctx, src)
		return nil
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	accepted, rejected, failed := session.Counts()
	logger.Info("stopped", "accepted", accepted, "rejected", rejected, "render_failures", failed)
	return nil
}
