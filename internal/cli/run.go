package cli

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/boardviz/internal/app"
	"github.com/matzehuels/boardviz/internal/web"
	"github.com/matzehuels/boardviz/pkg/board"
	"github.com/matzehuels/boardviz/pkg/config"
	"github.com/matzehuels/boardviz/pkg/source"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	sourceFlags
	save    string // where "s" writes the current SVG
	http    string // also serve the web display on this address
	logFile string // log destination while the terminal display is up
}

// runCommand creates the run command: the live terminal display.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Show the board live in the terminal",
		Long: `Start the configured connection source and show the board in the terminal.
Each reported connection is drawn immediately. Press s to save the current SVG
and q to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLive(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.kind, "source", "", "connection source: random, tail, redis")
	cmd.Flags().StringVar(&opts.interval, "interval", "", "random source interval (e.g. 500ms)")
	cmd.Flags().StringVar(&opts.path, "path", "", "file followed by the tail source")
	cmd.Flags().StringVar(&opts.save, "save", "", "path the s key saves to (default from config)")
	cmd.Flags().StringVar(&opts.http, "http", "", "also serve the web display on this address (e.g. :8080)")
	cmd.Flags().StringVar(&opts.logFile, "log-file", "", "write logs to this file (discarded if unset)")
	registerSourceCompletion(cmd)

	return cmd
}

func (c *CLI) runLive(ctx context.Context, opts runOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if opts.save != "" {
		cfg.Display.SavePath = opts.save
	}
	if opts.http != "" {
		cfg.Display.HTTPAddr = opts.http
	}
	if err := opts.apply(cfg); err != nil {
		return err
	}

	closeLog, err := redirectLogs(c.Logger, opts.logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := c.Logger

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

	sessOpts := []app.SessionOption{app.WithHistory(cfg.Display.History), app.WithLogger(logger)}
	var server *web.Server
	if cfg.Display.HTTPAddr != "" {
		var publish app.SessionOption
		server, publish = newWebDisplay(cfg, reg, logger)
		sessOpts = append(sessOpts, publish)
	}
	session, err := app.NewSession(ctx, g, sessOpts...)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewBoardModel(ctx, session, src.Name(), cfg.Display.SavePath, cfg.Display.HTTPAddr)
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())

	eg, egctx := errgroup.WithContext(ctx)
	if server != nil {
		eg.Go(func() error { return server.Run(egctx, cfg.Display.HTTPAddr) })
	}

	mb := source.NewMailbox(source.DefaultMailboxSize, logger)
	if err := src.Start(ctx, mb.Handler()); err != nil {
		return err
	}
	eg.Go(func() error {
		forwardEvents(egctx, mb, p)
		return nil
	})
	eg.Go(func() error {
		watchSource(egctx, src, p)
		return nil
	})
	eg.Go(func() error {
		// A failed web display ends the session.
		<-egctx.Done()
		p.Quit()
		return nil
	})

	_, runErr := p.Run()

	stopErr := src.Stop()
	mb.Close()
	cancel()
	waitErr := eg.Wait()

	if stopErr != nil {
		printWarning("source %s stopped with error: %v", src.Name(), stopErr)
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return waitErr
}

// forwardEvents hands mailbox events to the program in arrival order until
// the mailbox closes or ctx is done.
func forwardEvents(ctx context.Context, mb *source.Mailbox, p *tea.Program) {
	for {
		ev, ok := mb.Receive(ctx)
		if !ok {
			return
		}
		p.Send(eventMsg(ev))
	}
}

// watchSource reports a source that ends on its own, e.g. a lost Redis
// connection.
func watchSource(ctx context.Context, src source.Source, p *tea.Program) {
	w, ok := src.(interface {
		Done() <-chan struct{}
		Err() error
	})
	if !ok {
		return
	}
	select {
	case <-ctx.Done():
	case <-w.Done():
		if ctx.Err() == nil {
			p.Send(sourceDoneMsg{err: w.Err()})
		}
	}
}

// newWebDisplay builds the web server and the session option that feeds
// its snapshot store.
func newWebDisplay(cfg *config.Config, reg prometheus.Gatherer, logger *log.Logger) (*web.Server, app.SessionOption) {
	hub := web.NewHub(logger)
	store := web.NewStore(hub)
	server := web.NewServer(store, hub, web.Options{
		Title:    boardTitle,
		Width:    cfg.Display.Width,
		Aspect:   board.AspectRatio,
		Gatherer: reg,
		Logger:   logger,
	})
	return server, app.WithPublisher(store.Publish)
}
