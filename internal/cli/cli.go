// Package cli implements the boardviz command-line interface.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/matzehuels/boardviz/internal/metrics"
	"github.com/matzehuels/boardviz/pkg/board"
	"github.com/matzehuels/boardviz/pkg/buildinfo"
	"github.com/matzehuels/boardviz/pkg/config"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used in titles and completions.
	appName = "boardviz"

	// boardTitle is the default page and DOT title.
	boardTitle = "ALD interface board"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "boardviz draws live connection graphs of contact-grid boards",
		Long: `boardviz shows which contacts of a contact-grid board are electrically
connected. Contacts sit at fixed positions; each reported connection is drawn
as an edge and the board is re-rendered with Graphviz.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (.toml, .yaml or .yml)")

	root.AddCommand(c.runCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.contactsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Setup
// =============================================================================

// loadConfig reads --config, or returns the reference defaults when unset.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", c.configPath, "contacts", len(cfg.Contacts), "source", cfg.Source.Kind)
	return cfg, nil
}

// newGraph builds the board described by cfg.
func newGraph(cfg *config.Config, logger *log.Logger, opts ...board.Option) (*board.Graph, error) {
	base := []board.Option{
		board.WithStyle(cfg.BoardStyle()),
		board.WithLogger(logger),
		board.WithComment(boardTitle),
	}
	return board.New(cfg.GridSize, cfg.CoordSize, cfg.Tiles(), append(base, opts...)...)
}

// newMetrics installs Prometheus hooks on a fresh registry and returns it
// for the web display.
func newMetrics() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.NewPrometheus(reg).Install()
	return reg
}
