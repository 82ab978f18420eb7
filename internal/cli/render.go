package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/boardviz/pkg/board"
	"github.com/matzehuels/boardviz/pkg/cache"
	errs "github.com/matzehuels/boardviz/pkg/errors"
	bio "github.com/matzehuels/boardviz/pkg/io"
)

// Output formats for the render command.
const (
	formatSVG  = "svg"
	formatDOT  = "dot"
	formatJSON = "json"
)

var renderFormats = []string{formatSVG, formatDOT, formatJSON}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	connections string // connection list, "-" for stdin
	output      string // output file, stdout if empty
	format      string // svg, dot or json
}

// renderCommand creates the one-shot render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: formatSVG}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the board once from a list of connections",
		Long: `Build the configured board, apply the connections listed in a file (one
pair per line, e.g. "05 06"), and write the result. Invalid lines and unknown
contacts are logged and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(renderFormats, opts.format) {
				return errs.New(errs.ErrCodeInvalidFormat, "unknown format %q (want %s)",
					opts.format, strings.Join(renderFormats, ", "))
			}
			if opts.output != "" {
				if err := errs.ValidateOutputPath(opts.output); err != nil {
					return err
				}
			}
			return c.render(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.connections, "connections", "", `connection list file ("-" for stdin)`)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, dot, json")
	registerSourceCompletion(cmd)

	return cmd
}

func (c *CLI) render(ctx context.Context, stdin io.Reader, stdout io.Writer, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	// Connections are replayed without intermediate renders; the board is
	// laid out once at the end.
	g, err := newGraph(cfg, logger, board.WithRenderer(func(context.Context, string) ([]byte, error) {
		return nil, nil
	}))
	if err != nil {
		return err
	}

	skipped, err := applyConnections(ctx, g, opts.connections, stdin)
	if err != nil {
		return err
	}

	var out []byte
	switch opts.format {
	case formatSVG:
		spin := newSpinner(ctx, statusOut, "Laying out board")
		if opts.output != "" {
			spin.Start()
		}
		var rc cache.Cache
		rc, err = openRenderCache(cfg, logger)
		if err != nil {
			return err
		}
		defer rc.Close()
		out, err = cachedRenderer(rc, cfg)(ctx, g.DOT())
		if err != nil {
			spin.StopWithError("Layout failed")
			return errs.Wrap(errs.ErrCodeRender, err, "render board")
		}
		spin.Stop()
	case formatDOT:
		out = []byte(g.DOT())
	case formatJSON:
		var buf bytes.Buffer
		if err := bio.WriteJSON(g, &buf); err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err, "encode board")
		}
		out = buf.Bytes()
	}

	if opts.output == "" {
		_, err := stdout.Write(out)
		return err
	}
	if err := os.WriteFile(opts.output, out, 0o644); err != nil {
		return errs.Wrap(errs.ErrCodeIO, err, "write %s", opts.output)
	}
	prog.done(fmt.Sprintf("Rendered %d connections", g.EdgeCount()))
	printSuccess("Rendered board")
	printFile(opts.output)
	printStats(len(g.Contacts()), g.EdgeCount(), skipped)
	return nil
}

// applyConnections reads path (or stdin for "-") and adds every valid pair
// to g. It returns how many lines were skipped.
func applyConnections(ctx context.Context, g *board.Graph, path string, stdin io.Reader) (int, error) {
	if path == "" {
		return 0, nil
	}
	logger := loggerFromContext(ctx)

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return 0, errs.Wrap(errs.ErrCodeIO, err, "open connections")
		}
		defer f.Close()
		r = f
	}

	pairs, bad, err := bio.ReadConnections(r)
	if err != nil {
		return 0, err
	}
	for _, le := range bad {
		logger.Warn("skipping malformed line", "line", le.Line, "text", le.Text)
	}

	skipped := len(bad)
	for _, p := range pairs {
		if err := g.AddConnection(ctx, p.First, p.Second); err != nil {
			logger.Warn("skipping connection", "line", p.Line, "first", p.First, "second", p.Second, "err", err)
			skipped++
		}
	}
	logger.Debug("applied connections", "added", g.EdgeCount(), "skipped", skipped)
	return skipped, nil
}
