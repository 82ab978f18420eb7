package board

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/boardviz/pkg/errors"
	"github.com/matzehuels/boardviz/pkg/observability"
	"github.com/matzehuels/boardviz/pkg/render/nodelink"
)

// ErrInvalidContact matches every [*InvalidContactError] via errors.Is.
var ErrInvalidContact = errors.New("invalid contact")

// InvalidContactError is returned by [Graph.AddConnection] when one or both
// endpoints are not contacts of the board.
type InvalidContactError struct {
	First, Second string
	Unknown       []string // the unrecognised IDs, in argument order
}

func (e *InvalidContactError) Error() string {
	return fmt.Sprintf("contacts %s and/or %s are not on this board (unknown: %s)",
		e.First, e.Second, strings.Join(e.Unknown, ", "))
}

// Is makes errors.Is(err, ErrInvalidContact) hold.
func (e *InvalidContactError) Is(target error) bool { return target == ErrInvalidContact }

// Code reports the machine-readable error code.
func (e *InvalidContactError) Code() errs.Code { return errs.ErrCodeInvalidContact }

// Renderer lays out DOT source and returns SVG bytes.
type Renderer func(ctx context.Context, dot string) ([]byte, error)

// Update is delivered to subscribers after every successful connection.
type Update struct {
	Seq        int        // 1 for the first connection, incrementing
	Connection Connection // the connection just added
	EdgeCount  int        // connections recorded, including this one
	SVG        []byte     // full re-render of the board
}

// Option configures a [Graph].
type Option func(*Graph)

// WithStyle sets the style new connections are drawn with.
func WithStyle(s Style) Option {
	return func(g *Graph) { g.style = s }
}

// WithRenderer replaces the Graphviz renderer.
func WithRenderer(r Renderer) Option {
	return func(g *Graph) {
		if r != nil {
			g.render = r
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithComment sets the comment written at the top of the DOT source.
func WithComment(c string) Option {
	return func(g *Graph) { g.comment = c }
}

type subscriber struct {
	id int
	fn func(Update)
}

// Graph is the set of contacts on a board plus the connections recorded
// between them. The contact set is fixed at construction; connections are
// append-only.
//
// The zero value is not usable - use [New].
type Graph struct {
	gridSize  int
	coordSize float64

	contacts    map[string]Contact
	order       []string // contact IDs, sorted
	connections []Connection

	style   Style
	comment string
	render  Renderer
	logger  *log.Logger

	subs    []subscriber
	nextSub int
}

// New builds a graph for a gridSize×gridSize board drawn on a square of side
// coordSize. Each contact's layout position is computed once with
// [GridToCoords]. An empty contact mapping is valid.
//
// Returns an INVALID_CONFIG error if gridSize or coordSize is not positive or
// a contact ID is not a valid label.
func New(gridSize int, coordSize float64, contacts map[string]Tile, opts ...Option) (*Graph, error) {
	if gridSize <= 0 {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "grid size must be positive, got %d", gridSize)
	}
	if !(coordSize > 0) {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "coord size must be positive, got %v", coordSize)
	}

	g := &Graph{
		gridSize:  gridSize,
		coordSize: coordSize,
		contacts:  make(map[string]Contact, len(contacts)),
		order:     SortedIDs(contacts),
		style:     DefaultStyle,
		comment:   "ALD interface board",
		render:    nodelink.RenderSVG,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	for _, id := range g.order {
		if err := errs.ValidateContactID(id); err != nil {
			return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "contact %q", id)
		}
		tile := contacts[id]
		g.contacts[id] = Contact{
			ID:   id,
			Tile: tile,
			Pos:  GridToCoords(gridSize, coordSize, tile),
		}
	}

	return g, nil
}

// GridSize returns the number of tiles along one side of the board.
func (g *Graph) GridSize() int { return g.gridSize }

// CoordSize returns the side length of the board in layout coordinates.
func (g *Graph) CoordSize() float64 { return g.coordSize }

// AspectRatio returns the board's height/width ratio.
func (g *Graph) AspectRatio() float64 { return AspectRatio }

// Style returns the style new connections are drawn with.
func (g *Graph) Style() Style { return g.style }

// Contacts returns all contacts sorted by ID.
func (g *Graph) Contacts() []Contact {
	out := make([]Contact, len(g.order))
	for i, id := range g.order {
		out[i] = g.contacts[id]
	}
	return out
}

// Contact returns the contact with the given ID.
func (g *Graph) Contact(id string) (Contact, bool) {
	c, ok := g.contacts[id]
	return c, ok
}

// HasContact reports whether id is a contact of the board.
func (g *Graph) HasContact(id string) bool {
	_, ok := g.contacts[id]
	return ok
}

// Connections returns a copy of the recorded connections in insertion order.
func (g *Graph) Connections() []Connection {
	return slices.Clone(g.connections)
}

// EdgeCount returns the number of recorded connections.
func (g *Graph) EdgeCount() int { return len(g.connections) }

// Subscribe registers fn to be called with every [Update]. Subscribers are
// called synchronously, in registration order, before AddConnection
// returns. The returned function removes the subscription.
func (g *Graph) Subscribe(fn func(Update)) (unsubscribe func()) {
	g.nextSub++
	id := g.nextSub
	g.subs = append(g.subs, subscriber{id: id, fn: fn})
	return func() {
		g.subs = slices.DeleteFunc(g.subs, func(s subscriber) bool { return s.id == id })
	}
}

// AddConnection records a connection between two contacts, re-renders the
// board and notifies subscribers with the new image.
//
// If either ID is unknown it returns an [*InvalidContactError] and nothing
// changes. Connecting a contact to itself is rejected with INVALID_INPUT.
// If rendering fails the connection stays recorded, subscribers are not
// notified, and a RENDER_FAILED error is returned.
//
// Adding the same pair twice records two connections.
func (g *Graph) AddConnection(ctx context.Context, first, second string) error {
	if err := g.validate(first, second); err != nil {
		observability.Board().OnConnectionRejected(ctx, first, second, err)
		return err
	}

	c := Connection{First: first, Second: second, Style: g.style}
	g.connections = append(g.connections, c)
	g.logger.Debug("connection added", "first", first, "second", second, "edges", len(g.connections))
	observability.Board().OnConnectionAdded(ctx, first, second, len(g.connections))

	svg, err := g.Render(ctx)
	if err != nil {
		return errs.Wrap(errs.ErrCodeRender, err, "render after connecting %s", c)
	}

	u := Update{
		Seq:        len(g.connections),
		Connection: c,
		EdgeCount:  len(g.connections),
		SVG:        svg,
	}
	for _, s := range slices.Clone(g.subs) {
		s.fn(u)
	}
	return nil
}

func (g *Graph) validate(first, second string) error {
	var unknown []string
	for _, id := range []string{first, second} {
		if !g.HasContact(id) && !slices.Contains(unknown, id) {
			unknown = append(unknown, id)
		}
	}
	if len(unknown) > 0 {
		return &InvalidContactError{First: first, Second: second, Unknown: unknown}
	}
	if first == second {
		return errs.New(errs.ErrCodeInvalidInput, "cannot connect contact %s to itself", first)
	}
	return nil
}

// Diagram returns the renderer-facing description of the current board.
func (g *Graph) Diagram() nodelink.Diagram {
	d := nodelink.Diagram{
		Comment:     g.comment,
		AspectRatio: AspectRatio,
		Nodes:       make([]nodelink.Node, len(g.order)),
		Edges:       make([]nodelink.Edge, len(g.connections)),
	}
	for i, id := range g.order {
		c := g.contacts[id]
		d.Nodes[i] = nodelink.Node{ID: c.ID, X: c.Pos.X, Y: c.Pos.Y}
	}
	for i, c := range g.connections {
		d.Edges[i] = nodelink.Edge{From: c.First, To: c.Second, Color: c.Style.Color, Width: c.Style.Width}
	}
	return d
}

// DOT returns the Graphviz source [Graph.Render] lays out.
func (g *Graph) DOT() string {
	return nodelink.ToDOT(g.Diagram())
}

// Render returns the board as SVG: every contact at its fixed position and
// every connection recorded so far. It does not modify the graph.
func (g *Graph) Render(ctx context.Context) ([]byte, error) {
	start := time.Now()
	svg, err := g.render(ctx, g.DOT())
	elapsed := time.Since(start)
	observability.Board().OnRender(ctx, len(g.order), len(g.connections), len(svg), elapsed, err)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("rendered board", "nodes", len(g.order), "edges", len(g.connections),
		"bytes", len(svg), "duration", elapsed.Round(time.Millisecond))
	return svg, nil
}
