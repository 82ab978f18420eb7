// Package app holds the presentation-side state shared by the displays: the
// session that owns the connection graph and the loop that feeds it.
package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/boardviz/pkg/board"
	errs "github.com/matzehuels/boardviz/pkg/errors"
	"github.com/matzehuels/boardviz/pkg/source"
)

// DefaultHistory is the number of recent records kept when none is set.
const DefaultHistory = 10

// Record is the outcome of handling one event.
type Record struct {
	Event source.Event
	Err   error // nil when the connection was drawn
}

// Accepted reports whether the event produced a connection.
func (r Record) Accepted() bool { return r.Err == nil }

// Snapshot is an immutable view of the session for readers outside the
// presentation loop. Slices are never modified after publication.
type Snapshot struct {
	Seq         int
	SVG         []byte
	ETag        string
	Connections []board.Connection
	Recent      []Record // oldest first
	Accepted    int
	Rejected    int
	Failed      int
	UpdatedAt   time.Time
}

// SessionOption configures a [Session].
type SessionOption func(*Session)

// WithHistory sets how many recent records are kept.
func WithHistory(n int) SessionOption {
	return func(s *Session) {
		if n >= 0 {
			s.history = n
		}
	}
}

// WithPublisher registers fn to receive a snapshot after every handled
// event and once at construction.
func WithPublisher(fn func(*Snapshot)) SessionOption {
	return func(s *Session) { s.publish = append(s.publish, fn) }
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session owns a board graph and everything the displays show about it.
// It is not safe for concurrent use; only the presentation loop calls it.
type Session struct {
	graph   *board.Graph
	logger  *log.Logger
	history int
	publish []func(*Snapshot)

	seq    int
	svg    []byte
	recent []Record

	accepted, rejected, failed int
}

// NewSession renders the initial board and returns a session around g.
func NewSession(ctx context.Context, g *board.Graph, opts ...SessionOption) (*Session, error) {
	s := &Session{
		graph:   g,
		logger:  log.Default(),
		history: DefaultHistory,
	}
	for _, opt := range opts {
		opt(s)
	}

	svg, err := g.Render(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeRender, err, "render initial board")
	}
	s.svg = svg
	g.Subscribe(func(u board.Update) {
		s.seq = u.Seq
		s.svg = u.SVG
	})
	s.emit()
	return s, nil
}

// Graph returns the underlying graph.
func (s *Session) Graph() *board.Graph { return s.graph }

// SVG returns the current image. Callers must not modify it.
func (s *Session) SVG() []byte { return s.svg }

// Recent returns up to the configured number of latest records, oldest first.
func (s *Session) Recent() []Record { return slices.Clone(s.recent) }

// Counts returns how many events were drawn, rejected as invalid, and
// recorded but not rendered.
func (s *Session) Counts() (accepted, rejected, failed int) {
	return s.accepted, s.rejected, s.failed
}

// Handle applies one event to the graph. Errors are logged and counted and
// returned in the record; they never stop the session.
func (s *Session) Handle(ctx context.Context, ev source.Event) Record {
	err := s.graph.AddConnection(ctx, ev.First, ev.Second)
	switch {
	case err == nil:
		s.accepted++
		s.logger.Info("connection added", "first", ev.First, "second", ev.Second,
			"source", ev.Source, "edges", s.graph.EdgeCount())
	case errs.Is(err, errs.ErrCodeRender):
		s.failed++
		s.logger.Error("render failed", "first", ev.First, "second", ev.Second, "err", err)
	default:
		s.rejected++
		s.logger.Warn("connection rejected", "first", ev.First, "second", ev.Second,
			"source", ev.Source, "code", errs.GetCode(err), "err", err)
	}

	rec := Record{Event: ev, Err: err}
	if s.history > 0 {
		s.recent = append(s.recent, rec)
		if len(s.recent) > s.history {
			s.recent = slices.Delete(s.recent, 0, len(s.recent)-s.history)
		}
	}
	s.emit()
	return rec
}

// Save writes the current image to path verbatim. Failures are returned as
// IO_FAILED errors for the display to show.
func (s *Session) Save(path string) error {
	if err := errs.ValidateOutputPath(path); err != nil {
		return errs.Wrap(errs.ErrCodeIO, err, "save board")
	}
	if err := os.WriteFile(path, s.svg, 0o644); err != nil {
		return errs.Wrap(errs.ErrCodeIO, err, "save board")
	}
	s.logger.Info("saved board", "path", path, "bytes", len(s.svg))
	return nil
}

// Snapshot returns an immutable copy of the current state.
func (s *Session) Snapshot() *Snapshot {
	sum := sha256.Sum256(s.svg)
	return &Snapshot{
		Seq:         s.seq,
		SVG:         slices.Clone(s.svg),
		ETag:        `"` + hex.EncodeToString(sum[:]) + `"`,
		Connections: s.graph.Connections(),
		Recent:      s.Recent(),
		Accepted:    s.accepted,
		Rejected:    s.rejected,
		Failed:      s.failed,
		UpdatedAt:   time.Now(),
	}
}

func (s *Session) emit() {
	if len(s.publish) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range s.publish {
		fn(snap)
	}
}
