package io

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/boardviz/pkg/board"
	errs "github.com/matzehuels/boardviz/pkg/errors"
	"github.com/matzehuels/boardviz/pkg/source"
)

// ReadJSON decodes a board written by [WriteJSON]. Connections are replayed
// through [board.Graph.AddConnection] so they are validated like live ones;
// the first invalid connection aborts the read.
//
// Positions in the document are ignored and recomputed from the tiles.
func ReadJSON(ctx context.Context, r io.Reader, opts ...board.Option) (*board.Graph, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode board")
	}

	tiles := make(map[string]board.Tile, len(doc.Contacts))
	for _, c := range doc.Contacts {
		if _, dup := tiles[c.ID]; dup {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "duplicate contact %q", c.ID)
		}
		tiles[c.ID] = board.Tile{X: c.Tile[0], Y: c.Tile[1]}
	}

	g, err := board.New(doc.GridSize, doc.CoordSize, tiles, opts...)
	if err != nil {
		return nil, err
	}
	for i, c := range doc.Connections {
		if err := g.AddConnection(ctx, c.First, c.Second); err != nil {
			return nil, fmt.Errorf("connection %d (%s-%s): %w", i, c.First, c.Second, err)
		}
	}
	return g, nil
}

// ImportJSON reads a board from a JSON file at path.
func ImportJSON(ctx context.Context, path string, opts ...board.Option) (*board.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(ctx, f, opts...)
}

// Pair is one connection read from a list.
type Pair struct {
	Line          int
	First, Second string
}

// LineError reports a line [ReadConnections] could not parse.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e LineError) Unwrap() error { return e.Err }

// ReadConnections reads a connection list from r. Malformed lines are
// returned as LineErrors alongside the pairs that did parse; the error
// return is reserved for read failures.
func ReadConnections(r io.Reader) ([]Pair, []LineError, error) {
	var (
		pairs []Pair
		bad   []LineError
	)
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		first, second, err := source.ParsePair(text)
		if err != nil {
			bad = append(bad, LineError{Line: n, Text: text, Err: err})
			continue
		}
		pairs = append(pairs, Pair{Line: n, First: first, Second: second})
	}
	if err := sc.Err(); err != nil {
		return pairs, bad, errs.Wrap(errs.ErrCodeIO, err, "read connections")
	}
	return pairs, bad, nil
}
