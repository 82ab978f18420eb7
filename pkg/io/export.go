package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/boardviz/pkg/board"
)

type document struct {
	GridSize    int          `json:"grid_size"`
	CoordSize   float64      `json:"coord_size"`
	Contacts    []contact    `json:"contacts"`
	Connections []Connection `json:"connections"`
}

type contact struct {
	ID   string     `json:"id"`
	Tile [2]int     `json:"tile"`
	Pos  [2]float64 `json:"pos"`
}

// Connection is the JSON form of a [board.Connection].
type Connection struct {
	First  string  `json:"first"`
	Second string  `json:"second"`
	Color  string  `json:"color,omitempty"`
	Width  float64 `json:"width,omitempty"`
}

// FromConnections converts board connections to their JSON form.
func FromConnections(cs []board.Connection) []Connection {
	out := make([]Connection, len(cs))
	for i, c := range cs {
		out[i] = Connection{First: c.First, Second: c.Second, Color: c.Style.Color, Width: c.Style.Width}
	}
	return out
}

// WriteJSON encodes a board as JSON and writes it to w. Contacts are sorted
// by ID and connections keep insertion order.
func WriteJSON(g *board.Graph, w io.Writer) error {
	contacts := g.Contacts()
	out := document{
		GridSize:    g.GridSize(),
		CoordSize:   g.CoordSize(),
		Contacts:    make([]contact, len(contacts)),
		Connections: FromConnections(g.Connections()),
	}
	for i, c := range contacts {
		out.Contacts[i] = contact{
			ID:   c.ID,
			Tile: [2]int{c.Tile.X, c.Tile.Y},
			Pos:  [2]float64{c.Pos.X, c.Pos.Y},
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a board to a JSON file at path.
func ExportJSON(g *board.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}
