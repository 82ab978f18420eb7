package board

import (
	"fmt"
	"maps"
	"slices"
)

// Contact is a labeled point on the board.
type Contact struct {
	ID   string // fixed-width numeric label, e.g. "05"
	Tile Tile
	Pos  Point // layout coordinate derived from Tile at construction
}

// Style is how a connection is drawn.
type Style struct {
	Color string
	Width float64
}

// DefaultStyle draws connections as thick red edges.
var DefaultStyle = Style{Color: "red", Width: 5.0}

// Connection is an electrical link between two distinct contacts. The pair is
// unordered; First and Second keep the order it was reported in.
type Connection struct {
	First  string
	Second string
	Style  Style
}

// Joins reports whether c links contacts a and b in either order.
func (c Connection) Joins(a, b string) bool {
	return (c.First == a && c.Second == b) || (c.First == b && c.Second == a)
}

// String returns "first-second".
func (c Connection) String() string {
	return c.First + "-" + c.Second
}

// Reference board geometry: an 8×8 grid drawn on an 8-inch square with 24
// contacts around its edge.
const (
	ReferenceGridSize  = 8
	ReferenceCoordSize = 8.0
)

// ReferenceContacts returns the contact layout of the ALD interface board.
// Contacts run up the left edge, across the top, down the right edge and
// back along the bottom. A fresh map is returned on every call.
func ReferenceContacts() map[string]Tile {
	return map[string]Tile{
		"20": {0, 1}, "24": {0, 2}, "23": {0, 3},
		"05": {0, 4}, "06": {0, 5}, "02": {0, 6},
		"04": {1, 7}, "03": {2, 7}, "01": {3, 7},
		"07": {4, 7}, "09": {5, 7}, "10": {6, 7},
		"08": {7, 6}, "12": {7, 5}, "11": {7, 4},
		"17": {7, 3}, "18": {7, 2}, "14": {7, 1},
		"16": {6, 0}, "15": {5, 0}, "13": {4, 0},
		"19": {3, 0}, "21": {2, 0}, "22": {1, 0},
	}
}

// FormatLabel renders contact number n as a zero-padded label of the given
// width, e.g. FormatLabel(5, 2) == "05".
func FormatLabel(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}

// SortedIDs returns the keys of a contact mapping in ascending order.
func SortedIDs(contacts map[string]Tile) []string {
	return slices.Sorted(maps.Keys(contacts))
}
