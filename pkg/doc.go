// Package pkg provides the core libraries for boardviz, a live view of the
// electrical connections between contacts of a contact-grid board.
//
// # Overview
//
// A board is a square grid of tiles; some tiles carry a labelled contact.
// A measurement process reports pairs of contacts it found connected, and
// boardviz draws each pair as an edge between fixed node positions,
// re-rendering the board with Graphviz after every report.
//
// # Architecture
//
// The data flow through boardviz:
//
//	measurement process
//	         ↓
//	    [source] package (random, tail or redis worker)
//	         ↓
//	    [source.Mailbox] (bounded handoff to the presentation loop)
//	         ↓
//	    [board] package (contacts, connections, add_connection)
//	         ↓
//	    [render/nodelink] package (DOT + Graphviz NEATO → SVG)
//	         ↓
//	    terminal UI, web page, or SVG/DOT/JSON file
//
// # Quick Start
//
//	g, _ := board.New(board.ReferenceGridSize, board.ReferenceCoordSize,
//	    board.ReferenceContacts())
//	g.Subscribe(func(u board.Update) {
//	    os.WriteFile("board.svg", u.SVG, 0o644)
//	})
//	_ = g.AddConnection(ctx, "05", "06")
//
// # Main Packages
//
// [board] - Grid geometry, contacts and the append-only connection graph.
//
// [render/nodelink] - DOT generation with pinned node positions and SVG
// layout through Graphviz.
//
// [source] - Connection sources with start/stop semantics and the mailbox
// that hands events to a single presentation goroutine.
//
// [config] - TOML and YAML configuration for the board and runtime.
//
// [io] - JSON import/export of boards and plain-text connection lists.
//
// [cache] - Render cache keyed by DOT source (file or Redis).
//
// [observability] - Hooks for metrics on connections, renders and sources.
//
// [errors] - Error codes shared by every package.
//
// [board]: https://pkg.go.dev/github.com/matzehuels/boardviz/pkg/board
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/boardviz/pkg/render/nodelink
// [source]: https://pkg.go.dev/github.com/matzehuels/boardviz/pkg/source
// [config]: https://pkg.go.dev/github.com/matzehuels/boardviz/pkg/config
// [io]: https://pkg.go.dev/github.com/matzehuels/boardviz/pkg/io
// [cache]: https://pkg.go.dev/github.com/matzehuels/boardviz/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/boardviz/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/boardviz/pkg/errors
//
// [source.Mailbox]: https://pkg.go.dev/github.com/matzehuels/boardviz/pkg/source#Mailbox
package pkg
