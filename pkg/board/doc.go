// Package board models a substrate contact board and the electrical
// connections detected between its contacts.
//
// # Overview
//
// A board is a square grid of tiles. Some tiles carry a labeled contact
// ("01", "02", ...). [GridToCoords] maps a tile to the continuous layout
// coordinate the renderer draws the contact at, and [Graph] owns the fixed
// contact set plus the append-only list of [Connection]s found so far.
//
// # Basic Usage
//
//	g, err := board.New(8, 8.0, board.ReferenceContacts())
//	if err != nil {
//	    return err
//	}
//	unsubscribe := g.Subscribe(func(u board.Update) {
//	    display(u.SVG)
//	})
//	defer unsubscribe()
//
//	if err := g.AddConnection(ctx, "05", "06"); err != nil {
//	    // errors.Is(err, board.ErrInvalidContact) for unknown labels
//	}
//
// # Rendering
//
// [Graph.Render] produces SVG through [nodelink.RenderSVG]. Contacts are
// emitted in sorted ID order and keep the position computed at construction,
// so two graphs built from the same inputs with the same sequence of
// connections render to identical bytes.
//
// # Duplicate Connections
//
// Connections are not deduplicated: adding the same pair twice records and
// draws two overlapping edges.
//
// # Concurrency
//
// Graph is not safe for concurrent use. It is meant to be owned by a single
// presentation loop; producers hand events to that loop instead of calling
// the graph directly.
package board
