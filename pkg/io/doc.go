// Package io reads and writes boards and connection lists.
//
// # JSON Format
//
// [WriteJSON] encodes a board as its contacts and recorded connections:
//
//	{
//	  "grid_size": 8,
//	  "coord_size": 8,
//	  "contacts": [
//	    {"id": "05", "tile": [0, 4], "pos": [0, 4]}
//	  ],
//	  "connections": [
//	    {"first": "05", "second": "06", "color": "red", "width": 5}
//	  ]
//	}
//
// [ReadJSON] accepts the same document and rebuilds the board by replaying
// its connections in order.
//
// # Connection Lists
//
// [ReadConnections] reads one pair per line in any form accepted by
// [source.ParsePair]. Blank lines and lines starting with '#' are skipped;
// malformed lines are reported but do not stop the read.
package io
