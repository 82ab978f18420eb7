// Package source defines where connection events come from and how they are
// handed to the presentation loop.
//
// # Contract
//
// A [Source] produces (contact, contact) pairs asynchronously for as long as
// it is running. [Source.Start] returns immediately; [Source.Stop] blocks
// until the background worker has exited, and once it returns the handler
// passed to Start is never called again.
//
// # Implementations
//
//   - [github.com/matzehuels/boardviz/pkg/source/random]: placeholder that
//     invents a pair of distinct contacts on a timer
//   - [github.com/matzehuels/boardviz/pkg/source/tail]: follows a text file
//     an external measurement process appends pairs to
//   - [github.com/matzehuels/boardviz/pkg/source/redis]: subscribes to a
//     Redis pub/sub channel
//
// All of them embed a [Worker], which owns the goroutine, the cancellation
// token and the join. Sources that dial an external process wrap the first
// connection attempt in [Retry].
//
// # Stop Semantics
//
// Stop cancels the worker's context. A pending sleep or read is abandoned
// immediately; a handler call already in progress completes before Stop
// returns; an event produced after cancellation is dropped.
//
// # Handoff
//
// Workers never touch the board. They post events into a [Mailbox], a
// bounded buffer that never blocks the producer, and the presentation loop
// receives from it in arrival order.
package source
