// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about board mutations, rendering and connection sources.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (Prometheus, OpenTelemetry, logs)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetBoardHooks(metrics.NewPrometheus(reg))
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Board().OnConnectionAdded(ctx, "05", "06", edgeCount)
//	observability.Source().OnEventEmitted(ctx, "random")
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Board Hooks
// =============================================================================

// BoardHooks receives events from the connection graph.
type BoardHooks interface {
	// OnConnectionAdded records an accepted connection.
	OnConnectionAdded(ctx context.Context, first, second string, edgeCount int)

	// OnConnectionRejected records a connection refused by validation.
	OnConnectionRejected(ctx context.Context, first, second string, err error)

	// OnRender records one SVG render of the board.
	OnRender(ctx context.Context, nodes, edges, size int, duration time.Duration, err error)
}

// =============================================================================
// Source Hooks
// =============================================================================

// SourceHooks receives events from connection sources.
type SourceHooks interface {
	// OnEventEmitted records an event handed to the presentation loop.
	OnEventEmitted(ctx context.Context, source string)

	// OnEventDropped records an event that never reached the presentation loop.
	OnEventDropped(ctx context.Context, source, reason string)

	// OnSourceStopped records the end of a source worker. err is nil on a
	// clean stop.
	OnSourceStopped(ctx context.Context, source string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopBoardHooks is a no-op implementation of BoardHooks.
type NoopBoardHooks struct{}

func (NoopBoardHooks) OnConnectionAdded(context.Context, string, string, int)        {}
func (NoopBoardHooks) OnConnectionRejected(context.Context, string, string, error)   {}
func (NoopBoardHooks) OnRender(context.Context, int, int, int, time.Duration, error) {}

// NoopSourceHooks is a no-op implementation of SourceHooks.
type NoopSourceHooks struct{}

func (NoopSourceHooks) OnEventEmitted(context.Context, string)         {}
func (NoopSourceHooks) OnEventDropped(context.Context, string, string) {}
func (NoopSourceHooks) OnSourceStopped(context.Context, string, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	boardHooks  BoardHooks  = NoopBoardHooks{}
	sourceHooks SourceHooks = NoopSourceHooks{}
	hooksMu     sync.RWMutex
)

// SetBoardHooks registers custom board hooks.
// This should be called once at application startup before any board is built.
func SetBoardHooks(h BoardHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		boardHooks = h
	}
}

// SetSourceHooks registers custom source hooks.
// This should be called once at application startup before any source starts.
func SetSourceHooks(h SourceHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sourceHooks = h
	}
}

// Board returns the registered board hooks.
func Board() BoardHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return boardHooks
}

// Source returns the registered source hooks.
func Source() SourceHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sourceHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	boardHooks = NoopBoardHooks{}
	sourceHooks = NoopSourceHooks{}
}
