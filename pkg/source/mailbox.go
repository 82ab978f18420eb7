package source

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/boardviz/pkg/observability"
)

// DefaultMailboxSize is generous: the reference source produces one event
// every two seconds.
const DefaultMailboxSize = 256

// Mailbox is the single handoff point between source workers and the
// presentation loop. Post never blocks; Receive delivers in arrival order.
type Mailbox struct {
	ch      chan Event
	done    chan struct{}
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Int64
	logger  *log.Logger
}

// NewMailbox creates a mailbox buffering up to size events. Sizes below 1
// use DefaultMailboxSize.
func NewMailbox(size int, logger *log.Logger) *Mailbox {
	if size < 1 {
		size = DefaultMailboxSize
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Mailbox{
		ch:     make(chan Event, size),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post queues ev without blocking. It returns false, counting the event as
// dropped, when the mailbox is full or closed.
func (m *Mailbox) Post(ev Event) bool {
	if m.closed.Load() {
		m.drop(ev, "closed")
		return false
	}
	select {
	case m.ch <- ev:
		return true
	default:
		m.drop(ev, "full")
		return false
	}
}

func (m *Mailbox) drop(ev Event, reason string) {
	m.dropped.Add(1)
	m.logger.Warn("dropping connection event", "first", ev.First, "second", ev.Second, "reason", reason)
	observability.Source().OnEventDropped(context.Background(), ev.Source, reason)
}

// Handler returns a Handler that posts into the mailbox.
func (m *Mailbox) Handler() Handler {
	return func(ev Event) { m.Post(ev) }
}

// Receive blocks for the next event. It returns false when ctx is done or
// the mailbox is closed; events still buffered at Close are discarded.
func (m *Mailbox) Receive(ctx context.Context) (Event, bool) {
	select {
	case <-ctx.Done():
		return Event{}, false
	case <-m.done:
		return Event{}, false
	case ev := <-m.ch:
		if m.closed.Load() {
			return Event{}, false
		}
		return ev, true
	}
}

// Close stops delivery. Subsequent Posts are dropped and Receive returns
// false. Close is idempotent.
func (m *Mailbox) Close() {
	m.once.Do(func() {
		m.closed.Store(true)
		close(m.done)
	})
}

// Closed reports whether Close has been called.
func (m *Mailbox) Closed() bool { return m.closed.Load() }

// Len returns the number of buffered events.
func (m *Mailbox) Len() int { return len(m.ch) }

// Dropped returns how many events were discarded by Post.
func (m *Mailbox) Dropped() int64 { return m.dropped.Load() }
