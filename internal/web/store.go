package web

import (
	"sync/atomic"
	"time"

	"github.com/matzehuels/boardviz/internal/app"
	bio "github.com/matzehuels/boardviz/pkg/io"
)

// EventUpdate is the SSE event name for board changes.
const EventUpdate = "update"

// Store holds the latest published snapshot. The presentation loop writes
// it; HTTP handlers only read.
type Store struct {
	snap atomic.Pointer[app.Snapshot]
	hub  *Hub
}

// NewStore creates an empty store that announces changes on hub. hub may be
// nil.
func NewStore(hub *Hub) *Store {
	s := &Store{hub: hub}
	if hub != nil {
		hub.initial = func() (message, bool) {
			snap := s.Load()
			if snap == nil {
				return message{}, false
			}
			return message{event: EventUpdate, data: newUpdate(snap)}, true
		}
	}
	return s
}

// Publish replaces the current snapshot. It has the signature expected by
// [app.WithPublisher].
func (s *Store) Publish(snap *app.Snapshot) {
	s.snap.Store(snap)
	if s.hub != nil {
		s.hub.Broadcast(EventUpdate, newUpdate(snap))
	}
}

// Load returns the current snapshot, or nil before the first Publish.
func (s *Store) Load() *app.Snapshot { return s.snap.Load() }

// update is the JSON payload of an SSE update event.
type update struct {
	Seq       int        `json:"seq"`
	Edges     int        `json:"edges"`
	Accepted  int        `json:"accepted"`
	Rejected  int        `json:"rejected"`
	Failed    int        `json:"failed"`
	ETag      string     `json:"etag"`
	Last      *lastEvent `json:"last,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type lastEvent struct {
	bio.Connection
	Source string `json:"source,omitempty"`
	Error  string `json:"error,omitempty"`
}

func newUpdate(snap *app.Snapshot) update {
	u := update{
		Seq:       snap.Seq,
		Edges:     len(snap.Connections),
		Accepted:  snap.Accepted,
		Rejected:  snap.Rejected,
		Failed:    snap.Failed,
		ETag:      snap.ETag,
		UpdatedAt: snap.UpdatedAt,
	}
	if n := len(snap.Recent); n > 0 {
		r := snap.Recent[n-1]
		u.Last = &lastEvent{
			Connection: bio.Connection{First: r.Event.First, Second: r.Event.Second},
			Source:     r.Event.Source,
		}
		if r.Err != nil {
			u.Last.Error = r.Err.Error()
		}
	}
	return u
}
