package source

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	errs "github.com/matzehuels/boardviz/pkg/errors"
)

// ErrAlreadyStarted is returned by Start on a source that is still running.
var ErrAlreadyStarted = errors.New("source already started")

// Event reports that a connection between two contacts was detected.
//
// There is no measured resistance yet; sources only report the pair.
type Event struct {
	ID     string    // unique per event
	First  string    // first contact, as reported
	Second string    // second contact, as reported
	Source string    // name of the source that produced the event
	At     time.Time // when the event was produced
}

// NewEvent stamps a pair with a fresh ID and the current time.
func NewEvent(source, first, second string) Event {
	return Event{
		ID:     uuid.NewString(),
		First:  first,
		Second: second,
		Source: source,
		At:     time.Now(),
	}
}

// Handler receives events from a source's worker goroutine.
type Handler func(Event)

// Source is anything that reports connection events.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Start begins emitting events to emit and returns immediately.
	Start(ctx context.Context, emit Handler) error
	// Stop ends emission and waits for the worker to exit. It returns the
	// error that ended the worker, if any.
	Stop() error
}

type pairJSON struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// ParsePair parses a connection report. Accepted forms:
//
//	05 06
//	05,06
//	05-06
//	{"first":"05","second":"06"}
//
// Both labels must be valid contact IDs. Whether they are on the board is
// decided later by the board itself.
func ParsePair(s string) (first, second string, err error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		var p pairJSON
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return "", "", errs.Wrap(errs.ErrCodeInvalidEvent, err, "decode pair")
		}
		first, second = p.First, p.Second
	} else {
		fields := strings.FieldsFunc(s, func(r rune) bool {
			return r == ',' || r == '-' || r == ';' || r == ' ' || r == '\t'
		})
		if len(fields) != 2 {
			return "", "", errs.New(errs.ErrCodeInvalidEvent, "want two contacts, got %q", s)
		}
		first, second = fields[0], fields[1]
	}

	for _, id := range []string{first, second} {
		if err := errs.ValidateContactID(id); err != nil {
			return "", "", errs.Wrap(errs.ErrCodeInvalidEvent, err, "parse %q", s)
		}
	}
	return first, second, nil
}
