package tail

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/matzehuels/boardviz/pkg/errors"
	"github.com/matzehuels/boardviz/pkg/source"
)

type collector struct {
	mu     sync.Mutex
	events []source.Event
}

func (c *collector) emit(ev source.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) pairs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, ev := range c.events {
		out[i] = ev.First + "-" + ev.Second
	}
	return out
}

func newSource(t *testing.T, cfg Config) *Source {
	t.Helper()
	cfg.Logger = log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 10 * time.Millisecond
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func appendLines(t *testing.T, path string, lines string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(lines)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestNewRequiresPath(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrCodeInvalidConfig))
}

func TestFollowFromStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections.txt")
	appendLines(t, path, "05 06\n# comment\n\nbogus\n12,13\n")

	s := newSource(t, Config{Path: path, FromStart: true})
	var c collector
	require.NoError(t, s.Start(context.Background(), c.emit))
	defer s.Stop()

	require.Eventually(t, func() bool { return len(c.pairs()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"05-06", "12-13"}, c.pairs())

	appendLines(t, path, "01-24\n")
	require.Eventually(t, func() bool { return len(c.pairs()) == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "01-24", c.pairs()[2])
}

func TestPartialLineWaitsForNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections.txt")
	appendLines(t, path, "")

	s := newSource(t, Config{Path: path, FromStart: true})
	var c collector
	require.NoError(t, s.Start(context.Background(), c.emit))
	defer s.Stop()

	appendLines(t, path, "07 ")
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, c.pairs())

	appendLines(t, path, "08\n")
	require.Eventually(t, func() bool { return len(c.pairs()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "07-08", c.pairs()[0])
}

func TestFileCreatedLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later.txt")

	s := newSource(t, Config{Path: path})
	var c collector
	require.NoError(t, s.Start(context.Background(), c.emit))
	defer s.Stop()

	time.Sleep(20 * time.Millisecond)
	appendLines(t, path, "03 04\n")
	require.Eventually(t, func() bool { return len(c.pairs()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "03-04", c.pairs()[0])
}

func TestNoEventsAfterStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connections.txt")
	appendLines(t, path, "")

	s := newSource(t, Config{Path: path, FromStart: true})
	var c collector
	require.NoError(t, s.Start(context.Background(), c.emit))

	appendLines(t, path, "01 02\n")
	require.Eventually(t, func() bool { return len(c.pairs()) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop())

	appendLines(t, path, "03 04\n")
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, c.pairs(), 1)
}
