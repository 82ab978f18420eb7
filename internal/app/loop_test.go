package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/boardviz/pkg/source"
)

func TestLoopRunInOrder(t *testing.T) {
	var published atomic.Int32
	s := newSession(t, dotRenderer, WithHistory(5), WithPublisher(func(*Snapshot) { published.Add(1) }))
	mb := source.NewMailbox(8, quietLogger())
	pairs := [][2]string{{"01", "02"}, {"03", "04"}, {"05", "99"}, {"07", "08"}}
	for _, p := range pairs {
		require.True(t, mb.Post(source.NewEvent("test", p[0], p[1])))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- NewLoop(s, mb, quietLogger()).Run(ctx) }()

	// One snapshot at construction plus one per event.
	require.Eventually(t, func() bool { return int(published.Load()) == len(pairs)+1 },
		2*time.Second, 5*time.Millisecond)
	mb.Close()
	require.NoError(t, <-done)

	recent := s.Recent()
	require.Len(t, recent, 4)
	for i, p := range pairs {
		assert.Equal(t, p[0], recent[i].Event.First)
	}
	assert.False(t, recent[2].Accepted())
	assert.Equal(t, 3, s.Graph().EdgeCount())
}

func TestLoopStopsOnCancel(t *testing.T) {
	s := newSession(t, dotRenderer)
	mb := source.NewMailbox(1, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewLoop(s, mb, quietLogger()).Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type scriptedSource struct {
	*source.Worker
}

func newScriptedSource(pairs [][2]string, failWith error) *scriptedSource {
	loop := func(ctx context.Context, emit source.Handler) error {
		for _, p := range pairs {
			emit(source.NewEvent("scripted", p[0], p[1]))
		}
		<-ctx.Done()
		if failWith != nil {
			return failWith
		}
		return ctx.Err()
	}
	return &scriptedSource{Worker: source.NewWorker("scripted", loop, quietLogger())}
}

func TestLoopServe(t *testing.T) {
	var accepted atomic.Int32
	s := newSession(t, dotRenderer, WithPublisher(func(sn *Snapshot) { accepted.Store(int32(sn.Accepted)) }))
	mb := source.NewMailbox(8, quietLogger())
	src := newScriptedSource([][2]string{{"05", "06"}, {"12", "13"}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewLoop(s, mb, quietLogger()).Serve(ctx, src) }()

	require.Eventually(t, func() bool { return accepted.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	require.NoError(t, <-done)
	assert.False(t, src.Running())
	assert.True(t, mb.Closed())
}

func TestLoopServeReturnsSourceError(t *testing.T) {
	s := newSession(t, dotRenderer)
	mb := source.NewMailbox(8, quietLogger())
	boom := errors.New("serial port gone")
	src := newScriptedSource(nil, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewLoop(s, mb, quietLogger()).Serve(ctx, src)
	assert.ErrorIs(t, err, boom)
}
