package source

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	errs "github.com/matzehuels/boardviz/pkg/errors"
	"github.com/matzehuels/boardviz/pkg/observability"
)

// LoopFunc is the body of a source. It must return when ctx is done and
// should return ctx.Err() in that case; any other error ends the worker.
type LoopFunc func(ctx context.Context, emit Handler) error

// Worker runs a LoopFunc on its own goroutine with start/stop/join
// semantics. Sources embed it to satisfy the lifecycle half of [Source].
//
// A Worker may be restarted after it stopped. It is safe to call Stop from
// any goroutine.
type Worker struct {
	name   string
	loop   LoopFunc
	logger *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// NewWorker creates a stopped worker. A nil logger uses log.Default().
func NewWorker(name string, loop LoopFunc, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.Default()
	}
	return &Worker{name: name, loop: loop, logger: logger}
}

// Name returns the worker's source name.
func (w *Worker) Name() string { return w.name }

// Start launches the loop and returns immediately. It returns
// ErrAlreadyStarted if the previous run has not finished.
func (w *Worker) Start(ctx context.Context, emit Handler) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done != nil {
		select {
		case <-w.done:
		default:
			return ErrAlreadyStarted
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done
	w.err = nil

	w.logger.Debug("source started", "source", w.name)
	go w.run(ctx, w.guard(ctx, emit), done)
	return nil
}

// guard drops events produced after cancellation so nothing reaches the
// handler once Stop has been requested.
func (w *Worker) guard(ctx context.Context, emit Handler) Handler {
	return func(ev Event) {
		if ctx.Err() != nil {
			observability.Source().OnEventDropped(ctx, w.name, "stopped")
			return
		}
		emit(ev)
		observability.Source().OnEventEmitted(ctx, w.name)
	}
}

func (w *Worker) run(ctx context.Context, emit Handler, done chan struct{}) {
	defer close(done)

	err := w.safeLoop(ctx, emit)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		w.logger.Error("source failed", "source", w.name, "err", err)
	} else {
		w.logger.Debug("source stopped", "source", w.name)
	}

	w.mu.Lock()
	w.err = err
	w.mu.Unlock()

	observability.Source().OnSourceStopped(context.WithoutCancel(ctx), w.name, err)
}

func (w *Worker) safeLoop(ctx context.Context, emit Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.New(errs.ErrCodeSource, "%s: panic: %v", w.name, r)
		}
	}()
	return w.loop(ctx, emit)
}

// Stop cancels the loop and blocks until it has exited. Calling Stop on a
// worker that never started is a no-op. It returns the error that ended the
// loop, nil for a clean stop.
func (w *Worker) Stop() error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	if done == nil {
		return nil
	}
	cancel()
	<-done
	return w.Err()
}

// Done is closed when the current run ends. It is nil before the first Start.
func (w *Worker) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

// Err returns the error that ended the last run.
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Running reports whether the loop is currently running.
func (w *Worker) Running() bool {
	done := w.Done()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}
