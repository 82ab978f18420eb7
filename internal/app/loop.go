package app

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/boardviz/pkg/source"
)

// Loop is the headless presentation loop. It takes events from a mailbox
// strictly in arrival order and hands each to the session.
type Loop struct {
	session *Session
	mailbox *source.Mailbox
	logger  *log.Logger
}

// NewLoop creates a loop that feeds mb into s.
func NewLoop(s *Session, mb *source.Mailbox, logger *log.Logger) *Loop {
	if logger == nil {
		logger = log.Default()
	}
	return &Loop{session: s, mailbox: mb, logger: logger}
}

// Run handles events until ctx is done or the mailbox is closed. It always
// returns nil; event errors are handled by the session.
func (l *Loop) Run(ctx context.Context) error {
	for {
		ev, ok := l.mailbox.Receive(ctx)
		if !ok {
			l.logger.Debug("presentation loop stopped", "handled", l.handled())
			return nil
		}
		l.session.Handle(ctx, ev)
	}
}

func (l *Loop) handled() int {
	a, r, f := l.session.Counts()
	return a + r + f
}

// Serve starts src feeding the loop and runs until ctx is done. Shutdown
// stops the source first, then closes the mailbox so nothing produced after
// the stop is observed. The source's stop error is returned.
func (l *Loop) Serve(ctx context.Context, src source.Source) error {
	if err := src.Start(ctx, l.mailbox.Handler()); err != nil {
		return err
	}
	l.logger.Info("source started", "source", src.Name())

	_ = l.Run(ctx)

	err := src.Stop()
	l.mailbox.Close()
	if err != nil {
		l.logger.Error("source stopped with error", "source", src.Name(), "err", err)
	}
	return err
}
