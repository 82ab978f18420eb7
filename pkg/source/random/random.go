// Package random provides a placeholder connection source that reports a
// uniformly random pair of distinct contacts on a fixed interval.
//
// It stands in for a measurement process until real hardware is attached:
//
//	src, err := random.New(random.Config{Interval: 2 * time.Second, Count: 24, Width: 2})
//	src.Start(ctx, mailbox.Handler())
//	defer src.Stop()
package random

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/boardviz/pkg/board"
	errs "github.com/matzehuels/boardviz/pkg/errors"
	"github.com/matzehuels/boardviz/pkg/source"
)

// Name is the source name used in events, logs and metrics.
const Name = "random"

// Defaults match the reference board: labels "01".."24" every two seconds.
const (
	DefaultInterval = 2 * time.Second
	DefaultCount    = 24
	DefaultWidth    = 2
)

// Config configures a random source. Zero fields take the defaults.
type Config struct {
	Interval time.Duration // time between events
	Count    int           // labels are 1..Count
	Width    int           // zero-padded label width
	Seed     uint64        // 0 picks a random seed
	Logger   *log.Logger
}

// Source emits random contact pairs. It implements [source.Source].
type Source struct {
	*source.Worker
	cfg Config
	rng *rand.Rand
}

var _ source.Source = (*Source)(nil)

// New creates a stopped random source. It returns an INVALID_CONFIG error if
// Count is below 2 (no two distinct contacts) or Interval is negative.
func New(cfg Config) (*Source, error) {
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Count == 0 {
		cfg.Count = DefaultCount
	}
	if cfg.Width == 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Interval < 0 {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "random source interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Count < 2 {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "random source needs at least 2 contacts, got %d", cfg.Count)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	s := &Source{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	s.Worker = source.NewWorker(Name, s.loop, cfg.Logger)
	return s, nil
}

// Interval returns the time between events.
func (s *Source) Interval() time.Duration { return s.cfg.Interval }

func (s *Source) loop(ctx context.Context, emit source.Handler) error {
	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		first, second := s.pair()
		emit(source.NewEvent(Name, first, second))
	}
}

// pair draws two distinct labels. Only the worker goroutine calls it.
func (s *Source) pair() (string, string) {
	a := s.rng.IntN(s.cfg.Count) + 1
	b := a
	for b == a {
		b = s.rng.IntN(s.cfg.Count) + 1
	}
	return board.FormatLabel(a, s.cfg.Width), board.FormatLabel(b, s.cfg.Width)
}
