// Package redis bridges a measurement process that publishes detected
// connections on a Redis pub/sub channel. Payloads use the forms accepted by
// [source.ParsePair], e.g. "05 06" or {"first":"05","second":"06"}.
package redis

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	goredis "github.com/redis/go-redis/v9"

	errs "github.com/matzehuels/boardviz/pkg/errors"
	"github.com/matzehuels/boardviz/pkg/source"
)

// Name is the source name used in events, logs and metrics.
const Name = "redis"

// Defaults for a local Redis.
const (
	DefaultAddr    = "localhost:6379"
	DefaultChannel = "boardviz:connections"
)

// Config configures a Redis source.
type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string

	// Client, if set, is used instead of dialing Addr. The source does not
	// close a client it did not create.
	Client *goredis.Client

	// Retry controls how often the initial subscribe is attempted. The
	// zero value uses [source.DefaultBackoff].
	Retry source.Backoff

	Logger *log.Logger
}

// Source subscribes to a channel of connection reports. It implements
// [source.Source].
type Source struct {
	*source.Worker
	cfg    Config
	client *goredis.Client
	owned  bool
	logger *log.Logger
}

var _ source.Source = (*Source)(nil)

// New creates a stopped Redis source. No connection is made until Start.
func New(cfg Config) (*Source, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if strings.ContainsAny(cfg.Channel, " \t\n") {
		return nil, errs.New(errs.ErrCodeInvalidConfig, "invalid redis channel %q", cfg.Channel)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry = source.DefaultBackoff
	}

	s := &Source{cfg: cfg, client: cfg.Client, logger: cfg.Logger}
	if s.client == nil {
		s.client = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		s.owned = true
	}
	s.Worker = source.NewWorker(Name, s.loop, cfg.Logger)
	return s, nil
}

// Channel returns the subscribed channel name.
func (s *Source) Channel() string { return s.cfg.Channel }

// Stop ends the subscription, waits for the worker, and closes the client
// if the source created it.
func (s *Source) Stop() error {
	err := s.Worker.Stop()
	if s.owned {
		if cerr := s.client.Close(); cerr != nil && err == nil {
			s.logger.Debug("close redis client", "err", cerr)
		}
	}
	return err
}

func (s *Source) loop(ctx context.Context, emit source.Handler) error {
	sub, err := s.subscribe(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errs.Wrap(errs.ErrCodeSource, err, "subscribe %s on %s", s.cfg.Channel, s.cfg.Addr)
	}
	defer sub.Close()
	s.logger.Info("subscribed to connection channel", "addr", s.cfg.Addr, "channel", s.cfg.Channel)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return errs.New(errs.ErrCodeSource, "subscription to %s closed", s.cfg.Channel)
			}
			if ev, ok := s.decode(msg.Payload); ok {
				emit(ev)
			}
		}
	}
}

// subscribe waits for the subscription confirmation so connection errors
// surface here, retrying while the server is unreachable.
func (s *Source) subscribe(ctx context.Context) (*goredis.PubSub, error) {
	var sub *goredis.PubSub
	attempt := 0
	err := source.Retry(ctx, s.cfg.Retry, func() error {
		attempt++
		sub = s.client.Subscribe(ctx, s.cfg.Channel)
		if _, err := sub.Receive(ctx); err != nil {
			sub.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Debug("redis subscribe failed", "attempt", attempt, "err", err)
			return source.Retryable(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Source) decode(payload string) (source.Event, bool) {
	first, second, err := source.ParsePair(payload)
	if err != nil {
		s.logger.Warn("skipping malformed message", "channel", s.cfg.Channel, "payload", payload, "err", err)
		return source.Event{}, false
	}
	return source.NewEvent(Name, first, second), true
}
