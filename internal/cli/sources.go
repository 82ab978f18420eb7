package cli

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/boardviz/pkg/config"
	errs "github.com/matzehuels/boardviz/pkg/errors"
	"github.com/matzehuels/boardviz/pkg/source"
	"github.com/matzehuels/boardviz/pkg/source/random"
	"github.com/matzehuels/boardviz/pkg/source/redis"
	"github.com/matzehuels/boardviz/pkg/source/tail"
)

// newSource builds the connection source selected by cfg.Source.Kind.
func newSource(cfg *config.Config, logger *log.Logger) (source.Source, error) {
	s := cfg.Source
	switch s.Kind {
	case config.SourceRandom:
		return random.New(random.Config{
			Interval: cfg.Interval(),
			Count:    s.Count,
			Width:    s.LabelWidth,
			Seed:     s.Seed,
			Logger:   logger,
		})
	case config.SourceTail:
		return tail.New(tail.Config{
			Path:      s.Path,
			FromStart: s.FromStart,
			Logger:    logger,
		})
	case config.SourceRedis:
		return redis.New(redis.Config{
			Addr:    s.RedisAddr,
			Channel: s.RedisChannel,
			Logger:  logger,
		})
	}
	return nil, errs.New(errs.ErrCodeUnsupported, "unknown source kind %q", s.Kind)
}

// sourceFlags are the overrides shared by run and serve.
type sourceFlags struct {
	kind     string
	interval string
	path     string
}

// apply copies set flags onto cfg and revalidates it.
func (f sourceFlags) apply(cfg *config.Config) error {
	if f.kind != "" {
		cfg.Source.Kind = f.kind
	}
	if f.interval != "" {
		cfg.Source.Interval = f.interval
	}
	if f.path != "" {
		cfg.Source.Path = f.path
	}
	return cfg.Validate()
}
